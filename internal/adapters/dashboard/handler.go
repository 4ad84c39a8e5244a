// Package dashboard is the HTTP presentation boundary: the HTML page, the
// figure JSON and image endpoints, and asynchronous snapshot exports.
package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lifeexp/internal/blob"
	"lifeexp/internal/chart"
	"lifeexp/internal/dataset"
	"lifeexp/internal/observability"
	"lifeexp/internal/render"
)

// APIPrefix is the root of the dashboard JSON and image API.
const APIPrefix = "/api/v1/dashboard"

// Dataset is the read-only country table the handler serves from.
type Dataset interface {
	chart.Source
	chart.Catalog
	Lookup(country string) (dataset.CountryRecord, bool)
	Len() int
}

// Handler provides HTTP access to the dashboard.
type Handler struct {
	Data    Dataset
	Exports ExportScheduler
	// Store serves export artifacts when the backend cannot presign.
	Store       blob.Store
	Metrics     *observability.Collector
	Logger      *zap.Logger
	ScatterSize render.Size
	MapSize     render.Size
}

// NewHandler constructs a dashboard HTTP handler.
func NewHandler(data Dataset) *Handler {
	return &Handler{Data: data}
}

// Routes mounts the dashboard, liveness and metrics endpoints behind request
// logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", h)
	mux.Handle("/healthz", h.Metrics.Instrument("healthz", http.HandlerFunc(h.handleHealth)))
	mux.Handle("/metrics", h.Metrics.Handler())
	return observability.RequestLogger(h.Logger, mux)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Data == nil {
		writeError(w, http.StatusInternalServerError, "dataset not configured")
		return
	}

	p := r.URL.Path
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	route, next := h.route(r, p)
	h.Metrics.Instrument(route, next).ServeHTTP(w, r)
}

func (h *Handler) route(r *http.Request, p string) (string, http.HandlerFunc) {
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			return methodNotAllowed
		}
		return fn
	}
	switch {
	case p == "/":
		return "page", get(h.handlePage)
	case p == APIPrefix+"/options":
		return "options", get(h.handleOptions)
	case p == APIPrefix+"/scatter":
		return "scatter", get(h.handleScatter)
	case p == APIPrefix+"/map":
		return "map", get(h.handleMap)
	case strings.HasPrefix(p, APIPrefix+"/countries/"):
		name := strings.TrimPrefix(p, APIPrefix+"/countries/")
		return "country", get(func(w http.ResponseWriter, r *http.Request) { h.handleCountry(w, r, name) })
	case p == APIPrefix+"/exports" || strings.HasPrefix(p, APIPrefix+"/exports/"):
		if h.Exports == nil {
			return "exports", http.NotFound
		}
		return "exports", func(w http.ResponseWriter, r *http.Request) { h.handleExports(w, r, p) }
	default:
		return "not_found", http.NotFound
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	rows := 0
	if h.Data != nil {
		rows = h.Data.Len()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": rows})
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := render.Page(&buf, render.PageData{
		Options:   chart.Options(h.Data),
		Selection: selectionFrom(r),
		APIPrefix: APIPrefix,
	})
	if err != nil {
		h.internalError(w, "render page", err)
		return
	}
	writeBody(w, render.FormatHTML.ContentType(), "", buf.Bytes())
}

func (h *Handler) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"options": chart.Options(h.Data)})
}

func (h *Handler) handleScatter(w http.ResponseWriter, r *http.Request) {
	format, ok := negotiateFormat(w, r, render.FormatPNG, render.FormatSVG, render.FormatCSV, render.FormatXLSX)
	if !ok {
		return
	}
	cs := h.compose(selectionFrom(r))
	if format == render.FormatJSON {
		writeJSON(w, http.StatusOK, chart.ScatterFigure(cs))
		return
	}

	var buf bytes.Buffer
	var err error
	disposition := ""
	switch format {
	case render.FormatCSV:
		err = render.CSV(&buf, cs)
		disposition = ArtifactName(format)
	case render.FormatXLSX:
		err = render.XLSX(&buf, cs)
		disposition = ArtifactName(format)
	default:
		err = render.Scatter(&buf, cs, format, h.ScatterSize)
	}
	if err != nil {
		h.internalError(w, "render scatter", err)
		return
	}
	writeBody(w, format.ContentType(), disposition, buf.Bytes())
}

func (h *Handler) handleMap(w http.ResponseWriter, r *http.Request) {
	format, ok := negotiateFormat(w, r, render.FormatPNG, render.FormatSVG)
	if !ok {
		return
	}
	records := h.Data.All()
	if format == render.FormatJSON {
		writeJSON(w, http.StatusOK, chart.MapFigure(records))
		return
	}
	var buf bytes.Buffer
	if err := render.Map(&buf, records, format, h.MapSize); err != nil {
		h.internalError(w, "render map", err)
		return
	}
	writeBody(w, format.ContentType(), "", buf.Bytes())
}

func (h *Handler) handleCountry(w http.ResponseWriter, _ *http.Request, name string) {
	rec, ok := h.Data.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "country not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"country": rec})
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, p string) {
	if p == APIPrefix+"/exports" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleExportCreate(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	segments := strings.Split(strings.TrimPrefix(p, APIPrefix+"/exports/"), "/")
	record, ok := h.Exports.GetExport(segments[0])
	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "export not found")
	case len(segments) == 1:
		writeJSON(w, http.StatusOK, map[string]any{"export": record})
	case len(segments) == 3 && segments[1] == "artifacts":
		h.handleArtifact(w, r, record, segments[2])
	default:
		http.NotFound(w, r)
	}
}

type exportRequest struct {
	Countries   []string `json:"countries"`
	Region      string   `json:"region"`
	Formats     []string `json:"formats"`
	RequestedBy string   `json:"requested_by"`
	Reason      string   `json:"reason"`
}

const emptyBodySentinel = "EOF"

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != emptyBodySentinel {
		writeError(w, http.StatusBadRequest, "invalid export payload")
		return
	}
	formats := make([]render.Format, 0, len(req.Formats))
	for _, raw := range req.Formats {
		f, err := render.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		formats = append(formats, f)
	}

	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		Selection:   chart.Selection{Countries: req.Countries, Region: req.Region},
		Formats:     formats,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
	})
	switch {
	case errors.Is(err, render.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrWorkerStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		h.internalError(w, "enqueue export", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request, record ExportRecord, name string) {
	var key string
	for _, artifact := range record.Artifacts {
		if path.Base(artifact.Key) == name {
			key = artifact.Key
			break
		}
	}
	if key == "" || h.Store == nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	info, rc, err := h.Store.Get(r.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if err != nil {
		h.internalError(w, "read artifact", err)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if info.ETag != "" {
		w.Header().Set("ETag", strconv.Quote(info.ETag))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger().Warn("artifact stream interrupted", zap.String("key", key), zap.Error(err))
	}
}

func (h *Handler) compose(sel chart.Selection) chart.ChartSeries {
	cs := chart.Compose(h.Data, sel)
	h.Metrics.ObserveComposition()
	h.logger().Debug("compose",
		zap.Strings("countries", sel.SelectedCountries()),
		zap.String("region", sel.Region),
		zap.String("title", cs.Title),
	)
	return cs
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger().Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// selectionFrom reads repeated country params and the region param.
func selectionFrom(r *http.Request) chart.Selection {
	q := r.URL.Query()
	return chart.Selection{
		Countries: q["country"],
		Region:    chart.ParseRegion(q.Get("region")),
	}
}

// negotiateFormat resolves ?format against the allowed encodings. JSON is
// always accepted and is the default. It writes 406 and returns false for
// anything else.
func negotiateFormat(w http.ResponseWriter, r *http.Request, allowed ...render.Format) (render.Format, bool) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return render.FormatJSON, true
	}
	format, err := render.ParseFormat(raw)
	if err == nil {
		if format == render.FormatJSON {
			return format, true
		}
		for _, f := range allowed {
			if f == format {
				return format, true
			}
		}
	}
	writeError(w, http.StatusNotAcceptable, "unsupported format "+strconv.Quote(raw))
	return "", false
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeBody(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
