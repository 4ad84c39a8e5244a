// Package testutil holds test helpers that enforce package boundaries: the
// dataset and chart core stays free of transport and rendering concerns.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// ImportPredicate reports whether an import path is forbidden.
type ImportPredicate func(importPath string) bool

// AssertNoDirectImports parses every non-test .go file in dir (not
// recursive, build tags ignored) and fails t if any import matches forbidden.
func AssertNoDirectImports(t testing.TB, dir string, forbidden ImportPredicate, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
}

// TransportImport matches HTTP, CLI and logging packages.
func TransportImport(path string) bool {
	switch {
	case path == "net/http", strings.HasPrefix(path, "net/http/"):
		return true
	case strings.Contains(path, "/internal/adapters"), strings.HasSuffix(path, "/internal/cli"):
		return true
	case strings.HasPrefix(path, "github.com/spf13/cobra"), strings.HasPrefix(path, "go.uber.org/zap"):
		return true
	}
	return false
}

// RenderingImport matches the image, spreadsheet and page encoders.
func RenderingImport(path string) bool {
	switch {
	case strings.HasSuffix(path, "/internal/render"), path == "html/template":
		return true
	case strings.HasPrefix(path, "github.com/wcharczuk/go-chart"),
		strings.HasPrefix(path, "gonum.org/v1/plot"),
		strings.HasPrefix(path, "github.com/xuri/excelize"):
		return true
	}
	return false
}

// StorageImport matches the blob layer and its cloud SDKs.
func StorageImport(path string) bool {
	return strings.Contains(path, "/internal/blob") ||
		strings.Contains(path, "/internal/infra/") ||
		strings.HasPrefix(path, "github.com/aws/")
}

// AnyOf matches when any predicate matches.
func AnyOf(preds ...ImportPredicate) ImportPredicate {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

func directImportViolations(dir string, forbidden ImportPredicate) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
