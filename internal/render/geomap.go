package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"lifeexp/internal/chart"
	"lifeexp/internal/dataset"
)

// cividis is a three stop approximation of the Cividis colour scale.
var cividis = [3]color.RGBA{
	{R: 0, G: 32, B: 77, A: 255},
	{R: 124, G: 123, B: 120, A: 255},
	{R: 255, G: 234, B: 70, A: 255},
}

var mapBackground = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}

// Map draws every country as a bubble at its coordinates, coloured by total
// life expectancy.
func Map(w io.Writer, records []dataset.CountryRecord, format Format, size Size) error {
	if !format.Image() {
		return fmt.Errorf("%w: %s is not an image format", ErrUnsupportedFormat, format)
	}
	size = size.or(DefaultMapSize)

	p := plot.New()
	p.Title.Text = chart.MapTitle
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.BackgroundColor = mapBackground
	p.Add(plotter.NewGrid())

	if len(records) > 0 {
		points := make(plotter.XYs, len(records))
		lo, hi := records[0].LifeExpTotal, records[0].LifeExpTotal
		for i, rec := range records {
			points[i].X = rec.Lon
			points[i].Y = rec.Lat
			if rec.LifeExpTotal < lo {
				lo = rec.LifeExpTotal
			}
			if rec.LifeExpTotal > hi {
				hi = rec.LifeExpTotal
			}
		}
		bubbles, err := plotter.NewScatter(points)
		if err != nil {
			return fmt.Errorf("render map: %w", err)
		}
		bubbles.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  ramp(records[i].LifeExpTotal, lo, hi),
				Radius: vg.Points(6),
				Shape:  draw.CircleGlyph{},
			}
		}
		p.Add(bubbles)
	}

	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -90, 90

	wt, err := p.WriterTo(pixels(size.Width), pixels(size.Height), string(format))
	if err != nil {
		return fmt.Errorf("render map %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write map %s: %w", format, err)
	}
	return nil
}

// pixels converts a pixel count at 96 dpi to a vg length.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}

// ramp maps v in [lo, hi] onto the cividis stops.
func ramp(v, lo, hi float64) color.RGBA {
	t := 0.5
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	switch {
	case t <= 0:
		return cividis[0]
	case t >= 1:
		return cividis[2]
	case t < 0.5:
		return lerp(cividis[0], cividis[1], t*2)
	default:
		return lerp(cividis[1], cividis[2], (t-0.5)*2)
	}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
