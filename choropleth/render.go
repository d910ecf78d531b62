// Package choropleth draws joined region data as a static map image.
package choropleth

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"crimemap/geo"
	"crimemap/report"

	"github.com/twpayne/go-geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	defaultWidth  = 8 * vg.Inch
	defaultHeight = 8 * vg.Inch
)

var borderColor = color.White

// Options control a single rendering.
type Options struct {
	Title  string
	Period int
	Metric report.Metric
	Width  vg.Length
	Height vg.Length
}

// Formats lists the output formats Render accepts.
func Formats() []string {
	return []string{"png", "svg", "pdf"}
}

// FormatFromPath infers the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, supported := range Formats() {
		if format == supported {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported map format for %s (valid: %s)", path, strings.Join(Formats(), ", "))
}

// Render fills every boundary polygon with the scale colour of its joined
// record and writes the map with a legend in format. Regions without a
// record are drawn in geo.NoDataColor.
func Render(w io.Writer, format string, boundaries *geo.Boundaries, joined geo.Joined, scale geo.Scale, opts Options) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if _, err := FormatFromPath("map." + format); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title(opts)
	p.HideAxes()
	p.BackgroundColor = color.White

	if boundaries != nil {
		for i, feature := range boundaries.Features {
			fill := geo.NoDataColor
			if record, ok := joined.Record(i); ok {
				fill = scale.ColorFor(opts.Metric.Value(record))
			}
			fillColor, err := parseHexColor(fill)
			if err != nil {
				return err
			}
			for _, polygon := range feature.Polygons {
				shape, err := polygonPlotter(polygon, fillColor)
				if err != nil {
					return fmt.Errorf("region %q: %w", feature.Name, err)
				}
				p.Add(shape)
			}
		}
		setRange(p, boundaries.Bounds)
	}

	if err := addLegend(p, scale, opts.Metric); err != nil {
		return err
	}

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	writerTo, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	if _, err := writerTo.WriteTo(w); err != nil {
		return fmt.Errorf("write %s map: %w", format, err)
	}
	return nil
}

func title(opts Options) string {
	text := strings.TrimSpace(opts.Title)
	if opts.Period == report.NoPeriod {
		return text
	}
	if text == "" {
		return strconv.Itoa(opts.Period)
	}
	return fmt.Sprintf("%s - %d", text, opts.Period)
}

func polygonPlotter(polygon *geom.Polygon, fill color.Color) (*plotter.Polygon, error) {
	rings := make([]plotter.XYer, 0, polygon.NumLinearRings())
	for i := 0; i < polygon.NumLinearRings(); i++ {
		coords := polygon.LinearRing(i).Coords()
		ring := make(plotter.XYs, len(coords))
		for j, coord := range coords {
			ring[j] = plotter.XY{X: coord.X(), Y: coord.Y()}
		}
		rings = append(rings, ring)
	}

	shape, err := plotter.NewPolygon(rings...)
	if err != nil {
		return nil, err
	}
	shape.Color = fill
	shape.LineStyle.Color = borderColor
	shape.LineStyle.Width = vg.Points(0.75)
	return shape, nil
}

func setRange(p *plot.Plot, bounds *geom.Bounds) {
	if bounds == nil || bounds.IsEmpty() {
		return
	}
	p.X.Min, p.X.Max = bounds.Min(0), bounds.Max(0)
	p.Y.Min, p.Y.Max = bounds.Min(1), bounds.Max(1)
}

func addLegend(p *plot.Plot, scale geo.Scale, metric report.Metric) error {
	p.Legend.Top = true
	p.Legend.Add(metric.Label())
	for _, entry := range scale.Legend() {
		swatchColor, err := parseHexColor(entry.Color)
		if err != nil {
			return err
		}
		swatch, err := plotter.NewPolygon(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}})
		if err != nil {
			return err
		}
		swatch.Color = swatchColor
		p.Legend.Add(entry.Label, swatch)
	}
	return nil
}

// parseHexColor parses "#RRGGBB".
func parseHexColor(value string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", value)
	}
	parsed, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", value, err)
	}
	return color.RGBA{
		R: uint8(parsed >> 16),
		G: uint8(parsed >> 8),
		B: uint8(parsed),
		A: 255,
	}, nil
}
