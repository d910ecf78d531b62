package choropleth

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"crimemap/geo"
	"crimemap/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squares = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"COUNTY": "Nairobi"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
    {"type": "Feature", "properties": {"COUNTY": "Kisumu"},
     "geometry": {"type": "Polygon", "coordinates": [[[1,0],[2,0],[2,1],[1,1],[1,0]]]}}
  ]
}`

func testInputs(t *testing.T) (*geo.Boundaries, geo.Joined) {
	t.Helper()
	boundaries, err := geo.DecodeBoundaries(strings.NewReader(squares), "")
	require.NoError(t, err)
	joined := geo.Join([]report.Record{{Region: "Nairobi", Period: 2023, CountTotal: 12000}}, boundaries)
	return boundaries, joined
}

func TestRender_SVGFillsRegionsByScale(t *testing.T) {
	boundaries, joined := testInputs(t)

	var buf bytes.Buffer
	err := Render(&buf, "svg", boundaries, joined, geo.FixedScale(), Options{
		Title:  "Kenya Violent Crimes",
		Period: 2023,
		Metric: report.MetricTotal,
	})
	require.NoError(t, err)

	svg := buf.String()
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Kenya Violent Crimes - 2023")
	assert.Contains(t, svg, "#800026")
	assert.Contains(t, svg, geo.NoDataColor)
	assert.Contains(t, svg, "10000+")
}

func TestRender_PNG(t *testing.T) {
	boundaries, joined := testInputs(t)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "PNG", boundaries, joined, geo.FixedScale(), Options{Period: 2023}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRender_RejectsUnknownFormat(t *testing.T) {
	boundaries, joined := testInputs(t)
	err := Render(&bytes.Buffer{}, "bmp", boundaries, joined, geo.FixedScale(), Options{})
	require.Error(t, err)
}

func TestRender_WithoutBoundaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "svg", nil, geo.Joined{}, geo.FixedScale(), Options{Title: "Empty"}))
	assert.Contains(t, buf.String(), "Empty")
}

func TestFormatFromPath(t *testing.T) {
	format, err := FormatFromPath("out/map.SVG")
	require.NoError(t, err)
	assert.Equal(t, "svg", format)

	_, err = FormatFromPath("map.gif")
	require.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#FD8D3C")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xFD, G: 0x8D, B: 0x3C, A: 255}, c)

	_, err = parseHexColor("red")
	require.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Map - 2022", title(Options{Title: "Map", Period: 2022}))
	assert.Equal(t, "Map", title(Options{Title: "Map"}))
	assert.Equal(t, "2022", title(Options{Period: 2022}))
}
