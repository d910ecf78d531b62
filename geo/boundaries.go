// Package geo loads region boundaries and joins parsed records onto them.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

const DefaultNameProperty = "COUNTY"

// Feature is one named region with its polygon rings in lon/lat order.
type Feature struct {
	Name     string
	Polygons []*geom.Polygon
	Bounds   *geom.Bounds
}

// Boundaries is a loaded boundary file. Features keep file order.
type Boundaries struct {
	Features []Feature
	Bounds   *geom.Bounds
	// Skipped counts features without polygon geometry.
	Skipped int
}

func LoadBoundaries(path, property string) (*Boundaries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boundaries %s: %w", path, err)
	}
	defer file.Close()

	boundaries, err := DecodeBoundaries(file, property)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return boundaries, nil
}

// DecodeBoundaries reads a GeoJSON FeatureCollection. Region names come from
// the given feature property; Polygon and MultiPolygon geometries are kept,
// other geometry types are counted in Skipped.
func DecodeBoundaries(r io.Reader, property string) (*Boundaries, error) {
	if strings.TrimSpace(property) == "" {
		property = DefaultNameProperty
	}

	var collection geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&collection); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	boundaries := &Boundaries{
		Features: make([]Feature, 0, len(collection.Features)),
		Bounds:   geom.NewBounds(geom.XY),
	}
	for _, raw := range collection.Features {
		if raw == nil {
			boundaries.Skipped++
			continue
		}
		polygons := polygonsOf(raw.Geometry)
		if len(polygons) == 0 {
			boundaries.Skipped++
			continue
		}

		feature := Feature{
			Name:     propertyString(raw.Properties, property),
			Polygons: polygons,
			Bounds:   geom.NewBounds(geom.XY),
		}
		for _, polygon := range polygons {
			feature.Bounds.Extend(polygon)
			boundaries.Bounds.Extend(polygon)
		}
		boundaries.Features = append(boundaries.Features, feature)
	}

	return boundaries, nil
}

// Names returns the feature names in file order.
func (b *Boundaries) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.Features))
	for _, feature := range b.Features {
		names = append(names, feature.Name)
	}
	return names
}

// RegionAt returns the index of the first feature containing the point, or
// -1 when no feature does.
func (b *Boundaries) RegionAt(lon, lat float64) int {
	if b == nil {
		return -1
	}
	for i := range b.Features {
		if b.Features[i].Contains(lon, lat) {
			return i
		}
	}
	return -1
}

// Contains reports whether the point lies inside one of the feature's
// polygons and outside that polygon's holes.
func (f Feature) Contains(lon, lat float64) bool {
	point := geom.Coord{lon, lat}
	if f.Bounds != nil && !f.Bounds.OverlapsPoint(geom.XY, point) {
		return false
	}

	for _, polygon := range f.Polygons {
		if polygon.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(geom.XY, point, polygon.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for i := 1; i < polygon.NumLinearRings(); i++ {
			if xy.IsPointInRing(geom.XY, point, polygon.LinearRing(i).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func polygonsOf(g geom.T) []*geom.Polygon {
	switch typed := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{typed}
	case *geom.MultiPolygon:
		polygons := make([]*geom.Polygon, 0, typed.NumPolygons())
		for i := 0; i < typed.NumPolygons(); i++ {
			polygons = append(polygons, typed.Polygon(i))
		}
		return polygons
	default:
		return nil
	}
}

func propertyString(properties map[string]any, key string) string {
	value, ok := properties[key]
	if !ok {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}
