package geo

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Minimal KML reader: Placemark Point/LineString/Polygon/MultiGeometry,
// folders at any depth. Anything else in the document is ignored.

type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   kmlContainer   `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlContainer struct {
	Name       string         `xml:"name"`
	Documents  []kmlContainer `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string       `xml:"name"`
	Point         *kmlGeometry `xml:"Point"`
	LineString    *kmlGeometry `xml:"LineString"`
	Polygon       *kmlPolygon  `xml:"Polygon"`
	MultiGeometry *kmlMulti    `xml:"MultiGeometry"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlBoundary   `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	Ring kmlGeometry `xml:"LinearRing"`
}

type kmlMulti struct {
	Points   []kmlGeometry `xml:"Point"`
	Lines    []kmlGeometry `xml:"LineString"`
	Polygons []kmlPolygon  `xml:"Polygon"`
}

// parseKML converts a KML document into features plus the embedded
// Document>name title (empty if the document carries none).
func parseKML(data []byte) (string, []*geojson.Feature, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var features []*geojson.Feature
	collect := func(pms []kmlPlacemark) {
		for _, pm := range pms {
			features = append(features, placemarkFeatures(pm)...)
		}
	}
	collect(root.Placemarks)
	var walk func(c kmlContainer)
	walk = func(c kmlContainer) {
		collect(c.Placemarks)
		for _, d := range c.Documents {
			walk(d)
		}
		for _, f := range c.Folders {
			walk(f)
		}
	}
	walk(root.Document)
	for _, f := range root.Folders {
		walk(f)
	}

	return strings.TrimSpace(root.Document.Name), features, nil
}

func placemarkFeatures(pm kmlPlacemark) []*geojson.Feature {
	name := strings.TrimSpace(pm.Name)
	var geoms []orb.Geometry

	if pm.Point != nil {
		if pts := parseCoordinates(pm.Point.Coordinates); len(pts) > 0 {
			geoms = append(geoms, pts[0])
		}
	}
	if pm.LineString != nil {
		if pts := parseCoordinates(pm.LineString.Coordinates); len(pts) >= 2 {
			geoms = append(geoms, orb.LineString(pts))
		}
	}
	if pm.Polygon != nil {
		if poly, ok := polygonGeometry(*pm.Polygon); ok {
			geoms = append(geoms, poly)
		}
	}
	if pm.MultiGeometry != nil {
		for _, p := range pm.MultiGeometry.Points {
			if pts := parseCoordinates(p.Coordinates); len(pts) > 0 {
				geoms = append(geoms, pts[0])
			}
		}
		for _, l := range pm.MultiGeometry.Lines {
			if pts := parseCoordinates(l.Coordinates); len(pts) >= 2 {
				geoms = append(geoms, orb.LineString(pts))
			}
		}
		for _, p := range pm.MultiGeometry.Polygons {
			if poly, ok := polygonGeometry(p); ok {
				geoms = append(geoms, poly)
			}
		}
	}

	features := make([]*geojson.Feature, 0, len(geoms))
	for _, g := range geoms {
		f := geojson.NewFeature(g)
		f.Properties = Properties{Name: name, Title: name}.Map()
		features = append(features, f)
	}
	return features
}

func polygonGeometry(p kmlPolygon) (orb.Polygon, bool) {
	outer := parseCoordinates(p.Outer.Ring.Coordinates)
	if len(outer) < 3 {
		return nil, false
	}
	poly := orb.Polygon{closeRing(outer)}
	for _, inner := range p.Inner {
		if ring := parseCoordinates(inner.Ring.Coordinates); len(ring) >= 3 {
			poly = append(poly, closeRing(ring))
		}
	}
	return poly, true
}

func closeRing(pts []orb.Point) orb.Ring {
	ring := orb.Ring(pts)
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// parseCoordinates reads the KML coordinate form: whitespace-separated
// "lon,lat[,alt]" tuples. Unparseable tuples are skipped.
func parseCoordinates(text string) []orb.Point {
	var pts []orb.Point
	for _, token := range strings.Fields(strings.TrimSpace(text)) {
		parts := strings.Split(token, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
