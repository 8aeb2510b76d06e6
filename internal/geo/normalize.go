// Package geo holds the canonical feature model and the import normalizer
// that converts uploaded geographic files (KMZ, KML, GeoJSON) into typed
// GeoJSON feature collections.
package geo

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Format errors. All are user-facing and recoverable: the caller reports
// them and the user picks a different file. Match with errors.Is.
var (
	ErrUnsupportedExtension = errors.New("unsupported file type; use KMZ, KML, or GeoJSON")
	ErrMissingInnerDocument = errors.New("no KML document found inside archive")
	ErrMalformedDocument    = errors.New("malformed geographic document")
	ErrNoFeatures           = errors.New("document contains no features")
)

// Dominant geometry classification of an imported collection.
const (
	TypePoint   = "point"
	TypePolygon = "polygon"
	TypeLine    = "line"
	TypeMixed   = "mixed"
)

// Import is the result of normalizing one uploaded file.
type Import struct {
	Name         string
	Collection   *geojson.FeatureCollection
	FeatureCount int
	DominantType string
	Quarantined  int // features dropped for invalid property shapes (GeoJSON input only)
}

// Normalize converts an uploaded geographic file into a canonical feature
// collection. It is a pure transform: no partial results are returned on
// failure.
func Normalize(data []byte, fileName string) (*Import, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var (
		title       string
		features    []*geojson.Feature
		quarantined int
		err         error
	)

	switch ext {
	case ".kmz":
		kml, zerr := readInnerKML(data)
		if zerr != nil {
			return nil, zerr
		}
		title, features, err = parseKML(kml)
	case ".kml":
		title, features, err = parseKML(data)
	case ".geojson", ".json":
		features, quarantined, err = parseGeoJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = features

	name := title
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}

	return &Import{
		Name:         name,
		Collection:   fc,
		FeatureCount: len(features),
		DominantType: classify(fc),
		Quarantined:  quarantined,
	}, nil
}

// readInnerKML extracts the first .kml entry (case-insensitive) from a KMZ
// zip container.
func readInnerKML(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		defer rc.Close()
		kml, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return kml, nil
	}
	return nil, ErrMissingInnerDocument
}

func parseGeoJSON(data []byte) ([]*geojson.Feature, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		// A bare Feature is accepted too, mirroring what upload tools emit.
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		fc = geojson.NewFeatureCollection()
		fc.Append(f)
	}
	dropped := Sanitize(fc)
	return fc.Features, dropped, nil
}

// classify reduces the collection to a dominant geometry kind: exactly one
// distinct kind present means that kind, anything else is mixed.
func classify(fc *geojson.FeatureCollection) string {
	kinds := make(map[string]struct{}, 3)
	for _, f := range fc.Features {
		kinds[geometryKind(f.Geometry)] = struct{}{}
	}
	if len(kinds) != 1 {
		return TypeMixed
	}
	for k := range kinds {
		return k
	}
	return TypeMixed
}

func geometryKind(g orb.Geometry) string {
	switch g.GeoJSONType() {
	case "Point", "MultiPoint":
		return TypePoint
	case "Polygon", "MultiPolygon":
		return TypePolygon
	case "LineString", "MultiLineString":
		return TypeLine
	default:
		return TypeMixed
	}
}
