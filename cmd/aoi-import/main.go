package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/apiclient"
)

// aoi-import pushes a local KMZ/KML/GeoJSON file to a running server.
func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8780", "server base URL")
		apiKey  = flag.String("key", os.Getenv("API_KEY"), "API key, if the server requires one")
		name    = flag.String("name", "", "layer name (defaults to the document title)")
		theme   = flag.String("theme", "", "theme applied to imported features")
		docID   = flag.Int64("doc", 0, "attach imported points to this document id")
		timeout = flag.Duration("timeout", 60*time.Second, "request timeout")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.kmz|file.kml|file.geojson>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logr, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	data, err := os.ReadFile(path)
	if err != nil {
		logr.Fatal("failed to read file", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := apiclient.New(*baseURL, *apiKey, logr)
	result, err := client.ImportKMZ(ctx, filepath.Base(path), data, *name, *theme, *docID)
	if err != nil {
		logr.Fatal("import failed", zap.Error(err))
	}

	logr.Info("import complete",
		zap.String("layer", result.Layer),
		zap.Int("features", result.Features),
		zap.Int("points_added", result.PointsAdded),
		zap.Int("aois_added", result.AOIsAdded),
		zap.Int("quarantined", result.Quarantined))
}
