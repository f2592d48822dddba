package http

import (
	"io/fs"
	"testing"
)

func TestEmbeddedStaticFiles(t *testing.T) {
	assets := []string{
		"static/index.html",
		"static/css/style.css",
		"static/js/websocket.js",
		"static/js/app.js",
	}

	for _, asset := range assets {
		if _, err := fs.ReadFile(staticFiles, asset); err != nil {
			t.Fatalf("expected embedded asset %s, got error: %v", asset, err)
		}
	}
}
