// Package swagger publishes the OpenAPI description of the venuedraw API and
// a ReDoc page that renders it.
package swagger

import (
	"context"
	_ "embed"
	"net/http"
)

// OpenAPI is the document served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte

const (
	specPath    = "/openapi.yaml"
	docsPath    = "/api-docs"
	redocBundle = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"
	cacheHeader = "public, max-age=300"
)

var docsPage = []byte(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>venuedraw API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + redocBundle + `"></script>
    <script>Redoc.init('` + specPath + `', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`)

// Register adds GET /api-docs and GET /openapi.yaml to mux. A nil mux panics.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("swagger: nil mux")
	}
	mux.HandleFunc("GET "+docsPath, static("text/html; charset=utf-8", docsPage))
	mux.HandleFunc("GET "+specPath, static("application/yaml; charset=utf-8", OpenAPI))
}

func static(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", cacheHeader)
		_, _ = w.Write(body)
	}
}
