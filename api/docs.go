// Package api embeds the OpenAPI document and serves it with a swagger UI.
package api

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// DocumentPath is where the OpenAPI document is served
const DocumentPath = "/openapi.yaml"

// Document is the OpenAPI 3 description of the HTTP surface
//
//go:embed openapi.yaml
var Document []byte

// Mount registers the document and the swagger UI on r
func Mount(r chi.Router) {
	r.Get(DocumentPath, serveDocument)
	r.Get("/docs", http.RedirectHandler("/docs/index.html", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(DocumentPath)))
}

func serveDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(Document)
}
