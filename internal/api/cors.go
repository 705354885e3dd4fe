package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Browser clients of this daemon are the docs UI and the SSE log viewer,
// either of which may be served from another origin. The surface is small
// enough to enumerate exactly.
const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, Last-Event-ID"
	corsMaxAge       = "3600"
)

func writeCORSHeaders(set func(name, value string)) {
	set("Access-Control-Allow-Origin", "*")
	set("Access-Control-Allow-Methods", corsAllowMethods)
	set("Access-Control-Allow-Headers", corsAllowHeaders)
	set("Access-Control-Max-Age", corsMaxAge)
}

// corsMiddleware stamps CORS headers on every API response.
func corsMiddleware(ctx huma.Context, next func(huma.Context)) {
	writeCORSHeaders(ctx.SetHeader)
	next(ctx)
}

// registerPreflight answers OPTIONS at the mux level. No operation routes
// OPTIONS, so preflights never reach huma middleware.
func registerPreflight(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		writeCORSHeaders(w.Header().Set)
		w.WriteHeader(http.StatusNoContent)
	})
}
