package api

import "net/http"

// Router is the subset of the ajun router the API needs.
type Router interface {
	Get(path string, handler http.HandlerFunc)
}

func RegisterRoutes(router Router, h *Handlers) {
	router.Get("/", h.RootHandler)
	router.Get("/api/hello", h.HelloHandler)
	router.Get("/api/products", h.ListProductsHandler)
	router.Get("/test", h.TestHandler)
}
