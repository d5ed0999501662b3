package api

import (
	"encoding/json"
	"net/http"

	"adalbertofjr/digital-products-api/internal/catalog"
	"adalbertofjr/digital-products-api/internal/diagnostics"

	"go.uber.org/zap"
)

const (
	RootMessage  = "Hello from FastAPI Backend!"
	HelloMessage = "Hello from the backend API!"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ProductsResponse struct {
	Items []catalog.Product `json:"items"`
}

type Handlers struct {
	prober *diagnostics.Prober
	logger *zap.Logger
}

func NewHandlers(prober *diagnostics.Prober, logger *zap.Logger) *Handlers {
	return &Handlers{prober: prober, logger: logger}
}

func (h *Handlers) RootHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: RootMessage})
}

func (h *Handlers) HelloHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: HelloMessage})
}

func (h *Handlers) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, ProductsResponse{Items: catalog.List()})
}

// TestHandler always answers 200; failures are described in the body.
func (h *Handlers) TestHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.prober.Probe(r.Context()))
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		h.logger.Warn("write response failed", zap.Error(err))
	}
}
