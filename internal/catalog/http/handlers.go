package cataloghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/balancesheet/balancesheet/internal/catalog"
	"github.com/balancesheet/balancesheet/internal/platform/httpx"
)

// CatalogService is the contract the handler depends on.
type CatalogService interface {
	List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error)
	Update(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error)
	Deactivate(ctx context.Context, id string) (catalog.Product, error)
}

// Handler serves the product endpoints.
type Handler struct {
	logger  *slog.Logger
	service CatalogService
}

// NewHandler constructs the catalog HTTP handler.
func NewHandler(logger *slog.Logger, service CatalogService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/products", h.handleList)
	r.Post("/api/products", h.handleCreate)
	r.Get("/api/products/{id}", h.handleGet)
	r.Put("/api/products/{id}", h.handleUpdate)
	r.Delete("/api/products/{id}", h.handleDelete)
}

type productEnvelope struct {
	Product catalog.Product `json:"product"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := catalog.ListFilter{
		ActiveOnly:   query.Get("active") == "true",
		Search:       strings.TrimSpace(query.Get("q")),
		IncludeSales: query.Get("sales") != "false",
	}
	products, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list products", err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productEnvelope{Product: p})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.respondError(w, "decode product", err)
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productEnvelope{Product: p})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch catalog.ProductPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		h.respondError(w, "decode product patch", err)
		return
	}
	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.respondError(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productEnvelope{Product: p})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "deactivate product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productEnvelope{Product: p})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, httpx.ErrValidation) {
		httpx.ValidationProblem(w, err.Error(), httpx.ValidationFields(err))
		return
	}
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
