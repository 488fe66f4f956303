package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/items-api/internal/ratelimit"
)

// NewConfig returns the huma configuration of the items API. Response bodies are
// sent as is, without a $schema link.
func NewConfig(title, version string) huma.Config {
	config := huma.DefaultConfig(title, version)
	config.CreateHooks = nil

	return config
}

// RegisterRoutes registers the item routes. Every route names the rate limit tier it
// is counted against.
func RegisterRoutes(api huma.API, h *ItemHandler) {
	tags := []string{"Items"}

	// GET /api/items - List items
	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/api/items",
		Summary:     "List items",
		Description: "Returns all items, newest first.",
		Tags:        tags,
		Metadata:    ratelimit.Metadata(ratelimit.TierRead),
	}, h.ListItems)

	// GET /api/items/{id} - Get one item
	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/api/items/{id}",
		Summary:     "Get item",
		Tags:        tags,
		Metadata:    ratelimit.Metadata(ratelimit.TierRead),
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.GetItem)

	// POST /api/items - Create item
	huma.Register(api, huma.Operation{
		OperationID:   "create-item",
		Method:        http.MethodPost,
		Path:          "/api/items",
		Summary:       "Create item",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Metadata:      ratelimit.Metadata(ratelimit.TierWrite),
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, h.CreateItem)

	// PUT /api/items/{id} - Partial update
	huma.Register(api, huma.Operation{
		OperationID: "update-item",
		Method:      http.MethodPut,
		Path:        "/api/items/{id}",
		Summary:     "Update item",
		Description: "Replaces the given fields. Omitted fields are left unchanged.",
		Tags:        tags,
		Metadata:    ratelimit.Metadata(ratelimit.TierWrite),
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, h.UpdateItem)

	// DELETE /api/items/{id} - Delete item
	huma.Register(api, huma.Operation{
		OperationID:   "delete-item",
		Method:        http.MethodDelete,
		Path:          "/api/items/{id}",
		Summary:       "Delete item",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
		Metadata:      ratelimit.Metadata(ratelimit.TierWrite),
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.DeleteItem)

	// POST /api/items/batch - Create many items atomically
	// Counted against the batch tier, which is much stricter than write
	huma.Register(api, huma.Operation{
		OperationID:   "create-items",
		Method:        http.MethodPost,
		Path:          "/api/items/batch",
		Summary:       "Create items in one transaction",
		Description:   "Creates every item or none of them.",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Metadata:      ratelimit.Metadata(ratelimit.TierBatch),
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, h.CreateItems)
}
