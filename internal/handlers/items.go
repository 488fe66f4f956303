package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/serroba/items-api/internal/audit"
	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/messaging"
	"github.com/serroba/items-api/internal/middleware"
	"go.uber.org/zap"
)

const (
	msgItemNotFound   = "Item not found"
	msgRecordNotFound = "Record not found"
)

// ItemService is the set of item use cases the handler serves.
type ItemService interface {
	List(ctx context.Context) ([]*item.Item, error)
	Get(ctx context.Context, id item.ID) (*item.Item, error)
	Create(ctx context.Context, in item.NewItem) (*item.Item, error)
	Update(ctx context.Context, id item.ID, patch item.Patch) (*item.Item, error)
	Delete(ctx context.Context, id item.ID) error
	CreateMany(ctx context.Context, inputs []item.NewItem) ([]*item.Item, error)
}

// ItemHandler handles item CRUD operations.
type ItemHandler struct {
	service ItemService
	publish messaging.Publish[audit.ItemChanged]
	logger  *zap.Logger
	now     func() time.Time
}

// NewItemHandler creates a new item handler. Every successful mutation is published
// as an audit.ItemChanged event.
func NewItemHandler(
	service ItemService,
	publish messaging.Publish[audit.ItemChanged],
	logger *zap.Logger,
) *ItemHandler {
	return &ItemHandler{
		service: service,
		publish: publish,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *ItemHandler) ListItems(ctx context.Context, _ *struct{}) (*ListItemsResponse, error) {
	items, err := h.service.List(ctx)
	if err != nil {
		return nil, h.toHTTPError(ctx, item.OpList, err, msgItemNotFound)
	}

	return &ListItemsResponse{Body: success(ItemsData{Items: toItems(items)})}, nil
}

func (h *ItemHandler) GetItem(ctx context.Context, req *ItemIDRequest) (*ItemResponse, error) {
	it, err := h.service.Get(ctx, item.ID(req.ID))
	if err != nil {
		return nil, h.toHTTPError(ctx, item.OpGet, err, msgItemNotFound)
	}

	return &ItemResponse{Body: success(ItemData{Item: toItem(it)})}, nil
}

func (h *ItemHandler) CreateItem(ctx context.Context, req *CreateItemRequest) (*CreateItemResponse, error) {
	it, err := h.service.Create(ctx, req.Body.toNewItem())
	if err != nil {
		return nil, h.toHTTPError(ctx, item.OpCreate, err, msgItemNotFound)
	}

	h.emit(ctx, audit.ActionCreated, it)

	return &CreateItemResponse{
		Location: "/api/items/" + strconv.FormatInt(int64(it.ID), 10),
		Body:     success(ItemData{Item: toItem(it)}),
	}, nil
}

func (h *ItemHandler) UpdateItem(ctx context.Context, req *UpdateItemRequest) (*ItemResponse, error) {
	patch := item.Patch{Name: req.Body.Name, Description: req.Body.Description}

	it, err := h.service.Update(ctx, item.ID(req.ID), patch)
	if err != nil {
		return nil, h.toHTTPError(ctx, item.OpUpdate, err, msgRecordNotFound)
	}

	h.emit(ctx, audit.ActionUpdated, it)

	return &ItemResponse{Body: success(ItemData{Item: toItem(it)})}, nil
}

func (h *ItemHandler) DeleteItem(ctx context.Context, req *ItemIDRequest) (*struct{}, error) {
	id := item.ID(req.ID)

	if err := h.service.Delete(ctx, id); err != nil {
		return nil, h.toHTTPError(ctx, item.OpDelete, err, msgRecordNotFound)
	}

	h.emit(ctx, audit.ActionDeleted, &item.Item{ID: id})

	return &struct{}{}, nil
}

func (h *ItemHandler) CreateItems(ctx context.Context, req *CreateItemsRequest) (*CreateItemsResponse, error) {
	inputs := make([]item.NewItem, len(req.Body.Items))
	for i, in := range req.Body.Items {
		inputs[i] = in.toNewItem()
	}

	items, err := h.service.CreateMany(ctx, inputs)
	if err != nil {
		return nil, h.toHTTPError(ctx, item.OpCreateMany, err, msgItemNotFound)
	}

	for _, it := range items {
		h.emit(ctx, audit.ActionBatchCreated, it)
	}

	return &CreateItemsResponse{Body: success(ItemsData{Items: toItems(items)})}, nil
}

// emit publishes an audit event. Failures are logged and never fail the request.
func (h *ItemHandler) emit(ctx context.Context, action audit.Action, it *item.Item) {
	meta := middleware.RequestMetaFromContext(ctx)
	event := &audit.ItemChanged{
		Action:     action,
		ItemID:     int64(it.ID),
		Name:       it.Name,
		OccurredAt: h.now().UTC(),
		RequestID:  meta.RequestID,
		ClientIP:   meta.ClientIP,
	}

	if err := h.publish(ctx, event); err != nil {
		h.logger.Error("failed to publish item event",
			zap.String("action", string(action)),
			zap.Int64("item_id", event.ItemID),
			zap.Error(err),
		)
	}
}
