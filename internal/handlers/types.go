package handlers

import (
	"time"

	"github.com/serroba/items-api/internal/item"
)

const statusSuccess = "success"

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Status string `doc:"Always success" example:"success" json:"status"`
	Data   T      `json:"data"`
}

func success[T any](data T) Envelope[T] {
	return Envelope[T]{Status: statusSuccess, Data: data}
}

// Item is the JSON representation of an item.
type Item struct {
	ID          int64     `doc:"Item id"                      example:"1"            json:"id"`
	Name        string    `doc:"Unique item name"             example:"Desk lamp"    json:"name"`
	Description *string   `doc:"Optional description"         example:"Warm light"   json:"description"`
	CreatedAt   time.Time `doc:"Creation time"                json:"createdAt"`
	UpdatedAt   time.Time `doc:"Time of the last modification" json:"updatedAt"`
}

func toItem(it *item.Item) Item {
	return Item{
		ID:          int64(it.ID),
		Name:        it.Name,
		Description: it.Description,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func toItems(items []*item.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = toItem(it)
	}

	return out
}

// ItemData holds a single item.
type ItemData struct {
	Item Item `json:"item"`
}

// ItemsData holds a list of items.
type ItemsData struct {
	Items []Item `json:"items"`
}

// NewItemInput is the body of a create request and one element of a batch.
type NewItemInput struct {
	Name        string  `doc:"Unique item name"     example:"Desk lamp"  json:"name"                  maxLength:"255" minLength:"1"`
	Description *string `doc:"Optional description" example:"Warm light" json:"description,omitempty"`
}

func (in NewItemInput) toNewItem() item.NewItem {
	return item.NewItem{Name: in.Name, Description: in.Description}
}

// ItemIDRequest addresses a single item.
type ItemIDRequest struct {
	ID int64 `doc:"Item id" example:"1" path:"id"`
}

// ListItemsResponse is the response for listing items.
type ListItemsResponse struct {
	Body Envelope[ItemsData]
}

// ItemResponse is the response carrying one item.
type ItemResponse struct {
	Body Envelope[ItemData]
}

// CreateItemRequest is the request body for creating an item.
type CreateItemRequest struct {
	Body NewItemInput
}

// CreateItemResponse is the response for a created item.
type CreateItemResponse struct {
	Location string `doc:"The item location" header:"Location"`
	Body     Envelope[ItemData]
}

// UpdateItemRequest is the request for a partial update. Omitted fields are left unchanged.
type UpdateItemRequest struct {
	ID   int64 `doc:"Item id" example:"1" path:"id"`
	Body struct {
		Name        *string `doc:"New name"        json:"name,omitempty"        maxLength:"255" minLength:"1"`
		Description *string `doc:"New description" json:"description,omitempty"`
	}
}

// CreateItemsRequest is the request body for a batch create.
type CreateItemsRequest struct {
	Body struct {
		Items []NewItemInput `doc:"Items to create, all or none" json:"items"`
	}
}

// CreateItemsResponse is the response for a batch create.
type CreateItemsResponse struct {
	Body Envelope[ItemsData]
}
