package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/lukman83/components-radar/internal/models"
)

type wishlistEntry struct {
	models.Product
	ID        string `json:"_id"`
	MongodbID string `json:"mongodbID"`
}

func (e wishlistEntry) item() models.WishlistItem {
	id := e.MongodbID
	if id == "" {
		id = e.ID
	}
	return models.WishlistItem{Product: e.Product, RemoteID: id}
}

// wishlistList accepts either a bare array or an object wrapping one.
type wishlistList []wishlistEntry

func (l *wishlistList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]wishlistEntry)(l))
	}
	var wrapped struct {
		Data      []wishlistEntry `json:"data"`
		Wishlists []wishlistEntry `json:"wishlists"`
		Wishlist  []wishlistEntry `json:"wishlist"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	switch {
	case wrapped.Data != nil:
		*l = wrapped.Data
	case wrapped.Wishlists != nil:
		*l = wrapped.Wishlists
	default:
		*l = wrapped.Wishlist
	}
	return nil
}

// WishlistAll returns the authenticated user's wishlist.
func (c *Client) WishlistAll(ctx context.Context) ([]models.WishlistItem, error) {
	var list wishlistList
	if err := c.do(ctx, http.MethodGet, "/api/v1/wishlist/getAll", nil, &list); err != nil {
		return nil, err
	}
	out := make([]models.WishlistItem, 0, len(list))
	for _, e := range list {
		out = append(out, e.item())
	}
	return out, nil
}

// WishlistAdd stores p remotely and returns the id the backend assigned.
func (c *Client) WishlistAdd(ctx context.Context, p models.Product) (string, error) {
	var out struct {
		MongodbID string `json:"mongodbID"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/wishlist/add", p, &out); err != nil {
		return "", err
	}
	return out.MongodbID, nil
}

func (c *Client) WishlistDelete(ctx context.Context, remoteID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/wishlist/delete/"+url.PathEscape(remoteID), nil, nil)
}
