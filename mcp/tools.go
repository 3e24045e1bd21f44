package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/components-radar/internal/app"
	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/source"
)

type tools struct {
	app *app.App
}

func registerTools(s *server.MCPServer, a *app.App) {
	t := &tools{app: a}

	// search_components
	searchTool := mcp.NewTool("search_components",
		mcp.WithDescription("Search electronic components across Indian retailers"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text, e.g. 'arduino nano' or '10k resistor'"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number (default: 1)"),
		),
		mcp.WithString("sources",
			mcp.Description("Comma separated retailer ids to search (default: all allowed)"),
		),
		mcp.WithBoolean("all",
			mcp.Description("Return every matching result instead of one page"),
		),
	)
	s.AddTool(searchTool, t.handleSearch)

	// list_sources
	s.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List retailers with shipping fees, free-shipping thresholds and COD terms"),
	), t.handleListSources)

	// auth_status
	s.AddTool(mcp.NewTool("auth_status",
		mcp.WithDescription("Report whether the session is logged in and any pending verification step"),
	), t.handleAuthStatus)

	// wishlist_*
	s.AddTool(mcp.NewTool("wishlist_list",
		mcp.WithDescription("List products in the wishlist"),
	), t.handleWishlistList)

	s.AddTool(mcp.NewTool("wishlist_add",
		mcp.WithDescription("Add a product from search results to the wishlist"),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("objectID from search results")),
		mcp.WithString("name", mcp.Description("Product name")),
		mcp.WithString("price", mcp.Description("Listed price")),
		mcp.WithString("stock", mcp.Description("Stock as listed")),
		mcp.WithString("source", mcp.Description("Retailer id")),
		mcp.WithString("url", mcp.Description("Product page URL")),
		mcp.WithString("image", mcp.Description("Image URL")),
	), t.handleWishlistAdd)

	s.AddTool(mcp.NewTool("wishlist_remove",
		mcp.WithDescription("Remove a product from the wishlist"),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("objectID of the product")),
	), t.handleWishlistRemove)
}

func (t *tools) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	page := request.GetInt("page", 1)
	if page < 1 {
		return mcp.NewToolResultError("page must be 1 or more"), nil
	}

	var ids []source.ID
	if raw := request.GetString("sources", ""); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			ids = append(ids, source.ID(strings.ToLower(strings.TrimSpace(id))))
		}
	}

	var (
		res *search.Page
		err error
	)
	if request.GetBool("all", false) {
		res, err = t.app.FetchAll(ctx, query, ids)
	} else {
		res, err = t.app.SearchPage(ctx, query, page-1, ids)
	}
	if err != nil {
		switch search.Classify(err) {
		case search.OutcomeGated:
			return mcp.NewToolResultError("search limit reached: the user must log in to keep searching"), nil
		case search.OutcomeTimeout:
			return mcp.NewToolResultError("search timed out, try again"), nil
		case search.OutcomeCancelled:
			return mcp.NewToolResultError("search cancelled"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
	}

	type listing struct {
		models.Product
		DisplayPrice float64 `json:"display_price"`
		StockLabel   string  `json:"stock_label"`
		Shipping     string  `json:"shipping,omitempty"`
		COD          string  `json:"cod,omitempty"`
	}
	out := struct {
		Items []listing `json:"items"`
		Total int       `json:"total"`
		Page  int       `json:"page"`
		Pages int       `json:"pages"`
	}{Items: make([]listing, 0, len(res.Items)), Total: res.Total, Page: res.Page + 1, Pages: res.Pages}
	for _, p := range res.Items {
		out.Items = append(out.Items, listing{
			Product:      p,
			DisplayPrice: source.DisplayPrice(p),
			StockLabel:   p.Stock.Label(),
			Shipping:     source.ShippingNote(p),
			COD:          source.CODNote(p),
		})
	}
	return jsonResult(out)
}

func (t *tools) handleListSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type row struct {
		source.Info
		Allowed  bool `json:"allowed"`
		Selected bool `json:"selected"`
	}
	rows := make([]row, 0)
	for _, info := range source.All() {
		rows = append(rows, row{Info: info, Allowed: t.app.Filter.IsAllowed(info.ID), Selected: t.app.Filter.IsSelected(info.ID)})
	}
	return jsonResult(rows)
}

func (t *tools) handleAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.app.Auth.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("auth status error: %v", err)), nil
	}
	return jsonResult(st)
}

func (t *tools) handleWishlistList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.app.Wishlist.Reload(ctx, t.app.Session.IsAuthenticated(ctx)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("wishlist error: %v", err)), nil
	}
	return jsonResult(t.app.Wishlist.Items())
}

func (t *tools) handleWishlistAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("object_id", "")
	if id == "" {
		return mcp.NewToolResultError("object_id is required"), nil
	}
	p := models.Product{
		ObjectID:    id,
		ProductName: request.GetString("name", ""),
		Price:       models.Price(request.GetString("price", "")),
		Stock:       models.Stock(request.GetString("stock", "")),
		Source:      request.GetString("source", ""),
		ProductURL:  request.GetString("url", ""),
		ImageURL:    request.GetString("image", ""),
	}
	if err := t.app.Wishlist.Add(ctx, p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("wishlist error: %v", err)), nil
	}
	return jsonResult(t.app.Wishlist.Items())
}

func (t *tools) handleWishlistRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("object_id", "")
	if id == "" {
		return mcp.NewToolResultError("object_id is required"), nil
	}
	if !t.app.Wishlist.IsWishlisted(id) {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not in the wishlist", id)), nil
	}
	if err := t.app.Wishlist.Remove(ctx, models.Product{ObjectID: id}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("wishlist error: %v", err)), nil
	}
	return jsonResult(t.app.Wishlist.Items())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
