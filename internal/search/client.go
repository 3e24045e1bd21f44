package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/httputil"
	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/source"
)

// Query is one search request against the index.
type Query struct {
	Text        string
	Page        int // zero-based
	Sources     []source.ID
	HitsPerPage int
}

// Page is one decoded page of results.
type Page struct {
	Items []models.Product `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Pages int              `json:"pages"`
}

// Searcher runs a single query. Client is the production implementation.
type Searcher interface {
	Search(ctx context.Context, q Query) (*Page, error)
}

var attributesToRetrieve = []string{
	"productName", "price", "stock", "productImage", "imageUrl",
	"productUrl", "category", "source", "sourceImage", "weight",
}

// Client queries the hosted Algolia index.
type Client struct {
	client      *http.Client
	endpoint    string
	headers     http.Header
	timeout     time.Duration
	hitsPerPage int
}

// NewClient builds a Client from cfg. The given http.Client carries the
// transport pipeline (rate limiting, default headers).
func NewClient(cfg *config.Config, client *http.Client) *Client {
	host := cfg.AlgoliaHost
	if host == "" {
		host = fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(cfg.AlgoliaAppID))
	}
	return &Client{
		client:      client,
		endpoint:    strings.TrimRight(host, "/") + "/1/indexes/" + url.PathEscape(cfg.AlgoliaIndex) + "/query",
		headers:     httputil.AlgoliaHeaders(cfg.AlgoliaAppID, cfg.AlgoliaAPIKey),
		timeout:     cfg.SearchTimeout,
		hitsPerPage: cfg.HitsPerPage,
	}
}

type queryBody struct {
	Query                string   `json:"query"`
	Analytics            bool     `json:"analytics"`
	Filters              string   `json:"filters"`
	AttributesToRetrieve []string `json:"attributesToRetrieve"`
	Distinct             bool     `json:"distinct"`
	HitsPerPage          int      `json:"hitsPerPage"`
	Page                 int      `json:"page"`
}

type queryResponse struct {
	Hits    []models.Product `json:"hits"`
	NbHits  int              `json:"nbHits"`
	NbPages int              `json:"nbPages"`
	Page    int              `json:"page"`
}

// BuildFilter ORs the given sources into one filter clause.
func BuildFilter(ids []source.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "source:" + string(id)
	}
	return strings.Join(parts, " OR ")
}

// Search issues exactly one index query. With no sources it returns an
// empty page without touching the network.
func (c *Client) Search(ctx context.Context, q Query) (*Page, error) {
	hpp := q.HitsPerPage
	if hpp <= 0 {
		hpp = c.hitsPerPage
	}
	if len(q.Sources) == 0 {
		return &Page{Items: []models.Product{}, Page: q.Page}, nil
	}

	body, err := json.Marshal(queryBody{
		Query:                q.Text,
		Analytics:            false,
		Filters:              BuildFilter(q.Sources),
		AttributesToRetrieve: attributesToRetrieve,
		Distinct:             true,
		HitsPerPage:          hpp,
		Page:                 q.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	ReportProgress(ctx, fmt.Sprintf("Querying page %d...", q.Page+1))
	resp, err := httputil.DoWithRetry(c.client, req, 1)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &e)
		return nil, &StatusError{Code: resp.StatusCode, Message: e.Message}
	}

	var out queryResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	pages := out.NbPages
	if pages == 0 {
		pages = TotalPages(out.NbHits, hpp)
	}
	return &Page{
		Items: Normalize(out.Hits),
		Total: out.NbHits,
		Page:  q.Page,
		Pages: pages,
	}, nil
}
