package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/lukman83/components-radar/internal/models"
)

// FetchAll retrieves every page of q using a large page size. The first
// page tells how many remain; those are fetched concurrently, at most
// maxConcurrent at a time. The limiter may be nil.
func FetchAll(ctx context.Context, s Searcher, q Query, perPage, maxConcurrent int, limiter *rate.Limiter) (*Page, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	q.Page = 0
	q.HitsPerPage = perPage

	first, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if first.Pages <= 1 {
		first.Items = Rank(first.Items)
		return first, nil
	}

	ReportProgress(ctx, fmt.Sprintf("Fetching %d more pages...", first.Pages-1))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	results := make([][]models.Product, first.Pages)
	results[0] = first.Items
	for i := 1; i < first.Pages; i++ {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			pq := q
			pq.Page = i
			page, err := s.Search(gctx, pq)
			if err != nil {
				return fmt.Errorf("page %d: %w", i, err)
			}
			results[i] = page.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Page{
		Items: Rank(Normalize(flatten(results))),
		Total: first.Total,
		Page:  0,
		Pages: 1,
	}, nil
}

func flatten(pages [][]models.Product) []models.Product {
	var n int
	for _, p := range pages {
		n += len(p)
	}
	out := make([]models.Product, 0, n)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out
}
