// Package wishlist keeps the visitor's liked products, mirrored to the
// backend while signed in.
package wishlist

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/storage"
)

// Remote is the backend wishlist. *api.Client satisfies it.
type Remote interface {
	WishlistAll(ctx context.Context) ([]models.WishlistItem, error)
	WishlistAdd(ctx context.Context, p models.Product) (string, error)
	WishlistDelete(ctx context.Context, remoteID string) error
}

type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// Store holds the wishlist shown to the user. Local storage is always
// written; the backend is called first when signed in. A failed remote
// call is logged and the two copies may diverge.
type Store struct {
	local  storage.Store
	remote Remote
	auth   Authenticator
	log    zerolog.Logger

	mu    sync.RWMutex
	items []models.WishlistItem
}

// New returns a Store loaded from local storage.
func New(ctx context.Context, local storage.Store, remote Remote, auth Authenticator, log zerolog.Logger) (*Store, error) {
	s := &Store{
		local:  local,
		remote: remote,
		auth:   auth,
		log:    log.With().Str("component", "wishlist").Logger(),
	}
	items, err := s.loadLocal(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *Store) Items() []models.WishlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Store) IsWishlisted(objectID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(objectID) >= 0
}

// Add likes p. Adding an item already present is a no-op.
func (s *Store) Add(ctx context.Context, p models.Product) error {
	if s.IsWishlisted(p.ObjectID) {
		return nil
	}
	item := models.WishlistItem{Product: p}
	if s.auth.IsAuthenticated(ctx) {
		id, err := s.remote.WishlistAdd(ctx, p)
		if err != nil {
			s.log.Error().Err(err).Str("object_id", p.ObjectID).Msg("remote wishlist add failed")
		} else {
			item.RemoteID = id
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(p.ObjectID) >= 0 {
		return nil
	}
	next := append(slices.Clone(s.items), item)
	if err := s.saveLocal(ctx, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// Remove unlikes the product with p's object id.
func (s *Store) Remove(ctx context.Context, p models.Product) error {
	s.mu.RLock()
	i := s.index(p.ObjectID)
	var remoteID string
	if i >= 0 {
		remoteID = s.items[i].RemoteID
	}
	s.mu.RUnlock()
	if i < 0 {
		return nil
	}

	if remoteID != "" && s.auth.IsAuthenticated(ctx) {
		if err := s.remote.WishlistDelete(ctx, remoteID); err != nil {
			s.log.Error().Err(err).Str("object_id", p.ObjectID).Str("remote_id", remoteID).Msg("remote wishlist delete failed")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i = s.index(p.ObjectID)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(s.items), i, i+1)
	if err := s.saveLocal(ctx, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// Toggle adds p if absent and removes it otherwise. It reports whether p
// is wishlisted afterwards.
func (s *Store) Toggle(ctx context.Context, p models.Product) (bool, error) {
	if s.IsWishlisted(p.ObjectID) {
		return false, s.Remove(ctx, p)
	}
	return true, s.Add(ctx, p)
}

// Reload replaces the shown list with the backend's when authenticated,
// or with local storage otherwise.
func (s *Store) Reload(ctx context.Context, authenticated bool) error {
	var (
		items []models.WishlistItem
		err   error
	)
	if authenticated {
		items, err = s.remote.WishlistAll(ctx)
		if err != nil {
			return fmt.Errorf("load remote wishlist: %w", err)
		}
		if err := s.saveLocal(ctx, items); err != nil {
			return err
		}
	} else {
		if items, err = s.loadLocal(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.log.Debug().Bool("authenticated", authenticated).Int("items", len(items)).Msg("wishlist reloaded")
	return nil
}

func (s *Store) index(objectID string) int {
	return slices.IndexFunc(s.items, func(it models.WishlistItem) bool {
		return it.ObjectID == objectID
	})
}

func (s *Store) loadLocal(ctx context.Context) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if _, err := storage.GetJSON(ctx, s.local, storage.KeyLikedProducts, &items); err != nil {
		return nil, fmt.Errorf("load liked products: %w", err)
	}
	if items == nil {
		items = []models.WishlistItem{}
	}
	return items, nil
}

func (s *Store) saveLocal(ctx context.Context, items []models.WishlistItem) error {
	if err := storage.SetJSON(ctx, s.local, storage.KeyLikedProducts, items); err != nil {
		return fmt.Errorf("save liked products: %w", err)
	}
	return nil
}
