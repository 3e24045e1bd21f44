package storage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/lukman83/components-radar/config"
)

// Keys persisted between runs. Absence of any key means initial state.
const (
	KeyUser             = "user"
	KeyToken            = "token"
	KeyEmail            = "email"
	KeyCurrentModal     = "currentModal"
	KeyAuthFlowType     = "authFlowType"
	KeySearchCount      = "searchCount"
	KeySearchedKeywords = "searchedKeywords"
	KeyLikedProducts    = "likedProducts"
	KeyOTPTimerEnd      = "otpTimerEndTime"
	KeyBannerDismissed  = "bannerDismissed"
	KeyInstallGuideSeen = "hasSeenInstallGuide"
	KeyFirstVisitTime   = "firstVisitTime"
	KeySignupFlow       = "signup-flow-storage"
)

// Store is a durable string key/value map. Set and Delete return only
// once the change is durable.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the value under key into v. It reports false when the
// key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Open returns the backend selected by cfg.Storage.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisURL, cfg.SessionID)
	case "file", "":
		return NewFileStore(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
