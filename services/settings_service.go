package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"adaptlyAPI/internal/apperr"
	"adaptlyAPI/internal/identity"
	"adaptlyAPI/internal/notification"
	"adaptlyAPI/internal/settings"
	"adaptlyAPI/internal/storage"
)

type SettingsService struct {
	stores StoreResolver
	mu     sync.Mutex
}

func NewSettingsService(stores StoreResolver) *SettingsService {
	return &SettingsService{stores: stores}
}

// Get returns the stored settings, or the defaults if none were saved.
func (s *SettingsService) Get(ctx context.Context, id identity.Identity) (*settings.UserSettings, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}

	raw, err := s.stores.StoreFor(id).Get(ctx, storage.Bucket(storage.KindSettings, id.ID))
	if errors.Is(err, apperr.ErrNotFound) {
		return settings.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	out := settings.Default()
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to decode settings for %s: %w", id.ID, err)
	}
	return out, nil
}

func (s *SettingsService) Update(ctx context.Context, id identity.Identity, req *settings.UpdateSettingsRequest) (*settings.UserSettings, error) {
	if err := requireWritable(ctx, s.stores, id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(current)
	if err := current.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.stores.StoreFor(id).Put(ctx, storage.Bucket(storage.KindSettings, id.ID), raw); err != nil {
		return nil, err
	}
	return current, nil
}

// PushTargets reports where an identity wants pushes delivered. No targets are
// returned when notifications are disabled or no token is registered.
func (s *SettingsService) PushTargets(ctx context.Context, id identity.Identity) ([]notification.DeviceToken, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.NotificationsEnabled || current.PushToken == "" {
		return nil, nil
	}
	return []notification.DeviceToken{{Token: current.PushToken, Platform: current.PushPlatform}}, nil
}
