package systems

import (
	"context"
	"fmt"
)

// Service resolves the catalog against a visitor's stored flags.
type Service struct {
	catalog Catalog
	store   FlagStore
}

// NewService validates catalog and pairs it with store.
func NewService(catalog Catalog, store FlagStore) (*Service, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Service{catalog: catalog, store: store}, nil
}

func (s *Service) Catalog() Catalog {
	return s.catalog
}

// Board returns every system as owner sees it.
func (s *Service) Board(ctx context.Context, owner string) ([]Entry, error) {
	flags, err := s.store.Flags(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load flags for board: %w", err)
	}
	return Resolve(s.catalog, flags), nil
}

// Sequence returns the headline lines for owner. It is never empty.
func (s *Service) Sequence(ctx context.Context, owner string) ([]string, error) {
	entries, err := s.Board(ctx, owner)
	if err != nil {
		return nil, err
	}
	return Lines(entries), nil
}

// Unlock reveals a system for owner.
func (s *Service) Unlock(ctx context.Context, owner, id string) error {
	return s.set(ctx, owner, id, true)
}

// Lock hides a system for owner.
func (s *Service) Lock(ctx context.Context, owner, id string) error {
	return s.set(ctx, owner, id, false)
}

func (s *Service) set(ctx context.Context, owner, id string, unlocked bool) error {
	if _, ok := s.catalog.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSystem, id)
	}
	return s.store.SetFlag(ctx, owner, id, unlocked)
}
