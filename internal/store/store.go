// Package store persists scrape results so a later run can reuse them.
package store

import (
	"context"
	"errors"
	"fmt"

	"dinemenu/internal/menu"
)

// ErrNotFound means no previous result has been stored.
var ErrNotFound = errors.New("no stored result")

type Saver interface {
	Save(ctx context.Context, entries []menu.Entry) error
}

type Loader interface {
	Load(ctx context.Context) ([]menu.Entry, error)
}

type Store interface {
	Saver
	Loader
}

// Multi saves to every store in order and loads from the first one that
// has a result.
type Multi []Store

func (m Multi) Save(ctx context.Context, entries []menu.Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Load(ctx context.Context) ([]menu.Entry, error) {
	for _, s := range m {
		entries, err := s.Load(ctx)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return entries, nil
	}
	return nil, fmt.Errorf("failed to load result: %w", ErrNotFound)
}
