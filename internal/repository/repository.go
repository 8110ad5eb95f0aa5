// Package repository declares how the service layer reaches prayer-request data.
//
// The interface speaks model.Mapping (the raw transport shape), not
// model.PrayerRequest: decoding is the service's job, so every implementation
// stays a dumb pipe and the decoding rules live in exactly one place.
package repository

import (
	"context"

	"github.com/pensaconnect/connect/internal/model"
)

// Filter selects which prayer requests a list call returns.
type Filter string

const (
	FilterWall      Filter = "wall"       // everyone's requests, newest first
	FilterAnswered  Filter = "answered"   // answered requests, most recently updated first
	FilterMyPrayers Filter = "my_prayers" // the caller's own requests; needs a token
)

// Valid reports whether f is a filter the API understands.
func (f Filter) Valid() bool {
	switch f {
	case FilterWall, FilterAnswered, FilterMyPrayers:
		return true
	}
	return false
}

type ListOptions struct {
	Filter  Filter
	Page    int // 1-based
	PerPage int
}

type PrayerRepository interface {
	FetchOne(ctx context.Context, id int64) (model.Mapping, error)
	FetchMany(ctx context.Context, opts ListOptions) ([]model.Mapping, error)
	Create(ctx context.Context, body model.Mapping) (model.Mapping, error)
	Update(ctx context.Context, id int64, body model.Mapping) (model.Mapping, error)
	Delete(ctx context.Context, id int64) error
	TogglePrayer(ctx context.Context, id int64) (model.Mapping, error)
}
