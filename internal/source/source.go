// Package source models the data feeds behind the follow-up and escalation
// views. A feed is either Live (fetches from a collaborator) or Empty; main
// picks the variant from config and the views never branch on it.
package source

import (
	"context"
	"fmt"

	"github.com/invoice-ai-manager/server/internal/agent/model"
)

// DataSource lists the current items of one feed.
type DataSource[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// FetchFunc adapts a function into a Live source.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Live calls its fetch function on every List.
type Live[T any] struct {
	fetch FetchFunc[T]
}

func NewLive[T any](fetch FetchFunc[T]) *Live[T] {
	return &Live[T]{fetch: fetch}
}

// List never returns a nil slice on success.
func (l *Live[T]) List(ctx context.Context) ([]T, error) {
	items, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Empty is a feed with nothing in it.
type Empty[T any] struct{}

func (Empty[T]) List(context.Context) ([]T, error) {
	return []T{}, nil
}

// Variant names accepted by Select.
const (
	VariantLive  = "live"
	VariantEmpty = "empty"
)

// Select returns the Live source over fetch or an Empty one. fetch may be nil
// when no live collaborator exists, in which case only "empty" is valid.
func Select[T any](variant string, fetch FetchFunc[T]) (DataSource[T], error) {
	switch variant {
	case VariantEmpty, "":
		return Empty[T]{}, nil
	case VariantLive:
		if fetch == nil {
			return nil, fmt.Errorf("no live source available")
		}
		return NewLive(fetch), nil
	}
	return nil, fmt.Errorf("unknown source variant %q", variant)
}

// Invoices adapts an InvoiceSource into a DataSource.
func Invoices(src model.InvoiceSource) *Live[model.Invoice] {
	return NewLive(src.ListAll)
}

var (
	_ DataSource[model.FollowUp]   = (*Live[model.FollowUp])(nil)
	_ DataSource[model.Escalation] = Empty[model.Escalation]{}
)
