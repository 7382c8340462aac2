package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bizdesk/internal/logging"
)

// Catalog paging defaults.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListQuery selects a page of clients or products. A non-empty Search
// restricts results to rows whose searchable fields contain it
// (case-insensitive). OwnerID, when set, restricts clients to one user.
type ListQuery struct {
	Page    int       `json:"page"`
	Limit   int       `json:"limit"`
	Search  string    `json:"search,omitempty"`
	OwnerID uuid.UUID `json:"-"`
}

// Normalize clamps paging values and trims the search term.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset returns the row offset of the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of results.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// TotalPages returns the number of pages for the query's limit.
func (p Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// ClientRecord is a persisted client.
type ClientRecord struct {
	ID uuid.UUID `json:"id"`
	Client
	FormattedCNPJ string    `json:"formattedCnpj,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ProductRecord is a persisted product.
type ProductRecord struct {
	ID uuid.UUID `json:"id"`
	Product
	CreatedAt time.Time `json:"createdAt"`
}

// CatalogStore serves paginated lists and substring search. Clients are
// ordered by name, products by product name.
type CatalogStore interface {
	ListClients(ctx context.Context, q ListQuery) (Page[ClientRecord], error)
	ListProducts(ctx context.Context, q ListQuery) (Page[ProductRecord], error)
}

// CatalogInvalidator is implemented by catalog readers that cache results.
// The service calls it after an import persisted at least one row.
type CatalogInvalidator interface {
	InvalidateCatalog(ctx context.Context, entity Entity) error
}

// invalidateCatalog drops cached catalog pages after rows were imported.
func (s *Service) invalidateCatalog(ctx context.Context, entity Entity, imported int) {
	inv, ok := s.catalog.(CatalogInvalidator)
	if !ok || imported == 0 {
		return
	}
	if err := inv.InvalidateCatalog(ctx, entity); err != nil {
		logging.FromContext(ctx).Warn("catalog cache invalidation failed", "entity", entity, "error", err)
	}
}
