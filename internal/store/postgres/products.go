package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

var productColumns = []string{"product", "stock", "price", "application"}

// InsertProducts writes one chunk of products and returns the rows written.
func (s *Store) InsertProducts(ctx context.Context, products []core.Product) (int, error) {
	return s.copyChunk(ctx, "products", productColumns, len(products), func(i int) ([]any, error) {
		p := products[i]
		return []any{p.Name, p.Stock, toPgNumeric(p.Price), toPgText(p.Application)}, nil
	})
}

// ListProducts returns a page of products ordered by name. Search matches
// the product name and application.
func (s *Store) ListProducts(ctx context.Context, q core.ListQuery) (core.Page[core.ProductRecord], error) {
	q = q.Normalize()

	wb := newWhereBuilder()
	wb.AddSearch(q.Search, "product", "application")
	lq := buildListQuery("products",
		[]string{"id", "product", "stock", "price", "COALESCE(application, '')", "created_at"},
		"product ASC, id ASC", wb)

	page := core.Page[core.ProductRecord]{Items: []core.ProductRecord{}, Page: q.Page, Limit: q.Limit}

	if err := s.pool.QueryRow(ctx, lq.Count, lq.Args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count products: %w", err)
	}

	rows, err := s.pool.Query(ctx, lq.Select, append(lq.Args, q.Limit, q.Offset())...)
	if err != nil {
		return page, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r     core.ProductRecord
			price pgtype.Numeric
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Stock, &price, &r.Application, &r.CreatedAt); err != nil {
			return page, fmt.Errorf("scan product: %w", err)
		}
		r.Price = fromPgNumeric(price)
		page.Items = append(page.Items, r)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("rows error: %w", err)
	}

	return page, nil
}
