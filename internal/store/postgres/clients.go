package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

var clientColumns = []string{"code", "client", "city", "cnpj", "user_id"}

// InsertClients writes one chunk of clients and returns the rows written. A
// unique violation on code or CNPJ fails the whole chunk.
func (s *Store) InsertClients(ctx context.Context, clients []core.Client) (int, error) {
	return s.copyChunk(ctx, "clients", clientColumns, len(clients), func(i int) ([]any, error) {
		c := clients[i]
		return []any{c.Code, c.Name, c.City, toPgText(c.CNPJ), pgtype.UUID{Bytes: c.UserID, Valid: true}}, nil
	})
}

// ExistingClientCodes returns the subset of codes already stored.
func (s *Store) ExistingClientCodes(ctx context.Context, codes []string) ([]string, error) {
	return s.existing(ctx, "code", codes)
}

// ExistingClientCNPJs returns the subset of CNPJs (digits only) already
// stored.
func (s *Store) ExistingClientCNPJs(ctx context.Context, cnpjs []string) ([]string, error) {
	return s.existing(ctx, "cnpj", cnpjs)
}

func (s *Store) existing(ctx context.Context, col string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %[1]s FROM clients WHERE %[1]s = ANY($1)", quoteIdentifier(col))
	rows, err := s.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("query existing %s: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan %s: %w", col, err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// ListClients returns a page of clients ordered by name. Search matches code,
// name, city and CNPJ; OwnerID restricts the page to one user's clients.
func (s *Store) ListClients(ctx context.Context, q core.ListQuery) (core.Page[core.ClientRecord], error) {
	q = q.Normalize()
	lq := clientListQuery(q)

	page := core.Page[core.ClientRecord]{Items: []core.ClientRecord{}, Page: q.Page, Limit: q.Limit}

	if err := s.pool.QueryRow(ctx, lq.Count, lq.Args...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count clients: %w", err)
	}

	rows, err := s.pool.Query(ctx, lq.Select, append(lq.Args, q.Limit, q.Offset())...)
	if err != nil {
		return page, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r core.ClientRecord
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.City, &r.CNPJ, &r.UserID, &r.CreatedAt); err != nil {
			return page, fmt.Errorf("scan client: %w", err)
		}
		page.Items = append(page.Items, r)
	}
	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("rows error: %w", err)
	}

	return page, nil
}

func clientListQuery(q core.ListQuery) listQuery {
	wb := newWhereBuilder()
	if q.OwnerID != uuid.Nil {
		wb.Add("user_id", q.OwnerID)
	}
	wb.AddSearch(q.Search, "code", "client", "city", "cnpj")

	return buildListQuery("clients",
		[]string{"id", "code", "client", "city", "COALESCE(cnpj, '')", "user_id", "created_at"},
		"client ASC, id ASC", wb)
}
