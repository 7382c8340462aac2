package web

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// memStore is an in-memory ImportStore and CatalogStore.
type memStore struct {
	mu       sync.Mutex
	products []core.Product
	clients  []core.Client
}

func (m *memStore) InsertProducts(_ context.Context, products []core.Product) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, products...)
	return len(products), nil
}

func (m *memStore) InsertClients(_ context.Context, clients []core.Client) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range clients {
		for _, existing := range m.clients {
			if existing.Code == c.Code {
				return 0, errors.New(`duplicate key value violates unique constraint "clients_code_key"`)
			}
		}
	}
	m.clients = append(m.clients, clients...)
	return len(clients), nil
}

func (m *memStore) ExistingClientCodes(_ context.Context, codes []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, code := range codes {
		for _, c := range m.clients {
			if c.Code == code {
				out = append(out, code)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) ExistingClientCNPJs(_ context.Context, cnpjs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, cnpj := range cnpjs {
		for _, c := range m.clients {
			if c.CNPJ != "" && c.CNPJ == cnpj {
				out = append(out, cnpj)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) ListClients(_ context.Context, q core.ListQuery) (core.Page[core.ClientRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []core.ClientRecord{}
	for _, c := range m.clients {
		if q.OwnerID != uuid.Nil && c.UserID != q.OwnerID {
			continue
		}
		if q.Search != "" && !containsFold(q.Search, c.Code, c.Name, c.City, c.CNPJ) {
			continue
		}
		items = append(items, core.ClientRecord{Client: c})
	}
	return core.Page[core.ClientRecord]{Items: items, Total: len(items), Page: q.Page, Limit: q.Limit}, nil
}

func (m *memStore) ListProducts(_ context.Context, q core.ListQuery) (core.Page[core.ProductRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []core.ProductRecord{}
	for _, p := range m.products {
		if q.Search != "" && !containsFold(q.Search, p.Name, p.Application) {
			continue
		}
		items = append(items, core.ProductRecord{Product: p})
	}
	return core.Page[core.ProductRecord]{Items: items, Total: len(items), Page: q.Page, Limit: q.Limit}, nil
}

func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }
