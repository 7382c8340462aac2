package core

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// memStore is an in-memory ImportStore and CatalogStore for tests.
type memStore struct {
	mu       sync.Mutex
	products []Product
	clients  []Client

	insertCalls int
	failCalls   map[int]error // 1-based insert call -> error
	lookupErr   error
}

func newMemStore() *memStore {
	return &memStore{failCalls: make(map[int]error)}
}

func (m *memStore) InsertProducts(_ context.Context, products []Product) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if err := m.failCalls[m.insertCalls]; err != nil {
		return 0, err
	}
	m.products = append(m.products, products...)
	return len(products), nil
}

func (m *memStore) InsertClients(_ context.Context, clients []Client) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertCalls++
	if err := m.failCalls[m.insertCalls]; err != nil {
		return 0, err
	}
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

	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
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

	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
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

func (m *memStore) ListClients(_ context.Context, q ListQuery) (Page[ClientRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []ClientRecord
	for _, c := range m.clients {
		if q.OwnerID != uuid.Nil && c.UserID != q.OwnerID {
			continue
		}
		items = append(items, ClientRecord{Client: c})
	}
	return Page[ClientRecord]{Items: items, Total: len(items), Page: q.Page, Limit: q.Limit}, nil
}

func (m *memStore) ListProducts(_ context.Context, q ListQuery) (Page[ProductRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]ProductRecord, 0, len(m.products))
	for _, p := range m.products {
		items = append(items, ProductRecord{Product: p})
	}
	return Page[ProductRecord]{Items: items, Total: len(items), Page: q.Page, Limit: q.Limit}, nil
}

func (m *memStore) clientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
