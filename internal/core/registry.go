package core

import (
	"fmt"
	"sort"
	"sync"
)

// EntityInfo describes an importable entity for clients of the API.
type EntityInfo struct {
	Key       Entity   `json:"key"`
	Label     string   `json:"label"`
	Columns   []string `json:"columns"`
	Required  []string `json:"required"`
	ChunkSize int      `json:"chunkSize"`
	AdminOnly bool     `json:"adminOnly"`

	// Unique lists columns that must be unique across the store.
	Unique []string `json:"unique,omitempty"`

	// SampleRows feed the downloadable templates.
	SampleRows [][]string `json:"-"`
}

var (
	registry   = make(map[Entity]EntityInfo)
	registryMu sync.RWMutex
)

func init() {
	Register(EntityInfo{
		Key:       EntityProducts,
		Label:     "Products",
		Columns:   ProductColumns,
		Required:  []string{"product", "stock", "price"},
		ChunkSize: DefaultProductChunkSize,
		SampleRows: [][]string{
			{"011338 ENCOMENDA PEDRACON", "0", "231", ""},
			{"06211700 (KR27004)", "0", "0", ""},
			{"0986B01907", "12", "89,90", "Front brake pads"},
		},
	})
	Register(EntityInfo{
		Key:       EntityClients,
		Label:     "Clients",
		Columns:   ClientColumns,
		Required:  []string{"code", "client", "city", "user_id"},
		ChunkSize: DefaultClientChunkSize,
		AdminOnly: true,
		Unique:    []string{"code", "cnpj"},
		SampleRows: [][]string{
			{"C001", "AUTO PECAS SILVA", "CAMPINAS", "11.222.333/0001-81", ""},
			{"C002", "MECANICA CENTRAL", "SANTOS", "", ""},
		},
	})
}

// Register adds an entity description. Panics on a duplicate key.
func Register(info EntityInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[info.Key]; exists {
		panic(fmt.Sprintf("entity already registered: %s", info.Key))
	}
	registry[info.Key] = info
}

// Get returns an entity description by key.
func Get(key Entity) (EntityInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	info, ok := registry[key]
	return info, ok
}

// All returns every registered entity sorted by key.
func All() []EntityInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityInfo, 0, len(registry))
	for _, info := range registry {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
