package source

import (
	"fmt"
	"sync"
)

var (
	registry = make(map[ID]Info)
	order    []ID
	mu       sync.RWMutex
)

// Register adds or replaces a retailer. New ids are appended to the display order.
func Register(info Info) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[info.ID]; !ok {
		order = append(order, info.ID)
	}
	registry[info.ID] = info
}

func Lookup(id ID) (Info, error) {
	mu.RLock()
	defer mu.RUnlock()
	info, ok := registry[id]
	if !ok {
		return Info{}, fmt.Errorf("source %q not registered", id)
	}
	return info, nil
}

// All returns every registered retailer in display order.
func All() []Info {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Info, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

// IDs returns the registered ids in display order.
func IDs() []ID {
	mu.RLock()
	defer mu.RUnlock()
	return append([]ID(nil), order...)
}
