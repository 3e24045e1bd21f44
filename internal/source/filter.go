package source

import (
	"fmt"
	"sync"
)

// Filter tracks which retailers the user has selected. The allowed set is
// fixed at construction; the effective set is their intersection.
type Filter struct {
	mu       sync.RWMutex
	selected map[ID]bool
	allowed  map[ID]bool
}

// NewFilter selects every known retailer and restricts dispatch to allowed.
func NewFilter(allowed []ID) *Filter {
	f := &Filter{
		selected: make(map[ID]bool),
		allowed:  make(map[ID]bool, len(allowed)),
	}
	for _, id := range allowed {
		f.allowed[id] = true
	}
	for _, id := range IDs() {
		f.selected[id] = true
	}
	return f
}

// AllowedFromConfig converts config allow flags into ids.
func AllowedFromConfig(ids []string) []ID {
	out := make([]ID, 0, len(ids))
	for _, s := range ids {
		out = append(out, ID(s))
	}
	return out
}

func (f *Filter) Selected() []ID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.collect(func(id ID) bool { return f.selected[id] })
}

func (f *Filter) Allowed() []ID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.collect(func(id ID) bool { return f.allowed[id] })
}

// Effective returns selected ∩ allowed in display order.
func (f *Filter) Effective() []ID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.collect(func(id ID) bool { return f.selected[id] && f.allowed[id] })
}

func (f *Filter) IsSelected(id ID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selected[id]
}

func (f *Filter) IsAllowed(id ID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.allowed[id]
}

// Toggle flips the selection of id and returns its new state.
func (f *Filter) Toggle(id ID) (bool, error) {
	if _, err := Lookup(id); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected[id] = !f.selected[id]
	return f.selected[id], nil
}

// SetSelected replaces the selection. Unknown ids are rejected and the
// selection is left unchanged.
func (f *Filter) SetSelected(ids []ID) error {
	next := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if _, err := Lookup(id); err != nil {
			return fmt.Errorf("select sources: %w", err)
		}
		next[id] = true
	}
	f.mu.Lock()
	f.selected = next
	f.mu.Unlock()
	return nil
}

// Restrict returns ids ∩ allowed in display order for a single request,
// leaving the selection untouched. With no ids it is Effective.
func (f *Filter) Restrict(ids []ID) ([]ID, error) {
	if len(ids) == 0 {
		return f.Effective(), nil
	}
	want := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if _, err := Lookup(id); err != nil {
			return nil, fmt.Errorf("select sources: %w", err)
		}
		want[id] = true
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.collect(func(id ID) bool { return want[id] && f.allowed[id] }), nil
}

func (f *Filter) SelectAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range IDs() {
		f.selected[id] = true
	}
}

func (f *Filter) collect(keep func(ID) bool) []ID {
	out := []ID{}
	for _, id := range IDs() {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
