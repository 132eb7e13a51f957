package store

import (
	"context"
	"sync"

	"github.com/dayoung-ko/finsync/internal/pkg/model"
)

// Memory is an in-memory Store with the same dedup semantics as Postgres.
// Used by tests and offline runs.
type Memory struct {
	mu       sync.Mutex
	products map[model.ProductKey]model.Product
	options  map[model.OptionKey]model.Option
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[model.ProductKey]model.Product),
		options:  make(map[model.OptionKey]model.Option),
	}
}

func (m *Memory) UpsertProduct(_ context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.Key()] = p
	return nil
}

func (m *Memory) OptionExists(_ context.Context, key model.OptionKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.options[key]
	return ok, nil
}

func (m *Memory) InsertOptionIfAbsent(_ context.Context, o model.Option) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := o.Key()
	if _, ok := m.options[key]; ok {
		return false, nil
	}
	if _, ok := m.products[model.ProductKey{Institution: key.Institution, Product: key.Product}]; !ok {
		return false, ErrProductNotFound
	}
	m.options[key] = o
	return true, nil
}

func (m *Memory) GetProduct(_ context.Context, key model.ProductKey) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[key]
	if !ok {
		return model.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (m *Memory) ListOptions(_ context.Context, key model.ProductKey) ([]model.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Option
	for k, o := range m.options {
		if k.Institution == key.Institution && k.Product == key.Product {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) DeleteProduct(_ context.Context, key model.ProductKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[key]; !ok {
		return ErrProductNotFound
	}
	for k := range m.options {
		if k.Institution == key.Institution && k.Product == key.Product {
			delete(m.options, k)
		}
	}
	delete(m.products, key)
	return nil
}

// Counts reports stored row totals, for idempotence assertions in tests.
func (m *Memory) Counts() (products, options int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), len(m.options)
}
