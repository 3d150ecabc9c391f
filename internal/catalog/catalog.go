// Package catalog resolves product refs against the union of the seed,
// machine and consumer-goods sub-catalogs.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateRef    = errors.New("product ref already present in catalog")
	ErrUnknownKind     = errors.New("unknown product kind")
)

type Lookup interface {
	LookupProduct(ctx context.Context, ref string) (domain.Product, error)
}

type LookupFunc func(ctx context.Context, ref string) (domain.Product, error)

func (f LookupFunc) LookupProduct(ctx context.Context, ref string) (domain.Product, error) {
	return f(ctx, ref)
}

// Memory is a read-mostly catalog held in process. Lookups may run
// concurrently with each other and with Add.
type Memory struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemory(products ...domain.Product) (*Memory, error) {
	m := &Memory{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		if err := m.Add(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) Add(p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.Ref()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRef, p.Ref())
	}
	m.products[p.Ref()] = p
	return nil
}

func (m *Memory) LookupProduct(_ context.Context, ref string) (domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[ref]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

type envelope struct {
	Kind    domain.ProductKind `json:"kind"`
	Product json.RawMessage    `json:"product"`
}

// MarshalProduct encodes a product together with its kind so it can be
// decoded back into the right variant.
func MarshalProduct(p domain.Product) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	return json.Marshal(envelope{Kind: p.Kind(), Product: body})
}

func UnmarshalProduct(data []byte) (domain.Product, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal product envelope: %w", err)
	}

	switch env.Kind {
	case domain.KindSeed:
		var s domain.Seed
		if err := json.Unmarshal(env.Product, &s); err != nil {
			return nil, fmt.Errorf("unmarshal seed: %w", err)
		}
		return s, nil
	case domain.KindMachine:
		var m domain.Machine
		if err := json.Unmarshal(env.Product, &m); err != nil {
			return nil, fmt.Errorf("unmarshal machine: %w", err)
		}
		return m, nil
	case domain.KindConsumerGood:
		var g domain.ConsumerGood
		if err := json.Unmarshal(env.Product, &g); err != nil {
			return nil, fmt.Errorf("unmarshal consumer good: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}
