package signup

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maintains the known signup flows.
type Registry struct {
	mu    sync.RWMutex
	flows map[AccountType]Flow
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{flows: map[AccountType]Flow{}}
}

// DefaultRegistry installs the company, contractor and retailer flows.
func DefaultRegistry(opts Options) *Registry {
	r := NewRegistry()
	r.MustRegister(CompanyFlow(opts))
	r.MustRegister(ContractorFlow(opts))
	r.MustRegister(RetailerFlow(opts))
	return r
}

// Register installs a flow. Returns an error if the type already exists.
func (r *Registry) Register(flow Flow) error {
	if err := flow.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.flows[flow.Type]; exists {
		return fmt.Errorf("signup: %s already registered", flow.Type)
	}
	r.flows[flow.Type] = flow
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(flow Flow) {
	if err := r.Register(flow); err != nil {
		panic(err)
	}
}

// Lookup returns the flow for an account type.
func (r *Registry) Lookup(t AccountType) (Flow, error) {
	r.mu.RLock()
	flow, ok := r.flows[t]
	r.mu.RUnlock()
	if !ok {
		return Flow{}, fmt.Errorf("signup: unknown account type %s", t)
	}
	return flow, nil
}

// Types returns the registered account types in display order: company,
// contractor, retailer, then anything else alphabetically.
func (r *Registry) Types() []AccountType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]AccountType, 0, len(r.flows))
	for t := range r.flows {
		types = append(types, t)
	}
	rank := map[AccountType]int{Company: 0, Contractor: 1, Retailer: 2}
	sort.Slice(types, func(i, j int) bool {
		ri, iok := rank[types[i]]
		rj, jok := rank[types[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return types[i] < types[j]
		}
	})
	return types
}
