package woocommerce

import "sort"

// Registry holds one client per store, keyed by origin platform.
type Registry struct {
	stores          map[string]*Client
	defaultPlatform string
}

// NewRegistry builds a registry. Attribute terms are written to the
// default platform's store.
func NewRegistry(defaultPlatform string, clients ...*Client) *Registry {
	r := &Registry{stores: make(map[string]*Client, len(clients)), defaultPlatform: defaultPlatform}
	for _, c := range clients {
		if c != nil {
			r.stores[c.Platform()] = c
		}
	}
	return r
}

// Store returns the client for a platform.
func (r *Registry) Store(platform string) (*Client, bool) {
	c, ok := r.stores[platform]
	return c, ok
}

// Default returns the store used for attribute terms.
func (r *Registry) Default() (*Client, bool) {
	return r.Store(r.defaultPlatform)
}

// DefaultPlatform returns the platform name of the default store.
func (r *Registry) DefaultPlatform() string {
	return r.defaultPlatform
}

// Platforms lists configured platforms, sorted.
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.stores))
	for p := range r.stores {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
