package connection

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultName is the name of the default connection.
const DefaultName = "api"

// Registry holds named connections.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Connection
	defaultName string
}

// NewRegistry creates a registry holding conns. The default connection name
// is DefaultName.
func NewRegistry(conns ...*Connection) (*Registry, error) {
	r := &Registry{conns: make(map[string]*Connection), defaultName: DefaultName}
	for _, c := range conns {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SetDefault changes the name Default resolves.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultName = name
}

// DefaultName returns the name Default resolves.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Register adds c. A second connection with the same name is an error.
func (r *Registry) Register(c *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[c.Name()]; exists {
		return fmt.Errorf("connection %q already registered", c.Name())
	}
	r.conns[c.Name()] = c
	return nil
}

// Get returns the connection with name. An empty name means the default.
func (r *Registry) Get(name string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	c, ok := r.conns[name]
	return c, ok
}

// MustGet is like Get but panics for an unknown name.
func (r *Registry) MustGet(name string) *Connection {
	c, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("connection: %q is not registered", name))
	}
	return c
}

// Default returns the default connection, or nil.
func (r *Registry) Default() *Connection {
	c, _ := r.Get("")
	return c
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
