package endpoint

import (
	"fmt"
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/qwe638853/GasPass-sub000/internal/models"
)

// Dialer opens a client for one RPC URL. Swappable for tests.
type Dialer func(rawurl string) (models.EVMClient, error)

// DefaultDialer dials a real JSON-RPC endpoint.
func DefaultDialer(rawurl string) (models.EVMClient, error) {
	client, err := ethclient.Dial(rawurl)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// entry guards one URL's connection so concurrent Get calls for the same URL
// share a single dial.
type entry struct {
	once   sync.Once
	client models.EVMClient
	err    error
}

// Pool caches exactly one live client per distinct RPC URL for the lifetime
// of the process. Entries are never evicted; the supported-chain set bounds
// the map. The cache is the only cross-cycle shared mutable state and is
// append-only after first use.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*entry
	dial    Dialer
}

// NewPool creates a pool dialing real endpoints.
func NewPool() *Pool {
	return NewPoolWithDialer(DefaultDialer)
}

// NewPoolWithDialer creates a pool with a custom dialer.
func NewPoolWithDialer(dial Dialer) *Pool {
	return &Pool{
		entries: make(map[string]*entry),
		dial:    dial,
	}
}

// Get returns the cached client for the exact URL string, dialing once on
// first use. A failed dial is not cached: the entry is dropped so the next
// caller retries.
func (p *Pool) Get(rpcURL string) (models.EVMClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("empty RPC URL")
	}

	p.mu.Lock()
	e, exists := p.entries[rpcURL]
	if !exists {
		e = &entry{}
		p.entries[rpcURL] = e
	}
	p.mu.Unlock()

	e.once.Do(func() {
		e.client, e.err = p.dial(rpcURL)
		if e.err == nil {
			log.Printf("✅ [EndpointPool] Connected: %s", rpcURL)
		}
	})

	if e.err != nil {
		// Drop the failed entry so a later Get can retry the endpoint.
		p.mu.Lock()
		if p.entries[rpcURL] == e {
			delete(p.entries, rpcURL)
		}
		p.mu.Unlock()
		return nil, fmt.Errorf("dial %s: %w", rpcURL, e.err)
	}

	return e.client, nil
}

// Size returns the number of live connections.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// CloseAll closes every live connection. Called on shutdown only.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for url, e := range p.entries {
		if e.client != nil {
			e.client.Close()
		}
		delete(p.entries, url)
	}
	log.Printf("🛑 [EndpointPool] All connections closed")
}
