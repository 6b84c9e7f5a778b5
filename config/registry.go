package config

import (
	"maps"
	"slices"
	"sync"

	"github.com/cottand/qualis/qualifier"
)

var (
	payloadOpsMu sync.RWMutex
	payloadOps   = map[string]qualifier.PayloadOps{}
)

// RegisterPayloadOps makes ops available to files naming them in payload_ops.
// Registering a name twice replaces the previous ops.
func RegisterPayloadOps(name string, ops qualifier.PayloadOps) {
	payloadOpsMu.Lock()
	defer payloadOpsMu.Unlock()
	payloadOps[name] = ops
}

func LookupPayloadOps(name string) (qualifier.PayloadOps, bool) {
	payloadOpsMu.RLock()
	defer payloadOpsMu.RUnlock()
	ops, ok := payloadOps[name]
	return ops, ok
}

// RegisteredPayloadOps are the registered names, sorted
func RegisteredPayloadOps() []string {
	payloadOpsMu.RLock()
	defer payloadOpsMu.RUnlock()
	return slices.Sorted(maps.Keys(payloadOps))
}
