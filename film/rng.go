package film

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// RunKey is the master seed of a batch. Searches started from the same key
// return identical designs whatever the worker count.
type RunKey int64

func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// StreamGenerate names the dataset generation stream. It is seeded with the
// master seed unchanged, so `generate --seed S` draws what rand.New(S) draws.
const StreamGenerate = "generate"

// SystemStream names the stream owned by target system index.
func SystemStream(index int) string {
	return fmt.Sprintf("system_%d", index)
}

// DeriveSeed maps a stream name to its seed. Every stream other than
// StreamGenerate is the master seed xor the FNV-1a hash of its name.
func DeriveSeed(key RunKey, stream string) int64 {
	if stream == StreamGenerate {
		return int64(key)
	}
	return int64(key) ^ nameHash(stream)
}

// NewSystemRNG builds the start-point generator for one target system.
// Each call allocates its own source, so workers never share one.
func NewSystemRNG(key RunKey, index int) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(key, SystemStream(index))))
}

// NewGenerateRNG builds the generator used for synthetic datasets.
func NewGenerateRNG(key RunKey) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(key, StreamGenerate)))
}

func nameHash(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
