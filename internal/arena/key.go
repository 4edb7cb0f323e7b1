// Package arena provides append-only, key-addressed storage for IR nodes.
//
// Keys are issued by a Keys generator. Every arena of one DSL function shares
// a single generator, so a key identifies exactly one definition across all
// of the function's nested scopes and lookups can walk scopes innermost to
// outermost without ambiguity.
package arena

import (
	"fmt"

	"fortio.org/safecast"
)

// Key addresses one entry. Zero is the invalid sentinel.
type Key uint32

// NoKey is the invalid key.
const NoKey Key = 0

// IsValid reports whether k was issued by a generator.
func (k Key) IsValid() bool { return k != NoKey }

func (k Key) String() string {
	if !k.IsValid() {
		return "k?"
	}
	return fmt.Sprintf("k%d", uint32(k))
}

// Keys issues monotonically increasing keys. Keys are never reused.
type Keys struct {
	issued uint32
}

// Next returns a fresh key.
func (g *Keys) Next() Key {
	next, err := safecast.Conv[uint32](uint64(g.issued) + 1)
	if err != nil {
		panic(fmt.Errorf("arena: key space exhausted: %w", err))
	}
	g.issued = next
	return Key(next)
}

// Issued reports how many keys were handed out so far.
func (g *Keys) Issued() int {
	return int(g.issued)
}
