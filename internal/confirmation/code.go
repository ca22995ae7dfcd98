// Package confirmation issues the customer-facing reservation reference.
package confirmation

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
)

// DefaultPrefix is prepended to every code unless overridden.
const DefaultPrefix = "TS-"

// CodeLength is the number of random characters following the prefix.
const CodeLength = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Option customises a Generator.
type Option func(*Generator)

// WithPrefix overrides the code prefix.
func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		g.prefix = strings.ToUpper(strings.TrimSpace(prefix))
	}
}

// WithRandom swaps the entropy source. Tests use it for deterministic codes.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

// Generator produces short human readable codes. Codes are not checked for
// collisions; they are a reference for the customer, not a key.
type Generator struct {
	prefix string
	rand   io.Reader
}

// NewGenerator constructs a Generator reading from crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{prefix: DefaultPrefix, rand: rand.Reader}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate returns prefix followed by CodeLength uppercase alphanumerics.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(len(g.prefix) + CodeLength)
	b.WriteString(g.prefix)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(g.rand, max)
		if err != nil {
			// A failing source yields the first symbol.
			b.WriteByte(alphabet[0])
			continue
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}
