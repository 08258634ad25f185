// Package token generates short random lowercase tokens used to disambiguate
// extension identities and menu dispatch handles.
//
// Tokens are drawn from crypto/rand with rejection sampling so every symbol of
// the alphabet is equally likely. Collisions are not detected or retried.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Lowercase is the alphabet used for every token in the runtime.
const Lowercase = "abcdefghijklmnopqrstuvwxyz"

// Token lengths used by the runtime.
const (
	// IdentityLength is the length of the suffix appended to generated identities.
	IdentityLength = 10

	// MenuLength is the length of the segment inside a menu dispatch handle.
	MenuLength = 5
)

// Errors returned by token generation.
var (
	// ErrInvalidLength is returned for a non-positive length.
	ErrInvalidLength = errors.New("token: length must be positive")

	// ErrInvalidAlphabet is returned for an empty alphabet or one larger than 256 symbols.
	ErrInvalidAlphabet = errors.New("token: alphabet must hold 1 to 256 bytes")
)

// Generator draws tokens from a random source.
type Generator struct {
	rand io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithReader replaces the random source. Tests use it to make output deterministic.
func WithReader(r io.Reader) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// New creates a Generator backed by crypto/rand.
func New(opts ...Option) *Generator {
	g := &Generator{rand: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Token returns length symbols drawn uniformly from alphabet.
func (g *Generator) Token(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}
	n := len(alphabet)
	if n == 0 || n > 256 {
		return "", ErrInvalidAlphabet
	}

	// Bytes at or above limit would bias the modulo and are discarded.
	limit := 256 - (256 % n)

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("token: read random source: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// Lower returns a token of the given length over the lowercase alphabet.
func (g *Generator) Lower(length int) (string, error) {
	return g.Token(length, Lowercase)
}

var defaultGenerator = New()

// Lower returns a lowercase token from the default crypto-backed generator.
func Lower(length int) (string, error) {
	return defaultGenerator.Lower(length)
}
