// Package plaintext produces the raw byte sequences that feed the cipher
// oracle: uniform random binary data, or text assembled from a preloaded
// vocabulary. Generators are pure apart from their private random source;
// a generator instance must not be shared across concurrently running trials.
package plaintext

import (
	"errors"
	"fmt"
	"math/rand"

	"cipherprobe/vocab"
)

// ContentClass labels the semantic type of a plaintext sample.
type ContentClass int

const (
	Binary ContentClass = iota
	EnglishText
)

func (c ContentClass) String() string {
	switch c {
	case Binary:
		return "binary"
	case EnglishText:
		return "english"
	default:
		return fmt.Sprintf("ContentClass(%d)", int(c))
	}
}

// ErrInvalidLength reports a requested sample length outside the generator's
// supported range.
var ErrInvalidLength = errors.New("invalid plaintext length")

// Generator produces plaintext samples of a single content class.
type Generator interface {
	// Generate returns exactly length bytes.
	Generate(length int) ([]byte, error)
	Class() ContentClass
}

// BinaryGenerator draws each byte independently and uniformly.
type BinaryGenerator struct {
	rng *rand.Rand
}

func NewBinaryGenerator(rng *rand.Rand) *BinaryGenerator {
	return &BinaryGenerator{rng: rng}
}

func (g *BinaryGenerator) Class() ContentClass { return Binary }

func (g *BinaryGenerator) Generate(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = byte(g.rng.Intn(256))
	}
	return out, nil
}

// DictionaryGenerator assembles text from random vocabulary words joined by a
// single space, then cuts the result to exactly the requested length so that
// all samples of a given requested length are byte-length-identical.
type DictionaryGenerator struct {
	words *vocab.Vocabulary
	rng   *rand.Rand
}

func NewDictionaryGenerator(words *vocab.Vocabulary, rng *rand.Rand) (*DictionaryGenerator, error) {
	if words == nil {
		return nil, fmt.Errorf("%w: no vocabulary loaded", vocab.ErrResourceUnavailable)
	}
	return &DictionaryGenerator{words: words, rng: rng}, nil
}

func (g *DictionaryGenerator) Class() ContentClass { return EnglishText }

func (g *DictionaryGenerator) Generate(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	out := make([]byte, 0, length+32)
	for len(out) < length {
		word := g.words.Word(g.rng.Intn(g.words.Len()))
		out = append(out, word...)
		out = append(out, ' ')
	}
	return out[:length], nil
}
