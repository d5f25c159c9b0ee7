// Package vocab loads the word list used to assemble synthetic English
// plaintexts. The file format follows GloVe-style embedding dumps: one entry
// per line, the token first, whitespace-separated vector components after it.
// The vector components are ignored here; only the tokens matter.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrResourceUnavailable reports a missing or empty vocabulary resource.
var ErrResourceUnavailable = errors.New("vocabulary resource unavailable")

// Vocabulary is an immutable, in-memory word list. It is loaded once at
// process start and shared read-only by every trial.
type Vocabulary struct {
	words []string
}

// Load reads the word list at path.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		words = append(words, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %s holds no tokens", ErrResourceUnavailable, path)
	}
	return &Vocabulary{words: words}, nil
}

// FromWords builds a vocabulary from an in-memory word list.
func FromWords(words []string) (*Vocabulary, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty word list", ErrResourceUnavailable)
	}
	return &Vocabulary{words: append([]string(nil), words...)}, nil
}

// Len returns the number of tokens.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Word returns the token at index i.
func (v *Vocabulary) Word(i int) string {
	return v.words[i]
}
