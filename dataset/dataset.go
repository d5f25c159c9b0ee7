// Package dataset assembles model-ready batches on the fly: it draws fresh
// plaintexts, runs them through cipher oracles, and encodes the resulting
// ciphertexts into labeled tensors. Every batch is generated online and
// class-balanced; nothing is cached between batches, so the classifier never
// sees the same ciphertext twice under a randomized key policy.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"cipherprobe/cipher"
	"cipherprobe/encode"
	"cipherprobe/plaintext"
)

// LabelKind selects what the classifier is asked to recover from a ciphertext.
type LabelKind int

const (
	// ByContentClass labels each sample with the index of the plaintext
	// source that produced it.
	ByContentClass LabelKind = iota
	// ByScheme labels each sample with the index of the oracle that
	// encrypted it.
	ByScheme
)

func (k LabelKind) String() string {
	switch k {
	case ByContentClass:
		return "content-class"
	case ByScheme:
		return "scheme"
	default:
		return fmt.Sprintf("LabelKind(%d)", int(k))
	}
}

// ErrBatchGeneration reports that a batch could not be produced, after
// exhausting any retries.
var ErrBatchGeneration = errors.New("batch generation failed")

// Config shapes batch production.
type Config struct {
	Label        LabelKind
	BatchSize    int
	MinPlaintext int
	MaxPlaintext int
	// MaxRetries bounds re-encryption attempts per sample on a cipher
	// failure. Zero means the default of 3.
	MaxRetries int
	// Workers bounds the goroutines encrypting and encoding a batch. Zero
	// means one per CPU.
	Workers int
}

// Generator produces batches from a set of plaintext sources and cipher
// oracles. A Generator is not safe for concurrent use; its workers clone the
// oracles per batch and never touch the sources outside the retry lock.
type Generator struct {
	cfg     Config
	sources []plaintext.Generator
	oracles []*cipher.Oracle
	enc     *encode.Encoder
	rng     *rand.Rand

	mu sync.Mutex // serializes retry draws from the sources
}

func New(cfg Config, sources []plaintext.Generator, oracles []*cipher.Oracle, enc *encode.Encoder, rng *rand.Rand) (*Generator, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", ErrBatchGeneration, cfg.BatchSize)
	}
	if len(sources) == 0 || len(oracles) == 0 {
		return nil, fmt.Errorf("%w: need at least one plaintext source and one oracle", ErrBatchGeneration)
	}
	if cfg.MinPlaintext <= 0 || cfg.MaxPlaintext < cfg.MinPlaintext {
		return nil, fmt.Errorf("%w: plaintext length range [%d, %d]", ErrBatchGeneration, cfg.MinPlaintext, cfg.MaxPlaintext)
	}
	if cfg.Label == ByScheme && len(oracles) < 2 {
		return nil, fmt.Errorf("%w: scheme labels need at least two oracles", ErrBatchGeneration)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Generator{cfg: cfg, sources: sources, oracles: oracles, enc: enc, rng: rng}, nil
}

// NumClasses returns the size of the label space.
func (g *Generator) NumClasses() int {
	if g.cfg.Label == ByScheme {
		return len(g.oracles)
	}
	return len(g.sources)
}

// ClassName names a label for reporting.
func (g *Generator) ClassName(label int) string {
	if g.cfg.Label == ByScheme {
		return g.oracles[label].Scheme().String()
	}
	return g.sources[label].Class().String()
}

// NextBatch draws a fresh class-balanced batch. Plaintexts are drawn
// sequentially from the generator's random source, so two generators built
// with the same seed produce the same plaintext stream; encryption and
// encoding fan out across workers.
func (g *Generator) NextBatch(ctx context.Context) ([]encode.Example, error) {
	n := g.cfg.BatchSize
	k := g.NumClasses()

	labels := make([]int, 0, n)
	for class := 0; class < k; class++ {
		count := n / k
		if class < n%k {
			count++
		}
		for i := 0; i < count; i++ {
			labels = append(labels, class)
		}
	}
	g.rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})

	type job struct {
		pt     []byte
		src    plaintext.Generator
		oracle int
		label  int
	}
	jobs := make([]job, n)
	for i, label := range labels {
		length := g.cfg.MinPlaintext
		if g.cfg.MaxPlaintext > g.cfg.MinPlaintext {
			length += g.rng.Intn(g.cfg.MaxPlaintext - g.cfg.MinPlaintext + 1)
		}
		var src plaintext.Generator
		oracle := 0
		if g.cfg.Label == ByScheme {
			oracle = label
			src = g.sources[g.rng.Intn(len(g.sources))]
		} else {
			src = g.sources[label]
			if len(g.oracles) > 1 {
				oracle = g.rng.Intn(len(g.oracles))
			}
		}
		pt, err := src.Generate(length)
		if err != nil {
			return nil, fmt.Errorf("%w: drawing plaintext: %v", ErrBatchGeneration, err)
		}
		jobs[i] = job{pt: pt, src: src, oracle: oracle, label: label}
	}

	workers := g.cfg.Workers
	if workers > n {
		workers = n
	}
	out := make([]encode.Example, n)
	grp, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		oracles := make([]*cipher.Oracle, len(g.oracles))
		for i, o := range g.oracles {
			oracles[i] = o.Clone(rand.New(rand.NewSource(g.rng.Int63())))
		}
		w := w
		grp.Go(func() error {
			for i := w; i < n; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				jb := jobs[i]
				ct, err := g.encryptWithRetry(oracles[jb.oracle].Encrypt, jb.src, jb.pt)
				if err != nil {
					return err
				}
				x, length := g.enc.Encode(ct)
				out[i] = encode.Example{X: x, Length: length, Label: jb.label}
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// encryptWithRetry encrypts one drawn sample. A cipher failure discards the
// sample and redraws a fresh plaintext of the same length and label before
// trying again; any other failure, or running out of retries, aborts the
// batch.
func (g *Generator) encryptWithRetry(encrypt func([]byte) ([]byte, error), src plaintext.Generator, pt []byte) ([]byte, error) {
	var err error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		ct, encErr := encrypt(pt)
		if encErr == nil {
			return ct, nil
		}
		err = encErr
		if !errors.Is(err, cipher.ErrCipher) || attempt == g.cfg.MaxRetries {
			break
		}
		fresh, drawErr := g.redraw(src, len(pt))
		if drawErr != nil {
			return nil, fmt.Errorf("%w: redrawing plaintext: %v", ErrBatchGeneration, drawErr)
		}
		pt = fresh
	}
	return nil, fmt.Errorf("%w: encrypting sample: %v", ErrBatchGeneration, err)
}

// redraw serializes retry draws; sources are not safe for concurrent use.
func (g *Generator) redraw(src plaintext.Generator, length int) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return src.Generate(length)
}
