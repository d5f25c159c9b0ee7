package trial

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"cipherprobe/cipher"
	"cipherprobe/dataset"
	"cipherprobe/encode"
	"cipherprobe/nn"
	"cipherprobe/plaintext"
	"cipherprobe/tensor"
	"cipherprobe/vocab"
)

// State tracks the trial lifecycle.
type State int

const (
	Configured State = iota
	Training
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Training:
		return "training"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Verdict bands the final held-out accuracy the way the trial suite always
// graded runs.
type Verdict int

const (
	VerdictFailure Verdict = iota
	VerdictAverage
	VerdictGood
	VerdictExcellent
)

func (v Verdict) String() string {
	switch v {
	case VerdictFailure:
		return "failure"
	case VerdictAverage:
		return "average"
	case VerdictGood:
		return "good"
	case VerdictExcellent:
		return "excellent"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// VerdictFor bands an accuracy: <0.70 failure, <0.85 average, <0.95 good,
// else excellent.
func VerdictFor(accuracy float64) Verdict {
	switch {
	case accuracy < 0.70:
		return VerdictFailure
	case accuracy < 0.85:
		return VerdictAverage
	case accuracy < 0.95:
		return VerdictGood
	default:
		return VerdictExcellent
	}
}

// RoundMetrics is one training round's observation.
type RoundMetrics struct {
	Round    int
	Loss     float64
	Accuracy float64
}

// Result is the read-only record of a finished trial. Appended to only by
// the runner while it owns it.
type Result struct {
	Name   string
	State  State
	Rounds []RoundMetrics

	// Held-out evaluation after the last round.
	FinalLoss     float64
	FinalAccuracy float64

	Verdict  Verdict
	Success  bool
	Duration time.Duration

	// Weights holds the trained model's parameters on completion, for
	// checkpointing.
	Weights map[string]*tensor.Tensor

	// Err carries the originating error of a FAILED trial, verbatim.
	Err error
}

// Reporter receives metrics after every round and the result at completion.
type Reporter interface {
	Report(round int, loss, accuracy float64)
	ReportFinal(res *Result)
}

// Runner executes one trial. Runners are single-use: one Run call drives
// CONFIGURED through TRAINING to COMPLETED or FAILED.
type Runner struct {
	cfg       Config
	words     *vocab.Vocabulary
	log       zerolog.Logger
	reporters []Reporter
	state     State
}

// NewRunner validates the config and resource requirements up front;
// configuration and resource errors never begin training. The vocabulary may
// be nil when no english plaintext source is configured.
func NewRunner(cfg Config, words *vocab.Vocabulary, log zerolog.Logger, reporters ...Reporter) (*Runner, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	for _, p := range cfg.Plaintexts {
		if p == plaintext.EnglishText.String() && words == nil {
			return nil, fmt.Errorf("%w: trial %s needs an english vocabulary", vocab.ErrResourceUnavailable, cfg.Name)
		}
	}
	return &Runner{
		cfg:       cfg,
		words:     words,
		log:       log.With().Str("trial", cfg.Name).Logger(),
		reporters: reporters,
		state:     Configured,
	}, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return r.state }

// Run drives the trial to its terminal state. The context is checked between
// rounds only; a round in flight always finishes.
func (r *Runner) Run(ctx context.Context) *Result {
	res := &Result{Name: r.cfg.Name, State: Training}
	start := time.Now()
	rng := rand.New(rand.NewSource(r.cfg.Seed))

	gen, clf, err := r.assemble(rng)
	if err != nil {
		return r.fail(res, start, err)
	}

	r.state = Training
	r.log.Info().
		Str("label", r.cfg.Label).
		Int("rounds", r.cfg.Rounds).
		Int("batch_size", r.cfg.BatchSize).
		Str("model", r.cfg.Model.Family).
		Msg("trial started")

	for round := 1; round <= r.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return r.fail(res, start, err)
		}
		batch, err := gen.NextBatch(ctx)
		if err != nil {
			return r.fail(res, start, err)
		}
		loss, acc, err := clf.TrainStep(batch)
		if err != nil {
			return r.fail(res, start, err)
		}
		res.Rounds = append(res.Rounds, RoundMetrics{Round: round, Loss: loss, Accuracy: acc})
		for _, rep := range r.reporters {
			rep.Report(round, loss, acc)
		}
		r.log.Debug().Int("round", round).Float64("loss", loss).Float64("accuracy", acc).Msg("round done")
	}

	// Held-out evaluation on one fresh batch.
	batch, err := gen.NextBatch(ctx)
	if err != nil {
		return r.fail(res, start, err)
	}
	res.FinalLoss, res.FinalAccuracy, err = clf.Evaluate(batch)
	if err != nil {
		return r.fail(res, start, err)
	}

	r.state = Completed
	res.State = Completed
	res.Weights = clf.Weights()
	res.Verdict = VerdictFor(res.FinalAccuracy)
	res.Success = res.FinalAccuracy >= r.cfg.SuccessAccuracy && res.FinalLoss <= r.cfg.MaxLoss
	res.Duration = time.Since(start)
	r.log.Info().
		Float64("loss", res.FinalLoss).
		Float64("accuracy", res.FinalAccuracy).
		Str("verdict", res.Verdict.String()).
		Bool("success", res.Success).
		Dur("took", res.Duration).
		Msg("trial completed")
	for _, rep := range r.reporters {
		rep.ReportFinal(res)
	}
	return res
}

func (r *Runner) fail(res *Result, start time.Time, err error) *Result {
	r.state = Failed
	res.State = Failed
	res.Err = err
	res.Duration = time.Since(start)
	r.log.Error().Err(err).Msg("trial failed")
	for _, rep := range r.reporters {
		rep.ReportFinal(res)
	}
	return res
}

// assemble builds the data pipeline and classifier from the config, deriving
// every random source from the trial seed.
func (r *Runner) assemble(rng *rand.Rand) (*dataset.Generator, *nn.Classifier, error) {
	sources := make([]plaintext.Generator, 0, len(r.cfg.Plaintexts))
	for _, name := range r.cfg.Plaintexts {
		class, err := parseContentClass(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		sub := rand.New(rand.NewSource(rng.Int63()))
		switch class {
		case plaintext.EnglishText:
			dict, err := plaintext.NewDictionaryGenerator(r.words, sub)
			if err != nil {
				return nil, nil, err
			}
			sources = append(sources, dict)
		default:
			sources = append(sources, plaintext.NewBinaryGenerator(sub))
		}
	}

	oracles := make([]*cipher.Oracle, 0, len(r.cfg.Schemes))
	for _, sc := range r.cfg.Schemes {
		scheme, err := cipher.ParseScheme(sc.Scheme)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		policy, err := cipher.ParseKeyPolicy(sc.KeyPolicy)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		o, err := cipher.NewOracle(scheme, policy, sc.KeySize, rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			return nil, nil, err
		}
		oracles = append(oracles, o)
	}

	family, err := parseFamily(r.cfg.Model.Family)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	policy := encode.FlatScaled
	if family == nn.ConvRecurrent {
		policy = encode.OneHotSequence
	}
	enc, err := encode.New(policy, r.cfg.MaxInput)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	gen, err := dataset.New(dataset.Config{
		Label:        r.cfg.labelKind(),
		BatchSize:    r.cfg.BatchSize,
		MinPlaintext: r.cfg.MinPlaintext,
		MaxPlaintext: r.cfg.MaxPlaintext,
		Workers:      r.cfg.Workers,
	}, sources, oracles, enc, rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return nil, nil, err
	}

	clf, err := nn.Build(nn.ArchSpec{
		Family:          family,
		InputSize:       r.cfg.MaxInput,
		NumClasses:      gen.NumClasses(),
		HiddenLayers:    r.cfg.Model.HiddenLayers,
		UnitsPerLayer:   r.cfg.Model.UnitsPerLayer,
		Activation:      r.cfg.Model.Activation,
		Dropout:         r.cfg.Model.Dropout,
		ConvFilters:     r.cfg.Model.ConvFilters,
		ConvKernel:      r.cfg.Model.ConvKernel,
		ConvStride:      r.cfg.Model.ConvStride,
		RecurrentLayers: r.cfg.Model.RecurrentLayers,
		LearningRate:    r.cfg.Model.LearningRate,
		Seed:            rng.Int63(),
	})
	if err != nil {
		return nil, nil, err
	}
	return gen, clf, nil
}
