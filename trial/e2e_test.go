package trial

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Scaled-down renditions of the historic end-to-end scenarios. Geometry is
// reduced to keep the suite fast; the statistical outcome each scenario
// demonstrates is unchanged.

func runTrial(t *testing.T, cfg Config) *Result {
	t.Helper()
	r, err := NewRunner(cfg, testWords(), zerolog.Nop())
	require.NoError(t, err)
	res := r.Run(context.Background())
	require.Equal(t, Completed, res.State)
	require.NoError(t, res.Err)
	return res
}

// No cipher at all: english and binary are trivially separable.
func TestScenarioIdentityContentClass(t *testing.T) {
	res := runTrial(t, Config{
		Name:       "scenario-identity",
		Plaintexts: []string{"binary", "english"},
		Schemes:    []SchemeConfig{{Scheme: "IDENTITY", KeyPolicy: "fixed"}},
		Label:      LabelContentClass,
		MaxInput:   512,
		Rounds:     25,
		BatchSize:  40,
		Workers:    1,
		Model:      ModelConfig{Family: "feed-forward", UnitsPerLayer: 32, LearningRate: 0.05},
		Seed:       42,
	})
	require.GreaterOrEqual(t, res.FinalAccuracy, 0.95)
	require.Equal(t, VerdictExcellent, res.Verdict)
	require.True(t, res.Success)
}

// A fixed XOR key is a constant transformation; the content signal survives.
func TestScenarioFixedXORContentClass(t *testing.T) {
	res := runTrial(t, Config{
		Name:       "scenario-fixed-xor",
		Plaintexts: []string{"binary", "english"},
		Schemes:    []SchemeConfig{{Scheme: "XOR", KeyPolicy: "fixed", KeySize: 512}},
		Label:      LabelContentClass,
		MaxInput:   512,
		Rounds:     30,
		BatchSize:  40,
		Workers:    1,
		Model:      ModelConfig{Family: "feed-forward", UnitsPerLayer: 32, LearningRate: 0.05},
		Seed:       43,
	})
	require.GreaterOrEqual(t, res.FinalAccuracy, 0.9)
}

// One-time-pad regime: a fresh full-length XOR key per sample destroys every
// statistical signal, so accuracy stays at chance.
func TestScenarioOneTimePadStaysAtChance(t *testing.T) {
	res := runTrial(t, Config{
		Name:         "scenario-otp",
		Plaintexts:   []string{"binary", "english"},
		Schemes:      []SchemeConfig{{Scheme: "XOR", KeyPolicy: "per-sample", KeySize: 512}},
		Label:        LabelContentClass,
		MaxInput:     512,
		MinPlaintext: 128,
		MaxPlaintext: 512,
		Rounds:       8,
		BatchSize:    400,
		Workers:      1,
		Model:        ModelConfig{Family: "feed-forward", UnitsPerLayer: 32, LearningRate: 0.05},
		Seed:         44,
	})
	require.InDelta(t, 0.5, res.FinalAccuracy, 0.05)
	require.Equal(t, VerdictFailure, res.Verdict)
	require.False(t, res.Success)
}

// Scheme detection between AES and DES under fixed keys: block size and
// padding leave a partial signal, above chance but short of near-perfect.
func TestScenarioAESvsDESPartialSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running scheme-detection scenario")
	}
	res := runTrial(t, Config{
		Name:       "scenario-aes-vs-des",
		Plaintexts: []string{"english"},
		Schemes: []SchemeConfig{
			{Scheme: "AES", KeyPolicy: "fixed", KeySize: 32},
			{Scheme: "DES", KeyPolicy: "fixed", KeySize: 8},
		},
		Label:        LabelScheme,
		MaxInput:     512,
		MinPlaintext: 128,
		MaxPlaintext: 480,
		Rounds:       200,
		BatchSize:    100,
		Workers:      1,
		Model:        ModelConfig{Family: "feed-forward", HiddenLayers: 2, UnitsPerLayer: 64, LearningRate: 0.02},
		Seed:         45,
	})
	require.Greater(t, res.FinalAccuracy, 0.55)
}
