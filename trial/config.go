// Package trial runs one configured experiment to a verdict: build the
// classifier, train it for a fixed number of rounds on freshly generated
// batches, evaluate on a held-out batch, and classify the outcome. A failing
// classifier is a reportable result, not an error; only configuration,
// resource, and generation faults fail a trial.
package trial

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cipherprobe/cipher"
	"cipherprobe/dataset"
	"cipherprobe/nn"
	"cipherprobe/plaintext"
)

// ErrConfiguration reports a trial configuration no runner can be built from.
var ErrConfiguration = errors.New("invalid trial configuration")

// Label targets.
const (
	LabelContentClass = "content-class"
	LabelScheme       = "scheme"
)

// SchemeConfig selects one cipher oracle.
type SchemeConfig struct {
	Scheme    string `yaml:"scheme"`
	KeyPolicy string `yaml:"key_policy"`
	// KeySize zero means the scheme's default.
	KeySize int `yaml:"key_size,omitempty"`
}

// ModelConfig selects and shapes the classifier. Zero values fall back to
// the nn package defaults.
type ModelConfig struct {
	Family          string  `yaml:"family"`
	HiddenLayers    int     `yaml:"hidden_layers,omitempty"`
	UnitsPerLayer   int     `yaml:"units_per_layer,omitempty"`
	Activation      string  `yaml:"activation,omitempty"`
	Dropout         float64 `yaml:"dropout,omitempty"`
	ConvFilters     int     `yaml:"conv_filters,omitempty"`
	ConvKernel      int     `yaml:"conv_kernel,omitempty"`
	ConvStride      int     `yaml:"conv_stride,omitempty"`
	RecurrentLayers int     `yaml:"recurrent_layers,omitempty"`
	LearningRate    float64 `yaml:"learning_rate,omitempty"`
}

// Config fully determines a trial. Two runners built from the same config
// (including seed) replay the same trial.
type Config struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Plaintexts []string       `yaml:"plaintexts"`
	Schemes    []SchemeConfig `yaml:"schemes"`
	Label      string         `yaml:"label"`

	// MaxInput is the model input width in bytes; default 2000.
	MaxInput int `yaml:"max_input,omitempty"`
	// Plaintext length range; defaults are MaxInput/4 and MaxInput.
	MinPlaintext int `yaml:"min_plaintext,omitempty"`
	MaxPlaintext int `yaml:"max_plaintext,omitempty"`

	Rounds    int `yaml:"rounds,omitempty"`     // default 50
	BatchSize int `yaml:"batch_size,omitempty"` // default 100
	Workers   int `yaml:"workers,omitempty"`

	Model ModelConfig `yaml:"model"`

	// Success thresholds; defaults 0.85 accuracy, 1.0 loss.
	SuccessAccuracy float64 `yaml:"success_accuracy,omitempty"`
	MaxLoss         float64 `yaml:"max_loss,omitempty"`

	Seed int64 `yaml:"seed,omitempty"`
}

func (c *Config) applyDefaults() {
	if c.MaxInput <= 0 {
		c.MaxInput = 2000
	}
	if c.MinPlaintext <= 0 {
		c.MinPlaintext = c.MaxInput / 4
	}
	if c.MaxPlaintext <= 0 {
		c.MaxPlaintext = c.MaxInput
	}
	if c.Rounds <= 0 {
		c.Rounds = 50
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.SuccessAccuracy <= 0 {
		c.SuccessAccuracy = 0.85
	}
	if c.MaxLoss <= 0 {
		c.MaxLoss = 1.0
	}
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: missing name", ErrConfiguration)
	}
	if len(c.Plaintexts) == 0 {
		return fmt.Errorf("%w: no plaintext sources", ErrConfiguration)
	}
	for _, p := range c.Plaintexts {
		if _, err := parseContentClass(p); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	if len(c.Schemes) == 0 {
		return fmt.Errorf("%w: no cipher schemes", ErrConfiguration)
	}
	for _, sc := range c.Schemes {
		scheme, err := cipher.ParseScheme(sc.Scheme)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		if _, err := cipher.ParseKeyPolicy(sc.KeyPolicy); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		size := sc.KeySize
		if size == 0 {
			size = cipher.DefaultKeySize(scheme)
		}
		if err := cipher.ValidateKeySize(scheme, size); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}
	switch c.Label {
	case LabelContentClass:
		if len(c.Plaintexts) < 2 {
			return fmt.Errorf("%w: content-class detection needs at least two plaintext sources", ErrConfiguration)
		}
	case LabelScheme:
		if len(c.Schemes) < 2 {
			return fmt.Errorf("%w: scheme detection needs at least two cipher schemes", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown label target %q", ErrConfiguration, c.Label)
	}
	if c.MinPlaintext > c.MaxPlaintext {
		return fmt.Errorf("%w: plaintext length range [%d, %d]", ErrConfiguration, c.MinPlaintext, c.MaxPlaintext)
	}
	if _, err := parseFamily(c.Model.Family); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func parseContentClass(name string) (plaintext.ContentClass, error) {
	switch name {
	case plaintext.Binary.String():
		return plaintext.Binary, nil
	case plaintext.EnglishText.String():
		return plaintext.EnglishText, nil
	default:
		return 0, fmt.Errorf("unknown plaintext class %q", name)
	}
}

func parseFamily(name string) (nn.Family, error) {
	switch name {
	case nn.FeedForward.String(), "":
		return nn.FeedForward, nil
	case nn.ConvRecurrent.String():
		return nn.ConvRecurrent, nil
	default:
		return 0, fmt.Errorf("unknown model family %q", name)
	}
}

func (c *Config) labelKind() dataset.LabelKind {
	if c.Label == LabelScheme {
		return dataset.ByScheme
	}
	return dataset.ByContentClass
}

// LoadConfig reads a YAML trial configuration, applying defaults and
// validating it.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, path, err)
	}
	return ParseConfig(raw)
}

// ParseConfig parses a YAML trial configuration.
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
