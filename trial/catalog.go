package trial

// Catalog returns the built-in trial suite. Entries are data only; the
// generic runner executes all of them. Numbering gaps follow the historic
// suite.
func Catalog() []Config {
	ff := func(hidden, units int) ModelConfig {
		return ModelConfig{Family: "feed-forward", HiddenLayers: hidden, UnitsPerLayer: units}
	}
	trials := []Config{
		{
			Name:        "sanity-check",
			Description: "english vs binary with no cipher at all; an easy warm-up expected to score excellent",
			Plaintexts:  []string{"binary", "english"},
			Schemes:     []SchemeConfig{{Scheme: "IDENTITY", KeyPolicy: "fixed"}},
			Label:       LabelContentClass,
			Model:       ff(1, 100),
		},
		{
			Name:        "shift-single-key",
			Description: "english vs binary through SHIFT under one long fixed key",
			Plaintexts:  []string{"binary", "english"},
			Schemes:     []SchemeConfig{{Scheme: "SHIFT", KeyPolicy: "fixed", KeySize: 2000}},
			Label:       LabelContentClass,
			Model:       ff(1, 100),
		},
		{
			Name:        "xor-single-key",
			Description: "english vs binary through XOR under one long fixed key",
			Plaintexts:  []string{"binary", "english"},
			Schemes:     []SchemeConfig{{Scheme: "XOR", KeyPolicy: "fixed", KeySize: 2000}},
			Label:       LabelContentClass,
			Model:       ff(1, 100),
		},
		{
			Name:        "one-time-pad",
			Description: "XOR with a fresh full-length key per sample; provably unlearnable, expected to fail",
			Plaintexts:  []string{"binary", "english"},
			Schemes:     []SchemeConfig{{Scheme: "XOR", KeyPolicy: "per-sample", KeySize: 2000}},
			Label:       LabelContentClass,
			Model:       ff(1, 100),
		},
		{
			Name:        "xor-vs-shift-single-keys",
			Description: "which cipher produced the ciphertext, XOR or SHIFT, each under its own fixed key",
			Plaintexts:  []string{"binary", "english"},
			Schemes: []SchemeConfig{
				{Scheme: "XOR", KeyPolicy: "fixed", KeySize: 2000},
				{Scheme: "SHIFT", KeyPolicy: "fixed", KeySize: 2000},
			},
			Label: LabelScheme,
			Model: ff(5, 100),
		},
		{
			Name:        "aes-single-key",
			Description: "english vs binary through AES-ECB under one fixed key",
			Plaintexts:  []string{"binary", "english"},
			Schemes:     []SchemeConfig{{Scheme: "AES", KeyPolicy: "fixed", KeySize: 32}},
			Label:       LabelContentClass,
			Model:       ff(5, 100),
			Rounds:      1000,
		},
		{
			Name:        "aes-vs-des-changing-keys",
			Description: "which cipher produced the ciphertext when every sample uses a fresh key; expected to fail",
			Plaintexts:  []string{"english"},
			Schemes: []SchemeConfig{
				{Scheme: "DES", KeyPolicy: "per-sample", KeySize: 8},
				{Scheme: "AES", KeyPolicy: "per-sample", KeySize: 32},
			},
			Label:        LabelScheme,
			MinPlaintext: 1000,
			MaxPlaintext: 1500,
			Model:        ff(5, 100),
			Rounds:       1000,
		},
		{
			Name:        "shift-short-changing-key",
			Description: "english vs binary through SHIFT with a short key redrawn per sample",
			Plaintexts:  []string{"binary", "english"},
			Schemes:     []SchemeConfig{{Scheme: "SHIFT", KeyPolicy: "per-sample", KeySize: 5}},
			Label:       LabelContentClass,
			Model:       ff(5, 100),
			Rounds:      100,
		},
		{
			Name:         "rnn-shift-single-key",
			Description:  "the shift-single-key task on the recurrent family, variable-length inputs up to 10000 bytes",
			Plaintexts:   []string{"binary", "english"},
			Schemes:      []SchemeConfig{{Scheme: "SHIFT", KeyPolicy: "fixed", KeySize: 32}},
			Label:        LabelContentClass,
			MaxInput:     10000,
			MinPlaintext: 100,
			MaxPlaintext: 10000,
			Model: ModelConfig{
				Family:        "conv-recurrent",
				UnitsPerLayer: 100,
				Dropout:       0.05,
			},
			Rounds: 100,
		},
		{
			Name:        "rlwe-vs-aes",
			Description: "which cipher produced the ciphertext, CKKS lattice encryption or AES, both under fixed keys",
			Plaintexts:  []string{"binary", "english"},
			Schemes: []SchemeConfig{
				{Scheme: "RLWE", KeyPolicy: "fixed"},
				{Scheme: "AES", KeyPolicy: "fixed", KeySize: 32},
			},
			Label:  LabelScheme,
			Model:  ff(1, 100),
			Rounds: 50,
		},
	}
	for i := range trials {
		trials[i].applyDefaults()
	}
	return trials
}

// Lookup finds a catalog trial by name.
func Lookup(name string) (Config, bool) {
	for _, cfg := range Catalog() {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return Config{}, false
}
