// Package cipher implements the encryption oracle that turns plaintext
// samples into labeled ciphertexts. Key material lives only inside the
// oracle: it is never returned alongside ciphertext, never logged, and under
// the per-sample policy it is discarded as soon as the call returns.
package cipher

import (
	"crypto/aes"
	"crypto/des"
	stdcipher "crypto/cipher"
	"errors"
	"fmt"
	"math/rand"
)

// Scheme enumerates the supported cipher schemes.
type Scheme int

const (
	Identity Scheme = iota
	Shift
	XOR
	AES
	DES
	TripleDES
	RLWE
)

var schemeNames = map[Scheme]string{
	Identity:  "IDENTITY",
	Shift:     "SHIFT",
	XOR:       "XOR",
	AES:       "AES",
	DES:       "DES",
	TripleDES: "3DES",
	RLWE:      "RLWE",
}

func (s Scheme) String() string {
	if n, ok := schemeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme maps a scheme name back to its value.
func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown cipher scheme %q", name)
}

// KeyPolicy governs how often the oracle draws a key.
type KeyPolicy int

const (
	// KeyFixed draws one key at oracle construction and reuses it for every
	// encryption in the trial.
	KeyFixed KeyPolicy = iota
	// KeyPerSample draws a fresh key for every encryption and discards it
	// immediately afterwards (one-time-pad regime when the key covers the
	// whole message).
	KeyPerSample
)

func (p KeyPolicy) String() string {
	switch p {
	case KeyFixed:
		return "fixed"
	case KeyPerSample:
		return "per-sample"
	default:
		return fmt.Sprintf("KeyPolicy(%d)", int(p))
	}
}

// ParseKeyPolicy maps a policy name back to its value.
func ParseKeyPolicy(name string) (KeyPolicy, error) {
	switch name {
	case "fixed":
		return KeyFixed, nil
	case "per-sample":
		return KeyPerSample, nil
	default:
		return 0, fmt.Errorf("unknown key policy %q", name)
	}
}

var (
	// ErrInvalidKeyLength reports a key size the scheme does not support.
	ErrInvalidKeyLength = errors.New("invalid key length for scheme")
	// ErrCipher reports a failure inside the underlying primitive.
	ErrCipher = errors.New("cipher operation failed")
)

// DefaultKeySize returns the key size the original trial suite used for each
// scheme.
func DefaultKeySize(s Scheme) int {
	switch s {
	case AES:
		return 32
	case DES:
		return 8
	case TripleDES:
		return 24
	case Shift, XOR:
		return 8
	default:
		return 0
	}
}

// ValidateKeySize checks size against the scheme's supported key lengths.
func ValidateKeySize(s Scheme, size int) error {
	switch s {
	case Identity, RLWE:
		// Keyless from the caller's perspective; RLWE manages its own keypair.
		return nil
	case Shift, XOR:
		if size < 1 {
			return fmt.Errorf("%w: %s needs at least 1 byte, got %d", ErrInvalidKeyLength, s, size)
		}
		return nil
	case AES:
		if size != 16 && size != 24 && size != 32 {
			return fmt.Errorf("%w: AES needs 16, 24 or 32 bytes, got %d", ErrInvalidKeyLength, size)
		}
		return nil
	case DES:
		if size != 8 {
			return fmt.Errorf("%w: DES needs 8 bytes, got %d", ErrInvalidKeyLength, size)
		}
		return nil
	case TripleDES:
		if size != 24 {
			return fmt.Errorf("%w: 3DES needs 24 bytes, got %d", ErrInvalidKeyLength, size)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown scheme %d", ErrInvalidKeyLength, int(s))
	}
}

// Oracle encrypts plaintext samples under one scheme and key policy. An
// oracle's random state is not safe for concurrent use; parallel workers use
// Clone.
type Oracle struct {
	scheme  Scheme
	policy  KeyPolicy
	keySize int
	rng     *rand.Rand

	key  []byte     // fixed-policy key, nil otherwise
	rlwe *rlweState // lazily built RLWE material
}

// NewOracle builds an oracle. Under KeyFixed the trial key is drawn here,
// from rng, so seeded trials replay deterministically.
func NewOracle(scheme Scheme, policy KeyPolicy, keySize int, rng *rand.Rand) (*Oracle, error) {
	if keySize == 0 {
		keySize = DefaultKeySize(scheme)
	}
	if err := ValidateKeySize(scheme, keySize); err != nil {
		return nil, err
	}
	o := &Oracle{scheme: scheme, policy: policy, keySize: keySize, rng: rng}
	if scheme == RLWE {
		st, err := newRLWEState(policy, rng)
		if err != nil {
			return nil, err
		}
		o.rlwe = st
		return o, nil
	}
	if policy == KeyFixed && scheme != Identity {
		o.key = drawKey(rng, keySize)
	}
	return o, nil
}

// Scheme returns the oracle's cipher scheme.
func (o *Oracle) Scheme() Scheme { return o.scheme }

// Policy returns the oracle's key policy.
func (o *Oracle) Policy() KeyPolicy { return o.policy }

// Clone returns an oracle sharing the fixed trial key but owning the given
// random source and its own RLWE machinery. Used by parallel batch workers.
func (o *Oracle) Clone(rng *rand.Rand) *Oracle {
	c := *o
	c.rng = rng
	if c.rlwe != nil {
		c.rlwe = o.rlwe.clone()
	}
	return &c
}

// Encrypt encrypts one plaintext sample. For KeyPerSample a fresh key is
// drawn from the oracle's random source and dropped before returning.
func (o *Oracle) Encrypt(pt []byte) ([]byte, error) {
	switch o.scheme {
	case Identity:
		return append([]byte(nil), pt...), nil
	case RLWE:
		return o.rlwe.encrypt(pt)
	}
	key := o.key
	if o.policy == KeyPerSample {
		key = drawKey(o.rng, o.keySize)
	}
	return EncryptWithKey(o.scheme, key, pt)
}

// Decrypt reverses a fixed-key encryption. Per-sample keys are gone by
// design, so decryption is only available under KeyFixed.
func (o *Oracle) Decrypt(ct []byte) ([]byte, error) {
	switch o.scheme {
	case Identity:
		return append([]byte(nil), ct...), nil
	case RLWE:
		return o.rlwe.decrypt(ct)
	}
	if o.policy != KeyFixed {
		return nil, fmt.Errorf("%w: per-sample keys are discarded after use", ErrCipher)
	}
	return DecryptWithKey(o.scheme, o.key, ct)
}

func drawKey(rng *rand.Rand, size int) []byte {
	key := make([]byte, size)
	for i := range key {
		key[i] = byte(rng.Intn(256))
	}
	return key
}

// EncryptWithKey applies one classical scheme under an explicit key. It backs
// the oracle and the round-trip tests; Identity and RLWE have no key to pass.
func EncryptWithKey(scheme Scheme, key, pt []byte) ([]byte, error) {
	if err := ValidateKeySize(scheme, len(key)); err != nil {
		return nil, err
	}
	switch scheme {
	case Shift:
		out := make([]byte, len(pt))
		for i, b := range pt {
			out[i] = b + key[i%len(key)]
		}
		return out, nil
	case XOR:
		out := make([]byte, len(pt))
		for i, b := range pt {
			out[i] = b ^ key[i%len(key)]
		}
		return out, nil
	case AES, DES, TripleDES:
		block, err := newBlockCipher(scheme, key)
		if err != nil {
			return nil, err
		}
		return ecbEncrypt(block, pkcs7Pad(pt, block.BlockSize())), nil
	default:
		return nil, fmt.Errorf("%w: scheme %s has no explicit-key form", ErrCipher, scheme)
	}
}

// DecryptWithKey reverses EncryptWithKey.
func DecryptWithKey(scheme Scheme, key, ct []byte) ([]byte, error) {
	if err := ValidateKeySize(scheme, len(key)); err != nil {
		return nil, err
	}
	switch scheme {
	case Shift:
		out := make([]byte, len(ct))
		for i, b := range ct {
			out[i] = b - key[i%len(key)]
		}
		return out, nil
	case XOR:
		out := make([]byte, len(ct))
		for i, b := range ct {
			out[i] = b ^ key[i%len(key)]
		}
		return out, nil
	case AES, DES, TripleDES:
		block, err := newBlockCipher(scheme, key)
		if err != nil {
			return nil, err
		}
		padded, err := ecbDecrypt(block, ct)
		if err != nil {
			return nil, err
		}
		return pkcs7Unpad(padded, block.BlockSize())
	default:
		return nil, fmt.Errorf("%w: scheme %s has no explicit-key form", ErrCipher, scheme)
	}
}

func newBlockCipher(scheme Scheme, key []byte) (stdcipher.Block, error) {
	var block stdcipher.Block
	var err error
	switch scheme {
	case AES:
		block, err = aes.NewCipher(key)
	case DES:
		block, err = des.NewCipher(key)
	case TripleDES:
		block, err = des.NewTripleDESCipher(key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return block, nil
}
