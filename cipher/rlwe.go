package cipher

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// The RLWE scheme encrypts each sample under CKKS and hands the serialized
// ciphertext to the classifier, so scheme-detection trials can put a lattice
// scheme next to the classical ones. Bytes are encoded one per slot; long
// samples span several ciphertexts.

var (
	rlweParamsOnce sync.Once
	rlweParams     hefloat.Parameters
	rlweParamsErr  error
)

func rlweParameters() (hefloat.Parameters, error) {
	rlweParamsOnce.Do(func() {
		rlweParams, rlweParamsErr = hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
			LogN: 14,
			Q: []uint64{0x200000008001, 0x400018001,
				0x3fffd0001, 0x400060001,
				0x400068001, 0x3fff90001,
				0x400080001, 0x4000a8001,
				0x400108001, 0x3ffeb8001},
			P:               []uint64{0x7fffffd8001, 0x7fffffc8001},
			LogDefaultScale: 40,
		})
	})
	return rlweParams, rlweParamsErr
}

type rlweState struct {
	policy    KeyPolicy
	params    hefloat.Parameters
	encoder   *hefloat.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
}

func newRLWEState(policy KeyPolicy, _ *rand.Rand) (*rlweState, error) {
	params, err := rlweParameters()
	if err != nil {
		return nil, fmt.Errorf("%w: building RLWE parameters: %v", ErrCipher, err)
	}
	st := &rlweState{
		policy:  policy,
		params:  params,
		encoder: hefloat.NewEncoder(params),
	}
	if policy == KeyFixed {
		st.genKeys()
	}
	return st, nil
}

// genKeys draws a keypair from lattigo's internal sampler. RLWE key
// generation is the one place trial seeding does not reach; the ciphertext
// distribution is what the trials measure, not the keys themselves.
func (st *rlweState) genKeys() {
	kgen := hefloat.NewKeyGenerator(st.params)
	sk, pk := kgen.GenKeyPairNew()
	st.encryptor = hefloat.NewEncryptor(st.params, pk)
	st.decryptor = hefloat.NewDecryptor(st.params, sk)
}

// clone hands the copy its own encoder and encryptor; lattigo's are not safe
// for concurrent use. The fixed keypair itself is shared.
func (st *rlweState) clone() *rlweState {
	c := &rlweState{
		policy:  st.policy,
		params:  st.params,
		encoder: st.encoder.ShallowCopy(),
	}
	if st.encryptor != nil {
		c.encryptor = st.encryptor.ShallowCopy()
	}
	if st.decryptor != nil {
		c.decryptor = st.decryptor.ShallowCopy()
	}
	return c
}

func (st *rlweState) encrypt(pt []byte) ([]byte, error) {
	encryptor := st.encryptor
	if st.policy == KeyPerSample {
		// The per-sample keypair lives only in this call; the state is never
		// mutated, so clones running in parallel workers stay independent.
		kgen := hefloat.NewKeyGenerator(st.params)
		_, pk := kgen.GenKeyPairNew()
		encryptor = hefloat.NewEncryptor(st.params, pk)
	}
	slots := 1 << st.params.LogMaxSlots()

	out := make([]byte, 4, 4+len(pt))
	binary.BigEndian.PutUint32(out, uint32(len(pt)))

	for start := 0; start < len(pt); start += slots {
		end := start + slots
		if end > len(pt) {
			end = len(pt)
		}
		values := make([]float64, end-start)
		for i, b := range pt[start:end] {
			values[i] = float64(b)
		}
		enc := hefloat.NewPlaintext(st.params, st.params.MaxLevel())
		if err := st.encoder.Encode(values, enc); err != nil {
			return nil, fmt.Errorf("%w: encoding: %v", ErrCipher, err)
		}
		ct, err := encryptor.EncryptNew(enc)
		if err != nil {
			return nil, fmt.Errorf("%w: encrypting: %v", ErrCipher, err)
		}
		raw, err := ct.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("%w: serializing ciphertext: %v", ErrCipher, err)
		}
		var hdr [4]byte
		binary.BigEndian.PutUint32(hdr[:], uint32(len(raw)))
		out = append(out, hdr[:]...)
		out = append(out, raw...)
	}
	return out, nil
}

func (st *rlweState) decrypt(ct []byte) ([]byte, error) {
	if st.policy != KeyFixed {
		return nil, fmt.Errorf("%w: per-sample keys are discarded after use", ErrCipher)
	}
	if len(ct) < 4 {
		return nil, fmt.Errorf("%w: short RLWE ciphertext", ErrCipher)
	}
	msgLen := int(binary.BigEndian.Uint32(ct))
	ct = ct[4:]

	out := make([]byte, 0, msgLen)
	for len(out) < msgLen {
		if len(ct) < 4 {
			return nil, fmt.Errorf("%w: truncated RLWE ciphertext", ErrCipher)
		}
		rawLen := int(binary.BigEndian.Uint32(ct))
		ct = ct[4:]
		if len(ct) < rawLen {
			return nil, fmt.Errorf("%w: truncated RLWE ciphertext", ErrCipher)
		}
		var chunk rlwe.Ciphertext
		if err := chunk.UnmarshalBinary(ct[:rawLen]); err != nil {
			return nil, fmt.Errorf("%w: parsing ciphertext: %v", ErrCipher, err)
		}
		ct = ct[rawLen:]

		dec := st.decryptor.DecryptNew(&chunk)
		values := make([]complex128, 1<<st.params.LogMaxSlots())
		if err := st.encoder.Decode(dec, values); err != nil {
			return nil, fmt.Errorf("%w: decoding: %v", ErrCipher, err)
		}
		want := msgLen - len(out)
		if want > len(values) {
			want = len(values)
		}
		for _, v := range values[:want] {
			b := math.Round(real(v))
			if b < 0 {
				b = 0
			}
			if b > 255 {
				b = 255
			}
			out = append(out, byte(b))
		}
	}
	return out, nil
}
