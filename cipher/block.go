package cipher

import (
	stdcipher "crypto/cipher"
	"fmt"
)

// The original trial suite ran every block cipher in ECB. ECB leaks block
// repetition, which is exactly the statistical signal some trials probe for,
// so it stays the default (and only) mode here.

func ecbEncrypt(block stdcipher.Block, padded []byte) []byte {
	bs := block.BlockSize()
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}
	return out
}

func ecbDecrypt(block stdcipher.Block, ct []byte) ([]byte, error) {
	bs := block.BlockSize()
	if len(ct) == 0 || len(ct)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of block size %d", ErrCipher, len(ct), bs)
	}
	out := make([]byte, len(ct))
	for i := 0; i < len(ct); i += bs {
		block.Decrypt(out[i:i+bs], ct[i:i+bs])
	}
	return out, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	if padLen == 0 {
		padLen = blockSize
	}
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: malformed padded data", ErrCipher)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("%w: invalid padding length %d", ErrCipher, padLen)
	}
	for i := len(data) - padLen; i < len(data); i++ {
		if data[i] != byte(padLen) {
			return nil, fmt.Errorf("%w: invalid padding", ErrCipher)
		}
	}
	return data[:len(data)-padLen], nil
}
