package audit

import (
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// sealBox prepends the nonce to the secretbox ciphertext so a sealed
// value is self-contained.
func sealBox(nonce [24]byte, plaintext []byte, key *[32]byte) []byte {
	return secretbox.Seal(nonce[:], plaintext, &nonce, key)
}

// openBox splits the nonce off and authenticates + decrypts the rest.
func openBox(sealed []byte, key *[32]byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, fmt.Errorf("sealed value too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("opening sealed value: authentication failed")
	}
	return plain, nil
}
