package saltpack

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

// keySize is the length in bytes of every key and scalar in this package:
// X25519 private/public keys, payload keys, and MAC keys.
const keySize = 32

// nonceSize is the length in bytes of every box/secretbox nonce.
const nonceSize = 24

type (
	key   = [keySize]byte
	nonce = [nonceSize]byte
)

// randomKey returns keySize cryptographically random bytes, suitable for an
// X25519 private key or a symmetric payload key.
func randomKey() (key, error) {
	var k key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return k, fmt.Errorf("generate random key: %w", err)
	}
	return k, nil
}

// scalarBaseMult derives an X25519 public key from a private scalar.
func scalarBaseMult(private key) key {
	var public key
	curve25519.ScalarBaseMult(&public, &private)
	return public
}

// boxSeal is saltpack's "box": authenticated public-key encryption via
// X25519 + XSalsa20-Poly1305. The result is the Poly1305 tag (16 bytes)
// followed by the ciphertext.
func boxSeal(message []byte, n nonce, peersPublic, ourPrivate key) []byte {
	return box.Seal(nil, message, &n, &peersPublic, &ourPrivate)
}

// boxOpen is the inverse of boxSeal. It returns ErrCryptoFailure (wrapped
// with context) if authentication fails.
func boxOpen(boxed []byte, n nonce, peersPublic, ourPrivate key) ([]byte, error) {
	out, ok := box.Open(nil, boxed, &n, &peersPublic, &ourPrivate)
	if !ok {
		return nil, fmt.Errorf("%w: box authentication failed", ErrCryptoFailure)
	}
	return out, nil
}

// boxBeforenm precomputes the shared key for a peer public/our private pair
// so that repeated box_open calls against the same peer (recipient
// discovery, §4.5) don't repeat the scalar multiplication.
func boxBeforenm(peersPublic, ourPrivate key) key {
	var shared key
	box.Precompute(&shared, &peersPublic, &ourPrivate)
	return shared
}

// boxOpenAfternm opens a box using a precomputed shared key from
// boxBeforenm. Failure here is expected during recipient discovery and is
// not itself an error condition at this layer — the caller decides.
func boxOpenAfternm(boxed []byte, n nonce, shared key) ([]byte, bool) {
	return box.OpenAfterPrecomputation(nil, boxed, &n, &shared)
}

// secretboxSeal is saltpack's "secretbox": symmetric XSalsa20-Poly1305
// authenticated encryption.
func secretboxSeal(message []byte, n nonce, k key) []byte {
	return secretbox.Seal(nil, message, &n, &k)
}

// secretboxOpen is the inverse of secretboxSeal.
func secretboxOpen(boxed []byte, n nonce, k key) ([]byte, error) {
	out, ok := secretbox.Open(nil, boxed, &n, &k)
	if !ok {
		return nil, fmt.Errorf("%w: secretbox authentication failed", ErrCryptoFailure)
	}
	return out, nil
}

// sha512Sum hashes data with SHA-512.
func sha512Sum(data ...[]byte) [sha512.Size]byte {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [sha512.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// hmacSHA512 computes the full 64-byte HMAC-SHA-512 tag of message under key.
// Callers needing the truncated 32-byte saltpack authenticator take the
// first 32 bytes of the result themselves (see payload.go).
func hmacSHA512(macKey key, message []byte) [sha512.Size]byte {
	mac := hmac.New(sha512.New, macKey[:])
	mac.Write(message)
	var out [sha512.Size]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// zero overwrites a key's bytes to scrub it from memory once it is no
// longer needed. Go's garbage collector offers no hard guarantee the
// backing memory is never copied elsewhere first, but this still removes
// the live reference promptly, matching the reference's "should be zeroed
// on exit where the runtime permits".
func zero(k *key) {
	for i := range k {
		k[i] = 0
	}
}
