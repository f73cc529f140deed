// Package crypto provides X25519 keypair helpers ("generate a clamped
// X25519 keypair", "zero this secret") used by the local keyring. It does
// not implement saltpack's wire-format primitives (box/secretbox) — those
// live in internal/saltpack, next to the algorithms that use them — and
// internal/saltpack does not import this package.
package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the size of an X25519 private or public key in bytes.
const KeySize = 32

// GenerateKeypair generates a new random X25519 keypair. The caller should
// zero privateKey once it is no longer needed.
func GenerateKeypair() (privateKey, publicKey [KeySize]byte, err error) {
	if _, err = io.ReadFull(rand.Reader, privateKey[:]); err != nil {
		return privateKey, publicKey, fmt.Errorf("generate private key: %w", err)
	}

	// Clamp per the X25519 spec. curve25519.ScalarBaseMult clamps
	// internally too, but doing it here keeps the stored key canonical.
	privateKey[0] &= 248
	privateKey[31] &= 127
	privateKey[31] |= 64

	curve25519.ScalarBaseMult(&publicKey, &privateKey)
	return privateKey, publicKey, nil
}

// PublicFromPrivate derives the X25519 public key for a private key.
func PublicFromPrivate(privateKey [KeySize]byte) [KeySize]byte {
	var publicKey [KeySize]byte
	curve25519.ScalarBaseMult(&publicKey, &privateKey)
	return publicKey
}

// ZeroBytes zeroes a byte slice to prevent sensitive data from lingering in
// memory. Use this to clear ephemeral private keys and derived secrets once
// they are no longer needed.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroKey zeroes a fixed-size key array.
func ZeroKey(k *[KeySize]byte) {
	for i := range k {
		k[i] = 0
	}
}
