// Package keyring manages on-disk X25519 keypairs for saltbox. It is a
// local storage convenience only — it has no effect on the saltpack wire
// format, and nothing in internal/saltpack depends on it.
package keyring

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/postalsys/saltbox/internal/crypto"
	"github.com/postalsys/saltbox/internal/saltpack"
)

// kdfVersion identifies the passphrase-sealing scheme used by Save, so a
// future version can recognize and migrate older files.
const kdfVersion = "bcrypt-secretbox-v1"

var (
	// ErrWrongPassphrase is returned by Load when the supplied passphrase
	// does not match the one a sealed key was saved with.
	ErrWrongPassphrase = errors.New("keyring: wrong passphrase")

	// ErrNotSealed is returned by Load when a passphrase is supplied for
	// a key that was saved without one.
	ErrNotSealed = errors.New("keyring: key is not passphrase-protected")
)

// keyFile is the on-disk JSON shape of a saved keypair.
type keyFile struct {
	Public     string `json:"public"`
	Private    string `json:"private"`
	Sealed     bool   `json:"sealed"`
	KDF        string `json:"kdf,omitempty"`
	Nonce      string `json:"nonce,omitempty"`
	BcryptHash string `json:"bcrypt_hash,omitempty"`
}

// Generate creates a new random X25519 keypair.
func Generate() (pub, priv [32]byte, err error) {
	priv, pub, err = crypto.GenerateKeypair()
	if err != nil {
		return pub, priv, fmt.Errorf("keyring: generate keypair: %w", err)
	}
	return pub, priv, nil
}

// Save writes pub/priv to path. When passphrase is empty, the private key
// is stored as plain hex. Otherwise it is sealed: a secretbox under a key
// derived from sha512(passphrase)[:32], with a bcrypt hash of the
// passphrase stored alongside for a fast pre-check on Load.
func Save(path string, pub, priv [32]byte, passphrase string) error {
	kf := keyFile{
		Public: hex.EncodeToString(pub[:]),
	}

	if passphrase == "" {
		kf.Private = hex.EncodeToString(priv[:])
	} else {
		sealKey := passphraseKey(passphrase)
		nonce, err := randomNonce()
		if err != nil {
			return err
		}
		sealed := secretboxSeal(priv[:], nonce, sealKey)
		crypto.ZeroBytes(sealKey[:])

		hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("keyring: hash passphrase: %w", err)
		}

		kf.Private = hex.EncodeToString(sealed)
		kf.Sealed = true
		kf.KDF = kdfVersion
		kf.Nonce = hex.EncodeToString(nonce[:])
		kf.BcryptHash = string(hash)
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("keyring: encode key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keyring: create keyring directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("keyring: write key file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("keyring: persist key file: %w", err)
	}
	return nil
}

// Load reads and, if necessary, unseals the keypair at path. For a sealed
// key, passphrase must match what it was saved with or Load returns
// ErrWrongPassphrase before attempting to open the secretbox.
func Load(path, passphrase string) (pub, priv [32]byte, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pub, priv, fmt.Errorf("keyring: read key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return pub, priv, fmt.Errorf("keyring: decode key file: %w", err)
	}

	pubBytes, err := hex.DecodeString(kf.Public)
	if err != nil || len(pubBytes) != 32 {
		return pub, priv, fmt.Errorf("keyring: malformed public key in %s", path)
	}
	copy(pub[:], pubBytes)

	privBytes, err := hex.DecodeString(kf.Private)
	if err != nil {
		return pub, priv, fmt.Errorf("keyring: malformed private key in %s", path)
	}

	if !kf.Sealed {
		if passphrase != "" {
			return pub, priv, ErrNotSealed
		}
		if len(privBytes) != 32 {
			return pub, priv, fmt.Errorf("keyring: malformed private key in %s", path)
		}
		copy(priv[:], privBytes)
		return pub, priv, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(kf.BcryptHash), []byte(passphrase)) != nil {
		return pub, priv, ErrWrongPassphrase
	}

	nonceBytes, err := hex.DecodeString(kf.Nonce)
	if err != nil || len(nonceBytes) != 24 {
		return pub, priv, fmt.Errorf("keyring: malformed nonce in %s", path)
	}
	var nonce [24]byte
	copy(nonce[:], nonceBytes)

	sealKey := passphraseKey(passphrase)
	defer crypto.ZeroBytes(sealKey[:])

	opened, err := secretboxOpen(privBytes, nonce, sealKey)
	if err != nil {
		return pub, priv, ErrWrongPassphrase
	}
	if len(opened) != 32 {
		return pub, priv, fmt.Errorf("keyring: malformed sealed private key in %s", path)
	}
	copy(priv[:], opened)
	return pub, priv, nil
}

// Exists reports whether a keyring file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PublicKey re-derives a public key from a private key, for callers that
// only have a hex-encoded private key (e.g. a --sender flag) and need to
// confirm or display the matching public key.
func PublicKey(priv [32]byte) [32]byte {
	return saltpack.PublicKey(priv)
}

// passphraseKey derives a symmetric sealing key from a passphrase. This is
// a deliberately simple KDF, not a slow one like scrypt/argon2 — see
// DESIGN.md for why.
func passphraseKey(passphrase string) [32]byte {
	sum := sha512.Sum512([]byte(passphrase))
	var key [32]byte
	copy(key[:], sum[:32])
	return key
}

func randomNonce() ([24]byte, error) {
	var n [24]byte
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return n, fmt.Errorf("keyring: generate nonce: %w", err)
	}
	return n, nil
}

func secretboxSeal(message []byte, nonce [24]byte, key [32]byte) []byte {
	return secretbox.Seal(nil, message, &nonce, &key)
}

func secretboxOpen(boxed []byte, nonce [24]byte, key [32]byte) ([]byte, error) {
	out, ok := secretbox.Open(nil, boxed, &nonce, &key)
	if !ok {
		return nil, errors.New("keyring: secretbox authentication failed")
	}
	return out, nil
}
