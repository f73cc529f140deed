package keyring

import (
	"path/filepath"
	"testing"
)

func TestGenerateProducesDistinctKeypairs(t *testing.T) {
	pub1, priv1, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	pub2, priv2, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if priv1 == priv2 {
		t.Fatal("two calls to Generate produced the same private key")
	}
	if pub1 == pub2 {
		t.Fatal("two calls to Generate produced the same public key")
	}
	if PublicKey(priv1) != pub1 {
		t.Fatal("Generate's returned public key does not match PublicKey(private)")
	}
}

func TestSaveLoadRoundTripNoPassphrase(t *testing.T) {
	pub, priv, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")

	if err := Save(path, pub, priv, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists returned false after Save")
	}

	gotPub, gotPriv, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPub != pub || gotPriv != priv {
		t.Fatal("loaded keypair does not match what was saved")
	}
}

func TestSaveLoadRoundTripWithPassphrase(t *testing.T) {
	pub, priv, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")

	if err := Save(path, pub, priv, "correct horse battery staple"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotPub, gotPriv, err := Load(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPub != pub || gotPriv != priv {
		t.Fatal("loaded keypair does not match what was saved")
	}
}

func TestLoadWrongPassphraseRejected(t *testing.T) {
	pub, priv, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")

	if err := Save(path, pub, priv, "the right passphrase"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, _, err := Load(path, "the wrong passphrase"); err != ErrWrongPassphrase {
		t.Fatalf("Load with wrong passphrase: got %v, want ErrWrongPassphrase", err)
	}
}

func TestLoadUnsealedWithPassphraseRejected(t *testing.T) {
	pub, priv, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")

	if err := Save(path, pub, priv, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, _, err := Load(path, "unexpected passphrase"); err != ErrNotSealed {
		t.Fatalf("Load: got %v, want ErrNotSealed", err)
	}
}

func TestExistsFalseForMissingFile(t *testing.T) {
	if Exists(filepath.Join(t.TempDir(), "nope.json")) {
		t.Fatal("Exists returned true for a nonexistent file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.json"), ""); err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}
