package crypto

import "testing"

func TestGenerateKeypairClamping(t *testing.T) {
	priv, _, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if priv[0]&7 != 0 {
		t.Errorf("private key not clamped: byte[0] = %08b", priv[0])
	}
	if priv[31]&128 != 0 {
		t.Errorf("private key not clamped: byte[31] high bit set: %08b", priv[31])
	}
	if priv[31]&64 == 0 {
		t.Errorf("private key not clamped: byte[31] bit 6 not set: %08b", priv[31])
	}
}

func TestGenerateKeypairDistinct(t *testing.T) {
	priv1, pub1, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	priv2, pub2, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if priv1 == priv2 {
		t.Error("two calls to GenerateKeypair produced the same private key")
	}
	if pub1 == pub2 {
		t.Error("two calls to GenerateKeypair produced the same public key")
	}
}

func TestPublicFromPrivateMatchesGenerate(t *testing.T) {
	priv, pub, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	if derived := PublicFromPrivate(priv); derived != pub {
		t.Errorf("PublicFromPrivate(priv) = %x, want %x", derived, pub)
	}
}

func TestZeroBytes(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	ZeroBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("b[%d] = %d, want 0", i, v)
		}
	}
}

func TestZeroKey(t *testing.T) {
	k := [KeySize]byte{}
	for i := range k {
		k[i] = byte(i + 1)
	}
	ZeroKey(&k)
	for i, v := range k {
		if v != 0 {
			t.Errorf("k[%d] = %d, want 0", i, v)
		}
	}
}
