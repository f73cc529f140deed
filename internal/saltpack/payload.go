package saltpack

import (
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// packet is one decoded payload packet, shape-normalized across v1 (no
// final flag) and v2 (explicit final flag).
type packet struct {
	Final           bool
	Authenticators  [][]byte
	PayloadSecretbox []byte
}

// authenticatorHash computes the hash each recipient's HMAC authenticates
// for one chunk: the header hash, the chunk's nonce, (v2 only) the final
// flag byte, and the chunk's ciphertext.
func authenticatorHash(headerHash [64]byte, n nonce, majorVersion int, final bool, ciphertext []byte) [64]byte {
	if majorVersion == 1 {
		return sha512Sum(headerHash[:], n[:], ciphertext)
	}
	flagByte := []byte{0x00}
	if final {
		flagByte[0] = 0x01
	}
	return sha512Sum(headerHash[:], n[:], flagByte, ciphertext)
}

// encodePacket encrypts one chunk and authenticates it for every recipient,
// writing the resulting MessagePack packet to enc.
func encodePacket(enc *msgpack.Encoder, headerHash [64]byte, majorVersion int, payloadKey key, macKeys []key, chunk Chunk) error {
	n := payloadNonce(chunk.Index)
	ciphertext := secretboxSeal(chunk.Data, n, payloadKey)

	h := authenticatorHash(headerHash, n, majorVersion, chunk.Final, ciphertext)

	authenticators := make([][]byte, len(macKeys))
	for i, macKey := range macKeys {
		tag := hmacSHA512(macKey, h[:])
		authenticators[i] = append([]byte{}, tag[:32]...)
	}

	var arr []interface{}
	if majorVersion == 1 {
		arr = []interface{}{bytesToInterfaces(authenticators), ciphertext}
	} else {
		arr = []interface{}{chunk.Final, bytesToInterfaces(authenticators), ciphertext}
	}

	if err := enc.Encode(arr); err != nil {
		return fmt.Errorf("%w: encode packet: %v", ErrMalformed, err)
	}
	return nil
}

func bytesToInterfaces(bs [][]byte) []interface{} {
	out := make([]interface{}, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

// decodePacket reads and destructures the next packet from dec according
// to majorVersion's shape, ignoring any trailing elements.
func decodePacket(dec *msgpack.Decoder, majorVersion int) (*packet, error) {
	var fields []interface{}
	if err := dec.Decode(&fields); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: truncated stream, no terminator packet", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: decode packet: %v", ErrMalformed, err)
	}

	minLen := 2
	if majorVersion != 1 {
		minLen = 3
	}
	if len(fields) < minLen {
		return nil, fmt.Errorf("%w: packet array too short: %d elements", ErrMalformed, len(fields))
	}

	p := &packet{}
	idx := 0
	if majorVersion != 1 {
		final, ok := asBool(fields[0])
		if !ok {
			return nil, fmt.Errorf("%w: packet final flag is not a boolean", ErrMalformed)
		}
		p.Final = final
		idx = 1
	}

	rawAuthenticators, ok := asSlice(fields[idx])
	if !ok {
		return nil, fmt.Errorf("%w: packet authenticators is not an array", ErrMalformed)
	}
	p.Authenticators = make([][]byte, len(rawAuthenticators))
	for i, a := range rawAuthenticators {
		tag, ok := asBytes(a)
		if !ok {
			return nil, fmt.Errorf("%w: authenticator %d is not bytes", ErrMalformed, i)
		}
		p.Authenticators[i] = tag
	}

	ciphertext, ok := asBytes(fields[idx+1])
	if !ok {
		return nil, fmt.Errorf("%w: packet secretbox is not bytes", ErrMalformed)
	}
	p.PayloadSecretbox = ciphertext

	return p, nil
}

// verifyAndOpen checks recipientIndex's authenticator against macKey in
// constant time, then opens the payload secretbox. It returns ErrMalformed
// if the packet has no authenticator at recipientIndex, and ErrHMACFailure
// or ErrCryptoFailure (never a silently corrupted chunk) on any other
// failure.
func verifyAndOpen(p *packet, headerHash [64]byte, majorVersion int, chunkIndex uint64, recipientIndex int, macKey, payloadKey key) ([]byte, error) {
	if recipientIndex < 0 || recipientIndex >= len(p.Authenticators) {
		return nil, fmt.Errorf("%w: recipient index %d out of range (%d authenticators)", ErrMalformed, recipientIndex, len(p.Authenticators))
	}

	n := payloadNonce(chunkIndex)
	h := authenticatorHash(headerHash, n, majorVersion, p.Final, p.PayloadSecretbox)
	ourTag := hmacSHA512(macKey, h[:])

	theirTag := p.Authenticators[recipientIndex]
	if len(theirTag) != 32 || subtle.ConstantTimeCompare(theirTag, ourTag[:32]) != 1 {
		return nil, fmt.Errorf("%w: chunk %d", ErrHMACFailure, chunkIndex)
	}

	plain, err := secretboxOpen(p.PayloadSecretbox, n, payloadKey)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d", err, chunkIndex)
	}
	return plain, nil
}
