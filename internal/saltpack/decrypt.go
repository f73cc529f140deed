package saltpack

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Decrypt opens a saltpack-encrypted message addressed to recipientPrivate.
// It returns ErrNoMatchingRecipient if no header slot can be opened with
// this key, ErrBadFormat, ErrBadVersion, or ErrBadMode for a header it does
// not support, and ErrHMACFailure, ErrCryptoFailure, or ErrMalformed for any
// other verification or parsing failure. Trailing bytes after the
// terminator packet are ignored.
func Decrypt(ciphertext []byte, recipientPrivate [32]byte) ([]byte, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(ciphertext))

	h, headerHash, err := readHeader(dec)
	if err != nil {
		return nil, err
	}

	recipientIndex, payloadKey, err := findRecipient(h, recipientPrivate)
	if err != nil {
		return nil, err
	}
	defer zero(&payloadKey)

	senderPublicBytes, err := secretboxOpen(h.SenderSecretbox, senderKeySecretboxNonce, payloadKey)
	if err != nil {
		return nil, fmt.Errorf("%w: open sender secretbox", err)
	}
	if len(senderPublicBytes) != keySize {
		return nil, fmt.Errorf("%w: sender public key is not %d bytes", ErrMalformed, keySize)
	}
	var senderPublic key
	copy(senderPublic[:], senderPublicBytes)

	var macKey key
	if h.MajorVersion == 1 {
		macKey = deriveMacKeyV1(headerHash, senderPublic, recipientPrivate)
	} else {
		macKey = deriveMacKeyV2(headerHash, uint64(recipientIndex),
			senderPublic, recipientPrivate,
			h.EphemeralPublic, recipientPrivate)
	}
	defer zero(&macKey)

	var out bytes.Buffer
	for chunkIndex := uint64(0); ; chunkIndex++ {
		p, err := decodePacket(dec, h.MajorVersion)
		if err != nil {
			return nil, err
		}

		plain, err := verifyAndOpen(p, headerHash, h.MajorVersion, chunkIndex, recipientIndex, macKey, payloadKey)
		if err != nil {
			return nil, err
		}
		out.Write(plain)

		if h.MajorVersion == 1 {
			if len(plain) == 0 {
				break
			}
		} else if p.Final {
			break
		}
	}

	return out.Bytes(), nil
}

// findRecipient walks the header's recipient list, trying to open each
// payload-key box with recipientPrivate until one succeeds. box_open
// failure here is the expected outcome for every non-matching slot.
func findRecipient(h *header, recipientPrivate key) (int, key, error) {
	shared := boxBeforenm(h.EphemeralPublic, recipientPrivate)

	for i, rp := range h.Recipients {
		n := payloadKeyNonce(h.MajorVersion, uint64(i))
		if payloadKey, ok := boxOpenAfternm(rp.PayloadKeyBox, n, shared); ok {
			var pk key
			copy(pk[:], payloadKey)
			return i, pk, nil
		}
	}

	var zeroKey key
	return -1, zeroKey, ErrNoMatchingRecipient
}
