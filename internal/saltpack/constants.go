package saltpack

import "encoding/binary"

// Wire-format constants. These ASCII nonce strings and prefixes are part of
// the saltpack encryption mode's bit-exact wire format and must not change.
var (
	senderKeySecretboxNonce = mustNonce24("saltpack_sender_key_sbox")
	payloadKeyBoxNonceV1    = mustNonce24("saltpack_payload_key_box")
	payloadKeyNoncePrefixV2 = []byte("saltpack_recipsb") // 16 bytes
	payloadNoncePrefix      = []byte("saltpack_ploadsb") // 16 bytes
)

func mustNonce24(s string) nonce {
	if len(s) != nonceSize {
		panic("saltpack: bad nonce constant length")
	}
	var n nonce
	copy(n[:], s)
	return n
}

// payloadKeyNonce returns the nonce used to box the payload key for
// recipient i under the given major version.
func payloadKeyNonce(majorVersion int, recipientIndex uint64) nonce {
	if majorVersion == 1 {
		return payloadKeyBoxNonceV1
	}
	var n nonce
	copy(n[:16], payloadKeyNoncePrefixV2)
	binary.BigEndian.PutUint64(n[16:], recipientIndex)
	return n
}

// payloadNonce returns the nonce used to encrypt chunk n of the payload.
func payloadNonce(chunkIndex uint64) nonce {
	var n nonce
	copy(n[:16], payloadNoncePrefix)
	binary.BigEndian.PutUint64(n[16:], chunkIndex)
	return n
}

// macKeyNonceV1 builds the 24-byte nonce used for a recipient's v1 MAC-key
// box: the low 24 bytes of the header hash, unmodified.
func macKeyNonceV1(headerHash [64]byte) nonce {
	var n nonce
	copy(n[:], headerHash[:nonceSize])
	return n
}

// macKeyNonceV2 builds one of the two 24-byte nonces used for a recipient's
// v2 MAC-key boxes: the low 16 bytes of the header hash with the last bit
// of byte 15 forced to 0 (even) or 1 (odd), followed by the recipient index.
func macKeyNonceV2(headerHash [64]byte, recipientIndex uint64, odd bool) nonce {
	var base [16]byte
	copy(base[:], headerHash[:16])
	if odd {
		base[15] |= 0x01
	} else {
		base[15] &= 0xFE
	}

	var n nonce
	copy(n[:16], base[:])
	binary.BigEndian.PutUint64(n[16:], recipientIndex)
	return n
}
