package saltpack

// deriveMacKeyV1 computes recipient i's v1 MAC key: box(zero32) under the
// header hash's low 24 bytes as nonce, with `sk` on our side and `peer` on
// the recipient's. On encrypt, sk is the sender's private key and peer is
// the recipient's public key; on decrypt, X25519's symmetry lets the
// recipient recompute the same box with sk=recipient private, peer=sender
// public.
func deriveMacKeyV1(headerHash [64]byte, peer, sk key) key {
	var zero key
	boxed := boxSeal(zero[:], macKeyNonceV1(headerHash), peer, sk)
	// Skip the leading 16-byte Poly1305 tag: the next 32 bytes are the
	// XSalsa20 keystream XOR'd with zero, i.e. the keystream itself.
	var macKey key
	copy(macKey[:], boxed[16:48])
	return macKey
}

// deriveMacKeyV2 computes recipient i's v2 MAC key by hashing together the
// tails of two boxes: one bound to the sender's long-term key (even nonce)
// and one bound to the message's ephemeral key (odd nonce). Binding both
// forecloses misbinding attacks where a MAC-tag-only adversary could claim
// authorship across different sender/ephemeral pairings.
//
// senderSide/ephemeralSide are (peer, sk) pairs for the two boxes; on
// encrypt these are (recipientPublic, senderPrivate) and (recipientPublic,
// ephemeralPrivate), and on decrypt (senderPublic, recipientPrivate) and
// (ephemeralPublic, recipientPrivate) — X25519 symmetry makes both sides
// land on the same boxes.
func deriveMacKeyV2(headerHash [64]byte, recipientIndex uint64, senderPeer, senderSK, ephemeralPeer, ephemeralSK key) key {
	var zero key
	b1 := boxSeal(zero[:], macKeyNonceV2(headerHash, recipientIndex, false), senderPeer, senderSK)
	b2 := boxSeal(zero[:], macKeyNonceV2(headerHash, recipientIndex, true), ephemeralPeer, ephemeralSK)

	tails := append(append([]byte{}, b1[len(b1)-32:]...), b2[len(b2)-32:]...)
	sum := sha512Sum(tails)

	var macKey key
	copy(macKey[:], sum[:32])
	return macKey
}
