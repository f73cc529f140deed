package saltpack

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encrypt builds a saltpack-encrypted message for one or more recipients.
//
// senderPrivate is the sender's long-term X25519 private key. recipients is
// the ordered list of recipient X25519 public keys; their position in this
// slice fixes their recipient index for the lifetime of the message.
// message is chunked into chunkSize-byte pieces (chunkSize must be > 0).
// opts.MajorVersion selects the wire format (1 or 2, default 2) and
// opts.VisibleRecipients controls whether recipient public keys are
// included in the clear.
func Encrypt(senderPrivate [32]byte, recipients [][32]byte, message []byte, chunkSize int, opts Options) ([]byte, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be > 0", ErrMalformed)
	}
	majorVersion := opts.majorVersion()
	if majorVersion != 1 && majorVersion != 2 {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, majorVersion)
	}

	built, err := buildHeader(senderPrivate, recipients, majorVersion, opts.VisibleRecipients)
	if err != nil {
		return nil, err
	}
	defer zero(&built.ephemeralPrivate)
	defer zero(&built.payloadKey)

	macKeys := make([]key, len(recipients))
	for i, recipientPublic := range recipients {
		if majorVersion == 1 {
			macKeys[i] = deriveMacKeyV1(built.hash, recipientPublic, senderPrivate)
		} else {
			macKeys[i] = deriveMacKeyV2(built.hash, uint64(i),
				recipientPublic, senderPrivate,
				recipientPublic, built.ephemeralPrivate)
		}
	}
	defer func() {
		for i := range macKeys {
			zero(&macKeys[i])
		}
	}()

	var out bytes.Buffer
	if err := writeHeader(&out, built); err != nil {
		return nil, err
	}

	enc := msgpack.NewEncoder(&out)
	var chunks []Chunk
	if majorVersion == 1 {
		chunks = chunksV1(message, chunkSize)
	} else {
		chunks = chunksV2(message, chunkSize)
	}
	for _, c := range chunks {
		if err := encodePacket(enc, built.hash, majorVersion, built.payloadKey, macKeys, c); err != nil {
			return nil, err
		}
	}

	return out.Bytes(), nil
}
