package saltpack

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const formatName = "saltpack"

// encryptionMode is the only mode this package implements; saltpack also
// defines signing and signcryption modes, which are out of scope here.
const encryptionMode = 0

// minorVersions pins the minor version this implementation emits for each
// supported major version. Decoders ignore the minor version entirely.
var minorVersions = map[int]int{1: 0, 2: 0}

// recipientPair is one entry of the header's recipient list: the
// recipient's public key (nil when visibleRecipients is false) and the box
// holding the payload key, encrypted for that recipient.
type recipientPair struct {
	Public        *key
	PayloadKeyBox []byte
}

// header is the decoded form of the six leading header-array elements.
// Any trailing elements in the wire array, or in a recipient pair, are
// read and discarded — the format is forward-compatible by appending.
type header struct {
	MajorVersion    int
	MinorVersion    int
	EphemeralPublic key
	SenderSecretbox []byte
	Recipients      []recipientPair
}

// builtHeader bundles the wire bytes of a freshly built header with the
// secrets needed to finish encrypting the message.
type builtHeader struct {
	bytes            []byte
	hash             [64]byte
	senderPublic     key
	ephemeralPrivate key
	payloadKey       key
}

// buildHeader constructs the header for a new message: it derives the
// sender's public key, generates a fresh ephemeral keypair and payload key,
// seals the payload key for each recipient, and packs the six-element
// header array.
func buildHeader(senderPrivate key, recipients []key, majorVersion int, visibleRecipients bool) (*builtHeader, error) {
	senderPublic := scalarBaseMult(senderPrivate)

	ephemeralPrivate, err := randomKey()
	if err != nil {
		return nil, err
	}
	ephemeralPublic := scalarBaseMult(ephemeralPrivate)

	payloadKey, err := randomKey()
	if err != nil {
		return nil, err
	}

	senderSecretbox := secretboxSeal(senderPublic[:], senderKeySecretboxNonce, payloadKey)

	pairs := make([]interface{}, len(recipients))
	for i, recipientPublic := range recipients {
		box := boxSeal(payloadKey[:], payloadKeyNonce(majorVersion, uint64(i)), recipientPublic, ephemeralPrivate)
		if visibleRecipients {
			rp := recipientPublic
			pairs[i] = []interface{}{rp[:], box}
		} else {
			pairs[i] = []interface{}{nil, box}
		}
	}

	arr := []interface{}{
		formatName,
		[]interface{}{majorVersion, minorVersions[majorVersion]},
		encryptionMode,
		ephemeralPublic[:],
		senderSecretbox,
		pairs,
	}

	headerBytes, err := msgpack.Marshal(arr)
	if err != nil {
		return nil, fmt.Errorf("%w: encode header: %v", ErrMalformed, err)
	}

	return &builtHeader{
		bytes:            headerBytes,
		hash:             sha512Sum(headerBytes),
		senderPublic:     senderPublic,
		ephemeralPrivate: ephemeralPrivate,
		payloadKey:       payloadKey,
	}, nil
}

// writeHeader writes the on-wire preamble: the header bytes double-encoded
// as a MessagePack bin object, so a decoder can read it as a length-prefixed
// blob before understanding its contents.
func writeHeader(w io.Writer, h *builtHeader) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeBytes(h.bytes); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrMalformed, err)
	}
	return nil
}

// readHeader reads and parses the header preamble from dec, returning the
// decoded header along with the SHA-512 hash of its raw bytes.
func readHeader(dec *msgpack.Decoder) (*header, [64]byte, error) {
	var hash [64]byte

	headerBytes, err := dec.DecodeBytes()
	if err != nil {
		return nil, hash, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}
	hash = sha512Sum(headerBytes)

	var fields []interface{}
	if err := msgpack.Unmarshal(headerBytes, &fields); err != nil {
		return nil, hash, fmt.Errorf("%w: decode header array: %v", ErrMalformed, err)
	}

	h, err := parseHeaderFields(fields)
	if err != nil {
		return nil, hash, err
	}
	return h, hash, nil
}

func parseHeaderFields(fields []interface{}) (*header, error) {
	if len(fields) < 6 {
		return nil, fmt.Errorf("%w: header array too short: %d elements", ErrMalformed, len(fields))
	}

	name, ok := asString(fields[0])
	if !ok {
		return nil, fmt.Errorf("%w: header format name is not a string", ErrMalformed)
	}
	if name != formatName {
		return nil, fmt.Errorf("%w: %q", ErrBadFormat, name)
	}

	versionPair, ok := asSlice(fields[1])
	if !ok || len(versionPair) < 2 {
		return nil, fmt.Errorf("%w: header version is not a 2-element array", ErrMalformed)
	}
	major, ok1 := asInt(versionPair[0])
	minor, ok2 := asInt(versionPair[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: header version elements are not integers", ErrMalformed)
	}
	if major != 1 && major != 2 {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, major)
	}

	mode, ok := asInt(fields[2])
	if !ok {
		return nil, fmt.Errorf("%w: header mode is not an integer", ErrMalformed)
	}
	if mode != encryptionMode {
		return nil, fmt.Errorf("%w: %d", ErrBadMode, mode)
	}

	ephemeralPublicBytes, ok := asBytes(fields[3])
	if !ok || len(ephemeralPublicBytes) != keySize {
		return nil, fmt.Errorf("%w: header ephemeral public key is not %d bytes", ErrMalformed, keySize)
	}
	var ephemeralPublic key
	copy(ephemeralPublic[:], ephemeralPublicBytes)

	senderSecretbox, ok := asBytes(fields[4])
	if !ok {
		return nil, fmt.Errorf("%w: header sender secretbox is not bytes", ErrMalformed)
	}

	rawPairs, ok := asSlice(fields[5])
	if !ok {
		return nil, fmt.Errorf("%w: header recipient list is not an array", ErrMalformed)
	}

	recipients := make([]recipientPair, len(rawPairs))
	for i, rp := range rawPairs {
		pairFields, ok := asSlice(rp)
		if !ok || len(pairFields) < 2 {
			return nil, fmt.Errorf("%w: recipient pair %d is malformed", ErrMalformed, i)
		}
		var pub *key
		if pubBytes, ok := asBytes(pairFields[0]); ok {
			if len(pubBytes) != keySize {
				return nil, fmt.Errorf("%w: recipient %d public key is not %d bytes", ErrMalformed, i, keySize)
			}
			var k key
			copy(k[:], pubBytes)
			pub = &k
		}
		box, ok := asBytes(pairFields[1])
		if !ok {
			return nil, fmt.Errorf("%w: recipient %d payload key box is not bytes", ErrMalformed, i)
		}
		recipients[i] = recipientPair{Public: pub, PayloadKeyBox: box}
	}

	return &header{
		MajorVersion:    major,
		MinorVersion:    minor,
		EphemeralPublic: ephemeralPublic,
		SenderSecretbox: senderSecretbox,
		Recipients:      recipients,
	}, nil
}
