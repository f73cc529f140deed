package saltpack

import "errors"

// Sentinel errors identifying the distinct failure kinds a saltpack
// encrypt/decrypt call can surface. Callers should use errors.Is against
// these rather than matching on message text.
var (
	// ErrBadFormat is returned when the header's format name is not "saltpack".
	ErrBadFormat = errors.New("saltpack: bad format name")

	// ErrBadVersion is returned when the header's major version is not 1 or 2.
	ErrBadVersion = errors.New("saltpack: unsupported major version")

	// ErrBadMode is returned when the header's mode is not 0 (encryption).
	ErrBadMode = errors.New("saltpack: unsupported mode")

	// ErrNoMatchingRecipient is returned when no recipient slot in the
	// header can be opened with the supplied private key.
	ErrNoMatchingRecipient = errors.New("saltpack: no matching recipient")

	// ErrHMACFailure is returned when a packet's authenticator does not
	// match the recomputed value for the matched recipient.
	ErrHMACFailure = errors.New("saltpack: hmac verification failed")

	// ErrCryptoFailure is returned when a secretbox or box fails to open
	// outside of recipient discovery, where failure is expected.
	ErrCryptoFailure = errors.New("saltpack: decryption failed")

	// ErrMalformed is returned for MessagePack parse failures, short or
	// long packet shapes, wrong-typed elements, or a truncated stream.
	ErrMalformed = errors.New("saltpack: malformed message")
)
