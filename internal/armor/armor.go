// Package armor provides ASCII armoring for saltbox ciphertext, in the
// spirit of (but not bit-compatible with) saltpack's real armor format. It
// operates purely on bytes produced and consumed by internal/saltpack and
// has no knowledge of the wire format it is wrapping.
package armor

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// alphabet is the base62 digit set this package encodes with.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// lineWidth is the number of armor characters per body line.
const lineWidth = 64

// ErrMalformed is returned by Dearmor when the input is not a well-formed
// armored block: missing or mismatched markers, or invalid base62 content.
var ErrMalformed = errors.New("armor: malformed armored message")

var base = big.NewInt(int64(len(alphabet)))

// Armor encodes data as base62 and wraps it in a BEGIN/END SALTBOX block
// labeled with messageType (e.g. "ENCRYPTED MESSAGE").
func Armor(data []byte, messageType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BEGIN SALTBOX %s.\n", messageType)

	encoded := encodeBase62(data)
	for i := 0; i < len(encoded); i += lineWidth {
		end := i + lineWidth
		if end > len(encoded) {
			end = len(encoded)
		}
		b.WriteString(encoded[i:end])
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "END SALTBOX %s.\n", messageType)
	return b.String()
}

// Dearmor reverses Armor, returning the decoded bytes and the message type
// recorded in the header. It returns ErrMalformed if the header/footer
// markers are missing, mismatched, or the body is not valid base62.
func Dearmor(text string) ([]byte, string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var beginType, endType string
	var bodyStart, bodyEnd = -1, -1

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "BEGIN SALTBOX ") && strings.HasSuffix(trimmed, ".") {
			beginType = strings.TrimSuffix(strings.TrimPrefix(trimmed, "BEGIN SALTBOX "), ".")
			bodyStart = i + 1
			continue
		}
		if strings.HasPrefix(trimmed, "END SALTBOX ") && strings.HasSuffix(trimmed, ".") {
			endType = strings.TrimSuffix(strings.TrimPrefix(trimmed, "END SALTBOX "), ".")
			bodyEnd = i
			break
		}
	}

	if bodyStart == -1 || bodyEnd == -1 {
		return nil, "", fmt.Errorf("%w: missing BEGIN/END markers", ErrMalformed)
	}
	if beginType != endType {
		return nil, "", fmt.Errorf("%w: BEGIN type %q does not match END type %q", ErrMalformed, beginType, endType)
	}

	var body strings.Builder
	for _, line := range lines[bodyStart:bodyEnd] {
		body.WriteString(strings.TrimSpace(line))
	}

	data, err := decodeBase62(body.String())
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, beginType, nil
}

func encodeBase62(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	n := new(big.Int).SetBytes(data)

	var digits []byte
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		digits = append(digits, alphabet[mod.Int64()])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	// Preserve leading zero bytes, which big.Int's byte representation drops.
	zeros := strings.Repeat("0", leadingZeroCount(data))
	return zeros + string(digits)
}

func decodeBase62(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	leadingZeros := 0
	for leadingZeros < len(s) && s[leadingZeros] == '0' {
		leadingZeros++
	}
	if leadingZeros == len(s) {
		return make([]byte, leadingZeros), nil
	}

	n := new(big.Int)
	for i := leadingZeros; i < len(s); i++ {
		idx := strings.IndexByte(alphabet, s[i])
		if idx < 0 {
			return nil, fmt.Errorf("invalid base62 character %q", s[i])
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(idx)))
	}

	decoded := n.Bytes()
	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}

func leadingZeroCount(data []byte) int {
	count := 0
	for _, b := range data {
		if b != 0 {
			break
		}
		count++
	}
	return count
}
