// Package fingerprint produces stable, non-cryptographic content fingerprints
// used as measurement cache keys and as a cheap document change signal.
package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

// ID is a content fingerprint.
type ID uint64

// Zero is the fingerprint of empty or missing content.
const Zero ID = 0

// String renders the fingerprint as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Hash fingerprints content. Canonically equivalent Unicode strings hash
// identically; the empty string hashes to Zero.
func Hash(content string) ID {
	if content == "" {
		return Zero
	}
	return ID(xxhash.Sum64String(norm.NFC.String(content)))
}

// HashAny fingerprints an arbitrary payload without failing. nil yields Zero.
// Decoded documents carry string content and go through Hash directly; this
// is for callers holding untyped payloads.
func HashAny(v any) ID {
	switch c := v.(type) {
	case nil:
		return Zero
	case string:
		return Hash(c)
	case *string:
		if c == nil {
			return Zero
		}
		return Hash(*c)
	case []byte:
		return Hash(string(c))
	case fmt.Stringer:
		return Hash(c.String())
	default:
		return Hash(fmt.Sprintf("%v", c))
	}
}

// Document fingerprints an ordered list of section contents by hashing the
// concatenation of each section's hash and length.
func Document(contents []string) ID {
	if len(contents) == 0 {
		return Zero
	}
	var sb strings.Builder
	for _, c := range contents {
		sb.WriteString(Hash(c).String())
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(len(c)))
		sb.WriteByte(';')
	}
	return ID(xxhash.Sum64String(sb.String()))
}
