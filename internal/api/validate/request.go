package validate

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Request is the parsed view of an inbound request that the checks run
// against. Handlers build one from the transport context so every check
// stays independently testable.
type Request struct {
	Method        string
	Path          string
	Body          []byte
	ContentType   string
	Date          string
	ContentLength string
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

var errBadBase64 = errors.New("not decodable base64")

// DecodeBase64 decodes the way the real service does: any character
// outside the base64 alphabet is rejected, but bad padding is repaired by
// trimming or padding to the nearest valid length.
func DecodeBase64(encoded string) ([]byte, error) {
	for _, r := range encoded {
		if r > 127 || !strings.ContainsRune(base64Alphabet, r) {
			return nil, errBadBase64
		}
	}

	switch len(encoded) % 4 {
	case 1:
		encoded = encoded[:len(encoded)-1]
	case 2:
		encoded += "=="
	case 3:
		encoded += "="
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errBadBase64
	}
	return decoded, nil
}
