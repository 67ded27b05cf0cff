// Package encoding implements the lowercase Crockford Base32 form used for
// content-addressed ids and trace ids.
package encoding

import (
	"encoding/base32"
	"fmt"
	"strings"
	"unicode"
)

//nolint:gochecknoglobals
var crockfordLC = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

// EncodeCrockfordB32LC encodes input without padding. The trailing
// partial group is filled with zero bits.
func EncodeCrockfordB32LC(input []byte) string {
	return crockfordLC.EncodeToString(input)
}

// DecodeCrockfordB32LC decodes a normalized id as produced by EncodeCrockfordB32LC.
func DecodeCrockfordB32LC(input string) ([]byte, error) {
	out, err := crockfordLC.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("decode crockford base32: %w", err)
	}

	return out, nil
}

// NormalizeCrockfordB32LC maps user input onto the canonical alphabet:
// whitespace and hyphens are dropped, letters are lowercased, o becomes 0 and
// i and l become 1.
func NormalizeCrockfordB32LC(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}

		switch r = unicode.ToLower(r); r {
		case 'o':
			return '0'
		case 'i', 'l':
			return '1'
		default:
			return r
		}
	}, input)
}
