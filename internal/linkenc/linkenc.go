// SPDX-License-Identifier: MPL-2.0

// Package linkenc converts ROM bytes to and from the URL fragment token the
// web front-end reads from location.hash.
//
// The token is standard padded base64 (RFC 4648 §4) on a single line. Every
// character of that alphabet is legal in a URL fragment, and it is the exact
// encoding the front-end decodes. An empty ROM yields an empty token, which
// makes the front-end fall back to its built-in program.
package linkenc

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrEncoding is the sentinel error wrapped by EncodingError.
var ErrEncoding = errors.New("link encoding failed")

// EncodingError is returned by EncodeLimited when the input is larger than
// the configured limit.
type EncodingError struct {
	Size  int
	Limit int
}

// Encode returns the fragment token for raw.
func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// EncodeLimited is Encode with an upper bound on the input size. A limit of
// zero or less disables the check.
func EncodeLimited(raw []byte, limit int) (string, error) {
	if limit > 0 && len(raw) > limit {
		return "", &EncodingError{Size: len(raw), Limit: limit}
	}
	return Encode(raw), nil
}

// Decode reverses Encode.
func Decode(token string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode link token: %w", err)
	}
	return raw, nil
}

// Error implements the error interface for EncodingError.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("rom is %d bytes, limit is %d", e.Size, e.Limit)
}

// Unwrap returns ErrEncoding for errors.Is() compatibility.
func (e *EncodingError) Unwrap() error { return ErrEncoding }
