// SPDX-License-Identifier: MPL-2.0

package linkenc

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

// fragmentSafe holds every character allowed in the token: the standard
// base64 alphabet plus padding.
const fragmentSafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

func TestEncode_Known(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []byte
		want string
	}{
		{nil, ""},
		{[]byte{}, ""},
		{[]byte{0x00}, "AA=="},
		{[]byte{0x00, 0xe0}, "AOA="},
		{[]byte{0x12, 0x34, 0x56}, "EjRW"},
		{[]byte{0xfb, 0xff}, "+/8="},
	}

	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("Encode(%x) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoundTrip_AllLengths(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(8, 42))
	// CHIP-8 programs fit in 3584 bytes; go a little past that.
	for n := 0; n <= 4096; n += 7 {
		raw := make([]byte, n)
		for i := range raw {
			raw[i] = byte(rng.UintN(256))
		}

		token := Encode(raw)
		if strings.ContainsAny(token, "\r\n") {
			t.Fatalf("token for %d bytes contains a line break", n)
		}
		if strings.Trim(token, fragmentSafe) != "" {
			t.Fatalf("token for %d bytes has characters outside the fragment alphabet", n)
		}

		got, err := Decode(token)
		if err != nil {
			t.Fatalf("Decode() of %d bytes: %v", n, err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("round trip of %d bytes mismatched", n)
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()

	got, err := Decode("")
	if err != nil {
		t.Fatalf("Decode(\"\") error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Decode(\"\") = %x, want empty", got)
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Decode("not base64!"); err == nil {
		t.Error("Decode() of invalid token returned nil error")
	}
}

func TestEncodeLimited(t *testing.T) {
	t.Parallel()

	raw := []byte{1, 2, 3, 4}

	if token, err := EncodeLimited(raw, 0); err != nil || token != Encode(raw) {
		t.Errorf("EncodeLimited(raw, 0) = %q, %v", token, err)
	}
	if token, err := EncodeLimited(raw, 4); err != nil || token != Encode(raw) {
		t.Errorf("EncodeLimited(raw, 4) = %q, %v", token, err)
	}

	_, err := EncodeLimited(raw, 3)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("EncodeLimited(raw, 3) error = %v, want ErrEncoding", err)
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Size != 4 || encErr.Limit != 3 {
		t.Errorf("EncodingError = %+v, want Size 4 Limit 3", encErr)
	}
}
