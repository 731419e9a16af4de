package cryptoutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHexString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"empty", "", true},
		{"lowercase hex", "deadbeef", true},
		{"uppercase hex", "DEADBEEF", true},
		{"mixed case", "DeAdBeEf", true},
		{"digits only", "0123456789", true},
		{"64 char key", "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90", true},
		{"contains g", "0123abcg", false},
		{"space", "ab cd", false},
		{"special char", "abcd!!", false},
		{"newline", "abcd\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHexString(tt.in))
		})
	}
}

func TestDecodeKey(t *testing.T) {
	raw := bytes.Repeat([]byte{'k'}, 32)

	t.Run("raw bytes", func(t *testing.T) {
		got, err := DecodeKey(string(raw), 32)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("hex", func(t *testing.T) {
		got, err := DecodeKey("a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90", 32)
		require.NoError(t, err)
		assert.Len(t, got, 32)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := DecodeKey("short", 32)
		assert.Error(t, err)
	})

	t.Run("hex length but not hex", func(t *testing.T) {
		_, err := DecodeKey("zz"+"a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8", 32)
		assert.Error(t, err)
	})
}
