package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Serie Colección", "serie-coleccion"},
		{"  Tipo   Libro ", "tipo-libro"},
		{"Ñandú & Cía.", "nandu-cia"},
		{"already-a-slug", "already-a-slug"},
		{"--x--", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.in))
		})
	}
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "serie o coleccion", FoldName("  Serie o   COLECCIÓN "))
	assert.Equal(t, "tipo de libro", FoldName("Tipo de Libro"))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 25, ParseIntDefault("", 25))
	assert.Equal(t, 25, ParseIntDefault("abc", 25))
	assert.Equal(t, 3, ParseIntDefault(" 3 ", 25))
}
