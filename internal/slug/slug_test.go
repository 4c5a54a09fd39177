package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Taller de Robòtica", "taller-de-robotica"},
		{"diacritics", "Mollet del Vallès", "mollet-del-valles"},
		{"apostrophe dropped", "L'Ametlla del Vallès", "lametlla-del-valles"},
		{"curly apostrophe", "L’Escola d’Estiu", "lescola-destiu"},
		{"middle dot", "Castellers de la Vila·franca", "castellers-de-la-vila-franca"},
		{"punctuation collapsed", "Casal d'estiu (juliol) - 2026!", "casal-destiu-juliol-2026"},
		{"leading and trailing junk", "  ...Música en família!  ", "musica-en-familia"},
		{"numbers kept", "Campus Esportiu 2026", "campus-esportiu-2026"},
		{"empty", "", ""},
		{"only symbols", "!!! ???", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}

func TestGenerateUnique(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		existing []string
		want     string
	}{
		{"no collision", "Taller de Música", nil, "taller-de-musica"},
		{"first suffix", "Taller de Música", []string{"taller-de-musica"}, "taller-de-musica-1"},
		{"skips taken suffixes", "Taller de Música", []string{"taller-de-musica", "taller-de-musica-1"}, "taller-de-musica-2"},
		{"gap reuse", "Taller de Música", []string{"taller-de-musica", "taller-de-musica-2"}, "taller-de-musica-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateUnique(tt.in, tt.existing))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("taller-de-musica"))
	assert.True(t, IsValid("campus2026"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("-leading"))
	assert.False(t, IsValid("trailing-"))
	assert.False(t, IsValid("doble--guio"))
	assert.False(t, IsValid("Majúscules"))
}
