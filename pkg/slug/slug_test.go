package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Electronics", "electronics"},
		{"Home & Garden", "home-garden"},
		{"  Crème Brûlée  ", "creme-brulee"},
		{"Çocuk Ürünleri", "cocuk-urunleri"},
		{"Kadın Giyim", "kadin-giyim"},
		{"Straße", "strasse"},
		{"--Phones--", "phones"},
		{"4K   TVs!", "4k-tvs"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}
