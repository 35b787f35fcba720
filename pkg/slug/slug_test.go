package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Summer Bundle 2026", "summer-bundle-2026"},
		{"punctuation", "Buy 2 / Get 1!", "buy-2-get-1"},
		{"leading trailing spaces", "  Mega Deal  ", "mega-deal"},
		{"consecutive separators", "a -- b", "a-b"},
		{"already slugged", "winter-sale", "winter-sale"},
		{"non-latin dropped", "عرض الصيف", ""},
		{"mixed script", "Bundle عرض 3", "bundle-3"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.input))
		})
	}
}
