package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeEscaper(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"smith", "smith"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, likeEscaper.Replace(tt.in))
		})
	}
}
