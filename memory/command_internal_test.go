package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForgetTarget(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"forget that I like tea", "I like tea"},
		{"Forget about my old job", "my old job"},
		{"forget my commute route", "commute route"},
		{"please forget that", "please forget that"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, forgetTarget(tt.query), "query=%q", tt.query)
	}
}
