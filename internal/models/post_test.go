package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRating(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		valid  bool
	}{
		{"minimum", 1, true},
		{"maximum", 5, true},
		{"half step", 3.5, true},
		{"whole step", 4, true},
		{"below minimum", 0.5, false},
		{"zero", 0, false},
		{"above maximum", 5.5, false},
		{"quarter step", 3.25, false},
		{"arbitrary decimal", 4.2, false},
		{"negative", -3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidRating(tt.rating))
		})
	}
}
