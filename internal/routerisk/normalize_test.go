package routerisk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStreetName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"uppercases", "atlantic avenue", "ATLANTIC AVENUE"},
		{"trims and collapses whitespace", "  ATLANTIC   AVENUE ", "ATLANTIC AVENUE"},
		{"first to 1st", "First Avenue", "1ST AVENUE"},
		{"second to 2nd", "SECOND STREET", "2ND STREET"},
		{"third to 3rd", "third avenue", "3RD AVENUE"},
		{"numeric ordinals untouched", "42ND STREET", "42ND STREET"},
		{"word boundary respected", "FIRSTborn LANE", "FIRSTBORN LANE"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStreetName(tt.input))
		})
	}
}
