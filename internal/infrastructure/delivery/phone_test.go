package delivery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"national with space", "98765 43210", "919876543210", false},
		{"national with punctuation", "(987) 654-3210", "919876543210", false},
		{"trunk zero", "09876543210", "919876543210", false},
		{"country code without plus", "919876543210", "919876543210", false},
		{"international", "+91 98765-43210", "919876543210", false},
		{"other country", "+1 (415) 555.0100", "14155550100", false},
		{"empty", "", "", true},
		{"too short", "12345", "", true},
		{"letters", "98765x43210", "", true},
		{"international too short", "+123", "", true},
		{"international too long", "+1234567890123456", "", true},
		{"eleven digits without country code", "12345678901", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, "91")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPhone))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
