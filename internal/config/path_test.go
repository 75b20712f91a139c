package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FREIGHT_DATA", "/data")

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/ritten/jan.xlsx", filepath.Join(home, "ritten/jan.xlsx")},
		{"$FREIGHT_DATA/jan.xlsx", "/data/jan.xlsx"},
		{"/abs/jan.xlsx", "/abs/jan.xlsx"},
		{"~other/jan.xlsx", "~other/jan.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}
