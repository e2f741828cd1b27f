package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlantURI_RoundTrip(t *testing.T) {
	u := NewPlantURI("malus-pumila")
	assert.Equal(t, "greenhouse://plants/malus-pumila", u.String())

	parsed, err := ParsePlantURI(u.String())
	require.NoError(t, err)
	assert.Equal(t, "malus-pumila", parsed.ID())
}

func TestParsePlantURI_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"greenhouse://plants/",
		"file://plants/apple",
		"greenhouse://plants/a/b",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := ParsePlantURI(s)
			assert.ErrorIs(t, err, ErrInvalidPlantURI)
		})
	}
}
