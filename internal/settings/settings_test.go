package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adaptlyAPI/internal/apperr"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 25, s.FocusDuration)
	assert.Equal(t, 5, s.BreakDuration)
	assert.Equal(t, ThemeSystem, s.ThemePreference)
}

func TestApplyPartialUpdate(t *testing.T) {
	s := Default()
	name := " ada "
	dark := ThemeDark
	req := &UpdateSettingsRequest{Username: &name, ThemePreference: &dark}

	req.Apply(s)
	require.NoError(t, s.Validate())

	assert.Equal(t, "ada", s.Username)
	assert.Equal(t, ThemeDark, s.ThemePreference)
	assert.Equal(t, 25, s.FocusDuration)
}

func TestValidateRejects(t *testing.T) {
	s := Default()
	s.FocusDuration = 0
	assert.ErrorIs(t, s.Validate(), apperr.ErrInvalidArgument)

	s = Default()
	s.ThemePreference = "neon"
	assert.ErrorIs(t, s.Validate(), apperr.ErrInvalidArgument)
}
