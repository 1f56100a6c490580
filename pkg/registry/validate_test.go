package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigured(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		expected bool
	}{
		{"nil override", Entry{Anchor: "a"}, false},
		{"explicit empty object", Entry{Anchor: "a", Override: &Override{}}, false},
		{"empty identity list", Entry{Anchor: "a", Override: &Override{Identities: []IdentityOverride{}}}, false},
		{"with identity", userOverride("a", "user"), true},
		{"identity without name still counts as content", Entry{
			Anchor:   "a",
			Override: &Override{Identities: []IdentityOverride{{}}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.Configured())
		})
	}
}

func TestValidateOverride(t *testing.T) {
	valid := userOverride("a", "fleet-user")
	valid.Obtain = []string{"fleet-login", "--cluster", "a"}

	t.Run("valid entry passes", func(t *testing.T) {
		require.NoError(t, ValidateOverride(valid))
	})

	t.Run("missing identity override name", func(t *testing.T) {
		entry := valid.Clone()
		entry.Override.Identities[0].Name = "   "
		err := ValidateOverride(entry)
		require.ErrorIs(t, err, ErrMissingIdentityName)
		assert.EqualError(t, err, "missing identity override name")
	})

	t.Run("no identities at all", func(t *testing.T) {
		entry := valid.Clone()
		entry.Override.Identities = nil
		require.ErrorIs(t, ValidateOverride(entry), ErrMissingIdentityName)
	})

	t.Run("nil override", func(t *testing.T) {
		entry := valid.Clone()
		entry.Override = nil
		require.ErrorIs(t, ValidateOverride(entry), ErrMissingIdentityName)
	})

	t.Run("missing obtain command", func(t *testing.T) {
		entry := valid.Clone()
		entry.Obtain = nil
		err := ValidateOverride(entry)
		require.ErrorIs(t, err, ErrMissingObtainCommand)
		assert.EqualError(t, err, "missing obtain command")
	})

	t.Run("blank argv zero is missing too", func(t *testing.T) {
		entry := valid.Clone()
		entry.Obtain = []string{"  "}
		require.ErrorIs(t, ValidateOverride(entry), ErrMissingObtainCommand)
	})

	t.Run("second identity may carry the name", func(t *testing.T) {
		entry := valid.Clone()
		entry.Override.Identities = []IdentityOverride{{Name: ""}, {Name: "named"}}
		require.NoError(t, ValidateOverride(entry))
	})
}
