package mentor

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

func validParams() NewProfileParams {
	return NewProfileParams{
		AccountID:       shared.AccountID(uuid.NewString()),
		DisplayName:     "Saltanat Omarova",
		Designation:     "Senior Backend Engineer",
		SkillTags:       []string{"Go", "PostgreSQL", "system-design"},
		YearsExperience: 8,
		Bio:             "Backend engineer, mentoring since 2019.",
	}
}

func TestNewProfile(t *testing.T) {
	t.Run("valid profile is active with normalized tags", func(t *testing.T) {
		p, err := NewProfile(validParams())
		require.NoError(t, err)
		assert.True(t, p.Active)
		assert.Equal(t, []string{"go", "postgresql", "system-design"}, p.SkillTags)
		assert.NotEmpty(t, p.ID)
	})

	t.Run("empty display name", func(t *testing.T) {
		params := validParams()
		params.DisplayName = ""
		_, err := NewProfile(params)
		assert.ErrorIs(t, err, shared.ErrEmptyValue)
	})

	t.Run("negative experience", func(t *testing.T) {
		params := validParams()
		params.YearsExperience = -1
		_, err := NewProfile(params)
		assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	})

	t.Run("duplicate skill tags", func(t *testing.T) {
		params := validParams()
		params.SkillTags = []string{"go", "Go"}
		_, err := NewProfile(params)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("invalid availability slot", func(t *testing.T) {
		params := validParams()
		params.Availability = []shared.TimeSlot{{Weekday: 2, From: "19:00", To: "18:00"}}
		_, err := NewProfile(params)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestProfileOwnership(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)

	assert.True(t, p.IsOwnedBy(p.AccountID))
	assert.False(t, p.IsOwnedBy(shared.AccountID(uuid.NewString())))
}

func TestProfileSkillTags(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)

	assert.True(t, p.HasSkillTag("GO"))
	assert.False(t, p.HasSkillTag("rust"))

	require.NoError(t, p.ReplaceSkillTags([]string{"Kubernetes", "  grpc  "}))
	assert.Equal(t, []string{"kubernetes", "grpc"}, p.SkillTags)
}

func TestProfileLifecycle(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)

	p.Deactivate()
	assert.False(t, p.Active)
	p.Reactivate()
	assert.True(t, p.Active)
}

func TestUpdateDetails(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)

	require.NoError(t, p.UpdateDetails("Staff Engineer", "New bio", 9))
	assert.Equal(t, "Staff Engineer", p.Designation)
	assert.Equal(t, 9, p.YearsExperience)

	err = p.UpdateDetails("Staff Engineer", "New bio", MaxYearsExperience+1)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestClone(t *testing.T) {
	p, err := NewProfile(validParams())
	require.NoError(t, err)

	clone := p.Clone()
	clone.SkillTags[0] = "changed"
	assert.Equal(t, "go", p.SkillTags[0])
}
