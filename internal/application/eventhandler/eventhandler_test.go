package eventhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/internal/infrastructure/messaging"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// profileStore is a GetByID-only learner repository stub: the notice
// handler never writes.
type profileStore struct {
	learner.Repository
	byID map[shared.ProfileID]*learner.Profile
}

func (s *profileStore) GetByID(_ context.Context, id shared.ProfileID) (*learner.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return p, nil
}

// mentorStore is the professional-mentor counterpart of profileStore.
type mentorStore struct {
	mentor.Repository
	byID map[shared.ProfileID]*mentor.Profile
}

func (s *mentorStore) GetByID(_ context.Context, id shared.ProfileID) (*mentor.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrMentorNotFound
	}
	return p, nil
}

// recordingSender captures sent notices and can be told to fail.
type recordingSender struct {
	sent []shared.Notice
	fail error
}

func (s *recordingSender) Send(_ context.Context, n shared.Notice) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, n)
	return nil
}

// recordingCache captures invalidated profile ids.
type recordingCache struct {
	invalidated []shared.ProfileID
}

func (c *recordingCache) Invalidate(_ context.Context, id shared.ProfileID) error {
	c.invalidated = append(c.invalidated, id)
	return nil
}

func newProfile(t *testing.T, name string) *learner.Profile {
	t.Helper()
	p, err := learner.NewProfile(learner.NewProfileParams{
		AccountID:   shared.AccountID(uuid.NewString()),
		DisplayName: name,
		Branch:      "computer",
		Year:        shared.Year(2),
		Term:        shared.Term(3),
	})
	require.NoError(t, err)
	return p
}

func TestOnNoticeHandler(t *testing.T) {
	t.Run("delivers the notice carried by the event", func(t *testing.T) {
		sender := &recordingSender{}
		h := NewOnNoticeHandler(&profileStore{}, &mentorStore{}, sender, logger.New(logger.Options{Level: logger.LevelError}))

		notice := shared.Notice{
			RecipientAccountID: "a-account",
			ActorName:          "Dias",
			Message:            "Dias просит вас стать ментором",
		}
		event := shared.NewPeerRequestReceivedEvent("req-id", "target-id", "subj", "row-id", notice)

		require.NoError(t, h.Handle(event))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "a-account", sender.sent[0].RecipientAccountID)
	})

	t.Run("resolves an empty recipient from the counterpart profile", func(t *testing.T) {
		counterpart := newProfile(t, "Aruzhan")
		store := &profileStore{byID: map[shared.ProfileID]*learner.Profile{counterpart.ID: counterpart}}
		sender := &recordingSender{}
		h := NewOnNoticeHandler(store, &mentorStore{}, sender, logger.New(logger.Options{Level: logger.LevelError}))

		event := shared.NewConnectionEndedEvent("actor-id", string(counterpart.ID), "subj", false,
			shared.Notice{ActorName: "Dias", Message: "Dias завершил(а) менторство"})

		require.NoError(t, h.Handle(event))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, string(counterpart.AccountID), sender.sent[0].RecipientAccountID)
	})

	t.Run("resolves a professional mentor counterpart", func(t *testing.T) {
		pro, err := mentor.NewProfile(mentor.NewProfileParams{
			AccountID:       shared.AccountID(uuid.NewString()),
			DisplayName:     "Bauyrzhan Seitov",
			Designation:     "Senior Engineer",
			SkillTags:       []string{"go"},
			YearsExperience: 7,
		})
		require.NoError(t, err)

		mentors := &mentorStore{byID: map[shared.ProfileID]*mentor.Profile{pro.ID: pro}}
		sender := &recordingSender{}
		h := NewOnNoticeHandler(&profileStore{}, mentors, sender, logger.New(logger.Options{Level: logger.LevelError}))

		// A learner ended an official edge: the counterpart lives in the
		// mentor aggregate, not the learner one.
		event := shared.NewConnectionEndedEvent("actor-id", string(pro.ID), "", false,
			shared.Notice{ActorName: "Dias", Message: "Dias завершил(а) менторство"})

		require.NoError(t, h.Handle(event))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, string(pro.AccountID), sender.sent[0].RecipientAccountID)
	})

	t.Run("delivery failure never propagates", func(t *testing.T) {
		sender := &recordingSender{fail: errors.New("emitter down")}
		h := NewOnNoticeHandler(&profileStore{}, &mentorStore{}, sender, logger.New(logger.Options{Level: logger.LevelError}))

		event := shared.NewPeerRequestReceivedEvent("req-id", "target-id", "subj", "row-id",
			shared.Notice{RecipientAccountID: "a", Message: "msg"})
		assert.NoError(t, h.Handle(event))
	})

	t.Run("connection established fans out to both parties", func(t *testing.T) {
		sender := &recordingSender{}
		h := NewOnNoticeHandler(&profileStore{}, &mentorStore{}, sender, logger.New(logger.Options{Level: logger.LevelError}))

		event := shared.NewConnectionEstablishedEvent("mentor-id", "mentee-id", "subj", false,
			[]shared.Notice{
				{RecipientAccountID: "mentor-acc", Message: "у вас новый менти"},
				{RecipientAccountID: "mentee-acc", Message: "у вас новый ментор"},
			})
		require.NoError(t, h.Handle(event))
		assert.Len(t, sender.sent, 2)
	})
}

func TestOnProfileUpdatedHandler(t *testing.T) {
	t.Run("invalidates both sides of a connection change", func(t *testing.T) {
		cache := &recordingCache{}
		h := NewOnProfileUpdatedHandler(cache, logger.New(logger.Options{Level: logger.LevelError}))

		event := shared.NewConnectionEstablishedEvent("mentor-id", "mentee-id", "subj", false, nil)
		require.NoError(t, h.Handle(event))
		assert.ElementsMatch(t,
			[]shared.ProfileID{"mentor-id", "mentee-id"}, cache.invalidated)
	})

	t.Run("subscribes through the bus", func(t *testing.T) {
		bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
			AsyncMode: false,
			Logger:    logger.New(logger.Options{Level: logger.LevelError}),
		})
		defer func() { _ = bus.Close() }()

		cache := &recordingCache{}
		h := NewOnProfileUpdatedHandler(cache, logger.New(logger.Options{Level: logger.LevelError}))
		require.NoError(t, h.Register(bus))

		require.NoError(t, bus.Publish(shared.NewProfileUpdatedEvent("profile-id", "account-id")))
		// Synchronous mode: the handler ran inline.
		assert.Equal(t, []shared.ProfileID{"profile-id"}, cache.invalidated)
	})
}
