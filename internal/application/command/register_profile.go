package command

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-connect/mentorship-hub/internal/domain/learner"
	"github.com/campus-connect/mentorship-hub/internal/domain/mentor"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates the mentoring-relevant learner record for an account. Identity
// and authentication live outside this system; the account id arrives
// already verified.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand contains the data to register a learner profile.
type RegisterLearnerCommand struct {
	// AccountID is the verified account the profile belongs to.
	AccountID string

	// DisplayName is shown to counterparts.
	DisplayName string

	// Branch is the study branch.
	Branch string

	// Year is the study year (1-4).
	Year int

	// Term is the current term (1-8), consistent with Year.
	Term int
}

// RegisterLearnerResult contains the result of registration.
type RegisterLearnerResult struct {
	// ProfileID is the new profile id.
	ProfileID string

	// ProfileCompleted is the initial completeness flag (false until
	// strong subjects are listed).
	ProfileCompleted bool

	// CreatedAt is when the profile was created.
	CreatedAt time.Time
}

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo learner.Repository
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(learnerRepo learner.Repository) *RegisterLearnerHandler {
	return &RegisterLearnerHandler{learnerRepo: learnerRepo}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	profile, err := learner.NewProfile(learner.NewProfileParams{
		AccountID:   shared.AccountID(cmd.AccountID),
		DisplayName: cmd.DisplayName,
		Branch:      shared.Branch(cmd.Branch),
		Year:        shared.Year(cmd.Year),
		Term:        shared.Term(cmd.Term),
	})
	if err != nil {
		return nil, err
	}

	if err := h.learnerRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("register_learner: save: %w", err)
	}

	return &RegisterLearnerResult{
		ProfileID:        string(profile.ID),
		ProfileCompleted: profile.ProfileCompleted,
		CreatedAt:        profile.CreatedAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER MENTOR COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// RegisterMentorCommand contains the data to register a professional mentor.
type RegisterMentorCommand struct {
	// AccountID is the verified account the profile belongs to.
	AccountID string

	// DisplayName is shown to learners.
	DisplayName string

	// Designation is the mentor's title.
	Designation string

	// SkillTags lists areas of expertise.
	SkillTags []string

	// YearsExperience is professional experience in years.
	YearsExperience int

	// Bio is a free-form introduction.
	Bio string

	// Availability is the weekly availability.
	Availability []SlotInput
}

// RegisterMentorResult contains the result of registration.
type RegisterMentorResult struct {
	// ProfileID is the new mentor profile id.
	ProfileID string

	// CreatedAt is when the profile was created.
	CreatedAt time.Time
}

// RegisterMentorHandler handles the RegisterMentorCommand.
type RegisterMentorHandler struct {
	mentorRepo mentor.Repository
}

// NewRegisterMentorHandler creates a new RegisterMentorHandler.
func NewRegisterMentorHandler(mentorRepo mentor.Repository) *RegisterMentorHandler {
	return &RegisterMentorHandler{mentorRepo: mentorRepo}
}

// Handle executes the register mentor command.
func (h *RegisterMentorHandler) Handle(ctx context.Context, cmd RegisterMentorCommand) (*RegisterMentorResult, error) {
	slots := make([]shared.TimeSlot, 0, len(cmd.Availability))
	for _, s := range cmd.Availability {
		slot, err := shared.NewTimeSlot(time.Weekday(s.Weekday), s.From, s.To)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	profile, err := mentor.NewProfile(mentor.NewProfileParams{
		AccountID:       shared.AccountID(cmd.AccountID),
		DisplayName:     cmd.DisplayName,
		Designation:     cmd.Designation,
		SkillTags:       cmd.SkillTags,
		YearsExperience: cmd.YearsExperience,
		Bio:             cmd.Bio,
		Availability:    slots,
	})
	if err != nil {
		return nil, err
	}

	if err := h.mentorRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("register_mentor: save: %w", err)
	}

	return &RegisterMentorResult{
		ProfileID: string(profile.ID),
		CreatedAt: profile.CreatedAt,
	}, nil
}
