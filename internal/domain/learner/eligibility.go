package learner

// Capacity and eligibility predicates. All functions here are pure: they
// read ledger state and preferences, mutate nothing, and are called twice
// per request — once at creation and again at accept time to close the
// race window between the two.

import (
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// CanAcceptMentee reports whether the learner currently has mentoring
// capacity: accepting flag set and active mentee count under the cap.
func CanAcceptMentee(p *Profile) bool {
	return p.Preferences.AcceptingNewMentees &&
		p.Ledger.ActiveMenteeCount() < p.Preferences.MaxMentees
}

// CanMentorSubject reports whether the learner lists the subject as strong.
func CanMentorSubject(p *Profile, subjectID shared.SubjectID) bool {
	return p.HasStrongSubject(subjectID)
}

// HasActiveMentorForSubject reports whether the learner already holds an
// active peer-mentor edge for the subject.
func HasActiveMentorForSubject(p *Profile, subjectID shared.SubjectID) bool {
	return p.Ledger.ActiveMentorEdgeForSubject(subjectID) != nil
}

// IsFourthYear reports whether the learner is in the final year.
// Fourth-year learners cannot request peer mentors (no seniors exist above
// them) but may still be requested as mentors and may request official
// mentors. Enforced at the discovery/request boundary, not the data model.
func IsFourthYear(p *Profile) bool {
	return p.Year == shared.MaxYear
}

// CanRequestPeerMentor validates the requester side of createPeerRequest:
// complete profile, past the first term, not fourth-year.
func CanRequestPeerMentor(requester *Profile) error {
	if !requester.ProfileCompleted {
		return shared.ErrProfileIncomplete
	}
	if requester.Term <= shared.MinTerm {
		return shared.ErrFirstTermLearner
	}
	if IsFourthYear(requester) {
		return shared.ErrFourthYearRequester
	}
	return nil
}

// CanBeRequestedAsMentor validates the target side of createPeerRequest
// for a given requester and subject. Returns the first violated rule, in a
// fixed order so failures are deterministic.
func CanBeRequestedAsMentor(target, requester *Profile, subjectID shared.SubjectID) error {
	if target.ID == requester.ID {
		return shared.ErrSelfRequest
	}
	if !target.Branch.Equals(requester.Branch) {
		return shared.ErrBranchMismatch
	}
	if !CanMentorSubject(target, subjectID) {
		return shared.ErrSubjectNotStrong
	}
	if !target.Preferences.AcceptingNewMentees {
		return shared.ErrNotAcceptingMentees
	}
	if target.Ledger.ActiveMenteeCount() >= target.Preferences.MaxMentees {
		return shared.ErrMenteeCapacityReached
	}
	return nil
}

// CheckAcceptCapacity is the accept-time re-check: a request that was valid
// when created must still fail CapacityExceeded if the mentor filled up in
// the meantime.
func CheckAcceptCapacity(responder *Profile) error {
	if !responder.Preferences.AcceptingNewMentees {
		return shared.ErrNotAcceptingMentees
	}
	if responder.Ledger.ActiveMenteeCount() >= responder.Preferences.MaxMentees {
		return shared.ErrMenteeCapacityReached
	}
	return nil
}
