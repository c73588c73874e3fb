// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// AccountID refers to a user account in the identity directory. Each account
// maps to at most one learner profile and optionally one mentor profile.
type AccountID string

// IsValid checks if the account ID is a valid UUID.
func (a AccountID) IsValid() bool {
	return uuidRegex.MatchString(string(a))
}

// String returns the string representation.
func (a AccountID) String() string {
	return string(a)
}

// IsEmpty checks if the ID is empty.
func (a AccountID) IsEmpty() bool {
	return a == ""
}

// NewAccountID creates a new AccountID with validation.
func NewAccountID(id string) (AccountID, error) {
	aid := AccountID(strings.ToLower(strings.TrimSpace(id)))
	if !aid.IsValid() {
		return "", NewDomainError("shared", "NewAccountID", ErrInvalidID, "invalid account ID format")
	}
	return aid, nil
}

// ProfileID identifies a learner or mentor profile (UUID format).
type ProfileID string

// IsValid checks if the profile ID is a valid UUID.
func (p ProfileID) IsValid() bool {
	return uuidRegex.MatchString(string(p))
}

// String returns the string representation.
func (p ProfileID) String() string {
	return string(p)
}

// IsEmpty checks if the ID is empty.
func (p ProfileID) IsEmpty() bool {
	return p == ""
}

// NewProfileID creates a new ProfileID with validation.
func NewProfileID(id string) (ProfileID, error) {
	pid := ProfileID(strings.ToLower(strings.TrimSpace(id)))
	if !pid.IsValid() {
		return "", NewDomainError("shared", "NewProfileID", ErrInvalidID, "invalid profile ID format")
	}
	return pid, nil
}

// SubjectID identifies a subject in the external catalog.
// Format: branch-term-name (e.g., "computer-1-programming-fundamentals").
type SubjectID string

var subjectIDRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// IsValid checks if the subject ID format is valid.
func (s SubjectID) IsValid() bool {
	str := string(s)
	return len(str) >= 3 && len(str) <= 80 && subjectIDRegex.MatchString(str)
}

// String returns the string representation.
func (s SubjectID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s SubjectID) IsEmpty() bool {
	return s == ""
}

// NewSubjectID creates a new SubjectID with validation.
func NewSubjectID(id string) (SubjectID, error) {
	sid := SubjectID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewSubjectID", ErrInvalidID, "invalid subject ID format")
	}
	return sid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Branch Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Branch represents an academic branch. Peer mentoring only happens within
// one branch: the eligibility engine rejects cross-branch requests.
type Branch string

var branchRegex = regexp.MustCompile(`^[a-z][a-z ]{1,39}$`)

// IsValid checks if the branch value is well-formed.
func (b Branch) IsValid() bool {
	return branchRegex.MatchString(string(b))
}

// String returns the string representation.
func (b Branch) String() string {
	return string(b)
}

// Equals compares two branches case-insensitively.
func (b Branch) Equals(other Branch) bool {
	return strings.EqualFold(string(b), string(other))
}

// NewBranch creates a new Branch with validation.
func NewBranch(value string) (Branch, error) {
	b := Branch(strings.ToLower(strings.TrimSpace(value)))
	if !b.IsValid() {
		return "", NewDomainError("shared", "NewBranch", ErrInvalidFormat, "invalid branch value")
	}
	return b, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Year / Term Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Year represents an academic year (1-4).
type Year int

const (
	MinYear Year = 1
	MaxYear Year = 4
)

// IsValid checks if the year is within valid range.
func (y Year) IsValid() bool {
	return y >= MinYear && y <= MaxYear
}

// Int returns the underlying int value.
func (y Year) Int() int {
	return int(y)
}

// Terms returns the two terms belonging to this year.
// Fixed mapping: year N covers terms 2N-1 and 2N.
func (y Year) Terms() (Term, Term) {
	return Term(2*int(y) - 1), Term(2 * int(y))
}

// ContainsTerm checks year/term consistency against the fixed mapping.
func (y Year) ContainsTerm(t Term) bool {
	lo, hi := y.Terms()
	return t >= lo && t <= hi
}

// NewYear creates a new Year with validation.
func NewYear(value int) (Year, error) {
	y := Year(value)
	if !y.IsValid() {
		return 0, NewDomainError("shared", "NewYear", ErrValueOutOfRange, "year must be between 1 and 4")
	}
	return y, nil
}

// Term represents an academic term (1-8).
type Term int

const (
	MinTerm Term = 1
	MaxTerm Term = 8
)

// IsValid checks if the term is within valid range.
func (t Term) IsValid() bool {
	return t >= MinTerm && t <= MaxTerm
}

// Int returns the underlying int value.
func (t Term) Int() int {
	return int(t)
}

// Year returns the year this term belongs to per the fixed mapping.
func (t Term) Year() Year {
	return Year((int(t) + 1) / 2)
}

// NewTerm creates a new Term with validation.
func NewTerm(value int) (Term, error) {
	t := Term(value)
	if !t.IsValid() {
		return 0, NewDomainError("shared", "NewTerm", ErrValueOutOfRange, "term must be between 1 and 8")
	}
	return t, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score / Confidence Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a rating score (1-5).
type Score int

const (
	MinScore Score = 1
	MaxScore Score = 5
)

// IsValid checks if the score is within valid range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// NewScore creates a new Score with validation.
func NewScore(value int) (Score, error) {
	if value < int(MinScore) || value > int(MaxScore) {
		return 0, ErrInvalidScore
	}
	return Score(value), nil
}

// AverageScore calculates the average from a slice of scores.
func AverageScore(scores []Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += int(s)
	}
	return float64(sum) / float64(len(scores))
}

// Confidence represents a learner's self-assessed teaching confidence
// for a strong subject (1-5).
type Confidence int

const (
	MinConfidence Confidence = 1
	MaxConfidence Confidence = 5
)

// IsValid checks if the confidence is within valid range.
func (c Confidence) IsValid() bool {
	return c >= MinConfidence && c <= MaxConfidence
}

// Int returns the underlying int value.
func (c Confidence) Int() int {
	return int(c)
}

// NewConfidence creates a new Confidence with validation.
func NewConfidence(value int) (Confidence, error) {
	c := Confidence(value)
	if !c.IsValid() {
		return 0, NewDomainError("shared", "NewConfidence", ErrValueOutOfRange, "confidence must be between 1 and 5")
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Teaching Mode / Time Slot Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// TeachingMode is how a mentoring learner prefers to meet mentees.
type TeachingMode string

const (
	ModeInPerson TeachingMode = "in_person"
	ModeOnline   TeachingMode = "online"
	ModeHybrid   TeachingMode = "hybrid"
)

// IsValid checks if the teaching mode is a known value.
func (m TeachingMode) IsValid() bool {
	switch m {
	case ModeInPerson, ModeOnline, ModeHybrid:
		return true
	}
	return false
}

// String returns the string representation.
func (m TeachingMode) String() string {
	return string(m)
}

// NewTeachingMode creates a new TeachingMode with validation.
func NewTeachingMode(value string) (TeachingMode, error) {
	m := TeachingMode(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", NewDomainError("shared", "NewTeachingMode", ErrInvalidInput, "teaching mode must be in_person, online or hybrid")
	}
	return m, nil
}

// TimeSlot is a weekly availability window, e.g. {Mon, "18:00", "20:00"}.
type TimeSlot struct {
	Weekday time.Weekday `json:"weekday"`
	From    string       `json:"from"` // "HH:MM"
	To      string       `json:"to"`   // "HH:MM"
}

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValid checks weekday range and "HH:MM" ordering.
func (s TimeSlot) IsValid() bool {
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return false
	}
	if !clockRegex.MatchString(s.From) || !clockRegex.MatchString(s.To) {
		return false
	}
	return s.From < s.To
}

// String returns a human-readable representation.
func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Weekday.String()[:3], s.From, s.To)
}

// NewTimeSlot creates a new TimeSlot with validation.
func NewTimeSlot(weekday time.Weekday, from, to string) (TimeSlot, error) {
	slot := TimeSlot{Weekday: weekday, From: from, To: to}
	if !slot.IsValid() {
		return TimeSlot{}, NewDomainError("shared", "NewTimeSlot", ErrValidation, "invalid time slot")
	}
	return slot, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Message Value Object
// ═══════════════════════════════════════════════════════════════════════════

// MaxMessageLength caps request messages and rating feedback.
const MaxMessageLength = 500

// ValidateMessage checks a user-provided free-text field.
func ValidateMessage(text string) error {
	if len([]rune(text)) > MaxMessageLength {
		return NewDomainError("shared", "ValidateMessage", ErrValueOutOfRange, "message exceeds 500 characters")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
