// Package learner содержит агрегат профиля ученика: предметы, которые он
// готов преподавать, менторские предпочтения и денормализованный реестр
// связей с очередями заявок.
package learner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STRONG SUBJECT
// ══════════════════════════════════════════════════════════════════════════════

// StrongSubject — предмет из прошлого семестра, который ученик готов
// преподавать. Предмет не может встречаться в списке дважды.
type StrongSubject struct {
	SubjectID  shared.SubjectID  `json:"subject_id"`
	OriginTerm shared.Term       `json:"origin_term"`
	Confidence shared.Confidence `json:"confidence"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

// Пределы ёмкости ментора.
const (
	MinMentees = 1
	MaxMentees = 20
)

// MentorPreferences — настройки ученика как peer-ментора.
type MentorPreferences struct {
	AcceptingNewMentees bool                `json:"accepting_new_mentees"`
	MaxMentees          int                 `json:"max_mentees"`
	Mode                shared.TeachingMode `json:"mode"`
	TimeSlots           []shared.TimeSlot   `json:"time_slots,omitempty"`
}

// Validate проверяет ёмкость, режим и слоты времени.
func (p MentorPreferences) Validate() error {
	if p.MaxMentees < MinMentees || p.MaxMentees > MaxMentees {
		return shared.NewDomainError("learner", "ValidatePreferences", shared.ErrValueOutOfRange,
			fmt.Sprintf("max mentees must be between %d and %d", MinMentees, MaxMentees))
	}
	if !p.Mode.IsValid() {
		return shared.NewDomainError("learner", "ValidatePreferences", shared.ErrInvalidInput, "unknown teaching mode")
	}
	for _, slot := range p.TimeSlots {
		if !slot.IsValid() {
			return shared.NewDomainError("learner", "ValidatePreferences", shared.ErrValidation,
				fmt.Sprintf("invalid time slot %q", slot.String()))
		}
	}
	return nil
}

// DefaultPreferences — настройки нового профиля: менторство выключено.
func DefaultPreferences() MentorPreferences {
	return MentorPreferences{
		AcceptingNewMentees: false,
		MaxMentees:          3,
		Mode:                shared.ModeHybrid,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE — агрегат профиля ученика
// ══════════════════════════════════════════════════════════════════════════════

// Profile — профиль ученика. Один на аккаунт со студенческой ролью.
// Revision — счётчик оптимистической блокировки: каждое сохранение требует
// совпадения ревизии в хранилище, гонки accept/respond детектируются
// детерминированно, а не порядком записи.
type Profile struct {
	ID          shared.ProfileID
	AccountID   shared.AccountID
	DisplayName string
	Branch      shared.Branch
	Year        shared.Year
	Term        shared.Term

	StrongSubjects []StrongSubject
	Preferences    MentorPreferences
	Ledger         Ledger

	// ProfileCompleted — производный флаг, пересчитывается при каждом
	// сохранении из обязательных полей и непустого списка предметов.
	ProfileCompleted bool

	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfileParams — параметры создания профиля.
type NewProfileParams struct {
	AccountID   shared.AccountID
	DisplayName string
	Branch      shared.Branch
	Year        shared.Year
	Term        shared.Term
}

// NewProfile создаёт профиль ученика с проверкой согласованности год/семестр.
func NewProfile(params NewProfileParams) (*Profile, error) {
	if params.AccountID.IsEmpty() || !params.AccountID.IsValid() {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrInvalidID, "invalid account ID")
	}
	if params.DisplayName == "" {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrEmptyValue, "display name is required")
	}
	if !params.Branch.IsValid() {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrInvalidFormat, "invalid branch")
	}
	if !params.Year.IsValid() {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrValueOutOfRange, "year must be between 1 and 4")
	}
	if !params.Term.IsValid() {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrValueOutOfRange, "term must be between 1 and 8")
	}
	if !params.Year.ContainsTerm(params.Term) {
		return nil, shared.NewDomainError("learner", "Create", shared.ErrValidation,
			fmt.Sprintf("term %d is inconsistent with year %d", params.Term.Int(), params.Year.Int()))
	}

	now := time.Now()
	p := &Profile{
		ID:             shared.ProfileID(uuid.NewString()),
		AccountID:      params.AccountID,
		DisplayName:    params.DisplayName,
		Branch:         params.Branch,
		Year:           params.Year,
		Term:           params.Term,
		StrongSubjects: make([]StrongSubject, 0),
		Preferences:    DefaultPreferences(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.RecomputeCompleted()
	return p, nil
}

// RecomputeCompleted пересчитывает производный флаг полноты профиля.
// Вызывается репозиторием перед каждым сохранением.
func (p *Profile) RecomputeCompleted() {
	p.ProfileCompleted = p.DisplayName != "" &&
		p.Branch.IsValid() &&
		p.Year.IsValid() &&
		p.Term.IsValid() &&
		len(p.StrongSubjects) > 0
}

// HasStrongSubject проверяет наличие предмета в списке.
func (p *Profile) HasStrongSubject(subjectID shared.SubjectID) bool {
	for _, s := range p.StrongSubjects {
		if s.SubjectID == subjectID {
			return true
		}
	}
	return false
}

// StrongSubjectConfidence возвращает уверенность по предмету (0, если нет).
func (p *Profile) StrongSubjectConfidence(subjectID shared.SubjectID) shared.Confidence {
	for _, s := range p.StrongSubjects {
		if s.SubjectID == subjectID {
			return s.Confidence
		}
	}
	return 0
}

// AddStrongSubject добавляет предмет. Предмет должен быть из прошлого
// семестра (origin ≤ текущий − 1) и не дублироваться.
func (p *Profile) AddStrongSubject(subjectID shared.SubjectID, originTerm shared.Term, confidence shared.Confidence) error {
	if !subjectID.IsValid() {
		return shared.NewDomainError("learner", "AddStrongSubject", shared.ErrInvalidID, "invalid subject ID")
	}
	if !originTerm.IsValid() || originTerm.Int() > p.Term.Int()-1 {
		return shared.NewDomainError("learner", "AddStrongSubject", shared.ErrValidation,
			"subject origin term must precede the current term")
	}
	if !confidence.IsValid() {
		return shared.NewDomainError("learner", "AddStrongSubject", shared.ErrValueOutOfRange, "confidence must be between 1 and 5")
	}
	if p.HasStrongSubject(subjectID) {
		return shared.ErrDuplicateSubject
	}
	p.StrongSubjects = append(p.StrongSubjects, StrongSubject{
		SubjectID:  subjectID,
		OriginTerm: originTerm,
		Confidence: confidence,
	})
	p.touch()
	return nil
}

// RemoveStrongSubject удаляет предмет из списка.
func (p *Profile) RemoveStrongSubject(subjectID shared.SubjectID) error {
	for i, s := range p.StrongSubjects {
		if s.SubjectID == subjectID {
			p.StrongSubjects = append(p.StrongSubjects[:i], p.StrongSubjects[i+1:]...)
			p.touch()
			return nil
		}
	}
	return shared.NewDomainError("learner", "RemoveStrongSubject", shared.ErrNotFound, "subject is not in the strong list")
}

// UpdatePreferences заменяет менторские предпочтения после валидации.
// Понижение MaxMentees ниже текущей занятости допустимо: предикат ёмкости
// просто перестанет пропускать новые заявки, существующие рёбра не рвутся.
func (p *Profile) UpdatePreferences(prefs MentorPreferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	p.Preferences = prefs
	p.touch()
	return nil
}

// AdvanceTerm переводит профиль в следующий семестр (и год при переходе
// через границу). Используется административным обновлением профиля.
func (p *Profile) AdvanceTerm() error {
	next := shared.Term(p.Term.Int() + 1)
	if !next.IsValid() {
		return shared.NewDomainError("learner", "AdvanceTerm", shared.ErrInvalidState, "already in the final term")
	}
	p.Term = next
	p.Year = next.Year()
	p.touch()
	return nil
}

func (p *Profile) touch() {
	p.UpdatedAt = time.Now()
}

// Clone возвращает глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	clone := *p
	clone.StrongSubjects = make([]StrongSubject, len(p.StrongSubjects))
	copy(clone.StrongSubjects, p.StrongSubjects)
	clone.Preferences.TimeSlots = make([]shared.TimeSlot, len(p.Preferences.TimeSlots))
	copy(clone.Preferences.TimeSlots, p.Preferences.TimeSlots)
	clone.Ledger = p.Ledger.Clone()
	return &clone
}

// String реализует fmt.Stringer.
func (p *Profile) String() string {
	return fmt.Sprintf("Learner{%s, %s, year %d, term %d, %d subjects, %d/%d mentees}",
		p.ID, p.Branch, p.Year.Int(), p.Term.Int(),
		len(p.StrongSubjects), p.Ledger.ActiveMenteeCount(), p.Preferences.MaxMentees)
}
