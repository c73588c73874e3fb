// Package mentor содержит агрегат профиля профессионального ментора.
// Профиль не хранит состояние отношений: официальный реестр асимметричен,
// все рёбра и заявки лежат на стороне ученика, а ментор — лишь «вторая
// сторона», на которую ссылается официальный под-реестр.
package mentor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// Пределы полей профиля ментора.
const (
	MaxSkillTags       = 15
	MaxSkillTagLen     = 40
	MaxBioLength       = 2000
	MaxDesignationLen  = 120
	MaxYearsExperience = 60
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE — агрегат профессионального ментора
// ══════════════════════════════════════════════════════════════════════════════

// Profile — профиль профессионального (не peer) ментора. Один на аккаунт
// с менторской ролью. Владелец отвечает на официальные заявки учеников
// от имени этого профиля.
type Profile struct {
	ID              shared.ProfileID
	AccountID       shared.AccountID
	DisplayName     string
	Designation     string
	SkillTags       []string
	YearsExperience int
	Bio             string
	Availability    []shared.TimeSlot
	Active          bool

	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfileParams — параметры создания профиля ментора.
type NewProfileParams struct {
	AccountID       shared.AccountID
	DisplayName     string
	Designation     string
	SkillTags       []string
	YearsExperience int
	Bio             string
	Availability    []shared.TimeSlot
}

// NewProfile создаёт активный профиль ментора.
func NewProfile(params NewProfileParams) (*Profile, error) {
	if params.AccountID.IsEmpty() || !params.AccountID.IsValid() {
		return nil, shared.NewDomainError("mentor", "Create", shared.ErrInvalidID, "invalid account ID")
	}
	if params.DisplayName == "" {
		return nil, shared.NewDomainError("mentor", "Create", shared.ErrEmptyValue, "display name is required")
	}
	if len(params.Designation) > MaxDesignationLen {
		return nil, shared.NewDomainError("mentor", "Create", shared.ErrValueOutOfRange,
			fmt.Sprintf("designation must be at most %d characters", MaxDesignationLen))
	}
	if params.YearsExperience < 0 || params.YearsExperience > MaxYearsExperience {
		return nil, shared.NewDomainError("mentor", "Create", shared.ErrValueOutOfRange,
			fmt.Sprintf("years of experience must be between 0 and %d", MaxYearsExperience))
	}
	if len([]rune(params.Bio)) > MaxBioLength {
		return nil, shared.NewDomainError("mentor", "Create", shared.ErrValueOutOfRange,
			fmt.Sprintf("bio must be at most %d characters", MaxBioLength))
	}
	tags, err := normalizeSkillTags(params.SkillTags)
	if err != nil {
		return nil, err
	}
	for _, slot := range params.Availability {
		if !slot.IsValid() {
			return nil, shared.NewDomainError("mentor", "Create", shared.ErrValidation,
				fmt.Sprintf("invalid availability slot %q", slot.String()))
		}
	}

	now := time.Now()
	return &Profile{
		ID:              shared.ProfileID(uuid.NewString()),
		AccountID:       params.AccountID,
		DisplayName:     params.DisplayName,
		Designation:     params.Designation,
		SkillTags:       tags,
		YearsExperience: params.YearsExperience,
		Bio:             params.Bio,
		Availability:    append([]shared.TimeSlot(nil), params.Availability...),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// normalizeSkillTags приводит теги к нижнему регистру, отбрасывает пустые
// и проверяет лимиты. Дубликаты запрещены.
func normalizeSkillTags(raw []string) ([]string, error) {
	if len(raw) > MaxSkillTags {
		return nil, shared.NewDomainError("mentor", "ValidateTags", shared.ErrValueOutOfRange,
			fmt.Sprintf("at most %d skill tags allowed", MaxSkillTags))
	}
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if len(tag) > MaxSkillTagLen {
			return nil, shared.NewDomainError("mentor", "ValidateTags", shared.ErrValueOutOfRange,
				fmt.Sprintf("skill tag %q exceeds %d characters", tag, MaxSkillTagLen))
		}
		if _, dup := seen[tag]; dup {
			return nil, shared.NewDomainError("mentor", "ValidateTags", shared.ErrConflict,
				fmt.Sprintf("duplicate skill tag %q", tag))
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

// IsOwnedBy проверяет, что аккаунт владеет профилем. Владелец нужен при
// ответе на официальную заявку: отвечает аккаунт, а не профиль.
func (p *Profile) IsOwnedBy(accountID shared.AccountID) bool {
	return p.AccountID == accountID
}

// HasSkillTag проверяет наличие тега (регистронезависимо).
func (p *Profile) HasSkillTag(tag string) bool {
	needle := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range p.SkillTags {
		if t == needle {
			return true
		}
	}
	return false
}

// Deactivate скрывает профиль от новых заявок. Существующие официальные
// рёбра на стороне учеников не трогаются.
func (p *Profile) Deactivate() {
	p.Active = false
	p.touch()
}

// Reactivate возвращает профиль в активное состояние.
func (p *Profile) Reactivate() {
	p.Active = true
	p.touch()
}

// UpdateDetails обновляет описательные поля профиля.
func (p *Profile) UpdateDetails(designation, bio string, yearsExperience int) error {
	if len(designation) > MaxDesignationLen {
		return shared.NewDomainError("mentor", "Update", shared.ErrValueOutOfRange,
			fmt.Sprintf("designation must be at most %d characters", MaxDesignationLen))
	}
	if len([]rune(bio)) > MaxBioLength {
		return shared.NewDomainError("mentor", "Update", shared.ErrValueOutOfRange,
			fmt.Sprintf("bio must be at most %d characters", MaxBioLength))
	}
	if yearsExperience < 0 || yearsExperience > MaxYearsExperience {
		return shared.NewDomainError("mentor", "Update", shared.ErrValueOutOfRange,
			fmt.Sprintf("years of experience must be between 0 and %d", MaxYearsExperience))
	}
	p.Designation = designation
	p.Bio = bio
	p.YearsExperience = yearsExperience
	p.touch()
	return nil
}

// ReplaceSkillTags заменяет список тегов целиком.
func (p *Profile) ReplaceSkillTags(raw []string) error {
	tags, err := normalizeSkillTags(raw)
	if err != nil {
		return err
	}
	p.SkillTags = tags
	p.touch()
	return nil
}

// ReplaceAvailability заменяет слоты доступности.
func (p *Profile) ReplaceAvailability(slots []shared.TimeSlot) error {
	for _, slot := range slots {
		if !slot.IsValid() {
			return shared.NewDomainError("mentor", "Update", shared.ErrValidation,
				fmt.Sprintf("invalid availability slot %q", slot.String()))
		}
	}
	p.Availability = append([]shared.TimeSlot(nil), slots...)
	p.touch()
	return nil
}

func (p *Profile) touch() {
	p.UpdatedAt = time.Now()
}

// Clone возвращает глубокую копию профиля.
func (p *Profile) Clone() *Profile {
	clone := *p
	clone.SkillTags = append([]string(nil), p.SkillTags...)
	clone.Availability = append([]shared.TimeSlot(nil), p.Availability...)
	return &clone
}

// String реализует fmt.Stringer.
func (p *Profile) String() string {
	return fmt.Sprintf("Mentor{%s, %s, %d yrs, active=%t}", p.ID, p.Designation, p.YearsExperience, p.Active)
}
