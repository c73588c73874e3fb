// Package catalog описывает внешний справочник предметов. Справочник
// потребляется только на чтение: система проверяет существование предмета
// и согласованность ветки/семестра, но никогда не изменяет каталог.
package catalog

import (
	"context"
	"fmt"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// Subject — запись справочника: тройка (ветка, семестр, предмет).
type Subject struct {
	ID     shared.SubjectID `json:"id"`
	Branch shared.Branch    `json:"branch"`
	Term   shared.Term      `json:"term"`
	Name   string           `json:"name"`
}

// BelongsToBranch проверяет принадлежность предмета ветке.
func (s Subject) BelongsToBranch(branch shared.Branch) bool {
	return s.Branch.Equals(branch)
}

// String реализует fmt.Stringer.
func (s Subject) String() string {
	return fmt.Sprintf("Subject{%s, %s, term %d}", s.ID, s.Branch, s.Term.Int())
}

// Catalog — клиент внешнего справочника предметов.
type Catalog interface {
	// GetSubject возвращает запись по идентификатору.
	// Возвращает shared.ErrNotFound, если предмета нет.
	GetSubject(ctx context.Context, id shared.SubjectID) (Subject, error)

	// ListSubjects возвращает предметы ветки до указанного семестра
	// включительно. Используется для валидации сильных предметов.
	ListSubjects(ctx context.Context, branch shared.Branch, upToTerm shared.Term) ([]Subject, error)
}
