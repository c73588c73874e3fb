package catalog

import (
	"fmt"

	"github.com/campus-connect/mentorship-hub/internal/domain/catalog"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WIRE TYPES
// ══════════════════════════════════════════════════════════════════════════════

// SubjectDTO is a catalog subject on the wire.
type SubjectDTO struct {
	ID     string `json:"id"`
	Branch string `json:"branch"`
	Term   int    `json:"term"`
	Name   string `json:"name"`
}

// SubjectListDTO is the response of the subject listing endpoint.
type SubjectListDTO struct {
	Subjects []SubjectDTO `json:"subjects"`
	Total    int          `json:"total"`
}

// APIErrorDTO is an error response from the catalog service.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("catalog api error %s: %s", e.Code, e.Message)
}

// toDomain converts a wire subject to the domain record.
func (d SubjectDTO) toDomain() (catalog.Subject, error) {
	s := catalog.Subject{
		ID:     shared.SubjectID(d.ID),
		Branch: shared.Branch(d.Branch),
		Term:   shared.Term(d.Term),
		Name:   d.Name,
	}
	if d.ID == "" || !s.Branch.IsValid() || !s.Term.IsValid() {
		return catalog.Subject{}, shared.NewDomainError("catalog", "Parse", shared.ErrCatalogInvalidResponse,
			fmt.Sprintf("malformed subject %q", d.ID))
	}
	return s, nil
}
