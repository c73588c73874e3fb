package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/campus-connect/mentorship-hub/internal/application/command"
	"github.com/campus-connect/mentorship-hub/internal/application/query"
	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
	"github.com/campus-connect/mentorship-hub/pkg/logger"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is a
// preferences update with a full subject list.
const maxBodyBytes = 64 << 10

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Mentorship Hub API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":        "/health",
			"ledger":        "/api/v1/learners/me/ledger",
			"mentor_search": "/api/v1/mentors/search",
			"peer_requests": "/api/v1/requests/peer",
		},
	})
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"uptime": s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerLearnerRequest struct {
	DisplayName string `json:"display_name"`
	Branch      string `json:"branch"`
	Year        int    `json:"year"`
	Term        int    `json:"term"`
}

// handleRegisterLearner handles POST /api/v1/learners.
func (s *Server) handleRegisterLearner(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req registerLearnerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RegisterLearnerHandler.Handle(r.Context(), command.RegisterLearnerCommand{
		AccountID:   accountID,
		DisplayName: req.DisplayName,
		Branch:      req.Branch,
		Year:        req.Year,
		Term:        req.Term,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type registerMentorRequest struct {
	DisplayName     string              `json:"display_name"`
	Designation     string              `json:"designation"`
	SkillTags       []string            `json:"skill_tags"`
	YearsExperience int                 `json:"years_experience"`
	Bio             string              `json:"bio"`
	Availability    []command.SlotInput `json:"availability"`
}

// handleRegisterMentor handles POST /api/v1/mentors.
func (s *Server) handleRegisterMentor(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req registerMentorRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RegisterMentorHandler.Handle(r.Context(), command.RegisterMentorCommand{
		AccountID:       accountID,
		DisplayName:     req.DisplayName,
		Designation:     req.Designation,
		SkillTags:       req.SkillTags,
		YearsExperience: req.YearsExperience,
		Bio:             req.Bio,
		Availability:    req.Availability,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type updatePreferencesRequest struct {
	AcceptingNewMentees bool                   `json:"accepting_new_mentees"`
	MaxMentees          int                    `json:"max_mentees"`
	Mode                string                 `json:"mode"`
	TimeSlots           []command.SlotInput    `json:"time_slots"`
	AddSubjects         []command.SubjectInput `json:"add_subjects"`
	RemoveSubjects      []string               `json:"remove_subjects"`
}

// handleUpdatePreferences handles PUT /api/v1/learners/me/preferences.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req updatePreferencesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UpdatePreferencesHandler.Handle(r.Context(), command.UpdatePreferencesCommand{
		AccountID:           accountID,
		AcceptingNewMentees: req.AcceptingNewMentees,
		MaxMentees:          req.MaxMentees,
		Mode:                req.Mode,
		TimeSlots:           req.TimeSlots,
		AddSubjects:         req.AddSubjects,
		RemoveSubjects:      req.RemoveSubjects,
		CorrelationID:       getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLedger handles GET /api/v1/learners/me/ledger.
func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	result, err := s.deps.GetLedgerHandler.Handle(r.Context(), query.GetLedgerQuery{
		AccountID: accountID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// MENTOR SEARCH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleFindMentors handles GET /api/v1/mentors/search.
func (s *Server) handleFindMentors(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing_parameter", "subject_id is required")
		return
	}

	result, err := s.deps.FindMentorsHandler.Handle(r.Context(), query.FindMentorsQuery{
		RequesterAccountID: accountID,
		SubjectID:          subjectID,
		Limit:              getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetMentees handles GET /api/v1/mentors/me/mentees.
func (s *Server) handleGetMentees(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	result, err := s.deps.GetMenteesHandler.Handle(r.Context(), query.GetMenteesQuery{
		MentorAccountID: accountID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LIFECYCLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createPeerRequestRequest struct {
	TargetProfileID string `json:"target_profile_id"`
	SubjectID       string `json:"subject_id"`
	Message         string `json:"message"`
}

// handleCreatePeerRequest handles POST /api/v1/requests/peer.
func (s *Server) handleCreatePeerRequest(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req createPeerRequestRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreatePeerRequestHandler.Handle(r.Context(), command.CreatePeerRequestCommand{
		RequesterAccountID: accountID,
		TargetProfileID:    req.TargetProfileID,
		SubjectID:          req.SubjectID,
		Message:            req.Message,
		CorrelationID:      getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type respondRequestRequest struct {
	Accept bool `json:"accept"`
}

// handleRespondPeerRequest handles POST /api/v1/requests/peer/{id}/response.
func (s *Server) handleRespondPeerRequest(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req respondRequestRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RespondPeerRequestHandler.Handle(r.Context(), command.RespondPeerRequestCommand{
		ResponderAccountID: accountID,
		RequestID:          r.PathValue("id"),
		Accept:             req.Accept,
		CorrelationID:      getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type createOfficialRequestRequest struct {
	MentorProfileID string `json:"mentor_profile_id"`
	Message         string `json:"message"`
}

// handleCreateOfficialRequest handles POST /api/v1/requests/official.
func (s *Server) handleCreateOfficialRequest(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req createOfficialRequestRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreateOfficialRequestHandler.Handle(r.Context(), command.CreateOfficialRequestCommand{
		RequesterAccountID: accountID,
		MentorProfileID:    req.MentorProfileID,
		Message:            req.Message,
		CorrelationID:      getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type respondOfficialRequestRequest struct {
	LearnerProfileID string `json:"learner_profile_id"`
	Accept           bool   `json:"accept"`
}

// handleRespondOfficialRequest handles POST /api/v1/requests/official/{id}/response.
// The request row lives on the learner's ledger, so the mentor names the
// learner profile alongside the row id.
func (s *Server) handleRespondOfficialRequest(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req respondOfficialRequestRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RespondOfficialRequestHandler.Handle(r.Context(), command.RespondOfficialRequestCommand{
		MentorAccountID:  accountID,
		LearnerProfileID: req.LearnerProfileID,
		RequestID:        r.PathValue("id"),
		Accept:           req.Accept,
		CorrelationID:    getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// RELATIONSHIP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type endRelationshipRequest struct {
	Mode string `json:"mode"`
}

// handleEndRelationship handles POST /api/v1/relationships/{edgeID}/end.
func (s *Server) handleEndRelationship(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req endRelationshipRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = string(command.EndModeDeactivate)
	}

	result, err := s.deps.EndRelationshipHandler.Handle(r.Context(), command.EndRelationshipCommand{
		ActorAccountID: accountID,
		EdgeID:         r.PathValue("edgeID"),
		Mode:           command.EndMode(req.Mode),
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRemoveMentee handles DELETE /api/v1/mentors/me/mentees/{learnerID}.
// The account is a professional mentor; removal works on the learner-side
// official edge.
func (s *Server) handleRemoveMentee(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	result, err := s.deps.RemoveMenteeHandler.Handle(r.Context(), command.RemoveMenteeCommand{
		MentorAccountID:  accountID,
		LearnerProfileID: r.PathValue("learnerID"),
		CorrelationID:    getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type rateEdgeRequest struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// handleRateEdge handles POST /api/v1/relationships/{edgeID}/rating.
func (s *Server) handleRateEdge(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.requireAccount(w, r)
	if !ok {
		return
	}

	var req rateEdgeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RateEdgeHandler.Handle(r.Context(), command.RateEdgeCommand{
		RaterAccountID: accountID,
		EdgeID:         r.PathValue("edgeID"),
		Score:          req.Score,
		Feedback:       req.Feedback,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// requireAccount extracts the gateway-verified account id, writing 401
// when the header is absent.
func (s *Server) requireAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := r.Header.Get(AccountHeader)
	if accountID == "" {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing account identity")
		return "", false
	}
	return accountID, true
}

// decodeBody decodes a JSON body into dst, writing 400 on malformed input.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSONError(w, http.StatusBadRequest, "empty_body", "Request body is required")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "malformed_json", "Request body is not valid JSON")
		return false
	}
	return true
}

// writeDomainError maps a domain error onto an HTTP status. Partial
// commits are surfaced loudly: the write half-landed and the client
// should not blindly retry.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsCapacityExceeded(err):
		writeJSONError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case shared.IsInvalidState(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case shared.IsPartialCommit(err):
		s.logger.Error("partial commit surfaced to client",
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "partial_commit",
			"The operation partially completed; reconciliation will restore consistency")
	case errors.Is(err, shared.ErrConcurrentModification):
		writeJSONError(w, http.StatusConflict, "concurrent_modification",
			"The profile changed mid-operation, please retry")
	case shared.IsExternalService(err):
		writeJSONError(w, http.StatusServiceUnavailable, "dependency_unavailable", err.Error())
	default:
		s.logger.Error("unhandled error",
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}
