// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Every relationship state transition publishes exactly
// one of these; the notification handler turns them into outbound messages.
// The core never talks to the notification transport directly.
const (
	// Peer request lifecycle events
	EventPeerRequestReceived EventType = "lifecycle.peer_request_received"
	EventPeerRequestAccepted EventType = "lifecycle.peer_request_accepted"
	EventPeerRequestRejected EventType = "lifecycle.peer_request_rejected"
	EventPeerRequestExpired  EventType = "lifecycle.peer_request_expired"

	// Official mentor request lifecycle events
	EventOfficialRequestReceived EventType = "lifecycle.official_request_received"
	EventOfficialRequestAccepted EventType = "lifecycle.official_request_accepted"
	EventOfficialRequestRejected EventType = "lifecycle.official_request_rejected"

	// Edge events
	EventConnectionEstablished EventType = "lifecycle.connection_established"
	EventConnectionEnded       EventType = "lifecycle.connection_ended"
	EventMenteeRemoved         EventType = "lifecycle.mentee_removed"

	// Rating events
	EventRatingReceived EventType = "rating.rating_received"

	// Profile events
	EventProfileUpdated EventType = "learner.profile_updated"

	// System events
	EventLedgerAsymmetryFound EventType = "system.ledger_asymmetry_found"
	EventLedgerRepaired       EventType = "system.ledger_repaired"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Payload
// ═══════════════════════════════════════════════════════════════════════════

// Notice carries the fields every outbound notification needs: who acted,
// what the counterpart should read, and where their client should navigate.
type Notice struct {
	RecipientAccountID string `json:"recipient_account_id"`
	ActorName          string `json:"actor_name"`
	Message            string `json:"message"`
	RedirectHint       string `json:"redirect_hint"`
}

// ═══════════════════════════════════════════════════════════════════════════
// Request Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// PeerRequestReceivedEvent is emitted when a learner requests a peer mentor.
type PeerRequestReceivedEvent struct {
	BaseEvent
	RequesterID string `json:"requester_id"`
	TargetID    string `json:"target_id"`
	SubjectID   string `json:"subject_id"`
	RequestID   string `json:"request_id"`
	Notice      Notice `json:"notice"`
}

// Payload implements Event interface.
func (e PeerRequestReceivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"requester_id": e.RequesterID,
		"target_id":    e.TargetID,
		"subject_id":   e.SubjectID,
		"request_id":   e.RequestID,
		"notice":       e.Notice,
	}
}

// NewPeerRequestReceivedEvent creates a new PeerRequestReceivedEvent.
func NewPeerRequestReceivedEvent(requesterID, targetID, subjectID, requestID string, notice Notice) PeerRequestReceivedEvent {
	return PeerRequestReceivedEvent{
		BaseEvent:   NewBaseEvent(EventPeerRequestReceived, targetID),
		RequesterID: requesterID,
		TargetID:    targetID,
		SubjectID:   subjectID,
		RequestID:   requestID,
		Notice:      notice,
	}
}

// PeerRequestRespondedEvent is emitted when a pending peer request is
// accepted or rejected. The event type distinguishes the decision.
type PeerRequestRespondedEvent struct {
	BaseEvent
	ResponderID string `json:"responder_id"`
	RequesterID string `json:"requester_id"`
	SubjectID   string `json:"subject_id"`
	Accepted    bool   `json:"accepted"`
	Notice      Notice `json:"notice"`
}

// Payload implements Event interface.
func (e PeerRequestRespondedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"responder_id": e.ResponderID,
		"requester_id": e.RequesterID,
		"subject_id":   e.SubjectID,
		"accepted":     e.Accepted,
		"notice":       e.Notice,
	}
}

// NewPeerRequestRespondedEvent creates a new PeerRequestRespondedEvent.
func NewPeerRequestRespondedEvent(responderID, requesterID, subjectID string, accepted bool, notice Notice) PeerRequestRespondedEvent {
	eventType := EventPeerRequestRejected
	if accepted {
		eventType = EventPeerRequestAccepted
	}
	return PeerRequestRespondedEvent{
		BaseEvent:   NewBaseEvent(eventType, responderID),
		ResponderID: responderID,
		RequesterID: requesterID,
		SubjectID:   subjectID,
		Accepted:    accepted,
		Notice:      notice,
	}
}

// PeerRequestExpiredEvent is emitted when the expiry job flips a stale
// pending peer request to expired.
type PeerRequestExpiredEvent struct {
	BaseEvent
	RequesterID string `json:"requester_id"`
	TargetID    string `json:"target_id"`
	SubjectID   string `json:"subject_id"`
	Notice      Notice `json:"notice"`
}

// Payload implements Event interface.
func (e PeerRequestExpiredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"requester_id": e.RequesterID,
		"target_id":    e.TargetID,
		"subject_id":   e.SubjectID,
		"notice":       e.Notice,
	}
}

// NewPeerRequestExpiredEvent creates a new PeerRequestExpiredEvent.
func NewPeerRequestExpiredEvent(requesterID, targetID, subjectID string, notice Notice) PeerRequestExpiredEvent {
	return PeerRequestExpiredEvent{
		BaseEvent:   NewBaseEvent(EventPeerRequestExpired, requesterID),
		RequesterID: requesterID,
		TargetID:    targetID,
		SubjectID:   subjectID,
		Notice:      notice,
	}
}

// OfficialRequestEvent is emitted on official mentor request transitions
// (received, accepted, rejected).
type OfficialRequestEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	MentorID  string `json:"mentor_id"`
	RequestID string `json:"request_id"`
	Notice    Notice `json:"notice"`
}

// Payload implements Event interface.
func (e OfficialRequestEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"mentor_id":  e.MentorID,
		"request_id": e.RequestID,
		"notice":     e.Notice,
	}
}

// NewOfficialRequestEvent creates a new OfficialRequestEvent with the given type.
func NewOfficialRequestEvent(eventType EventType, learnerID, mentorID, requestID string, notice Notice) OfficialRequestEvent {
	return OfficialRequestEvent{
		BaseEvent: NewBaseEvent(eventType, learnerID),
		LearnerID: learnerID,
		MentorID:  mentorID,
		RequestID: requestID,
		Notice:    notice,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Edge Events
// ═══════════════════════════════════════════════════════════════════════════

// ConnectionEstablishedEvent is emitted once mirrored active edges exist on
// both ledgers (or on the learner's ledger for official mentors).
type ConnectionEstablishedEvent struct {
	BaseEvent
	MentorSideID string   `json:"mentor_side_id"`
	MenteeSideID string   `json:"mentee_side_id"`
	SubjectID    string   `json:"subject_id,omitempty"` // empty for official edges
	Official     bool     `json:"official"`
	Notices      []Notice `json:"notices"` // both parties are informed
}

// Payload implements Event interface.
func (e ConnectionEstablishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"mentor_side_id": e.MentorSideID,
		"mentee_side_id": e.MenteeSideID,
		"subject_id":     e.SubjectID,
		"official":       e.Official,
		"notices":        e.Notices,
	}
}

// NewConnectionEstablishedEvent creates a new ConnectionEstablishedEvent.
func NewConnectionEstablishedEvent(mentorSideID, menteeSideID, subjectID string, official bool, notices []Notice) ConnectionEstablishedEvent {
	return ConnectionEstablishedEvent{
		BaseEvent:    NewBaseEvent(EventConnectionEstablished, menteeSideID),
		MentorSideID: mentorSideID,
		MenteeSideID: menteeSideID,
		SubjectID:    subjectID,
		Official:     official,
		Notices:      notices,
	}
}

// ConnectionEndedEvent is emitted when an edge is deactivated or removed.
type ConnectionEndedEvent struct {
	BaseEvent
	ActorID       string `json:"actor_id"`
	CounterpartID string `json:"counterpart_id"`
	SubjectID     string `json:"subject_id,omitempty"`
	Removed       bool   `json:"removed"` // true for removeCompletely, false for deactivate
	Notice        Notice `json:"notice"`
}

// Payload implements Event interface.
func (e ConnectionEndedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"actor_id":       e.ActorID,
		"counterpart_id": e.CounterpartID,
		"subject_id":     e.SubjectID,
		"removed":        e.Removed,
		"notice":         e.Notice,
	}
}

// NewConnectionEndedEvent creates a new ConnectionEndedEvent.
func NewConnectionEndedEvent(actorID, counterpartID, subjectID string, removed bool, notice Notice) ConnectionEndedEvent {
	eventType := EventConnectionEnded
	if removed {
		eventType = EventMenteeRemoved
	}
	return ConnectionEndedEvent{
		BaseEvent:     NewBaseEvent(eventType, actorID),
		ActorID:       actorID,
		CounterpartID: counterpartID,
		SubjectID:     subjectID,
		Removed:       removed,
		Notice:        notice,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Rating Events
// ═══════════════════════════════════════════════════════════════════════════

// RatingReceivedEvent is emitted when an edge is rated.
type RatingReceivedEvent struct {
	BaseEvent
	RaterID string `json:"rater_id"`
	RatedID string `json:"rated_id"`
	EdgeID  string `json:"edge_id"`
	Score   int    `json:"score"`
	Notice  Notice `json:"notice"`
}

// Payload implements Event interface.
func (e RatingReceivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"rater_id": e.RaterID,
		"rated_id": e.RatedID,
		"edge_id":  e.EdgeID,
		"score":    e.Score,
		"notice":   e.Notice,
	}
}

// NewRatingReceivedEvent creates a new RatingReceivedEvent.
func NewRatingReceivedEvent(raterID, ratedID, edgeID string, score int, notice Notice) RatingReceivedEvent {
	return RatingReceivedEvent{
		BaseEvent: NewBaseEvent(EventRatingReceived, ratedID),
		RaterID:   raterID,
		RatedID:   ratedID,
		EdgeID:    edgeID,
		Score:     score,
		Notice:    notice,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Events
// ═══════════════════════════════════════════════════════════════════════════

// ProfileUpdatedEvent is emitted whenever a learner profile row changes.
// The cache layer subscribes to it to invalidate stale entries.
type ProfileUpdatedEvent struct {
	BaseEvent
	ProfileID string `json:"profile_id"`
	AccountID string `json:"account_id"`
}

// Payload implements Event interface.
func (e ProfileUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.ProfileID,
		"account_id": e.AccountID,
	}
}

// NewProfileUpdatedEvent creates a new ProfileUpdatedEvent.
func NewProfileUpdatedEvent(profileID, accountID string) ProfileUpdatedEvent {
	return ProfileUpdatedEvent{
		BaseEvent: NewBaseEvent(EventProfileUpdated, profileID),
		ProfileID: profileID,
		AccountID: accountID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// LedgerAsymmetryFoundEvent is emitted by the reconciliation scan when an
// edge exists on one ledger with no active mirror on the counterpart.
type LedgerAsymmetryFoundEvent struct {
	BaseEvent
	OwnerID       string `json:"owner_id"`
	CounterpartID string `json:"counterpart_id"`
	EdgeID        string `json:"edge_id"`
	SubjectID     string `json:"subject_id,omitempty"`
}

// Payload implements Event interface.
func (e LedgerAsymmetryFoundEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"owner_id":       e.OwnerID,
		"counterpart_id": e.CounterpartID,
		"edge_id":        e.EdgeID,
		"subject_id":     e.SubjectID,
	}
}

// NewLedgerAsymmetryFoundEvent creates a new LedgerAsymmetryFoundEvent.
func NewLedgerAsymmetryFoundEvent(ownerID, counterpartID, edgeID, subjectID string) LedgerAsymmetryFoundEvent {
	return LedgerAsymmetryFoundEvent{
		BaseEvent:     NewBaseEvent(EventLedgerAsymmetryFound, ownerID),
		OwnerID:       ownerID,
		CounterpartID: counterpartID,
		EdgeID:        edgeID,
		SubjectID:     subjectID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
