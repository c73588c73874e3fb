package learner

import (
	"time"

	"github.com/google/uuid"

	"github.com/campus-connect/mentorship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDGE — ребро менторской связи
// ══════════════════════════════════════════════════════════════════════════════

// EdgeKind — тип ребра. Три параллельных подреестра (peer-mentor, peer-mentee,
// official) имеют одинаковую форму и различаются только тегом.
type EdgeKind string

const (
	// EdgePeerMentor — контрагент менторит владельца реестра.
	EdgePeerMentor EdgeKind = "peer_mentor"

	// EdgePeerMentee — владелец реестра менторит контрагента.
	EdgePeerMentee EdgeKind = "peer_mentee"

	// EdgeOfficial — профессиональный ментор; предмет не указывается.
	EdgeOfficial EdgeKind = "official_mentor"
)

// IsValid проверяет, что тип ребра известен.
func (k EdgeKind) IsValid() bool {
	switch k {
	case EdgePeerMentor, EdgePeerMentee, EdgeOfficial:
		return true
	}
	return false
}

// Mirror возвращает тип зеркального ребра на стороне контрагента.
// У official-рёбер зеркала нет.
func (k EdgeKind) Mirror() (EdgeKind, bool) {
	switch k {
	case EdgePeerMentor:
		return EdgePeerMentee, true
	case EdgePeerMentee:
		return EdgePeerMentor, true
	}
	return "", false
}

// RatingMinAge — минимальный возраст связи, после которого её можно оценить.
const RatingMinAge = 7 * 24 * time.Hour

// Rating — однократная, необратимая оценка ребра.
type Rating struct {
	Score    shared.Score `json:"score"`
	Feedback string       `json:"feedback,omitempty"`
	RatedAt  time.Time    `json:"rated_at"`
}

// Edge — зафиксированная связь в реестре. Каждая сторона хранит своё ребро
// со своим собственным идентификатором: зеркальные рёбра НЕ разделяют id.
type Edge struct {
	ID              string           `json:"id"`
	Kind            EdgeKind         `json:"kind"`
	CounterpartID   shared.ProfileID `json:"counterpart_id"`
	SubjectID       shared.SubjectID `json:"subject_id,omitempty"` // пусто для official
	ConnectedAt     time.Time        `json:"connected_at"`
	Active          bool             `json:"active"`
	LastInteraction time.Time        `json:"last_interaction"`
	Rating          *Rating          `json:"rating,omitempty"`
}

// NewEdge создаёт активное ребро с новым идентификатором.
func NewEdge(kind EdgeKind, counterpart shared.ProfileID, subject shared.SubjectID, now time.Time) Edge {
	return Edge{
		ID:              uuid.NewString(),
		Kind:            kind,
		CounterpartID:   counterpart,
		SubjectID:       subject,
		ConnectedAt:     now,
		Active:          true,
		LastInteraction: now,
	}
}

// Mirrors сообщает, является ли other зеркалом этого ребра
// (противоположный тип, совпадающий предмет).
func (e *Edge) Mirrors(other *Edge) bool {
	mirror, ok := e.Kind.Mirror()
	if !ok {
		return false
	}
	return other.Kind == mirror && other.SubjectID == e.SubjectID
}

// Age возвращает возраст связи на момент now.
func (e *Edge) Age(now time.Time) time.Duration {
	return now.Sub(e.ConnectedAt)
}

// IsRatable проверяет условия оценки без мутации: ребро активно,
// ещё не оценено и старше порога.
func (e *Edge) IsRatable(now time.Time) bool {
	return e.Active && e.Rating == nil && e.Age(now) >= RatingMinAge
}

// Rate устанавливает оценку ровно один раз.
// Порядок проверок фиксирован: состояние → повтор → возраст.
func (e *Edge) Rate(score shared.Score, feedback string, now time.Time) error {
	if !e.Active {
		return shared.ErrEdgeInactive
	}
	if e.Rating != nil {
		return shared.ErrAlreadyRated
	}
	if e.Age(now) < RatingMinAge {
		return shared.ErrRatingTooEarly
	}
	if !score.IsValid() {
		return shared.ErrInvalidScore
	}
	if err := shared.ValidateMessage(feedback); err != nil {
		return shared.ErrFeedbackTooLong
	}
	e.Rating = &Rating{Score: score, Feedback: feedback, RatedAt: now}
	return nil
}

// Deactivate переводит ребро в терминальное неактивное состояние.
// Повторная деактивация — no-op.
func (e *Edge) Deactivate(now time.Time) {
	if !e.Active {
		return
	}
	e.Active = false
	e.LastInteraction = now
}

// Touch обновляет отметку последнего взаимодействия.
func (e *Edge) Touch(now time.Time) {
	if now.After(e.LastInteraction) {
		e.LastInteraction = now
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST — заявка на менторство
// ══════════════════════════════════════════════════════════════════════════════

// RequestStatus — статус заявки. pending → accepted | rejected | expired,
// все исходы терминальны.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
	StatusExpired  RequestStatus = "expired"
)

// IsTerminal проверяет, завершена ли заявка.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// Request — строка очереди заявок. Зеркальные строки (исходящая у инициатора,
// входящая у адресата) создаются парой, но каждая сторона владеет своей
// строкой и своим идентификатором.
type Request struct {
	ID            string           `json:"id"`
	CounterpartID shared.ProfileID `json:"counterpart_id"`
	SubjectID     shared.SubjectID `json:"subject_id,omitempty"` // пусто для official
	Message       string           `json:"message,omitempty"`
	Status        RequestStatus    `json:"status"`
	RequestedAt   time.Time        `json:"requested_at"`
	RespondedAt   *time.Time       `json:"responded_at,omitempty"`
}

// NewRequest создаёт pending-заявку с новым идентификатором.
func NewRequest(counterpart shared.ProfileID, subject shared.SubjectID, message string, now time.Time) Request {
	return Request{
		ID:            uuid.NewString(),
		CounterpartID: counterpart,
		SubjectID:     subject,
		Message:       message,
		Status:        StatusPending,
		RequestedAt:   now,
	}
}

// IsPending проверяет, ожидает ли заявка решения.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// respond выполняет переход pending → terminal. Повторный ответ — конфликт.
func (r *Request) respond(status RequestStatus, now time.Time) error {
	if !r.IsPending() {
		return shared.ErrAlreadyResponded
	}
	r.Status = status
	r.RespondedAt = &now
	return nil
}

// Accept помечает заявку принятой.
func (r *Request) Accept(now time.Time) error {
	return r.respond(StatusAccepted, now)
}

// Reject помечает заявку отклонённой.
func (r *Request) Reject(now time.Time) error {
	return r.respond(StatusRejected, now)
}

// Expire помечает просроченную заявку. Рёбра при этом не создаются.
func (r *Request) Expire(now time.Time) error {
	return r.respond(StatusExpired, now)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER — реестр связей ученика
// ══════════════════════════════════════════════════════════════════════════════

// Ledger — денормализованный реестр внутри профиля ученика: три подреестра
// рёбер и очереди заявок. Зеркальность peer-рёбер — инвариант между ДВУМЯ
// независимыми агрегатами, поддерживаемый mirror-врайтером и проверяемый
// джобой сверки, а не транзакцией.
type Ledger struct {
	PeerMentorEdges []Edge `json:"peer_mentor_edges"`
	PeerMenteeEdges []Edge `json:"peer_mentee_edges"`
	OfficialEdges   []Edge `json:"official_edges"`

	PeerIncoming     []Request `json:"peer_incoming"`
	PeerOutgoing     []Request `json:"peer_outgoing"`
	OfficialOutgoing []Request `json:"official_outgoing"`
}

// edgesOf возвращает указатель на подреестр нужного типа.
func (l *Ledger) edgesOf(kind EdgeKind) *[]Edge {
	switch kind {
	case EdgePeerMentor:
		return &l.PeerMentorEdges
	case EdgePeerMentee:
		return &l.PeerMenteeEdges
	case EdgeOfficial:
		return &l.OfficialEdges
	}
	return nil
}

// AppendEdge добавляет ребро в подреестр его типа.
func (l *Ledger) AppendEdge(e Edge) {
	edges := l.edgesOf(e.Kind)
	if edges == nil {
		return
	}
	*edges = append(*edges, e)
}

// FindEdge ищет ребро по идентификатору во всех трёх подреестрах.
func (l *Ledger) FindEdge(edgeID string) *Edge {
	for _, kind := range []EdgeKind{EdgePeerMentor, EdgePeerMentee, EdgeOfficial} {
		edges := *l.edgesOf(kind)
		for i := range edges {
			if edges[i].ID == edgeID {
				return &edges[i]
			}
		}
	}
	return nil
}

// FindActiveEdge ищет активное ребро по типу, контрагенту и предмету.
// Так находится зеркало: id у сторон разные, совпадает только содержимое.
func (l *Ledger) FindActiveEdge(kind EdgeKind, counterpart shared.ProfileID, subject shared.SubjectID) *Edge {
	edges := *l.edgesOf(kind)
	for i := range edges {
		if edges[i].Active && edges[i].CounterpartID == counterpart && edges[i].SubjectID == subject {
			return &edges[i]
		}
	}
	return nil
}

// RemoveEdge удаляет ребро безвозвратно (режим removeCompletely).
// Возвращает false, если ребра уже нет.
func (l *Ledger) RemoveEdge(edgeID string) bool {
	for _, kind := range []EdgeKind{EdgePeerMentor, EdgePeerMentee, EdgeOfficial} {
		edges := l.edgesOf(kind)
		for i := range *edges {
			if (*edges)[i].ID == edgeID {
				*edges = append((*edges)[:i], (*edges)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// ActiveMenteeCount — число активных peer-mentee рёбер (занятая ёмкость).
func (l *Ledger) ActiveMenteeCount() int {
	count := 0
	for i := range l.PeerMenteeEdges {
		if l.PeerMenteeEdges[i].Active {
			count++
		}
	}
	return count
}

// ActiveMentorEdgeForSubject ищет активное peer-mentor ребро по предмету.
// Инвариант: не более одного активного ментора на предмет.
func (l *Ledger) ActiveMentorEdgeForSubject(subject shared.SubjectID) *Edge {
	for i := range l.PeerMentorEdges {
		if l.PeerMentorEdges[i].Active && l.PeerMentorEdges[i].SubjectID == subject {
			return &l.PeerMentorEdges[i]
		}
	}
	return nil
}

// ActiveOfficialEdge ищет активное official-ребро по ментору.
func (l *Ledger) ActiveOfficialEdge(mentorID shared.ProfileID) *Edge {
	for i := range l.OfficialEdges {
		if l.OfficialEdges[i].Active && l.OfficialEdges[i].CounterpartID == mentorID {
			return &l.OfficialEdges[i]
		}
	}
	return nil
}

// PendingPeerOutgoing ищет pending исходящую peer-заявку по адресату и
// предмету (инвариант: не более одной такой заявки).
func (l *Ledger) PendingPeerOutgoing(target shared.ProfileID, subject shared.SubjectID) *Request {
	for i := range l.PeerOutgoing {
		r := &l.PeerOutgoing[i]
		if r.IsPending() && r.CounterpartID == target && r.SubjectID == subject {
			return r
		}
	}
	return nil
}

// PendingOfficialOutgoing ищет pending исходящую official-заявку по ментору.
func (l *Ledger) PendingOfficialOutgoing(mentorID shared.ProfileID) *Request {
	for i := range l.OfficialOutgoing {
		r := &l.OfficialOutgoing[i]
		if r.IsPending() && r.CounterpartID == mentorID {
			return r
		}
	}
	return nil
}

// IncomingPeerRequest ищет входящую peer-заявку по идентификатору строки.
func (l *Ledger) IncomingPeerRequest(requestID string) *Request {
	for i := range l.PeerIncoming {
		if l.PeerIncoming[i].ID == requestID {
			return &l.PeerIncoming[i]
		}
	}
	return nil
}

// OutgoingPeerMatch ищет зеркальную исходящую строку на стороне инициатора:
// по контрагенту, предмету и статусу pending, НЕ по id — идентификаторы
// у сторон независимы.
func (l *Ledger) OutgoingPeerMatch(responder shared.ProfileID, subject shared.SubjectID) *Request {
	return l.PendingPeerOutgoing(responder, subject)
}

// OfficialOutgoingRequest ищет official-заявку по идентификатору строки.
func (l *Ledger) OfficialOutgoingRequest(requestID string) *Request {
	for i := range l.OfficialOutgoing {
		if l.OfficialOutgoing[i].ID == requestID {
			return &l.OfficialOutgoing[i]
		}
	}
	return nil
}

// ActiveEdges возвращает копии всех активных рёбер реестра.
func (l *Ledger) ActiveEdges() []Edge {
	out := make([]Edge, 0)
	for _, kind := range []EdgeKind{EdgePeerMentor, EdgePeerMentee, EdgeOfficial} {
		for _, e := range *l.edgesOf(kind) {
			if e.Active {
				out = append(out, e)
			}
		}
	}
	return out
}

// Ratings собирает все выставленные НАМ оценки: оценки лежат на рёбрах
// контрагентов, поэтому агрегат по профилю считается снаружи. Здесь —
// оценки, выставленные владельцем реестра.
func (l *Ledger) Ratings() []Rating {
	out := make([]Rating, 0)
	for _, kind := range []EdgeKind{EdgePeerMentor, EdgePeerMentee, EdgeOfficial} {
		for _, e := range *l.edgesOf(kind) {
			if e.Rating != nil {
				out = append(out, *e.Rating)
			}
		}
	}
	return out
}

// Clone возвращает глубокую копию реестра.
func (l *Ledger) Clone() Ledger {
	clone := Ledger{
		PeerMentorEdges:  cloneEdges(l.PeerMentorEdges),
		PeerMenteeEdges:  cloneEdges(l.PeerMenteeEdges),
		OfficialEdges:    cloneEdges(l.OfficialEdges),
		PeerIncoming:     cloneRequests(l.PeerIncoming),
		PeerOutgoing:     cloneRequests(l.PeerOutgoing),
		OfficialOutgoing: cloneRequests(l.OfficialOutgoing),
	}
	return clone
}

func cloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	for i := range out {
		if out[i].Rating != nil {
			r := *out[i].Rating
			out[i].Rating = &r
		}
	}
	return out
}

func cloneRequests(requests []Request) []Request {
	out := make([]Request, len(requests))
	copy(out, requests)
	for i := range out {
		if out[i].RespondedAt != nil {
			t := *out[i].RespondedAt
			out[i].RespondedAt = &t
		}
	}
	return out
}
