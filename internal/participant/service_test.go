package participant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/venue-events-backend/internal/auditlog"
	"github.com/gatherhub/venue-events-backend/internal/auth"
	"github.com/gatherhub/venue-events-backend/internal/event"
	"github.com/gatherhub/venue-events-backend/internal/rbac"
)

// ===========================
// Stubs

type stubRepo struct {
	participants map[string]*Participant
}

func newStubRepo() *stubRepo {
	return &stubRepo{participants: map[string]*Participant{}}
}

func (r *stubRepo) Create(_ context.Context, p *Participant) error {
	if p.ID == "" {
		p.ID = "p-" + p.UserID
	}
	p.RegisteredAt = time.Now()
	r.participants[p.ID] = p
	return nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*Participant, error) {
	p, ok := r.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *stubRepo) FindByEventAndUser(_ context.Context, eventID, userID string) (*Participant, error) {
	for _, p := range r.participants {
		if p.EventID == eventID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *stubRepo) ListByEvent(_ context.Context, eventID string) ([]Participant, error) {
	var out []Participant
	for _, p := range r.participants {
		if p.EventID == eventID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubRepo) CountConfirmed(_ context.Context, eventID string) (int, error) {
	count := 0
	for _, p := range r.participants {
		if p.EventID == eventID && p.Status == StatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (r *stubRepo) Update(_ context.Context, p *Participant) error {
	r.participants[p.ID] = p
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id string) error {
	delete(r.participants, id)
	return nil
}

// stubEvents serves the event lookups the registration flow needs
type stubEvents struct {
	events map[string]*event.Event
}

func (r *stubEvents) Create(context.Context, *event.Event) error { return nil }

func (r *stubEvents) FindByID(_ context.Context, id string) (*event.Event, error) {
	ev, ok := r.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	return ev, nil
}

func (r *stubEvents) List(context.Context, event.ListFilter, event.Visibility) ([]event.Event, error) {
	return nil, nil
}
func (r *stubEvents) Update(context.Context, *event.Event) error { return nil }
func (r *stubEvents) Delete(context.Context, string) error       { return nil }
func (r *stubEvents) RuleByEventID(context.Context, string) (*event.RecurrenceRule, error) {
	return nil, event.ErrNotFound
}
func (r *stubEvents) RulesByEventIDs(context.Context, []string) ([]event.RecurrenceRule, error) {
	return nil, nil
}
func (r *stubEvents) UpsertRule(context.Context, *event.RecurrenceRule) error { return nil }
func (r *stubEvents) DeleteRule(context.Context, string) error                { return nil }

// rbacState is a minimal rbac.Store
type rbacState struct {
	creators  map[string]string
	published map[string]bool
}

func (s *rbacState) HasActiveRole(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *rbacState) EventCreator(_ context.Context, eventID string) (string, error) {
	return s.creators[eventID], nil
}

func (s *rbacState) EventIsPublished(_ context.Context, eventID string) (bool, error) {
	return s.published[eventID], nil
}

func (s *rbacState) UserGrantRole(context.Context, string, string, time.Time) (string, error) {
	return "", nil
}

func (s *rbacState) ActiveBusinessIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

func (s *rbacState) BusinessGrantRole(context.Context, string, []string, time.Time) (string, error) {
	return "", nil
}

func (s *rbacState) CreateGrant(context.Context, *rbac.EventPermission) error { return nil }

type stubAudit struct {
	actions []string
}

func (s *stubAudit) LogAction(_ context.Context, _ *string, _ *string, action string, _ map[string]interface{}, _ string, _ string) error {
	s.actions = append(s.actions, action)
	return nil
}

func (s *stubAudit) GetAuditLogs(context.Context, auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

type fixture struct {
	repo   *stubRepo
	events *stubEvents
	state  *rbacState
	audit  *stubAudit
	svc    *Service
}

func newFixture() *fixture {
	repo := newStubRepo()
	events := &stubEvents{events: map[string]*event.Event{}}
	state := &rbacState{creators: map[string]string{}, published: map[string]bool{}}
	audit := &stubAudit{}
	svc := NewService(repo, events, rbac.NewAuthorizer(state), audit)
	return &fixture{repo: repo, events: events, state: state, audit: audit, svc: svc}
}

func (f *fixture) addEvent(ev *event.Event) {
	f.events.events[ev.ID] = ev
	f.state.creators[ev.ID] = ev.CreatedBy
	f.state.published[ev.ID] = ev.Status == event.StatusPublished
}

func publishedEvent(id string, maxParticipants *int) *event.Event {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	return &event.Event{
		ID:              id,
		Title:           "Concert",
		Status:          event.StatusPublished,
		CreatedBy:       "u-owner",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Hour),
		MaxParticipants: maxParticipants,
	}
}

func intPtr(v int) *int { return &v }

// ===========================
// Registration

func TestRegister_RequiresAuthentication(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), nil, "ev-1", "", "1.2.3.4")

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegister_UnknownEvent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), &auth.Identity{ID: "u-1"}, "missing", "", "1.2.3.4")

	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegister_RejectsUnpublishedEvent(t *testing.T) {
	f := newFixture()
	ev := publishedEvent("ev-1", nil)
	ev.Status = event.StatusDraft
	f.addEvent(ev)

	_, err := f.svc.Register(context.Background(), &auth.Identity{ID: "u-1"}, "ev-1", "", "1.2.3.4")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_CreatesPendingParticipant(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))

	p, err := f.svc.Register(context.Background(), &auth.Identity{ID: "u-1"}, "ev-1", "", "1.2.3.4")

	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "attendee", p.Role)
	assert.Equal(t, "u-1", p.UserID)
	assert.Contains(t, f.audit.actions, auditlog.ActionParticipantJoined)
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))

	_, err := f.svc.Register(context.Background(), &auth.Identity{ID: "u-1"}, "ev-1", "", "1.2.3.4")
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), &auth.Identity{ID: "u-1"}, "ev-1", "", "1.2.3.4")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_CapacityCountsConfirmedOnly(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", intPtr(2)))

	f.repo.participants["p-a"] = &Participant{ID: "p-a", EventID: "ev-1", UserID: "u-a", Status: StatusConfirmed}
	f.repo.participants["p-b"] = &Participant{ID: "p-b", EventID: "ev-1", UserID: "u-b", Status: StatusPending}

	// One confirmed of two seats: registration still open
	_, err := f.svc.Register(context.Background(), &auth.Identity{ID: "u-c"}, "ev-1", "", "1.2.3.4")
	require.NoError(t, err)

	// Second seat confirmed: event is full
	f.repo.participants["p-b"].Status = StatusConfirmed
	_, err = f.svc.Register(context.Background(), &auth.Identity{ID: "u-d"}, "ev-1", "", "1.2.3.4")
	assert.ErrorIs(t, err, ErrValidation)
}

// ===========================
// Status changes

func TestUpdateStatus_SelfConfirmStampsTime(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))
	f.repo.participants["p-1"] = &Participant{ID: "p-1", EventID: "ev-1", UserID: "u-1", Status: StatusPending}

	p, err := f.svc.UpdateStatus(context.Background(), &auth.Identity{ID: "u-1"}, "p-1", StatusConfirmed, "1.2.3.4")

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, p.Status)
	require.NotNil(t, p.ConfirmedAt)
	assert.Contains(t, f.audit.actions, auditlog.ActionParticipantUpdated)
}

func TestUpdateStatus_StrangerDenied(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))
	f.repo.participants["p-1"] = &Participant{ID: "p-1", EventID: "ev-1", UserID: "u-1", Status: StatusPending}

	_, err := f.svc.UpdateStatus(context.Background(), &auth.Identity{ID: "u-other"}, "p-1", StatusConfirmed, "1.2.3.4")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatus_EventOwnerManages(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))
	f.repo.participants["p-1"] = &Participant{ID: "p-1", EventID: "ev-1", UserID: "u-1", Status: StatusPending}

	p, err := f.svc.UpdateStatus(context.Background(), &auth.Identity{ID: "u-owner"}, "p-1", StatusCancelled, "1.2.3.4")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, p.Status)
	assert.Nil(t, p.ConfirmedAt)
}

// ===========================
// Cancellation and listing

func TestCancel_SelfRemovesRegistration(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))
	f.repo.participants["p-1"] = &Participant{ID: "p-1", EventID: "ev-1", UserID: "u-1"}

	err := f.svc.Cancel(context.Background(), &auth.Identity{ID: "u-1"}, "p-1", "1.2.3.4")

	require.NoError(t, err)
	_, exists := f.repo.participants["p-1"]
	assert.False(t, exists)
	assert.Contains(t, f.audit.actions, auditlog.ActionParticipantRemoved)
}

func TestList_RequiresViewAccess(t *testing.T) {
	f := newFixture()
	ev := publishedEvent("ev-1", nil)
	ev.Status = event.StatusDraft
	f.addEvent(ev)

	_, err := f.svc.List(context.Background(), nil, "ev-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.List(context.Background(), &auth.Identity{ID: "u-random"}, "ev-1")
	assert.ErrorIs(t, err, ErrForbidden)

	participants, err := f.svc.List(context.Background(), &auth.Identity{ID: "u-owner"}, "ev-1")
	require.NoError(t, err)
	assert.Empty(t, participants)
}

// ===========================
// Export

func TestExportRoster_OwnerGetsCSV(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))
	f.repo.participants["p-1"] = &Participant{ID: "p-1", EventID: "ev-1", UserID: "u-1", Status: StatusConfirmed}

	data, filename, contentType, err := f.svc.ExportRoster(context.Background(), &auth.Identity{ID: "u-owner"}, "ev-1", FormatCSV)

	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, filename, ".csv")
	assert.Equal(t, "text/csv", contentType)
}

func TestExportRoster_ViewerDenied(t *testing.T) {
	f := newFixture()
	f.addEvent(publishedEvent("ev-1", nil))

	// Published event grants implicit view, but export needs manage rights
	_, _, _, err := f.svc.ExportRoster(context.Background(), &auth.Identity{ID: "u-random"}, "ev-1", FormatCSV)

	assert.ErrorIs(t, err, ErrForbidden)
}
