package participant

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gatherhub/venue-events-backend/internal/auditlog"
	"github.com/gatherhub/venue-events-backend/internal/auth"
	"github.com/gatherhub/venue-events-backend/internal/event"
	"github.com/gatherhub/venue-events-backend/internal/rbac"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrValidation      = errors.New("validation failed")
	ErrEventNotFound   = errors.New("event not found")
)

// Service wraps registration management for events
type Service struct {
	repo     Repository
	events   event.Repository
	authz    *rbac.Authorizer
	audit    auditlog.Service
	exporter RosterExporter
}

func NewService(repo Repository, events event.Repository, authz *rbac.Authorizer, audit auditlog.Service) *Service {
	return &Service{
		repo:     repo,
		events:   events,
		authz:    authz,
		audit:    audit,
		exporter: NewRosterExporter(),
	}
}

// List returns an event's participants; requires view access to the event
func (s *Service) List(ctx context.Context, identity *auth.Identity, eventID string) ([]Participant, error) {
	decision := s.authz.Authorize(ctx, identity, eventID, rbac.ActionView)
	if !decision.Allowed {
		if identity == nil {
			return nil, ErrUnauthenticated
		}
		return nil, ErrForbidden
	}

	return s.repo.ListByEvent(ctx, eventID)
}

// Register signs the caller up for a published event, enforcing the
// capacity limit and rejecting duplicate registrations
func (s *Service) Register(ctx context.Context, identity *auth.Identity, eventID, role, ip string) (*Participant, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if ev.Status != event.StatusPublished {
		return nil, fmt.Errorf("%w: event is not open for registration", ErrValidation)
	}

	if ev.MaxParticipants != nil {
		confirmed, err := s.repo.CountConfirmed(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to count participants: %w", err)
		}
		if confirmed >= *ev.MaxParticipants {
			return nil, fmt.Errorf("%w: event is full", ErrValidation)
		}
	}

	if _, err := s.repo.FindByEventAndUser(ctx, eventID, identity.ID); err == nil {
		return nil, fmt.Errorf("%w: already registered for this event", ErrValidation)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if role == "" {
		role = "attendee"
	}

	p := &Participant{
		EventID: eventID,
		UserID:  identity.ID,
		Role:    role,
		Status:  StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}

	s.logAudit(ctx, identity.ID, eventID, auditlog.ActionParticipantJoined, map[string]interface{}{
		"participant_id": p.ID,
		"role":           role,
	}, ip)

	return p, nil
}

// UpdateStatus confirms or cancels a registration. Allowed for the
// registrant themselves, or anyone with manage_participants on the event.
func (s *Service) UpdateStatus(ctx context.Context, identity *auth.Identity, participantID, status, ip string) (*Participant, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	p, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		return nil, err
	}

	if !s.mayManage(ctx, identity, p) {
		return nil, ErrForbidden
	}

	p.Status = status
	if status == StatusConfirmed {
		now := time.Now()
		p.ConfirmedAt = &now
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update participant: %w", err)
	}

	s.logAudit(ctx, identity.ID, p.EventID, auditlog.ActionParticipantUpdated, map[string]interface{}{
		"participant_id": p.ID,
		"status":         status,
	}, ip)

	return p, nil
}

// Cancel removes a registration; same access rule as UpdateStatus
func (s *Service) Cancel(ctx context.Context, identity *auth.Identity, participantID, ip string) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	p, err := s.repo.FindByID(ctx, participantID)
	if err != nil {
		return err
	}

	if !s.mayManage(ctx, identity, p) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}

	s.logAudit(ctx, identity.ID, p.EventID, auditlog.ActionParticipantRemoved, map[string]interface{}{
		"participant_id": p.ID,
	}, ip)

	return nil
}

// ExportRoster renders the participant list in the requested format;
// requires manage_participants on the event
func (s *Service) ExportRoster(ctx context.Context, identity *auth.Identity, eventID, format string) ([]byte, string, string, error) {
	decision := s.authz.Authorize(ctx, identity, eventID, rbac.ActionManageParticipants)
	if !decision.Allowed {
		if identity == nil {
			return nil, "", "", ErrUnauthenticated
		}
		return nil, "", "", ErrForbidden
	}

	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return nil, "", "", ErrEventNotFound
		}
		return nil, "", "", err
	}

	participants, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, "", "", err
	}

	return s.exporter.Export(format, ev.Title, participants)
}

// mayManage allows a registrant to manage their own row; everyone else
// needs manage_participants on the event
func (s *Service) mayManage(ctx context.Context, identity *auth.Identity, p *Participant) bool {
	if p.UserID == identity.ID {
		return true
	}
	decision := s.authz.Authorize(ctx, identity, p.EventID, rbac.ActionManageParticipants)
	return decision.Allowed
}

func (s *Service) logAudit(ctx context.Context, userID, eventID, action string, details map[string]interface{}, ip string) {
	if err := s.audit.LogAction(ctx, &userID, &eventID, action, details, ip, "success"); err != nil {
		log.WithError(err).WithField("action", action).Warn("audit log insert failed")
	}
}
