package notification

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/gatherhub/venue-events-backend/internal/auditlog"
)

// RecipientLister resolves which users should be told about an event change
type RecipientLister interface {
	Recipients(ctx context.Context, eventID string) ([]string, error)
}

type Service struct {
	repo       Repository
	recipients RecipientLister
}

func NewService(repo Repository, recipients RecipientLister) *Service {
	return &Service{repo: repo, recipients: recipients}
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]InAppNotification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

// FanOut persists one in-app notification per registered participant of the
// changed event, skipping the actor themselves
func (s *Service) FanOut(ctx context.Context, msg *eventMessage) error {
	userIDs, err := s.recipients.Recipients(ctx, msg.EventID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	title, body := renderMessage(msg)

	for _, userID := range userIDs {
		if userID == msg.ActorID {
			continue
		}

		eventID := msg.EventID
		n := &InAppNotification{
			UserID:  userID,
			EventID: &eventID,
			Action:  msg.Action,
			Title:   title,
			Body:    body,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("failed to store notification")
		}
	}
	return nil
}

func renderMessage(msg *eventMessage) (string, string) {
	switch msg.Action {
	case auditlog.ActionEventUpdated:
		return "Event updated", fmt.Sprintf("%q has been updated.", msg.EventTitle)
	case auditlog.ActionEventDeleted:
		return "Event cancelled", "An event you registered for has been removed."
	default:
		return "Event activity", fmt.Sprintf("There is new activity on %q.", msg.EventTitle)
	}
}
