package participant

import "context"

// RecipientSource exposes an event's registrants for notification fan-out
type RecipientSource struct {
	repo Repository
}

func NewRecipientSource(repo Repository) *RecipientSource {
	return &RecipientSource{repo: repo}
}

func (s *RecipientSource) Recipients(ctx context.Context, eventID string) ([]string, error) {
	participants, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.Status == StatusCancelled {
			continue
		}
		userIDs = append(userIDs, p.UserID)
	}
	return userIDs, nil
}
