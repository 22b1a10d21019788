package rbac

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gatherhub/venue-events-backend/internal/auth"
)

// Authorizer decides, per event and per action, whether a caller may
// proceed. Pure decision procedure: it performs no writes; callers audit the
// superuser bypasses and denials it reports.
//
// A storage error on one permission source never grants access and never
// aborts the whole check: that source degrades to "no role" and the
// remaining sources are still consulted.
type Authorizer struct {
	store Store
	now   func() time.Time
}

func NewAuthorizer(store Store) *Authorizer {
	return &Authorizer{store: store, now: time.Now}
}

// Authorize runs the full decision procedure. A nil identity is an
// unauthenticated caller. An empty eventID means the action is
// account-level and authentication alone suffices.
func (a *Authorizer) Authorize(ctx context.Context, identity *auth.Identity, eventID string, action Action) Decision {
	if identity == nil {
		return Decision{Allowed: false, Reason: ReasonUnauthenticated}
	}

	// Global superuser bypasses every per-event check, for any action
	if a.IsSuperuser(ctx, identity.ID) {
		return Decision{Allowed: true, Role: RoleSuperuser, Reason: ReasonSuperuser}
	}

	if eventID == "" {
		return Decision{Allowed: true}
	}

	required, ok := requiredRoles[action]
	if !ok {
		required = nil
	}

	allowed, role := a.checkEventPermission(ctx, identity.ID, eventID, required)
	if !allowed {
		return Decision{Allowed: false, Reason: ReasonInsufficient}
	}
	return Decision{Allowed: true, Role: role}
}

// IsSuperuser checks the global events_superuser role assignment. Lookup
// errors are treated as "not a superuser".
func (a *Authorizer) IsSuperuser(ctx context.Context, userID string) bool {
	ok, err := a.store.HasActiveRole(ctx, userID, RoleSuperuser)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("rbac: superuser lookup failed")
		return false
	}
	return ok
}

// checkEventPermission resolves the caller's role for the event, consulting
// permission sources in precedence order: creator, explicit user grant,
// business-membership grant, published-event implicit viewer. A source whose
// role does not satisfy the required set does not short-circuit the rest.
func (a *Authorizer) checkEventPermission(ctx context.Context, userID, eventID string, required []string) (bool, string) {
	now := a.now()

	creator, err := a.store.EventCreator(ctx, eventID)
	if err != nil {
		log.WithError(err).WithField("event_id", eventID).Error("rbac: creator lookup failed")
	} else if creator != "" && creator == userID {
		return true, RoleOwner
	}

	role, err := a.store.UserGrantRole(ctx, eventID, userID, now)
	if err != nil {
		log.WithError(err).WithField("event_id", eventID).Error("rbac: user grant lookup failed")
	} else if role != "" && roleSatisfies(role, required) {
		return true, role
	}

	businessIDs, err := a.store.ActiveBusinessIDs(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("rbac: membership lookup failed")
	} else if len(businessIDs) > 0 {
		role, err := a.store.BusinessGrantRole(ctx, eventID, businessIDs, now)
		if err != nil {
			log.WithError(err).WithField("event_id", eventID).Error("rbac: business grant lookup failed")
		} else if role != "" && roleSatisfies(role, required) {
			return true, role
		}
	}

	// Published events are publicly viewable: implicit viewer role, only for
	// actions with no specific role requirement
	if len(required) == 0 {
		published, err := a.store.EventIsPublished(ctx, eventID)
		if err != nil {
			log.WithError(err).WithField("event_id", eventID).Error("rbac: published lookup failed")
		} else if published {
			return true, RoleViewer
		}
	}

	return false, ""
}

func roleSatisfies(role string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// IsBusinessMember reports whether the user actively belongs to the given
// business. Lookup errors fail closed.
func (a *Authorizer) IsBusinessMember(ctx context.Context, userID, businessID string) bool {
	ids, err := a.store.ActiveBusinessIDs(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("rbac: membership lookup failed")
		return false
	}
	for _, id := range ids {
		if id == businessID {
			return true
		}
	}
	return false
}

// GrantOwner records the implicit creator grant as an explicit permission
// row, so ownership survives event transfers between businesses
func (a *Authorizer) GrantOwner(ctx context.Context, eventID, userID string) error {
	return a.store.CreateGrant(ctx, &EventPermission{
		EventID:   eventID,
		UserID:    &userID,
		Role:      RoleOwner,
		GrantedBy: userID,
	})
}
