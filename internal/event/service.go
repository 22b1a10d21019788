package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gatherhub/venue-events-backend/internal/auditlog"
	"github.com/gatherhub/venue-events-backend/internal/auth"
	"github.com/gatherhub/venue-events-backend/internal/cache"
	"github.com/gatherhub/venue-events-backend/internal/rbac"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrValidation      = errors.New("validation failed")
)

// Notifier publishes event lifecycle changes to interested consumers.
// Publishing failures are never fatal to the mutation.
type Notifier interface {
	EventChanged(ctx context.Context, action string, ev *Event, actorID string)
}

// NopNotifier is used when no message broker is configured
type NopNotifier struct{}

func (NopNotifier) EventChanged(context.Context, string, *Event, string) {}

// EventWithRule is the GET /events/:id payload for recurring events
type EventWithRule struct {
	Event
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
}

// Service orchestrates event queries and mutations: authorization first,
// recurrence expansion through the cache on reads, cache invalidation on
// writes, audit logging throughout.
type Service struct {
	repo     Repository
	authz    *rbac.Authorizer
	cache    cache.Cache[[]Occurrence]
	audit    auditlog.Service
	notifier Notifier
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, authz *rbac.Authorizer, c cache.Cache[[]Occurrence], audit auditlog.Service, notifier Notifier, cacheTTL time.Duration) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		authz:    authz,
		cache:    c,
		audit:    audit,
		notifier: notifier,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// ===========================
// List events with recurrence expansion

// ListEvents returns the merged, sorted, paginated sequence of visible
// events and occurrences for the requested window.
func (s *Service) ListEvents(ctx context.Context, identity *auth.Identity, filter ListFilter) ([]interface{}, Pagination, error) {
	isSuperuser := identity != nil && s.authz.IsSuperuser(ctx, identity.ID)

	// Visibility: superusers see all statuses regardless of the requested
	// filter; authenticated users see published or their own (their status
	// filter applies when given); anonymous callers see published only.
	var vis Visibility
	switch {
	case isSuperuser:
		vis.All = true
	case identity != nil && filter.Status != "":
		vis.Status = filter.Status
	case identity != nil:
		vis.PublishedOrOwn = identity.ID
	default:
		vis.PublishedOnly = true
	}

	events, err := s.repo.List(ctx, filter, vis)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to fetch events: %w", err)
	}

	// Effective window defaults: today .. one year ahead
	windowed := filter.StartDate != "" || filter.EndDate != ""
	startDate := filter.StartDate
	if startDate == "" {
		startDate = s.now().UTC().Format("2006-01-02")
	}
	endDate := filter.EndDate
	if endDate == "" {
		endDate = s.now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
	}

	var recurringIDs []string
	for _, ev := range events {
		if ev.IsRecurring {
			recurringIDs = append(recurringIDs, ev.ID)
		}
	}

	rules, err := s.repo.RulesByEventIDs(ctx, recurringIDs)
	if err != nil {
		// Degrade to emitting parent rows unchanged rather than failing
		log.WithError(err).Error("failed to fetch recurrence rules")
		rules = nil
	}
	ruleByEvent := make(map[string]*RecurrenceRule, len(rules))
	for i := range rules {
		ruleByEvent[rules[i].EventID] = &rules[i]
	}

	type entry struct {
		start time.Time
		item  interface{}
	}
	var merged []entry

	for i := range events {
		ev := events[i]
		if ev.IsRecurring {
			if rule, ok := ruleByEvent[ev.ID]; ok {
				for _, occ := range s.occurrencesFor(ctx, &ev, rule, startDate, endDate) {
					merged = append(merged, entry{start: occ.StartTime, item: occ})
				}
				continue
			}
			// Recurring flag set but no rule found: inconsistent data,
			// emit the parent row unchanged
			log.WithField("event_id", ev.ID).Warn("recurring event without rule")
		}
		merged = append(merged, entry{start: ev.StartTime, item: ev})
	}

	// Date-window filter applies to the merged sequence, not the base query
	if windowed {
		windowStart, windowEnd, err := parseWindow(startDate, endDate)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filtered := merged[:0]
		for _, e := range merged {
			if e.start.Before(windowStart) || e.start.After(windowEnd) {
				continue
			}
			filtered = append(filtered, e)
		}
		merged = filtered
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].start.Before(merged[j].start)
	})

	// Pagination runs on the final merged, filtered sequence
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(merged)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]interface{}, 0, end-offset)
	for _, e := range merged[offset:end] {
		page = append(page, e.item)
	}

	return page, Pagination{Limit: limit, Offset: filter.Offset, Total: total}, nil
}

// occurrencesFor serves a recurring event's occurrences from the cache,
// generating and caching on miss
func (s *Service) occurrencesFor(ctx context.Context, ev *Event, rule *RecurrenceRule, startDate, endDate string) []Occurrence {
	key := cache.Key(ev.ID, startDate, endDate)
	if occurrences, ok := s.cache.Get(ctx, key); ok {
		return occurrences
	}

	occurrences := GenerateOccurrencesForDates(ev, rule, startDate, endDate)
	s.cache.Set(ctx, key, occurrences, s.cacheTTL)
	return occurrences
}

func parseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate %q", startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate %q", endDate)
	}
	return start, end.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// ===========================
// Single event

// GetEvent returns one event, with its recurrence rule attached when
// recurring. Published events are readable anonymously.
func (s *Service) GetEvent(ctx context.Context, identity *auth.Identity, id string) (*EventWithRule, error) {
	decision := s.authz.Authorize(ctx, identity, id, rbac.ActionView)
	if !decision.Allowed {
		ev, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if identity == nil && ev.Status == StatusPublished {
			return s.withRule(ctx, ev), nil
		}
		if identity == nil {
			return nil, ErrUnauthenticated
		}
		return nil, ErrForbidden
	}

	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withRule(ctx, ev), nil
}

func (s *Service) withRule(ctx context.Context, ev *Event) *EventWithRule {
	result := &EventWithRule{Event: *ev}
	if ev.IsRecurring {
		rule, err := s.repo.RuleByEventID(ctx, ev.ID)
		if err == nil {
			result.RecurrenceRule = rule
		} else if !errors.Is(err, ErrNotFound) {
			log.WithError(err).WithField("event_id", ev.ID).Error("failed to fetch recurrence rule")
		}
	}
	return result
}

// ===========================
// Mutations

// CreateEvent stores a new event with the caller as creator, plus its
// recurrence rule and the implicit owner grant
func (s *Service) CreateEvent(ctx context.Context, identity *auth.Identity, req *CreateEventRequest, ip string) (*Event, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}

	isSuperuser := s.authz.IsSuperuser(ctx, identity.ID)
	if req.BusinessID != nil && !isSuperuser {
		if !s.authz.IsBusinessMember(ctx, identity.ID, *req.BusinessID) {
			s.logAudit(ctx, identity.ID, nil, auditlog.ActionAccessDenied, map[string]interface{}{
				"business_id": *req.BusinessID,
				"action":      "create_event",
			}, ip, "failure")
			return nil, fmt.Errorf("%w: no access to this business", ErrForbidden)
		}
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	ev := &Event{
		Title:           req.Title,
		Description:     req.Description,
		EventType:       req.EventType,
		Status:          status,
		BusinessID:      req.BusinessID,
		CreatedBy:       identity.ID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TimezoneID:      req.TimezoneID,
		IsRecurring:     req.RecurrenceRules != nil || req.IsRecurring,
		MaxParticipants: req.MaxParticipants,
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if req.RecurrenceRules != nil {
		s.upsertRule(ctx, identity.ID, ev, req.RecurrenceRules, ip)
	}

	// Auto-grant owner permission to the creator; failure is tolerable
	// because creatorship already implies ownership
	if err := s.authz.GrantOwner(ctx, ev.ID, identity.ID); err != nil {
		log.WithError(err).WithField("event_id", ev.ID).Warn("failed to store owner grant")
	}

	s.logAudit(ctx, identity.ID, &ev.ID, auditlog.ActionEventCreated, map[string]interface{}{
		"title":  ev.Title,
		"status": ev.Status,
	}, ip, "success")
	s.notifier.EventChanged(ctx, auditlog.ActionEventCreated, ev, identity.ID)

	return ev, nil
}

// UpdateEvent applies a partial update, keeping the is_recurring flag and
// the stored rule consistent, and invalidates cached occurrences
func (s *Service) UpdateEvent(ctx context.Context, identity *auth.Identity, id string, req *UpdateEventRequest, ip string) (*Event, error) {
	if err := s.authorizeMutation(ctx, identity, id, rbac.ActionEdit, ip); err != nil {
		return nil, err
	}

	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// created_by is never updatable; the request carries no field for it
	if req.Title != nil {
		ev.Title = *req.Title
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.EventType != nil {
		ev.EventType = *req.EventType
	}
	if req.Status != nil {
		ev.Status = *req.Status
	}
	if req.BusinessID != nil {
		ev.BusinessID = req.BusinessID
	}
	if req.StartTime != nil {
		ev.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		ev.EndTime = *req.EndTime
	}
	if req.TimezoneID != nil {
		ev.TimezoneID = *req.TimezoneID
	}
	if req.MaxParticipants != nil {
		ev.MaxParticipants = req.MaxParticipants
	}

	if !ev.EndTime.After(ev.StartTime) {
		return nil, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}

	if req.RulesSet {
		ev.IsRecurring = req.RecurrenceRules != nil
	}

	if err := s.repo.Update(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if req.RulesSet {
		if req.RecurrenceRules != nil {
			s.upsertRule(ctx, identity.ID, ev, req.RecurrenceRules, ip)
		} else {
			if err := s.repo.DeleteRule(ctx, id); err != nil {
				log.WithError(err).WithField("event_id", id).Error("failed to delete recurrence rule")
			}
		}
	}

	s.cache.InvalidateEvent(ctx, id)

	s.logAudit(ctx, identity.ID, &id, auditlog.ActionEventUpdated, map[string]interface{}{
		"title": ev.Title,
	}, ip, "success")
	s.notifier.EventChanged(ctx, auditlog.ActionEventUpdated, ev, identity.ID)

	return ev, nil
}

// DeleteEvent removes an event, its rule and its cached occurrences.
// Owner-only (or superuser).
func (s *Service) DeleteEvent(ctx context.Context, identity *auth.Identity, id string, ip string) error {
	if err := s.authorizeMutation(ctx, identity, id, rbac.ActionDelete, ip); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		log.WithError(err).WithField("event_id", id).Warn("failed to delete recurrence rule")
	}

	s.cache.InvalidateEvent(ctx, id)

	s.logAudit(ctx, identity.ID, &id, auditlog.ActionEventDeleted, nil, ip, "success")
	s.notifier.EventChanged(ctx, auditlog.ActionEventDeleted, &Event{ID: id}, identity.ID)

	return nil
}

// upsertRule stores or replaces the event's recurrence rule and invalidates
// cached occurrences. A rule failure after a successful event write does not
// fail the mutation: the error is logged and audited, and the orchestrator's
// missing-rule fallback covers the inconsistency until it is repaired.
func (s *Service) upsertRule(ctx context.Context, actorID string, ev *Event, input *RecurrenceRuleInput, ip string) {
	interval := input.Interval
	if interval < 1 {
		interval = 1
	}
	timezone := input.Timezone
	if timezone == "" {
		timezone = ev.TimezoneID
	}
	if timezone == "" {
		timezone = "UTC"
	}

	rule := &RecurrenceRule{
		EventID:         ev.ID,
		Frequency:       input.Frequency,
		Interval:        interval,
		ByWeekday:       input.ByWeekday,
		ByMonthDay:      input.ByMonthDay,
		BySetPos:        input.BySetPos,
		Until:           input.Until,
		Count:           input.Count,
		Exceptions:      input.Exceptions,
		AdditionalDates: input.AdditionalDates,
		Timezone:        timezone,
	}

	if err := s.repo.UpsertRule(ctx, rule); err != nil {
		log.WithError(err).WithField("event_id", ev.ID).Error("failed to upsert recurrence rule")
		s.logAudit(ctx, actorID, &ev.ID, auditlog.ActionRuleUpsertFailed, map[string]interface{}{
			"error": err.Error(),
		}, ip, "failure")
		return
	}

	s.cache.InvalidateEvent(ctx, ev.ID)
}

// authorizeMutation runs the authorization engine and audits bypasses and
// denials, as mutations are required to
func (s *Service) authorizeMutation(ctx context.Context, identity *auth.Identity, eventID string, action rbac.Action, ip string) error {
	decision := s.authz.Authorize(ctx, identity, eventID, action)

	if decision.Reason == rbac.ReasonSuperuser {
		s.logAudit(ctx, identity.ID, &eventID, auditlog.ActionSuperuserBypass, map[string]interface{}{
			"action": string(action),
		}, ip, "success")
		return nil
	}

	if !decision.Allowed {
		var userID string
		if identity != nil {
			userID = identity.ID
		}
		s.logAudit(ctx, userID, &eventID, auditlog.ActionAccessDenied, map[string]interface{}{
			"action": string(action),
			"reason": decision.Reason,
		}, ip, "failure")

		if identity == nil {
			return ErrUnauthenticated
		}
		return ErrForbidden
	}

	return nil
}

// logAudit records an audit entry; failures never abort the primary mutation
func (s *Service) logAudit(ctx context.Context, userID string, eventID *string, action string, details map[string]interface{}, ip, status string) {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	if err := s.audit.LogAction(ctx, uid, eventID, action, details, ip, status); err != nil {
		log.WithError(err).WithField("action", action).Warn("audit log insert failed")
	}
}
