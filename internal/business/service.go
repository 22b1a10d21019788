package business

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/gatherhub/venue-events-backend/internal/auth"
	"github.com/gatherhub/venue-events-backend/internal/rbac"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrValidation      = errors.New("validation failed")
)

type Service struct {
	repo  Repository
	authz *rbac.Authorizer
}

func NewService(repo Repository, authz *rbac.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

func (s *Service) List(ctx context.Context) ([]Business, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Business, error) {
	return s.repo.FindByID(ctx, id)
}

// Create registers a business and makes the creator its first member
func (s *Service) Create(ctx context.Context, identity *auth.Identity, req *CreateBusinessRequest) (*Business, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	b := &Business{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Address:     req.Address,
		City:        req.City,
		Country:     req.Country,
		CreatedBy:   identity.ID,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	member := &Partner{
		UserID:     identity.ID,
		BusinessID: b.ID,
		Role:       "owner",
		IsActive:   true,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		log.WithError(err).WithField("business_id", b.ID).Warn("failed to add creator as member")
	}

	return b, nil
}

// Update applies a partial update; creator or superuser only
func (s *Service) Update(ctx context.Context, identity *auth.Identity, id string, req *UpdateBusinessRequest) (*Business, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.CreatedBy != identity.ID && !s.authz.IsSuperuser(ctx, identity.ID) {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Website != nil {
		b.Website = *req.Website
	}
	if req.Address != nil {
		b.Address = *req.Address
	}
	if req.City != nil {
		b.City = *req.City
	}
	if req.Country != nil {
		b.Country = *req.Country
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if b.CreatedBy != identity.ID && !s.authz.IsSuperuser(ctx, identity.ID) {
		return ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) ListMembers(ctx context.Context, identity *auth.Identity, businessID string) ([]Partner, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	if !s.mayManageMembers(ctx, identity, businessID) {
		return nil, ErrForbidden
	}

	return s.repo.ListMembers(ctx, businessID)
}

// AddMember admits a user into the business; members and the creator may do so
func (s *Service) AddMember(ctx context.Context, identity *auth.Identity, businessID string, req *AddMemberRequest) (*Partner, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	if !s.mayManageMembers(ctx, identity, businessID) {
		return nil, ErrForbidden
	}

	if _, err := s.repo.FindMember(ctx, businessID, req.UserID); err == nil {
		return nil, fmt.Errorf("%w: user is already a member", ErrValidation)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = "member"
	}

	p := &Partner{
		UserID:     req.UserID,
		BusinessID: businessID,
		Role:       role,
		IsActive:   true,
	}
	if err := s.repo.AddMember(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return p, nil
}

func (s *Service) RemoveMember(ctx context.Context, identity *auth.Identity, businessID, userID string) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	// Members may leave on their own; removing others needs manage rights
	if identity.ID != userID && !s.mayManageMembers(ctx, identity, businessID) {
		return ErrForbidden
	}

	return s.repo.RemoveMember(ctx, businessID, userID)
}

func (s *Service) mayManageMembers(ctx context.Context, identity *auth.Identity, businessID string) bool {
	if s.authz.IsSuperuser(ctx, identity.ID) {
		return true
	}

	b, err := s.repo.FindByID(ctx, businessID)
	if err == nil && b.CreatedBy == identity.ID {
		return true
	}

	if _, err := s.repo.FindMember(ctx, businessID, identity.ID); err == nil {
		return true
	}
	return false
}
