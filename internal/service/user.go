package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"timesheet/internal/auth"
	"timesheet/internal/domain"
	"timesheet/internal/repository"
)

// UserService handles account management.
type UserService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, hasher *auth.PasswordHasher) *UserService {
	return &UserService{userRepo: userRepo, hasher: hasher}
}

// CreateUserRequest contains the parameters for creating an account.
type CreateUserRequest struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	Status     domain.UserStatus
	HourlyRate decimal.Decimal
}

// Create registers a new account. The password is hashed before storage and
// never leaves this layer.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" || !req.Role.Valid() {
		return nil, ErrValidation
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.UserStatusActive
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       status,
		HourlyRate:   req.HourlyRate.Round(ratePrecision),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// Get retrieves an active user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.activeUser(ctx, id)
}

// ListUsersRequest narrows and paginates the account listing.
type ListUsersRequest struct {
	SearchTerm string
	Page       repository.Page
}

// ListUsersResult is the paginated account listing.
type ListUsersResult struct {
	Users []*domain.User
	Total int
}

// List retrieves accounts matching the search term. Non-admin callers are
// restricted to USER-role rows plus their own record.
func (s *UserService) List(ctx context.Context, actor domain.Actor, req ListUsersRequest) (*ListUsersResult, error) {
	filter := repository.UserFilter{SearchTerm: req.SearchTerm}
	if !actor.Role.CanBypassOwnership() {
		filter.RestrictToRole = domain.RoleUser
		filter.VisibleToID = actor.ID
	}

	users, err := s.userRepo.List(ctx, filter, req.Page)
	if err != nil {
		return nil, err
	}

	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListUsersResult{Users: users, Total: total}, nil
}

// AdminUpdateRequest contains the fields an admin may change on another
// account; nil fields are left untouched.
type AdminUpdateRequest struct {
	Name       *string
	Password   *string
	Role       *domain.Role
	Status     *domain.UserStatus
	HourlyRate *decimal.Decimal
}

// AdminUpdate applies a full-field update to another user's account. Admins
// may not target their own record through this path.
func (s *UserService) AdminUpdate(ctx context.Context, actor domain.Actor, id string, req AdminUpdateRequest) (*domain.User, error) {
	if actor.ID == id {
		return nil, ErrSelfUpdate
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.PasswordChangedAt = time.Now()
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, ErrValidation
		}
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.HourlyRate != nil {
		user.HourlyRate = req.HourlyRate.Round(ratePrecision)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateName changes only the display name, the self-service update path
// open to any authenticated role.
func (s *UserService) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	if name == "" {
		return nil, ErrValidation
	}

	user, err := s.activeUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes a single account.
func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteMany removes a batch of accounts as one logical operation. The whole
// batch is rejected when it targets any admin-role account or references a
// missing user; nothing is deleted in either case. The admin guard wins when
// a batch trips both rules.
func (s *UserService) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return ErrValidation
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, user := range users {
		if user.Role.CanBypassOwnership() {
			return ErrAdminBulkDelete
		}
	}

	if len(users) != len(ids) {
		return ErrUsersNotFound
	}

	return s.userRepo.DeleteMany(ctx, ids)
}

// activeUser loads a user and requires ACTIVE status.
func (s *UserService) activeUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrUserNotFound
	}
	return user, nil
}
