package users

import (
	"context"
	"errors"
	"fmt"

	"restaurant-orders/internal/access"
	"restaurant-orders/internal/audit"
	"restaurant-orders/internal/auth"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/logger"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type Service struct {
	repo   RepositoryInterface
	tokens *auth.TokenManager
	audit  audit.Recorder
	log    *logger.Logger
}

func NewService(repo RepositoryInterface, tokens *auth.TokenManager, rec audit.Recorder, log *logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, audit: rec, log: log}
}

// Register creates an account. The requested role is honored only when the
// caller is an authenticated manager; everyone else gets role=client, and a
// non-manager explicitly asking for another role is rejected.
func (s *Service) Register(ctx context.Context, caller *domain.Caller, req RegisterRequest) (domain.User, error) {
	verr := domain.NewValidationError()
	if req.Username == "" {
		verr.Add("username", "required")
	}
	if len(req.Password) < 8 {
		verr.Add("password", "must be at least 8 characters")
	}

	role := domain.RoleClient
	if req.Role != "" && req.Role != string(domain.RoleClient) {
		if !access.IsManager(caller) {
			s.recordDenied(ctx, caller, "user.register", "users", map[string]any{"requested_role": req.Role})
			return domain.User{}, fmt.Errorf("%w: only a manager may assign a non-client role", domain.ErrForbidden)
		}
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			verr.Add("role", err.Error())
		} else {
			role = parsed
		}
	}
	if !verr.Empty() {
		return domain.User{}, verr
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return domain.User{}, err
	}

	s.record(ctx, caller, "user.register", fmt.Sprintf("users/%d", u.ID), audit.OutcomeOK,
		map[string]any{"username": u.Username, "role": string(u.Role)})
	return u, nil
}

// Login verifies the credential and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	u, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return auth.TokenPair{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		return auth.TokenPair{}, err
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		s.record(ctx, nil, "user.login", fmt.Sprintf("users/%d", u.ID), audit.OutcomeDenied,
			map[string]any{"username": username})
		return auth.TokenPair{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	return s.tokens.IssuePair(u.ID)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return "", err
	}
	// The account must still be live for the exchange to succeed.
	if _, err := s.repo.CallerByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: account not found or inactive", domain.ErrUnauthorized)
		}
		return "", err
	}
	return s.tokens.IssueAccess(userID)
}

func (s *Service) Me(ctx context.Context, caller *domain.Caller) (domain.User, error) {
	if caller == nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	return s.repo.ByID(ctx, caller.ID)
}

func (s *Service) List(ctx context.Context, caller *domain.Caller) ([]domain.User, error) {
	if !access.IsManager(caller) {
		s.recordDenied(ctx, caller, "user.list", "users", nil)
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, caller *domain.Caller, id int64) (domain.User, error) {
	if !access.IsManager(caller) {
		s.recordDenied(ctx, caller, "user.get", fmt.Sprintf("users/%d", id), nil)
		return domain.User{}, domain.ErrForbidden
	}
	return s.repo.ByID(ctx, id)
}

// Update applies a manager-only partial update to an account.
func (s *Service) Update(ctx context.Context, caller *domain.Caller, id int64, req UpdateUserRequest) (domain.User, error) {
	if !access.IsManager(caller) {
		s.recordDenied(ctx, caller, "user.update", fmt.Sprintf("users/%d", id), nil)
		return domain.User{}, domain.ErrForbidden
	}

	u, err := s.repo.ByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			return domain.User{}, domain.NewValidationError().Add("role", err.Error())
		}
		u.Role = role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return domain.User{}, err
	}

	s.record(ctx, caller, "user.update", fmt.Sprintf("users/%d", id), audit.OutcomeOK,
		map[string]any{"role": string(u.Role), "is_active": u.IsActive})
	return u, nil
}

// EnsureDefaultManager creates the bootstrap manager account on first start.
func (s *Service) EnsureDefaultManager(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.repo.ByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u := domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleManager,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return err
	}
	s.log.Info("default_manager_created", map[string]any{"username": username, "user_id": u.ID})
	return nil
}

func (s *Service) record(ctx context.Context, caller *domain.Caller, action, resource, outcome string, detail map[string]any) {
	actorID, actorRole := audit.Actor(caller)
	s.audit.Record(ctx, audit.Event{
		ActorID:   actorID,
		ActorRole: actorRole,
		Action:    action,
		Resource:  resource,
		Outcome:   outcome,
		Detail:    detail,
	})
}

func (s *Service) recordDenied(ctx context.Context, caller *domain.Caller, action, resource string, detail map[string]any) {
	s.record(ctx, caller, action, resource, audit.OutcomeDenied, detail)
}
