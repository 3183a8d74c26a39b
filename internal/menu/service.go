package menu

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"restaurant-orders/internal/access"
	"restaurant-orders/internal/audit"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/logger"
)

type CreateItemRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Available   *bool            `json:"available"`
	CategoryID  *int64           `json:"category_id"`
	ImageURL    *string          `json:"image_url"`
}

type UpdateItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Available   *bool            `json:"available"`
	CategoryID  *int64           `json:"category_id"`
	ImageURL    *string          `json:"image_url"`
}

type Service struct {
	repo  RepositoryInterface
	audit audit.Recorder
	log   *logger.Logger
}

func NewService(repo RepositoryInterface, rec audit.Recorder, log *logger.Logger) *Service {
	return &Service{repo: repo, audit: rec, log: log}
}

// ListItems is open to any caller, authenticated or not.
func (s *Service) ListItems(ctx context.Context, f ItemFilter) ([]domain.MenuItem, error) {
	return s.repo.ListItems(ctx, f)
}

func (s *Service) GetItem(ctx context.Context, id int64) (domain.MenuItem, error) {
	return s.repo.ItemByID(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, caller *domain.Caller, req CreateItemRequest) (domain.MenuItem, error) {
	if !access.IsManagerOrReadOnly(caller, true) {
		s.recordDenied(ctx, caller, "menu.create", "menu/items")
		return domain.MenuItem{}, domain.ErrForbidden
	}
	if err := validateItem(req.Name, req.Price, true); err != nil {
		return domain.MenuItem{}, err
	}

	item := domain.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Available:   true,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if err := s.repo.CreateItem(ctx, &item); err != nil {
		return domain.MenuItem{}, err
	}

	s.record(ctx, caller, "menu.create", fmt.Sprintf("menu/items/%d", item.ID), audit.OutcomeOK,
		map[string]any{"name": item.Name})
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, caller *domain.Caller, id int64, req UpdateItemRequest) (domain.MenuItem, error) {
	if !access.IsManagerOrReadOnly(caller, true) {
		s.recordDenied(ctx, caller, "menu.update", fmt.Sprintf("menu/items/%d", id))
		return domain.MenuItem{}, domain.ErrForbidden
	}

	item, err := s.repo.ItemByID(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.CategoryID != nil {
		item.CategoryID = req.CategoryID
	}
	if req.ImageURL != nil {
		item.ImageURL = req.ImageURL
	}
	if err := validateItem(item.Name, &item.Price, false); err != nil {
		return domain.MenuItem{}, err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return domain.MenuItem{}, err
	}

	s.record(ctx, caller, "menu.update", fmt.Sprintf("menu/items/%d", id), audit.OutcomeOK, nil)
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, caller *domain.Caller, id int64) error {
	if !access.IsManagerOrReadOnly(caller, true) {
		s.recordDenied(ctx, caller, "menu.delete", fmt.Sprintf("menu/items/%d", id))
		return domain.ErrForbidden
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.record(ctx, caller, "menu.delete", fmt.Sprintf("menu/items/%d", id), audit.OutcomeOK, nil)
	return nil
}

// ToggleAvailability flips the availability flag; manager or kitchen only.
// A missing item reports not-found, distinct from an authorization failure.
func (s *Service) ToggleAvailability(ctx context.Context, caller *domain.Caller, id int64) (bool, error) {
	if !access.IsManagerOrKitchen(caller) {
		s.recordDenied(ctx, caller, "menu.toggle_availability", fmt.Sprintf("menu/items/%d", id))
		return false, domain.ErrForbidden
	}
	available, err := s.repo.ToggleAvailability(ctx, id)
	if err != nil {
		return false, err
	}
	s.record(ctx, caller, "menu.toggle_availability", fmt.Sprintf("menu/items/%d", id), audit.OutcomeOK,
		map[string]any{"available": available})
	return available, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.MenuCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, caller *domain.Caller, name string) (domain.MenuCategory, error) {
	if !access.IsManagerOrReadOnly(caller, true) {
		s.recordDenied(ctx, caller, "menu.create_category", "menu/categories")
		return domain.MenuCategory{}, domain.ErrForbidden
	}
	if name == "" {
		return domain.MenuCategory{}, domain.NewValidationError().Add("name", "required")
	}
	c := domain.MenuCategory{Name: name}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return domain.MenuCategory{}, err
	}
	s.record(ctx, caller, "menu.create_category", fmt.Sprintf("menu/categories/%d", c.ID), audit.OutcomeOK,
		map[string]any{"name": name})
	return c, nil
}

func validateItem(name string, price *decimal.Decimal, creating bool) error {
	verr := domain.NewValidationError()
	if name == "" {
		verr.Add("name", "required")
	}
	if price == nil {
		if creating {
			verr.Add("price", "required")
		}
	} else if price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if !verr.Empty() {
		return verr
	}
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

func (s *Service) recordDenied(ctx context.Context, caller *domain.Caller, action, resource string) {
	s.record(ctx, caller, action, resource, audit.OutcomeDenied, nil)
}
