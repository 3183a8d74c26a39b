package orders

import (
	"context"
	"fmt"
	"time"

	"restaurant-orders/internal/access"
	"restaurant-orders/internal/audit"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/logger"
)

type CreateOrderItem struct {
	MenuItem int64  `json:"menu_item"`
	Quantity int    `json:"quantity"`
	Comment  string `json:"comment"`
}

type CreateOrderRequest struct {
	// Status is accepted for wire compatibility but always overridden:
	// a new order starts at "new" no matter what the client sends.
	Status      string            `json:"status"`
	TableNumber *string           `json:"table_number"`
	Notes       *string           `json:"notes"`
	Items       []CreateOrderItem `json:"items"`
}

type UpdateOrderRequest struct {
	Status      *string `json:"status"`
	TableNumber *string `json:"table_number"`
	Notes       *string `json:"notes"`
}

// ListParams are the parsed query constraints for an order listing.
type ListParams struct {
	Status        *domain.OrderStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Ascending     bool
	Limit         int
	Offset        int
}

type Service struct {
	repo  RepositoryInterface
	audit audit.Recorder
	log   *logger.Logger
}

func NewService(repo RepositoryInterface, rec audit.Recorder, log *logger.Logger) *Service {
	return &Service{repo: repo, audit: rec, log: log}
}

// Create opens a new order for the caller. The owner is forced to the
// caller's identity and the status to "new" regardless of the payload.
func (s *Service) Create(ctx context.Context, caller *domain.Caller, req CreateOrderRequest) (domain.Order, error) {
	if caller == nil {
		return domain.Order{}, domain.ErrUnauthorized
	}

	verr := domain.NewValidationError()
	if len(req.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}
	for i, it := range req.Items {
		if it.MenuItem <= 0 {
			verr.Add("items", fmt.Sprintf("item %d: menu_item is required", i))
		}
		if it.Quantity <= 0 {
			verr.Add("items", fmt.Sprintf("item %d: quantity must be positive", i))
		}
	}
	if !verr.Empty() {
		return domain.Order{}, verr
	}

	ownerID := caller.ID
	o := domain.Order{
		UserID:      &ownerID,
		Status:      domain.StatusNew,
		TableNumber: req.TableNumber,
		Notes:       req.Notes,
		Items:       make([]domain.OrderItem, len(req.Items)),
	}
	for i, it := range req.Items {
		o.Items[i] = domain.OrderItem{MenuItemID: it.MenuItem, Quantity: it.Quantity, Comment: it.Comment}
	}

	if err := s.repo.Create(ctx, &o, caller.ID); err != nil {
		return domain.Order{}, err
	}

	s.record(ctx, caller, "order.create", fmt.Sprintf("orders/%d", o.ID), audit.OutcomeOK,
		map[string]any{"items": len(o.Items)})
	return o, nil
}

// List returns the orders visible to the caller: a client sees only their
// own, kitchen sees new/in_progress, everyone else sees all.
func (s *Service) List(ctx context.Context, caller *domain.Caller, p ListParams) ([]domain.Order, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}

	f := ListFilter{
		CreatedAfter:  p.CreatedAfter,
		CreatedBefore: p.CreatedBefore,
		Ascending:     p.Ascending,
		Limit:         p.Limit,
		Offset:        p.Offset,
	}
	switch caller.Role {
	case domain.RoleClient:
		owner := caller.ID
		f.OwnerID = &owner
		if p.Status != nil {
			f.Statuses = []domain.OrderStatus{*p.Status}
		}
	case domain.RoleKitchen:
		visible := []domain.OrderStatus{domain.StatusNew, domain.StatusInProgress}
		if p.Status != nil {
			if *p.Status != domain.StatusNew && *p.Status != domain.StatusInProgress {
				return []domain.Order{}, nil
			}
			visible = []domain.OrderStatus{*p.Status}
		}
		f.Statuses = visible
	default:
		if p.Status != nil {
			f.Statuses = []domain.OrderStatus{*p.Status}
		}
	}

	return s.repo.List(ctx, f)
}

// Get enforces the object-level view rule. A missing order reports
// not-found; an existing order the caller may not see reports forbidden.
func (s *Service) Get(ctx context.Context, caller *domain.Caller, id int64) (domain.Order, error) {
	if caller == nil {
		return domain.Order{}, domain.ErrUnauthorized
	}
	o, err := s.repo.ByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !access.CanViewOrder(caller, o) {
		s.recordDenied(ctx, caller, "order.get", fmt.Sprintf("orders/%d", id))
		return domain.Order{}, domain.ErrForbidden
	}
	return o, nil
}

// Update patches table number and notes for anyone who can view the order.
// A status field in the patch takes the status-change path: manager only,
// with the ledger entry appended in the same transaction as the update.
func (s *Service) Update(ctx context.Context, caller *domain.Caller, id int64, req UpdateOrderRequest) (domain.Order, error) {
	if caller == nil {
		return domain.Order{}, domain.ErrUnauthorized
	}
	o, err := s.repo.ByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !access.CanViewOrder(caller, o) {
		s.recordDenied(ctx, caller, "order.update", fmt.Sprintf("orders/%d", id))
		return domain.Order{}, domain.ErrForbidden
	}

	var hist *domain.StatusChange
	if req.Status != nil {
		if !access.CanModifyOrderStatus(caller) {
			s.recordDenied(ctx, caller, "order.change_status", fmt.Sprintf("orders/%d", id))
			return domain.Order{}, fmt.Errorf("%w: only managers can change order status", domain.ErrForbidden)
		}
		status, err := domain.ParseOrderStatus(*req.Status)
		if err != nil {
			return domain.Order{}, domain.NewValidationError().Add("status", err.Error())
		}
		o.Status = status
		changedBy := caller.ID
		hist = &domain.StatusChange{OrderID: o.ID, Status: status, ChangedBy: &changedBy}
	}
	if req.TableNumber != nil {
		o.TableNumber = req.TableNumber
	}
	if req.Notes != nil {
		o.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, o, hist); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.repo.ByID(ctx, o.ID)
	if err != nil {
		return domain.Order{}, err
	}

	detail := map[string]any{}
	if hist != nil {
		detail["status"] = string(hist.Status)
	}
	s.record(ctx, caller, "order.update", fmt.Sprintf("orders/%d", id), audit.OutcomeOK, detail)
	return updated, nil
}

// ManagerList, KitchenList and WaiterList are the role-specialized views,
// each gated on the exact role and ordered newest-first.
func (s *Service) ManagerList(ctx context.Context, caller *domain.Caller) ([]domain.Order, error) {
	if !access.IsManager(caller) {
		s.recordDenied(ctx, caller, "order.manager_list", "orders")
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, ListFilter{})
}

func (s *Service) KitchenList(ctx context.Context, caller *domain.Caller) ([]domain.Order, error) {
	if !access.IsKitchen(caller) {
		s.recordDenied(ctx, caller, "order.kitchen_list", "orders")
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, ListFilter{
		Statuses: []domain.OrderStatus{domain.StatusNew, domain.StatusInProgress},
	})
}

func (s *Service) WaiterList(ctx context.Context, caller *domain.Caller) ([]domain.Order, error) {
	if !access.IsWaiter(caller) {
		s.recordDenied(ctx, caller, "order.waiter_list", "orders")
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, ListFilter{
		Statuses: []domain.OrderStatus{domain.StatusReady},
	})
}

// Stats returns the count of orders per status currently present.
func (s *Service) Stats(ctx context.Context, caller *domain.Caller) (map[domain.OrderStatus]int, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.StatusCounts(ctx)
}

// History returns the full status ledger for an order, newest-first.
// Any authenticated caller may read it.
func (s *Service) History(ctx context.Context, caller *domain.Caller, orderID int64) ([]domain.StatusChange, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.repo.ByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, orderID)
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
