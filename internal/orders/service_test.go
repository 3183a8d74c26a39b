package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-orders/internal/audit"
	"restaurant-orders/internal/domain"
	"restaurant-orders/internal/logger"
)

// fakeRepo is an in-memory RepositoryInterface for service tests.
type fakeRepo struct {
	orders     map[int64]domain.Order
	history    map[int64][]domain.StatusChange
	nextID     int64
	lastFilter *ListFilter
	listCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:  make(map[int64]domain.Order),
		history: make(map[int64][]domain.StatusChange),
	}
}

func (f *fakeRepo) Create(_ context.Context, o *domain.Order, changedBy int64) error {
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
		o.Items[i].OrderID = o.ID
	}
	f.orders[o.ID] = *o
	f.history[o.ID] = append(f.history[o.ID], domain.StatusChange{
		OrderID: o.ID, Status: o.Status, ChangedBy: &changedBy, ChangedAt: o.CreatedAt,
	})
	return nil
}

func (f *fakeRepo) ByID(_ context.Context, id int64) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]domain.Order, error) {
	f.listCalls++
	f.lastFilter = &filter
	out := make([]domain.Order, 0)
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, o domain.Order, hist *domain.StatusChange) error {
	if _, ok := f.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	f.orders[o.ID] = o
	if hist != nil {
		entry := *hist
		entry.ChangedAt = o.UpdatedAt
		f.history[o.ID] = append([]domain.StatusChange{entry}, f.history[o.ID]...)
	}
	return nil
}

func (f *fakeRepo) StatusCounts(context.Context) (map[domain.OrderStatus]int, error) {
	counts := make(map[domain.OrderStatus]int)
	for _, o := range f.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeRepo) History(_ context.Context, orderID int64) ([]domain.StatusChange, error) {
	return f.history[orderID], nil
}

func newService(repo RepositoryInterface) *Service {
	return NewService(repo, audit.Nop{}, logger.New("test"))
}

func caller(id int64, role domain.Role) *domain.Caller {
	return &domain.Caller{ID: id, Username: "u", Role: role}
}

func TestCreate_ForcesStatusAndOwner(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	ctx := context.Background()

	table := "5"
	o, err := svc.Create(ctx, caller(7, domain.RoleClient), CreateOrderRequest{
		Status:      "delivered", // garbage status must be ignored
		TableNumber: &table,
		Items: []CreateOrderItem{
			{MenuItem: 1, Quantity: 2},
			{MenuItem: 3, Quantity: 1, Comment: "no onions"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != domain.StatusNew {
		t.Errorf("status = %q, want %q", o.Status, domain.StatusNew)
	}
	if o.UserID == nil || *o.UserID != 7 {
		t.Errorf("owner = %v, want 7", o.UserID)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}

	hist := repo.history[o.ID]
	if len(hist) != 1 {
		t.Fatalf("history entries = %d, want 1", len(hist))
	}
	if hist[0].Status != domain.StatusNew {
		t.Errorf("initial history status = %q, want new", hist[0].Status)
	}
	if hist[0].ChangedBy == nil || *hist[0].ChangedBy != 7 {
		t.Errorf("initial history actor = %v, want 7", hist[0].ChangedBy)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(newFakeRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateOrderRequest
		field string
	}{
		{"no items", CreateOrderRequest{}, "items"},
		{"zero quantity", CreateOrderRequest{
			Items: []CreateOrderItem{{MenuItem: 1, Quantity: 0}},
		}, "items"},
		{"missing menu item", CreateOrderRequest{
			Items: []CreateOrderItem{{Quantity: 1}},
		}, "items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, caller(1, domain.RoleClient), tt.req)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected detail for field %q, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestCreate_Anonymous(t *testing.T) {
	svc := newService(newFakeRepo())
	_, err := svc.Create(context.Background(), nil, CreateOrderRequest{
		Items: []CreateOrderItem{{MenuItem: 1, Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestList_RoleScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("client scoped to own orders", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(repo)
		if _, err := svc.List(ctx, caller(7, domain.RoleClient), ListParams{}); err != nil {
			t.Fatal(err)
		}
		if repo.lastFilter.OwnerID == nil || *repo.lastFilter.OwnerID != 7 {
			t.Errorf("owner filter = %v, want 7", repo.lastFilter.OwnerID)
		}
	})

	t.Run("kitchen scoped to active statuses", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(repo)
		if _, err := svc.List(ctx, caller(2, domain.RoleKitchen), ListParams{}); err != nil {
			t.Fatal(err)
		}
		want := []domain.OrderStatus{domain.StatusNew, domain.StatusInProgress}
		got := repo.lastFilter.Statuses
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("status filter = %v, want %v", got, want)
		}
		if repo.lastFilter.OwnerID != nil {
			t.Error("kitchen list must not be owner-scoped")
		}
	})

	t.Run("kitchen with out-of-scope status gets nothing", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(repo)
		status := domain.StatusReady
		out, err := svc.List(ctx, caller(2, domain.RoleKitchen), ListParams{Status: &status})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 0 {
			t.Errorf("expected empty result, got %d orders", len(out))
		}
		if repo.listCalls != 0 {
			t.Error("repository should not be queried for an impossible filter")
		}
	})

	t.Run("manager sees all", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(repo)
		if _, err := svc.List(ctx, caller(1, domain.RoleManager), ListParams{}); err != nil {
			t.Fatal(err)
		}
		if repo.lastFilter.OwnerID != nil || len(repo.lastFilter.Statuses) != 0 {
			t.Errorf("manager list unexpectedly constrained: %+v", repo.lastFilter)
		}
	})
}

func TestGet_NotFoundVersusForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, caller(7, domain.RoleClient), CreateOrderRequest{
		Items: []CreateOrderItem{{MenuItem: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, caller(8, domain.RoleClient), 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing order: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, caller(8, domain.RoleClient), created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign order: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, caller(7, domain.RoleClient), created.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.Get(ctx, caller(1, domain.RoleWaiter), created.ID); err != nil {
		t.Errorf("waiter read failed: %v", err)
	}
}

func TestUpdate_StatusChange(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, caller(7, domain.RoleClient), CreateOrderRequest{
		Items: []CreateOrderItem{{MenuItem: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	status := "ready"
	t.Run("non-manager denied", func(t *testing.T) {
		_, err := svc.Update(ctx, caller(2, domain.RoleKitchen), created.ID, UpdateOrderRequest{Status: &status})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if len(repo.history[created.ID]) != 1 {
			t.Error("denied status change must not append history")
		}
	})

	t.Run("manager appends exactly one ledger entry", func(t *testing.T) {
		updated, err := svc.Update(ctx, caller(3, domain.RoleManager), created.ID, UpdateOrderRequest{Status: &status})
		if err != nil {
			t.Fatal(err)
		}
		if updated.Status != domain.StatusReady {
			t.Errorf("status = %q, want ready", updated.Status)
		}
		hist := repo.history[created.ID]
		if len(hist) != 2 {
			t.Fatalf("history entries = %d, want 2", len(hist))
		}
		newest := hist[0]
		if newest.Status != domain.StatusReady {
			t.Errorf("newest entry status = %q, want ready", newest.Status)
		}
		if newest.ChangedBy == nil || *newest.ChangedBy != 3 {
			t.Errorf("newest entry actor = %v, want 3", newest.ChangedBy)
		}
		if newest.ChangedAt.Before(created.UpdatedAt) {
			t.Error("ledger timestamp must not precede the previous update time")
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		bad := "finished"
		_, err := svc.Update(ctx, caller(3, domain.RoleManager), created.ID, UpdateOrderRequest{Status: &bad})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("notes patch needs no manager and no ledger entry", func(t *testing.T) {
		notes := "window seat"
		before := len(repo.history[created.ID])
		updated, err := svc.Update(ctx, caller(7, domain.RoleClient), created.ID, UpdateOrderRequest{Notes: &notes})
		if err != nil {
			t.Fatal(err)
		}
		if updated.Notes == nil || *updated.Notes != notes {
			t.Errorf("notes = %v, want %q", updated.Notes, notes)
		}
		if len(repo.history[created.ID]) != before {
			t.Error("non-status patch must not append history")
		}
	})
}

func TestRoleSpecializedLists(t *testing.T) {
	ctx := context.Background()

	t.Run("exact role required", func(t *testing.T) {
		svc := newService(newFakeRepo())
		if _, err := svc.ManagerList(ctx, caller(1, domain.RoleWaiter)); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("manager list as waiter: %v", err)
		}
		if _, err := svc.KitchenList(ctx, caller(1, domain.RoleManager)); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("kitchen list as manager: %v", err)
		}
		if _, err := svc.WaiterList(ctx, caller(1, domain.RoleKitchen)); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("waiter list as kitchen: %v", err)
		}
	})

	t.Run("waiter list filters ready", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(repo)
		if _, err := svc.WaiterList(ctx, caller(1, domain.RoleWaiter)); err != nil {
			t.Fatal(err)
		}
		if len(repo.lastFilter.Statuses) != 1 || repo.lastFilter.Statuses[0] != domain.StatusReady {
			t.Errorf("waiter filter = %v, want [ready]", repo.lastFilter.Statuses)
		}
	})

	t.Run("kitchen list filters active", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newService(repo)
		if _, err := svc.KitchenList(ctx, caller(1, domain.RoleKitchen)); err != nil {
			t.Fatal(err)
		}
		got := repo.lastFilter.Statuses
		if len(got) != 2 || got[0] != domain.StatusNew || got[1] != domain.StatusInProgress {
			t.Errorf("kitchen filter = %v", got)
		}
	})
}

func TestStatsAndHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, caller(7, domain.RoleClient), CreateOrderRequest{
		Items: []CreateOrderItem{{MenuItem: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	counts, err := svc.Stats(ctx, caller(7, domain.RoleClient))
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.StatusNew] != 1 {
		t.Errorf("stats[new] = %d, want 1", counts[domain.StatusNew])
	}

	if _, err := svc.History(ctx, nil, created.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous history read: %v", err)
	}
	if _, err := svc.History(ctx, caller(7, domain.RoleClient), 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("history of missing order: %v", err)
	}
	hist, err := svc.History(ctx, caller(7, domain.RoleClient), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Status != domain.StatusNew {
		t.Errorf("history = %+v", hist)
	}
}
