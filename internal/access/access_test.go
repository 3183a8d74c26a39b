package access

import (
	"testing"

	"restaurant-orders/internal/domain"
)

func caller(id int64, role domain.Role) *domain.Caller {
	return &domain.Caller{ID: id, Username: "u", Role: role}
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(*domain.Caller) bool
		c    *domain.Caller
		want bool
	}{
		{"manager is manager", IsManager, caller(1, domain.RoleManager), true},
		{"client is not manager", IsManager, caller(1, domain.RoleClient), false},
		{"anonymous is not manager", IsManager, nil, false},
		{"kitchen is kitchen", IsKitchen, caller(1, domain.RoleKitchen), true},
		{"manager is not kitchen", IsKitchen, caller(1, domain.RoleManager), false},
		{"waiter is waiter", IsWaiter, caller(1, domain.RoleWaiter), true},
		{"kitchen passes manager-or-kitchen", IsManagerOrKitchen, caller(1, domain.RoleKitchen), true},
		{"manager passes manager-or-kitchen", IsManagerOrKitchen, caller(1, domain.RoleManager), true},
		{"waiter fails manager-or-kitchen", IsManagerOrKitchen, caller(1, domain.RoleWaiter), false},
		{"anonymous fails manager-or-kitchen", IsManagerOrKitchen, nil, false},
		{"status change is manager only", CanModifyOrderStatus, caller(1, domain.RoleKitchen), false},
		{"manager may change status", CanModifyOrderStatus, caller(1, domain.RoleManager), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsManagerOrReadOnly(t *testing.T) {
	tests := []struct {
		name     string
		c        *domain.Caller
		mutating bool
		want     bool
	}{
		{"anonymous read", nil, false, true},
		{"anonymous write", nil, true, false},
		{"client read", caller(1, domain.RoleClient), false, true},
		{"client write", caller(1, domain.RoleClient), true, false},
		{"kitchen write", caller(1, domain.RoleKitchen), true, false},
		{"manager write", caller(1, domain.RoleManager), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsManagerOrReadOnly(tt.c, tt.mutating); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanViewOrder(t *testing.T) {
	owner := int64(7)
	order := domain.Order{ID: 1, UserID: &owner}
	orphan := domain.Order{ID: 2, UserID: nil}

	tests := []struct {
		name string
		c    *domain.Caller
		o    domain.Order
		want bool
	}{
		{"owner client sees own order", caller(7, domain.RoleClient), order, true},
		{"other client denied", caller(8, domain.RoleClient), order, false},
		{"client denied orphan order", caller(7, domain.RoleClient), orphan, false},
		{"manager sees any order", caller(1, domain.RoleManager), order, true},
		{"kitchen sees any order", caller(1, domain.RoleKitchen), order, true},
		{"waiter sees any order", caller(1, domain.RoleWaiter), order, true},
		{"anonymous denied", nil, order, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewOrder(tt.c, tt.o); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
