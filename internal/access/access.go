// Package access centralizes the role predicates that gate every operation.
// Handlers and services never compare role strings directly.
package access

import "restaurant-orders/internal/domain"

// IsAuthenticated reports whether the request carries a valid caller.
func IsAuthenticated(c *domain.Caller) bool { return c != nil }

func IsManager(c *domain.Caller) bool {
	return c != nil && c.Role == domain.RoleManager
}

func IsKitchen(c *domain.Caller) bool {
	return c != nil && c.Role == domain.RoleKitchen
}

func IsWaiter(c *domain.Caller) bool {
	return c != nil && c.Role == domain.RoleWaiter
}

// IsManagerOrReadOnly allows reads for anyone and mutations for managers only.
func IsManagerOrReadOnly(c *domain.Caller, mutating bool) bool {
	if !mutating {
		return true
	}
	return IsManager(c)
}

func IsManagerOrKitchen(c *domain.Caller) bool {
	return c != nil && (c.Role == domain.RoleManager || c.Role == domain.RoleKitchen)
}

// CanViewOrder is the object-level check: staff roles see any order,
// a client sees only an order they own.
func CanViewOrder(c *domain.Caller, o domain.Order) bool {
	if c == nil {
		return false
	}
	switch c.Role {
	case domain.RoleManager, domain.RoleKitchen, domain.RoleWaiter:
		return true
	}
	return o.UserID != nil && *o.UserID == c.ID
}

// CanModifyOrderStatus gates the status-change path, not full order edits.
func CanModifyOrderStatus(c *domain.Caller) bool {
	return IsManager(c)
}
