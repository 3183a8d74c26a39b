package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleClient  Role = "client"
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
	RoleManager Role = "manager"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleWaiter, RoleKitchen, RoleManager:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusInProgress OrderStatus = "in_progress"
	StatusReady      OrderStatus = "ready"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusNew, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Caller is the authenticated identity attached to a request context.
type Caller struct {
	ID       int64
	Username string
	Role     Role
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type MenuCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
	CategoryID  *int64          `json:"category_id"`
	ImageURL    *string         `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Order struct {
	ID          int64       `json:"id"`
	UserID      *int64      `json:"user_id"`
	Status      OrderStatus `json:"status"`
	TableNumber *string     `json:"table_number"`
	Notes       *string     `json:"notes"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Items       []OrderItem `json:"items"`
}

type OrderItem struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"-"`
	MenuItemID int64  `json:"menu_item"`
	Quantity   int    `json:"quantity"`
	Comment    string `json:"comment"`
}

// StatusChange is one entry of the append-only status ledger.
// ChangedBy is nil when the acting account was removed later.
type StatusChange struct {
	ID            int64       `json:"id"`
	OrderID       int64       `json:"-"`
	Status        OrderStatus `json:"status"`
	ChangedBy     *int64      `json:"changed_by_id"`
	ChangedByName *string     `json:"changed_by"`
	ChangedAt     time.Time   `json:"changed_at"`
}
