package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleWorker:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Status is the lifecycle state of a group order. Every status is directly
// settable by the owning admin; there is no enforced ordering between them.
type Status string

const (
	StatusOpen           Status = "open"
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusCompleted      Status = "completed"
	StatusOutForDelivery Status = "outForDelivery"
	StatusArrived        Status = "arrived"
)

// AssignableStatuses are the states an admin may move an order to.
var AssignableStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected,
	StatusCompleted, StatusOutForDelivery, StatusArrived,
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusPending, StatusApproved, StatusRejected,
		StatusCompleted, StatusOutForDelivery, StatusArrived:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Participant is a registered admin or worker. The role never changes after
// registration. UUID is the external-facing identifier; TelegramID is the
// transport identity.
type Participant struct {
	TelegramID int64
	Role       Role
	Name       string
	Phone      string
	UUID       string
	CompanyID  *int64
}

type Company struct {
	ID      int64
	Name    string
	AdminID int64
}

type Restaurant struct {
	ID      int64
	Name    string
	AdminID int64
}

type MenuItem struct {
	ID           int64
	RestaurantID int64
	Name         string
	PriceCents   int64
}

// GroupOrder is the shared order container. GroupID is the user-visible
// identifier (GO-<unix millis>); ID is the database key.
type GroupOrder struct {
	ID           int64
	GroupID      string
	RestaurantID int64
	Status       Status
	CreatedAt    time.Time
}

// OrderLine is one worker's (menu item, quantity) contribution. All lines of
// an (order, worker) pair are paid or unpaid together; PaidAt is set exactly
// when Paid flips to true and cleared when it flips back.
type OrderLine struct {
	ID         int64
	OrderID    int64
	GroupID    string
	MenuItemID int64
	WorkerID   int64
	Quantity   int
	Paid       bool
	PaidAt     *time.Time
}
