package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	OrderNumber   string               `json:"order_number" gorm:"uniqueIndex;not null"`
	Type          string               `json:"type" gorm:"not null"` // DOORSTEP, AT_PUMP
	Quantity      float64              `json:"quantity" gorm:"not null"`
	CustomerID    uint                 `json:"customer_id" gorm:"not null;index"`
	Customer      *User                `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	AssetID       string               `json:"asset_id"`
	PumpID        string               `json:"pump_id"`
	DriverID      *uint                `json:"driver_id" gorm:"index"`
	Driver        *Driver              `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	PricePerLitre float64              `json:"price_per_litre" gorm:"not null"`
	TotalAmount   float64              `json:"total_amount" gorm:"not null"`
	Status        string               `json:"status" gorm:"default:'PENDING';index"`
	History       []OrderStatusHistory `json:"history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	DeletedAt     gorm.DeletedAt       `json:"deleted_at" gorm:"index"`
}

type OrderType string

const (
	OrderDoorstep OrderType = "DOORSTEP"
	OrderAtPump   OrderType = "AT_PUMP"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderAssigned  OrderStatus = "ASSIGNED"
	OrderInTransit OrderStatus = "IN_TRANSIT"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRejected  OrderStatus = "REJECTED"
)

// transitions is the order state graph. CANCELLED and REJECTED are
// reachable from every non-terminal state; COMPLETED, CANCELLED and
// REJECTED are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderAssigned, OrderCancelled, OrderRejected},
	OrderAssigned:  {OrderInTransit, OrderCancelled, OrderRejected},
	OrderInTransit: {OrderCompleted, OrderCancelled, OrderRejected},
}

// ValidOrderType reports whether s is a known order type.
func ValidOrderType(s string) bool {
	return OrderType(s) == OrderDoorstep || OrderType(s) == OrderAtPump
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderPending, OrderAssigned, OrderInTransit, OrderCompleted, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status OrderStatus) bool {
	return len(transitions[status]) == 0 && ValidOrderStatus(string(status))
}

// TerminalStatuses lists the statuses excluded from the active-order count.
func TerminalStatuses() []string {
	return []string{string(OrderCompleted), string(OrderCancelled), string(OrderRejected)}
}
