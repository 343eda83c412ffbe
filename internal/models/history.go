package models

import "time"

// ActorSystem marks status transitions made by the dispatch worker
// rather than a human user.
const ActorSystem uint = 0

// OrderStatusHistory is an append-only ledger row. It is never updated
// or deleted; the order's current status always equals the status of
// its newest history row.
type OrderStatusHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	Status    string    `json:"status" gorm:"not null"`
	UpdatedBy uint      `json:"updated_by"` // user id, or ActorSystem
	Remarks   string    `json:"remarks"`
	CreatedAt time.Time `json:"created_at"`
}
