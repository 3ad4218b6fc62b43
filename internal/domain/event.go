package domain

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionEvent is the append-only audit trail of a transaction's status changes.
// FromStatus is empty for the creation event.
type TransactionEvent struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	TransactionID uint              `gorm:"index;not null" json:"transaction_id"`
	FromStatus    TransactionStatus `gorm:"type:varchar(16)" json:"from_status,omitempty"`
	ToStatus      TransactionStatus `gorm:"type:varchar(16);not null" json:"to_status"`
	Actor         string            `gorm:"type:varchar(64)" json:"actor"`
	Details       datatypes.JSON    `json:"details,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
