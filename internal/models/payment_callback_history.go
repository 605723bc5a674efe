package models

import (
	"encoding/json"
	"time"
)

type PaymentGateway string

const (
	PaymentGatewayPayTR PaymentGateway = "paytr"
)

// PaymentCallbackHistory is an append-only audit row for every webhook
// delivery the callback endpoint receives, including forged and
// duplicate ones. The Realtime Database keeps only the final state;
// this table keeps the evidence.
type PaymentCallbackHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	MerchantOid    string          `gorm:"type:varchar(100);index" json:"merchant_oid"`
	Status         string          `gorm:"type:varchar(50)" json:"status"`
	Outcome        string          `gorm:"type:varchar(50)" json:"outcome"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}
