package models

// DayMillis is one day expressed in epoch milliseconds, the unit the
// Realtime Database timestamps use.
const DayMillis = 24 * 60 * 60 * 1000

// PaymentStatus is the lifecycle of a pending payment. Once a record
// reaches a terminal status it is never overwritten.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether the status may no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// PaymentDetails captures the gateway fields recorded on a completed
// payment.
type PaymentDetails struct {
	TotalAmount string `json:"total_amount,omitempty"`
	PaymentType string `json:"payment_type,omitempty"`
	Currency    string `json:"currency,omitempty"`
	TestMode    string `json:"test_mode,omitempty"`
}

// PendingPayment lives under pending_payments/{sanitizedOid}. It is
// created by the boost-purchase flow and mutated only by the callback
// handler (and the stale-payment sweeper).
type PendingPayment struct {
	JobID          string        `json:"jobId,omitempty"`
	PackageID      string        `json:"packageId,omitempty"`
	Amount         float64       `json:"amount,omitempty"`         // package price in TL
	ExpectedAmount int64         `json:"expectedAmount,omitempty"` // price in kurus, checked against total_amount
	Status         PaymentStatus `json:"status,omitempty"`
	Email          string        `json:"email,omitempty"`
	MerchantOid    string        `json:"merchantOid,omitempty"`
	CreatedAt      int64         `json:"createdAt,omitempty"`

	CompletedAt    int64           `json:"completedAt,omitempty"`
	PaymentDetails *PaymentDetails `json:"paymentDetails,omitempty"`

	FailedAt      int64  `json:"failedAt,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	FailureCode   string `json:"failureCode,omitempty"`
}

// CallbackMessage is the decoded PayTR webhook body. It is never
// persisted as-is; the audit table keeps the raw form instead.
type CallbackMessage struct {
	MerchantOid      string
	Status           string
	TotalAmount      string
	Hash             string
	FailedReasonCode string
	FailedReasonMsg  string
	TestMode         string
	PaymentType      string
	Currency         string
	PaymentAmount    string
}

// Success reports whether the gateway confirmed the transaction.
// PayTR sends the literal string "success"; every other value is a
// failure notification.
func (m CallbackMessage) Success() bool {
	return m.Status == "success"
}
