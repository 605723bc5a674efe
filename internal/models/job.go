package models

// JobStatus mirrors the lifecycle the listing frontend writes.
type JobStatus string

const (
	JobStatusActive   JobStatus = "active"
	JobStatusInactive JobStatus = "inactive"
	JobStatusExpired  JobStatus = "expired"
)

// Job is a listing stored under jobs/{id} in the Realtime Database.
// Most fields are owned by the listing-management frontend; this
// backend only writes the premium fields after a completed payment.
type Job struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	Title       string    `json:"title,omitempty"`
	Company     string    `json:"company,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Type        string    `json:"type,omitempty"`
	Category    string    `json:"category,omitempty"`
	SubCategory string    `json:"subCategory,omitempty"`
	Salary      string    `json:"salary,omitempty"`
	Status      JobStatus `json:"status,omitempty"`
	CreatedAt   int64     `json:"createdAt,omitempty"`
	UpdatedAt   int64     `json:"updatedAt,omitempty"`

	// Premium boost fields, written by the payment callback handler
	// and cleared by the expiry worker. Timestamps are epoch millis.
	IsPremium        bool   `json:"isPremium,omitempty"`
	PremiumStartDate int64  `json:"premiumStartDate,omitempty"`
	PremiumEndDate   int64  `json:"premiumEndDate,omitempty"`
	PremiumPackage   string `json:"premiumPackage,omitempty"`
}

// PremiumActive reports whether the boost window covers the given time
// (epoch millis).
func (j Job) PremiumActive(nowMillis int64) bool {
	return j.IsPremium && j.PremiumEndDate > nowMillis
}
