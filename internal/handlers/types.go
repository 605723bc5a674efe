package handlers

// CreatePaymentRequest is the JSON body for starting a boost purchase.
// Identity fields come from the verified token, not the body.
type CreatePaymentRequest struct {
	JobID     string `json:"jobId"`
	PackageID string `json:"packageId"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// PaymentStatusResponse tells the success page where a purchase stands.
type PaymentStatusResponse struct {
	MerchantOid string `json:"merchantOid"`
	Status      string `json:"status"`
	Completed   bool   `json:"completed"`
}
