package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"isilan_app_echo/internal/models"
)

var (
	ErrUnknownPackage = errors.New("unknown payment package")
	ErrJobNotFound    = errors.New("job not found")
	ErrNotJobOwner    = errors.New("job belongs to another user")
)

// CallbackOutcome classifies how a gateway callback was handled. The
// HTTP layer maps each outcome to the response body PayTR expects.
type CallbackOutcome string

const (
	// CallbackHashMismatch: the message failed authenticity verification.
	// No store access happened.
	CallbackHashMismatch CallbackOutcome = "hash_mismatch"
	// CallbackPaymentNotFound: no pending payment exists for the order id.
	CallbackPaymentNotFound CallbackOutcome = "payment_not_found"
	// CallbackAmountMismatch: the confirmed amount is below the price
	// recorded at purchase time. No transition happened.
	CallbackAmountMismatch CallbackOutcome = "amount_mismatch"
	// CallbackCompleted: the success transition was applied.
	CallbackCompleted CallbackOutcome = "completed"
	// CallbackFailed: the failure transition was applied.
	CallbackFailed CallbackOutcome = "failed"
	// CallbackDuplicate: the record was already terminal; nothing was
	// reapplied. Answered 200 OK so the gateway stops redelivering.
	CallbackDuplicate CallbackOutcome = "duplicate"
)

// PaymentService owns the boost-purchase flow: initiating payments at
// the gateway and applying the state transition its callback reports.
type PaymentService struct {
	store Store
	paytr *PayTRClient
	email *EmailService
	now   func() time.Time
}

func NewPaymentService(store Store, paytr *PayTRClient, email *EmailService) *PaymentService {
	return &PaymentService{
		store: store,
		paytr: paytr,
		email: email,
		now:   time.Now,
	}
}

// InitiatePaymentInput is what the boost-purchase endpoint collects
// from the authenticated user.
type InitiatePaymentInput struct {
	JobID       string
	PackageID   string
	UserID      string
	Email       string
	UserName    string
	UserPhone   string
	UserAddress string
	UserIP      string
}

// InitiatePaymentResult carries the iframe token the frontend embeds.
type InitiatePaymentResult struct {
	Token       string  `json:"token"`
	MerchantOid string  `json:"merchantOid"`
	Amount      float64 `json:"amount"`
}

// InitiatePayment validates the purchase, records the pending payment
// under its sanitized order id, and requests an iframe token from
// PayTR. The record is written before the gateway call so the callback
// can never arrive for an order we do not know.
func (s *PaymentService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	pkg, ok := models.PackageByID(input.PackageID)
	if !ok {
		return nil, ErrUnknownPackage
	}

	job, err := s.store.GetJob(ctx, input.JobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.UserID != "" && job.UserID != input.UserID {
		return nil, ErrNotJobOwner
	}

	// PayTR requires an alphanumeric merchant_oid, and the same string
	// doubles as the store key, so it is built sanitized from the start.
	merchantOid := SanitizeMerchantOid(input.JobID) + strings.ReplaceAll(uuid.NewString(), "-", "")

	now := s.now()
	payment := &models.PendingPayment{
		JobID:          input.JobID,
		PackageID:      pkg.ID,
		Amount:         pkg.Price,
		ExpectedAmount: pkg.PriceKurus(),
		Status:         models.PaymentStatusPending,
		Email:          input.Email,
		MerchantOid:    merchantOid,
		CreatedAt:      now.UnixMilli(),
	}
	if err := s.store.SavePendingPayment(ctx, merchantOid, payment); err != nil {
		return nil, err
	}

	basketItem := fmt.Sprintf("%s - İlan: %s", pkg.Name, input.JobID)
	basket, err := json.Marshal([][]interface{}{{basketItem, pkg.Price, 1}})
	if err != nil {
		return nil, fmt.Errorf("failed to build basket: %w", err)
	}

	tokenResp, err := s.paytr.GetToken(ctx, TokenRequest{
		MerchantOid:   merchantOid,
		Email:         input.Email,
		PaymentAmount: pkg.PriceKurus(),
		UserBasket:    string(basket),
		UserName:      input.UserName,
		UserAddress:   input.UserAddress,
		UserPhone:     input.UserPhone,
		UserIP:        input.UserIP,
	})
	if err != nil {
		return nil, err
	}

	return &InitiatePaymentResult{
		Token:       tokenResp.Token,
		MerchantOid: merchantOid,
		Amount:      pkg.Price,
	}, nil
}

// GetPaymentStatus returns the pending payment for a merchant order id,
// or nil when none exists. The success page polls this.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, merchantOid string) (*models.PendingPayment, error) {
	return s.store.GetPendingPayment(ctx, SanitizeMerchantOid(merchantOid))
}

// HandleCallback applies the PayTR callback to the store. Order of
// operations: authenticity first (a forged message never touches the
// store), then lookup, then the guarded transition, then the job
// premium update. The transition runs in a store transaction that only
// fires while the record is still pending, so redeliveries are applied
// at most once.
func (s *PaymentService) HandleCallback(ctx context.Context, msg *models.CallbackMessage) (CallbackOutcome, error) {
	if !s.paytr.VerifyCallback(msg) {
		log.Printf("PayTR callback hash verification failed for oid %q", msg.MerchantOid)
		return CallbackHashMismatch, nil
	}

	key := SanitizeMerchantOid(msg.MerchantOid)
	payment, err := s.store.GetPendingPayment(ctx, key)
	if err != nil {
		return "", err
	}
	if payment == nil {
		log.Printf("PayTR callback for unknown order id %q", msg.MerchantOid)
		return CallbackPaymentNotFound, nil
	}

	now := s.now().UnixMilli()

	if !msg.Success() {
		applied, err := s.store.TransitionPendingPayment(ctx, key, map[string]interface{}{
			"status":        string(models.PaymentStatusFailed),
			"failedAt":      now,
			"failureReason": msg.FailedReasonMsg,
			"failureCode":   msg.FailedReasonCode,
		})
		if err != nil {
			return "", err
		}
		if !applied {
			return CallbackDuplicate, nil
		}
		log.Printf("Payment %s failed: %s (%s)", key, msg.FailedReasonMsg, msg.FailedReasonCode)
		return CallbackFailed, nil
	}

	total, err := strconv.ParseInt(msg.TotalAmount, 10, 64)
	if err != nil || (payment.ExpectedAmount > 0 && total < payment.ExpectedAmount) {
		log.Printf("PayTR callback amount mismatch for %s: got %q, expected %d kurus", key, msg.TotalAmount, payment.ExpectedAmount)
		return CallbackAmountMismatch, nil
	}

	pkg, ok := models.PackageByID(payment.PackageID)
	if !ok {
		// Upstream data error: the money moved but the package is not in
		// the catalog. Leave the record pending for manual repair instead
		// of guessing a duration.
		return "", fmt.Errorf("pending payment %s references %w: %q", key, ErrUnknownPackage, payment.PackageID)
	}

	applied, err := s.store.TransitionPendingPayment(ctx, key, map[string]interface{}{
		"status":      string(models.PaymentStatusCompleted),
		"completedAt": now,
		"paymentDetails": &models.PaymentDetails{
			TotalAmount: msg.TotalAmount,
			PaymentType: msg.PaymentType,
			Currency:    msg.Currency,
			TestMode:    msg.TestMode,
		},
	})
	if err != nil {
		return "", err
	}
	if !applied {
		return CallbackDuplicate, nil
	}

	if err := s.activatePremium(ctx, payment, pkg, now); err != nil {
		return "", err
	}

	s.sendConfirmationEmail(payment, pkg)

	return CallbackCompleted, nil
}

// activatePremium sets the boost window on the referenced job. A
// missing job is skipped, not failed: the payment record must be
// finalized either way.
func (s *PaymentService) activatePremium(ctx context.Context, payment *models.PendingPayment, pkg models.PaymentPackage, nowMillis int64) error {
	job, err := s.store.GetJob(ctx, payment.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		log.Printf("Completed payment %s references missing job %q, skipping premium update", payment.MerchantOid, payment.JobID)
		return nil
	}

	endDate := nowMillis + int64(pkg.DurationDays)*models.DayMillis
	if err := s.store.UpdateJob(ctx, payment.JobID, map[string]interface{}{
		"isPremium":        true,
		"premiumStartDate": nowMillis,
		"premiumEndDate":   endDate,
		"premiumPackage":   pkg.ID,
		"updatedAt":        nowMillis,
	}); err != nil {
		return err
	}

	log.Printf("Job %s boosted with package %s until %d", payment.JobID, pkg.ID, endDate)
	return nil
}

func (s *PaymentService) sendConfirmationEmail(payment *models.PendingPayment, pkg models.PaymentPackage) {
	if s.email == nil || !s.email.Configured() || payment.Email == "" {
		return
	}

	subject := "Ödemeniz alındı - ilanınız öne çıkarıldı"
	body := fmt.Sprintf("Merhaba,\n\n%s paketiniz için ödemeniz alındı. İlanınız %d gün boyunca öne çıkarılacak.\n\nİyi günler dileriz.",
		pkg.Name, pkg.DurationDays)

	if err := s.email.SendEmail([]string{payment.Email}, subject, body); err != nil {
		log.Printf("Failed to send payment confirmation for %s: %v", payment.MerchantOid, err)
	}
}
