package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"isilan_app_echo/internal/models"
	"isilan_app_echo/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
	db       *gorm.DB // optional, callback audit trail
}

func NewPaymentHandler(payments *services.PaymentService, db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{payments: payments, db: db}
}

// PayTRCallback receives the asynchronous payment notification from
// PayTR. The route is registered for every method so the 405 contract
// stays in our hands; the body contract (OK / HASH_VERIFICATION_FAILED
// / PAYMENT_NOT_FOUND) is what the gateway's retry logic keys on.
func (h *PaymentHandler) PayTRCallback(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}

	msg := &models.CallbackMessage{
		MerchantOid:      c.FormValue("merchant_oid"),
		Status:           c.FormValue("status"),
		TotalAmount:      c.FormValue("total_amount"),
		Hash:             c.FormValue("hash"),
		FailedReasonCode: c.FormValue("failed_reason_code"),
		FailedReasonMsg:  c.FormValue("failed_reason_msg"),
		TestMode:         c.FormValue("test_mode"),
		PaymentType:      c.FormValue("payment_type"),
		Currency:         c.FormValue("currency"),
		PaymentAmount:    c.FormValue("payment_amount"),
	}

	outcome, err := h.payments.HandleCallback(c.Request().Context(), msg)
	h.recordCallback(c, msg, outcome, err)

	if err != nil {
		log.Printf("PayTR callback error for oid %q: %v", msg.MerchantOid, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	switch outcome {
	case services.CallbackHashMismatch:
		return c.String(http.StatusBadRequest, "HASH_VERIFICATION_FAILED")
	case services.CallbackPaymentNotFound:
		return c.String(http.StatusNotFound, "PAYMENT_NOT_FOUND")
	case services.CallbackAmountMismatch:
		return c.String(http.StatusBadRequest, "AMOUNT_MISMATCH")
	default:
		// completed, failed and duplicate all answer OK so the gateway
		// stops redelivering.
		return c.String(http.StatusOK, "OK")
	}
}

// recordCallback appends the delivery to the audit table, forged and
// duplicate ones included. Best effort: a broken audit DB must not
// change the gateway response.
func (h *PaymentHandler) recordCallback(c echo.Context, msg *models.CallbackMessage, outcome services.CallbackOutcome, callbackErr error) {
	if h.db == nil {
		return
	}

	if callbackErr != nil {
		outcome = "error"
	}

	form, err := c.FormParams()
	if err != nil {
		log.Printf("Failed to read callback form for audit: %v", err)
		return
	}
	metadata, err := json.Marshal(form)
	if err != nil {
		log.Printf("Failed to encode callback metadata: %v", err)
		return
	}

	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayPayTR,
		MerchantOid:    services.SanitizeMerchantOid(msg.MerchantOid),
		Status:         msg.Status,
		Outcome:        string(outcome),
		Metadata:       metadata,
	}
	if err := h.db.Create(&history).Error; err != nil {
		log.Printf("Failed to record callback history: %v", err)
	}
}

// CreatePayment starts a boost purchase for one of the caller's jobs.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.JobID == "" || req.PackageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "jobId and packageId are required")
	}

	uid, _ := c.Get("userUID").(string)
	email, _ := c.Get("userEmail").(string)
	name, _ := c.Get("userName").(string)

	result, err := h.payments.InitiatePayment(c.Request().Context(), services.InitiatePaymentInput{
		JobID:       req.JobID,
		PackageID:   req.PackageID,
		UserID:      uid,
		Email:       email,
		UserName:    name,
		UserPhone:   req.Phone,
		UserAddress: req.Address,
		UserIP:      c.RealIP(),
	})
	switch {
	case errors.Is(err, services.ErrUnknownPackage):
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown package id")
	case errors.Is(err, services.ErrJobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Job not found")
	case errors.Is(err, services.ErrNotJobOwner):
		return echo.NewHTTPError(http.StatusForbidden, "You can only promote your own listings")
	case err != nil:
		log.Printf("Failed to initiate payment for job %s: %v", req.JobID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to initiate payment")
	}

	return c.JSON(http.StatusOK, result)
}

// PaymentStatus reports whether a purchase reached completed. The
// frontend success page polls this after the iframe closes.
func (h *PaymentHandler) PaymentStatus(c echo.Context) error {
	merchantOid := c.Param("merchantOid")
	if merchantOid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing merchant order id")
	}

	payment, err := h.payments.GetPaymentStatus(c.Request().Context(), merchantOid)
	if err != nil {
		log.Printf("Failed to look up payment %s: %v", merchantOid, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to look up payment")
	}
	if payment == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Payment not found")
	}

	return c.JSON(http.StatusOK, PaymentStatusResponse{
		MerchantOid: payment.MerchantOid,
		Status:      string(payment.Status),
		Completed:   payment.Status == models.PaymentStatusCompleted,
	})
}

// Packages exposes the boost catalog so the promote page renders
// prices from one source of truth.
func (h *PaymentHandler) Packages(c echo.Context) error {
	return c.JSON(http.StatusOK, models.PaymentPackages)
}
