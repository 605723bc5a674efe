package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isilan_app_echo/internal/config"
	"isilan_app_echo/internal/models"
	"isilan_app_echo/internal/testutil"
)

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestPaymentService(store Store) *PaymentService {
	svc := NewPaymentService(store, testPayTRClient(), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func seedPendingPayment(store *testutil.FakeStore) {
	store.Payments["job1abc"] = &models.PendingPayment{
		JobID:          "job1",
		PackageID:      "weekly",
		Amount:         29.99,
		ExpectedAmount: 2999,
		Status:         models.PaymentStatusPending,
		MerchantOid:    "job1abc",
		CreatedAt:      fixedNow.Add(-10 * time.Minute).UnixMilli(),
	}
	store.Jobs["job1"] = &models.Job{
		UserID: "user1",
		Title:  "Garson aranıyor",
		Status: models.JobStatusActive,
	}
}

func successMessage(client *PayTRClient) *models.CallbackMessage {
	msg := &models.CallbackMessage{
		MerchantOid: "job1-abc!", // sanitizes to the stored key
		Status:      "success",
		TotalAmount: "2999",
		PaymentType: "card",
		Currency:    "TL",
		TestMode:    "1",
	}
	msg.Hash = client.CallbackHash(msg.MerchantOid, msg.Status, msg.TotalAmount)
	return msg
}

func TestHandleCallbackSuccess(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	svc := newTestPaymentService(store)

	outcome, err := svc.HandleCallback(context.Background(), successMessage(svc.paytr))
	require.NoError(t, err)
	assert.Equal(t, CallbackCompleted, outcome)

	payment := store.Payments["job1abc"]
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, fixedNow.UnixMilli(), payment.CompletedAt)
	require.NotNil(t, payment.PaymentDetails)
	assert.Equal(t, "2999", payment.PaymentDetails.TotalAmount)
	assert.Equal(t, "card", payment.PaymentDetails.PaymentType)

	job := store.Jobs["job1"]
	assert.True(t, job.IsPremium)
	assert.Equal(t, "weekly", job.PremiumPackage)
	assert.Equal(t, fixedNow.UnixMilli(), job.PremiumStartDate)
	assert.Equal(t, int64(7*models.DayMillis), job.PremiumEndDate-job.PremiumStartDate)
	assert.Equal(t, fixedNow.UnixMilli(), job.UpdatedAt)
}

func TestHandleCallbackPackageDurations(t *testing.T) {
	tests := []struct {
		packageID string
		days      int64
	}{
		{packageID: "daily", days: 1},
		{packageID: "weekly", days: 7},
		{packageID: "monthly", days: 30},
	}

	for _, tt := range tests {
		t.Run(tt.packageID, func(t *testing.T) {
			store := testutil.NewFakeStore()
			seedPendingPayment(store)
			store.Payments["job1abc"].PackageID = tt.packageID
			svc := newTestPaymentService(store)

			outcome, err := svc.HandleCallback(context.Background(), successMessage(svc.paytr))
			require.NoError(t, err)
			require.Equal(t, CallbackCompleted, outcome)

			job := store.Jobs["job1"]
			assert.Equal(t, tt.days*models.DayMillis, job.PremiumEndDate-job.PremiumStartDate)
		})
	}
}

func TestHandleCallbackFailure(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	svc := newTestPaymentService(store)

	msg := &models.CallbackMessage{
		MerchantOid:      "job1abc",
		Status:           "failed",
		TotalAmount:      "2999",
		FailedReasonCode: "51",
		FailedReasonMsg:  "Yetersiz bakiye",
	}
	msg.Hash = svc.paytr.CallbackHash(msg.MerchantOid, msg.Status, msg.TotalAmount)

	outcome, err := svc.HandleCallback(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, CallbackFailed, outcome)

	payment := store.Payments["job1abc"]
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "Yetersiz bakiye", payment.FailureReason)
	assert.Equal(t, "51", payment.FailureCode)
	assert.Equal(t, fixedNow.UnixMilli(), payment.FailedAt)

	// the job is untouched on a failed payment
	assert.Zero(t, store.Calls["GetJob"])
	assert.Zero(t, store.Calls["UpdateJob"])
	assert.False(t, store.Jobs["job1"].IsPremium)
}

func TestHandleCallbackHashMismatchSkipsStore(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	svc := newTestPaymentService(store)

	msg := successMessage(svc.paytr)
	msg.Hash = "forged-hash"

	outcome, err := svc.HandleCallback(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, CallbackHashMismatch, outcome)

	// fail closed: a forged message must never reach the store
	assert.Zero(t, store.TotalCalls())
	assert.Equal(t, models.PaymentStatusPending, store.Payments["job1abc"].Status)
}

func TestHandleCallbackPaymentNotFound(t *testing.T) {
	store := testutil.NewFakeStore()
	svc := newTestPaymentService(store)

	outcome, err := svc.HandleCallback(context.Background(), successMessage(svc.paytr))
	require.NoError(t, err)
	assert.Equal(t, CallbackPaymentNotFound, outcome)
	assert.Zero(t, store.Calls["TransitionPendingPayment"])
}

func TestHandleCallbackReplayIsIdempotent(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	svc := newTestPaymentService(store)
	msg := successMessage(svc.paytr)

	outcome, err := svc.HandleCallback(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, CallbackCompleted, outcome)

	firstStart := store.Jobs["job1"].PremiumStartDate
	firstEnd := store.Jobs["job1"].PremiumEndDate

	// the gateway redelivers an hour later
	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	outcome, err = svc.HandleCallback(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, CallbackDuplicate, outcome)

	// premium window must not be re-stamped
	assert.Equal(t, firstStart, store.Jobs["job1"].PremiumStartDate)
	assert.Equal(t, firstEnd, store.Jobs["job1"].PremiumEndDate)
	assert.Len(t, store.JobUpdates["job1"], 1)
	assert.Equal(t, models.PaymentStatusCompleted, store.Payments["job1abc"].Status)
}

func TestHandleCallbackAmountMismatch(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	svc := newTestPaymentService(store)

	msg := &models.CallbackMessage{
		MerchantOid: "job1abc",
		Status:      "success",
		TotalAmount: "100", // expected 2999 kurus
	}
	msg.Hash = svc.paytr.CallbackHash(msg.MerchantOid, msg.Status, msg.TotalAmount)

	outcome, err := svc.HandleCallback(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, CallbackAmountMismatch, outcome)

	assert.Zero(t, store.Calls["TransitionPendingPayment"])
	assert.Equal(t, models.PaymentStatusPending, store.Payments["job1abc"].Status)
}

func TestHandleCallbackUnknownPackage(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	store.Payments["job1abc"].PackageID = "yearly"
	svc := newTestPaymentService(store)

	_, err := svc.HandleCallback(context.Background(), successMessage(svc.paytr))
	require.ErrorIs(t, err, ErrUnknownPackage)

	// record stays pending for manual repair, nothing was applied
	assert.Equal(t, models.PaymentStatusPending, store.Payments["job1abc"].Status)
	assert.Zero(t, store.Calls["UpdateJob"])
}

func TestHandleCallbackMissingJobStillFinalizes(t *testing.T) {
	store := testutil.NewFakeStore()
	seedPendingPayment(store)
	delete(store.Jobs, "job1")
	svc := newTestPaymentService(store)

	outcome, err := svc.HandleCallback(context.Background(), successMessage(svc.paytr))
	require.NoError(t, err)
	assert.Equal(t, CallbackCompleted, outcome)
	assert.Equal(t, models.PaymentStatusCompleted, store.Payments["job1abc"].Status)
}

func newGatewayStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("gateway received unparsable form: %v", err)
		}
		for _, field := range []string{"merchant_id", "merchant_oid", "paytr_token", "payment_amount"} {
			if r.FormValue(field) == "" {
				t.Errorf("gateway request missing %s", field)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestInitiatePayment(t *testing.T) {
	gateway := newGatewayStub(t, `{"status":"success","token":"tok123"}`)
	defer gateway.Close()

	store := testutil.NewFakeStore()
	store.Jobs["job-9"] = &models.Job{UserID: "user1", Title: "Aşçı aranıyor"}

	svc := NewPaymentService(store, NewPayTRClient(&config.Config{
		PayTRMerchantID:   "123456",
		PayTRMerchantKey:  "test-merchant-key",
		PayTRMerchantSalt: "test-merchant-salt",
		PayTRAPIURL:       gateway.URL,
		PayTROkURL:        "https://example.com/ok",
		PayTRFailURL:      "https://example.com/fail",
	}), nil)
	svc.now = func() time.Time { return fixedNow }

	result, err := svc.InitiatePayment(context.Background(), InitiatePaymentInput{
		JobID:     "job-9",
		PackageID: "weekly",
		UserID:    "user1",
		Email:     "user@example.com",
		UserIP:    "85.100.1.1",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok123", result.Token)
	assert.Equal(t, 29.99, result.Amount)

	// merchant oid doubles as the store key, so it is born sanitized
	assert.Regexp(t, regexp.MustCompile(`^job9[0-9a-f]{32}$`), result.MerchantOid)

	payment := store.Payments[result.MerchantOid]
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "job-9", payment.JobID)
	assert.Equal(t, int64(2999), payment.ExpectedAmount)
	assert.Equal(t, fixedNow.UnixMilli(), payment.CreatedAt)
}

func TestInitiatePaymentValidation(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Jobs["job-9"] = &models.Job{UserID: "user1"}
	svc := newTestPaymentService(store)

	tests := []struct {
		name    string
		input   InitiatePaymentInput
		wantErr error
	}{
		{
			name:    "unknown package",
			input:   InitiatePaymentInput{JobID: "job-9", PackageID: "yearly", UserID: "user1"},
			wantErr: ErrUnknownPackage,
		},
		{
			name:    "job not found",
			input:   InitiatePaymentInput{JobID: "nope", PackageID: "weekly", UserID: "user1"},
			wantErr: ErrJobNotFound,
		},
		{
			name:    "not the owner",
			input:   InitiatePaymentInput{JobID: "job-9", PackageID: "weekly", UserID: "user2"},
			wantErr: ErrNotJobOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.InitiatePayment(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.Calls["SavePendingPayment"])
		})
	}
}
