package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"isilan_app_echo/internal/models"
)

const defaultPendingPaymentMaxAgeHours = 24

// ExpireStalePendingPaymentsTaskDef fails pending payments the gateway
// never called back about (abandoned iframes, expired sessions). It
// reuses the conditional transition, so it can never race a late
// callback into a double write.
type ExpireStalePendingPaymentsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *ExpireStalePendingPaymentsTaskDef) TaskID() string {
	return "expire_stale_pending_payments"
}

// HandleExecution times out pending payments older than max_age_hours
// (default 24).
func (t *ExpireStalePendingPaymentsTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	maxAgeHours := float64(defaultPendingPaymentMaxAgeHours)
	if v, ok := task.Arguments["max_age_hours"].(float64); ok && v > 0 {
		maxAgeHours = v
	}

	payments, err := deps.Store.ListPendingPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	now := time.Now()
	cutoff := now.Add(-time.Duration(maxAgeHours * float64(time.Hour))).UnixMilli()
	nowMillis := now.UnixMilli()
	expired := 0
	skipped := 0

	for key, payment := range payments {
		if payment.CreatedAt == 0 || payment.CreatedAt > cutoff {
			skipped++
			continue
		}
		applied, err := deps.Store.TransitionPendingPayment(ctx, key, map[string]interface{}{
			"status":        string(models.PaymentStatusFailed),
			"failedAt":      nowMillis,
			"failureReason": "payment timed out",
			"failureCode":   "timeout",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to expire pending payment %s: %w", key, err)
		}
		if !applied {
			// finalized by a callback between listing and transition
			skipped++
			continue
		}
		log.Printf("[Task: expire_stale_pending_payments] Timed out payment %s", key)
		expired++
	}

	return map[string]interface{}{
		"status":  "success",
		"scanned": len(payments),
		"expired": expired,
		"skipped": skipped,
	}, nil
}

// ExpireStalePendingPaymentsTask is the singleton instance of ExpireStalePendingPaymentsTaskDef
var ExpireStalePendingPaymentsTask = &ExpireStalePendingPaymentsTaskDef{}
