package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"firebase.google.com/go/v4/db"

	"isilan_app_echo/internal/models"
)

const (
	pendingPaymentsPath = "pending_payments"
	jobsPath            = "jobs"
)

// errNotPending aborts a transition transaction when the record has
// already reached a terminal status.
var errNotPending = errors.New("pending payment is not in pending status")

// errPaymentVanished aborts a transition transaction when the record
// disappeared between lookup and write.
var errPaymentVanished = errors.New("pending payment no longer exists")

// Store is the narrow view of the Realtime Database the payment flow
// and the worker need. Handlers and services depend on this interface
// so tests can count and stub store calls.
type Store interface {
	GetPendingPayment(ctx context.Context, key string) (*models.PendingPayment, error)
	SavePendingPayment(ctx context.Context, key string, payment *models.PendingPayment) error
	// TransitionPendingPayment applies updates only while the record's
	// status is still "pending". It returns false with no error when the
	// record was already finalized, so duplicate gateway deliveries are
	// answered idempotently.
	TransitionPendingPayment(ctx context.Context, key string, updates map[string]interface{}) (bool, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	UpdateJob(ctx context.Context, jobID string, updates map[string]interface{}) error
	ListPremiumJobs(ctx context.Context) ([]models.Job, error)
	ListPendingPayments(ctx context.Context) (map[string]models.PendingPayment, error)
}

// FirebaseStore implements Store on top of the Realtime Database.
type FirebaseStore struct {
	db *db.Client
}

func NewFirebaseStore(client *db.Client) *FirebaseStore {
	return &FirebaseStore{db: client}
}

// getInto reads a ref and reports whether the node exists. The raw
// round-trip distinguishes an absent node (null) from a zero value.
func (s *FirebaseStore) getInto(ctx context.Context, path string, dest interface{}) (bool, error) {
	var raw json.RawMessage
	if err := s.db.NewRef(path).Get(ctx, &raw); err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

func (s *FirebaseStore) GetPendingPayment(ctx context.Context, key string) (*models.PendingPayment, error) {
	var payment models.PendingPayment
	found, err := s.getInto(ctx, pendingPaymentsPath+"/"+key, &payment)
	if err != nil || !found {
		return nil, err
	}
	return &payment, nil
}

func (s *FirebaseStore) SavePendingPayment(ctx context.Context, key string, payment *models.PendingPayment) error {
	if err := s.db.NewRef(pendingPaymentsPath+"/"+key).Set(ctx, payment); err != nil {
		return fmt.Errorf("failed to save pending payment %s: %w", key, err)
	}
	return nil
}

func (s *FirebaseStore) TransitionPendingPayment(ctx context.Context, key string, updates map[string]interface{}) (bool, error) {
	ref := s.db.NewRef(pendingPaymentsPath + "/" + key)

	err := ref.Transaction(ctx, func(node db.TransactionNode) (interface{}, error) {
		var current map[string]interface{}
		if err := node.Unmarshal(&current); err != nil {
			return nil, err
		}
		if current == nil {
			return nil, errPaymentVanished
		}
		status, _ := current["status"].(string)
		if status != string(models.PaymentStatusPending) {
			return nil, errNotPending
		}
		for k, v := range updates {
			current[k] = v
		}
		return current, nil
	})

	if errors.Is(err, errNotPending) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to transition pending payment %s: %w", key, err)
	}
	return true, nil
}

func (s *FirebaseStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	found, err := s.getInto(ctx, jobsPath+"/"+jobID, &job)
	if err != nil || !found {
		return nil, err
	}
	job.ID = jobID
	return &job, nil
}

func (s *FirebaseStore) UpdateJob(ctx context.Context, jobID string, updates map[string]interface{}) error {
	if err := s.db.NewRef(jobsPath+"/"+jobID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	return nil
}

func (s *FirebaseStore) ListPremiumJobs(ctx context.Context) ([]models.Job, error) {
	var byID map[string]models.Job
	q := s.db.NewRef(jobsPath).OrderByChild("isPremium").EqualTo(true)
	if err := q.Get(ctx, &byID); err != nil {
		return nil, fmt.Errorf("failed to list premium jobs: %w", err)
	}

	jobs := make([]models.Job, 0, len(byID))
	for id, job := range byID {
		job.ID = id
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].PremiumEndDate < jobs[j].PremiumEndDate
	})
	return jobs, nil
}

func (s *FirebaseStore) ListPendingPayments(ctx context.Context) (map[string]models.PendingPayment, error) {
	var byKey map[string]models.PendingPayment
	q := s.db.NewRef(pendingPaymentsPath).OrderByChild("status").EqualTo(string(models.PaymentStatusPending))
	if err := q.Get(ctx, &byKey); err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return byKey, nil
}
