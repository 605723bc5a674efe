package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"isilan_app_echo/internal/models"
)

// FakeStore is an in-memory Store used by service and handler tests.
// It counts every call so tests can assert that forged callbacks never
// reach the store.
type FakeStore struct {
	mu sync.Mutex

	Payments map[string]*models.PendingPayment
	Jobs     map[string]*models.Job

	// Calls counts invocations per method name.
	Calls map[string]int
	// JobUpdates records every UpdateJob call per job id.
	JobUpdates map[string][]map[string]interface{}

	// Errs forces a method (by name) to fail.
	Errs map[string]error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		Payments:   make(map[string]*models.PendingPayment),
		Jobs:       make(map[string]*models.Job),
		Calls:      make(map[string]int),
		JobUpdates: make(map[string][]map[string]interface{}),
		Errs:       make(map[string]error),
	}
}

func (s *FakeStore) record(method string) error {
	s.Calls[method]++
	return s.Errs[method]
}

// TotalCalls is the number of store operations across all methods.
func (s *FakeStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.Calls {
		total += n
	}
	return total
}

func (s *FakeStore) GetPendingPayment(ctx context.Context, key string) (*models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GetPendingPayment"); err != nil {
		return nil, err
	}
	payment, ok := s.Payments[key]
	if !ok {
		return nil, nil
	}
	clone := *payment
	return &clone, nil
}

func (s *FakeStore) SavePendingPayment(ctx context.Context, key string, payment *models.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SavePendingPayment"); err != nil {
		return err
	}
	clone := *payment
	s.Payments[key] = &clone
	return nil
}

func (s *FakeStore) TransitionPendingPayment(ctx context.Context, key string, updates map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("TransitionPendingPayment"); err != nil {
		return false, err
	}
	payment, ok := s.Payments[key]
	if !ok {
		return false, fmt.Errorf("pending payment %s does not exist", key)
	}
	if payment.Status != models.PaymentStatusPending {
		return false, nil
	}
	merged, err := mergeStruct(payment, updates)
	if err != nil {
		return false, err
	}
	s.Payments[key] = merged
	return true, nil
}

func (s *FakeStore) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GetJob"); err != nil {
		return nil, err
	}
	job, ok := s.Jobs[jobID]
	if !ok {
		return nil, nil
	}
	clone := *job
	clone.ID = jobID
	return &clone, nil
}

func (s *FakeStore) UpdateJob(ctx context.Context, jobID string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("UpdateJob"); err != nil {
		return err
	}
	job, ok := s.Jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s does not exist", jobID)
	}
	merged, err := mergeStruct(job, updates)
	if err != nil {
		return err
	}
	s.Jobs[jobID] = merged
	s.JobUpdates[jobID] = append(s.JobUpdates[jobID], updates)
	return nil
}

func (s *FakeStore) ListPremiumJobs(ctx context.Context) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListPremiumJobs"); err != nil {
		return nil, err
	}
	var jobs []models.Job
	for id, job := range s.Jobs {
		if job.IsPremium {
			clone := *job
			clone.ID = id
			jobs = append(jobs, clone)
		}
	}
	return jobs, nil
}

func (s *FakeStore) ListPendingPayments(ctx context.Context) (map[string]models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ListPendingPayments"); err != nil {
		return nil, err
	}
	result := make(map[string]models.PendingPayment)
	for key, payment := range s.Payments {
		if payment.Status == models.PaymentStatusPending {
			result[key] = *payment
		}
	}
	return result, nil
}

// mergeStruct applies an update map onto a struct the way a Realtime
// Database update would, via a JSON round-trip.
func mergeStruct[T any](current *T, updates map[string]interface{}) (*T, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, err
	}
	for k, v := range updates {
		asMap[k] = v
	}
	merged, err := json.Marshal(asMap)
	if err != nil {
		return nil, err
	}
	result := new(T)
	if err := json.Unmarshal(merged, result); err != nil {
		return nil, err
	}
	return result, nil
}
