package services

import (
	"errors"
	"fmt"
	"strings"

	apperrors "sales-dashboard/internal/errors"
)

// Step names one physical write issued for a logical operation.
type Step string

const (
	StepMonthlyUpsert Step = "monthly_upsert"
	StepWeeklyUpsert  Step = "weekly_upsert"
	StepLedgerInsert  Step = "ledger_insert"
	StepLedgerDelete  Step = "ledger_delete"
	StepPeriodUpsert  Step = "period_upsert"
	StepReset         Step = "reset"
)

type StepResult struct {
	Step      Step   `json:"step"`
	Target    string `json:"target"`
	Persisted bool   `json:"persisted"`
	Error     string `json:"error,omitempty"`

	err error
}

// WriteResult reports every write a logical operation issued. The writes are
// not atomic: when Diverged is true the in-memory state is ahead of the store
// and the failed steps sit in the pending queue until Flush succeeds.
type WriteResult struct {
	EntryID  string       `json:"entry_id,omitempty"`
	Steps    []StepResult `json:"steps"`
	Diverged bool         `json:"diverged"`
}

func (r *WriteResult) record(step Step, target string, err error) {
	sr := StepResult{Step: step, Target: target, Persisted: err == nil, err: err}
	if err != nil {
		sr.Error = err.Error()
		r.Diverged = true
	}
	r.Steps = append(r.Steps, sr)
}

// Failed lists the steps that did not reach the store.
func (r WriteResult) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.Persisted {
			out = append(out, s)
		}
	}
	return out
}

// Err is nil when every step persisted, otherwise a PERSISTENCE_ERROR
// wrapping each step failure.
func (r WriteResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failed))
	names := make([]string, 0, len(failed))
	for _, s := range failed {
		errs = append(errs, fmt.Errorf("%s %s: %w", s.Step, s.Target, s.err))
		names = append(names, string(s.Step))
	}

	appErr := apperrors.Wrap(errors.Join(errs...), apperrors.CodePersistence, "store write failed; in-memory state is ahead of the store")
	appErr.Details = strings.Join(names, ",")
	return appErr
}
