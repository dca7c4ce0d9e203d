package services

import (
	"errors"
	"fmt"
	"log"
)

// ItemError is the failure of one entry in a bulk request.
type ItemError struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

// BatchResult reports per-item outcomes of a bulk operation. Items are
// processed independently, so Succeeded counts committed work even when
// Errors is non-empty.
type BatchResult struct {
	Requested  int         `json:"requested"`
	Succeeded  int         `json:"succeeded"`
	Errors     []ItemError `json:"errors"`
	FileIssues []FileIssue `json:"fileIssues"`
}

func newBatchResult(ids []uint) *BatchResult {
	return &BatchResult{Requested: len(ids), Errors: []ItemError{}, FileIssues: []FileIssue{}}
}

func (r *BatchResult) fail(id uint, err error) {
	msg := "internal error"
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		msg = "not found"
	case errors.As(err, &ve):
		msg = ve.Message
	default:
		log.Printf("bulk item %d failed: %v", id, err)
	}
	r.Errors = append(r.Errors, ItemError{ID: id, Message: msg})
}

// Summary is a one-line human readable outcome.
func (r *BatchResult) Summary(noun string) string {
	if len(r.Errors) == 0 {
		return fmt.Sprintf("%d of %d %s processed", r.Succeeded, r.Requested, noun)
	}
	return fmt.Sprintf("%d of %d %s processed, %d failed", r.Succeeded, r.Requested, noun, len(r.Errors))
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
