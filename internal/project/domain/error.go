package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("project_not_found")
	ErrInvalidAutomationType = errors.New("invalid_automation_type")
	ErrForbidden             = errors.New("project_forbidden")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrVersionConflict       = errors.New("version_conflict")
	ErrRunInProgress         = errors.New("run_in_progress")

	// ErrSchedulingInconsistency marks a partial success: the local record is
	// persisted but the external scheduler disagrees with it. The record is
	// flagged for reconciliation and still returned to the caller.
	ErrSchedulingInconsistency = errors.New("scheduling_inconsistency")
)

// RecipientsError reports every invalid recipient in one pass.
type RecipientsError struct {
	Invalid []string
}

func (e *RecipientsError) Error() string {
	if len(e.Invalid) == 0 {
		return "recipients must not be empty"
	}
	return fmt.Sprintf("invalid recipients: %s", strings.Join(e.Invalid, ", "))
}
