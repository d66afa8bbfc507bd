package record

import "postflow/internal/common"

// The status state machine. Manual transitions are requested by the
// owner through the HTTP surface; automatic transitions are applied by
// the engine and the escalation handler. Both paths consult the same
// table so a bug in one caller cannot invent a new edge.

var manualTransitions = map[common.RecordStatus]map[common.RecordStatus]bool{
	common.StatusDraft: {
		common.StatusScheduled: true,
	},
	common.StatusScheduled: {
		common.StatusDraft: true,
	},
	common.StatusFailed: {
		// Retry path: reopen the record, clear the failure, schedule again.
		common.StatusDraft: true,
	},
}

var automaticTransitions = map[common.RecordStatus]map[common.RecordStatus]bool{
	common.StatusScheduled: {
		common.StatusPublished: true,
		common.StatusFailed:    true,
	},
}

// ValidateManual checks a user-requested (from, to) pair. PUBLISHED and
// FAILED can never be reached manually, and PUBLISHED is terminal.
func ValidateManual(from, to common.RecordStatus) error {
	if !to.Valid() {
		return common.NewValidationError("unknown target status: %s", to)
	}

	if manualTransitions[from][to] {
		return nil
	}

	return &common.InvalidTransitionError{From: from, To: to}
}

// ValidateAutomatic checks an engine-driven (from, to) pair. Trusted
// callers bypass ownership checks but not the table.
func ValidateAutomatic(from, to common.RecordStatus) error {
	if automaticTransitions[from][to] {
		return nil
	}

	return &common.InvalidTransitionError{From: from, To: to}
}
