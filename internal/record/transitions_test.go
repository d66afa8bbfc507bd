package record

import (
	"testing"

	"postflow/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestValidateManual_AllowedPairs(t *testing.T) {
	allowed := [][2]common.RecordStatus{
		{common.StatusDraft, common.StatusScheduled},
		{common.StatusScheduled, common.StatusDraft},
		{common.StatusFailed, common.StatusDraft},
	}

	for _, pair := range allowed {
		assert.NoError(t, ValidateManual(pair[0], pair[1]),
			"expected %s -> %s to be allowed", pair[0], pair[1])
	}
}

func TestValidateManual_RejectsEveryOtherPair(t *testing.T) {
	statuses := []common.RecordStatus{
		common.StatusDraft,
		common.StatusScheduled,
		common.StatusPublished,
		common.StatusFailed,
	}

	allowed := map[common.RecordStatus]common.RecordStatus{
		common.StatusDraft:     common.StatusScheduled,
		common.StatusScheduled: common.StatusDraft,
		common.StatusFailed:    common.StatusDraft,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			if allowed[from] == to {
				continue
			}

			err := ValidateManual(from, to)
			assert.Error(t, err, "expected %s -> %s to be rejected", from, to)
			assert.True(t, common.IsInvalidTransition(err))
		}
	}
}

func TestValidateManual_PublishedIsTerminal(t *testing.T) {
	for _, to := range []common.RecordStatus{
		common.StatusDraft,
		common.StatusScheduled,
		common.StatusFailed,
	} {
		err := ValidateManual(common.StatusPublished, to)
		assert.Error(t, err)
	}
}

func TestValidateManual_UnknownTarget(t *testing.T) {
	err := ValidateManual(common.StatusDraft, common.RecordStatus("ARCHIVED"))
	assert.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestValidateManual_NeverReachesAutomaticStates(t *testing.T) {
	err := ValidateManual(common.StatusScheduled, common.StatusPublished)
	assert.True(t, common.IsInvalidTransition(err))

	err = ValidateManual(common.StatusScheduled, common.StatusFailed)
	assert.True(t, common.IsInvalidTransition(err))
}

func TestValidateAutomatic(t *testing.T) {
	assert.NoError(t, ValidateAutomatic(common.StatusScheduled, common.StatusPublished))
	assert.NoError(t, ValidateAutomatic(common.StatusScheduled, common.StatusFailed))

	// Automatic transitions only ever leave SCHEDULED.
	assert.Error(t, ValidateAutomatic(common.StatusDraft, common.StatusPublished))
	assert.Error(t, ValidateAutomatic(common.StatusFailed, common.StatusPublished))
	assert.Error(t, ValidateAutomatic(common.StatusPublished, common.StatusFailed))
}
