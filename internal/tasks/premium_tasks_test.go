package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isilan_app_echo/internal/models"
	"isilan_app_echo/internal/testutil"
)

func TestExpirePremiumJobs(t *testing.T) {
	store := testutil.NewFakeStore()
	now := time.Now().UnixMilli()

	store.Jobs["expired"] = &models.Job{
		Title:          "Garson aranıyor",
		IsPremium:      true,
		PremiumEndDate: now - models.DayMillis,
	}
	store.Jobs["active"] = &models.Job{
		Title:          "Kurye aranıyor",
		IsPremium:      true,
		PremiumEndDate: now + 3*models.DayMillis,
	}
	store.Jobs["plain"] = &models.Job{Title: "Kasiyer aranıyor"}

	result, err := ExpirePremiumJobsTask.HandleExecution(context.Background(), &Deps{Store: store}, models.ScheduledTask{})
	require.NoError(t, err)

	assert.Equal(t, 2, result["scanned"])
	assert.Equal(t, 1, result["expired"])

	assert.False(t, store.Jobs["expired"].IsPremium)
	assert.True(t, store.Jobs["active"].IsPremium)
	assert.Len(t, store.JobUpdates["expired"], 1)
	assert.Empty(t, store.JobUpdates["active"])
}

func TestExpirePremiumJobsUpdateFailure(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Jobs["expired"] = &models.Job{
		IsPremium:      true,
		PremiumEndDate: time.Now().UnixMilli() - models.DayMillis,
	}
	store.Errs["UpdateJob"] = assert.AnError

	result, err := ExpirePremiumJobsTask.HandleExecution(context.Background(), &Deps{Store: store}, models.ScheduledTask{})
	require.Error(t, err)
	assert.Equal(t, []string{"expired"}, result["failed_jobs"])
}
