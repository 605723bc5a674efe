package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isilan_app_echo/internal/models"
	"isilan_app_echo/internal/testutil"
)

func TestListPremiumJobsFiltersExpired(t *testing.T) {
	store := testutil.NewFakeStore()
	now := time.Now().UnixMilli()
	store.Jobs["boosted"] = &models.Job{
		Title:          "Kurye aranıyor",
		IsPremium:      true,
		PremiumEndDate: now + models.DayMillis,
	}
	store.Jobs["lapsed"] = &models.Job{
		Title:          "Garson aranıyor",
		IsPremium:      true,
		PremiumEndDate: now - models.DayMillis,
	}
	store.Jobs["plain"] = &models.Job{Title: "Kasiyer aranıyor"}

	h := NewJobHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/premium", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListPremiumJobs(echo.New().NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boosted")
	assert.NotContains(t, rec.Body.String(), "lapsed")
	assert.NotContains(t, rec.Body.String(), "plain")
}

func TestGetJob(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Jobs["job1"] = &models.Job{Title: "Kurye aranıyor", Status: models.JobStatusActive}
	h := NewJobHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job1", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("job1")

	require.NoError(t, h.GetJob(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kurye aranıyor")
}

func TestGetJobNotFound(t *testing.T) {
	h := NewJobHandler(testutil.NewFakeStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/ghost", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")

	err := h.GetJob(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
