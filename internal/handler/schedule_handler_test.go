package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/middleware"
	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/service"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type stubScheduleStore struct {
	byID map[string]*models.Schedule
}

func newStubScheduleStore(schedules ...*models.Schedule) *stubScheduleStore {
	s := &stubScheduleStore{byID: make(map[string]*models.Schedule)}
	for _, sched := range schedules {
		s.byID[sched.ID] = sched
	}
	return s
}

func (s *stubScheduleStore) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, int, error) {
	var out []models.ScheduleDetail
	for _, sched := range s.byID {
		out = append(out, models.ScheduleDetail{Schedule: *sched})
	}
	return out, len(out), nil
}

func (s *stubScheduleStore) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	sched, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sched
	return &copied, nil
}

func (s *stubScheduleStore) FindByYearMonth(ctx context.Context, year, month int) (*models.Schedule, error) {
	for _, sched := range s.byID {
		if sched.Year == year && sched.Month == month {
			copied := *sched
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubScheduleStore) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "sched-new"
	copied := *schedule
	s.byID[schedule.ID] = &copied
	return nil
}

func (s *stubScheduleStore) Update(ctx context.Context, schedule *models.Schedule) error {
	copied := *schedule
	s.byID[schedule.ID] = &copied
	return nil
}

func (s *stubScheduleStore) Delete(ctx context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

type scheduleEnvelope struct {
	Data  *models.Schedule `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func newScheduleTestContext(t *testing.T, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, "/", reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"})
	return c, w
}

func newScheduleHandlerForTest(schedules ...*models.Schedule) (*ScheduleHandler, *stubScheduleStore) {
	store := newStubScheduleStore(schedules...)
	svc := service.NewScheduleService(store, nil, nil, nil, nil, zap.NewNop())
	return NewScheduleHandler(svc, nil, nil, nil, nil, nil), store
}

func decodeScheduleEnvelope(t *testing.T, w *httptest.ResponseRecorder) scheduleEnvelope {
	t.Helper()
	var envelope scheduleEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestScheduleHandlerCreate(t *testing.T) {
	handler, store := newScheduleHandlerForTest()
	c, w := newScheduleTestContext(t, http.MethodPost, `{"year":2025,"month":3}`)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "sched-new", envelope.Data.ID)
	assert.Equal(t, models.ScheduleStatusDraft, envelope.Data.Status)
	assert.Contains(t, store.byID, "sched-new")
}

func TestScheduleHandlerCreateInvalidBody(t *testing.T) {
	handler, _ := newScheduleHandlerForTest()
	c, w := newScheduleTestContext(t, http.MethodPost, `{"year":`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestScheduleHandlerCreateDuplicateMonth(t *testing.T) {
	existing := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	handler, _ := newScheduleHandlerForTest(existing)
	c, w := newScheduleTestContext(t, http.MethodPost, `{"year":2025,"month":3}`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrDuplicate.Code, envelope.Error.Code)
}

func TestScheduleHandlerGetNotFound(t *testing.T) {
	handler, _ := newScheduleHandlerForTest()
	c, w := newScheduleTestContext(t, http.MethodGet, "")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, envelope.Error.Code)
}

func TestScheduleHandlerPublish(t *testing.T) {
	draft := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	handler, _ := newScheduleHandlerForTest(draft)
	c, w := newScheduleTestContext(t, http.MethodPost, "")
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Publish(c)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, models.ScheduleStatusPublished, envelope.Data.Status)
	require.NotNil(t, envelope.Data.PublishedBy)
	assert.Equal(t, "admin-1", *envelope.Data.PublishedBy)
}

func TestScheduleHandlerPublishTwice(t *testing.T) {
	published := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusPublished}
	handler, _ := newScheduleHandlerForTest(published)
	c, w := newScheduleTestContext(t, http.MethodPost, "")
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Publish(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, envelope.Error.Code)
	assert.Equal(t, "only draft schedules can be published", envelope.Error.Message)
}

func TestScheduleHandlerDelete(t *testing.T) {
	draft := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusDraft}
	handler, store := newScheduleHandlerForTest(draft)
	c, w := newScheduleTestContext(t, http.MethodDelete, "")
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.NotContains(t, store.byID, "sched-1")
}

func TestScheduleHandlerDeletePublished(t *testing.T) {
	published := &models.Schedule{ID: "sched-1", Year: 2025, Month: 3, Status: models.ScheduleStatusPublished}
	handler, store := newScheduleHandlerForTest(published)
	c, w := newScheduleTestContext(t, http.MethodDelete, "")
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, store.byID, "sched-1")
	envelope := decodeScheduleEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "only draft schedules can be deleted", envelope.Error.Message)
}
