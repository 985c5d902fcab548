package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medora-hq/roster-api/internal/models"
	appErrors "github.com/medora-hq/roster-api/pkg/errors"
)

type fakeHolidayStore struct {
	holidays  []models.Holiday
	createErr error
	deleted   []string
}

func (f *fakeHolidayStore) List(ctx context.Context) ([]models.Holiday, error) {
	return f.holidays, nil
}

func (f *fakeHolidayStore) Create(ctx context.Context, holiday *models.Holiday) error {
	if f.createErr != nil {
		return f.createErr
	}
	holiday.ID = "h-new"
	f.holidays = append(f.holidays, *holiday)
	return nil
}

func (f *fakeHolidayStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestHolidayCreate(t *testing.T) {
	store := &fakeHolidayStore{}
	svc := NewHolidayService(store, nil, nil, zap.NewNop())

	holiday, err := svc.Create(context.Background(), CreateHolidayRequest{Date: "2025-09-23", Label: "National Day"}, "user-1", "", "")
	require.NoError(t, err)

	require.Equal(t, "h-new", holiday.ID)
	require.Equal(t, day(2025, time.September, 23), holiday.Date)
	require.Equal(t, "National Day", holiday.Label)
	require.Len(t, store.holidays, 1)
}

func TestHolidayCreateRejectsBadDate(t *testing.T) {
	svc := NewHolidayService(&fakeHolidayStore{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateHolidayRequest{Date: "23/09/2025", Label: "National Day"}, "user-1", "", "")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHolidayCreateDuplicateDate(t *testing.T) {
	store := &fakeHolidayStore{createErr: &pq.Error{Code: "23505"}}
	svc := NewHolidayService(store, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateHolidayRequest{Date: "2025-09-23", Label: "National Day"}, "user-1", "", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	require.Equal(t, "holiday on 2025-09-23 already exists", appErr.Message)
}

func TestHolidayDelete(t *testing.T) {
	store := &fakeHolidayStore{}
	svc := NewHolidayService(store, nil, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "h1", "user-1", "", ""))
	require.Equal(t, []string{"h1"}, store.deleted)
}
