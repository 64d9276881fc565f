package jobs

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/database"
	"github.com/username/compartmentdesk/backend/src/model"
	"github.com/username/compartmentdesk/backend/src/models"
)

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) InvalidateIsin(_ context.Context, isinID string) {
	r.ids = append(r.ids, isinID)
}

func strPtr(s string) *string { return &s }

func setup(t *testing.T) (*sql.DB, *Runner, *recordingInvalidator) {
	t.Helper()
	conn, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	for _, i := range []models.Isin{
		{ID: "float", IsinNumber: "PTD123456781", IssueDate: "2024-01-15", MaturityDate: "2025-01-15", CouponFrequency: "Semi-Annually"},
		{ID: "fixed", IsinNumber: "XSD000000013", IssueDate: "2024-01-15", MaturityDate: "2026-01-15", CouponFrequency: "Semi-Annually"},
	} {
		require.NoError(t, model.InsertIsin(ctx, conn, &i))
	}
	for _, c := range []models.CouponInterest{
		{ID: "f1", IsinID: "float", InterestRate: 3.5, EventDate: strPtr("2024-01-15"), Status: 1, Type: models.CouponInterestFloating},
		{ID: "x1", IsinID: "fixed", InterestRate: 4, EventDate: strPtr("2024-01-15"), Status: 1, Type: models.CouponInterestFixed},
	} {
		require.NoError(t, model.InsertCouponInterest(ctx, conn, &c))
	}

	inv := &recordingInvalidator{}
	return conn, NewRunner(conn, inv), inv
}

func TestForwardFloatingRates(t *testing.T) {
	ctx := context.Background()
	conn, runner, inv := setup(t)

	run, err := runner.Run(ctx, UpdateCouponInterestRate, bondcalc.Date(2024, time.July, 16))
	require.NoError(t, err)
	assert.Zero(t, run.Affected, "not a coupon date")

	run, err = runner.Run(ctx, UpdateCouponInterestRate, time.Date(2024, time.July, 15, 0, 15, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Affected)
	assert.Equal(t, []string{"float"}, inv.ids)

	history, err := model.ListCouponInterestsByIsin(ctx, conn, "float")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-07-15", *history[0].EventDate)
	assert.Equal(t, int(bondcalc.StatusCurrent), history[0].Status)
	assert.Equal(t, 3.5, history[0].InterestRate)
	assert.Equal(t, models.CouponInterestFloating, history[0].Type)
	assert.Equal(t, "f1", history[1].ID)
	assert.Equal(t, int(bondcalc.StatusHistorical), history[1].Status)

	fixed, err := model.ListCouponInterestsByIsin(ctx, conn, "fixed")
	require.NoError(t, err)
	assert.Len(t, fixed, 1, "fixed rates are not rolled")

	run, err = runner.Run(ctx, UpdateCouponInterestRate, bondcalc.Date(2024, time.July, 15))
	require.NoError(t, err)
	assert.Zero(t, run.Affected, "second run on the same date is a no-op")

	runs, err := model.ListJobRuns(ctx, conn, UpdateCouponInterestRate, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestMatureCompartments(t *testing.T) {
	ctx := context.Background()
	conn, runner, inv := setup(t)

	run, err := runner.Run(ctx, UpdateCompartmentStatus2Maturity, bondcalc.Date(2025, time.January, 14))
	require.NoError(t, err)
	assert.Zero(t, run.Affected)

	run, err = runner.Run(ctx, UpdateCompartmentStatus2Maturity, bondcalc.Date(2025, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Affected)
	assert.Equal(t, []string{"float"}, inv.ids)

	isin, err := model.GetIsinByID(ctx, conn, "float")
	require.NoError(t, err)
	assert.Equal(t, models.IsinStatusMatured, isin.Status)

	run, err = runner.Run(ctx, UpdateCompartmentStatus2Maturity, bondcalc.Date(2025, time.January, 16))
	require.NoError(t, err)
	assert.Zero(t, run.Affected)
}

func TestUnknownJob(t *testing.T) {
	_, runner, _ := setup(t)

	_, err := runner.Run(context.Background(), "CreateCouponPaymentEntry", time.Now())
	assert.ErrorIs(t, err, ErrUnknownJob)
	assert.Equal(t, []string{UpdateCompartmentStatus2Maturity, UpdateCouponInterestRate}, runner.Names())
}

func TestSchedule(t *testing.T) {
	s, err := LoadSchedule("")
	require.NoError(t, err)
	require.Len(t, s.Jobs, 2)

	_, runner, _ := setup(t)
	sched := NewScheduler(context.Background(), runner)
	require.NoError(t, sched.Register(s))
	assert.Equal(t, 2, sched.Entries())

	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jobs:
  - name: UpdateCouponInterestRate
    cron: "0 0 1 * * *"
    disabled: true
  - name: UpdateCompartmentStatus2Maturity
    cron: "0 0 2 * * *"
`), 0o600))
	s, err = LoadSchedule(path)
	require.NoError(t, err)
	sched = NewScheduler(context.Background(), runner)
	require.NoError(t, sched.Register(s))
	assert.Equal(t, 1, sched.Entries())

	err = NewScheduler(context.Background(), runner).Register(&Schedule{Jobs: []JobSchedule{{Name: "Nope", Cron: "* * * * * *"}}})
	assert.ErrorIs(t, err, ErrUnknownJob)

	err = NewScheduler(context.Background(), runner).Register(&Schedule{Jobs: []JobSchedule{{Name: UpdateCouponInterestRate, Cron: "every day"}}})
	assert.Error(t, err)

	_, err = ParseSchedule([]byte("jobs:\n  - name: UpdateCouponInterestRate\n"))
	assert.Error(t, err)

	_, err = LoadSchedule(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
