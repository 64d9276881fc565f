// Package jobs runs the scheduled maintenance of the rate history and the
// compartment statuses.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/model"
	"github.com/username/compartmentdesk/backend/src/models"
)

// Job names, as used in the schedule file and the API.
const (
	UpdateCouponInterestRate         = "UpdateCouponInterestRate"
	UpdateCompartmentStatus2Maturity = "UpdateCompartmentStatus2Maturity"
)

var ErrUnknownJob = errors.New("unknown job")

// Func executes one job for the business date asOf and returns the number of
// records it changed.
type Func func(ctx context.Context, asOf time.Time) (int64, error)

// Invalidator drops cached ISIN data after a job changed it.
type Invalidator interface {
	InvalidateIsin(ctx context.Context, isinID string)
}

// Runner executes jobs by name and records every run.
type Runner struct {
	db          *sql.DB
	invalidator Invalidator
	jobs        map[string]Func
}

func NewRunner(db *sql.DB, invalidator Invalidator) *Runner {
	r := &Runner{db: db, invalidator: invalidator}
	r.jobs = map[string]Func{
		UpdateCouponInterestRate:         r.forwardFloatingRates,
		UpdateCompartmentStatus2Maturity: r.matureCompartments,
	}
	return r
}

// Names lists the registered jobs in alphabetical order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a registered job.
func (r *Runner) Has(name string) bool {
	_, ok := r.jobs[name]
	return ok
}

// Run executes the named job for asOf and stores the outcome in job_runs.
func (r *Runner) Run(ctx context.Context, name string, asOf time.Time) (model.JobRun, error) {
	job, ok := r.jobs[name]
	if !ok {
		return model.JobRun{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	log := logger.FromContext(ctx).With(slog.String("job", name), slog.String("asOf", asOf.Format(bondcalc.DateLayout)))
	ctx = logger.ToContext(ctx, log)
	log.Info("Job started")

	run := model.JobRun{JobName: name, StartedAt: time.Now()}
	affected, err := job(ctx, bondcalc.Truncate(asOf))
	run.FinishedAt = time.Now()
	run.Affected = affected
	if err != nil {
		run.Error = err.Error()
		log.Error("Job failed", "error", err, "affected", affected)
	} else {
		log.Info("Job finished", "affected", affected, "duration", run.FinishedAt.Sub(run.StartedAt).String())
	}

	id, recErr := model.InsertJobRun(ctx, r.db, run)
	if recErr != nil {
		log.Error("Failed to record job run", "error", recErr)
	}
	run.ID = id
	return run, err
}

func (r *Runner) invalidate(ctx context.Context, isinID string) {
	if r.invalidator != nil {
		r.invalidator.InvalidateIsin(ctx, isinID)
	}
}

// isCouponDate reports whether asOf is a coupon date of isin after its issue date.
func isCouponDate(isin models.Isin, asOf time.Time) (bool, error) {
	terms, err := isin.Terms()
	if err != nil {
		return false, err
	}
	dates, err := bondcalc.CouponPaymentDates(terms.IssueDate, terms.MaturityDate, terms.Frequency)
	if err != nil {
		return false, err
	}
	for _, d := range dates[min(1, len(dates)):] {
		if d.Equal(asOf) {
			return true, nil
		}
	}
	return false, nil
}

// forwardFloatingRates rolls every current floating rate of an ISIN with a
// coupon date on asOf: the record becomes historical and a new current record
// with the same rate takes effect on asOf. Each roll is one transaction.
func (r *Runner) forwardFloatingRates(ctx context.Context, asOf time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	current, err := model.ListCurrentCouponInterests(ctx, r.db)
	if err != nil {
		return 0, fmt.Errorf("list current coupon interests: %w", err)
	}

	eventDate := asOf.Format(bondcalc.DateLayout)
	isins := map[string]bool{}
	var rolled int64
	var errs []error

	for _, ci := range current {
		if ci.Type != models.CouponInterestFloating {
			continue
		}
		if ci.EventDate != nil && *ci.EventDate == eventDate {
			log.Debug("Floating rate already rolled", "couponInterestID", ci.ID)
			continue
		}

		due, ok := isins[ci.IsinID]
		if !ok {
			isin, err := model.GetIsinByID(ctx, r.db, ci.IsinID)
			if err != nil {
				errs = append(errs, fmt.Errorf("isin %s: %w", ci.IsinID, err))
				continue
			}
			if due, err = isCouponDate(isin, asOf); err != nil {
				errs = append(errs, fmt.Errorf("isin %s schedule: %w", ci.IsinID, err))
				continue
			}
			isins[ci.IsinID] = due
		}
		if !due {
			continue
		}

		next := models.CouponInterest{
			ID:           uuid.New().String(),
			IsinID:       ci.IsinID,
			InterestRate: ci.InterestRate,
			CouponRate:   ci.CouponRate,
			EventDate:    &eventDate,
			Status:       int(bondcalc.StatusCurrent),
			Type:         ci.Type,
		}
		err := model.WithTx(ctx, r.db, func(tx *sql.Tx) error {
			if err := model.UpdateCouponInterestStatus(ctx, tx, ci.ID, int(bondcalc.StatusHistorical)); err != nil {
				return err
			}
			return model.InsertCouponInterest(ctx, tx, &next)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("roll coupon interest %s: %w", ci.ID, err))
			continue
		}
		rolled++
		r.invalidate(ctx, ci.IsinID)
		log.Info("Floating rate rolled", "isinID", ci.IsinID, "previousID", ci.ID, "newID", next.ID, "interestRate", next.InterestRate)
	}

	return rolled, errors.Join(errs...)
}

// matureCompartments moves every ISIN that reached maturity by asOf to MATURED.
func (r *Runner) matureCompartments(ctx context.Context, asOf time.Time) (int64, error) {
	log := logger.FromContext(ctx)
	day := asOf.Format(bondcalc.DateLayout)

	due, err := model.ListIsinsMaturedBy(ctx, r.db, day)
	if err != nil {
		return 0, fmt.Errorf("list maturing isins: %w", err)
	}

	affected, err := model.MatureIsins(ctx, r.db, day)
	if err != nil {
		return 0, fmt.Errorf("mature isins: %w", err)
	}
	for _, isin := range due {
		r.invalidate(ctx, isin.ID)
	}

	if affected == 0 {
		log.Warn("No compartments reached maturity")
	} else {
		log.Info("Compartments matured", "affected", affected)
	}
	return affected, nil
}
