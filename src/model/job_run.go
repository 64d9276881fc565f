package model

import (
	"context"
	"time"
)

// JobRun records one execution of a scheduled job.
type JobRun struct {
	ID         int64
	JobName    string
	StartedAt  time.Time
	FinishedAt time.Time
	Affected   int64
	Error      string
}

// InsertJobRun stores a job execution record.
func InsertJobRun(ctx context.Context, q Querier, run JobRun) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO job_runs (job_name, started_at, finished_at, affected, error)
		VALUES (?, ?, ?, ?, ?)`,
		run.JobName, run.StartedAt.UTC().Format(timestampLayout), run.FinishedAt.UTC().Format(timestampLayout),
		run.Affected, run.Error)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListJobRuns returns the most recent runs of a job, newest first.
func ListJobRuns(ctx context.Context, q Querier, jobName string, limit int) ([]JobRun, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, job_name, started_at, finished_at, affected, error
		FROM job_runs WHERE job_name = ?
		ORDER BY id DESC LIMIT ?`, jobName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var r JobRun
		var started, finished string
		if err := rows.Scan(&r.ID, &r.JobName, &started, &finished, &r.Affected, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timestampLayout, started)
		r.FinishedAt, _ = time.Parse(timestampLayout, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
