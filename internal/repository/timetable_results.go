package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kmate129/timetable-ga/internal/domain"
)

// FinishTimetableJob 在同一个事务中保存排课结果并更新任务状态
// result 为 nil 时只更新任务状态（例如任务失败时）
func (r *Repository) FinishTimetableJob(job *domain.TimetableJob, result *domain.TimetableResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if result != nil {
		placements, err := json.Marshal(result.Placements)
		if err != nil {
			return err
		}
		criteria, err := json.Marshal(result.Criteria)
		if err != nil {
			return err
		}

		// 先将之前的排课结果删除
		query := `DELETE FROM timetable_results WHERE job_id = $1`
		if _, err := tx.ExecContext(ctx, query, job.ID); err != nil {
			return err
		}

		query = `
			INSERT INTO timetable_results (job_id, state, fitness, generations, placements, criteria)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`

		params := []any{
			job.ID,
			result.State,
			result.Fitness,
			result.Generations,
			placements,
			criteria,
		}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&result.ID, &result.CreatedAt); err != nil {
			return err
		}
		result.JobID = job.ID
	}

	query := `
		UPDATE timetable_jobs
		SET
			status = $1,
			error = $2,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING updated_at, version
	`

	params := []any{
		job.Status,
		job.Error,
		job.ID,
		job.Version,
	}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&job.UpdatedAt, &job.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTimetableResultByJobID(jobID string) (*domain.TimetableResult, error) {
	query := `
		SELECT
			id,
			state,
			fitness,
			generations,
			placements,
			criteria,
			created_at
		FROM timetable_results
		WHERE job_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result := &domain.TimetableResult{
		JobID: jobID,
	}

	var placements, criteria []byte
	dst := []any{
		&result.ID,
		&result.State,
		&result.Fitness,
		&result.Generations,
		&placements,
		&criteria,
		&result.CreatedAt,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, jobID).Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(placements, &result.Placements); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(criteria, &result.Criteria); err != nil {
		return nil, err
	}

	return result, nil
}
