package repository

import (
	"context"
	"time"

	"github.com/kmate129/timetable-ga/internal/domain"
)

func (r *Repository) CreateTimetableJob(job *domain.TimetableJob) error {
	query := `
		INSERT INTO timetable_jobs (id, status, source, request, notify_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		job.ID,
		job.Status,
		job.Source,
		[]byte(job.Request),
		job.NotifyEmail,
	}
	dst := []any{&job.CreatedAt, &job.UpdatedAt, &job.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTimetableJobByID(id string) (*domain.TimetableJob, error) {
	query := `
		SELECT
			status,
			source,
			request,
			notify_email,
			error,
			created_at,
			updated_at,
			version
		FROM timetable_jobs
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	job := &domain.TimetableJob{
		ID: id,
	}

	var request []byte
	dst := []any{
		&job.Status,
		&job.Source,
		&request,
		&job.NotifyEmail,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Version,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	job.Request = request

	return job, nil
}

func (r *Repository) GetAllTimetableJobs() ([]*domain.TimetableJob, error) {
	query := `
		SELECT
			id,
			status,
			source,
			notify_email,
			error,
			created_at,
			updated_at,
			version
		FROM timetable_jobs
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*domain.TimetableJob{}
	for rows.Next() {
		var job domain.TimetableJob
		dst := []any{
			&job.ID,
			&job.Status,
			&job.Source,
			&job.NotifyEmail,
			&job.Error,
			&job.CreatedAt,
			&job.UpdatedAt,
			&job.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

// UpdateTimetableJob 更新任务的状态和错误信息
// 使用 version 做乐观锁，版本不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateTimetableJob(job *domain.TimetableJob) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		job.Status,
		job.Error,
		job.ID,
		job.Version,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&job.UpdatedAt, &job.Version); err != nil {
		return err
	}

	return nil
}
