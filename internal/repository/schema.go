package repository

import (
	"context"
	"time"
)

// CreateTables 在表不存在时创建任务表和结果表，api 启动时调用
func (r *Repository) CreateTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS timetable_jobs (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL,
			source TEXT NOT NULL,
			request JSONB NOT NULL,
			notify_email TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			version INTEGER NOT NULL DEFAULT 1
		);
		CREATE TABLE IF NOT EXISTS timetable_results (
			id BIGSERIAL PRIMARY KEY,
			job_id UUID NOT NULL UNIQUE REFERENCES timetable_jobs (id) ON DELETE CASCADE,
			state TEXT NOT NULL,
			fitness DOUBLE PRECISION NOT NULL,
			generations INTEGER NOT NULL,
			placements JSONB NOT NULL,
			criteria JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}
