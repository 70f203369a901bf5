package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kmate129/timetable-ga/internal/dataset"
	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/metrics"
	"github.com/kmate129/timetable-ga/internal/queue"
	"github.com/kmate129/timetable-ga/internal/scheduler"
)

// JobRepository 由 repository.Repository 实现
type JobRepository interface {
	GetTimetableJobByID(id string) (*domain.TimetableJob, error)
	UpdateTimetableJob(job *domain.TimetableJob) error
	FinishTimetableJob(job *domain.TimetableJob, result *domain.TimetableResult) error
}

// ProgressStore 由 progress.Store 实现
type ProgressStore interface {
	SetProgress(jobID string, p *domain.JobProgress) error
	CancelRequested(jobID string) (bool, error)
	ClearCancel(jobID string) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v any) error
}

type DatasetLoader interface {
	Load(ctx context.Context, req *domain.TimetableRequest) (*dataset.File, error)
}

type Options struct {
	Parameters       scheduler.Parameters // 请求中没有给出的参数使用这里的值
	ProgressInterval time.Duration        // 两次写入进度之间的最小间隔
	JobTimeout       time.Duration
}

// Processor 执行从消息队列中取出的排课任务
type Processor struct {
	jobs      JobRepository
	progress  ProgressStore
	publisher Publisher
	loader    DatasetLoader
	metrics   *metrics.Metrics
	opts      Options
}

func NewProcessor(jobs JobRepository, progress ProgressStore, publisher Publisher, loader DatasetLoader, m *metrics.Metrics, opts Options) *Processor {
	return &Processor{
		jobs:      jobs,
		progress:  progress,
		publisher: publisher,
		loader:    loader,
		metrics:   m,
		opts:      opts,
	}
}

// Process 执行一个排课任务并保存结果
// 只有 worker 本身退出（ctx 被取消）或者基础设施出错时才返回错误，此时消息应当重新入队；
// 数据或参数有问题的任务会被标记为失败，返回 nil
func (p *Processor) Process(ctx context.Context, msg domain.JobMessage) error {
	logger := slog.With("job", msg.JobID)

	job, err := p.jobs.GetTimetableJobByID(msg.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("排课任务不存在，丢弃消息")
			return nil
		}
		return err
	}

	if job.Status.Finished() {
		logger.Info("排课任务已结束，跳过", "status", job.Status)
		return nil
	}

	job.Status = domain.JobStatusRunning
	if err := p.jobs.UpdateTimetableJob(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 任务在此期间被修改（例如在队列中被取消），以数据库中的状态为准
			logger.Info("排课任务状态已变化，跳过")
			return nil
		}
		return err
	}
	defer func() {
		if err := p.progress.ClearCancel(job.ID); err != nil {
			logger.Warn("清除取消标记失败", "error", err)
		}
	}()

	logger.Info("开始执行排课任务", "source", job.Source)

	inst, catalog, parameters, err := p.prepare(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return p.fail(ctx, logger, job, err)
	}

	var (
		runCtx    context.Context
		cancelRun context.CancelFunc
	)
	if p.opts.JobTimeout > 0 {
		runCtx, cancelRun = context.WithTimeout(ctx, p.opts.JobTimeout)
	} else {
		runCtx, cancelRun = context.WithCancel(ctx)
	}
	defer cancelRun()

	reporter := &progressReporter{
		jobID:     job.ID,
		store:     p.progress,
		interval:  p.opts.ProgressInterval,
		cancelRun: cancelRun,
		logger:    logger,
	}

	start := time.Now()
	result, err := scheduler.Run(runCtx, inst, parameters,
		scheduler.WithProgress(reporter.report),
		scheduler.WithLogger(logger),
	)
	duration := time.Since(start)

	switch {
	case err == nil:
		job.Status = domain.JobStatusSucceeded
	case ctx.Err() != nil:
		// worker 正在退出，任务保持 running 状态，重新投递后从头执行
		logger.Warn("worker 退出，排课任务中断", "error", err)
		return ctx.Err()
	case reporter.cancelled:
		job.Status = domain.JobStatusCancelled
	case errors.Is(err, context.DeadlineExceeded):
		job.Status = domain.JobStatusFailed
		job.Error = fmt.Sprintf("排课超时（%s）", p.opts.JobTimeout)
	default:
		return p.fail(ctx, logger, job, err)
	}

	var stored *domain.TimetableResult
	if result != nil {
		stored = &domain.TimetableResult{
			State:       result.State.String(),
			Fitness:     result.Fitness,
			Generations: result.Generations,
			Placements:  catalog.Placements(result),
			Criteria:    result.Criteria,
		}
	}

	if err := p.jobs.FinishTimetableJob(job, stored); err != nil {
		return err
	}

	if result != nil {
		p.metrics.ObserveJob(string(job.Status), result.Generations, result.Fitness, duration)
		logger.Info("排课任务结束", "status", job.Status, "state", result.State.String(), "generations", result.Generations, "fitness", result.Fitness, "duration", duration)
	}

	p.notify(ctx, logger, job, stored)

	return nil
}

// prepare 解析请求、读取数据并构建问题实例
func (p *Processor) prepare(ctx context.Context, job *domain.TimetableJob) (*scheduler.Instance, *dataset.Catalog, scheduler.Parameters, error) {
	var parameters scheduler.Parameters

	req := &domain.TimetableRequest{}
	if err := json.Unmarshal(job.Request, req); err != nil {
		return nil, nil, parameters, fmt.Errorf("解析任务请求失败: %w", err)
	}

	parameters, err := scheduler.DecodeParameters(p.opts.Parameters, req.Parameters)
	if err != nil {
		return nil, nil, parameters, err
	}

	f, err := p.loader.Load(ctx, req)
	if err != nil {
		return nil, nil, parameters, err
	}

	catalog, err := dataset.Build(f, &domain.IDGenerator{})
	if err != nil {
		return nil, nil, parameters, err
	}

	inst, err := catalog.Instance(parameters.Days, parameters.HoursPerDay)
	if err != nil {
		return nil, nil, parameters, err
	}

	return inst, catalog, parameters, nil
}

func (p *Processor) fail(ctx context.Context, logger *slog.Logger, job *domain.TimetableJob, cause error) error {
	logger.Error("排课任务失败", "error", cause)

	job.Status = domain.JobStatusFailed
	job.Error = cause.Error()
	if err := p.jobs.FinishTimetableJob(job, nil); err != nil {
		return err
	}

	p.metrics.ObserveJob(string(job.Status), 0, 0, 0)
	p.notify(ctx, logger, job, nil)

	return nil
}

// notify 在任务结束后发送邮件通知，发送失败只记录日志
func (p *Processor) notify(ctx context.Context, logger *slog.Logger, job *domain.TimetableJob, result *domain.TimetableResult) {
	if job.NotifyEmail == "" {
		return
	}

	data := domain.TimetableMailData{
		JobID:  job.ID,
		Status: string(job.Status),
		Error:  job.Error,
	}
	if result != nil {
		data.Fitness = result.Fitness
		data.Generations = result.Generations
	}

	mailType := domain.MailTypeTimetableSucceeded
	if job.Status != domain.JobStatusSucceeded {
		mailType = domain.MailTypeTimetableFailed
	}

	msg := domain.MailMessage{
		Type: mailType,
		To:   job.NotifyEmail,
		Data: data,
	}
	if err := p.publisher.PublishJSON(ctx, queue.EmailQueue, msg); err != nil {
		logger.Warn("发送通知邮件到消息队列失败", "error", err)
	}
}

// progressReporter 把引擎的进度按时间间隔写入 redis，并在写入时检查取消标记
// 它只在引擎的控制 goroutine 中被调用，不需要加锁
type progressReporter struct {
	jobID     string
	store     ProgressStore
	interval  time.Duration
	cancelRun context.CancelFunc
	logger    *slog.Logger

	last      time.Time
	cancelled bool
}

func (r *progressReporter) report(p scheduler.Progress) {
	now := time.Now()
	terminal := p.State == scheduler.StateConverged || p.State == scheduler.StateExhausted || p.State == scheduler.StateCancelled
	if !terminal && p.State != scheduler.StateSeeded && now.Sub(r.last) < r.interval {
		return
	}
	r.last = now

	if err := r.store.SetProgress(r.jobID, &domain.JobProgress{
		Generation:  p.Generation,
		BestFitness: p.BestFitness,
		State:       p.State.String(),
		UpdatedAt:   now,
	}); err != nil {
		r.logger.Warn("写入排课进度失败", "error", err)
	}

	if terminal || r.cancelled {
		return
	}

	requested, err := r.store.CancelRequested(r.jobID)
	if err != nil {
		r.logger.Warn("读取取消标记失败", "error", err)
		return
	}
	if requested {
		r.logger.Info("收到取消请求")
		r.cancelled = true
		r.cancelRun()
	}
}
