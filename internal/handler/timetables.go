package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kmate129/timetable-ga/internal/dataset"
	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/queue"
	"github.com/kmate129/timetable-ga/internal/scheduler"
)

func (h *Handler) CreateTimetable(w http.ResponseWriter, r *http.Request) {
	var req domain.TimetableRequest
	body, err := h.readJSON(w, r, &req)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 参数和 inline 数据在提交时就检查，避免把必然失败的任务放进队列
	parameters, err := scheduler.DecodeParameters(h.config.SchedulerParameters(), req.Parameters)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if req.Source == domain.DatasetSourceInline {
		f := &dataset.File{}
		if err := json.Unmarshal(req.Dataset, f); err != nil {
			h.errorResponse(w, r, "排课数据格式错误")
			return
		}
		if err := h.validate.Struct(f); err != nil {
			h.badRequest(w, r, err)
			return
		}
		catalog, err := dataset.Build(f, &domain.IDGenerator{})
		if err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
		if _, err := catalog.Instance(parameters.Days, parameters.HoursPerDay); err != nil {
			h.errorResponse(w, r, err.Error())
			return
		}
	}

	job := &domain.TimetableJob{
		ID:          uuid.NewString(),
		Status:      domain.JobStatusPending,
		Source:      req.Source,
		Request:     body,
		NotifyEmail: req.NotifyEmail,
	}

	if err := h.jobs.CreateTimetableJob(job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 把任务发送到消息队列中，由 worker 执行
	if err := h.publisher.PublishJSON(r.Context(), queue.TimetableQueue, domain.JobMessage{JobID: job.ID}); err != nil {
		job.Status = domain.JobStatusFailed
		job.Error = "任务投递失败"
		if updateErr := h.jobs.UpdateTimetableJob(job); updateErr != nil {
			slog.Error("无法将投递失败的任务标记为失败", "job", job.ID, "error", updateErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.metrics.JobSubmitted()

	h.successResponse(w, r, "排课任务已提交", job)
}

func (h *Handler) GetAllTimetables(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.GetAllTimetableJobs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排课任务列表成功", jobs)
}

type timetableDetail struct {
	Job      *domain.TimetableJob    `json:"job"`
	Progress *domain.JobProgress     `json:"progress"`
	Result   *domain.TimetableResult `json:"result"`
}

func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(TimetableJobCtx).(*domain.TimetableJob)

	detail := timetableDetail{Job: job}

	// 进度只是参考信息，读取失败不影响返回任务本身
	progress, err := h.progress.GetProgress(job.ID)
	if err != nil {
		slog.Warn("读取排课进度失败", "job", job.ID, "error", err)
	} else {
		detail.Progress = progress
	}

	if job.Status == domain.JobStatusSucceeded || job.Status == domain.JobStatusCancelled {
		result, err := h.jobs.GetTimetableResultByJobID(job.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			h.internalServerError(w, r, err)
			return
		}
		detail.Result = result
	}

	h.successResponse(w, r, "获取排课任务成功", detail)
}

func (h *Handler) CancelTimetable(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(TimetableJobCtx).(*domain.TimetableJob)

	if job.Status.Finished() {
		h.errorResponse(w, r, "排课任务已结束")
		return
	}

	// 还在队列中的任务直接标记为已取消，worker 取到后会跳过它
	if job.Status == domain.JobStatusPending {
		job.Status = domain.JobStatusCancelled
		if err := h.jobs.UpdateTimetableJob(job); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "任务状态已变化，请重试")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
	}

	// 运行中的任务由 worker 在下一次汇报进度时检查取消标记
	if err := h.progress.RequestCancel(job.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "已请求取消排课任务", job)
}
