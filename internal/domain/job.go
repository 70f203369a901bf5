package domain

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished 表示任务已经处于终止状态
func (s JobStatus) Finished() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCancelled
}

type DatasetSource string

const (
	DatasetSourceDummy   DatasetSource = "dummy"
	DatasetSourceBackend DatasetSource = "backend"
	DatasetSourceInline  DatasetSource = "inline"
)

// TimetableJob 是一次排课任务，Request 原样保存提交时的请求体（参数、数据来源等）
type TimetableJob struct {
	ID          string          `json:"id"`
	Status      JobStatus       `json:"status"`
	Source      DatasetSource   `json:"source"`
	Request     json.RawMessage `json:"-"`
	NotifyEmail string          `json:"notifyEmail,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Version     int32           `json:"-"`
}

// TimetableRequest 是提交排课任务时的请求体，原样保存在任务中，由 worker 再次解析
// Dataset 只在 source 为 inline 时使用，Parameters 中没有出现的字段使用配置中的默认值
type TimetableRequest struct {
	Source      DatasetSource   `json:"source" validate:"required,oneof=dummy backend inline"`
	Dataset     json.RawMessage `json:"dataset,omitempty" validate:"required_if=Source inline"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	NotifyEmail string          `json:"notifyEmail,omitempty" validate:"omitempty,email"`
}

// JobMessage 是通过消息队列传递给 worker 的消息体
type JobMessage struct {
	JobID string `json:"jobID"`
}

type TimetablePlacement struct {
	CourseClassID        int64  `json:"courseClassID"`
	CourseClassBackendID string `json:"courseClassBackendID"`
	Day                  int    `json:"day"`
	ClassroomID          int64  `json:"classroomID"`
	ClassroomBackendID   string `json:"classroomBackendID"`
	StartHour            int    `json:"startHour"`
	Duration             int    `json:"duration"`
}

type TimetableResult struct {
	ID          int64                `json:"id"`
	JobID       string               `json:"jobID"`
	State       string               `json:"state"`
	Fitness     float64              `json:"fitness"`
	Generations int                  `json:"generations"`
	Placements  []TimetablePlacement `json:"placements"`
	Criteria    []bool               `json:"criteria"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// JobProgress 是 worker 写入 redis 的实时进度
type JobProgress struct {
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"bestFitness"`
	State       string    `json:"state"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
