package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/kmate129/timetable-ga/internal/config"
	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/metrics"
)

// JobRepository 是 handler 需要的任务存储操作，由 repository.Repository 实现
type JobRepository interface {
	CreateTimetableJob(job *domain.TimetableJob) error
	GetTimetableJobByID(id string) (*domain.TimetableJob, error)
	GetAllTimetableJobs() ([]*domain.TimetableJob, error)
	UpdateTimetableJob(job *domain.TimetableJob) error
	GetTimetableResultByJobID(jobID string) (*domain.TimetableResult, error)
}

// ProgressStore 由 progress.Store 实现
type ProgressStore interface {
	GetProgress(jobID string) (*domain.JobProgress, error)
	RequestCancel(jobID string) error
}

// Publisher 由 queue.Publisher 实现
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, v any) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	jobs       JobRepository
	progress   ProgressStore
	publisher  Publisher
	metrics    *metrics.Metrics
	translator ut.Translator

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, jobs JobRepository, progress ProgressStore, publisher Publisher, m *metrics.Metrics) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		jobs:       jobs,
		progress:   progress,
		publisher:  publisher,
		metrics:    m,
		translator: trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	if h.metrics != nil {
		h.Mux.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	// 以下 API 必须携带有效的令牌
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/timetables", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleOperator})).Post("/", h.CreateTimetable)
			r.Get("/", h.GetAllTimetables)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.timetableJob)
				r.Get("/", h.GetTimetable)
				r.With(h.RequiredRole([]domain.Role{domain.RoleOperator})).Delete("/", h.CancelTimetable)
			})
		})
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "服务正常", nil)
}
