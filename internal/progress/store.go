package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kmate129/timetable-ga/internal/config"
	"github.com/kmate129/timetable-ga/internal/domain"
)

// Store 把排课任务的实时进度和取消标记保存在 redis 中
// 进度只在任务运行期间有意义，因此不写入数据库
type Store struct {
	cfg         *config.Config
	redisClient *redis.Client
}

func NewStore(cfg *config.Config, rdb *redis.Client) *Store {
	return &Store{
		cfg:         cfg,
		redisClient: rdb,
	}
}

func progressKey(jobID string) string {
	return fmt.Sprintf("timetable_%s_progress", jobID)
}

func cancelKey(jobID string) string {
	return fmt.Sprintf("timetable_%s_cancel", jobID)
}

func (s *Store) timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(s.cfg.Redis.OperationExpiration)*time.Second)
}

func (s *Store) SetProgress(jobID string, p *domain.JobProgress) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := s.timeout()
	defer cancel()

	expiration := time.Duration(s.cfg.Redis.ProgressExpiration) * time.Second
	return s.redisClient.Set(ctx, progressKey(jobID), payload, expiration).Err()
}

// GetProgress 返回任务的最新进度，任务还没有开始运行时返回 nil
func (s *Store) GetProgress(jobID string) (*domain.JobProgress, error) {
	ctx, cancel := s.timeout()
	defer cancel()

	raw, err := s.redisClient.Get(ctx, progressKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	p := &domain.JobProgress{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Store) RequestCancel(jobID string) error {
	ctx, cancel := s.timeout()
	defer cancel()

	expiration := time.Duration(s.cfg.Redis.ProgressExpiration) * time.Second
	return s.redisClient.Set(ctx, cancelKey(jobID), 1, expiration).Err()
}

func (s *Store) CancelRequested(jobID string) (bool, error) {
	ctx, cancel := s.timeout()
	defer cancel()

	n, err := s.redisClient.Exists(ctx, cancelKey(jobID)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// ClearCancel 删除取消标记，任务结束后由 worker 调用
func (s *Store) ClearCancel(jobID string) error {
	ctx, cancel := s.timeout()
	defer cancel()

	return s.redisClient.Del(ctx, cancelKey(jobID)).Err()
}
