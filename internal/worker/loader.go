package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kmate129/timetable-ga/internal/dataset"
	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/scheduler"
)

// Fetcher 从外部后端读取排课数据，由 dataset.Client 实现
type Fetcher interface {
	Fetch(ctx context.Context) (*dataset.File, error)
}

// Loader 根据请求中的数据来源读取排课数据
type Loader struct {
	dummyFile string
	backend   Fetcher
}

func NewLoader(dummyFile string, backend Fetcher) *Loader {
	return &Loader{
		dummyFile: dummyFile,
		backend:   backend,
	}
}

func (l *Loader) Load(ctx context.Context, req *domain.TimetableRequest) (*dataset.File, error) {
	switch req.Source {
	case domain.DatasetSourceDummy:
		return dataset.LoadFile(l.dummyFile)
	case domain.DatasetSourceBackend:
		if l.backend == nil {
			return nil, fmt.Errorf("%w: 没有配置后端地址", scheduler.ErrConfiguration)
		}
		return l.backend.Fetch(ctx)
	case domain.DatasetSourceInline:
		f := &dataset.File{}
		if err := json.Unmarshal(req.Dataset, f); err != nil {
			return nil, fmt.Errorf("%w: 解析 inline 数据失败: %v", scheduler.ErrConfiguration, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: 未知的数据来源 %q", scheduler.ErrConfiguration, req.Source)
	}
}
