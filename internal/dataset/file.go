package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// File 是排课数据的原始形式，dummy 数据文件、后端接口以及请求体中的 inline 数据都会先转换成它
// 其中的 id 都是数据来源中的 id（字符串），由 Build 统一分配内部 id
type File struct {
	Teachers   []TeacherRecord   `json:"teachers" validate:"required,dive"`
	Courses    []CourseRecord    `json:"courses" validate:"required,dive"`
	Groups     []GroupRecord     `json:"groups" validate:"required,dive"`
	Classrooms []ClassroomRecord `json:"classrooms" validate:"required,dive"`
	Classes    []ClassRecord     `json:"classes" validate:"required,dive"`
}

type TeacherRecord struct {
	ID               string `json:"id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	LunchBreakNeeded bool   `json:"lunchBreakNeeded"`
}

type CourseRecord struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type GroupRecord struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Size int    `json:"size" validate:"gte=0"`
}

type ClassroomRecord struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Lab  bool   `json:"lab"`
	Size int    `json:"size" validate:"gte=0"` // 为 0 时使用默认座位数
}

type ClassRecord struct {
	ID       string   `json:"id" validate:"required"`
	Teacher  string   `json:"teacher" validate:"required"`
	Course   string   `json:"course" validate:"required"`
	Groups   []string `json:"groups" validate:"required,min=1,dive,required"`
	Lab      bool     `json:"lab"`
	Duration int      `json:"duration" validate:"gte=0"` // 为 0 时按 1 个课时处理
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}

	return f, nil
}

func (f *File) WriteFile(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
