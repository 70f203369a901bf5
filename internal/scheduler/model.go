package scheduler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
)

var ErrInvalidParameters = errors.New("遗传算法参数无效")

// 遗传算法参数
// 概率以百分比表示（0-100），与原有排课系统的配置保持一致
type Parameters struct {
	Days                 int    `json:"days"`                 // 每周排课天数
	HoursPerDay          int    `json:"hoursPerDay"`          // 每天的课时数
	PopulationSize       int    `json:"populationSize"`       // 种群大小
	ReplacementCount     int    `json:"replacementCount"`     // 每代被替换的染色体数量
	EliteCapacity        int    `json:"eliteCapacity"`        // 精英数量
	CrossoverProbability int    `json:"crossoverProbability"` // 交叉概率
	CrossoverPoints      int    `json:"crossoverPoints"`      // 交叉点数量
	MutationProbability  int    `json:"mutationProbability"`  // 变异概率
	MutationSize         int    `json:"mutationSize"`         // 每次变异移动的课程班数量
	MaxGenerations       int    `json:"maxGenerations"`       // 最大迭代次数
	Parallelism          int    `json:"parallelism"`          // 并行计算适应度的 goroutine 数量，0 表示 CPU 核数
	Seed                 uint64 `json:"seed"`                 // 随机数种子，0 表示随机
}

func DefaultParameters() Parameters {
	return Parameters{
		Days:                 5,
		HoursPerDay:          12,
		PopulationSize:       100,
		ReplacementCount:     8,
		EliteCapacity:        5,
		CrossoverProbability: 80,
		CrossoverPoints:      2,
		MutationProbability:  3,
		MutationSize:         2,
		MaxGenerations:       5000,
		Parallelism:          0,
		Seed:                 0,
	}
}

func (p Parameters) Validate() error {
	if p.Days < 1 {
		return fmt.Errorf("%w: 排课天数必须大于 0（当前为 %d）", ErrInvalidParameters, p.Days)
	}
	if p.HoursPerDay < 1 {
		return fmt.Errorf("%w: 每天课时数必须大于 0（当前为 %d）", ErrInvalidParameters, p.HoursPerDay)
	}
	if p.PopulationSize < 2 {
		return fmt.Errorf("%w: 种群大小不能小于 2（当前为 %d）", ErrInvalidParameters, p.PopulationSize)
	}
	if p.EliteCapacity < 1 || p.EliteCapacity >= p.PopulationSize {
		return fmt.Errorf("%w: 精英数量必须在 [1, %d) 范围内（当前为 %d）", ErrInvalidParameters, p.PopulationSize, p.EliteCapacity)
	}
	if p.CrossoverProbability < 0 || p.CrossoverProbability > 100 {
		return fmt.Errorf("%w: 交叉概率必须在 [0, 100] 范围内（当前为 %d）", ErrInvalidParameters, p.CrossoverProbability)
	}
	if p.MutationProbability < 0 || p.MutationProbability > 100 {
		return fmt.Errorf("%w: 变异概率必须在 [0, 100] 范围内（当前为 %d）", ErrInvalidParameters, p.MutationProbability)
	}
	if p.CrossoverPoints < 0 {
		return fmt.Errorf("%w: 交叉点数量不能为负数（当前为 %d）", ErrInvalidParameters, p.CrossoverPoints)
	}
	if p.MutationSize < 0 {
		return fmt.Errorf("%w: 变异大小不能为负数（当前为 %d）", ErrInvalidParameters, p.MutationSize)
	}
	if p.MaxGenerations < 1 {
		return fmt.Errorf("%w: 最大迭代次数必须大于 0（当前为 %d）", ErrInvalidParameters, p.MaxGenerations)
	}
	if p.Parallelism < 0 {
		return fmt.Errorf("%w: 并行度不能为负数（当前为 %d）", ErrInvalidParameters, p.Parallelism)
	}
	return nil
}

// DecodeParameters 把 JSON 中出现的字段覆盖到 base 上并校验结果
// 显式写出的 0 也会覆盖默认值，raw 为空或 null 时直接校验 base
func DecodeParameters(base Parameters, raw []byte) (Parameters, error) {
	p := base
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return base, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
	}
	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

// normalized 将替换数量限制在 [1, PopulationSize-EliteCapacity] 内，并补全并行度
func (p Parameters) normalized() Parameters {
	upper := p.PopulationSize - p.EliteCapacity
	if p.ReplacementCount < 1 {
		p.ReplacementCount = 1
	} else if p.ReplacementCount > upper {
		p.ReplacementCount = upper
	}
	if p.Parallelism == 0 {
		p.Parallelism = runtime.NumCPU()
	}
	return p
}

// State 表示排课引擎的运行状态
type State int

const (
	StateUninitialized State = iota
	StateSeeded
	StateEvolving
	StateConverged // 找到了没有任何冲突的课表
	StateExhausted // 达到最大迭代次数
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSeeded:
		return "seeded"
	case StateEvolving:
		return "evolving"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Placement 是一个基因：课程班被安排的天、教室和开始课时
type Placement struct {
	CourseClassID int64 `json:"courseClassID"`
	Day           int   `json:"day"`
	ClassroomID   int64 `json:"classroomID"`
	StartHour     int   `json:"startHour"`
	Duration      int   `json:"duration"`
}

type Result struct {
	State       State       `json:"state"`
	Fitness     float64     `json:"fitness"`
	Criteria    []bool      `json:"criteria"`
	Generations int         `json:"generations"`
	Placements  []Placement `json:"placements"`
}

type Progress struct {
	Generation  int
	BestFitness float64
	State       State
}
