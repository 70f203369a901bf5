package scheduler

import (
	"errors"
	"fmt"

	"github.com/kmate129/timetable-ga/internal/domain"
)

var ErrConfiguration = errors.New("排课数据配置错误")

type Kind int

const (
	KindTeacher Kind = iota
	KindGroup
	KindCourse
	KindClassroom
	KindCourseClass
)

// Instance 是一次排课运行所用的只读问题实例
// 构建完成后不允许修改，所有染色体和 worker goroutine 共享同一个 *Instance
type Instance struct {
	teachers map[int64]*domain.Teacher
	groups   map[int64]*domain.StudentsGroup
	courses  map[int64]*domain.Course

	classrooms    []*domain.Classroom // 下标即教室在时间槽中的编号
	classroomByID map[int64]int

	classes     []*domain.CourseClass // 下标即基因在染色体中的位置
	classByID   map[int64]int
	days        int
	hoursPerDay int
}

func NewInstance(
	teachers []*domain.Teacher,
	groups []*domain.StudentsGroup,
	courses []*domain.Course,
	classrooms []*domain.Classroom,
	classes []*domain.CourseClass,
	days int,
	hoursPerDay int,
) (*Instance, error) {
	switch {
	case len(teachers) == 0:
		return nil, fmt.Errorf("%w: 教师列表为空", ErrConfiguration)
	case len(groups) == 0:
		return nil, fmt.Errorf("%w: 学生组列表为空", ErrConfiguration)
	case len(courses) == 0:
		return nil, fmt.Errorf("%w: 课程列表为空", ErrConfiguration)
	case len(classrooms) == 0:
		return nil, fmt.Errorf("%w: 教室列表为空", ErrConfiguration)
	case len(classes) == 0:
		return nil, fmt.Errorf("%w: 课程班列表为空", ErrConfiguration)
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: 排课天数必须大于 0（当前为 %d）", ErrConfiguration, days)
	}
	if hoursPerDay < 1 {
		return nil, fmt.Errorf("%w: 每天课时数必须大于 0（当前为 %d）", ErrConfiguration, hoursPerDay)
	}

	inst := &Instance{
		teachers:      make(map[int64]*domain.Teacher, len(teachers)),
		groups:        make(map[int64]*domain.StudentsGroup, len(groups)),
		courses:       make(map[int64]*domain.Course, len(courses)),
		classrooms:    make([]*domain.Classroom, 0, len(classrooms)),
		classroomByID: make(map[int64]int, len(classrooms)),
		classes:       make([]*domain.CourseClass, 0, len(classes)),
		classByID:     make(map[int64]int, len(classes)),
		days:          days,
		hoursPerDay:   hoursPerDay,
	}

	for _, t := range teachers {
		if _, exists := inst.teachers[t.ID]; exists {
			return nil, fmt.Errorf("%w: 教师 ID %d 重复", ErrConfiguration, t.ID)
		}
		inst.teachers[t.ID] = t
	}
	for _, g := range groups {
		if _, exists := inst.groups[g.ID]; exists {
			return nil, fmt.Errorf("%w: 学生组 ID %d 重复", ErrConfiguration, g.ID)
		}
		inst.groups[g.ID] = g
	}
	for _, c := range courses {
		if _, exists := inst.courses[c.ID]; exists {
			return nil, fmt.Errorf("%w: 课程 ID %d 重复", ErrConfiguration, c.ID)
		}
		inst.courses[c.ID] = c
	}
	for _, r := range classrooms {
		if _, exists := inst.classroomByID[r.ID]; exists {
			return nil, fmt.Errorf("%w: 教室 ID %d 重复", ErrConfiguration, r.ID)
		}
		inst.classroomByID[r.ID] = len(inst.classrooms)
		inst.classrooms = append(inst.classrooms, r)
	}

	for _, cc := range classes {
		if _, exists := inst.classByID[cc.ID]; exists {
			return nil, fmt.Errorf("%w: 课程班 ID %d 重复", ErrConfiguration, cc.ID)
		}
		if err := inst.checkCourseClass(cc); err != nil {
			return nil, err
		}
		inst.classByID[cc.ID] = len(inst.classes)
		inst.classes = append(inst.classes, cc)
	}

	return inst, nil
}

// checkCourseClass 检查课程班引用的实体是否都在实例中，以及课时长度是否合法
func (inst *Instance) checkCourseClass(cc *domain.CourseClass) error {
	if cc.Teacher == nil || inst.teachers[cc.Teacher.ID] == nil {
		return fmt.Errorf("%w: 课程班 %d 引用了不存在的教师", ErrConfiguration, cc.ID)
	}
	if cc.Course == nil || inst.courses[cc.Course.ID] == nil {
		return fmt.Errorf("%w: 课程班 %d 引用了不存在的课程", ErrConfiguration, cc.ID)
	}
	if len(cc.Groups) == 0 {
		return fmt.Errorf("%w: 课程班 %d 没有学生组", ErrConfiguration, cc.ID)
	}
	for _, g := range cc.Groups {
		if g == nil || inst.groups[g.ID] == nil {
			return fmt.Errorf("%w: 课程班 %d 引用了不存在的学生组", ErrConfiguration, cc.ID)
		}
	}
	if cc.Duration < 1 {
		return fmt.Errorf("%w: 课程班 %d 的课时长度必须大于 0（当前为 %d）", ErrConfiguration, cc.ID, cc.Duration)
	}
	if cc.Duration > inst.hoursPerDay {
		return fmt.Errorf("%w: 课程班 %d 的课时长度 %d 超过了每天的课时数 %d", ErrConfiguration, cc.ID, cc.Duration, inst.hoursPerDay)
	}
	return nil
}

func (inst *Instance) Teacher(id int64) (*domain.Teacher, bool) {
	t, ok := inst.teachers[id]
	return t, ok
}

func (inst *Instance) Group(id int64) (*domain.StudentsGroup, bool) {
	g, ok := inst.groups[id]
	return g, ok
}

func (inst *Instance) Course(id int64) (*domain.Course, bool) {
	c, ok := inst.courses[id]
	return c, ok
}

func (inst *Instance) Classroom(id int64) (*domain.Classroom, bool) {
	i, ok := inst.classroomByID[id]
	if !ok {
		return nil, false
	}
	return inst.classrooms[i], true
}

func (inst *Instance) CourseClass(id int64) (*domain.CourseClass, bool) {
	i, ok := inst.classByID[id]
	if !ok {
		return nil, false
	}
	return inst.classes[i], true
}

func (inst *Instance) Count(kind Kind) int {
	switch kind {
	case KindTeacher:
		return len(inst.teachers)
	case KindGroup:
		return len(inst.groups)
	case KindCourse:
		return len(inst.courses)
	case KindClassroom:
		return len(inst.classrooms)
	case KindCourseClass:
		return len(inst.classes)
	default:
		return 0
	}
}

// CourseClasses 返回按基因顺序排列的课程班，调用方不应修改返回的切片
func (inst *Instance) CourseClasses() []*domain.CourseClass {
	return inst.classes
}

// Classrooms 返回按教室编号排列的教室，调用方不应修改返回的切片
func (inst *Instance) Classrooms() []*domain.Classroom {
	return inst.classrooms
}

func (inst *Instance) Days() int { return inst.days }
func (inst *Instance) HoursPerDay() int { return inst.hoursPerDay }
func (inst *Instance) Rooms() int { return len(inst.classrooms) }

// SlotCount 返回时间槽总数：天数 × 教室数 × 每天课时数
func (inst *Instance) SlotCount() int {
	return inst.days * inst.daySize()
}

// daySize 是一天内所有教室的时间槽数量
func (inst *Instance) daySize() int {
	return len(inst.classrooms) * inst.hoursPerDay
}

func (inst *Instance) slotIndex(day, room, hour int) int {
	return day*inst.daySize() + room*inst.hoursPerDay + hour
}

func (inst *Instance) slotPosition(index int) (day, room, hour int) {
	day = index / inst.daySize()
	rest := index % inst.daySize()
	room = rest / inst.hoursPerDay
	hour = rest % inst.hoursPerDay
	return day, room, hour
}
