package dataset

import (
	"fmt"

	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/scheduler"
)

// Catalog 是由 File 构建出的实体集合，每个实体的 BackendID 记录了它在数据来源中的 id
type Catalog struct {
	Teachers   []*domain.Teacher
	Courses    []*domain.Course
	Groups     []*domain.StudentsGroup
	Classrooms []*domain.Classroom
	Classes    []*domain.CourseClass
}

// Build 为每个实体分配内部 id，并把课程班中的后端 id 引用解析为实体指针
// 引用不存在或 id 重复时返回包装了 scheduler.ErrConfiguration 的错误
func Build(f *File, gen *domain.IDGenerator) (*Catalog, error) {
	c := &Catalog{
		Teachers:   make([]*domain.Teacher, 0, len(f.Teachers)),
		Courses:    make([]*domain.Course, 0, len(f.Courses)),
		Groups:     make([]*domain.StudentsGroup, 0, len(f.Groups)),
		Classrooms: make([]*domain.Classroom, 0, len(f.Classrooms)),
		Classes:    make([]*domain.CourseClass, 0, len(f.Classes)),
	}

	teachers := make(map[string]*domain.Teacher, len(f.Teachers))
	for _, r := range f.Teachers {
		if _, exists := teachers[r.ID]; exists {
			return nil, fmt.Errorf("%w: 教师 %s 重复", scheduler.ErrConfiguration, r.ID)
		}
		t := &domain.Teacher{
			ID:               gen.NextTeacher(),
			BackendID:        r.ID,
			Name:             r.Name,
			LunchBreakNeeded: r.LunchBreakNeeded,
		}
		teachers[r.ID] = t
		c.Teachers = append(c.Teachers, t)
	}

	courses := make(map[string]*domain.Course, len(f.Courses))
	for _, r := range f.Courses {
		if _, exists := courses[r.ID]; exists {
			return nil, fmt.Errorf("%w: 课程 %s 重复", scheduler.ErrConfiguration, r.ID)
		}
		course := &domain.Course{ID: gen.NextCourse(), BackendID: r.ID, Name: r.Name}
		courses[r.ID] = course
		c.Courses = append(c.Courses, course)
	}

	groups := make(map[string]*domain.StudentsGroup, len(f.Groups))
	for _, r := range f.Groups {
		if _, exists := groups[r.ID]; exists {
			return nil, fmt.Errorf("%w: 学生组 %s 重复", scheduler.ErrConfiguration, r.ID)
		}
		g := &domain.StudentsGroup{ID: gen.NextGroup(), BackendID: r.ID, Name: r.Name, Size: r.Size}
		groups[r.ID] = g
		c.Groups = append(c.Groups, g)
	}

	rooms := make(map[string]bool, len(f.Classrooms))
	for _, r := range f.Classrooms {
		if rooms[r.ID] {
			return nil, fmt.Errorf("%w: 教室 %s 重复", scheduler.ErrConfiguration, r.ID)
		}
		rooms[r.ID] = true

		seats := r.Size
		if seats <= 0 {
			seats = domain.DefaultClassroomSeats
		}
		c.Classrooms = append(c.Classrooms, &domain.Classroom{
			ID:        gen.NextClassroom(),
			BackendID: r.ID,
			Name:      r.Name,
			IsLab:     r.Lab,
			Seats:     seats,
		})
	}

	classes := make(map[string]bool, len(f.Classes))
	for _, r := range f.Classes {
		if classes[r.ID] {
			return nil, fmt.Errorf("%w: 课程班 %s 重复", scheduler.ErrConfiguration, r.ID)
		}
		classes[r.ID] = true

		teacher, ok := teachers[r.Teacher]
		if !ok {
			return nil, fmt.Errorf("%w: 课程班 %s 引用了不存在的教师 %s", scheduler.ErrConfiguration, r.ID, r.Teacher)
		}
		course, ok := courses[r.Course]
		if !ok {
			return nil, fmt.Errorf("%w: 课程班 %s 引用了不存在的课程 %s", scheduler.ErrConfiguration, r.ID, r.Course)
		}
		classGroups := make([]*domain.StudentsGroup, 0, len(r.Groups))
		for _, id := range r.Groups {
			g, ok := groups[id]
			if !ok {
				return nil, fmt.Errorf("%w: 课程班 %s 引用了不存在的学生组 %s", scheduler.ErrConfiguration, r.ID, id)
			}
			classGroups = append(classGroups, g)
		}

		duration := r.Duration
		if duration == 0 {
			duration = 1
		}
		c.Classes = append(c.Classes, domain.NewCourseClass(gen.NextCourseClass(), r.ID, teacher, course, classGroups, r.Lab, duration))
	}

	return c, nil
}

// Instance 使用目录中的实体创建排课问题实例
func (c *Catalog) Instance(days, hoursPerDay int) (*scheduler.Instance, error) {
	return scheduler.NewInstance(c.Teachers, c.Groups, c.Courses, c.Classrooms, c.Classes, days, hoursPerDay)
}

// Placements 把排课结果中的内部 id 转换回数据来源中的 id
func (c *Catalog) Placements(result *scheduler.Result) []domain.TimetablePlacement {
	classes := make(map[int64]*domain.CourseClass, len(c.Classes))
	for _, cc := range c.Classes {
		classes[cc.ID] = cc
	}
	rooms := make(map[int64]*domain.Classroom, len(c.Classrooms))
	for _, r := range c.Classrooms {
		rooms[r.ID] = r
	}

	placements := make([]domain.TimetablePlacement, 0, len(result.Placements))
	for _, p := range result.Placements {
		tp := domain.TimetablePlacement{
			CourseClassID: p.CourseClassID,
			Day:           p.Day,
			ClassroomID:   p.ClassroomID,
			StartHour:     p.StartHour,
			Duration:      p.Duration,
		}
		if cc, ok := classes[p.CourseClassID]; ok {
			tp.CourseClassBackendID = cc.BackendID
		}
		if r, ok := rooms[p.ClassroomID]; ok {
			tp.ClassroomBackendID = r.BackendID
		}
		placements = append(placements, tp)
	}

	return placements
}
