package scheduler

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmate129/timetable-ga/internal/domain"
)

// fixture 用于在测试中快速搭建问题实例
type fixture struct {
	ids        domain.IDGenerator
	teachers   []*domain.Teacher
	groups     []*domain.StudentsGroup
	courses    []*domain.Course
	classrooms []*domain.Classroom
	classes    []*domain.CourseClass
}

func (f *fixture) teacher() *domain.Teacher {
	t := &domain.Teacher{ID: f.ids.NextTeacher()}
	f.teachers = append(f.teachers, t)
	return t
}

func (f *fixture) group(size int) *domain.StudentsGroup {
	g := &domain.StudentsGroup{ID: f.ids.NextGroup(), Size: size}
	f.groups = append(f.groups, g)
	return g
}

func (f *fixture) course() *domain.Course {
	c := &domain.Course{ID: f.ids.NextCourse()}
	f.courses = append(f.courses, c)
	return c
}

func (f *fixture) room(seats int, lab bool) *domain.Classroom {
	r := &domain.Classroom{ID: f.ids.NextClassroom(), Seats: seats, IsLab: lab}
	f.classrooms = append(f.classrooms, r)
	return r
}

func (f *fixture) class(t *domain.Teacher, groups []*domain.StudentsGroup, lab bool, duration int) *domain.CourseClass {
	var c *domain.Course
	if len(f.courses) == 0 {
		c = f.course()
	} else {
		c = f.courses[0]
	}
	cc := domain.NewCourseClass(f.ids.NextCourseClass(), "", t, c, groups, lab, duration)
	f.classes = append(f.classes, cc)
	return cc
}

func (f *fixture) instance(t *testing.T, days, hours int) *Instance {
	t.Helper()
	inst, err := NewInstance(f.teachers, f.groups, f.courses, f.classrooms, f.classes, days, hours)
	require.NoError(t, err)
	return inst
}

// mediumInstance 生成一个规模适中、存在可行解的实例
func mediumInstance(t *testing.T) *Instance {
	t.Helper()
	f := &fixture{}
	teachers := []*domain.Teacher{f.teacher(), f.teacher(), f.teacher()}
	groups := []*domain.StudentsGroup{f.group(20), f.group(25), f.group(30)}
	f.course()
	f.room(40, false)
	f.room(60, true)
	for i := 0; i < 9; i++ {
		f.class(teachers[i%3], []*domain.StudentsGroup{groups[i%3]}, i%4 == 0, 1+i%2)
	}
	return f.instance(t, 3, 6)
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func testParameters(inst *Instance) Parameters {
	p := DefaultParameters()
	p.Days = inst.Days()
	p.HoursPerDay = inst.HoursPerDay()
	p.PopulationSize = 20
	p.EliteCapacity = 3
	p.ReplacementCount = 5
	p.MaxGenerations = 50
	p.Parallelism = 4
	p.Seed = 42
	return p
}
