package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCourseClassComputesSeatsAndBackReferences(t *testing.T) {
	teacher := &Teacher{ID: 1, Name: "Ada"}
	course := &Course{ID: 1, Name: "Algebra"}
	g1 := &StudentsGroup{ID: 1, Name: "1A", Size: 20}
	g2 := &StudentsGroup{ID: 2, Name: "1B", Size: 15}

	cc := NewCourseClass(7, "cc-7", teacher, course, []*StudentsGroup{g1, g2}, true, 2)

	assert.Equal(t, 35, cc.RequiredSeats)
	require.Len(t, teacher.CourseClasses, 1)
	assert.Same(t, cc, teacher.CourseClasses[0])
	assert.Same(t, cc, g1.CourseClasses[0])
	assert.Same(t, cc, g2.CourseClasses[0])

	// 修改入参切片不应影响课程班
	groups := []*StudentsGroup{g1}
	other := NewCourseClass(8, "cc-8", teacher, course, groups, false, 1)
	groups[0] = g2
	assert.Equal(t, int64(1), other.Groups[0].ID)
}

func TestEntitiesOwnSeparateClassLists(t *testing.T) {
	t1 := &Teacher{ID: 1}
	t2 := &Teacher{ID: 2}
	g := &StudentsGroup{ID: 1, Size: 10}
	course := &Course{ID: 1}

	NewCourseClass(0, "", t1, course, []*StudentsGroup{g}, false, 1)

	assert.Len(t, t1.CourseClasses, 1)
	assert.Empty(t, t2.CourseClasses)
}

func TestSameTeacherAndSharesGroupCompareByID(t *testing.T) {
	course := &Course{ID: 1}
	a := NewCourseClass(0, "", &Teacher{ID: 3}, course, []*StudentsGroup{{ID: 1}, {ID: 2}}, false, 1)
	b := NewCourseClass(1, "", &Teacher{ID: 3}, course, []*StudentsGroup{{ID: 2}}, false, 1)
	c := NewCourseClass(2, "", &Teacher{ID: 4}, course, []*StudentsGroup{{ID: 9}}, false, 1)

	// 不同的指针，相同的 ID
	assert.True(t, SameTeacher(a, b))
	assert.True(t, SharesGroup(a, b))
	assert.False(t, SameTeacher(a, c))
	assert.False(t, SharesGroup(a, c))
}

func TestIDGeneratorReset(t *testing.T) {
	var gen IDGenerator

	assert.Equal(t, int64(0), gen.NextClassroom())
	assert.Equal(t, int64(1), gen.NextClassroom())
	assert.Equal(t, int64(0), gen.NextTeacher())

	gen.Reset()
	assert.Equal(t, int64(0), gen.NextClassroom())
	assert.Equal(t, int64(0), gen.NextTeacher())
}

func TestJobStatusFinished(t *testing.T) {
	assert.False(t, JobStatusPending.Finished())
	assert.False(t, JobStatusRunning.Finished())
	assert.True(t, JobStatusSucceeded.Finished())
	assert.True(t, JobStatusFailed.Finished())
	assert.True(t, JobStatusCancelled.Finished())
}
