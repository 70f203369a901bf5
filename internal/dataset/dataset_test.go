package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmate129/timetable-ga/internal/domain"
	"github.com/kmate129/timetable-ga/internal/scheduler"
)

func sampleFile() *File {
	return &File{
		Teachers: []TeacherRecord{{ID: "t1", Name: "王伟"}, {ID: "t2", Name: "李芳"}},
		Courses:  []CourseRecord{{ID: "c1", Name: "数学"}},
		Groups:   []GroupRecord{{ID: "g1", Name: "一班", Size: 30}, {ID: "g2", Name: "二班", Size: 25}},
		Classrooms: []ClassroomRecord{
			{ID: "r1", Name: "A101", Size: 60},
			{ID: "r2", Name: "实验室", Lab: true},
		},
		Classes: []ClassRecord{
			{ID: "cc1", Teacher: "t1", Course: "c1", Groups: []string{"g1", "g2"}, Duration: 2},
			{ID: "cc2", Teacher: "t2", Course: "c1", Groups: []string{"g2"}, Lab: true},
		},
	}
}

func TestBuildResolvesReferences(t *testing.T) {
	gen := &domain.IDGenerator{}
	c, err := Build(sampleFile(), gen)
	require.NoError(t, err)

	require.Len(t, c.Classes, 2)
	first := c.Classes[0]
	assert.Equal(t, "cc1", first.BackendID)
	assert.Same(t, c.Teachers[0], first.Teacher)
	assert.Equal(t, 55, first.RequiredSeats)
	assert.Equal(t, 2, first.Duration)

	second := c.Classes[1]
	assert.Equal(t, 1, second.Duration)
	assert.True(t, second.LabRequired)

	// 反向引用
	assert.Equal(t, []*domain.CourseClass{first}, c.Teachers[0].CourseClasses)
	assert.Equal(t, []*domain.CourseClass{first, second}, c.Groups[1].CourseClasses)

	assert.Equal(t, 60, c.Classrooms[0].Seats)
	assert.Equal(t, domain.DefaultClassroomSeats, c.Classrooms[1].Seats)

	inst, err := c.Instance(5, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, inst.Count(scheduler.KindCourseClass))
}

func TestBuildRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *File)
	}{
		{"unknown teacher", func(f *File) { f.Classes[0].Teacher = "nobody" }},
		{"unknown course", func(f *File) { f.Classes[0].Course = "nothing" }},
		{"unknown group", func(f *File) { f.Classes[1].Groups = []string{"g9"} }},
		{"duplicate teacher", func(f *File) { f.Teachers[1].ID = "t1" }},
		{"duplicate classroom", func(f *File) { f.Classrooms[1].ID = "r1" }},
		{"duplicate class", func(f *File) { f.Classes[1].ID = "cc1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sampleFile()
			tt.modify(f)
			_, err := Build(f, &domain.IDGenerator{})
			assert.ErrorIs(t, err, scheduler.ErrConfiguration)
		})
	}
}

func TestCatalogInstanceRejectsLongClass(t *testing.T) {
	f := sampleFile()
	f.Classes[0].Duration = 4
	c, err := Build(f, &domain.IDGenerator{})
	require.NoError(t, err)

	_, err = c.Instance(5, 3)
	assert.ErrorIs(t, err, scheduler.ErrConfiguration)
}

func TestCatalogPlacementsUseBackendIDs(t *testing.T) {
	c, err := Build(sampleFile(), &domain.IDGenerator{})
	require.NoError(t, err)

	placements := c.Placements(&scheduler.Result{
		Placements: []scheduler.Placement{
			{CourseClassID: c.Classes[1].ID, Day: 2, ClassroomID: c.Classrooms[1].ID, StartHour: 3, Duration: 1},
		},
	})
	require.Len(t, placements, 1)
	assert.Equal(t, "cc2", placements[0].CourseClassBackendID)
	assert.Equal(t, "r2", placements[0].ClassroomBackendID)
	assert.Equal(t, 2, placements[0].Day)
	assert.Equal(t, 3, placements[0].StartHour)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dummy.json")
	require.NoError(t, sampleFile().WriteFile(path))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleFile(), f)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func newBackend(t *testing.T, overrides map[string]string) *httptest.Server {
	t.Helper()
	payloads := map[string]string{
		"/classrooms":     `[{"id": 1, "name": "A101", "seats": 40}, {"id": 2, "name": "Lab", "is_lab": true}]`,
		"/users":          `[{"id": "u1", "name": "王伟", "lunch_break_needed": true}]`,
		"/courses":        `[{"id": 7, "name": "物理"}]`,
		"/student-groups": `[{"id": 3, "name": "一班", "number_of_students": 28}]`,
		"/course-classes": `[{"id": 11, "teacher": "u1", "course": 7, "groups": [3], "lab_required": true, "duration": 2}]`,
	}
	for k, v := range overrides {
		payloads[k] = v
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFetch(t *testing.T) {
	srv := newBackend(t, nil)
	client := NewClient(srv.URL+"/", 5*time.Second)

	f, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []TeacherRecord{{ID: "u1", Name: "王伟", LunchBreakNeeded: true}}, f.Teachers)
	assert.Equal(t, []CourseRecord{{ID: "7", Name: "物理"}}, f.Courses)
	assert.Equal(t, []GroupRecord{{ID: "3", Name: "一班", Size: 28}}, f.Groups)
	assert.Equal(t, []ClassroomRecord{
		{ID: "1", Name: "A101", Size: 40},
		{ID: "2", Name: "Lab", Lab: true},
	}, f.Classrooms)
	assert.Equal(t, []ClassRecord{
		{ID: "11", Teacher: "u1", Course: "7", Groups: []string{"3"}, Lab: true, Duration: 2},
	}, f.Classes)

	c, err := Build(f, &domain.IDGenerator{})
	require.NoError(t, err)
	_, err = c.Instance(5, 12)
	require.NoError(t, err)
}

func TestClientFetchMissingName(t *testing.T) {
	srv := newBackend(t, map[string]string{"/users": `[{"id": "u1"}]`})
	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestClientFetchMissingGroupSize(t *testing.T) {
	srv := newBackend(t, map[string]string{"/student-groups": `[{"id": 3, "name": "一班"}]`})
	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestClientFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	assert.Error(t, err)
}
