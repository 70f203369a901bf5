package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrMissingField = errors.New("后端数据缺少必要字段")

// Client 从排课后端的 REST 接口读取排课数据
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// backendID 兼容后端返回数字或字符串形式的 id
type backendID string

func (id *backendID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = backendID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("无法解析 id %s: %w", string(data), err)
	}
	*id = backendID(n.String())
	return nil
}

type backendClassroom struct {
	ID    backendID `json:"id"`
	Name  *string   `json:"name"`
	IsLab bool      `json:"is_lab"`
	Seats int       `json:"seats"`
}

type backendUser struct {
	ID               backendID `json:"id"`
	Name             *string   `json:"name"`
	LunchBreakNeeded bool      `json:"lunch_break_needed"`
}

type backendCourse struct {
	ID   backendID `json:"id"`
	Name *string   `json:"name"`
}

type backendStudentGroup struct {
	ID               backendID `json:"id"`
	Name             *string   `json:"name"`
	NumberOfStudents *int      `json:"number_of_students"`
}

type backendCourseClass struct {
	ID          backendID   `json:"id"`
	Teacher     backendID   `json:"teacher"`
	Course      backendID   `json:"course"`
	Groups      []backendID `json:"groups"`
	LabRequired bool        `json:"lab_required"`
	Duration    int         `json:"duration"`
}

// Fetch 并发请求五个接口并组装成 File
// 任意一个接口失败或者缺少必要字段都会返回错误，不会返回部分数据
func (c *Client) Fetch(ctx context.Context) (*File, error) {
	var (
		classrooms []backendClassroom
		users      []backendUser
		courses    []backendCourse
		groups     []backendStudentGroup
		classes    []backendCourseClass
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "/classrooms", &classrooms) })
	g.Go(func() error { return c.get(gctx, "/users", &users) })
	g.Go(func() error { return c.get(gctx, "/courses", &courses) })
	g.Go(func() error { return c.get(gctx, "/student-groups", &groups) })
	g.Go(func() error { return c.get(gctx, "/course-classes", &classes) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := &File{
		Teachers:   make([]TeacherRecord, 0, len(users)),
		Courses:    make([]CourseRecord, 0, len(courses)),
		Groups:     make([]GroupRecord, 0, len(groups)),
		Classrooms: make([]ClassroomRecord, 0, len(classrooms)),
		Classes:    make([]ClassRecord, 0, len(classes)),
	}

	for _, u := range users {
		if u.Name == nil {
			return nil, fmt.Errorf("%w: 教师 %s 缺少 name", ErrMissingField, u.ID)
		}
		f.Teachers = append(f.Teachers, TeacherRecord{
			ID:               string(u.ID),
			Name:             *u.Name,
			LunchBreakNeeded: u.LunchBreakNeeded,
		})
	}
	for _, cr := range courses {
		if cr.Name == nil {
			return nil, fmt.Errorf("%w: 课程 %s 缺少 name", ErrMissingField, cr.ID)
		}
		f.Courses = append(f.Courses, CourseRecord{ID: string(cr.ID), Name: *cr.Name})
	}
	for _, sg := range groups {
		if sg.Name == nil || sg.NumberOfStudents == nil {
			return nil, fmt.Errorf("%w: 学生组 %s 缺少 name 或 number_of_students", ErrMissingField, sg.ID)
		}
		f.Groups = append(f.Groups, GroupRecord{ID: string(sg.ID), Name: *sg.Name, Size: *sg.NumberOfStudents})
	}
	for _, room := range classrooms {
		if room.Name == nil {
			return nil, fmt.Errorf("%w: 教室 %s 缺少 name", ErrMissingField, room.ID)
		}
		f.Classrooms = append(f.Classrooms, ClassroomRecord{
			ID:   string(room.ID),
			Name: *room.Name,
			Lab:  room.IsLab,
			Size: room.Seats,
		})
	}
	for _, cc := range classes {
		record := ClassRecord{
			ID:       string(cc.ID),
			Teacher:  string(cc.Teacher),
			Course:   string(cc.Course),
			Groups:   make([]string, len(cc.Groups)),
			Lab:      cc.LabRequired,
			Duration: cc.Duration,
		}
		for i, g := range cc.Groups {
			record.Groups[i] = string(g)
		}
		f.Classes = append(f.Classes, record)
	}

	return f, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("请求 %s 失败: 状态码 %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("解析 %s 的响应失败: %w", path, err)
	}

	return nil
}
