package domain

type Teacher struct {
	ID               int64  `json:"id"`
	BackendID        string `json:"backendID"`
	Name             string `json:"name"`
	LunchBreakNeeded bool   `json:"lunchBreakNeeded"`

	// 由 NewCourseClass 维护，仅用于冲突检查，不表示所有权
	CourseClasses []*CourseClass `json:"-"`
}

type Course struct {
	ID        int64  `json:"id"`
	BackendID string `json:"backendID"`
	Name      string `json:"name"`
}

type StudentsGroup struct {
	ID        int64  `json:"id"`
	BackendID string `json:"backendID"`
	Name      string `json:"name"`
	Size      int    `json:"size"`

	CourseClasses []*CourseClass `json:"-"`
}

// 数据源没有提供教室容量时使用的默认座位数
const DefaultClassroomSeats = 1000

type Classroom struct {
	ID        int64  `json:"id"`
	BackendID string `json:"backendID"`
	Name      string `json:"name"`
	IsLab     bool   `json:"isLab"`
	Seats     int    `json:"seats"`
}

// CourseClass 表示由一位教师给一个或多个学生组上的一节课
type CourseClass struct {
	ID            int64            `json:"id"`
	BackendID     string           `json:"backendID"`
	Teacher       *Teacher         `json:"-"`
	Course        *Course          `json:"-"`
	Groups        []*StudentsGroup `json:"-"`
	RequiredSeats int              `json:"requiredSeats"`
	LabRequired   bool             `json:"labRequired"`
	Duration      int              `json:"duration"`
}

// NewCourseClass 创建课程班，根据各学生组人数计算所需座位数（只在这里计算一次），
// 并把它登记到教师和每个学生组各自的课程班列表中
func NewCourseClass(id int64, backendID string, teacher *Teacher, course *Course, groups []*StudentsGroup, labRequired bool, duration int) *CourseClass {
	cc := &CourseClass{
		ID:          id,
		BackendID:   backendID,
		Teacher:     teacher,
		Course:      course,
		Groups:      make([]*StudentsGroup, len(groups)),
		LabRequired: labRequired,
		Duration:    duration,
	}
	copy(cc.Groups, groups)

	if teacher != nil {
		teacher.CourseClasses = append(teacher.CourseClasses, cc)
	}
	for _, g := range cc.Groups {
		if g == nil {
			continue
		}
		g.CourseClasses = append(g.CourseClasses, cc)
		cc.RequiredSeats += g.Size
	}

	return cc
}

// SameTeacher 按 ID 判断两个课程班是否由同一位教师授课
func SameTeacher(a, b *CourseClass) bool {
	if a.Teacher == nil || b.Teacher == nil {
		return false
	}
	return a.Teacher.ID == b.Teacher.ID
}

// SharesGroup 按 ID 判断两个课程班是否有共同的学生组
func SharesGroup(a, b *CourseClass) bool {
	for _, ga := range a.Groups {
		for _, gb := range b.Groups {
			if ga != nil && gb != nil && ga.ID == gb.ID {
				return true
			}
		}
	}
	return false
}
