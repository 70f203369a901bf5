package seed

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/mozillazg/go-pinyin"

	"github.com/kmate129/timetable-ga/internal/dataset"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}
var courseNames = []string{
	"高等数学", "线性代数", "概率论", "大学物理", "程序设计", "数据结构",
	"操作系统", "计算机网络", "数据库", "编译原理", "大学英语", "体育",
}

func GenerateRandomChineseName(rng *rand.Rand) string {
	surname := commonSurnames[rng.IntN(len(commonSurnames))]
	nameLength := rng.IntN(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rng.IntN(len(commonNameCharacters))]
	}
	return surname + name
}

// BackendIDFromChineseName 用姓名的拼音加序号作为教师在后端中的 id，例如 zhangwei03
func BackendIDFromChineseName(chineseName string, index int) string {
	return fmt.Sprintf("%s%02d", strings.Join(pinyin.LazyConvert(chineseName, nil), ""), index)
}

type Options struct {
	Teachers       int
	Courses        int
	Groups         int
	Classrooms     int
	Labs           int // 其中实验室的数量
	Classes        int
	MaxDuration    int
	MaxGroupsPerCC int // 每个课程班最多的学生组数量
}

func DefaultOptions() Options {
	return Options{
		Teachers:       12,
		Courses:        10,
		Groups:         8,
		Classrooms:     8,
		Labs:           2,
		Classes:        40,
		MaxDuration:    3,
		MaxGroupsPerCC: 2,
	}
}

// GenerateRandomDataset 随机生成一份排课数据，用于 dummy 数据文件和压测
// 教室容量总是不小于任意课程班的人数，实验课只会在有实验室时生成
func GenerateRandomDataset(rng *rand.Rand, opts Options) (*dataset.File, error) {
	if opts.Teachers < 1 || opts.Courses < 1 || opts.Groups < 1 || opts.Classrooms < 1 || opts.Classes < 1 {
		return nil, errors.New("每种实体的数量都必须大于 0")
	}
	if opts.Labs < 0 || opts.Labs > opts.Classrooms {
		return nil, fmt.Errorf("实验室数量必须在 [0, %d] 范围内", opts.Classrooms)
	}
	if opts.MaxDuration < 1 {
		opts.MaxDuration = 1
	}
	opts.MaxGroupsPerCC = min(max(opts.MaxGroupsPerCC, 1), opts.Groups)

	f := &dataset.File{}

	for i := 0; i < opts.Teachers; i++ {
		name := GenerateRandomChineseName(rng)
		f.Teachers = append(f.Teachers, dataset.TeacherRecord{
			ID:               BackendIDFromChineseName(name, i),
			Name:             name,
			LunchBreakNeeded: rng.IntN(4) == 0,
		})
	}

	for i := 0; i < opts.Courses; i++ {
		name := courseNames[i%len(courseNames)]
		if i >= len(courseNames) {
			name = fmt.Sprintf("%s（%d）", name, i/len(courseNames)+1)
		}
		f.Courses = append(f.Courses, dataset.CourseRecord{ID: fmt.Sprintf("course-%02d", i), Name: name})
	}

	maxGroupSize := 0
	for i := 0; i < opts.Groups; i++ {
		size := 20 + rng.IntN(21)
		maxGroupSize = max(maxGroupSize, size)
		f.Groups = append(f.Groups, dataset.GroupRecord{
			ID:   fmt.Sprintf("group-%02d", i),
			Name: fmt.Sprintf("%d班", i+1),
			Size: size,
		})
	}

	// 任何课程班的人数都不超过 maxGroupSize * MaxGroupsPerCC
	minSeats := maxGroupSize * opts.MaxGroupsPerCC
	for i := 0; i < opts.Classrooms; i++ {
		f.Classrooms = append(f.Classrooms, dataset.ClassroomRecord{
			ID:   fmt.Sprintf("room-%02d", i),
			Name: fmt.Sprintf("%d", 101+i),
			Lab:  i < opts.Labs,
			Size: minSeats + rng.IntN(20),
		})
	}

	for i := 0; i < opts.Classes; i++ {
		groupCount := rng.IntN(opts.MaxGroupsPerCC) + 1
		groups := make([]string, 0, groupCount)
		for _, idx := range rng.Perm(opts.Groups)[:groupCount] {
			groups = append(groups, f.Groups[idx].ID)
		}

		f.Classes = append(f.Classes, dataset.ClassRecord{
			ID:       fmt.Sprintf("class-%03d", i),
			Teacher:  f.Teachers[rng.IntN(len(f.Teachers))].ID,
			Course:   f.Courses[rng.IntN(len(f.Courses))].ID,
			Groups:   groups,
			Lab:      opts.Labs > 0 && rng.IntN(5) == 0,
			Duration: rng.IntN(opts.MaxDuration) + 1,
		})
	}

	return f, nil
}
