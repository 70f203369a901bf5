package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kmate129/timetable-ga/internal/dataset"
)

// CSV 目录中每个文件必须包含的列
var requiredHeaders = map[string][]string{
	"teachers.csv":   {"id", "name"},
	"courses.csv":    {"id", "name"},
	"groups.csv":     {"id", "name", "size"},
	"classrooms.csv": {"id", "name", "size"},
	"classes.csv":    {"id", "teacher", "course", "groups"},
}

// ImportCSV 从目录中的 CSV 文件读取排课数据
// classes.csv 的 groups 列用分号分隔多个学生组，lab、lunch_break 等布尔列留空表示 false
func ImportCSV(dir string) (*dataset.File, error) {
	f := &dataset.File{}

	teachers, err := readCSV(dir, "teachers.csv")
	if err != nil {
		return nil, err
	}
	for _, record := range teachers {
		lunch, err := parseBool(record, "lunch_break")
		if err != nil {
			return nil, err
		}
		f.Teachers = append(f.Teachers, dataset.TeacherRecord{
			ID:               record["id"],
			Name:             record["name"],
			LunchBreakNeeded: lunch,
		})
	}

	courses, err := readCSV(dir, "courses.csv")
	if err != nil {
		return nil, err
	}
	for _, record := range courses {
		f.Courses = append(f.Courses, dataset.CourseRecord{ID: record["id"], Name: record["name"]})
	}

	groups, err := readCSV(dir, "groups.csv")
	if err != nil {
		return nil, err
	}
	for _, record := range groups {
		size, err := parseInt(record, "size")
		if err != nil {
			return nil, err
		}
		f.Groups = append(f.Groups, dataset.GroupRecord{ID: record["id"], Name: record["name"], Size: size})
	}

	classrooms, err := readCSV(dir, "classrooms.csv")
	if err != nil {
		return nil, err
	}
	for _, record := range classrooms {
		size, err := parseInt(record, "size")
		if err != nil {
			return nil, err
		}
		lab, err := parseBool(record, "lab")
		if err != nil {
			return nil, err
		}
		f.Classrooms = append(f.Classrooms, dataset.ClassroomRecord{ID: record["id"], Name: record["name"], Lab: lab, Size: size})
	}

	classes, err := readCSV(dir, "classes.csv")
	if err != nil {
		return nil, err
	}
	for _, record := range classes {
		duration, err := parseInt(record, "duration")
		if err != nil {
			return nil, err
		}
		lab, err := parseBool(record, "lab")
		if err != nil {
			return nil, err
		}

		var classGroups []string
		for _, g := range strings.Split(record["groups"], ";") {
			if g = strings.TrimSpace(g); g != "" {
				classGroups = append(classGroups, g)
			}
		}

		f.Classes = append(f.Classes, dataset.ClassRecord{
			ID:       record["id"],
			Teacher:  record["teacher"],
			Course:   record["course"],
			Groups:   classGroups,
			Lab:      lab,
			Duration: duration,
		})
	}

	return f, nil
}

// readCSV 读取带表头的 CSV 文件，每一行转换成 列名 -> 值 的映射
func readCSV(dir, name string) ([]map[string]string, error) {
	file, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取 %s 的表头失败: %w", name, err)
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}
	for _, required := range requiredHeaders[name] {
		if !slices.Contains(headers, required) {
			return nil, fmt.Errorf("%s 缺少 %s 列", name, required)
		}
	}

	// 读取数据
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取 %s 失败: %w", name, err)
		}

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}
		records = append(records, record)
	}

	return records, nil
}

func parseInt(record map[string]string, column string) (int, error) {
	value := record[column]
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s 的 %s 列不是整数: %q", record["id"], column, value)
	}
	return n, nil
}

func parseBool(record map[string]string, column string) (bool, error) {
	value := record[column]
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s 的 %s 列不是布尔值: %q", record["id"], column, value)
	}
	return b, nil
}
