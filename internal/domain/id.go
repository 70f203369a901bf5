package domain

// IDGenerator 为每种实体分别生成递增的内部 ID
// 由构建实体的一方持有（例如 dataset.Build），零值即可直接使用
type IDGenerator struct {
	teachers   int64
	courses    int64
	groups     int64
	classrooms int64
	classes    int64
}

func (g *IDGenerator) NextTeacher() int64 {
	id := g.teachers
	g.teachers++
	return id
}

func (g *IDGenerator) NextCourse() int64 {
	id := g.courses
	g.courses++
	return id
}

func (g *IDGenerator) NextGroup() int64 {
	id := g.groups
	g.groups++
	return id
}

func (g *IDGenerator) NextClassroom() int64 {
	id := g.classrooms
	g.classrooms++
	return id
}

func (g *IDGenerator) NextCourseClass() int64 {
	id := g.classes
	g.classes++
	return id
}

// Reset 将所有计数器归零
func (g *IDGenerator) Reset() {
	*g = IDGenerator{}
}
