package scheduler

import (
	"fmt"
	"math/rand/v2"
)

// 每个课程班参与评估的标准数量：教室冲突、容量、实验室、教师冲突、学生组冲突
const criteriaPerClass = 5

// Chromosome: 一张完整的候选课表
type Chromosome struct {
	instance *Instance
	slots    [][]int // 每个时间槽中的课程班下标
	starts   []int   // 课程班下标 -> 开始时间槽，即基因序列
	fitness  float64
	criteria []bool
}

func newChromosome(inst *Instance) *Chromosome {
	starts := make([]int, len(inst.classes))
	for i := range starts {
		starts[i] = -1
	}

	return &Chromosome{
		instance: inst,
		slots:    make([][]int, inst.SlotCount()),
		starts:   starts,
		criteria: make([]bool, len(inst.classes)*criteriaPerClass),
	}
}

// NewRandomChromosome 为每个课程班随机选择天、教室和开始课时，然后计算适应度
// 这里允许产生冲突，冲突只会降低适应度
func NewRandomChromosome(inst *Instance, rng *rand.Rand) *Chromosome {
	ch := newChromosome(inst)
	for i, cc := range inst.classes {
		ch.place(i, ch.randomStart(cc.Duration, rng))
	}
	ch.calcFitness()
	return ch
}

// randomStart 随机选择一个开始时间槽，保证整节课落在同一天的同一间教室内
func (ch *Chromosome) randomStart(duration int, rng *rand.Rand) int {
	inst := ch.instance
	day := rng.IntN(inst.days)
	room := rng.IntN(len(inst.classrooms))
	hour := rng.IntN(inst.hoursPerDay + 1 - duration)
	return inst.slotIndex(day, room, hour)
}

func (ch *Chromosome) place(class, start int) {
	duration := ch.instance.classes[class].Duration
	for k := 0; k < duration; k++ {
		ch.slots[start+k] = append(ch.slots[start+k], class)
	}
	ch.starts[class] = start
}

// remove 把课程班从它占用的每个时间槽中移除
func (ch *Chromosome) remove(class int) {
	start := ch.starts[class]
	duration := ch.instance.classes[class].Duration
	for k := 0; k < duration; k++ {
		occupants := ch.slots[start+k]
		for j, c := range occupants {
			if c == class {
				ch.slots[start+k] = append(occupants[:j], occupants[j+1:]...)
				break
			}
		}
	}
	ch.starts[class] = -1
}

// rebuildSlots 根据基因序列重新分配并填充时间槽
func (ch *Chromosome) rebuildSlots() {
	ch.slots = make([][]int, ch.instance.SlotCount())
	for class, start := range ch.starts {
		if start < 0 {
			// 说明算子破坏了不变量，属于程序错误
			panic(fmt.Sprintf("scheduler: 课程班 %d 没有被安排到任何时间槽", ch.instance.classes[class].ID))
		}
		duration := ch.instance.classes[class].Duration
		for k := 0; k < duration; k++ {
			ch.slots[start+k] = append(ch.slots[start+k], class)
		}
	}
}

// Clone 返回一个独立的快照，时间槽根据基因序列重新构建，不与原染色体共享任何存储
func (ch *Chromosome) Clone() *Chromosome {
	clone := &Chromosome{
		instance: ch.instance,
		starts:   make([]int, len(ch.starts)),
		fitness:  ch.fitness,
		criteria: make([]bool, len(ch.criteria)),
	}
	copy(clone.starts, ch.starts)
	copy(clone.criteria, ch.criteria)
	clone.rebuildSlots()
	return clone
}

func (ch *Chromosome) Fitness() float64 {
	return ch.fitness
}

// Criteria 返回每个课程班五项标准的满足情况，长度为 5 × 课程班数量
func (ch *Chromosome) Criteria() []bool {
	return ch.criteria
}

func (ch *Chromosome) Placements() []Placement {
	inst := ch.instance
	placements := make([]Placement, len(ch.starts))
	for i, start := range ch.starts {
		day, room, hour := inst.slotPosition(start)
		placements[i] = Placement{
			CourseClassID: inst.classes[i].ID,
			Day:           day,
			ClassroomID:   inst.classrooms[room].ID,
			StartHour:     hour,
			Duration:      inst.classes[i].Duration,
		}
	}
	return placements
}

// CheckInvariants 检查每个课程班是否恰好占用同一天同一教室内连续的 duration 个时间槽，
// 并且时间槽中没有多余的占用
func (ch *Chromosome) CheckInvariants() error {
	inst := ch.instance
	occupied := 0

	for class, start := range ch.starts {
		cc := inst.classes[class]
		if start < 0 || start >= len(ch.slots) {
			return fmt.Errorf("课程班 %d 的开始时间槽 %d 越界", cc.ID, start)
		}
		if start%inst.hoursPerDay+cc.Duration > inst.hoursPerDay {
			return fmt.Errorf("课程班 %d 跨越了教室或天", cc.ID)
		}
		for k := 0; k < cc.Duration; k++ {
			found := false
			for _, c := range ch.slots[start+k] {
				if c == class {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("课程班 %d 不在时间槽 %d 中", cc.ID, start+k)
			}
		}
		occupied += cc.Duration
	}

	total := 0
	for _, occupants := range ch.slots {
		total += len(occupants)
	}
	if total != occupied {
		return fmt.Errorf("时间槽中共有 %d 个占用，应为 %d", total, occupied)
	}

	return nil
}
