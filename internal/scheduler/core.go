package scheduler

import (
	"math/rand/v2"

	"github.com/kmate129/timetable-ga/internal/domain"
)

/**
 * 计算染色体的适应度
 * 每个课程班检查五项标准，满足一项得 1 分：
 * 		1. 所占时间槽中没有其他课程班（教室冲突）
 * 		2. 教室座位数不少于课程班所需座位数
 * 		3. 课程班不需要实验室，或者教室是实验室
 * 		4. 同一时间段内，所有教室中都没有同一教师的其他课程班
 * 		5. 同一时间段内，所有教室中都没有共享学生组的其他课程班
 * fitness = 得分 / (5 × 课程班数量)，范围为 [0, 1]
 */
func (ch *Chromosome) calcFitness() {
	inst := ch.instance
	rooms := len(inst.classrooms)
	score := 0

	for class, start := range ch.starts {
		cc := inst.classes[class]
		day, room, hour := inst.slotPosition(start)
		ci := class * criteriaPerClass

		// 教室冲突
		roomOverlap := false
		for k := 0; k < cc.Duration; k++ {
			if len(ch.slots[start+k]) > 1 {
				roomOverlap = true
				break
			}
		}
		ch.criteria[ci+0] = !roomOverlap

		// 容量
		classroom := inst.classrooms[room]
		ch.criteria[ci+1] = classroom.Seats >= cc.RequiredSeats

		// 实验室
		ch.criteria[ci+2] = !cc.LabRequired || classroom.IsLab

		// 在这一天的所有教室中检查相同时间段的教师和学生组冲突
		teacherOverlap, groupOverlap := false, false
	scan:
		for r := 0; r < rooms; r++ {
			for k := 0; k < cc.Duration; k++ {
				for _, other := range ch.slots[inst.slotIndex(day, r, hour+k)] {
					if other == class {
						continue
					}
					oc := inst.classes[other]
					if !teacherOverlap && domain.SameTeacher(cc, oc) {
						teacherOverlap = true
					}
					if !groupOverlap && domain.SharesGroup(cc, oc) {
						groupOverlap = true
					}
					if teacherOverlap && groupOverlap {
						break scan
					}
				}
			}
		}
		ch.criteria[ci+3] = !teacherOverlap
		ch.criteria[ci+4] = !groupOverlap

		for _, ok := range ch.criteria[ci : ci+criteriaPerClass] {
			if ok {
				score++
			}
		}
	}

	ch.fitness = float64(score) / float64(len(inst.classes)*criteriaPerClass)
}

// Crossover 多点交叉
// 以 (100 - probability)% 的概率直接返回自身的快照；否则随机选出 points 个不同的交叉点，
// 从随机的一个父本开始逐个复制基因，每经过一个交叉点就切换父本
func (ch *Chromosome) Crossover(other *Chromosome, probability, points int, rng *rand.Rand) *Chromosome {
	if rng.IntN(100) >= probability {
		return ch.Clone()
	}

	size := len(ch.starts)
	points = max(0, min(points, size))

	crossoverPoints := make([]bool, size)
	for _, p := range rng.Perm(size)[:points] {
		crossoverPoints[p] = true
	}

	child := newChromosome(ch.instance)
	first := rng.IntN(2) == 0
	for i := 0; i < size; i++ {
		if first {
			child.starts[i] = ch.starts[i]
		} else {
			child.starts[i] = other.starts[i]
		}
		if crossoverPoints[i] {
			first = !first
		}
	}

	child.rebuildSlots()
	child.calcFitness()
	return child
}

// Mutate 以 probability% 的概率随机移动 size 个不同的课程班，返回实际移动的数量
// 所有移动完成后只重新计算一次适应度
func (ch *Chromosome) Mutate(probability, size int, rng *rand.Rand) int {
	if size <= 0 || rng.IntN(100) >= probability {
		return 0
	}

	classes := ch.instance.classes
	size = min(size, len(classes))

	for _, class := range rng.Perm(len(classes))[:size] {
		ch.remove(class)
		ch.place(class, ch.randomStart(classes[class].Duration, rng))
	}

	ch.calcFitness()
	return size
}
