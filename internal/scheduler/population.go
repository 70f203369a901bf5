package scheduler

import (
	"math/rand/v2"
	"slices"
	"sort"
)

// population 保存所有染色体，以及按适应度从高到低排序的精英下标列表
// 在精英列表中的下标不会被后代替换
type population struct {
	chromosomes []*Chromosome
	best        []int
	bestFlags   []bool
	capacity    int
}

func newPopulation(size, eliteCapacity int) *population {
	return &population{
		chromosomes: make([]*Chromosome, size),
		best:        make([]int, 0, eliteCapacity+1),
		bestFlags:   make([]bool, size),
		capacity:    eliteCapacity,
	}
}

// addToBest 尝试把下标为 index 的染色体加入精英列表
// 列表已满且它不比最差的精英更好时直接丢弃，否则按适应度插入，超出容量时淘汰最差的一个
func (p *population) addToBest(index int) {
	if p.bestFlags[index] {
		return
	}

	fitness := p.chromosomes[index].fitness
	if len(p.best) == p.capacity && p.chromosomes[p.best[len(p.best)-1]].fitness >= fitness {
		return
	}

	// 适应度相同时新来的排在后面
	pos := sort.Search(len(p.best), func(i int) bool {
		return p.chromosomes[p.best[i]].fitness < fitness
	})
	p.best = slices.Insert(p.best, pos, index)
	p.bestFlags[index] = true

	if len(p.best) > p.capacity {
		worst := p.best[len(p.best)-1]
		p.bestFlags[worst] = false
		p.best = p.best[:p.capacity]
	}
}

func (p *population) isInBest(index int) bool {
	return p.bestFlags[index]
}

func (p *population) bestChromosome() *Chromosome {
	if len(p.best) == 0 {
		return nil
	}
	return p.chromosomes[p.best[0]]
}

// randomNonBest 随机选择一个不在精英列表中的下标
// 精英数量严格小于种群大小，因此总能找到
func (p *population) randomNonBest(rng *rand.Rand) int {
	candidates := make([]int, 0, len(p.chromosomes)-len(p.best))
	for i := range p.chromosomes {
		if !p.isInBest(i) {
			candidates = append(candidates, i)
		}
	}
	return candidates[rng.IntN(len(candidates))]
}
