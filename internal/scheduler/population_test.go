package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populationWithFitness(values ...float64) *population {
	p := newPopulation(len(values), 3)
	for i, v := range values {
		p.chromosomes[i] = &Chromosome{fitness: v}
	}
	return p
}

func TestAddToBestKeepsSortedList(t *testing.T) {
	p := populationWithFitness(0.2, 0.9, 0.5, 0.7, 0.1, 0.9)
	for i := range p.chromosomes {
		p.addToBest(i)
	}

	// 适应度相同时先加入的排在前面
	assert.Equal(t, []int{1, 5, 3}, p.best)
	for i := range p.chromosomes {
		assert.Equal(t, i == 1 || i == 5 || i == 3, p.isInBest(i), "index %d", i)
	}
	assert.Same(t, p.chromosomes[1], p.bestChromosome())
}

func TestAddToBestIgnoresDuplicatesAndWorse(t *testing.T) {
	p := populationWithFitness(0.5, 0.6, 0.7, 0.4)
	p.addToBest(0)
	p.addToBest(0)
	assert.Equal(t, []int{0}, p.best)

	p.addToBest(1)
	p.addToBest(2)
	p.addToBest(3)
	assert.Equal(t, []int{2, 1, 0}, p.best)
	assert.False(t, p.isInBest(3))
}

func TestRandomNonBestNeverReturnsElite(t *testing.T) {
	p := populationWithFitness(0.1, 0.2, 0.3, 0.4, 0.5)
	for i := range p.chromosomes {
		p.addToBest(i)
	}
	require.Equal(t, []int{4, 3, 2}, p.best)

	rng := testRand(5)
	for i := 0; i < 100; i++ {
		idx := p.randomNonBest(rng)
		assert.Contains(t, []int{0, 1}, idx)
	}
}

func TestBestChromosomeEmpty(t *testing.T) {
	p := newPopulation(3, 1)
	assert.Nil(t, p.bestChromosome())
}
