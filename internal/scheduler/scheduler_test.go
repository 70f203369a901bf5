package scheduler

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmate129/timetable-ga/internal/domain"
)

func TestValidateParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Parameters)
	}{
		{"zero days", func(p *Parameters) { p.Days = 0 }},
		{"zero hours", func(p *Parameters) { p.HoursPerDay = 0 }},
		{"population too small", func(p *Parameters) { p.PopulationSize = 1 }},
		{"elite equals population", func(p *Parameters) { p.EliteCapacity = p.PopulationSize }},
		{"elite zero", func(p *Parameters) { p.EliteCapacity = 0 }},
		{"crossover probability over 100", func(p *Parameters) { p.CrossoverProbability = 101 }},
		{"negative mutation probability", func(p *Parameters) { p.MutationProbability = -1 }},
		{"negative crossover points", func(p *Parameters) { p.CrossoverPoints = -1 }},
		{"negative mutation size", func(p *Parameters) { p.MutationSize = -1 }},
		{"zero max generations", func(p *Parameters) { p.MaxGenerations = 0 }},
		{"negative parallelism", func(p *Parameters) { p.Parallelism = -2 }},
	}

	require.NoError(t, DefaultParameters().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.modify(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
		})
	}
}

func TestNormalizedClampsReplacement(t *testing.T) {
	p := DefaultParameters()
	p.PopulationSize = 10
	p.EliteCapacity = 3
	p.ReplacementCount = 8
	assert.Equal(t, 7, p.normalized().ReplacementCount)

	p.ReplacementCount = 0
	assert.Equal(t, 1, p.normalized().ReplacementCount)
	assert.Positive(t, p.normalized().Parallelism)
}

func TestNewRejectsMismatchedGrid(t *testing.T) {
	inst := mediumInstance(t)
	p := testParameters(inst)
	p.HoursPerDay++

	_, err := New(p, inst)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = New(testParameters(inst), nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRunConvergesImmediately(t *testing.T) {
	f := &fixture{}
	f.room(30, false)
	f.class(f.teacher(), []*domain.StudentsGroup{f.group(10)}, false, 1)
	inst := f.instance(t, 1, 1)

	p := testParameters(inst)
	p.PopulationSize = 2
	p.EliteCapacity = 1

	var progress []Progress
	result, err := Run(context.Background(), inst, p, WithProgress(func(pr Progress) {
		progress = append(progress, pr)
	}))
	require.NoError(t, err)

	assert.Equal(t, StateConverged, result.State)
	assert.Equal(t, 1.0, result.Fitness)
	assert.Equal(t, 0, result.Generations)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, Placement{CourseClassID: 0, Day: 0, ClassroomID: 0, StartHour: 0, Duration: 1}, result.Placements[0])

	require.NotEmpty(t, progress)
	assert.Equal(t, StateSeeded, progress[0].State)
	assert.Equal(t, StateConverged, progress[len(progress)-1].State)
}

func TestRunExhaustsWhenNoPerfectTimetableExists(t *testing.T) {
	f := &fixture{}
	f.room(30, false)
	group := f.group(10)
	f.class(f.teacher(), []*domain.StudentsGroup{group}, false, 1)
	f.class(f.teacher(), []*domain.StudentsGroup{group}, false, 1)
	inst := f.instance(t, 1, 1)

	p := testParameters(inst)
	p.PopulationSize = 4
	p.EliteCapacity = 1
	p.MaxGenerations = 25

	result, err := Run(context.Background(), inst, p)
	require.NoError(t, err)

	assert.Equal(t, StateExhausted, result.State)
	assert.Equal(t, 25, result.Generations)
	assert.Less(t, result.Fitness, 1.0)
	// 两个课程班只能挤在同一个时间槽：教室和学生组两项冲突
	assert.InDelta(t, 0.6, result.Fitness, 1e-9)
}

func TestEliteIsTopOfPopulationAfterStep(t *testing.T) {
	inst := mediumInstance(t)
	p := testParameters(inst)
	p.PopulationSize = 10
	p.EliteCapacity = 3
	p.ReplacementCount = 8

	s, err := New(p, inst)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx))
	assert.Equal(t, StateSeeded, s.State())
	require.NoError(t, s.Step(ctx))
	assert.Equal(t, StateEvolving, s.State())
	assert.Equal(t, 1, s.Generation())

	elite := s.Elite()
	require.Len(t, elite, 3)

	pop := s.Population()
	fitness := make([]float64, len(pop))
	for i, ch := range pop {
		fitness[i] = ch.Fitness()
	}
	sorted := slices.Clone(fitness)
	slices.Sort(sorted)
	slices.Reverse(sorted)

	for i, idx := range elite {
		assert.Equal(t, sorted[i], fitness[idx])
	}
	assert.Same(t, pop[elite[0]], s.Best())
}

func TestRunCancelledReturnsBestSoFar(t *testing.T) {
	f := &fixture{}
	f.room(30, false)
	group := f.group(10)
	f.class(f.teacher(), []*domain.StudentsGroup{group}, false, 1)
	f.class(f.teacher(), []*domain.StudentsGroup{group}, false, 1)
	inst := f.instance(t, 1, 1)

	p := testParameters(inst)
	p.PopulationSize = 4
	p.EliteCapacity = 1
	p.MaxGenerations = 1_000_000

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := Run(ctx, inst, p, WithProgress(func(pr Progress) {
		if pr.Generation == 5 {
			cancel()
		}
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.Equal(t, StateCancelled, result.State)
	assert.Equal(t, 5, result.Generations)
	assert.Len(t, result.Placements, 2)
}

func TestRunIsReproducibleWithSeed(t *testing.T) {
	inst := mediumInstance(t)
	p := testParameters(inst)
	p.MaxGenerations = 30
	p.Parallelism = 4

	first, err := Run(context.Background(), inst, p)
	require.NoError(t, err)
	second, err := Run(context.Background(), inst, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStepBeforeSeed(t *testing.T) {
	inst := mediumInstance(t)
	s, err := New(testParameters(inst), inst)
	require.NoError(t, err)

	assert.Error(t, s.Step(context.Background()))
	assert.Nil(t, s.Best())
	assert.Nil(t, s.Result())
	assert.Equal(t, StateUninitialized, s.State())
}

func TestDecodeParameters(t *testing.T) {
	base := DefaultParameters()

	p, err := DecodeParameters(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, p)

	p, err = DecodeParameters(base, []byte(" null "))
	require.NoError(t, err)
	assert.Equal(t, base, p)

	p, err = DecodeParameters(base, []byte(`{"populationSize": 30, "mutationProbability": 0, "seed": 7}`))
	require.NoError(t, err)
	assert.Equal(t, 30, p.PopulationSize)
	assert.Equal(t, 0, p.MutationProbability)
	assert.Equal(t, uint64(7), p.Seed)
	assert.Equal(t, base.EliteCapacity, p.EliteCapacity)

	_, err = DecodeParameters(base, []byte(`{"eliteCapacity": 500}`))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = DecodeParameters(base, []byte(`{"populationSize": "many"}`))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = DecodeParameters(base, []byte(`{"unknown": 1}`))
	assert.ErrorIs(t, err, ErrInvalidParameters)
}
