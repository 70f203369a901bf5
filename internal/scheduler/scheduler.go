package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

type Scheduler struct {
	parameters Parameters
	instance   *Instance
	pop        *population
	rng        *rand.Rand // 只在控制 goroutine 中使用
	state      State
	generation int

	logger   *slog.Logger
	progress func(Progress)
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithProgress 设置进度回调，种群初始化后以及每一代结束后调用
func WithProgress(fn func(Progress)) Option {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

func New(parameters Parameters, instance *Instance, opts ...Option) (*Scheduler, error) {
	if instance == nil {
		return nil, fmt.Errorf("%w: 问题实例为空", ErrConfiguration)
	}
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	if parameters.Days != instance.Days() || parameters.HoursPerDay != instance.HoursPerDay() {
		return nil, fmt.Errorf("%w: 参数中的时间网格 %d×%d 与问题实例 %d×%d 不一致",
			ErrInvalidParameters, parameters.Days, parameters.HoursPerDay, instance.Days(), instance.HoursPerDay())
	}

	s := &Scheduler{
		parameters: parameters.normalized(),
		instance:   instance,
		state:      StateUninitialized,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		if parameters.Seed == 0 {
			s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		} else {
			s.rng = rand.New(rand.NewPCG(parameters.Seed, parameters.Seed))
		}
	}

	return s, nil
}

// Run 是同步的排课入口，供任务队列等外层调用
func Run(ctx context.Context, instance *Instance, parameters Parameters, opts ...Option) (*Result, error) {
	s, err := New(parameters, instance, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// Seed 并行生成初始种群并初始化精英列表
func (s *Scheduler) Seed(ctx context.Context) error {
	size := s.parameters.PopulationSize
	seeds := s.deriveSeeds(size)
	chromosomes := make([]*Chromosome, size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parameters.Parallelism)
	for i := range chromosomes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// 每个 goroutine 使用自己的随机数生成器，只写入自己的染色体
			chromosomes[i] = NewRandomChromosome(s.instance, newRand(seeds[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.pop = newPopulation(size, s.parameters.EliteCapacity)
	for i, ch := range chromosomes {
		s.pop.chromosomes[i] = ch
		s.pop.addToBest(i)
	}
	s.generation = 0
	s.state = StateSeeded
	s.report()

	return nil
}

// Step 进化一代
// 从整个种群（包括精英）中均匀随机地选择父本，交叉后再变异，
// 然后每个后代随机替换一个非精英染色体，并尝试进入精英列表
func (s *Scheduler) Step(ctx context.Context) error {
	if s.pop == nil {
		return errors.New("scheduler: 种群尚未初始化")
	}

	count := s.parameters.ReplacementCount
	size := len(s.pop.chromosomes)

	// 父本和随机种子都在控制 goroutine 中选好，保证固定种子时结果可复现
	type breeding struct {
		a, b int
		seed [2]uint64
	}
	plan := make([]breeding, count)
	for j := range plan {
		plan[j] = breeding{
			a:    s.rng.IntN(size),
			b:    s.rng.IntN(size),
			seed: [2]uint64{s.rng.Uint64(), s.rng.Uint64()},
		}
	}

	offspring := make([]*Chromosome, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parameters.Parallelism)
	for j := range plan {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := newRand(plan[j].seed)
			p1 := s.pop.chromosomes[plan[j].a]
			p2 := s.pop.chromosomes[plan[j].b]
			child := p1.Crossover(p2, s.parameters.CrossoverProbability, s.parameters.CrossoverPoints, rng)
			child.Mutate(s.parameters.MutationProbability, s.parameters.MutationSize, rng)
			offspring[j] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, child := range offspring {
		ci := s.pop.randomNonBest(s.rng)
		s.pop.chromosomes[ci] = child
		s.pop.addToBest(ci)
	}

	s.generation++
	s.state = StateEvolving
	s.report()

	return nil
}

// Run 不断进化，直到找到没有冲突的课表（Converged）、达到最大迭代次数（Exhausted）或 ctx 被取消
// 取消时返回当前最好的结果以及 ctx 的错误
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	if s.pop == nil {
		if err := s.Seed(ctx); err != nil {
			if ctx.Err() != nil {
				s.state = StateCancelled
			}
			return nil, err
		}
	}

	for {
		if s.Best().Fitness() >= 1 {
			s.state = StateConverged
			break
		}
		if s.generation >= s.parameters.MaxGenerations {
			s.state = StateExhausted
			break
		}

		// 每一代检查一次取消信号
		if err := ctx.Err(); err != nil {
			return s.cancel(err)
		}
		if err := s.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return s.cancel(ctx.Err())
			}
			return nil, err
		}
	}

	s.report()
	s.logger.Info("排课完成", "state", s.state.String(), "generation", s.generation, "fitness", s.Best().Fitness())

	return s.Result(), nil
}

func (s *Scheduler) cancel(err error) (*Result, error) {
	s.state = StateCancelled
	s.report()
	s.logger.Info("排课已取消", "generation", s.generation, "fitness", s.Best().Fitness())
	return s.Result(), err
}

func (s *Scheduler) report() {
	p := Progress{
		Generation: s.generation,
		State:      s.state,
	}
	if best := s.Best(); best != nil {
		p.BestFitness = best.Fitness()
	}
	s.logger.Debug("排课进度", "state", p.State.String(), "generation", p.Generation, "fitness", p.BestFitness)

	if s.progress != nil {
		s.progress(p)
	}
}

// Best 返回当前最好的染色体，种群尚未初始化时返回 nil
func (s *Scheduler) Best() *Chromosome {
	if s.pop == nil {
		return nil
	}
	return s.pop.bestChromosome()
}

// Elite 返回精英列表中的下标，按适应度从高到低排列
func (s *Scheduler) Elite() []int {
	if s.pop == nil {
		return nil
	}
	elite := make([]int, len(s.pop.best))
	copy(elite, s.pop.best)
	return elite
}

func (s *Scheduler) Population() []*Chromosome {
	if s.pop == nil {
		return nil
	}
	return s.pop.chromosomes
}

func (s *Scheduler) Generation() int { return s.generation }
func (s *Scheduler) State() State { return s.state }
func (s *Scheduler) Parameters() Parameters { return s.parameters }
func (s *Scheduler) Instance() *Instance { return s.instance }

// Result 根据当前最好的染色体生成结果，种群尚未初始化时返回 nil
func (s *Scheduler) Result() *Result {
	best := s.Best()
	if best == nil {
		return nil
	}

	criteria := make([]bool, len(best.criteria))
	copy(criteria, best.criteria)

	return &Result{
		State:       s.state,
		Fitness:     best.Fitness(),
		Criteria:    criteria,
		Generations: s.generation,
		Placements:  best.Placements(),
	}
}

func (s *Scheduler) deriveSeeds(n int) [][2]uint64 {
	seeds := make([][2]uint64, n)
	for i := range seeds {
		seeds[i] = [2]uint64{s.rng.Uint64(), s.rng.Uint64()}
	}
	return seeds
}

func newRand(seed [2]uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed[0], seed[1]))
}
