package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/windstorm12/emergent-systems-lab/config"
	"github.com/windstorm12/emergent-systems-lab/sim"
)

// FitnessEvaluator runs headless self-assembly runs and scores parameter
// vectors by how fast the formation completes.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config

	mu       sync.Mutex
	lastEval EvalResult
}

// EvalResult aggregates one parameter vector over all seeds.
type EvalResult struct {
	Fitness        float64
	MeanTicks      float64
	ConvergedFrac  float64
	EfficiencyMean float64
}

// runResult holds the results from a single simulation run.
type runResult struct {
	outcome    sim.Outcome
	agents     int
	locked     int
	efficiency float64
}

// NewFitnessEvaluator creates a new evaluator. The base config is forced to
// the self-assembly variant.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	cfg := baseCfg.Clone()
	cfg.Run.Variant = config.VariantAssembly
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: cfg,
	}
}

// LastResult returns the aggregate of the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastEval
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel; each owns its world.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Refresh(); err != nil {
		// out-of-range vectors are clamped, so this only fires on a bad base config
		panic(fmt.Sprintf("tune: invalid config: %v", err))
	}

	results := make([]runResult, len(fe.seeds))
	errs := make([]error, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = runSimulation(cfg, seed)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			panic(fmt.Sprintf("tune: run failed: %v", err))
		}
	}

	res := aggregate(results, cfg.Assembly.MaxTicks)
	fe.mu.Lock()
	fe.lastEval = res
	fe.mu.Unlock()
	return res.Fitness
}

// runSimulation executes a single headless run to convergence or timeout.
func runSimulation(cfg *config.Config, seed int64) (runResult, error) {
	world, err := sim.NewWorld(cfg, sim.Options{Seed: seed})
	if err != nil {
		return runResult{}, err
	}
	defer world.Close()

	outcome, err := world.Run(context.Background())
	if err != nil {
		return runResult{}, err
	}

	return runResult{
		outcome:    outcome,
		agents:     world.Len(),
		locked:     world.Locked(),
		efficiency: world.Arrivals().Summary().EfficiencyMean,
	}, nil
}

// computeFitness scores one run. Converged runs score their tick count;
// timed-out runs score the budget plus a second budget scaled by the
// fraction of agents still unlocked, so any convergence beats any timeout.
func computeFitness(r runResult, maxTicks int) float64 {
	if r.outcome.Status == sim.StatusConverged || r.agents == 0 {
		return float64(r.outcome.Tick)
	}
	unlocked := float64(r.agents-r.locked) / float64(r.agents)
	return float64(maxTicks) * (1 + unlocked)
}

// aggregate averages per-seed results.
func aggregate(results []runResult, maxTicks int) EvalResult {
	if len(results) == 0 {
		return EvalResult{Fitness: math.Inf(1)}
	}

	fitness := make([]float64, len(results))
	ticks := make([]float64, len(results))
	eff := make([]float64, len(results))
	converged := 0
	for i, r := range results {
		fitness[i] = computeFitness(r, maxTicks)
		ticks[i] = float64(r.outcome.Tick)
		eff[i] = r.efficiency
		if r.outcome.Status == sim.StatusConverged {
			converged++
		}
	}

	return EvalResult{
		Fitness:        stat.Mean(fitness, nil),
		MeanTicks:      stat.Mean(ticks, nil),
		ConvergedFrac:  float64(converged) / float64(len(results)),
		EfficiencyMean: stat.Mean(eff, nil),
	}
}
