// Package main searches self-assembly force weights with CMA-ES for the
// fastest formation convergence.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/windstorm12/emergent-systems-lab/config"
)

// EvalRecord is one row of tune_log.csv.
type EvalRecord struct {
	Eval                     int     `csv:"eval"`
	Fitness                  float64 `csv:"fitness"`
	MeanTicks                float64 `csv:"mean_ticks"`
	ConvergedFrac            float64 `csv:"converged_frac"`
	EfficiencyMean           float64 `csv:"efficiency_mean"`
	SeekingTargetForce       float64 `csv:"seeking_target_force"`
	PrecisionTargetForce     float64 `csv:"precision_target_force"`
	SeekingDamping           float64 `csv:"seeking_damping"`
	PrecisionDamping         float64 `csv:"precision_damping"`
	PrecisionSeparationScale float64 `csv:"precision_separation_scale"`
}

// newEvalRecord fills a log row from clamped parameter values in Specs order.
func newEvalRecord(eval int, res EvalResult, values []float64) EvalRecord {
	return EvalRecord{
		Eval:                     eval,
		Fitness:                  res.Fitness,
		MeanTicks:                res.MeanTicks,
		ConvergedFrac:            res.ConvergedFrac,
		EfficiencyMean:           res.EfficiencyMean,
		SeekingTargetForce:       values[0],
		PrecisionTargetForce:     values[1],
		SeekingDamping:           values[2],
		PrecisionDamping:         values[3],
		PrecisionSeparationScale: values[4],
	}
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 0, "Tick budget per run (0 = use config)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *outputDir, *maxTicks, *seeds, *maxEvals, *population); err != nil {
		slog.Error("tuning failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, maxTicks, seeds, maxEvals, population int) error {
	if outputDir == "" {
		return fmt.Errorf("-output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if maxTicks > 0 {
		baseCfg.Assembly.MaxTicks = maxTicks
	}

	params := NewParamVector()

	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}

	logPath := filepath.Join(outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			res := evaluator.LastResult()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			record := []EvalRecord{newEvalRecord(evalCount, res, clamped)}
			var werr error
			if evalCount == 1 {
				werr = gocsv.Marshal(record, logFile)
			} else {
				werr = gocsv.MarshalWithoutHeaders(record, logFile)
			}
			if werr != nil {
				slog.Error("failed to write tune log", "error", werr)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("eval",
				"n", evalCount,
				"of", maxEvals,
				"fitness", fitness,
				"mean_ticks", res.MeanTicks,
				"converged", res.ConvergedFrac,
				"best", bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", maxEvals,
		"seeds", seeds,
		"max_ticks", baseCfg.Assembly.MaxTicks,
	)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	attrs := []any{"evals", evalCount, "duration", formatDuration(time.Since(startTime)), "best_fitness", bestFitness}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Name, bestParams[i])
	}
	slog.Info("tuning complete", attrs...)

	bestCfg := baseCfg.Clone()
	bestCfg.Run.Variant = config.VariantAssembly
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best config saved", "path", configOutPath)
	return nil
}
