package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ==================== MAIN APPLICATION CONTROLLER ====================

// RunResult is everything one pipeline pass produced.
type RunResult struct {
	RunID     string
	Zeros     ZeroSequence
	OptimalC  float64
	Optimizer OptimizeResult
	Sequences Sequences
	Summary   Summary
	Landscape *Landscape
	Elapsed   time.Duration
	PlotPaths []string
}

// StructuralAnalyzer runs zero source, phase transform, statistics and
// report once per Run.
type StructuralAnalyzer struct {
	config *Config
	logger *logrus.Logger
	out    io.Writer
}

func NewStructuralAnalyzer(cfg *Config, out io.Writer) (*StructuralAnalyzer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &StructuralAnalyzer{
		config: cfg,
		logger: setupLogger(cfg.Output),
		out:    out,
	}, nil
}

func setupLogger(cfg OutputConfig) *logrus.Logger {
	logger := logrus.New()

	// stdout carries the report
	logger.SetOutput(os.Stderr)

	// Set formatter
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Set level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		if cfg.Verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	}

	return logger
}

func (a *StructuralAnalyzer) printStartupBanner(runID string) {
	cfg := a.config
	log := a.logger.WithField("run_id", runID)

	log.Infof("Structural Mapping %s (%s) | Go: %s | CPUs: %d", Version, BuildDate, runtime.Version(), runtime.NumCPU())
	if cfg.loadedFrom != "" {
		log.Infof("  Config: %s", cfg.loadedFrom)
	}
	log.Infof("  Zeros: N=%d at %d digits | Algorithm: %s | Workers: %d",
		cfg.Zeros.Count, cfg.Zeros.Digits, cfg.Zeros.Algorithm, cfg.Performance.MaxWorkers)
	log.Infof("  Phase: c0=%.4f scale=%.6f reg=%.4f", cfg.Phase.C, cfg.Phase.ScaleFactor, cfg.Phase.Reg)
	log.Infof("  Optimizer: c in [%.3f, %.3f] target K=%.3f xatol=%.1e",
		cfg.Optimizer.Lower, cfg.Optimizer.Upper, cfg.Optimizer.Target, cfg.Optimizer.XAtol)
	if cfg.Output.Plot {
		log.Infof("  Output Directory: %s", cfg.Output.OutputDirectory)
	}
}

// Run executes the pipeline once and writes the report.
func (a *StructuralAnalyzer) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	cfg := a.config
	res := &RunResult{RunID: uuid.NewString()}
	log := a.logger.WithField("run_id", res.RunID)

	a.printStartupBanner(res.RunID)

	// Stage 1: zero source
	stageStart := time.Now()
	zeros, err := ComputeZeros(ctx, cfg.Zeros.Count, cfg.Zeros, cfg.Performance.MaxWorkers, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to compute zeros: %w", err)
	}
	res.Zeros = zeros
	gammas := zeros.Floats()
	log.Infof("Computed %d zeros (γ₁=%.10f, γ_N=%.10f) in %s",
		len(zeros), gammas[0], gammas[len(gammas)-1], formatDurationDetailed(time.Since(stageStart)))

	// Stage 2+3: optimise c over the phase transform
	opt, err := OptimizeC(gammas, cfg.Phase, cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	res.Optimizer = opt
	res.OptimalC = opt.X
	fields := logrus.Fields{"c": fmt.Sprintf("%.8f", opt.X), "loss": opt.Fun, "evaluations": opt.Evaluations}
	if !opt.Converged {
		log.WithFields(fields).Warn("Optimizer hit the evaluation limit before converging")
	} else {
		log.WithFields(fields).Info("Optimizer converged")
	}

	seq, err := BuildSequences(gammas, cfg.Phase.WithC(opt.X))
	if err != nil {
		return nil, fmt.Errorf("failed to build sequences: %w", err)
	}
	res.Sequences = seq

	summary, err := Summarize(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}
	res.Summary = summary

	res.Landscape = ScanLandscape(gammas, cfg.Phase, cfg.Optimizer)
	if res.Landscape.BeatsOptimum(opt) {
		log.Warnf("Grid point c=%.5f (loss %.6g) beats the bounded optimum (loss %.6g); the search stopped in a local minimum",
			res.Landscape.Best.C, res.Landscape.Best.Loss, opt.Fun)
	}

	// Stage 4: report
	if cfg.Output.Plot {
		paths, err := a.writePlots(res)
		if err != nil {
			return nil, err
		}
		res.PlotPaths = paths
		for _, path := range paths {
			log.Infof("Plot written to %s", path)
		}
	}

	if err := WriteReport(a.out, res.OptimalC, res.Summary); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	res.Elapsed = time.Since(start)
	if cfg.Output.Summary {
		if err := WriteSummary(a.out, res, cfg.Zeros.Digits); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}

	log.Infof("Run complete in %s", formatDurationDetailed(res.Elapsed))
	return res, nil
}

func (a *StructuralAnalyzer) writePlots(res *RunResult) ([]string, error) {
	out := a.config.Output
	prefix := out.FilenamePrefix

	ratioPath := filepath.Join(out.OutputDirectory, prefix+"_k.png")
	if err := PlotRatio(res.Sequences, a.config.Optimizer.Target, ratioPath); err != nil {
		return nil, err
	}
	paths := []string{ratioPath}

	if res.Landscape != nil {
		lossPath := filepath.Join(out.OutputDirectory, prefix+"_loss.png")
		if err := PlotLandscape(res.Landscape, res.Optimizer, lossPath); err != nil {
			return nil, err
		}
		paths = append(paths, lossPath)
	}

	return paths, nil
}

// ==================== UTILITY FUNCTIONS ====================
func formatDurationDetailed(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%02dm %02ds", minutes, seconds)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
