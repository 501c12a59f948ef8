// main.go - STRUCTURAL MAPPING OF RIEMANN ZEROS
// Geometric phase φ(n) from the first N zeta zeros, structural entropy
// H = ln(1+φ²) and the ratio K = d log|φ| / d log H, fitted toward K = 1/2.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ==================== VERSION & BUILD INFO ====================
const (
	Version   = "1.0.0"
	BuildDate = "2026-10-19"
)

const defaultConfigPath = "structural.yaml"

// ==================== COMMAND LINE INTERFACE ====================
var (
	configPath string
	settings   = newConfigViper()
)

var rootCmd = &cobra.Command{
	Use:   "structural-mapping",
	Short: "Structural ratio of a geometric phase built on Riemann zeta zeros",
	Long: `Computes the first N nontrivial zeros of the Riemann zeta function to 50 digits,
maps them to the geometric phase φ(n) = ((π/2 - arctan(c·γₙ) + reg)/n)·scale,
and fits c so that K(n) = d log|φ| / d log H stays close to 1/2.

Prints the optimal c and (mean K, std K, min K, max K, pearson(φ, H)) and
renders K(n) to a PNG.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(settings, configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		analyzer, err := NewStructuralAnalyzer(cfg, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("initialization error: %w", err)
		}

		if _, err := analyzer.Run(cmd.Context()); err != nil {
			return fmt.Errorf("runtime error: %w", err)
		}
		return nil
	},
}

var zerosCmd = &cobra.Command{
	Use:   "zeros",
	Short: "Print the first N zeta zero heights at full precision",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(settings, configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		logger := setupLogger(cfg.Output)
		zeros, err := ComputeZeros(cmd.Context(), cfg.Zeros.Count, cfg.Zeros, cfg.Performance.MaxWorkers, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, z := range zeros {
			fmt.Fprintf(out, "%5d  %s\n", z.Index, FormatGamma(z.Gamma, cfg.Zeros.Digits))
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := saveDefaultConfig(path, createDefaultConfig()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Configuration flags
	flags.StringVar(&configPath, "config", defaultConfigPath, "Configuration file path (optional unless set)")

	// Calculation flags
	flags.Int("count", 200, "Number of zeta zeros")
	flags.Int("digits", 50, "Significant digits for each zero")
	flags.String("algorithm", "auto", "Z(t) locator: auto, euler-maclaurin, riemann-siegel")
	flags.Int("workers", 0, "Concurrent zero refinements (0=auto)")

	// Output flags
	flags.String("output-dir", ".", "Directory for plots")
	flags.Bool("plot", true, "Render plots")
	flags.Bool("summary", false, "Print the extended summary block")
	flags.Bool("verbose", false, "Verbose output")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")

	// Bind flags to viper
	bindFlag(settings, "zeros.count", "count")
	bindFlag(settings, "zeros.digits", "digits")
	bindFlag(settings, "zeros.algorithm", "algorithm")
	bindFlag(settings, "performance.max_workers", "workers")
	bindFlag(settings, "output.output_directory", "output-dir")
	bindFlag(settings, "output.plot", "plot")
	bindFlag(settings, "output.summary", "summary")
	bindFlag(settings, "output.verbose", "verbose")
	bindFlag(settings, "output.log_level", "log-level")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(zerosCmd, configCmd)
}

func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// ==================== MAIN ENTRY POINT ====================
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
