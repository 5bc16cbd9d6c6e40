package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/duynguyendang/gerd/internal/manager"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	envName  string
	lowMem   bool
	verbose  bool
	readOnly = true
)

var rootCmd = &cobra.Command{
	Use:   "gerd",
	Short: "Event rule decompiler",
	Long: `gerd turns event rule XML into indented, human-readable pseudocode.

Lookups for table indexes, data dictionary titles, business functions and
templates come from per-environment catalogs kept under the data directory
(see "gerd import").`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("GERD_DATA_DIR", "./data"), "catalog data directory")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", os.Getenv("GERD_CATALOG"), "catalog environment used for lookups")
	rootCmd.PersistentFlags().BoolVar(&lowMem, "low-mem", envBool("GERD_LOW_MEM"), "optimize for low-memory environments (e.g., Cloud Run with 1GB RAM)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log resolution misses")

	rootCmd.AddCommand(decompileCmd, importCmd, serveCmd, mcpCmd, replCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func newManager() *manager.StoreManager {
	profile := manager.MemoryProfileDefault
	if lowMem {
		profile = manager.MemoryProfileLow
		fmt.Fprintln(os.Stderr, "Running in LOW MEMORY mode")
	}
	return manager.NewStoreManager(dataDir, profile, readOnly)
}
