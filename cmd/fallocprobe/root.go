package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pavanmanishd/fallible"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose   bool
	jsonOut   bool
	allocName string
	limit     int64
	arenaMax  int
)

var rootCmd = &cobra.Command{
	Use:   "fallocprobe",
	Short: "Probe fallible allocations against a chosen allocator",
	Long: `fallocprobe allocates values, shared values and sequences through the
fallible allocation pipeline and reports the layout used or the error returned.
It is useful for checking how a process behaves under allocator limits.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVarP(&allocName, "allocator", "a", "heap", "Allocator to use: heap, mmap or arena")
	rootCmd.PersistentFlags().
		Int64Var(&limit, "limit", 0, "Refuse any single request larger than this many bytes (0 = no limit)")
	rootCmd.PersistentFlags().
		IntVar(&arenaMax, "arena-max", 0, "Byte cap for the arena allocator (0 = unbounded)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errProbeFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// newAllocator builds the allocator selected by the global flags.
func newAllocator() (fallible.Allocator, error) {
	var mem fallible.Allocator
	switch allocName {
	case "heap":
		mem = fallible.NewHeapAllocator()
	case "mmap":
		mem = fallible.NewMmapAllocator()
	case "arena":
		mem = fallible.NewSafeArena(fallible.ArenaConfig{MaxBytes: arenaMax})
	default:
		return nil, fmt.Errorf("unknown allocator %q (want heap, mmap or arena)", allocName)
	}
	if limit > 0 {
		mem = fallible.NewLimitedAllocator(mem, limit, 0)
	}
	slog.Debug("allocator ready", "allocator", allocName, "limit", limit, "arena_max", arenaMax)
	return mem, nil
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
