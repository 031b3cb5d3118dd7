package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pavanmanishd/fallible"
	"github.com/spf13/cobra"
)

// errProbeFailed is returned once a failed probe has been reported.
var errProbeFailed = errors.New("probe failed")

// page is the unit used by the value and shared probes.
type page [4096]byte

// ProbeResult is the outcome of one probe.
type ProbeResult struct {
	Shape     string `json:"shape"`
	Allocator string `json:"allocator"`
	Count     int    `json:"count"`
	OK        bool   `json:"ok"`
	Size      int    `json:"size,omitempty"`
	Align     int    `json:"align,omitempty"`
	Len       int    `json:"len,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

func init() {
	rootCmd.AddCommand(
		newProbeCmd("value", "Allocate <count> boxed 4 KiB pages", probeValues),
		newProbeCmd("shared", "Allocate <count> reference-counted 4 KiB pages", probeShared),
		newProbeCmd("slice", "Allocate a sequence of <count> float64 values", probeSlice),
	)
}

func newProbeCmd(use, short string, run func(fallible.Allocator, int) ProbeResult) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <count>",
		Short: short,
		Example: fmt.Sprintf(`  fallocprobe %s 10
  fallocprobe %s 5000000000 --limit 30000
  fallocprobe %s 64 --allocator arena --arena-max 65536 --json`, use, use, use),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
			mem, err := newAllocator()
			if err != nil {
				return err
			}
			res := run(mem, count)
			res.Shape, res.Allocator, res.Count = use, allocName, count
			return report(res)
		},
	}
}

func probeValues(mem fallible.Allocator, count int) ProbeResult {
	boxes := make([]*fallible.Box[page], 0, min(max(count, 0), 1024))
	defer func() {
		for _, b := range boxes {
			b.Release()
		}
	}()
	for i := 0; i < count; i++ {
		b, err := fallible.AllocIn[page](mem)
		if err != nil {
			slog.Debug("value allocation failed", "index", i, "error", err)
			return failed(err)
		}
		boxes = append(boxes, b)
	}
	res := ProbeResult{OK: true, Len: len(boxes)}
	if len(boxes) > 0 {
		res.Size, res.Align = boxes[0].Layout().Size(), boxes[0].Layout().Align()
	}
	return res
}

func probeShared(mem fallible.Allocator, count int) ProbeResult {
	refs := make([]*fallible.Shared[page], 0, min(max(count, 0), 1024))
	defer func() {
		for _, s := range refs {
			s.Release()
		}
	}()
	for i := 0; i < count; i++ {
		s, err := fallible.AllocSharedIn[page](mem)
		if err != nil {
			slog.Debug("shared allocation failed", "index", i, "error", err)
			return failed(err)
		}
		refs = append(refs, s)
	}
	return ProbeResult{OK: true, Len: len(refs)}
}

func probeSlice(mem fallible.Allocator, count int) ProbeResult {
	v, err := fallible.AllocSliceIn[float64](mem, count)
	if err != nil {
		slog.Debug("slice allocation failed", "count", count, "error", err)
		return failed(err)
	}
	defer v.Release()
	return ProbeResult{OK: true, Size: v.Layout().Size(), Align: v.Layout().Align(), Len: v.Len()}
}

func failed(err error) ProbeResult {
	res := ProbeResult{Error: err.Error()}
	var ae *fallible.AllocError
	if errors.As(err, &ae) {
		res.ErrorKind = ae.Kind().String()
	}
	return res
}

func report(res ProbeResult) error {
	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else if res.OK {
		slog.Info("allocation succeeded", "shape", res.Shape, "allocator", res.Allocator,
			"count", res.Count, "len", res.Len, "size", res.Size, "align", res.Align)
	} else {
		slog.Error("allocation failed", "shape", res.Shape, "allocator", res.Allocator,
			"count", res.Count, "kind", res.ErrorKind, "error", res.Error)
	}
	if !res.OK {
		return errProbeFailed
	}
	return nil
}
