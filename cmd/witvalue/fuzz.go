package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/wasm-rpc/canon"
	"github.com/wippyai/wasm-rpc/internal/notation"
	"github.com/wippyai/wasm-rpc/internal/valuegen"
	"github.com/wippyai/wasm-rpc/value"
	"github.com/wippyai/wasm-rpc/witvalue"
)

// maxReported caps the failures printed to the terminal; all of them are
// written to the crasher bucket.
const maxReported = 10

type fuzzOptions struct {
	crashers string
	count    int
	seed     uint64
	depth    int
	workers  int
	sandbox  bool
}

// failure is a generated value that did not survive a round trip.
type failure struct {
	input value.Value
	got   value.Value
	err   error
	seed  uint64
}

type fuzzStats struct {
	failures []failure
	runs     int64
}

func runFuzz(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("fuzz")
	var opts fuzzOptions
	fs.IntVar(&opts.count, "n", 1000, "Number of values to generate")
	fs.Uint64Var(&opts.seed, "seed", 1, "First seed; value i uses seed+i")
	fs.IntVar(&opts.depth, "depth", valuegen.DefaultConfig.MaxDepth, "Maximum nesting depth of generated values")
	fs.IntVar(&opts.workers, "workers", runtime.NumCPU(), "Parallel workers")
	fs.BoolVar(&opts.sandbox, "sandbox", false, "Also lower and lift every value through a wazero sandbox")
	fs.StringVar(&opts.crashers, "crashers", "", "Bucket URL for failing inputs (file:///dir, mem://)")
	verbose := fs.Bool("v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := setupLogging(*verbose)
	defer logger.Sync()

	stats, err := fuzz(ctx, opts, logger)
	interrupted := stderrors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	p := stdoutIsTerminal()
	fmt.Fprintf(out, "runs: %d  failures: %d\n", stats.runs, len(stats.failures))
	for i, f := range stats.failures {
		if i == maxReported {
			fmt.Fprintf(out, "... %d more\n", len(stats.failures)-maxReported)
			break
		}
		fmt.Fprintln(out, p.paint(errorStyle, fmt.Sprintf("seed %d", f.seed)))
		fmt.Fprint(out, report(f))
	}
	if len(stats.failures) > 0 {
		return fmt.Errorf("%d of %d round trips failed", len(stats.failures), stats.runs)
	}
	if interrupted {
		fmt.Fprintln(out, p.paint(helpStyle, "interrupted"))
		return nil
	}
	fmt.Fprintln(out, p.paint(resultStyle, "ok"))
	return nil
}

// fuzz round-trips opts.count generated values across opts.workers
// goroutines. Each worker owns its sandbox, since a sandbox heap is not
// shared.
func fuzz(ctx context.Context, opts fuzzOptions, logger *zap.Logger) (*fuzzStats, error) {
	cfg := valuegen.DefaultConfig
	cfg.NoNaN = true
	if opts.depth > 0 {
		cfg.MaxDepth = opts.depth
	}
	workers := max(opts.workers, 1)
	codec := witvalue.NewCodec(witvalue.WithLogger(logger))

	var bucket *blob.Bucket
	if opts.crashers != "" {
		b, err := blob.OpenBucket(ctx, opts.crashers)
		if err != nil {
			return &fuzzStats{}, fmt.Errorf("open crasher bucket: %w", err)
		}
		defer b.Close()
		bucket = b
	}

	var (
		mu    sync.Mutex
		stats fuzzStats
		runs  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := range workers {
		g.Go(func() error {
			var sb *canon.Sandbox
			if opts.sandbox {
				s, err := canon.NewSandbox(gctx)
				if err != nil {
					return fmt.Errorf("create sandbox: %w", err)
				}
				defer s.Close(context.Background())
				sb = s
			}

			for i := w; i < opts.count; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				seed := opts.seed + uint64(i)
				f := check(gctx, codec, sb, seed, valuegen.NewWithConfig(seed, cfg).Value())
				runs.Add(1)
				if f == nil {
					continue
				}

				logger.Warn("round trip failed", zap.Uint64("seed", seed), zap.Error(f.err))
				if bucket != nil {
					if err := saveCrasher(gctx, bucket, *f); err != nil {
						return err
					}
				}
				mu.Lock()
				stats.failures = append(stats.failures, *f)
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	stats.runs = runs.Load()
	slices.SortFunc(stats.failures, func(a, b failure) int {
		switch {
		case a.seed < b.seed:
			return -1
		case a.seed > b.seed:
			return 1
		}
		return 0
	})
	logger.Info("fuzz finished", zap.Int64("runs", stats.runs), zap.Int("failures", len(stats.failures)))
	return &stats, err
}

// check round-trips v through the codec and, when sb is set, through guest
// memory. It returns nil when both paths reproduce v.
func check(ctx context.Context, codec *witvalue.Codec, sb *canon.Sandbox, seed uint64, v value.Value) *failure {
	got, _, err := codec.RoundTrip(v)
	if err != nil || !value.Equal(v, got) {
		return &failure{seed: seed, input: v, got: got, err: err}
	}
	if sb == nil {
		return nil
	}

	res, err := sandboxRoundTrip(ctx, sb, v)
	if err != nil || !value.Equal(v, res.got) {
		return &failure{seed: seed, input: v, got: res.got, err: err}
	}
	return nil
}

func saveCrasher(ctx context.Context, bucket *blob.Bucket, f failure) error {
	key := fmt.Sprintf("seed-%d", f.seed)
	if err := bucket.WriteAll(ctx, key+".yaml", []byte(render(f.input)), nil); err != nil {
		return fmt.Errorf("write crasher %s: %w", key, err)
	}
	if err := bucket.WriteAll(ctx, key+".txt", []byte(report(f)), nil); err != nil {
		return fmt.Errorf("write crasher %s: %w", key, err)
	}
	return nil
}

func report(f failure) string {
	if f.err != nil {
		return "error: " + f.err.Error() + "\n"
	}
	return diffValues(f.input, f.got)
}

// diffValues returns a line diff of the notation of want and got. Removed
// lines start with "- " and added lines with "+ ".
func diffValues(want, got value.Value) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(render(want), render(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "- "
		case diffpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteByte('\n')
			}
		}
	}
	return out.String()
}

func render(v value.Value) string {
	if v == nil {
		return "<nil>\n"
	}
	doc, err := notation.Format(v)
	if err != nil {
		return value.Format(v) + "\n"
	}
	return string(doc)
}
