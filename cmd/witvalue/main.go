package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-rpc/canon"
	"github.com/wippyai/wasm-rpc/internal/notation"
	"github.com/wippyai/wasm-rpc/internal/valuegen"
	"github.com/wippyai/wasm-rpc/value"
	"github.com/wippyai/wasm-rpc/witvalue"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: witvalue show      (-file <v.yaml> | -seed N)")
	fmt.Fprintln(os.Stderr, "       witvalue roundtrip (-file <v.yaml> | -seed N)")
	fmt.Fprintln(os.Stderr, "       witvalue fuzz      [-n N] [-seed S] [-depth D] [-workers W] [-sandbox] [-crashers URL]")
	fmt.Fprintln(os.Stderr, "       witvalue browse    (-file <v.yaml> | -seed N)")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "show":
		err = runShow(args, os.Stdout)
	case "roundtrip":
		err = runRoundTrip(ctx, args, os.Stdout)
	case "fuzz":
		err = runFuzz(ctx, args, os.Stdout)
	case "browse":
		err = runBrowse(args)
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// source selects the value a command works on: a notation file or a
// generated value.
type source struct {
	file    string
	seed    int64
	verbose bool
}

func addSource(fs *flag.FlagSet) *source {
	s := &source{}
	fs.StringVar(&s.file, "file", "", "Path to a value in YAML notation (- for stdin)")
	fs.Int64Var(&s.seed, "seed", -1, "Generate a random value from this seed instead of reading a file")
	fs.BoolVar(&s.verbose, "v", false, "Verbose logging")
	return s
}

func (s *source) load(stdin io.Reader) (value.Value, error) {
	setupLogging(s.verbose)

	switch {
	case s.file != "":
		var (
			data []byte
			err  error
		)
		if s.file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(s.file)
		}
		if err != nil {
			return nil, fmt.Errorf("read value: %w", err)
		}
		v, err := notation.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.file, err)
		}
		return v, nil
	case s.seed >= 0:
		cfg := valuegen.DefaultConfig
		cfg.NoNaN = true
		return valuegen.NewWithConfig(uint64(s.seed), cfg).Value(), nil
	}
	return nil, fmt.Errorf("one of -file or -seed is required")
}

func setupLogging(verbose bool) *zap.Logger {
	logger := zap.NewNop()
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	witvalue.SetLogger(logger)
	canon.SetLogger(logger)
	return logger
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}
