package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/irx/internal/journal"
	"github.com/roach88/irx/internal/pipeline"
	"github.com/roach88/irx/internal/rewrite"
	"github.com/roach88/irx/internal/workload"
)

// Run error codes.
const (
	ErrCodePipeline       = "R001" // pipeline file or flags invalid
	ErrCodeSetup          = "R002" // dialects, workload or journal could not be prepared
	ErrCodeNonConvergence = "R003" // rewrite quota exceeded
	ErrCodeVerify         = "R004" // verifier reported violations
	ErrCodeExpectation    = "R005" // final module differs from expect.ops
	ErrCodeRun            = "R006" // any other pass failure
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Workload          string
	Size              int
	Seed              uint64
	Passes            []string
	MaxRewrites       int
	DisableVerify     bool
	AllowUnregistered bool
	Catalogs          []string
	Journal           string

	// RunIDs overrides the UUIDv7 run ID source (for testing).
	RunIDs rewrite.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [pipeline.yaml]",
		Short: "Run rewrite passes over a workload",
		Long: `Build a workload module and run rewrite passes over it to a fixpoint.

The pipeline comes from a YAML file or, without one, from flags. Flags that
are set explicitly override the file.

Example:
  irx run testdata/pipelines/fold.yaml
  irx run --workload constant-folding --size 1000 --seed 42 --pass canonicalize
  irx run --pass dce --journal ./irx.db --format json pipeline.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runPipeline(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workload, "workload", workload.KindConstantFolding,
		fmt.Sprintf("workload kind (%s)", strings.Join(workload.Kinds(), "|")))
	cmd.Flags().IntVar(&opts.Size, "size", workload.DefaultSize, "workload size")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "workload seed")
	cmd.Flags().StringSliceVarP(&opts.Passes, "pass", "p", []string{"constant-fold-interp"}, "passes to run, in order")
	cmd.Flags().IntVar(&opts.MaxRewrites, "max-rewrites", 0, "rewrite quota per pass (0 = default)")
	cmd.Flags().BoolVar(&opts.DisableVerify, "disable-verify", false, "skip verification around passes")
	cmd.Flags().BoolVar(&opts.AllowUnregistered, "allow-unregistered", true, "accept operations of unregistered kinds")
	cmd.Flags().StringSliceVar(&opts.Catalogs, "catalog", nil, "CUE catalog directory to load (repeatable)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite rewrite journal")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, err := resolvePipeline(opts, path, cmd)
	if err != nil {
		_ = formatter.Error(ErrCodePipeline, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid pipeline", err)
	}
	formatter.VerboseLog("Pipeline %s: workload %s, passes %s", p.Name, p.Workload.Kind, strings.Join(p.Passes, ","))

	dctx, err := p.NewContext()
	if err != nil {
		_ = formatter.Error(ErrCodeSetup, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load dialects", err)
	}
	formatter.VerboseLog("Loaded dialects: %s", strings.Join(dctx.Loaded(), ", "))

	root, err := p.BuildModule()
	if err != nil {
		_ = formatter.Error(ErrCodeSetup, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build workload", err)
	}

	var runOpts []pipeline.Option
	if opts.RunIDs != nil {
		runOpts = append(runOpts, pipeline.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Journal != "" {
		j, err := journal.Open(opts.Journal)
		if err != nil {
			_ = formatter.Error(ErrCodeSetup, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, pipeline.WithJournal(j))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := pipeline.Run(ctx, p, dctx, root, runOpts...)
	if runErr != nil {
		code, exit := classifyRunError(runErr)
		_ = formatter.Error(code, runErr.Error(), report)
		return WrapExitError(exit, "pipeline failed", runErr)
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	writeReport(formatter, report)
	return nil
}

// resolvePipeline loads the file at path, or builds a pipeline from flags
// when path is empty, then applies explicitly set flags.
func resolvePipeline(opts *RunOptions, path string, cmd *cobra.Command) (*pipeline.Pipeline, error) {
	flags := cmd.Flags()
	var p *pipeline.Pipeline
	if path != "" {
		loaded, err := pipeline.Load(path)
		if err != nil {
			return nil, err
		}
		p = loaded
	} else {
		p = &pipeline.Pipeline{
			Name:     "cli",
			Workload: pipeline.Workload{Kind: opts.Workload},
			Passes:   opts.Passes,
		}
		size := opts.Size
		p.Workload.Size = &size
		p.Workload.Seed = opts.Seed
	}

	if path != "" {
		if flags.Changed("workload") {
			p.Workload.Kind = opts.Workload
		}
		if flags.Changed("size") {
			size := opts.Size
			p.Workload.Size = &size
		}
		if flags.Changed("seed") {
			p.Workload.Seed = opts.Seed
		}
		if flags.Changed("pass") {
			p.Passes = opts.Passes
		}
	}
	if flags.Changed("max-rewrites") {
		p.MaxRewrites = opts.MaxRewrites
	}
	if flags.Changed("disable-verify") {
		enabled := !opts.DisableVerify
		p.Verify = &enabled
	}
	if flags.Changed("allow-unregistered") || path == "" {
		allow := opts.AllowUnregistered
		p.AllowUnregistered = &allow
	}
	p.Catalogs = append(p.Catalogs, opts.Catalogs...)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// classifyRunError maps a pipeline.Run error to an output code and exit code.
func classifyRunError(err error) (string, int) {
	var expectErr *pipeline.ExpectationError
	switch {
	case rewrite.IsNonConvergence(err):
		return ErrCodeNonConvergence, ExitFailure
	case pipeline.IsVerifyError(err):
		return ErrCodeVerify, ExitFailure
	case errors.As(err, &expectErr):
		return ErrCodeExpectation, ExitFailure
	default:
		return ErrCodeRun, ExitFailure
	}
}

func writeReport(f *OutputFormatter, r *pipeline.Report) {
	w := f.Writer
	if r.Workload != "" {
		fmt.Fprintf(w, "Pipeline %s (workload %s)\n", r.Pipeline, r.Workload)
	} else {
		fmt.Fprintf(w, "Pipeline %s\n", r.Pipeline)
	}
	for _, p := range r.Passes {
		fmt.Fprintf(w, "  %-22s rewrites=%d erased=%d visits=%d\n", p.Name, p.Rewrites, p.Erased, p.Visits)
		f.VerboseLog("  %s run_id=%s", p.Name, p.RunID)
	}
	fmt.Fprintf(w, "Ops: %s\n", strings.Join(r.Ops, ", "))
	fmt.Fprintf(w, "Fingerprint: %s\n", r.FingerprintAfter)
}
