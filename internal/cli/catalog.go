package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/irx/internal/catalog"
	"github.com/roach88/irx/internal/dialect"
	"github.com/roach88/irx/internal/dialect/arith"
	"github.com/roach88/irx/internal/dialect/builtin"
)

// Catalog validation error codes; load failures use catalog.ErrCode*.
const (
	ErrCodeCatalogCompile = "C010" // catalog contents rejected by the compiler
	ErrCodeCatalogLoad    = "C011" // dialect conflicts with one already loaded
)

// CatalogResult is the outcome of catalog validation.
type CatalogResult struct {
	Valid    bool          `json:"valid"`
	Dialects []string      `json:"dialects,omitempty"`
	Error    *CatalogIssue `json:"error,omitempty"`
}

// CatalogIssue locates a catalog compile error.
type CatalogIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with CUE dialect catalogs",
	}
	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	return cmd
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate a dialect catalog",
		Long: `Compile the CUE catalog in a directory and load its dialects next to
the builtin and arith dialects.

Example:
  irx catalog validate ./catalogs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(rootOpts, args[0], cmd)
		},
	}
}

func runCatalogValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dctx := dialect.NewContext().MustLoad(builtin.Dialect(), arith.Dialect())
	names, err := catalog.LoadInto(dctx, dir)
	if err == nil {
		formatter.VerboseLog("Loaded dialects: %s", strings.Join(dctx.Loaded(), ", "))
		if formatter.Format == "json" {
			return formatter.Success(CatalogResult{Valid: true, Dialects: names})
		}
		fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d dialect(s): %s\n", len(names), strings.Join(names, ", "))
		return nil
	}

	var loadErr *catalog.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
	}

	issue := &CatalogIssue{Field: "catalog", Message: err.Error()}
	code := ErrCodeCatalogLoad
	var compileErr *catalog.CompileError
	if errors.As(err, &compileErr) {
		code = ErrCodeCatalogCompile
		issue.Field = compileErr.Field
		issue.Message = compileErr.Message
		if compileErr.Pos.IsValid() {
			issue.File = compileErr.Pos.Filename()
			issue.Line = compileErr.Pos.Line()
		}
	}

	if formatter.Format == "json" {
		_ = formatter.encode(CLIResponse{
			Status: "error",
			Data:   CatalogResult{Valid: false, Error: issue},
			Error:  &CLIError{Code: code, Message: issue.Message},
		})
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Catalog invalid")
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", code, issue.Field, issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("catalog invalid: %s", issue.Message))
}
