package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/irx/internal/dialect"
)

// Load error codes.
const (
	ErrCodeNotFound    = "C001" // directory missing or not a directory
	ErrCodeScanError   = "C002" // directory walk failed
	ErrCodeNoFiles     = "C003" // no .cue files
	ErrCodeLoadFailed  = "C004" // CUE loader rejected the files
	ErrCodeBuildFailed = "C005" // CUE evaluation failed
)

// LoadError is a failure to read a catalog directory, before compilation.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads the CUE package in dir and compiles its dialects.
func LoadDir(dir string) ([]*dialect.Dialect, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	dialects, err := CompileAll(value)
	if err != nil {
		return nil, err
	}
	slog.Debug("catalog loaded",
		"dir", dir,
		"files", len(files),
		"dialects", len(dialects),
	)
	return dialects, nil
}

// LoadInto compiles the catalog in dir and loads its dialects into dctx in
// declaration order. A compile error leaves dctx untouched.
func LoadInto(dctx *dialect.Context, dir string) ([]string, error) {
	dialects, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(dialects))
	for _, d := range dialects {
		if err := dctx.Load(d); err != nil {
			return names, err
		}
		names = append(names, d.Name)
	}
	return names, nil
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
