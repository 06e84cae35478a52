package pipeline

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/irx/internal/ir"
)

// AssertGolden compares the canonical snapshot of root against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/pipeline -update
func AssertGolden(t *testing.T, name string, root *ir.Operation) {
	t.Helper()
	snap, err := ir.Snapshot(root)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	newGoldie(t).Assert(t, name, snap)
}

// AssertReportGolden compares the canonical Summary of report against
// testdata/golden/{name}.golden.
func AssertReportGolden(t *testing.T, name string, report *Report) {
	t.Helper()
	data, err := ir.MarshalCanonical(report.Summary())
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	newGoldie(t).Assert(t, name, data)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
