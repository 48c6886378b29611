package script

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mailblocks/internal/document"
	"github.com/roach88/mailblocks/internal/payload"
	"github.com/roach88/mailblocks/internal/render"
	"github.com/roach88/mailblocks/internal/schema"
)

// Snapshot serializes a run as canonical JSON: the script name, what each
// step did, and the final document tree.
func Snapshot(name string, result *Result) ([]byte, error) {
	body, err := render.ToCanonicalJSON(result.Document, document.RootID)
	if err != nil {
		return nil, err
	}
	tree, err := payload.Decode(body)
	if err != nil {
		return nil, err
	}

	steps := make([]any, len(result.Steps))
	for i, sr := range result.Steps {
		step := map[string]any{"op": sr.Op}
		if sr.BlockID != "" {
			step["block"] = sr.BlockID
		}
		if sr.Code != "" {
			step["error"] = string(sr.Code)
		}
		steps[i] = step
	}

	return payload.MarshalCanonical(map[string]any{
		"name":     name,
		"steps":    steps,
		"document": tree,
	})
}

// RunWithGolden runs a script and compares its snapshot against
// testdata/golden/{script.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/script -update
func RunWithGolden(t *testing.T, s *Script, registry *schema.Registry) (*Result, error) {
	t.Helper()

	result, err := Run(s, registry)
	if err != nil {
		return nil, err
	}
	snap, err := Snapshot(s.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, snap)
	return result, nil
}
