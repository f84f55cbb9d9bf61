package projection

import (
	"github.com/mindburn-labs/ledgerly/internal/model"
)

// DuplicateGraph is the duplicate-annotation projection: every annotation
// derived from duplicate-detected events, plus every decision carried by
// duplicate-marked events. It never mutates a Transaction.
type DuplicateGraph struct {
	annotations []model.DuplicateAnnotation
}

// FoldDuplicates applies duplicate-detected events in order, then
// duplicate-marked (decision) events in order. Decisions are folded by
// event kind, not actor: a system-authored auto-approval and a human
// decision are both included.
func FoldDuplicates(events []model.Event) DuplicateGraph {
	var g DuplicateGraph

	for _, e := range events {
		if e.Kind != model.EventDuplicateDetected {
			continue
		}
		if ann, ok := decodeAnnotation(e.Payload); ok {
			g.annotations = append(g.annotations, ann)
		}
	}
	for _, e := range events {
		if e.Kind != model.EventDuplicateMarked {
			continue
		}
		if ann, ok := decodeAnnotation(e.Payload); ok {
			g.annotations = append(g.annotations, ann)
		}
	}

	return g
}

// For returns every annotation referencing identity, on either side of the
// pair.
func (g DuplicateGraph) For(identity string) []model.DuplicateAnnotation {
	var out []model.DuplicateAnnotation
	for _, a := range g.annotations {
		if a.IdentityA == identity || a.IdentityB == identity {
			out = append(out, a)
		}
	}
	return out
}

// All returns every annotation in the graph.
func (g DuplicateGraph) All() []model.DuplicateAnnotation {
	return append([]model.DuplicateAnnotation(nil), g.annotations...)
}

func decodeAnnotation(payload map[string]any) (model.DuplicateAnnotation, bool) {
	identityA, _ := payload["identity_a"].(string)
	identityB, _ := payload["identity_b"].(string)
	strategy, _ := payload["strategy"].(string)
	reason, _ := payload["reason"].(string)
	decidedBy, _ := payload["decided_by"].(string)
	confidence, _ := payload["confidence"].(float64)

	if identityA == "" || identityB == "" {
		return model.DuplicateAnnotation{}, false
	}

	return model.DuplicateAnnotation{
		IdentityA:  identityA,
		IdentityB:  identityB,
		Strategy:   model.DuplicateStrategy(strategy),
		Confidence: confidence,
		Reason:     reason,
		DecidedBy:  decidedBy,
	}, true
}
