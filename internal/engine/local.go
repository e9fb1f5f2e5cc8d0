package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fluxgate/fluxgate/internal/model"
)

// Local is the built-in reference evaluator. It decides which reactions can
// carry flux at all (a boolean reachability fixpoint over the stoichiometry)
// instead of solving a linear program, which is enough to drive the tool
// surface, the fixtures and the tests without an external solver.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (e *Local) Load(ctx context.Context, src Source) (*model.Model, error) {
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("read model file: %w", err)
		}
		var m model.Model
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse model file %s: %w", src.Path, err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid model document %s: %w", src.Path, err)
		}
		return &m, nil
	}
	return Builtin(src.ModelID)
}

func (e *Local) Optimize(ctx context.Context, m *model.Model) (*Solution, error) {
	run := reachableReactions(m)

	obj := m.ObjectiveReaction()
	if obj == nil {
		return &Solution{Status: StatusInfeasible}, nil
	}

	value := 0.0
	if run[obj.ID].forward {
		value = obj.UpperBound * obj.ObjectiveCoefficient
	}

	fluxes := make(map[string]float64, len(m.Reactions))
	for _, r := range m.Reactions {
		switch {
		case run[r.ID].forward:
			fluxes[r.ID] = r.UpperBound
		case run[r.ID].reverse:
			fluxes[r.ID] = r.LowerBound
		default:
			fluxes[r.ID] = 0
		}
	}

	return &Solution{Status: StatusOptimal, ObjectiveValue: &value, Fluxes: fluxes}, nil
}

func (e *Local) FluxVariability(ctx context.Context, m *model.Model, reactionIDs []string) (map[string]FluxRange, error) {
	if reactionIDs == nil {
		reactionIDs = make([]string, 0, len(m.Reactions))
		for _, r := range m.Reactions {
			reactionIDs = append(reactionIDs, r.ID)
		}
	}

	run := reachableReactions(m)

	out := make(map[string]FluxRange, len(reactionIDs))
	for _, id := range reactionIDs {
		r, err := m.Reaction(id)
		if err != nil {
			return nil, err
		}
		rc := run[r.ID]
		var fr FluxRange
		switch {
		case rc.forward && rc.reverse:
			fr = FluxRange{Minimum: r.LowerBound, Maximum: r.UpperBound}
		case rc.forward:
			fr = FluxRange{Minimum: max(0, r.LowerBound), Maximum: r.UpperBound}
		case rc.reverse:
			fr = FluxRange{Minimum: r.LowerBound, Maximum: min(0, r.UpperBound)}
		default:
			fr = FluxRange{}
		}
		out[id] = fr
	}
	return out, nil
}

type runnable struct {
	forward bool
	reverse bool
}

// reachableReactions computes, per reaction, whether its forward or reverse
// direction can carry flux: a direction runs when the reaction is enabled
// (gene states), its bound allows the direction, and everything it consumes
// in that direction is producible. Producibility propagates to a fixpoint.
func reachableReactions(m *model.Model) map[string]runnable {
	producible := map[string]bool{}
	run := make(map[string]runnable, len(m.Reactions))

	for changed := true; changed; {
		changed = false
		for _, r := range m.Reactions {
			if !m.ReactionEnabled(r) {
				continue
			}
			rc := run[r.ID]

			if !rc.forward && r.UpperBound > 0 && inputsProducible(r, producible, false) {
				rc.forward = true
				run[r.ID] = rc
				markOutputs(r, producible, false)
				changed = true
			}
			if !rc.reverse && r.LowerBound < 0 && inputsProducible(r, producible, true) {
				rc.reverse = true
				run[r.ID] = rc
				markOutputs(r, producible, true)
				changed = true
			}
		}
	}
	return run
}

// inputsProducible checks the consumed side of a direction. reverse=true
// flips the stoichiometric sign convention.
func inputsProducible(r *model.Reaction, producible map[string]bool, reverse bool) bool {
	for mid, coeff := range r.Metabolites {
		consumed := coeff < 0
		if reverse {
			consumed = coeff > 0
		}
		if consumed && !producible[mid] {
			return false
		}
	}
	return true
}

func markOutputs(r *model.Reaction, producible map[string]bool, reverse bool) {
	for mid, coeff := range r.Metabolites {
		produced := coeff > 0
		if reverse {
			produced = coeff < 0
		}
		if produced {
			producible[mid] = true
		}
	}
}
