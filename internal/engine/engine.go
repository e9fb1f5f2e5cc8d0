// Package engine defines the boundary to the metabolic compute engine. The
// service never implements solver numerics itself: Local is a boolean
// flux-reachability evaluator for development and tests, Remote delegates to
// an out-of-process engine over HTTP.
package engine

import (
	"context"

	"github.com/fluxgate/fluxgate/internal/model"
)

// Source names what to load: a built-in model id, or a JSON model document
// on disk when Path is set.
type Source struct {
	ModelID string
	Path    string
}

// Solution is the outcome of one optimization run.
type Solution struct {
	Status string `json:"status"`

	// ObjectiveValue is nil when the problem is infeasible.
	ObjectiveValue *float64 `json:"objective_value"`

	Fluxes map[string]float64 `json:"fluxes"`
}

const (
	StatusOptimal    = "optimal"
	StatusInfeasible = "infeasible"
)

// FluxRange is the feasible flux interval of one reaction.
type FluxRange struct {
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// Engine is the compute capability the dispatcher drives. All calls are
// blocking and synchronous; large models can take a while.
type Engine interface {
	// Load parses a model. Path errors surface as fs.ErrNotExist wraps so
	// callers can classify them.
	Load(ctx context.Context, src Source) (*model.Model, error)

	// Optimize runs flux-balance optimization against the model's current
	// state (bounds and gene knockouts included).
	Optimize(ctx context.Context, m *model.Model) (*Solution, error)

	// FluxVariability computes per-reaction flux ranges. A nil reaction list
	// means every reaction in the model.
	FluxVariability(ctx context.Context, m *model.Model, reactionIDs []string) (map[string]FluxRange, error)
}
