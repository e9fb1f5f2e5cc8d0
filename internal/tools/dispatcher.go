// Package tools maps named operations onto the registry and the engine and
// wraps every outcome in a uniform result envelope.
package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fluxgate/fluxgate/internal/activity"
	"github.com/fluxgate/fluxgate/internal/engine"
	"github.com/fluxgate/fluxgate/internal/metrics"
	"github.com/fluxgate/fluxgate/internal/model"
	"github.com/fluxgate/fluxgate/internal/registry"
	"github.com/fluxgate/fluxgate/internal/scope"
)

// fluxSampleSize caps the flux map returned by optimize_model; full flux
// vectors for genome-scale models are too big for a tool response.
const fluxSampleSize = 10

// Result is the envelope every tool call returns.
type Result struct {
	Success bool    `json:"success"`
	Result  any     `json:"result"`
	Error   *string `json:"error"`

	// Kind classifies failures for transports; not part of the wire body.
	Kind Kind `json:"-"`
}

func ok(payload any) Result {
	return Result{Success: true, Result: payload}
}

func fail(kind Kind, msg string) Result {
	return Result{Success: false, Error: &msg, Kind: kind}
}

// Dispatcher is the single entry point for tool calls, regardless of
// transport. Optional observers (activity log, latency tracker, Prometheus
// collectors) may be nil.
type Dispatcher struct {
	Registry *registry.Registry
	Engine   engine.Engine

	Activity   *activity.Log
	Latency    *metrics.LatencyTracker
	Collectors *metrics.Collectors

	// FVADefaultReactions bounds the default run_fva subset when the caller
	// gives no explicit reaction list. Zero means 10.
	FVADefaultReactions int

	// EssentialThreshold is the knockout growth below which a gene counts
	// as essential. Zero means 0.01.
	EssentialThreshold float64
}

// Dispatch validates parameters, runs the named tool and returns the
// envelope. Engine failures never escape as errors; they come back
// classified inside the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params Params) Result {
	start := time.Now()

	payload, err := d.run(ctx, name, params)

	res := ok(payload)
	if err != nil {
		res = fail(classify(err), err.Error())
	}
	d.observe(name, params, res, time.Since(start))
	return res
}

func (d *Dispatcher) run(ctx context.Context, name string, params Params) (any, error) {
	switch name {
	case "load_model":
		return d.loadModel(ctx, params)
	case "get_model_stats":
		return d.getModelStats(ctx, params)
	case "optimize_model":
		return d.optimizeModel(ctx, params)
	case "get_reaction_info":
		return d.getReactionInfo(ctx, params)
	case "run_fva":
		return d.runFVA(ctx, params)
	case "gene_knockout":
		return d.geneKnockout(ctx, params)
	default:
		return nil, errf(KindNotFound, "unknown tool %q", name)
	}
}

func (d *Dispatcher) observe(tool string, params Params, res Result, took time.Duration) {
	outcome := "ok"
	if !res.Success {
		outcome = res.Kind.String()
	}
	if d.Collectors != nil {
		d.Collectors.ToolCalls.WithLabelValues(tool, outcome).Inc()
		d.Collectors.ToolDuration.WithLabelValues(tool).Observe(took.Seconds())
		d.Collectors.LoadedModels.Set(float64(d.Registry.Len()))
	}
	if d.Latency != nil {
		if res.Success {
			d.Latency.ObserveOK(tool, took)
		} else {
			d.Latency.ObserveError(tool, took)
		}
	}
	if d.Activity != nil {
		modelID, _ := params.OptionalString("model_id")
		ev := activity.Event{
			At:     time.Now(),
			Type:   activity.EventToolCall,
			CallID: uuid.NewString(),
			Tool:   tool,
			Model:  modelID,
		}
		if !res.Success {
			ev.Type = activity.EventToolError
			ev.Note = *res.Error
		}
		d.Activity.Add(ev)
	}
}

func (d *Dispatcher) loadModel(ctx context.Context, params Params) (any, error) {
	modelID, err := params.String("model_id")
	if err != nil {
		return nil, err
	}
	path, err := params.OptionalString("model_path")
	if err != nil {
		return nil, err
	}

	m, err := d.Engine.Load(ctx, engine.Source{ModelID: modelID, Path: path})
	if err != nil {
		// A failed load must not leave a half-initialized entry behind;
		// nothing was inserted yet, so just classify and return.
		return nil, err
	}
	d.Registry.Put(modelID, m)

	return map[string]any{
		"model_id":     modelID,
		"model_name":   m.Name,
		"reactions":    len(m.Reactions),
		"metabolites":  len(m.Metabolites),
		"genes":        len(m.Genes),
		"compartments": m.CompartmentNames(),
	}, nil
}

func (d *Dispatcher) getModelStats(ctx context.Context, params Params) (any, error) {
	modelID, err := params.String("model_id")
	if err != nil {
		return nil, err
	}
	ent, err := d.Registry.Get(modelID)
	if err != nil {
		return nil, err
	}

	var payload any
	err = ent.Do(func(m *model.Model) error {
		payload = map[string]any{
			"model_id":   modelID,
			"model_name": m.Name,
			"statistics": map[string]int{
				"reactions":    len(m.Reactions),
				"metabolites":  len(m.Metabolites),
				"genes":        len(m.Genes),
				"compartments": len(m.Compartments),
			},
			"compartments": m.CompartmentNames(),
			"objective":    m.ObjectiveExpression(),
		}
		return nil
	})
	return payload, err
}

func (d *Dispatcher) optimizeModel(ctx context.Context, params Params) (any, error) {
	modelID, err := params.String("model_id")
	if err != nil {
		return nil, err
	}
	ent, err := d.Registry.Get(modelID)
	if err != nil {
		return nil, err
	}

	var payload any
	err = ent.Do(func(m *model.Model) error {
		sol, err := d.Engine.Optimize(ctx, m)
		if err != nil {
			return err
		}
		payload = map[string]any{
			"status":          sol.Status,
			"objective_value": sol.ObjectiveValue,
			"fluxes_sample":   fluxSample(m, sol),
		}
		return nil
	})
	return payload, err
}

// fluxSample returns the first few fluxes in the model's reaction order, so
// repeated calls sample the same reactions.
func fluxSample(m *model.Model, sol *engine.Solution) map[string]float64 {
	out := map[string]float64{}
	for _, r := range m.Reactions {
		if len(out) >= fluxSampleSize {
			break
		}
		if flux, okf := sol.Fluxes[r.ID]; okf {
			out[r.ID] = flux
		}
	}
	return out
}

func (d *Dispatcher) getReactionInfo(ctx context.Context, params Params) (any, error) {
	modelID, err := params.String("model_id")
	if err != nil {
		return nil, err
	}
	reactionID, err := params.String("reaction_id")
	if err != nil {
		return nil, err
	}
	ent, err := d.Registry.Get(modelID)
	if err != nil {
		return nil, err
	}

	var payload any
	err = ent.Do(func(m *model.Model) error {
		r, err := m.Reaction(reactionID)
		if err != nil {
			return err
		}
		payload = map[string]any{
			"id":        r.ID,
			"name":      r.Name,
			"reaction":  r.Formula(),
			"subsystem": r.Subsystem,
			"bounds": map[string]float64{
				"lower": r.LowerBound,
				"upper": r.UpperBound,
			},
			"genes":       append([]string(nil), r.Genes...),
			"metabolites": r.Metabolites,
		}
		return nil
	})
	return payload, err
}

func (d *Dispatcher) runFVA(ctx context.Context, params Params) (any, error) {
	modelID, err := params.String("model_id")
	if err != nil {
		return nil, err
	}
	reactionIDs, err := params.OptionalStringSlice("reaction_ids")
	if err != nil {
		return nil, err
	}
	ent, err := d.Registry.Get(modelID)
	if err != nil {
		return nil, err
	}

	var payload any
	err = ent.Do(func(m *model.Model) error {
		ids := reactionIDs
		if ids == nil {
			ids = defaultFVASubset(m, d.FVADefaultReactions)
		} else {
			// Validate up front so an unknown id is a NotFound, not a
			// solver failure.
			for _, id := range ids {
				if _, err := m.Reaction(id); err != nil {
					return err
				}
			}
		}
		ranges, err := d.Engine.FluxVariability(ctx, m, ids)
		if err != nil {
			return err
		}
		payload = map[string]any{
			"reactions_analyzed": len(ranges),
			"results":            ranges,
		}
		return nil
	})
	return payload, err
}

// defaultFVASubset picks the leading reactions when the caller names none.
// The size is configuration, not a magic constant.
func defaultFVASubset(m *model.Model, n int) []string {
	if n <= 0 {
		n = 10
	}
	if n > len(m.Reactions) {
		n = len(m.Reactions)
	}
	ids := make([]string, 0, n)
	for _, r := range m.Reactions[:n] {
		ids = append(ids, r.ID)
	}
	return ids
}

func (d *Dispatcher) geneKnockout(ctx context.Context, params Params) (any, error) {
	modelID, err := params.String("model_id")
	if err != nil {
		return nil, err
	}
	geneID, err := params.String("gene_id")
	if err != nil {
		return nil, err
	}
	ent, err := d.Registry.Get(modelID)
	if err != nil {
		return nil, err
	}

	threshold := d.EssentialThreshold
	if threshold <= 0 {
		threshold = 0.01
	}

	var payload any
	err = ent.Do(func(m *model.Model) error {
		wt, err := d.Engine.Optimize(ctx, m)
		if err != nil {
			return err
		}
		wtGrowth := 0.0
		if wt.ObjectiveValue != nil {
			wtGrowth = *wt.ObjectiveValue
		}

		// The knockout lives only inside this scope; the entry lock is held
		// for the whole mutate+read+revert sequence.
		payload, err = scope.With(
			func() (func(), error) { return m.KnockOutGene(geneID) },
			func() (any, error) {
				ko, err := d.Engine.Optimize(ctx, m)
				if err != nil {
					return nil, err
				}
				koGrowth := 0.0
				if ko.ObjectiveValue != nil {
					koGrowth = *ko.ObjectiveValue
				}
				reductionPct := 0.0
				if wtGrowth > 0 {
					reductionPct = 100 * (wtGrowth - koGrowth) / wtGrowth
				}
				return map[string]any{
					"gene_id":                  geneID,
					"wildtype_growth":          wtGrowth,
					"knockout_growth":          koGrowth,
					"growth_reduction":         wtGrowth - koGrowth,
					"growth_reduction_percent": reductionPct,
					"essential":                koGrowth < threshold,
					"knockout_status":          ko.Status,
				}, nil
			},
		)
		return err
	})
	return payload, err
}
