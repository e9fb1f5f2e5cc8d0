package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound marks lookups for reactions, metabolites or genes that are not
// part of the model. Callers match it with errors.Is.
var ErrNotFound = errors.New("not found")

// Model is an in-memory metabolic network. It is owned by exactly one
// registry entry; nothing here is concurrency-safe on its own.
type Model struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Reactions    []*Reaction       `json:"reactions"`
	Metabolites  []*Metabolite     `json:"metabolites"`
	Genes        []*Gene           `json:"genes"`
	Compartments map[string]string `json:"compartments"`
}

type Reaction struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subsystem string `json:"subsystem,omitempty"`

	// Metabolites maps metabolite id to stoichiometric coefficient
	// (negative = consumed, positive = produced).
	Metabolites map[string]float64 `json:"metabolites"`

	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`

	// Genes lists associated gene ids. Isozyme (OR) semantics: the reaction
	// stays enabled as long as at least one listed gene is active.
	Genes []string `json:"genes,omitempty"`

	ObjectiveCoefficient float64 `json:"objective_coefficient,omitempty"`
}

type Metabolite struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Compartment string `json:"compartment,omitempty"`
	Formula     string `json:"formula,omitempty"`
}

type Gene struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	// KnockedOut is transient simulation state. It is serialized so a
	// stateless remote engine sees the same network the caller sees.
	KnockedOut bool `json:"knocked_out,omitempty"`
}

// Summary is the lightweight per-model view used by registry listings.
type Summary struct {
	ModelID     string `json:"model_id"`
	Name        string `json:"name"`
	Reactions   int    `json:"reactions"`
	Metabolites int    `json:"metabolites"`
	Genes       int    `json:"genes"`
}

func (m *Model) Summary() Summary {
	return Summary{
		ModelID:     m.ID,
		Name:        m.Name,
		Reactions:   len(m.Reactions),
		Metabolites: len(m.Metabolites),
		Genes:       len(m.Genes),
	}
}

func (m *Model) Reaction(id string) (*Reaction, error) {
	for _, r := range m.Reactions {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("reaction %q: %w", id, ErrNotFound)
}

func (m *Model) Metabolite(id string) (*Metabolite, error) {
	for _, mb := range m.Metabolites {
		if mb.ID == id {
			return mb, nil
		}
	}
	return nil, fmt.Errorf("metabolite %q: %w", id, ErrNotFound)
}

func (m *Model) Gene(id string) (*Gene, error) {
	for _, g := range m.Genes {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, fmt.Errorf("gene %q: %w", id, ErrNotFound)
}

// KnockOutGene disables a gene in place and returns a restore closure that
// puts back the previous state. The caller is responsible for invoking
// restore; scope.With guarantees it on every exit path.
func (m *Model) KnockOutGene(id string) (func(), error) {
	g, err := m.Gene(id)
	if err != nil {
		return nil, err
	}
	prev := g.KnockedOut
	g.KnockedOut = true
	return func() { g.KnockedOut = prev }, nil
}

// ReactionEnabled reports whether a reaction can carry flux at all given the
// current gene states. Reactions without gene associations are always enabled.
func (m *Model) ReactionEnabled(r *Reaction) bool {
	if len(r.Genes) == 0 {
		return true
	}
	for _, gid := range r.Genes {
		g, err := m.Gene(gid)
		if err != nil {
			// Unknown association: treat as active rather than silently
			// disabling the reaction.
			return true
		}
		if !g.KnockedOut {
			return true
		}
	}
	return false
}

// ObjectiveReaction returns the reaction carrying a nonzero objective
// coefficient, or nil if the model has no objective.
func (m *Model) ObjectiveReaction() *Reaction {
	for _, r := range m.Reactions {
		if r.ObjectiveCoefficient != 0 {
			return r
		}
	}
	return nil
}

// ObjectiveExpression renders the objective the way stats consumers expect,
// e.g. "1.0*BIOMASS_Ecoli_core".
func (m *Model) ObjectiveExpression() string {
	r := m.ObjectiveReaction()
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%.1f*%s", r.ObjectiveCoefficient, r.ID)
}

// CompartmentNames returns the compartment ids in deterministic order.
func (m *Model) CompartmentNames() []string {
	out := make([]string, 0, len(m.Compartments))
	for k := range m.Compartments {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Formula renders a reaction as a human-readable equation, e.g.
// "g6p_c --> f6p_c" or "glc__D_e <=>".
func (r *Reaction) Formula() string {
	var lhs, rhs []string
	for _, mid := range sortedKeys(r.Metabolites) {
		coeff := r.Metabolites[mid]
		term := mid
		if c := abs(coeff); c != 1 {
			term = fmt.Sprintf("%g %s", c, mid)
		}
		if coeff < 0 {
			lhs = append(lhs, term)
		} else {
			rhs = append(rhs, term)
		}
	}
	arrow := "-->"
	if r.LowerBound < 0 {
		arrow = "<=>"
	}
	return strings.TrimSpace(strings.Join(lhs, " + ") + " " + arrow + " " + strings.Join(rhs, " + "))
}

// Validate rejects documents a loader should never hand to the engine.
func (m *Model) Validate() error {
	if m.ID == "" {
		return errors.New("model id is empty")
	}
	seen := map[string]bool{}
	for _, mb := range m.Metabolites {
		seen[mb.ID] = true
	}
	for _, r := range m.Reactions {
		if r.LowerBound > r.UpperBound {
			return fmt.Errorf("reaction %s: lower bound %g above upper bound %g", r.ID, r.LowerBound, r.UpperBound)
		}
		for mid := range r.Metabolites {
			if !seen[mid] {
				return fmt.Errorf("reaction %s references unknown metabolite %s", r.ID, mid)
			}
		}
	}
	return nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
