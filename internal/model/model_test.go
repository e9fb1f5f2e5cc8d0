package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() *Model {
	return &Model{
		ID:   "toy",
		Name: "Toy network",
		Compartments: map[string]string{
			"c": "cytosol",
			"e": "extracellular space",
		},
		Metabolites: []*Metabolite{
			{ID: "a_e", Name: "A", Compartment: "e"},
			{ID: "a_c", Name: "A", Compartment: "c"},
			{ID: "b_c", Name: "B", Compartment: "c"},
		},
		Genes: []*Gene{
			{ID: "g1", Name: "alpha"},
			{ID: "g2", Name: "beta"},
		},
		Reactions: []*Reaction{
			{
				ID: "EX_a", Name: "A exchange",
				Metabolites: map[string]float64{"a_e": -1},
				LowerBound:  -10, UpperBound: 1000,
			},
			{
				ID: "TR_a", Name: "A transport",
				Metabolites: map[string]float64{"a_e": -1, "a_c": 1},
				LowerBound:  0, UpperBound: 1000,
				Genes: []string{"g1", "g2"},
			},
			{
				ID: "CONV", Name: "A to B",
				Metabolites: map[string]float64{"a_c": -1, "b_c": 2},
				LowerBound:  0, UpperBound: 1000,
				Genes:                []string{"g1"},
				ObjectiveCoefficient: 1,
			},
		},
	}
}

func TestLookupsReturnNotFound(t *testing.T) {
	m := testModel()

	_, err := m.Reaction("NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Metabolite("nope_c")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Gene("g9")
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := m.Reaction("CONV")
	require.NoError(t, err)
	assert.Equal(t, "A to B", r.Name)
}

func TestKnockOutGeneRestores(t *testing.T) {
	m := testModel()

	restore, err := m.KnockOutGene("g1")
	require.NoError(t, err)

	g, err := m.Gene("g1")
	require.NoError(t, err)
	assert.True(t, g.KnockedOut)

	restore()
	assert.False(t, g.KnockedOut)
}

func TestKnockOutGeneUnknown(t *testing.T) {
	m := testModel()
	_, err := m.KnockOutGene("g9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReactionEnabledIsozymeSemantics(t *testing.T) {
	m := testModel()
	tr, err := m.Reaction("TR_a")
	require.NoError(t, err)
	conv, err := m.Reaction("CONV")
	require.NoError(t, err)
	ex, err := m.Reaction("EX_a")
	require.NoError(t, err)

	// No gene association: always enabled.
	assert.True(t, m.ReactionEnabled(ex))

	// One of two isozymes knocked out: still enabled.
	restore, err := m.KnockOutGene("g1")
	require.NoError(t, err)
	assert.True(t, m.ReactionEnabled(tr))
	// Single-gene reaction loses its only gene: disabled.
	assert.False(t, m.ReactionEnabled(conv))
	restore()

	// Both isozymes out: disabled.
	r1, err := m.KnockOutGene("g1")
	require.NoError(t, err)
	r2, err := m.KnockOutGene("g2")
	require.NoError(t, err)
	assert.False(t, m.ReactionEnabled(tr))
	r2()
	r1()
	assert.True(t, m.ReactionEnabled(tr))
}

func TestObjectiveExpression(t *testing.T) {
	m := testModel()
	assert.Equal(t, "1.0*CONV", m.ObjectiveExpression())

	m.Reactions[2].ObjectiveCoefficient = 0
	assert.Equal(t, "", m.ObjectiveExpression())
	assert.Nil(t, m.ObjectiveReaction())
}

func TestReactionFormula(t *testing.T) {
	m := testModel()

	conv, err := m.Reaction("CONV")
	require.NoError(t, err)
	assert.Equal(t, "a_c --> 2 b_c", conv.Formula())

	// Reversible exchange with an empty product side.
	ex, err := m.Reaction("EX_a")
	require.NoError(t, err)
	assert.Equal(t, "a_e <=>", ex.Formula())
}

func TestCompartmentNamesSorted(t *testing.T) {
	m := testModel()
	assert.Equal(t, []string{"c", "e"}, m.CompartmentNames())
}

func TestValidate(t *testing.T) {
	m := testModel()
	require.NoError(t, m.Validate())

	m.Reactions[0].Metabolites["ghost_c"] = 1
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost_c")
	delete(m.Reactions[0].Metabolites, "ghost_c")

	m.Reactions[1].LowerBound = 5
	m.Reactions[1].UpperBound = 1
	assert.Error(t, m.Validate())

	m.ID = ""
	assert.Error(t, m.Validate())
}

func TestSummaryCounts(t *testing.T) {
	m := testModel()
	sum := m.Summary()
	assert.Equal(t, "toy", sum.ModelID)
	assert.Equal(t, 3, sum.Reactions)
	assert.Equal(t, 3, sum.Metabolites)
	assert.Equal(t, 2, sum.Genes)
}
