package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxgate/fluxgate/internal/model"
)

func toy(id string) *model.Model {
	return &model.Model{
		ID:   id,
		Name: "Toy " + id,
		Metabolites: []*model.Metabolite{
			{ID: "x_c", Name: "X"},
		},
	}
}

func TestGetUnknownReturnsErrNotLoaded(t *testing.T) {
	r := New()

	_, err := r.Get("nope")
	require.Error(t, err)

	var nl ErrNotLoaded
	require.ErrorAs(t, err, &nl)
	assert.Equal(t, "nope", nl.ModelID)
	assert.Contains(t, err.Error(), "load_model")
}

func TestPutGetRemove(t *testing.T) {
	r := New()
	r.Put("a", toy("a"))

	ent, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", ent.ID)
	assert.False(t, ent.LoadedAt.IsZero())

	require.NoError(t, ent.Do(func(m *model.Model) error {
		assert.Equal(t, "Toy a", m.Name)
		return nil
	}))

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, 0, r.Len())
}

func TestListPreservesInsertionOrder(t *testing.T) {
	r := New()
	r.Put("c", toy("c"))
	r.Put("a", toy("a"))
	r.Put("b", toy("b"))

	infos := r.List()
	require.Len(t, infos, 3)
	assert.Equal(t, "c", infos[0].ModelID)
	assert.Equal(t, "a", infos[1].ModelID)
	assert.Equal(t, "b", infos[2].ModelID)

	r.Remove("a")
	infos = r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "c", infos[0].ModelID)
	assert.Equal(t, "b", infos[1].ModelID)
}

func TestPutReplacesEntry(t *testing.T) {
	r := New()
	r.Put("a", toy("a"))
	r.Put("b", toy("b"))

	fresh := toy("a")
	fresh.Name = "Replaced"
	r.Put("a", fresh)

	assert.Equal(t, 2, r.Len())

	ent, err := r.Get("a")
	require.NoError(t, err)
	require.NoError(t, ent.Do(func(m *model.Model) error {
		assert.Equal(t, "Replaced", m.Name)
		return nil
	}))

	// Replacement keeps the original position.
	infos := r.List()
	assert.Equal(t, "a", infos[0].ModelID)
}

func TestListKeyedByRegistryID(t *testing.T) {
	r := New()

	// Registered under a name that differs from the document's own id.
	r.Put("alias", toy("textbook"))

	infos := r.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "alias", infos[0].ModelID)
	assert.Equal(t, "Toy textbook", infos[0].Name)
}
