package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/engine"
)

func TestInitSourceDefaults(t *testing.T) {
	sel := engine.NewSelection()

	sel.InitSourceDefaults([]domain.Source{
		{ID: "s1", InsightsCount: 3},
		{ID: "s2", InsightsCount: 0},
	})

	m, ok := sel.Mode("s1", domain.ItemKindSource)
	assert.True(t, ok)
	assert.Equal(t, domain.ContextModeInsights, m)

	m, _ = sel.Mode("s2", domain.ItemKindSource)
	assert.Equal(t, domain.ContextModeFull, m)
}

func TestInitNoteDefaults(t *testing.T) {
	sel := engine.NewSelection()
	sel.InitNoteDefaults([]domain.Note{{ID: "n1"}, {ID: "n2"}})

	for _, id := range []string{"n1", "n2"} {
		m, ok := sel.Mode(id, domain.ItemKindNote)
		assert.True(t, ok)
		assert.Equal(t, domain.ContextModeFull, m)
	}
}

func TestInitDefaultsNeverOverwrites(t *testing.T) {
	sel := engine.NewSelection()

	sel.InitSourceDefaults([]domain.Source{{ID: "s1", InsightsCount: 2}})
	sel.SetMode("s1", domain.ContextModeOff, domain.ItemKindSource)

	// Data refresh brings a grown item set; the user's override survives
	// and only the new id gets a default.
	sel.InitSourceDefaults([]domain.Source{
		{ID: "s1", InsightsCount: 2},
		{ID: "s2", InsightsCount: 0},
	})
	sel.InitSourceDefaults([]domain.Source{
		{ID: "s1", InsightsCount: 2},
		{ID: "s2", InsightsCount: 0},
	})

	m, _ := sel.Mode("s1", domain.ItemKindSource)
	assert.Equal(t, domain.ContextModeOff, m)
	m, _ = sel.Mode("s2", domain.ItemKindSource)
	assert.Equal(t, domain.ContextModeFull, m)
}

func TestSetModeLastWriteWins(t *testing.T) {
	sel := engine.NewSelection()

	sel.SetMode("s1", domain.ContextModeFull, domain.ItemKindSource)
	sel.SetMode("s2", domain.ContextModeInsights, domain.ItemKindSource)
	sel.SetMode("s1", domain.ContextModeInsights, domain.ItemKindSource)
	sel.SetMode("s1", domain.ContextModeOff, domain.ItemKindSource)

	m, _ := sel.Mode("s1", domain.ItemKindSource)
	assert.Equal(t, domain.ContextModeOff, m)
	m, _ = sel.Mode("s2", domain.ItemKindSource)
	assert.Equal(t, domain.ContextModeInsights, m)
}

func TestConfigTranslatesModesToTags(t *testing.T) {
	sel := engine.NewSelection()
	sel.SetMode("sourceA", domain.ContextModeInsights, domain.ItemKindSource)
	sel.SetMode("sourceB", domain.ContextModeOff, domain.ItemKindSource)
	sel.SetMode("note1", domain.ContextModeFull, domain.ItemKindNote)

	cfg := sel.Config()
	assert.Equal(t, map[string]string{
		"sourceA": domain.TagInsights,
		"sourceB": domain.TagNotIn,
	}, cfg.Sources)
	assert.Equal(t, map[string]string{
		"note1": domain.TagFullContent,
	}, cfg.Notes)
}

func TestSelectionRegistry(t *testing.T) {
	reg := engine.NewSelectionRegistry()

	sel := reg.For("nb1")
	sel.SetMode("s1", domain.ContextModeOff, domain.ItemKindSource)

	// Same notebook returns the same selection.
	again := reg.For("nb1")
	m, ok := again.Mode("s1", domain.ItemKindSource)
	assert.True(t, ok)
	assert.Equal(t, domain.ContextModeOff, m)

	// Dropping the notebook discards its state.
	reg.Drop("nb1")
	fresh := reg.For("nb1")
	_, ok = fresh.Mode("s1", domain.ItemKindSource)
	assert.False(t, ok)
}
