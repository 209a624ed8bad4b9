// Package layout holds the dashboard layout tree: the four layout managers,
// the elements they own, the repeat controllers attached to those elements,
// and the operations that restructure a tree (move, transition, serialize).
//
// Every manager keeps its children in a scene.State and replaces the slice
// wholesale on change, so a binding observes one Set per structural edit.
package layout

import (
	"fmt"
	"slices"

	"dashgrid/internal/grid"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

// Kind names one of the four layout managers.
type Kind string

const (
	KindGrid     Kind = "grid"
	KindAutoGrid Kind = "auto-grid"
	KindRows     Kind = "rows"
	KindTabs     Kind = "tabs"
)

// Kinds lists every manager kind in presentation order.
var Kinds = []Kind{KindGrid, KindAutoGrid, KindRows, KindTabs}

// ParseKind accepts a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("%w: layout %q", ErrUnknownKind, s)
	}
	return k, nil
}

// MaxNestingDepth bounds drop target resolution: the number of layouts from
// the root down to the grid, both included.
const MaxNestingDepth = 10

// Manager is implemented by exactly *GridLayout, *AutoGridLayout, *RowsLayout
// and *TabsLayout. Callers switch on the concrete type when they need more
// than the common operations.
type Manager interface {
	Kind() Kind

	// AddPanel assigns p a fresh ID and key and places it.
	AddPanel(p *Panel) error
	// RemovePanel removes the element wrapping p.
	RemovePanel(p *Panel) error
	// DuplicatePanel places a copy of p's element next to it.
	DuplicatePanel(p *Panel) (*Panel, error)

	// Panels lists every panel in tree order, repeated copies included.
	Panels() []*Panel
	// Outline describes the tree without repeated copies.
	Outline() []OutlineNode
	// CloneForComparison returns an independent copy whose keys are
	// namespaced under ancestorKey and the side being compared.
	CloneForComparison(ancestorKey string, isSource bool) Manager

	// OnChange runs fn after any structural edit of this manager's own children.
	OnChange(fn func()) scene.Unbind

	activate(e env) func()
	copyManager(c copier) Manager
	setSequence(s *Sequence)
	detachPanel(p *Panel) (*RepeatBinding, error)
	attachPanel(p *Panel, binding *RepeatBinding)
	repeaters() []Repeater
}

// RepeatBinding ties an element to the multi-value variable it repeats over.
// Direction and MaxPerRow only apply to panels in a free grid.
type RepeatBinding struct {
	Variable  string
	Direction grid.Direction
	MaxPerRow int
}

func (b *RepeatBinding) copy() *RepeatBinding {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Repeater is implemented by every repeat controller.
type Repeater interface {
	// PerformRepeat runs one repeat cycle. With force the cycle runs even
	// when the variable's values did not change.
	PerformRepeat(force bool)
	// SourceKey is the key of the element the controller expands.
	SourceKey() string
}

// env is what an element needs from its ancestors while active.
type env struct {
	scope *variables.Set
	bus   *scene.Bus
}

func (e env) with(scope *variables.Set) env {
	return env{scope: scope, bus: e.bus}
}

// nextPanelID draws an ID from m's sequence, creating one on first use.
func nextPanelID(seq **Sequence, m Manager) int {
	if *seq == nil {
		*seq = NewSequence(nil)
	}
	return (*seq).Next(m.Panels())
}

func assignKey(p *Panel, id int) {
	p.ID = id
	p.Key = PanelKey(id)
	p.RepeatSourceKey = ""
}

// ContainsPanel reports whether p is wrapped anywhere in m.
func ContainsPanel(m Manager, p *Panel) bool {
	return slices.Contains(m.Panels(), p)
}

// FindPanel returns the panel with key in m, repeated copies included.
func FindPanel(m Manager, key string) (*Panel, bool) {
	for _, p := range m.Panels() {
		if p.Key == key {
			return p, true
		}
	}
	return nil, false
}

// Repeaters lists every repeat controller in m, nested ones included.
func Repeaters(m Manager) []Repeater {
	return m.repeaters()
}
