package layout

import (
	"log"

	"dashgrid/internal/repeat"
	"dashgrid/internal/scene"
	"dashgrid/internal/schema"
	"dashgrid/internal/variables"
)

// GridRowRepeater repeats a free-grid row, with its children, once per value
// of the bound variable. Copies are stacked under the source row.
type GridRowRepeater struct {
	row       *GridRow
	owner     *GridLayout
	cycle     repeat.Cycle
	env       env
	active    bool
	instances scene.Group
	// source is the row content the current copies were made from.
	source string
}

func (r *GridRowRepeater) SourceKey() string { return r.row.Key }

func (r *GridRowRepeater) activate(e env, owner *GridLayout) func() {
	if r.env.scope != e.scope {
		r.cycle.Reset()
	}
	r.env, r.owner, r.active = e, owner, true
	unsubscribe := e.scope.Subscribe(func(c variables.Change) {
		if b := r.row.Repeat; b != nil && c.Has(b.Variable) {
			r.PerformRepeat(false)
		}
	})
	if r.cycle.Previous() != nil {
		r.activateInstances(owner.repeatBlock(r.row))
	}
	r.PerformRepeat(false)
	if r.instances.Len() == 0 {
		r.row.scope = e.scope
		r.instances.Add(activateGridItems(r.row.Children, e, owner))
	}
	return func() {
		unsubscribe()
		r.instances.Release()
		r.active = false
	}
}

// activateInstances activates the children of every row in block against
// the row's own scope, releasing the previous cycle's activations first.
func (r *GridRowRepeater) activateInstances(block []*GridRow) {
	r.instances.Release()
	for _, row := range block {
		scope := row.scope
		if scope == nil {
			scope = r.env.scope
		}
		r.instances.Add(activateGridItems(row.Children, r.env.with(scope), r.owner))
	}
}

// PerformRepeat replaces the previous copies with one row per value. Copies
// of an edited source row are rebuilt even when the values are unchanged.
func (r *GridRowRepeater) PerformRepeat(force bool) {
	b := r.row.Repeat
	if !r.active || b == nil {
		return
	}
	source := rowSignature(r.row)
	if r.source != "" && r.source != source {
		force = true
	}
	values, ok, err := r.cycle.Next(b.Variable, r.env.scope, force)
	if err != nil {
		log.Printf("Warning: repeat of %s skipped: %v", r.row.Key, err)
		return
	}
	if !ok {
		return
	}

	block := r.owner.expandRow(r.row, values.Len())
	if block == nil {
		return
	}
	r.cycle.Commit(values)
	r.source = source
	for i, row := range block {
		row.scope = variables.NewSet(r.env.scope, values.Override(i))
	}
	r.activateInstances(block)
	publishRepeats(r.env.bus, r.row.Key, len(block))
}

// rowSignature describes the content of row relative to its header, so
// moving the whole row does not count as an edit.
func rowSignature(row *GridRow) string {
	elements := map[string]schema.Element{}
	top := row.Y - row.repeatShift
	items := make([]schema.GridLayoutItem, len(row.Children))
	for i, c := range row.Children {
		items[i] = serializeGridItem(c, elements)
		items[i].Spec.Y -= top
	}
	return signature(row.Collapsed, items, elements)
}
