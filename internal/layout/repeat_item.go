package layout

import (
	"encoding/json"
	"log"

	"dashgrid/internal/clonekey"
	"dashgrid/internal/repeat"
	"dashgrid/internal/scene"
	"dashgrid/internal/schema"
	"dashgrid/internal/variables"
)

// containerItem is a row of a rows layout or a tab of a tabs layout.
type containerItem interface {
	elementKey() string
	binding() *RepeatBinding
	content() Manager
	repeatSource() string
	instanceScope() *variables.Set
	setInstanceScope(scope *variables.Set)
	// cloneAs copies the item and its nested layout under key, joining
	// nested keys below it.
	cloneAs(key string) containerItem
}

// itemOwner is the rows or tabs layout holding a repeated item.
type itemOwner interface {
	repeatBlock(source containerItem) []containerItem
	expandItem(source containerItem, n int) []containerItem
}

// ItemRepeater repeats a row or tab, with its nested layout, once per value
// of the bound variable. Copies follow the source item.
type ItemRepeater struct {
	item      containerItem
	owner     itemOwner
	cycle     repeat.Cycle
	env       env
	active    bool
	instances scene.Group
	// source is the layout the current copies were made from.
	source string
}

func (r *ItemRepeater) SourceKey() string { return r.item.elementKey() }

func (r *ItemRepeater) activate(e env, owner itemOwner) func() {
	if r.env.scope != e.scope {
		r.cycle.Reset()
	}
	r.env, r.owner, r.active = e, owner, true
	unsubscribe := e.scope.Subscribe(func(c variables.Change) {
		if b := r.item.binding(); b != nil && c.Has(b.Variable) {
			r.PerformRepeat(false)
		}
	})
	if r.cycle.Previous() != nil {
		r.activateInstances(owner.repeatBlock(r.item))
	}
	r.PerformRepeat(false)
	if r.instances.Len() == 0 {
		r.item.setInstanceScope(e.scope)
		r.instances.Add(r.item.content().activate(e))
	}
	return func() {
		unsubscribe()
		r.instances.Release()
		r.active = false
	}
}

func (r *ItemRepeater) activateInstances(block []containerItem) {
	r.instances.Release()
	for _, item := range block {
		scope := item.instanceScope()
		if scope == nil {
			scope = r.env.scope
		}
		r.instances.Add(item.content().activate(r.env.with(scope)))
	}
}

// PerformRepeat replaces the previous copies with one item per value. Copies
// of an edited source item are rebuilt even when the values are unchanged.
func (r *ItemRepeater) PerformRepeat(force bool) {
	b := r.item.binding()
	if !r.active || b == nil {
		return
	}
	source := itemSignature(r.item)
	if r.source != "" && r.source != source {
		force = true
	}
	values, ok, err := r.cycle.Next(b.Variable, r.env.scope, force)
	if err != nil {
		log.Printf("Warning: repeat of %s skipped: %v", r.item.elementKey(), err)
		return
	}
	if !ok {
		return
	}

	block := r.owner.expandItem(r.item, values.Len())
	if block == nil {
		return
	}
	r.cycle.Commit(values)
	r.source = source
	for i, item := range block {
		item.setInstanceScope(variables.NewSet(r.env.scope, values.Override(i)))
	}
	r.activateInstances(block)
	publishRepeats(r.env.bus, r.item.elementKey(), len(block))
}

func itemSignature(item containerItem) string {
	elements := map[string]schema.Element{}
	return signature(SerializeLayout(item.content(), elements), elements)
}

// signature encodes the template content copies are made from.
func signature(parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		return ""
	}
	return string(data)
}

// cloneKeys returns the keys of the n-1 copies of key.
func cloneKeys(key string, n int) []string {
	keys := make([]string, 0, max(n-1, 0))
	for i := 1; i < n; i++ {
		keys = append(keys, clonekey.GetCloneKey(key, i))
	}
	return keys
}

// expandBlock rebuilds items with source followed by n-1 fresh copies, the
// previous copies of source dropped. It returns the new items and the block.
func expandBlock[T containerItem](items []T, source T, n int) ([]T, []containerItem) {
	var rest []T
	for _, it := range items {
		if it.repeatSource() == source.elementKey() {
			continue
		}
		rest = append(rest, it)
	}
	idx := -1
	for i, it := range rest {
		if containerItem(it) == containerItem(source) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	block := []containerItem{source}
	next := make([]T, 0, len(rest)+n-1)
	next = append(next, rest[:idx+1]...)
	for _, key := range cloneKeys(source.elementKey(), n) {
		clone := source.cloneAs(key).(T)
		next = append(next, clone)
		block = append(block, clone)
	}
	next = append(next, rest[idx+1:]...)
	return next, block
}

func blockOf[T containerItem](items []T, source T) []containerItem {
	block := []containerItem{source}
	for _, it := range items {
		if it.repeatSource() == source.elementKey() {
			block = append(block, it)
		}
	}
	return block
}
