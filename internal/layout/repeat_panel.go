package layout

import (
	"log"

	"dashgrid/internal/clonekey"
	"dashgrid/internal/repeat"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

// panelItem is an element whose panel can be repeated.
type panelItem interface {
	elementKey() string
	source() *Panel
	binding() *RepeatBinding
	setRepeated(panels []*Panel)
}

// panelOwner is the manager that installs repeated panels and fixes geometry.
type panelOwner interface {
	applyPanelRepeat(item panelItem, panels []*Panel)
}

// PanelRepeater repeats the panel of one grid or auto-grid item once per
// value of the bound variable.
type PanelRepeater struct {
	item   panelItem
	owner  panelOwner
	cycle  repeat.Cycle
	env    env
	active bool
}

func (r *PanelRepeater) SourceKey() string { return r.item.elementKey() }

func (r *PanelRepeater) activate(e env, owner panelOwner) func() {
	if r.env.scope != e.scope {
		r.cycle.Reset()
	}
	r.env, r.owner, r.active = e, owner, true
	unsubscribe := e.scope.Subscribe(func(c variables.Change) {
		if b := r.item.binding(); b != nil && c.Has(b.Variable) {
			r.PerformRepeat(false)
		}
	})
	r.PerformRepeat(false)
	return func() {
		unsubscribe()
		r.active = false
	}
}

// PerformRepeat expands the panel to one instance per value. Instance 0 is
// the source panel itself; every instance gets a scope overriding the bound
// variable with its value.
func (r *PanelRepeater) PerformRepeat(force bool) {
	b := r.item.binding()
	if !r.active || b == nil {
		return
	}
	values, ok, err := r.cycle.Next(b.Variable, r.env.scope, force)
	if err != nil {
		log.Printf("Warning: repeat of %s skipped: %v", r.item.elementKey(), err)
		return
	}
	if !ok {
		return
	}

	src := r.item.source()
	panels := make([]*Panel, values.Len())
	for i := range panels {
		p := src
		if i > 0 {
			p = src.copyAs(clonekey.GetCloneKey(src.Key, i))
			p.RepeatSourceKey = src.Key
		}
		p.scope = variables.NewSet(r.env.scope, values.Override(i))
		panels[i] = p
	}
	r.owner.applyPanelRepeat(r.item, panels)
	r.cycle.Commit(values)
	publishRepeats(r.env.bus, r.item.elementKey(), len(panels))
}

func publishRepeats(bus *scene.Bus, source string, n int) {
	bus.Publish(scene.Event{
		Kind:    scene.EventRepeatsProcessed,
		Source:  source,
		Bubble:  true,
		Payload: n,
	})
}
