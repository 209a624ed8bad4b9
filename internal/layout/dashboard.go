package layout

import (
	"fmt"
	"strconv"
	"strings"

	"dashgrid/internal/scene"
	"dashgrid/internal/schema"
	"dashgrid/internal/variables"
)

// Dashboard is the root of a layout tree. It owns the body layout, the
// variable scope the tree resolves in, the event bus and the ID sequence.
type Dashboard struct {
	UID       string
	Title     string
	Variables *variables.Set
	Bus       *scene.Bus

	body    *scene.State[Manager]
	seq     *Sequence
	release func()
}

// NewDashboard creates a dashboard. Nil vars and body get empty defaults.
func NewDashboard(title string, vars *variables.Set, body Manager) *Dashboard {
	if vars == nil {
		vars = variables.NewSet(nil)
	}
	if body == nil {
		body = NewGridLayout()
	}
	d := &Dashboard{
		Title:     title,
		Variables: vars,
		Bus:       scene.NewBus(),
		body:      scene.NewState(body),
	}
	d.seq = NewSequence(func() []*Panel { return d.Body().Panels() })
	body.setSequence(d.seq)
	observeKeys(body, d.seq)
	return d
}

// Body returns the root layout.
func (d *Dashboard) Body() Manager { return d.body.Get() }

// Sequence returns the dashboard's ID sequence.
func (d *Dashboard) Sequence() *Sequence { return d.seq }

// OnBodyChange runs fn after the root layout is replaced.
func (d *Dashboard) OnBodyChange(fn func(Manager)) scene.Unbind {
	return d.body.Bind(fn)
}

// SetBody replaces the root layout, moving the activation over if active.
func (d *Dashboard) SetBody(m Manager) {
	active := d.IsActive()
	if active {
		d.release()
	}
	m.setSequence(d.seq)
	observeKeys(m, d.seq)
	d.body.Set(m)
	if active {
		d.release = m.activate(d.env())
	}
}

func (d *Dashboard) env() env {
	return env{scope: d.Variables, bus: d.Bus}
}

// IsActive reports whether the tree's repeat controllers are running.
func (d *Dashboard) IsActive() bool { return d.release != nil }

// Activate starts every repeat controller of the tree. Repeats run once
// right away and again whenever their variable completes an update.
func (d *Dashboard) Activate() scene.Deactivate {
	if d.release == nil {
		d.release = d.Body().activate(d.env())
	}
	return scene.Once(func() {
		if d.release != nil {
			d.release()
			d.release = nil
		}
	})
}

// refresh re-activates the tree after a structural edit so new elements
// get their controllers. Repeats rebuild their copies when the edit touched
// the repeated source; otherwise unchanged repeats do nothing.
func (d *Dashboard) refresh() {
	if !d.IsActive() {
		return
	}
	d.release()
	d.release = d.Body().activate(d.env())
}

// RepeatAll runs every repeat controller once.
func (d *Dashboard) RepeatAll(force bool) {
	for _, r := range Repeaters(d.Body()) {
		r.PerformRepeat(force)
	}
}

// Panel finds a panel by key, repeated copies included.
func (d *Dashboard) Panel(key string) (*Panel, bool) {
	return FindPanel(d.Body(), key)
}

// AddPanel adds p to the root layout.
func (d *Dashboard) AddPanel(p *Panel) error {
	if err := d.Body().AddPanel(p); err != nil {
		return err
	}
	d.refresh()
	d.publish(scene.EventObjectAdded, p)
	return nil
}

// RemovePanel removes p from wherever it is in the tree.
func (d *Dashboard) RemovePanel(p *Panel) error {
	if err := d.Body().RemovePanel(p); err != nil {
		return err
	}
	d.refresh()
	d.publish(scene.EventObjectRemoved, p)
	return nil
}

// DuplicatePanel places a copy of p next to it.
func (d *Dashboard) DuplicatePanel(p *Panel) (*Panel, error) {
	dup, err := d.Body().DuplicatePanel(p)
	if err != nil {
		return nil, err
	}
	d.refresh()
	d.publish(scene.EventObjectAdded, dup)
	return dup, nil
}

// MovePanels moves panels between two layouts of the tree.
func (d *Dashboard) MovePanels(src, dst Manager, panels ...*Panel) error {
	if err := Move(src, dst, panels...); err != nil {
		return err
	}
	d.refresh()
	return nil
}

// ChangeLayout converts the root layout to kind. On error the root layout
// is left as it was.
func (d *Dashboard) ChangeLayout(kind Kind) error {
	next, err := Convert(d.Body(), kind, d.seq)
	if err != nil {
		return fmt.Errorf("change layout to %s: %w", kind, err)
	}
	d.SetBody(next)
	return nil
}

func (d *Dashboard) publish(kind scene.EventKind, p *Panel) {
	d.Bus.Publish(scene.Event{Kind: kind, Source: p.Key, Bubble: true, Payload: p})
}

// observeKeys raises seq past every panel ID and numbered row or tab key.
func observeKeys(m Manager, seq *Sequence) {
	WalkOutline(m.Outline(), func(n OutlineNode, _ int) {
		if n.Panel != nil {
			seq.Observe(n.Panel.ID)
			return
		}
		if i := strings.LastIndexByte(n.Key, '-'); i >= 0 {
			if id, err := strconv.Atoi(n.Key[i+1:]); err == nil {
				seq.Observe(id)
			}
		}
	})
}

// Save maps the dashboard to its on-disk document.
func (d *Dashboard) Save() *schema.Dashboard {
	doc := &schema.Dashboard{
		APIVersion: schema.APIVersion,
		UID:        d.UID,
		Title:      d.Title,
		Elements:   make(map[string]schema.Element),
	}
	for _, v := range d.Variables.Variables() {
		switch v := v.(type) {
		case *variables.Custom:
			sv := schema.Variable{
				Kind:       schema.KindCustomVariable,
				Name:       v.Name(),
				Current:    v.Current(),
				Multi:      v.IsMulti(),
				IncludeAll: v.IncludeAll(),
			}
			for _, o := range v.Options() {
				sv.Options = append(sv.Options, schema.VariableOption{Text: o.Text, Value: o.Value})
			}
			doc.Variables = append(doc.Variables, sv)
		case *variables.Constant:
			doc.Variables = append(doc.Variables, schema.Variable{
				Kind:  schema.KindConstantVariable,
				Name:  v.Name(),
				Value: v.Value(),
			})
		}
	}
	doc.Layout = SerializeLayout(d.Body(), doc.Elements)
	return doc
}

// Load builds a dashboard from its on-disk document.
func Load(doc *schema.Dashboard) (*Dashboard, error) {
	vars := variables.NewSet(nil)
	for _, v := range doc.Variables {
		switch v.Kind {
		case schema.KindCustomVariable:
			cfg := variables.CustomConfig{
				Name:       v.Name,
				Current:    v.Current,
				Multi:      v.Multi,
				IncludeAll: v.IncludeAll,
			}
			for _, o := range v.Options {
				cfg.Options = append(cfg.Options, variables.Option{Text: o.Text, Value: o.Value})
			}
			vars.Add(variables.NewCustom(cfg))
		case schema.KindConstantVariable:
			vars.Add(variables.NewConstant(v.Name, v.Value))
		default:
			return nil, fmt.Errorf("%w: variable %q has kind %q", ErrUnknownKind, v.Name, v.Kind)
		}
	}

	body, err := DeserializeLayout(doc.Layout, doc.Elements)
	if err != nil {
		return nil, fmt.Errorf("load dashboard %q: %w", doc.Title, err)
	}
	d := NewDashboard(doc.Title, vars, body)
	d.UID = doc.UID
	return d, nil
}
