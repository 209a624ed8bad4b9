package layout

import (
	"fmt"
	"slices"

	"dashgrid/internal/clonekey"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

// RowItem is one stacked row of a rows layout, wrapping a nested layout.
type RowItem struct {
	Key             string
	Title           string
	Collapse        bool
	HideHeader      bool
	FillScreen      bool
	Layout          Manager
	Repeat          *RepeatBinding
	RepeatSourceKey string

	scope    *variables.Set
	repeater *ItemRepeater
}

// NewRowItem wraps m in a row. A nil m gets an empty grid.
func NewRowItem(key, title string, m Manager) *RowItem {
	if m == nil {
		m = NewGridLayout()
	}
	return &RowItem{Key: key, Title: title, Layout: m}
}

// IsClone reports whether the row was generated by a repeat.
func (r *RowItem) IsClone() bool { return r.RepeatSourceKey != "" }

// Scope is the variable scope the nested layout resolves in.
func (r *RowItem) Scope() *variables.Set { return r.scope }

// Repeater returns the row's controller, nil until a repeated row activates.
func (r *RowItem) Repeater() *ItemRepeater { return r.repeater }

func (r *RowItem) elementKey() string                    { return r.Key }
func (r *RowItem) binding() *RepeatBinding               { return r.Repeat }
func (r *RowItem) content() Manager                      { return r.Layout }
func (r *RowItem) repeatSource() string                  { return r.RepeatSourceKey }
func (r *RowItem) instanceScope() *variables.Set         { return r.scope }
func (r *RowItem) setInstanceScope(scope *variables.Set) { r.scope = scope }

func (r *RowItem) cloneAs(key string) containerItem {
	c := r.copyRow(rekeyCopier(func(k string) string { return clonekey.JoinCloneKeys(key, k) }))
	c.Key = key
	c.Repeat = nil
	c.RepeatSourceKey = r.Key
	return c
}

func (r *RowItem) copyRow(c copier) *RowItem {
	return &RowItem{
		Key:        c.containerKey(r.Key, "row"),
		Title:      r.Title,
		Collapse:   r.Collapse,
		HideHeader: r.HideHeader,
		FillScreen: r.FillScreen,
		Layout:     r.Layout.copyManager(c),
		Repeat:     r.Repeat.copy(),
	}
}

func (r *RowItem) activate(e env, owner itemOwner) func() {
	if r.Repeat == nil {
		r.scope = e.scope
		return r.Layout.activate(e)
	}
	if r.repeater == nil {
		r.repeater = &ItemRepeater{item: r}
	}
	return r.repeater.activate(e, owner)
}

// RowsLayout stacks rows vertically, each with its own nested layout.
type RowsLayout struct {
	rows *scene.State[[]*RowItem]
	seq  *Sequence
}

// NewRowsLayout creates a rows layout.
func NewRowsLayout(rows ...*RowItem) *RowsLayout {
	return &RowsLayout{rows: scene.NewState(slices.Clone(rows))}
}

func (l *RowsLayout) Kind() Kind { return KindRows }

// Rows returns a copy of the rows, repeated copies included.
func (l *RowsLayout) Rows() []*RowItem {
	return slices.Clone(l.rows.Get())
}

// SetRows replaces the rows.
func (l *RowsLayout) SetRows(rows []*RowItem) {
	l.rows.Set(slices.Clone(rows))
}

// Row finds a row by key.
func (l *RowsLayout) Row(key string) (*RowItem, bool) {
	for _, r := range l.rows.Get() {
		if r.Key == key {
			return r, true
		}
	}
	return nil, false
}

// Version counts the structural edits of the rows.
func (l *RowsLayout) Version() uint64 { return l.rows.Version() }

func (l *RowsLayout) OnChange(fn func()) scene.Unbind {
	return l.rows.Bind(func([]*RowItem) { fn() })
}

func (l *RowsLayout) Panels() []*Panel {
	var out []*Panel
	for _, r := range l.rows.Get() {
		out = append(out, r.Layout.Panels()...)
	}
	return out
}

func (l *RowsLayout) setSequence(s *Sequence) {
	l.seq = s
	for _, r := range l.rows.Get() {
		r.Layout.setSequence(s)
	}
}

// sequence returns the shared sequence, handing it to every nested layout.
func (l *RowsLayout) sequence() *Sequence {
	if l.seq == nil {
		l.seq = NewSequence(l.Panels)
	}
	l.setSequence(l.seq)
	return l.seq
}

func (l *RowsLayout) holder(p *Panel) *RowItem {
	for _, r := range l.rows.Get() {
		if ContainsPanel(r.Layout, p) {
			return r
		}
	}
	return nil
}

func (l *RowsLayout) AddPanel(p *Panel) error {
	l.sequence()
	rows := l.rows.Get()
	if len(rows) == 0 {
		return l.AddRow("").Layout.AddPanel(p)
	}
	return rows[0].Layout.AddPanel(p)
}

func (l *RowsLayout) RemovePanel(p *Panel) error {
	_, err := l.detachPanel(p)
	return err
}

func (l *RowsLayout) detachPanel(p *Panel) (*RepeatBinding, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	r := l.holder(p)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	return r.Layout.detachPanel(p)
}

func (l *RowsLayout) attachPanel(p *Panel, binding *RepeatBinding) {
	l.sequence()
	rows := l.rows.Get()
	if len(rows) == 0 {
		l.AddRow("").Layout.attachPanel(p, binding)
		return
	}
	rows[0].Layout.attachPanel(p, binding)
}

func (l *RowsLayout) DuplicatePanel(p *Panel) (*Panel, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	r := l.holder(p)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	l.sequence()
	return r.Layout.DuplicatePanel(p)
}

// AddRow appends an empty row holding a free grid.
func (l *RowsLayout) AddRow(title string) *RowItem {
	seq := l.sequence()
	grid := NewGridLayout()
	grid.setSequence(seq)
	row := NewRowItem(RowKey(seq.Next(l.Panels())), title, grid)
	l.rows.Set(append(l.Rows(), row))
	return row
}

// RemoveRow removes a row, its repeated copies and everything in them.
func (l *RowsLayout) RemoveRow(key string) error {
	row, err := l.editable(key)
	if err != nil {
		return err
	}
	l.rows.Set(slices.DeleteFunc(l.Rows(), func(r *RowItem) bool {
		return r == row || r.RepeatSourceKey == row.Key
	}))
	return nil
}

// DuplicateRow inserts a copy of a row after it and its repeated copies.
// Every panel in the copy gets a fresh ID.
func (l *RowsLayout) DuplicateRow(key string) (*RowItem, error) {
	row, err := l.editable(key)
	if err != nil {
		return nil, err
	}
	seq := l.sequence()
	dup := row.copyRow(freshCopier(seq, l))
	dup.Layout.setSequence(seq)

	rows := l.Rows()
	at := slices.Index(rows, row) + 1
	for at < len(rows) && rows[at].RepeatSourceKey == row.Key {
		at++
	}
	l.rows.Set(slices.Insert(rows, at, dup))
	return dup, nil
}

// MoveRow moves a row, with its repeated copies, to position to among the
// remaining rows.
func (l *RowsLayout) MoveRow(key string, to int) error {
	row, err := l.editable(key)
	if err != nil {
		return err
	}
	var block, rest []*RowItem
	for _, r := range l.rows.Get() {
		if r == row || r.RepeatSourceKey == row.Key {
			block = append(block, r)
			continue
		}
		rest = append(rest, r)
	}
	to = min(max(to, 0), len(rest))
	l.rows.Set(slices.Insert(rest, to, block...))
	return nil
}

func (l *RowsLayout) editable(key string) (*RowItem, error) {
	row, ok := l.Row(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	if row.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, key)
	}
	return row, nil
}

func (l *RowsLayout) activate(e env) func() {
	var group scene.Group
	for _, r := range l.rows.Get() {
		if r.IsClone() {
			continue
		}
		group.Add(r.activate(e, l))
	}
	return group.Release
}

func (l *RowsLayout) repeaters() []Repeater {
	var out []Repeater
	for _, r := range l.rows.Get() {
		if r.repeater != nil {
			out = append(out, r.repeater)
		}
		out = append(out, r.Layout.repeaters()...)
	}
	return out
}

func (l *RowsLayout) repeatBlock(source containerItem) []containerItem {
	row, ok := source.(*RowItem)
	if !ok {
		return nil
	}
	return blockOf(l.rows.Get(), row)
}

func (l *RowsLayout) expandItem(source containerItem, n int) []containerItem {
	row, ok := source.(*RowItem)
	if !ok {
		return nil
	}
	next, block := expandBlock(l.rows.Get(), row, n)
	if next == nil {
		return nil
	}
	for _, item := range block[1:] {
		item.content().setSequence(l.seq)
	}
	l.rows.Set(next)
	return block
}

func (l *RowsLayout) copyManager(c copier) Manager {
	var rows []*RowItem
	for _, r := range l.rows.Get() {
		if r.IsClone() {
			continue
		}
		rows = append(rows, r.copyRow(c))
	}
	return NewRowsLayout(rows...)
}

func (l *RowsLayout) CloneForComparison(ancestorKey string, isSource bool) Manager {
	return l.copyManager(comparisonCopier(ancestorKey, isSource))
}
