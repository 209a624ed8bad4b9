package layout

import (
	"fmt"
	"slices"

	"dashgrid/internal/clonekey"
	"dashgrid/internal/scene"
	"dashgrid/internal/variables"
)

// TabItem is one tab of a tabs layout, wrapping a nested layout.
type TabItem struct {
	Key             string
	Title           string
	Layout          Manager
	Repeat          *RepeatBinding
	RepeatSourceKey string

	scope    *variables.Set
	repeater *ItemRepeater
}

// NewTabItem wraps m in a tab. A nil m gets an empty grid.
func NewTabItem(key, title string, m Manager) *TabItem {
	if m == nil {
		m = NewGridLayout()
	}
	return &TabItem{Key: key, Title: title, Layout: m}
}

func (t *TabItem) IsClone() bool { return t.RepeatSourceKey != "" }

func (t *TabItem) Scope() *variables.Set { return t.scope }

func (t *TabItem) Repeater() *ItemRepeater { return t.repeater }

func (t *TabItem) elementKey() string                    { return t.Key }
func (t *TabItem) binding() *RepeatBinding               { return t.Repeat }
func (t *TabItem) content() Manager                      { return t.Layout }
func (t *TabItem) repeatSource() string                  { return t.RepeatSourceKey }
func (t *TabItem) instanceScope() *variables.Set         { return t.scope }
func (t *TabItem) setInstanceScope(scope *variables.Set) { t.scope = scope }

func (t *TabItem) cloneAs(key string) containerItem {
	c := t.copyTab(rekeyCopier(func(k string) string { return clonekey.JoinCloneKeys(key, k) }))
	c.Key = key
	c.Repeat = nil
	c.RepeatSourceKey = t.Key
	return c
}

func (t *TabItem) copyTab(c copier) *TabItem {
	return &TabItem{
		Key:    c.containerKey(t.Key, "tab"),
		Title:  t.Title,
		Layout: t.Layout.copyManager(c),
		Repeat: t.Repeat.copy(),
	}
}

func (t *TabItem) activate(e env, owner itemOwner) func() {
	if t.Repeat == nil {
		t.scope = e.scope
		return t.Layout.activate(e)
	}
	if t.repeater == nil {
		t.repeater = &ItemRepeater{item: t}
	}
	return t.repeater.activate(e, owner)
}

// TabsLayout shows one nested layout per tab.
type TabsLayout struct {
	tabs *scene.State[[]*TabItem]
	seq  *Sequence
}

// NewTabsLayout creates a tabs layout.
func NewTabsLayout(tabs ...*TabItem) *TabsLayout {
	return &TabsLayout{tabs: scene.NewState(slices.Clone(tabs))}
}

func (l *TabsLayout) Kind() Kind { return KindTabs }

// Tabs returns a copy of the tabs, repeated copies included.
func (l *TabsLayout) Tabs() []*TabItem {
	return slices.Clone(l.tabs.Get())
}

// SetTabs replaces the tabs.
func (l *TabsLayout) SetTabs(tabs []*TabItem) {
	l.tabs.Set(slices.Clone(tabs))
}

func (l *TabsLayout) Tab(key string) (*TabItem, bool) {
	for _, t := range l.tabs.Get() {
		if t.Key == key {
			return t, true
		}
	}
	return nil, false
}

func (l *TabsLayout) Version() uint64 { return l.tabs.Version() }

func (l *TabsLayout) OnChange(fn func()) scene.Unbind {
	return l.tabs.Bind(func([]*TabItem) { fn() })
}

func (l *TabsLayout) Panels() []*Panel {
	var out []*Panel
	for _, t := range l.tabs.Get() {
		out = append(out, t.Layout.Panels()...)
	}
	return out
}

func (l *TabsLayout) setSequence(s *Sequence) {
	l.seq = s
	for _, t := range l.tabs.Get() {
		t.Layout.setSequence(s)
	}
}

func (l *TabsLayout) sequence() *Sequence {
	if l.seq == nil {
		l.seq = NewSequence(l.Panels)
	}
	l.setSequence(l.seq)
	return l.seq
}

func (l *TabsLayout) holder(p *Panel) *TabItem {
	for _, t := range l.tabs.Get() {
		if ContainsPanel(t.Layout, p) {
			return t
		}
	}
	return nil
}

func (l *TabsLayout) AddPanel(p *Panel) error {
	l.sequence()
	tabs := l.tabs.Get()
	if len(tabs) == 0 {
		return l.AddTab("").Layout.AddPanel(p)
	}
	return tabs[0].Layout.AddPanel(p)
}

func (l *TabsLayout) RemovePanel(p *Panel) error {
	_, err := l.detachPanel(p)
	return err
}

func (l *TabsLayout) detachPanel(p *Panel) (*RepeatBinding, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	t := l.holder(p)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	return t.Layout.detachPanel(p)
}

func (l *TabsLayout) attachPanel(p *Panel, binding *RepeatBinding) {
	l.sequence()
	tabs := l.tabs.Get()
	if len(tabs) == 0 {
		l.AddTab("").Layout.attachPanel(p, binding)
		return
	}
	tabs[0].Layout.attachPanel(p, binding)
}

func (l *TabsLayout) DuplicatePanel(p *Panel) (*Panel, error) {
	if p.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
	}
	t := l.holder(p)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
	}
	l.sequence()
	return t.Layout.DuplicatePanel(p)
}

// AddTab appends an empty tab holding a free grid.
func (l *TabsLayout) AddTab(title string) *TabItem {
	seq := l.sequence()
	g := NewGridLayout()
	g.setSequence(seq)
	if title == "" {
		title = "New tab"
	}
	tab := NewTabItem(TabKey(seq.Next(l.Panels())), title, g)
	l.tabs.Set(append(l.Tabs(), tab))
	return tab
}

// RemoveTab removes a tab and its repeated copies.
func (l *TabsLayout) RemoveTab(key string) error {
	tab, err := l.editable(key)
	if err != nil {
		return err
	}
	l.tabs.Set(slices.DeleteFunc(l.Tabs(), func(t *TabItem) bool {
		return t == tab || t.RepeatSourceKey == tab.Key
	}))
	return nil
}

// DuplicateTab inserts a copy of a tab after it and its repeated copies.
func (l *TabsLayout) DuplicateTab(key string) (*TabItem, error) {
	tab, err := l.editable(key)
	if err != nil {
		return nil, err
	}
	seq := l.sequence()
	dup := tab.copyTab(freshCopier(seq, l))
	dup.Layout.setSequence(seq)

	tabs := l.Tabs()
	at := slices.Index(tabs, tab) + 1
	for at < len(tabs) && tabs[at].RepeatSourceKey == tab.Key {
		at++
	}
	l.tabs.Set(slices.Insert(tabs, at, dup))
	return dup, nil
}

// MoveTab moves a tab, with its repeated copies, to position to.
func (l *TabsLayout) MoveTab(key string, to int) error {
	tab, err := l.editable(key)
	if err != nil {
		return err
	}
	var block, rest []*TabItem
	for _, t := range l.tabs.Get() {
		if t == tab || t.RepeatSourceKey == tab.Key {
			block = append(block, t)
			continue
		}
		rest = append(rest, t)
	}
	to = min(max(to, 0), len(rest))
	l.tabs.Set(slices.Insert(rest, to, block...))
	return nil
}

func (l *TabsLayout) editable(key string) (*TabItem, error) {
	tab, ok := l.Tab(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	if tab.IsClone() {
		return nil, fmt.Errorf("%w: %s", ErrCloneReadOnly, key)
	}
	return tab, nil
}

func (l *TabsLayout) activate(e env) func() {
	var group scene.Group
	for _, t := range l.tabs.Get() {
		if t.IsClone() {
			continue
		}
		group.Add(t.activate(e, l))
	}
	return group.Release
}

func (l *TabsLayout) repeaters() []Repeater {
	var out []Repeater
	for _, t := range l.tabs.Get() {
		if t.repeater != nil {
			out = append(out, t.repeater)
		}
		out = append(out, t.Layout.repeaters()...)
	}
	return out
}

func (l *TabsLayout) repeatBlock(source containerItem) []containerItem {
	tab, ok := source.(*TabItem)
	if !ok {
		return nil
	}
	return blockOf(l.tabs.Get(), tab)
}

func (l *TabsLayout) expandItem(source containerItem, n int) []containerItem {
	tab, ok := source.(*TabItem)
	if !ok {
		return nil
	}
	next, block := expandBlock(l.tabs.Get(), tab, n)
	if next == nil {
		return nil
	}
	for _, item := range block[1:] {
		item.content().setSequence(l.seq)
	}
	l.tabs.Set(next)
	return block
}

func (l *TabsLayout) copyManager(c copier) Manager {
	var tabs []*TabItem
	for _, t := range l.tabs.Get() {
		if t.IsClone() {
			continue
		}
		tabs = append(tabs, t.copyTab(c))
	}
	return NewTabsLayout(tabs...)
}

func (l *TabsLayout) CloneForComparison(ancestorKey string, isSource bool) Manager {
	return l.copyManager(comparisonCopier(ancestorKey, isSource))
}
