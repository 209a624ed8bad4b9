package layout

import (
	"fmt"
	"maps"

	"dashgrid/internal/grid"
	"dashgrid/internal/schema"
)

// SerializeLayout maps m to its on-disk form and adds every template panel
// to elements under its key. Repeated copies are never written; positions
// below a repeated block are written as they were before the block expanded.
func SerializeLayout(m Manager, elements map[string]schema.Element) schema.Layout {
	switch m := m.(type) {
	case *GridLayout:
		return schema.Layout{Kind: schema.KindGridLayout, Grid: serializeGrid(m, elements)}
	case *AutoGridLayout:
		spec := &schema.AutoGridLayoutSpec{
			MaxColumnCount:  m.MaxColumnCount,
			ColumnWidthMode: m.ColumnWidthMode,
			ColumnWidth:     m.ColumnWidth,
			RowHeightMode:   m.RowHeightMode,
			RowHeight:       m.RowHeight,
			FillScreen:      m.FillScreen,
			Items:           []schema.AutoGridLayoutItem{},
		}
		for _, item := range m.Items() {
			spec.Items = append(spec.Items, schema.AutoGridLayoutItem{
				Kind: schema.KindAutoGridLayoutItem,
				Spec: schema.AutoGridLayoutItemSpec{
					Key:     optionalKey(item.Key, AutoGridItemKey(item.Panel.ID)),
					Element: addElement(elements, item.Panel),
					Repeat:  serializeRepeat(item.Repeat),
				},
			})
		}
		return schema.Layout{Kind: schema.KindAutoGridLayout, AutoGrid: spec}
	case *RowsLayout:
		spec := &schema.RowsLayoutSpec{Rows: []schema.RowsLayoutRow{}}
		for _, r := range m.Rows() {
			if r.IsClone() {
				continue
			}
			spec.Rows = append(spec.Rows, schema.RowsLayoutRow{
				Kind: schema.KindRowsLayoutRow,
				Spec: schema.RowsLayoutRowSpec{
					Key:        r.Key,
					Title:      r.Title,
					Collapse:   r.Collapse,
					HideHeader: r.HideHeader,
					FillScreen: r.FillScreen,
					Repeat:     serializeRepeat(r.Repeat),
					Layout:     SerializeLayout(r.Layout, elements),
				},
			})
		}
		return schema.Layout{Kind: schema.KindRowsLayout, Rows: spec}
	case *TabsLayout:
		spec := &schema.TabsLayoutSpec{Tabs: []schema.TabsLayoutTab{}}
		for _, t := range m.Tabs() {
			if t.IsClone() {
				continue
			}
			spec.Tabs = append(spec.Tabs, schema.TabsLayoutTab{
				Kind: schema.KindTabsLayoutTab,
				Spec: schema.TabsLayoutTabSpec{
					Key:    t.Key,
					Title:  t.Title,
					Repeat: serializeRepeat(t.Repeat),
					Layout: SerializeLayout(t.Layout, elements),
				},
			})
		}
		return schema.Layout{Kind: schema.KindTabsLayout, Tabs: spec}
	}
	return schema.Layout{}
}

func serializeGrid(g *GridLayout, elements map[string]schema.Element) *schema.GridLayoutSpec {
	spec := &schema.GridLayoutSpec{Items: []schema.GridLayoutChild{}}
	for _, c := range g.Children() {
		switch c := c.(type) {
		case *GridItem:
			item := serializeGridItem(c, elements)
			spec.Items = append(spec.Items, schema.GridLayoutChild{Kind: schema.KindGridLayoutItem, Item: &item.Spec})
		case *GridRow:
			if c.IsClone() {
				continue
			}
			row := &schema.GridLayoutRowSpec{
				Key:       c.Key,
				Title:     c.Title,
				Y:         c.Y - c.repeatShift,
				Collapsed: c.Collapsed,
				Elements:  []schema.GridLayoutItem{},
				Repeat:    serializeRepeat(c.Repeat),
			}
			for _, item := range c.Children {
				row.Elements = append(row.Elements, serializeGridItem(item, elements))
			}
			spec.Items = append(spec.Items, schema.GridLayoutChild{Kind: schema.KindGridLayoutRow, Row: row})
		}
	}
	return spec
}

func serializeGridItem(item *GridItem, elements map[string]schema.Element) schema.GridLayoutItem {
	return schema.GridLayoutItem{
		Kind: schema.KindGridLayoutItem,
		Spec: schema.GridLayoutItemSpec{
			Key:     optionalKey(item.Key, GridItemKey(item.Panel.ID)),
			X:       item.X,
			Y:       item.Y - item.repeatShift,
			Width:   item.Width,
			Height:  item.ItemHeight(),
			Element: addElement(elements, item.Panel),
			Repeat:  serializeRepeat(item.Repeat),
		},
	}
}

// optionalKey omits keys that deserialization derives on its own.
func optionalKey(key, derived string) string {
	if key == derived {
		return ""
	}
	return key
}

func addElement(elements map[string]schema.Element, p *Panel) schema.ElementRef {
	elements[p.Key] = schema.Element{
		Kind: schema.KindPanel,
		Spec: schema.PanelSpec{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			VizType:     p.VizType,
			Options:     maps.Clone(p.Options),
		},
	}
	return schema.Ref(p.Key)
}

func serializeRepeat(b *RepeatBinding) *schema.Repeat {
	if b == nil {
		return nil
	}
	return &schema.Repeat{
		Mode:      schema.RepeatModeVariable,
		Value:     b.Variable,
		Direction: string(b.Direction),
		MaxPerRow: b.MaxPerRow,
	}
}

// DeserializeLayout rebuilds a layout tree from its on-disk form, taking
// panels from elements by name. It fails on the first item referencing a
// missing element. Repeat copies are regenerated on activation.
func DeserializeLayout(l schema.Layout, elements map[string]schema.Element) (Manager, error) {
	d := &deserializer{
		elements: elements,
		placed:   make(map[string]bool),
		keys:     make(map[string]bool),
	}
	d.collectKeys(l)
	return d.layout(l)
}

type deserializer struct {
	elements map[string]schema.Element
	placed   map[string]bool
	keys     map[string]bool
	next     int
}

// collectKeys records the explicit row and tab keys so derived ones avoid them.
func (d *deserializer) collectKeys(l schema.Layout) {
	switch {
	case l.Grid != nil:
		for _, c := range l.Grid.Items {
			if c.Row != nil && c.Row.Key != "" {
				d.keys[c.Row.Key] = true
			}
		}
	case l.Rows != nil:
		for _, r := range l.Rows.Rows {
			if r.Spec.Key != "" {
				d.keys[r.Spec.Key] = true
			}
			d.collectKeys(r.Spec.Layout)
		}
	case l.Tabs != nil:
		for _, t := range l.Tabs.Tabs {
			if t.Spec.Key != "" {
				d.keys[t.Spec.Key] = true
			}
			d.collectKeys(t.Spec.Layout)
		}
	}
}

// key returns explicit, or the first unused prefix-N.
func (d *deserializer) key(explicit, prefix string) string {
	if explicit != "" {
		return explicit
	}
	for {
		d.next++
		k := fmt.Sprintf("%s-%d", prefix, d.next)
		if !d.keys[k] {
			d.keys[k] = true
			return k
		}
	}
}

func (d *deserializer) panel(ref schema.ElementRef) (*Panel, error) {
	el, ok := d.elements[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingElement, ref.Name)
	}
	if el.Kind != "" && el.Kind != schema.KindPanel {
		return nil, fmt.Errorf("%w: element %q has kind %q", ErrUnknownKind, ref.Name, el.Kind)
	}
	if d.placed[ref.Name] {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateElement, ref.Name)
	}
	d.placed[ref.Name] = true
	return &Panel{
		ID:          el.Spec.ID,
		Key:         ref.Name,
		Title:       el.Spec.Title,
		Description: el.Spec.Description,
		VizType:     el.Spec.VizType,
		Options:     maps.Clone(el.Spec.Options),
	}, nil
}

func (d *deserializer) repeat(r *schema.Repeat) (*RepeatBinding, error) {
	if r == nil {
		return nil, nil
	}
	if r.Mode != "" && r.Mode != schema.RepeatModeVariable {
		return nil, fmt.Errorf("%w: repeat mode %q", ErrUnknownKind, r.Mode)
	}
	return &RepeatBinding{
		Variable:  r.Value,
		Direction: grid.Direction(r.Direction),
		MaxPerRow: r.MaxPerRow,
	}, nil
}

func (d *deserializer) layout(l schema.Layout) (Manager, error) {
	var (
		m   Manager
		err error
	)
	switch l.Kind {
	case schema.KindGridLayout:
		m, err = d.grid(l.Grid)
	case schema.KindAutoGridLayout:
		m, err = d.autoGrid(l.AutoGrid)
	case schema.KindRowsLayout:
		m, err = d.rows(l.Rows)
	case schema.KindTabsLayout:
		m, err = d.tabs(l.Tabs)
	default:
		return nil, fmt.Errorf("%w: layout %q", ErrUnknownKind, l.Kind)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *deserializer) gridItem(spec schema.GridLayoutItemSpec) (*GridItem, error) {
	p, err := d.panel(spec.Element)
	if err != nil {
		return nil, err
	}
	b, err := d.repeat(spec.Repeat)
	if err != nil {
		return nil, err
	}
	item := NewGridItem(p, grid.Cell{X: spec.X, Y: spec.Y, Width: spec.Width, Height: spec.Height})
	if spec.Key != "" {
		item.Key = spec.Key
	}
	item.Repeat = b
	return item, nil
}

func (d *deserializer) grid(spec *schema.GridLayoutSpec) (*GridLayout, error) {
	if spec == nil {
		return NewGridLayout(), nil
	}
	var children []GridChild
	for _, c := range spec.Items {
		switch {
		case c.Item != nil:
			item, err := d.gridItem(*c.Item)
			if err != nil {
				return nil, err
			}
			children = append(children, item)
		case c.Row != nil:
			b, err := d.repeat(c.Row.Repeat)
			if err != nil {
				return nil, err
			}
			row := NewGridRow(d.key(c.Row.Key, "row"), c.Row.Title, c.Row.Y)
			row.Collapsed = c.Row.Collapsed
			row.Repeat = b
			for _, e := range c.Row.Elements {
				item, err := d.gridItem(e.Spec)
				if err != nil {
					return nil, err
				}
				row.Children = append(row.Children, item)
			}
			children = append(children, row)
		default:
			return nil, fmt.Errorf("%w: grid child %q", ErrUnknownKind, c.Kind)
		}
	}
	return NewGridLayout(children...), nil
}

func (d *deserializer) autoGrid(spec *schema.AutoGridLayoutSpec) (*AutoGridLayout, error) {
	a := NewAutoGridLayout()
	if spec == nil {
		return a, nil
	}
	if spec.MaxColumnCount > 0 {
		a.MaxColumnCount = spec.MaxColumnCount
	}
	if spec.ColumnWidthMode != "" {
		a.ColumnWidthMode = spec.ColumnWidthMode
	}
	if spec.RowHeightMode != "" {
		a.RowHeightMode = spec.RowHeightMode
	}
	a.ColumnWidth = spec.ColumnWidth
	a.RowHeight = spec.RowHeight
	a.FillScreen = spec.FillScreen

	var items []*AutoGridItem
	for _, it := range spec.Items {
		p, err := d.panel(it.Spec.Element)
		if err != nil {
			return nil, err
		}
		b, err := d.repeat(it.Spec.Repeat)
		if err != nil {
			return nil, err
		}
		item := NewAutoGridItem(p)
		if it.Spec.Key != "" {
			item.Key = it.Spec.Key
		}
		item.Repeat = b
		items = append(items, item)
	}
	a.SetItems(items)
	return a, nil
}

func (d *deserializer) rows(spec *schema.RowsLayoutSpec) (*RowsLayout, error) {
	if spec == nil {
		return NewRowsLayout(), nil
	}
	var rows []*RowItem
	for _, r := range spec.Rows {
		b, err := d.repeat(r.Spec.Repeat)
		if err != nil {
			return nil, err
		}
		nested, err := d.layout(r.Spec.Layout)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", r.Spec.Title, err)
		}
		row := NewRowItem(d.key(r.Spec.Key, "row"), r.Spec.Title, nested)
		row.Collapse = r.Spec.Collapse
		row.HideHeader = r.Spec.HideHeader
		row.FillScreen = r.Spec.FillScreen
		row.Repeat = b
		rows = append(rows, row)
	}
	return NewRowsLayout(rows...), nil
}

func (d *deserializer) tabs(spec *schema.TabsLayoutSpec) (*TabsLayout, error) {
	if spec == nil {
		return NewTabsLayout(), nil
	}
	var tabs []*TabItem
	for _, t := range spec.Tabs {
		b, err := d.repeat(t.Spec.Repeat)
		if err != nil {
			return nil, err
		}
		nested, err := d.layout(t.Spec.Layout)
		if err != nil {
			return nil, fmt.Errorf("tab %q: %w", t.Spec.Title, err)
		}
		tab := NewTabItem(d.key(t.Spec.Key, "tab"), t.Spec.Title, nested)
		tab.Repeat = b
		tabs = append(tabs, tab)
	}
	return NewTabsLayout(tabs...), nil
}
