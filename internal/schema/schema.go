// Package schema defines the persisted dashboard document. Layouts are a
// tagged tree of kinds; panels live once in the element table and layout items
// refer to them by name. Repeated copies are never part of a document.
package schema

import (
	"encoding/json"
	"fmt"
)

// APIVersion is written to every document.
const APIVersion = "dashgrid/v2"

// Layout and item kinds.
const (
	KindGridLayout         = "GridLayout"
	KindGridLayoutItem     = "GridLayoutItem"
	KindGridLayoutRow      = "GridLayoutRow"
	KindAutoGridLayout     = "AutoGridLayout"
	KindAutoGridLayoutItem = "AutoGridLayoutItem"
	KindRowsLayout         = "RowsLayout"
	KindRowsLayoutRow      = "RowsLayoutRow"
	KindTabsLayout         = "TabsLayout"
	KindTabsLayoutTab      = "TabsLayoutTab"

	KindPanel            = "Panel"
	KindElementReference = "ElementReference"

	KindCustomVariable   = "CustomVariable"
	KindConstantVariable = "ConstantVariable"

	RepeatModeVariable = "variable"
)

// Dashboard is the root document.
type Dashboard struct {
	APIVersion string             `json:"apiVersion"`
	UID        string             `json:"uid,omitempty"`
	Title      string             `json:"title"`
	Variables  []Variable         `json:"variables,omitempty"`
	Elements   map[string]Element `json:"elements"`
	Layout     Layout             `json:"layout"`
}

// VariableOption is one option of a custom variable.
type VariableOption struct {
	Text  string `json:"text,omitempty"`
	Value string `json:"value"`
}

// Variable declares a dashboard variable.
type Variable struct {
	Kind       string           `json:"kind"`
	Name       string           `json:"name"`
	Options    []VariableOption `json:"options,omitempty"`
	Current    []string         `json:"current,omitempty"`
	Multi      bool             `json:"multi,omitempty"`
	IncludeAll bool             `json:"includeAll,omitempty"`
	Value      string           `json:"value,omitempty"`
}

// Element is an entry of the element table.
type Element struct {
	Kind string    `json:"kind"`
	Spec PanelSpec `json:"spec"`
}

// PanelSpec describes a panel.
type PanelSpec struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	VizType     string         `json:"vizType,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
}

// ElementRef points at an element table entry.
type ElementRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Ref builds an element reference.
func Ref(name string) ElementRef {
	return ElementRef{Kind: KindElementReference, Name: name}
}

// Repeat is the repeat metadata of an item.
type Repeat struct {
	Mode      string `json:"mode"`
	Value     string `json:"value"`
	Direction string `json:"direction,omitempty"`
	MaxPerRow int    `json:"maxPerRow,omitempty"`
}

// Layout is a tagged union of the four layout kinds. Exactly one spec is set.
type Layout struct {
	Kind     string
	Grid     *GridLayoutSpec
	AutoGrid *AutoGridLayoutSpec
	Rows     *RowsLayoutSpec
	Tabs     *TabsLayoutSpec
}

type envelope struct {
	Kind string          `json:"kind"`
	Spec json.RawMessage `json:"spec"`
}

func (l Layout) MarshalJSON() ([]byte, error) {
	var spec any
	switch l.Kind {
	case KindGridLayout:
		spec = l.Grid
	case KindAutoGridLayout:
		spec = l.AutoGrid
	case KindRowsLayout:
		spec = l.Rows
	case KindTabsLayout:
		spec = l.Tabs
	default:
		return nil, fmt.Errorf("unknown layout kind %q", l.Kind)
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: l.Kind, Spec: raw})
}

func (l *Layout) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*l = Layout{Kind: env.Kind}
	switch env.Kind {
	case KindGridLayout:
		l.Grid = &GridLayoutSpec{}
		return unmarshalSpec(env, l.Grid)
	case KindAutoGridLayout:
		l.AutoGrid = &AutoGridLayoutSpec{}
		return unmarshalSpec(env, l.AutoGrid)
	case KindRowsLayout:
		l.Rows = &RowsLayoutSpec{}
		return unmarshalSpec(env, l.Rows)
	case KindTabsLayout:
		l.Tabs = &TabsLayoutSpec{}
		return unmarshalSpec(env, l.Tabs)
	default:
		return fmt.Errorf("unknown layout kind %q", env.Kind)
	}
}

func unmarshalSpec(env envelope, into any) error {
	if len(env.Spec) == 0 || string(env.Spec) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Spec, into); err != nil {
		return fmt.Errorf("%s: %w", env.Kind, err)
	}
	return nil
}

// GridLayoutSpec is a free-form grid. Items are GridLayoutItem or GridLayoutRow.
type GridLayoutSpec struct {
	Items []GridLayoutChild `json:"items"`
}

// GridLayoutChild is a tagged union of a grid item and a grid row.
type GridLayoutChild struct {
	Kind string
	Item *GridLayoutItemSpec
	Row  *GridLayoutRowSpec
}

func (c GridLayoutChild) MarshalJSON() ([]byte, error) {
	var spec any
	switch c.Kind {
	case KindGridLayoutItem:
		spec = c.Item
	case KindGridLayoutRow:
		spec = c.Row
	default:
		return nil, fmt.Errorf("unknown grid child kind %q", c.Kind)
	}
	raw, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: c.Kind, Spec: raw})
}

func (c *GridLayoutChild) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*c = GridLayoutChild{Kind: env.Kind}
	switch env.Kind {
	case KindGridLayoutItem:
		c.Item = &GridLayoutItemSpec{}
		return unmarshalSpec(env, c.Item)
	case KindGridLayoutRow:
		c.Row = &GridLayoutRowSpec{}
		return unmarshalSpec(env, c.Row)
	default:
		return fmt.Errorf("unknown grid child kind %q", env.Kind)
	}
}

// GridLayoutItemSpec positions one panel in a free grid.
type GridLayoutItemSpec struct {
	Key     string     `json:"key,omitempty"`
	X       int        `json:"x"`
	Y       int        `json:"y"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Element ElementRef `json:"element"`
	Repeat  *Repeat    `json:"repeat,omitempty"`
}

// GridLayoutItem wraps an item spec with its kind.
type GridLayoutItem struct {
	Kind string             `json:"kind"`
	Spec GridLayoutItemSpec `json:"spec"`
}

// GridLayoutRowSpec is a row header with its items at absolute positions.
type GridLayoutRowSpec struct {
	Key       string           `json:"key,omitempty"`
	Title     string           `json:"title"`
	Y         int              `json:"y"`
	Collapsed bool             `json:"collapsed,omitempty"`
	Elements  []GridLayoutItem `json:"elements"`
	Repeat    *Repeat          `json:"repeat,omitempty"`
}

// AutoGridLayoutSpec is a grid that positions its items itself.
type AutoGridLayoutSpec struct {
	MaxColumnCount  int                  `json:"maxColumnCount"`
	ColumnWidthMode string               `json:"columnWidthMode,omitempty"`
	ColumnWidth     int                  `json:"columnWidth,omitempty"`
	RowHeightMode   string               `json:"rowHeightMode,omitempty"`
	RowHeight       int                  `json:"rowHeight,omitempty"`
	FillScreen      bool                 `json:"fillScreen,omitempty"`
	Items           []AutoGridLayoutItem `json:"items"`
}

// AutoGridLayoutItemSpec references one panel of an auto grid.
type AutoGridLayoutItemSpec struct {
	Key     string     `json:"key,omitempty"`
	Element ElementRef `json:"element"`
	Repeat  *Repeat    `json:"repeat,omitempty"`
}

// AutoGridLayoutItem wraps an auto grid item spec with its kind.
type AutoGridLayoutItem struct {
	Kind string                 `json:"kind"`
	Spec AutoGridLayoutItemSpec `json:"spec"`
}

// RowsLayoutSpec stacks rows, each holding a nested layout.
type RowsLayoutSpec struct {
	Rows []RowsLayoutRow `json:"rows"`
}

// RowsLayoutRowSpec is one row of a rows layout.
type RowsLayoutRowSpec struct {
	Key        string  `json:"key,omitempty"`
	Title      string  `json:"title"`
	Collapse   bool    `json:"collapse,omitempty"`
	HideHeader bool    `json:"hideHeader,omitempty"`
	FillScreen bool    `json:"fillScreen,omitempty"`
	Repeat     *Repeat `json:"repeat,omitempty"`
	Layout     Layout  `json:"layout"`
}

// RowsLayoutRow wraps a row spec with its kind.
type RowsLayoutRow struct {
	Kind string            `json:"kind"`
	Spec RowsLayoutRowSpec `json:"spec"`
}

// TabsLayoutSpec shows one nested layout per tab.
type TabsLayoutSpec struct {
	Tabs []TabsLayoutTab `json:"tabs"`
}

// TabsLayoutTabSpec is one tab of a tabs layout.
type TabsLayoutTabSpec struct {
	Key    string  `json:"key,omitempty"`
	Title  string  `json:"title"`
	Repeat *Repeat `json:"repeat,omitempty"`
	Layout Layout  `json:"layout"`
}

// TabsLayoutTab wraps a tab spec with its kind.
type TabsLayoutTab struct {
	Kind string            `json:"kind"`
	Spec TabsLayoutTabSpec `json:"spec"`
}
