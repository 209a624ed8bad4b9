package layout

import (
	"fmt"
	"slices"
)

// DropTarget resolves the grid-shaped layout that receives content dropped
// on m. Rows and tabs descend into their first row or tab.
func DropTarget(m Manager) (Manager, error) {
	return dropTarget(m, 0)
}

func dropTarget(m Manager, depth int) (Manager, error) {
	if depth >= MaxNestingDepth {
		return nil, fmt.Errorf("%w: more than %d levels", ErrNestingTooDeep, MaxNestingDepth)
	}
	switch m := m.(type) {
	case *GridLayout, *AutoGridLayout:
		return m, nil
	case *RowsLayout:
		rows := m.Rows()
		if len(rows) == 0 {
			return nil, fmt.Errorf("%w: rows layout is empty", ErrNoDropTarget)
		}
		m.sequence()
		return dropTarget(rows[0].Layout, depth+1)
	case *TabsLayout:
		tabs := m.Tabs()
		if len(tabs) == 0 {
			return nil, fmt.Errorf("%w: tabs layout is empty", ErrNoDropTarget)
		}
		m.sequence()
		return dropTarget(tabs[0].Layout, depth+1)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownKind, m)
}

// Move moves panels from src into the drop target of dst. The panels keep
// their keys and repeat bindings. Nothing moves unless every panel can.
func Move(src, dst Manager, panels ...*Panel) error {
	target, err := DropTarget(dst)
	if err != nil {
		return err
	}

	var moving []*Panel
	for _, p := range panels {
		if p.IsClone() {
			return fmt.Errorf("%w: %s", ErrCloneReadOnly, p.Key)
		}
		if !ContainsPanel(src, p) {
			return fmt.Errorf("%w: %s", ErrPanelNotFound, p.Key)
		}
		if !slices.Contains(moving, p) {
			moving = append(moving, p)
		}
	}

	for _, p := range moving {
		binding, err := src.detachPanel(p)
		if err != nil {
			return err
		}
		target.attachPanel(p, binding)
	}
	return nil
}
