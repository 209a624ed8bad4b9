package layout

import "fmt"

// copier decides the identity of copied panels and elements.
//
// With rekey set every key is mapped through it and panels keep their IDs;
// this is how repeat clones and comparison copies are made. With fresh set
// every panel draws a new ID and every element a key derived from it, which
// is how duplicates are made.
type copier struct {
	rekey func(string) string
	fresh func() int
}

func rekeyCopier(rekey func(string) string) copier {
	return copier{rekey: rekey}
}

func freshCopier(seq *Sequence, m Manager) copier {
	return copier{fresh: func() int { return seq.Next(m.Panels()) }}
}

func (c copier) panel(p *Panel) *Panel {
	if c.fresh != nil {
		np := p.copyAs("")
		assignKey(np, c.fresh())
		return np
	}
	return p.copyAs(c.rekey(p.Key))
}

// itemKey keys an element wrapping the already copied panel p.
func (c copier) itemKey(old string, p *Panel, derive func(int) string) string {
	if c.fresh != nil {
		return derive(p.ID)
	}
	return c.rekey(old)
}

// containerKey keys a row or tab.
func (c copier) containerKey(old, prefix string) string {
	if c.fresh != nil {
		return fmt.Sprintf("%s-%d", prefix, c.fresh())
	}
	return c.rekey(old)
}

// GridItemKey is the key of the free-grid item wrapping panel id.
func GridItemKey(id int) string { return fmt.Sprintf("grid-item-%d", id) }

// AutoGridItemKey is the key of the auto-grid item wrapping panel id.
func AutoGridItemKey(id int) string { return fmt.Sprintf("auto-grid-item-%d", id) }

// RowKey is the key of a row drawn from the sequence.
func RowKey(id int) string { return fmt.Sprintf("row-%d", id) }

// TabKey is the key of a tab drawn from the sequence.
func TabKey(id int) string { return fmt.Sprintf("tab-%d", id) }
