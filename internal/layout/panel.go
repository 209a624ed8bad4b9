package layout

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"dashgrid/internal/clonekey"
	"dashgrid/internal/variables"
)

// Panel is the content node every layout element wraps.
type Panel struct {
	ID          int
	Key         string
	Title       string
	Description string
	VizType     string
	Options     map[string]any

	// RepeatSourceKey is set on generated copies and names the source panel.
	RepeatSourceKey string

	scope *variables.Set
}

// NewPanel creates an unplaced panel. Managers assign its ID and key when it
// is added.
func NewPanel(title, vizType string) *Panel {
	return &Panel{Title: title, VizType: vizType}
}

// PanelKey is the key of the panel with the given ID.
func PanelKey(id int) string {
	return fmt.Sprintf("panel-%d", id)
}

// IsClone reports whether the panel is a generated repeat copy or sits inside one.
func (p *Panel) IsClone() bool {
	return p.RepeatSourceKey != "" || clonekey.IsInCloneChain(p.Key)
}

// Scope returns the variable scope the panel resolves variables in. It is set
// when the dashboard activates.
func (p *Panel) Scope() *variables.Set {
	return p.scope
}

var variableRef = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// Interpolate replaces $name and ${name} in s with the current text of the
// variable resolved in the panel's scope.
func (p *Panel) Interpolate(s string) string {
	return Interpolate(s, p.scope)
}

// Interpolate replaces $name and ${name} in s with the current text of the
// variable resolved in scope. Unknown names are left as they are.
func Interpolate(s string, scope *variables.Set) string {
	if scope == nil || !strings.Contains(s, "$") {
		return s
	}
	return variableRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := variableRef.FindStringSubmatch(ref)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		v, ok := variables.Resolve(name, scope)
		if !ok {
			return ref
		}
		switch v := v.(type) {
		case variables.MultiValue:
			_, texts := v.CurrentValuesAndTexts()
			return strings.Join(texts, " + ")
		case *variables.Constant:
			return v.Value()
		}
		return ref
	})
}

// DisplayTitle is the title with variables interpolated.
func (p *Panel) DisplayTitle() string {
	return p.Interpolate(p.Title)
}

// copyAs returns an independent copy of the panel under key.
func (p *Panel) copyAs(key string) *Panel {
	return &Panel{
		ID:          p.ID,
		Key:         key,
		Title:       p.Title,
		Description: p.Description,
		VizType:     p.VizType,
		Options:     maps.Clone(p.Options),
		scope:       p.scope,
	}
}
