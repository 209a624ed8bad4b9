// Package repeat holds the part of a repeat cycle shared by every repeat
// controller: resolving the bound variable, computing the value list, and
// deciding whether anything changed since the last cycle.
package repeat

import (
	"errors"
	"fmt"
	"slices"

	"dashgrid/internal/variables"
)

var (
	// ErrVariableNotFound means the bound variable does not resolve in scope.
	ErrVariableNotFound = errors.New("repeat variable not found")
	// ErrNotMultiValue means the bound variable cannot produce a value list.
	ErrNotMultiValue = errors.New("repeat variable is not a multi-value variable")
)

const (
	// PlaceholderValue stands in for an empty value list so a repeated block
	// always renders at least one instance.
	PlaceholderValue = ""
	// PlaceholderText is the display text of the placeholder instance.
	PlaceholderText = "None"
)

// Values is the ordered value list one cycle expands to.
type Values struct {
	Variable variables.MultiValue
	Values   []string
	Texts    []string
}

// Len is the number of instances the cycle produces.
func (v Values) Len() int { return len(v.Values) }

// Override returns the scoped single-value variable for instance i.
func (v Values) Override(i int) *variables.Override {
	return variables.NewOverride(v.Variable, v.Values[i], v.Texts[i])
}

// Cycle is owned by one controller. It remembers the value list of the last
// effective cycle so an unchanged variable produces no work.
type Cycle struct {
	prev    []string
	hasPrev bool
}

// Next resolves variable in scope and returns the values to expand.
//
// ok is false when there is nothing to do: the variable is still loading, or
// the values equal the previous cycle's and force is false. A non-nil error
// reports a configuration problem; the caller must not mutate anything.
// The values count as the previous cycle's only once the caller commits them.
func (c *Cycle) Next(variable string, scope *variables.Set, force bool) (Values, bool, error) {
	v, found := variables.Resolve(variable, scope)
	if !found {
		return Values{}, false, fmt.Errorf("%w: %s", ErrVariableNotFound, variable)
	}
	if v.IsLoading() {
		return Values{}, false, nil
	}
	mv, isMulti := v.(variables.MultiValue)
	if !isMulti {
		return Values{}, false, fmt.Errorf("%w: %s", ErrNotMultiValue, variable)
	}

	values, texts := mv.CurrentValuesAndTexts()
	if len(values) == 0 {
		values = []string{PlaceholderValue}
		texts = []string{PlaceholderText}
	}
	// Texts shorter than values fall back to the value itself.
	for len(texts) < len(values) {
		texts = append(texts, values[len(texts)])
	}

	if c.hasPrev && !force && slices.Equal(c.prev, values) {
		return Values{}, false, nil
	}

	return Values{Variable: mv, Values: values, Texts: texts[:len(values)]}, true, nil
}

// Commit records values as the last effective cycle. Controllers call it
// after the expansion was applied, so a failed expansion is retried by the
// next unforced cycle.
func (c *Cycle) Commit(values Values) {
	c.prev = slices.Clone(values.Values)
	c.hasPrev = true
}

// Previous returns the value list of the last effective cycle.
func (c *Cycle) Previous() []string {
	return slices.Clone(c.prev)
}

// Reset forgets the previous cycle, so the next one always runs.
func (c *Cycle) Reset() {
	c.prev = nil
	c.hasPrev = false
}
