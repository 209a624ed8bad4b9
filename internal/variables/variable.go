// Package variables models the dashboard variables the layout engine reads.
// The engine only consumes them: it resolves a name against a scope, reads the
// current values, and listens for "update completed" notifications.
package variables

import (
	"slices"
	"sync"
)

// AllValue is the sentinel selection meaning "every option".
const AllValue = "$__all"

// Variable is anything that can be resolved by name.
type Variable interface {
	Name() string
	IsLoading() bool
}

// MultiValue is a variable a layout element can be repeated over.
type MultiValue interface {
	Variable
	CurrentValuesAndTexts() ([]string, []string)
	IsMulti() bool
	IncludeAll() bool
	HasAllValuesSelected() bool
}

// Option is one selectable entry of a Custom variable.
type Option struct {
	Text  string `json:"text" yaml:"text"`
	Value string `json:"value" yaml:"value"`
}

// CustomConfig configures NewCustom.
type CustomConfig struct {
	Name       string
	Options    []Option
	Current    []string
	Multi      bool
	IncludeAll bool
}

// Custom is a variable with a fixed option list and a current selection.
type Custom struct {
	mu         sync.RWMutex
	name       string
	options    []Option
	current    []string
	multi      bool
	includeAll bool
	loading    bool
}

var _ MultiValue = (*Custom)(nil)

// NewCustom creates a custom variable. A variable with no explicit selection
// selects its first option, or every option when IncludeAll is set.
func NewCustom(cfg CustomConfig) *Custom {
	c := &Custom{
		name:       cfg.Name,
		options:    slices.Clone(cfg.Options),
		current:    slices.Clone(cfg.Current),
		multi:      cfg.Multi,
		includeAll: cfg.IncludeAll,
	}
	if len(c.current) == 0 {
		switch {
		case c.includeAll:
			c.current = []string{AllValue}
		case len(c.options) > 0:
			c.current = []string{c.options[0].Value}
		}
	}
	return c
}

func (c *Custom) Name() string { return c.name }

func (c *Custom) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Custom) IsMulti() bool    { return c.multi }
func (c *Custom) IncludeAll() bool { return c.includeAll }

// HasAllValuesSelected reports whether the selection is the All sentinel.
func (c *Custom) HasAllValuesSelected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.includeAll && len(c.current) == 1 && c.current[0] == AllValue
}

// CurrentValuesAndTexts expands the selection into parallel value and text
// lists. An All selection expands to every option, which may be none.
func (c *Custom) CurrentValuesAndTexts() ([]string, []string) {
	all := c.HasAllValuesSelected()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if all {
		values := make([]string, 0, len(c.options))
		texts := make([]string, 0, len(c.options))
		for _, o := range c.options {
			values = append(values, o.Value)
			texts = append(texts, o.Text)
		}
		return values, texts
	}

	values := slices.Clone(c.current)
	texts := make([]string, 0, len(values))
	for _, v := range values {
		texts = append(texts, c.textFor(v))
	}
	return values, texts
}

func (c *Custom) textFor(value string) string {
	for _, o := range c.options {
		if o.Value == value && o.Text != "" {
			return o.Text
		}
	}
	return value
}

// Options returns a copy of the option list.
func (c *Custom) Options() []Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.options)
}

// Current returns the raw selection, which may be the All sentinel.
func (c *Custom) Current() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.current)
}

// SetCurrent replaces the selection. Single-value variables keep only the
// first value.
func (c *Custom) SetCurrent(values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.multi && len(values) > 1 {
		values = values[:1]
	}
	c.current = slices.Clone(values)
}

// SetOptions replaces the option list.
func (c *Custom) SetOptions(options []Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = slices.Clone(options)
}

// SetLoading flips the loading flag.
func (c *Custom) SetLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

// Constant is a single fixed value. It cannot drive a repeat.
type Constant struct {
	name  string
	value string
}

// NewConstant creates a constant variable.
func NewConstant(name, value string) *Constant {
	return &Constant{name: name, value: value}
}

func (c *Constant) Name() string    { return c.name }
func (c *Constant) IsLoading() bool { return false }
func (c *Constant) Value() string   { return c.value }

// Override is the single-value variable injected into one repeated instance.
// It shadows the multi-value variable of the same name and inherits its flags.
type Override struct {
	name       string
	value      string
	text       string
	isMulti    bool
	includeAll bool
}

var _ MultiValue = (*Override)(nil)

// NewOverride scopes value/text of source to one repeated instance.
func NewOverride(source MultiValue, value, text string) *Override {
	return &Override{
		name:       source.Name(),
		value:      value,
		text:       text,
		isMulti:    source.IsMulti(),
		includeAll: source.IncludeAll(),
	}
}

func (o *Override) Name() string               { return o.name }
func (o *Override) IsLoading() bool            { return false }
func (o *Override) IsMulti() bool              { return o.isMulti }
func (o *Override) IncludeAll() bool           { return o.includeAll }
func (o *Override) HasAllValuesSelected() bool { return false }
func (o *Override) Value() string              { return o.value }
func (o *Override) Text() string               { return o.text }

func (o *Override) CurrentValuesAndTexts() ([]string, []string) {
	return []string{o.value}, []string{o.text}
}
