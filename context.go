package bier

import "maps"

// Setting keys understood by the built-in nodes.
const (
	// SettingMaxLength caps every length prefix read from a stream. An int;
	// zero or negative disables the cap.
	SettingMaxLength = "max_length"
)

// Context carries state through one read or write traversal.
//
// Settings are fixed for the whole operation and shared by every fork.
// State belongs to a single record level: class-like nodes fork a fresh
// context per record so sibling fields can see what was decoded before them,
// while nested records start clean.
type Context struct {
	settings map[string]any
	state    any
	parent   *Context
}

// NewContext copies settings into a new root context with an empty state.
func NewContext(settings map[string]any) *Context {
	return &Context{
		settings: maps.Clone(settings),
		state:    map[string]any{},
	}
}

// Fork returns a child sharing c's settings. A nil seed gives the child a
// fresh empty map as state.
func (c *Context) Fork(seed any) *Context {
	if seed == nil {
		seed = map[string]any{}
	}
	var settings map[string]any
	if c != nil {
		settings = c.settings
	}
	return &Context{settings: settings, state: seed, parent: c}
}

func (c *Context) Setting(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.settings[key]
	return v, ok
}

// Settings returns a copy of the settings map.
func (c *Context) Settings() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return maps.Clone(c.settings)
}

func (c *Context) State() any {
	if c == nil {
		return nil
	}
	return c.state
}

// Values returns the state when it is a field map, nil otherwise.
func (c *Context) Values() map[string]any {
	m, _ := c.State().(map[string]any)
	return m
}

// Parent returns the context c was forked from, nil for a root.
func (c *Context) Parent() *Context {
	if c == nil {
		return nil
	}
	return c.parent
}

// MaxLength returns the max_length setting, 0 when unset.
func (c *Context) MaxLength() int {
	v, ok := c.Setting(SettingMaxLength)
	if !ok {
		return 0
	}
	n, err := toInt64(v)
	if err != nil {
		return 0
	}
	return int(n)
}

func ensureContext(ctx *Context) *Context {
	if ctx == nil {
		return NewContext(nil)
	}
	return ctx
}
