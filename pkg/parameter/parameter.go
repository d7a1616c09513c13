// Package parameter implements user-facing settings values that track a current value,
// the last applied value and a default.
package parameter

import (
	"fmt"
	"sync"

	"github.com/darkjune/eclipse/pkg/event"
	"github.com/darkjune/eclipse/pkg/naming"
)

// Observer is notified about parameter changes relevant to the owner of a parameter registry.
type Observer interface {
	ParameterChanged(p Parameter)
	ParameterRenamed(p Parameter, previous naming.FullName)
	ParameterRecategorized(p Parameter, previous naming.FullCategory)
}

// Parameter is the type-erased view of a Value used by registries.
type Parameter interface {
	Name() naming.FullName
	Category() naming.FullCategory

	// IsDirty reports whether the current value differs from the last applied one.
	IsDirty() bool
	// IsModified reports whether the current value differs from the default.
	IsModified() bool

	ApplyChanges()
	ApplyChangesForceFireCallbacks()
	RevertChanges()
	RevertChangesForceFireCallbacks()
	Reset()

	Serialize() (string, error)
	Deserialize(raw string) error

	Attach(o Observer)
}

// Change carries the previous and the new value of a parameter.
type Change[T any] struct {
	Old T
	New T
}

// Value is a typed parameter.
//
// Set changes the current value and fires ValueChanged. ApplyChanges commits it and fires
// ValueApplied. RevertChanges restores the last applied value and fires both.
// ModifiedChanged fires whenever IsModified flips.
type Value[T comparable] struct {
	mu           sync.Mutex
	name         naming.FullName
	category     naming.FullCategory
	value        T
	lastApplied  T
	defaultValue T
	codec        Codec[T]
	observer     Observer

	ValueChanged      event.Event[Change[T]]
	ValueApplied      event.Event[Change[T]]
	ModifiedChanged   event.Event[bool]
	NameChanged       event.Event[naming.FullName]
	CategoryChanged   event.Event[naming.FullCategory]
	VisibilityChanged event.Event[bool]
}

// New creates a parameter holding def as its current, applied and default value.
// Values are stored as JSON unless another codec is set with WithCodec.
func New[T comparable](name naming.FullName, def T) *Value[T] {
	return &Value[T]{
		name:         name,
		category:     naming.NewCategory(""),
		value:        def,
		lastApplied:  def,
		defaultValue: def,
		codec:        JSONCodec[T]{},
	}
}

// NewEnum creates an integer enum parameter stored in the compact digit form.
func NewEnum[E Enum](name naming.FullName, def E) *Value[E] {
	return New(name, def).WithCodec(EnumCodec[E]{})
}

// WithCategory sets the category without notifying anyone. Use it while constructing.
func (p *Value[T]) WithCategory(c naming.FullCategory) *Value[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c.Name == "" {
		c.Name = naming.DefaultCategory
	}
	p.category = c
	return p
}

// WithCodec replaces the codec used by Serialize and Deserialize.
func (p *Value[T]) WithCodec(c Codec[T]) *Value[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.codec = c
	return p
}

func (p *Value[T]) Name() naming.FullName {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.name
}

func (p *Value[T]) Category() naming.FullCategory {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.category
}

func (p *Value[T]) Visible() bool {
	return p.Category().Visible
}

func (p *Value[T]) Value() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value
}

func (p *Value[T]) LastApplied() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastApplied
}

func (p *Value[T]) Default() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.defaultValue
}

func (p *Value[T]) IsDirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value != p.lastApplied
}

func (p *Value[T]) IsModified() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value != p.defaultValue
}

// Attach sets the observer notified about changes. A later call replaces the observer.
func (p *Value[T]) Attach(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.observer = o
}

// Set changes the current value. Nothing happens when v equals the current value.
func (p *Value[T]) Set(v T) {
	p.mu.Lock()
	if p.value == v {
		p.mu.Unlock()
		return
	}

	old := p.value
	wasModified := p.value != p.defaultValue
	p.value = v
	isModified := p.value != p.defaultValue
	observer := p.observer
	p.mu.Unlock()

	p.ValueChanged.Fire(Change[T]{Old: old, New: v})
	if wasModified != isModified {
		p.ModifiedChanged.Fire(isModified)
	}
	if observer != nil {
		observer.ParameterChanged(p)
	}
}

// SetDefault changes the default value. An unmodified parameter follows its default and
// stays unmodified.
func (p *Value[T]) SetDefault(v T) {
	p.mu.Lock()
	if p.defaultValue == v {
		p.mu.Unlock()
		return
	}

	follow := p.value == p.defaultValue
	p.defaultValue = v
	if !follow {
		p.mu.Unlock()
		return
	}

	old := p.value
	p.value = v
	observer := p.observer
	p.mu.Unlock()

	p.ValueChanged.Fire(Change[T]{Old: old, New: v})
	if observer != nil {
		observer.ParameterChanged(p)
	}
}

// Reset sets the current value back to the default.
func (p *Value[T]) Reset() {
	p.Set(p.Default())
}

func (p *Value[T]) ApplyChanges() {
	p.apply(false)
}

// ApplyChangesForceFireCallbacks commits the current value and fires ValueApplied even if
// the parameter is not dirty.
func (p *Value[T]) ApplyChangesForceFireCallbacks() {
	p.apply(true)
}

func (p *Value[T]) apply(force bool) {
	p.mu.Lock()
	if !force && p.value == p.lastApplied {
		p.mu.Unlock()
		return
	}

	change := Change[T]{Old: p.lastApplied, New: p.value}
	p.lastApplied = p.value
	p.mu.Unlock()

	p.ValueApplied.Fire(change)
}

func (p *Value[T]) RevertChanges() {
	p.revert(false)
}

// RevertChangesForceFireCallbacks restores the last applied value and fires ValueApplied
// and ValueChanged even if the parameter is not dirty.
func (p *Value[T]) RevertChangesForceFireCallbacks() {
	p.revert(true)
}

func (p *Value[T]) revert(force bool) {
	p.mu.Lock()
	if !force && p.value == p.lastApplied {
		p.mu.Unlock()
		return
	}

	changed := Change[T]{Old: p.value, New: p.lastApplied}
	wasModified := p.value != p.defaultValue
	p.value = p.lastApplied
	isModified := p.value != p.defaultValue
	p.mu.Unlock()

	p.ValueApplied.Fire(Change[T]{Old: changed.New, New: changed.New})
	p.ValueChanged.Fire(changed)
	if wasModified != isModified {
		p.ModifiedChanged.Fire(isModified)
	}
}

// SetName renames the parameter and notifies the observer.
func (p *Value[T]) SetName(n naming.FullName) {
	p.mu.Lock()
	if p.name.Equal(n) {
		p.mu.Unlock()
		return
	}

	previous := p.name
	p.name = n
	observer := p.observer
	p.mu.Unlock()

	p.NameChanged.Fire(n)
	if observer != nil {
		observer.ParameterRenamed(p, previous)
	}
}

// SetCategory moves the parameter to another category or changes its order or visibility.
func (p *Value[T]) SetCategory(c naming.FullCategory) {
	if c.Name == "" {
		c.Name = naming.DefaultCategory
	}

	p.mu.Lock()
	previous := p.category
	if previous.Equal(c) && previous.Order == c.Order {
		p.mu.Unlock()
		return
	}

	p.category = c
	observer := p.observer
	p.mu.Unlock()

	p.CategoryChanged.Fire(c)
	if previous.Visible != c.Visible {
		p.VisibilityChanged.Fire(c.Visible)
	}
	if observer != nil {
		observer.ParameterRecategorized(p, previous)
	}
}

func (p *Value[T]) SetVisible(visible bool) {
	p.SetCategory(p.Category().WithVisible(visible))
}

// Serialize encodes the current value.
func (p *Value[T]) Serialize() (string, error) {
	p.mu.Lock()
	v, c, name := p.value, p.codec, p.name
	p.mu.Unlock()

	raw, err := c.Encode(v)
	if err != nil {
		return "", fmt.Errorf("%w: '%s': %w", ErrSerialization, name, err)
	}
	return raw, nil
}

// Deserialize decodes raw and sets it as the current value. On failure the current value
// is left untouched.
func (p *Value[T]) Deserialize(raw string) error {
	p.mu.Lock()
	c, name := p.codec, p.name
	p.mu.Unlock()

	v, err := c.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: '%s': %w", ErrDeserialization, name, err)
	}

	p.Set(v)
	return nil
}

// FireValueChanged invokes fn now, with the current value as both old and new, and subscribes
// it to ValueChanged.
func (p *Value[T]) FireValueChanged(fn func(Change[T])) func() {
	v := p.Value()
	return event.SubscribeAndFire(&p.ValueChanged, Change[T]{Old: v, New: v}, fn)
}

// FireValueApplied invokes fn with the last applied value and subscribes it to ValueApplied.
func (p *Value[T]) FireValueApplied(fn func(Change[T])) func() {
	v := p.LastApplied()
	return event.SubscribeAndFire(&p.ValueApplied, Change[T]{Old: v, New: v}, fn)
}

// FireModifiedChanged invokes fn now and subscribes it to ModifiedChanged.
func (p *Value[T]) FireModifiedChanged(fn func(bool)) func() {
	return event.SubscribeAndFire(&p.ModifiedChanged, p.IsModified(), fn)
}

func (p *Value[T]) String() string {
	return fmt.Sprintf("%s=%v", p.Name(), p.Value())
}
