package configuration

import (
	"cmp"
	"slices"
	"sync"

	"github.com/darkjune/eclipse/pkg/event"
	"github.com/darkjune/eclipse/pkg/parameter"
)

// Category groups the parameters sharing a category name.
type Category struct {
	name string

	mu         sync.Mutex
	visible    bool
	parameters []parameter.Parameter

	OnParameterListChanged event.Event[*Category]
	OnVisibilityChanged    event.Event[bool]
}

func newCategory(name string, visible bool) *Category {
	return &Category{name: name, visible: visible}
}

func (c *Category) Name() string {
	return c.name
}

func (c *Category) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.visible
}

func (c *Category) SetVisible(visible bool) {
	c.mu.Lock()
	if c.visible == visible {
		c.mu.Unlock()
		return
	}
	c.visible = visible
	c.mu.Unlock()

	c.OnVisibilityChanged.Fire(visible)
}

// Parameters returns the parameters sorted by their category order. Parameters with equal
// order keep registration order.
func (c *Category) Parameters() []parameter.Parameter {
	c.mu.Lock()
	params := slices.Clone(c.parameters)
	c.mu.Unlock()

	slices.SortStableFunc(params, func(a, b parameter.Parameter) int {
		return cmp.Compare(a.Category().Order, b.Category().Order)
	})
	return params
}

func (c *Category) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.parameters)
}

func (c *Category) add(p parameter.Parameter) {
	c.mu.Lock()
	c.parameters = append(c.parameters, p)
	c.mu.Unlock()

	c.OnParameterListChanged.Fire(c)
}

func (c *Category) remove(p parameter.Parameter) {
	c.mu.Lock()
	i := slices.Index(c.parameters, p)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.parameters = slices.Delete(c.parameters, i, i+1)
	c.mu.Unlock()

	c.OnParameterListChanged.Fire(c)
}

// changed notifies subscribers about a reorder inside the category.
func (c *Category) changed() {
	c.OnParameterListChanged.Fire(c)
}
