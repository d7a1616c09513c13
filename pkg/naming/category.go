package naming

import "fmt"

const (
	// DefaultCategory is used for parameters registered without a category.
	DefaultCategory = "Uncategorized"
	// DefaultOrder places a parameter among the others in registration order.
	DefaultOrder = 0
	// SplitOrderRange is the gap between well-known order blocks.
	SplitOrderRange = 500_000
)

// FullCategory describes where a parameter is shown: a category name, its order inside
// the category and whether it is visible at all.
//
// Use Equal to compare categories: the order does not take part in equality, so == is not
// the right comparison.
type FullCategory struct {
	Name    string
	Order   int
	Visible bool
}

// NewCategory returns a visible category with the default order.
func NewCategory(name string) FullCategory {
	return NewFullCategory(name, DefaultOrder, true)
}

func NewFullCategory(name string, order int, visible bool) FullCategory {
	if name == "" {
		name = DefaultCategory
	}

	return FullCategory{Name: name, Order: order, Visible: visible}
}

// Equal compares name and visibility only.
func (c FullCategory) Equal(other FullCategory) bool {
	return c.Name == other.Name && c.Visible == other.Visible
}

func (c FullCategory) WithName(name string) FullCategory {
	return NewFullCategory(name, c.Order, c.Visible)
}

func (c FullCategory) WithOrder(order int) FullCategory {
	c.Order = order
	return c
}

func (c FullCategory) WithVisible(visible bool) FullCategory {
	c.Visible = visible
	return c
}

func (c FullCategory) String() string {
	return fmt.Sprintf("%s#%d", c.Name, c.Order)
}
