package models

import "strings"

// Category sentinels.
const (
	CategoryOther      = "Other"
	CategoryUnassigned = "Unassigned"
)

const categoryTypeExpense = "EXPENSE"

// UserCategory is a user-defined spending category.
type UserCategory struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

// NewCategory returns an expense category that has not been synced yet.
func NewCategory(name, icon string) UserCategory {
	return UserCategory{Name: strings.TrimSpace(name), Icon: icon, Type: categoryTypeExpense}
}

// DefaultCategories is the starter set used before the first sync and after logout.
func DefaultCategories() []UserCategory {
	return []UserCategory{
		NewCategory("Fuel", "fuelpump.fill"),
		NewCategory("Grocery", "cart.fill"),
		NewCategory("Rent", "house.fill"),
		NewCategory("Electricity", "bolt.fill"),
		NewCategory("Dining", "fork.knife"),
		NewCategory(CategoryOther, "bag.fill"),
	}
}

// FindCategory looks a category up by name, ignoring case.
func FindCategory(categories []UserCategory, name string) (UserCategory, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return UserCategory{}, false
}

func CloneCategories(in []UserCategory) []UserCategory {
	if in == nil {
		return nil
	}
	out := make([]UserCategory, len(in))
	for i, c := range in {
		out[i] = c
		if c.ID != nil {
			id := *c.ID
			out[i].ID = &id
		}
	}
	return out
}
