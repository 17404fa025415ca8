package models

import "strings"

// Category is the segmented balance bucket a transaction draws from.
type Category string

const (
	CategoryFood  Category = "FOOD"
	CategoryMeal  Category = "MEAL"
	CategoryCash  Category = "CASH"
	CategoryOther Category = "OTHER"
)

// Bucket returns the balance a category is debited from. Anything that is not
// FOOD or MEAL is paid from CASH.
func (c Category) Bucket() Category {
	switch c {
	case CategoryFood, CategoryMeal:
		return c
	default:
		return CategoryCash
	}
}

func ParseCategory(s string) Category {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryFood, CategoryMeal, CategoryCash:
		return c
	default:
		return CategoryOther
	}
}
