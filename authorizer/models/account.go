package models

import "github.com/shopspring/decimal"

// Account holds the three segmented balances of a cardholder.
type Account struct {
	ID   string          `json:"account"`
	Food decimal.Decimal `json:"food_balance"`
	Meal decimal.Decimal `json:"meal_balance"`
	Cash decimal.Decimal `json:"cash_balance"`
}

// Balance returns the balance of the bucket the category is debited from.
func (a *Account) Balance(c Category) decimal.Decimal {
	switch c.Bucket() {
	case CategoryFood:
		return a.Food
	case CategoryMeal:
		return a.Meal
	default:
		return a.Cash
	}
}

// SetBalance replaces the balance of the bucket the category is debited from.
func (a *Account) SetBalance(c Category, v decimal.Decimal) {
	switch c.Bucket() {
	case CategoryFood:
		a.Food = v
	case CategoryMeal:
		a.Meal = v
	default:
		a.Cash = v
	}
}
