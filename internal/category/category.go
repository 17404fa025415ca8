// Package category maps merchant category codes to balance categories.
package category

import (
	"strings"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
)

// Resolve maps an MCC to the category it is paid from. Unknown codes are
// paid from CASH.
func Resolve(mcc string) models.Category {
	switch strings.TrimSpace(mcc) {
	case "5411", "5412":
		return models.CategoryFood
	case "5811", "5812":
		return models.CategoryMeal
	default:
		return models.CategoryCash
	}
}

// Resolver is the stateless default resolver.
type Resolver struct{}

func (Resolver) Resolve(mcc string) models.Category {
	return Resolve(mcc)
}
