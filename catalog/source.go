// Package catalog is the read side of the product store: list, lookup and
// related-product queries.
package catalog

import (
	"context"
	"errors"

	"github.com/pedrignacio/tu-kiosko/models"
)

const AllCategories = "all"

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnavailable = errors.New("catalog unavailable")
)

type Source interface {
	// List returns every product, or only those in category when it is neither "" nor "all".
	List(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	// Related returns up to limit products sharing category, excluding excludeID.
	Related(ctx context.Context, category, excludeID string, limit int) ([]models.Product, error)
}

func isAll(category string) bool {
	return category == "" || category == AllCategories
}
