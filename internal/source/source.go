package source

import (
	"context"

	"zbozi/categories/internal/domain"
)

// Resolver produces the set of category IDs a run should look up
type Resolver interface {
	Resolve(ctx context.Context) (domain.IDSet, error)
}
