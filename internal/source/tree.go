package source

import (
	"context"
	"fmt"

	"zbozi/categories/internal/client"
	"zbozi/categories/internal/domain"

	log "github.com/sirupsen/logrus"
)

// TreeResolver collects every category ID found in the API category tree
type TreeResolver struct {
	client client.ZboziClient
	logger log.FieldLogger
}

func NewTreeResolver(client client.ZboziClient, logger log.FieldLogger) *TreeResolver {
	return &TreeResolver{
		client: client,
		logger: logger,
	}
}

func (r *TreeResolver) Resolve(ctx context.Context) (domain.IDSet, error) {
	roots, err := r.client.GetCategoryTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category tree: %w", err)
	}

	ids := collectIDs(roots, r.logger)
	r.logger.Infof("🌳 Found %d unique categories in the category tree", ids.Len())
	return ids, nil
}

// collectIDs walks the forest breadth-first, one level per pass
func collectIDs(roots []domain.CategoryNode, logger log.FieldLogger) domain.IDSet {
	ids := domain.NewIDSet()

	queue := make([]domain.CategoryNode, len(roots))
	copy(queue, roots)

	for depth := 0; len(queue) > 0; depth++ {
		logger.Infof("Categories left to process: %d (depth %d)", len(queue), depth)

		level := queue
		queue = nil
		for _, node := range level {
			if id, ok := domain.NumberID(node.CategoryID); ok {
				ids.Add(id)
			}
			queue = append(queue, node.Children...)
		}
	}

	return ids
}
