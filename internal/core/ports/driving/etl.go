package driving

import (
	"context"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// ETLService loads the sample dataset.
type ETLService interface {
	// Run generates, cleans, enriches and bulk-loads the sample dataset.
	Run(ctx context.Context, opts domain.ETLOptions) domain.Result[domain.ETLReport]

	// Verify counts stored documents per kind.
	Verify(ctx context.Context) domain.Result[[]domain.KindCount]
}
