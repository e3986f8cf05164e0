package driving

import (
	"context"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// Scheduler runs maintenance tasks on fixed intervals.
type Scheduler interface {
	// Start runs due tasks until ctx is cancelled or Stop is called.
	// onResult receives each task outcome and may be nil.
	Start(ctx context.Context, onResult func(domain.TaskResult)) error

	// Stop ends the loop. Start returns once running tasks finish.
	Stop()

	// Tasks returns the current task states.
	Tasks() []domain.ScheduledTask
}
