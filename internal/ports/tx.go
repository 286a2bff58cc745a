package ports

import (
	"context"

	"github.com/mycelium-platform/mycelium/internal/domain"
)

// Transactor runs fn inside a single transactional scope, matching spec
// §4.7(d): "writes through C2 inside a single transactional scope when
// multiple writes are involved (account + owners + meta; tenant +
// owners)", and §5's ordering guarantee that "use-case write -> outbox
// insert is atomic and observed in that order".
//
// Concrete adapters (internal/storage/postgres) implement this over a
// pgx transaction; use cases depend only on this interface so they never
// import pgx directly.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) *domain.MappedError) *domain.MappedError
}
