package unitofwork

import "context"

// RepositoryFactory hands out request-scoped units of work. Services hold
// the factory, never a unit, so every job attempt gets fresh transaction
// state.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
