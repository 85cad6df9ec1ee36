package ports

import "context"

// Transactor runs fn as a single unit of work. Repositories called with the
// context handed to fn take part in it; returning an error rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
