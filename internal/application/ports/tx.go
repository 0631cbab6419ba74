package ports

import (
	"context"

	"github.com/riveredge/platform-kernel/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción. Si fn devuelve error se hace
// rollback; en otro caso commit. El Store recibido está atado a la transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(store repository.Store) error) error
}
