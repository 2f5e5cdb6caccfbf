package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

var _ liquidacion.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta el cierre de una corrida en una sola transacción: los repos
// que recibe el callback están ligados a la tx, no al pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el ejecutor transaccional sobre el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunLiquidacion abre la transacción, invoca fn con repos tx-bound y confirma.
// Cualquier error de fn revierte todo.
func (t *TxRunner) RunLiquidacion(ctx context.Context, fn func(
	radicadoRepo repository.RadicadoRepository,
	documentoRepo repository.DocumentoRepository,
	resultadoRepo repository.ResultadoRepository,
) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(
		NewRadicadoRepository(tx),
		NewDocumentoRepository(tx),
		NewResultadoRepository(tx),
	); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
