package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain"
)

var _ liquidacion.ValorContratadoLookup = (*ContratoLookup)(nil)

// ContratoLookup consulta el valor pactado vigente de un prestador en la tabla
// de contratos. Respeta el contexto: el orquestador lo invoca con timeout y
// degrada al último valor conocido si la consulta no alcanza a responder.
type ContratoLookup struct {
	q Querier
}

// NewContratoLookup construye el adaptador. Pasar pool o tx (Querier).
func NewContratoLookup(q Querier) *ContratoLookup {
	return &ContratoLookup{q: q}
}

// ValorContratado devuelve el valor del contrato vigente más reciente del NIT.
func (c *ContratoLookup) ValorContratado(ctx context.Context, nit, numeroRadicado string) (decimal.Decimal, error) {
	var valor decimal.Decimal
	err := c.q.QueryRow(ctx, `
		SELECT valor
		FROM contratos
		WHERE nit = $1 AND vigente
		ORDER BY vigencia_desde DESC
		LIMIT 1`, nit).Scan(&valor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("contrato vigente para NIT %s: %w", nit, domain.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("consultar contrato (radicado %s): %w", numeroRadicado, err)
	}
	return valor, nil
}
