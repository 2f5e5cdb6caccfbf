package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

var _ repository.ResultadoRepository = (*ResultadoRepo)(nil)

// ResultadoRepo implementación de ResultadoRepository. Los resultados son
// inmutables una vez escritos; re-liquidar inserta una fila nueva y baja la
// bandera vigente de la anterior.
type ResultadoRepo struct {
	q Querier
}

// NewResultadoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewResultadoRepository(q Querier) *ResultadoRepo {
	return &ResultadoRepo{q: q}
}

// Create inserta el resultado con sus glosas y reglas aplicadas.
func (r *ResultadoRepo) Create(res *entity.ResultadoLiquidacion) error {
	ctx := context.Background()
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO resultados (id, radicado_id, valor_facturado, valor_glosado, valor_a_pagar,
		       mensajes, excel_generado, reporte_id, vigente, fecha_evaluacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.RadicadoID, res.ValorFacturado, res.ValorGlosado, res.ValorAPagar,
		res.Mensajes, res.ExcelGenerado, nullIfEmpty(res.ReporteID), res.Vigente, res.FechaEvaluacion,
	)
	if err != nil {
		return fmt.Errorf("insert resultado: %w", err)
	}

	for _, ra := range res.ReglasAplicadas {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO resultado_reglas (resultado_id, regla_id, regla_version, nombre)
			VALUES ($1, $2, $3, $4)`,
			res.ID, ra.ReglaID, ra.Version, ra.Nombre,
		); err != nil {
			return fmt.Errorf("insert regla aplicada: %w", err)
		}
	}

	for i := range res.Glosas {
		g := &res.Glosas[i]
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, `
			INSERT INTO glosas (id, resultado_id, radicado_id, item_id, regla_id, regla_version,
			       valor, justificacion)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			g.ID, res.ID, g.RadicadoID, nullIfEmpty(g.ItemID), g.ReglaID, g.ReglaVersion,
			g.Valor, g.Justificacion,
		); err != nil {
			return fmt.Errorf("insert glosa: %w", err)
		}
	}
	return nil
}

// VigentePorRadicado devuelve el resultado vigente con glosas y reglas, nil si no existe.
func (r *ResultadoRepo) VigentePorRadicado(radicadoID string) (*entity.ResultadoLiquidacion, error) {
	ctx := context.Background()
	var res entity.ResultadoLiquidacion
	var reporteID *string
	err := r.q.QueryRow(ctx, `
		SELECT id, radicado_id, valor_facturado, valor_glosado, valor_a_pagar,
		       mensajes, excel_generado, reporte_id, vigente, fecha_evaluacion
		FROM resultados
		WHERE radicado_id = $1 AND vigente`, radicadoID).Scan(
		&res.ID, &res.RadicadoID, &res.ValorFacturado, &res.ValorGlosado, &res.ValorAPagar,
		&res.Mensajes, &res.ExcelGenerado, &reporteID, &res.Vigente, &res.FechaEvaluacion,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resultado vigente: %w", err)
	}
	if reporteID != nil {
		res.ReporteID = *reporteID
	}

	rows, err := r.q.Query(ctx, `
		SELECT regla_id, regla_version, nombre
		FROM resultado_reglas WHERE resultado_id = $1
		ORDER BY regla_id`, res.ID)
	if err != nil {
		return nil, fmt.Errorf("list reglas aplicadas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ra entity.ReglaAplicada
		if err := rows.Scan(&ra.ReglaID, &ra.Version, &ra.Nombre); err != nil {
			return nil, fmt.Errorf("scan regla aplicada: %w", err)
		}
		res.ReglasAplicadas = append(res.ReglasAplicadas, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	grows, err := r.q.Query(ctx, `
		SELECT id, radicado_id, item_id, regla_id, regla_version, valor, justificacion
		FROM glosas WHERE resultado_id = $1
		ORDER BY id`, res.ID)
	if err != nil {
		return nil, fmt.Errorf("list glosas: %w", err)
	}
	defer grows.Close()
	for grows.Next() {
		var g entity.Glosa
		var itemID *string
		if err := grows.Scan(&g.ID, &g.RadicadoID, &itemID, &g.ReglaID, &g.ReglaVersion,
			&g.Valor, &g.Justificacion); err != nil {
			return nil, fmt.Errorf("scan glosa: %w", err)
		}
		if itemID != nil {
			g.ItemID = *itemID
		}
		res.Glosas = append(res.Glosas, g)
	}
	return &res, grows.Err()
}

// InvalidarVigente baja la bandera vigente del resultado actual del radicado.
func (r *ResultadoRepo) InvalidarVigente(radicadoID string) error {
	_, err := r.q.Exec(context.Background(), `
		UPDATE resultados SET vigente = false
		WHERE radicado_id = $1 AND vigente`, radicadoID)
	if err != nil {
		return fmt.Errorf("invalidar resultado vigente: %w", err)
	}
	return nil
}
