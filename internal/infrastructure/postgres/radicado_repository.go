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

var _ repository.RadicadoRepository = (*RadicadoRepo)(nil)

// RadicadoRepo implementación de RadicadoRepository (usable con pool o tx).
type RadicadoRepo struct {
	q Querier
}

// NewRadicadoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRadicadoRepository(q Querier) *RadicadoRepo {
	return &RadicadoRepo{q: q}
}

// Create persiste el radicado.
func (r *RadicadoRepo) Create(rad *entity.Radicado) error {
	if rad.ID == "" {
		rad.ID = uuid.New().String()
	}
	query := `
		INSERT INTO radicados (id, numero_radicado, eps, nit, razon_social,
		       valor_contratado, valor_total, rango, estado,
		       num_documentos, num_glosas, excel_generado, reporte_id,
		       mensajes, creado_por, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(context.Background(), query,
		rad.ID, rad.NumeroRadicado, rad.EPS, rad.NIT, rad.RazonSocial,
		rad.ValorContratado, rad.ValorTotal, rad.Rango, rad.Estado,
		rad.NumDocumentos, rad.NumGlosas, rad.ExcelGenerado, nullIfEmpty(rad.ReporteID),
		rad.Mensajes, nullIfEmpty(rad.CreadoPor), rad.CreatedAt, rad.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("numero de radicado ya existe: %w", err)
		}
		return fmt.Errorf("insert radicado: %w", err)
	}
	return nil
}

// GetByID obtiene un radicado por ID.
func (r *RadicadoRepo) GetByID(id string) (*entity.Radicado, error) {
	return r.getBy("id = $1", id)
}

// GetByNumero obtiene un radicado por su número externo.
func (r *RadicadoRepo) GetByNumero(numero string) (*entity.Radicado, error) {
	return r.getBy("numero_radicado = $1", numero)
}

func (r *RadicadoRepo) getBy(cond string, arg any) (*entity.Radicado, error) {
	query := `
		SELECT id, numero_radicado, eps, nit, razon_social,
		       valor_contratado, valor_total, rango, estado,
		       num_documentos, num_glosas, excel_generado, reporte_id,
		       mensajes, creado_por, created_at, updated_at
		FROM radicados WHERE ` + cond
	var rad entity.Radicado
	var reporteID, creadoPor *string
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&rad.ID, &rad.NumeroRadicado, &rad.EPS, &rad.NIT, &rad.RazonSocial,
		&rad.ValorContratado, &rad.ValorTotal, &rad.Rango, &rad.Estado,
		&rad.NumDocumentos, &rad.NumGlosas, &rad.ExcelGenerado, &reporteID,
		&rad.Mensajes, &creadoPor, &rad.CreatedAt, &rad.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get radicado: %w", err)
	}
	if reporteID != nil {
		rad.ReporteID = *reporteID
	}
	if creadoPor != nil {
		rad.CreadoPor = *creadoPor
	}
	return &rad, nil
}

// List devuelve una página de radicados, más recientes primero.
func (r *RadicadoRepo) List(limit, offset int) ([]*entity.Radicado, error) {
	query := `
		SELECT id, numero_radicado, eps, nit, razon_social,
		       valor_contratado, valor_total, rango, estado,
		       num_documentos, num_glosas, excel_generado, reporte_id,
		       mensajes, creado_por, created_at, updated_at
		FROM radicados
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list radicados: %w", err)
	}
	defer rows.Close()

	var out []*entity.Radicado
	for rows.Next() {
		var rad entity.Radicado
		var reporteID, creadoPor *string
		if err := rows.Scan(
			&rad.ID, &rad.NumeroRadicado, &rad.EPS, &rad.NIT, &rad.RazonSocial,
			&rad.ValorContratado, &rad.ValorTotal, &rad.Rango, &rad.Estado,
			&rad.NumDocumentos, &rad.NumGlosas, &rad.ExcelGenerado, &reporteID,
			&rad.Mensajes, &creadoPor, &rad.CreatedAt, &rad.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan radicado: %w", err)
		}
		if reporteID != nil {
			rad.ReporteID = *reporteID
		}
		if creadoPor != nil {
			rad.CreadoPor = *creadoPor
		}
		out = append(out, &rad)
	}
	return out, rows.Err()
}

// Update persiste estado, valores, rango, contadores, mensajes y referencias de reporte.
func (r *RadicadoRepo) Update(rad *entity.Radicado) error {
	query := `
		UPDATE radicados
		SET valor_contratado = $2,
		    valor_total      = $3,
		    rango            = $4,
		    estado           = $5,
		    num_documentos   = $6,
		    num_glosas       = $7,
		    excel_generado   = $8,
		    reporte_id       = $9,
		    mensajes         = $10,
		    updated_at       = $11
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		rad.ID, rad.ValorContratado, rad.ValorTotal, rad.Rango, rad.Estado,
		rad.NumDocumentos, rad.NumGlosas, rad.ExcelGenerado, nullIfEmpty(rad.ReporteID),
		rad.Mensajes, rad.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update radicado: %w", err)
	}
	return nil
}

// Delete elimina el radicado; documentos, ítems, glosas y resultados caen en
// cascada por las FK del esquema.
func (r *RadicadoRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM radicados WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete radicado: %w", err)
	}
	return nil
}
