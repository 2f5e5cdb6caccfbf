package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

var _ repository.ReglaRepository = (*ReglaRepo)(nil)

// ReglaRepo implementación de ReglaRepository. Las reglas son append-only:
// editar crea una nueva versión, el histórico nunca se muta.
type ReglaRepo struct {
	q Querier
}

// NewReglaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReglaRepository(q Querier) *ReglaRepo {
	return &ReglaRepo{q: q}
}

const reglaColumnas = `id, version, nombre, justificacion, rangos, prioridad, ambito,
	cond_campo, cond_operador, cond_valor, cond_codigo,
	politica_tipo, politica_valor, activa, created_at`

// SnapshotPorRango devuelve la última versión activa de cada regla aplicable a la banda.
func (r *ReglaRepo) SnapshotPorRango(rango int) ([]entity.Regla, error) {
	query := `
		SELECT DISTINCT ON (id) ` + reglaColumnas + `
		FROM reglas
		WHERE activa AND $1 = ANY(rangos)
		ORDER BY id, version DESC`
	rows, err := r.q.Query(context.Background(), query, rango)
	if err != nil {
		return nil, fmt.Errorf("snapshot reglas: %w", err)
	}
	defer rows.Close()

	var out []entity.Regla
	for rows.Next() {
		regla, err := scanRegla(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *regla)
	}
	return out, rows.Err()
}

// GetVersion devuelve una versión puntual de la regla (auditoría).
func (r *ReglaRepo) GetVersion(id string, version int) (*entity.Regla, error) {
	query := `SELECT ` + reglaColumnas + ` FROM reglas WHERE id = $1 AND version = $2`
	row := r.q.QueryRow(context.Background(), query, id, version)
	regla, err := scanRegla(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return regla, nil
}

// Create inserta una nueva versión de la regla.
func (r *ReglaRepo) Create(regla *entity.Regla) error {
	query := `
		INSERT INTO reglas (` + reglaColumnas + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	rangos := make([]int32, len(regla.Rangos))
	for i, rg := range regla.Rangos {
		rangos[i] = int32(rg)
	}
	_, err := r.q.Exec(context.Background(), query,
		regla.ID, regla.Version, regla.Nombre, regla.Justificacion, rangos,
		regla.Prioridad, regla.Ambito,
		regla.Condicion.Campo, regla.Condicion.Operador, regla.Condicion.Valor, nullIfEmpty(regla.Condicion.Codigo),
		regla.Politica.Tipo, regla.Politica.Valor, regla.Activa, regla.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("version de regla ya existe: %w", err)
		}
		return fmt.Errorf("insert regla: %w", err)
	}
	return nil
}

func scanRegla(row pgx.Row) (*entity.Regla, error) {
	var regla entity.Regla
	var rangos []int32
	var condCodigo *string
	err := row.Scan(
		&regla.ID, &regla.Version, &regla.Nombre, &regla.Justificacion, &rangos,
		&regla.Prioridad, &regla.Ambito,
		&regla.Condicion.Campo, &regla.Condicion.Operador, &regla.Condicion.Valor, &condCodigo,
		&regla.Politica.Tipo, &regla.Politica.Valor, &regla.Activa, &regla.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan regla: %w", err)
	}
	regla.Rangos = make([]int, len(rangos))
	for i, rg := range rangos {
		regla.Rangos[i] = int(rg)
	}
	if condCodigo != nil {
		regla.Condicion.Codigo = *condCodigo
	}
	return &regla, nil
}
