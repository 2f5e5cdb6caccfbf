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

var _ repository.DocumentoRepository = (*DocumentoRepo)(nil)

// DocumentoRepo implementación de DocumentoRepository (usable con pool o tx).
// El contenido crudo vive en la misma tabla (bytea); el almacenamiento de
// objetos externo queda fuera del núcleo.
type DocumentoRepo struct {
	q Querier
}

// NewDocumentoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentoRepository(q Querier) *DocumentoRepo {
	return &DocumentoRepo{q: q}
}

// Create persiste el documento con su contenido crudo.
func (r *DocumentoRepo) Create(doc *entity.Documento, contenido []byte) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	query := `
		INSERT INTO documentos (id, radicado_id, nombre, formato, orden,
		       estado_extraccion, diagnosticos, contenido, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.RadicadoID, doc.Nombre, doc.Formato, doc.Orden,
		doc.EstadoExtraccion, doc.Diagnosticos, contenido, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert documento: %w", err)
	}
	return nil
}

// GetByID obtiene un documento sin su contenido.
func (r *DocumentoRepo) GetByID(id string) (*entity.Documento, error) {
	query := `
		SELECT id, radicado_id, nombre, formato, orden, estado_extraccion, diagnosticos, created_at
		FROM documentos WHERE id = $1`
	var doc entity.Documento
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&doc.ID, &doc.RadicadoID, &doc.Nombre, &doc.Formato, &doc.Orden,
		&doc.EstadoExtraccion, &doc.Diagnosticos, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get documento: %w", err)
	}
	return &doc, nil
}

// GetContenido devuelve los bytes crudos del documento.
func (r *DocumentoRepo) GetContenido(id string) ([]byte, error) {
	var contenido []byte
	err := r.q.QueryRow(context.Background(),
		`SELECT contenido FROM documentos WHERE id = $1`, id).Scan(&contenido)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("documento %s no existe", id)
		}
		return nil, fmt.Errorf("get contenido: %w", err)
	}
	return contenido, nil
}

// ListByRadicado devuelve los documentos del radicado en orden de adjunción.
func (r *DocumentoRepo) ListByRadicado(radicadoID string) ([]*entity.Documento, error) {
	query := `
		SELECT id, radicado_id, nombre, formato, orden, estado_extraccion, diagnosticos, created_at
		FROM documentos WHERE radicado_id = $1
		ORDER BY orden ASC`
	rows, err := r.q.Query(context.Background(), query, radicadoID)
	if err != nil {
		return nil, fmt.Errorf("list documentos: %w", err)
	}
	defer rows.Close()

	var out []*entity.Documento
	for rows.Next() {
		var doc entity.Documento
		if err := rows.Scan(
			&doc.ID, &doc.RadicadoID, &doc.Nombre, &doc.Formato, &doc.Orden,
			&doc.EstadoExtraccion, &doc.Diagnosticos, &doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan documento: %w", err)
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}

// UpdateExtraccion persiste estado y diagnósticos de la última extracción.
func (r *DocumentoRepo) UpdateExtraccion(doc *entity.Documento) error {
	_, err := r.q.Exec(context.Background(), `
		UPDATE documentos
		SET estado_extraccion = $2, diagnosticos = $3
		WHERE id = $1`,
		doc.ID, doc.EstadoExtraccion, doc.Diagnosticos,
	)
	if err != nil {
		return fmt.Errorf("update extraccion: %w", err)
	}
	return nil
}

// ReplaceItems borra las líneas anteriores del radicado e inserta las nuevas.
func (r *DocumentoRepo) ReplaceItems(radicadoID string, items []entity.ItemFacturado) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM items_facturados WHERE radicado_id = $1`, radicadoID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	query := `
		INSERT INTO items_facturados (id, documento_id, radicado_id, codigo, descripcion,
		       cantidad, valor_unitario, subtotal, orden)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, it := range items {
		if _, err := r.q.Exec(ctx, query,
			it.ID, it.DocumentoID, it.RadicadoID, it.Codigo, it.Descripcion,
			it.Cantidad, it.ValorUnitario, it.Subtotal, it.Orden,
		); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	return nil
}

// ListItemsByRadicado devuelve las líneas en el orden determinista del radicado.
func (r *DocumentoRepo) ListItemsByRadicado(radicadoID string) ([]entity.ItemFacturado, error) {
	query := `
		SELECT id, documento_id, radicado_id, codigo, descripcion,
		       cantidad, valor_unitario, subtotal, orden
		FROM items_facturados WHERE radicado_id = $1
		ORDER BY orden ASC`
	rows, err := r.q.Query(context.Background(), query, radicadoID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []entity.ItemFacturado
	for rows.Next() {
		var it entity.ItemFacturado
		if err := rows.Scan(
			&it.ID, &it.DocumentoID, &it.RadicadoID, &it.Codigo, &it.Descripcion,
			&it.Cantidad, &it.ValorUnitario, &it.Subtotal, &it.Orden,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
