package repository

import "github.com/medisalud/liquidacion-api/internal/domain/entity"

// DocumentoRepository define el puerto de persistencia para documentos soporte y sus líneas.
type DocumentoRepository interface {
	Create(doc *entity.Documento, contenido []byte) error
	GetByID(id string) (*entity.Documento, error)
	// GetContenido devuelve los bytes crudos del documento.
	GetContenido(id string) ([]byte, error)
	// ListByRadicado devuelve los documentos en orden de adjunción (Orden asc).
	ListByRadicado(radicadoID string) ([]*entity.Documento, error)
	// UpdateExtraccion persiste estado y diagnósticos de la última extracción.
	UpdateExtraccion(doc *entity.Documento) error

	// ReplaceItems borra las líneas anteriores del radicado e inserta las nuevas
	// (una re-liquidación reemplaza, nunca acumula).
	ReplaceItems(radicadoID string, items []entity.ItemFacturado) error
	// ListItemsByRadicado devuelve las líneas en orden determinista (Orden asc).
	ListItemsByRadicado(radicadoID string) ([]entity.ItemFacturado, error)
}
