package repository

import "github.com/medisalud/liquidacion-api/internal/domain/entity"

// RadicadoRepository define el puerto de persistencia para Radicado.
type RadicadoRepository interface {
	Create(radicado *entity.Radicado) error
	GetByID(id string) (*entity.Radicado, error)
	GetByNumero(numero string) (*entity.Radicado, error)
	List(limit, offset int) ([]*entity.Radicado, error)
	// Update persiste estado, valores, rango, contadores, mensajes y referencias de reporte.
	Update(radicado *entity.Radicado) error
	// Delete elimina el radicado y en cascada sus documentos, ítems, glosas y resultados.
	Delete(id string) error
}
