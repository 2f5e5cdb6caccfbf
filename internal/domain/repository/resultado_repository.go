package repository

import "github.com/medisalud/liquidacion-api/internal/domain/entity"

// ResultadoRepository define el puerto de persistencia para resultados de liquidación y glosas.
type ResultadoRepository interface {
	// Create inserta el resultado con sus glosas y lo marca vigente.
	Create(resultado *entity.ResultadoLiquidacion) error
	// VigentePorRadicado devuelve el resultado vigente, nil si no existe.
	VigentePorRadicado(radicadoID string) (*entity.ResultadoLiquidacion, error)
	// InvalidarVigente marca como no vigente el resultado actual no finalizado.
	// El registro se conserva para auditoría, nunca se edita ni se borra.
	InvalidarVigente(radicadoID string) error
}

// ArtifactStore define el puerto de almacenamiento de artefactos (reportes XLSX,
// anexos XML, actas PDF) accedidos por identificador.
type ArtifactStore interface {
	Store(nombre, contentType string, contenido []byte) (string, error)
	Fetch(id string) (nombre string, contentType string, contenido []byte, err error)
}
