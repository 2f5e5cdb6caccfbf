package repository

import "github.com/medisalud/liquidacion-api/internal/domain/entity"

// ReglaRepository define el puerto de lectura/escritura de reglas de glosa.
// El motor solo consume snapshots inmutables; la autoría de reglas es una
// superficie CRUD aparte que versiona en lugar de mutar.
type ReglaRepository interface {
	// SnapshotPorRango devuelve la última versión activa de cada regla aplicable
	// a la banda dada. El snapshot se toma al inicio de la corrida: reglas
	// agregadas después no afectan una evaluación en vuelo.
	SnapshotPorRango(rango int) ([]entity.Regla, error)
	// GetVersion devuelve una versión puntual (auditoría de glosas históricas).
	GetVersion(id string, version int) (*entity.Regla, error)
	// Create inserta una nueva versión de la regla (append-only).
	Create(regla *entity.Regla) error
}
