package reglas

import (
	"github.com/medisalud/liquidacion-api/internal/application/dto"
	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

// UseCase expone el snapshot de reglas en modo lectura. La autoría de reglas es
// una superficie CRUD aparte; el motor solo consume snapshots inmutables.
type UseCase struct {
	reglaRepo repository.ReglaRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(reglaRepo repository.ReglaRepository) *UseCase {
	return &UseCase{reglaRepo: reglaRepo}
}

// SnapshotPorRango devuelve la última versión activa de cada regla de la banda.
func (uc *UseCase) SnapshotPorRango(rango int) ([]*dto.ReglaResponse, error) {
	if rango < 1 || rango > 4 {
		return nil, domain.ErrInvalidInput
	}
	reglas, err := uc.reglaRepo.SnapshotPorRango(rango)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ReglaResponse, 0, len(reglas))
	for _, r := range reglas {
		out = append(out, &dto.ReglaResponse{
			ID:            r.ID,
			Version:       r.Version,
			Nombre:        r.Nombre,
			Justificacion: r.Justificacion,
			Rangos:        r.Rangos,
			Prioridad:     r.Prioridad,
			Ambito:        r.Ambito,
			Campo:         r.Condicion.Campo,
			Operador:      r.Condicion.Operador,
			ValorCond:     r.Condicion.Valor,
			Codigo:        r.Condicion.Codigo,
			Politica:      r.Politica.Tipo,
			ValorPolitica: r.Politica.Valor,
			Activa:        r.Activa,
		})
	}
	return out, nil
}
