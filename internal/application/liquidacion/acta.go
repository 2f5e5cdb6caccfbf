package liquidacion

import (
	"context"

	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

// ActaPDFGenerator genera la representación gráfica del acta de liquidación.
type ActaPDFGenerator interface {
	GenerarActaPDF(ctx context.Context, radicado *entity.Radicado, resultado *entity.ResultadoLiquidacion, items []entity.ItemFacturado) ([]byte, error)
}

// ActaUseCase produce el acta PDF del resultado vigente de un radicado.
type ActaUseCase struct {
	radicadoRepo  repository.RadicadoRepository
	documentoRepo repository.DocumentoRepository
	resultadoRepo repository.ResultadoRepository
	generador     ActaPDFGenerator
}

// NewActaUseCase construye el caso de uso.
func NewActaUseCase(
	radicadoRepo repository.RadicadoRepository,
	documentoRepo repository.DocumentoRepository,
	resultadoRepo repository.ResultadoRepository,
	generador ActaPDFGenerator,
) *ActaUseCase {
	return &ActaUseCase{
		radicadoRepo:  radicadoRepo,
		documentoRepo: documentoRepo,
		resultadoRepo: resultadoRepo,
		generador:     generador,
	}
}

// GenerarActa devuelve los bytes del acta PDF del resultado vigente.
func (uc *ActaUseCase) GenerarActa(ctx context.Context, radicadoID string) ([]byte, error) {
	rad, err := uc.radicadoRepo.GetByID(radicadoID)
	if err != nil || rad == nil {
		return nil, domain.ErrNotFound
	}
	resultado, err := uc.resultadoRepo.VigentePorRadicado(radicadoID)
	if err != nil {
		return nil, err
	}
	if resultado == nil {
		return nil, domain.ErrSinResultado
	}
	items, err := uc.documentoRepo.ListItemsByRadicado(radicadoID)
	if err != nil {
		return nil, err
	}
	return uc.generador.GenerarActaPDF(ctx, rad, resultado, items)
}
