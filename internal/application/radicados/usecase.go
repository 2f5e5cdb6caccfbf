package radicados

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medisalud/liquidacion-api/internal/application/dto"
	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

// UseCase maneja el ciclo de vida CRUD del radicado y la adjunción de documentos.
type UseCase struct {
	radicadoRepo  repository.RadicadoRepository
	documentoRepo repository.DocumentoRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(radicadoRepo repository.RadicadoRepository, documentoRepo repository.DocumentoRepository) *UseCase {
	return &UseCase{radicadoRepo: radicadoRepo, documentoRepo: documentoRepo}
}

// Crear registra un radicado nuevo en estado PENDIENTE.
// El rango se deriva del valor controlante; nunca viene en la petición.
func (uc *UseCase) Crear(creadoPor string, in dto.CreateRadicadoRequest) (*dto.RadicadoResponse, error) {
	if in.NumeroRadicado == "" || in.EPS == "" || in.NIT == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.ValorContratado.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if existente, _ := uc.radicadoRepo.GetByNumero(in.NumeroRadicado); existente != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	rad := &entity.Radicado{
		ID:              uuid.New().String(),
		NumeroRadicado:  in.NumeroRadicado,
		EPS:             in.EPS,
		NIT:             in.NIT,
		RazonSocial:     in.RazonSocial,
		ValorContratado: in.ValorContratado,
		ValorTotal:      decimal.Zero,
		Estado:          entity.EstadoPendiente,
		CreadoPor:       creadoPor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	rad.Rango = liquidacion.ClasificarRango(rad.ValorControlante())

	if err := uc.radicadoRepo.Create(rad); err != nil {
		return nil, err
	}
	return toRadicadoResponse(rad), nil
}

// Adjuntar agrega un documento soporte al radicado. Solo se admite sobre
// radicados que aún pueden liquidarse.
func (uc *UseCase) Adjuntar(radicadoID string, in dto.AdjuntarDocumentoRequest) (*dto.DocumentoResponse, error) {
	if in.Nombre == "" || in.ContenidoBase64 == "" {
		return nil, domain.ErrInvalidInput
	}
	formato := in.Formato
	if formato != entity.FormatoPDF && formato != entity.FormatoTexto {
		return nil, domain.ErrInvalidInput
	}
	contenido, err := base64.StdEncoding.DecodeString(in.ContenidoBase64)
	if err != nil || len(contenido) == 0 {
		return nil, domain.ErrInvalidInput
	}

	rad, err := uc.radicadoRepo.GetByID(radicadoID)
	if err != nil || rad == nil {
		return nil, domain.ErrNotFound
	}
	if !rad.PuedeLiquidarse() {
		return nil, domain.ErrEstadoInvalido
	}

	doc := &entity.Documento{
		ID:               uuid.New().String(),
		RadicadoID:       radicadoID,
		Nombre:           in.Nombre,
		Formato:          formato,
		Orden:            rad.NumDocumentos,
		EstadoExtraccion: entity.ExtraccionPendiente,
		CreatedAt:        time.Now(),
	}
	if err := uc.documentoRepo.Create(doc, contenido); err != nil {
		return nil, err
	}

	rad.NumDocumentos++
	rad.UpdatedAt = time.Now()
	if err := uc.radicadoRepo.Update(rad); err != nil {
		return nil, err
	}
	return toDocumentoResponse(doc), nil
}

// Obtener devuelve un radicado por ID.
func (uc *UseCase) Obtener(id string) (*dto.RadicadoResponse, error) {
	rad, err := uc.radicadoRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rad == nil {
		return nil, domain.ErrNotFound
	}
	return toRadicadoResponse(rad), nil
}

// Listar devuelve una página de radicados.
func (uc *UseCase) Listar(page dto.PageRequest) ([]*dto.RadicadoResponse, error) {
	page.DefaultPage()
	rads, err := uc.radicadoRepo.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.RadicadoResponse, 0, len(rads))
	for _, r := range rads {
		out = append(out, toRadicadoResponse(r))
	}
	return out, nil
}

// Documentos lista los documentos soporte del radicado en orden de adjunción.
func (uc *UseCase) Documentos(radicadoID string) ([]*dto.DocumentoResponse, error) {
	rad, err := uc.radicadoRepo.GetByID(radicadoID)
	if err != nil || rad == nil {
		return nil, domain.ErrNotFound
	}
	docs, err := uc.documentoRepo.ListByRadicado(radicadoID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentoResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentoResponse(d))
	}
	return out, nil
}

// Eliminar borra el radicado y en cascada documentos, ítems, glosas y resultados.
func (uc *UseCase) Eliminar(id string) error {
	rad, err := uc.radicadoRepo.GetByID(id)
	if err != nil || rad == nil {
		return domain.ErrNotFound
	}
	return uc.radicadoRepo.Delete(id)
}

func toRadicadoResponse(r *entity.Radicado) *dto.RadicadoResponse {
	return &dto.RadicadoResponse{
		ID:              r.ID,
		NumeroRadicado:  r.NumeroRadicado,
		EPS:             r.EPS,
		NIT:             r.NIT,
		RazonSocial:     r.RazonSocial,
		ValorContratado: r.ValorContratado,
		ValorTotal:      r.ValorTotal,
		Rango:           r.Rango,
		Estado:          r.Estado,
		NumDocumentos:   r.NumDocumentos,
		NumGlosas:       r.NumGlosas,
		ExcelGenerado:   r.ExcelGenerado,
		Mensajes:        r.Mensajes,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
}

func toDocumentoResponse(d *entity.Documento) *dto.DocumentoResponse {
	return &dto.DocumentoResponse{
		ID:               d.ID,
		RadicadoID:       d.RadicadoID,
		Nombre:           d.Nombre,
		Formato:          d.Formato,
		Orden:            d.Orden,
		EstadoExtraccion: d.EstadoExtraccion,
		Diagnosticos:     d.Diagnosticos,
	}
}
