package liquidacion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/medisalud/liquidacion-api/internal/application/dto"
	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	liqdom "github.com/medisalud/liquidacion-api/internal/domain/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

// Config parámetros de corrida del orquestador.
type Config struct {
	ExtractorWorkers int           // concurrencia de extracción por corrida
	ContratoTimeout  time.Duration // timeout de la consulta de valor contratado
}

// Orquestador secuencia una corrida de liquidación:
// extracción → evaluación → agregación → reporte → persistencia atómica.
type Orquestador struct {
	txRunner      TxRunner
	radicadoRepo  repository.RadicadoRepository
	documentoRepo repository.DocumentoRepository
	reglaRepo     repository.ReglaRepository
	resultadoRepo repository.ResultadoRepository
	artifacts     repository.ArtifactStore
	extractor     Extractor
	reporte       GeneradorReporte
	anexo         GeneradorAnexo
	contratos     ValorContratadoLookup // opcional: nil = sin consulta externa
	lease         Lease
	cfg           Config
	log           *logger.Logger
}

// NewOrquestador construye el orquestador.
func NewOrquestador(
	txRunner TxRunner,
	radicadoRepo repository.RadicadoRepository,
	documentoRepo repository.DocumentoRepository,
	reglaRepo repository.ReglaRepository,
	resultadoRepo repository.ResultadoRepository,
	artifacts repository.ArtifactStore,
	extractor Extractor,
	reporte GeneradorReporte,
	anexo GeneradorAnexo,
	contratos ValorContratadoLookup,
	lease Lease,
	cfg Config,
	log *logger.Logger,
) *Orquestador {
	if cfg.ExtractorWorkers <= 0 {
		cfg.ExtractorWorkers = 4
	}
	if cfg.ContratoTimeout <= 0 {
		cfg.ContratoTimeout = 3 * time.Second
	}
	return &Orquestador{
		txRunner:      txRunner,
		radicadoRepo:  radicadoRepo,
		documentoRepo: documentoRepo,
		reglaRepo:     reglaRepo,
		resultadoRepo: resultadoRepo,
		artifacts:     artifacts,
		extractor:     extractor,
		reporte:       reporte,
		anexo:         anexo,
		contratos:     contratos,
		lease:         lease,
		cfg:           cfg,
		log:           log,
	}
}

// Liquidar ejecuta una corrida completa para el radicado.
//
// Reglas de la corrida:
//   - A lo sumo una corrida activa por radicado; la segunda recibe ErrOcupado.
//   - Re-liquidar descarta el resultado vigente no finalizado y recalcula de
//     cero (acumular duplicaría deducciones entre corridas).
//   - Cancelación antes de la persistencia final deja el radicado en su estado
//     previo; no queda resultado parcial.
func (o *Orquestador) Liquidar(ctx context.Context, radicadoID string) (*dto.ResultadoResponse, error) {
	if !o.lease.Acquire(radicadoID) {
		return nil, domain.ErrOcupado
	}
	defer o.lease.Release(radicadoID)

	rad, err := o.radicadoRepo.GetByID(radicadoID)
	if err != nil {
		return nil, err
	}
	if rad == nil {
		return nil, domain.ErrNotFound
	}
	if !rad.PuedeLiquidarse() {
		return nil, fmt.Errorf("%w: estado %s", domain.ErrEstadoInvalido, rad.Estado)
	}
	if rad.NumeroRadicado == "" || rad.EPS == "" || rad.NIT == "" {
		return nil, fmt.Errorf("%w: faltan campos obligatorios", domain.ErrValidacion)
	}

	docs, err := o.documentoRepo.ListByRadicado(radicadoID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		// Falla cerrada: sin documentos no hay transición de estado.
		return nil, fmt.Errorf("%w: el radicado no tiene documentos adjuntos", domain.ErrValidacion)
	}

	estadoInicial := rad.Estado
	var mensajes []string

	rad.Estado = entity.EstadoEnProceso
	rad.UpdatedAt = time.Now()
	if err := o.radicadoRepo.Update(rad); err != nil {
		return nil, err
	}

	revertir := func(estado string) {
		rad.Estado = estado
		rad.Mensajes = mensajes
		rad.UpdatedAt = time.Now()
		if err := o.radicadoRepo.Update(rad); err != nil {
			o.log.Error().Err(err).Str("radicado", radicadoID).Msg("revertir estado tras corrida fallida")
		}
	}

	// Valor contratado: colaborador externo con degradación por timeout.
	if o.contratos != nil {
		if msg := o.actualizarValorContratado(ctx, rad); msg != "" {
			mensajes = append(mensajes, msg)
		}
	}

	// Extracción concurrente acotada; los resultados se indexan por la posición
	// del documento para que el orden de finalización no altere el orden de las
	// líneas que ve el evaluador.
	resultados, err := o.extraerDocumentos(ctx, docs)
	if err != nil {
		revertir(estadoInicial)
		return nil, err
	}

	items := make([]entity.ItemFacturado, 0)
	orden := 0
	for i, doc := range docs {
		res := resultados[i]
		doc.Diagnosticos = res.Diagnosticos
		if res.Exitosa {
			doc.EstadoExtraccion = entity.ExtraccionExitosa
		} else {
			doc.EstadoExtraccion = entity.ExtraccionFallida
			mensajes = append(mensajes, fmt.Sprintf("documento %q: extracción fallida", doc.Nombre))
		}
		mensajes = append(mensajes, res.Diagnosticos...)
		if err := o.documentoRepo.UpdateExtraccion(doc); err != nil {
			revertir(estadoInicial)
			return nil, err
		}
		for _, it := range res.Items {
			it.ID = uuid.New().String()
			it.DocumentoID = doc.ID
			it.RadicadoID = radicadoID
			it.Orden = orden
			orden++
			items = append(items, it)
		}
	}

	if len(items) == 0 {
		// Todos los documentos fallaron: la cuenta se rechaza con diagnóstico.
		mensajes = append(mensajes, "ningún documento produjo líneas facturadas; radicado rechazado")
		revertir(entity.EstadoRechazado)
		return nil, fmt.Errorf("%w: ningún documento legible", domain.ErrExtraccion)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	rad.ValorTotal = total
	rad.Rango = liqdom.ClasificarRango(rad.ValorControlante())
	rad.Estado = entity.EstadoValidado
	rad.UpdatedAt = time.Now()
	if err := o.radicadoRepo.Update(rad); err != nil {
		return nil, err
	}

	// Snapshot inmutable de reglas para el rango al inicio de la evaluación.
	snapshot, err := o.reglaRepo.SnapshotPorRango(rad.Rango)
	if err != nil {
		revertir(entity.EstadoValidado)
		return nil, err
	}

	agregado := liqdom.Agregado{
		RadicadoID:      radicadoID,
		ValorTotal:      rad.ValorTotal,
		ValorContratado: rad.ValorContratado,
		Rango:           rad.Rango,
	}
	evaluacion, err := liqdom.Evaluar(items, agregado, snapshot)
	if err != nil {
		mensajes = append(mensajes, err.Error())
		revertir(entity.EstadoValidado)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		// Cancelación tras la evaluación pero antes de persistir: se vuelve al
		// estado previo a la corrida, sin resultado parcial.
		revertir(estadoInicial)
		return nil, err
	}

	glosado, aPagar := liqdom.Totalizar(rad.ValorTotal, evaluacion.Glosas)
	resultado := &entity.ResultadoLiquidacion{
		ID:              uuid.New().String(),
		RadicadoID:      radicadoID,
		ValorFacturado:  rad.ValorTotal,
		ValorGlosado:    glosado,
		ValorAPagar:     aPagar,
		ReglasAplicadas: evaluacion.ReglasAplicadas,
		Glosas:          evaluacion.Glosas,
		Vigente:         true,
		FechaEvaluacion: time.Now(),
	}
	for i := range resultado.Glosas {
		resultado.Glosas[i].ID = uuid.New().String()
	}
	mensajes = append(mensajes, fmt.Sprintf("liquidación calculada: %d ítems, %d glosas", len(items), len(resultado.Glosas)))

	// Reporte: la conciliación se verifica antes de emitir; un descuadre es
	// fatal y el radicado queda sin finalizar.
	xlsx, err := o.reporte.Generar(resultado, rad, items)
	if err != nil {
		mensajes = append(mensajes, err.Error())
		revertir(entity.EstadoValidado)
		return nil, err
	}
	reporteID, err := o.artifacts.Store(
		fmt.Sprintf("liquidacion_%s.xlsx", rad.NumeroRadicado),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		xlsx,
	)
	if err != nil {
		revertir(entity.EstadoValidado)
		return nil, err
	}
	resultado.ExcelGenerado = true
	resultado.ReporteID = reporteID

	// Anexo XML de glosas: complementario, su falla no tumba la corrida.
	if o.anexo != nil {
		if xml, err := o.anexo.Generar(resultado, rad); err != nil {
			mensajes = append(mensajes, "anexo XML de glosas no generado: "+err.Error())
		} else if _, err := o.artifacts.Store(
			fmt.Sprintf("glosas_%s.xml", rad.NumeroRadicado), "application/xml", xml,
		); err != nil {
			mensajes = append(mensajes, "anexo XML de glosas no almacenado: "+err.Error())
		}
	}

	estadoFinal := entity.EstadoLiquidado
	if len(resultado.Glosas) > 0 {
		estadoFinal = entity.EstadoConGlosas
	}
	resultado.Mensajes = mensajes

	rad.Estado = estadoFinal
	rad.NumGlosas = len(resultado.Glosas)
	rad.ExcelGenerado = true
	rad.ReporteID = reporteID
	rad.Mensajes = mensajes
	rad.UpdatedAt = time.Now()

	// Persistencia atómica: resultado anterior invalidado, ítems reemplazados,
	// resultado nuevo con glosas y radicado actualizado, todo o nada.
	err = o.txRunner.RunLiquidacion(ctx, func(
		radicadoRepo repository.RadicadoRepository,
		documentoRepo repository.DocumentoRepository,
		resultadoRepo repository.ResultadoRepository,
	) error {
		if err := resultadoRepo.InvalidarVigente(radicadoID); err != nil {
			return err
		}
		if err := documentoRepo.ReplaceItems(radicadoID, items); err != nil {
			return err
		}
		if err := resultadoRepo.Create(resultado); err != nil {
			return err
		}
		return radicadoRepo.Update(rad)
	})
	if err != nil {
		revertir(estadoInicial)
		return nil, err
	}

	o.log.Info().
		Str("radicado", radicadoID).
		Str("estado", estadoFinal).
		Str("valor_glosado", glosado.StringFixed(2)).
		Str("valor_a_pagar", aPagar.StringFixed(2)).
		Msg("liquidación completada")

	return toResultadoResponse(resultado), nil
}

// Finalizar cierra el radicado: no se admiten más corridas (reabrir equivale a
// crear una nueva versión del caso, fuera de este núcleo).
func (o *Orquestador) Finalizar(radicadoID string) (*dto.RadicadoResponse, error) {
	rad, err := o.radicadoRepo.GetByID(radicadoID)
	if err != nil || rad == nil {
		return nil, domain.ErrNotFound
	}
	if !rad.PuedeFinalizarse() {
		return nil, fmt.Errorf("%w: estado %s", domain.ErrEstadoInvalido, rad.Estado)
	}
	rad.Estado = entity.EstadoFinalizado
	rad.UpdatedAt = time.Now()
	if err := o.radicadoRepo.Update(rad); err != nil {
		return nil, err
	}
	return &dto.RadicadoResponse{ID: rad.ID, NumeroRadicado: rad.NumeroRadicado, Estado: rad.Estado}, nil
}

// ObtenerResultado devuelve el resultado vigente del radicado.
func (o *Orquestador) ObtenerResultado(radicadoID string) (*dto.ResultadoResponse, error) {
	rad, err := o.radicadoRepo.GetByID(radicadoID)
	if err != nil || rad == nil {
		return nil, domain.ErrNotFound
	}
	res, err := o.resultadoRepo.VigentePorRadicado(radicadoID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrSinResultado
	}
	return toResultadoResponse(res), nil
}

// Reporte devuelve el artefacto XLSX vigente del radicado.
func (o *Orquestador) Reporte(radicadoID string) (nombre, contentType string, contenido []byte, err error) {
	rad, err := o.radicadoRepo.GetByID(radicadoID)
	if err != nil || rad == nil {
		return "", "", nil, domain.ErrNotFound
	}
	if rad.ReporteID == "" {
		return "", "", nil, domain.ErrSinResultado
	}
	return o.artifacts.Fetch(rad.ReporteID)
}

// actualizarValorContratado consulta el valor pactado con timeout. Un timeout o
// error se degrada a diagnóstico y la corrida continúa con el último valor conocido.
func (o *Orquestador) actualizarValorContratado(ctx context.Context, rad *entity.Radicado) string {
	lookupCtx, cancel := context.WithTimeout(ctx, o.cfg.ContratoTimeout)
	defer cancel()

	valor, err := o.contratos.ValorContratado(lookupCtx, rad.NIT, rad.NumeroRadicado)
	if err != nil {
		o.log.Warn().Err(err).Str("radicado", rad.ID).Msg("consulta de valor contratado degradada")
		return fmt.Sprintf("consulta de valor contratado falló (%v); se usa el último valor conocido %s",
			err, rad.ValorContratado.StringFixed(2))
	}
	if valor.GreaterThan(decimal.Zero) {
		rad.ValorContratado = valor
	}
	return ""
}

// extraerDocumentos corre el extractor sobre cada documento con un pool acotado.
// La posición en el slice de salida replica la posición del documento, así el
// orden de finalización concurrente no afecta el orden de las líneas.
func (o *Orquestador) extraerDocumentos(ctx context.Context, docs []*entity.Documento) ([]ResultadoExtraccion, error) {
	resultados := make([]ResultadoExtraccion, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ExtractorWorkers)

	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			contenido, err := o.documentoRepo.GetContenido(doc.ID)
			if err != nil {
				resultados[i] = ResultadoExtraccion{
					Diagnosticos: []string{fmt.Sprintf("documento %q: contenido no disponible: %v", doc.Nombre, err)},
				}
				return nil
			}
			resultados[i] = o.extractor.Extraer(gctx, doc, contenido)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resultados, nil
}

func toResultadoResponse(r *entity.ResultadoLiquidacion) *dto.ResultadoResponse {
	out := &dto.ResultadoResponse{
		ID:              r.ID,
		RadicadoID:      r.RadicadoID,
		ValorFacturado:  r.ValorFacturado,
		ValorGlosado:    r.ValorGlosado,
		ValorAPagar:     r.ValorAPagar,
		Mensajes:        r.Mensajes,
		ExcelGenerado:   r.ExcelGenerado,
		FechaEvaluacion: r.FechaEvaluacion.Format(time.RFC3339),
	}
	for _, ra := range r.ReglasAplicadas {
		out.ReglasAplicadas = append(out.ReglasAplicadas, dto.ReglaAplicadaResponse{
			ReglaID: ra.ReglaID, Version: ra.Version, Nombre: ra.Nombre,
		})
	}
	for _, g := range r.Glosas {
		out.Glosas = append(out.Glosas, dto.GlosaResponse{
			ID: g.ID, ItemID: g.ItemID, ReglaID: g.ReglaID, ReglaVersion: g.ReglaVersion,
			Valor: g.Valor, Justificacion: g.Justificacion,
		})
	}
	return out
}
