package liquidacion_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appliq "github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

// ── Fakes en memoria ──────────────────────────────────────────────────────────

type memRadicadoRepo struct {
	mu   sync.Mutex
	rows map[string]entity.Radicado
}

func newMemRadicadoRepo() *memRadicadoRepo {
	return &memRadicadoRepo{rows: make(map[string]entity.Radicado)}
}

func (m *memRadicadoRepo) Create(r *entity.Radicado) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = *r
	return nil
}

func (m *memRadicadoRepo) GetByID(id string) (*entity.Radicado, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := r
	return &cp, nil
}

func (m *memRadicadoRepo) GetByNumero(numero string) (*entity.Radicado, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.NumeroRadicado == numero {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRadicadoRepo) List(limit, offset int) ([]*entity.Radicado, error) { return nil, nil }

func (m *memRadicadoRepo) Update(r *entity.Radicado) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = *r
	return nil
}

func (m *memRadicadoRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type memDocumentoRepo struct {
	mu         sync.Mutex
	docs       map[string]entity.Documento
	contenidos map[string][]byte
	items      map[string][]entity.ItemFacturado // por radicado
}

func newMemDocumentoRepo() *memDocumentoRepo {
	return &memDocumentoRepo{
		docs:       make(map[string]entity.Documento),
		contenidos: make(map[string][]byte),
		items:      make(map[string][]entity.ItemFacturado),
	}
}

func (m *memDocumentoRepo) Create(d *entity.Documento, contenido []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = *d
	m.contenidos[d.ID] = contenido
	return nil
}

func (m *memDocumentoRepo) GetByID(id string) (*entity.Documento, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	cp := d
	return &cp, nil
}

func (m *memDocumentoRepo) GetContenido(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contenidos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *memDocumentoRepo) ListByRadicado(radicadoID string) ([]*entity.Documento, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Documento
	for _, d := range m.docs {
		if d.RadicadoID == radicadoID {
			cp := d
			out = append(out, &cp)
		}
	}
	// orden de adjunción
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Orden < out[i].Orden {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memDocumentoRepo) UpdateExtraccion(d *entity.Documento) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = *d
	return nil
}

func (m *memDocumentoRepo) ReplaceItems(radicadoID string, items []entity.ItemFacturado) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[radicadoID] = append([]entity.ItemFacturado(nil), items...)
	return nil
}

func (m *memDocumentoRepo) ListItemsByRadicado(radicadoID string) ([]entity.ItemFacturado, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.ItemFacturado(nil), m.items[radicadoID]...), nil
}

type memReglaRepo struct{ reglas []entity.Regla }

func (m *memReglaRepo) SnapshotPorRango(rango int) ([]entity.Regla, error) {
	var out []entity.Regla
	for _, r := range m.reglas {
		if r.Activa && r.AplicaARango(rango) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReglaRepo) GetVersion(id string, version int) (*entity.Regla, error) { return nil, nil }
func (m *memReglaRepo) Create(r *entity.Regla) error {
	m.reglas = append(m.reglas, *r)
	return nil
}

type memResultadoRepo struct {
	mu   sync.Mutex
	rows []entity.ResultadoLiquidacion
}

func (m *memResultadoRepo) Create(r *entity.ResultadoLiquidacion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memResultadoRepo) VigentePorRadicado(radicadoID string) (*entity.ResultadoLiquidacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].RadicadoID == radicadoID && m.rows[i].Vigente {
			cp := m.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memResultadoRepo) InvalidarVigente(radicadoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].RadicadoID == radicadoID && m.rows[i].Vigente {
			m.rows[i].Vigente = false
		}
	}
	return nil
}

type memArtifacts struct {
	mu   sync.Mutex
	rows map[string][]byte
}

func newMemArtifacts() *memArtifacts { return &memArtifacts{rows: make(map[string][]byte)} }

func (m *memArtifacts) Store(nombre, contentType string, contenido []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.rows[id] = contenido
	return id, nil
}

func (m *memArtifacts) Fetch(id string) (string, string, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return "", "", nil, domain.ErrNotFound
	}
	return "artefacto", "application/octet-stream", c, nil
}

// extractorLineas parsea contenidos "codigo;descripcion;cantidad;valor" por
// línea. Un contenido que empieza por "CORRUPTO" simula un documento ilegible.
// bloqueo, si no es nil, retiene cada extracción hasta que el canal se cierre;
// iniciado se cierra una sola vez al entrar la primera extracción.
type extractorLineas struct {
	bloqueo  chan struct{}
	iniciado chan struct{}
	una      sync.Once
}

func (e *extractorLineas) Extraer(ctx context.Context, doc *entity.Documento, contenido []byte) appliq.ResultadoExtraccion {
	if e.iniciado != nil {
		e.una.Do(func() { close(e.iniciado) })
	}
	if e.bloqueo != nil {
		select {
		case <-e.bloqueo:
		case <-ctx.Done():
			return appliq.ResultadoExtraccion{Diagnosticos: []string{"extracción cancelada"}}
		}
	}
	texto := string(contenido)
	if strings.HasPrefix(texto, "CORRUPTO") {
		return appliq.ResultadoExtraccion{
			Diagnosticos: []string{fmt.Sprintf("documento %q: contenido ilegible", doc.Nombre)},
		}
	}
	var items []entity.ItemFacturado
	for _, linea := range strings.Split(strings.TrimSpace(texto), "\n") {
		partes := strings.Split(linea, ";")
		if len(partes) != 4 {
			continue
		}
		cantidad, err1 := decimal.NewFromString(partes[2])
		valor, err2 := decimal.NewFromString(partes[3])
		if err1 != nil || err2 != nil {
			continue
		}
		items = append(items, entity.NuevoItem(partes[0], partes[1], cantidad, valor))
	}
	return appliq.ResultadoExtraccion{Items: items, Exitosa: true}
}

// reporteStub emite bytes fijos; con fallar=true simula un descuadre de conciliación.
type reporteStub struct{ fallar bool }

func (r *reporteStub) Generar(res *entity.ResultadoLiquidacion, rad *entity.Radicado, items []entity.ItemFacturado) ([]byte, error) {
	if r.fallar {
		return nil, domain.ErrConciliacion
	}
	return []byte("xlsx"), nil
}

type txDirecto struct {
	radicadoRepo  repository.RadicadoRepository
	documentoRepo repository.DocumentoRepository
	resultadoRepo repository.ResultadoRepository
}

func (t *txDirecto) RunLiquidacion(ctx context.Context, fn func(
	repository.RadicadoRepository,
	repository.DocumentoRepository,
	repository.ResultadoRepository,
) error) error {
	return fn(t.radicadoRepo, t.documentoRepo, t.resultadoRepo)
}

// ── Armado del escenario ──────────────────────────────────────────────────────

type banco struct {
	radicados  *memRadicadoRepo
	documentos *memDocumentoRepo
	reglas     *memReglaRepo
	resultados *memResultadoRepo
	artifacts  *memArtifacts
	extractor  *extractorLineas
	reporte    *reporteStub
	orq        *appliq.Orquestador
}

func armarBanco(t *testing.T, reglas []entity.Regla) *banco {
	t.Helper()
	b := &banco{
		radicados:  newMemRadicadoRepo(),
		documentos: newMemDocumentoRepo(),
		reglas:     &memReglaRepo{reglas: reglas},
		resultados: &memResultadoRepo{},
		artifacts:  newMemArtifacts(),
		extractor:  &extractorLineas{},
		reporte:    &reporteStub{},
	}
	b.orq = appliq.NewOrquestador(
		&txDirecto{b.radicados, b.documentos, b.resultados},
		b.radicados, b.documentos, b.reglas, b.resultados, b.artifacts,
		b.extractor, b.reporte, nil, nil,
		appliq.NewLeaseLocal(),
		appliq.Config{ExtractorWorkers: 2, ContratoTimeout: time.Second},
		logger.Nop(),
	)
	return b
}

func (b *banco) crearRadicado(t *testing.T, contratado int64) *entity.Radicado {
	t.Helper()
	rad := &entity.Radicado{
		ID:              uuid.New().String(),
		NumeroRadicado:  "RAD-" + uuid.New().String()[:8],
		EPS:             "EPS-001",
		NIT:             "900123456",
		RazonSocial:     "IPS Prueba",
		ValorContratado: decimal.NewFromInt(contratado),
		Estado:          entity.EstadoPendiente,
	}
	require.NoError(t, b.radicados.Create(rad))
	return rad
}

func (b *banco) adjuntar(t *testing.T, rad *entity.Radicado, nombre, contenido string) {
	t.Helper()
	doc := &entity.Documento{
		ID:               uuid.New().String(),
		RadicadoID:       rad.ID,
		Nombre:           nombre,
		Formato:          entity.FormatoTexto,
		Orden:            rad.NumDocumentos,
		EstadoExtraccion: entity.ExtraccionPendiente,
	}
	require.NoError(t, b.documentos.Create(doc, []byte(contenido)))
	rad.NumDocumentos++
	require.NoError(t, b.radicados.Update(rad))
}

func reglaTopeContratado() entity.Regla {
	return entity.Regla{
		ID: "R-TOPE", Version: 1, Nombre: "tope al valor contratado",
		Justificacion: "valor facturado excede el valor contratado",
		Rangos:        []int{1, 2, 3, 4}, Prioridad: 10,
		Ambito: entity.AmbitoItem,
		Condicion: entity.Condicion{
			Campo: entity.CampoSubtotal, Operador: entity.OperadorGT, Valor: decimal.Zero,
		},
		Politica: entity.Politica{Tipo: entity.PoliticaTope},
		Activa:   true,
	}
}

// ── Escenarios ────────────────────────────────────────────────────────────────

// Escenario A: valor contratado 80.000, un documento con una línea de 90.000 y
// regla de tope al valor contratado. Glosa 10.000, a pagar 80.000.
func TestLiquidar_TopeAlValorContratado(t *testing.T) {
	b := armarBanco(t, []entity.Regla{reglaTopeContratado()})
	rad := b.crearRadicado(t, 80_000)
	b.adjuntar(t, rad, "factura.txt", "890201;consulta especializada;1;90000")

	res, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.NoError(t, err)

	assert.True(t, res.ValorGlosado.Equal(decimal.NewFromInt(10_000)))
	assert.True(t, res.ValorAPagar.Equal(decimal.NewFromInt(80_000)))
	require.Len(t, res.Glosas, 1)
	assert.Equal(t, "R-TOPE", res.Glosas[0].ReglaID)

	actual, err := b.radicados.GetByID(rad.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoConGlosas, actual.Estado)
	assert.Equal(t, 1, actual.NumGlosas)
	assert.True(t, actual.ExcelGenerado)
}

// Escenario B: dos documentos, uno ilegible y otro con dos líneas por 200.000
// sin reglas aplicables. Estado LIQUIDADO, glosa 0, a pagar 200.000, un
// diagnóstico sobre el documento fallido.
func TestLiquidar_DocumentoFallidoNoEsFatal(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)
	b.adjuntar(t, rad, "escaneo.txt", "CORRUPTO")
	b.adjuntar(t, rad, "factura.txt", "890201;consulta;1;120000\n890305;laboratorio;2;40000")

	res, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.NoError(t, err)

	assert.True(t, res.ValorGlosado.Equal(decimal.Zero))
	assert.True(t, res.ValorAPagar.Equal(decimal.NewFromInt(200_000)))
	assert.Empty(t, res.Glosas)

	actual, _ := b.radicados.GetByID(rad.ID)
	assert.Equal(t, entity.EstadoLiquidado, actual.Estado)

	var diagnostico bool
	for _, m := range res.Mensajes {
		if strings.Contains(m, "escaneo.txt") {
			diagnostico = true
		}
	}
	assert.True(t, diagnostico, "debe quedar diagnóstico del documento fallido")
}

// Escenario C: liquidar sin documentos falla cerrado con ErrValidacion y el
// radicado permanece PENDIENTE.
func TestLiquidar_SinDocumentos(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)

	_, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.ErrorIs(t, err, domain.ErrValidacion)

	actual, _ := b.radicados.GetByID(rad.ID)
	assert.Equal(t, entity.EstadoPendiente, actual.Estado)
}

// Escenario D: dos llamadas concurrentes sobre el mismo radicado; la segunda
// recibe ErrOcupado de inmediato y la primera completa normal.
func TestLiquidar_CorridaConcurrenteRecibeOcupado(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)
	b.adjuntar(t, rad, "factura.txt", "890201;consulta;1;50000")

	b.extractor.bloqueo = make(chan struct{})
	b.extractor.iniciado = make(chan struct{})

	primera := make(chan error, 1)
	go func() {
		_, err := b.orq.Liquidar(context.Background(), rad.ID)
		primera <- err
	}()

	// Esperar a que la primera corrida tenga el lease y esté dentro de la extracción.
	<-b.extractor.iniciado

	_, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.True(t, errors.Is(err, domain.ErrOcupado), "la segunda corrida debe recibir busy, no encolarse")

	close(b.extractor.bloqueo)
	require.NoError(t, <-primera)

	actual, _ := b.radicados.GetByID(rad.ID)
	assert.Equal(t, entity.EstadoLiquidado, actual.Estado)
}

// Re-liquidar un radicado CON_GLOSAS sin cambios produce glosas y totales
// idénticos (idempotencia: se recalcula de cero, nunca se acumula).
func TestLiquidar_ReLiquidacionIdempotente(t *testing.T) {
	b := armarBanco(t, []entity.Regla{reglaTopeContratado()})
	rad := b.crearRadicado(t, 80_000)
	b.adjuntar(t, rad, "factura.txt", "890201;consulta especializada;1;90000")

	primero, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.NoError(t, err)

	segundo, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.NoError(t, err)

	assert.True(t, primero.ValorGlosado.Equal(segundo.ValorGlosado))
	assert.True(t, primero.ValorAPagar.Equal(segundo.ValorAPagar))
	require.Len(t, segundo.Glosas, len(primero.Glosas))
	for i := range primero.Glosas {
		assert.Equal(t, primero.Glosas[i].ReglaID, segundo.Glosas[i].ReglaID)
		assert.True(t, primero.Glosas[i].Valor.Equal(segundo.Glosas[i].Valor))
	}

	// Solo un resultado vigente; el anterior queda para auditoría.
	vigente, err := b.resultados.VigentePorRadicado(rad.ID)
	require.NoError(t, err)
	require.NotNil(t, vigente)
	assert.Equal(t, segundo.ID, vigente.ID)
	assert.Len(t, b.resultados.rows, 2)
}

// Todos los documentos ilegibles: el radicado se rechaza con diagnóstico.
func TestLiquidar_TodosLosDocumentosFallan(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)
	b.adjuntar(t, rad, "a.txt", "CORRUPTO")
	b.adjuntar(t, rad, "b.txt", "CORRUPTO")

	_, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.ErrorIs(t, err, domain.ErrExtraccion)

	actual, _ := b.radicados.GetByID(rad.ID)
	assert.Equal(t, entity.EstadoRechazado, actual.Estado)
	assert.NotEmpty(t, actual.Mensajes)
}

// Un descuadre de conciliación aborta la corrida: sin reporte, sin resultado
// persistido, radicado en VALIDADO con el diagnóstico.
func TestLiquidar_ConciliacionFallida(t *testing.T) {
	b := armarBanco(t, nil)
	b.reporte.fallar = true
	rad := b.crearRadicado(t, 0)
	b.adjuntar(t, rad, "factura.txt", "890201;consulta;1;50000")

	_, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.ErrorIs(t, err, domain.ErrConciliacion)

	actual, _ := b.radicados.GetByID(rad.ID)
	assert.Equal(t, entity.EstadoValidado, actual.Estado)

	vigente, _ := b.resultados.VigentePorRadicado(rad.ID)
	assert.Nil(t, vigente, "no debe persistirse resultado parcial")
}

// Cancelación durante la extracción: el radicado vuelve a su estado previo y
// no queda resultado.
func TestLiquidar_Cancelacion(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)
	b.adjuntar(t, rad, "factura.txt", "890201;consulta;1;50000")

	b.extractor.bloqueo = make(chan struct{}) // nunca se cierra: la corrida depende del ctx
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := b.orq.Liquidar(ctx, rad.ID)
	require.Error(t, err)

	actual, _ := b.radicados.GetByID(rad.ID)
	assert.Equal(t, entity.EstadoPendiente, actual.Estado)

	vigente, _ := b.resultados.VigentePorRadicado(rad.ID)
	assert.Nil(t, vigente)
}

// Finalizar cierra el radicado y bloquea nuevas corridas.
func TestFinalizar_BloqueaNuevasCorridas(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)
	b.adjuntar(t, rad, "factura.txt", "890201;consulta;1;50000")

	_, err := b.orq.Liquidar(context.Background(), rad.ID)
	require.NoError(t, err)

	_, err = b.orq.Finalizar(rad.ID)
	require.NoError(t, err)

	_, err = b.orq.Liquidar(context.Background(), rad.ID)
	require.ErrorIs(t, err, domain.ErrEstadoInvalido)
}

// ObtenerResultado sin liquidación previa devuelve ErrSinResultado.
func TestObtenerResultado_SinCorrida(t *testing.T) {
	b := armarBanco(t, nil)
	rad := b.crearRadicado(t, 0)

	_, err := b.orq.ObtenerResultado(rad.ID)
	require.ErrorIs(t, err, domain.ErrSinResultado)
}
