package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un radicado (cuenta médica en revisión).
//
//	PENDIENTE → EN_PROCESO → VALIDADO → {LIQUIDADO | CON_GLOSAS} → FINALIZADO
//
// RECHAZADO es alcanzable desde cualquier estado no terminal. Una re-liquidación
// parte de PENDIENTE o CON_GLOSAS (también de VALIDADO/EN_PROCESO cuando una
// corrida anterior abortó) y descarta el resultado vigente no finalizado.
const (
	EstadoPendiente  = "PENDIENTE"
	EstadoEnProceso  = "EN_PROCESO"
	EstadoValidado   = "VALIDADO"
	EstadoLiquidado  = "LIQUIDADO"
	EstadoConGlosas  = "CON_GLOSAS"
	EstadoFinalizado = "FINALIZADO"
	EstadoRechazado  = "RECHAZADO"
)

// Radicado representa una cuenta médica radicada por un prestador ante la EPS.
type Radicado struct {
	ID              string
	NumeroRadicado  string // consecutivo externo del radicado
	EPS             string // entidad pagadora
	NIT             string // identificación tributaria del prestador
	RazonSocial     string // nombre del prestador
	ValorContratado decimal.Decimal // cero = sin valor pactado
	ValorTotal      decimal.Decimal // suma de subtotales extraídos
	Rango           int             // banda tarifaria 1–4, derivada (nunca entrada directa)
	Estado          string
	NumDocumentos   int
	NumGlosas       int
	ExcelGenerado   bool
	ReporteID       string   // referencia al artefacto XLSX vigente
	Mensajes        []string // diagnósticos de la corrida más reciente
	CreadoPor       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValorControlante devuelve el valor que gobierna la clasificación de rango:
// el valor contratado si está pactado, si no el valor total facturado.
func (r *Radicado) ValorControlante() decimal.Decimal {
	if r.ValorContratado.GreaterThan(decimal.Zero) {
		return r.ValorContratado
	}
	return r.ValorTotal
}

// EsTerminal indica si el estado no admite más transiciones.
func (r *Radicado) EsTerminal() bool {
	return r.Estado == EstadoFinalizado || r.Estado == EstadoRechazado
}

// PuedeLiquidarse indica si el estado actual admite iniciar (o reiniciar) una liquidación.
// LIQUIDADO no se reprocesa: solo admite finalización.
func (r *Radicado) PuedeLiquidarse() bool {
	switch r.Estado {
	case EstadoPendiente, EstadoConGlosas, EstadoValidado, EstadoEnProceso:
		return true
	}
	return false
}

// PuedeFinalizarse indica si el radicado admite el cierre explícito.
func (r *Radicado) PuedeFinalizarse() bool {
	return r.Estado == EstadoLiquidado || r.Estado == EstadoConGlosas
}
