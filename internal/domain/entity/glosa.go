package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Glosa es una deducción objetada sobre un valor facturado, originada por una regla.
type Glosa struct {
	ID            string
	RadicadoID    string
	ItemID        string // vacío para glosas de ámbito CUENTA
	ReglaID       string
	ReglaVersion  int
	Valor         decimal.Decimal
	Justificacion string
}

// ResultadoLiquidacion es la foto de una corrida de liquidación.
// Un radicado tiene a lo sumo un resultado vigente; re-liquidar marca el
// anterior como no vigente (se conserva para auditoría, nunca se edita).
type ResultadoLiquidacion struct {
	ID              string
	RadicadoID      string
	ValorFacturado  decimal.Decimal
	ValorGlosado    decimal.Decimal
	ValorAPagar     decimal.Decimal // max(0, facturado - glosado), piso aplicado una sola vez
	ReglasAplicadas []ReglaAplicada
	Glosas          []Glosa
	Mensajes        []string
	ExcelGenerado   bool
	ReporteID       string
	Vigente         bool
	FechaEvaluacion time.Time
}
