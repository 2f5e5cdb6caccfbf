package dto

import "github.com/shopspring/decimal"

// GlosaResponse una glosa dentro del resultado.
type GlosaResponse struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id,omitempty"`
	ReglaID       string          `json:"regla_id"`
	ReglaVersion  int             `json:"regla_version"`
	Valor         decimal.Decimal `json:"valor"`
	Justificacion string          `json:"justificacion"`
}

// ReglaAplicadaResponse referencia id+versión de una regla aplicada.
type ReglaAplicadaResponse struct {
	ReglaID string `json:"regla_id"`
	Version int    `json:"version"`
	Nombre  string `json:"nombre"`
}

// ResultadoResponse resultado vigente de la liquidación de un radicado.
type ResultadoResponse struct {
	ID              string                  `json:"id"`
	RadicadoID      string                  `json:"radicado_id"`
	ValorFacturado  decimal.Decimal         `json:"valor_facturado"`
	ValorGlosado    decimal.Decimal         `json:"valor_glosado"`
	ValorAPagar     decimal.Decimal         `json:"valor_a_pagar"`
	ReglasAplicadas []ReglaAplicadaResponse `json:"reglas_aplicadas"`
	Glosas          []GlosaResponse         `json:"glosas"`
	Mensajes        []string                `json:"mensajes"`
	ExcelGenerado   bool                    `json:"excel_generado"`
	FechaEvaluacion string                  `json:"fecha_evaluacion"`
}

// ReglaResponse representación de lectura de una regla (snapshot, solo lectura).
type ReglaResponse struct {
	ID            string          `json:"id"`
	Version       int             `json:"version"`
	Nombre        string          `json:"nombre"`
	Justificacion string          `json:"justificacion"`
	Rangos        []int           `json:"rangos"`
	Prioridad     int             `json:"prioridad"`
	Ambito        string          `json:"ambito"`
	Campo         string          `json:"campo"`
	Operador      string          `json:"operador"`
	ValorCond     decimal.Decimal `json:"valor_condicion"`
	Codigo        string          `json:"codigo,omitempty"`
	Politica      string          `json:"politica"`
	ValorPolitica decimal.Decimal `json:"valor_politica"`
	Activa        bool            `json:"activa"`
}
