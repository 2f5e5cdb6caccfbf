package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ámbito de aplicación de una regla.
const (
	AmbitoItem   = "ITEM"   // evalúa cada línea facturada
	AmbitoCuenta = "CUENTA" // evalúa el agregado del radicado
)

// Campos sobre los que opera la condición de una regla.
// Para AmbitoItem: CANTIDAD, VALOR_UNITARIO, SUBTOTAL, CODIGO.
// Para AmbitoCuenta: VALOR_TOTAL.
const (
	CampoCantidad      = "CANTIDAD"
	CampoValorUnitario = "VALOR_UNITARIO"
	CampoSubtotal      = "SUBTOTAL"
	CampoCodigo        = "CODIGO"
	CampoValorTotal    = "VALOR_TOTAL"
)

// Operadores de comparación de la condición.
const (
	OperadorGT  = "GT"
	OperadorGTE = "GTE"
	OperadorLT  = "LT"
	OperadorLTE = "LTE"
	OperadorEQ  = "EQ"
	OperadorNEQ = "NEQ"
)

// Tipos de política de deducción.
const (
	PoliticaFija         = "FIJA"          // descuenta un valor fijo
	PoliticaPorcentaje   = "PORCENTAJE"    // descuenta un % del subtotal original
	PoliticaNoReconocido = "NO_RECONOCIDO" // glosa el ítem completo y corta la evaluación de ese ítem
	PoliticaTope         = "TOPE"          // descuenta el exceso sobre un tope (cero = valor contratado)
)

// Condicion es el predicado cerrado de una regla: Campo Operador Valor.
// Para CampoCodigo la comparación es textual contra Codigo (EQ/NEQ).
type Condicion struct {
	Campo    string
	Operador string
	Valor    decimal.Decimal
	Codigo   string
}

// Politica define cómo se calcula la deducción cuando la condición se cumple.
// La base de cálculo es siempre el subtotal original del ítem (o el valor total
// de la cuenta para reglas de ámbito CUENTA); nunca un valor ya reducido.
type Politica struct {
	Tipo  string
	Valor decimal.Decimal
}

// Regla es una regla de glosa versionada. Las reglas referenciadas por una
// liquidación completada son inmutables: editar crea una nueva versión.
type Regla struct {
	ID            string
	Version       int
	Nombre        string
	Justificacion string // texto que acompaña la glosa generada
	Rangos        []int  // bandas tarifarias donde aplica (1–4)
	Prioridad     int    // orden de evaluación ascendente
	Ambito        string
	Condicion     Condicion
	Politica      Politica
	Activa        bool
	CreatedAt     time.Time
}

// AplicaARango indica si la regla está etiquetada para la banda dada.
func (r *Regla) AplicaARango(rango int) bool {
	for _, rg := range r.Rangos {
		if rg == rango {
			return true
		}
	}
	return false
}

// ReglaAplicada es la referencia inmutable (id + versión) que queda en el
// resultado de liquidación para auditoría.
type ReglaAplicada struct {
	ReglaID string
	Version int
	Nombre  string
}
