package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de extracción de un documento soporte.
const (
	ExtraccionPendiente = "PENDIENTE"
	ExtraccionExitosa   = "EXITOSA"
	ExtraccionFallida   = "FALLIDA"
)

// Formatos de documento soportados por el extractor.
const (
	FormatoPDF   = "pdf"
	FormatoTexto = "txt"
)

// Documento es un soporte adjunto a un radicado (factura, detalle de cargos, etc.).
type Documento struct {
	ID               string
	RadicadoID       string
	Nombre           string
	Formato          string // pdf | txt
	Orden            int    // posición de adjunción; define el orden determinista de evaluación
	EstadoExtraccion string
	Diagnosticos     []string // advertencias y errores de la última extracción
	CreatedAt        time.Time
}

// ItemFacturado es una línea de cobro extraída de un documento.
// Invariante: Subtotal = Cantidad × ValorUnitario.
type ItemFacturado struct {
	ID            string
	DocumentoID   string
	RadicadoID    string
	Codigo        string // código CUPS/servicio
	Descripcion   string
	Cantidad      decimal.Decimal
	ValorUnitario decimal.Decimal
	Subtotal      decimal.Decimal
	Orden         int // posición dentro del radicado (documento y línea)
}

// NuevoItem construye una línea con el subtotal calculado.
func NuevoItem(codigo, descripcion string, cantidad, valorUnitario decimal.Decimal) ItemFacturado {
	return ItemFacturado{
		Codigo:        codigo,
		Descripcion:   descripcion,
		Cantidad:      cantidad,
		ValorUnitario: valorUnitario,
		Subtotal:      cantidad.Mul(valorUnitario),
	}
}
