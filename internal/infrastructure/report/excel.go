package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

var _ liquidacion.GeneradorReporte = (*ExcelGenerator)(nil)

// ExcelGenerator produce el reporte XLSX de liquidación: una fila por ítem,
// una fila CUENTA si hubo glosas de ámbito cuenta y la fila de totales.
// Antes de emitir verifica que las filas concilien con los totales del
// resultado; si no concilian el reporte no sale.
type ExcelGenerator struct {
	tolerancia decimal.Decimal // en pesos (centavos / 100)
	log        *logger.Logger
}

// NewExcelGenerator construye el generador. toleranciaCentavos absorbe el
// redondeo de presentación, no diferencias reales de cálculo.
func NewExcelGenerator(toleranciaCentavos int, log *logger.Logger) *ExcelGenerator {
	return &ExcelGenerator{
		tolerancia: decimal.New(int64(toleranciaCentavos), -2),
		log:        log,
	}
}

var cabeceras = []string{
	"Código", "Descripción", "Cantidad", "Valor unitario",
	"Valor facturado", "Valor glosado", "Valor a pagar", "Justificación",
}

// Generar arma el libro y lo devuelve como bytes.
func (g *ExcelGenerator) Generar(resultado *entity.ResultadoLiquidacion, radicado *entity.Radicado, items []entity.ItemFacturado) ([]byte, error) {
	glosasItem, glosasCuenta := agruparGlosas(resultado.Glosas)

	if err := g.conciliar(resultado, items, glosasItem, glosasCuenta); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const hoja = "Liquidación"
	idx, err := f.NewSheet(hoja)
	if err != nil {
		return nil, fmt.Errorf("crear hoja: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	write := func(col, fila int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, fila)
		_ = f.SetCellValue(hoja, cell, v)
	}

	// Encabezado del radicado.
	write(1, 1, "Radicado")
	write(2, 1, radicado.NumeroRadicado)
	write(3, 1, "EPS")
	write(4, 1, radicado.EPS)
	write(5, 1, "NIT")
	write(6, 1, radicado.NIT)
	write(7, 1, "Rango")
	write(8, 1, radicado.Rango)

	for i, h := range cabeceras {
		write(i+1, 3, h)
	}

	fila := 4
	for _, it := range items {
		glosado, justs := totalGlosas(glosasItem[it.ID])
		write(1, fila, it.Codigo)
		write(2, fila, it.Descripcion)
		write(3, fila, it.Cantidad.InexactFloat64())
		write(4, fila, it.ValorUnitario.InexactFloat64())
		write(5, fila, it.Subtotal.InexactFloat64())
		write(6, fila, glosado.InexactFloat64())
		write(7, fila, it.Subtotal.Sub(glosado).InexactFloat64())
		write(8, fila, strings.Join(justs, "; "))
		fila++
	}

	if len(glosasCuenta) > 0 {
		glosado, justs := totalGlosas(glosasCuenta)
		write(1, fila, "CUENTA")
		write(2, fila, "Glosas sobre el total de la cuenta")
		write(6, fila, glosado.InexactFloat64())
		write(8, fila, strings.Join(justs, "; "))
		fila++
	}

	fila++
	write(1, fila, "TOTALES")
	write(5, fila, resultado.ValorFacturado.InexactFloat64())
	write(6, fila, resultado.ValorGlosado.InexactFloat64())
	write(7, fila, resultado.ValorAPagar.InexactFloat64())

	_ = f.SetColWidth(hoja, "A", "A", 12)
	_ = f.SetColWidth(hoja, "B", "B", 42)
	_ = f.SetColWidth(hoja, "C", "D", 14)
	_ = f.SetColWidth(hoja, "E", "G", 16)
	_ = f.SetColWidth(hoja, "H", "H", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("escribir xlsx: %w", err)
	}

	g.log.Info().
		Str("radicado", radicado.NumeroRadicado).
		Int("items", len(items)).
		Int("glosas", len(resultado.Glosas)).
		Msg("reporte de liquidacion generado")
	return buf.Bytes(), nil
}

// conciliar verifica la identidad del reporte contra los totales del resultado:
// la suma de filas a pagar menos las glosas de cuenta, con piso en cero, debe
// coincidir con el valor a pagar dentro de la tolerancia configurada.
func (g *ExcelGenerator) conciliar(resultado *entity.ResultadoLiquidacion, items []entity.ItemFacturado, glosasItem map[string][]entity.Glosa, glosasCuenta []entity.Glosa) error {
	facturado := decimal.Zero
	pagarFilas := decimal.Zero
	for _, it := range items {
		facturado = facturado.Add(it.Subtotal)
		glosado, _ := totalGlosas(glosasItem[it.ID])
		pagarFilas = pagarFilas.Add(it.Subtotal.Sub(glosado))
	}
	cuenta, _ := totalGlosas(glosasCuenta)
	pagarFilas = pagarFilas.Sub(cuenta)
	if pagarFilas.Sign() < 0 {
		pagarFilas = decimal.Zero
	}

	if diff := facturado.Sub(resultado.ValorFacturado).Abs(); diff.GreaterThan(g.tolerancia) {
		return fmt.Errorf("valor facturado del reporte %s difiere del resultado %s: %w",
			facturado, resultado.ValorFacturado, domain.ErrConciliacion)
	}
	if diff := pagarFilas.Sub(resultado.ValorAPagar).Abs(); diff.GreaterThan(g.tolerancia) {
		return fmt.Errorf("valor a pagar de las filas %s difiere del resultado %s: %w",
			pagarFilas, resultado.ValorAPagar, domain.ErrConciliacion)
	}
	return nil
}

func agruparGlosas(glosas []entity.Glosa) (map[string][]entity.Glosa, []entity.Glosa) {
	porItem := make(map[string][]entity.Glosa)
	var cuenta []entity.Glosa
	for _, g := range glosas {
		if g.ItemID == "" {
			cuenta = append(cuenta, g)
			continue
		}
		porItem[g.ItemID] = append(porItem[g.ItemID], g)
	}
	return porItem, cuenta
}

func totalGlosas(glosas []entity.Glosa) (decimal.Decimal, []string) {
	total := decimal.Zero
	var justs []string
	for _, g := range glosas {
		total = total.Add(g.Valor)
		justs = append(justs, g.Justificacion)
	}
	return total, justs
}
