// Package pdf implementa la generación del Acta de Liquidación de la cuenta
// médica: encabezado del radicado, detalle de cargos con sus glosas y el
// bloque de totales que respalda el valor a pagar.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 60}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ liquidacion.ActaPDFGenerator = (*ActaGenerator)(nil)

// ActaGenerator implementa liquidacion.ActaPDFGenerator usando Maroto v2.
type ActaGenerator struct{}

// NewActaGenerator construye el generador.
func NewActaGenerator() *ActaGenerator { return &ActaGenerator{} }

// GenerarActaPDF genera el acta y devuelve sus bytes.
func (g *ActaGenerator) GenerarActaPDF(
	_ context.Context,
	radicado *entity.Radicado,
	resultado *entity.ResultadoLiquidacion,
	items []entity.ItemFacturado,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de Liquidación", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(radicado, resultado))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(prestadorRow(radicado))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	glosasPorItem := agruparPorItem(resultado.Glosas)
	for _, r := range tableDetailRows(items, glosasPorItem) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(resultado))

	m.AddRows(line.NewRow(3))
	for _, r := range reglasRows(resultado) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: EPS + NIT (izq) y número de radicado + fecha de evaluación (der).
func headerRow(radicado *entity.Radicado, resultado *entity.ResultadoLiquidacion) core.Row {
	fecha := resultado.FechaEvaluacion.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(radicado.EPS, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Acta de liquidación de cuenta médica", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("RADICADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(radicado.NumeroRadicado, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Evaluado: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// prestadorRow: datos del prestador y rango de la cuenta.
func prestadorRow(radicado *entity.Radicado) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PRESTADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(radicado.RazonSocial, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT: %s   |   Rango: %d   |   Valor contratado: $%s",
				radicado.NIT, radicado.Rango, formatMoney(radicado.ValorContratado.StringFixed(0)),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de cargos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Facturado", 2, align.Right),
		h("Glosado", 2, align.Right),
		h("A pagar", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea facturada con su glosa acumulada.
func tableDetailRows(items []entity.ItemFacturado, glosas map[string]decimal.Decimal) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		glosado := glosas[it.ID]
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				it.Codigo,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(4).Add(text.New(
				it.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(it.Subtotal.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(glosado.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(it.Subtotal.Sub(glosado).StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(resultado *entity.ResultadoLiquidacion) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Valor facturado:"),
			label("Valor glosado:"),
			grandLabel("VALOR A PAGAR:"),
		),
		col.New(3).Add(
			value("$"+formatMoney(resultado.ValorFacturado.StringFixed(0))),
			value("$"+formatMoney(resultado.ValorGlosado.StringFixed(0))),
			grandValue("$"+formatMoney(resultado.ValorAPagar.StringFixed(0))),
		),
		col.New(3),
	)
}

// reglasRows: listado de reglas que participaron en la evaluación.
func reglasRows(resultado *entity.ResultadoLiquidacion) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("REGLAS APLICADAS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	if len(resultado.ReglasAplicadas) == 0 {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("La cuenta no generó glosas.", props.Text{
				Size: 8, Color: colorGray, Top: 1, Left: 2,
			}),
		)))
		return rows
	}
	for _, ra := range resultado.ReglasAplicadas {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s (v%d): %s", ra.ReglaID, ra.Version, ra.Nombre), props.Text{
				Size: 7.5, Color: colorGray, Top: 0.5, Left: 2,
			}),
		)))
	}
	return rows
}

func agruparPorItem(glosas []entity.Glosa) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, g := range glosas {
		if g.ItemID == "" {
			continue
		}
		out[g.ItemID] = out[g.ItemID].Add(g.Valor)
	}
	return out
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
