package report

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
)

var _ liquidacion.GeneradorAnexo = (*AnexoXMLGenerator)(nil)

// AnexoXMLGenerator produce el anexo XML con el detalle de glosas que acompaña
// la respuesta al prestador. Se emite solo cuando la corrida dejó glosas.
type AnexoXMLGenerator struct{}

// NewAnexoXMLGenerator construye el generador del anexo.
func NewAnexoXMLGenerator() *AnexoXMLGenerator {
	return &AnexoXMLGenerator{}
}

// Generar arma el documento y lo devuelve como bytes indentados.
func (g *AnexoXMLGenerator) Generar(resultado *entity.ResultadoLiquidacion, radicado *entity.Radicado) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	anexo := doc.CreateElement("AnexoGlosas")
	anexo.CreateAttr("version", "1.0")

	cab := anexo.CreateElement("Radicado")
	cab.CreateElement("Numero").SetText(radicado.NumeroRadicado)
	cab.CreateElement("EPS").SetText(radicado.EPS)
	cab.CreateElement("NIT").SetText(radicado.NIT)
	cab.CreateElement("RazonSocial").SetText(radicado.RazonSocial)
	cab.CreateElement("FechaEvaluacion").SetText(resultado.FechaEvaluacion.Format("2006-01-02T15:04:05Z07:00"))

	tot := anexo.CreateElement("Totales")
	tot.CreateElement("ValorFacturado").SetText(resultado.ValorFacturado.StringFixed(2))
	tot.CreateElement("ValorGlosado").SetText(resultado.ValorGlosado.StringFixed(2))
	tot.CreateElement("ValorAPagar").SetText(resultado.ValorAPagar.StringFixed(2))

	detalle := anexo.CreateElement("Glosas")
	for _, g := range resultado.Glosas {
		el := detalle.CreateElement("Glosa")
		el.CreateAttr("id", g.ID)
		if g.ItemID != "" {
			el.CreateAttr("itemId", g.ItemID)
		} else {
			el.CreateAttr("ambito", "CUENTA")
		}
		el.CreateElement("Regla").SetText(fmt.Sprintf("%s/v%d", g.ReglaID, g.ReglaVersion))
		el.CreateElement("Valor").SetText(g.Valor.StringFixed(2))
		el.CreateElement("Justificacion").SetText(g.Justificacion)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar anexo: %w", err)
	}
	return out, nil
}
