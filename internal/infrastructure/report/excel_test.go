package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

func armarCaso() (*entity.ResultadoLiquidacion, *entity.Radicado, []entity.ItemFacturado) {
	items := []entity.ItemFacturado{
		{ID: "it-1", RadicadoID: "rad-1", Codigo: "890201", Descripcion: "Consulta",
			Cantidad: decimal.NewFromInt(2), ValorUnitario: decimal.NewFromInt(45000),
			Subtotal: decimal.NewFromInt(90000), Orden: 0},
		{ID: "it-2", RadicadoID: "rad-1", Codigo: "873101", Descripcion: "Rayos X",
			Cantidad: decimal.NewFromInt(1), ValorUnitario: decimal.NewFromInt(60000),
			Subtotal: decimal.NewFromInt(60000), Orden: 1},
	}
	resultado := &entity.ResultadoLiquidacion{
		ID:             "res-1",
		RadicadoID:     "rad-1",
		ValorFacturado: decimal.NewFromInt(150000),
		ValorGlosado:   decimal.NewFromInt(30000),
		ValorAPagar:    decimal.NewFromInt(120000),
		Glosas: []entity.Glosa{
			{ID: "g-1", RadicadoID: "rad-1", ItemID: "it-1", ReglaID: "R-10", ReglaVersion: 1,
				Valor: decimal.NewFromInt(10000), Justificacion: "excede tope"},
			{ID: "g-2", RadicadoID: "rad-1", ReglaID: "R-20", ReglaVersion: 2,
				Valor: decimal.NewFromInt(20000), Justificacion: "tope de cuenta"},
		},
		Vigente:         true,
		FechaEvaluacion: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	radicado := &entity.Radicado{
		ID: "rad-1", NumeroRadicado: "RAD-001", EPS: "EPS Salud", NIT: "900123456",
		RazonSocial: "Clinica Central", Rango: 2,
	}
	return resultado, radicado, items
}

func TestGenerarReporteConciliado(t *testing.T) {
	resultado, radicado, items := armarCaso()

	contenido, err := NewExcelGenerator(1, logger.Nop()).Generar(resultado, radicado, items)
	require.NoError(t, err)
	require.NotEmpty(t, contenido)

	// El libro debe abrir y traer la hoja con una fila por item, la fila
	// CUENTA y los totales.
	f, err := excelize.OpenReader(bytes.NewReader(contenido))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Liquidación")
	require.NoError(t, err)

	var planas []string
	for _, fila := range rows {
		for _, celda := range fila {
			planas = append(planas, celda)
		}
	}
	assert.Contains(t, planas, "890201")
	assert.Contains(t, planas, "CUENTA")
	assert.Contains(t, planas, "TOTALES")
}

func TestGenerarReporteNoConciliaNoEmite(t *testing.T) {
	resultado, radicado, items := armarCaso()
	resultado.ValorAPagar = decimal.NewFromInt(999999)

	contenido, err := NewExcelGenerator(1, logger.Nop()).Generar(resultado, radicado, items)

	require.ErrorIs(t, err, domain.ErrConciliacion)
	assert.Nil(t, contenido)
}

func TestToleranciaAbsorbeRedondeo(t *testing.T) {
	resultado, radicado, items := armarCaso()
	resultado.ValorAPagar = decimal.RequireFromString("120000.01")

	_, err := NewExcelGenerator(1, logger.Nop()).Generar(resultado, radicado, items)
	assert.NoError(t, err, "un centavo de diferencia queda dentro de la tolerancia")

	resultado.ValorAPagar = decimal.RequireFromString("120000.02")
	_, err = NewExcelGenerator(1, logger.Nop()).Generar(resultado, radicado, items)
	assert.ErrorIs(t, err, domain.ErrConciliacion)
}

func TestAnexoXMLIncluyeGlosas(t *testing.T) {
	resultado, radicado, _ := armarCaso()

	contenido, err := NewAnexoXMLGenerator().Generar(resultado, radicado)
	require.NoError(t, err)

	xml := string(contenido)
	assert.Contains(t, xml, "<AnexoGlosas")
	assert.Contains(t, xml, "RAD-001")
	assert.Contains(t, xml, `ambito="CUENTA"`)
	assert.Contains(t, xml, "R-10/v1")
	assert.Contains(t, xml, "120000.00")
}
