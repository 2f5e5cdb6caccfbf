package extractor

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

func docTexto(nombre string) *entity.Documento {
	return &entity.Documento{ID: "doc-1", RadicadoID: "rad-1", Nombre: nombre, Formato: entity.FormatoTexto}
}

func TestExtraerTextoLineasValidas(t *testing.T) {
	contenido := []byte("# detalle de cargos\n" +
		"890201;Consulta medicina general;2;45000\n" +
		"\n" +
		"873101;Radiografía de tórax;1;82500.50\n")

	res := New(logger.Nop()).Extraer(context.Background(), docTexto("cargos.txt"), contenido)

	require.True(t, res.Exitosa)
	require.Len(t, res.Items, 2)
	assert.Empty(t, res.Diagnosticos)

	assert.Equal(t, "890201", res.Items[0].Codigo)
	assert.True(t, res.Items[0].Subtotal.Equal(decimal.NewFromInt(90000)),
		"subtotal = cantidad x valor unitario")

	// La descripción queda sin diacríticos para comparar entre soportes.
	assert.Equal(t, "Radiografia de torax", res.Items[1].Descripcion)
}

func TestExtraerTextoLineaMalformadaNoEsFatal(t *testing.T) {
	contenido := []byte("890201;Consulta;2;45000\n" +
		"esto no es una linea de cobro\n" +
		"873101;Rayos X;0;100\n" +
		"880045;Laboratorio;1;-5\n")

	res := New(logger.Nop()).Extraer(context.Background(), docTexto("cargos.txt"), contenido)

	require.True(t, res.Exitosa, "una linea valida basta para extraer")
	assert.Len(t, res.Items, 1)
	assert.Len(t, res.Diagnosticos, 3)
}

func TestExtraerTextoSinLineasValidas(t *testing.T) {
	res := New(logger.Nop()).Extraer(context.Background(), docTexto("vacio.txt"), []byte("basura\nmas basura\n"))

	assert.False(t, res.Exitosa)
	assert.Empty(t, res.Items)
	assert.NotEmpty(t, res.Diagnosticos)
}

func TestExtraerDocumentoVacio(t *testing.T) {
	res := New(logger.Nop()).Extraer(context.Background(), docTexto("vacio.txt"), nil)

	assert.False(t, res.Exitosa)
	require.Len(t, res.Diagnosticos, 1)
	assert.Contains(t, res.Diagnosticos[0], "vacio")
}

func TestExtraerPDFCorrupto(t *testing.T) {
	doc := &entity.Documento{ID: "doc-2", RadicadoID: "rad-1", Nombre: "factura.pdf", Formato: entity.FormatoPDF}
	contenido := []byte("%PDF-1.7\nesto no es un pdf real")

	res := New(logger.Nop()).Extraer(context.Background(), doc, contenido)

	assert.False(t, res.Exitosa)
	assert.NotEmpty(t, res.Diagnosticos)
}

func TestLineasDeTextoStreamPDF(t *testing.T) {
	stream := []byte(`BT
/F1 10 Tf
72 720 Td (890201;Consulta medicina general;2;45000) Tj
0 -14 Td [(873101;) (Rayos X;1;) (82500)] TJ
ET`)

	lineas := lineasDeTexto(stream)

	require.Len(t, lineas, 2)
	assert.Equal(t, "890201;Consulta medicina general;2;45000", lineas[0])
	assert.Equal(t, "873101;Rayos X;1;82500", lineas[1])
}

func TestLeerCadenaPDFEscapes(t *testing.T) {
	texto, next := leerCadenaPDF([]byte(`(par\(entesis\) y barra \\) Tj`), 0)

	assert.Equal(t, `par(entesis) y barra \`, texto)
	assert.Equal(t, byte(' '), []byte(`(par\(entesis\) y barra \\) Tj`)[next])
}

func TestNormalizarTexto(t *testing.T) {
	assert.Equal(t, "Evaluacion neurologica basica",
		NormalizarTexto("  Evaluación   neurológica\tbásica "))
}
