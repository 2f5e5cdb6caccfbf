package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
)

// extraerPDF valida el PDF, recorre sus páginas y parsea las líneas de cobro
// de los streams de contenido. Un PDF corrupto produce resultado fallido con
// diagnóstico, nunca un pánico ni un error duro.
func (e *Extractor) extraerPDF(doc *entity.Documento, contenido []byte) liquidacion.ResultadoExtraccion {
	var res liquidacion.ResultadoExtraccion

	ctx, err := api.ReadContext(bytes.NewReader(contenido), nil)
	if err != nil {
		res.Diagnosticos = append(res.Diagnosticos,
			fmt.Sprintf("%s: pdf ilegible: %v", doc.Nombre, err))
		return res
	}
	if err := api.ValidateContext(ctx); err != nil {
		res.Diagnosticos = append(res.Diagnosticos,
			fmt.Sprintf("%s: pdf invalido: %v", doc.Nombre, err))
		return res
	}

	numLinea := 0
	for pagina := 1; pagina <= ctx.PageCount; pagina++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pagina)
		if err != nil {
			res.Diagnosticos = append(res.Diagnosticos,
				fmt.Sprintf("%s pagina %d: sin contenido extraible: %v", doc.Nombre, pagina, err))
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			res.Diagnosticos = append(res.Diagnosticos,
				fmt.Sprintf("%s pagina %d: lectura de contenido: %v", doc.Nombre, pagina, err))
			continue
		}
		for _, texto := range lineasDeTexto(stream) {
			numLinea++
			if texto == "" || strings.HasPrefix(texto, "#") {
				continue
			}
			item, err := parsearLinea(texto)
			if err != nil {
				res.Diagnosticos = append(res.Diagnosticos,
					fmt.Sprintf("%s pagina %d linea %d: %v", doc.Nombre, pagina, numLinea, err))
				continue
			}
			res.Items = append(res.Items, item)
		}
	}

	res.Exitosa = len(res.Items) > 0
	if !res.Exitosa && len(res.Diagnosticos) == 0 {
		res.Diagnosticos = append(res.Diagnosticos,
			fmt.Sprintf("%s: sin lineas de cobro reconocibles", doc.Nombre))
	}
	return res
}

// lineasDeTexto recorre un stream de contenido PDF y devuelve el texto de cada
// operador Tj/TJ. Los detalles de cargos se emiten una línea por operador, así
// que cada segmento mostrado es una candidata a línea de cobro.
func lineasDeTexto(stream []byte) []string {
	var lineas []string
	var actual strings.Builder
	i := 0
	for i < len(stream) {
		if stream[i] != '(' {
			// Cierre de segmento: Tj y TJ emiten la cadena acumulada.
			if stream[i] == 'T' && i+1 < len(stream) && (stream[i+1] == 'j' || stream[i+1] == 'J') {
				if actual.Len() > 0 {
					lineas = append(lineas, strings.TrimSpace(actual.String()))
					actual.Reset()
				}
				i += 2
				continue
			}
			i++
			continue
		}
		texto, next := leerCadenaPDF(stream, i)
		actual.WriteString(texto)
		i = next
	}
	if actual.Len() > 0 {
		lineas = append(lineas, strings.TrimSpace(actual.String()))
	}
	return lineas
}

// leerCadenaPDF lee una cadena literal `(...)` desde la posición del paréntesis
// de apertura, resolviendo escapes y paréntesis balanceados. Devuelve el texto
// y la posición siguiente al cierre.
func leerCadenaPDF(stream []byte, inicio int) (string, int) {
	var b strings.Builder
	profundidad := 0
	i := inicio
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 < len(stream) {
				switch stream[i+1] {
				case 'n':
					b.WriteByte('\n')
				case 'r':
					b.WriteByte('\r')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(stream[i+1])
				}
				i += 2
				continue
			}
			i++
		case '(':
			profundidad++
			if profundidad > 1 {
				b.WriteByte(c)
			}
			i++
		case ')':
			profundidad--
			if profundidad == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}
