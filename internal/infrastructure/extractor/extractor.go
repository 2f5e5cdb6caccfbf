package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

var _ liquidacion.Extractor = (*Extractor)(nil)

// Extractor convierte documentos soporte (PDF o texto plano) en líneas
// facturadas. Nunca retorna error: un documento ilegible produce un resultado
// fallido con diagnósticos y la corrida sigue con los demás documentos.
type Extractor struct {
	log *logger.Logger
}

// New construye el extractor de documentos.
func New(log *logger.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extraer despacha según el formato declarado, verificando la cabecera real
// del contenido (un .txt renombrado a .pdf se trata como lo que es).
func (e *Extractor) Extraer(ctx context.Context, doc *entity.Documento, contenido []byte) liquidacion.ResultadoExtraccion {
	if len(contenido) == 0 {
		return liquidacion.ResultadoExtraccion{
			Diagnosticos: []string{fmt.Sprintf("documento %s vacio", doc.Nombre)},
		}
	}
	if err := ctx.Err(); err != nil {
		return liquidacion.ResultadoExtraccion{
			Diagnosticos: []string{fmt.Sprintf("extraccion cancelada: %v", err)},
		}
	}

	esPDF := bytes.HasPrefix(contenido, []byte("%PDF"))
	if doc.Formato == entity.FormatoPDF && !esPDF {
		e.log.Warn().Str("documento", doc.Nombre).Msg("formato declarado pdf sin cabecera %PDF, se procesa como texto")
	}

	var res liquidacion.ResultadoExtraccion
	if esPDF {
		res = e.extraerPDF(doc, contenido)
	} else {
		res = extraerTexto(doc, contenido)
	}

	e.log.Debug().
		Str("documento", doc.Nombre).
		Int("items", len(res.Items)).
		Int("diagnosticos", len(res.Diagnosticos)).
		Bool("exitosa", res.Exitosa).
		Msg("extraccion de documento")
	return res
}
