package liquidacion

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/repository"
)

// ResultadoExtraccion es la salida del extractor para un documento: líneas
// candidatas más diagnósticos. Una extracción fallida no es fatal para la
// cuenta; el orquestador la registra y continúa con los demás documentos.
type ResultadoExtraccion struct {
	Items        []entity.ItemFacturado
	Diagnosticos []string
	Exitosa      bool
}

// Extractor convierte un documento soporte en líneas facturadas normalizadas.
// Es una transformación pura: nunca muta el radicado ni el almacén de reglas.
type Extractor interface {
	Extraer(ctx context.Context, doc *entity.Documento, contenido []byte) ResultadoExtraccion
}

// GeneradorReporte produce el XLSX del resultado (una fila por ítem más la fila
// de conciliación). Si los totales no concilian retorna ErrConciliacion y el
// reporte no se emite.
type GeneradorReporte interface {
	Generar(resultado *entity.ResultadoLiquidacion, radicado *entity.Radicado, items []entity.ItemFacturado) ([]byte, error)
}

// GeneradorAnexo produce el anexo XML con el detalle de glosas.
type GeneradorAnexo interface {
	Generar(resultado *entity.ResultadoLiquidacion, radicado *entity.Radicado) ([]byte, error)
}

// ValorContratadoLookup consulta el valor pactado vigente para un prestador.
// Colaborador externo: una consulta vencida por timeout degrada al último
// valor conocido, nunca aborta la corrida.
type ValorContratadoLookup interface {
	ValorContratado(ctx context.Context, nit, numeroRadicado string) (decimal.Decimal, error)
}

// TxRunner ejecuta la persistencia final de una corrida dentro de una transacción:
// o se escribe todo (ítems, resultado, glosas, radicado) o no se escribe nada.
type TxRunner interface {
	RunLiquidacion(ctx context.Context, fn func(
		radicadoRepo repository.RadicadoRepository,
		documentoRepo repository.DocumentoRepository,
		resultadoRepo repository.ResultadoRepository,
	) error) error
}

// Lease serializa corridas por radicado: a lo sumo una liquidación activa por
// cuenta. Una segunda invocación concurrente recibe rechazo inmediato (busy),
// nunca se encola en silencio.
type Lease interface {
	Acquire(radicadoID string) bool
	Release(radicadoID string)
}
