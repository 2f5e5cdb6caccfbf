package dto

import "github.com/shopspring/decimal"

// CreateRadicadoRequest crea un radicado. El rango nunca es entrada: se deriva
// del valor controlante.
type CreateRadicadoRequest struct {
	NumeroRadicado  string          `json:"numero_radicado"`
	EPS             string          `json:"eps"`
	NIT             string          `json:"nit"`
	RazonSocial     string          `json:"razon_social"`
	ValorContratado decimal.Decimal `json:"valor_contratado"`
}

// AdjuntarDocumentoRequest adjunta un documento soporte al radicado.
// El contenido llega en base64; el almacenamiento de objetos queda fuera del núcleo.
type AdjuntarDocumentoRequest struct {
	Nombre          string `json:"nombre"`
	Formato         string `json:"formato"` // pdf | txt
	ContenidoBase64 string `json:"contenido_base64"`
}

// RadicadoResponse representación de salida de un radicado.
type RadicadoResponse struct {
	ID              string          `json:"id"`
	NumeroRadicado  string          `json:"numero_radicado"`
	EPS             string          `json:"eps"`
	NIT             string          `json:"nit"`
	RazonSocial     string          `json:"razon_social"`
	ValorContratado decimal.Decimal `json:"valor_contratado"`
	ValorTotal      decimal.Decimal `json:"valor_total"`
	Rango           int             `json:"rango"`
	Estado          string          `json:"estado"`
	NumDocumentos   int             `json:"num_documentos"`
	NumGlosas       int             `json:"num_glosas"`
	ExcelGenerado   bool            `json:"excel_generado"`
	Mensajes        []string        `json:"mensajes"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// DocumentoResponse representación de salida de un documento soporte.
type DocumentoResponse struct {
	ID               string   `json:"id"`
	RadicadoID       string   `json:"radicado_id"`
	Nombre           string   `json:"nombre"`
	Formato          string   `json:"formato"`
	Orden            int      `json:"orden"`
	EstadoExtraccion string   `json:"estado_extraccion"`
	Diagnosticos     []string `json:"diagnosticos"`
}
