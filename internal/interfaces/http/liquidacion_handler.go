package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/medisalud/liquidacion-api/internal/application/dto"
	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain"
)

// LiquidacionHandler maneja las corridas de liquidación y sus salidas.
type LiquidacionHandler struct {
	orq  *liquidacion.Orquestador
	acta *liquidacion.ActaUseCase
}

// NewLiquidacionHandler construye el handler.
func NewLiquidacionHandler(orq *liquidacion.Orquestador, acta *liquidacion.ActaUseCase) *LiquidacionHandler {
	return &LiquidacionHandler{orq: orq, acta: acta}
}

// Liquidar ejecuta una corrida de liquidación sobre el radicado.
// POST /api/radicados/:id/liquidar
func (h *LiquidacionHandler) Liquidar(c *fiber.Ctx) error {
	resultado, err := h.orq.Liquidar(c.Context(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		case errors.Is(err, domain.ErrOcupado):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "BUSY", Message: "el radicado ya tiene una liquidación en curso"})
		case errors.Is(err, domain.ErrEstadoInvalido):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: "el estado del radicado no admite liquidación"})
		case errors.Is(err, domain.ErrValidacion):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrExtraccion):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "EXTRACTION", Message: err.Error()})
		case errors.Is(err, domain.ErrEvaluacionReglas):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "RULES", Message: err.Error()})
		case errors.Is(err, domain.ErrConciliacion):
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "RECONCILIATION", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(resultado)
}

// Finalizar cierra el radicado; no admite más corridas.
// POST /api/radicados/:id/finalizar
func (h *LiquidacionHandler) Finalizar(c *fiber.Ctx) error {
	rad, err := h.orq.Finalizar(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		if errors.Is(err, domain.ErrEstadoInvalido) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: "el estado del radicado no admite finalización"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rad)
}

// Resultado devuelve el resultado vigente del radicado.
// GET /api/radicados/:id/resultado
func (h *LiquidacionHandler) Resultado(c *fiber.Ctx) error {
	resultado, err := h.orq.ObtenerResultado(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		if errors.Is(err, domain.ErrSinResultado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NO_RESULT", Message: "el radicado no tiene resultado vigente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resultado)
}

// Reporte descarga el XLSX del resultado vigente.
// GET /api/radicados/:id/reporte
func (h *LiquidacionHandler) Reporte(c *fiber.Ctx) error {
	nombre, contentType, contenido, err := h.orq.Reporte(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSinResultado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "reporte no disponible"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+nombre+`"`)
	return c.Send(contenido)
}

// Acta descarga el acta de liquidación en PDF.
// GET /api/radicados/:id/acta
func (h *LiquidacionHandler) Acta(c *fiber.Ctx) error {
	contenido, err := h.acta.GenerarActa(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		if errors.Is(err, domain.ErrSinResultado) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NO_RESULT", Message: "el radicado no tiene resultado vigente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="acta-liquidacion.pdf"`)
	return c.Send(contenido)
}
