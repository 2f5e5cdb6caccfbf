package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/medisalud/liquidacion-api/internal/application/dto"
	"github.com/medisalud/liquidacion-api/internal/application/radicados"
	"github.com/medisalud/liquidacion-api/internal/domain"
)

// RadicadoHandler maneja las peticiones HTTP del ciclo de vida del radicado.
type RadicadoHandler struct {
	uc *radicados.UseCase
}

// NewRadicadoHandler construye el handler.
func NewRadicadoHandler(uc *radicados.UseCase) *RadicadoHandler {
	return &RadicadoHandler{uc: uc}
}

// Create registra un radicado en estado PENDIENTE.
// POST /api/radicados
func (h *RadicadoHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRadicadoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	creadoPor := c.Get("X-Usuario")
	rad, err := h.uc.Crear(creadoPor, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "número de radicado ya existe"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(rad)
}

// List devuelve una página de radicados.
// GET /api/radicados
func (h *RadicadoHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	rads, err := h.uc.Listar(page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rads)
}

// GetByID obtiene un radicado.
// GET /api/radicados/:id
func (h *RadicadoHandler) GetByID(c *fiber.Ctx) error {
	rad, err := h.uc.Obtener(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rad)
}

// Adjuntar agrega un documento soporte al radicado.
// POST /api/radicados/:id/documentos
func (h *RadicadoHandler) Adjuntar(c *fiber.Ctx) error {
	var in dto.AdjuntarDocumentoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.Adjuntar(c.Params("id"), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "documento inválido"})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		if errors.Is(err, domain.ErrEstadoInvalido) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: "el radicado ya no admite documentos"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// Documentos lista los soportes del radicado.
// GET /api/radicados/:id/documentos
func (h *RadicadoHandler) Documentos(c *fiber.Ctx) error {
	docs, err := h.uc.Documentos(c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(docs)
}

// Delete elimina el radicado y todo lo asociado.
// DELETE /api/radicados/:id
func (h *RadicadoHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Eliminar(c.Params("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "radicado no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
