package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/medisalud/liquidacion-api/internal/application/dto"
	"github.com/medisalud/liquidacion-api/internal/application/reglas"
	"github.com/medisalud/liquidacion-api/internal/domain"
)

// ReglaHandler expone el snapshot de reglas en modo lectura.
type ReglaHandler struct {
	uc *reglas.UseCase
}

// NewReglaHandler construye el handler.
func NewReglaHandler(uc *reglas.UseCase) *ReglaHandler {
	return &ReglaHandler{uc: uc}
}

// SnapshotPorRango devuelve las reglas activas de una banda.
// GET /api/reglas/rango/:rango
func (h *ReglaHandler) SnapshotPorRango(c *fiber.Ctx) error {
	rango, err := c.ParamsInt("rango")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rango inválido"})
	}
	out, err := h.uc.SnapshotPorRango(rango)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el rango debe estar entre 1 y 4"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
