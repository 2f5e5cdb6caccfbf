package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/application/radicados"
	"github.com/medisalud/liquidacion-api/internal/application/reglas"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RadicadoUC  *radicados.UseCase
	Orquestador *liquidacion.Orquestador
	ActaUC      *liquidacion.ActaUseCase
	ReglasUC    *reglas.UseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Radicados (ciclo de vida y soportes)
	rads := api.Group("/radicados")
	radicadoHandler := NewRadicadoHandler(deps.RadicadoUC)
	rads.Post("/", radicadoHandler.Create)
	rads.Get("/", radicadoHandler.List)
	rads.Get("/:id", radicadoHandler.GetByID)
	rads.Delete("/:id", radicadoHandler.Delete)
	rads.Post("/:id/documentos", radicadoHandler.Adjuntar)
	rads.Get("/:id/documentos", radicadoHandler.Documentos)

	// Liquidación (corridas, resultado y salidas)
	liquidacionHandler := NewLiquidacionHandler(deps.Orquestador, deps.ActaUC)
	rads.Post("/:id/liquidar", liquidacionHandler.Liquidar)
	rads.Post("/:id/finalizar", liquidacionHandler.Finalizar)
	rads.Get("/:id/resultado", liquidacionHandler.Resultado)
	rads.Get("/:id/reporte", liquidacionHandler.Reporte)
	rads.Get("/:id/acta", liquidacionHandler.Acta)

	// Reglas (solo lectura)
	reglasGroup := api.Group("/reglas")
	reglaHandler := NewReglaHandler(deps.ReglasUC)
	reglasGroup.Get("/rango/:rango", reglaHandler.SnapshotPorRango)
}
