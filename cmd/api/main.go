package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appliquidacion "github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/application/radicados"
	"github.com/medisalud/liquidacion-api/internal/application/reglas"
	infraextractor "github.com/medisalud/liquidacion-api/internal/infrastructure/extractor"
	infrapdf "github.com/medisalud/liquidacion-api/internal/infrastructure/pdf"
	"github.com/medisalud/liquidacion-api/internal/infrastructure/postgres"
	"github.com/medisalud/liquidacion-api/internal/infrastructure/report"
	httpRouter "github.com/medisalud/liquidacion-api/internal/interfaces/http"
	"github.com/medisalud/liquidacion-api/pkg/config"
	"github.com/medisalud/liquidacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	radicadoRepo := postgres.NewRadicadoRepository(pool)
	documentoRepo := postgres.NewDocumentoRepository(pool)
	reglaRepo := postgres.NewReglaRepository(pool)
	resultadoRepo := postgres.NewResultadoRepository(pool)
	artifacts := postgres.NewArtifactStore(pool)
	contratos := postgres.NewContratoLookup(pool)
	txRunner := postgres.NewTxRunner(pool)

	radicadoUC := radicados.NewUseCase(radicadoRepo, documentoRepo)
	reglasUC := reglas.NewUseCase(reglaRepo)

	extractor := infraextractor.New(log)
	excelGen := report.NewExcelGenerator(cfg.Liquidacion.ToleranciaCentavos, log)
	anexoGen := report.NewAnexoXMLGenerator()

	orquestador := appliquidacion.NewOrquestador(
		txRunner, radicadoRepo, documentoRepo, reglaRepo, resultadoRepo, artifacts,
		extractor, excelGen, anexoGen, contratos,
		appliquidacion.NewLeaseLocal(),
		appliquidacion.Config{
			ExtractorWorkers: cfg.Liquidacion.ExtractorWorkers,
			ContratoTimeout:  time.Duration(cfg.Liquidacion.ContratoTimeoutMS) * time.Millisecond,
		},
		log,
	)

	// PDF: acta de liquidación del resultado vigente
	actaGen := infrapdf.NewActaGenerator()
	actaUC := appliquidacion.NewActaUseCase(radicadoRepo, documentoRepo, resultadoRepo, actaGen)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    32 * 1024 * 1024, // soportes PDF en base64
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Liquidador de Cuentas Médicas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RadicadoUC:  radicadoUC,
		Orquestador: orquestador,
		ActaUC:      actaUC,
		ReglasUC:    reglasUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
