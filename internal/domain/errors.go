package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrValidacion        = errors.New("el radicado no cumple los requisitos para liquidar")
	ErrEstadoInvalido    = errors.New("transición de estado no permitida")
	ErrOcupado           = errors.New("ya existe una liquidación en curso para el radicado")
	ErrExtraccion        = errors.New("documento ilegible o corrupto")
	ErrEvaluacionReglas  = errors.New("regla mal formada, evaluación abortada")
	ErrConciliacion      = errors.New("los totales del reporte no concilian con la liquidación")
	ErrSinResultado      = errors.New("el radicado no tiene una liquidación vigente")
)
