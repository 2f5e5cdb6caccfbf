package liquidacion_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/medisalud/liquidacion-api/internal/domain/liquidacion"
)

// TestClasificarRango_Bandas verifica las cuatro bandas y que los límites sean
// consistentes: el límite inferior de cada banda es inclusivo.
func TestClasificarRango_Bandas(t *testing.T) {
	casos := []struct {
		nombre string
		valor  int64
		rango  int
	}{
		{"cero", 0, 1},
		{"bajo el primer umbral", 999_999, 1},
		{"exactamente 1M entra a rango 2", 1_000_000, 2},
		{"medio", 5_000_000, 2},
		{"exactamente 10M entra a rango 3", 10_000_000, 3},
		{"alto", 49_999_999, 3},
		{"exactamente 50M entra a rango 4", 50_000_000, 4},
		{"muy alto", 900_000_000, 4},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			got := liquidacion.ClasificarRango(decimal.NewFromInt(c.valor))
			assert.Equal(t, c.rango, got)
		})
	}
}

// TestClasificarRango_Estable verifica que un valor exactamente en el límite
// clasifica siempre en la misma banda en evaluaciones repetidas.
func TestClasificarRango_Estable(t *testing.T) {
	limite := decimal.NewFromInt(10_000_000)
	primero := liquidacion.ClasificarRango(limite)
	for i := 0; i < 100; i++ {
		assert.Equal(t, primero, liquidacion.ClasificarRango(limite))
	}
}
