package liquidacion_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
	"github.com/medisalud/liquidacion-api/internal/domain/liquidacion"
)

func item(id, codigo string, cantidad, valorUnitario int64) entity.ItemFacturado {
	it := entity.NuevoItem(codigo, "servicio "+codigo,
		decimal.NewFromInt(cantidad), decimal.NewFromInt(valorUnitario))
	it.ID = id
	return it
}

func agregado(total, contratado int64) liquidacion.Agregado {
	return liquidacion.Agregado{
		RadicadoID:      "rad-1",
		ValorTotal:      decimal.NewFromInt(total),
		ValorContratado: decimal.NewFromInt(contratado),
		Rango:           1,
	}
}

func reglaPorcentaje(id string, prioridad int, pct int64) entity.Regla {
	return entity.Regla{
		ID: id, Version: 1, Nombre: "descuento " + id, Prioridad: prioridad,
		Ambito: entity.AmbitoItem,
		Condicion: entity.Condicion{
			Campo: entity.CampoSubtotal, Operador: entity.OperadorGT, Valor: decimal.Zero,
		},
		Politica: entity.Politica{Tipo: entity.PoliticaPorcentaje, Valor: decimal.NewFromInt(pct)},
		Activa:   true,
	}
}

// TestEvaluar_TopeValorContratado reproduce el caso de tarifa sobre lo pactado:
// valor contratado 80.000, una línea facturada por 90.000 y una regla de tope
// al valor contratado. Glosa esperada: 10.000.
func TestEvaluar_TopeValorContratado(t *testing.T) {
	items := []entity.ItemFacturado{item("it-1", "890201", 1, 90_000)}
	regla := entity.Regla{
		ID: "R-TOPE", Version: 1, Nombre: "tope al valor contratado", Prioridad: 10,
		Ambito: entity.AmbitoItem,
		Condicion: entity.Condicion{
			Campo: entity.CampoSubtotal, Operador: entity.OperadorGT, Valor: decimal.Zero,
		},
		Politica: entity.Politica{Tipo: entity.PoliticaTope}, // sin tope propio: usa el contratado
		Activa:   true,
	}

	res, err := liquidacion.Evaluar(items, agregado(90_000, 80_000), []entity.Regla{regla})
	require.NoError(t, err)
	require.Len(t, res.Glosas, 1)

	assert.True(t, res.Glosas[0].Valor.Equal(decimal.NewFromInt(10_000)),
		"glosa = subtotal - valor contratado")
	assert.Equal(t, "it-1", res.Glosas[0].ItemID)
	assert.Equal(t, "R-TOPE", res.Glosas[0].ReglaID)

	glosado, aPagar := liquidacion.Totalizar(decimal.NewFromInt(90_000), res.Glosas)
	assert.True(t, glosado.Equal(decimal.NewFromInt(10_000)))
	assert.True(t, aPagar.Equal(decimal.NewFromInt(80_000)))
}

// TestEvaluar_AcumulativasSobreSubtotalOriginal verifica que dos reglas
// porcentuales sobre la misma línea se calculan ambas sobre el subtotal
// original (10% + 20% de 100.000 = 30.000), no compuestas.
func TestEvaluar_AcumulativasSobreSubtotalOriginal(t *testing.T) {
	items := []entity.ItemFacturado{item("it-1", "890201", 1, 100_000)}
	reglas := []entity.Regla{
		reglaPorcentaje("R-B", 20, 20),
		reglaPorcentaje("R-A", 10, 10),
	}

	res, err := liquidacion.Evaluar(items, agregado(100_000, 0), reglas)
	require.NoError(t, err)
	require.Len(t, res.Glosas, 2)

	glosado, _ := liquidacion.Totalizar(decimal.NewFromInt(100_000), res.Glosas)
	assert.True(t, glosado.Equal(decimal.NewFromInt(30_000)),
		"10%% y 20%% del subtotal original, nunca sobre el valor ya reducido")
}

// TestEvaluar_NoReconocidoCortaElItem: una regla NO_RECONOCIDO glosa el saldo
// completo de la línea y las reglas posteriores ya no pueden glosarla.
func TestEvaluar_NoReconocidoCortaElItem(t *testing.T) {
	items := []entity.ItemFacturado{item("it-1", "890301", 1, 50_000)}
	anula := entity.Regla{
		ID: "R-ANULA", Version: 2, Nombre: "servicio no reconocido", Prioridad: 5,
		Ambito: entity.AmbitoItem,
		Condicion: entity.Condicion{
			Campo: entity.CampoCodigo, Operador: entity.OperadorEQ, Codigo: "890301",
		},
		Politica: entity.Politica{Tipo: entity.PoliticaNoReconocido},
		Activa:   true,
	}
	posterior := reglaPorcentaje("R-POST", 50, 10)

	res, err := liquidacion.Evaluar(items, agregado(50_000, 0), []entity.Regla{posterior, anula})
	require.NoError(t, err)
	require.Len(t, res.Glosas, 1, "la regla posterior no debe glosar un ítem anulado")

	assert.Equal(t, "R-ANULA", res.Glosas[0].ReglaID)
	assert.True(t, res.Glosas[0].Valor.Equal(decimal.NewFromInt(50_000)))

	_, aPagar := liquidacion.Totalizar(decimal.NewFromInt(50_000), res.Glosas)
	assert.True(t, aPagar.Equal(decimal.Zero))
}

// TestEvaluar_OrdenDeterminista: barajar el orden de almacenamiento de las
// reglas nunca cambia las glosas ni su orden (prioridad asc, desempate por ID).
func TestEvaluar_OrdenDeterminista(t *testing.T) {
	items := []entity.ItemFacturado{
		item("it-1", "890201", 2, 40_000),
		item("it-2", "890202", 1, 75_000),
	}
	reglas := []entity.Regla{
		reglaPorcentaje("R-C", 10, 5),
		reglaPorcentaje("R-A", 10, 10), // misma prioridad que R-C: desempata el ID
		reglaPorcentaje("R-B", 1, 15),
	}

	base, err := liquidacion.Evaluar(items, agregado(155_000, 0), reglas)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		barajadas := make([]entity.Regla, len(reglas))
		copy(barajadas, reglas)
		rnd.Shuffle(len(barajadas), func(a, b int) {
			barajadas[a], barajadas[b] = barajadas[b], barajadas[a]
		})

		res, err := liquidacion.Evaluar(items, agregado(155_000, 0), barajadas)
		require.NoError(t, err)
		require.Len(t, res.Glosas, len(base.Glosas))
		for j := range base.Glosas {
			assert.Equal(t, base.Glosas[j].ReglaID, res.Glosas[j].ReglaID)
			assert.Equal(t, base.Glosas[j].ItemID, res.Glosas[j].ItemID)
			assert.True(t, base.Glosas[j].Valor.Equal(res.Glosas[j].Valor))
		}
	}
}

// TestEvaluar_RecorteAlSaldoDeLinea: las deducciones acumuladas de una línea
// nunca superan su subtotal.
func TestEvaluar_RecorteAlSaldoDeLinea(t *testing.T) {
	items := []entity.ItemFacturado{item("it-1", "890201", 1, 10_000)}
	fija := entity.Regla{
		ID: "R-FIJA", Version: 1, Nombre: "copago fijo", Prioridad: 1,
		Ambito: entity.AmbitoItem,
		Condicion: entity.Condicion{
			Campo: entity.CampoSubtotal, Operador: entity.OperadorGT, Valor: decimal.Zero,
		},
		Politica: entity.Politica{Tipo: entity.PoliticaFija, Valor: decimal.NewFromInt(8_000)},
		Activa:   true,
	}
	reglas := []entity.Regla{fija, reglaPorcentaje("R-PCT", 2, 50)}

	res, err := liquidacion.Evaluar(items, agregado(10_000, 0), reglas)
	require.NoError(t, err)

	glosado, aPagar := liquidacion.Totalizar(decimal.NewFromInt(10_000), res.Glosas)
	assert.True(t, glosado.LessThanOrEqual(decimal.NewFromInt(10_000)))
	assert.True(t, aPagar.GreaterThanOrEqual(decimal.Zero))
}

// TestEvaluar_ReglaCuenta: una regla de ámbito CUENTA genera una glosa sin ítem.
func TestEvaluar_ReglaCuenta(t *testing.T) {
	items := []entity.ItemFacturado{item("it-1", "890201", 1, 120_000)}
	cuenta := entity.Regla{
		ID: "R-CTA", Version: 1, Nombre: "tope de cuenta", Prioridad: 1,
		Ambito: entity.AmbitoCuenta,
		Condicion: entity.Condicion{
			Campo: entity.CampoValorTotal, Operador: entity.OperadorGT, Valor: decimal.NewFromInt(100_000),
		},
		Politica: entity.Politica{Tipo: entity.PoliticaTope, Valor: decimal.NewFromInt(100_000)},
		Activa:   true,
	}

	res, err := liquidacion.Evaluar(items, agregado(120_000, 0), []entity.Regla{cuenta})
	require.NoError(t, err)
	require.Len(t, res.Glosas, 1)

	assert.Empty(t, res.Glosas[0].ItemID, "glosa de cuenta no referencia ítem")
	assert.True(t, res.Glosas[0].Valor.Equal(decimal.NewFromInt(20_000)))
}

// TestEvaluar_ReglaMalFormada: un campo desconocido aborta la corrida completa,
// nunca se omite en silencio.
func TestEvaluar_ReglaMalFormada(t *testing.T) {
	items := []entity.ItemFacturado{item("it-1", "890201", 1, 10_000)}
	rota := entity.Regla{
		ID: "R-ROTA", Version: 1, Nombre: "regla rota", Prioridad: 1,
		Ambito:    entity.AmbitoItem,
		Condicion: entity.Condicion{Campo: "CAMPO_X", Operador: entity.OperadorGT},
		Politica:  entity.Politica{Tipo: entity.PoliticaFija, Valor: decimal.NewFromInt(1)},
		Activa:    true,
	}

	_, err := liquidacion.Evaluar(items, agregado(10_000, 0), []entity.Regla{rota})
	require.ErrorIs(t, err, domain.ErrEvaluacionReglas)
}

// TestTotalizar_PisoEnCero: el valor a pagar nunca es negativo y el piso se
// aplica una sola vez en la agregación.
func TestTotalizar_PisoEnCero(t *testing.T) {
	glosas := []entity.Glosa{
		{Valor: decimal.NewFromInt(60_000)},
		{Valor: decimal.NewFromInt(70_000)},
	}
	glosado, aPagar := liquidacion.Totalizar(decimal.NewFromInt(100_000), glosas)
	assert.True(t, glosado.Equal(decimal.NewFromInt(130_000)))
	assert.True(t, aPagar.Equal(decimal.Zero))
}
