package liquidacion

import "github.com/shopspring/decimal"

// Umbrales de las bandas tarifarias en COP. Límite inferior inclusivo:
//
//	Rango 1: valor <  1.000.000
//	Rango 2: 1.000.000  <= valor < 10.000.000
//	Rango 3: 10.000.000 <= valor < 50.000.000
//	Rango 4: valor >= 50.000.000
var (
	umbralRango2 = decimal.NewFromInt(1_000_000)
	umbralRango3 = decimal.NewFromInt(10_000_000)
	umbralRango4 = decimal.NewFromInt(50_000_000)
)

// ClasificarRango es la función pura que mapea el valor controlante del
// radicado (valor contratado si está pactado, si no el total facturado) a su
// banda tarifaria. El rango nunca se asigna directamente: se recalcula cada
// vez que cambia el valor controlante.
func ClasificarRango(valorControlante decimal.Decimal) int {
	switch {
	case valorControlante.LessThan(umbralRango2):
		return 1
	case valorControlante.LessThan(umbralRango3):
		return 2
	case valorControlante.LessThan(umbralRango4):
		return 3
	default:
		return 4
	}
}
