// Package liquidacion contiene los servicios de dominio puros del motor de
// liquidación: clasificación de rango, evaluación de reglas (motor de glosas)
// y totalización. No tiene efectos secundarios ni dependencias de
// infraestructura; el orquestador es quien persiste.
package liquidacion

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/medisalud/liquidacion-api/internal/domain"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
)

var cien = decimal.NewFromInt(100)

// Agregado es la vista de cuenta que ven las reglas de ámbito CUENTA.
type Agregado struct {
	RadicadoID      string
	ValorTotal      decimal.Decimal
	ValorContratado decimal.Decimal
	Rango           int
}

// ResultadoEvaluacion es la salida del motor de glosas.
type ResultadoEvaluacion struct {
	Glosas          []entity.Glosa
	ReglasAplicadas []entity.ReglaAplicada
}

// Evaluar aplica el snapshot de reglas a las líneas y al agregado de la cuenta.
//
// Semántica:
//   - Orden de evaluación determinista: prioridad ascendente, desempate por ID.
//     Barajar el orden de almacenamiento nunca cambia el resultado.
//   - Las reglas son acumulativas: varias reglas pueden glosar la misma línea.
//   - Cada deducción se calcula sobre el subtotal ORIGINAL de la línea, nunca
//     sobre un valor ya reducido en la misma corrida (evita resultados
//     dependientes del orden para reglas porcentuales).
//   - El acumulado de glosas de una línea se recorta al subtotal de la línea,
//     así una línea nunca queda con valor a pagar negativo.
//   - NO_RECONOCIDO glosa el saldo completo de la línea y corta la evaluación
//     de reglas posteriores para esa línea.
//   - Una regla mal formada aborta toda la evaluación con ErrEvaluacionReglas.
func Evaluar(items []entity.ItemFacturado, agregado Agregado, reglas []entity.Regla) (*ResultadoEvaluacion, error) {
	orden := ordenarReglas(reglas)

	for i := range orden {
		if err := validarRegla(&orden[i]); err != nil {
			return nil, err
		}
	}

	res := &ResultadoEvaluacion{}
	aplicadas := make(map[string]bool)

	marcarAplicada := func(r *entity.Regla) {
		clave := fmt.Sprintf("%s@%d", r.ID, r.Version)
		if aplicadas[clave] {
			return
		}
		aplicadas[clave] = true
		res.ReglasAplicadas = append(res.ReglasAplicadas, entity.ReglaAplicada{
			ReglaID: r.ID,
			Version: r.Version,
			Nombre:  r.Nombre,
		})
	}

	// Reglas de ámbito ITEM, línea por línea en el orden del radicado.
	for _, item := range items {
		glosado := decimal.Zero
		for i := range orden {
			regla := &orden[i]
			if regla.Ambito != entity.AmbitoItem {
				continue
			}
			if !condicionItem(&regla.Condicion, &item) {
				continue
			}
			deduccion := deduccionItem(regla, &item, &agregado)
			// Recorte al saldo de la línea; deducciones agotadas no generan glosa.
			disponible := item.Subtotal.Sub(glosado)
			if deduccion.GreaterThan(disponible) {
				deduccion = disponible
			}
			if !deduccion.GreaterThan(decimal.Zero) {
				continue
			}
			glosado = glosado.Add(deduccion)
			res.Glosas = append(res.Glosas, entity.Glosa{
				RadicadoID:    agregado.RadicadoID,
				ItemID:        item.ID,
				ReglaID:       regla.ID,
				ReglaVersion:  regla.Version,
				Valor:         deduccion,
				Justificacion: justificacion(regla),
			})
			marcarAplicada(regla)
			if regla.Politica.Tipo == entity.PoliticaNoReconocido {
				break
			}
		}
	}

	// Reglas de ámbito CUENTA sobre el agregado.
	for i := range orden {
		regla := &orden[i]
		if regla.Ambito != entity.AmbitoCuenta {
			continue
		}
		if !comparar(regla.Condicion.Operador, agregado.ValorTotal, regla.Condicion.Valor) {
			continue
		}
		deduccion := deduccionCuenta(regla, &agregado)
		if !deduccion.GreaterThan(decimal.Zero) {
			continue
		}
		res.Glosas = append(res.Glosas, entity.Glosa{
			RadicadoID:    agregado.RadicadoID,
			ReglaID:       regla.ID,
			ReglaVersion:  regla.Version,
			Valor:         deduccion,
			Justificacion: justificacion(regla),
		})
		marcarAplicada(regla)
	}

	return res, nil
}

// Totalizar calcula el total glosado y el valor a pagar.
// El piso en cero se aplica aquí, una sola vez por corrida.
func Totalizar(valorFacturado decimal.Decimal, glosas []entity.Glosa) (glosado, aPagar decimal.Decimal) {
	glosado = decimal.Zero
	for _, g := range glosas {
		glosado = glosado.Add(g.Valor)
	}
	aPagar = valorFacturado.Sub(glosado)
	if aPagar.LessThan(decimal.Zero) {
		aPagar = decimal.Zero
	}
	return glosado, aPagar
}

// ordenarReglas devuelve una copia ordenada por (prioridad, id): el orden total
// determinista que garantiza reproducibilidad entre corridas.
func ordenarReglas(reglas []entity.Regla) []entity.Regla {
	orden := make([]entity.Regla, len(reglas))
	copy(orden, reglas)
	sort.SliceStable(orden, func(i, j int) bool {
		if orden[i].Prioridad != orden[j].Prioridad {
			return orden[i].Prioridad < orden[j].Prioridad
		}
		return orden[i].ID < orden[j].ID
	})
	return orden
}

func validarRegla(r *entity.Regla) error {
	switch r.Ambito {
	case entity.AmbitoItem:
		switch r.Condicion.Campo {
		case entity.CampoCantidad, entity.CampoValorUnitario, entity.CampoSubtotal, entity.CampoCodigo:
		default:
			return fmt.Errorf("%w: regla %s v%d campo %q no aplica a ITEM",
				domain.ErrEvaluacionReglas, r.ID, r.Version, r.Condicion.Campo)
		}
	case entity.AmbitoCuenta:
		if r.Condicion.Campo != entity.CampoValorTotal {
			return fmt.Errorf("%w: regla %s v%d campo %q no aplica a CUENTA",
				domain.ErrEvaluacionReglas, r.ID, r.Version, r.Condicion.Campo)
		}
	default:
		return fmt.Errorf("%w: regla %s v%d ámbito %q desconocido",
			domain.ErrEvaluacionReglas, r.ID, r.Version, r.Ambito)
	}

	switch r.Condicion.Operador {
	case entity.OperadorGT, entity.OperadorGTE, entity.OperadorLT, entity.OperadorLTE,
		entity.OperadorEQ, entity.OperadorNEQ:
	default:
		return fmt.Errorf("%w: regla %s v%d operador %q desconocido",
			domain.ErrEvaluacionReglas, r.ID, r.Version, r.Condicion.Operador)
	}

	switch r.Politica.Tipo {
	case entity.PoliticaFija, entity.PoliticaTope:
		if r.Politica.Valor.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: regla %s v%d valor de política negativo",
				domain.ErrEvaluacionReglas, r.ID, r.Version)
		}
	case entity.PoliticaPorcentaje:
		if r.Politica.Valor.LessThan(decimal.Zero) || r.Politica.Valor.GreaterThan(cien) {
			return fmt.Errorf("%w: regla %s v%d porcentaje fuera de [0,100]",
				domain.ErrEvaluacionReglas, r.ID, r.Version)
		}
	case entity.PoliticaNoReconocido:
	default:
		return fmt.Errorf("%w: regla %s v%d política %q desconocida",
			domain.ErrEvaluacionReglas, r.ID, r.Version, r.Politica.Tipo)
	}
	return nil
}

func condicionItem(c *entity.Condicion, item *entity.ItemFacturado) bool {
	switch c.Campo {
	case entity.CampoCantidad:
		return comparar(c.Operador, item.Cantidad, c.Valor)
	case entity.CampoValorUnitario:
		return comparar(c.Operador, item.ValorUnitario, c.Valor)
	case entity.CampoSubtotal:
		return comparar(c.Operador, item.Subtotal, c.Valor)
	case entity.CampoCodigo:
		if c.Operador == entity.OperadorNEQ {
			return item.Codigo != c.Codigo
		}
		return item.Codigo == c.Codigo
	}
	return false
}

func comparar(operador string, a, b decimal.Decimal) bool {
	switch operador {
	case entity.OperadorGT:
		return a.GreaterThan(b)
	case entity.OperadorGTE:
		return a.GreaterThanOrEqual(b)
	case entity.OperadorLT:
		return a.LessThan(b)
	case entity.OperadorLTE:
		return a.LessThanOrEqual(b)
	case entity.OperadorEQ:
		return a.Equal(b)
	case entity.OperadorNEQ:
		return !a.Equal(b)
	}
	return false
}

// deduccionItem calcula la deducción de una regla sobre el subtotal ORIGINAL del ítem.
func deduccionItem(r *entity.Regla, item *entity.ItemFacturado, agregado *Agregado) decimal.Decimal {
	switch r.Politica.Tipo {
	case entity.PoliticaFija:
		return r.Politica.Valor
	case entity.PoliticaPorcentaje:
		return item.Subtotal.Mul(r.Politica.Valor).Div(cien)
	case entity.PoliticaNoReconocido:
		return item.Subtotal
	case entity.PoliticaTope:
		tope := topeEfectivo(r, agregado)
		if !tope.GreaterThan(decimal.Zero) {
			return decimal.Zero
		}
		return item.Subtotal.Sub(tope)
	}
	return decimal.Zero
}

// deduccionCuenta calcula la deducción de una regla de ámbito CUENTA sobre el total facturado.
func deduccionCuenta(r *entity.Regla, agregado *Agregado) decimal.Decimal {
	switch r.Politica.Tipo {
	case entity.PoliticaFija:
		return r.Politica.Valor
	case entity.PoliticaPorcentaje:
		return agregado.ValorTotal.Mul(r.Politica.Valor).Div(cien)
	case entity.PoliticaNoReconocido:
		return agregado.ValorTotal
	case entity.PoliticaTope:
		tope := topeEfectivo(r, agregado)
		if !tope.GreaterThan(decimal.Zero) {
			return decimal.Zero
		}
		return agregado.ValorTotal.Sub(tope)
	}
	return decimal.Zero
}

// topeEfectivo resuelve el tope de una política TOPE: el valor configurado en
// la regla, o el valor contratado del radicado cuando la regla no fija uno.
func topeEfectivo(r *entity.Regla, agregado *Agregado) decimal.Decimal {
	if r.Politica.Valor.GreaterThan(decimal.Zero) {
		return r.Politica.Valor
	}
	return agregado.ValorContratado
}

func justificacion(r *entity.Regla) string {
	if r.Justificacion != "" {
		return r.Justificacion
	}
	return r.Nombre
}
