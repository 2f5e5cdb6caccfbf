package extractor

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/medisalud/liquidacion-api/internal/application/liquidacion"
	"github.com/medisalud/liquidacion-api/internal/domain/entity"
)

// extraerTexto parsea detalles de cargos en texto plano, una línea por ítem:
//
//	codigo;descripcion;cantidad;valor_unitario
//
// Las líneas en blanco y los encabezados que empiezan con '#' se ignoran.
// Una línea malformada genera diagnóstico y se omite; si ninguna línea es
// válida la extracción se marca fallida.
func extraerTexto(doc *entity.Documento, contenido []byte) liquidacion.ResultadoExtraccion {
	var res liquidacion.ResultadoExtraccion

	sc := bufio.NewScanner(bytes.NewReader(contenido))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	numLinea := 0
	for sc.Scan() {
		numLinea++
		linea := strings.TrimSpace(sc.Text())
		if linea == "" || strings.HasPrefix(linea, "#") {
			continue
		}
		item, err := parsearLinea(linea)
		if err != nil {
			res.Diagnosticos = append(res.Diagnosticos,
				fmt.Sprintf("%s linea %d: %v", doc.Nombre, numLinea, err))
			continue
		}
		res.Items = append(res.Items, item)
	}
	if err := sc.Err(); err != nil {
		res.Diagnosticos = append(res.Diagnosticos,
			fmt.Sprintf("%s: lectura interrumpida: %v", doc.Nombre, err))
	}

	res.Exitosa = len(res.Items) > 0
	if !res.Exitosa && len(res.Diagnosticos) == 0 {
		res.Diagnosticos = append(res.Diagnosticos,
			fmt.Sprintf("%s: sin lineas de cobro reconocibles", doc.Nombre))
	}
	return res
}

func parsearLinea(linea string) (entity.ItemFacturado, error) {
	campos := strings.Split(linea, ";")
	if len(campos) != 4 {
		return entity.ItemFacturado{}, fmt.Errorf("se esperaban 4 campos, hay %d", len(campos))
	}

	codigo := strings.TrimSpace(campos[0])
	if codigo == "" {
		return entity.ItemFacturado{}, fmt.Errorf("codigo vacio")
	}
	descripcion := NormalizarTexto(strings.TrimSpace(campos[1]))

	cantidad, err := decimal.NewFromString(strings.TrimSpace(campos[2]))
	if err != nil {
		return entity.ItemFacturado{}, fmt.Errorf("cantidad invalida %q", campos[2])
	}
	if cantidad.Sign() <= 0 {
		return entity.ItemFacturado{}, fmt.Errorf("cantidad debe ser positiva: %s", cantidad)
	}

	valorUnitario, err := decimal.NewFromString(strings.TrimSpace(campos[3]))
	if err != nil {
		return entity.ItemFacturado{}, fmt.Errorf("valor unitario invalido %q", campos[3])
	}
	if valorUnitario.Sign() < 0 {
		return entity.ItemFacturado{}, fmt.Errorf("valor unitario negativo: %s", valorUnitario)
	}

	return entity.NuevoItem(codigo, descripcion, cantidad, valorUnitario), nil
}
