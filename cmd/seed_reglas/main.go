// seed_reglas genera el script SQL con el paquete base de reglas de glosa por
// rango (topes de cuenta, cantidades máximas y servicios no reconocidos).
//
// Uso: go run ./cmd/seed_reglas
// Escribe: internal/infrastructure/postgres/migrations/002_seed_reglas.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type semilla struct {
	id            string
	nombre        string
	justificacion string
	rangos        []int
	prioridad     int
	ambito        string
	condCampo     string
	condOperador  string
	condValor     string
	condCodigo    string
	politicaTipo  string
	politicaValor string
}

var semillas = []semilla{
	{
		id:            "TOPE-CONTRATADO",
		nombre:        "Tope al valor contratado",
		justificacion: "El valor facturado de la cuenta excede el valor pactado en el contrato",
		rangos:        []int{1, 2, 3, 4},
		prioridad:     10,
		ambito:        "CUENTA",
		condCampo:     "VALOR_TOTAL",
		condOperador:  "GT",
		condValor:     "0",
		politicaTipo:  "TOPE",
		politicaValor: "0", // cero = usar el valor contratado del radicado
	},
	{
		id:            "CANT-CONSULTA",
		nombre:        "Cantidad máxima de consultas por cuenta",
		justificacion: "Cantidad de consultas supera el máximo reconocido por evento",
		rangos:        []int{1, 2},
		prioridad:     20,
		ambito:        "ITEM",
		condCampo:     "CANTIDAD",
		condOperador:  "GT",
		condValor:     "3",
		condCodigo:    "890201",
		politicaTipo:  "PORCENTAJE",
		politicaValor: "50",
	},
	{
		id:            "VU-ALTO-COSTO",
		nombre:        "Valor unitario fuera de tarifario en alto costo",
		justificacion: "Valor unitario excede el tarifario de referencia para cuentas de alto costo",
		rangos:        []int{3, 4},
		prioridad:     30,
		ambito:        "ITEM",
		condCampo:     "VALOR_UNITARIO",
		condOperador:  "GT",
		condValor:     "5000000",
		politicaTipo:  "PORCENTAJE",
		politicaValor: "20",
	},
	{
		id:            "NO-POS-ESTETICO",
		nombre:        "Servicio estético no reconocido",
		justificacion: "Procedimiento estético excluido del plan de beneficios",
		rangos:        []int{1, 2, 3, 4},
		prioridad:     5,
		ambito:        "ITEM",
		condCampo:     "CODIGO",
		condOperador:  "EQ",
		condValor:     "0",
		condCodigo:    "952001",
		politicaTipo:  "NO_RECONOCIDO",
		politicaValor: "0",
	},
}

func main() {
	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_reglas.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Paquete base de reglas de glosa por rango\n")
	out.WriteString("-- Generado por cmd/seed_reglas\n\n")

	for _, s := range semillas {
		rangos := make([]string, len(s.rangos))
		for i, r := range s.rangos {
			rangos[i] = fmt.Sprintf("%d", r)
		}
		condCodigo := "NULL"
		if s.condCodigo != "" {
			condCodigo = "'" + escapeSQL(s.condCodigo) + "'"
		}
		fmt.Fprintf(out, "INSERT INTO reglas (id, version, nombre, justificacion, rangos, prioridad, ambito,\n")
		fmt.Fprintf(out, "       cond_campo, cond_operador, cond_valor, cond_codigo,\n")
		fmt.Fprintf(out, "       politica_tipo, politica_valor, activa, created_at)\n")
		fmt.Fprintf(out, "VALUES ('%s', 1, '%s', '%s', '{%s}', %d, '%s',\n",
			escapeSQL(s.id), escapeSQL(s.nombre), escapeSQL(s.justificacion),
			strings.Join(rangos, ","), s.prioridad, s.ambito)
		fmt.Fprintf(out, "        '%s', '%s', %s, %s,\n",
			s.condCampo, s.condOperador, s.condValor, condCodigo)
		fmt.Fprintf(out, "        '%s', %s, true, now())\n", s.politicaTipo, s.politicaValor)
		fmt.Fprintf(out, "ON CONFLICT (id, version) DO NOTHING;\n\n")
	}

	fmt.Printf("Generado %s: %d reglas\n", outPath, len(semillas))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
