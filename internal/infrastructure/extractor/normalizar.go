package extractor

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var quitarDiacriticos = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizarTexto quita diacríticos y colapsa espacios repetidos para que las
// descripciones extraídas de distintos soportes comparen igual.
func NormalizarTexto(s string) string {
	limpio, _, err := transform.String(quitarDiacriticos, s)
	if err != nil {
		limpio = s
	}
	return strings.Join(strings.Fields(limpio), " ")
}
