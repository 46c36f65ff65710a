package processo

import (
	"errors"
	"fmt"

	"github.com/jusconnect/api/internal/utils"
)

var ErrNumeroCNJInvalido = errors.New("número CNJ inválido")

// NormalizarCNJ aceita o número com ou sem máscara, confere o dígito verificador
// (módulo 97) e devolve no formato NNNNNNN-DD.AAAA.J.TR.OOOO.
func NormalizarCNJ(numero string) (string, error) {
	d := utils.SomenteDigitos(numero)
	if len(d) != 20 {
		return "", ErrNumeroCNJInvalido
	}
	seq, dv, ano, j, tr, origem := d[0:7], d[7:9], d[9:13], d[13:14], d[14:16], d[16:20]
	if mod97(seq+ano+j+tr+origem+dv) != 1 {
		return "", ErrNumeroCNJInvalido
	}
	return fmt.Sprintf("%s-%s.%s.%s.%s.%s", seq, dv, ano, j, tr, origem), nil
}

func mod97(digits string) int {
	r := 0
	for _, c := range digits {
		r = (r*10 + int(c-'0')) % 97
	}
	return r
}
