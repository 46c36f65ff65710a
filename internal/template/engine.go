package template

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jusconnect/api/internal/utils"
	"github.com/osteele/liquid"
)

// Renderizador compila e renderiza conteúdos Liquid, guardando os já compilados.
type Renderizador struct {
	engine *liquid.Engine
	cache  sync.Map // id do template -> compilado
}

type compilado struct {
	versao int64
	tpl    *liquid.Template
}

func NewRenderizador() *Renderizador {
	r := &Renderizador{engine: liquid.NewEngine()}
	r.registrarFiltros()
	return r
}

func (r *Renderizador) registrarFiltros() {
	// {{ honorarios | moeda }} -> R$ 1.234,56
	r.engine.RegisterFilter("moeda", func(v any) string {
		f, ok := paraFloat(v)
		if !ok {
			return fmt.Sprintf("%v", v)
		}
		return FormatarMoeda(f)
	})

	// {{ cliente.documento | documento }} aplica a máscara de CPF ou CNPJ
	r.engine.RegisterFilter("documento", func(s string) string {
		d := utils.SomenteDigitos(s)
		switch len(d) {
		case 11:
			return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
		case 14:
			return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
		}
		return s
	})

	// {{ audiencia | data_br }} -> 02/01/2006
	r.engine.RegisterFilter("data_br", func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.Format("02/01/2006")
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if p, err := time.Parse(layout, t); err == nil {
					return p.Format("02/01/2006")
				}
			}
			return t
		}
		return fmt.Sprintf("%v", v)
	})

	r.engine.RegisterFilter("maiusculas", strings.ToUpper)
}

// Validar compila o conteúdo e devolve o erro de sintaxe, se houver.
func (r *Renderizador) Validar(conteudo string) error {
	_, err := r.engine.ParseString(conteudo)
	if err != nil {
		return err
	}
	return nil
}

// Renderizar aplica as variáveis ao conteúdo. O cache guarda uma entrada por
// template e a troca quando a versão muda; id zero desativa o cache.
func (r *Renderizador) Renderizar(id uint, versao int64, conteudo string, variaveis map[string]any) (string, error) {
	var tpl *liquid.Template
	if id != 0 {
		if v, ok := r.cache.Load(id); ok && v.(compilado).versao == versao {
			tpl = v.(compilado).tpl
		}
	}
	if tpl == nil {
		parsed, err := r.engine.ParseString(conteudo)
		if err != nil {
			return "", err
		}
		tpl = parsed
		if id != 0 {
			r.cache.Store(id, compilado{versao: versao, tpl: tpl})
		}
	}
	if variaveis == nil {
		variaveis = map[string]any{}
	}
	out, err := tpl.RenderString(variaveis)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Esquecer descarta o compilado de um template alterado ou removido.
func (r *Renderizador) Esquecer(id uint) {
	r.cache.Delete(id)
}

// FormatarMoeda formata no padrão brasileiro: R$ 1.234,56.
func FormatarMoeda(v float64) string {
	negativo := v < 0
	if negativo {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	inteiro, centavos := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, c := range inteiro {
		if i > 0 && (len(inteiro)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := "R$ " + b.String() + "," + centavos
	if negativo {
		return "-" + out
	}
	return out
}

func paraFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
