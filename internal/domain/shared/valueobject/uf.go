package valueobject

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UF is a Brazilian federative unit (state) code, e.g. "SP"
type UF string

// DefaultUF is used whenever a destination cannot be resolved
const DefaultUF UF = "SP"

var ufNames = map[UF]string{
	"AC": "Acre",
	"AL": "Alagoas",
	"AP": "Amapá",
	"AM": "Amazonas",
	"BA": "Bahia",
	"CE": "Ceará",
	"DF": "Distrito Federal",
	"ES": "Espírito Santo",
	"GO": "Goiás",
	"MA": "Maranhão",
	"MT": "Mato Grosso",
	"MS": "Mato Grosso do Sul",
	"MG": "Minas Gerais",
	"PA": "Pará",
	"PB": "Paraíba",
	"PR": "Paraná",
	"PE": "Pernambuco",
	"PI": "Piauí",
	"RJ": "Rio de Janeiro",
	"RN": "Rio Grande do Norte",
	"RS": "Rio Grande do Sul",
	"RO": "Rondônia",
	"RR": "Roraima",
	"SC": "Santa Catarina",
	"SP": "São Paulo",
	"SE": "Sergipe",
	"TO": "Tocantins",
}

// byFoldedName maps accent-free lowercase state names to codes
var byFoldedName = func() map[string]UF {
	m := make(map[string]UF, len(ufNames))
	for code, name := range ufNames {
		m[foldName(name)] = code
	}
	return m
}()

// foldName lowercases and strips diacritics ("São Paulo" -> "sao paulo")
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// ParseUF accepts a two-letter code or a full state name, accents optional
func ParseUF(s string) (UF, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("state cannot be empty")
	}
	if len(trimmed) == 2 {
		code := UF(strings.ToUpper(trimmed))
		if code.IsValid() {
			return code, nil
		}
	}
	if code, ok := byFoldedName[foldName(trimmed)]; ok {
		return code, nil
	}
	return "", fmt.Errorf("unknown Brazilian state: %q", s)
}

// MustUF parses a state code, panics on error
func MustUF(s string) UF {
	uf, err := ParseUF(s)
	if err != nil {
		panic(err)
	}
	return uf
}

// ParseUFOrDefault never fails: unknown input resolves to DefaultUF
func ParseUFOrDefault(s string) UF {
	uf, err := ParseUF(s)
	if err != nil {
		return DefaultUF
	}
	return uf
}

// IsValid reports whether the code is one of the 27 federative units
func (u UF) IsValid() bool {
	_, ok := ufNames[u]
	return ok
}

// Name returns the state's full name
func (u UF) Name() string {
	return ufNames[u]
}

// String returns the code
func (u UF) String() string {
	return string(u)
}

// AllUFs returns every state code in alphabetical order
func AllUFs() []UF {
	codes := make([]UF, 0, len(ufNames))
	for code := range ufNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
