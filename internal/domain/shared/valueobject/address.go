package valueobject

import (
	"encoding/json"
	"strings"
)

// Address is a Brazilian postal address value object
type Address struct {
	street     string
	number     string
	district   string
	city       string
	state      UF
	postalCode string
}

// NewAddress creates an address; the state must be resolvable
func NewAddress(street, number, district, city, state, postalCode string) (Address, error) {
	uf, err := ParseUF(state)
	if err != nil {
		return Address{}, err
	}
	return Address{
		street:     strings.TrimSpace(street),
		number:     strings.TrimSpace(number),
		district:   strings.TrimSpace(district),
		city:       strings.TrimSpace(city),
		state:      uf,
		postalCode: normalizeCEP(postalCode),
	}, nil
}

// Street returns the street
func (a Address) Street() string { return a.street }

// Number returns the street number
func (a Address) Number() string { return a.number }

// District returns the neighbourhood (bairro)
func (a Address) District() string { return a.district }

// City returns the city
func (a Address) City() string { return a.city }

// State returns the federative unit
func (a Address) State() UF { return a.state }

// PostalCode returns the CEP, digits only
func (a Address) PostalCode() string { return a.postalCode }

// IsEmpty reports whether no state was resolved
func (a Address) IsEmpty() bool {
	return a.state == ""
}

// addressDocument mirrors the loose JSON the storefront stores for customers
type addressDocument struct {
	Street     string           `json:"street"`
	Logradouro string           `json:"logradouro"`
	Number     string           `json:"number"`
	Numero     string           `json:"numero"`
	District   string           `json:"neighborhood"`
	Bairro     string           `json:"bairro"`
	City       string           `json:"city"`
	Cidade     string           `json:"cidade"`
	State      string           `json:"state"`
	UF         string           `json:"uf"`
	Estado     string           `json:"estado"`
	CEP        string           `json:"cep"`
	ZipCode    string           `json:"zip_code"`
	Nested     *addressDocument `json:"address"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ParseAddressJSON reads an address stored as JSON. Either flat documents or
// documents with a nested "address" object are accepted.
func ParseAddressJSON(raw string) (Address, error) {
	var doc addressDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Address{}, err
	}
	if firstNonEmpty(doc.State, doc.UF, doc.Estado) == "" && doc.Nested != nil {
		doc = *doc.Nested
	}
	return NewAddress(
		firstNonEmpty(doc.Street, doc.Logradouro),
		firstNonEmpty(doc.Number, doc.Numero),
		firstNonEmpty(doc.District, doc.Bairro),
		firstNonEmpty(doc.City, doc.Cidade),
		firstNonEmpty(doc.State, doc.UF, doc.Estado),
		firstNonEmpty(doc.CEP, doc.ZipCode),
	)
}

// StateFromAddressJSON returns the address state, or fallback when the JSON
// is missing or malformed or names no known state
func StateFromAddressJSON(raw string, fallback UF) UF {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	addr, err := ParseAddressJSON(raw)
	if err != nil || addr.IsEmpty() {
		return fallback
	}
	return addr.State()
}

func normalizeCEP(cep string) string {
	var b strings.Builder
	for _, r := range cep {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
