// Package seed reads tax reference tables from YAML files.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mestresdocafe/backend/internal/application/tax"
	"github.com/mestresdocafe/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AllStates expands a state rate entry to every destination
const AllStates = "*"

// File is the YAML layout of a tax table
type File struct {
	StateRates []StateRateEntry `yaml:"state_rates"`
	NCMCodes   []NCMEntry       `yaml:"ncm_codes"`
}

// StateRateEntry is one ICMS rate. Destinations lists several targets at once;
// "*" means every state. An explicit pair declared later wins.
type StateRateEntry struct {
	Origin       string   `yaml:"origin"`
	Destination  string   `yaml:"destination"`
	Destinations []string `yaml:"destinations"`
	ICMS         string   `yaml:"icms"`
	FCP          string   `yaml:"fcp"`
	Active       *bool    `yaml:"active"`
}

// NCMEntry is one NCM classification with its default federal rates
type NCMEntry struct {
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	IPI         string `yaml:"ipi"`
	PIS         string `yaml:"pis"`
	COFINS      string `yaml:"cofins"`
	Active      *bool  `yaml:"active"`
}

// LoadFile reads and converts a tax table file
func LoadFile(path string) (tax.TaxTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return tax.TaxTable{}, fmt.Errorf("failed to open tax table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a tax table. Unknown keys are rejected.
func Load(r io.Reader) (tax.TaxTable, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return tax.TaxTable{}, nil
		}
		return tax.TaxTable{}, fmt.Errorf("failed to decode tax table: %w", err)
	}
	return file.ToTable()
}

// ToTable converts the file into service requests
func (f File) ToTable() (tax.TaxTable, error) {
	var table tax.TaxTable

	index := make(map[string]int)
	for i, entry := range f.StateRates {
		rows, err := entry.expand()
		if err != nil {
			return tax.TaxTable{}, fmt.Errorf("state_rates[%d]: %w", i, err)
		}
		for _, row := range rows {
			key := row.OriginState + "->" + row.DestinationState
			if pos, ok := index[key]; ok {
				table.StateRates[pos] = row
				continue
			}
			index[key] = len(table.StateRates)
			table.StateRates = append(table.StateRates, row)
		}
	}

	for i, entry := range f.NCMCodes {
		row, err := entry.toRequest()
		if err != nil {
			return tax.TaxTable{}, fmt.Errorf("ncm_codes[%d] %s: %w", i, entry.Code, err)
		}
		table.NCMCodes = append(table.NCMCodes, row)
	}
	return table, nil
}

func (e StateRateEntry) expand() ([]tax.SaveStateRateRequest, error) {
	origin, err := valueobject.ParseUF(e.Origin)
	if err != nil {
		return nil, err
	}
	icms, err := parseRate("icms", e.ICMS)
	if err != nil {
		return nil, err
	}
	if icms == nil {
		return nil, fmt.Errorf("icms is required")
	}
	fcp, err := parseRate("fcp", e.FCP)
	if err != nil {
		return nil, err
	}

	targets := e.Destinations
	if e.Destination != "" {
		targets = append([]string{e.Destination}, targets...)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("destination is required")
	}

	var destinations []valueobject.UF
	for _, t := range targets {
		if strings.TrimSpace(t) == AllStates {
			destinations = append(destinations, valueobject.AllUFs()...)
			continue
		}
		uf, err := valueobject.ParseUF(t)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, uf)
	}

	rows := make([]tax.SaveStateRateRequest, 0, len(destinations))
	for _, dest := range destinations {
		rows = append(rows, tax.SaveStateRateRequest{
			OriginState:      origin.String(),
			DestinationState: dest.String(),
			ICMSRate:         *icms,
			FCPRate:          fcp,
			Active:           e.Active,
		})
	}
	return rows, nil
}

func (e NCMEntry) toRequest() (tax.SaveNCMRequest, error) {
	req := tax.SaveNCMRequest{
		Code:        e.Code,
		Description: e.Description,
		Active:      e.Active,
	}
	var err error
	if req.IPIRate, err = parseRate("ipi", e.IPI); err != nil {
		return req, err
	}
	if req.PISRate, err = parseRate("pis", e.PIS); err != nil {
		return req, err
	}
	if req.COFINSRate, err = parseRate("cofins", e.COFINS); err != nil {
		return req, err
	}
	return req, nil
}

// parseRate reads a percentage; empty means unset
func parseRate(field, s string) (*decimal.Decimal, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid rate %q", field, s)
	}
	return &d, nil
}
