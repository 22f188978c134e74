package config

import (
	"fmt"
	"os"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/converter"
	"github.com/georgecao/Beancount-CSVImporter/pkg/importer"
	"github.com/georgecao/Beancount-CSVImporter/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Profiles is the importer profile file. Top-level settings apply to every
// importer unless the importer overrides them.
type Profiles struct {
	Currency             string                       `yaml:"currency"`
	Timezone             string                       `yaml:"timezone"`
	Direction            map[string]string            `yaml:"direction"`
	RefundKeyword        string                       `yaml:"refund_keyword"`
	NonFulfillmentStatus string                       `yaml:"non_fulfillment_status"`
	Accounts             map[string]map[string]string `yaml:"accounts"`
	Importers            []Profile                    `yaml:"importers"`
}

// Profile configures one statement source.
type Profile struct {
	Name       string        `yaml:"name"`
	Account    string        `yaml:"account"`
	FilePrefix string        `yaml:"file_prefix"`
	SkipLines  int           `yaml:"skip_lines"`
	Currency   string        `yaml:"currency"`
	Timezone   string        `yaml:"timezone"`
	Fields     schema.Config `yaml:"fields"`

	Direction               map[string]string `yaml:"direction"`
	RefundKeyword           *string           `yaml:"refund_keyword"`
	NonFulfillmentStatus    *string           `yaml:"non_fulfillment_status"`
	SuppressCreditRefunds   bool              `yaml:"suppress_credit_refunds"`
	NarrationMarksDirection bool              `yaml:"narration_marks_direction"`
	UncertainDefault        string            `yaml:"uncertain_default"`
	AllowZeroAmounts        bool              `yaml:"allow_zero_amounts"`

	// Accounts replaces the shared table of each role it names.
	Accounts map[string]map[string]string `yaml:"accounts"`
}

// LoadProfiles reads importer profiles from a YAML file.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles parses importer profiles from YAML.
func ParseProfiles(data []byte) (*Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(p.Importers) == 0 {
		return nil, fmt.Errorf("%w: no importers defined", importer.ErrConfiguration)
	}

	seen := make(map[string]bool, len(p.Importers))
	for i, imp := range p.Importers {
		if imp.Name == "" {
			return nil, fmt.Errorf("%w: importer %d has no name", importer.ErrConfiguration, i)
		}
		if seen[imp.Name] {
			return nil, fmt.Errorf("%w: duplicate importer %q", importer.ErrConfiguration, imp.Name)
		}
		seen[imp.Name] = true
	}
	return &p, nil
}

// Build creates an importer for every profile.
func (p *Profiles) Build(opts ...importer.Option) ([]*importer.Importer, error) {
	importers := make([]*importer.Importer, 0, len(p.Importers))
	for _, prof := range p.Importers {
		cfg, err := p.importerConfig(prof)
		if err != nil {
			return nil, fmt.Errorf("importer %s: %w", prof.Name, err)
		}
		parser, err := p.dateParser(prof)
		if err != nil {
			return nil, fmt.Errorf("importer %s: %w", prof.Name, err)
		}
		im, err := importer.New(cfg, append([]importer.Option{importer.WithDateParser(parser)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("importer %s: %w", prof.Name, err)
		}
		importers = append(importers, im)
	}
	return importers, nil
}

// dateParser reads zone-less statement dates in the profile's timezone,
// UTC when none is set.
func (p *Profiles) dateParser(prof Profile) (importer.DateParser, error) {
	name := prof.Timezone
	if name == "" {
		name = p.Timezone
	}
	if name == "" {
		return importer.LiberalDateParser{}, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", importer.ErrConfiguration, name, err)
	}
	return importer.LiberalDateParser{Location: loc}, nil
}

func (p *Profiles) importerConfig(prof Profile) (importer.Config, error) {
	policy, err := p.policy(prof)
	if err != nil {
		return importer.Config{}, err
	}

	tables, err := p.accountTables(prof)
	if err != nil {
		return importer.Config{}, err
	}
	accounts, err := converter.NewAccountMap(tables)
	if err != nil {
		return importer.Config{}, fmt.Errorf("%w: %w", importer.ErrConfiguration, err)
	}

	currency := prof.Currency
	if currency == "" {
		currency = p.Currency
	}

	return importer.Config{
		Name:       prof.Name,
		Account:    prof.Account,
		FilePrefix: prof.FilePrefix,
		Currency:   currency,
		SkipLines:  prof.SkipLines,
		Fields:     prof.Fields,
		Policy:     policy,
		Accounts:   accounts,
	}, nil
}

func (p *Profiles) policy(prof Profile) (importer.Policy, error) {
	names := p.Direction
	if prof.Direction != nil {
		names = prof.Direction
	}
	table := make(map[string]converter.Direction, len(names))
	for text, name := range names {
		dir, err := converter.ParseDirection(name)
		if err != nil {
			return importer.Policy{}, fmt.Errorf("%w: direction %q: %w", importer.ErrConfiguration, text, err)
		}
		table[text] = dir
	}

	uncertainDefault := converter.Debit
	if prof.UncertainDefault != "" {
		dir, err := converter.ParseDirection(prof.UncertainDefault)
		if err != nil || dir == converter.Uncertain {
			return importer.Policy{}, fmt.Errorf("%w: uncertain_default must be debit or credit, got %q", importer.ErrConfiguration, prof.UncertainDefault)
		}
		uncertainDefault = dir
	}

	refundKeyword := p.RefundKeyword
	if prof.RefundKeyword != nil {
		refundKeyword = *prof.RefundKeyword
	}

	nonFulfillment := p.NonFulfillmentStatus
	if prof.NonFulfillmentStatus != nil {
		nonFulfillment = *prof.NonFulfillmentStatus
	}
	if nonFulfillment == "" {
		nonFulfillment = importer.DefaultNonFulfillmentStatus
	}

	return importer.Policy{
		DirectionTable:          table,
		RefundKeyword:           refundKeyword,
		NonFulfillmentStatus:    nonFulfillment,
		SuppressCreditRefunds:   prof.SuppressCreditRefunds,
		NarrationMarksDirection: prof.NarrationMarksDirection,
		UncertainDefault:        uncertainDefault,
		AllowZeroAmounts:        prof.AllowZeroAmounts,
	}, nil
}

// accountTables merges the shared tables with the profile's overrides.
func (p *Profiles) accountTables(prof Profile) (map[converter.Role]map[string]string, error) {
	tables := make(map[converter.Role]map[string]string)
	for _, src := range []map[string]map[string]string{p.Accounts, prof.Accounts} {
		for name, entries := range src {
			role, err := converter.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", importer.ErrConfiguration, err)
			}
			tables[role] = entries
		}
	}
	return tables, nil
}
