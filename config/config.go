// Package config loads scenario files describing portfolios, variables and
// run settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/mcfolio/dist"
	"github.com/rustyeddy/mcfolio/instrument"
	"github.com/rustyeddy/mcfolio/journal"
)

// Config represents a complete scenario.
type Config struct {
	Scenario   string                    `json:"scenario" yaml:"scenario"`
	Simulation SimulationConfig          `json:"simulation" yaml:"simulation"`
	Variables  map[string]VariableConfig `json:"variables,omitempty" yaml:"variables,omitempty"`
	Portfolios []PortfolioConfig         `json:"portfolios" yaml:"portfolios"`
	Journal    JournalConfig             `json:"journal" yaml:"journal"`
	Metrics    MetricsConfig             `json:"metrics,omitzero" yaml:"metrics,omitempty"`
}

// SimulationConfig contains run parameters
type SimulationConfig struct {
	Trials     int     `json:"trials" yaml:"trials"`
	YearLength float64 `json:"year_length" yaml:"year_length"` // internal time units per year
	Seed       uint64  `json:"seed" yaml:"seed"`
	Workers    int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	Currency   string  `json:"currency" yaml:"currency"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	ValuesFile string `json:"values_file,omitempty" yaml:"values_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Open returns the configured journal, or nil when journaling is off.
func (j JournalConfig) Open() (journal.Journal, error) {
	switch j.Type {
	case "csv":
		return journal.NewCSV(j.RunsFile, j.ValuesFile)
	case "sqlite":
		return journal.NewSQLite(j.DBPath)
	case "", "none":
		return journal.Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", j.Type)
	}
}

// MetricsConfig contains metrics export parameters
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// PortfolioConfig describes one portfolio: its starting instruments and
// the operations scheduled against them.
type PortfolioConfig struct {
	Name        string                      `json:"name" yaml:"name"`
	Instruments map[string]InstrumentConfig `json:"instruments" yaml:"instruments"`
	Operations  []OperationConfig           `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = &Config{}
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Simulation.Trials <= 0 {
		return fmt.Errorf("simulation.trials must be positive")
	}
	if c.Simulation.YearLength <= 0 {
		return fmt.Errorf("simulation.year_length must be positive")
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}
	if c.Simulation.Currency == "" {
		return fmt.Errorf("simulation.currency is required")
	}
	if money.GetCurrency(c.Simulation.Currency) == nil {
		return fmt.Errorf("unknown currency: %s", c.Simulation.Currency)
	}

	for name, v := range c.Variables {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
	}

	if len(c.Portfolios) == 0 {
		return fmt.Errorf("at least one portfolio is required")
	}
	seen := map[string]bool{}
	for i, p := range c.Portfolios {
		if p.Name == "" {
			return fmt.Errorf("portfolios[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate portfolio name: %s", p.Name)
		}
		seen[p.Name] = true
		if err := p.validate(c.Variables); err != nil {
			return fmt.Errorf("portfolio %q: %w", p.Name, err)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.ValuesFile == "" {
			return fmt.Errorf("journal runs_file and values_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a rent-versus-buy scenario with sensible defaults
func Default() *Config {
	return &Config{
		Scenario: "rent-vs-buy",
		Simulation: SimulationConfig{
			Trials:     1000,
			YearLength: instrument.DefaultYearLength,
			Seed:       1,
			Currency:   "USD",
		},
		Variables: map[string]VariableConfig{
			"growth":      {Uniform: &dist.Uniform{Lower: 0.02, Upper: 0.10}},
			"home_growth": {Normal: &dist.Normal{Mean: 0.03, StdDev: 0.01}},
			"rent":        {Value: 2000.0},
		},
		Portfolios: []PortfolioConfig{
			{
				Name: "rent",
				Instruments: map[string]InstrumentConfig{
					"checking": {Kind: instrument.KindCash, Balance: num(100000)},
					"stocks":   {Kind: instrument.KindHolding, Balance: num(0), Rate: formula("growth")},
				},
				Operations: []OperationConfig{
					{At: 0, Transfer: &TransferConfig{From: "checking", To: "stocks", Amount: num(60000)}},
					{At: 30, Transfer: &TransferConfig{From: "checking", Amount: formula("rent")}, Repeat: &RepeatConfig{Every: 30, Count: 12}},
					{At: 365, Noop: true},
				},
			},
			{
				Name: "buy",
				Instruments: map[string]InstrumentConfig{
					"checking": {Kind: instrument.KindCash, Balance: num(100000)},
					"mortgage": {Kind: instrument.KindLoan, Principal: num(240000), Rate: num(0.06), TermMonths: num(360)},
				},
				Operations: []OperationConfig{
					{At: 0, Buy: &BuyConfig{
						Name:  "house",
						From:  []string{"checking"},
						Cost:  num(60000),
						Asset: InstrumentConfig{Kind: instrument.KindHouse, SaleValue: num(300000), Rate: formula("home_growth")},
					}},
					{At: 30, MortgagePayment: &MortgagePaymentConfig{Loan: "mortgage", Account: "checking"}, Repeat: &RepeatConfig{Every: 30, Count: 12}},
					{At: 365, Noop: true},
				},
			},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./mcfolio.db",
		},
	}
}
