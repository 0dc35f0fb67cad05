package config

import (
	"fmt"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/sim"
)

// OperationConfig schedules exactly one operation at At (internal time
// units), optionally repeated.
type OperationConfig struct {
	At              float64                `json:"at" yaml:"at"`
	Transfer        *TransferConfig        `json:"transfer,omitempty" yaml:"transfer,omitempty"`
	TransferAll     *TransferAllConfig     `json:"transfer_all,omitempty" yaml:"transfer_all,omitempty"`
	Sell            *SellConfig            `json:"sell,omitempty" yaml:"sell,omitempty"`
	Buy             *BuyConfig             `json:"buy,omitempty" yaml:"buy,omitempty"`
	MortgagePayment *MortgagePaymentConfig `json:"mortgage_payment,omitempty" yaml:"mortgage_payment,omitempty"`
	Payoff          *PayoffConfig          `json:"payoff,omitempty" yaml:"payoff,omitempty"`
	Advance         *AdvanceConfig         `json:"advance,omitempty" yaml:"advance,omitempty"`
	Noop            bool                   `json:"noop,omitempty" yaml:"noop,omitempty"`
	Repeat          *RepeatConfig          `json:"repeat,omitempty" yaml:"repeat,omitempty"`
}

// TransferConfig moves an exact amount. An empty To discards the money.
type TransferConfig struct {
	From   string     `json:"from" yaml:"from"`
	To     string     `json:"to,omitempty" yaml:"to,omitempty"`
	Amount expr.Param `json:"amount" yaml:"amount"`
}

type TransferAllConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

type SellConfig struct {
	Asset string `json:"asset" yaml:"asset"`
	To    string `json:"to" yaml:"to"`
}

type BuyConfig struct {
	Name  string           `json:"name" yaml:"name"`
	From  []string         `json:"from" yaml:"from"`
	Cost  expr.Param       `json:"cost" yaml:"cost"`
	Asset InstrumentConfig `json:"asset" yaml:"asset"`
}

type MortgagePaymentConfig struct {
	Loan    string `json:"loan" yaml:"loan"`
	Account string `json:"account" yaml:"account"`
}

type PayoffConfig struct {
	Loan string   `json:"loan" yaml:"loan"`
	From []string `json:"from" yaml:"from"`
}

type AdvanceConfig struct {
	DT float64 `json:"dt" yaml:"dt"`
}

// RepeatConfig schedules Count occurrences, Every time units apart.
type RepeatConfig struct {
	Every float64 `json:"every" yaml:"every"`
	Count int     `json:"count" yaml:"count"`
}

// Op builds the operation. yearLength is used by explicit advances.
func (oc OperationConfig) Op(yearLength float64) (sim.Op, error) {
	var ops []sim.Op
	if t := oc.Transfer; t != nil {
		ops = append(ops, sim.Transfer{From: t.From, To: t.To, Amount: t.Amount})
	}
	if t := oc.TransferAll; t != nil {
		ops = append(ops, sim.TransferFullBalance{From: t.From, To: t.To})
	}
	if s := oc.Sell; s != nil {
		ops = append(ops, sim.SellAsset{Asset: s.Asset, To: s.To})
	}
	if b := oc.Buy; b != nil {
		tmpl, err := b.Asset.Template()
		if err != nil {
			return nil, fmt.Errorf("buy %s: %w", b.Name, err)
		}
		ops = append(ops, sim.BuyAsset{Name: b.Name, PaymentAccounts: b.From, Cost: b.Cost, Asset: tmpl})
	}
	if m := oc.MortgagePayment; m != nil {
		ops = append(ops, sim.MonthlyMortgagePayment{Loan: m.Loan, Account: m.Account})
	}
	if p := oc.Payoff; p != nil {
		ops = append(ops, sim.PayoffMortgage{Loan: p.Loan, PaymentAccounts: p.From})
	}
	if a := oc.Advance; a != nil {
		ops = append(ops, sim.TimeAdvance{DT: a.DT, YearLength: yearLength})
	}
	if oc.Noop {
		ops = append(ops, sim.Identity{})
	}

	switch len(ops) {
	case 0:
		return nil, fmt.Errorf("no operation given")
	case 1:
		return ops[0], nil
	default:
		return nil, fmt.Errorf("exactly one operation allowed per entry, got %d", len(ops))
	}
}

// Events expands the entry into scheduled events, one per repetition.
func (oc OperationConfig) Events(yearLength float64) ([]sim.Event, error) {
	op, err := oc.Op(yearLength)
	if err != nil {
		return nil, err
	}
	count, every := 1, 0.0
	if oc.Repeat != nil {
		count, every = oc.Repeat.Count, oc.Repeat.Every
	}
	events := make([]sim.Event, count)
	for i := range events {
		events[i] = sim.Event{At: oc.At + float64(i)*every, Op: op}
	}
	return events, nil
}

func (oc OperationConfig) validate() error {
	if oc.At < 0 {
		return fmt.Errorf("at must not be negative")
	}
	if r := oc.Repeat; r != nil {
		if r.Count < 1 {
			return fmt.Errorf("repeat.count must be at least 1")
		}
		if r.Count > 1 && r.Every <= 0 {
			return fmt.Errorf("repeat.every must be positive")
		}
	}
	if a := oc.Advance; a != nil && a.DT < 0 {
		return fmt.Errorf("advance.dt must not be negative")
	}
	if b := oc.Buy; b != nil {
		if b.Name == "" {
			return fmt.Errorf("buy.name is required")
		}
		if err := b.Asset.validate(); err != nil {
			return fmt.Errorf("buy %s: %w", b.Name, err)
		}
	}
	_, err := oc.Op(0)
	return err
}

// refs returns the instrument names the operation reads or writes.
func (oc OperationConfig) refs() []string {
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if n != sim.NoDestination {
				out = append(out, n)
			}
		}
	}
	if t := oc.Transfer; t != nil {
		add(t.From, t.To)
	}
	if t := oc.TransferAll; t != nil {
		add(t.From, t.To)
	}
	if s := oc.Sell; s != nil {
		add(s.Asset, s.To)
	}
	if b := oc.Buy; b != nil {
		add(b.From...)
	}
	if m := oc.MortgagePayment; m != nil {
		add(m.Loan, m.Account)
	}
	if p := oc.Payoff; p != nil {
		add(p.Loan)
		add(p.From...)
	}
	return out
}

func (oc OperationConfig) params() map[string]expr.Param {
	out := map[string]expr.Param{}
	if t := oc.Transfer; t != nil {
		out["transfer.amount"] = t.Amount
	}
	if b := oc.Buy; b != nil {
		out["buy.cost"] = b.Cost
		for k, p := range b.Asset.params() {
			out["buy.asset."+k] = p
		}
	}
	return out
}
