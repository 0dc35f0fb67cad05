package config

import (
	"fmt"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
)

// InstrumentConfig describes one instrument template. Which fields apply
// depends on Kind:
//   - cash, holding, escrow: balance, rate, allow_negative
//   - loan: principal, rate, term_months, payments_made, date0
//   - house, land: sale_value, rate, commission
type InstrumentConfig struct {
	Kind          instrument.Kind `json:"kind" yaml:"kind"`
	Balance       expr.Param      `json:"balance,omitzero" yaml:"balance,omitempty"`
	Rate          expr.Param      `json:"rate,omitzero" yaml:"rate,omitempty"`
	AllowNegative expr.Param      `json:"allow_negative,omitzero" yaml:"allow_negative,omitempty"`
	Principal     expr.Param      `json:"principal,omitzero" yaml:"principal,omitempty"`
	TermMonths    expr.Param      `json:"term_months,omitzero" yaml:"term_months,omitempty"`
	PaymentsMade  expr.Param      `json:"payments_made,omitzero" yaml:"payments_made,omitempty"`
	Date0         expr.Param      `json:"date0,omitzero" yaml:"date0,omitempty"`
	SaleValue     expr.Param      `json:"sale_value,omitzero" yaml:"sale_value,omitempty"`
	Commission    expr.Param      `json:"commission,omitzero" yaml:"commission,omitempty"`
}

// Template builds the instrument template this entry describes.
func (ic InstrumentConfig) Template() (instrument.Template, error) {
	switch ic.Kind {
	case instrument.KindCash, instrument.KindHolding, instrument.KindEscrow:
		return instrument.AccountTemplate{
			AccountKind:   ic.Kind,
			Balance:       ic.Balance,
			Rate:          ic.Rate,
			AllowNegative: ic.AllowNegative,
		}, nil
	case instrument.KindLoan:
		return instrument.LoanTemplate{
			Date0:        ic.Date0,
			Principal:    ic.Principal,
			Rate:         ic.Rate,
			TermMonths:   ic.TermMonths,
			PaymentsMade: ic.PaymentsMade,
		}, nil
	case instrument.KindHouse, instrument.KindLand:
		return instrument.AssetTemplate{
			AssetKind:  ic.Kind,
			SaleValue:  ic.SaleValue,
			Rate:       ic.Rate,
			Commission: ic.Commission,
		}, nil
	case "":
		return nil, fmt.Errorf("kind is required")
	default:
		return nil, fmt.Errorf("unknown instrument kind: %s", ic.Kind)
	}
}

func (ic InstrumentConfig) validate() error {
	if _, err := ic.Template(); err != nil {
		return err
	}
	switch ic.Kind {
	case instrument.KindLoan:
		if !ic.Principal.IsSet() {
			return fmt.Errorf("loan principal is required")
		}
		if !ic.TermMonths.IsSet() {
			return fmt.Errorf("loan term_months is required")
		}
	case instrument.KindHouse, instrument.KindLand:
		if !ic.SaleValue.IsSet() {
			return fmt.Errorf("%s sale_value is required", ic.Kind)
		}
	}
	return nil
}

func (ic InstrumentConfig) params() map[string]expr.Param {
	return map[string]expr.Param{
		"balance":        ic.Balance,
		"rate":           ic.Rate,
		"allow_negative": ic.AllowNegative,
		"principal":      ic.Principal,
		"term_months":    ic.TermMonths,
		"payments_made":  ic.PaymentsMade,
		"date0":          ic.Date0,
		"sale_value":     ic.SaleValue,
		"commission":     ic.Commission,
	}
}

func num(v float64) expr.Param { return expr.Value(v) }

func formula(s string) expr.Param { return expr.Formula(s) }
