package instrument

import (
	"fmt"

	"github.com/rustyeddy/mcfolio/expr"
)

// DefaultCommission is the sale commission applied when none is given.
const DefaultCommission = 0.06

// Asset is an appreciating house or land holding that is sold once.
type Asset struct {
	kind       Kind
	SaleValue  float64
	AnnualRate float64
	Commission float64
	Sold       bool
}

func NewAsset(kind Kind, saleValue, rate, commission float64) *Asset {
	return &Asset{kind: kind, SaleValue: saleValue, AnnualRate: rate, Commission: commission}
}

func (a *Asset) Kind() Kind { return a.kind }

func (a *Asset) Advance(t, dt, yearLength float64) Instrument {
	out := *a
	if !a.Sold {
		out.SaleValue = grow(a.SaleValue, a.AnnualRate, dt, yearLength)
	}
	return &out
}

func (a *Asset) Clone() Instrument {
	out := *a
	return &out
}

// Value is the sale price net of commission, or zero once sold.
func (a *Asset) Value() float64 {
	if a.Sold {
		return 0
	}
	return a.SaleValue - a.SaleValue*a.Commission
}

// Sell returns the net proceeds and marks the asset sold.
func (a *Asset) Sell() float64 {
	proceeds := a.Value()
	a.Sold = true
	return proceeds
}

// AssetTemplate instantiates an Asset per trial. An unset commission
// defaults to DefaultCommission.
type AssetTemplate struct {
	AssetKind  Kind
	SaleValue  expr.Param
	Rate       expr.Param
	Commission expr.Param
}

func House(saleValue, rate expr.Param) AssetTemplate {
	return AssetTemplate{AssetKind: KindHouse, SaleValue: saleValue, Rate: rate}
}

func Land(saleValue, rate expr.Param) AssetTemplate {
	return AssetTemplate{AssetKind: KindLand, SaleValue: saleValue, Rate: rate}
}

func (t AssetTemplate) Kind() Kind { return t.AssetKind }

func (t AssetTemplate) Instantiate(env expr.Env) (Instrument, error) {
	switch t.AssetKind {
	case KindHouse, KindLand:
	default:
		return nil, fmt.Errorf("%w: %q is not an asset kind", ErrInvalid, t.AssetKind)
	}
	value, err := t.SaleValue.Float(env)
	if err != nil {
		return nil, fmt.Errorf("%s sale value: %w", t.AssetKind, err)
	}
	rate, err := t.Rate.Float(env)
	if err != nil {
		return nil, fmt.Errorf("%s rate: %w", t.AssetKind, err)
	}
	commission := DefaultCommission
	if t.Commission.IsSet() {
		if commission, err = t.Commission.Float(env); err != nil {
			return nil, fmt.Errorf("%s commission: %w", t.AssetKind, err)
		}
	}
	return NewAsset(t.AssetKind, value, rate, commission), nil
}
