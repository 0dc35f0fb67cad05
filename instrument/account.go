package instrument

import (
	"fmt"

	"github.com/rustyeddy/mcfolio/expr"
)

// Account is a cash, holding (brokerage) or escrow account. All three grow
// continuously at AnnualRate and differ only in kind.
type Account struct {
	kind          Kind
	Balance       float64
	AnnualRate    float64
	AllowNegative bool
}

func NewAccount(kind Kind, balance, rate float64, allowNegative bool) *Account {
	return &Account{kind: kind, Balance: balance, AnnualRate: rate, AllowNegative: allowNegative}
}

func (a *Account) Kind() Kind { return a.kind }

func (a *Account) Advance(t, dt, yearLength float64) Instrument {
	out := *a
	out.Balance = grow(a.Balance, a.AnnualRate, dt, yearLength)
	return &out
}

func (a *Account) Value() float64 { return a.Balance }

func (a *Account) Clone() Instrument {
	out := *a
	return &out
}

func (a *Account) Deposit(amount float64) {
	a.Balance += amount
}

// Withdraw takes up to amount from the account and returns what was taken.
// Without AllowNegative the withdrawal is capped at the positive balance.
func (a *Account) Withdraw(amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("withdraw %.2f: %w", amount, ErrNegativeAmount)
	}
	taken := amount
	if amount > a.Balance && !a.AllowNegative {
		taken = max(a.Balance, 0)
	}
	a.Balance -= taken
	return taken, nil
}

// WithdrawFullBalance empties the positive part of the balance.
func (a *Account) WithdrawFullBalance() float64 {
	taken := max(a.Balance, 0)
	a.Balance -= taken
	return taken
}

// AccountTemplate instantiates an Account per trial.
type AccountTemplate struct {
	AccountKind   Kind
	Balance       expr.Param
	Rate          expr.Param
	AllowNegative expr.Param
}

func Cash(balance, rate expr.Param) AccountTemplate {
	return AccountTemplate{AccountKind: KindCash, Balance: balance, Rate: rate}
}

func Holding(balance, rate expr.Param) AccountTemplate {
	return AccountTemplate{AccountKind: KindHolding, Balance: balance, Rate: rate}
}

func Escrow(balance, rate expr.Param) AccountTemplate {
	return AccountTemplate{AccountKind: KindEscrow, Balance: balance, Rate: rate}
}

func (t AccountTemplate) Kind() Kind { return t.AccountKind }

func (t AccountTemplate) Instantiate(env expr.Env) (Instrument, error) {
	switch t.AccountKind {
	case KindCash, KindHolding, KindEscrow:
	default:
		return nil, fmt.Errorf("%w: %q is not an account kind", ErrInvalid, t.AccountKind)
	}
	balance, err := t.Balance.Float(env)
	if err != nil {
		return nil, fmt.Errorf("%s balance: %w", t.AccountKind, err)
	}
	rate, err := t.Rate.Float(env)
	if err != nil {
		return nil, fmt.Errorf("%s rate: %w", t.AccountKind, err)
	}
	neg, err := t.AllowNegative.Bool(env)
	if err != nil {
		return nil, fmt.Errorf("%s allow_negative: %w", t.AccountKind, err)
	}
	return NewAccount(t.AccountKind, balance, rate, neg), nil
}
