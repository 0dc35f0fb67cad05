// Package instrument implements the financial state objects tracked by a
// portfolio: interest bearing accounts, amortizing loans and sellable assets.
package instrument

import (
	"errors"
	"math"

	"github.com/rustyeddy/mcfolio/expr"
)

// DefaultYearLength is the number of internal time units (days) in a year.
const DefaultYearLength = 365.0

var (
	ErrNegativeAmount = errors.New("negative amount")
	ErrLoanClosed     = errors.New("loan is closed")
	ErrInvalid        = errors.New("invalid instrument")
)

type Kind string

const (
	KindCash    Kind = "cash"
	KindHolding Kind = "holding"
	KindEscrow  Kind = "escrow"
	KindLoan    Kind = "loan"
	KindHouse   Kind = "house"
	KindLand    Kind = "land"
)

// Kinds lists every instrument kind.
var Kinds = []Kind{KindCash, KindHolding, KindEscrow, KindLoan, KindHouse, KindLand}

// Instrument is a live, trial owned financial object.
type Instrument interface {
	Kind() Kind
	// Advance returns the state after dt time units have elapsed from t,
	// with no operations applied. The receiver is not modified.
	Advance(t, dt, yearLength float64) Instrument
	// Value is the current worth. Debts are negative.
	Value() float64
	// Clone returns an independent copy.
	Clone() Instrument
}

// Holder is an instrument that holds a balance.
type Holder interface {
	Instrument
	Deposit(amount float64)
	Withdraw(amount float64) (float64, error)
	WithdrawFullBalance() float64
}

// Saleable is an asset that can be sold once.
type Saleable interface {
	Instrument
	Sell() float64
}

// Debt is an amortizing loan.
type Debt interface {
	Instrument
	MonthlyPayment() float64
	MakeMonthlyPayment() (float64, error)
	MakeFullPayment() float64
}

// Template describes an instrument whose fields may reference variables.
type Template interface {
	Kind() Kind
	Instantiate(env expr.Env) (Instrument, error)
}

// grow applies continuous compounding over dt.
func grow(v, rate, dt, yearLength float64) float64 {
	if yearLength <= 0 {
		yearLength = DefaultYearLength
	}
	return v * math.Exp(dt*rate/yearLength)
}
