package sim

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/rustyeddy/mcfolio/instrument"
)

// NoDestination discards withdrawn funds instead of depositing them.
const NoDestination = ""

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNonMonotonic      = errors.New("non-monotonic schedule")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrWrongKind         = errors.New("wrong instrument kind")
	ErrNegativeTime      = errors.New("negative time step")
)

// Op is a discrete event applied to a snapshot at one instant. Apply never
// modifies its input; on error no new snapshot is produced.
type Op interface {
	Apply(s Snapshot, env expr.Env) (Snapshot, error)
	String() string
}

// Identity leaves the snapshot unchanged.
type Identity struct{}

func (Identity) Apply(s Snapshot, _ expr.Env) (Snapshot, error) { return s.Clone(), nil }
func (Identity) String() string                                   { return "identity" }

// Transfer moves exactly Amount from From to To.
type Transfer struct {
	From   string
	To     string
	Amount expr.Param
}

func (o Transfer) Apply(s Snapshot, env expr.Env) (Snapshot, error) {
	out := s.Clone()
	amount, err := o.Amount.Float(env)
	if err != nil {
		return Snapshot{}, err
	}
	from, err := out.holder(o.From)
	if err != nil {
		return Snapshot{}, err
	}
	taken, err := from.Withdraw(amount)
	if err != nil {
		return Snapshot{}, err
	}
	if taken != amount {
		return Snapshot{}, fmt.Errorf("%w: %q short by %.2f", ErrInsufficientFunds, o.From, amount-taken)
	}
	if err := out.deposit(o.To, taken); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

func (o Transfer) String() string {
	return fmt.Sprintf("transfer %s from %s to %s", o.Amount, o.From, dest(o.To))
}

// TransferFullBalance moves the whole positive balance of From to To.
type TransferFullBalance struct {
	From string
	To   string
}

func (o TransferFullBalance) Apply(s Snapshot, _ expr.Env) (Snapshot, error) {
	out := s.Clone()
	from, err := out.holder(o.From)
	if err != nil {
		return Snapshot{}, err
	}
	if err := out.deposit(o.To, from.WithdrawFullBalance()); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

func (o TransferFullBalance) String() string {
	return fmt.Sprintf("transfer full balance from %s to %s", o.From, dest(o.To))
}

// SellAsset sells Asset and deposits the proceeds into To.
type SellAsset struct {
	Asset string
	To    string
}

func (o SellAsset) Apply(s Snapshot, _ expr.Env) (Snapshot, error) {
	out := s.Clone()
	a, err := out.saleable(o.Asset)
	if err != nil {
		return Snapshot{}, err
	}
	if err := out.deposit(o.To, a.Sell()); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

func (o SellAsset) String() string {
	return fmt.Sprintf("sell %s into %s", o.Asset, dest(o.To))
}

// BuyAsset pays Cost from PaymentAccounts in order and then places a new
// instrument built from Asset under Name.
type BuyAsset struct {
	Name            string
	PaymentAccounts []string
	Cost            expr.Param
	Asset           instrument.Template
}

func (o BuyAsset) Apply(s Snapshot, env expr.Env) (Snapshot, error) {
	out := s.Clone()
	cost, err := o.Cost.Float(env)
	if err != nil {
		return Snapshot{}, err
	}
	if err := out.drawDown(o.PaymentAccounts, cost); err != nil {
		return Snapshot{}, fmt.Errorf("buy %q: %w", o.Name, err)
	}
	in, err := o.Asset.Instantiate(env)
	if err != nil {
		return Snapshot{}, fmt.Errorf("buy %q: %w", o.Name, err)
	}
	out.Instruments[o.Name] = in
	return out, nil
}

func (o BuyAsset) String() string {
	return fmt.Sprintf("buy %s for %s from %s", o.Name, o.Cost, strings.Join(o.PaymentAccounts, ","))
}

// MonthlyMortgagePayment makes the next scheduled payment on Loan from Account.
type MonthlyMortgagePayment struct {
	Loan    string
	Account string
}

func (o MonthlyMortgagePayment) Apply(s Snapshot, _ expr.Env) (Snapshot, error) {
	out := s.Clone()
	loan, err := out.debt(o.Loan)
	if err != nil {
		return Snapshot{}, err
	}
	acct, err := out.holder(o.Account)
	if err != nil {
		return Snapshot{}, err
	}
	payment, err := loan.MakeMonthlyPayment()
	if err != nil {
		return Snapshot{}, err
	}
	taken, err := acct.Withdraw(math.Abs(payment))
	if err != nil {
		return Snapshot{}, err
	}
	if taken != payment {
		return Snapshot{}, fmt.Errorf("%w: payment %.2f on %q, %q short by %.2f",
			ErrInsufficientFunds, payment, o.Loan, o.Account, payment-taken)
	}
	return out, nil
}

func (o MonthlyMortgagePayment) String() string {
	return fmt.Sprintf("mortgage payment on %s from %s", o.Loan, o.Account)
}

// PayoffMortgage closes Loan and pays the outstanding balance from
// PaymentAccounts in order.
type PayoffMortgage struct {
	Loan            string
	PaymentAccounts []string
}

func (o PayoffMortgage) Apply(s Snapshot, _ expr.Env) (Snapshot, error) {
	out := s.Clone()
	loan, err := out.debt(o.Loan)
	if err != nil {
		return Snapshot{}, err
	}
	if err := out.drawDown(o.PaymentAccounts, loan.MakeFullPayment()); err != nil {
		return Snapshot{}, fmt.Errorf("payoff %q: %w", o.Loan, err)
	}
	return out, nil
}

func (o PayoffMortgage) String() string {
	return fmt.Sprintf("pay off %s from %s", o.Loan, strings.Join(o.PaymentAccounts, ","))
}

// TimeAdvance moves every instrument forward by DT.
type TimeAdvance struct {
	DT         float64
	YearLength float64
}

func (o TimeAdvance) Apply(s Snapshot, _ expr.Env) (Snapshot, error) {
	if o.DT < 0 {
		return Snapshot{}, fmt.Errorf("%w: %g", ErrNegativeTime, o.DT)
	}
	out := Snapshot{Time: s.Time + o.DT, Instruments: make(map[string]instrument.Instrument, len(s.Instruments))}
	for name, in := range s.Instruments {
		out.Instruments[name] = in.Advance(s.Time, o.DT, o.YearLength)
	}
	return out, nil
}

func (o TimeAdvance) String() string { return fmt.Sprintf("advance %g", o.DT) }

func (s Snapshot) deposit(name string, amount float64) error {
	if name == NoDestination {
		return nil
	}
	to, err := s.holder(name)
	if err != nil {
		return err
	}
	to.Deposit(amount)
	return nil
}

// drawDown withdraws amount from accounts in priority order, each up to its
// own cap, and fails unless the whole amount was covered.
func (s Snapshot) drawDown(accounts []string, amount float64) error {
	remaining := amount
	for _, name := range accounts {
		h, err := s.holder(name)
		if err != nil {
			return err
		}
		taken, err := h.Withdraw(remaining)
		if err != nil {
			return err
		}
		remaining -= taken
		if remaining <= 0 {
			break
		}
	}
	if remaining != 0 {
		return fmt.Errorf("%w: %.2f of %.2f unfunded", ErrInsufficientFunds, remaining, amount)
	}
	return nil
}

func dest(name string) string {
	if name == NoDestination {
		return "nowhere"
	}
	return name
}
