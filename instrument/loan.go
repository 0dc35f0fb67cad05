package instrument

import (
	"fmt"
	"math"

	"github.com/rustyeddy/mcfolio/expr"
)

// Loan is a level payment mortgage. Its value is the negated outstanding
// balance, which is zero once every scheduled payment has been made.
type Loan struct {
	Date0        float64
	Principal    float64
	AnnualRate   float64
	Term         int
	PaymentsMade int
}

func (l *Loan) Kind() Kind { return KindLoan }

// Advance leaves a loan unchanged; it only moves on payments.
func (l *Loan) Advance(t, dt, yearLength float64) Instrument {
	return l.Clone()
}

func (l *Loan) Clone() Instrument {
	out := *l
	return &out
}

func (l *Loan) Value() float64 {
	return -l.Outstanding()
}

// Closed reports whether every scheduled payment has been made.
func (l *Loan) Closed() bool { return l.PaymentsMade >= l.Term }

// MonthlyPayment is the fixed amortizing payment for the life of the loan.
func (l *Loan) MonthlyPayment() float64 {
	if l.Term <= 0 {
		return 0
	}
	r := l.AnnualRate / 12
	if r == 0 {
		return l.Principal / float64(l.Term)
	}
	return l.Principal * r / (1 - math.Pow(1+r, -float64(l.Term)))
}

// Outstanding is the principal still owed after PaymentsMade payments.
func (l *Loan) Outstanding() float64 {
	if l.Closed() {
		return 0
	}
	r := l.AnnualRate / 12
	k := float64(l.PaymentsMade)
	m := l.MonthlyPayment()
	if r == 0 {
		return l.Principal - m*k
	}
	g := math.Pow(1+r, k)
	return l.Principal*g - m*(g-1)/r
}

// MakeMonthlyPayment records one payment and returns the amount owed for it.
func (l *Loan) MakeMonthlyPayment() (float64, error) {
	if l.Closed() {
		return 0, fmt.Errorf("monthly payment: %w after %d of %d payments", ErrLoanClosed, l.PaymentsMade, l.Term)
	}
	l.PaymentsMade++
	return l.MonthlyPayment(), nil
}

// MakeFullPayment closes the loan and returns the payoff amount.
func (l *Loan) MakeFullPayment() float64 {
	payoff := l.Outstanding()
	l.PaymentsMade = l.Term
	return payoff
}

// LoanTemplate instantiates a Loan per trial.
type LoanTemplate struct {
	Date0        expr.Param
	Principal    expr.Param
	Rate         expr.Param
	TermMonths   expr.Param
	PaymentsMade expr.Param
}

func (t LoanTemplate) Kind() Kind { return KindLoan }

func (t LoanTemplate) Instantiate(env expr.Env) (Instrument, error) {
	date0, err := t.Date0.Float(env)
	if err != nil {
		return nil, fmt.Errorf("loan date0: %w", err)
	}
	principal, err := t.Principal.Float(env)
	if err != nil {
		return nil, fmt.Errorf("loan principal: %w", err)
	}
	rate, err := t.Rate.Float(env)
	if err != nil {
		return nil, fmt.Errorf("loan rate: %w", err)
	}
	term, err := t.TermMonths.Int(env)
	if err != nil {
		return nil, fmt.Errorf("loan term: %w", err)
	}
	made, err := t.PaymentsMade.Int(env)
	if err != nil {
		return nil, fmt.Errorf("loan payments made: %w", err)
	}
	if term <= 0 {
		return nil, fmt.Errorf("%w: loan term must be positive, got %d", ErrInvalid, term)
	}
	if made < 0 || made > term {
		return nil, fmt.Errorf("%w: loan payments made %d outside [0, %d]", ErrInvalid, made, term)
	}
	return &Loan{
		Date0:        date0,
		Principal:    principal,
		AnnualRate:   rate,
		Term:         term,
		PaymentsMade: made,
	}, nil
}
