package instrument

import (
	"math"
	"testing"

	"github.com/rustyeddy/mcfolio/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestAdvanceIsAssociative(t *testing.T) {
	t.Parallel()

	growing := []Instrument{
		NewAccount(KindCash, 1000, 0.02, false),
		NewAccount(KindHolding, 50000, 0.07, false),
		NewAccount(KindEscrow, -300, 0.01, true),
		NewAsset(KindHouse, 300000, 0.03, 0.06),
		NewAsset(KindLand, 80000, -0.01, 0.1),
	}

	for _, in := range growing {
		in := in
		t.Run(string(in.Kind()), func(t *testing.T) {
			t.Parallel()
			for _, step := range [][2]float64{{1, 2}, {30, 335}, {0, 365}, {1000, 0.5}} {
				a, b := step[0], step[1]
				twice := in.Advance(0, a, DefaultYearLength).Advance(a, b, DefaultYearLength)
				once := in.Advance(0, a+b, DefaultYearLength)
				assert.InDelta(t, once.Value(), twice.Value(), 1e-6*math.Max(1, math.Abs(once.Value())))
			}
		})
	}
}

func TestAdvanceDoesNotMutate(t *testing.T) {
	t.Parallel()

	a := NewAccount(KindCash, 1000, 0.05, false)
	next := a.Advance(0, DefaultYearLength, DefaultYearLength)

	assert.Equal(t, 1000.0, a.Balance)
	assert.InDelta(t, 1000*math.Exp(0.05), next.Value(), 1e-9)
}

func TestWithdrawNeverBelowZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		balance   float64
		amount    float64
		wantTaken float64
		wantBal   float64
	}{
		{"sufficient", 100, 40, 40, 60},
		{"exact", 100, 100, 100, 0},
		{"capped", 100, 250, 100, 0},
		{"zero", 100, 0, 0, 100},
		{"already negative", -50, 10, 0, -50},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := NewAccount(KindCash, tt.balance, 0, false)
			taken, err := a.Withdraw(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTaken, taken)
			assert.Equal(t, tt.wantBal, a.Balance)
			assert.GreaterOrEqual(t, a.Balance, math.Min(tt.balance, 0))
			assert.LessOrEqual(t, taken, math.Max(tt.balance, 0))
		})
	}
}

func TestWithdrawAllowNegative(t *testing.T) {
	t.Parallel()

	a := NewAccount(KindCash, 100, 0, true)
	taken, err := a.Withdraw(250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, taken)
	assert.Equal(t, -150.0, a.Balance)

	assert.Equal(t, 0.0, a.WithdrawFullBalance())
	assert.Equal(t, -150.0, a.Balance)
}

func TestWithdrawNegativeAmount(t *testing.T) {
	t.Parallel()

	a := NewAccount(KindHolding, 100, 0, false)
	_, err := a.Withdraw(-1)
	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.Equal(t, 100.0, a.Balance)
}

func TestWithdrawFullBalance(t *testing.T) {
	t.Parallel()

	a := NewAccount(KindEscrow, 123.45, 0, false)
	assert.Equal(t, 123.45, a.WithdrawFullBalance())
	assert.Equal(t, 0.0, a.Balance)
}

func TestSellTwice(t *testing.T) {
	t.Parallel()

	h := NewAsset(KindHouse, 300000, 0.03, 0.06)
	assert.Equal(t, 282000.0, h.Sell())
	assert.Equal(t, 0.0, h.Sell())
	assert.Equal(t, 0.0, h.Value())
	assert.Equal(t, 0.0, h.Advance(0, 3650, DefaultYearLength).Value())
}

func TestLoanAmortization(t *testing.T) {
	t.Parallel()

	l := &Loan{Principal: 100000, AnnualRate: 0.06, Term: 360}

	first := l.MonthlyPayment()
	assert.InDelta(t, 599.55, first, 0.01)
	assert.InDelta(t, -100000, l.Value(), 1e-9)

	for i := 0; i < 359; i++ {
		p, err := l.MakeMonthlyPayment()
		require.NoError(t, err)
		assert.Equal(t, first, p)
	}
	// one payment left: its present value is outstanding
	assert.InDelta(t, -first/1.005, l.Value(), 1e-6)

	_, err := l.MakeMonthlyPayment()
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.Value())
	assert.True(t, l.Closed())

	_, err = l.MakeMonthlyPayment()
	assert.ErrorIs(t, err, ErrLoanClosed)
	assert.Equal(t, 360, l.PaymentsMade)
}

func TestLoanZeroRate(t *testing.T) {
	t.Parallel()

	l := &Loan{Principal: 1200, Term: 12}
	assert.Equal(t, 100.0, l.MonthlyPayment())
	_, err := l.MakeMonthlyPayment()
	require.NoError(t, err)
	assert.Equal(t, -1100.0, l.Value())
}

func TestLoanFullPayment(t *testing.T) {
	t.Parallel()

	l := &Loan{Principal: 100000, AnnualRate: 0.06, Term: 360, PaymentsMade: 120}
	owed := l.Outstanding()
	assert.True(t, approxEqual(owed, 83685.72, 0.5), "outstanding %.2f", owed)

	assert.Equal(t, owed, l.MakeFullPayment())
	assert.Equal(t, 0.0, l.Value())
	assert.Equal(t, 360, l.PaymentsMade)
}

func TestLoanAdvanceUnchanged(t *testing.T) {
	t.Parallel()

	l := &Loan{Principal: 1000, AnnualRate: 0.05, Term: 10, PaymentsMade: 3}
	next := l.Advance(0, 365, DefaultYearLength)
	assert.Equal(t, l.Value(), next.Value())
	assert.NotSame(t, l, next)
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	env := expr.Env{"growth": 0.07, "price": 250000.0, "overdraft": true}

	acct, err := Holding(expr.Value(1000), expr.Formula("growth")).Instantiate(env)
	require.NoError(t, err)
	assert.Equal(t, KindHolding, acct.Kind())
	assert.Equal(t, 0.07, acct.(*Account).AnnualRate)

	esc := Escrow(expr.Value(0), expr.Value(0))
	esc.AllowNegative = expr.Formula("overdraft")
	in, err := esc.Instantiate(env)
	require.NoError(t, err)
	assert.Equal(t, KindEscrow, in.Kind())
	assert.True(t, in.(*Account).AllowNegative)

	house, err := House(expr.Formula("price"), expr.Value(0.03)).Instantiate(env)
	require.NoError(t, err)
	assert.Equal(t, 0.06, house.(*Asset).Commission)

	land := Land(expr.Value(1000), expr.Value(0))
	land.Commission = expr.Value(0)
	in, err = land.Instantiate(env)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, in.Value())

	loan, err := LoanTemplate{
		Principal:  expr.Formula("price * 0.8"),
		Rate:       expr.Value(0.06),
		TermMonths: expr.Value(360),
	}.Instantiate(env)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, loan.(*Loan).Principal)

	_, err = Cash(expr.Formula("missing"), expr.Value(0)).Instantiate(env)
	assert.ErrorIs(t, err, expr.ErrUnknownVariable)

	_, err = LoanTemplate{Principal: expr.Value(1), TermMonths: expr.Value(0)}.Instantiate(env)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = AccountTemplate{AccountKind: KindHouse}.Instantiate(env)
	assert.ErrorIs(t, err, ErrInvalid)
}
