package pricing

import (
	"errors"
	"math"
)

// DefaultDebtRatio is the share of monthly income lenders accept for repayments.
const DefaultDebtRatio = 0.35

// Bounds of a loan accepted for simulation
const (
	MaxPrincipal  = 1e10
	MaxYears      = 50
	MaxAnnualRate = 100
)

var ErrInvalidLoan = errors.New("invalid loan parameters")

type Loan struct {
	Principal  float64 `json:"principal"`
	AnnualRate float64 `json:"annual_rate"`
	Years      int     `json:"years"`
}

func (l Loan) months() int { return l.Years * 12 }

func (l Loan) monthlyRate() float64 { return l.AnnualRate / 100 / 12 }

func (l Loan) validate() error {
	if math.IsNaN(l.Principal) || math.IsInf(l.Principal, 0) || math.IsNaN(l.AnnualRate) || math.IsInf(l.AnnualRate, 0) {
		return ErrInvalidLoan
	}
	if l.Principal <= 0 || l.Principal > MaxPrincipal || l.Years <= 0 || l.Years > MaxYears || l.AnnualRate < 0 || l.AnnualRate > MaxAnnualRate {
		return ErrInvalidLoan
	}
	return nil
}

type YearRow struct {
	Year          int     `json:"year"`
	PrincipalPaid float64 `json:"principal_paid"`
	InterestPaid  float64 `json:"interest_paid"`
	Remaining     float64 `json:"remaining"`
}

type Amortization struct {
	Loan
	Months         int       `json:"months"`
	MonthlyPayment float64   `json:"monthly_payment"`
	TotalCost      float64   `json:"total_cost"`
	TotalInterest  float64   `json:"total_interest"`
	Schedule       []YearRow `json:"schedule"`
}

// MonthlyPayment is the fixed instalment of a fully amortizing loan.
func MonthlyPayment(l Loan) (float64, error) {
	if err := l.validate(); err != nil {
		return 0, err
	}
	n := float64(l.months())
	r := l.monthlyRate()
	if r == 0 {
		return l.Principal / n, nil
	}
	growth := math.Pow(1+r, n)
	return l.Principal * r * growth / (growth - 1), nil
}

// Amortize computes the instalment, total cost and a yearly breakdown.
func Amortize(l Loan) (Amortization, error) {
	payment, err := MonthlyPayment(l)
	if err != nil {
		return Amortization{}, err
	}

	a := Amortization{
		Loan:           l,
		Months:         l.months(),
		MonthlyPayment: payment,
		TotalCost:      payment * float64(l.months()),
	}
	a.TotalInterest = a.TotalCost - l.Principal

	r := l.monthlyRate()
	balance := l.Principal
	a.Schedule = make([]YearRow, 0, l.Years)
	for year := 1; year <= l.Years; year++ {
		row := YearRow{Year: year}
		for m := 0; m < 12; m++ {
			interest := balance * r
			principal := payment - interest
			balance -= principal
			row.InterestPaid += interest
			row.PrincipalPaid += principal
		}
		if balance < 0.005 {
			balance = 0
		}
		row.PrincipalPaid = roundCents(row.PrincipalPaid)
		row.InterestPaid = roundCents(row.InterestPaid)
		row.Remaining = roundCents(balance)
		a.Schedule = append(a.Schedule, row)
	}
	return a, nil
}

// DebtRatio is the percentage of monthly income consumed by the payment.
func DebtRatio(monthlyPayment, monthlyIncome float64) (float64, error) {
	if monthlyIncome <= 0 || math.IsInf(monthlyIncome, 0) || math.IsNaN(monthlyIncome) {
		return 0, ErrInvalidLoan
	}
	return math.Round(monthlyPayment/monthlyIncome*10000) / 100, nil
}

// MaxBorrowing is the principal whose instalment consumes exactly ratio of income.
func MaxBorrowing(monthlyIncome, annualRate float64, years int, ratio float64) (float64, error) {
	if monthlyIncome <= 0 || years <= 0 || annualRate < 0 || ratio <= 0 {
		return 0, ErrInvalidLoan
	}
	if years > MaxYears || annualRate > MaxAnnualRate || math.IsInf(monthlyIncome, 0) || math.IsNaN(monthlyIncome) {
		return 0, ErrInvalidLoan
	}
	payment := monthlyIncome * ratio
	n := float64(years * 12)
	r := annualRate / 100 / 12
	if r == 0 {
		return math.Floor(payment * n), nil
	}
	return math.Floor(payment * (1 - math.Pow(1+r, -n)) / r), nil
}
