package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTransactionEffect(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{
			name: "expense subtracts amount plus fee",
			tx:   Transaction{Type: Expense, Amount: dec("50000"), AdminFee: dec("2500")},
			want: "-52500",
		},
		{
			name: "expense without fee",
			tx:   Transaction{Type: Expense, Amount: dec("50000")},
			want: "-50000",
		},
		{
			name: "income adds amount only",
			tx:   Transaction{Type: Income, Amount: dec("75000"), AdminFee: dec("1000")},
			want: "75000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.Effect(); !got.Equal(dec(tt.want)) {
				t.Errorf("Effect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTransferEffectOn(t *testing.T) {
	tr := Transfer{FromWalletID: 1, ToWalletID: 2, Amount: dec("100000"), AdminFee: dec("2500")}

	if got := tr.EffectOn(1); !got.Equal(dec("-102500")) {
		t.Errorf("EffectOn(from) = %s, want -102500", got)
	}
	if got := tr.EffectOn(2); !got.Equal(dec("100000")) {
		t.Errorf("EffectOn(to) = %s, want 100000", got)
	}
	if got := tr.EffectOn(3); !got.IsZero() {
		t.Errorf("EffectOn(other) = %s, want 0", got)
	}
}

func TestBudgetProgress(t *testing.T) {
	b := Budget{Amount: dec("500000")}
	p := b.Progress("Makanan", dec("100000"))

	if !p.Remaining.Equal(dec("400000")) {
		t.Errorf("Remaining = %s, want 400000", p.Remaining)
	}
	if p.Percentage != 20 {
		t.Errorf("Percentage = %d, want 20", p.Percentage)
	}

	// overspent budgets keep going past 100
	over := b.Progress("Makanan", dec("600000"))
	if over.Percentage != 120 {
		t.Errorf("Percentage = %d, want 120", over.Percentage)
	}
	if !over.Remaining.Equal(dec("-100000")) {
		t.Errorf("Remaining = %s, want -100000", over.Remaining)
	}

	zero := Budget{Amount: decimal.Zero}.Progress("Makanan", dec("100"))
	if zero.Percentage != 0 {
		t.Errorf("Percentage with zero budget = %d, want 0", zero.Percentage)
	}
}

func TestGoalPercentageComplete(t *testing.T) {
	tests := []struct {
		name    string
		current string
		target  string
		want    int
	}{
		{"partial", "250000", "1000000", 25},
		{"floor not round", "666", "1000", 66},
		{"complete", "1000000", "1000000", 100},
		{"zero target", "500", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := FinancialGoal{CurrentAmount: dec(tt.current), TargetAmount: dec(tt.target)}
			if got := g.PercentageComplete(); got != tt.want {
				t.Errorf("PercentageComplete() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthOf(t *testing.T) {
	d := time.Date(2025, 7, 19, 15, 30, 0, 0, time.UTC)
	want := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := MonthOf(d); !got.Equal(want) {
		t.Errorf("MonthOf() = %v, want %v", got, want)
	}
}
