package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	for _, valid := range []string{"NGD", "restricted", "semi", "admin"} {
		if _, err := ParseCategory(valid); err != nil {
			t.Errorf("ParseCategory(%q) error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "RESTRICTED", "vip", "ngd"} {
		if _, err := ParseCategory(invalid); err == nil {
			t.Errorf("ParseCategory(%q) should fail", invalid)
		}
	}
}

func TestPositionValueCeiling(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryNGD, "50000"},
		{CategoryRestricted, "100000"},
		{CategorySemi, "500000"},
		{CategoryAdmin, "10000000"},
	}
	for _, tt := range tests {
		if got := tt.category.PositionValueCeiling(); !got.Equal(d(tt.want)) {
			t.Errorf("%s ceiling = %s, want %s", tt.category, got, tt.want)
		}
	}
}

func TestAccountDebitFailsWithoutMutation(t *testing.T) {
	account := NewAccount("U1", CategoryRestricted, decimal.NewFromInt(1000))

	err := account.Debit(decimal.NewFromInt(1500))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Debit() error = %v, want ErrInsufficientBalance", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("failed debit mutated balance: %s", account.Balance)
	}

	if err := account.Debit(decimal.NewFromInt(400)); err != nil {
		t.Fatalf("Debit() error: %v", err)
	}
	account.Credit(decimal.NewFromInt(100))
	if !account.Balance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("balance = %s, want 700", account.Balance)
	}
}
