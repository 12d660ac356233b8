// internal/bot/parse.go
package bot

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// AddCommand is a parsed /add message:
//
//	/add Dompet: 50000 Makanan
//	/add BCA: +2500000 Gaji
//
// A leading + on the amount marks income; anything else is an expense.
type AddCommand struct {
	WalletName   string
	Amount       decimal.Decimal
	CategoryName string
	Income       bool
}

func ParseAdd(input string) (AddCommand, error) {
	input = SanitizeInput(input)
	if !strings.Contains(input, ":") {
		return AddCommand{}, fmt.Errorf("use the format: Wallet: 50000 Category")
	}

	parts := strings.SplitN(input, ":", 2)
	walletName := strings.TrimSpace(parts[0])
	rest := strings.TrimSpace(parts[1])
	if walletName == "" || rest == "" {
		return AddCommand{}, fmt.Errorf("wallet and amount must not be empty")
	}

	fields := strings.Fields(rest)
	amountStr := fields[0]

	income := strings.HasPrefix(amountStr, "+")
	amountStr = strings.TrimPrefix(amountStr, "+")

	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		return AddCommand{}, fmt.Errorf("invalid amount: %q", fields[0])
	}

	return AddCommand{
		WalletName:   walletName,
		Amount:       amount,
		CategoryName: strings.Join(fields[1:], " "),
		Income:       income,
	}, nil
}

// SanitizeInput collapses every whitespace run into a single space.
func SanitizeInput(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// fixEncoding repairs messages that arrive as windows-1251 bytes instead
// of UTF-8.
func fixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	decoder := charmap.Windows1251.NewDecoder()
	fixed, err := decoder.String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}

	return strings.ToValidUTF8(s, "")
}
