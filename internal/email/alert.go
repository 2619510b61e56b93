// Package email builds the payloads consumed by the mailer service. Rendering
// the HTML happens downstream; this package only supplies formatted fields.
package email

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

const alertTimeZone = "America/New_York"

type TransactionAlert struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	TransactionID string `json:"transaction_id"`
	Description   string `json:"description"`
	Balance       string `json:"balance"`
	Type          string `json:"type"`
	SubType       string `json:"sub_type"`
}

// NewTransactionAlert formats the alert for entry. balance is the user's
// balance after the entry was applied.
func NewTransactionAlert(user *domain.User, entry *domain.LedgerEntry, balance decimal.Decimal) TransactionAlert {
	kind := CapitalizeWords(string(entry.Direction))
	return TransactionAlert{
		To:            user.Email,
		Subject:       fmt.Sprintf("Transaction Alert: Account %sed", kind),
		Name:          CapitalizeWords(user.Name),
		Amount:        entry.Amount.StringFixed(2),
		Date:          FormatDate(entry.CreatedAt),
		TransactionID: entry.TransactionRef,
		Description:   entry.Description,
		Balance:       balance.StringFixed(2),
		Type:          kind,
		SubType:       CapitalizeWords(string(entry.SubType)),
	}
}

// FormatDate renders t in New York time as "January 2nd, 3:04 PM EST".
func FormatDate(t time.Time) string {
	loc, err := time.LoadLocation(alertTimeZone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := local.Day()
	return fmt.Sprintf("%s %d%s, %s", local.Format("January"), day, ordinalSuffix(day), local.Format("3:04 PM MST"))
}

func ordinalSuffix(day int) string {
	switch {
	case day%10 == 1 && day != 11:
		return "st"
	case day%10 == 2 && day != 12:
		return "nd"
	case day%10 == 3 && day != 13:
		return "rd"
	default:
		return "th"
	}
}

func CapitalizeWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
