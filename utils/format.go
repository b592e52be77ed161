package utils

import (
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	twPrinter  = message.NewPrinter(language.TraditionalChinese)
)

// IsValidEmail reports whether email looks like local@domain.tld
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// FormatCurrency formats an amount as whole New Taiwan dollars, e.g. "$1,234"
func FormatCurrency(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return twPrinter.Sprintf("-$%d", -rounded)
	}
	return twPrinter.Sprintf("$%d", rounded)
}

// FormatDateDisplay renders a YYYY-MM-DD date as YYYY年MM月DD日.
// Unparseable input is returned unchanged.
func FormatDateDisplay(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("2006年01月02日")
}

// QuoteCSV joins fields into one CSV line, quoting every field
func QuoteCSV(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
