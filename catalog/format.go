package catalog

import "fmt"

// FormatCurrency renders a dollar amount with two decimals (e.g., "$9.99").
func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// TruncateText cuts text to maxLength runes and appends "..." when it was
// longer.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:max(maxLength, 0)]) + "..."
}
