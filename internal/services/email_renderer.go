package services

import (
	"fmt"
	"html"
	"strings"

	"github.com/Samir899/SpendVolt/internal/alerts"
	"github.com/shopspring/decimal"
)

func money(w alerts.BudgetWarning, amount decimal.Decimal) string {
	return w.Currency.Symbol() + amount.StringFixed(2)
}

func BudgetWarningSubject(w alerts.BudgetWarning) string {
	if w.Usage.Exceeded {
		return fmt.Sprintf("SpendVolt - %s budget exceeded", w.Month)
	}
	return fmt.Sprintf("SpendVolt - %.0f%% of your %s budget used", w.Usage.Ratio*100, w.Month)
}

// RenderTopSpends renders the largest payments as table rows.
func RenderTopSpends(w alerts.BudgetWarning) string {
	if len(w.TopSpends) == 0 {
		return ""
	}

	var rows strings.Builder
	for _, t := range w.TopSpends {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding: 6px 0;">%s</td><td style="padding: 6px 0; color: #666;">%s</td><td style="padding: 6px 0; text-align: right;">%s</td></tr>`,
			html.EscapeString(t.MerchantName),
			html.EscapeString(t.CategoryName),
			money(w, t.Amount),
		))
	}

	return fmt.Sprintf(`
		<h3 style="font-size: 16px; margin-bottom: 8px;">Largest payments this month</h3>
		<table style="width: 100%%; border-collapse: collapse;">
			%s
		</table>
	`, rows.String())
}

// RenderBudgetWarning renders the full HTML body for a budget warning.
func RenderBudgetWarning(w alerts.BudgetWarning) string {
	accent := "#f7a600"
	headline := "You're close to your monthly budget"
	if w.Usage.Exceeded {
		accent = "#d13438"
		headline = "You've gone over your monthly budget"
	}

	return fmt.Sprintf(`
		<html>
		<body style="font-family: 'Segoe UI', sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
			<div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
				<div style="background-color: %s; padding: 20px; text-align: center; color: white;">
					<h2 style="margin: 0;">%s</h2>
				</div>
				<div style="padding: 20px;">
					<p>Hi %s,</p>
					<p>You have spent <strong>%s</strong> of your <strong>%s</strong> budget for %s %d (%.0f%%).</p>
					%s
				</div>
			</div>
		</body>
		</html>
	`, accent, headline, html.EscapeString(w.Name), money(w, w.Spent), money(w, w.Budget), w.Month, w.Year, w.Usage.Ratio*100, RenderTopSpends(w))
}

func RenderBudgetWarningText(w alerts.BudgetWarning) string {
	return fmt.Sprintf("Hi %s, you have spent %s of your %s budget for %s %d (%.0f%%).",
		w.Name, money(w, w.Spent), money(w, w.Budget), w.Month, w.Year, w.Usage.Ratio*100)
}
