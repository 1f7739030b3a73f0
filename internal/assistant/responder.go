// Package assistant answers free-text dashboard questions with keyword rules over
// the analytics, forecast and alert services.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balancesheet/balancesheet/internal/alerts"
	"github.com/balancesheet/balancesheet/internal/analytics"
	"github.com/balancesheet/balancesheet/internal/forecast"
)

const (
	topProductsLimit  = 5
	warningsShown     = 3
	assistantGrowth   = 0.05
	defaultHelpAnswer = "Hello! I'm the **BalanceSheet assistant**, your business analytics helper.\n\n" +
		"I can help you with:\n" +
		"- **Top products** analysis\n" +
		"- **Sales forecasting** and predictions\n" +
		"- **Inventory alerts** and issues\n" +
		"- **Revenue summaries** and trends\n\n" +
		"Try asking me:\n" +
		"- \"Show me the top 5 products\"\n" +
		"- \"What's the sales forecast?\"\n" +
		"- \"Any alerts or issues?\"\n" +
		"- \"Give me a sales summary\""
)

// Analytics is the dashboard data the responder reads.
type Analytics interface {
	LastMonth() time.Time
	TopProducts(ctx context.Context, since time.Time, limit int) ([]analytics.ProductPerformance, error)
	Summary(ctx context.Context, since time.Time) (analytics.PeriodSummary, error)
}

// Forecaster produces the growth-formula forecast.
type Forecaster interface {
	Formula(ctx context.Context, productID string, growthRate float64) (forecast.Result, error)
}

// InventoryAlerts recomputes the inventory alerts.
type InventoryAlerts interface {
	Inventory(ctx context.Context) ([]alerts.Alert, error)
}

// Reply is the assistant answer.
type Reply struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Responder routes a message to the first matching rule.
type Responder struct {
	analytics Analytics
	forecast  Forecaster
	alerts    InventoryAlerts
	now       func() time.Time
}

// NewResponder wires the responder to its data sources.
func NewResponder(a Analytics, f Forecaster, al InventoryAlerts) *Responder {
	return &Responder{analytics: a, forecast: f, alerts: al, now: time.Now}
}

// WithNow overrides the reply clock.
func (r *Responder) WithNow(fn func() time.Time) {
	if fn != nil {
		r.now = fn
	}
}

// Respond answers message.
func (r *Responder) Respond(ctx context.Context, message string) (Reply, error) {
	text, err := r.answer(ctx, strings.ToLower(message))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Response: text, Timestamp: r.now().UTC()}, nil
}

func (r *Responder) answer(ctx context.Context, msg string) (string, error) {
	switch {
	case strings.Contains(msg, "top") && (strings.Contains(msg, "5") || strings.Contains(msg, "products")):
		return r.topProducts(ctx)
	case containsAny(msg, "forecast", "predict"):
		return r.forecastAnswer(ctx)
	case containsAny(msg, "alert", "issue", "problem"):
		return r.alertsAnswer(ctx)
	case containsAny(msg, "sales", "revenue", "summary"):
		return r.summary(ctx)
	default:
		return defaultHelpAnswer, nil
	}
}

func (r *Responder) topProducts(ctx context.Context) (string, error) {
	top, err := r.analytics.TopProducts(ctx, r.analytics.LastMonth(), topProductsLimit)
	if err != nil {
		return "", fmt.Errorf("assistant: top products: %w", err)
	}
	lines := make([]string, 0, len(top))
	for i, p := range top {
		lines = append(lines, fmt.Sprintf("%d. **%s**: $%s (%d units sold)", i+1, p.Name, money(p.Revenue), p.Units))
	}
	return "**Top 5 Products by Revenue (Last Month)**\n\n" + strings.Join(lines, "\n") +
		"\n\nThese products are your top performers! Consider increasing inventory or running promotions.", nil
}

func (r *Responder) forecastAnswer(ctx context.Context) (string, error) {
	res, err := r.forecast.Formula(ctx, "", assistantGrowth)
	if err != nil {
		return "", fmt.Errorf("assistant: forecast: %w", err)
	}
	return fmt.Sprintf("**Sales Forecast**\n\n%s\n\n**Next Period Prediction:**\n- Units: %d\n- Revenue: $%s\n- Confidence Range: %d - %d units",
		res.Explanation, res.Prediction.Units, decimal.NewFromFloat(res.Prediction.Revenue).String(),
		res.Confidence.Low, res.Confidence.High), nil
}

func (r *Responder) alertsAnswer(ctx context.Context) (string, error) {
	list, err := r.alerts.Inventory(ctx)
	if err != nil {
		return "", fmt.Errorf("assistant: alerts: %w", err)
	}
	if len(list) == 0 {
		return "**No Current Alerts**\n\nAll systems are running smoothly! Your inventory levels look good.", nil
	}

	var critical, warnings []alerts.Alert
	for _, a := range list {
		switch a.Type {
		case alerts.TypeCritical:
			critical = append(critical, a)
		case alerts.TypeWarning:
			warnings = append(warnings, a)
		}
	}

	var b strings.Builder
	b.WriteString("**Current Alerts Summary**\n\n")
	if len(critical) > 0 {
		fmt.Fprintf(&b, "**Critical Issues (%d):**\n", len(critical))
		for _, a := range critical {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Message)
		}
		b.WriteString("\n")
	}
	if len(warnings) > 0 {
		fmt.Fprintf(&b, "**Warnings (%d):**\n", len(warnings))
		for _, a := range warnings[:min(len(warnings), warningsShown)] {
			fmt.Fprintf(&b, "- %s\n", a.Title)
		}
		b.WriteString("\n")
	}
	b.WriteString("I recommend addressing critical alerts immediately to avoid stockouts.")
	return b.String(), nil
}

func (r *Responder) summary(ctx context.Context) (string, error) {
	s, err := r.analytics.Summary(ctx, r.analytics.LastMonth())
	if err != nil {
		return "", fmt.Errorf("assistant: summary: %w", err)
	}
	return fmt.Sprintf("**Last Month Sales Summary**\n\n- **Total Revenue:** $%s\n- **Units Sold:** %d\n- **Number of Transactions:** %d\n- **Average Order Value:** $%s\n\nYour business is performing well! Keep up the momentum.",
		money(s.Revenue), s.Units, s.Transactions, money(s.AvgOrderValue)), nil
}

func containsAny(msg string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
