// Package receipt renders a confirmed order as monospace text, ready for a
// line printer. Transport to an actual printer lives outside this module.
package receipt

import (
	"fmt"
	"strings"

	"github.com/tillworks/posledger/internal/domain/order"
)

// DefaultWidth matches common 58mm thermal printers.
const DefaultWidth = 32

// Options control the receipt layout and header fields.
type Options struct {
	Store    string
	Clerk    string
	Customer string
	Width    int
}

// Render formats o and its items. It is the intended consumer of
// checkout.ConfirmAndThen, so o carries its persisted id.
func Render(o order.Order, items []order.LineItem, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	rule := strings.Repeat("-", width)

	var b strings.Builder
	if opts.Store != "" {
		b.WriteString(center(opts.Store, width))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Order #%d\n", o.ID)
	fmt.Fprintf(&b, "%s\n", o.CreatedAt.Format("2006-01-02 15:04"))
	if opts.Clerk != "" {
		fmt.Fprintf(&b, "Clerk: %s\n", opts.Clerk)
	}
	if opts.Customer != "" {
		fmt.Fprintf(&b, "Customer: %s\n", opts.Customer)
	}
	b.WriteString(rule)
	b.WriteByte('\n')

	for _, li := range items {
		b.WriteString(clip(li.ProductName, width))
		b.WriteByte('\n')
		b.WriteString(row(
			fmt.Sprintf("  %s x %s", li.Quantity.String(), li.SellPrice.StringFixed(2)),
			li.LineTotal().StringFixed(2),
			width,
		))
		b.WriteByte('\n')
	}

	b.WriteString(rule)
	b.WriteByte('\n')
	b.WriteString(row("TOTAL", o.Total.StringFixed(2), width))
	b.WriteByte('\n')
	if o.Paid {
		b.WriteString(center("PAID", width))
		b.WriteByte('\n')
	}
	return b.String()
}

// row left-aligns label and right-aligns value on one line.
func row(label, value string, width int) string {
	gap := width - len(label) - len(value)
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + value
}

func center(s string, width int) string {
	s = clip(s, width)
	pad := (width - len(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

func clip(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width]
}
