// Package delivery formats confirmed checkout receipts for print, WhatsApp and SMS
// and fans them out to channel senders.
package delivery

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DefaultPrintWidth fits a standard 80mm thermal roll
	DefaultPrintWidth = 40
	minPrintWidth     = 24

	dateLayout  = "02 Jan 2006 15:04"
	chatBaseURL = "https://wa.me/"
)

// FormatterConfig configures receipt rendering
type FormatterConfig struct {
	StoreName   string
	PrintWidth  int
	Locale      string
	CountryCode string
}

// Formatter renders a confirmed receipt for each delivery channel.
// All methods are pure and safe for concurrent use.
type Formatter struct {
	storeName   string
	width       int
	tag         language.Tag
	countryCode string
}

// Message is a rendered receipt ready to hand to a Sender
type Message struct {
	Channel     checkout.DeliveryChannel
	Destination string
	Body        string
	Link        string
}

// Summary returns what a caller should show for the message: the chat link when
// there is one, the body otherwise
func (m Message) Summary() string {
	if m.Link != "" {
		return m.Link
	}
	return m.Body
}

// NewFormatter creates a Formatter. An empty locale falls back to en-IN.
func NewFormatter(cfg FormatterConfig) (*Formatter, error) {
	locale := cfg.Locale
	if locale == "" {
		locale = "en-IN"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt locale %q: %w", locale, err)
	}

	width := cfg.PrintWidth
	if width == 0 {
		width = DefaultPrintWidth
	}
	if width < minPrintWidth {
		return nil, fmt.Errorf("print width must be at least %d, got %d", minPrintWidth, width)
	}

	storeName := strings.TrimSpace(cfg.StoreName)
	if storeName == "" {
		storeName = "Store"
	}

	return &Formatter{
		storeName:   storeName,
		width:       width,
		tag:         tag,
		countryCode: cfg.CountryCode,
	}, nil
}

// Format renders the receipt for channel. Phone is required for WhatsApp and SMS.
func (f *Formatter) Format(channel checkout.DeliveryChannel, r checkout.Receipt, phone string) (Message, error) {
	switch channel {
	case checkout.ChannelPrint:
		return f.Print(r), nil
	case checkout.ChannelWhatsApp:
		return f.WhatsApp(r, phone)
	case checkout.ChannelSMS:
		return f.SMS(r, phone)
	}
	return Message{}, ErrUnknownChannel
}

// Print renders a fixed-width text receipt
func (f *Formatter) Print(r checkout.Receipt) Message {
	rr := f.renderer()
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(rr.center(strings.ToUpper(f.storeName)))
	line(rr.center("PAYMENT RECEIPT"))
	line(strings.Repeat("=", f.width))
	line(rr.row("Invoice", r.InvoiceID))
	line(rr.row("Date", r.ConfirmedAt.Format(dateLayout)))
	line(strings.Repeat("-", f.width))

	if len(r.Items) > 0 {
		for _, item := range r.Items {
			line(rr.fit(item.Name))
			line(rr.row(fmt.Sprintf("  %d x %s", item.Quantity, rr.money(item.UnitPrice)), rr.money(item.LineTotal())))
		}
		line(strings.Repeat("-", f.width))
		line(rr.row("Subtotal", rr.money(r.Totals.Subtotal)))
		if r.Totals.Tax.IsPositive() {
			line(rr.row("Tax", rr.money(r.Totals.Tax)))
		}
		if r.Totals.Discount.IsPositive() {
			line(rr.row("Discount", "-"+rr.money(r.Totals.Discount)))
		}
	}
	line(rr.row("TOTAL", rr.money(r.Total)))
	line(strings.Repeat("-", f.width))

	line("PAYMENTS")
	paid := valueobject.Zero()
	for _, entry := range r.Entries {
		line(rr.row(rr.tender(entry, true), rr.money(entry.Amount)))
		paid = paid.Add(entry.Amount)
	}
	line(strings.Repeat("-", f.width))
	line(rr.row("Paid", rr.money(paid)))
	line("")
	line(rr.center("Thank you for shopping with us!"))

	return Message{Channel: checkout.ChannelPrint, Body: b.String()}
}

// WhatsApp renders a chat message and a wa.me link that opens it pre-filled
func (f *Formatter) WhatsApp(r checkout.Receipt, phone string) (Message, error) {
	dest, err := NormalizePhone(phone, f.countryCode)
	if err != nil {
		return Message{}, err
	}

	rr := f.renderer()
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", f.storeName)
	fmt.Fprintf(&b, "Receipt for invoice *%s*\n", r.InvoiceID)
	fmt.Fprintf(&b, "Total: %s\n\n", rr.money(r.Total))
	b.WriteString("Payments:\n")
	for _, entry := range r.Entries {
		fmt.Fprintf(&b, "• %s: %s\n", rr.tender(entry, true), rr.money(entry.Amount))
	}
	fmt.Fprintf(&b, "\nPaid on %s. Thank you for shopping with us!", r.ConfirmedAt.Format(dateLayout))

	body := b.String()
	return Message{
		Channel:     checkout.ChannelWhatsApp,
		Destination: dest,
		Body:        body,
		Link:        chatBaseURL + dest + "?text=" + strings.ReplaceAll(url.QueryEscape(body), "+", "%20"),
	}, nil
}

// SMS renders a single compact text message
func (f *Formatter) SMS(r checkout.Receipt, phone string) (Message, error) {
	dest, err := NormalizePhone(phone, f.countryCode)
	if err != nil {
		return Message{}, err
	}

	rr := f.renderer()
	parts := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		parts = append(parts, rr.tender(entry, false)+" "+rr.money(entry.Amount))
	}
	body := fmt.Sprintf("%s: Paid %s for %s on %s (%s). Thank you!",
		f.storeName, rr.money(r.Total), r.InvoiceID, r.ConfirmedAt.Format("02 Jan 2006"), strings.Join(parts, ", "))

	return Message{Channel: checkout.ChannelSMS, Destination: dest, Body: body}, nil
}

var maxGroupable = decimal.NewFromInt(math.MaxInt64)

// renderer holds the per-call printer and caser; neither may be shared across goroutines
type renderer struct {
	width   int
	printer *message.Printer
	caser   cases.Caser
}

func (f *Formatter) renderer() *renderer {
	return &renderer{
		width:   f.width,
		printer: message.NewPrinter(f.tag),
		caser:   cases.Title(f.tag),
	}
}

// money formats an amount with locale digit grouping and two decimals, e.g. "₹2,395.00"
func (rr *renderer) money(m valueobject.Money) string {
	return rr.amount(m.Amount())
}

func (rr *renderer) amount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(valueobject.MoneyPlaces), ".")
	// amounts past int64 are printed ungrouped
	if d.LessThanOrEqual(maxGroupable) {
		whole = rr.printer.Sprintf("%d", d.IntPart())
	}
	return sign + valueobject.CurrencySymbol + whole + "." + frac
}

// tender labels an entry, e.g. "Card (Visa ****1234)"; detail is omitted when short is wanted
func (rr *renderer) tender(entry checkout.PaymentEntry, withDetail bool) string {
	label := rr.caser.String(strings.ToLower(entry.Kind().String()))
	if entry.Kind() == checkout.MethodUPI {
		label = entry.Kind().String()
	}
	if withDetail && entry.Detail != "" {
		label += " (" + entry.Detail + ")"
	}
	return label
}

// row puts left and right on one line padded to the print width, truncating left if needed
func (rr *renderer) row(left, right string) string {
	room := rr.width - utf8.RuneCountInString(right) - 1
	if room < 1 {
		return right
	}
	left = truncate(left, room)
	return left + strings.Repeat(" ", rr.width-utf8.RuneCountInString(left)-utf8.RuneCountInString(right)) + right
}

func (rr *renderer) center(s string) string {
	s = truncate(s, rr.width)
	pad := (rr.width - utf8.RuneCountInString(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func (rr *renderer) fit(s string) string {
	return truncate(s, rr.width)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "~"
}
