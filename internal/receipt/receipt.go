// Package receipt renders a sale as a shareable receipt and builds the chat
// link that hands it to WhatsApp. Nothing here touches the store.
package receipt

import (
	"strings"
	"time"

	"mandi-backend/internal/models"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "02/01/2006 15:04"
	rule       = "--------------------------------"
)

type Formatter struct {
	shopName string
	loc      *time.Location
}

func NewFormatter(shopName string, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(shopName) == "" {
		shopName = "Fruit Store"
	}
	return &Formatter{shopName: shopName, loc: loc}
}

// ReceiptID is the last 8 characters of the sale id, upper-cased.
func ReceiptID(id string) string {
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

// Currency renders two decimals with the rupee sign in front of the digits.
func Currency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Abs().StringFixed(2)
	}
	return "₹" + d.StringFixed(2)
}

// Lines is the receipt content shared by the text and HTML renderings.
type Lines struct {
	ShopName      string
	ReceiptID     string
	Date          string
	CustomerName  string
	CustomerPhone string
	Product       string
	Category      string
	Quantity      string
	Rate          string
	Total         string
	Paid          string
	Balance       string
	BalanceDue    bool
	Notes         string
}

func (f *Formatter) Lines(t *models.SaleTransaction) Lines {
	qtyUnit, rateUnit := "kg", "kg"
	if t.PricingMode == models.PricingPerBox {
		qtyUnit, rateUnit = "boxes", "box"
	}

	l := Lines{
		ShopName:  f.shopName,
		ReceiptID: ReceiptID(t.ID),
		Date:      t.CreatedAt.In(f.loc).Format(dateLayout),
		Quantity:  t.Quantity.String() + " " + qtyUnit,
		Rate:      Currency(t.Rate) + "/" + rateUnit,
		Total:     Currency(t.TotalAmount),
		Paid:      Currency(t.PaidAmount),
	}

	outstanding := t.TotalAmount.Sub(t.PaidAmount)
	l.Balance = Currency(outstanding)
	l.BalanceDue = outstanding.IsPositive()

	if t.Customer != nil {
		l.CustomerName = t.Customer.Name
		l.CustomerPhone = t.Customer.PhoneNumber()
	}
	if t.Fruit != nil {
		l.Product = t.Fruit.Name
	}
	if t.FruitCategory != nil {
		l.Category = t.FruitCategory.Name
	}
	if t.Notes != nil {
		l.Notes = strings.TrimSpace(*t.Notes)
	}
	return l
}

// Text renders the receipt as a plain multi-line message.
func (f *Formatter) Text(t *models.SaleTransaction) string {
	l := f.Lines(t)

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("*" + strings.ToUpper(l.ShopName) + "*")
	line("Receipt #" + l.ReceiptID)
	line("Date: " + l.Date)
	line(rule)
	line("Customer: " + l.CustomerName)
	if l.CustomerPhone != "" {
		line("Phone: " + l.CustomerPhone)
	}
	line(rule)
	line("Product: " + l.Product)
	if l.Category != "" {
		line("Category: " + l.Category)
	}
	line("Quantity: " + l.Quantity)
	line("Rate: " + l.Rate)
	line(rule)
	line("Total Amount: " + l.Total)
	line("Paid Amount: " + l.Paid)
	line("Balance: " + l.Balance)
	if l.BalanceDue {
		line("*BALANCE DUE*")
	}
	if l.Notes != "" {
		line(rule)
		line("Notes: " + l.Notes)
	}
	line(rule)
	b.WriteString("Thank you for your business!")
	return b.String()
}
