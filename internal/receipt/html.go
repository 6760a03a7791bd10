package receipt

import (
	"bytes"
	"html/template"

	"mandi-backend/internal/models"
)

var htmlTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt #{{.ReceiptID}}</title>
<style>
body { font-family: Arial, sans-serif; padding: 20px; max-width: 400px; margin: 0 auto; }
.receipt { padding: 20px; border: 2px solid #333; border-radius: 8px; }
.header { text-align: center; border-bottom: 2px solid #333; padding-bottom: 15px; }
.divider { border-top: 1px dashed #333; margin: 15px 0; }
.row { display: flex; justify-content: space-between; margin: 8px 0; }
.total { font-weight: bold; }
.due { color: #dc2626; }
.settled { color: #16a34a; }
.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="receipt">
  <div class="header">
    <h1>{{.ShopName}}</h1>
    <p><strong>Receipt #{{.ReceiptID}}</strong></p>
    <p>{{.Date}}</p>
  </div>
  <div class="customer">
    <strong>Customer: {{.CustomerName}}</strong>{{if .CustomerPhone}}<br>{{.CustomerPhone}}{{end}}
  </div>
  <div class="divider"></div>
  <div class="row"><span>Product:</span><span>{{.Product}}</span></div>
  {{- if .Category}}
  <div class="row"><span>Category:</span><span>{{.Category}}</span></div>
  {{- end}}
  <div class="row"><span>Quantity:</span><span>{{.Quantity}}</span></div>
  <div class="row"><span>Rate:</span><span>{{.Rate}}</span></div>
  <div class="divider"></div>
  <div class="row total"><span>Total Amount:</span><span>{{.Total}}</span></div>
  <div class="row"><span>Paid Amount:</span><span>{{.Paid}}</span></div>
  <div class="row total {{if .BalanceDue}}due{{else}}settled{{end}}"><span>Balance:</span><span>{{.Balance}}</span></div>
  {{- if .BalanceDue}}
  <p class="due"><strong>BALANCE DUE</strong></p>
  {{- end}}
  {{- if .Notes}}
  <div class="divider"></div>
  <div class="notes"><strong>Notes:</strong><br>{{.Notes}}</div>
  {{- end}}
  <div class="footer"><p>Thank you for your business!</p></div>
</div>
</body>
</html>
`))

// HTML renders the same content as Text for printing or image conversion.
// Customer supplied strings are escaped.
func (f *Formatter) HTML(t *models.SaleTransaction) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, f.Lines(t)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
