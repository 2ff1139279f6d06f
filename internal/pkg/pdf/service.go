// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service renders order invoices as PDF files via wkhtmltopdf
type Service struct {
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new PDF service
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #222; }
h1 { font-size: 22px; }
table { width: 100%; border-collapse: collapse; margin-top: 20px; }
th, td { border-bottom: 1px solid #ddd; padding: 8px; text-align: left; }
.total { font-weight: bold; }
.meta { color: #666; font-size: 12px; }
</style>
</head>
<body>
<h1>Invoice {{.Order.OrderID}}</h1>
<p class="meta">{{.CompanyName}}<br>{{.CompanyAddr}}</p>
<p>
Billed to: {{.Order.FirstName}} {{.Order.LastName}}<br>
{{.Order.Address}}, {{.Order.City}} {{.Order.PostalCode}}<br>
{{.Order.Email}}
</p>
<p class="meta">Issued {{.IssuedAt}}</p>
<table>
<tr><th>Product</th><th>Unit price</th><th>Quantity</th><th>Amount</th></tr>
{{range .Items}}
<tr><td>{{.Name}}</td><td>{{.UnitPrice}}</td><td>{{.Quantity}}</td><td>{{.Amount}}</td></tr>
{{end}}
<tr><td colspan="3" class="total">Total</td><td class="total">{{.Total}}</td></tr>
</table>
</body>
</html>`))

type invoiceItem struct {
	Name      string
	UnitPrice string
	Quantity  int
	Amount    string
}

type invoiceData struct {
	Order       *order.Order
	Items       []invoiceItem
	Total       string
	IssuedAt    string
	CompanyName string
	CompanyAddr string
}

// WriteInvoice renders the invoice for an order and writes it under the
// configured output directory, returning the file path.
func (s *Service) WriteInvoice(o *order.Order) (string, error) {
	if !s.config.Invoice.Enabled {
		s.logger.WithField("order_id", o.OrderID).Info("Invoice generation disabled, skipping")
		return "", nil
	}

	html, err := s.render(o)
	if err != nil {
		return "", err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return "", fmt.Errorf("failed to create PDF generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}

	if err := os.MkdirAll(s.config.Invoice.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice directory: %w", err)
	}
	path := filepath.Join(s.config.Invoice.OutputDir, fmt.Sprintf("invoice_%s.pdf", o.OrderID))
	if err := pdfg.WriteFile(path); err != nil {
		return "", fmt.Errorf("failed to write invoice: %w", err)
	}
	return path, nil
}

func (s *Service) render(o *order.Order) ([]byte, error) {
	items := make([]invoiceItem, 0, len(o.Items))
	for _, item := range o.Items {
		name := fmt.Sprintf("Product #%d", item.ProductID)
		if item.Product != nil {
			name = item.Product.Name
		}
		amount := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, invoiceItem{
			Name:      name,
			UnitPrice: item.Price.StringFixed(2),
			Quantity:  item.Quantity,
			Amount:    amount.StringFixed(2),
		})
	}

	data := invoiceData{
		Order:       o,
		Items:       items,
		Total:       o.TotalAmount().StringFixed(2),
		IssuedAt:    time.Now().UTC().Format("2006-01-02"),
		CompanyName: s.config.Invoice.CompanyName,
		CompanyAddr: s.config.Invoice.CompanyAddr,
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render invoice template: %w", err)
	}
	return buf.Bytes(), nil
}

// ensure the service satisfies the order invoicing contract
var _ order.Invoicer = (*Service)(nil)
