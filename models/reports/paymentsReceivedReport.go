package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/xuri/excelize/v2"
)

type PaymentsReceivedRow struct {
	PaymentID     int             `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// GetPaymentsReceivedReport lists approved and succeeded payments in the
// given window, newest first.
func GetPaymentsReceivedReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*PaymentsReceivedRow, error) {

	sql := `
SELECT
    payments.id AS payment_id,
    payments.payment_number,
    invoices.invoice_number,
    customers.name AS customer_name,
    payments.payment_method,
    payments.amount,
    payments.status,
    payments.updated_at AS received_at
FROM
    payments
    LEFT JOIN invoices ON invoices.id = payments.invoice_id
    LEFT JOIN customers ON customers.id = payments.customer_id
WHERE
    payments.status IN ('approved', 'succeeded')
    AND payments.updated_at BETWEEN ? AND ?
ORDER BY payments.updated_at DESC;
`

	var records []*PaymentsReceivedRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, fromDate, toDate).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// WritePaymentsReceivedExcel renders the report as an xlsx workbook.
func WritePaymentsReceivedExcel(w io.Writer, data []*PaymentsReceivedRow) error {

	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(sheetName, "A1", "PaymentNumber")
	f.SetCellValue(sheetName, "B1", "InvoiceNumber")
	f.SetCellValue(sheetName, "C1", "CustomerName")
	f.SetCellValue(sheetName, "D1", "PaymentMethod")
	f.SetCellValue(sheetName, "E1", "Amount")
	f.SetCellValue(sheetName, "F1", "Status")
	f.SetCellValue(sheetName, "G1", "ReceivedAt")

	// Add data
	for i, d := range data {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, d.PaymentNumber)
		f.SetCellValue(sheetName, "B"+row, d.InvoiceNumber)
		f.SetCellValue(sheetName, "C"+row, d.CustomerName)
		f.SetCellValue(sheetName, "D"+row, d.PaymentMethod)
		f.SetCellValue(sheetName, "E"+row, d.Amount.StringFixed(2))
		f.SetCellValue(sheetName, "F"+row, d.Status)
		f.SetCellValue(sheetName, "G"+row, d.ReceivedAt.Format("2006-01-02 15:04:05"))
	}

	return f.Write(w)
}
