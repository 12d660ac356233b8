// internal/handler/reports.go
package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

type ReportHandler struct {
	store interface {
		storage.ReportStorage
		storage.TransactionStorage
	}
}

func NewReportHandler(store interface {
	storage.ReportStorage
	storage.TransactionStorage
}) *ReportHandler {
	return &ReportHandler{store: store}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	summary, err := h.store.Dashboard(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to build dashboard", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StatementPDF renders one month of activity as a PDF. Defaults to the
// current month when ?month is absent.
func (h *ReportHandler) StatementPDF(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	month := domain.MonthOf(time.Now())
	if s := c.Query("month"); s != "" {
		m, err := parseYearMonth(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be in YYYY-MM format"})
			return
		}
		month = domain.MonthOf(m)
	}

	records, err := h.store.TransactionsInMonth(context.Background(), userID, month)
	if err != nil {
		slog.Error("Failed to build statement", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build statement"})
		return
	}

	income := decimal.Zero
	expense := decimal.Zero
	for _, r := range records {
		switch r.Type {
		case domain.Income:
			income = income.Add(r.Amount)
		case domain.Expense:
			expense = expense.Add(r.Amount.Add(r.AdminFee))
		}
	}

	label := month.Format("2006-01")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, "Monthly Statement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Period: "+label)
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{62, 62, 62}
	pdf.CellFormat(sumW[0], 10, "Income", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Expense", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Net", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, income.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, expense.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, income.Sub(expense).StringFixed(2), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	colW := []float64{22, 24, 46, 40, 24, 30}
	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(colW[0], 8, "DATE", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[1], 8, "TYPE", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[2], 8, "CATEGORY", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[3], 8, "WALLET", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[4], 8, "FEE", "1", 0, "R", true, 0, "")
		pdf.CellFormat(colW[5], 8, "AMOUNT", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
	writeHeader()
	pdf.SetTextColor(30, 30, 30)

	for _, r := range records {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			writeHeader()
		}
		amount := r.Amount.StringFixed(2)
		if r.Type == domain.Expense {
			amount = "-" + amount
		}
		pdf.CellFormat(colW[0], 8, r.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, string(r.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 8, trimTo(r.CategoryName, 28), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 8, trimTo(r.WalletName, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[4], 8, r.AdminFee.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[5], 8, amount, "1", 1, "R", false, 0, "")
	}
	if len(records) == 0 {
		pdf.CellFormat(0, 8, "No activity this month", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		slog.Error("Failed to render PDF", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="statement-`+label+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func trimTo(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "~"
}
