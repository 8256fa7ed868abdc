package reports

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tourtab/globals"
	"tourtab/structs"
	"tourtab/tours"
	"tourtab/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

type Handler struct {
	svc *tours.Service
}

func NewHandler(svc *tours.Service) *Handler {
	return &Handler{svc: svc}
}

// signedTourPayload returns tourID|userID|timestamp|signature so a scanned
// report can be traced back to the tour it was generated for.
func signedTourPayload(tourID, userID string) string {
	data := fmt.Sprintf("%s|%s|%d", tourID, userID, time.Now().Unix())
	h := hmac.New(sha256.New, globals.JwtSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// GET /user/dashboard/report
func (h *Handler) TourReport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tour, err := h.svc.GetActiveTour(r.Context(), userID)
	if err != nil {
		if errors.Is(err, tours.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "No active tour found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	dash := tours.BuildDashboard(tour, tour.Expenses)

	qrPNG, err := qrcode.Encode(signedTourPayload(tour.TourID, userID), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := buildReportPDF(tour, dash, qrPNG)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=tour-report-"+tour.TourID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func buildReportPDF(tour *structs.Tour, dash tours.Dashboard, qrPNG []byte) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Trip Expense Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Tour: %s", tour.TourName))
	pdf.Ln(6)
	if tour.Destination != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Destination: %s", tour.Destination))
		pdf.Ln(6)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Days: %d", tour.NumberOfDays))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Budget: %.2f %s", dash.TotalBudget, tour.Currency))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Spent: %.2f %s (%d%%)", dash.TotalExpenses, tour.Currency, dash.PercentUsed))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Remaining: %.2f %s", dash.RemainingBudget, tour.Currency))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Daily average: %.2f %s", dash.DailyAvgSpent, tour.Currency))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "By category")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	for _, category := range structs.Categories {
		amount, present := dash.CategoryBreakdown[category]
		if !present {
			continue
		}
		pdf.Cell(60, 7, category)
		pdf.Cell(0, 7, fmt.Sprintf("%.2f %s", amount, tour.Currency))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Expenses")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, e := range dash.Expenses {
		line := fmt.Sprintf("%s  %-14s %-30s %10.2f %s", e.Date, e.Category, e.Description, e.Amount, tour.Currency)
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 10, 35, 35, false, imageOpts, 0, "")

	return pdf
}
