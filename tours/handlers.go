package tours

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tourtab/globals"
	"tourtab/media"
	"tourtab/structs"
	"tourtab/utils"

	"github.com/julienschmidt/httprouter"
)

const maxUploadBytes = 25 << 20 // whole multipart request

type Handler struct {
	svc   *Service
	media media.Store
}

func NewHandler(svc *Service, m media.Store) *Handler {
	return &Handler{svc: svc, media: m}
}

func requestUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// POST /user/tours
func (h *Handler) CreateTour(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var in TourInput
	var cover *structs.PhotoRef

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		var err error
		if in, err = tourInputFromForm(r); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		refs, err := h.uploadPhotos(r, "coverPhoto", 1)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(refs) > 0 {
			cover = &refs[0]
		}
	} else if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	tour, err := h.svc.CreateTour(r.Context(), userID, in, cover)
	if err != nil {
		respondTourError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Tour created successfully",
		"tour":    tour,
	})
}

// GET /user/tours
func (h *Handler) GetTours(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	tours, err := h.svc.ListTours(r.Context(), userID)
	if err != nil {
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tours": tours})
}

// GET /user/tours/active
func (h *Handler) GetActiveTour(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	tour, err := h.svc.GetActiveTour(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "No active tour found")
			return
		}
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tour": tour})
}

// GET /user/tours/all/:tourId
func (h *Handler) GetTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := requestUserID(w, r); !ok {
		return
	}

	tour, err := h.svc.GetTour(r.Context(), ps.ByName("tourId"))
	if err != nil {
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tour": tour})
}

// PATCH /user/tours/:tourId/activate
func (h *Handler) ActivateTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	tour, err := h.svc.ActivateTour(r.Context(), userID, ps.ByName("tourId"))
	if err != nil {
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message": "Active tour switched",
		"tour":    tour,
	})
}

// DELETE /user/tours/:tourId
func (h *Handler) DeleteTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteTour(r.Context(), userID, ps.ByName("tourId")); err != nil {
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Tour deleted successfully"})
}

// POST /user/expenses
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var in ExpenseInput
	var photos []structs.PhotoRef

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
			return
		}
		var err error
		if in, err = expenseInputFromForm(r); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if photos, err = h.uploadPhotos(r, "photos", MaxExpensePhotos); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	expense, err := h.svc.AddExpense(r.Context(), userID, in, photos)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "No active tour found. Please create or select a tour first.")
			return
		}
		respondTourError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Expense added successfully",
		"expense": expense,
	})
}

// DELETE /user/expenses/:expenseId
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteExpense(r.Context(), userID, ps.ByName("expenseId")); err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Expense not found")
			return
		}
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Expense deleted successfully"})
}

// GET /user/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	tour, err := h.svc.GetActiveTour(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "No active tour found")
			return
		}
		respondTourError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, BuildDashboard(tour, tour.Expenses))
}

// --- helpers ---

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func tourInputFromForm(r *http.Request) (TourInput, error) {
	in := TourInput{
		TourName:    r.FormValue("tourName"),
		Destination: r.FormValue("destination"),
		Currency:    r.FormValue("currency"),
	}
	if v := r.FormValue("numberOfDays"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Errorf("invalid number of days")
		}
		in.NumberOfDays = days
	}
	if v := r.FormValue("totalBudget"); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, fmt.Errorf("invalid total budget")
		}
		in.TotalBudget = budget
	}
	return in, nil
}

func expenseInputFromForm(r *http.Request) (ExpenseInput, error) {
	in := ExpenseInput{
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Notes:       r.FormValue("notes"),
	}
	if v := r.FormValue("amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, fmt.Errorf("invalid amount")
		}
		in.Amount = amount
	}
	return in, nil
}

// uploadPhotos normalizes each uploaded image and pushes it to the media
// host, returning the opaque references to store.
func (h *Handler) uploadPhotos(r *http.Request, formKey string, max int) ([]structs.PhotoRef, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[formKey]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > max {
		return nil, fmt.Errorf("at most %d files allowed for %s", max, formKey)
	}

	var refs []structs.PhotoRef
	for _, header := range files {
		if !utils.ValidImageType(header) {
			return nil, fmt.Errorf("unsupported image type %q", header.Header.Get("Content-Type"))
		}
		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		normalized, contentType, err := media.NormalizeImage(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		ref, err := h.media.Upload(r.Context(), normalized, contentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload photo: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func respondTourError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Tour not found")
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Unauthorized")
	default:
		log.Printf("tours error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
