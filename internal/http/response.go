package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ems/internal/core"
	"ems/internal/log"
	"ems/internal/services"
)

// apiResponse wraps every successful payload.
type apiResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// errorResponse is the single error envelope.
type errorResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

type categoryResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Type        core.CategoryType `json:"type"`
	IsGlobal    bool              `json:"isGlobal"`
}

type expenseResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Amount       core.Money `json:"amount"`
	ExpenseDate  core.Date  `json:"expenseDate"`
	Note         string     `json:"note"`
	CategoryID   uuid.UUID  `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	CategoryIcon string     `json:"categoryIcon"`
}

type incomeResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Amount       core.Money `json:"amount"`
	IncomeDate   core.Date  `json:"incomeDate"`
	Note         string     `json:"note"`
	CategoryID   uuid.UUID  `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	CategoryIcon string     `json:"categoryIcon"`
}

// expenseWriteResponse is an expense plus the alert its write triggered.
// BudgetAlert is always present, null when no budget was exceeded.
type expenseWriteResponse struct {
	expenseResponse
	BudgetAlert *string  `json:"budgetAlert"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

type pageResponse struct {
	Content       []any `json:"content"`
	PageNo        int   `json:"pageNo"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
	// GlobalAlerts is only set for expense listings.
	GlobalAlerts *[]string `json:"globalAlerts,omitempty"`
}

type budgetResponse struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Amount       core.Money    `json:"amount"`
	Period       core.Period   `json:"period"`
	CategoryID   uuid.NullUUID `json:"categoryId"`
	CategoryName string        `json:"categoryName"`
}

type statsResponse struct {
	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpense"`
	Balance      core.Money `json:"balance"`
}

// chartPoint is one labelled value of a report chart.
type chartPoint struct {
	Label string     `json:"label"`
	Value core.Money `json:"value"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Type:        c.Type,
		IsGlobal:    c.Owner.IsGlobal(),
	}
}

// toRecordResponse renders a record with the date field named for its kind.
func toRecordResponse(rec core.Record) any {
	if rec.Kind == core.CategoryIncome {
		return incomeResponse{
			ID:           rec.ID,
			Title:        rec.Title,
			Amount:       rec.Amount,
			IncomeDate:   rec.Date,
			Note:         rec.Note,
			CategoryID:   rec.Category.ID,
			CategoryName: rec.Category.Name,
			CategoryIcon: rec.Category.Icon,
		}
	}
	return toExpenseResponse(rec)
}

func toExpenseResponse(rec core.Record) expenseResponse {
	return expenseResponse{
		ID:           rec.ID,
		Title:        rec.Title,
		Amount:       rec.Amount,
		ExpenseDate:  rec.Date,
		Note:         rec.Note,
		CategoryID:   rec.Category.ID,
		CategoryName: rec.Category.Name,
		CategoryIcon: rec.Category.Icon,
	}
}

func toWriteResponse(res services.WriteResult) any {
	if res.Record.Kind != core.CategoryExpense {
		return toRecordResponse(res.Record)
	}
	out := expenseWriteResponse{
		expenseResponse: toExpenseResponse(res.Record),
		Diagnostics:     res.Diagnostics(),
	}
	if res.Alert != nil {
		msg := res.Alert.Message()
		out.BudgetAlert = &msg
	}
	return out
}

func toPageResponse(kind core.CategoryType, res services.ListResult) pageResponse {
	content := make([]any, 0, len(res.Page.Items))
	for _, rec := range res.Page.Items {
		content = append(content, toRecordResponse(rec))
	}
	out := pageResponse{
		Content:       content,
		PageNo:        res.Page.PageNo,
		PageSize:      res.Page.PageSize,
		TotalElements: res.Page.TotalElements,
		TotalPages:    res.Page.TotalPages(),
		Last:          res.Page.Last(),
	}
	if kind == core.CategoryExpense {
		alerts := make([]string, 0, len(res.Alerts))
		for _, a := range res.Alerts {
			alerts = append(alerts, a.Message())
		}
		out.GlobalAlerts = &alerts
	}
	return out
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:           b.ID,
		Name:         b.Name,
		Amount:       b.Amount,
		Period:       b.Period,
		CategoryID:   b.CategoryID,
		CategoryName: b.DisplayCategory(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, apiResponse{Status: status, Message: message, Data: data})
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

// writeError maps an error kind to its status. Unexpected errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Timestamp:        time.Now().UTC(),
			Status:           http.StatusBadRequest,
			Error:            http.StatusText(http.StatusBadRequest),
			Message:          "Validation failed",
			Path:             r.URL.Path,
			ValidationErrors: verr.Fields,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
		writeErrorStatus(w, r, status, "An unexpected error occurred")
		return
	}
	writeErrorStatus(w, r, status, core.Message(err, err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
