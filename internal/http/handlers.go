package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"ems/internal/core"
	"ems/internal/services"
)

// caller returns the authenticated user. Every /api/v1 route sits behind
// the auth middleware.
func caller(r *http.Request) uuid.UUID {
	user, _ := UserFromContext(r.Context())
	return user
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ core.CategoryType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		parsed, err := core.ParseCategoryType(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		typ = parsed
	}

	cats, err := s.svc.Categories.List(r.Context(), caller(r), typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeData(w, http.StatusOK, "Get data successfully!", out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	in, err := s.validate.decodeCategory(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), caller(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Created successfully!", toCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.validate.decodeCategory(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Categories.Update(r.Context(), caller(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Updated successfully!", toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Deleted successfully!", nil)
}

// recordHandlers serves one record kind; expenses and incomes share them.
type recordHandlers struct {
	server *Server
	svc    *services.RecordService
}

func (h recordHandlers) list(w http.ResponseWriter, r *http.Request) {
	criteria, page, err := parseRecordQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.List(r.Context(), caller(r), criteria, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Get data successfully!", toPageResponse(h.svc.Kind(), res))
}

func (h recordHandlers) create(w http.ResponseWriter, r *http.Request) {
	in, err := h.server.validate.decodeRecord(w, r, h.svc.Kind())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Create(r.Context(), caller(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Created successfully!", toWriteResponse(res))
}

func (h recordHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.svc.Get(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Get data successfully!", toRecordResponse(rec))
}

func (h recordHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.server.validate.decodeRecord(w, r, h.svc.Kind())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Update(r.Context(), caller(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Updated successfully!", toWriteResponse(res))
}

func (h recordHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Deleted successfully!", nil)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	var period core.Period
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		p, err := core.ParsePeriod(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		period = p
	}
	budgets, err := s.svc.Budgets.List(r.Context(), caller(r), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeData(w, http.StatusOK, "Get data successfully!", out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	in, err := s.validate.decodeBudget(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Create(r.Context(), caller(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Created successfully!", toBudgetResponse(b))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Get(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Get data successfully!", toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.validate.decodeBudget(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Update(r.Context(), caller(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Updated successfully!", toBudgetResponse(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Deleted successfully!", nil)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := requiredRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := s.svc.Reports.Stats(r.Context(), caller(r), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Get data successfully!", statsResponse{
		TotalIncome:  stats.TotalIncome,
		TotalExpense: stats.TotalExpense,
		Balance:      stats.Balance,
	})
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := requiredRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.svc.Reports.Categories(r.Context(), caller(r), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]chartPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, chartPoint{Label: row.Name, Value: row.Amount})
	}
	writeData(w, http.StatusOK, "Get data successfully!", out)
}

func (s *Server) handleHistoryReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := requiredRange(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.svc.Reports.History(r.Context(), caller(r), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]chartPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, chartPoint{Label: row.Period.String(), Value: row.Amount})
	}
	writeData(w, http.StatusOK, "Get data successfully!", out)
}
