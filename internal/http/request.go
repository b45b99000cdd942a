package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"ems/internal/core"
	"ems/internal/services"
)

const maxBodyBytes = 1 << 20

// validationError carries per-field messages keyed by JSON field name.
type validationError struct {
	Fields map[string]string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Validator validates request DTOs and translates failures to English.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() (*Validator, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	eng := en.New()
	uni := ut.New(eng, eng)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}

	if err := v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := core.ParsePeriod(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, err
	}
	if err := v.RegisterTranslation("period", trans,
		func(ut ut.Translator) error {
			return ut.Add("period", "{0} must be in MM-YYYY format", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("period", fe.Field())
			return t
		}); err != nil {
		return nil, err
	}

	return &Validator{validate: v, trans: trans}, nil
}

// Struct returns a *validationError when s fails its tags.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(v.trans)
	}
	return &validationError{Fields: fields}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=100"`
	Type        string `json:"type" validate:"required,oneof=EXPENSE INCOME"`
}

type recordFields struct {
	Title      string      `json:"title" validate:"required,max=255"`
	Amount     *core.Money `json:"amount" validate:"required"`
	Note       string      `json:"note" validate:"max=1000"`
	CategoryID string      `json:"categoryId" validate:"required,uuid"`
}

type expenseRequest struct {
	recordFields
	ExpenseDate string `json:"expenseDate" validate:"required,datetime=2006-01-02"`
}

type incomeRequest struct {
	recordFields
	IncomeDate string `json:"incomeDate" validate:"required,datetime=2006-01-02"`
}

type budgetRequest struct {
	Name       string      `json:"name" validate:"required,max=100"`
	Amount     *core.Money `json:"amount" validate:"required"`
	Period     string      `json:"period" validate:"required,period"`
	CategoryID string      `json:"categoryId" validate:"omitempty,uuid"`
}

// decodeJSON reads a bounded JSON body into dst. Decoding failures of typed
// fields such as amounts keep their domain message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var de *core.Error
		if errors.As(err, &de) {
			return de
		}
		return core.InvalidArgumentf("Invalid request payload")
	}
	return nil
}

func (v *Validator) decodeCategory(w http.ResponseWriter, r *http.Request) (services.CategoryInput, error) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return services.CategoryInput{}, err
	}
	if err := v.Struct(req); err != nil {
		return services.CategoryInput{}, err
	}
	typ, err := core.ParseCategoryType(req.Type)
	if err != nil {
		return services.CategoryInput{}, err
	}
	return services.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Type:        typ,
	}, nil
}

// decodeRecord decodes an expense or income body, whose date field is
// named after the kind.
func (v *Validator) decodeRecord(w http.ResponseWriter, r *http.Request, kind core.CategoryType) (services.RecordInput, error) {
	var (
		fields  *recordFields
		rawDate string
	)
	if kind == core.CategoryIncome {
		var req incomeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return services.RecordInput{}, err
		}
		if err := v.Struct(req); err != nil {
			return services.RecordInput{}, err
		}
		fields, rawDate = &req.recordFields, req.IncomeDate
	} else {
		var req expenseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return services.RecordInput{}, err
		}
		if err := v.Struct(req); err != nil {
			return services.RecordInput{}, err
		}
		fields, rawDate = &req.recordFields, req.ExpenseDate
	}

	date, err := core.ParseDate(rawDate)
	if err != nil {
		return services.RecordInput{}, err
	}
	categoryID, err := uuid.Parse(fields.CategoryID)
	if err != nil {
		return services.RecordInput{}, core.InvalidArgumentf("Invalid category id")
	}
	return services.RecordInput{
		Title:      fields.Title,
		Amount:     *fields.Amount,
		Date:       date,
		Note:       fields.Note,
		CategoryID: categoryID,
	}, nil
}

func (v *Validator) decodeBudget(w http.ResponseWriter, r *http.Request) (services.BudgetInput, error) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return services.BudgetInput{}, err
	}
	if err := v.Struct(req); err != nil {
		return services.BudgetInput{}, err
	}
	period, err := core.ParsePeriod(req.Period)
	if err != nil {
		return services.BudgetInput{}, err
	}
	in := services.BudgetInput{Name: req.Name, Amount: *req.Amount, Period: period}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return services.BudgetInput{}, core.InvalidArgumentf("Invalid category id")
		}
		in.CategoryID = uuid.NullUUID{UUID: id, Valid: true}
	}
	return in, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, core.InvalidArgumentf("Invalid id")
	}
	return id, nil
}

// parseRecordQuery reads keyword, categoryId, startDate, endDate, page and
// size. Absent values leave the corresponding filter unset.
func parseRecordQuery(q url.Values) (core.RecordCriteria, core.PageRequest, error) {
	var (
		criteria core.RecordCriteria
		page     core.PageRequest
		err      error
	)
	criteria.Keyword = q.Get("keyword")

	if v := strings.TrimSpace(q.Get("categoryId")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return criteria, page, core.InvalidArgumentf("Invalid categoryId")
		}
		criteria.CategoryID = uuid.NullUUID{UUID: id, Valid: true}
	}
	if criteria.StartDate, err = optionalDate(q, "startDate"); err != nil {
		return criteria, page, err
	}
	if criteria.EndDate, err = optionalDate(q, "endDate"); err != nil {
		return criteria, page, err
	}
	if page.Page, err = optionalInt(q, "page"); err != nil {
		return criteria, page, err
	}
	if page.Size, err = optionalInt(q, "size"); err != nil {
		return criteria, page, err
	}
	return criteria, page, nil
}

func optionalDate(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.InvalidArgumentf("Invalid %s, expected YYYY-MM-DD", key)
	}
	return d, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.InvalidArgumentf("Invalid %s", key)
	}
	return n, nil
}

// requiredRange reads the mandatory startDate and endDate of a report.
func requiredRange(q url.Values) (core.Date, core.Date, error) {
	if strings.TrimSpace(q.Get("startDate")) == "" || strings.TrimSpace(q.Get("endDate")) == "" {
		return core.Date{}, core.Date{}, core.InvalidArgumentf("startDate and endDate are required")
	}
	start, err := optionalDate(q, "startDate")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	end, err := optionalDate(q, "endDate")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	return start, end, nil
}
