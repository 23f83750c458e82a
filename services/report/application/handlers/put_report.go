package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/foundly/pkg/auth"
	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	pkgvalidator "github.com/ghuser/foundly/pkg/validator"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
	"github.com/ghuser/foundly/services/report/domain/models"
)

// UpdateReportForm mirrors CreateReportForm with every field optional.
// Only submitted fields are validated and applied; new images append to the
// item's existing list under the 5-image cap.
type UpdateReportForm struct {
	Title           *string `json:"title" validate:"omitempty,min=3,max=255"`
	Type            *string `json:"type" validate:"omitempty,oneof=lost found"`
	Location        *string `json:"location" validate:"omitempty,min=2,max=255"`
	Date            *string `json:"date" validate:"omitempty"`
	ContactInfo     *string `json:"contact_info" validate:"omitempty,min=3,max=255"`
	Reward          *string `json:"reward" validate:"omitempty,max=255"`
	ItemName        *string `json:"item.name" validate:"omitempty,min=2,max=255"`
	ItemDescription *string `json:"item.description" validate:"omitempty,min=2"`
	ItemCategoryID  *string `json:"item.category_id" validate:"omitempty,uuid"`
	ItemBrand       *string `json:"item.brand" validate:"omitempty,max=255"`
	ItemColor       *string `json:"item.color" validate:"omitempty,max=255"`
	ItemUniqueMarks *string `json:"item.unique_marks" validate:"omitempty,max=1000"`
} // @name UpdateReportForm

// PutReportHandler handles PUT /reports/me/{id} requests.
type PutReportHandler struct {
	svc *appsvcs.Services
}

// NewPutReportHandler returns a PutReportHandler backed by the given services.
func NewPutReportHandler(svc *appsvcs.Services) *PutReportHandler {
	return &PutReportHandler{svc: svc}
}

// Execute updates an owned report and/or its item.
//
//	@Summary		Update own report
//	@Description	Partially updates an owned report; may also append up to 5 total images
//	@Tags			reports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id	path	string	true	"Report ID"
//	@Success		200	{object}	models.Report
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/me/{id} [put]
func (h *PutReportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	reporterID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	form := UpdateReportForm{
		Title:           optionalField(r, "title"),
		Type:            optionalField(r, "type"),
		Location:        optionalField(r, "location"),
		Date:            optionalField(r, "date"),
		ContactInfo:     optionalField(r, "contact_info"),
		Reward:          optionalField(r, "reward"),
		ItemName:        optionalField(r, "item.name"),
		ItemDescription: optionalField(r, "item.description"),
		ItemCategoryID:  optionalField(r, "item.category_id"),
		ItemBrand:       optionalField(r, "item.brand"),
		ItemColor:       optionalField(r, "item.color"),
		ItemUniqueMarks: optionalField(r, "item.unique_marks"),
	}
	if !pkgvalidator.CheckForm(w, &form) {
		return
	}

	patch, err := buildPatch(form)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, cleanup, err := formFiles(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	report, err := h.svc.Report.Update(r.Context(), reportID, reporterID, patch, files)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, report)
}

func optionalField(r *http.Request, key string) *string {
	if v, ok := formPresent(r, key); ok {
		return &v
	}
	return nil
}

func buildPatch(form UpdateReportForm) (models.ReportPatch, error) {
	patch := models.ReportPatch{
		Title:       form.Title,
		Location:    form.Location,
		ContactInfo: form.ContactInfo,
		Reward:      form.Reward,
	}

	if form.Type != nil {
		typ, err := models.NewReportType(*form.Type)
		if err != nil {
			return models.ReportPatch{}, err
		}
		patch.Type = &typ
	}
	if form.Date != nil {
		date, err := parseDate(*form.Date)
		if err != nil {
			return models.ReportPatch{}, err
		}
		patch.Date = &date
	}

	itemPatch := models.ItemPatch{
		Name:        form.ItemName,
		Description: form.ItemDescription,
		Brand:       form.ItemBrand,
		Color:       form.ItemColor,
		UniqueMarks: form.ItemUniqueMarks,
	}
	if form.ItemCategoryID != nil {
		categoryID, err := uuid.Parse(*form.ItemCategoryID)
		if err != nil {
			return models.ReportPatch{}, err
		}
		itemPatch.CategoryID = &categoryID
	}
	if !itemPatch.IsZero() {
		patch.Item = &itemPatch
	}

	return patch, nil
}
