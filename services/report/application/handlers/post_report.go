package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/foundly/pkg/auth"
	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	pkgvalidator "github.com/ghuser/foundly/pkg/validator"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
)

// CreateReportForm is the multipart form for POST /reports/me.
// Item fields are nested under the "item." prefix; photos ride in the
// repeated "images" file field (at most 5).
type CreateReportForm struct {
	Title           string `json:"title" validate:"required,min=3,max=255" example:"Black Wallet"`
	Type            string `json:"type" validate:"required,oneof=lost found" example:"lost"`
	Location        string `json:"location" validate:"required,min=2,max=255" example:"Cairo"`
	Date            string `json:"date" validate:"required" example:"2024-01-01"`
	ContactInfo     string `json:"contact_info" validate:"required,min=3,max=255" example:"u1@x.com"`
	Reward          string `json:"reward" validate:"omitempty,max=255" example:"50 USD"`
	ItemName        string `json:"item.name" validate:"required,min=2,max=255" example:"Wallet"`
	ItemDescription string `json:"item.description" validate:"required,min=2" example:"Leather"`
	ItemCategoryID  string `json:"item.category_id" validate:"required,uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	ItemBrand       string `json:"item.brand" validate:"omitempty,max=255"`
	ItemColor       string `json:"item.color" validate:"omitempty,max=255"`
	ItemUniqueMarks string `json:"item.unique_marks" validate:"omitempty,max=1000"`
} // @name CreateReportForm

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"report not found"`
} // @name ErrorResponse

// PostReportHandler handles POST /reports/me requests.
type PostReportHandler struct {
	svc *appsvcs.Services
}

// NewPostReportHandler returns a PostReportHandler backed by the given services.
func NewPostReportHandler(svc *appsvcs.Services) *PostReportHandler {
	return &PostReportHandler{svc: svc}
}

// Execute creates a new report together with its item and uploaded images.
//
//	@Summary		Create report
//	@Description	Creates a lost/found report with its item and up to 5 images, atomically
//	@Tags			reports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	models.Report
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/reports/me [post]
func (h *PostReportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	reporterID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	form := CreateReportForm{
		Title:           formValue(r, "title"),
		Type:            formValue(r, "type"),
		Location:        formValue(r, "location"),
		Date:            formValue(r, "date"),
		ContactInfo:     formValue(r, "contact_info"),
		Reward:          formValue(r, "reward"),
		ItemName:        formValue(r, "item.name"),
		ItemDescription: formValue(r, "item.description"),
		ItemCategoryID:  formValue(r, "item.category_id"),
		ItemBrand:       formValue(r, "item.brand"),
		ItemColor:       formValue(r, "item.color"),
		ItemUniqueMarks: formValue(r, "item.unique_marks"),
	}
	if !pkgvalidator.CheckForm(w, &form) {
		return
	}

	date, err := parseDate(form.Date)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	categoryID, err := uuid.Parse(form.ItemCategoryID)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "item.category_id must be a valid UUID")
		return
	}

	files, cleanup, err := formFiles(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	report, err := h.svc.Report.Create(r.Context(), reporterID, appsvcs.CreateReportInput{
		Title:       form.Title,
		Type:        form.Type,
		Location:    form.Location,
		Date:        date,
		ContactInfo: form.ContactInfo,
		Reward:      form.Reward,
		Item: appsvcs.CreateItemInput{
			Name:        form.ItemName,
			Description: form.ItemDescription,
			CategoryID:  categoryID,
			Brand:       form.ItemBrand,
			Color:       form.ItemColor,
			UniqueMarks: form.ItemUniqueMarks,
		},
	}, files)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, report)
}
