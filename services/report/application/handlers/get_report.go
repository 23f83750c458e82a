package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
)

// GetReportHandler handles GET /reports/{id} requests.
type GetReportHandler struct {
	svc *appsvcs.Services
}

// NewGetReportHandler returns a GetReportHandler backed by the given services.
func NewGetReportHandler(svc *appsvcs.Services) *GetReportHandler {
	return &GetReportHandler{svc: svc}
}

// Execute returns a single report, fully joined. Public route.
//
//	@Summary		Get report
//	@Description	Returns one report with its item, category and reporter
//	@Tags			reports
//	@Produce		json
//	@Param			id	path	string	true	"Report ID"
//	@Success		200	{object}	models.Report
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/{id} [get]
func (h *GetReportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := h.svc.Report.FindOne(r.Context(), reportID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, report)
}
