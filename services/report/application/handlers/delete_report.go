package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/foundly/pkg/auth"
	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
)

// DeleteReportHandler handles DELETE /reports/me/{id} requests.
type DeleteReportHandler struct {
	svc *appsvcs.Services
}

// NewDeleteReportHandler returns a DeleteReportHandler backed by the given services.
func NewDeleteReportHandler(svc *appsvcs.Services) *DeleteReportHandler {
	return &DeleteReportHandler{svc: svc}
}

// Execute deletes an owned report, cascading to its item and images.
//
//	@Summary		Delete own report
//	@Description	Deletes an owned report, its item, and the item's stored images
//	@Tags			reports
//	@Produce		json
//	@Param			id	path	string	true	"Report ID"
//	@Success		200	{object}	map[string]string
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/me/{id} [delete]
func (h *DeleteReportHandler) Execute(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.Report.Delete(r.Context(), reportID, reporterID); err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"message": "report deleted"})
}
