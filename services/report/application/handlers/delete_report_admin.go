package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
)

// AdminDeleteReportHandler handles DELETE /reports/{id} requests (admin only).
type AdminDeleteReportHandler struct {
	svc *appsvcs.Services
}

// NewAdminDeleteReportHandler returns an AdminDeleteReportHandler backed by the given services.
func NewAdminDeleteReportHandler(svc *appsvcs.Services) *AdminDeleteReportHandler {
	return &AdminDeleteReportHandler{svc: svc}
}

// Execute deletes any report regardless of ownership. The owner's listing
// cache is invalidated as part of the cascade.
//
//	@Summary		Delete report (admin)
//	@Description	Admin override delete, bypassing the ownership check
//	@Tags			reports
//	@Produce		json
//	@Param			id	path	string	true	"Report ID"
//	@Success		200	{object}	map[string]string
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/{id} [delete]
func (h *AdminDeleteReportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	if err := h.svc.Report.AdminDelete(r.Context(), reportID); err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"message": "report deleted"})
}
