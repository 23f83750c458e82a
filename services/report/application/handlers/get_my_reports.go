package handlers

import (
	"net/http"

	"github.com/ghuser/foundly/pkg/auth"
	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
	"github.com/ghuser/foundly/services/report/domain/models"
)

// MyReportsResponse is returned by GET /reports/me.
type MyReportsResponse struct {
	Cached  bool             `json:"cached"`
	Count   int              `json:"count"`
	Reports []*models.Report `json:"reports"`
} // @name MyReportsResponse

// GetMyReportsHandler handles GET /reports/me requests.
type GetMyReportsHandler struct {
	svc *appsvcs.Services
}

// NewGetMyReportsHandler returns a GetMyReportsHandler backed by the given services.
func NewGetMyReportsHandler(svc *appsvcs.Services) *GetMyReportsHandler {
	return &GetMyReportsHandler{svc: svc}
}

// Execute lists the caller's reports, cache-aware.
//
//	@Summary		List own reports
//	@Description	Returns the caller's reports, served from cache when fresh
//	@Tags			reports
//	@Produce		json
//	@Success		200	{object}	MyReportsResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/reports/me [get]
func (h *GetMyReportsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	reporterID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	list, err := h.svc.Report.FindMine(r.Context(), reporterID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, MyReportsResponse{
		Cached:  list.Cached,
		Count:   len(list.Reports),
		Reports: list.Reports,
	})
}
