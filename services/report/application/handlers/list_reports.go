package handlers

import (
	"net/http"
	"strconv"

	"github.com/ghuser/foundly/pkg/errhttp"
	"github.com/ghuser/foundly/pkg/httpx"
	appsvcs "github.com/ghuser/foundly/services/report/application/services"
	"github.com/ghuser/foundly/services/report/domain/repositories"
)

// ListReportsHandler handles GET /reports requests.
type ListReportsHandler struct {
	svc *appsvcs.Services
}

// NewListReportsHandler returns a ListReportsHandler backed by the given services.
func NewListReportsHandler(svc *appsvcs.Services) *ListReportsHandler {
	return &ListReportsHandler{svc: svc}
}

// Execute returns a paginated, filterable report listing. Public route.
//
//	@Summary		List reports
//	@Description	Paginated listing with substring search over title and location
//	@Tags			reports
//	@Produce		json
//	@Param			page		query	int		false	"1-based page"
//	@Param			limit		query	int		false	"page size"
//	@Param			search		query	string	false	"substring search"
//	@Param			sort_by		query	string	false	"created_at | date | title"
//	@Param			sort_order	query	string	false	"ASC | DESC"
//	@Param			type		query	string	false	"lost | found"
//	@Success		200	{object}	repositories.Page[models.Report]
//	@Router			/reports [get]
func (h *ListReportsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := repositories.ListParams{
		Page:      atoiOr(q.Get("page"), 1),
		Limit:     atoiOr(q.Get("limit"), 10),
		Search:    q.Get("search"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Type:      q.Get("type"),
	}

	page, err := h.svc.Report.FindAll(r.Context(), params)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, page)
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
