// internal/dashboard/handler.go
package dashboard

import (
	"net/http"

	"libraryweb/internal/circulation"
	"libraryweb/internal/web"
)

// recentLimit is how many borrowings the dashboard lists.
const recentLimit = 5

type Handler struct {
	service     Service
	circulation circulation.Service
	view        *web.Renderer
}

func NewHandler(service Service, circ circulation.Service, view *web.Renderer) *Handler {
	return &Handler{service: service, circulation: circ, view: view}
}

// HandleIndex serves GET /.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	recent, err := h.circulation.RecentBorrowings(r.Context(), recentLimit)
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	overdue, err := h.circulation.ListOverdue(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}

	h.view.Render(w, r, http.StatusOK, "dashboard.html", web.Data{
		"Stats":   stats,
		"Recent":  recent,
		"Overdue": overdue,
	})
}
