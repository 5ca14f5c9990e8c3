// internal/membership/handler.go
package membership

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"libraryweb/internal/web"
)

type Handler struct {
	service Service
	view    *web.Renderer
}

func NewHandler(service Service, view *web.Renderer) *Handler {
	return &Handler{service: service, view: view}
}

// HandleList serves GET /members, optionally filtered by ?search=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("search"))

	var (
		members []*Member
		err     error
	)
	if query != "" {
		members, err = h.service.SearchMembers(r.Context(), query)
	} else {
		members, err = h.service.ListMembers(r.Context())
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}

	h.view.Render(w, r, http.StatusOK, "members.html", web.Data{
		"Members":     members,
		"SearchQuery": query,
	})
}

// HandleAdd serves GET and POST /members/add.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.view.Render(w, r, http.StatusOK, "add_member.html", web.Data{"Form": MemberInput{}})
	case http.MethodPost:
		in, err := parseMemberForm(r)
		if err == nil {
			_, err = h.service.AddMember(r.Context(), in)
		}
		if err != nil {
			msg, ok := formMessage(err, in)
			if !ok {
				h.view.ServerError(w, r, err)
				return
			}
			h.view.Render(w, r, http.StatusOK, "add_member.html", web.Data{"Form": in}, web.Error(msg))
			return
		}
		h.view.Redirect(w, r, "/members", web.Success("Member added successfully!"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleUpdate serves GET and POST /members/update/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := web.IDParam(r, "id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.view.Render(w, r, http.StatusOK, "update_member.html", web.Data{"Member": member})
	case http.MethodPost:
		in, err := parseMemberForm(r)
		if err == nil {
			err = h.service.UpdateMember(r.Context(), id, in)
		}
		if err != nil {
			msg, ok := formMessage(err, in)
			if !ok {
				h.view.ServerError(w, r, err)
				return
			}
			h.view.Render(w, r, http.StatusOK, "update_member.html", web.Data{"Member": member}, web.Error(msg))
			return
		}
		h.view.Redirect(w, r, "/members", web.Success("Member updated successfully!"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDelete serves GET /members/delete/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := web.IDParam(r, "id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	if err := h.service.DeleteMember(r.Context(), id); err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Redirect(w, r, "/members", web.Success("Member deleted successfully!"))
}

// HandleView serves GET /members/view/{id}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, err := web.IDParam(r, "id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	member, err := h.service.GetMember(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "view_member.html", web.Data{"Member": member})
}

// HandleAPIList serves GET /api/members.
func (h *Handler) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		web.JSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	web.JSON(w, http.StatusOK, members)
}

func (h *Handler) handleLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrMemberNotFound) {
		h.view.NotFound(w, r)
		return
	}
	h.view.ServerError(w, r, err)
}

type formError struct{ msg string }

func (e formError) Error() string { return e.msg }

func parseMemberForm(r *http.Request) (MemberInput, error) {
	if err := r.ParseForm(); err != nil {
		return MemberInput{}, formError{"The submitted form could not be read."}
	}

	in := MemberInput{
		Name:    web.FormString(r, "name"),
		Email:   web.FormString(r, "email"),
		Phone:   web.FormString(r, "phone"),
		Address: web.FormString(r, "address"),
	}
	if err := web.Validate(in); err != nil {
		return in, formError{web.ValidationMessage(err)}
	}
	return in, nil
}

func formMessage(err error, in MemberInput) (string, bool) {
	var fe formError
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return fmt.Sprintf("A member with email %q already exists!", in.Email), true
	case errors.As(err, &fe):
		return fe.msg, true
	}
	return "", false
}
