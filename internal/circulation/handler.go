// internal/circulation/handler.go
package circulation

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"libraryweb/internal/catalog"
	"libraryweb/internal/membership"
	"libraryweb/internal/web"
)

// BookLister supplies the books that can be lent right now.
type BookLister interface {
	AvailableBooks(ctx context.Context) ([]*catalog.Book, error)
}

// MemberLister supplies every member who may borrow.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]*membership.Member, error)
}

type Handler struct {
	service Service
	books   BookLister
	members MemberLister
	view    *web.Renderer
}

func NewHandler(service Service, books BookLister, members MemberLister, view *web.Renderer) *Handler {
	return &Handler{service: service, books: books, members: members, view: view}
}

// borrowForm is the validated POST /borrow payload. The Days bound is
// config.MaxLoanDays, so the configured loan period always validates.
type borrowForm struct {
	BookID   int64 `validate:"gt=0"`
	MemberID int64 `validate:"gt=0"`
	Days     int   `validate:"gte=1,lte=365"`
}

// HandleList serves GET /borrowings.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	borrowings, err := h.service.ListBorrowings(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "borrowings.html", web.Data{"Borrowings": borrowings})
}

// HandleBorrow serves GET and POST /borrow.
func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.renderBorrowForm(w, r)
	case http.MethodPost:
		h.handleBorrow(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleReturn serves GET /return/{book_id}/{member_id}.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	bookID, err := web.IDParam(r, "book_id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}
	memberID, err := web.IDParam(r, "member_id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	returned, err := h.service.Return(r.Context(), bookID, memberID)
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	if !returned {
		log.Printf("[RETURN] id=%s no open borrowing for book=%d member=%d",
			web.RequestIDFrom(r.Context()), bookID, memberID)
		http.Redirect(w, r, "/borrowings", http.StatusFound)
		return
	}
	h.view.Redirect(w, r, "/borrowings", web.Success("Book returned successfully!"))
}

// HandleOverdue serves GET /overdue.
func (h *Handler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.service.ListOverdue(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "overdue.html", web.Data{"Overdue": overdue})
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	form, msg := h.parseBorrowForm(r)
	if msg != "" {
		h.view.Redirect(w, r, "/borrow", web.Error(msg))
		return
	}

	_, err := h.service.Borrow(r.Context(), form.BookID, form.MemberID, form.Days)
	switch {
	case err == nil:
		h.view.Redirect(w, r, "/borrowings", web.Success("Book borrowed successfully!"))
	case errors.Is(err, ErrBookUnavailable):
		h.view.Redirect(w, r, "/borrow", web.Error("That book is already borrowed!"))
	case errors.Is(err, ErrBookNotFound):
		h.view.Redirect(w, r, "/borrow", web.Error("The selected book does not exist!"))
	case errors.Is(err, ErrMemberNotFound):
		h.view.Redirect(w, r, "/borrow", web.Error("The selected member does not exist!"))
	default:
		h.view.ServerError(w, r, err)
	}
}

func (h *Handler) renderBorrowForm(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.AvailableBooks(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	members, err := h.members.ListMembers(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}

	h.view.Render(w, r, http.StatusOK, "borrow_book.html", web.Data{
		"Books":   books,
		"Members": members,
		"Days":    h.service.LoanDays(),
	})
}

// parseBorrowForm returns the form, or a message for the user when it is
// unusable. An empty days field means the default loan period.
func (h *Handler) parseBorrowForm(r *http.Request) (borrowForm, string) {
	if err := r.ParseForm(); err != nil {
		return borrowForm{}, "The submitted form could not be read."
	}

	var form borrowForm
	var err error
	if form.BookID, err = strconv.ParseInt(web.FormString(r, "book_id"), 10, 64); err != nil {
		return form, "Please choose a book!"
	}
	if form.MemberID, err = strconv.ParseInt(web.FormString(r, "member_id"), 10, 64); err != nil {
		return form, "Please choose a member!"
	}

	days, err := web.FormInt(r, "days")
	if err != nil {
		return form, "Loan period must be a whole number of days!"
	}
	form.Days = h.service.LoanDays()
	if days != nil {
		form.Days = *days
	}

	if err := web.Validate(form); err != nil {
		return form, web.ValidationMessage(err)
	}
	return form, ""
}
