// internal/catalog/handler.go
package catalog

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

// HandleList serves GET /books, optionally filtered by ?search=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("search"))

	var (
		books []*Book
		err   error
	)
	if query != "" {
		books, err = h.service.SearchBooks(r.Context(), query)
	} else {
		books, err = h.service.ListBooks(r.Context())
	}
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}

	h.view.Render(w, r, http.StatusOK, "books.html", web.Data{
		"Books":       books,
		"SearchQuery": query,
	})
}

// HandleAdd serves GET and POST /books/add.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.renderAddForm(w, r)
	case http.MethodPost:
		h.handleAddBook(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleUpdate serves GET and POST /books/update/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := web.IDParam(r, "id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.renderUpdateForm(w, r, book)
	case http.MethodPost:
		h.handleUpdateBook(w, r, book)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDelete serves GET /books/delete/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := web.IDParam(r, "id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Redirect(w, r, "/books", web.Success("Book deleted successfully!"))
}

// HandleView serves GET /books/view/{id}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, err := web.IDParam(r, "id")
	if err != nil {
		h.view.NotFound(w, r)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "view_book.html", web.Data{"Book": book})
}

// HandleAPIList serves GET /api/books.
func (h *Handler) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		web.JSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list books"})
		return
	}
	web.JSON(w, http.StatusOK, books)
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	in, err := parseBookForm(r)
	if err == nil {
		_, err = h.service.AddBook(r.Context(), in)
	}
	if err != nil {
		msg, ok := formMessage(err, in, "ISBN is required to add a book!")
		if !ok {
			h.view.ServerError(w, r, err)
			return
		}
		h.renderAddForm(w, r, web.Error(msg))
		return
	}

	h.view.Redirect(w, r, "/books", web.Success("Book added successfully!"))
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request, book *Book) {
	in, err := parseBookForm(r)
	if err == nil {
		err = h.service.UpdateBook(r.Context(), book.ID, in)
	}
	if err != nil {
		msg, ok := formMessage(err, in, "ISBN is required for the book!")
		if !ok {
			h.view.ServerError(w, r, err)
			return
		}
		h.renderUpdateForm(w, r, book, web.Error(msg))
		return
	}

	h.view.Redirect(w, r, "/books", web.Success("Book updated successfully!"))
}

func (h *Handler) renderAddForm(w http.ResponseWriter, r *http.Request, now ...web.Message) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "add_book.html", web.Data{"Categories": categories}, now...)
}

func (h *Handler) renderUpdateForm(w http.ResponseWriter, r *http.Request, book *Book, now ...web.Message) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.view.ServerError(w, r, err)
		return
	}
	h.view.Render(w, r, http.StatusOK, "update_book.html", web.Data{
		"Book":       book,
		"Categories": categories,
	}, now...)
}

func (h *Handler) handleLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrBookNotFound) {
		h.view.NotFound(w, r)
		return
	}
	h.view.ServerError(w, r, err)
}

// formError marks a problem with submitted form data.
type formError struct{ msg string }

func (e formError) Error() string { return e.msg }

func parseBookForm(r *http.Request) (BookInput, error) {
	if err := r.ParseForm(); err != nil {
		return BookInput{}, formError{"The submitted form could not be read."}
	}

	year, err := web.FormInt(r, "year")
	in := BookInput{
		Title:       web.FormString(r, "title"),
		Author:      web.FormString(r, "author"),
		Year:        year,
		ISBN:        web.FormString(r, "isbn"),
		Category:    web.FormString(r, "category"),
		Description: web.FormString(r, "description"),
	}
	if err != nil {
		return in, formError{"Year must be a whole number!"}
	}
	if in.ISBN == "" {
		return in, ErrISBNRequired
	}
	if err := web.Validate(in); err != nil {
		return in, formError{web.ValidationMessage(err)}
	}
	return in, nil
}

// formMessage maps validation failures to the message shown on the form.
// ok is false for errors the user cannot fix.
func formMessage(err error, in BookInput, isbnRequired string) (msg string, ok bool) {
	var fe formError
	switch {
	case errors.Is(err, ErrISBNRequired):
		return isbnRequired, true
	case errors.Is(err, ErrDuplicateISBN):
		return fmt.Sprintf("A book with ISBN %q already exists in the library!", in.ISBN), true
	case errors.As(err, &fe):
		return fe.msg, true
	}
	return "", false
}
