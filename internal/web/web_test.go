package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// carry copies the cookies set on rec onto a fresh request.
func carry(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestFlashRoundTrip(t *testing.T) {
	f := NewFlasher([]byte("secret"))

	rec := httptest.NewRecorder()
	f.Add(rec, httptest.NewRequest(http.MethodPost, "/", nil), Success("Book added successfully!"))

	rec2 := httptest.NewRecorder()
	f.Add(rec2, carry(rec), Error("second"))

	got := f.Pop(httptest.NewRecorder(), carry(rec2))
	assert.Equal(t, []Message{Success("Book added successfully!"), Error("second")}, got)
}

func TestFlashRejectsTamperedCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	NewFlasher([]byte("secret")).Add(rec, httptest.NewRequest(http.MethodGet, "/", nil), Success("hi"))

	assert.Empty(t, NewFlasher([]byte("other")).Pop(httptest.NewRecorder(), carry(rec)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: flashCookie, Value: "bm90LXNpZ25lZA.AAAA"})
	assert.Empty(t, NewFlasher([]byte("secret")).Pop(httptest.NewRecorder(), r))
}

func TestPopExpiresCookie(t *testing.T) {
	f := NewFlasher([]byte("secret"))
	rec := httptest.NewRecorder()
	f.Add(rec, httptest.NewRequest(http.MethodGet, "/", nil), Success("once"))

	out := httptest.NewRecorder()
	require.Len(t, f.Pop(out, carry(rec)), 1)

	cookies := out.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, flashCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestRateLimitOnlyThrottlesWrites(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.0001), 1)
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/books/add", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet))
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestIDParam(t *testing.T) {
	for raw, ok := range map[string]bool{"7": true, "0": false, "-1": false, "abc": false} {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", raw)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		id, err := IDParam(r, "id")
		if ok {
			require.NoError(t, err, raw)
			assert.Equal(t, int64(7), id)
		} else {
			assert.Error(t, err, raw)
		}
	}
}

func TestFormHelpers(t *testing.T) {
	form := url.Values{"title": {"  Dune  "}, "year": {"1965"}, "bad": {"x"}}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	assert.Equal(t, "Dune", FormString(r, "title"))

	year, err := FormInt(r, "year")
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 1965, *year)

	missing, err := FormInt(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = FormInt(r, "bad")
	assert.Error(t, err)
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Name  string `validate:"required,max=5"`
		Email string `validate:"required,email"`
	}

	assert.Equal(t, "Name is required!", ValidationMessage(Validate(input{Email: "a@b.co"})))
	assert.Equal(t, "Name must be at most 5 characters long!", ValidationMessage(Validate(input{Name: "toolong", Email: "a@b.co"})))
	assert.Equal(t, "Email must be a valid email address!", ValidationMessage(Validate(input{Name: "ok", Email: "nope"})))
	assert.NoError(t, Validate(input{Name: "ok", Email: "a@b.co"}))
}

func TestValidationMessageBounds(t *testing.T) {
	type bounds struct {
		ID   int64 `validate:"gt=0"`
		Days int   `validate:"gte=1,lte=365"`
	}

	assert.Equal(t, "ID must be greater than 0!", ValidationMessage(Validate(bounds{ID: 0, Days: 7})))
	assert.Equal(t, "Days must be at least 1!", ValidationMessage(Validate(bounds{ID: 1, Days: 0})))
	assert.Equal(t, "Days must be at most 365!", ValidationMessage(Validate(bounds{ID: 1, Days: 400})))
}

func TestRendererRendersFlashAndNotFound(t *testing.T) {
	f := NewFlasher([]byte("secret"))
	view, err := NewRenderer(f)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	view.Render(rec, httptest.NewRequest(http.MethodGet, "/books/add", nil), http.StatusOK, "add_book.html",
		Data{"Categories": []string{"Fiction"}}, Error("ISBN is required to add a book!"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ISBN is required to add a book!")
	assert.Contains(t, rec.Body.String(), "Fiction")

	rec = httptest.NewRecorder()
	view.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
