package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"library-catalog/library"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *library.Catalog) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog, err := library.NewCatalog(t.TempDir())
	require.NoError(t, err)
	fixed := func() time.Time { return time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC) }
	return NewRouter(NewHandler(catalog, fixed)), catalog
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

var duneInput = gin.H{"book_id": "B1", "title": "Dune", "author": "Herbert", "year": "1965", "isbn": "0441013597"}

func TestAddAndListBooks(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(r, "POST", "/books", duneInput)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "available", decode(t, w)["status"])

	w = doJSON(r, "POST", "/books", duneInput)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, "GET", "/books", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]interface{})
	assert.Equal(t, 1, len(items))
}

func TestAddBookRequiresAllFields(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(r, "POST", "/books", gin.H{"book_id": "B1", "title": "  ", "author": "A", "year": "1", "isbn": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decode(t, w)
	assert.Equal(t, "All fields are required.", response["error"])
	assert.Equal(t, "title", response["field"])
}

func TestEmptyListsAreArrays(t *testing.T) {
	r, _ := setupTestRouter(t)
	for _, path := range []string{"/books", "/members"} {
		w := doJSON(r, "GET", path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items":[]}`, w.Body.String())
	}
}

func TestBorrowAndReturn(t *testing.T) {
	r, _ := setupTestRouter(t)
	doJSON(r, "POST", "/books", duneInput)
	doJSON(r, "POST", "/members", gin.H{"member_id": "M1", "name": "Alice", "email": "a@x.com"})

	w := doJSON(r, "POST", "/books/B1/borrow", gin.H{"member_id": "M1"})
	require.Equal(t, http.StatusOK, w.Code)
	book := decode(t, w)["book"].(map[string]interface{})
	assert.Equal(t, "borrowed", book["status"])
	assert.Equal(t, "M1", book["borrowed_by"])
	assert.Equal(t, "2024-01-01", book["borrowed_on"])

	w = doJSON(r, "POST", "/books/B1/borrow", gin.H{"member_id": "M1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Book not available.", decode(t, w)["error"])

	w = doJSON(r, "POST", "/books/B1/return", nil)
	require.Equal(t, http.StatusOK, w.Code)
	book = decode(t, w)["book"].(map[string]interface{})
	assert.Equal(t, "available", book["status"])
	assert.NotContains(t, book, "borrowed_by")

	w = doJSON(r, "POST", "/books/B1/return", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBorrowValidation(t *testing.T) {
	r, _ := setupTestRouter(t)
	doJSON(r, "POST", "/books", duneInput)

	w := doJSON(r, "POST", "/books/B1/borrow", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "POST", "/books/B1/borrow", gin.H{"member_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Member not found.", decode(t, w)["error"])
}

func TestBorrowMalformedJSON(t *testing.T) {
	r, _ := setupTestRouter(t)
	doJSON(r, "POST", "/books", duneInput)

	req := httptest.NewRequest("POST", "/books/B1/borrow", strings.NewReader(`{"member_id": `))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEqual(t, "Please select a book and a member.", decode(t, w)["error"])
}

func TestAddRejectsCarriageReturn(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(r, "POST", "/books", gin.H{"book_id": "B1", "title": "line1\r\nline2", "author": "A", "year": "1", "isbn": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decode(t, w)["field"])

	w = doJSON(r, "GET", "/books", nil)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestConcurrentAddBook(t *testing.T) {
	r, catalog := setupTestRouter(t)

	var wg sync.WaitGroup
	codes := make([]int, 16)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = doJSON(r, "POST", "/books", duneInput).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)
	books, err := catalog.ListBooks()
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestDeleteMemberReportsLoans(t *testing.T) {
	r, catalog := setupTestRouter(t)
	doJSON(r, "POST", "/books", duneInput)
	doJSON(r, "POST", "/members", gin.H{"member_id": "M1", "name": "Alice", "email": "a@x.com"})
	doJSON(r, "POST", "/books/B1/borrow", gin.H{"member_id": "M1"})

	w := doJSON(r, "DELETE", "/members/M1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"B1"}, decode(t, w)["books_still_borrowed"])

	w = doJSON(r, "DELETE", "/members/M1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	b, err := catalog.GetBook("B1")
	require.NoError(t, err)
	assert.Equal(t, "M1", b.BorrowedBy)
}

func TestDeleteBook(t *testing.T) {
	r, _ := setupTestRouter(t)
	doJSON(r, "POST", "/books", duneInput)

	w := doJSON(r, "DELETE", "/books/B1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, "GET", "/books/B1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(r, "DELETE", "/books/B1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMember(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog, err := library.NewCatalog(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, catalog.AddMember(library.Member{ID: "M1", Name: "Alice", Email: "a@x.com"}))
	h := NewHandler(catalog, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/members/M1", nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: "M1"}}

	h.getMember(c)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, "Alice", response["name"])
	assert.Equal(t, "a@x.com", response["email"])
}

func TestCorruptFileIsServerError(t *testing.T) {
	r, catalog := setupTestRouter(t)
	path := filepath.Join(catalog.DataDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o644))

	w := doJSON(r, "GET", "/books", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doJSON(r, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DOWN", decode(t, w)["status"])
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doJSON(r, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
