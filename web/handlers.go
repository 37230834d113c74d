package web

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"library-catalog/library"

	"github.com/gin-gonic/gin"
)

// DateLayout is the format of borrowed_on values.
const DateLayout = "2006-01-02"

// Handler serves the catalog over HTTP. It validates input and maps the
// catalog's boolean outcomes to status codes; all state lives in the catalog.
type Handler struct {
	catalog *library.Catalog
	now     func() time.Time
}

// NewHandler returns a handler stamping loans with the date reported by now.
func NewHandler(catalog *library.Catalog, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{catalog: catalog, now: now}
}

type bookInput struct {
	ID     string `json:"book_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   string `json:"year"`
	ISBN   string `json:"isbn"`
}

type memberInput struct {
	ID    string `json:"member_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ------------------ Books ------------------

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.catalog.ListBooks()
	if err != nil {
		storageError(c, err)
		return
	}
	if books == nil {
		books = []library.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"items": books})
}

func (h *Handler) getBook(c *gin.Context) {
	book, err := h.catalog.GetBook(c.Param("id"))
	if err != nil {
		storageError(c, err)
		return
	}
	if book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found."})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) addBook(c *gin.Context) {
	var in bookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	book := library.Book{
		ID:     strings.TrimSpace(in.ID),
		Title:  strings.TrimSpace(in.Title),
		Author: strings.TrimSpace(in.Author),
		Year:   strings.TrimSpace(in.Year),
		ISBN:   strings.TrimSpace(in.ISBN),
		Status: library.StatusAvailable,
	}
	if err := book.Validate(); err != nil {
		invalidInput(c, err)
		return
	}

	added, err := h.catalog.AddBookIfAbsent(book)
	if err != nil {
		storageError(c, err)
		return
	}
	if !added {
		c.JSON(http.StatusConflict, gin.H{"error": "Book ID already exists."})
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *Handler) deleteBook(c *gin.Context) {
	ok, err := h.catalog.DeleteBook(c.Param("id"))
	if err != nil {
		storageError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted."})
}

func (h *Handler) borrowBook(c *gin.Context) {
	var in struct {
		MemberID string `json:"member_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bookID := c.Param("id")
	memberID := strings.TrimSpace(in.MemberID)
	if bookID == "" || memberID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a book and a member."})
		return
	}

	member, err := h.catalog.GetMember(memberID)
	if err != nil {
		storageError(c, err)
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found."})
		return
	}

	ok, err := h.catalog.BorrowBook(bookID, memberID, h.now().Format(DateLayout))
	if err != nil {
		storageError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Book not available."})
		return
	}
	h.respondBook(c, bookID, "Borrowed successfully.")
}

func (h *Handler) returnBook(c *gin.Context) {
	bookID := c.Param("id")
	ok, err := h.catalog.ReturnBook(bookID)
	if err != nil {
		storageError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Book not found or already available."})
		return
	}
	h.respondBook(c, bookID, "Returned successfully.")
}

func (h *Handler) respondBook(c *gin.Context, bookID, message string) {
	book, err := h.catalog.GetBook(bookID)
	if err != nil {
		storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "book": book})
}

// ------------------ Members ------------------

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.catalog.ListMembers()
	if err != nil {
		storageError(c, err)
		return
	}
	if members == nil {
		members = []library.Member{}
	}
	c.JSON(http.StatusOK, gin.H{"items": members})
}

func (h *Handler) getMember(c *gin.Context) {
	member, err := h.catalog.GetMember(c.Param("id"))
	if err != nil {
		storageError(c, err)
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found."})
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *Handler) addMember(c *gin.Context) {
	var in memberInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member := library.Member{
		ID:    strings.TrimSpace(in.ID),
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if err := member.Validate(); err != nil {
		invalidInput(c, err)
		return
	}

	added, err := h.catalog.AddMemberIfAbsent(member)
	if err != nil {
		storageError(c, err)
		return
	}
	if !added {
		c.JSON(http.StatusConflict, gin.H{"error": "Member ID already exists."})
		return
	}
	c.JSON(http.StatusCreated, member)
}

// deleteMember reports the books still lent to the member; they keep the
// member id after deletion.
func (h *Handler) deleteMember(c *gin.Context) {
	memberID := c.Param("id")
	held, err := h.catalog.BooksBorrowedBy(memberID)
	if err != nil {
		storageError(c, err)
		return
	}
	ok, err := h.catalog.DeleteMember(memberID)
	if err != nil {
		storageError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found."})
		return
	}
	resp := gin.H{"message": "Member deleted."}
	if len(held) > 0 {
		ids := make([]string, 0, len(held))
		for _, b := range held {
			ids = append(ids, b.ID)
		}
		resp["books_still_borrowed"] = ids
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) healthCheck(c *gin.Context) {
	if _, err := h.catalog.ListMembers(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Member records unreadable",
			"error":   err.Error(),
		})
		return
	}
	if _, err := h.catalog.ListBooks(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Book records unreadable",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"details": h.catalog.DataDir(),
	})
}

func storageError(c *gin.Context, err error) {
	if errors.Is(err, library.ErrInvalidRecord) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("request %s: storage error: %v", c.GetString(requestIDKey), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func invalidInput(c *gin.Context, err error) {
	msg := err.Error()
	if errors.Is(err, library.ErrMissingField) {
		msg = "All fields are required."
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "field": fieldName(err)})
}

// fieldName extracts the offending field from a Validate error.
func fieldName(err error) string {
	if !errors.Is(err, library.ErrMissingField) && !errors.Is(err, library.ErrCarriageReturn) {
		return ""
	}
	name, _, _ := strings.Cut(err.Error(), ":")
	return name
}
