package web

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// NewRouter wires the catalog routes onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())

	books := r.Group("/books")
	{
		books.GET("", h.listBooks)
		books.POST("", h.addBook)
		books.GET("/:id", h.getBook)
		books.DELETE("/:id", h.deleteBook)
		books.POST("/:id/borrow", h.borrowBook)
		books.POST("/:id/return", h.returnBook)
	}

	members := r.Group("/members")
	{
		members.GET("", h.listMembers)
		members.POST("", h.addMember)
		members.GET("/:id", h.getMember)
		members.DELETE("/:id", h.deleteMember)
	}

	r.GET("/healthz", h.healthCheck)
	return r
}

// RequestID tags every request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
