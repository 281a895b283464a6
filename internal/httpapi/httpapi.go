// Package httpapi is Falcon's thin HTTP collaborator: a fresh Indexer
// and Searcher are opened per request against the same store file, a
// documented limitation rather than a long-lived worker. Built on gin,
// with JSON error envelopes via gin.H and explicit c.JSON status codes.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/falcon-search/falcon/ferr"
	"github.com/falcon-search/falcon/index"
	"github.com/falcon-search/falcon/internal/util"
	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/search"
	"github.com/falcon-search/falcon/store"
)

// DocResult is the JSON shape returned by GET /search.
type DocResult struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// Server wires a backing store and tokenizer into gin handlers.
type Server struct {
	store     *store.Store
	tokenizer ngram.Tokenizer
}

// New builds a Server over an already-open store.
func New(s *store.Store, tokenizer ngram.Tokenizer) *Server {
	return &Server{store: s, tokenizer: tokenizer}
}

// Handler returns a *gin.Engine with Falcon's routes registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/search", s.handleSearch)
	r.GET("/add", s.handleAdd)
	return r
}

func (s *Server) handleSearch(c *gin.Context) {
	word := c.Query("w")
	if word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter w"})
		return
	}

	searcher := search.Open(s.store, s.tokenizer)
	docs, err := searcher.Search(c.Request.Context(), word)
	if err != nil {
		if errors.Is(err, ferr.ErrNotFound) {
			c.JSON(http.StatusOK, []DocResult{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := util.TransformSlice(docs, func(d store.Document) DocResult {
		return DocResult{ID: d.ID, Title: d.Title}
	})
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleAdd(c *gin.Context) {
	title := c.Query("t")
	content := c.Query("c")
	if title == "" || content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter t or c"})
		return
	}

	indexer := index.Open(s.store, s.tokenizer)
	if _, err := indexer.Add(c.Request.Context(), title, content, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := indexer.Close(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.String(http.StatusOK, "Added:"+title+" "+content)
}
