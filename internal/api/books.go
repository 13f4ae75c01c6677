package api

import "github.com/gin-gonic/gin"

type bookHandler struct {
	books BookSource
}

func (h *bookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search) // GET /search?query=
	rg.GET("/detail", h.detail) // GET /detail?book_id=
}

func (h *bookHandler) search(c *gin.Context) {
	results, err := h.books.Search(c.Request.Context(), c.Query("query"), c.GetHeader("User-Agent"))
	if err != nil {
		fail(c, err, []any{})
		return
	}
	ok(c, results)
}

func (h *bookHandler) detail(c *gin.Context) {
	detail, err := h.books.Detail(c.Request.Context(), c.Query("book_id"), c.GetHeader("User-Agent"))
	if err != nil {
		fail(c, err, gin.H{})
		return
	}
	ok(c, detail)
}

type novelHandler struct {
	novels NovelSearcher
}

func (h *novelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search) // GET /69hsz/search?keyword=
}

func (h *novelHandler) search(c *gin.Context) {
	novels, err := h.novels.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		fail(c, err, []any{})
		return
	}
	okWithMessage(c, msgNovelOK, novels)
}
