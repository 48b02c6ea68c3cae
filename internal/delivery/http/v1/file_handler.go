package v1

import (
	"errors"
	"net/http"
	"strconv"

	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/pkg/storage"

	"github.com/gin-gonic/gin"
)

// FileHandler serves blobs from the in-process store behind the signed URLs
// it hands out. Only mounted when uploads are kept in memory.
type FileHandler struct {
	store *storage.MemoryStore
}

func NewFileHandler(public *gin.RouterGroup, store *storage.MemoryStore) {
	handler := &FileHandler{store: store}
	public.GET("/files", handler.Serve)
}

// Serve godoc
// @Summary      Fetch an uploaded file
// @Description  Target of the signed links issued for resumes and logos when uploads are kept in memory.
// @Tags         files
// @Param        key      query  string   true  "Object key"
// @Param        expires  query  integer  true  "Expiry, unix seconds"
// @Param        sig      query  string   true  "Signature"
// @Success      200
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /files [get]
func (h *FileHandler) Serve(c *gin.Context) {
	key := c.Query("key")
	expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
	if key == "" || err != nil || !h.store.Verify(key, expires, c.Query("sig")) {
		response.Error(c, http.StatusForbidden, "Invalid or expired link", nil)
		return
	}

	obj, err := h.store.Get(key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		response.Error(c, http.StatusNotFound, "File not found", nil)
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
