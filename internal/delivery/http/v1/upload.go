package v1

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/logger"
	"workwave-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 64 << 10

// uploadReader reads a single multipart file after checking the caller's
// upload quota.
type uploadReader struct {
	limiter  *security.UploadLimiter
	maxBytes int64
}

// read returns false after it has already recorded an error on c.
func (u uploadReader) read(c *gin.Context, field string) (domain.Upload, bool) {
	identity, ok := domain.IdentityFromContext(c.Request.Context())
	if !ok {
		c.Error(apperror.Unauthorized("User not authenticated"))
		return domain.Upload{}, false
	}

	allowed, retry, err := u.limiter.AllowUpload(c.Request.Context(), identity.ID.Hex())
	if err != nil {
		logger.Log.Warn("upload limiter unavailable", "error", err)
	}
	if !allowed {
		c.Header("Retry-After", strconv.Itoa(retry))
		c.Error(apperror.TooManyRequests("Upload limit reached. Please try again later."))
		return domain.Upload{}, false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.maxBytes+multipartOverhead)
	header, err := c.FormFile(field)
	if err != nil {
		c.Error(apperror.BadRequest(fmt.Sprintf("A file is required in the %q field and must be at most %d MB", field, u.maxBytes>>20)))
		return domain.Upload{}, false
	}
	if header.Size > u.maxBytes {
		c.Error(apperror.BadRequest(fmt.Sprintf("file exceeds the %d MB limit", u.maxBytes>>20)))
		return domain.Upload{}, false
	}

	f, err := header.Open()
	if err != nil {
		c.Error(apperror.Internal(err))
		return domain.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, u.maxBytes+1))
	if err != nil {
		c.Error(apperror.Internal(err))
		return domain.Upload{}, false
	}
	return domain.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
