package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/Haleralex/ticketing-devserver/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestReExportedErrorCodes(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrCodeNotFound)
	assert.Equal(t, "BAD_REQUEST", ErrCodeBadRequest)
	assert.Equal(t, "INTERNAL_ERROR", ErrCodeInternal)
	assert.Equal(t, "NOT_IMPLEMENTED", ErrCodeNotImplemented)
}

func TestReExportedFunctions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/missing.html", nil)

	HandlePageError(c, domainerrors.NewPageNotFound("/missing.html", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "File not found")
	assert.Empty(t, GetRequestID(c))
}
