package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.WithDetail(appErrors.ErrValidation, "invalid "+name, name+" must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional non-negative integer query parameter. Absent means zero.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, appErrors.WithDetail(appErrors.ErrValidation, "invalid "+name, name+" must be a non-negative integer")
	}
	return v, nil
}

// pageParams reads page and page_size.
func pageParams(c *gin.Context) (page, size int, err error) {
	if page, err = queryInt(c, "page"); err != nil {
		return 0, 0, err
	}
	if size, err = queryInt(c, "page_size"); err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
