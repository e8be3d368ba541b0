package v1

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// ListScripts returns the stored script names.
func (h *Handler) ListScripts(c echo.Context) error {
	names, err := h.store.List()
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, names)
}

// GetScript returns the source of the named script.
func (h *Handler) GetScript(c echo.Context) error {
	source, err := h.store.Get(c.Param("name"))
	if err != nil {
		return storeError(err)
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJavaScriptCharsetUTF8, []byte(source))
}

// PutScript saves the request body under the name, the optional ttl query
// parameter makes the script expire.
func (h *Handler) PutScript(c echo.Context) error {
	var ttl time.Duration
	if q := c.QueryParam("ttl"); q != "" {
		d, err := cast.ToDurationE(q)
		if err != nil || d < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid ttl "+q)
		}
		ttl = d
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if err = h.store.PutWithTimeout(c.Param("name"), string(body), ttl); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteScript removes the named script.
func (h *Handler) DeleteScript(c echo.Context) error {
	if err := h.store.Delete(c.Param("name")); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
