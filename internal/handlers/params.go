package handlers

import (
	"fmt"
	"strconv"

	"editify-backend/internal/render"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid %s", name), err)
		return uuid.Nil, false
	}
	return id, true
}

// viewportQuery reads optional width/height query parameters. Missing values
// leave the viewport zero so the last recorded one is used.
func viewportQuery(c *gin.Context) (render.Viewport, bool) {
	var vp render.Viewport
	for _, q := range []struct {
		name string
		dst  *int
	}{{"width", &vp.Width}, {"height", &vp.Height}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 8192 {
			badRequest(c, fmt.Sprintf("invalid %s", q.name), fmt.Errorf("%s must be an integer in 1..8192", q.name))
			return render.Viewport{}, false
		}
		*q.dst = n
	}
	if (vp.Width == 0) != (vp.Height == 0) {
		badRequest(c, "invalid viewport", fmt.Errorf("width and height must be given together"))
		return render.Viewport{}, false
	}
	return vp, true
}
