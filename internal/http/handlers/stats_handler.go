// Stats HTTP handlers.
//
// This file exposes the reporting endpoints:
//   - GET /stats/dashboard  (operator totals and payout sums)
//   - GET /stats/series     (per-day order counts, role-scoped)
//
// Both accept optional from/to bounds as RFC 3339 timestamps; absent bounds
// default to the last 30 days.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// statsBounds parses the optional from/to query params. A missing param
// yields the zero time, which the service fills with its default window.
func statsBounds(c *gin.Context) (from, to time.Time, err error) {
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return
		}
	}
	return
}

// Dashboard godoc
// @ID          statsDashboard
// @Summary     Operator dashboard
// @Description Returns order totals and per-party payout sums for the period. Operator only. Money figures come from the earnings snapshots on the orders.
// @Tags        Stats
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       from       query   string  false "Period start (RFC 3339)"
// @Param       to         query   string  false "Period end (RFC 3339)"
//
// @Success     200  {object}  services.Dashboard
// @Failure     400  {object}  handlers.ErrorResponse  "Bad time bounds"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats/dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	from, to, err := statsBounds(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339")
		return
	}
	d, err := h.statsSvc.Dashboard(c.Request.Context(), userRole(c), from, to)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// Series godoc
// @ID          statsSeries
// @Summary     Order activity series
// @Description Returns per-day order counts for the period, scoped to the orders the current user sees in their role.
// @Tags        Stats
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       from       query   string  false "Period start (RFC 3339)"
// @Param       to         query   string  false "Period end (RFC 3339)"
//
// @Success     200  {array}   repo.SeriesPoint
// @Failure     400  {object}  handlers.ErrorResponse  "Bad time bounds"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats/series [get]
func (h *Handlers) Series(c *gin.Context) {
	from, to, err := statsBounds(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from/to must be RFC 3339")
		return
	}
	points, err := h.statsSvc.Series(c.Request.Context(), userID(c), userRole(c), from, to)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, points)
}
