// Notification HTTP handlers.
//
// This file exposes REST endpoints for notification feeds and templates:
//   - GET    /notifications                 (feed with unread count)
//   - POST   /notifications/read            (mark everything read)
//   - POST   /notifications/broadcast       (operator message, role or user)
//   - GET    /notifications/templates       (effective template set)
//   - PUT    /notifications/templates/{id}  (operator override)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/notify"
)

//
// DTOs
//

// BroadcastRequest is the JSON payload for an operator broadcast. Exactly one
// of role and user_id must be set.
type BroadcastRequest struct {
	// Message is the text delivered verbatim.
	Message string `json:"message" binding:"required" example:"Maintenance tonight at 22:00 UTC"`
	// Role targets every current holder of a role.
	Role string `json:"role" example:"super_worker"`
	// UserID targets a single account.
	UserID string `json:"user_id"`
}

// BroadcastResponse reports how many recipients a broadcast reached.
type BroadcastResponse struct {
	Recipients int `json:"recipients" example:"12"`
}

// MarkReadResponse reports how many notifications were marked read.
type MarkReadResponse struct {
	Updated int64 `json:"updated" example:"3"`
}

// SaveTemplateRequest is the JSON payload for overriding a built-in
// notification template.
type SaveTemplateRequest struct {
	// Name optionally renames the template in operator tooling.
	Name string `json:"name" example:"Order submitted"`
	// Description optionally documents when the template fires.
	Description string `json:"description"`
	// Text is the template body; {placeholders} are substituted at dispatch.
	Text string `json:"text" binding:"required" example:"Your order {order_id} was received."`
}

//
// Handlers
//

// ListNotifications godoc
// @ID          listNotifications
// @Summary     Get the notification feed
// @Description Returns the current user's notifications, newest first, with the unread count. Privileged roles also see their legacy role feed.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  services.NotificationFeed
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	feed, err := h.notifSvc.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, feed)
}

// MarkNotificationsRead godoc
// @ID          markNotificationsRead
// @Summary     Mark all notifications read
// @Description Flips the read flag on every notification addressed to the current user and returns the number touched.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  handlers.MarkReadResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/read [post]
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	n, err := h.notifSvc.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, MarkReadResponse{Updated: n})
}

// Broadcast godoc
// @ID          broadcastNotification
// @Summary     Broadcast an operator message
// @Description Sends a message to every holder of a role or to one user. Operator only; exactly one target must be given.
// @Tags        Notifications
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.BroadcastRequest  true  "Broadcast payload"
//
// @Success     200  {object}  handlers.BroadcastResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Blank message or bad target"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/broadcast [post]
func (h *Handlers) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if (req.Role == "") == (req.UserID == "") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "exactly one of role and user_id required")
		return
	}
	var role *domain.Role
	if req.Role != "" {
		r := domain.Role(req.Role)
		role = &r
	}

	n, err := h.notifSvc.Broadcast(c.Request.Context(), userRole(c), req.Message, role, req.UserID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, BroadcastResponse{Recipients: n})
}

// ListTemplates godoc
// @ID          listNotificationTemplates
// @Summary     List notification templates
// @Description Returns the effective template set: built-in defaults overlaid with operator overrides.
// @Tags        Notifications
// @Produce     json
//
// @Success     200  {object}  map[string]notify.Template
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/templates [get]
func (h *Handlers) ListTemplates(c *gin.Context) {
	templates, err := h.notifSvc.Templates(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, templates)
}

// SaveTemplate godoc
// @ID          saveNotificationTemplate
// @Summary     Override a notification template
// @Description Stores a custom body for a built-in template. Operator only; unknown template ids are rejected.
// @Tags        Notifications
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Template ID"            example(order_submitted)
// @Param       body       body    handlers.SaveTemplateRequest  true  "Template payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown template or blank body"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/templates/{id} [put]
func (h *Handlers) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.notifSvc.SaveTemplate(c.Request.Context(), userRole(c), notify.Template{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Text:        req.Text,
	})
	if err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
