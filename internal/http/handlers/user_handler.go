// User HTTP handlers.
//
// This file exposes REST endpoints for accounts and reference codes:
//   - POST   /users/register       (register with a reference code)
//   - GET    /users/me             (current account)
//   - GET    /users                (operator listing, paginated)
//   - PUT    /users/{id}/role      (operator role change)
//   - POST   /reference-codes      (operator code mint)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for registration.
type RegisterRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=255" example:"Dana Whitfield"`
	Email string `json:"email" binding:"required" example:"dana@example.com"`
	// ReferenceCode determines the account's role and referrer.
	ReferenceCode string `json:"reference_code" binding:"required" example:"AG-100"`
}

// UpdateRoleRequest is the JSON payload for an operator role change.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required" example:"super_worker"`
}

// CreateReferenceCodeRequest is the JSON payload for minting a code.
type CreateReferenceCodeRequest struct {
	Code    string `json:"code" binding:"required,min=1,max=32" example:"AG-100"`
	OwnerID string `json:"owner_id" binding:"required"`
	// Role is granted to every account registered with the code.
	Role string `json:"role" binding:"required" example:"student"`
}

// ListUsersResponse wraps a page of users and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

//
// Handlers
//

// Register godoc
// @ID          registerUser
// @Summary     Register an account
// @Description Creates an account from a reference code. The code determines the role; its owner becomes the referrer that later binds the student's orders to an agent.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input or unknown code"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.userSvc.Register(c.Request.Context(), services.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		ReferenceCode: req.ReferenceCode,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Me godoc
// @ID          getCurrentUser
// @Summary     Get the current account
// @Description Returns the account the request is acting as.
// @Tags        Users
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List accounts (operator, paginated)
// @Description Returns every account, newest first. Operator only.
// @Tags        Users
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	users, err := h.userSvc.List(c.Request.Context(), userRole(c))
	if err != nil {
		failService(c, err)
		return
	}

	total := int64(len(users))
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListUsersResponse{
		Users: pageSlice(users, page, pageSize),
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// UpdateUserRole godoc
// @ID          updateUserRole
// @Summary     Change an account's role
// @Description Changes the account's role, seeds the default fee row the new role needs, and notifies the user. Operator only.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "User ID"
// @Param       body       body    handlers.UpdateRoleRequest  true  "New role"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown role"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/role [put]
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.userSvc.UpdateRole(c.Request.Context(), userRole(c), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// CreateReferenceCode godoc
// @ID          createReferenceCode
// @Summary     Mint a reference code
// @Description Creates a registration code that grants the given role and links registrants to the owner. Operator only.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateReferenceCodeRequest  true  "Code payload"
//
// @Success     201  {object}  domain.ReferenceCode
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     409  {object}  handlers.ErrorResponse  "Code already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reference-codes [post]
func (h *Handlers) CreateReferenceCode(c *gin.Context) {
	var req CreateReferenceCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	rc, err := h.userSvc.CreateReferenceCode(c.Request.Context(), userRole(c), req.Code, req.OwnerID, domain.Role(req.Role))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, rc)
}
