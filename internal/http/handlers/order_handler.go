// Order HTTP handlers.
//
// This file exposes REST endpoints for order resources:
//   - POST   /orders                          (submit, idempotent)
//   - GET    /orders                          (role-scoped list, paginated)
//   - GET    /orders/{id}                     (detail with files and history)
//   - POST   /orders/{id}/status              (workflow transition)
//   - POST   /orders/{id}/assignee            (operator assignment)
//   - POST   /orders/{id}/change-requests     (student feedback)
//   - POST   /orders/{id}/proposals           (super-worker proposal)
//   - POST   /orders/{id}/proposals/decision  (student accept/reject)
//   - POST   /orders/{id}/files               (phase-tagged upload)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Who the caller is and what role
// they act in comes from the identity middleware; every authorization decision
// belongs to the service layer.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/http/middleware"
	"github.com/tbourn/go-homework-backend/internal/notify"
	"github.com/tbourn/go-homework-backend/internal/repo"
	"github.com/tbourn/go-homework-backend/internal/services"
	"github.com/tbourn/go-homework-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// OrderService defines the order workflow operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OrderService interface {
	// Submit creates an order for the student, pricing it from the tier tables.
	Submit(ctx context.Context, studentID string, in services.SubmitOrderInput) (*domain.Order, error)
	// ListForUser returns the orders visible to the user in the given role.
	ListForUser(ctx context.Context, userID string, role domain.Role) ([]services.OrderView, error)
	// Get returns one order with files and change history.
	Get(ctx context.Context, userID string, role domain.Role, orderID string) (*services.OrderView, error)
	// Transition moves the order to a new workflow status.
	Transition(ctx context.Context, actorID string, role domain.Role, orderID string, to domain.Status) (*domain.Order, error)
	// AssignSuperWorker binds a super worker and recomputes earnings.
	AssignSuperWorker(ctx context.Context, role domain.Role, orderID, superWorkerID string) (*domain.Order, error)
	// AssignWorker binds a worker.
	AssignWorker(ctx context.Context, role domain.Role, orderID, workerID string) (*domain.Order, error)
	// RequestChanges records student feedback and reopens the order.
	RequestChanges(ctx context.Context, studentID, orderID, notes string, files []domain.FileRef) (*domain.Order, error)
	// ProposeChange raises a word-count or deadline proposal.
	ProposeChange(ctx context.Context, actorID string, role domain.Role, orderID string, in services.ProposalInput) (*domain.Order, error)
	// ResolveProposal accepts or rejects the pending proposal.
	ResolveProposal(ctx context.Context, studentID, orderID string, accept bool) (*domain.Order, error)
	// UploadFiles stores a phase-tagged file batch and advances the workflow.
	UploadFiles(ctx context.Context, actorID string, role domain.Role, orderID string, in services.UploadInput) (*domain.Order, error)
}

// PricingService defines the pricing configuration operations consumed by
// HTTP handlers.
type PricingService interface {
	Quote(ctx context.Context, agentID string, wordCount int, deadline time.Time) (float64, error)
	Settings(ctx context.Context) (*domain.PricingSettings, error)
	SaveSettings(ctx context.Context, role domain.Role, ps *domain.PricingSettings) error
	AgentTiers(ctx context.Context, role domain.Role, agentID string) (*domain.AgentPricing, error)
	SaveAgentTiers(ctx context.Context, role domain.Role, agentID string, tiers map[int]float64) error
	SuperWorkerFees(ctx context.Context, role domain.Role) ([]domain.SuperWorkerFee, error)
	SetSuperWorkerFee(ctx context.Context, role domain.Role, superWorkerID string, feePer500 float64) error
	AgentFees(ctx context.Context, role domain.Role) ([]domain.AgentFee, error)
	SetAgentFee(ctx context.Context, role domain.Role, agentID string, feePer500 float64) error
}

// NotificationService defines the notification feed and template operations
// consumed by HTTP handlers.
type NotificationService interface {
	ListForUser(ctx context.Context, userID string) (*services.NotificationFeed, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Broadcast(ctx context.Context, actorRole domain.Role, message string, role *domain.Role, userID string) (int, error)
	Templates(ctx context.Context) (map[string]notify.Template, error)
	SaveTemplate(ctx context.Context, actorRole domain.Role, tpl notify.Template) error
}

// UserService defines the account operations consumed by HTTP handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context, actorRole domain.Role) ([]domain.User, error)
	UpdateRole(ctx context.Context, actorRole domain.Role, userID string, role domain.Role) (*domain.User, error)
	CreateReferenceCode(ctx context.Context, actorRole domain.Role, code, ownerID string, role domain.Role) (*domain.ReferenceCode, error)
}

// StatsService defines the reporting operations consumed by HTTP handlers.
type StatsService interface {
	Dashboard(ctx context.Context, role domain.Role, from, to time.Time) (*services.Dashboard, error)
	Series(ctx context.Context, userID string, role domain.Role, from, to time.Time) ([]repo.SeriesPoint, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for orders, pricing, notifications, users,
// and stats. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	orderSvc   OrderService
	pricingSvc PricingService
	notifSvc   NotificationService
	userSvc    UserService
	statsSvc   StatsService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(orderSvc OrderService, pricingSvc PricingService, notifSvc NotificationService, userSvc UserService, statsSvc StatsService) *Handlers {
	return &Handlers{
		orderSvc:   orderSvc,
		pricingSvc: pricingSvc,
		notifSvc:   notifSvc,
		userSvc:    userSvc,
		statsSvc:   statsSvc,
	}
}

// userID extracts the authenticated user id from Gin context (set by the
// identity middleware). If absent, it falls back to "X-User-ID" header (tests
// use it), and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// userRole extracts the acting role from Gin context (set by the identity
// middleware after loading the user row). It falls back to the "X-User-Role"
// header for tests, and finally to the least privileged role.
func userRole(c *gin.Context) domain.Role {
	if v, ok := c.Get("userRole"); ok {
		if r, ok := v.(domain.Role); ok && domain.KnownRole(r) {
			return r
		}
		if s, ok := v.(string); ok && domain.KnownRole(domain.Role(s)) {
			return domain.Role(s)
		}
	}
	if c != nil && c.Request != nil {
		if h := domain.Role(strings.TrimSpace(c.GetHeader("X-User-Role"))); domain.KnownRole(h) {
			return h
		}
	}
	return domain.RoleStudent
}

//
// DTOs
//

// SubmitOrderRequest is the JSON payload for submitting an order.
type SubmitOrderRequest struct {
	// ModuleName is the course or module the homework belongs to.
	ModuleName string `json:"module_name" binding:"required,min=1,max=255" example:"Econometrics II"`
	// WordCount is the requested length in words.
	WordCount int `json:"word_count" binding:"required,gt=0" example:"1500"`
	// Deadline is the requested completion time (RFC 3339).
	Deadline time.Time `json:"deadline" binding:"required" example:"2025-10-01T00:00:00Z"`
	// Notes carries free-form instructions for the assignment.
	Notes string `json:"notes" example:"Please follow the attached brief"`
	// Files are the student's original assignment documents.
	Files []domain.FileRef `json:"files"`
}

// TransitionRequest is the JSON payload for a workflow status change.
type TransitionRequest struct {
	// Status is the target workflow status.
	Status string `json:"status" binding:"required" example:"in_progress"`
}

// AssignRequest is the JSON payload for an operator assignment.
type AssignRequest struct {
	// Role selects the seat being filled: "super_worker" or "worker".
	Role string `json:"role" binding:"required" example:"super_worker"`
	// UserID is the account being assigned.
	UserID string `json:"user_id" binding:"required" example:"7f0b9a3e-58c1-4f7d-9f34-4c7d9f4e2f11"`
}

// RequestChangesRequest is the JSON payload for student feedback.
type RequestChangesRequest struct {
	// Notes describes what should change. Required.
	Notes string `json:"notes" binding:"required" example:"Section 2 misses the regression output"`
	// Files optionally attach annotated documents.
	Files []domain.FileRef `json:"files"`
}

// ProposalRequest is the JSON payload for a super-worker proposal.
type ProposalRequest struct {
	// Kind is "word_count_proposal" or "deadline_proposal".
	Kind string `json:"kind" binding:"required" example:"word_count_proposal"`
	// NewWordCount is required for word-count proposals.
	NewWordCount int `json:"new_word_count" example:"2500"`
	// NewDeadline is required for deadline proposals (RFC 3339).
	NewDeadline time.Time `json:"new_deadline" example:"2025-10-05T00:00:00Z"`
	// Notes explains why the terms should change.
	Notes string `json:"notes" example:"Scope grew after reviewing the brief"`
}

// ProposalDecisionRequest is the JSON payload for resolving a proposal.
type ProposalDecisionRequest struct {
	// Accept keeps the proposed terms when true, restores the prior ones
	// when false.
	Accept *bool `json:"accept" binding:"required" example:"true"`
}

// UploadFilesRequest is the JSON payload for a phase-tagged file batch.
type UploadFilesRequest struct {
	// Phase tags the workflow stage: worker_draft, super_worker_review, or
	// final_approved.
	Phase string `json:"phase" binding:"required" example:"worker_draft"`
	// Files is the batch being uploaded. Operators may send an empty batch
	// for the final phase to promote the latest reviewed files.
	Files []domain.FileRef `json:"files"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListOrdersResponse wraps a page of orders and pagination information.
type ListOrdersResponse struct {
	Orders     []services.OrderView `json:"orders"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pageSlice cuts one page out of an already-loaded list.
func pageSlice[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

//
// Handlers
//

// SubmitOrder godoc
// @ID          submitOrder
// @Summary     Submit a new order
// @Description Creates an order for the current student, prices it from the tier tables, and enters the workflow at payment approval. Safe to retry with an Idempotency-Key.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.SubmitOrderRequest  true  "Order payload"
//
// @Success     201  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown student"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	o, err := h.orderSvc.Submit(c.Request.Context(), userID(c), services.SubmitOrderInput{
		ModuleName:     req.ModuleName,
		WordCount:      req.WordCount,
		Deadline:       req.Deadline,
		Notes:          req.Notes,
		Files:          req.Files,
		IdempotencyKey: key,
	})
	if err != nil {
		failService(c, err)
		return
	}
	status := http.StatusCreated
	if middleware.IsReplay(c) {
		status = http.StatusOK
	}
	ok(c, status, o)
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List orders (role-scoped, paginated)
// @Description Returns the orders visible to the current user: everything for operators, otherwise the orders bound to the user through their role.
// @Tags        Orders
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListOrdersResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	page, pageSize := clampPagination(c)

	views, err := h.orderSvc.ListForUser(c.Request.Context(), userID(c), userRole(c))
	if err != nil {
		failService(c, err)
		return
	}

	total := int64(len(views))
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListOrdersResponse{
		Orders: pageSlice(views, page, pageSize),
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get one order
// @Description Returns an order with its files and change-request history. The caller must be bound to the order in their role.
// @Tags        Orders
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
//
// @Success     200  {object}  services.OrderView
// @Failure     403  {object}  handlers.ErrorResponse  "Not bound to this order"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	view, err := h.orderSvc.Get(c.Request.Context(), userID(c), userRole(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, view)
}

// TransitionOrder godoc
// @ID          transitionOrder
// @Summary     Move an order to a new status
// @Description Applies a workflow transition on behalf of the current user. Legality depends on the acting role and the order's current status.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
// @Param       body       body    handlers.TransitionRequest  true  "Target status"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     403  {object}  handlers.ErrorResponse  "Not bound to this order"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal transition or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/status [post]
func (h *Handlers) TransitionOrder(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	o, err := h.orderSvc.Transition(c.Request.Context(), userID(c), userRole(c), c.Param("id"), domain.Status(req.Status))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// AssignOrder godoc
// @ID          assignOrder
// @Summary     Assign a super worker or worker to an order
// @Description Binds the given user to the order seat named by role. Operator only. Assigning a super worker recomputes the earnings split with that super worker's rate.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
// @Param       body       body    handlers.AssignRequest  true  "Assignment payload"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Assignee has the wrong role"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     404  {object}  handlers.ErrorResponse  "Order or assignee not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal transition or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/assignee [post]
func (h *Handlers) AssignOrder(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	var (
		o   *domain.Order
		err error
	)
	switch domain.Role(req.Role) {
	case domain.RoleSuperWorker:
		o, err = h.orderSvc.AssignSuperWorker(c.Request.Context(), userRole(c), c.Param("id"), req.UserID)
	case domain.RoleWorker:
		o, err = h.orderSvc.AssignWorker(c.Request.Context(), userRole(c), c.Param("id"), req.UserID)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role must be super_worker or worker")
		return
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// RequestChanges godoc
// @ID          requestChanges
// @Summary     Request changes on an order
// @Description Records student feedback against the order and moves it to requested_changes. This is also the only way to reopen a completed order.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
// @Param       body       body    handlers.RequestChangesRequest  true  "Feedback payload"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Notes required"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the order's student"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal transition or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/change-requests [post]
func (h *Handlers) RequestChanges(c *gin.Context) {
	var req RequestChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	o, err := h.orderSvc.RequestChanges(c.Request.Context(), userID(c), c.Param("id"), req.Notes, req.Files)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ProposeChange godoc
// @ID          proposeChange
// @Summary     Propose new order terms
// @Description Raises a super-worker proposal for a new word count or deadline. The order's terms, price, and earnings update immediately; the prior values are snapshotted so a rejection restores them.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
// @Param       body       body    handlers.ProposalRequest  true  "Proposal payload"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid proposal"
// @Failure     403  {object}  handlers.ErrorResponse  "Not bound to this order"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal transition or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/proposals [post]
func (h *Handlers) ProposeChange(c *gin.Context) {
	var req ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	o, err := h.orderSvc.ProposeChange(c.Request.Context(), userID(c), userRole(c), c.Param("id"), services.ProposalInput{
		Kind:         domain.ChangeKind(req.Kind),
		NewWordCount: req.NewWordCount,
		NewDeadline:  req.NewDeadline,
		Notes:        req.Notes,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// ResolveProposal godoc
// @ID          resolveProposal
// @Summary     Accept or reject the pending proposal
// @Description Resolves the pending word-count or deadline proposal on behalf of the order's student and returns the order to in_progress.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
// @Param       body       body    handlers.ProposalDecisionRequest  true  "Decision payload"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the order's student"
// @Failure     404  {object}  handlers.ErrorResponse  "Order or proposal not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal transition or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/proposals/decision [post]
func (h *Handlers) ResolveProposal(c *gin.Context) {
	var req ProposalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Accept == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "accept (true/false) required")
		return
	}
	o, err := h.orderSvc.ResolveProposal(c.Request.Context(), userID(c), c.Param("id"), *req.Accept)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// UploadFiles godoc
// @ID          uploadOrderFiles
// @Summary     Upload files for a workflow phase
// @Description Stores a batch of phase-tagged files and forces the order into the status the phase implies. Operators may send an empty batch for final_approved to promote the latest reviewed files.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Order ID"               example(aB3x9)
// @Param       body       body    handlers.UploadFilesRequest  true  "File batch"
//
// @Success     200  {object}  domain.Order
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid phase or empty batch"
// @Failure     403  {object}  handlers.ErrorResponse  "Role may not upload this phase"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Illegal transition or version conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/{id}/files [post]
func (h *Handlers) UploadFiles(c *gin.Context) {
	var req UploadFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	o, err := h.orderSvc.UploadFiles(c.Request.Context(), userID(c), userRole(c), c.Param("id"), services.UploadInput{
		Phase: domain.FilePhase(req.Phase),
		Files: req.Files,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}
