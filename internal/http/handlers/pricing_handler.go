// Pricing HTTP handlers.
//
// This file exposes REST endpoints for the pricing configuration:
//   - GET    /pricing/quote               (price an order without creating it)
//   - GET    /pricing/settings            (global tier tables and default rates)
//   - PUT    /pricing/settings            (replace global configuration)
//   - GET    /pricing/agents/{id}/tiers   (per-agent word-tier override)
//   - PUT    /pricing/agents/{id}/tiers   (replace per-agent override)
//   - GET    /fees/super-workers          (fee override listing)
//   - PUT    /fees/super-workers/{id}     (set one override)
//   - GET    /fees/agents                 (fee override listing)
//   - PUT    /fees/agents/{id}            (set one override)
//
// Everything except the quote is operator-only; the service layer enforces it.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/utils"
)

//
// DTOs
//

// QuoteResponse is the priced result of a quote query.
type QuoteResponse struct {
	WordCount int       `json:"word_count" example:"1500"`
	Deadline  time.Time `json:"deadline"`
	Price     float64   `json:"price" example:"80"`
}

// SavePricingSettingsRequest is the JSON payload for replacing the global
// pricing configuration.
type SavePricingSettingsRequest struct {
	// WordTiers maps a word-count threshold to the base price of every order
	// at or under it.
	WordTiers map[int]float64 `json:"word_tiers" binding:"required"`
	// DeadlineTiers maps a days-until-deadline bound to its urgency surcharge.
	DeadlineTiers map[int]float64 `json:"deadline_tiers" binding:"required"`
	// AgentFee is the default agent commission per 500 words.
	AgentFee float64 `json:"agent_fee" example:"5"`
	// SuperWorkerFee is the default super-worker rate per 500 words.
	SuperWorkerFee float64 `json:"super_worker_fee" example:"10"`
}

// SaveAgentTiersRequest is the JSON payload for a per-agent word-tier
// override.
type SaveAgentTiersRequest struct {
	WordTiers map[int]float64 `json:"word_tiers" binding:"required"`
}

// SetFeeRequest is the JSON payload for setting one fee override.
type SetFeeRequest struct {
	FeePer500 *float64 `json:"fee_per_500" binding:"required" example:"12.5"`
}

//
// Handlers
//

// Quote godoc
// @ID          quoteOrder
// @Summary     Price an order without creating it
// @Description Returns the price for a word count and deadline, using the agent's word-tier override when agent_id is given.
// @Tags        Pricing
// @Produce     json
//
// @Param       word_count  query  int     true   "Word count"                example(1500)
// @Param       deadline    query  string  true   "Deadline (RFC 3339)"       example(2025-10-01T00:00:00Z)
// @Param       agent_id    query  string  false  "Agent whose tiers apply"
//
// @Success     200  {object}  handlers.QuoteResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /pricing/quote [get]
func (h *Handlers) Quote(c *gin.Context) {
	wordCount := utils.AtoiDefault(c.Query("word_count"), 0)
	deadline, err := time.Parse(time.RFC3339, c.Query("deadline"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deadline must be RFC 3339")
		return
	}

	price, err := h.pricingSvc.Quote(c.Request.Context(), c.Query("agent_id"), wordCount, deadline)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, QuoteResponse{WordCount: wordCount, Deadline: deadline, Price: price})
}

// GetPricingSettings godoc
// @ID          getPricingSettings
// @Summary     Get the global pricing configuration
// @Description Returns the word tier table, deadline surcharge bands, and default fee rates.
// @Tags        Pricing
// @Produce     json
//
// @Success     200  {object}  domain.PricingSettings
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /pricing/settings [get]
func (h *Handlers) GetPricingSettings(c *gin.Context) {
	ps, err := h.pricingSvc.Settings(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, ps)
}

// SavePricingSettings godoc
// @ID          savePricingSettings
// @Summary     Replace the global pricing configuration
// @Description Replaces the tier tables and default rates. Operator only. Existing orders keep their snapshotted prices.
// @Tags        Pricing
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SavePricingSettingsRequest  true  "New configuration"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid tier table"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /pricing/settings [put]
func (h *Handlers) SavePricingSettings(c *gin.Context) {
	var req SavePricingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.pricingSvc.SaveSettings(c.Request.Context(), userRole(c), &domain.PricingSettings{
		ID:             domain.PricingSettingsID,
		WordTiers:      req.WordTiers,
		DeadlineTiers:  req.DeadlineTiers,
		AgentFee:       req.AgentFee,
		SuperWorkerFee: req.SuperWorkerFee,
	})
	if err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// GetAgentTiers godoc
// @ID          getAgentTiers
// @Summary     Get an agent's word-tier override
// @Description Returns the agent's word-tier table, or 404 when the agent uses the global tiers. Operator only.
// @Tags        Pricing
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Agent ID"
//
// @Success     200  {object}  domain.AgentPricing
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     404  {object}  handlers.ErrorResponse  "No override for this agent"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /pricing/agents/{id}/tiers [get]
func (h *Handlers) GetAgentTiers(c *gin.Context) {
	ap, err := h.pricingSvc.AgentTiers(c.Request.Context(), userRole(c), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	if ap == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "agent uses the global tiers")
		return
	}
	ok(c, http.StatusOK, ap)
}

// SaveAgentTiers godoc
// @ID          saveAgentTiers
// @Summary     Replace an agent's word-tier override
// @Description Replaces the word-tier table used for orders attributed to this agent. Operator only.
// @Tags        Pricing
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Agent ID"
// @Param       body       body    handlers.SaveAgentTiersRequest  true  "Word tiers"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid tier table"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /pricing/agents/{id}/tiers [put]
func (h *Handlers) SaveAgentTiers(c *gin.Context) {
	var req SaveAgentTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.pricingSvc.SaveAgentTiers(c.Request.Context(), userRole(c), c.Param("id"), req.WordTiers); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListSuperWorkerFees godoc
// @ID          listSuperWorkerFees
// @Summary     List super-worker fee overrides
// @Description Returns every per-super-worker fee override. Operator only.
// @Tags        Fees
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {array}   domain.SuperWorkerFee
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /fees/super-workers [get]
func (h *Handlers) ListSuperWorkerFees(c *gin.Context) {
	fees, err := h.pricingSvc.SuperWorkerFees(c.Request.Context(), userRole(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, fees)
}

// SetSuperWorkerFee godoc
// @ID          setSuperWorkerFee
// @Summary     Set a super worker's fee
// @Description Creates or updates the super worker's rate per 500 words. Operator only. Existing orders keep their snapshotted earnings.
// @Tags        Fees
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Super worker ID"
// @Param       body       body    handlers.SetFeeRequest  true  "Fee payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Negative fee"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /fees/super-workers/{id} [put]
func (h *Handlers) SetSuperWorkerFee(c *gin.Context) {
	var req SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FeePer500 == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fee_per_500 required")
		return
	}
	if err := h.pricingSvc.SetSuperWorkerFee(c.Request.Context(), userRole(c), c.Param("id"), *req.FeePer500); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListAgentFees godoc
// @ID          listAgentFees
// @Summary     List agent fee overrides
// @Description Returns every per-agent commission override. Operator only.
// @Tags        Fees
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {array}   domain.AgentFee
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /fees/agents [get]
func (h *Handlers) ListAgentFees(c *gin.Context) {
	fees, err := h.pricingSvc.AgentFees(c.Request.Context(), userRole(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, fees)
}

// SetAgentFee godoc
// @ID          setAgentFee
// @Summary     Set an agent's commission
// @Description Creates or updates the agent's commission per 500 words. Operator only. Existing orders keep their snapshotted earnings.
// @Tags        Fees
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Agent ID"
// @Param       body       body    handlers.SetFeeRequest  true  "Fee payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Negative fee"
// @Failure     403  {object}  handlers.ErrorResponse  "Operator only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /fees/agents/{id} [put]
func (h *Handlers) SetAgentFee(c *gin.Context) {
	var req SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FeePer500 == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fee_per_500 required")
		return
	}
	if err := h.pricingSvc.SetAgentFee(c.Request.Context(), userRole(c), c.Param("id"), *req.FeePer500); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
