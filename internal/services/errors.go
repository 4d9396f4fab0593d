// Package services defines the business logic for orders, pricing,
// notifications, users, and operator statistics. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Order-related errors.
var (
	// ErrOrderNotFound indicates that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidOrder is returned when a submission is missing required
	// fields (module name, positive word count, deadline).
	ErrInvalidOrder = errors.New("invalid order fields")

	// ErrUnknownStatus is returned when a transition names a status that is
	// not part of the workflow.
	ErrUnknownStatus = errors.New("unknown order status")

	// ErrIllegalTransition is returned when the acting role may not move the
	// order from its current status to the requested one.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrVersionConflict is returned when the order was modified concurrently
	// and the caller's snapshot is stale. The caller should reload and retry.
	ErrVersionConflict = errors.New("order version conflict")

	// ErrInvalidAssignee is returned when an assignment names a user that
	// does not hold the required role.
	ErrInvalidAssignee = errors.New("assignee does not hold the required role")

	// ErrEmptyNotes is returned when a change request carries no notes.
	ErrEmptyNotes = errors.New("notes are empty")

	// ErrInvalidProposal is returned when a proposal names an unknown kind
	// or omits the proposed new value.
	ErrInvalidProposal = errors.New("invalid proposal")

	// ErrNoProposal indicates there is no pending proposal to resolve on
	// the order.
	ErrNoProposal = errors.New("no pending proposal")

	// ErrInvalidPhase is returned when files are uploaded for a phase that
	// cannot be uploaded after submission.
	ErrInvalidPhase = errors.New("invalid file phase")

	// ErrNoFiles is returned when an upload carries no files and nothing
	// can be promoted from an earlier phase.
	ErrNoFiles = errors.New("no files to store")
)

// Access and account errors.
var (
	// ErrForbidden indicates the acting user may not perform the operation
	// on this resource.
	ErrForbidden = errors.New("operation not allowed for this user")

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownRole is returned when a role value is not one of the
	// marketplace roles.
	ErrUnknownRole = errors.New("unknown role")

	// ErrInvalidUser is returned when a registration is missing a name or
	// email.
	ErrInvalidUser = errors.New("invalid user fields")

	// ErrInvalidReferenceCode is returned when a registration code does not
	// exist.
	ErrInvalidReferenceCode = errors.New("invalid reference code")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateCode is returned when a reference code already exists.
	ErrDuplicateCode = errors.New("reference code already exists")
)

// Pricing and notification errors.
var (
	// ErrInvalidPricing is returned when a pricing configuration update has
	// empty tier tables or non-positive thresholds/prices.
	ErrInvalidPricing = errors.New("invalid pricing configuration")

	// ErrInvalidFee is returned when a fee override is negative.
	ErrInvalidFee = errors.New("invalid fee")

	// ErrEmptyMessage is returned when a broadcast carries no message body.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrUnknownTemplate is returned when a template override targets a
	// template id that is not built in.
	ErrUnknownTemplate = errors.New("unknown notification template")
)
