// Package workflow defines the order state machine: which statuses exist,
// which role may move an order between which statuses, and which
// notifications fan out when a status is reached. The tables here are pure
// data; the service layer applies them inside transactions.
package workflow

import (
	"github.com/tbourn/go-homework-backend/internal/domain"
)

// Statuses lists every order status in rough lifecycle order.
var Statuses = []domain.Status{
	domain.StatusPaymentApproval,
	domain.StatusAssignedToSuperWorker,
	domain.StatusAssignedToWorker,
	domain.StatusInProgress,
	domain.StatusWorkerDraft,
	domain.StatusRequestedChanges,
	domain.StatusFinalPaymentApproval,
	domain.StatusWordCountChange,
	domain.StatusDeadlineChange,
	domain.StatusDeclined,
	domain.StatusRefund,
	domain.StatusCompleted,
}

// Known reports whether s is a recognized order status.
func Known(s domain.Status) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s ends the workflow. A completed order admits
// one exception, handled in CanTransition: the student may still request
// changes on it.
func IsTerminal(s domain.Status) bool {
	switch s {
	case domain.StatusDeclined, domain.StatusRefund, domain.StatusCompleted:
		return true
	}
	return false
}

// proposalSource reports whether a super worker may raise a word-count or
// deadline proposal while the order sits in s.
func proposalSource(s domain.Status) bool {
	switch s {
	case domain.StatusAssignedToSuperWorker,
		domain.StatusAssignedToWorker,
		domain.StatusInProgress,
		domain.StatusWorkerDraft:
		return true
	}
	return false
}

// CanTransition reports whether role may move an order from one status to
// another.
//
// Operators (super agents) may set any known status on a non-terminal
// order. Super workers resume work after requested changes, send drafts to
// final payment approval, and raise proposals from active states. Students
// resolve proposals and request changes on in-progress or completed
// orders. Workers only move assigned work into the draft state.
func CanTransition(role domain.Role, from, to domain.Status) bool {
	if !Known(from) || !Known(to) {
		return false
	}
	if IsTerminal(from) {
		// The sole exit from a terminal state: a student reopening a
		// completed order with a change request.
		return role == domain.RoleStudent &&
			from == domain.StatusCompleted &&
			to == domain.StatusRequestedChanges
	}

	switch role {
	case domain.RoleSuperAgent:
		return true

	case domain.RoleSuperWorker:
		if from == domain.StatusRequestedChanges && to == domain.StatusInProgress {
			return true
		}
		if from == domain.StatusWorkerDraft && to == domain.StatusFinalPaymentApproval {
			return true
		}
		if (to == domain.StatusWordCountChange || to == domain.StatusDeadlineChange) && proposalSource(from) {
			return true
		}

	case domain.RoleStudent:
		if (from == domain.StatusWordCountChange || from == domain.StatusDeadlineChange) &&
			to == domain.StatusInProgress {
			return true
		}
		if from == domain.StatusInProgress && to == domain.StatusRequestedChanges {
			return true
		}

	case domain.RoleWorker:
		if (from == domain.StatusAssignedToWorker || from == domain.StatusInProgress) &&
			to == domain.StatusWorkerDraft {
			return true
		}
	}
	return false
}

// StatusForPhase returns the status an order is forced into when files of
// the given phase are uploaded, or "" when uploads of that phase do not
// move the order (student originals are attached at submission).
func StatusForPhase(p domain.FilePhase) domain.Status {
	switch p {
	case domain.PhaseWorkerDraft:
		return domain.StatusWorkerDraft
	case domain.PhaseSuperWorkerReview:
		return domain.StatusFinalPaymentApproval
	case domain.PhaseFinalApproved:
		return domain.StatusCompleted
	}
	return ""
}
