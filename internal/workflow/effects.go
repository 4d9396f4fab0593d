package workflow

import (
	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/notify"
)

// Target names the party a notification effect is addressed to, relative to
// the order being transitioned. Targets with no bound user (e.g. an order
// without a worker yet) are skipped at dispatch time.
type Target string

const (
	TargetStudent     Target = "student"
	TargetAgent       Target = "agent"
	TargetWorker      Target = "worker"
	TargetSuperWorker Target = "super_worker"
	TargetOperator    Target = "operator"
)

// Effect is one notification to send after a transition commits: which
// template, to whom.
type Effect struct {
	Template string
	Target   Target
}

// effectsByStatus is the declarative fan-out table: reaching a status
// queues exactly these notifications. Every status has an entry so that a
// transition never silently drops its audience.
var effectsByStatus = map[domain.Status][]Effect{
	domain.StatusPaymentApproval: {
		{Template: notify.TplNewOrderSubmission, Target: TargetOperator},
		{Template: notify.TplOrderSubmitted, Target: TargetStudent},
	},
	domain.StatusAssignedToSuperWorker: {
		{Template: notify.TplSuperWorkerAssignment, Target: TargetSuperWorker},
		{Template: notify.TplStatusUpdate, Target: TargetStudent},
	},
	domain.StatusAssignedToWorker: {
		{Template: notify.TplWorkerAssignment, Target: TargetWorker},
		{Template: notify.TplStatusUpdate, Target: TargetStudent},
	},
	domain.StatusInProgress: {
		{Template: notify.TplOrderInProgress, Target: TargetStudent},
	},
	domain.StatusWorkerDraft: {
		{Template: notify.TplDraftUpload, Target: TargetSuperWorker},
		{Template: notify.TplStatusUpdate, Target: TargetOperator},
	},
	domain.StatusRequestedChanges: {
		{Template: notify.TplChangeRequest, Target: TargetSuperWorker},
		{Template: notify.TplChangeRequest, Target: TargetOperator},
	},
	domain.StatusFinalPaymentApproval: {
		{Template: notify.TplFinalPaymentApproval, Target: TargetStudent},
		{Template: notify.TplReviewUpload, Target: TargetOperator},
	},
	domain.StatusWordCountChange: {
		{Template: notify.TplProposedChange, Target: TargetStudent},
		{Template: notify.TplProposedChange, Target: TargetOperator},
	},
	domain.StatusDeadlineChange: {
		{Template: notify.TplProposedChange, Target: TargetStudent},
		{Template: notify.TplProposedChange, Target: TargetOperator},
	},
	domain.StatusDeclined: {
		{Template: notify.TplOrderDeclined, Target: TargetStudent},
		{Template: notify.TplStatusUpdate, Target: TargetOperator},
	},
	domain.StatusRefund: {
		{Template: notify.TplOrderRefund, Target: TargetStudent},
		{Template: notify.TplStatusUpdate, Target: TargetOperator},
	},
	domain.StatusCompleted: {
		{Template: notify.TplOrderCompleted, Target: TargetStudent},
		{Template: notify.TplOrderCompletedAgent, Target: TargetAgent},
		{Template: notify.TplOrderCompletedOperator, Target: TargetOperator},
	},
}

// Effects returns the notifications queued when an order reaches status.
// The returned slice is a copy; callers may append extra effects.
func Effects(status domain.Status) []Effect {
	src := effectsByStatus[status]
	out := make([]Effect, len(src))
	copy(out, src)
	return out
}
