// Package notify renders and delivers in-app notifications. Delivery is
// append-only rows in the notifications table; rendering substitutes
// {placeholder} variables into a template text. Operators may override any
// built-in template by storing a row with the same template id; lookup
// falls back to the built-in text otherwise.
package notify

import "strings"

// Template ids. The workflow fan-out table and the service layer address
// templates by these keys; operator overrides are stored under the same ids.
const (
	TplNewOrderSubmission     = "new_order_submission"
	TplOrderSubmitted         = "order_submitted"
	TplSuperWorkerAssignment  = "super_worker_assignment"
	TplWorkerAssignment       = "worker_assignment"
	TplOrderInProgress        = "order_in_progress"
	TplDraftUpload            = "draft_upload"
	TplReviewUpload           = "review_upload"
	TplFinalPaymentApproval   = "final_payment_approval"
	TplFinalFilesReady        = "final_files_ready"
	TplOrderCompleted         = "order_completed"
	TplOrderCompletedAgent    = "order_completed_agent"
	TplOrderCompletedOperator = "order_completed_operator"
	TplChangeRequest          = "change_request"
	TplProposedChange         = "proposed_change"
	TplOrderDeclined          = "order_declined"
	TplOrderRefund            = "order_refund"
	TplStatusUpdate           = "status_update"
	TplUserRegistration       = "user_registration"
	TplRoleChange             = "role_change"
)

// Template is one notification template: the built-in defaults below, or an
// operator-stored override of the same id.
type Template struct {
	ID          string `json:"template_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Text        string `json:"template"`
}

// Defaults returns the built-in template set, keyed by template id. The map
// is rebuilt on every call so callers may overlay stored overrides freely.
func Defaults() map[string]Template {
	list := []Template{
		{
			ID:          TplNewOrderSubmission,
			Name:        "New order submission",
			Description: "Sent to operators when a student submits a new order.",
			Text:        "New order {order_id} submitted by {student_name}: {module_name}, {word_count} words, due {deadline}.",
		},
		{
			ID:          TplOrderSubmitted,
			Name:        "Order submitted",
			Description: "Payment instructions sent to the student after submission.",
			Text:        "Your order {order_id} has been received. Please complete the payment of {price} using reference {reference} to start processing.",
		},
		{
			ID:          TplSuperWorkerAssignment,
			Name:        "Super worker assignment",
			Description: "Sent to a super worker when an order is assigned to them.",
			Text:        "Order {order_id} ({module_name}, {word_count} words, due {deadline}) has been assigned to you.",
		},
		{
			ID:          TplWorkerAssignment,
			Name:        "Worker assignment",
			Description: "Sent to a worker when an order is assigned to them.",
			Text:        "You have been assigned order {order_id}: {module_name}, {word_count} words, due {deadline}.",
		},
		{
			ID:          TplOrderInProgress,
			Name:        "Order in progress",
			Description: "Sent to the student when work starts on their order.",
			Text:        "Work on your order {order_id} has started.",
		},
		{
			ID:          TplDraftUpload,
			Name:        "Draft uploaded",
			Description: "Sent to the super worker when a worker uploads a draft.",
			Text:        "A draft for order {order_id} has been uploaded and is awaiting your review.",
		},
		{
			ID:          TplReviewUpload,
			Name:        "Review uploaded",
			Description: "Sent to operators when reviewed files are ready for final approval.",
			Text:        "Reviewed files for order {order_id} are ready for final approval.",
		},
		{
			ID:          TplFinalPaymentApproval,
			Name:        "Final payment approval",
			Description: "Sent to the student when the order awaits the final payment.",
			Text:        "Your order {order_id} is ready. Please settle the remaining balance of {price} to receive the final files.",
		},
		{
			ID:          TplFinalFilesReady,
			Name:        "Final files ready",
			Description: "Sent to the student when the approved final files become available.",
			Text:        "The final files for your order {order_id} are now available.",
		},
		{
			ID:          TplOrderCompleted,
			Name:        "Order completed",
			Description: "Sent to the student when their order completes.",
			Text:        "Your order {order_id} has been completed. Thank you!",
		},
		{
			ID:          TplOrderCompletedAgent,
			Name:        "Order completed (agent)",
			Description: "Sent to the referring agent when an attributed order completes.",
			Text:        "Order {order_id} referred by you has been completed. Your commission of {agent_fee} has been recorded.",
		},
		{
			ID:          TplOrderCompletedOperator,
			Name:        "Order completed (operator)",
			Description: "Sent to operators when an order completes.",
			Text:        "Order {order_id} has been completed.",
		},
		{
			ID:          TplChangeRequest,
			Name:        "Change request",
			Description: "Sent to the super worker and operators when a student requests changes.",
			Text:        "Changes have been requested on order {order_id}: {notes}",
		},
		{
			ID:          TplProposedChange,
			Name:        "Proposed change",
			Description: "Sent to the student and operators when a super worker proposes new terms.",
			Text:        "A {change_type} change has been proposed for order {order_id}: {details}. New price: {new_price} (was {old_price}).",
		},
		{
			ID:          TplOrderDeclined,
			Name:        "Order declined",
			Description: "Sent to the student when their order is declined.",
			Text:        "Your order {order_id} has been declined.",
		},
		{
			ID:          TplOrderRefund,
			Name:        "Order refund",
			Description: "Sent to the student when their order is refunded.",
			Text:        "Your order {order_id} has been refunded.",
		},
		{
			ID:          TplStatusUpdate,
			Name:        "Status update",
			Description: "Generic status change notice.",
			Text:        "Order {order_id} status changed to {status}.",
		},
		{
			ID:          TplUserRegistration,
			Name:        "User registration",
			Description: "Sent to the code owner and operators when a new user registers.",
			Text:        "New user {user_name} registered with reference code {reference_code}.",
		},
		{
			ID:          TplRoleChange,
			Name:        "Role change",
			Description: "Sent to a user whose role was changed by an operator.",
			Text:        "Your account role has been changed to {role}.",
		},
	}

	out := make(map[string]Template, len(list))
	for _, tpl := range list {
		out[tpl.ID] = tpl
	}
	return out
}

// Render substitutes {name} placeholders in text with the given variables.
// Unknown placeholders are left verbatim; substitution is textual only.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
