// Package services – OrderService
//
// This file implements OrderService, the application-level component that
// owns the order lifecycle: submission with idempotent retry, role-scoped
// listings, status transitions, assignments, student change requests,
// super-worker proposals, and phase-tagged file uploads.
//
// Every mutation runs inside a transaction and goes through the versioned
// order update, so concurrent writers fail fast with a version conflict
// instead of silently overwriting each other. Notification fan-out happens
// after the transaction commits and is best-effort: a failed delivery never
// rolls back or fails the workflow operation that triggered it.
//
// Observability: public methods are OpenTelemetry-instrumented, and every
// committed status change increments the order_transitions_total counter.

package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-homework-backend/internal/cache"
	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/earnings"
	"github.com/tbourn/go-homework-backend/internal/notify"
	"github.com/tbourn/go-homework-backend/internal/pricing"
	"github.com/tbourn/go-homework-backend/internal/repo"
	"github.com/tbourn/go-homework-backend/internal/workflow"
)

// transitionsTotal counts committed status changes by edge.
var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Committed order status transitions by from/to status.",
	},
	[]string{"from", "to"},
)

// orderIDAlphabet is the character set for the short public order id.
const orderIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// orderIDAttempts bounds retries on short-id collisions.
const orderIDAttempts = 5

// errOrderIDExhausted is returned when id generation keeps colliding.
var errOrderIDExhausted = errors.New("could not allocate a unique order id")

// OrderService coordinates order persistence, pricing, the workflow state
// machine, and post-commit notification fan-out.
type OrderService struct {
	DB         *gorm.DB
	Pricing    *PricingService
	Dispatcher *notify.Dispatcher
	Cache      *cache.Cache
	Log        zerolog.Logger

	// ListTTL bounds cached role-scoped listings.
	ListTTL time.Duration
	// IdempotencyTTL is how long a submission's Idempotency-Key replays.
	IdempotencyTTL time.Duration
}

// SubmitOrderInput carries a student's order submission.
type SubmitOrderInput struct {
	ModuleName     string
	WordCount      int
	Deadline       time.Time
	Notes          string
	Files          []domain.FileRef
	IdempotencyKey string
}

// ProposalInput carries a super worker's word-count or deadline proposal.
type ProposalInput struct {
	Kind         domain.ChangeKind
	NewWordCount int
	NewDeadline  time.Time
	Notes        string
}

// UploadInput carries a batch of phase-tagged files.
type UploadInput struct {
	Phase domain.FilePhase
	Files []domain.FileRef
}

// OrderView is an order with its files and change-request history attached.
type OrderView struct {
	domain.Order
	Files          []domain.OrderFile     `json:"files"`
	ChangeRequests []domain.ChangeRequest `json:"change_requests"`
}

// Submit creates a new order for the student: derives the agent link from
// the student's referrer, snapshots the price and earnings split, stores the
// original files, and enters the workflow at payment approval.
//
// When an Idempotency-Key accompanies the submission, retries within the
// idempotency window return the originally created order without creating a
// second one.
func (s *OrderService) Submit(ctx context.Context, studentID string, in SubmitOrderInput) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", studentID),
			attribute.Int("word_count", in.WordCount),
		),
	)
	defer span.End()

	in.ModuleName = strings.TrimSpace(in.ModuleName)
	if in.ModuleName == "" || in.WordCount <= 0 || in.Deadline.IsZero() {
		return nil, ErrInvalidOrder
	}

	now := time.Now().UTC()
	if in.IdempotencyKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, studentID, in.IdempotencyKey, now); err == nil {
			return s.getOrder(ctx, rec.OrderID)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	student, err := repo.GetUser(ctx, s.DB, studentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// The agent link is derived from the referral chain, never supplied by
	// the client, and fixed for the order's lifetime.
	agentID := ""
	if student.ReferredBy != "" {
		referrer, err := repo.GetUser(ctx, s.DB, student.ReferredBy)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if referrer != nil && referrer.Role == domain.RoleAgent {
			agentID = referrer.ID
		}
	}

	tables, err := s.Pricing.Tables(ctx, agentID)
	if err != nil {
		return nil, err
	}
	price := pricing.Price(in.WordCount, in.Deadline, now, tables)

	agentRate, err := s.Pricing.AgentRate(ctx, agentID)
	if err != nil {
		return nil, err
	}
	// No super worker yet; the split starts from the global rate and is
	// recomputed on assignment.
	swRate, err := s.Pricing.SuperWorkerRate(ctx, "")
	if err != nil {
		return nil, err
	}
	split := earnings.Split(price, in.WordCount, agentRate, swRate)

	var order *domain.Order
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		id, err := newOrderID()
		if err != nil {
			return nil, err
		}
		o := &domain.Order{
			ID:         id,
			StudentID:  studentID,
			AgentID:    agentID,
			Status:     domain.StatusPaymentApproval,
			ModuleName: in.ModuleName,
			WordCount:  in.WordCount,
			Deadline:   in.Deadline,
			Notes:      in.Notes,
			Price:      price,
			Earnings:   split,
			Version:    1,
			CreatedAt:  now,
		}
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repo.CreateOrder(ctx, tx, o); err != nil {
				return err
			}
			files := make([]domain.OrderFile, 0, len(in.Files))
			for _, f := range in.Files {
				files = append(files, domain.OrderFile{
					OrderID:    id,
					Phase:      domain.PhaseStudentOriginal,
					Name:       f.Name,
					URL:        f.URL,
					UploadedBy: studentID,
				})
			}
			if err := repo.InsertOrderFiles(ctx, tx, files); err != nil {
				return err
			}
			if in.IdempotencyKey != "" {
				if _, err := repo.CreateIdempotency(ctx, tx, studentID, in.IdempotencyKey, id, http.StatusCreated, s.IdempotencyTTL); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, repo.ErrDuplicate) {
			// Either the short id collided or a concurrent submission won
			// the idempotency race. Prefer replaying the winner's order.
			if in.IdempotencyKey != "" {
				if rec, ierr := repo.GetIdempotency(ctx, s.DB, studentID, in.IdempotencyKey, time.Now().UTC()); ierr == nil {
					return s.getOrder(ctx, rec.OrderID)
				}
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		order = o
		break
	}
	if order == nil {
		return nil, errOrderIDExhausted
	}

	extra := map[string]string{"student_name": student.Name}
	s.afterMutation(ctx, order, workflow.Effects(domain.StatusPaymentApproval), extra)
	transitionsTotal.WithLabelValues("", string(domain.StatusPaymentApproval)).Inc()
	return order, nil
}

// ListForUser returns the orders visible to the user in the given role:
// everything for operators, otherwise the orders bound to the user through
// the role's assignment column. Results are cached per (role, user) and
// invalidated on every order mutation.
func (s *OrderService) ListForUser(ctx context.Context, userID string, role domain.Role) ([]OrderView, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("user.role", string(role)),
		),
	)
	defer span.End()

	key := cache.OrdersKey(string(role), userID)
	if v, ok := s.Cache.Get(key); ok {
		if views, ok := v.([]OrderView); ok {
			return views, nil
		}
	}

	var (
		orders []domain.Order
		err    error
	)
	switch role {
	case domain.RoleSuperAgent:
		orders, err = repo.ListOrders(ctx, s.DB)
	case domain.RoleStudent:
		orders, err = repo.ListOrdersByStudent(ctx, s.DB, userID)
	case domain.RoleAgent:
		orders, err = repo.ListOrdersByAgent(ctx, s.DB, userID)
	case domain.RoleWorker:
		orders, err = repo.ListOrdersByWorker(ctx, s.DB, userID)
	case domain.RoleSuperWorker:
		orders, err = repo.ListOrdersBySuperWorker(ctx, s.DB, userID)
	default:
		return nil, ErrUnknownRole
	}
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		view, err := s.attach(ctx, o)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	s.Cache.Set(key, views, s.ListTTL)
	return views, nil
}

// Get returns one order with its files and change requests, enforcing that
// the user is bound to it in the given role.
func (s *OrderService) Get(ctx context.Context, userID string, role domain.Role, orderID string) (*OrderView, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !boundToOrder(o, role, userID) {
		return nil, ErrForbidden
	}
	view, err := s.attach(ctx, *o)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Transition moves an order to a new status on behalf of the acting user.
// Legality comes from the workflow table; binding comes from the order's
// assignment columns. The write is versioned, so a concurrent change
// surfaces as ErrVersionConflict.
func (s *OrderService) Transition(ctx context.Context, actorID string, role domain.Role, orderID string, to domain.Status) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Transition",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("user.role", string(role)),
			attribute.String("order.to", string(to)),
		),
	)
	defer span.End()

	if !workflow.Known(to) {
		return nil, ErrUnknownStatus
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !boundToOrder(o, role, actorID) {
		return nil, ErrForbidden
	}
	if !workflow.CanTransition(role, o.Status, to) {
		return nil, ErrIllegalTransition
	}

	from := o.Status
	if err := s.applyVersioned(ctx, o, map[string]any{"status": to}); err != nil {
		return nil, err
	}
	o.Status = to

	transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.afterMutation(ctx, o, workflow.Effects(to), nil)
	return o, nil
}

// AssignSuperWorker binds a super worker to the order and recomputes the
// earnings split with that super worker's rate. Operator only.
func (s *OrderService) AssignSuperWorker(ctx context.Context, role domain.Role, orderID, superWorkerID string) (*domain.Order, error) {
	return s.assign(ctx, role, orderID, superWorkerID,
		domain.RoleSuperWorker, domain.StatusAssignedToSuperWorker, "super_worker_id")
}

// AssignWorker binds a worker to the order. Workers are paid outside the
// earnings split, so no recomputation happens. Operator only.
func (s *OrderService) AssignWorker(ctx context.Context, role domain.Role, orderID, workerID string) (*domain.Order, error) {
	return s.assign(ctx, role, orderID, workerID,
		domain.RoleWorker, domain.StatusAssignedToWorker, "worker_id")
}

func (s *OrderService) assign(ctx context.Context, role domain.Role, orderID, assigneeID string, wantRole domain.Role, to domain.Status, column string) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "assign",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.to", string(to)),
		),
	)
	defer span.End()

	if role != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanTransition(role, o.Status, to) {
		return nil, ErrIllegalTransition
	}
	assignee, err := repo.GetUser(ctx, s.DB, assigneeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if assignee.Role != wantRole {
		return nil, ErrInvalidAssignee
	}

	from := o.Status
	fields := map[string]any{"status": to, column: assigneeID}
	if wantRole == domain.RoleSuperWorker {
		swRate, err := s.Pricing.SuperWorkerRate(ctx, assigneeID)
		if err != nil {
			return nil, err
		}
		agentRate, err := s.Pricing.AgentRate(ctx, o.AgentID)
		if err != nil {
			return nil, err
		}
		o.Earnings = earnings.Split(o.Price, o.WordCount, agentRate, swRate)
		fields["earnings"] = marshalEarnings(o.Earnings)
	}
	if err := s.applyVersioned(ctx, o, fields); err != nil {
		return nil, err
	}
	o.Status = to
	if wantRole == domain.RoleSuperWorker {
		o.SuperWorkerID = assigneeID
	} else {
		o.WorkerID = assigneeID
	}

	transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.afterMutation(ctx, o, workflow.Effects(to), nil)
	return o, nil
}

// RequestChanges records student feedback against the order and moves it to
// requested changes. This is also the sole way to reopen a completed order.
func (s *OrderService) RequestChanges(ctx context.Context, studentID, orderID, notes string, files []domain.FileRef) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "RequestChanges",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("user.id", studentID),
		),
	)
	defer span.End()

	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrEmptyNotes
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StudentID != studentID {
		return nil, ErrForbidden
	}
	if !workflow.CanTransition(domain.RoleStudent, o.Status, domain.StatusRequestedChanges) {
		return nil, ErrIllegalTransition
	}

	from := o.Status
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cr := &domain.ChangeRequest{
			OrderID: o.ID,
			Kind:    domain.ChangeStudentFeedback,
			Notes:   notes,
			Files:   files,
		}
		if err := repo.CreateChangeRequest(ctx, tx, cr); err != nil {
			return err
		}
		return repo.UpdateOrderVersioned(ctx, tx, o.ID, o.Version, map[string]any{
			"status": domain.StatusRequestedChanges,
		})
	})
	if err != nil {
		return nil, mapOrderWriteErr(err)
	}
	o.Status = domain.StatusRequestedChanges
	o.Version++

	transitionsTotal.WithLabelValues(string(from), string(domain.StatusRequestedChanges)).Inc()
	s.afterMutation(ctx, o, workflow.Effects(domain.StatusRequestedChanges), map[string]string{"notes": notes})
	return o, nil
}

// ProposeChange raises a super-worker proposal for new terms. The order's
// word count or deadline, price, and earnings are updated immediately, with
// the prior values snapshotted on the change-request row so a rejection can
// restore them exactly.
func (s *OrderService) ProposeChange(ctx context.Context, actorID string, role domain.Role, orderID string, in ProposalInput) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "ProposeChange",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("proposal.kind", string(in.Kind)),
		),
	)
	defer span.End()

	var to domain.Status
	switch in.Kind {
	case domain.ChangeWordCountProposal:
		if in.NewWordCount <= 0 {
			return nil, ErrInvalidProposal
		}
		to = domain.StatusWordCountChange
	case domain.ChangeDeadlineProposal:
		if in.NewDeadline.IsZero() {
			return nil, ErrInvalidProposal
		}
		to = domain.StatusDeadlineChange
	default:
		return nil, ErrInvalidProposal
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !boundToOrder(o, role, actorID) {
		return nil, ErrForbidden
	}
	if !workflow.CanTransition(role, o.Status, to) {
		return nil, ErrIllegalTransition
	}

	newWordCount, newDeadline := o.WordCount, o.Deadline
	if in.Kind == domain.ChangeWordCountProposal {
		newWordCount = in.NewWordCount
	} else {
		newDeadline = in.NewDeadline
	}

	tables, err := s.Pricing.Tables(ctx, o.AgentID)
	if err != nil {
		return nil, err
	}
	newPrice := pricing.Price(newWordCount, newDeadline, time.Now().UTC(), tables)
	agentRate, err := s.Pricing.AgentRate(ctx, o.AgentID)
	if err != nil {
		return nil, err
	}
	swRate, err := s.Pricing.SuperWorkerRate(ctx, o.SuperWorkerID)
	if err != nil {
		return nil, err
	}
	newSplit := earnings.Split(newPrice, newWordCount, agentRate, swRate)

	from := o.Status
	oldPrice := o.Price
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cr := &domain.ChangeRequest{
			OrderID:       o.ID,
			Kind:          in.Kind,
			Notes:         in.Notes,
			NewWordCount:  in.NewWordCount,
			NewDeadline:   in.NewDeadline,
			PrevWordCount: o.WordCount,
			PrevDeadline:  o.Deadline,
			PrevPrice:     o.Price,
			PrevEarnings:  o.Earnings,
		}
		if err := repo.CreateChangeRequest(ctx, tx, cr); err != nil {
			return err
		}
		return repo.UpdateOrderVersioned(ctx, tx, o.ID, o.Version, map[string]any{
			"status":     to,
			"word_count": newWordCount,
			"deadline":   newDeadline,
			"price":      newPrice,
			"earnings":   marshalEarnings(newSplit),
		})
	})
	if err != nil {
		return nil, mapOrderWriteErr(err)
	}
	o.Status = to
	o.WordCount = newWordCount
	o.Deadline = newDeadline
	o.Price = newPrice
	o.Earnings = newSplit
	o.Version++

	transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.afterMutation(ctx, o, workflow.Effects(to), map[string]string{
		"change_type": changeTypeLabel(in.Kind),
		"details":     proposalDetails(in, o),
		"new_price":   fmt.Sprintf("%.2f", newPrice),
		"old_price":   fmt.Sprintf("%.2f", oldPrice),
	})
	return o, nil
}

// ResolveProposal accepts or rejects the pending proposal on the order and
// returns it to in progress. Acceptance keeps the already-applied values;
// rejection restores the snapshot taken when the proposal was raised.
func (s *OrderService) ResolveProposal(ctx context.Context, studentID, orderID string, accept bool) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "ResolveProposal",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.Bool("proposal.accept", accept),
		),
	)
	defer span.End()

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StudentID != studentID {
		return nil, ErrForbidden
	}
	if !workflow.CanTransition(domain.RoleStudent, o.Status, domain.StatusInProgress) {
		return nil, ErrIllegalTransition
	}

	fields := map[string]any{"status": domain.StatusInProgress}
	if !accept {
		cr, err := repo.LatestProposal(ctx, s.DB, o.ID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrNoProposal
			}
			return nil, err
		}
		fields["word_count"] = cr.PrevWordCount
		fields["deadline"] = cr.PrevDeadline
		fields["price"] = cr.PrevPrice
		fields["earnings"] = marshalEarnings(cr.PrevEarnings)
		o.WordCount = cr.PrevWordCount
		o.Deadline = cr.PrevDeadline
		o.Price = cr.PrevPrice
		o.Earnings = cr.PrevEarnings
	}

	from := o.Status
	if err := s.applyVersioned(ctx, o, fields); err != nil {
		return nil, err
	}
	o.Status = domain.StatusInProgress

	transitionsTotal.WithLabelValues(string(from), string(domain.StatusInProgress)).Inc()
	s.afterMutation(ctx, o, workflow.Effects(domain.StatusInProgress), nil)
	return o, nil
}

// UploadFiles stores a batch of files for a workflow phase and forces the
// order into the status that phase implies: drafts to worker draft, reviewed
// files to final payment approval, approved finals to completed.
//
// Operators may complete an order without re-uploading: an empty batch for
// the final phase promotes the latest reviewed (or draft) files to final.
func (s *OrderService) UploadFiles(ctx context.Context, actorID string, role domain.Role, orderID string, in UploadInput) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "UploadFiles",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("file.phase", string(in.Phase)),
			attribute.Int("file.count", len(in.Files)),
		),
	)
	defer span.End()

	forced := workflow.StatusForPhase(in.Phase)
	if forced == "" {
		return nil, ErrInvalidPhase
	}
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !boundToOrder(o, role, actorID) || !phaseAllowed(role, in.Phase) {
		return nil, ErrForbidden
	}
	statusChanged := o.Status != forced
	if statusChanged && !workflow.CanTransition(role, o.Status, forced) {
		return nil, ErrIllegalTransition
	}
	promote := len(in.Files) == 0 && in.Phase == domain.PhaseFinalApproved && role == domain.RoleSuperAgent
	if len(in.Files) == 0 && !promote {
		return nil, ErrNoFiles
	}

	from := o.Status
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if promote {
			n, err := repo.PromotePhaseFiles(ctx, tx, o.ID, domain.PhaseSuperWorkerReview, domain.PhaseFinalApproved)
			if err != nil {
				return err
			}
			if n == 0 {
				if n, err = repo.PromotePhaseFiles(ctx, tx, o.ID, domain.PhaseWorkerDraft, domain.PhaseFinalApproved); err != nil {
					return err
				}
			}
			if n == 0 {
				return ErrNoFiles
			}
		} else {
			if err := repo.SupersedePhaseFiles(ctx, tx, o.ID, in.Phase); err != nil {
				return err
			}
			files := make([]domain.OrderFile, 0, len(in.Files))
			for _, f := range in.Files {
				files = append(files, domain.OrderFile{
					OrderID:    o.ID,
					Phase:      in.Phase,
					Name:       f.Name,
					URL:        f.URL,
					UploadedBy: actorID,
				})
			}
			if err := repo.InsertOrderFiles(ctx, tx, files); err != nil {
				return err
			}
		}
		return repo.UpdateOrderVersioned(ctx, tx, o.ID, o.Version, map[string]any{
			"status": forced,
		})
	})
	if err != nil {
		return nil, mapOrderWriteErr(err)
	}
	o.Status = forced
	o.Version++

	if statusChanged {
		transitionsTotal.WithLabelValues(string(from), string(forced)).Inc()
	}
	effects := workflow.Effects(forced)
	if in.Phase == domain.PhaseFinalApproved {
		effects = append(effects, workflow.Effect{
			Template: notify.TplFinalFilesReady,
			Target:   workflow.TargetStudent,
		})
	}
	s.afterMutation(ctx, o, effects, nil)
	return o, nil
}

// --- internal helpers ---

// getOrder fetches an order, mapping the repository's not-found error to
// the service sentinel.
func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// attach loads the files and change requests belonging to an order.
func (s *OrderService) attach(ctx context.Context, o domain.Order) (OrderView, error) {
	files, err := repo.ListOrderFiles(ctx, s.DB, o.ID)
	if err != nil {
		return OrderView{}, err
	}
	crs, err := repo.ListChangeRequests(ctx, s.DB, o.ID)
	if err != nil {
		return OrderView{}, err
	}
	return OrderView{Order: o, Files: files, ChangeRequests: crs}, nil
}

// applyVersioned runs a versioned order update in its own transaction and
// bumps the in-memory version on success.
func (s *OrderService) applyVersioned(ctx context.Context, o *domain.Order, fields map[string]any) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.UpdateOrderVersioned(ctx, tx, o.ID, o.Version, fields)
	})
	if err != nil {
		return mapOrderWriteErr(err)
	}
	o.Version++
	return nil
}

// afterMutation runs the post-commit bookkeeping shared by every order
// write: cache invalidation and best-effort notification fan-out.
func (s *OrderService) afterMutation(ctx context.Context, o *domain.Order, effects []workflow.Effect, extra map[string]string) {
	s.Cache.DeletePrefix(cache.OrdersPrefix)
	if len(effects) == 0 {
		return
	}

	vars := map[string]string{
		"order_id":    o.ID,
		"module_name": o.ModuleName,
		"word_count":  strconv.Itoa(o.WordCount),
		"deadline":    o.Deadline.Format("2006-01-02"),
		"price":       fmt.Sprintf("%.2f", o.Price),
		"status":      notify.Humanize(string(o.Status)),
		"reference":   o.ID,
	}
	if o.Earnings.Agent != nil {
		vars["agent_fee"] = fmt.Sprintf("%.2f", *o.Earnings.Agent)
	}
	for k, v := range extra {
		vars[k] = v
	}

	for _, ef := range effects {
		if ef.Target == workflow.TargetOperator {
			operators, err := repo.ListUsersByRole(ctx, s.DB, domain.RoleSuperAgent)
			if err != nil {
				s.Log.Error().Err(err).Str("order_id", o.ID).Msg("operator lookup for fan-out failed")
				continue
			}
			for _, op := range operators {
				s.Dispatcher.Notify(ctx, ef.Template, vars, op.ID, o.ID)
			}
			continue
		}
		s.Dispatcher.Notify(ctx, ef.Template, vars, targetUserID(o, ef.Target), o.ID)
	}
	s.Cache.DeletePrefix(cache.NotificationsPrefix)
}

// targetUserID resolves an effect target to the bound user, or "" when the
// order has nobody in that seat yet (the dispatcher skips empty recipients).
func targetUserID(o *domain.Order, t workflow.Target) string {
	switch t {
	case workflow.TargetStudent:
		return o.StudentID
	case workflow.TargetAgent:
		return o.AgentID
	case workflow.TargetWorker:
		return o.WorkerID
	case workflow.TargetSuperWorker:
		return o.SuperWorkerID
	}
	return ""
}

// boundToOrder reports whether the user occupies the order seat their role
// implies. Operators are bound to every order.
func boundToOrder(o *domain.Order, role domain.Role, userID string) bool {
	switch role {
	case domain.RoleSuperAgent:
		return true
	case domain.RoleStudent:
		return o.StudentID == userID
	case domain.RoleAgent:
		return o.AgentID == userID
	case domain.RoleWorker:
		return o.WorkerID == userID
	case domain.RoleSuperWorker:
		return o.SuperWorkerID == userID
	}
	return false
}

// phaseAllowed reports whether the role may upload files of the phase.
func phaseAllowed(role domain.Role, phase domain.FilePhase) bool {
	switch role {
	case domain.RoleSuperAgent:
		return true
	case domain.RoleWorker:
		return phase == domain.PhaseWorkerDraft
	case domain.RoleSuperWorker:
		return phase == domain.PhaseSuperWorkerReview
	}
	return false
}

// mapOrderWriteErr converts repository write errors to service sentinels.
func mapOrderWriteErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrVersionConflict):
		return ErrVersionConflict
	case errors.Is(err, repo.ErrNotFound):
		return ErrOrderNotFound
	}
	return err
}

// marshalEarnings serializes the split for a column-level update, matching
// the JSON serializer used on the model field.
func marshalEarnings(e domain.Earnings) string {
	b, _ := json.Marshal(e)
	return string(b)
}

// changeTypeLabel renders a proposal kind for notification text.
func changeTypeLabel(kind domain.ChangeKind) string {
	if kind == domain.ChangeWordCountProposal {
		return "word count"
	}
	return "deadline"
}

// proposalDetails renders the old -> new values for notification text. The
// order already carries the proposed values when this runs.
func proposalDetails(in ProposalInput, o *domain.Order) string {
	if in.Kind == domain.ChangeWordCountProposal {
		return fmt.Sprintf("%d words", o.WordCount)
	}
	return o.Deadline.Format("2006-01-02")
}

// newOrderID draws a 5-character id from the order alphabet.
func newOrderID() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = orderIDAlphabet[int(b)%len(orderIDAlphabet)]
	}
	return string(buf), nil
}
