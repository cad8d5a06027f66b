package service

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fathima-sithara/ticket-notification-service/internal/metrics"
	"github.com/fathima-sithara/ticket-notification-service/internal/model"
	"github.com/fathima-sithara/ticket-notification-service/internal/templates"
)

type TicketCreated struct {
	TicketID        string  `json:"ticketId" validate:"required"`
	TicketNumber    *int64  `json:"ticketNumber,omitempty"`
	Title           string  `json:"title,omitempty"`
	CreatedByUserID *string `json:"createdByUserId,omitempty"`
}

type TicketAssigned struct {
	TicketID       string  `json:"ticketId" validate:"required"`
	TicketNumber   *int64  `json:"ticketNumber,omitempty"`
	AssigneeUserID string  `json:"assigneeUserId" validate:"required"`
	ActorUserID    *string `json:"actorUserId,omitempty"`
}

type TicketStatusUpdated struct {
	TicketID     string  `json:"ticketId" validate:"required"`
	TicketNumber *int64  `json:"ticketNumber,omitempty"`
	OldStatus    string  `json:"oldStatus,omitempty"`
	NewStatus    string  `json:"newStatus" validate:"required"`
	ActorUserID  *string `json:"actorUserId,omitempty"`
}

type TicketNoteCreated struct {
	TicketID     string  `json:"ticketId" validate:"required"`
	TicketNumber *int64  `json:"ticketNumber,omitempty"`
	NotePreview  string  `json:"notePreview,omitempty"`
	ActorUserID  *string `json:"actorUserId,omitempty"`
}

// ticketContext is loaded once per event and shared by every recipient.
type ticketContext struct {
	ticket       *model.Ticket
	ticketNumber *int64
	vars         map[string]string
}

func (tc *ticketContext) with(extra map[string]string) map[string]string {
	out := make(map[string]string, len(tc.vars)+len(extra))
	for k, v := range tc.vars {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (s *NotificationService) loadTicketContext(ctx context.Context, ticketID string, number *int64, actorID *string) (*ticketContext, bool) {
	if ticketID == "" {
		return nil, false
	}
	t, err := s.directory.GetTicket(ctx, ticketID)
	if err != nil {
		s.log.Infow("ticket context unavailable, nothing to notify", "ticket_id", ticketID, "error", err)
		return nil, false
	}
	if number == nil {
		n := t.Number
		number = &n
	}
	var actorName string
	if actorID != nil && *actorID != "" {
		if u, err := s.directory.GetUser(ctx, *actorID); err == nil {
			actorName = u.DisplayName
		} else {
			s.log.Debugw("actor lookup failed", "user_id", *actorID, "error", err)
		}
	}
	return &ticketContext{
		ticket:       t,
		ticketNumber: number,
		vars: map[string]string{
			"ticketNumber":  strconv.FormatInt(*number, 10),
			"ticketSubject": t.Subject,
			"requesterName": t.RequesterName,
			"authorName":    actorName,
		},
	}, true
}

// NotifyTicketCreated notifies every user except the creator.
func (s *NotificationService) NotifyTicketCreated(ctx context.Context, ev TicketCreated) []*Created {
	tc, ok := s.loadTicketContext(ctx, ev.TicketID, ev.TicketNumber, ev.CreatedByUserID)
	if !ok {
		return nil
	}
	if ev.Title != "" {
		tc.vars["ticketSubject"] = ev.Title
	}
	users, err := s.directory.ListUserIDs(ctx)
	if err != nil {
		s.log.Warnw("list users failed, nothing to notify", "ticket_id", ev.TicketID, "error", err)
		return nil
	}
	recipients := recipientsExcept(users, ev.CreatedByUserID)
	return s.fanout(ctx, model.EventTicketCreated, recipients, s.paramsFor(tc, model.EventTicketCreated, ev.CreatedByUserID, nil))
}

// NotifyTicketAssigned notifies the new assignee unless they assigned
// themselves.
func (s *NotificationService) NotifyTicketAssigned(ctx context.Context, ev TicketAssigned) []*Created {
	if ev.AssigneeUserID == "" {
		return nil
	}
	if ev.ActorUserID != nil && *ev.ActorUserID == ev.AssigneeUserID {
		return nil
	}
	tc, ok := s.loadTicketContext(ctx, ev.TicketID, ev.TicketNumber, ev.ActorUserID)
	if !ok {
		return nil
	}
	return s.fanout(ctx, model.EventTicketAssigned, []string{ev.AssigneeUserID}, s.paramsFor(tc, model.EventTicketAssigned, ev.ActorUserID, nil))
}

// NotifyTicketStatusUpdated notifies the ticket's assignees except the
// actor.
func (s *NotificationService) NotifyTicketStatusUpdated(ctx context.Context, ev TicketStatusUpdated) []*Created {
	tc, ok := s.loadTicketContext(ctx, ev.TicketID, ev.TicketNumber, ev.ActorUserID)
	if !ok {
		return nil
	}
	extra := map[string]string{
		"oldStatus": HumanizeStatus(ev.OldStatus),
		"newStatus": HumanizeStatus(ev.NewStatus),
	}
	recipients := recipientsExcept(tc.ticket.AssigneeIDs, ev.ActorUserID)
	return s.fanout(ctx, model.EventTicketStatusUpdated, recipients, s.paramsFor(tc, model.EventTicketStatusUpdated, ev.ActorUserID, extra))
}

// NotifyTicketNoteCreated notifies the ticket's assignees except the note's
// author.
func (s *NotificationService) NotifyTicketNoteCreated(ctx context.Context, ev TicketNoteCreated) []*Created {
	tc, ok := s.loadTicketContext(ctx, ev.TicketID, ev.TicketNumber, ev.ActorUserID)
	if !ok {
		return nil
	}
	extra := map[string]string{
		"notePreview": templates.SanitizePreviewText(ev.NotePreview, templates.DefaultPreviewLength),
	}
	recipients := recipientsExcept(tc.ticket.AssigneeIDs, ev.ActorUserID)
	return s.fanout(ctx, model.EventTicketNoteCreated, recipients, s.paramsFor(tc, model.EventTicketNoteCreated, ev.ActorUserID, extra))
}

func (s *NotificationService) paramsFor(tc *ticketContext, t model.EventType, actor *string, extra map[string]string) func(string) CreateParams {
	vars := tc.with(extra)
	return func(userID string) CreateParams {
		return CreateParams{
			UserID:       userID,
			ActorUserID:  actor,
			Type:         t,
			EntityType:   model.EntityTicket,
			EntityID:     tc.ticket.ID,
			TicketNumber: tc.ticketNumber,
			Context:      vars,
		}
	}
}

// fanout runs CreateForUser for every recipient with bounded parallelism.
// A failing recipient is logged and does not affect the others.
func (s *NotificationService) fanout(ctx context.Context, t model.EventType, recipients []string, params func(string) CreateParams) []*Created {
	if len(recipients) == 0 {
		return nil
	}
	results := make([]*Created, len(recipients))
	var g errgroup.Group
	g.SetLimit(s.opts.FanoutConcurrency)
	for i, userID := range recipients {
		i, userID := i, userID
		g.Go(func() error {
			res, err := s.CreateForUser(ctx, params(userID))
			if err != nil {
				metrics.FanoutFailures.WithLabelValues(string(t)).Inc()
				s.log.Errorw("notification failed", "type", t, "user_id", userID, "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// recipientsExcept drops empty ids, duplicates and the excluded user.
func recipientsExcept(ids []string, exclude *string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] || (exclude != nil && id == *exclude) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// HumanizeStatus turns IN_PROGRESS into "In Progress".
func HumanizeStatus(status string) string {
	if status == "" {
		return ""
	}
	// a Caser keeps state, so one per call
	return cases.Title(language.Und).String(strings.ReplaceAll(strings.ToLower(status), "_", " "))
}
