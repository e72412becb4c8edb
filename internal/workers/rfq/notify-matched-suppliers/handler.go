package notifymatchedsuppliers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/aws"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/camunda"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/errors"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/pkg/registry"
)

const (
	TaskType = "notify-matched-suppliers"
)

type EmailSender interface {
	Send(ctx context.Context, email aws.Email) (string, error)
}

type ConciergePublisher interface {
	Publish(ctx context.Context, subject, message string, attrs map[string]string) (string, error)
}

type Handler struct {
	config     *Config
	mailer     EmailSender
	concierge  ConciergePublisher
	activity   *registry.Activity
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the worker. mailer and concierge may be nil when the
// matching channel is disabled.
func NewHandler(config *Config, mailer EmailSender, concierge ConciergePublisher, log logger.Logger) *Handler {
	activity, _ := registry.MustDefault().Find(TaskType)
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		mailer:     mailer,
		concierge:  concierge,
		activity:   activity,
		errHandler: errors.NewErrorHandler(scoped),
		logger:     scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, errors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidRequestError("input cannot be nil")
	}

	result, err := h.activity.ValidateInput(input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewSchemaValidationFailedError(result.Summary())
	}

	output := &Output{Notifications: []models.Notification{}}
	var concierge []models.MatchResult
	seen := make(map[string]bool)

	for _, m := range input.Matches {
		if seen[m.SupplierID] {
			continue
		}
		seen[m.SupplierID] = true

		if m.RoutingTarget != models.RouteSupplier {
			concierge = append(concierge, m)
			continue
		}
		n := h.inviteSupplier(ctx, input, m)
		switch n.Status {
		case StatusSent:
			output.EmailsSent++
		case StatusFailed:
			output.EmailsFailed++
		}
		output.Notifications = append(output.Notifications, n)
	}

	if output.EmailsFailed > 0 && output.EmailsSent == 0 {
		return nil, errors.NewNotificationSendFailedError(ChannelEmail,
			fmt.Errorf("all %d supplier invitations failed", output.EmailsFailed)).
			WithMetadata("rfqId", input.RFQID)
	}

	// An RFQ nobody can serve directly goes to the concierge desk too.
	if len(concierge) > 0 || len(input.Matches) == 0 {
		n, messageID, err := h.notifyConcierge(ctx, input, concierge)
		if err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelConcierge, err).
				WithMetadata("rfqId", input.RFQID)
		}
		output.Notifications = append(output.Notifications, n)
		output.ConciergeNotified = n.Status == StatusSent
		output.ConciergeMessageID = messageID
	}

	h.logger.Info("rfq notifications dispatched", map[string]interface{}{
		"rfqId":             input.RFQID,
		"emailsSent":        output.EmailsSent,
		"emailsFailed":      output.EmailsFailed,
		"conciergeNotified": output.ConciergeNotified,
	})
	return output, nil
}

func (h *Handler) inviteSupplier(ctx context.Context, input *Input, m models.MatchResult) models.Notification {
	n := models.Notification{
		ID:          uuid.New().String(),
		RFQID:       input.RFQID,
		RecipientID: m.SupplierID,
		Channel:     ChannelEmail,
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	}

	switch {
	case !h.config.EmailEnabled || h.mailer == nil:
		n.Status = StatusDisabled
		return n
	case m.SupplierEmail == "":
		h.logger.Warn("supplier has no email", map[string]interface{}{"supplierId": m.SupplierID})
		n.Status = StatusSkipped
		return n
	}

	subject, text, html, err := h.renderInvitation(input, m)
	if err != nil {
		h.logger.Error("render invitation failed", map[string]interface{}{"supplierId": m.SupplierID, "error": err})
		n.Status = StatusFailed
		return n
	}

	if _, err := h.mailer.Send(ctx, aws.Email{To: m.SupplierEmail, Subject: subject, TextBody: text, HTMLBody: html}); err != nil {
		h.logger.Error("email send failed", map[string]interface{}{
			"supplierId": m.SupplierID,
			"error":      err,
		})
		n.Status = StatusFailed
		return n
	}
	n.Status = StatusSent
	return n
}

func (h *Handler) notifyConcierge(ctx context.Context, input *Input, matches []models.MatchResult) (models.Notification, string, error) {
	n := models.Notification{
		ID:          uuid.New().String(),
		RFQID:       input.RFQID,
		RecipientID: ChannelConcierge,
		Channel:     ChannelConcierge,
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if !h.config.ConciergeEnabled || h.concierge == nil {
		n.Status = StatusDisabled
		return n, "", nil
	}

	msg := conciergeMessage{
		RFQID:          input.RFQID,
		ProjectName:    input.ProjectName,
		ProjectAddress: input.ProjectAddress,
		Reason:         "concierge_routed",
		Matches:        make([]conciergeSupplier, 0, len(matches)),
	}
	if len(input.Matches) == 0 {
		msg.Reason = "no_matches"
	}
	for _, m := range matches {
		msg.Matches = append(msg.Matches, conciergeSupplier{
			SupplierID:    m.SupplierID,
			SupplierName:  m.SupplierName,
			ProductID:     m.ProductID,
			Score:         m.Score,
			Tier:          m.Tier,
			DistanceMiles: m.DistanceMiles,
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return n, "", fmt.Errorf("encode concierge message: %w", err)
	}

	messageID, err := h.concierge.Publish(ctx, snsSubject("RFQ needs concierge: "+projectTitle(input)), string(payload), map[string]string{
		"rfqId":  input.RFQID,
		"reason": msg.Reason,
	})
	if err != nil {
		return n, "", err
	}
	n.Status = StatusSent
	return n, messageID, nil
}

// snsSubject trims to the 100 characters SNS accepts.
func snsSubject(s string) string {
	r := []rune(s)
	if len(r) > 100 {
		return string(r[:100])
	}
	return s
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
