package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-intake/internal/config"
	"github.com/spec-kit/legal-intake/internal/events"
	"github.com/spec-kit/legal-intake/internal/mail"
)

// NotificationService turns domain events into outbound mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	renderer   *mail.Renderer
	sender     mail.Sender
	logger     *zap.Logger
	cfg        config.MailConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, renderer *mail.Renderer, sender mail.Sender, logger *zap.Logger, cfg config.MailConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		renderer:   renderer,
		sender:     sender,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketUrgencyChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventMessageAppended, n.logEvent)
}

type ticketMailData struct {
	TicketID   string
	ClientName string
	Email      string
	Phone      string
	Summary    string
	Urgency    string
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketSubmitted", zap.String("ticket_id", event.Subject), zap.String("urgency", string(payload.Urgency)))

	data := ticketMailData{
		TicketID:   event.Subject,
		ClientName: payload.ClientName,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Summary:    payload.Summary,
		Urgency:    string(payload.Urgency),
	}
	n.deliver(ctx, mail.TemplateTicketConfirmation, payload.Email, payload.ClientName, data)
	if strings.TrimSpace(n.cfg.LawyerEmail) != "" {
		n.deliver(ctx, mail.TemplateLawyerNotification, n.cfg.LawyerEmail, "", data)
	}
	return nil
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("UserRegistered", zap.String("user_id", event.Subject))
	n.deliver(ctx, mail.TemplateWelcome, payload.Email, payload.FullName, payload)
	return nil
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("subject", event.Subject),
		zap.String("actor", event.Actor.Identity),
		zap.Any("payload", event.Payload))
	return nil
}

// deliver never fails the caller; mail problems are only logged.
func (n *NotificationService) deliver(ctx context.Context, tmpl mail.TemplateName, to, toName string, data any) {
	if n.renderer == nil || n.sender == nil || strings.TrimSpace(to) == "" {
		return
	}
	msg, err := n.renderer.Render(tmpl, to, toName, data)
	if err != nil {
		n.logger.Error("render mail", zap.String("template", string(tmpl)), zap.Error(err))
		return
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("send mail", zap.String("template", string(tmpl)), zap.String("to", to), zap.Error(err))
	}
}
