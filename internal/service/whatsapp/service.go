package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/config"
	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/service/commands"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	client "github.com/mamadbah2/pricecheck/pkg/clients/whatsapp"
)

// SessionPrefix namespaces WhatsApp sessions in the shared registry.
const SessionPrefix = "wa:"

const replyTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
}

// Sessions resolves the comparison session of a sender.
type Sessions interface {
	GetOrCreate(id string) *comparison.Session
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	sessions   Sessions
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, sessions Sessions, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	if len(payload.Entry) == 0 {
		return nil
	}

	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.Body()
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	session := s.sessions.GetOrCreate(SessionPrefix + msg.From)

	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Int("args", len(cmd.Args)))

	reply, err := s.dispatcher.HandleCommand(ctx, session, cmd)
	if err != nil {
		s.logger.Debug("command rejected", zap.String("command", string(cmd.Type)), zap.Error(err))
		reply = commands.Describe(err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	if buttons := followUpButtons(cmd.Type, err); len(buttons) > 0 {
		_, err = s.client.SendButtonMessage(ctxWithTimeout, client.SendButtonMessageRequest{
			To:      msg.From,
			Body:    reply,
			Buttons: buttons,
		})
		return err
	}

	_, err = s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   msg.From,
		Body: reply,
	})
	return err
}

// followUpButtons offers the next step of a two-phase delete as reply buttons.
func followUpButtons(cmd models.CommandType, err error) []client.Button {
	if err != nil {
		return nil
	}
	switch cmd {
	case models.CommandDelete:
		return []client.Button{
			{ID: "/confirm", Title: "Delete"},
			{ID: "/keep", Title: "Keep"},
		}
	case models.CommandConfirm:
		return []client.Button{{ID: "/undo", Title: "Undo"}}
	default:
		return nil
	}
}

// ShareSink sends exported lists to a fixed WhatsApp recipient.
type ShareSink struct {
	client client.Client
	to     string
}

// NewShareSink builds a sink that messages to.
func NewShareSink(client client.Client, to string) *ShareSink {
	return &ShareSink{client: client, to: to}
}

// Send implements export.Sink.
func (s *ShareSink) Send(ctx context.Context, snapshot models.ExportSnapshot) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   s.to,
		Body: snapshot.Text,
	})
	return err
}
