package service

import (
	"context"
	"time"

	"plata-bot/internal/dto"
	"plata-bot/internal/models"

	"go.uber.org/zap"
)

// linkResolver and ledgerPoster are the slices of LinkService and
// LedgerService the inbound pipeline needs.
type linkResolver interface {
	Resolve(ctx context.Context, address string) (*Resolution, error)
	ReissueOTP(ctx context.Context, link *models.IdentityLink) error
}

type ledgerPoster interface {
	PostMovement(ctx context.Context, in PostMovementInput) (*MovementResult, error)
	PostTransfer(ctx context.Context, in PostTransferInput) (*TransferResult, error)
}

// WebhookService runs the inbound pipeline: identity gate, parse, post,
// session bookkeeping, reply. Every reply goes out through the notifier as a
// fire-and-forget send; delivery failures are logged and never fail the
// webhook delivery itself, since the channel retries on error and the ledger
// is idempotent per external event id.
type WebhookService struct {
	links      linkResolver
	ledger     ledgerPoster
	parser     *CommandParser
	sessions   *SessionManager
	composer   MessageComposer
	notifier   Notifier
	inactivity time.Duration
	logger     *zap.Logger
}

func NewWebhookService(
	links linkResolver,
	ledger ledgerPoster,
	parser *CommandParser,
	sessions *SessionManager,
	composer MessageComposer,
	notifier Notifier,
	inactivity time.Duration,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		links:      links,
		ledger:     ledger,
		parser:     parser,
		sessions:   sessions,
		composer:   composer,
		notifier:   notifier,
		inactivity: inactivity,
		logger:     logger,
	}
}

// HandleInbound processes one delivered channel message end to end.
func (s *WebhookService) HandleInbound(ctx context.Context, msg *dto.InboundMessageRequest) error {
	address := msg.SenderAddress

	res, err := s.links.Resolve(ctx, address)
	if err != nil {
		s.logger.Error("link resolution failed", zap.String("address", address), zap.Error(err))
		s.reply(address, s.composer.ErrorText(err))
		return err
	}

	switch res.Status {
	case models.LinkStatusNotAssociated:
		s.reply(address, s.composer.LinkInstructions())
		return nil
	case models.LinkStatusPending:
		if err := s.links.ReissueOTP(ctx, res.Link); err != nil {
			s.logger.Error("otp reissue failed", zap.String("address", address), zap.Error(err))
			s.reply(address, s.composer.ErrorText(err))
			return err
		}
		s.reply(address, s.composer.OTPSent())
		return nil
	}

	isNew := s.sessions.OnMessage(address)

	if s.parser.IsCloseIntent(msg.Text) {
		s.sessions.End(address)
		s.reply(address, s.composer.SessionClosed())
		return nil
	}

	text, err := s.respond(ctx, res, msg, isNew)
	if err != nil {
		// Transient failure: no reply, surface the error so the channel
		// redelivers. The idempotency key keeps the retry from
		// double-posting.
		s.logger.Error("inbound command failed", zap.String("address", address), zap.Error(err))
		return err
	}
	s.reply(address, text)

	s.sessions.ScheduleClose(address, s.inactivity, func() {
		s.reply(address, s.composer.SessionExpired())
	})
	return nil
}

// respond computes the reply for a verified sender's message. Ledger
// rejections come back as reply text; anything else is a retryable error.
func (s *WebhookService) respond(ctx context.Context, res *Resolution, msg *dto.InboundMessageRequest, isNew bool) (string, error) {
	if s.parser.IsGreeting(msg.Text) {
		return s.composer.Greeting(), nil
	}

	cmd := s.parser.Parse(msg.Text)
	switch {
	case cmd == nil:
		if s.parser.IsContinueIntent(msg.Text) {
			return s.composer.ContinuePrompt(), nil
		}
		if isNew {
			return s.composer.Greeting(), nil
		}
		return s.composer.Unknown(), nil

	case cmd.Kind == CommandHelp:
		return s.composer.Help(), nil

	case cmd.Kind == CommandTransfer:
		// Transfers carry no idempotency key: the chat surface is the only
		// at-least-once entry point for them today, accepted as-is.
		result, err := s.ledger.PostTransfer(ctx, PostTransferInput{
			UserID:          res.UserID,
			SourceAccountID: cmd.SourceAccountID,
			DestAccountID:   cmd.DestAccountID,
			Amount:          cmd.Amount,
			Memo:            cmd.Memo,
			Origin:          models.MovementOriginImported,
		})
		if err != nil {
			if !IsLedgerRejection(err) {
				return "", err
			}
			s.logger.Warn("transfer command rejected", zap.Error(err))
			return s.composer.ErrorText(err), nil
		}
		return s.composer.TransferConfirmation(
			result.Out.Amount, cmd.SourceAccountID, cmd.DestAccountID,
			result.SourceBalance, result.DestBalance,
		), nil

	default:
		movementType := models.MovementTypeIncome
		if cmd.Kind == CommandExpense {
			movementType = models.MovementTypeExpense
		}
		result, err := s.ledger.PostMovement(ctx, PostMovementInput{
			UserID:          res.UserID,
			Type:            movementType,
			AccountID:       cmd.AccountID,
			CategoryID:      cmd.CategoryID,
			Amount:          cmd.Amount,
			Memo:            cmd.Memo,
			Origin:          models.MovementOriginImported,
			ExternalEventID: msg.ExternalEventID,
		})
		if err != nil {
			if !IsLedgerRejection(err) {
				return "", err
			}
			s.logger.Warn("movement command rejected", zap.Error(err))
			return s.composer.ErrorText(err), nil
		}
		if result.AlreadyProcessed {
			return s.composer.DuplicateNotice(result.Movement), nil
		}
		return s.composer.MovementConfirmation(result.Movement, result.Balance), nil
	}
}

func (s *WebhookService) reply(address, text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, address, text); err != nil {
			s.logger.Warn("outbound send failed", zap.String("address", address), zap.Error(err))
		}
	}()
}
