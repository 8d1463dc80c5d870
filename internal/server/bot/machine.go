package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmkov83/enerhobot/internal/logging"
	"github.com/dmkov83/enerhobot/internal/server/config"
	"github.com/dmkov83/enerhobot/internal/server/models"
	"github.com/dmkov83/enerhobot/internal/server/services"
	"github.com/dmkov83/enerhobot/internal/server/telegram"
)

const (
	menuAccrual = "📈 View accrual"
	menuTaxes   = "🧾 View taxes"
	menuPayout  = "💰 View payout amount"
	menuSupport = "📞 Contact support"
)

const (
	greetingMessage    = "👋 Welcome! To sign in, please enter your contract number:"
	askAccountMessage  = "Thank you. Now enter your personal account number:"
	checkingMessage    = "🔄 Checking your details..."
	authorizedMessage  = "You are signed in. Please use the menu buttons below. 👇"
	startHintMessage   = "Send /start to begin."
	retryPromptMessage = "Please try again. Enter your contract number:"
	expiredMessage     = "⚠️ Your session has expired. Please send /start to sign in."
	transientMessage   = "⚠️ A temporary error occurred. Please try again."
	unavailableMessage = "Could not load your data. Please try again later."
)

// Authorizer is the part of the auth service the dialogue needs.
type Authorizer interface {
	CheckAndLink(ctx context.Context, userID, contract, account string) (*services.AuthResult, error)
	LinkedSecretID(ctx context.Context, userID string) (string, error)
}

// SecretReader loads the linked record for the menu views.
type SecretReader interface {
	Get(ctx context.Context, id string) (*models.Secret, error)
}

// Sender delivers outgoing messages, optionally with a reply keyboard.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]string) error
}

// Machine routes incoming updates through the conversation state machine.
// Sessions are in-memory only; an unknown user with a linked record is
// restored to the authorized step on their first message.
type Machine struct {
	sessions       *SessionStore
	sender         Sender
	authorizer     Authorizer
	secrets        SecretReader
	supportContact string
	logger         logging.Logger
}

func NewMachine(sessions *SessionStore, sender Sender, authorizer Authorizer, secrets SecretReader,
	cfg *config.Config, logger logging.Logger) *Machine {
	return &Machine{
		sessions:       sessions,
		sender:         sender,
		authorizer:     authorizer,
		secrets:        secrets,
		supportContact: cfg.SupportContact,
		logger:         logger,
	}
}

// log prefers the request-scoped logger carried by ctx (set by the
// webhook handler) over the machine's own.
func (m *Machine) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, m.logger)
}

func mainMenu() [][]string {
	return [][]string{
		{menuAccrual, menuTaxes},
		{menuPayout, menuSupport},
	}
}

// HandleUpdate processes one incoming update. Updates without a text
// message are ignored.
func (m *Machine) HandleUpdate(ctx context.Context, upd *telegram.Update) error {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	release := m.sessions.Acquire(msg.From.ID)
	defer release()
	sess := m.sessions.Get(msg.From.ID)

	if text == "/start" {
		return m.handleStart(ctx, msg.From.ID, userID, chatID)
	}

	switch text {
	case menuAccrual, menuTaxes, menuPayout:
		return m.handleMenuData(ctx, sess, userID, chatID, text)
	case menuSupport:
		return m.send(ctx, chatID, m.supportContact, nil)
	}

	if sess.Step == StepNone {
		if restored := m.restore(ctx, sess, userID); restored {
			return m.send(ctx, chatID, authorizedMessage, mainMenu())
		}
	}

	switch sess.Step {
	case StepBanned:
		return m.send(ctx, chatID, services.BanMessage, nil)
	case StepWaitingContract:
		sess.PendingContract = text
		sess.Step = StepWaitingAccount
		return m.send(ctx, chatID, askAccountMessage, nil)
	case StepWaitingAccount:
		return m.handleAccount(ctx, sess, userID, chatID, text)
	case StepAuthorized:
		return m.send(ctx, chatID, authorizedMessage, mainMenu())
	default:
		return m.send(ctx, chatID, startHintMessage, nil)
	}
}

func (m *Machine) handleStart(ctx context.Context, telegramID int64, userID string, chatID int64) error {
	sess := m.sessions.Reset(telegramID)
	if m.restore(ctx, sess, userID) {
		return m.send(ctx, chatID, authorizedMessage, mainMenu())
	}
	sess.Step = StepWaitingContract
	return m.send(ctx, chatID, greetingMessage, nil)
}

// restore rehydrates an authorized session from the users table. It
// reports whether the user turned out to be already linked.
func (m *Machine) restore(ctx context.Context, sess *Session, userID string) bool {
	id, err := m.authorizer.LinkedSecretID(ctx, userID)
	if err != nil {
		m.log(ctx).Warn(ctx, "session restore failed", "user_id", userID, "error", err.Error())
		return false
	}
	if id == "" {
		return false
	}
	sess.Step = StepAuthorized
	sess.LinkedSecretID = id
	return true
}

func (m *Machine) handleAccount(ctx context.Context, sess *Session, userID string, chatID int64, account string) error {
	if err := m.send(ctx, chatID, checkingMessage, nil); err != nil {
		return err
	}

	result, err := m.authorizer.CheckAndLink(ctx, userID, sess.PendingContract, account)
	if err != nil {
		// step and pending contract stay put so a retry is possible
		m.log(ctx).Error(ctx, "authorization check failed", "user_id", userID, "error", err.Error())
		return m.send(ctx, chatID, transientMessage, nil)
	}

	switch {
	case result.Success:
		sess.Step = StepAuthorized
		sess.LinkedSecretID = result.LinkedSecretID
		sess.PendingContract = ""
		return m.send(ctx, chatID, result.Message, mainMenu())
	case result.IsBanned:
		sess.Step = StepBanned
		sess.PendingContract = ""
		return m.send(ctx, chatID, result.Message, nil)
	default:
		sess.Step = StepWaitingContract
		sess.PendingContract = ""
		return m.send(ctx, chatID, result.Message+"\n\n"+retryPromptMessage, nil)
	}
}

func (m *Machine) handleMenuData(ctx context.Context, sess *Session, userID string, chatID int64, action string) error {
	docID := m.currentSecretID(ctx, sess, userID)
	if docID == "" {
		return m.send(ctx, chatID, expiredMessage, nil)
	}

	data, err := m.secrets.Get(ctx, docID)
	if err != nil {
		m.log(ctx).Error(ctx, "record lookup failed", "user_id", userID, "error", err.Error())
		return m.send(ctx, chatID, unavailableMessage, nil)
	}

	var text string
	switch action {
	case menuAccrual:
		text = "⚡ Electricity produced: " + formatAmount(data.Electricity) + " kWh\n" +
			"📈 Your accrual: " + formatAmount(data.Accrual) + " UAH"
	case menuTaxes:
		text = "🧾 Income tax: " + formatAmount(data.TaxIncome) + " UAH\n" +
			"🪖 Military levy: " + formatAmount(data.TaxMilitary) + " UAH"
	case menuPayout:
		text = "💰 Amount payable: " + formatAmount(data.Payout) + " UAH"
	}
	return m.send(ctx, chatID, text, nil)
}

// currentSecretID returns the linked record id for an authorized user,
// restoring the session from the database when memory has none.
func (m *Machine) currentSecretID(ctx context.Context, sess *Session, userID string) string {
	if sess.LinkedSecretID != "" {
		return sess.LinkedSecretID
	}
	if m.restore(ctx, sess, userID) {
		return sess.LinkedSecretID
	}
	return ""
}

func (m *Machine) send(ctx context.Context, chatID int64, text string, keyboard [][]string) error {
	if err := m.sender.SendMessage(ctx, chatID, text, keyboard); err != nil {
		m.log(ctx).Error(ctx, "send failed", "chat_id", chatID, "error", err.Error())
		return err
	}
	return nil
}
