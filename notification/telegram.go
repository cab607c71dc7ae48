// Package notification provides implementations for various notification services
package notification

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"slices"

	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"
)

// StatusProvider exposes the chart session state rendered by bot commands.
type StatusProvider interface {
	Pair() string
	Timeframe() string
	LastCandle() core.Candle
	Indicators() []chart.InstanceStatus
}

// Telegram implements the core.NotifierWithStart interface
type telegram struct {
	settings    *core.Settings
	status      StatusProvider
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
}

// Option is a function that configures a telegram instance
type Option func(telegram *telegram)

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(status StatusProvider, settings *core.Settings, options ...Option) (core.NotifierWithStart, error) {
	// Initialize menu and poller
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	// Create user authorization middleware
	userMiddleware := createAuthMiddleware(poller, settings)

	// Initialize bot client
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	// Setup keyboard and commands
	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	// Create and configure bot instance
	bot := &telegram{
		status:      status,
		client:      client,
		settings:    settings,
		defaultMenu: menu,
	}

	// Apply custom options if provided
	for _, option := range options {
		option(bot)
	}

	// Register command handlers
	registerHandlers(client, bot)

	return bot, nil
}

// createAuthMiddleware creates a middleware to validate authorized users
func createAuthMiddleware(poller *tb.LongPoller, settings *core.Settings) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if slices.Contains(settings.Telegram.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	// Define keyboard buttons
	var (
		statusBtn     = menu.Text("/status")
		indicatorsBtn = menu.Text("/indicators")
		candleBtn     = menu.Text("/candle")
		helpBtn       = menu.Text("/help")
	)

	// Arrange keyboard layout
	menu.Reply(
		menu.Row(statusBtn, indicatorsBtn),
		menu.Row(candleBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/status", Description: "Check chart session status"},
		{Text: "/indicators", Description: "List active indicators and last values"},
		{Text: "/candle", Description: "Show the last candle"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/indicators", bot.IndicatorsHandle)
	client.Handle("/candle", bot.CandleHandle)
}

// Start begins the Telegram bot and notifies all authorized users
func (t *telegram) Start() {
	go t.client.Start()
	t.sendMessageWithOptions("Chart session connected.", t.defaultMenu)
}

// Notify sends a message to all authorized users
func (t *telegram) Notify(text string) {
	for _, user := range t.settings.Telegram.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text)
		if err != nil {
			log.WithError(err).Error("failed to send notification")
		}
	}
}

// sendMessageWithOptions sends a message to all authorized users with additional options
func (t *telegram) sendMessageWithOptions(text string, options ...interface{}) {
	for _, user := range t.settings.Telegram.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text, options...)
		if err != nil {
			log.WithError(err).Error("failed to send notification with options")
		}
	}
}

// sendMessage sends a message to a specific user
func (t *telegram) sendMessage(to *tb.User, text string, options ...interface{}) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

// HelpHandle displays available commands
func (t *telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		log.WithError(err).Error("failed to get commands")
		t.OnError(err)
		return
	}

	// Build help message
	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// StatusHandle displays the current session status
func (t *telegram) StatusHandle(m *tb.Message) {
	t.sendMessage(m.Sender, formatStatusMessage(t.status), t.defaultMenu)
}

// IndicatorsHandle lists every active indicator with its last values
func (t *telegram) IndicatorsHandle(m *tb.Message) {
	statuses := t.status.Indicators()
	if len(statuses) == 0 {
		t.sendMessage(m.Sender, "No indicators registered.")
		return
	}

	t.sendMessage(m.Sender, formatIndicatorsMessage(statuses))
}

// CandleHandle shows the last candle received by the session
func (t *telegram) CandleHandle(m *tb.Message) {
	candle := t.status.LastCandle()
	if candle.IsEmpty() {
		t.sendMessage(m.Sender, "No candles received yet.")
		return
	}

	t.sendMessage(m.Sender, formatCandleMessage(candle))
}

// OnError notifies users about errors
func (t *telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n")
	sb.WriteString("-----\n")
	sb.WriteString(err.Error())

	t.Notify(sb.String())
}

// formatStatusMessage creates the /status reply
func formatStatusMessage(status StatusProvider) string {
	var sb strings.Builder
	sb.WriteString("*STATUS*\n")
	fmt.Fprintf(&sb, "Pair: `%s`\n", status.Pair())
	fmt.Fprintf(&sb, "Timeframe: `%s`\n", status.Timeframe())

	if candle := status.LastCandle(); !candle.IsEmpty() {
		fmt.Fprintf(&sb, "Last close: `%.2f` at `%s`\n",
			candle.Close, candle.Time.UTC().Format("2006-01-02 15:04"))
	}

	fmt.Fprintf(&sb, "Indicators: `%d`", len(status.Indicators()))
	return sb.String()
}

// formatIndicatorsMessage creates the /indicators reply
func formatIndicatorsMessage(statuses []chart.InstanceStatus) string {
	blocks := make([]string, 0, len(statuses))
	for _, status := range statuses {
		var sb strings.Builder
		fmt.Fprintf(&sb, "*%s*\n", status.Name)
		fmt.Fprintf(&sb, "pane: `%d` visible: `%v`\n", status.Pane, status.Visible)

		// Sort line names so replies are stable
		lines := make([]string, 0, len(status.Last))
		for line := range status.Last {
			lines = append(lines, line)
		}
		sort.Strings(lines)
		for _, line := range lines {
			fmt.Fprintf(&sb, "%s: `%.4f`\n", line, status.Last[line])
		}

		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

// formatCandleMessage creates the /candle reply
func formatCandleMessage(candle core.Candle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* `%s`\n", candle.Pair, candle.Time.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "O: `%.2f` H: `%.2f` L: `%.2f` C: `%.2f`\n",
		candle.Open, candle.High, candle.Low, candle.Close)
	fmt.Fprintf(&sb, "Volume: `%.2f`", candle.Volume)
	if !candle.Complete {
		sb.WriteString("\n_(forming)_")
	}
	return sb.String()
}
