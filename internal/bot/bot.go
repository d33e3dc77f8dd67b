package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"movie-cinema/internal/model"
	"movie-cinema/internal/render"
	"movie-cinema/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageCategory
	stageTitle
	stageYear
	stageRating
)

const (
	cbEditPrefix   = "edit:"
	cbDeletePrefix = "delete:"
)

// maxImportSize caps the size of an imported document.
const maxImportSize = 4 << 20

type conversationState struct {
	stage   conversationStage
	session *service.EditSession
	form    service.Form
}

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionReset
)

type confirmationRequest struct {
	action confirmationAction
	pos    model.Position
	title  string
}

// sender is the part of the Telegram API the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot renders the catalog into Telegram chats and turns replies into edits.
type Bot struct {
	api           sender
	poller        *tgbotapi.BotAPI
	store         *service.CatalogStore
	log           *zap.Logger
	httpClient    *http.Client
	allowed       map[int64]struct{}
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, store *service.CatalogStore, allowedUserIDs []int64, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, store, allowedUserIDs, log)
	b.poller = api
	b.log.Info("bot authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(api sender, store *service.CatalogStore, allowedUserIDs []int64, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[int64]struct{}, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = struct{}{}
	}
	return &Bot{
		api:           api,
		store:         store,
		log:           log,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		allowed:       allowed,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled. Updates are handled
// one at a time.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no update source")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.poller.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}

	return ctx.Err()
}

// HandleUpdate dispatches a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", zap.Error(err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", zap.Error(err))
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.isAllowed(msg.From.ID) {
		b.log.Warn("rejected user", zap.Int64("user", msg.From.ID))
		return b.sendText(msg.Chat.ID, "⛔ This catalog is private.")
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Form closed, nothing was changed.")
	}

	if msg.Document != nil {
		return b.handleImportDocument(ctx, msg)
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command", zap.Int64("user", msg.From.ID), zap.String("command", msg.Command()), zap.String("args", msg.CommandArguments()))
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /add to add a movie or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg)
	case "catalog":
		return b.sendCatalog(msg.Chat.ID, msg.From.ID)
	case "add":
		return b.startAdd(msg.Chat.ID, msg.From.ID)
	case "edit":
		pos, err := parsePositionArgs(msg.CommandArguments())
		if err != nil {
			return b.sendText(msg.Chat.ID, "Usage: /edit &lt;category&gt; &lt;slot&gt;, e.g. /edit love 2")
		}
		return b.startEdit(msg.Chat.ID, msg.From.ID, pos)
	case "delete":
		pos, err := parsePositionArgs(msg.CommandArguments())
		if err != nil {
			return b.sendText(msg.Chat.ID, "Usage: /delete &lt;category&gt; &lt;slot&gt;, e.g. /delete heist 1")
		}
		return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, pos)
	case "export":
		return b.sendExport(msg.Chat.ID)
	case "import":
		return b.sendText(msg.Chat.ID, "📥 Send the exported <code>.json</code> file as a document. It replaces the whole catalog.")
	case "reset":
		return b.askResetConfirmation(msg.Chat.ID, msg.From.ID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Form closed, nothing was changed.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "🎬 <b>Movie Cinema</b>\n" +
		"Six categories, seven slots each.\n\n" +
		"• /catalog — show the board\n" +
		"• /add — add a movie step by step\n" +
		"• /edit &lt;category&gt; &lt;slot&gt; — edit a movie\n" +
		"• /delete &lt;category&gt; &lt;slot&gt; — delete a movie\n" +
		"• /export — download <code>" + service.ExportFileName + "</code>\n" +
		"• /import — replace the catalog from a JSON file\n" +
		"• /reset — empty every category\n" +
		"• /cancel — close the current form"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startAdd(chatID, userID int64) error {
	state := b.conversationFor(userID)
	state.form = state.session.StartAdd()
	state.stage = stageCategory
	b.log.Debug("start add form", zap.Int64("user", userID))
	return b.sendWithReplyMarkup(chatID, "🆕 New movie.\n<b>Step 1:</b> pick a category.", categoryKeyboard(false))
}

func (b *Bot) startEdit(chatID, userID int64, pos model.Position) error {
	item, ok := b.store.Item(pos)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Slot %d of %s is empty.", pos.Index+1, escape(pos.Category.Label())))
	}
	state := b.conversationFor(userID)
	state.form = state.session.StartEdit(pos)
	state.stage = stageCategory
	b.log.Debug("start edit form", zap.Int64("user", userID), zap.String("category", string(pos.Category)), zap.Int("index", pos.Index))

	text := fmt.Sprintf("✏️ Editing «%s».\n<b>Step 1:</b> category is <b>%s</b>. Pick another or press «Skip».",
		escape(item.Title), escape(pos.Category.Label()))
	return b.sendWithReplyMarkup(chatID, text, categoryKeyboard(true))
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageCategory:
		if !isSkipInput(text) {
			cat, ok := model.ParseCategory(stripIcon(text))
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the categories below.", categoryKeyboard(state.session.Target() != nil))
			}
			state.form.Category = cat
		}
		state.stage = stageTitle
		return b.askTitle(msg.Chat.ID, state)
	case stageTitle:
		if !isSkipInput(text) {
			state.form.Title = text
		}
		state.stage = stageYear
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 <b>Year</b>"+current(state.form.Year)+"\nSend it, «Skip» or «Clear».", skipKeyboard())
	case stageYear:
		state.form.Year = applyOptional(state.form.Year, text)
		state.stage = stageRating
		return b.sendWithReplyMarkup(msg.Chat.ID, "⭐ <b>Rating</b>"+current(state.form.Rating)+"\nSend it, «Skip» or «Clear».", skipKeyboard())
	case stageRating:
		state.form.Rating = applyOptional(state.form.Rating, text)
		return b.commitForm(ctx, msg.Chat.ID, msg.From.ID, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The form was reset. Start again with /add.")
	}
}

func (b *Bot) askTitle(chatID int64, state *conversationState) error {
	if state.form.Title != "" {
		return b.sendWithReplyMarkup(chatID, "🎞 <b>Title</b>"+current(state.form.Title)+"\nSend a new one or «Skip».", skipKeyboard())
	}
	return b.sendWithReplyMarkup(chatID, "🎞 <b>Title</b>: what is the movie called?", cancelKeyboard())
}

func (b *Bot) commitForm(ctx context.Context, chatID, userID int64, state *conversationState) error {
	err := state.session.Commit(ctx, state.form)
	switch {
	case service.IsValidationError(err):
		state.stage = stageTitle
		return b.sendWithReplyMarkup(chatID, "Please provide a title.", cancelKeyboard())
	case err != nil:
		b.log.Error("commit form", zap.Int64("user", userID), zap.Error(err))
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Could not save: %s\nSend the rating again to retry.", escape(err.Error())), skipKeyboard())
	}

	b.clearConversation(userID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("✅ Saved «%s» to %s.", escape(state.form.Title), escape(state.form.Category.Label()))); err != nil {
		return err
	}
	return b.sendCatalog(chatID, userID)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionReset {
			return b.resetAndRefresh(ctx, msg.Chat.ID, msg.From.ID)
		}
		return b.deleteAndRefresh(ctx, msg.Chat.ID, msg.From.ID, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Confirm or cancel the deletion."
		if req.action == actionReset {
			prompt = "Confirm or cancel the reset."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, pos model.Position) error {
	item, ok := b.store.Item(pos)
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("Slot %d of %s is empty.", pos.Index+1, escape(pos.Category.Label())))
	}
	b.setConfirmation(userID, confirmationRequest{action: actionDelete, pos: pos, title: item.Title})
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete movie «%s»?", escape(item.Title)), confirmKeyboard())
}

func (b *Bot) askResetConfirmation(chatID, userID int64) error {
	b.setConfirmation(userID, confirmationRequest{action: actionReset})
	return b.sendWithReplyMarkup(chatID, "Reset all data to empty?", confirmKeyboard())
}

func (b *Bot) deleteAndRefresh(ctx context.Context, chatID, userID int64, req confirmationRequest) error {
	if err := b.store.DeleteItem(ctx, req.pos.Category, req.pos.Index); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("\U0001F5D1 Deleted «%s».", escape(req.title))); err != nil {
		return err
	}
	return b.sendCatalog(chatID, userID)
}

func (b *Bot) resetAndRefresh(ctx context.Context, chatID, userID int64) error {
	if err := b.store.Reset(ctx); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	if err := b.sendTextWithRemove(chatID, "🧹 Every category is empty now."); err != nil {
		return err
	}
	return b.sendCatalog(chatID, userID)
}

func (b *Bot) sendExport(chatID int64) error {
	raw, err := b.store.ExportSnapshot()
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Export failed: %s", escape(err.Error())))
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: service.ExportFileName, Bytes: raw})
	doc.Caption = "📤 Catalog export"
	_, err = b.api.Send(doc)
	return err
}

func (b *Bot) handleImportDocument(ctx context.Context, msg *tgbotapi.Message) error {
	raw, err := b.downloadDocument(ctx, msg.Document)
	if err != nil {
		b.log.Warn("download import", zap.Error(err))
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not read the file: %s", escape(err.Error())))
	}

	if err := b.store.ImportSnapshot(ctx, raw); err != nil {
		if service.IsParseError(err) {
			return b.sendText(msg.Chat.ID, "❌ Invalid JSON")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Import failed: %s", escape(err.Error())))
	}

	b.clearConversation(msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	if err := b.sendText(msg.Chat.ID, "📥 Imported"); err != nil {
		return err
	}
	return b.sendCatalog(msg.Chat.ID, msg.From.ID)
}

func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	if doc.FileSize > maxImportSize {
		return nil, fmt.Errorf("file is larger than %d bytes", maxImportSize)
	}
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
}

func (b *Bot) sendCatalog(chatID, userID int64) error {
	var session *service.EditSession
	if state := b.getConversation(userID); state != nil {
		session = state.session
	}
	view := service.BuildView(b.store.Snapshot())

	msg := tgbotapi.NewMessage(chatID, render.HTML(view, session))
	msg.ParseMode = tgbotapi.ModeHTML
	if rows := slotButtons(view); len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.api.Send(msg)
	return err
}

func slotButtons(view service.ViewModel) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, panel := range view.Panels() {
		for _, slot := range panel.Slots {
			if !slot.Occupied() {
				continue
			}
			ref := fmt.Sprintf("%s:%d", panel.Category, slot.Index)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✏️ %s %d · %s", panel.Label, slot.Index+1, shortTitle(slot.Item.Title, 20)), cbEditPrefix+ref),
				tgbotapi.NewInlineKeyboardButtonData("\U0001F5D1", cbDeletePrefix+ref),
			))
		}
	}
	return rows
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
	if !b.isAllowed(cb.From.ID) {
		return nil
	}

	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(cb.Data, cbEditPrefix):
		pos, err := parsePositionData(strings.TrimPrefix(cb.Data, cbEditPrefix))
		if err != nil {
			return nil
		}
		b.clearConfirmation(cb.From.ID)
		return b.startEdit(chatID, cb.From.ID, pos)
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		pos, err := parsePositionData(strings.TrimPrefix(cb.Data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		b.clearConversation(cb.From.ID)
		return b.askDeleteConfirmation(chatID, cb.From.ID, pos)
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelAdd):
		return true, b.startAdd(msg.Chat.ID, msg.From.ID)
	case strings.ToLower(menuLabelCatalog):
		return true, b.sendCatalog(msg.Chat.ID, msg.From.ID)
	case strings.ToLower(menuLabelExport):
		return true, b.sendExport(msg.Chat.ID)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	if len(b.allowed) == 0 {
		return true
	}
	_, ok := b.allowed[userID]
	return ok
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	return b.sendText(chatID, "🔹 Main menu")
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

// conversationFor returns the user's form state, creating it on first use.
func (b *Bot) conversationFor(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	if !ok {
		state = &conversationState{session: service.NewEditSession(b.store)}
		b.conversations[userID] = state
	}
	return state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.conversations[userID]; ok {
		state.session.Cancel()
		delete(b.conversations, userID)
	}
}

// parsePositionArgs reads "<category> <slot>" with a 1-based slot.
func parsePositionArgs(args string) (model.Position, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return model.Position{}, fmt.Errorf("expected category and slot")
	}
	return model.ParsePosition(fields[0], fields[1])
}

// parsePositionData reads callback data "<category>:<index>" with a 0-based index.
func parsePositionData(data string) (model.Position, error) {
	rawCat, rawIndex, ok := strings.Cut(data, ":")
	if !ok {
		return model.Position{}, fmt.Errorf("malformed position %q", data)
	}
	cat := model.Category(rawCat)
	if !cat.Valid() {
		return model.Position{}, fmt.Errorf("unknown category %q", rawCat)
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 {
		return model.Position{}, fmt.Errorf("invalid index %q", rawIndex)
	}
	return model.Position{Category: cat, Index: index}, nil
}

// applyOptional interprets a reply to an optional field prompt.
func applyOptional(existing, text string) string {
	switch {
	case isSkipInput(text):
		return existing
	case isClearInput(text):
		return ""
	default:
		return strings.TrimSpace(text)
	}
}

func current(value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf(" (now: <i>%s</i>)", escape(value))
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
