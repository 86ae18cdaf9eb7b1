package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
	"github.com/dmitrijs2005/shiftkeeper/internal/netx"
)

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// newBotAPI is a test seam for tgbotapi.NewBotAPI.
var newBotAPI = func(token string) (botAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// Telegram receives updates by long polling and replies in the private chat
// of the user, whose chat id equals the user id.
type Telegram struct {
	api    botAPI
	logger logging.Logger
	client *http.Client

	pollTimeout int
}

func NewTelegram(token string, pollTimeout int, logger logging.Logger) (*Telegram, error) {
	api, err := newBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{
		api:         api,
		logger:      logger,
		client:      http.DefaultClient,
		pollTimeout: pollTimeout,
	}, nil
}

// Run polls until ctx is done, then waits for in-flight events.
func (t *Telegram) Run(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(u)

	d := NewDispatcher(h)
	defer d.Wait()

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := updateToEvent(upd)
			if !ok {
				continue
			}
			t.logger.Debug(ctx, "update received", "uid", ev.UID, "kind", ev.Kind.String())
			d.Dispatch(ctx, ev)
		}
	}
}

// updateToEvent maps a message update onto one event. Content the core has
// no shape for becomes empty text so the user still gets a re-prompt.
func updateToEvent(upd tgbotapi.Update) (Event, bool) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return Event{}, false
	}
	uid := strconv.FormatInt(msg.From.ID, 10)

	switch {
	case msg.IsCommand():
		return Command(uid, strings.ToLower(msg.Command()), strings.Fields(msg.CommandArguments())...), true
	case len(msg.Photo) > 0:
		// Sizes are ordered smallest first.
		return PhotoMessage(uid, msg.Photo[len(msg.Photo)-1].FileID), true
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		return PhotoMessage(uid, msg.Document.FileID), true
	default:
		return TextMessage(uid, msg.Text), true
	}
}

func (t *Telegram) Send(_ context.Context, uid, text string, keyboard []string) error {
	chatID, err := strconv.ParseInt(uid, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad uid %q: %w", uid, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(keyboard) > 0 {
		msg.ReplyMarkup = replyKeyboard(keyboard)
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// replyKeyboard lays buttons out two per row.
func replyKeyboard(buttons []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(buttons); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(buttons[i])}
		if i+1 < len(buttons) {
			row = append(row, tgbotapi.NewKeyboardButton(buttons[i+1]))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func (t *Telegram) Fetch(ctx context.Context, fileRef string) (io.ReadCloser, string, error) {
	url, err := t.api.GetFileDirectURL(fileRef)
	if err != nil {
		return nil, "", fmt.Errorf("telegram: file url: %w", err)
	}
	rc, contentType, err := netx.Download(ctx, t.client, url, "image/jpeg")
	if err != nil {
		return nil, "", fmt.Errorf("telegram: download: %w", err)
	}
	return rc, contentType, nil
}
