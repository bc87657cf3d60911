package telegram

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/preston-bernstein/nba-stables-widgets/internal/domain"
	"github.com/preston-bernstein/nba-stables-widgets/internal/surface"
)

// Sender is the subset of *tgbotapi.BotAPI the registry needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type chatKey struct {
	kind domain.Kind
	chat int64
}

// Registry mirrors widget content into Telegram chats. Each chat id is a
// surface; the first write posts a message and later writes edit it in place.
type Registry struct {
	bot      Sender
	mu       sync.Mutex
	chats    map[domain.Kind]map[int64]struct{}
	messages map[chatKey]int
}

func New(bot Sender) *Registry {
	return &Registry{
		bot:      bot,
		chats:    make(map[domain.Kind]map[int64]struct{}),
		messages: make(map[chatKey]int),
	}
}

// Connect authenticates against the Bot API with token.
func Connect(token string) (*Registry, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return New(bot), nil
}

func (r *Registry) Name() string { return "telegram" }

func (r *Registry) List(_ context.Context, kind domain.Kind) ([]surface.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats := make([]int64, 0, len(r.chats[kind]))
	for chat := range r.chats[kind] {
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	ids := make([]surface.ID, len(chats))
	for i, chat := range chats {
		ids[i] = surface.ID(strconv.FormatInt(chat, 10))
	}
	return ids, nil
}

func (r *Registry) Register(_ context.Context, kind domain.Kind, id surface.ID) error {
	chat, err := parseChat(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.chats[kind]
	if !ok {
		bucket = make(map[int64]struct{})
		r.chats[kind] = bucket
	}
	bucket[chat] = struct{}{}
	return nil
}

func (r *Registry) Unregister(_ context.Context, kind domain.Kind, id surface.ID) error {
	chat, err := parseChat(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats[kind], chat)
	delete(r.messages, chatKey{kind: kind, chat: chat})
	return nil
}

func (r *Registry) Write(_ context.Context, kind domain.Kind, id surface.ID, content surface.Content) error {
	chat, err := parseChat(id)
	if err != nil {
		return err
	}
	key := chatKey{kind: kind, chat: chat}

	r.mu.Lock()
	_, registered := r.chats[kind][chat]
	messageID, posted := r.messages[key]
	r.mu.Unlock()
	if !registered {
		return surface.ErrUnknownSurface
	}

	body := "<pre>" + html.EscapeString(content.Plain()) + "</pre>"
	if posted {
		edit := tgbotapi.NewEditMessageText(chat, messageID, body)
		edit.ParseMode = tgbotapi.ModeHTML
		if _, err := r.bot.Send(edit); err != nil && !notModified(err) {
			return fmt.Errorf("edit telegram message: %w", err)
		}
		return nil
	}

	msg := tgbotapi.NewMessage(chat, body)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableNotification = true
	sent, err := r.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	r.mu.Lock()
	r.messages[key] = sent.MessageID
	r.mu.Unlock()
	return nil
}

// ParseChatIDs splits a comma separated list of chat ids.
func ParseChatIDs(raw string) ([]surface.ID, error) {
	var ids []surface.ID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := parseChat(surface.ID(part)); err != nil {
			return nil, err
		}
		ids = append(ids, surface.ID(part))
	}
	return ids, nil
}

func parseChat(id surface.ID) (int64, error) {
	chat, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", id, err)
	}
	return chat, nil
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
