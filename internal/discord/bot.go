// Package discord carries chat events between Discord and the router.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/zeroism/internal/flow"
)

// Handler answers one inbound event for a conversation.
type Handler interface {
	Handle(ctx context.Context, id string, in flow.Input) string
}

type Bot struct {
	session   *discordgo.Session
	handler   Handler
	channelID string
	client    *http.Client
	log       *slog.Logger
}

// NewBot connects to Discord. Messages in direct messages, in the home
// channel, or mentioning the bot are routed to h.
func NewBot(token, channelID string, h Handler) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{
		session:   s,
		handler:   h,
		channelID: channelID,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       slog.Default().With("component", "discord"),
	}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	bot.log.Info("connected", "user", s.State.User.Username)
	return bot, nil
}

// Send posts content to a channel, split to Discord's message limit.
func (b *Bot) Send(channelID, content string) error {
	for _, chunk := range splitMessage(content, maxMessageLen) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("sending to %s: %w", channelID, err)
		}
	}
	return nil
}

func (b *Bot) Close() {
	b.session.Close()
}
