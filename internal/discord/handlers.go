package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/zeroism/internal/flow"
	"github.com/chris/zeroism/internal/llm"
)

const (
	maxMessageLen = 2000
	maxImageBytes = 10 << 20
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler panic", "channel", m.ChannelID, "panic", r)
		}
	}()

	// Ignore own messages
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned && m.ChannelID != b.channelID {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	ctx := context.Background()
	images := b.fetchImages(ctx, m.Attachments)
	if content == "" && len(images) == 0 {
		return
	}

	s.ChannelTyping(m.ChannelID)

	reply := b.handler.Handle(ctx, m.ChannelID, flow.Input{Text: content, Images: images})
	if reply == "" {
		return
	}
	if err := b.Send(m.ChannelID, reply); err != nil {
		b.log.Warn("reply failed", "channel", m.ChannelID, "error", err)
	}
}

// fetchImages downloads the image attachments. Failed downloads are logged
// and dropped.
func (b *Bot) fetchImages(ctx context.Context, attachments []*discordgo.MessageAttachment) []llm.Image {
	var images []llm.Image
	for _, a := range imageAttachments(attachments) {
		img, err := fetchImage(ctx, b.client, a.URL, a.ContentType)
		if err != nil {
			b.log.Warn("attachment download failed", "file", a.Filename, "error", err)
			continue
		}
		images = append(images, img)
	}
	return images
}

func imageAttachments(attachments []*discordgo.MessageAttachment) []*discordgo.MessageAttachment {
	var out []*discordgo.MessageAttachment
	for _, a := range attachments {
		if strings.HasPrefix(a.ContentType, "image/") {
			out = append(out, a)
		}
	}
	return out
}

func fetchImage(ctx context.Context, client *http.Client, url, contentType string) (llm.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return llm.Image{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return llm.Image{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return llm.Image{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return llm.Image{}, err
	}
	if len(data) > maxImageBytes {
		return llm.Image{}, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	return llm.Image{MediaType: mediaType, Data: data}, nil
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := min(maxLen, len(s))
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
