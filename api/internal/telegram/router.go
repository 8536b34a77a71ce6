package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"math-templater/api/internal/apperr"
	"math-templater/api/internal/ocr"
	"math-templater/api/internal/templater"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type TemplateGenerator interface {
	Template(ctx context.Context, problem string) (string, error)
}

type Router struct {
	Bot       Bot
	Source    ocr.Source
	Templater TemplateGenerator

	OCRTimeout      time.Duration
	TemplateTimeout time.Duration
	// Debounce is how long an album waits for further pages; zero means the
	// package default.
	Debounce time.Duration

	batches sync.Map // key -> *photoBatch
}

const maxMessage = 3900

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, "Send a photo of a math word problem, or type it, and I will turn it into a template.\n"+
			"Every quantity becomes a placeholder: {X}, {Y}, {Z}, ...\nCommands: /health")
	case "health":
		r.send(cid, "✅ OK: ocr="+r.Source.Name())
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg, msg.Photo[len(msg.Photo)-1].FileID)
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		r.acceptPhoto(msg, msg.Document.FileID)
	case strings.TrimSpace(msg.Text) != "":
		r.templateText(context.Background(), cid, msg.Text)
	}
}

func (r *Router) templateText(ctx context.Context, chatID int64, text string) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(r.TemplateTimeout))
	defer cancel()
	out, err := r.Templater.Template(ctx, text)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.SendTemplate(chatID, out)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram send chat=%d: %v", chatID, err)
	}
}

func (r *Router) SendTemplate(chatID int64, text string) {
	r.send(chatID, "📝 Template:\n\n"+truncate(text, maxMessage))
}

func (r *Router) SendError(chatID int64, err error) {
	log.Printf("telegram chat=%d: %v", chatID, err)
	r.send(chatID, errorReply(err))
}

// errorReply renders a failure the way the HTTP surface words it.
func errorReply(err error) string {
	switch {
	case errors.Is(err, ocr.ErrEmptyText), errors.Is(err, templater.ErrEmptyProblem):
		return "No problem text provided."
	case errors.Is(err, templater.ErrTemplateGenerationFailed):
		return fmt.Sprintf("Error generating template: %v", err)
	case apperr.KindOf(err) == apperr.KindInput, apperr.KindOf(err) == apperr.KindExternal:
		return fmt.Sprintf("Error processing image: %v", err)
	}
	return fmt.Sprintf("Error: %v", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary.
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n] + "…"
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
