package motivation

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Generator writes a motivation message in a language
type Generator interface {
	GenerateMotivation(ctx context.Context, lang string) (string, error)
}

// Sender delivers a message, with an optional image, to a chat
type Sender interface {
	SendMotivation(ctx context.Context, chatID int64, text, imagePath string) error
}

// SenderFunc adapts a function to Sender
type SenderFunc func(ctx context.Context, chatID int64, text, imagePath string) error

// SendMotivation calls f
func (f SenderFunc) SendMotivation(ctx context.Context, chatID int64, text, imagePath string) error {
	return f(ctx, chatID, text, imagePath)
}

// Images picks a random picture from a directory
type Images struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	paths []string
}

// LoadImages lists the jpg and png files of dir. An empty dir yields no images.
func LoadImages(dir string) (*Images, error) {
	img := &Images{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if dir == "" {
		return img, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return img, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			img.paths = append(img.paths, filepath.Join(dir, e.Name()))
		}
	}
	return img, nil
}

// Random returns a path, or "" when there are no images
func (i *Images) Random() string {
	if i == nil || len(i.paths) == 0 {
		return ""
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.paths[i.rnd.Intn(len(i.paths))]
}

// Len returns the number of images
func (i *Images) Len() int {
	if i == nil {
		return 0
	}
	return len(i.paths)
}

// DispatcherOptions wires a Dispatcher
type DispatcherOptions struct {
	Generator Generator
	Sender    Sender
	Images    *Images
	// Limiter throttles sends; nil means unlimited
	Limiter *rate.Limiter
	// IsBlocked tells whether a send error means the user blocked the bot
	IsBlocked func(error) bool
}

// Dispatcher sends due motivation messages
type Dispatcher struct {
	log       *zap.Logger
	service   *Service
	gen       Generator
	sender    Sender
	images    *Images
	limiter   *rate.Limiter
	isBlocked func(error) bool

	running sync.Mutex
}

// NewDispatcher creates a dispatcher over the subscription service
func NewDispatcher(log *zap.Logger, service *Service, opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		log:       log,
		service:   service,
		gen:       opts.Generator,
		sender:    opts.Sender,
		images:    opts.Images,
		limiter:   opts.Limiter,
		isBlocked: opts.IsBlocked,
	}
	if d.isBlocked == nil {
		d.isBlocked = func(error) bool { return false }
	}
	return d
}

// Message generates a message, falling back to a fixed one on error
func (d *Dispatcher) Message(ctx context.Context, lang Language) string {
	if d.gen == nil {
		return FallbackMessage(lang)
	}
	msg, err := d.gen.GenerateMotivation(ctx, string(lang))
	if err != nil || strings.TrimSpace(msg) == "" {
		d.log.Warn("motivation generation failed, using fallback", zap.String("lang", string(lang)), zap.Error(err))
		return FallbackMessage(lang)
	}
	return msg
}

// Image returns a random image path or ""
func (d *Dispatcher) Image() string {
	return d.images.Random()
}

// DispatchStats summarises one run
type DispatchStats struct {
	Due          int
	Sent         int
	Failed       int
	Unsubscribed int
}

// Dispatch sends a message to every subscriber due at now. Subscribers
// who blocked the bot are unsubscribed. Overlapping runs are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time) DispatchStats {
	var stats DispatchStats
	if !d.running.TryLock() {
		d.log.Debug("motivation dispatch already running")
		return stats
	}
	defer d.running.Unlock()

	due := d.service.Due(now)
	stats.Due = len(due)

	for _, sub := range due {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				d.log.Warn("motivation dispatch interrupted", zap.Error(err))
				return stats
			}
		}
		if ctx.Err() != nil {
			return stats
		}

		log := d.log.With(zap.Int64("user_id", sub.UserID))
		text := d.Message(ctx, sub.Language)
		err := d.sender.SendMotivation(ctx, sub.ChatID, text, d.Image())
		switch {
		case err == nil:
			d.service.MarkSent(sub.UserID, now)
			stats.Sent++
		case d.isBlocked(err):
			d.service.Unsubscribe(sub.UserID)
			stats.Unsubscribed++
			log.Info("user blocked the bot, subscription removed")
		default:
			stats.Failed++
			log.Error("failed to send motivation message", zap.Error(err))
		}
	}

	if stats.Due > 0 {
		d.log.Info("motivation dispatch finished",
			zap.Int("due", stats.Due),
			zap.Int("sent", stats.Sent),
			zap.Int("failed", stats.Failed),
			zap.Int("unsubscribed", stats.Unsubscribed))
	}
	return stats
}
