package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTooLong         = errors.New("video is too long")
	ErrTooLarge        = errors.New("video is too large")
	ErrUnsupportedType = errors.New("unsupported video format")
	ErrDownload        = errors.New("failed to download video")
)

// Limits bounds what the converter accepts
type Limits struct {
	MaxDuration time.Duration
	MaxFileSize int64
	MimeTypes   []string
}

// DefaultLimits allows 15 second videos up to 50MB
func DefaultLimits() Limits {
	return Limits{
		MaxDuration: 15 * time.Second,
		MaxFileSize: 50 * 1024 * 1024,
		MimeTypes: []string{
			"video/mp4",
			"video/quicktime",
			"video/x-matroska",
			"video/webm",
			"video/avi",
			"video/mpeg",
		},
	}
}

// VideoMeta is what the chat platform tells us before download.
// Zero values mean unknown.
type VideoMeta struct {
	FileSize int64
	MimeType string
	Duration time.Duration
}

// Options configures a Converter. Nil members get the ffmpeg defaults.
type Options struct {
	TempDir    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Prober     Prober
	Encoder    Encoder
}

// Converter turns videos into GIFs
type Converter struct {
	log     *zap.Logger
	limits  Limits
	tempDir string
	timeout time.Duration
	client  *http.Client
	prober  Prober
	encoder Encoder
}

// NewConverter creates a converter
func NewConverter(log *zap.Logger, limits Limits, opts Options) *Converter {
	c := &Converter{
		log:     log,
		limits:  limits,
		tempDir: opts.TempDir,
		timeout: opts.Timeout,
		client:  opts.HTTPClient,
		prober:  opts.Prober,
		encoder: opts.Encoder,
	}
	if c.tempDir == "" {
		c.tempDir = os.TempDir()
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 2 * time.Minute}
	}
	if c.prober == nil {
		c.prober = FFmpeg{}
	}
	if c.encoder == nil {
		c.encoder = FFmpeg{}
	}
	return c
}

// Limits returns the configured limits
func (c *Converter) Limits() Limits {
	return c.limits
}

// Validate checks metadata before anything is downloaded
func (c *Converter) Validate(meta VideoMeta) error {
	if meta.FileSize > 0 && c.limits.MaxFileSize > 0 && meta.FileSize > c.limits.MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, meta.FileSize)
	}
	if meta.MimeType != "" && !c.allowedType(meta.MimeType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, meta.MimeType)
	}
	if meta.Duration > 0 && c.limits.MaxDuration > 0 && meta.Duration > c.limits.MaxDuration {
		return fmt.Errorf("%w: %s", ErrTooLong, meta.Duration)
	}
	return nil
}

func (c *Converter) allowedType(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, t := range c.limits.MimeTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// Convert downloads the video at url and converts it to a GIF. The caller
// must call cleanup once the GIF has been sent. On error no files are left
// behind.
func (c *Converter) Convert(ctx context.Context, url string) (gifPath string, cleanup func(), err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := uuid.NewString()
	videoPath := filepath.Join(c.tempDir, id+".mp4")
	gifPath = filepath.Join(c.tempDir, id+".gif")
	log := c.log.With(zap.String("job", id))

	removeVideo := func() { removeQuietly(log, videoPath) }
	removeGIF := func() { removeQuietly(log, gifPath) }

	if err := c.download(ctx, url, videoPath); err != nil {
		removeVideo()
		return "", nil, err
	}
	defer removeVideo()

	duration, err := c.prober.Duration(ctx, videoPath)
	if err != nil {
		return "", nil, err
	}
	if c.limits.MaxDuration > 0 && duration > c.limits.MaxDuration {
		log.Info("video rejected", zap.Duration("duration", duration))
		return "", nil, fmt.Errorf("%w: %s", ErrTooLong, duration.Round(time.Millisecond))
	}

	start := time.Now()
	if err := c.encoder.EncodeGIF(ctx, videoPath, gifPath); err != nil {
		removeGIF()
		return "", nil, err
	}
	log.Info("video converted", zap.Duration("duration", duration), zap.Duration("took", time.Since(start)))

	return gifPath, removeGIF, nil
}

func (c *Converter) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	var body io.Reader = resp.Body
	if c.limits.MaxFileSize > 0 {
		body = io.LimitReader(resp.Body, c.limits.MaxFileSize+1)
	}
	n, err := io.Copy(f, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if c.limits.MaxFileSize > 0 && n > c.limits.MaxFileSize {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.limits.MaxFileSize)
	}
	return nil
}

func removeQuietly(log *zap.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
	}
}
