package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Prober reads the duration of a media file
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Encoder converts a video file into an animated GIF
type Encoder interface {
	EncodeGIF(ctx context.Context, in, out string) error
}

// gifFilter builds a palette first so the GIF keeps decent colours
const gifFilter = "fps=10,scale=320:-1:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse"

// FFmpeg runs ffprobe and ffmpeg through ffmpeg-go
type FFmpeg struct{}

// Duration probes the container duration with ffprobe. ffprobe is killed
// once ctx's deadline passes.
func (FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	timeout, err := probeTimeout(ctx)
	if err != nil {
		return 0, err
	}
	out, err := ffmpeg.ProbeWithTimeout(path, timeout, nil)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("failed to probe video: %w", err)
	}
	return parseProbeDuration(out)
}

// probeTimeout is the time left before ctx's deadline, 0 when there is none
func probeTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return left, nil
}

func parseProbeDuration(probe string) (time.Duration, error) {
	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(probe), &info); err != nil {
		return 0, fmt.Errorf("failed to parse probe output: %w", err)
	}
	seconds, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", info.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// EncodeGIF converts in to a looping GIF at out. The ffmpeg process is
// killed when ctx is done.
func (FFmpeg) EncodeGIF(ctx context.Context, in, out string) error {
	cmd := ffmpeg.Input(in).
		Output(out, ffmpeg.KwArgs{
			"vf":   gifFilter,
			"loop": 0,
		}).
		OverWriteOutput().
		Compile()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}
