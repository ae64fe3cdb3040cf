package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"timeline-editor/internal/timeline"

	"github.com/google/uuid"
)

const (
	maxStderrBytes = 8 * 1024 // tail of ffmpeg output kept in errors
	defaultExt     = ".mp4"
)

// FFmpegConfig configures the ffmpeg-backed processor.
type FFmpegConfig struct {
	Path      string // ffmpeg binary; empty = look up on PATH
	OutputDir string // where processed files are written
	Verbose   bool   // keep ffmpeg's own logging
	Logger    *slog.Logger
}

// FFmpeg cuts each keep-segment with stream copy and joins the parts with the concat demuxer.
type FFmpeg struct {
	cfg    FFmpegConfig
	ffmpeg string
}

// NewFFmpeg resolves the ffmpeg binary and prepares the output directory.
func NewFFmpeg(cfg FFmpegConfig) (*FFmpeg, error) {
	bin := cfg.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFFmpegNotFound, bin)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output dir: %w", err)
	}

	cfg.Logger.Info("ffmpeg processor initialised", "ffmpeg", resolved, "output_dir", cfg.OutputDir)
	return &FFmpeg{cfg: cfg, ffmpeg: resolved}, nil
}

// Process implements Processor.
func (f *FFmpeg) Process(ctx context.Context, locator string, segments []timeline.KeepSegment) (string, error) {
	if len(segments) == 0 {
		return "", ErrNoSegments
	}

	// Parts live next to the output so the single-part rename never crosses filesystems.
	tempDir, err := os.MkdirTemp(f.cfg.OutputDir, ".parts-*")
	if err != nil {
		return "", fmt.Errorf("cannot create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	ext := outputExt(locator)
	output := filepath.Join(f.cfg.OutputDir, uuid.NewString()+ext)

	parts := make([]string, 0, len(segments))
	for i, seg := range segments {
		part := filepath.Join(tempDir, fmt.Sprintf("part_%03d%s", i+1, ext))
		if err := f.run(ctx, partArgs(locator, seg, part, f.cfg.Verbose), "cut segment"); err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		if err := os.Rename(parts[0], output); err != nil {
			return "", fmt.Errorf("move output: %w", err)
		}
		return output, nil
	}

	listPath := filepath.Join(tempDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(parts)), 0644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}
	if err := f.run(ctx, concatArgs(listPath, output, f.cfg.Verbose), "concat segments"); err != nil {
		return "", err
	}

	f.cfg.Logger.Debug("ffmpeg processed media",
		"segments", len(segments),
		"kept_seconds", timeline.TotalLength(segments),
		"output", output)
	return output, nil
}

// Placeholder implements Processor with one second of black video and silence.
func (f *FFmpeg) Placeholder(ctx context.Context, locator string) (string, error) {
	output := filepath.Join(f.cfg.OutputDir, "placeholder-"+uuid.NewString()+defaultExt)
	if err := f.run(ctx, placeholderArgs(output, f.cfg.Verbose), "placeholder"); err != nil {
		return "", err
	}
	return output, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string, prefix string) error {
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg %s: %w", prefix, ctxErr)
		}
		return fmt.Errorf("ffmpeg %s: %w: %s", prefix, err, tail(out, maxStderrBytes))
	}
	return nil
}

func quietArgs(verbose bool) []string {
	if verbose {
		return nil
	}
	return []string{"-loglevel", "error"}
}

func partArgs(input string, seg timeline.KeepSegment, output string, verbose bool) []string {
	args := quietArgs(verbose)
	args = append(args,
		"-ss", formatSeconds(seg.Start),
		"-i", input,
		"-t", formatSeconds(seg.Len()),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y", output,
	)
	return args
}

func concatArgs(listPath, output string, verbose bool) []string {
	args := quietArgs(verbose)
	return append(args, "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", "-y", output)
}

func placeholderArgs(output string, verbose bool) []string {
	args := quietArgs(verbose)
	return append(args,
		"-f", "lavfi", "-i", "color=c=black:s=640x360:r=30",
		"-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo",
		"-t", "1", "-shortest",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-y", output,
	)
}

func concatList(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(fmt.Sprintf("file '%s'\n", escapeConcatPath(p)))
	}
	return b.String()
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", "'\\''")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// outputExt keeps the container of the source; URLs are stripped of their query first.
func outputExt(locator string) string {
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		locator = locator[:i]
	}
	ext := strings.ToLower(path.Ext(locator))
	if ext == "" || len(ext) > 5 {
		return defaultExt
	}
	return ext
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
