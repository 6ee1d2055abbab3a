// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package media wraps the ffmpeg/ffprobe toolchain behind typed operations:
// WAV extraction for the transcription engine, container duration probing,
// two-pass loudness normalization with optional video re-encoding, and
// fMP4-HLS packaging. Every invocation builds a full argv (no shell
// interpolation), streams the tool's output into buffers, and attaches the
// stderr tail to the error on failure.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
	"github.com/Maisgodagov/video-learning-pipeline/internal/core/jsonrepair"
)

// ErrMediaToolFailure marks failures of the external media tool. The wrapped
// message carries the stderr tail for diagnosis.
var ErrMediaToolFailure = errors.New("media tool failure")

// stderrTailBytes bounds how much tool output is attached to errors.
const stderrTailBytes = 4000

// Toolchain locates the media tool binaries.
type Toolchain struct {
	FFmpegPath  string
	FFprobePath string
}

// NewToolchain builds a toolchain from configuration, defaulting to the
// binaries on PATH.
func NewToolchain(cfg cloud.FFmpegConfig) *Toolchain {
	t := &Toolchain{FFmpegPath: cfg.FFmpegPath, FFprobePath: cfg.FFprobePath}
	if t.FFmpegPath == "" {
		t.FFmpegPath = "ffmpeg"
	}
	if t.FFprobePath == "" {
		t.FFprobePath = "ffprobe"
	}
	return t
}

// run executes one tool invocation and returns its stdout and stderr.
func (t *Toolchain) run(ctx context.Context, bin string, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return stdout.String(), stderr.String(),
			fmt.Errorf("%w: %s %s: %v\nstderr: %s", ErrMediaToolFailure, filepath.Base(bin),
				strings.Join(args, " "), err, tailString(stderr.String(), stderrTailBytes))
	}
	return stdout.String(), stderr.String(), nil
}

func tailString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ExtractAudio produces a mono 16 kHz 16-bit PCM WAV in tempDir for the
// transcription engine, and probes the container duration. A failed probe is
// non-fatal: the WAV is still returned and duration is nil.
func (t *Toolchain) ExtractAudio(ctx context.Context, videoPath, tempDir string) (string, *int, error) {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioPath := filepath.Join(tempDir, stem+".wav")

	args := []string{
		"-y", "-hide_banner",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	}
	if _, _, err := t.run(ctx, t.FFmpegPath, args); err != nil {
		return "", nil, err
	}

	duration, err := t.ProbeDuration(ctx, videoPath)
	if err != nil {
		slog.Warn("duration probe failed; continuing without duration", "video", videoPath, "error", err)
		return audioPath, nil, nil
	}
	return audioPath, duration, nil
}

// ProbeDuration reads the container duration in whole seconds.
func (t *Toolchain) ProbeDuration(ctx context.Context, videoPath string) (*int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	}
	stdout, _, err := t.run(ctx, t.FFprobePath, args)
	if err != nil {
		return nil, err
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable duration %q", ErrMediaToolFailure, strings.TrimSpace(stdout))
	}
	d := int(math.Round(seconds))
	return &d, nil
}

// loudnormMeasurement is the JSON document the loudnorm filter prints on the
// first (measurement) pass. ffmpeg reports the numbers as strings.
type loudnormMeasurement struct {
	InputI       string `json:"input_i"`
	InputTP      string `json:"input_tp"`
	InputLRA     string `json:"input_lra"`
	InputThresh  string `json:"input_thresh"`
	TargetOffset string `json:"target_offset"`
}

// ParseLoudnormMeasurement extracts the measurement JSON from the stderr of
// a loudnorm print_format=json pass.
func ParseLoudnormMeasurement(stderr string) (*loudnormMeasurement, error) {
	// The JSON block is the last balanced object in the stream output.
	idx := strings.LastIndex(stderr, "{")
	for idx > 0 && !strings.Contains(stderr[idx:], "input_i") {
		idx = strings.LastIndex(stderr[:idx], "{")
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: no loudnorm measurement in output", ErrMediaToolFailure)
	}
	m := &loudnormMeasurement{}
	if err := jsonrepair.ParseObject(stderr[idx:], m); err != nil {
		return nil, fmt.Errorf("%w: unparsable loudnorm measurement: %v", ErrMediaToolFailure, err)
	}
	return m, nil
}

// NormalizeAudio applies two-pass loudness normalization to the video's
// audio track and writes a fast-start MP4. Pass one measures; pass two
// applies a linear loudnorm filter with the measured parameters. When the
// measurement pass fails a warning is logged and the audio keeps its levels:
// it is copied, or transcoded without the filter when video is re-encoded.
// Video is re-encoded in the same pass when compression is enabled,
// otherwise the video stream is copied.
func (t *Toolchain) NormalizeAudio(ctx context.Context, videoPath, tempDir string,
	norm cloud.AudioNormalizationConfig, comp cloud.VideoCompressionConfig) (string, error) {

	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outputPath := filepath.Join(tempDir, stem+".normalized.mp4")

	var measurement *loudnormMeasurement
	if norm.Apply {
		measureFilter := fmt.Sprintf("loudnorm=I=%g:LRA=%g:TP=%g:print_format=json",
			norm.TargetLufs, norm.LoudnessRange, norm.TruePeak)
		_, stderr, err := t.run(ctx, t.FFmpegPath, []string{
			"-hide_banner",
			"-i", videoPath,
			"-af", measureFilter,
			"-f", "null", "-",
		})
		if err == nil {
			measurement, err = ParseLoudnormMeasurement(stderr)
		}
		if err != nil {
			slog.Warn("loudness measurement failed; copying audio unchanged", "video", videoPath, "error", err)
			measurement = nil
		}
	}

	args := []string{"-y", "-hide_banner", "-i", videoPath}

	if comp.Apply {
		args = append(args, "-c:v", comp.Codec)
		if comp.Preset != "" {
			args = append(args, "-preset", comp.Preset)
		}
		if comp.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(comp.CRF))
		}
		if comp.PixelFormat != "" {
			args = append(args, "-pix_fmt", comp.PixelFormat)
		}
		if comp.MaxBitrate != "" {
			args = append(args, "-maxrate", comp.MaxBitrate)
		}
		if comp.BufSize != "" {
			args = append(args, "-bufsize", comp.BufSize)
		}
		if comp.Tune != "" {
			args = append(args, "-tune", comp.Tune)
		}
		if filter := scaleFilter(comp.MaxWidth, comp.MaxHeight); filter != "" {
			args = append(args, "-vf", filter)
		}
	} else {
		args = append(args, "-c:v", "copy")
	}

	if measurement != nil {
		applyFilter := fmt.Sprintf(
			"loudnorm=I=%g:LRA=%g:TP=%g:measured_I=%s:measured_LRA=%s:measured_TP=%s:measured_thresh=%s:offset=%s:linear=true",
			norm.TargetLufs, norm.LoudnessRange, norm.TruePeak,
			measurement.InputI, measurement.InputLRA, measurement.InputTP,
			measurement.InputThresh, measurement.TargetOffset)
		args = append(args, "-af", applyFilter, "-c:a", norm.AudioCodec, "-b:a", norm.AudioBitrate)
	} else if comp.Apply {
		// Re-encoding video forces an audio transcode too; keep the levels untouched.
		args = append(args, "-c:a", norm.AudioCodec, "-b:a", norm.AudioBitrate)
	} else {
		args = append(args, "-c:a", "copy")
	}

	args = append(args, "-movflags", "+faststart", outputPath)

	if _, _, err := t.run(ctx, t.FFmpegPath, args); err != nil {
		return "", err
	}
	return outputPath, nil
}

// scaleFilter builds a downscale-and-pad filter bounded by the configured
// maximums, with even output dimensions. Returns "" when no bound is set.
func scaleFilter(maxWidth, maxHeight int) string {
	switch {
	case maxWidth > 0 && maxHeight > 0:
		return fmt.Sprintf(
			"scale=w='min(iw,%d)':h='min(ih,%d)':force_original_aspect_ratio=decrease,pad=ceil(iw/2)*2:ceil(ih/2)*2",
			maxWidth, maxHeight)
	case maxWidth > 0:
		return fmt.Sprintf("scale=w='min(iw,%d)':h=-2", maxWidth)
	case maxHeight > 0:
		return fmt.Sprintf("scale=w=-2:h='min(ih,%d)'", maxHeight)
	}
	return ""
}
