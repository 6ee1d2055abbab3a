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

// Package media wraps the ffmpeg/ffprobe toolchain. This file implements the
// fMP4-HLS packaging: one rendition per configured entry, each with
// independent segments, a fixed keyframe interval, constant frame rate, and
// a vod playlist; plus synthesis of the master playlist that ties the
// renditions together.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
)

// RenditionOutput describes one encoded rendition of an HLS package.
type RenditionOutput struct {
	Rendition    cloud.HLSRendition
	PlaylistName string // Basename of the rendition playlist within the package directory.
}

// HLSResult describes a finished HLS package on disk.
type HLSResult struct {
	OutputDir          string
	MasterPlaylistName string
	Renditions         []RenditionOutput
}

// EncodeHLS encodes every configured rendition of inputPath into outputDir
// and writes the master playlist. baseName scopes segment filenames so
// several packages can share a CDN prefix.
func (t *Toolchain) EncodeHLS(ctx context.Context, inputPath, outputDir, baseName string, cfg cloud.HLSConfig) (*HLSResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create hls dir: %v", ErrMediaToolFailure, err)
	}

	result := &HLSResult{
		OutputDir:          outputDir,
		MasterPlaylistName: cfg.MasterPlaylistName,
	}

	for _, rendition := range cfg.Renditions {
		playlistName := fmt.Sprintf("%s_%s.m3u8", baseName, rendition.Name)
		initName := fmt.Sprintf("%s_%s_init.mp4", baseName, rendition.Name)
		segmentPattern := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%%05d.m4s", baseName, rendition.Name))
		playlistPath := filepath.Join(outputDir, playlistName)

		args := []string{
			"-y", "-hide_banner",
			"-i", inputPath,
			"-c:v", cfg.VideoCodec,
			"-b:v", rendition.VideoBitrate,
			"-g", strconv.Itoa(cfg.KeyframeInterval),
			"-keyint_min", strconv.Itoa(cfg.KeyframeInterval),
			"-sc_threshold", "0",
			"-r", strconv.Itoa(cfg.TargetFrameRate),
			"-fps_mode", "cfr",
		}
		if cfg.Preset != "" {
			args = append(args, "-preset", cfg.Preset)
		}
		if rendition.Width > 0 && rendition.Height > 0 {
			args = append(args, "-vf", fmt.Sprintf(
				"scale=w=%d:h=%d:force_original_aspect_ratio=decrease,pad=ceil(iw/2)*2:ceil(ih/2)*2",
				rendition.Width, rendition.Height))
		}
		args = append(args,
			"-c:a", cfg.AudioCodec,
			"-b:a", rendition.AudioBitrate,
			"-f", "hls",
			"-hls_time", strconv.Itoa(cfg.SegmentDuration),
			"-hls_playlist_type", cfg.PlaylistType,
			"-hls_flags", "independent_segments",
			"-hls_segment_type", "fmp4",
			"-hls_fmp4_init_filename", initName,
			"-hls_segment_filename", segmentPattern,
			playlistPath,
		)

		if _, _, err := t.run(ctx, t.FFmpegPath, args); err != nil {
			return nil, err
		}

		if err := RewriteInitSegmentURI(playlistPath); err != nil {
			return nil, err
		}

		result.Renditions = append(result.Renditions, RenditionOutput{
			Rendition:    rendition,
			PlaylistName: playlistName,
		})
	}

	masterPath := filepath.Join(outputDir, cfg.MasterPlaylistName)
	if err := os.WriteFile(masterPath, []byte(MasterPlaylist(result.Renditions)), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write master playlist: %v", ErrMediaToolFailure, err)
	}

	return result, nil
}

// RewriteInitSegmentURI rewrites the EXT-X-MAP URI of a rendition playlist
// to a basename-only reference, so the playlist stays valid wherever the
// package directory is served from.
func RewriteInitSegmentURI(playlistPath string) error {
	data, err := os.ReadFile(playlistPath)
	if err != nil {
		return fmt.Errorf("%w: read playlist: %v", ErrMediaToolFailure, err)
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "#EXT-X-MAP:") {
			continue
		}
		start := strings.Index(line, `URI="`)
		if start < 0 {
			continue
		}
		start += len(`URI="`)
		end := strings.Index(line[start:], `"`)
		if end < 0 {
			continue
		}
		uri := line[start : start+end]
		lines[i] = line[:start] + filepath.Base(uri) + line[start+end:]
	}
	if err := os.WriteFile(playlistPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("%w: rewrite playlist: %v", ErrMediaToolFailure, err)
	}
	return nil
}

// MasterPlaylist synthesizes the master playlist text for the renditions:
// BANDWIDTH as video+audio bits per second, RESOLUTION when both dimensions
// are known, and NAME.
func MasterPlaylist(renditions []RenditionOutput) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:7\n")
	b.WriteString("#EXT-X-INDEPENDENT-SEGMENTS\n")
	for _, r := range renditions {
		bandwidth := BitrateToBits(r.Rendition.VideoBitrate) + BitrateToBits(r.Rendition.AudioBitrate)
		attrs := fmt.Sprintf("BANDWIDTH=%d", bandwidth)
		if r.Rendition.Width > 0 && r.Rendition.Height > 0 {
			attrs += fmt.Sprintf(",RESOLUTION=%dx%d", r.Rendition.Width, r.Rendition.Height)
		}
		attrs += fmt.Sprintf(",NAME=\"%s\"", r.Rendition.Name)
		b.WriteString("#EXT-X-STREAM-INF:" + attrs + "\n")
		b.WriteString(r.PlaylistName + "\n")
	}
	return b.String()
}

// BitrateToBits parses a human bitrate ("2800k", "2.5M", "128000") into
// bits per second. Unparsable values yield 0.
func BitrateToBits(bitrate string) int {
	s := strings.TrimSpace(strings.ToLower(bitrate))
	if s == "" {
		return 0
	}
	multiplier := 1.0
	switch s[len(s)-1] {
	case 'k':
		multiplier = 1000
		s = s[:len(s)-1]
	case 'm':
		multiplier = 1000000
		s = s[:len(s)-1]
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(value * multiplier)
}
