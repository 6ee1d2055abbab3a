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

package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maisgodagov/video-learning-pipeline/internal/cloud"
)

func TestBitrateToBits(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "2800k", want: 2800000},
		{in: "128k", want: 128000},
		{in: "2.5M", want: 2500000},
		{in: "96000", want: 96000},
		{in: "", want: 0},
		{in: "garbage", want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BitrateToBits(tt.in), "input %q", tt.in)
	}
}

func TestMasterPlaylist(t *testing.T) {
	renditions := []RenditionOutput{
		{
			Rendition:    cloud.HLSRendition{Name: "720p", Width: 1280, Height: 720, VideoBitrate: "2800k", AudioBitrate: "128k"},
			PlaylistName: "abc_720p.m3u8",
		},
		{
			Rendition:    cloud.HLSRendition{Name: "audio", VideoBitrate: "0", AudioBitrate: "128k"},
			PlaylistName: "abc_audio.m3u8",
		},
	}
	got := MasterPlaylist(renditions)

	assert.Contains(t, got, "#EXTM3U")
	assert.Contains(t, got, "#EXT-X-INDEPENDENT-SEGMENTS")
	assert.Contains(t, got, "BANDWIDTH=2928000,RESOLUTION=1280x720,NAME=\"720p\"\nabc_720p.m3u8")
	// No RESOLUTION attribute when a dimension is unknown.
	assert.Contains(t, got, "BANDWIDTH=128000,NAME=\"audio\"\nabc_audio.m3u8")
}

func TestRewriteInitSegmentURI(t *testing.T) {
	dir := t.TempDir()
	playlist := filepath.Join(dir, "abc_720p.m3u8")
	content := "#EXTM3U\n#EXT-X-MAP:URI=\"/tmp/work/abc_720p_init.mp4\"\n#EXTINF:4.0,\nabc_720p_00000.m4s\n"
	require.NoError(t, os.WriteFile(playlist, []byte(content), 0o644))

	require.NoError(t, RewriteInitSegmentURI(playlist))

	got, err := os.ReadFile(playlist)
	require.NoError(t, err)
	assert.Contains(t, string(got), "#EXT-X-MAP:URI=\"abc_720p_init.mp4\"")
	assert.NotContains(t, string(got), "/tmp/work/")
}

func TestParseLoudnormMeasurement(t *testing.T) {
	stderr := `
[Parsed_loudnorm_0 @ 0x5555]
{
	"input_i" : "-23.54",
	"input_tp" : "-5.11",
	"input_lra" : "6.30",
	"input_thresh" : "-33.83",
	"output_i" : "-16.02",
	"output_tp" : "-1.50",
	"output_lra" : "5.90",
	"output_thresh" : "-26.23",
	"normalization_type" : "dynamic",
	"target_offset" : "0.02"
}`
	m, err := ParseLoudnormMeasurement(stderr)
	require.NoError(t, err)
	assert.Equal(t, "-23.54", m.InputI)
	assert.Equal(t, "6.30", m.InputLRA)
	assert.Equal(t, "-5.11", m.InputTP)
	assert.Equal(t, "0.02", m.TargetOffset)
}

func TestParseLoudnormMeasurementMissing(t *testing.T) {
	_, err := ParseLoudnormMeasurement("no json here")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMediaToolFailure)
}

func TestScaleFilter(t *testing.T) {
	assert.Equal(t, "", scaleFilter(0, 0))
	assert.Contains(t, scaleFilter(1280, 720), "force_original_aspect_ratio=decrease")
	assert.Equal(t, "scale=w='min(iw,1280)':h=-2", scaleFilter(1280, 0))
	assert.Equal(t, "scale=w=-2:h='min(ih,720)'", scaleFilter(0, 720))
}
