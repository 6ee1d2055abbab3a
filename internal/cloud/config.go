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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients built from them. This file
// centralizes every configurable parameter of the pipeline: the S3 intake
// bucket and its lifecycle prefixes, the CDN-served output bucket, the MySQL
// database, the transcription engine, the media toolchain knobs (loudness
// normalization, compression, HLS), the Gemini models, and the closed topic
// catalog used by the content analysis.
package cloud

// S3InputConfig describes the intake bucket whose pending/ prefix is polled
// for new videos. The four prefixes act as the lifecycle states of each
// source object.
type S3InputConfig struct {
	Bucket                 string `toml:"bucket"`
	Endpoint               string `toml:"endpoint"`
	Region                 string `toml:"region"`
	AccessKeyID            string `toml:"access_key_id"`
	SecretAccessKey        string `toml:"secret_access_key"`
	PendingPrefix          string `toml:"pending_prefix"`
	ProcessingPrefix       string `toml:"processing_prefix"`
	CompletedPrefix        string `toml:"completed_prefix"`
	FailedPrefix           string `toml:"failed_prefix"`
	Enabled                bool   `toml:"enabled"`
	EnablePolling          bool   `toml:"enable_polling"`
	PollingIntervalSeconds int    `toml:"polling_interval_seconds"`
}

// StorageConfig describes the CDN-served output bucket that receives the
// processed MP4/HLS tree and the JSON sidecars.
type StorageConfig struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	CdnDomain       string `toml:"cdn_domain"` // Domain that fronts the bucket; upload results are reported as https://<cdn_domain>/<key>.
}

// DatabaseConfig holds the MySQL connection parameters.
type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// TranscriptionConfig selects and tunes the speech-to-text engine and the
// segmentation of its word timings into phrase and word chunk views.
type TranscriptionConfig struct {
	Provider                      string  `toml:"provider"` // "openai" or "xenova" (local python whisper).
	Model                         string  `toml:"model"`
	Language                      string  `toml:"language"`
	PhraseMinWords                int     `toml:"phrase_min_words"`
	PhraseMaxWords                int     `toml:"phrase_max_words"`
	PhraseMinDurationSeconds      float64 `toml:"phrase_min_duration_seconds"`
	PhraseMaxDurationSeconds      float64 `toml:"phrase_max_duration_seconds"`
	WordMinWords                  int     `toml:"word_min_words"`
	WordMaxWords                  int     `toml:"word_max_words"`
	MaxGapBetweenWordChunksSecond float64 `toml:"max_gap_between_word_chunks_seconds"`
	PythonExecutable              string  `toml:"python_executable"`
	OpenAIModel                   string  `toml:"openai_model"`
	OpenAIAPIKey                  string  `toml:"openai_api_key"`
	Device                        string  `toml:"device"`
	BeamSize                      int     `toml:"beam_size"`
	BestOf                        int     `toml:"best_of"`
	FP16                          bool    `toml:"fp16"`
}

// AudioNormalizationConfig tunes the two-pass loudness normalization.
type AudioNormalizationConfig struct {
	Apply         bool    `toml:"apply"`
	TargetLufs    float64 `toml:"target_lufs"`
	LoudnessRange float64 `toml:"loudness_range"`
	TruePeak      float64 `toml:"true_peak"`
	AudioCodec    string  `toml:"audio_codec"`
	AudioBitrate  string  `toml:"audio_bitrate"`
}

// VideoCompressionConfig tunes the optional video re-encode performed in the
// same normalization pass. When Apply is false the video stream is copied.
type VideoCompressionConfig struct {
	Apply       bool   `toml:"apply"`
	Codec       string `toml:"codec"`
	Preset      string `toml:"preset"`
	CRF         int    `toml:"crf"`
	MaxWidth    int    `toml:"max_width"`
	MaxHeight   int    `toml:"max_height"`
	PixelFormat string `toml:"pixel_format"`
	MaxBitrate  string `toml:"max_bitrate"`
	BufSize     string `toml:"buf_size"`
	Tune        string `toml:"tune"`
}

// HLSRendition describes one adaptive rendition of the HLS package.
type HLSRendition struct {
	Name         string `toml:"name"`          // e.g. "720p"; used for playlist and segment basenames.
	Width        int    `toml:"width"`         // 0 when unknown; RESOLUTION is omitted from the master playlist then.
	Height       int    `toml:"height"`
	VideoBitrate string `toml:"video_bitrate"` // e.g. "2800k".
	AudioBitrate string `toml:"audio_bitrate"` // e.g. "128k".
}

// HLSConfig tunes the fMP4-HLS packaging stage.
type HLSConfig struct {
	Enabled            bool           `toml:"enabled"`
	IncludeMp4Fallback bool           `toml:"include_mp4_fallback"`
	SegmentDuration    int            `toml:"segment_duration"`
	PlaylistType       string         `toml:"playlist_type"`
	MasterPlaylistName string         `toml:"master_playlist_name"`
	VideoCodec         string         `toml:"video_codec"`
	AudioCodec         string         `toml:"audio_codec"`
	Preset             string         `toml:"preset"`
	KeyframeInterval   int            `toml:"keyframe_interval"`
	TargetFrameRate    int            `toml:"target_frame_rate"`
	Renditions         []HLSRendition `toml:"renditions"`
}

// GoogleConfig holds the Gemini model selection and the translation batching
// parameters.
type GoogleConfig struct {
	APIKey                string  `toml:"api_key"`
	GeminiModel           string  `toml:"gemini_model"`
	Temperature           float32 `toml:"temperature"`
	TopP                  float32 `toml:"top_p"`
	MaxOutputTokens       int32   `toml:"max_output_tokens"`
	RateLimit             int     `toml:"rate_limit"` // Requests per second allowed against the model.
	TranslationChunkSize  int     `toml:"translation_chunk_size"`
	TranslationAttempts   int     `toml:"translation_attempts"`
	TranslationContextLen int     `toml:"translation_context_len"` // Lines of neighbouring-batch context in each prompt.
}

// FFmpegConfig points at the media tool binaries.
type FFmpegConfig struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Config is the top-level configuration aggregate, loaded from TOML files.
type Config struct {
	Application struct {
		Name      string `toml:"name"`
		TempDir   string `toml:"temp_dir"`   // Scratch space for per-video intermediates; os.TempDir() when empty.
		OutputDir string `toml:"output_dir"` // Destination of the per-video JSON sidecars.
		InputDir  string `toml:"input_dir"`  // Local intake directory used when S3 input is disabled.
		Mode      string `toml:"mode"`       // Stage policy: "full", "no-exercises", or "transcription-only".
	} `toml:"application"`
	S3Input            S3InputConfig            `toml:"s3_input"`
	Storage            StorageConfig            `toml:"storage"`
	Database           DatabaseConfig           `toml:"database"`
	Transcription      TranscriptionConfig      `toml:"transcription"`
	AudioNormalization AudioNormalizationConfig `toml:"audio_normalization"`
	VideoCompression   VideoCompressionConfig   `toml:"video_compression"`
	HLS                HLSConfig                `toml:"hls"`
	Google             GoogleConfig             `toml:"google"`
	FFmpeg             FFmpegConfig             `toml:"ffmpeg"`
	VideoTopics        []string                 `toml:"video_topics"` // Closed catalog of ~55 topics; analysis topics are drawn from it.
}

// NewConfig creates a Config pre-populated with every documented default, so
// a minimal TOML file only has to name credentials and bucket endpoints.
func NewConfig() *Config {
	c := &Config{}
	c.Application.Name = "video-learning-pipeline"
	c.Application.Mode = "full"

	c.S3Input.PendingPrefix = "pending/"
	c.S3Input.ProcessingPrefix = "processing/"
	c.S3Input.CompletedPrefix = "completed/"
	c.S3Input.FailedPrefix = "failed/"
	c.S3Input.PollingIntervalSeconds = 60

	c.Transcription.Provider = "openai"
	c.Transcription.Language = "english"
	c.Transcription.PhraseMinWords = 5
	c.Transcription.PhraseMaxWords = 9
	c.Transcription.PhraseMinDurationSeconds = 1.0
	c.Transcription.PhraseMaxDurationSeconds = 4.5
	c.Transcription.WordMinWords = 1
	c.Transcription.WordMaxWords = 1
	c.Transcription.MaxGapBetweenWordChunksSecond = 1.5
	c.Transcription.PythonExecutable = "python3"
	c.Transcription.BeamSize = 5
	c.Transcription.BestOf = 5

	c.AudioNormalization.Apply = true
	c.AudioNormalization.TargetLufs = -16
	c.AudioNormalization.LoudnessRange = 7
	c.AudioNormalization.TruePeak = -1.5
	c.AudioNormalization.AudioCodec = "aac"
	c.AudioNormalization.AudioBitrate = "192k"

	c.VideoCompression.Codec = "libx264"
	c.VideoCompression.PixelFormat = "yuv420p"

	c.HLS.Enabled = true
	c.HLS.SegmentDuration = 4
	c.HLS.PlaylistType = "vod"
	c.HLS.MasterPlaylistName = "master.m3u8"
	c.HLS.VideoCodec = "libx264"
	c.HLS.AudioCodec = "aac"
	c.HLS.KeyframeInterval = 48
	c.HLS.TargetFrameRate = 30
	c.HLS.Renditions = []HLSRendition{
		{Name: "720p", Width: 1280, Height: 720, VideoBitrate: "2800k", AudioBitrate: "128k"},
	}

	c.Google.GeminiModel = "gemini-2.0-flash"
	c.Google.Temperature = 0.3
	c.Google.TopP = 0.95
	c.Google.MaxOutputTokens = 8192
	c.Google.RateLimit = 2
	c.Google.TranslationChunkSize = 60
	c.Google.TranslationAttempts = 3
	c.Google.TranslationContextLen = 4

	c.FFmpeg.FFmpegPath = "ffmpeg"
	c.FFmpeg.FFprobePath = "ffprobe"

	return c
}
