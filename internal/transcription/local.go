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

// Package transcription defines the speech-to-text engine boundary. This
// file implements the local provider: a python whisper helper run as a
// subprocess that prints the verbose result as one JSON document on stdout.
// The helper program is embedded here so the worker has no loose script to
// deploy alongside the binary.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// whisperProgram emits {"text": ..., "segments": [{start, end, text,
// words: [{start, end, word}]}]} for one input file.
const whisperProgram = `
import json, sys, argparse
import whisper

p = argparse.ArgumentParser()
p.add_argument("--input", required=True)
p.add_argument("--model", default="base")
p.add_argument("--language", default=None)
p.add_argument("--device", default=None)
p.add_argument("--beam-size", type=int, default=5)
p.add_argument("--best-of", type=int, default=5)
p.add_argument("--fp16", action="store_true")
a = p.parse_args()

m = whisper.load_model(a.model, device=a.device)
r = m.transcribe(
    a.input,
    language=a.language,
    beam_size=a.beam_size,
    best_of=a.best_of,
    fp16=a.fp16,
    word_timestamps=True,
)
out = {"text": r.get("text", ""), "segments": []}
for s in r.get("segments", []):
    out["segments"].append({
        "start": s.get("start", 0.0),
        "end": s.get("end", 0.0),
        "text": s.get("text", ""),
        "words": [
            {"start": w.get("start", 0.0), "end": w.get("end", 0.0), "word": w.get("word", "")}
            for w in s.get("words", [])
        ],
    })
json.dump(out, sys.stdout, ensure_ascii=False)
`

// LocalWhisperEngine runs whisper on the worker host in a subprocess of the
// configured python interpreter.
type LocalWhisperEngine struct {
	PythonExecutable string
	Model            string
	Device           string
	BeamSize         int
	BestOf           int
	FP16             bool
}

// Transcribe executes the helper and decodes its stdout. Stderr (model
// download progress, warnings) is attached to the error on failure.
func (e *LocalWhisperEngine) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	args := []string{
		"-c", whisperProgram,
		"--input", audioPath,
		"--model", e.Model,
		"--beam-size", strconv.Itoa(e.BeamSize),
		"--best-of", strconv.Itoa(e.BestOf),
	}
	if code := NormalizeLanguage(language); code != "" {
		args = append(args, "--language", code)
	}
	if e.Device != "" {
		args = append(args, "--device", e.Device)
	}
	if e.FP16 {
		args = append(args, "--fp16")
	}

	cmd := exec.CommandContext(ctx, e.PythonExecutable, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("local whisper failed: %w\nstderr: %s", err, tail(stderr.String(), 2000))
	}

	out := &Result{}
	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return nil, fmt.Errorf("local whisper returned invalid JSON: %w", err)
	}
	return out, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
