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

package transcription

import "strings"

// languageAliases maps the named languages accepted in configuration onto
// ISO-639-1 codes. Unknown values pass through unchanged so a bare code
// always works.
var languageAliases = map[string]string{
	"english":    "en",
	"russian":    "ru",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
}

// NormalizeLanguage resolves a configured language name or code into the
// ISO-639-1 code the engines expect.
func NormalizeLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if code, ok := languageAliases[l]; ok {
		return code
	}
	return l
}
