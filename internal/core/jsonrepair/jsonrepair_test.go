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

package jsonrepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `[1,2,3]`, want: `[1,2,3]`},
		{name: "wrapped in prose", in: `Here you go: [1,2,3]. Enjoy!`, want: `[1,2,3]`},
		{name: "nested", in: `x [[1],[2]] y`, want: `[[1],[2]]`},
		{name: "bracket inside string", in: `[{"a":"],"}]`, want: `[{"a":"],"}]`},
		{name: "none", in: `no array here`, want: ``},
		{name: "unbalanced", in: `[1,2`, want: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractArray(tt.in))
		})
	}
}

func TestExtractObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, ``, ExtractObject("nothing"))
}

func TestRepairTrailingCommas(t *testing.T) {
	in := `{"a": [1, 2, ], "b": {"c": 3, }, }`
	var out map[string]interface{}
	require.NoError(t, ParseObject(in, &out))
	assert.Len(t, out, 2)
}

func TestRepairControlChars(t *testing.T) {
	in := "[{\"index\": 0, \"text\": \"line one\nline two\"}]"
	var out []struct {
		Index int    `json:"index"`
		Text  string `json:"text"`
	}
	require.NoError(t, ParseArray(in, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "line one\nline two", out[0].Text)
}

func TestRepairSmartQuotes(t *testing.T) {
	in := `{“a”: “b”}`
	var out map[string]string
	require.NoError(t, ParseObject(in, &out))
	assert.Equal(t, "b", out["a"])
}

func TestRepairPreservesValidJSON(t *testing.T) {
	in := `{"text": "he said \"hi\", then left: [really]"}`
	var out map[string]string
	require.NoError(t, ParseObject(in, &out))
	assert.Equal(t, `he said "hi", then left: [really]`, out["text"])
}

func TestParseArrayFences(t *testing.T) {
	in := "```json\n[{\"index\": 1, \"text\": \"ok\"}]\n```"
	var out []map[string]interface{}
	require.NoError(t, ParseArray(in, &out))
	require.Len(t, out, 1)
}
