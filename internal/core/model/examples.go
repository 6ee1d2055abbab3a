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

// Package model defines the data structures for the application. This file
// provides factory functions for creating hardcoded, example instances of the
// AI-facing data models.
//
// These example objects are used for "few-shot" prompting: embedding a
// concrete example of the desired JSON output in the prompt makes the model
// return data that is consistent, correctly formatted, and parsable.
package model

// ExampleAnalysis returns a sample Analysis used as the few-shot JSON example
// in the content-analysis prompt.
func ExampleAnalysis() *Analysis {
	return &Analysis{
		CEFRLevel:            "B1",
		SpeechSpeed:          "normal",
		GrammarComplexity:    "intermediate",
		VocabularyComplexity: "intermediate",
		Topics:               []string{"Technology", "Education"},
		IsAdultContent:       false,
	}
}

// ExampleExercises returns a sample exercise set that satisfies the
// composition rules (4 vocabulary + 1 topic + 1 statement check). It is
// embedded in the exercise-generation prompt as the few-shot example.
func ExampleExercises() []Exercise {
	return []Exercise{
		{
			Type:          ExerciseVocabulary,
			Word:          "journey",
			Question:      "Что означает слово \"journey\"?",
			Options:       []string{"путешествие", "журнал", "дневник", "работа"},
			CorrectAnswer: 0,
		},
		{
			Type:          ExerciseVocabulary,
			Word:          "знание",
			Question:      "Как переводится слово \"знание\"?",
			Options:       []string{"knowledge", "kindness", "knee", "knot"},
			CorrectAnswer: 0,
		},
		{
			Type:          ExerciseVocabulary,
			Word:          "improve",
			Question:      "Выберите перевод слова \"improve\".",
			Options:       []string{"ухудшать", "улучшать", "удалять"},
			CorrectAnswer: 1,
		},
		{
			Type:          ExerciseVocabulary,
			Word:          "decision",
			Question:      "Что означает слово \"decision\"?",
			Options:       []string{"решение", "десятка", "указание", "деление"},
			CorrectAnswer: 0,
		},
		{
			Type:          ExerciseTopic,
			Question:      "О чём это видео?",
			Options:       []string{"О путешествиях", "Об изучении языков", "О кулинарии", "О спорте"},
			CorrectAnswer: 1,
		},
		{
			Type:          ExerciseStatementCheck,
			Question:      "Верно ли, что автор советует заниматься каждый день?",
			Options:       []string{"Верно", "Неверно", "В видео об этом не говорится"},
			CorrectAnswer: 0,
		},
	}
}

// TranslationItem is one element of the array the translation model is asked
// to return: the positional index of a source line and its translated text.
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ExampleTranslationItems returns the few-shot example for one translation
// batch response: a bare JSON array of {index, text} objects.
func ExampleTranslationItems() []TranslationItem {
	return []TranslationItem{
		{Index: 0, Text: "Привет, меня зовут Анна."},
		{Index: 1, Text: "Сегодня мы поговорим об обучении."},
	}
}
