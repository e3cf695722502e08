package bot

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/example/studybot/internal/quiz"
	"github.com/example/studybot/pkg/models"
)

func (e *testEnv) startTest(t *testing.T, focus, level, subcategory string) {
	t.Helper()
	e.press(t, callbackEnglish)
	e.press(t, callbackEnglishFocus+focus)
	e.press(t, callbackLevel+level)
	e.press(t, callbackSubcategory+subcategory)
	e.press(t, callbackCount+"5")
}

func TestEnglishMenus(t *testing.T) {
	env := newTestEnv(t)

	env.press(t, callbackEnglish)
	if !hasButton(env.api.last(), "english_grammar") || !hasButton(env.api.last(), "english_vocabulary") {
		t.Fatalf("focus menu buttons = %v", buttons(env.api.last()))
	}

	env.press(t, "english_grammar")
	for _, l := range quiz.Levels {
		if !hasButton(env.api.last(), callbackLevel+l) {
			t.Fatalf("level menu has no %s button: %v", l, buttons(env.api.last()))
		}
	}

	env.press(t, "level_A2")
	if got := env.api.lastText(); got != "Please select a Grammar subcategory for level A2:" {
		t.Fatalf("subcategory prompt = %q", got)
	}
	if !hasButton(env.api.last(), "eng_subcat_Present Simple") {
		t.Fatalf("subcategory buttons = %v", buttons(env.api.last()))
	}

	env.press(t, "eng_subcat_Present Simple")
	for _, data := range []string{"eng_count_5", "eng_count_10", "eng_count_15"} {
		if !hasButton(env.api.last(), data) {
			t.Fatalf("count menu has no %s button: %v", data, buttons(env.api.last()))
		}
	}
	if env.quiz.State(testUser) != quiz.StateChoosingCount {
		t.Fatalf("state = %v, want choosing_count", env.quiz.State(testUser))
	}
}

func TestLevelWithoutFocus(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "level_B1")

	if got := env.api.lastText(); !strings.Contains(got, "Focus (Grammar/Vocabulary) not set") {
		t.Fatalf("reply = %q", got)
	}
}

func TestStaleFocusButtonRestartsMenu(t *testing.T) {
	env := newTestEnv(t)
	env.press(t, "english_vocabulary")

	if env.quiz.State(testUser) != quiz.StateChoosingLevel {
		t.Fatalf("state = %v, want choosing_level", env.quiz.State(testUser))
	}
}

func TestMultipleChoiceTest(t *testing.T) {
	tests := []struct {
		name   string
		choice string
		want   []string
	}{
		{
			name:   "correct",
			choice: "ans_choice_1_1",
			want:   []string{"✅ Correct!", "Your score: 1/1", "Excellent! All correct!"},
		},
		{
			name:   "incorrect",
			choice: "ans_choice_1_0",
			want:   []string{"❌ Incorrect!", "Correct answer: <b>goes</b>", "Your score: 0/1", "Review your mistakes", "Your: go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.startTest(t, "grammar", "A2", "Present Simple")

			question := env.api.last()
			if got := chattableText(question); !strings.Contains(got, "Question 1/1") || !strings.Contains(got, "She ___ to school every day.") {
				t.Fatalf("question message = %q", got)
			}
			for _, data := range []string{"ans_choice_1_0", "ans_choice_1_1", "ans_choice_1_2", callbackFinishTest} {
				if !hasButton(question, data) {
					t.Fatalf("question buttons = %v, missing %s", buttons(question), data)
				}
			}

			env.press(t, tt.choice)
			for _, want := range tt.want {
				if !env.api.contains(want) {
					t.Errorf("no message contains %q; sent %q", want, env.api.texts())
				}
			}
			if !env.api.contains("could not be saved") {
				t.Error("report should warn that the result was kept locally")
			}
			if env.quiz.State(testUser) != quiz.StateIdle {
				t.Errorf("state after test = %v, want idle", env.quiz.State(testUser))
			}
		})
	}
}

func TestRepeatedTapIsNotGraded(t *testing.T) {
	env := newTestEnv(t)
	env.startTest(t, "grammar", "B2", "Past Simple")

	if got := env.api.lastText(); !strings.Contains(got, "Question 1/2") {
		t.Fatalf("question message = %q", got)
	}
	env.press(t, "ans_choice_1_0")
	if got := env.api.lastText(); !strings.Contains(got, "Question 2/2") {
		t.Fatalf("after first tap = %q", got)
	}

	env.press(t, "ans_choice_1_0")
	if got := env.api.lastText(); got != staleAnswerText {
		t.Fatalf("second tap reply = %q", got)
	}
	view, err := env.quiz.Current(testUser)
	if err != nil || view.Position != 2 {
		t.Fatalf("Current() = %+v, %v; the second tap moved the test", view, err)
	}

	env.press(t, "ans_choice_2_0")
	if !env.api.contains("Your score: 2/2") {
		t.Fatalf("sent %q", env.api.texts())
	}
}

func TestTrueFalseButtonsCheckQuestion(t *testing.T) {
	env := newTestEnv(t)
	env.startTest(t, "vocabulary", "B2", "Synonyms")

	question := env.api.last()
	if !hasButton(question, "ans_tf_1_True") || !hasButton(question, "ans_tf_1_False") {
		t.Fatalf("question buttons = %v", buttons(question))
	}

	for _, data := range []string{"ans_tf_2_True", "ans_choice_1_0", "ans_tf_1_Maybe"} {
		env.press(t, data)
		if got := env.api.lastText(); got != staleAnswerText {
			t.Fatalf("%s reply = %q", data, got)
		}
	}

	env.press(t, "ans_tf_1_True")
	if !env.api.contains("✅ Correct!") || !env.api.contains("Your score: 1/1") {
		t.Fatalf("sent %q", env.api.texts())
	}
}

func TestParseAnswerData(t *testing.T) {
	tests := []struct {
		in      string
		pos     int
		value   string
		wantErr bool
	}{
		{in: "3_1", pos: 3, value: "1"},
		{in: "1_True", pos: 1, value: "True"},
		{in: "1", wantErr: true},
		{in: "1_", wantErr: true},
		{in: "x_1", wantErr: true},
	}
	for _, tt := range tests {
		pos, value, err := parseAnswerData(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseAnswerData(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && (pos != tt.pos || value != tt.value) {
			t.Fatalf("parseAnswerData(%q) = %d, %q", tt.in, pos, value)
		}
	}
}

func TestTextAnswerToButtonQuestion(t *testing.T) {
	env := newTestEnv(t)
	env.startTest(t, "grammar", "A2", "Present Simple")

	env.say(t, "goes")
	if got := env.api.lastText(); got != "Please use the buttons to answer this question." {
		t.Fatalf("reply = %q", got)
	}
	if kind, _ := env.quiz.CurrentType(testUser); kind != models.MultipleChoice {
		t.Fatalf("question should still be pending, got %q", kind)
	}
}

func TestFillInBlankTest(t *testing.T) {
	env := newTestEnv(t)
	env.startTest(t, "vocabulary", "B1", "Idioms")

	if got := env.api.lastText(); !strings.Contains(got, "Type your answer:") {
		t.Fatalf("question message = %q", got)
	}

	env.say(t, "  LEG ")
	if !env.api.contains("✅ Correct!") || !env.api.contains("Your score: 1/1") {
		t.Fatalf("sent %q", env.api.texts())
	}
}

func TestNoQuestionsAvailable(t *testing.T) {
	env := newTestEnv(t)
	env.startTest(t, "vocabulary", "A2", "Synonyms")

	if got := env.api.lastText(); !strings.Contains(got, "Sorry, no questions available") {
		t.Fatalf("reply = %q", got)
	}
	if env.quiz.State(testUser) != quiz.StateChoosingCount {
		t.Fatalf("state = %v, want choosing_count", env.quiz.State(testUser))
	}
}

func TestFinishTestEarly(t *testing.T) {
	env := newTestEnv(t)
	env.startTest(t, "grammar", "A2", "Present Simple")

	env.press(t, callbackFinishTest)
	if got := env.api.lastText(); !strings.Contains(got, "Your score: 0/1") {
		t.Fatalf("report = %q", got)
	}

	env.press(t, callbackFinishTest)
	if got := env.api.lastText(); got != sessionExpiredText {
		t.Fatalf("second finish = %q", got)
	}

	env.press(t, "ans_choice_1_0")
	if got := env.api.lastText(); got != sessionExpiredText {
		t.Fatalf("answer after finish = %q", got)
	}
}

func TestResultsWithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	env.say(t, "/results")

	if got := env.api.lastText(); got != "You have not completed any tests yet." {
		t.Fatalf("reply = %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	report := &quiz.Report{
		Score:          1,
		TotalQuestions: 2,
		WrongAnswers: []models.WrongAnswer{{
			Question:      "I saw ___ moon.",
			UserAnswer:    "a <b>",
			CorrectAnswer: "the",
			Explanation:   "unique objects",
			Example:       "the sun",
		}},
		Status: quiz.Recorded,
	}

	got := formatReport(report)
	for _, want := range []string{"Your score: 1/2", "1. <b>Q:</b> I saw ___ moon.", "Your: a &lt;b&gt;", "Expl: unique objects", "Ex: <i>the sun</i>"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatReport() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "could not be saved") {
		t.Error("recorded report should not warn")
	}
}

func TestFormatReportStaysUnderMessageLimit(t *testing.T) {
	report := &quiz.Report{TotalQuestions: 15, Status: quiz.RecordedLocallyOnly}
	for i := 0; i < 15; i++ {
		report.WrongAnswers = append(report.WrongAnswers, models.WrongAnswer{
			Question:      fmt.Sprintf("Question %d %s", i+1, strings.Repeat("q", 200)),
			UserAnswer:    "x",
			CorrectAnswer: "y",
			Explanation:   strings.Repeat("e", 200),
			Example:       strings.Repeat("z", 100),
		})
	}

	got := formatReport(report)
	if n := utf8.RuneCountInString(got); n > 4096 {
		t.Fatalf("report is %d characters long", n)
	}
	if !strings.Contains(got, "1. <b>Q:</b> Question 1 ") {
		t.Fatal("first mistake missing")
	}
	if !strings.Contains(got, "more mistakes") || strings.Contains(got, "Question 15 ") {
		t.Fatalf("long report was not trimmed: %q", got)
	}
	if !strings.HasSuffix(got, "could not be saved to your history.") {
		t.Fatal("trimmed report lost its closing line")
	}
}
