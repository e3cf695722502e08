package ai

import (
	"context"
	"fmt"

	"github.com/example/studybot/pkg/models"
	"go.uber.org/zap"
)

// TextGenerator turns a prompt into text
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QuestionGenerator asks an LLM for new quiz questions
type QuestionGenerator struct {
	llm        TextGenerator
	log        *zap.Logger
	kind       models.QuestionType
	categoryOf func(subcategory string) string
}

// NewQuestionGenerator creates a generator of multiple choice questions.
// categoryOf names the category of a subcategory in prompts and may be nil.
func NewQuestionGenerator(log *zap.Logger, llm TextGenerator, categoryOf func(string) string) *QuestionGenerator {
	return &QuestionGenerator{
		llm:        llm,
		log:        log,
		kind:       models.MultipleChoice,
		categoryOf: categoryOf,
	}
}

// WithType switches the type of generated questions
func (g *QuestionGenerator) WithType(kind models.QuestionType) *QuestionGenerator {
	c := *g
	c.kind = kind
	return &c
}

// GenerateQuestions returns up to count freshly generated questions
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, subcategory, level string, count int) ([]models.QuestionRecord, error) {
	if level == "" || level == "ALL" {
		level = "B1"
	}
	category := "English"
	if g.categoryOf != nil {
		category = g.categoryOf(subcategory)
	}

	g.log.Info("generating questions",
		zap.String("category", category),
		zap.String("subcategory", subcategory),
		zap.String("level", level),
		zap.Int("count", count),
		zap.String("type", string(g.kind)))

	text, err := g.llm.Generate(ctx, QuestionPrompt(category, subcategory, level, count, g.kind))
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	records, err := ParseQuestions(text, g.kind)
	if err != nil {
		g.log.Debug("unparseable generator reply", zap.String("text", text))
		return nil, err
	}
	if len(records) > count {
		records = records[:count]
	}
	return records, nil
}

// QuestionPrompt builds the generation prompt for one question type
func QuestionPrompt(category, subcategory, level string, count int, kind models.QuestionType) string {
	var instructions, example string
	switch kind {
	case models.MultipleChoice:
		instructions = "Each question should be multiple choice with 4 options. Only one option should be correct."
		example = `{
  "question_text": "Which sentence is grammatically correct?",
  "question_type": "multiple_choice",
  "options": ["He don't like coffee.", "He doesn't likes coffee.", "He no like coffee.", "He doesn't like coffee."],
  "correct_answer": "He doesn't like coffee.",
  "explanation": "'Doesn't' is the correct contraction for 'does not', used with third-person singular subjects like 'he'.",
  "example": "She doesn't want to go."
}`
	case models.TrueFalse:
		instructions = "Each question should be a statement that is either true or false."
		example = `{
  "question_text": "The word 'apple' is a verb.",
  "question_type": "true_false",
  "options": ["True", "False"],
  "correct_answer": "False",
  "explanation": "'Apple' is a noun.",
  "example": "'Run' is a verb, 'quickly' is an adverb."
}`
	case models.FillInBlank:
		instructions = `Each question should be a sentence with a blank ("___"). The user needs to fill in the missing word or phrase.`
		example = `{
  "question_text": "She ___ to the store yesterday.",
  "question_type": "fill_in_blank",
  "options": [],
  "correct_answer": "went",
  "explanation": "The past tense of 'go' is 'went'.",
  "example": "They went to the park."
}`
	default:
		instructions = "Generate a generic English question."
		example = `{"question_text": "...", "question_type": "...", "options": [], "correct_answer": "..."}`
	}

	return fmt.Sprintf(`You are an expert English language teacher creating test questions.
Generate %d English questions for the topic "%s - %s" at CEFR level %s.
%s

For each question, provide:
- "question_text": The question itself.
- "question_type": "%s" (must be this exact string).
- "options": An array of strings (for multiple_choice or true_false). For fill_in_blank, this can be an empty array.
- "correct_answer": The correct answer as a string. If multiple_choice, it's one of the options.
- "explanation": A brief explanation of why the answer is correct, especially for grammar.
- "example": A sentence using the correct answer or illustrating the grammar point.

Format the entire response as a single JSON array of question objects. Do NOT include any text outside this JSON array.
Example of one object in the array:
%s

Return ONLY the JSON array.`, count, category, subcategory, level, instructions, kind, example)
}
