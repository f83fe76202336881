package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ordprov-service/internal/domain"
)

// completionAPI is the slice of the OpenAI client the generator needs.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces ORD questions through a chat-completion model: fresh
// synthetic words for AI mode, and extraction of real exam questions for
// the ingestion pipeline.
type Generator struct {
	client completionAPI
	model  string
}

// NewGenerator builds a generator against the OpenAI API.
func NewGenerator(apiKey, model string) *Generator {
	if model == "" {
		model = openai.GPT4o
	}
	return &Generator{client: openai.NewClient(apiKey), model: model}
}

// newGeneratorWithClient is test-only.
func newGeneratorWithClient(client completionAPI, model string) *Generator {
	return &Generator{client: client, model: model}
}

// GenerateQuestions asks the model for count brand-new ORD questions and
// parses its reply. A transport failure is returned as-is; a reply that
// cannot be parsed into questions wraps domain.ErrGenerationFailed, since
// the remedy (retry the generation) differs from an empty bank.
func (g *Generator) GenerateQuestions(ctx context.Context, count int) ([]domain.QuizItem, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Du är en expert på Högskoleprovet (HP) i Sverige och skriver ord-frågor i exakt samma stil och svårighetsgrad som ORD-delen.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGenerationPrompt(count),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	items, err := parseItems(replyText(resp))
	if err != nil {
		return nil, err
	}
	return keepValid(items), nil
}

// ExtractQuestions pulls real ORD questions out of one source document
// for the ingestion pipeline. Items are tagged with the given year and
// term; the caller sets the provenance source.
func (g *Generator) ExtractQuestions(ctx context.Context, document string, year int, term string) ([]domain.QuizItem, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract ORD (vocabulary) questions from Swedish Högskoleprov exam documents and answer with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExtractionPrompt(document, year, term),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract questions: %w", err)
	}

	items, err := parseItems(replyText(resp))
	if err != nil {
		return nil, err
	}
	return keepValid(items), nil
}

func buildGenerationPrompt(count int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generera %d helt nya ord-frågor i samma stil som ORD-delen på Högskoleprovet.\n\n", count)
	sb.WriteString("Regler:\n")
	sb.WriteString("1. Välj ovanliga men riktiga svenska ord (substantiv, verb, adjektiv, adverb).\n")
	sb.WriteString("2. Orden ska INTE vara vanliga vardagsord utan mer akademiska/litterära ord.\n")
	sb.WriteString("3. Varje fråga ska ha 5 alternativ (A-E).\n")
	sb.WriteString("4. Exakt ETT alternativ ska vara rätt (synonymen eller närmaste betydelsen).\n")
	sb.WriteString("5. De andra 4 alternativen ska vara trovärdiga distraktorer.\n")
	sb.WriteString("6. Svara ENDAST med giltig JSON utan markdown-formatering.\n\n")
	sb.WriteString("Returnera exakt detta format (en JSON-array):\n")
	sb.WriteString(`[
  {
    "word": "exemplum",
    "options": {
      "A": "alternativ 1",
      "B": "alternativ 2",
      "C": "alternativ 3",
      "D": "alternativ 4",
      "E": "alternativ 5"
    },
    "answer": "C",
    "year": "AI",
    "term": "genererad",
    "source": "modell"
  }
]`)
	fmt.Fprintf(&sb, "\n\nGenerera %d frågor nu:", count)

	return sb.String()
}

func buildExtractionPrompt(document string, year int, term string) string {
	var sb strings.Builder

	sb.WriteString("Extract all ORD (vocabulary) questions from this Högskoleprov document. ")
	sb.WriteString("The ORD section usually has 10 questions where you have a word and 5 options (A-E).\n\n")
	sb.WriteString("For each question, also identify the correct answer based on your knowledge of Swedish and Högskoleprovet.\n\n")
	sb.WriteString("Return the result as a JSON array of objects:\n")
	fmt.Fprintf(&sb, `{
  "word": "string",
  "options": { "A": "...", "B": "...", "C": "...", "D": "...", "E": "..." },
  "answer": "A" | "B" | "C" | "D" | "E",
  "year": %d,
  "term": %q
}`, year, term)
	sb.WriteString("\n\nOnly return the JSON array, no other text.\n")
	sb.WriteString("IMPORTANT: If you cannot find valid word or options for a question, do not include it. ")
	sb.WriteString("Do not use placeholders like \"N/A\" or \"Unknown\".\n\n")
	sb.WriteString("Document:\n")
	sb.WriteString(document)

	return sb.String()
}

func replyText(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// parseItems turns a model reply into quiz items. Models wrap JSON in
// markdown fences or chatter despite instructions, so the first bracketed
// array in the text is taken as the payload.
func parseItems(text string) ([]domain.QuizItem, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in model reply", domain.ErrGenerationFailed)
	}

	var items []domain.QuizItem
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return items, nil
}

func keepValid(items []domain.QuizItem) []domain.QuizItem {
	kept := make([]domain.QuizItem, 0, len(items))
	for _, item := range items {
		if item.Valid() {
			kept = append(kept, item)
		}
	}
	return kept
}
