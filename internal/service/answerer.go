package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/logger"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/prompts"
)

const noResultsAnswer = "No relevant videos found for your question. Try syncing more channels or rephrasing the query."

// maxTopVideos bounds how many videos the model may select for the
// presentation block.
const maxTopVideos = 3

// AnswererService turns retrieved video candidates into a grounded
// natural-language answer plus an embeddable HTML presentation.
type AnswererService struct {
	client    *resty.Client
	retriever *RetrieverService
	logger    *logger.Logger
	model     string
	endpoint  string
}

// AnswererConfig holds configuration for the answerer.
type AnswererConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewAnswererService creates a new answerer service.
func NewAnswererService(retriever *RetrieverService, log *logger.Logger, cfg *AnswererConfig) *AnswererService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &AnswererService{
		client:    client,
		retriever: retriever,
		logger:    log,
		model:     cfg.Model,
		endpoint:  baseURL + "/chat/completions",
	}
}

// Answer is the full QA result for one query.
type Answer struct {
	AnswerText       string                  `json:"answer_text"`
	PresentationHTML string                  `json:"presentation_html"`
	Videos           []domain.RetrievedVideo `json:"videos"`
}

// structuredAnswer is the schema the completion model is constrained to.
type structuredAnswer struct {
	AnswerText string `json:"answer_text"`
	TopVideos  []struct {
		VideoID     string `json:"video_id"`
		Title       string `json:"title"`
		Channel     string `json:"channel"`
		Description string `json:"description"`
	} `json:"top_videos"`
}

// OpenAI Chat Completion API request/response structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// answerSchema constrains the completion to the structured answer shape.
var answerSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"answer_text": {"type": "string"},
		"top_videos": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"video_id": {"type": "string"},
					"title": {"type": "string"},
					"channel": {"type": "string"},
					"description": {"type": "string"}
				},
				"required": ["video_id", "title", "channel", "description"],
				"additionalProperties": false
			}
		}
	},
	"required": ["answer_text", "top_videos"],
	"additionalProperties": false
}`)

// Answer retrieves candidates for the query and asks the completion
// model for a grounded answer. Zero retrieved candidates is not an
// error: the caller gets a fixed message and empty HTML.
func (s *AnswererService) Answer(ctx context.Context, query string, topK int, channelID string) (*Answer, error) {
	videos, err := s.retriever.Retrieve(ctx, query, topK, channelID)
	if err != nil {
		return nil, err
	}

	if len(videos) == 0 {
		return &Answer{AnswerText: noResultsAnswer, Videos: []domain.RetrievedVideo{}}, nil
	}

	structured, err := s.complete(ctx, query, videos)
	if err != nil {
		return nil, err
	}

	selected := selectVideos(structured, videos)
	html, err := renderPresentation(structured.AnswerText, selected)
	if err != nil {
		return nil, &domain.AnswerError{Err: fmt.Errorf("render presentation: %w", err)}
	}

	logger.CtxInfo(ctx, "Answered query: query=%q, candidates=%d, selected=%d",
		query, len(videos), len(selected))

	return &Answer{
		AnswerText:       structured.AnswerText,
		PresentationHTML: html,
		Videos:           selected,
	}, nil
}

func (s *AnswererService) complete(ctx context.Context, query string, videos []domain.RetrievedVideo) (*structuredAnswer, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.AnswerSystemPrompt},
			{Role: "user", Content: prompts.AnswerUserPrompt(query, videos)},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "video_answer",
				Strict: true,
				Schema: answerSchema,
			},
		},
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, &domain.AnswerError{Err: fmt.Errorf("failed to call completions API: %w", err)}
	}
	if httpResp.StatusCode() != 200 {
		if resp.Error != nil && resp.Error.Message != "" {
			return nil, &domain.AnswerError{Err: fmt.Errorf("completions API: %s", resp.Error.Message)}
		}
		return nil, &domain.AnswerError{Err: fmt.Errorf("completions API: status %d", httpResp.StatusCode())}
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.AnswerError{Err: fmt.Errorf("no completion returned")}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var structured structuredAnswer
	if err := json.Unmarshal([]byte(content), &structured); err != nil {
		return nil, &domain.AnswerError{Err: fmt.Errorf("unparsable completion: %w", err)}
	}
	if structured.AnswerText == "" {
		return nil, &domain.AnswerError{Err: fmt.Errorf("completion missing answer_text")}
	}

	return &structured, nil
}

// selectVideos maps the model's picks back to the retrieved records so
// links and scores survive the round trip. Unknown ids from the model
// are dropped.
func selectVideos(structured *structuredAnswer, retrieved []domain.RetrievedVideo) []domain.RetrievedVideo {
	byID := make(map[string]domain.RetrievedVideo, len(retrieved))
	for _, v := range retrieved {
		byID[v.VideoID] = v
	}

	selected := make([]domain.RetrievedVideo, 0, maxTopVideos)
	for _, pick := range structured.TopVideos {
		if len(selected) == maxTopVideos {
			break
		}
		if v, ok := byID[pick.VideoID]; ok {
			selected = append(selected, v)
		}
	}

	// Model returned no usable ids; fall back to the best candidates.
	if len(selected) == 0 {
		limit := maxTopVideos
		if limit > len(retrieved) {
			limit = len(retrieved)
		}
		selected = retrieved[:limit]
	}

	return selected
}

var presentationTemplate = template.Must(template.New("presentation").Parse(`<div class="yt-answer">
<p class="yt-answer-text">{{.AnswerText}}</p>
{{range .Videos}}<div class="yt-answer-video">
<h3>{{.VideoTitle}}</h3>
<p class="yt-answer-channel">{{.Channel}}</p>
<iframe width="560" height="315" src="https://www.youtube.com/embed/{{.VideoID}}" frameborder="0" allowfullscreen></iframe>
<p class="yt-answer-description">{{.Description}}</p>
</div>
{{end}}</div>`))

func renderPresentation(answerText string, videos []domain.RetrievedVideo) (string, error) {
	var b strings.Builder
	data := struct {
		AnswerText string
		Videos     []domain.RetrievedVideo
	}{AnswerText: answerText, Videos: videos}

	if err := presentationTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
