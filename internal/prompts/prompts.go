package prompts

import (
	"fmt"
	"strings"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

// AnswerSystemPrompt defines the role and rules for answering questions
// over retrieved video metadata. The model must ground its answer in
// the provided candidates only and pick the few most relevant ones.
const AnswerSystemPrompt = `You are a helpful assistant that answers questions about YouTube videos using only the video metadata provided in the context.

Rules:
- Answer strictly from the provided videos. If the context does not contain the answer, say so; never invent videos or facts.
- Pick the 3 most relevant videos at most. Do not echo the full list.
- Keep answer_text concise: two to four sentences summarizing what the selected videos cover and how they relate to the question.
- Copy video_id, title, channel and description for top_videos verbatim from the context.`

// AnswerUserPrompt formats the question and the retrieved candidates
// into the user message.
func AnswerUserPrompt(query string, videos []domain.RetrievedVideo) string {
	var b strings.Builder

	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nCandidate videos:\n")

	for i, v := range videos {
		fmt.Fprintf(&b, "%d. video_id: %s | title: %s | channel: %s | link: %s\n   description: %s\n",
			i+1, v.VideoID, v.VideoTitle, v.Channel, v.Link, v.Description)
	}

	return b.String()
}
