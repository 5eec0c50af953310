// Package hub is the one-shot intelligence surface beside the live session:
// analyst Q&A, market-news lookups grounded in web search, and image/video
// generation. Failures here are local to the call and never touch the live
// session.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/genai"

	"chartwatch/log"
)

const (
	chatInstruction = "You are a senior institutional trading analyst. Use deep logic and thinking to explain market mechanics."
	newsInstruction = "Provide up-to-date market news and economic impact analysis using Google Search."

	thinkingBudget = 32768

	videoPollInterval = 10 * time.Second
)

// Models names the model behind each hub operation.
type Models struct {
	Search   string
	Thinking string
	Image    string
	Video    string
}

func DefaultModels() Models {
	return Models{
		Search:   "gemini-2.5-flash",
		Thinking: "gemini-2.5-pro",
		Image:    "imagen-4.0-generate-001",
		Video:    "veo-3.0-generate-001",
	}
}

// Source is one grounding citation attached to an answer.
type Source struct {
	Title string
	URI   string
}

type Answer struct {
	Text    string
	Sources []Source
}

type Hub struct {
	client *genai.Client
	models Models
}

func New(client *genai.Client, models Models) *Hub {
	return &Hub{client: client, models: models}
}

// Ask sends one prompt. With grounded set the answer is backed by web search
// and carries citations; with thinking set the model gets an extended
// reasoning budget.
func (h *Hub) Ask(ctx context.Context, prompt string, grounded, thinking bool) (Answer, error) {
	model := h.models.Thinking
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: chatInstruction}}},
	}
	if grounded {
		model = h.models.Search
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: newsInstruction}}}
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if thinking {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](thinkingBudget)}
	}

	started := time.Now()
	resp, err := h.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	log.Generation("ask", model, time.Since(started), err)
	if err != nil {
		return Answer{}, fmt.Errorf("hub: generate: %w", err)
	}

	ans := Answer{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web != nil {
				ans.Sources = append(ans.Sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
			}
		}
	}
	return ans, nil
}

// GenerateImage produces one 16:9 chart-concept image. size is "1K", "2K" or
// "4K".
func (h *Hub) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	started := time.Now()
	resp, err := h.client.Models.GenerateImages(ctx, h.models.Image, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "16:9",
		ImageSize:      size,
	})
	log.Generation("image", h.models.Image, time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("hub: generate image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("hub: no image in response")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

// GenerateVideo kicks off a video generation seeded with an optional image
// and polls until the operation finishes, then materializes the result as
// bytes. Blocks for the whole generation; cancel via ctx.
func (h *Hub) GenerateVideo(ctx context.Context, prompt string, seed *genai.Image) ([]byte, error) {
	started := time.Now()
	op, err := h.client.Models.GenerateVideos(ctx, h.models.Video, prompt, seed, nil)
	if err != nil {
		log.Generation("video", h.models.Video, time.Since(started), err)
		return nil, fmt.Errorf("hub: generate video: %w", err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(videoPollInterval):
		}
		op, err = h.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			log.Generation("video", h.models.Video, time.Since(started), err)
			return nil, fmt.Errorf("hub: poll video: %w", err)
		}
	}
	log.Generation("video", h.models.Video, time.Since(started), nil)

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("hub: no video in response")
	}
	video := op.Response.GeneratedVideos[0].Video
	if video == nil {
		return nil, fmt.Errorf("hub: no video in response")
	}
	if len(video.VideoBytes) > 0 {
		return video.VideoBytes, nil
	}
	if video.URI != "" {
		return fetch(ctx, video.URI)
	}
	return nil, fmt.Errorf("hub: video result has no bytes or URI")
}

func fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub: fetch video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub: fetch video: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
