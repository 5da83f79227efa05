package artifact

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// ClaudeGenerator generates artifacts with the Anthropic API.
type ClaudeGenerator struct {
	inner anthropic.Client
	model anthropic.Model
}

var _ Generator = (*ClaudeGenerator)(nil)

// ClaudeConfig contains configuration for creating a ClaudeGenerator.
type ClaudeConfig struct {
	// Model is the Claude model to use. Defaults to Sonnet.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string
}

// NewClaudeGenerator creates a generator backed by the Anthropic API.
func NewClaudeGenerator(cfg ClaudeConfig) (*ClaudeGenerator, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	return &ClaudeGenerator{inner: anthropic.NewClient(opts...), model: model}, nil
}

// Generate renders the request into a prompt, calls the model, and extracts
// the artifact body from the fenced block in the response.
func (g *ClaudeGenerator) Generate(ctx context.Context, req Request) (*Artifact, error) {
	if !req.Kind.Valid() {
		return nil, &ParseError{Kind: req.Kind, Detail: "unknown artifact kind"}
	}

	resp, err := g.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(req.Kind)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(req))),
		},
	})
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return nil, fmt.Errorf("generate %s: %w", req.Kind, err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	content, notes, err := extractFenced(req.Kind, text)
	if err != nil {
		return nil, err
	}
	return &Artifact{Kind: req.Kind, Content: content, Notes: notes}, nil
}

func systemPrompt(kind Kind) string {
	base := "You are a platform artifact author. Respond with exactly one fenced code block containing the artifact, followed by at most two sentences of notes."
	switch kind {
	case KindWidgetTemplate:
		return base + " The artifact is an HTML widget template using Bootstrap classes."
	case KindClientScript:
		return base + " The artifact is a client-side controller script."
	case KindServerScript:
		return base + " The artifact is a server-side data script."
	case KindStylesheet:
		return base + " The artifact is a CSS stylesheet scoped to the widget."
	case KindFlowDefinition:
		return base + " The artifact is a JSON flow definition with stages and transitions."
	default:
		return base
	}
}

func userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", req.TaskContent)
	if req.ObjectiveContext != "" {
		fmt.Fprintf(&b, "Objective: %s\n", req.ObjectiveContext)
	}
	for _, c := range req.Constraints {
		fmt.Fprintf(&b, "Constraint: %s\n", c)
	}
	return b.String()
}

// extractFenced pulls the first fenced code block out of the response text.
// Anything after the closing fence becomes the notes.
func extractFenced(kind Kind, text string) (content, notes string, err error) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", "", &ParseError{Kind: kind, Detail: "no fenced code block in response"}
	}
	// Skip the opening fence line (may carry a language tag).
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", "", &ParseError{Kind: kind, Detail: "unterminated fenced code block"}
	}
	content = strings.TrimRight(rest[:end], "\n")
	if content == "" {
		return "", "", &ParseError{Kind: kind, Detail: "empty fenced code block"}
	}
	notes = strings.TrimSpace(rest[end+3:])
	return content, notes, nil
}
