package artifact

import (
	"errors"
	"strings"
	"testing"
)

func TestKindValid(t *testing.T) {
	for _, kind := range []Kind{KindWidgetTemplate, KindClientScript, KindServerScript,
		KindStylesheet, KindFlowDefinition, KindGeneric} {
		if !kind.Valid() {
			t.Errorf("%s should be valid", kind)
		}
	}
	if Kind("spreadsheet").Valid() {
		t.Error("unknown kind accepted")
	}
}

func TestExtractFenced(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantContent string
		wantNotes   string
		wantErr     string
	}{
		{
			name:        "plain block",
			text:        "```\n<div>hello</div>\n```",
			wantContent: "<div>hello</div>",
		},
		{
			name:        "language tag skipped",
			text:        "```html\n<div>hello</div>\n```",
			wantContent: "<div>hello</div>",
		},
		{
			name:        "notes after the fence",
			text:        "Here it is:\n```css\n.widget { color: red; }\n```\nScoped to the widget root.",
			wantContent: ".widget { color: red; }",
			wantNotes:   "Scoped to the widget root.",
		},
		{
			name:        "only first block used",
			text:        "```\nfirst\n```\nmiddle\n```\nsecond\n```",
			wantContent: "first",
			wantNotes:   "middle\n```\nsecond\n```",
		},
		{
			name:    "no block",
			text:    "I cannot produce that artifact.",
			wantErr: "no fenced code block",
		},
		{
			name:    "unterminated block",
			text:    "```js\nfunction() {",
			wantErr: "unterminated fenced code block",
		},
		{
			name:    "empty block",
			text:    "```\n```",
			wantErr: "empty fenced code block",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, notes, err := extractFenced(KindWidgetTemplate, tt.text)
			if tt.wantErr != "" {
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				if !strings.Contains(perr.Detail, tt.wantErr) {
					t.Errorf("detail: got %q, want %q", perr.Detail, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if content != tt.wantContent {
				t.Errorf("content: got %q, want %q", content, tt.wantContent)
			}
			if notes != tt.wantNotes {
				t.Errorf("notes: got %q, want %q", notes, tt.wantNotes)
			}
		})
	}
}

func TestSystemPromptPerKind(t *testing.T) {
	seen := make(map[string]Kind)
	for _, kind := range []Kind{KindWidgetTemplate, KindClientScript, KindServerScript,
		KindStylesheet, KindFlowDefinition} {
		prompt := systemPrompt(kind)
		if !strings.Contains(prompt, "one fenced code block") {
			t.Errorf("%s: prompt should request a fenced block", kind)
		}
		if prev, dup := seen[prompt]; dup {
			t.Errorf("%s and %s share a system prompt", kind, prev)
		}
		seen[prompt] = kind
	}
}
