// Package artifact turns completed task content into concrete platform
// artifacts (widget templates, flow definitions, scripts) via a model backend.
package artifact

import (
	"context"
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates the generation backend could not be
// reached. Callers may retry later or fall back to manual authoring.
var ErrBackendUnavailable = errors.New("artifact backend unavailable")

// ParseError indicates the backend produced output that could not be
// interpreted as the requested artifact kind.
type ParseError struct {
	Kind   Kind
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s artifact: %s", e.Kind, e.Detail)
}

// Kind identifies what sort of artifact is being generated.
type Kind string

const (
	KindWidgetTemplate Kind = "widget-template"
	KindClientScript   Kind = "client-script"
	KindServerScript   Kind = "server-script"
	KindStylesheet     Kind = "stylesheet"
	KindFlowDefinition Kind = "flow-definition"
	KindGeneric        Kind = "generic"
)

// Valid returns true if the kind is a known artifact kind.
func (k Kind) Valid() bool {
	switch k {
	case KindWidgetTemplate, KindClientScript, KindServerScript,
		KindStylesheet, KindFlowDefinition, KindGeneric:
		return true
	}
	return false
}

// Request describes one artifact to generate.
type Request struct {
	// Kind selects the output format and the prompt framing.
	Kind Kind
	// TaskContent is the task text driving the generation.
	TaskContent string
	// ObjectiveContext gives the model the surrounding objective.
	ObjectiveContext string
	// Constraints are objective-level constraints to honor.
	Constraints []string
}

// Artifact is a generated piece of content ready to hand to the platform.
type Artifact struct {
	Kind    Kind
	Content string
	// Notes carries any caveats the backend surfaced alongside the content.
	Notes string
}

// Generator produces artifacts from task descriptions.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Artifact, error)
}
