package pipeline

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/vaidikdevsen/friday-ai/backend/internal/model/chat"
	chatservice "github.com/vaidikdevsen/friday-ai/backend/internal/service/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/service/image"
)

var (
	ErrEmptyPrompt          = errors.New("prompt is empty")
	ErrImageServiceDisabled = errors.New("image generation is not configured")
)

// failureMessage is what the user sees in the transcript when image
// generation fails; it is stored as a regular model message.
const failureMessage = "Sorry, I couldn't generate an image. Please try again or rephrase your prompt."

// State names the pipeline's position in the request lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateRuleCheck  State = "rule_check"
	StateEnhancing  State = "enhancing"
	StateGenerating State = "generating"
	StateRendering  State = "rendering"
)

// Outcome is the terminal result of one request.
type Outcome string

const (
	OutcomeRendered Outcome = "rendered"
	OutcomeAborted  Outcome = "aborted"
	OutcomeFailed   Outcome = "failed"
)

// Enhancer rewrites a raw prompt into a richer one. Failure is
// best-effort: the pipeline substitutes the raw text and carries on.
type Enhancer interface {
	Enhance(ctx context.Context, userText string) (string, error)
}

// Generator produces an image for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (image.Result, error)
}

// Renderer is the rendering surface for one request: it shows and clears
// the pending indicator and receives the messages to display. Errors are
// delivered as ordinary model messages, never as raw failures.
type Renderer interface {
	ShowPending()
	RemovePending()
	RenderMessage(msg chat.Message)
}

// Pipeline coordinates a single in-flight generation request:
// rule-matching short-circuit, prompt enhancement, image generation, and
// result persistence. Submitting while a request is in flight cancels
// the previous request; its handlers finish as cleanup only and never
// touch the transcript.
type Pipeline struct {
	registry  *chatservice.Service
	enhancer  Enhancer
	generator Generator
	rules     []Rule

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
}

// New wires the pipeline to its collaborators. enhancer may be nil, in
// which case every request uses the raw prompt.
func New(registry *chatservice.Service, enhancer Enhancer, generator Generator) *Pipeline {
	return &Pipeline{
		registry:  registry,
		enhancer:  enhancer,
		generator: generator,
		rules:     DefaultRules(),
		state:     StateIdle,
	}
}

// State reports the pipeline's current lifecycle position.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Busy reports whether a request is in flight.
func (p *Pipeline) Busy() bool {
	return p.State() != StateIdle
}

// Stop cancels the in-flight request, if any. Not an error path: the
// aborted request leaves no transcript entry.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// begin registers a new request, preempting any previous one, and
// returns its sequence number plus a context bound to its cancellation
// token.
func (p *Pipeline) begin(ctx context.Context) (uint64, context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	reqCtx, cancel := context.WithCancel(ctx)
	p.seq++
	p.cancel = cancel
	p.state = StateRuleCheck
	return p.seq, reqCtx
}

// finish clears the cancellation token and re-enables submission, but
// only if the request is still the current one.
func (p *Pipeline) finish(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = StateIdle
}

// transition moves to the next state; it is a no-op for preempted
// requests.
func (p *Pipeline) transition(seq uint64, next State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return false
	}
	p.state = next
	return true
}

func (p *Pipeline) isCurrent(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq == seq
}

// Submit runs one request to a terminal state. The user message is
// appended to the active conversation before any network work starts;
// model output (canned response, image, or synthesized error) is
// appended on completion. Cancellation leaves the transcript with the
// user message only.
func (p *Pipeline) Submit(ctx context.Context, userText string, renderer Renderer) (Outcome, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", ErrEmptyPrompt
	}

	active, err := p.registry.EnsureActive(ctx)
	if err != nil {
		return "", err
	}

	userMsg, err := p.registry.AppendMessage(ctx, active.ID, chat.NewTextMessage(chat.RoleUser, userText))
	if err != nil {
		return "", err
	}
	renderer.RenderMessage(userMsg)

	seq, reqCtx := p.begin(ctx)
	renderer.ShowPending()
	defer p.finish(seq)

	// Rule table: first match answers without any network call.
	if response, ok := matchRule(p.rules, userText); ok {
		return p.render(reqCtx, seq, active.ID, chat.NewTextMessage(chat.RoleModel, response), renderer)
	}

	prompt := p.enhance(reqCtx, seq, userText)

	// A request cancelled during enhancement never reaches generation.
	if reqCtx.Err() != nil {
		renderer.RemovePending()
		return OutcomeAborted, nil
	}

	p.transition(seq, StateGenerating)
	result, err := p.generate(reqCtx, prompt)
	if err != nil {
		if reqCtx.Err() != nil {
			renderer.RemovePending()
			return OutcomeAborted, nil
		}
		log.Printf("[pipeline] image generation failed: %v", err)
		return p.fail(reqCtx, seq, active.ID, renderer)
	}

	msg := chat.NewImageMessage(result.DataURI, userText, result.Source)
	return p.render(reqCtx, seq, active.ID, msg, renderer)
}

// enhance is best-effort: any failure, including an absent enhancer,
// falls back to the raw user text so generation is always attempted.
func (p *Pipeline) enhance(ctx context.Context, seq uint64, userText string) string {
	if p.enhancer == nil {
		return userText
	}

	p.transition(seq, StateEnhancing)
	enhanced, err := p.enhancer.Enhance(ctx, userText)
	if err != nil {
		log.Printf("[pipeline] prompt enhancement failed, using original: %v", err)
		return userText
	}
	return enhanced
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (image.Result, error) {
	if p.generator == nil {
		return image.Result{}, ErrImageServiceDisabled
	}
	return p.generator.Generate(ctx, prompt)
}

// render persists and displays the model message, unless the request was
// preempted or cancelled in the meantime.
func (p *Pipeline) render(ctx context.Context, seq uint64, conversationID string, msg chat.Message, renderer Renderer) (Outcome, error) {
	if !p.transition(seq, StateRendering) || ctx.Err() != nil {
		renderer.RemovePending()
		return OutcomeAborted, nil
	}

	saved, err := p.registry.AppendMessage(ctx, conversationID, msg)
	if err != nil {
		renderer.RemovePending()
		return "", err
	}

	renderer.RemovePending()
	renderer.RenderMessage(saved)
	return OutcomeRendered, nil
}

// fail turns a generation failure into a permanent transcript entry.
func (p *Pipeline) fail(ctx context.Context, seq uint64, conversationID string, renderer Renderer) (Outcome, error) {
	if !p.isCurrent(seq) || ctx.Err() != nil {
		renderer.RemovePending()
		return OutcomeAborted, nil
	}

	saved, err := p.registry.AppendMessage(ctx, conversationID, chat.NewTextMessage(chat.RoleModel, failureMessage))
	if err != nil {
		renderer.RemovePending()
		return "", err
	}

	renderer.RemovePending()
	renderer.RenderMessage(saved)
	return OutcomeFailed, nil
}
