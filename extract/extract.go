package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ontorag/ontorag/dto"
	"github.com/ontorag/ontorag/instance"
	"github.com/ontorag/ontorag/llm"
	"github.com/ontorag/ontorag/proposal"
	"github.com/ontorag/ontorag/schema"
	"github.com/ontorag/ontorag/store"
)

// ErrLLMParse marks a chunk whose LLM reply stayed invalid through the
// strict-JSON retry. The chunk is dropped; the run continues.
var ErrLLMParse = errors.New("llm reply unparseable")

const systemPrompt = "You are a careful ontology induction engine. Output JSON only."

const strictJSONReminder = "Your previous reply was not valid JSON matching the required shape. " +
	"Return strict JSON only: a single JSON object, no code fences, no commentary."

// Options configure an extraction run. The zero value of every field has a
// safe default: sequential execution, 10s between calls, 120s per call.
type Options struct {
	Provider llm.Provider
	Model    string
	Template *Template
	// DelaySeconds is the minimum spacing between successive LLM calls
	// across all workers.
	DelaySeconds int
	// TimeoutSeconds bounds one LLM call including its parse retry.
	TimeoutSeconds int
	// Workers bounds concurrent chunk extraction. Default 1 (sequential).
	Workers int
	// RunLog, when set, records the outcome of every chunk call.
	RunLog *store.RunLog
	// Stage labels run log entries: "schema" or "instances".
	Stage string
}

func (o *Options) delay() time.Duration {
	if o.DelaySeconds < 0 {
		return 0
	}
	if o.DelaySeconds == 0 {
		return 10 * time.Second
	}
	return time.Duration(o.DelaySeconds) * time.Second
}

func (o *Options) timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o *Options) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

// pacer enforces a minimum interval between calls across goroutines.
type pacer struct {
	mu    sync.Mutex
	last  time.Time
	delay time.Duration
}

func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	next := p.last.Add(p.delay)
	if next.Before(now) {
		next = now
	}
	p.last = next
	p.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// Drop the info string ("json" etc) on the opening fence.
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// chunkOutcome is the per-chunk result of one extraction call.
type chunkOutcome[T any] struct {
	value    T
	ok       bool
	err      error // non-fatal per-chunk failure, also rendered as a warning
	warnings []string
	entry    store.RunEntry
}

// callChunk performs one paced LLM call for a chunk with a single
// strict-JSON parse retry. A chunk either yields a parsed value or a
// warning; errors never escalate past the chunk.
func callChunk[T any](ctx context.Context, opts *Options, pace *pacer, cardJSON []byte,
	chunk dto.Chunk, parse func([]byte) (T, error)) chunkOutcome[T] {

	var out chunkOutcome[T]
	out.entry = store.RunEntry{
		DocumentID: chunk.DocumentID,
		ChunkID:    chunk.ChunkID,
		Stage:      opts.Stage,
		Model:      opts.Model,
	}
	started := time.Now()
	defer func() { out.entry.ElapsedMs = time.Since(started).Milliseconds() }()

	chunkJSON, err := json.Marshal(chunk)
	if err != nil {
		out.entry.Status = store.StatusParseError
		out.entry.Error = err.Error()
		out.warnings = append(out.warnings, fmt.Sprintf("chunk %s: encoding chunk: %v", chunk.ChunkID, err))
		return out
	}

	callCtx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: opts.Template.Render(chunkJSON, cardJSON)},
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := pace.wait(callCtx); err != nil {
			out.entry.Status = store.StatusTimeout
			out.entry.Error = err.Error()
			out.warnings = append(out.warnings, fmt.Sprintf("chunk %s: %v; dropped", chunk.ChunkID, err))
			return out
		}

		resp, err := opts.Provider.Chat(callCtx, llm.ChatRequest{
			Model:          opts.Model,
			Messages:       messages,
			Temperature:    0.2,
			ResponseFormat: "json_object",
		})
		if err != nil {
			status := store.StatusHTTPError
			if callCtx.Err() != nil {
				status = store.StatusTimeout
			}
			out.entry.Status = status
			out.entry.Error = err.Error()
			out.warnings = append(out.warnings, fmt.Sprintf("chunk %s: llm call failed: %v; dropped", chunk.ChunkID, err))
			return out
		}
		out.entry.PromptTokens += resp.PromptTokens
		out.entry.CompletionTokens += resp.CompletionTokens

		value, err := parse([]byte(stripFences(resp.Content)))
		if err == nil {
			out.value = value
			out.ok = true
			out.entry.Status = store.StatusOK
			return out
		}
		lastErr = err
		slog.Warn("extract: parse failed, retrying with strict reminder",
			"chunk_id", chunk.ChunkID, "attempt", attempt+1, "error", err)
		messages = append(messages,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: strictJSONReminder},
		)
	}

	out.err = fmt.Errorf("%w after retry: %w", ErrLLMParse, lastErr)
	out.entry.Status = store.StatusParseError
	out.entry.Error = out.err.Error()
	out.warnings = append(out.warnings, fmt.Sprintf("chunk %s: %v; dropped", chunk.ChunkID, out.err))
	return out
}

// runAll extracts every chunk through a bounded worker pool. Results come
// back in chunk order regardless of worker count; failed chunks contribute
// warnings instead of values.
func runAll[T any](ctx context.Context, opts *Options, chunks []dto.Chunk, cardJSON []byte,
	parse func([]byte) (T, error)) ([]T, []string, error) {

	if opts.Provider == nil {
		return nil, nil, fmt.Errorf("extract: no llm provider configured")
	}
	if opts.Template == nil {
		return nil, nil, fmt.Errorf("extract: no template configured")
	}

	pace := &pacer{delay: opts.delay()}
	outcomes := make([]chunkOutcome[T], len(chunks))

	sem := make(chan struct{}, opts.workers())
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, chunk dto.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = callChunk(ctx, opts, pace, cardJSON, chunk, parse)
		}(i, chunk)
	}
	wg.Wait()

	var values []T
	var warnings []string
	for _, oc := range outcomes {
		warnings = append(warnings, oc.warnings...)
		if oc.ok {
			values = append(values, oc.value)
		}
		if opts.RunLog != nil {
			if err := opts.RunLog.Record(ctx, oc.entry); err != nil {
				slog.Warn("extract: run log write failed", "error", err)
			}
		}
	}
	return values, warnings, ctx.Err()
}

// Schema runs schema extraction over the chunks and aggregates the
// per-chunk proposals into one document proposal. Chunk-level warnings
// (including dropped chunks) surface on the aggregate.
func Schema(ctx context.Context, opts Options, chunks []dto.Chunk, card *schema.Card) (*proposal.Document, error) {
	if opts.Stage == "" {
		opts.Stage = "schema"
	}
	if opts.Template == nil {
		opts.Template, _ = NewTemplate(DefaultSchemaTemplate)
	}
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("encoding schema card: %w", err)
	}

	parsed, warnings, err := runAll(ctx, &opts, chunks, cardJSON, proposal.ParseChunk)
	if err != nil {
		return nil, err
	}
	doc := proposal.Aggregate(parsed)
	doc.Warnings = append(doc.Warnings, warnings...)
	return doc, nil
}

// Instances runs instance extraction over the chunks, returning the
// per-chunk proposals in chunk order plus run warnings.
func Instances(ctx context.Context, opts Options, chunks []dto.Chunk, card *schema.Card) ([]*instance.ChunkProposal, []string, error) {
	if opts.Stage == "" {
		opts.Stage = "instances"
	}
	if opts.Template == nil {
		opts.Template, _ = NewTemplate(DefaultInstanceTemplate)
	}
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding schema card: %w", err)
	}
	return runAll(ctx, &opts, chunks, cardJSON, instance.ParseChunk)
}
