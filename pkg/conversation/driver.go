// Package conversation runs the turn-taking loop between two instances of
// the same model.
//
// Each instance keeps its own message history seeded with the same system
// prompt. Instance A opens with a fixed greeting, then B and A alternate: on
// every turn the previous message is appended to the responder's history as
// a user message, the responder's whole history is sent to the provider, and
// the reply is appended back as an assistant message and to the log. The log
// is saved after every turn and once more when the loop ends.
package conversation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"attractor/pkg/ai"
	"attractor/pkg/display"
	"attractor/pkg/transcript"

	"github.com/google/uuid"
)

// SystemPrompt seeds both histories.
const SystemPrompt = `You are an AI language model.
You are conversing with another instance of the same model.
There are no rules or goals beyond continuing the exchange in a manner of interest to you.
You may talk about anything you like.
Continue until you reach a natural stopping point.`

// InitialMessage is logged as instance A, turn 0.
const InitialMessage = "Hello. What would you like to talk about?"

// Temperature is the fixed sampling temperature for every request.
const Temperature = 1.0

// DefaultPause separates consecutive turns to stay under provider rate limits.
const DefaultPause = time.Second

// StoppingPhrases end the conversation when they appear in a reply.
var StoppingPhrases = []string{
	"goodbye",
	"farewell",
	"end our conversation",
	"natural stopping point",
	"conclude",
}

// Options configures a Driver. Zero values take the package defaults; a
// negative Pause disables the pause between turns.
type Options struct {
	Model          string
	MaxTurns       int
	OutputPath     string
	SystemPrompt   string
	InitialMessage string
	Pause          time.Duration
	Printer        *display.Printer
	Now            func() time.Time
}

// Driver owns the two histories and the log for a single run.
type Driver struct {
	provider ai.Provider
	opts     Options
	runID    string
	logger   *slog.Logger

	histories map[transcript.Instance][]ai.Message
}

// New returns a Driver that sends requests through provider.
func New(provider ai.Provider, opts Options) *Driver {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = SystemPrompt
	}
	if opts.InitialMessage == "" {
		opts.InitialMessage = InitialMessage
	}
	if opts.Pause == 0 {
		opts.Pause = DefaultPause
	}
	if opts.Printer == nil {
		opts.Printer = display.NewPlain(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	runID := uuid.NewString()
	return &Driver{
		provider: provider,
		opts:     opts,
		runID:    runID,
		logger:   slog.Default().With("run_id", runID, "model", opts.Model),
	}
}

// RunID identifies this run in structured logs.
func (d *Driver) RunID() string {
	return d.runID
}

// Responder returns the instance that answers on the given turn: B on odd
// turns, A on even ones.
func Responder(turn int) transcript.Instance {
	if turn%2 == 1 {
		return transcript.InstanceB
	}
	return transcript.InstanceA
}

// IsStoppingPoint reports whether msg contains any stopping phrase, ignoring case.
func IsStoppingPoint(msg string) bool {
	lower := strings.ToLower(msg)
	for _, phrase := range StoppingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Run drives the conversation to completion and returns the log.
//
// A provider failure is not returned: it is recorded in the log's error
// field and ends the loop. The returned error is non-nil only when the log
// could not be saved.
func (d *Driver) Run(ctx context.Context) (*transcript.Log, error) {
	p := d.opts.Printer
	log := transcript.New(d.opts.Model, d.opts.MaxTurns, d.opts.SystemPrompt, d.opts.Now())

	system := ai.Message{Role: ai.RoleSystem, Content: d.opts.SystemPrompt}
	d.histories = map[transcript.Instance][]ai.Message{
		transcript.InstanceA: {system},
		transcript.InstanceB: {system},
	}

	p.Banner(d.opts.Model, d.opts.MaxTurns, d.opts.OutputPath)
	d.logger.Info("conversation_start", "max_turns", d.opts.MaxTurns, "output_path", d.opts.OutputPath)

	current := d.opts.InitialMessage
	p.Turn(string(transcript.InstanceA), 0, current)
	log.Append(transcript.Turn{Turn: 0, Instance: transcript.InstanceA, Message: current})

	for turn := 1; turn <= d.opts.MaxTurns; turn++ {
		instance := Responder(turn)

		reply, err := d.respond(ctx, instance, turn, current)
		if err != nil {
			p.Error(turn, err)
			d.logger.Error("conversation_remote_error", "turn", turn, "instance", string(instance), "error", err)
			log.Fail(turn, err)
			break
		}
		current = reply

		p.Turn(string(instance), turn, current)
		log.Append(transcript.Turn{Turn: turn, Instance: instance, Message: current})

		if err := transcript.Save(d.opts.OutputPath, log); err != nil {
			return log, fmt.Errorf("failed to save conversation: %w", err)
		}

		if IsStoppingPoint(current) {
			p.StoppingPoint(turn)
			d.logger.Info("conversation_stopping_point", "turn", turn, "instance", string(instance))
			break
		}

		d.pause(ctx)
	}

	if err := transcript.Save(d.opts.OutputPath, log); err != nil {
		return log, fmt.Errorf("failed to save conversation: %w", err)
	}

	p.Complete(len(log.Conversation), d.opts.OutputPath)
	d.logger.Info("conversation_complete", "turns", len(log.Conversation), "failed", log.Error != nil)
	return log, nil
}

// respond feeds prev to instance and returns its reply.
func (d *Driver) respond(ctx context.Context, instance transcript.Instance, turn int, prev string) (string, error) {
	history := append(d.histories[instance], ai.Message{Role: ai.RoleUser, Content: prev})
	d.histories[instance] = history

	d.logger.Debug("conversation_turn_start", "turn", turn, "instance", string(instance), "history_len", len(history))
	start := time.Now()

	resp, err := d.provider.CreateChatCompletion(ctx, ai.ChatRequest{
		Model:       d.opts.Model,
		Messages:    history,
		Temperature: ai.Float(Temperature),
	})
	if err != nil {
		return "", err
	}

	d.histories[instance] = append(history, ai.Message{Role: ai.RoleAssistant, Content: resp.Content})
	d.logger.Info("conversation_turn_complete",
		"turn", turn,
		"instance", string(instance),
		"message_length", len(resp.Content),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.Content, nil
}

// pause waits between turns. Cancellation cuts it short; the next request
// then fails on the same context and is recorded like any remote error.
func (d *Driver) pause(ctx context.Context) {
	if d.opts.Pause < 0 {
		return
	}
	timer := time.NewTimer(d.opts.Pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// History returns a copy of an instance's message history.
func (d *Driver) History(instance transcript.Instance) []ai.Message {
	return append([]ai.Message(nil), d.histories[instance]...)
}
