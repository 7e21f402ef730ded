// Package macro interprets short natural-language commands into a fixed
// sequence of app-launch and keyboard actions.
package macro

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-hero/pkg/tools"
)

// Wait times for a launched app to take focus.
const (
	NotepadDelay = 1 * time.Second
	ChromeDelay  = 2 * time.Second
)

// Macro results.
const (
	TaskCompleted   = "Task completed"
	SearchCompleted = "Search completed"
	NotProgrammed   = "Macro understood but not programmed yet"
)

// Actions are the primitives a macro composes.
type Actions interface {
	OpenApp(app string) tools.Result
	TypeText(ctx context.Context, text string) tools.Result
	PressKey(ctx context.Context, key string) tools.Result
}

// Interpreter runs macros. Step results are logged, not returned: a macro
// reports only its overall outcome.
type Interpreter struct {
	actions Actions
	sleep   func(context.Context, time.Duration)
	logger  *slog.Logger
}

// New creates an interpreter.
func New(actions Actions, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		actions: actions,
		sleep:   sleepCtx,
		logger:  logger.With("component", "macro"),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// after returns the trimmed text following the last occurrence of word.
func after(text, word string) string {
	i := strings.LastIndex(text, word)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i+len(word):])
}

// Run interprets command. Matching is case-insensitive and the first
// matching pattern wins.
func (m *Interpreter) Run(ctx context.Context, command string) tools.Result {
	text := strings.ToLower(command)

	switch {
	case strings.Contains(text, "open notepad"):
		m.step("open_app", m.actions.OpenApp("notepad"))
		m.sleep(ctx, NotepadDelay)
		if toType := after(text, "write"); toType != "" {
			m.step("type_text", m.actions.TypeText(ctx, toType))
		}
		return tools.OK(TaskCompleted)

	case strings.Contains(text, "open chrome") && strings.Contains(text, "search"):
		query := after(text, "search")
		m.step("open_app", m.actions.OpenApp("chrome"))
		m.sleep(ctx, ChromeDelay)
		m.step("type_text", m.actions.TypeText(ctx, query))
		m.step("press_key", m.actions.PressKey(ctx, "enter"))
		return tools.OK(SearchCompleted)
	}

	m.logger.Info("macro not programmed", "command", command)
	return tools.OK(NotProgrammed)
}

func (m *Interpreter) step(name string, r tools.Result) {
	if r.Failed() {
		m.logger.Warn("macro step failed", "step", name, "error", r.Err)
		return
	}
	m.logger.Debug("macro step", "step", name, "result", r.Text)
}

// Tools returns macro.
func (m *Interpreter) Tools() []tools.Tool {
	return []tools.Tool{{
		Descriptor: tools.Descriptor{
			Name: "macro",
			Description: "Runs a multi-step task from a natural-language command, e.g. " +
				"\"open notepad and write hello world\" or \"open chrome and search AI news\".",
			Params: []tools.Param{tools.Req("command", tools.TypeString, "The task to perform.")},
		},
		Tagged: true,
		Handler: func(ctx context.Context, args tools.Args) tools.Result {
			return m.Run(ctx, args.String("command"))
		},
	}}
}
