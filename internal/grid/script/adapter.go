// adapter.go - grid.Adapter backed by script execution in the page.

// Package script drives a live browser grid by evaluating JavaScript
// snippets through an Executor, typically the extension bridge.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dev-console/gridmat/internal/grid"
)

// Executor evaluates a script in the page and returns its JSON result.
type Executor interface {
	Execute(ctx context.Context, script string) (json.RawMessage, error)
}

// Adapter implements grid.Adapter over an Executor.
type Adapter struct {
	exec Executor
}

// NewAdapter creates an Adapter.
func NewAdapter(exec Executor) *Adapter {
	return &Adapter{exec: exec}
}

var _ grid.Adapter = (*Adapter)(nil)

// run executes script and decodes its unwrapped payload into out. A null
// payload means the grid fingerprint did not match.
func (a *Adapter) run(ctx context.Context, op, script string, out any) error {
	raw, err := a.exec.Execute(ctx, script)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	payload, err := ParsePayload(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isNull(payload) {
		return fmt.Errorf("%s: %w", op, grid.ErrNotDetected)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", op, err)
	}
	return nil
}

// Detect reports whether the grid fingerprint matches.
func (a *Adapter) Detect(ctx context.Context) (bool, error) {
	var ok bool
	err := a.run(ctx, "detect", DetectScript, &ok)
	if errors.Is(err, grid.ErrNotDetected) {
		return false, nil
	}
	return ok, err
}

// Rows lists the mounted rows.
func (a *Adapter) Rows(ctx context.Context) ([]grid.Row, error) {
	var rows []grid.Row
	if err := a.run(ctx, "rows", RowsScript, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Metrics reads the container's scroll geometry.
func (a *Adapter) Metrics(ctx context.Context) (grid.Metrics, error) {
	var m grid.Metrics
	err := a.run(ctx, "metrics", MetricsScript, &m)
	return m, err
}

// SetOffset writes the container's scrollTop.
func (a *Adapter) SetOffset(ctx context.Context, offset float64) error {
	return a.run(ctx, "set offset", BuildSetOffsetScript(offset), nil)
}

// Nudge dispatches scroll, wheel and resize events.
func (a *Adapter) Nudge(ctx context.Context) error {
	return a.run(ctx, "nudge", NudgeScript, nil)
}

// FixHeight pins the container height in pixels.
func (a *Adapter) FixHeight(ctx context.Context, height float64) error {
	return a.run(ctx, "fix height", BuildFixHeightScript(height), nil)
}

// Unclip removes ancestor clipping.
func (a *Adapter) Unclip(ctx context.Context) error {
	return a.run(ctx, "unclip", UnclipScript, nil)
}

// Thaw restores the height and ancestor styles changed by FixHeight and
// Unclip.
func (a *Adapter) Thaw(ctx context.Context) error {
	return a.run(ctx, "thaw", ThawScript, nil)
}

// Location returns the page URL the grid is rendered on.
func (a *Adapter) Location(ctx context.Context) (string, error) {
	var href string
	err := a.run(ctx, "location", LocationScript, &href)
	return href, err
}

// ParsePayload unwraps an execute_js result. The bridge may return either
// the bare value or an envelope {"success":bool,"result":...,"error":...,
// "message":...}; failed envelopes become errors.
func ParsePayload(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, errors.New("empty script payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return json.RawMessage(trimmed), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return nil, err
	}
	successRaw, hasSuccess := envelope["success"]
	if !hasSuccess {
		return json.RawMessage(trimmed), nil
	}

	var success bool
	_ = json.Unmarshal(successRaw, &success)
	if !success {
		var msg, code string
		_ = json.Unmarshal(envelope["message"], &msg)
		_ = json.Unmarshal(envelope["error"], &code)
		switch {
		case msg != "":
			return nil, errors.New(msg)
		case code != "":
			return nil, errors.New(code)
		default:
			return nil, errors.New("execute_js failed")
		}
	}
	result, ok := envelope["result"]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
