package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CurrentTime reports the current time, optionally in a named IANA
// timezone.
type CurrentTime struct{}

// NewCurrentTime creates the current_time tool.
func NewCurrentTime() *CurrentTime {
	return &CurrentTime{}
}

func (t *CurrentTime) Name() string { return "current_time" }

func (t *CurrentTime) Description() string {
	return "Returns the current date and time, optionally in a given IANA timezone."
}

func (t *CurrentTime) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"timezone": {
				"type": "string",
				"description": "IANA timezone name, for example Europe/Madrid. Defaults to UTC."
			}
		}
	}`)
}

func (t *CurrentTime) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Timezone string `json:"timezone"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return "", fmt.Errorf("parse arguments: %w", err)
		}
	}

	loc := time.UTC
	if input.Timezone != "" {
		l, err := time.LoadLocation(input.Timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q: %w", input.Timezone, err)
		}
		loc = l
	}

	return time.Now().In(loc).Format(time.RFC1123), nil
}
