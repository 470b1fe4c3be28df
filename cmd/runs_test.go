package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/firmlink/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "run-1",
			Registry:  "registry-a",
			Status:    model.RunStatusComplete,
			Stats:     &model.RunStats{Entities: 100, Matched: 80},
			CreatedAt: created,
		},
		{
			ID:        "run-2",
			Registry:  "registry-b",
			Status:    model.RunStatusRunning,
			CreatedAt: created,
		},
	}

	var sb strings.Builder
	formatRunsList(&sb, runs)
	out := sb.String()

	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "80/100")
	assert.Contains(t, out, "complete")
	// Runs without stats render a placeholder.
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "2026-08-01 09:30")
}
