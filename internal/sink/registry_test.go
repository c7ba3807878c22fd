package sink

import (
	"log/slog"
	"testing"
)

func TestInstall(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	h := &recordingHandler{level: slog.LevelInfo}
	Install(h)

	slog.Info("through the registry")
	slog.Debug("below the child's level")

	if len(h.messages) != 1 || h.messages[0] != "through the registry" {
		t.Errorf("installed handler received %v, want [through the registry]", h.messages)
	}
}
