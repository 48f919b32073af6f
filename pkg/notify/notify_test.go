package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendWithoutRelayConfiguredLogsInsteadOfFailing(t *testing.T) {
	m := NewMailer("", "", "", 0)
	err := m.Send("owner@example.com", "plugin failed", "the downloader plugin exited non-zero")
	require.NoError(t, err)
}

func TestSendWithPartialConfigFallsBackToLogging(t *testing.T) {
	m := NewMailer("smtp.example.com", "user@example.com", "", 587)
	err := m.Send("owner@example.com", "plugin failed", "body")
	require.NoError(t, err)
}
