package telemetry

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/config"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitOtel_Disabled(t *testing.T) {
	shutdown, err := InitOtel(context.Background(), config.Telemetry{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitOtel_Enabled(t *testing.T) {
	// grpc.NewClient connects lazily, so no collector is needed to build the providers.
	shutdown, err := InitOtel(context.Background(), config.Telemetry{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		ServiceName: "tic-tac-toe-test",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Flushing to an absent collector may fail; shutdown must still return.
	_ = shutdown(ctx)
}
