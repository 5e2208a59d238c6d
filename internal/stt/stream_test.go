package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// fakeRecognizer implements just enough of the vosk websocket protocol:
// config frame, binary audio frames, eof marker, one final result per flush.
func fakeRecognizer(t *testing.T, results []string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// First frame must be the config.
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)
		var cfg map[string]map[string]any
		require.NoError(t, json.Unmarshal(message, &cfg))
		require.Contains(t, cfg, "config")

		sent := 0
		for {
			kind, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage && strings.Contains(string(message), "eof") {
				for ; sent < len(results); sent++ {
					_ = conn.WriteJSON(map[string]string{"text": results[sent]})
				}
				_ = conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				)
				return
			}
			// Binary audio chunk: emit an interim hypothesis, which the
			// client must discard.
			_ = conn.WriteJSON(map[string]string{"partial": "partial hypothesis"})
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestDialStreamRequiresEndpoint(t *testing.T) {
	_, err := DialStream(context.Background(), StreamConfig{})
	require.Error(t, err)
}

func TestStreamCollectsFinalSegmentsOnly(t *testing.T) {
	server := fakeRecognizer(t, []string{"नमस्ते", "दुनिया"})
	defer server.Close()

	stream, err := DialStream(context.Background(), StreamConfig{
		Endpoint: wsURL(server),
		Language: "hi-IN",
	})
	require.NoError(t, err)

	require.NoError(t, stream.SendAudio(make([]byte, 640)))
	require.NoError(t, stream.SendAudio(make([]byte, 640)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	segments, _, err := stream.CloseAndCollect(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"नमस्ते", "दुनिया"}, segments)
}

func TestStreamEmptyAudioProducesNoSegments(t *testing.T) {
	server := fakeRecognizer(t, nil)
	defer server.Close()

	stream, err := DialStream(context.Background(), StreamConfig{Endpoint: wsURL(server)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	segments, _, err := stream.CloseAndCollect(ctx)
	require.NoError(t, err)
	require.Empty(t, segments)
}

func TestStreamSendAfterCloseFails(t *testing.T) {
	server := fakeRecognizer(t, nil)
	defer server.Close()

	stream, err := DialStream(context.Background(), StreamConfig{Endpoint: wsURL(server)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err = stream.CloseAndCollect(ctx)
	require.NoError(t, err)

	require.Error(t, stream.SendAudio(make([]byte, 640)))
}

func TestStreamCancel(t *testing.T) {
	server := fakeRecognizer(t, nil)
	defer server.Close()

	stream, err := DialStream(context.Background(), StreamConfig{Endpoint: wsURL(server)})
	require.NoError(t, err)
	require.NoError(t, stream.Cancel())
}
