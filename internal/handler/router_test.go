package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ybpheno16/voiceroom/internal/broker"
	roomservice "github.com/ybpheno16/voiceroom/internal/service/room"
	speechservice "github.com/ybpheno16/voiceroom/internal/service/speech"
	"github.com/ybpheno16/voiceroom/internal/store"
)

func TestSynthesizeUnavailableWithoutTTSProvider(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	roomSvc := roomservice.NewService(st)
	rm, err := roomSvc.Create(context.Background(), "en", "hi")
	require.NoError(t, err)

	// Deepgram-only deployment: transcription works, no TTS provider.
	speechSvc := speechservice.NewService(speechservice.NewDeepgramClient("key"), nil)
	require.False(t, speechSvc.CanSynthesize())

	router := NewRouter(roomSvc, nil, speechSvc, broker.NewMemoryBroker(), 0)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	body := bytes.NewBufferString(`{"timestamp":12345}`)
	resp, err := http.Post(srv.URL+"/api/rooms/"+rm.ID+"/synthesize", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
