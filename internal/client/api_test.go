package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ybpheno16/voiceroom/internal/broker"
	"github.com/ybpheno16/voiceroom/internal/handler"
	"github.com/ybpheno16/voiceroom/internal/model/room"
	roomservice "github.com/ybpheno16/voiceroom/internal/service/room"
	"github.com/ybpheno16/voiceroom/internal/store"
)

func newAPIServer(t *testing.T) *APIClient {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	router := handler.NewRouter(roomservice.NewService(st), nil, nil, broker.NewMemoryBroker(), 0)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL)
}

func TestAPIClientCreateJoinLoad(t *testing.T) {
	api := newAPIServer(t)
	ctx := context.Background()

	created, role, err := api.CreateRoom(ctx, "en", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if role != room.RoleA {
		t.Fatalf("creator role = %q", role)
	}

	// Join normalizes the code, so a lowercase paste still works.
	joined, role, err := api.JoinRoom(ctx, "  "+created.ID+" ")
	if err != nil {
		t.Fatal(err)
	}
	if role != room.RoleB {
		t.Fatalf("joiner role = %q", role)
	}
	if joined.ID != created.ID {
		t.Fatalf("joined %q, created %q", joined.ID, created.ID)
	}

	rm, err := api.LoadRoom(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rm.LanguageA != "en" || rm.LanguageB != "hi" {
		t.Fatalf("loaded languages %q/%q", rm.LanguageA, rm.LanguageB)
	}
}

func TestAPIClientJoinUnknownRoom(t *testing.T) {
	api := newAPIServer(t)

	_, _, err := api.JoinRoom(context.Background(), "ZZZZZZ")
	if !errors.Is(err, room.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestAPIClientSendsSessionID(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("X-Session-ID"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"roomId":"AB12CD","languageA":"en","languageB":"hi","messages":[]}`)
	}))
	defer srv.Close()

	api := NewAPIClient(srv.URL)
	api.UseSession("f2b1c0de-0000-4000-8000-000000000001")
	ctx := context.Background()

	if _, err := api.LoadRoom(ctx, "AB12CD"); err != nil {
		t.Fatal(err)
	}
	if _, err := api.Synthesize(ctx, "AB12CD", time.Now()); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(got))
	}
	for i, id := range got {
		if id != "f2b1c0de-0000-4000-8000-000000000001" {
			t.Fatalf("request %d carried session id %q", i, id)
		}
	}
}

func TestAPIClientSpeakWithoutPipeline(t *testing.T) {
	api := newAPIServer(t)
	ctx := context.Background()

	created, _, err := api.CreateRoom(ctx, "en", "hi")
	if err != nil {
		t.Fatal(err)
	}

	_, err = api.Speak(ctx, created.ID, room.RoleA, "testdata/missing.wav")
	if err == nil {
		t.Fatal("expected an error for a missing audio file")
	}
}
