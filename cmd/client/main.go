package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ybpheno16/voiceroom/internal/client"
	"github.com/ybpheno16/voiceroom/internal/model/language"
	"github.com/ybpheno16/voiceroom/internal/model/room"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "voiceroom server base URL")
	create := flag.Bool("create", false, "create a new room")
	join := flag.String("join", "", "join an existing room by code")
	langA := flag.String("lang", "en", "your language when creating a room")
	langB := flag.String("peer-lang", "hi", "the other participant's language when creating a room")
	interval := flag.Duration("interval", 3*time.Second, "poll interval")
	flag.Parse()

	if *create == (*join != "") {
		flag.Usage()
		log.Fatal("specify exactly one of -create or -join CODE")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPIClient(*server)

	var (
		rm   room.Room
		role room.Role
		err  error
	)
	if *create {
		rm, role, err = api.CreateRoom(ctx, *langA, *langB)
		if err != nil {
			log.Fatalf("create room: %v", err)
		}
		fmt.Printf("Room created. Share this code: %s\n", rm.ID)
	} else {
		rm, role, err = api.JoinRoom(ctx, *join)
		if err != nil {
			log.Fatalf("join room: %v", err)
		}
		fmt.Printf("Joined room %s.\n", rm.ID)
	}
	fmt.Printf("You are participant %s speaking %s; the other side hears %s.\n",
		role, language.Name(rm.LanguageFor(role)), language.Name(rm.TargetFor(role)))

	session := client.NewSession(rm.ID, role)
	api.UseSession(session.ID)
	log.Printf("session %s in room %s as participant %s", session.ID, rm.ID, role)

	poller := client.NewPoller(api, session, *interval)

	seen := 0
	poller.OnRefresh = func(snapshot room.Room) {
		for _, msg := range snapshot.Messages[min(seen, len(snapshot.Messages)):] {
			printMessage(msg, role)
		}
		seen = len(snapshot.Messages)
	}
	poller.OnPlay = func(playCtx context.Context, msg room.Message) error {
		audio, err := api.Synthesize(playCtx, rm.ID, msg.CreatedAt)
		if err != nil {
			return err
		}
		path, err := writePlayback(audio)
		if err != nil {
			return err
		}
		fmt.Printf("  [audio ready: %s]\n", path)
		return nil
	}

	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("poller stopped: %v", err)
		}
	}()

	runPrompt(ctx, api, session)
}

// runPrompt reads commands from stdin until EOF or interrupt. Each
// speak action runs to completion before the next prompt, matching the
// one-action-at-a-time conversation model.
func runPrompt(ctx context.Context, api *client.APIClient, session *client.Session) {
	fmt.Println(`Commands: "say <audio-file>" to speak, "quit" to leave.`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return
		case strings.HasPrefix(line, "say "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "say "))
			speak(ctx, api, session, path)
		default:
			fmt.Println("unknown command")
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// speak uploads one audio file with a capture-scoped timeout, so an
// unresponsive service returns the prompt instead of hanging it.
func speak(ctx context.Context, api *client.APIClient, session *client.Session, path string) {
	speakCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	msg, err := api.Speak(speakCtx, session.RoomID, session.Role, path)
	if err != nil {
		fmt.Printf("speak failed: %v\n", err)
		return
	}
	fmt.Printf("sent: %q -> %q\n", msg.OriginalText, msg.TranslatedText)
}

func printMessage(msg room.Message, self room.Role) {
	who := "You"
	if msg.Speaker != self {
		who = "Participant " + string(msg.Speaker)
	}
	detected := msg.DetectedLanguage
	if detected == "" {
		detected = "?"
	}
	fmt.Printf("[%s] %s (%s): %s\n    -> %s\n",
		msg.CreatedAt.Local().Format("15:04:05"), who, language.Name(detected),
		msg.OriginalText, msg.TranslatedText)
}

func writePlayback(audio []byte) (string, error) {
	f, err := os.CreateTemp("", "voiceroom-*.mp3")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(audio); err != nil {
		return "", err
	}
	return f.Name(), nil
}
