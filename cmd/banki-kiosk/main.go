// Command banki-kiosk is a developer console for the voice assistant. It
// connects straight to Gemini Live with the kiosk persona, tracks the
// conversation steps locally, and relays typed input as user turns. With
// ffplay installed, assistant audio plays through the speakers.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banki-go/banki/internal/dotenv"
	"github.com/banki-go/banki/pkg/kiosk"
	"github.com/banki-go/banki/pkg/voice"
)

type options struct {
	model     string
	voiceName string
	lang      string
	noSpeaker bool
	ffplay    string
	debug     bool
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		return 2
	}

	var opt options
	flag.StringVar(&opt.model, "model", voice.DefaultModel, "Gemini Live model")
	flag.StringVar(&opt.voiceName, "voice", voice.DefaultVoice, "Prebuilt voice name")
	flag.StringVar(&opt.lang, "lang", "en", "Session language: en, si or ta")
	flag.BoolVar(&opt.noSpeaker, "no-speaker", false, "Do not spawn ffplay; print audio stats only")
	flag.StringVar(&opt.ffplay, "ffplay-path", "ffplay", "Path to ffplay executable")
	flag.BoolVar(&opt.debug, "debug", false, "Log voice client internals")
	flag.Parse()

	apiKey := strings.TrimSpace(os.Getenv("BANKI_GEMINI_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "set BANKI_GEMINI_API_KEY or GEMINI_API_KEY (.env loaded if present)")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logOut := io.Discard
	if opt.debug {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	session := kiosk.NewSession(kiosk.WithLanguage(opt.lang), kiosk.WithLogger(logger))
	client := voice.NewClient(voice.Config{
		APIKey:       apiKey,
		Model:        opt.model,
		Voice:        opt.voiceName,
		SystemPrompt: kiosk.SystemPrompt,
	}, voice.WithLogger(logger))

	var speaker *speakerPipe
	if !opt.noSpeaker {
		sp, err := startSpeaker(ctx, opt.ffplay, voice.DefaultAudioConfig())
		if err != nil {
			fmt.Fprintln(os.Stderr, "speaker disabled:", err)
		} else {
			speaker = sp
			defer speaker.Close()
		}
	}

	if err := client.Connect(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		return 1
	}
	defer client.Disconnect()

	fmt.Printf("session %s, customer %s, language %s\n", session.ID(), session.CustomerID(), opt.lang)
	fmt.Println(`type a message and press enter; commands: /step <name>, /context, /quit`)

	go pumpEvents(client, session, speaker)

	if err := client.SendText("hello", session.Context()); err != nil {
		fmt.Fprintln(os.Stderr, "send greeting:", err)
		return 1
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return 0
		case line, ok := <-lines:
			if !ok {
				return 0
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "/") {
				if quit := runCommand(line, session); quit {
					return 0
				}
				continue
			}
			session.AppendTranscript("user", line)
			if err := client.SendText(line, session.Context()); err != nil {
				fmt.Fprintln(os.Stderr, "send:", err)
				return 1
			}
		}
	}
}

func runCommand(line string, session *kiosk.Session) (quit bool) {
	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	switch cmd {
	case "quit", "exit":
		return true
	case "step":
		if err := session.SetStep(kiosk.Step(strings.TrimSpace(arg))); err != nil {
			fmt.Println("step:", err)
		} else {
			fmt.Println("step →", session.Step())
		}
	case "context":
		fmt.Printf("%+v\n", session.Context())
	default:
		fmt.Println("unknown command:", cmd)
	}
	return false
}

func pumpEvents(client *voice.Client, session *kiosk.Session, speaker *speakerPipe) {
	var audioDur time.Duration
	for ev := range client.Events() {
		switch e := ev.(type) {
		case *voice.ConnectedEvent:
			fmt.Println("[connected]")
		case *voice.TextEvent:
			if e.Final {
				fmt.Printf("assistant: %s\n", e.Content)
				session.AppendTranscript("assistant", e.Content)
				if next, changed := session.AdvanceFromUtterance(e.Content); changed {
					fmt.Printf("[step -> %s]\n", next)
				}
			}
		case *voice.AudioChunkEvent:
			audioDur += e.Chunk.Duration
			if speaker != nil {
				speaker.Write(e.Chunk)
			}
		case *voice.AudioDoneEvent:
			if audioDur > 0 {
				fmt.Printf("[audio: %s]\n", audioDur.Round(10*time.Millisecond))
				audioDur = 0
			}
		case *voice.TurnCompleteEvent:
			fmt.Print("> ")
		case *voice.ErrorEvent:
			fmt.Fprintln(os.Stderr, "[error]", e.Message)
		case *voice.DisconnectedEvent:
			fmt.Println("[disconnected]")
			return
		}
	}
}

// speakerPipe feeds raw PCM to a long-lived ffplay process.
type speakerPipe struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func startSpeaker(ctx context.Context, ffplayPath string, audio voice.AudioConfig) (*speakerPipe, error) {
	if _, err := exec.LookPath(ffplayPath); err != nil {
		return nil, fmt.Errorf("ffplay not found: %w", err)
	}
	cmd := exec.CommandContext(ctx, ffplayPath,
		"-loglevel", "quiet", "-nodisp", "-autoexit", "-f", "s16le",
		"-ar", fmt.Sprint(audio.SampleRate),
		"-ch_layout", "mono",
		"-i", "pipe:0",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &speakerPipe{cmd: cmd, stdin: stdin}, nil
}

// Write streams a chunk's samples to ffplay as PCM16LE. Errors are
// swallowed: losing the speaker must not break the conversation.
func (s *speakerPipe) Write(chunk voice.Chunk) {
	buf := make([]byte, 0, len(chunk.Samples)*2)
	for _, f := range chunk.Samples {
		v := int16(f * 32767)
		buf = append(buf, byte(v), byte(v>>8))
	}
	s.stdin.Write(buf)
}

func (s *speakerPipe) Close() {
	s.stdin.Close()
	s.cmd.Wait()
}
