package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"chartwatch/alert"
	"chartwatch/audio"
	"chartwatch/audiocodec"
	"chartwatch/classify"
	"chartwatch/encoder"
	"chartwatch/frames"
	"chartwatch/live"
	"chartwatch/log"
	"chartwatch/store"
)

var version = "dev"

const liveModel = "gemini-2.5-flash-native-audio-preview-12-2025"
const ttsModel = "gemini-2.5-flash-preview-tts"
const voiceName = "Kore"

const systemInstruction = `You are 'Trader AI Pro', a collective intelligence of the top 1% institutional traders.
Your goal: Analyze live chart video with surgical precision.

CORE ANALYTICAL FRAMEWORK:
1. Smart Money Concepts (SMC): Identify Order Blocks, Fair Value Gaps (FVG), and Liquidity Sweeps.
2. Market Structure: Detect Break of Structure (BOS) and Change of Character (CHoCH).
3. Indicators:
   - RSI (Divergences are critical).
   - MACD (Histograms and zero-line crossovers).
   - EMAs (20/50/200 crossover and slope).
   - Volume (Confirming moves).

TRADING PROTOCOL:
- Only give BUY/SELL if confidence > 90%. Use WAIT if unsure.
- Use CANCEL if a previously recommended setup is invalidated by a sudden price dump or news-like candle.
- If price is actively testing a key support/resistance level, prefix the response with [LEVEL_ALERT].
- Language: Hindi (Professional mentor style) + English for technical jargon.
- OUTPUT FORMAT:
  [SIGNAL]: {BUY/SELL/WAIT/CANCEL}
  [INDICATORS]: List 3+ visible factors.
  [ENTRY/SL/TP]: Suggest approximate levels based on chart visual.
  [REASONING]: 2-3 sentences in Hindi explaining the 'Why'.

Example: "SELL Signal! Market ne Buy-side Liquidity sweep ki hai aur RSI Bearish Divergence dikha raha hai. Entry around current levels, SL previous high ke upar rakhein."`

var shutdownOnce sync.Once

func gracefulShutdown(sc *scanner) {
	shutdownOnce.Do(func() {
		if sc != nil {
			sc.stop()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// scanner ties one scan session to its capture device, frame grabber and
// alerting. start/stop are driven from the TUI and from session callbacks.
type scanner struct {
	session *live.Session
	capture audio.CaptureDevice
	source  frames.Source
	alerter *alert.Alerter
	interp  *classify.Interpreter
	cfg     store.Config

	recordDir string

	mu           sync.Mutex
	grabber      *frames.Grabber
	rec          *flacRecorder
	minutes      int
	lastAnalysis string
}

func (sc *scanner) toggle() {
	switch sc.session.Status() {
	case live.StatusActive, live.StatusConnecting:
		sc.session.Stop()
	default:
		sc.start()
	}
}

func (sc *scanner) start() {
	sc.mu.Lock()
	minutes := sc.minutes
	if sc.recordDir != "" {
		rec, err := newFlacRecorder(sc.recordDir)
		if err != nil {
			logToTUI("record init failed: %v", err)
		} else {
			sc.rec = rec
		}
	}
	sc.mu.Unlock()

	log.SessionStart(liveModel, sc.capture.DeviceName(), sc.cfg.ScanFrequency)
	instruction := fmt.Sprintf("%s\nADMIN SETTING: Only signal BUY/SELL if confidence is above %d%%.",
		systemInstruction, sc.cfg.MinConfidence)

	err := sc.session.Start(context.Background(), live.Config{
		TransportConfig: live.TransportConfig{
			Model:             liveModel,
			SystemInstruction: instruction,
			Voice:             voiceName,
		},
		Duration: time.Duration(minutes) * time.Minute,
	})
	if err != nil {
		logToTUI("session start failed: %v", err)
		return
	}

	sc.capture.SetCallback(func(data []byte, _ uint32) {
		sc.session.SendAudio(data)
	})
	if err := sc.capture.Start(); err != nil {
		logToTUI("mic start failed: %v", err)
		sc.session.Stop()
		return
	}

	sc.mu.Lock()
	sc.grabber = frames.NewGrabber(sc.source, sc.cfg.ScanFrequency, sc.session.SendFrame)
	sc.grabber.Start()
	sc.mu.Unlock()
}

// stop tears down everything the session does not own. Runs on explicit stop,
// countdown expiry and transport errors, so it must tolerate partial setup.
func (sc *scanner) stop() {
	sc.session.Stop()
	sc.teardown()
}

func (sc *scanner) teardown() {
	sc.capture.Stop()
	sc.capture.ClearCallback()
	sc.alerter.Cancel()

	sc.mu.Lock()
	g := sc.grabber
	sc.grabber = nil
	rec := sc.rec
	sc.rec = nil
	sc.mu.Unlock()

	if g != nil {
		g.Stop()
	}
	if rec != nil {
		if path, err := rec.flush(); err != nil {
			log.Errorf("record flush error: %v", err)
		} else if path != "" {
			log.Info("recording_saved: " + path)
		}
	}
}

func (sc *scanner) tapAudio(pcm []byte) {
	sc.mu.Lock()
	rec := sc.rec
	sc.mu.Unlock()
	if rec != nil {
		rec.feed(pcm)
	}
}

func (sc *scanner) handleTurn(text string) {
	r := sc.interp.Interpret(text)
	log.Signal(string(r.Signal), string(r.Trend), r.Confidence)

	sc.mu.Lock()
	sc.lastAnalysis = r.Analysis
	sc.mu.Unlock()

	tuiSend(ReadoutMsg{Readout: r})
	if r.LevelAlert {
		sc.alerter.Level()
	}
	sc.alerter.Observe(r.Signal)
}

// flacRecorder archives model speech for one session.
type flacRecorder struct {
	mu   sync.Mutex
	enc  *encoder.FlacEncoder
	buf  []int16
	path string
}

func newFlacRecorder(dir string) (*flacRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	enc, err := encoder.NewFlac(live.PlaybackSampleRate)
	if err != nil {
		return nil, err
	}
	name := "session-" + time.Now().Format("20060102-150405") + ".flac"
	return &flacRecorder{enc: enc, path: filepath.Join(dir, name)}, nil
}

func (r *flacRecorder) feed(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return
	}
	r.buf = append(r.buf, audiocodec.ToInt16(pcm)...)
	for len(r.buf) >= encoder.BlockSize {
		if err := r.enc.EncodeBlock(r.buf[:encoder.BlockSize]); err != nil {
			log.Errorf("record encode error: %v", err)
		}
		r.buf = r.buf[encoder.BlockSize:]
	}
}

func (r *flacRecorder) flush() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return "", nil
	}
	if len(r.buf) > 0 {
		if err := r.enc.EncodeBlock(r.buf); err != nil {
			return "", err
		}
		r.buf = nil
	}
	if r.enc.TotalFrames() == 0 {
		r.enc = nil
		return "", nil
	}
	if err := r.enc.Close(); err != nil {
		return "", err
	}
	data := r.enc.Bytes()
	r.enc = nil
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return "", err
	}
	return r.path, nil
}

func run() {
	if len(os.Args) > 1 && os.Args[1] != "" && os.Args[1][0] != '-' {
		runCommand(os.Args[1], os.Args[2:])
		return
	}

	minsFlag := flag.Int("mins", 5, "Scan duration in minutes")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	listenFlag := flag.String("listen", ":8787", "Address for the websocket frame feed")
	frameDirFlag := flag.String("framedir", "", "Replay chart images from a directory instead of the live feed")
	recordFlag := flag.String("record", "", "Archive model speech as FLAC into this directory")
	muteFlag := flag.Bool("mute", false, "Start with alerts muted")
	dataFlag := flag.String("data", "", "Data directory (default: OS-specific location)")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("chartwatch %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	st := openStore(*dataFlag)
	user, ok := st.CurrentUser()
	if !ok {
		fmt.Fprintln(os.Stderr, "Not signed in. Run: chartwatch signup <name> <phone>")
		os.Exit(1)
	}
	if store.TrialExpired(user, time.Now()) {
		fmt.Fprintln(os.Stderr, "Your 7 day trial has ended. Run: chartwatch subscribe")
		os.Exit(1)
	}
	if !user.IsSubscribed && !user.IsAdmin {
		fmt.Fprintln(os.Stderr, "Subscription required to scan. Run: chartwatch subscribe")
		os.Exit(1)
	}
	cfg := st.Config()

	client := newGenaiClient(context.Background())

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
	} else if *setupFlag {
		selectedDevice, err = selectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	capture, err := actx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: live.CaptureSampleRate,
		Channels:   1,
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing microphone: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	player, err := live.NewPlayer(actx)
	if err != nil {
		log.Errorf("playback init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing playback: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()

	var source frames.Source
	frameLine := ""
	if *frameDirFlag != "" {
		source, err = frames.NewFileSource(*frameDirFlag, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		frameLine = "frames: " + *frameDirFlag
	} else {
		ws, err := frames.ListenWS(*listenFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: frame listener: %v\n", err)
			os.Exit(1)
		}
		defer ws.Close()
		source = ws
		frameLine = "frames: ws://" + ws.Addr() + "/frames"
	}
	defer source.Close()

	voice := alert.NewGenaiVoice(client, ttsModel, voiceName, player.PlayNow)
	alerter := alert.New(voice, player.PlayNow, func(sig classify.Signal, visible bool) {
		tuiSend(MarkerMsg{Signal: sig, Visible: visible})
	})
	alerter.SetMuted(*muteFlag || !cfg.AlarmEnabled)

	sc := &scanner{
		capture:   capture,
		source:    source,
		alerter:   alerter,
		interp:    classify.NewInterpreter(cfg.MinConfidence, nil),
		cfg:       cfg,
		recordDir: *recordFlag,
		minutes:   *minsFlag,
	}

	session := live.NewSession(live.NewGenaiDialer(client), player, live.Hooks{
		OnStatus: func(stat live.Status, err error) {
			tuiSend(StatusMsg{Status: stat, Err: err})
			if stat == live.StatusIdle || stat == live.StatusError {
				sc.teardown()
			}
		},
		OnTurn: sc.handleTurn,
		OnRemaining: func(d time.Duration) {
			tuiSend(CountdownMsg{Remaining: d})
		},
	})
	session.SetAudioTap(sc.tapAudio)
	sc.session = session

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(*minsFlag)
	tuiMu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		gracefulShutdown(sc)
	}()

	// Key commands from the TUI
	go func() {
		for {
			select {
			case <-toggleScanChan:
				sc.toggle()
			case <-muteToggleChan:
				muted := !alerter.Muted()
				alerter.SetMuted(muted)
				tuiSend(MuteMsg{Muted: muted})
			case d := <-minsDeltaChan:
				sc.mu.Lock()
				sc.minutes += d
				if sc.minutes < 1 {
					sc.minutes = 1
				}
				if sc.minutes > 60 {
					sc.minutes = 60
				}
				m := sc.minutes
				sc.mu.Unlock()
				tuiSend(MinutesMsg{Minutes: m})
			case <-copyChan:
				sc.mu.Lock()
				text := sc.lastAnalysis
				sc.mu.Unlock()
				if text != "" {
					if err := clipboard.WriteAll(text); err == nil {
						tuiSend(CopiedMsg{})
					}
				}
			}
		}
	}()

	tuiSend(UserLineMsg{Text: "user: " + user.Name + " (" + user.Phone + ")"})
	tuiSend(FrameLineMsg{Text: frameLine})
	tuiSend(MuteMsg{Muted: alerter.Muted()})

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		os.Exit(1)
	}
	gracefulShutdown(sc)
}

func main() {
	run()
}
