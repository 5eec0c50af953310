package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog      zerolog.Logger
	diagFile     *os.File
	analysisFile *os.File
	logMu        sync.Mutex
	logReady     bool
	pid          int
	dir          string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: CHARTWATCH_LOG_PATH environment variable
	envPath := os.Getenv("CHARTWATCH_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	analysisPath := filepath.Join(dir, "analysis_log.txt")
	analysisFile, err = os.OpenFile(analysisPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if analysisFile != nil {
		analysisFile.Close()
		analysisFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// AnalysisText appends one finished model turn to the analysis log, keeping
// the running commentary inspectable after the session ends.
func AnalysisText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	analysisFile.WriteString(line)
}

func SessionStart(model, micDevice string, fps float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("model", model).
		Str("mic", micDevice).
		Float64("fps", fps).
		Msg("session_start")
}

func SessionEnd(turns int, elapsed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("turns", turns).
		Float64("elapsed_s", elapsed.Seconds()).
		Msg("session_end")
}

func Signal(signal, trend string, confidence int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("signal", signal).
		Str("trend", trend).
		Int("confidence", confidence).
		Msg("signal")
}

func Alert(kind string) {
	if logReady {
		diagLog.Info().Str("kind", kind).Msg("alert")
	}
}

type TurnMetricsData struct {
	AudioS         float64
	AudioChunks    int
	SentFrames     int
	SentKB         float64
	TranscriptLen  int
	TurnDurationMs float64
}

func TurnMetrics(m TurnMetricsData) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", m.AudioS).
		Int("audio_chunks", m.AudioChunks).
		Int("sent_frames", m.SentFrames).
		Float64("sent_kb", m.SentKB).
		Int("transcript_len", m.TranscriptLen).
		Float64("turn_ms", m.TurnDurationMs).
		Msg("turn")
}

func Generation(op, model string, elapsed time.Duration, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Error().Err(err)
	}
	ev.Str("op", op).
		Str("model", model).
		Float64("total_ms", float64(elapsed.Milliseconds())).
		Msg("generation")
}
