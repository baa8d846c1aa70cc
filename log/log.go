package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Определяем уровни логирования
const (
	DEBUG = "DEBUG"
	INFO  = "INFO"
	WARN  = "WARN"
	ERROR = "ERROR"
)

var Stdlog, Errlog *log.Logger

var (
	mu      sync.Mutex
	logDir  string
	verbose bool
	now     = time.Now
)

func init() {
	Stdlog = log.New(os.Stdout, "Success: ", log.Ldate|log.Ltime)
	Errlog = log.New(os.Stderr, "Error: ", log.Ldate|log.Ltime)
}

// SetOutput redirects Stdlog and Errlog; tests use it to capture or mute
// output.
func SetOutput(std, errw io.Writer) {
	Stdlog.SetOutput(std)
	Errlog.SetOutput(errw)
}

// SetDir enables file logging into dir with three rotating slots per kind.
// An empty dir disables file logging.
func SetDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	logDir = dir
}

// SetVerbose turns DEBUG messages on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Verbose reports whether DEBUG messages are printed.
func Verbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

func LogMessage(level, message string) {
	mu.Lock()
	dir, dbg := logDir, verbose
	mu.Unlock()

	if level == DEBUG && !dbg {
		return
	}

	if level == ERROR {
		err := errors.New(message)
		PrintIfErr("", &err)
		return
	}

	w := Stdlog.Writer()
	if dir != "" {
		f, err := openRotated(dir, "stdlog")
		if err != nil {
			Errlog.Printf("[ERROR] Ошибка открытия лог-файла: %v", err)
		} else {
			defer f.Close()
			w = io.MultiWriter(w, f)
		}
	}
	logger := log.New(w, Stdlog.Prefix(), Stdlog.Flags())
	logger.Printf("[%s] %s\n", level, message)
}

// Debugf logs a formatted DEBUG message.
func Debugf(format string, v ...interface{}) {
	LogMessage(DEBUG, fmt.Sprintf(format, v...))
}

// Infof logs a formatted INFO message.
func Infof(format string, v ...interface{}) {
	LogMessage(INFO, fmt.Sprintf(format, v...))
}

// Warnf logs a formatted WARN message.
func Warnf(format string, v ...interface{}) {
	LogMessage(WARN, fmt.Sprintf(format, v...))
}

func PrintIfErr(msg string, err *error) {
	if err == nil || *err == nil {
		return
	}

	mu.Lock()
	dir := logDir
	mu.Unlock()

	w := Errlog.Writer()
	if dir != "" {
		f, localErr := openRotated(dir, "errors")
		if localErr != nil {
			Errlog.Printf("[ERROR] Ошибка открытия лог-файла: %v", localErr)
		} else {
			defer f.Close()
			w = io.MultiWriter(w, f)
		}
	}
	logger := log.New(w, Errlog.Prefix(), Errlog.Flags())

	if msg == "" {
		logger.Printf("[%s] %v\n", ERROR, *err)
		return
	}
	logger.Printf("[%s] %s: %v\n", ERROR, msg, *err)
}

// openRotated opens the current slot for kind, removing the slot that comes
// next so at most two decades of logs are kept.
func openRotated(dir, kind string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path, suffix := logFilePath(dir, kind, now())
	rotateLogs(dir, kind, suffix)
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
}

// logFilePath picks the slot by day of month: 1–9 → 0, 10–19 → 1, 20+ → 2.
func logFilePath(dir, kind string, t time.Time) (string, int) {
	day := t.Day()
	var suffix int
	switch {
	case day <= 9:
		suffix = 0
	case day <= 19:
		suffix = 1
	default:
		suffix = 2
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%d.log", kind, suffix)), suffix
}

// rotateLogs реализует логику "круговой" ротации: удаляет слот, который
// будет использован следующим.
func rotateLogs(dir, kind string, currentSuffix int) {
	next := (currentSuffix + 1) % 3
	fileToDelete := filepath.Join(dir, fmt.Sprintf("%s-%d.log", kind, next))

	if _, err := os.Stat(fileToDelete); err == nil {
		if err := os.Remove(fileToDelete); err != nil {
			Errlog.Printf("[WARN] Ошибка при удалении файла %s: %v", fileToDelete, err)
		}
	}
}
