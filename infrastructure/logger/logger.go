package logger

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// logEntry is a single formatted log message, tagged with the level it was
// written at so that each writer can filter it independently.
type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger backed by a Backend. All messages are tagged
// with the subsystem name and filtered by the logger's current level before
// being handed to the backend.
type Logger struct {
	lvl       Level // atomic
	tag       string
	b         *Backend
	writeChan chan<- logEntry
}

var (
	// backendLog is the shared logging backend used by all subsystems.
	backendLog = NewBackend()

	subsystemsMutex sync.Mutex
	subsystems      = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger for the given subsystem tag, creating
// and registering it if it does not exist yet. Subsystem tags are upper-case,
// four-letter identifiers by convention.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	logger, ok := subsystems[subsystem]
	if !ok {
		logger = backendLog.Logger(subsystem)
		logger.SetLevel(LevelInfo)
		subsystems[subsystem] = logger
	}
	return logger
}

// InitLog attaches the log file and error log file to the backend log and
// starts the backend. It must be called before any logging output is
// produced.
func InitLog(logFile, errLogFile string) {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
	err = backendLog.AddLogWriter(os.Stdout, LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the loggerfor level %s: %s", LevelInfo, err)
		os.Exit(1)
	}
	err = backendLog.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s ", err)
		os.Exit(1)
	}
}

// SetLogLevel sets the logging level of the logger of the given subsystem.
func SetLogLevel(subsystem string, level string) error {
	lvl, ok := LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid log level %s", level)
	}
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	logger, ok := subsystems[subsystem]
	if !ok {
		return fmt.Errorf("unknown subsystem %s", subsystem)
	}
	logger.SetLevel(lvl)
	return nil
}

// SetLogLevels sets the log level for all registered subsystems.
func SetLogLevels(level string) error {
	lvl, ok := LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid log level %s", level)
	}
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	for _, logger := range subsystems {
		logger.SetLevel(lvl)
	}
	return nil
}

// SupportedSubsystems returns a sorted slice of the registered subsystem
// tags.
func SupportedSubsystems() []string {
	subsystemsMutex.Lock()
	defer subsystemsMutex.Unlock()
	subsystemNames := make([]string, 0, len(subsystems))
	for subsystemName := range subsystems {
		subsystemNames = append(subsystemNames, subsystemName)
	}
	sort.Strings(subsystemNames)
	return subsystemNames
}

// ParseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid.
func ParseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if _, ok := LevelFromString(debugLevel); !ok {
			str := "the specified debug level [%s] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		return SetLogLevels(debugLevel)
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%s]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsystem, level := fields[0], fields[1]

		// Validate log level.
		if _, ok := LevelFromString(level); !ok {
			str := "the specified debug level [%s] is invalid"
			return fmt.Errorf(str, level)
		}

		err := SetLogLevel(subsystem, level)
		if err != nil {
			return err
		}
	}

	return nil
}

// Close shuts down the shared logging backend, flushing all pending log
// writes.
func Close() {
	backendLog.Close()
}

// Level returns the current logging level of the logger.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level of the logger to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(level))
}

// write formats the message according to the backend flags and queues it for
// the backend writers. Messages below the logger's level must be filtered by
// the caller.
func (l *Logger) write(level Level, args ...interface{}) {
	l.print(level, fmt.Sprint(args...))
}

func (l *Logger) writef(level Level, format string, args ...interface{}) {
	l.print(level, fmt.Sprintf(format, args...))
}

func (l *Logger) print(level Level, msg string) {
	t := time.Now()

	var file string
	var line int
	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		var ok bool
		_, file, line, ok = runtime.Caller(calldepth)
		if !ok {
			file = "???"
			line = 0
		} else if l.b.flag&LogFlagShortFile != 0 {
			if i := strings.LastIndexByte(file, '/'); i >= 0 {
				file = file[i+1:]
			}
		}
	}

	buf := make([]byte, 0, normalLogSize)
	buf = append(buf, t.Format("2006-01-02 15:04:05.000")...)
	buf = append(buf, " ["...)
	buf = append(buf, level.String()...)
	buf = append(buf, "] "...)
	buf = append(buf, l.tag...)
	buf = append(buf, ": "...)
	if file != "" {
		buf = append(buf, fmt.Sprintf("%s:%d ", file, line)...)
	}
	buf = append(buf, msg...)
	buf = append(buf, '\n')

	if l.b.IsRunning() {
		l.writeChan <- logEntry{buf, level}
		return
	}
	// The backend is not running yet. Write directly to stderr so early
	// errors are not lost.
	_, _ = os.Stderr.Write(buf)
}

// calldepth is the call depth from the exported logging method down to
// runtime.Caller inside print.
const calldepth = 3

// Trace formats a message using the default formats for its operands, and
// writes it at the trace level.
func (l *Logger) Trace(args ...interface{}) {
	if l.Level() <= LevelTrace {
		l.write(LevelTrace, args...)
	}
}

// Tracef formats a message according to a format specifier and writes it at
// the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l.Level() <= LevelTrace {
		l.writef(LevelTrace, format, args...)
	}
}

// Debug formats a message using the default formats for its operands, and
// writes it at the debug level.
func (l *Logger) Debug(args ...interface{}) {
	if l.Level() <= LevelDebug {
		l.write(LevelDebug, args...)
	}
}

// Debugf formats a message according to a format specifier and writes it at
// the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.Level() <= LevelDebug {
		l.writef(LevelDebug, format, args...)
	}
}

// Info formats a message using the default formats for its operands, and
// writes it at the info level.
func (l *Logger) Info(args ...interface{}) {
	if l.Level() <= LevelInfo {
		l.write(LevelInfo, args...)
	}
}

// Infof formats a message according to a format specifier and writes it at
// the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.Level() <= LevelInfo {
		l.writef(LevelInfo, format, args...)
	}
}

// Warn formats a message using the default formats for its operands, and
// writes it at the warn level.
func (l *Logger) Warn(args ...interface{}) {
	if l.Level() <= LevelWarn {
		l.write(LevelWarn, args...)
	}
}

// Warnf formats a message according to a format specifier and writes it at
// the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.Level() <= LevelWarn {
		l.writef(LevelWarn, format, args...)
	}
}

// Error formats a message using the default formats for its operands, and
// writes it at the error level.
func (l *Logger) Error(args ...interface{}) {
	if l.Level() <= LevelError {
		l.write(LevelError, args...)
	}
}

// Errorf formats a message according to a format specifier and writes it at
// the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.Level() <= LevelError {
		l.writef(LevelError, format, args...)
	}
}

// Critical formats a message using the default formats for its operands, and
// writes it at the critical level.
func (l *Logger) Critical(args ...interface{}) {
	if l.Level() <= LevelCritical {
		l.write(LevelCritical, args...)
	}
}

// Criticalf formats a message according to a format specifier and writes it
// at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	if l.Level() <= LevelCritical {
		l.writef(LevelCritical, format, args...)
	}
}
