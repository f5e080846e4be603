package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	KeyLogger = "logger"

	defaultTimeFormat = "2006-01-02 15:04:05"
)

// SimpleLogger is a prefixed logger on top of zerolog. Debug output is only
// written when the logger is verbose.
type SimpleLogger struct {
	zl      zerolog.Logger
	w       io.Writer
	prefix  string
	verbose bool
}

func New(out io.Writer, prefix string, verbose bool) *SimpleLogger {
	l := &SimpleLogger{
		w:       out,
		prefix:  prefix,
		verbose: verbose,
	}
	l.rebuild()
	return l
}

// NewConsole logs to stdout in the console format used by the daemon.
func NewConsole(prefix string, verbose bool) *SimpleLogger {
	return New(os.Stdout, prefix, verbose)
}

func (l *SimpleLogger) rebuild() {
	level := zerolog.InfoLevel
	if l.verbose {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{
		Out:           l.w,
		NoColor:       true,
		TimeFormat:    defaultTimeFormat,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, KeyLogger, zerolog.MessageFieldName},
		FieldsExclude: []string{KeyLogger},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%v", i)
		},
	}
	l.zl = zerolog.New(cw).Level(level).With().Timestamp().Str(KeyLogger, l.prefix).Logger()
}

func (l *SimpleLogger) Verbose(use bool) {
	if use == l.verbose {
		return
	}
	l.verbose = use
	l.rebuild()
}

func (l *SimpleLogger) IsVerbose() bool {
	return l.verbose
}

func (l *SimpleLogger) Prefix() string {
	return l.prefix
}

func (l *SimpleLogger) WithPrefix(prefix string) *SimpleLogger {
	return New(l.w, l.prefix+prefix, l.verbose)
}

func (l *SimpleLogger) Printf(format string, args ...interface{}) {
	l.zl.Info().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *SimpleLogger) Println(args ...interface{}) {
	l.zl.Info().Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *SimpleLogger) Warnf(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func LogError(logger *SimpleLogger, fnName string, err error) {
	if err != nil {
		logger.Errorf("error happened at %s due to %s", fnName, err.Error())
	}
}
