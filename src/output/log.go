package output

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"
)

// LogFormatter renders build-log style lines: "[INFO] message".
type LogFormatter struct {
	Color bool
}

// Format implements logrus.Formatter.
func (f *LogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(f.levelTag(e.Level))
	if e.Message != "" {
		b.WriteByte(' ')
		b.WriteString(e.Message)
	}
	if err, ok := e.Data[logrus.ErrorKey].(error); ok {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *LogFormatter) levelTag(l logrus.Level) string {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return "[" + Colorize("ERROR", colorRed+colorBold, f.Color) + "]"
	case logrus.WarnLevel:
		return "[" + Colorize("WARNING", colorYellow+colorBold, f.Color) + "]"
	case logrus.InfoLevel:
		return "[" + Colorize("INFO", colorCyan, f.Color) + "]"
	default:
		return "[" + Colorize("DEBUG", colorGray, f.Color) + "]"
	}
}

// NewLogger returns a logger writing build-log lines to w.
func NewLogger(w io.Writer, verbose, color bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&LogFormatter{Color: color})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
