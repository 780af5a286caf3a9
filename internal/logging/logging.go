// Package logging supplies the pluggable Logger sinks the market
// engine writes its operational log lines to: file, stdout, and
// silent, all built on go.uber.org/zap but with zap's own structured
// fields stripped out so the wire line format the engine constructs
// reaches the sink byte-for-byte instead of being re-wrapped in JSON.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rawEncoderConfig turns a zapcore.ConsoleEncoder into a pass-through:
// every structured key is blank, so the only thing it ever writes is
// the log entry's message plus a trailing newline.
var rawEncoderConfig = zapcore.EncoderConfig{
	MessageKey: "msg",
	LineEnding: "\n",
}

// Sink adapts a *zap.Logger to market.Logger. It depends only on the
// Log(string) method, not on the market package, to keep logging free
// of an import cycle with the component it serves.
type Sink struct {
	zl *zap.Logger
}

// Log writes payload as one line. zap's own level and call-site
// machinery are bypassed entirely; Info is used only because zap
// requires some level to emit at.
func (s *Sink) Log(payload string) {
	s.zl.Info(payload)
}

// Sync flushes any buffered writes, for callers that want a clean
// shutdown.
func (s *Sink) Sync() error {
	return s.zl.Sync()
}

// NewStdout builds a Sink that writes every log line to stdout.
func NewStdout() *Sink {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(rawEncoderConfig), zapcore.AddSync(os.Stdout), zap.InfoLevel)
	return &Sink{zl: zap.New(core)}
}

// NewFile builds a Sink that appends every log line to the file at
// path, creating it if necessary.
func NewFile(path string) (*Sink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(rawEncoderConfig), zapcore.AddSync(file), zap.InfoLevel)
	return &Sink{zl: zap.New(core)}, nil
}

// NewTee builds a Sink that writes every log line to both stdout and
// the file at path.
func NewTee(path string) (*Sink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	encoder := zapcore.NewConsoleEncoder(rawEncoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.InfoLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(file), zap.InfoLevel),
	)
	return &Sink{zl: zap.New(core)}, nil
}

// NewSilent builds a Sink whose core discards every entry, for
// headless test or benchmark runs.
func NewSilent() *Sink {
	return &Sink{zl: zap.New(zapcore.NewNopCore())}
}
