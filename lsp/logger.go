package lsp

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// clientQueueSize bounds the messages waiting to be sent to the client.
const clientQueueSize = 100

// clientCore is a zapcore.Core that forwards entries to the client as
// window/logMessage notifications, so they show up in the editor's log.
type clientCore struct {
	zapcore.LevelEnabler

	encoder zapcore.Encoder
	fields  []zapcore.Field
	queue   chan *protocol.LogMessageParams
	mu      *sync.Mutex
}

// NewClientLogger returns a logger that writes to fallback and to the client.
// Messages are delivered in the background and dropped when the client falls
// behind. The returned stop function ends delivery.
func NewClientLogger(client Client, fallback zapcore.Core, level zapcore.LevelEnabler) (*zap.Logger, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	core := &clientCore{
		LevelEnabler: level,
		encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey:     "msg",
			NameKey:        "logger",
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		queue: make(chan *protocol.LogMessageParams, clientQueueSize),
		mu:    &sync.Mutex{},
	}

	go func() {
		for {
			select {
			case params := <-core.queue:
				// The client may already be gone.
				_ = client.LogMessage(ctx, params)
			case <-ctx.Done():
				return
			}
		}
	}()

	return zap.New(zapcore.NewTee(core, fallback)), cancel
}

func (c *clientCore) With(fields []zapcore.Field) zapcore.Core {
	return &clientCore{
		LevelEnabler: c.LevelEnabler,
		encoder:      c.encoder.Clone(),
		fields:       append(slices.Clone(c.fields), fields...),
		queue:        c.queue,
		mu:           c.mu,
	}
}

func (c *clientCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}

	return ce
}

func (c *clientCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	c.mu.Lock()
	buf, err := c.encoder.EncodeEntry(entry, append(slices.Clone(c.fields), fields...))
	c.mu.Unlock()

	if err != nil {
		return err
	}

	params := &protocol.LogMessageParams{
		Type:    messageType(entry.Level),
		Message: strings.TrimSpace(buf.String()),
	}
	buf.Free()

	select {
	case c.queue <- params:
	default:
	}

	return nil
}

func (c *clientCore) Sync() error {
	return nil
}

// messageType maps a zap level to the LSP message type.
func messageType(level zapcore.Level) protocol.MessageType {
	switch {
	case level < zapcore.InfoLevel:
		return protocol.MessageTypeLog
	case level == zapcore.InfoLevel:
		return protocol.MessageTypeInfo
	case level == zapcore.WarnLevel:
		return protocol.MessageTypeWarning
	default:
		return protocol.MessageTypeError
	}
}
