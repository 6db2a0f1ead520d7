// Command prisma-lsp is a Language Server Protocol server for datamodel files.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prisma/dml"
	"github.com/prisma/dml/lsp"
)

var (
	styleFlag     = flag.String("style", "v2", "Datamodel style (v1, v2)")
	debugFlag     = flag.Bool("debug", false, "Enable debug logging")
	clientLogFlag = flag.Bool("client-log", false, "Forward logs to the editor via window/logMessage")
)

func main() {
	flag.Parse()

	style, err := dml.StyleFromString(*styleFlag)
	if err != nil {
		panic(err)
	}

	// stdout carries the protocol, so logs go to stderr.
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if *debugFlag {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting prisma-lsp server", zap.Stringer("style", style))

	err = run(context.Background(), logger, config.Level, os.Stdin, os.Stdout, style)
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, level zapcore.LevelEnabler, in io.Reader, out io.Writer, style dml.Style) error {
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	// Notifications to the editor go through the same connection.
	client := protocol.ClientDispatcher(conn, logger)

	if *clientLogFlag {
		var stop func()

		logger, stop = lsp.NewClientLogger(client, logger.Core(), level)
		defer stop()
	}

	server := lsp.NewServer(client, logger, style)

	conn.Go(ctx, server.Handler())

	<-conn.Done()

	return conn.Err()
}

// readWriteCloser joins stdin and stdout into one stream.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
