package pubsub

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
)

// EmbeddedNATSPubSub runs a JetStream-enabled NATS server in process, for
// development without external infrastructure.
type EmbeddedNATSPubSub struct {
	*jetStreamBridge
	server *server.Server
}

// EmbeddedNATSOptions configures the embedded NATS server
type EmbeddedNATSOptions struct {
	Port       int    // -1 picks a free port
	Subject    string
	StreamName string
	StoreDir   string // empty keeps JetStream in memory
	MaxAge     time.Duration
}

// DefaultEmbeddedNATSOptions returns development defaults.
func DefaultEmbeddedNATSOptions() EmbeddedNATSOptions {
	return EmbeddedNATSOptions{
		Port:       -1,
		Subject:    DefaultSubject,
		StreamName: DefaultStream,
		MaxAge:     time.Hour,
	}
}

// NewEmbeddedNATSPubSub starts the server and connects a bridge to it.
func NewEmbeddedNATSPubSub(opts EmbeddedNATSOptions) (*EmbeddedNATSPubSub, error) {
	if opts.Port == 0 {
		opts.Port = -1
	}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.StreamName == "" {
		opts.StreamName = DefaultStream
	}

	ns, err := server.NewServer(&server.Options{
		Port:      opts.Port,
		JetStream: true,
		StoreDir:  opts.StoreDir,
		NoSigs:    true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create embedded NATS server")
	}
	ns.SetLogger(natsLogger{}, false, false)

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded NATS server failed to start within timeout")
	}
	logger.Info("Embedded NATS server started", "url", ns.ClientURL())

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, errors.Wrap(err, "connect to embedded NATS")
	}

	storage := nats.MemoryStorage
	if opts.StoreDir != "" {
		storage = nats.FileStorage
	}
	b, err := newJetStreamBridge(nc, nats.StreamConfig{
		Name:     opts.StreamName,
		Subjects: []string{opts.Subject},
		Storage:  storage,
		MaxAge:   opts.MaxAge,
	})
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, err
	}

	return &EmbeddedNATSPubSub{jetStreamBridge: b, server: ns}, nil
}

// ServerURL returns the client URL of the embedded server.
func (p *EmbeddedNATSPubSub) ServerURL() string {
	return p.server.ClientURL()
}

// Close shuts down the bridge and the server.
func (p *EmbeddedNATSPubSub) Close() {
	p.close()
	p.server.Shutdown()
	p.server.WaitForShutdown()
	logger.Info("Embedded NATS server shut down")
}

// natsLogger routes server logs through our logger.
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...any) { logger.Info("[NATS] " + fmt.Sprintf(format, v...)) }
func (natsLogger) Warnf(format string, v ...any) { logger.Warn("[NATS] " + fmt.Sprintf(format, v...)) }
func (natsLogger) Fatalf(format string, v ...any) { logger.Error("[NATS] " + fmt.Sprintf(format, v...)) }
func (natsLogger) Errorf(format string, v ...any) { logger.Error("[NATS] " + fmt.Sprintf(format, v...)) }
func (natsLogger) Debugf(format string, v ...any) { logger.Debug("[NATS] " + fmt.Sprintf(format, v...)) }
func (natsLogger) Tracef(format string, v ...any) { logger.Debug("[NATS TRACE] " + fmt.Sprintf(format, v...)) }
