// Package listener owns the UDP socket the agent listens on and decides, per
// datagram, whether to power the host off.
//
// The receive loop runs on its own goroutine and never blocks for longer than
// the polling interval, so a stop request is honoured within roughly one
// interval even when no traffic arrives. The socket is only touched by that
// goroutine; other goroutines interact with a Listener through RequestStop,
// Stop and Done.
package listener

import (
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"github.com/bft-labs/sleeponlan/internal/domain"
	"github.com/bft-labs/sleeponlan/internal/ports"
)

// DefaultPollInterval bounds each receive call.
const DefaultPollInterval = 100 * time.Millisecond

// maxDatagramSize fits any UDP payload.
const maxDatagramSize = 64 << 10

// Config controls a Listener.
type Config struct {
	Port int

	// PollInterval is the receive timeout between stop-flag checks.
	PollInterval time.Duration

	// Dump logs a spew dump of every received datagram (debug aid).
	Dump bool
}

// packetConn is the part of *net.UDPConn the receive loop uses.
type packetConn interface {
	SetReadDeadline(t time.Time) error
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	LocalAddr() net.Addr
	Close() error
}

// Listener is a running receive loop. It is created by Start and is done
// after Stop returns or after it has acted on a qualifying datagram.
type Listener struct {
	cfg    Config
	conn   packetConn
	action ports.HostAction
	logger ports.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	triggered atomic.Bool
}

// Start binds 0.0.0.0:cfg.Port and starts the receive loop. It returns a
// *domain.BindError when the port is out of range or cannot be bound.
func Start(cfg Config, action ports.HostAction, logger ports.Logger) (*Listener, error) {
	if !domain.ValidPort(cfg.Port) {
		return nil, &domain.BindError{Port: cfg.Port}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: cfg.Port})
	if err != nil {
		return nil, &domain.BindError{Port: cfg.Port, InUse: isAddrInUse(err), Err: err}
	}

	return serve(cfg, conn, action, logger), nil
}

// serve starts the receive loop on an already bound conn.
func serve(cfg Config, conn packetConn, action ports.HostAction, logger ports.Logger) *Listener {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	l := &Listener{
		cfg:    cfg,
		conn:   conn,
		action: action,
		logger: logger,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	logger.Info("listening for magic packets",
		ports.String("addr", conn.LocalAddr().String()),
		ports.Duration("poll_interval", cfg.PollInterval),
	)

	go l.run()
	return l
}

// Port returns the bound UDP port.
func (l *Listener) Port() int {
	return l.cfg.Port
}

// RequestStop asks the loop to exit and returns immediately. Safe to call
// from any goroutine and more than once.
func (l *Listener) RequestStop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Stop requests the loop to exit and waits until the goroutine has returned
// and the socket is closed. Calling Stop on a stopped listener is a no-op.
func (l *Listener) Stop() {
	l.RequestStop()
	<-l.done
}

// Done is closed once the loop has exited and the socket is released.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Triggered reports whether a qualifying datagram has been acted on.
func (l *Listener) Triggered() bool {
	return l.triggered.Load()
}

func (l *Listener) stopRequested() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

func (l *Listener) run() {
	defer close(l.done)
	defer l.closeConn()

	buf := make([]byte, maxDatagramSize)
	for !l.stopRequested() {
		if err := l.conn.SetReadDeadline(time.Now().Add(l.cfg.PollInterval)); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.absorb(err)
			continue
		}

		n, src, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.absorb(err)
			continue
		}

		// Anything that arrives after a stop request is not evaluated.
		if l.stopRequested() {
			return
		}

		l.handle(domain.Datagram{Source: src, Payload: buf[:n]})
	}
}

func (l *Listener) handle(dg domain.Datagram) {
	if l.cfg.Dump {
		l.logger.Info("datagram received",
			ports.Any("source", dg.Source),
			ports.String("dump", spew.Sdump(dg.Payload)),
		)
	}

	if !dg.Qualifies() {
		l.logger.Debug("datagram ignored",
			ports.Any("source", dg.Source),
			ports.Int("bytes", len(dg.Payload)),
		)
		return
	}

	l.trigger(dg)
	// One trigger is terminal: the loop exits on its next check.
	l.RequestStop()
}

func (l *Listener) trigger(dg domain.Datagram) {
	if !l.triggered.CompareAndSwap(false, true) {
		return
	}

	eventID := uuid.NewString()
	l.logger.Warn("magic packet accepted, powering off host",
		ports.String("event_id", eventID),
		ports.Any("source", dg.Source),
		ports.Int("bytes", len(dg.Payload)),
	)

	if err := l.action.PowerOff(); err != nil {
		var invErr *domain.ShutdownInvocationError
		if !errors.As(err, &invErr) {
			err = &domain.ShutdownInvocationError{Err: err}
		}
		l.logger.Error("host shutdown failed",
			ports.String("event_id", eventID),
			ports.Err(err),
		)
	}
}

// absorb logs a receive failure and waits one polling interval (or until a
// stop request) so that a persistent error cannot spin the loop.
func (l *Listener) absorb(err error) {
	l.logger.Warn("receive failed, continuing",
		ports.Err(&domain.TransientReceiveError{Err: err}),
	)

	t := time.NewTimer(l.cfg.PollInterval)
	defer t.Stop()
	select {
	case <-l.stopCh:
	case <-t.C:
	}
}

func (l *Listener) closeConn() {
	if err := l.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		l.logger.Warn("close socket", ports.Err(err))
	}
	l.logger.Info("listener stopped",
		ports.Int("port", l.cfg.Port),
		ports.Bool("triggered", l.Triggered()),
	)
}
