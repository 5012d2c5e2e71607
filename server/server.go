// Package server exposes the query engine over a local stream socket.
//
// Frames are length-prefixed: a 4-byte little-endian length, a 1-byte
// operation code, and the operation's fixed-layout argument struct.
// Responses reuse the wire package's status+payload framing behind the same
// length prefix.
//
// The transport owns caller authentication: a CapabilityFunc inspects each
// accepted connection and grants the capability set its requests run with.
// By default no capabilities are granted, so path reconstruction is denied.
package server

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/metascan"
	"github.com/hupe1980/metascan/wire"
)

// maxRequestFrame bounds one request frame; argument structs are small and
// attribute strings are capped well below this.
const maxRequestFrame = 1 << 16

// CapabilityFunc grants capabilities to an accepted connection. Peer
// credentials (e.g. SO_PEERCRED on a unix socket) are the intended input.
type CapabilityFunc func(conn net.Conn) wire.CapSet

type options struct {
	logger *metascan.Logger
	caps   CapabilityFunc
}

// Option configures Server behavior.
type Option func(*options)

// WithLogger configures structured logging for the serve loop.
func WithLogger(l *metascan.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = metascan.NoopLogger()
		}
		o.logger = l
	}
}

// WithCapabilities configures the per-connection capability policy.
func WithCapabilities(fn CapabilityFunc) Option {
	return func(o *options) {
		o.caps = fn
	}
}

// Server serves metadata queries over a listener.
type Server struct {
	db     *metascan.DB
	logger *metascan.Logger
	caps   CapabilityFunc
}

// New creates a server for db.
func New(db *metascan.DB, optFns ...Option) *Server {
	opts := options{
		logger: metascan.NoopLogger(),
		caps:   func(net.Conn) wire.CapSet { return 0 },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{db: db, logger: opts.logger, caps: opts.caps}
}

// Serve accepts connections on ln until ctx is canceled. It closes ln on
// shutdown and returns once every in-flight connection handler finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}

			caps := s.caps(conn)
			g.Go(func() error {
				s.handle(ctx, conn, caps)
				return nil
			})
		}
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn, caps wire.CapSet) {
	// Closing the connection on cancellation unblocks pending reads so
	// shutdown never waits on an idle client.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		op, payload, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Warn("dropping connection", "error", err)
			}
			return
		}

		result, qerr := wire.Dispatch(ctx, s.db, caps, op, payload)
		if qerr != nil {
			s.logger.Debug("query failed", "op", op.String(), "error", qerr)
		}

		if err := writeFrame(conn, wire.EncodeResponse(result, qerr)); err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("dropping connection", "error", err)
			}
			return
		}
	}
}

func readFrame(conn net.Conn) (wire.Op, []byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("%w: read frame header: %w", metascan.ErrTransport, err)
	}

	n := binary.LittleEndian.Uint32(hdr[:])
	if n < 1 || n > maxRequestFrame {
		return 0, nil, fmt.Errorf("%w: frame length %d outside [1, %d]",
			metascan.ErrTransport, n, maxRequestFrame)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		return 0, nil, fmt.Errorf("%w: read frame body: %w", metascan.ErrTransport, err)
	}
	return wire.Op(body[0]), body[1:], nil
}

func writeFrame(conn net.Conn, body []byte) error {
	frame := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(body)))
	copy(frame[4:], body)
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("%w: write frame: %w", metascan.ErrTransport, err)
	}
	return nil
}
