package server

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hupe1980/metascan"
	"github.com/hupe1980/metascan/model"
	"github.com/hupe1980/metascan/wire"
)

// maxResponseFrame bounds one response frame. It must cover the largest
// output budget a request may name plus the status word.
const maxResponseFrame = wire.MaxBufLen + 8

// Client issues queries over one connection. It serializes calls, so a
// single Client is safe for concurrent use.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to a server listening on the unix socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", metascan.ErrTransport, path, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one framed request and returns the response payload. Errors the
// server reported come back as the matching sentinel.
func (c *Client) Do(op wire.Op, args []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := make([]byte, 5+len(args))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(1+len(args)))
	frame[4] = uint8(op)
	copy(frame[5:], args)
	if _, err := c.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("%w: write request: %w", metascan.ErrTransport, err)
	}

	var hdr [4]byte
	if _, err := io.ReadFull(c.conn, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: read response header: %w", metascan.ErrTransport, err)
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n < 4 || n > maxResponseFrame {
		return nil, fmt.Errorf("%w: response length %d outside [4, %d]",
			metascan.ErrTransport, n, maxResponseFrame)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("%w: read response body: %w", metascan.ErrTransport, err)
	}
	return wire.DecodeResponse(body)
}

// InodesSince lists (ino, seq) pairs for inodes whose metadata changed.
func (c *Client) InodesSince(args wire.InodesSinceArgs) ([]model.InoSeq, error) {
	return c.doSince(wire.OpInodesSince, args)
}

// DataSince lists (ino, seq) pairs for inodes whose file data changed.
func (c *Client) DataSince(args wire.InodesSinceArgs) ([]model.InoSeq, error) {
	return c.doSince(wire.OpDataSince, args)
}

func (c *Client) doSince(op wire.Op, args wire.InodesSinceArgs) ([]model.InoSeq, error) {
	out, err := c.Do(op, args.Encode())
	if err != nil {
		return nil, err
	}
	if len(out)%model.InoSeqSize != 0 {
		return nil, fmt.Errorf("%w: since payload of %d bytes is not pair aligned",
			metascan.ErrTransport, len(out))
	}
	pairs := make([]model.InoSeq, 0, len(out)/model.InoSeqSize)
	for off := 0; off < len(out); off += model.InoSeqSize {
		pair, err := model.DecodeInoSeq(out[off : off+model.InoSeqSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", metascan.ErrTransport, err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// FindXattrName lists candidate inodes that might carry an attribute name.
func (c *Client) FindXattrName(args wire.FindXattrArgs) ([]uint64, error) {
	return c.doFindXattr(wire.OpFindXattrName, args)
}

// FindXattrVal lists candidate inodes that might carry an attribute value.
func (c *Client) FindXattrVal(args wire.FindXattrArgs) ([]uint64, error) {
	return c.doFindXattr(wire.OpFindXattrVal, args)
}

func (c *Client) doFindXattr(op wire.Op, args wire.FindXattrArgs) ([]uint64, error) {
	out, err := c.Do(op, args.Encode())
	if err != nil {
		return nil, err
	}
	if len(out)%8 != 0 {
		return nil, fmt.Errorf("%w: xattr payload of %d bytes is not inode aligned",
			metascan.ErrTransport, len(out))
	}
	inos := make([]uint64, 0, len(out)/8)
	for off := 0; off < len(out); off += 8 {
		inos = append(inos, binary.LittleEndian.Uint64(out[off:off+8]))
	}
	return inos, nil
}

// InodePaths returns the packed NUL-terminated paths of every hard link of
// ino, as produced by the path walker.
func (c *Client) InodePaths(args wire.InodePathsArgs) ([]byte, error) {
	return c.Do(wire.OpInodePaths, args.Encode())
}
