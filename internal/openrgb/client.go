package openrgb

import (
	"encoding/binary"
	"math"
	"net"
	"time"

	"codeberg.org/mutker/rgbmond/internal/colormap"
	"codeberg.org/mutker/rgbmond/internal/errors"
	"codeberg.org/mutker/rgbmond/internal/logger"
)

const (
	clientName    = "rgbmond"
	clientVersion = "0.1.0"

	DefaultTimeout = 1 * time.Second
)

// Client owns the persistent connection to the lighting server. All calls
// are strictly request/response and block with a bounded deadline; a failed
// call marks the handle dead, and Connect replaces it wholesale. Not safe
// for concurrent use: the daemon drives it from a single loop.
type Client struct {
	address       string
	timeout       time.Duration
	conn          net.Conn
	serverVersion uint32
}

func NewClient(address string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		address: address,
		timeout: timeout,
	}
}

// Connect opens the transport and performs the handshake: protocol version
// negotiation followed by the one-time client name announcement. Any
// existing handle is dropped first.
func (c *Client) Connect() error {
	errFactory := errors.New()
	c.drop()

	conn, err := net.DialTimeout("tcp", c.address, c.timeout)
	if err != nil {
		return errFactory.Wrap(errors.ErrConnectionRefused, err)
	}
	c.conn = conn

	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], ProtocolVersion)

	data, err := c.call(0, cmdRequestProtocolVersion, version[:], true)
	if err != nil {
		c.drop()
		return err
	}
	if len(data) < 4 {
		c.drop()
		return errFactory.WithData(errors.ErrProtocolMalformed, "short version response")
	}

	serverVersion := binary.LittleEndian.Uint32(data)
	if serverVersion < ProtocolVersion {
		c.drop()
		return errFactory.WithData(errors.ErrVersionMismatch, serverVersion)
	}
	c.serverVersion = serverVersion

	name := append([]byte(clientName+" "+clientVersion), 0)
	if _, err := c.call(0, cmdSetClientName, name, false); err != nil {
		c.drop()
		return err
	}

	logger.Debug().
		Str("address", c.address).
		Uint32("server_version", serverVersion).
		Msg("Connected to lighting server")

	return nil
}

// Connected reports whether the client holds a live handle
func (c *Client) Connected() bool {
	return c.conn != nil
}

func (c *Client) ServerVersion() uint32 {
	return c.serverVersion
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

// ControllerCount returns the number of controllers the server exposes
func (c *Client) ControllerCount() (uint32, error) {
	errFactory := errors.New()

	data, err := c.call(0, cmdRequestControllerCount, nil, true)
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, errFactory.WithData(errors.ErrProtocolMalformed, "short controller count response")
	}

	return binary.LittleEndian.Uint32(data), nil
}

// ControllerData fetches and decodes the descriptor of one controller
func (c *Client) ControllerData(index uint32) (*Controller, error) {
	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], ProtocolVersion)

	data, err := c.call(index, cmdRequestControllerData, version[:], true)
	if err != nil {
		return nil, err
	}

	return unpackController(index, data)
}

// SetZoneColor replicates a single color across every LED of one zone. The
// sequence length sent always equals ledCount; no mode or other zone
// attribute is touched.
func (c *Client) SetZoneColor(controller, zone, ledCount uint32, color colormap.Color) error {
	errFactory := errors.New()
	if ledCount > math.MaxUint16 {
		return errFactory.WithData(errors.ErrInvalidArgument, ledCount)
	}

	const ledStride = 4
	size := 10 + ledStride*int(ledCount)
	payload := make([]byte, size)
	binary.LittleEndian.PutUint32(payload[0:4], uint32(size))
	binary.LittleEndian.PutUint32(payload[4:8], zone)
	binary.LittleEndian.PutUint16(payload[8:10], uint16(ledCount))
	for i := 0; i < int(ledCount); i++ {
		off := 10 + i*ledStride
		payload[off] = color.R
		payload[off+1] = color.G
		payload[off+2] = color.B
	}

	_, err := c.call(controller, cmdUpdateZoneLEDs, payload, false)

	return err
}

// call performs one request/response exchange. Commands without a reply
// return immediately after the write. Every failure drops the handle.
func (c *Client) call(controller, command uint32, payload []byte, wantReply bool) ([]byte, error) {
	errFactory := errors.New()
	if c.conn == nil {
		return nil, errFactory.New(errors.ErrConnectionClosed)
	}

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		c.drop()
		return nil, errFactory.Wrap(errors.ErrConnectionClosed, err)
	}

	if err := writeMessage(c.conn, controller, command, payload); err != nil {
		c.drop()
		return nil, c.classifyWriteError(err)
	}

	if !wantReply {
		return nil, nil
	}

	h, data, err := readMessage(c.conn)
	if err != nil {
		c.drop()
		return nil, err
	}

	if h.Controller != controller || h.Command != command {
		c.drop()
		return nil, errFactory.WithData(errors.ErrProtocolMalformed, "response does not mirror request")
	}

	return data, nil
}

func (c *Client) classifyWriteError(err error) error {
	errFactory := errors.New()

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errFactory.Wrap(errors.ErrConnectionTimeout, err)
	}

	return errFactory.Wrap(errors.ErrConnectionClosed, err)
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
