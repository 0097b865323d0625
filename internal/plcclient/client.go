package plcclient

import (
	"context"
	"fmt"
	"time"

	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/logging"
	"github.com/fabgitops/operator/protocol"
	"github.com/fabgitops/operator/transport"
)

// Client talks to a single Modbus/TCP PLC. Unlike the persistent-connection
// client the transport/protocol layers were originally paired with, every
// operation here dials, performs exactly one read or write, and hangs up.
// A reconciliation loop calls this once or twice per resync interval, so
// holding a long-lived socket open between polls buys nothing and adds a
// class of "stale connection" failures the controller would otherwise have
// to detect and repair on its own.
type Client struct {
	host    string
	port    int
	unitID  common.UnitID
	timeout time.Duration
	logger  common.LoggerInterface
}

// Option configures a Client.
type Option func(*Client)

// WithPort overrides the default Modbus/TCP port (502).
func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

// WithUnitID sets the unit identifier placed in the MBAP header.
func WithUnitID(unitID common.UnitID) Option {
	return func(c *Client) { c.unitID = unitID }
}

// WithTimeout bounds each dial and each request/response round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithLogger attaches a logger to the client and the transport it opens.
func WithLogger(logger common.LoggerInterface) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the given host. No connection is opened until
// an operation is called.
func New(host string, options ...Option) *Client {
	c := &Client{
		host:    host,
		port:    common.DefaultTCPPort,
		unitID:  1,
		timeout: 5 * time.Second,
		logger:  logging.NewLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// dial opens a fresh transport and protocol handler for one operation.
// The caller is responsible for disconnecting it.
func (c *Client) dial(ctx context.Context) (*transport.TCPTransport, *protocol.ProtocolHandler, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	t := transport.NewTCPTransport(
		c.host,
		transport.WithPort(c.port),
		transport.WithTimeoutOption(c.timeout),
		transport.WithTransportLogger(c.logger),
	)

	if err := t.Connect(dialCtx); err != nil {
		return nil, nil, &ConnectError{Err: err}
	}

	p := protocol.NewProtocolHandler(protocol.WithLogger(c.logger))
	return t, p, nil
}

func (c *Client) send(ctx context.Context, t *transport.TCPTransport, functionCode common.FunctionCode, pduData []byte) ([]byte, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := transport.NewRequest(c.unitID, functionCode, pduData)

	resp, err := t.Send(opCtx, req)
	if err != nil {
		if opCtx.Err() != nil {
			return nil, &TimeoutError{Err: err}
		}
		return nil, &ConnectError{Err: err}
	}

	if resp.IsException() {
		return nil, &ProtocolError{Err: resp.ToError()}
	}

	return resp.GetPDU().Data, nil
}

// ReadHolding reads a single holding register at address.
func (c *Client) ReadHolding(ctx context.Context, address common.Address) (common.RegisterValue, error) {
	t, p, err := c.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer t.Disconnect(ctx)

	reqData, err := p.GenerateReadHoldingRegistersRequest(address, 1)
	if err != nil {
		return 0, &ProtocolError{Err: err}
	}

	respData, err := c.send(ctx, t, common.FuncReadHoldingRegisters, reqData)
	if err != nil {
		return 0, err
	}

	values, err := p.ParseReadHoldingRegistersResponse(respData, 1)
	if err != nil {
		return 0, &ProtocolError{Err: err}
	}
	if len(values) == 0 {
		return 0, &EmptyResponseError{}
	}

	return values[0], nil
}

// WriteHolding writes value to the holding register at address.
func (c *Client) WriteHolding(ctx context.Context, address common.Address, value common.RegisterValue) error {
	t, p, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer t.Disconnect(ctx)

	reqData, err := p.GenerateWriteSingleRegisterRequest(address, value)
	if err != nil {
		return &ProtocolError{Err: err}
	}

	respData, err := c.send(ctx, t, common.FuncWriteSingleRegister, reqData)
	if err != nil {
		return err
	}

	gotAddr, gotVal, err := p.ParseWriteSingleRegisterResponse(respData)
	if err != nil {
		return &ProtocolError{Err: err}
	}
	if gotAddr != address || gotVal != value {
		return &ProtocolError{Err: fmt.Errorf("echoed write mismatch: want address=%d value=%d, got address=%d value=%d", address, value, gotAddr, gotVal)}
	}

	return nil
}

// Reachable performs a zero-cost connect/disconnect to check whether the
// PLC is currently accepting Modbus/TCP connections, without performing
// any register operation.
func (c *Client) Reachable(ctx context.Context) bool {
	t, _, err := c.dial(ctx)
	if err != nil {
		return false
	}
	defer t.Disconnect(ctx)
	return true
}
