package mockplc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/logging"
	"github.com/fabgitops/operator/transport"
)

// Server is a Modbus/TCP server simulating a single PLC holding register.
// Only the two function codes this system ever issues are handled; any
// other function code draws a FunctionCodeNotSupported exception, matching
// how a real PLC would respond to an unimplemented function.
type Server struct {
	address string
	port    int

	store *RegisterStore
	chaos *ChaosGenerator

	listener net.Listener
	running  bool
	stopChan chan struct{}

	clients      map[string]net.Conn
	clientsMutex sync.RWMutex
	mutex        sync.RWMutex

	logger common.LoggerInterface
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listening TCP port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithInitialValue seeds the holding register.
func WithInitialValue(value common.RegisterValue) Option {
	return func(s *Server) { s.store.Set(value) }
}

// WithRegister sets the holding register address this server answers to.
// A request for any other address draws an IllegalDataAddress exception.
// Default 0.
func WithRegister(register common.Address) Option {
	return func(s *Server) { s.store.SetRegister(register) }
}

// WithChaos attaches a chaos generator that periodically drifts the
// register while the server runs.
func WithChaos(chaos *ChaosGenerator) Option {
	return func(s *Server) { s.chaos = chaos }
}

// WithLogger sets the server's logger.
func WithLogger(logger common.LoggerInterface) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a Server bound to address (an interface IP, or "" for
// all interfaces) on the default Modbus/TCP port unless overridden.
func NewServer(address string, options ...Option) *Server {
	s := &Server{
		address: address,
		port:    common.DefaultTCPPort,
		store:   NewRegisterStore(0, 0),
		clients: make(map[string]net.Conn),
		logger:  logging.NewLogger(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Store exposes the server's register store, letting a caller (or a test)
// read or set the simulated value without going over the wire.
func (s *Server) Store() *RegisterStore {
	return s.store
}

// Start begins accepting connections. It returns once the listener is
// bound; serving happens on a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mutex.Lock()
	if s.running {
		s.mutex.Unlock()
		return fmt.Errorf("mockplc: server already running")
	}

	addr := fmt.Sprintf("%s:%d", s.address, s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mutex.Unlock()
		return err
	}

	s.listener = listener
	s.running = true
	s.stopChan = make(chan struct{})
	s.mutex.Unlock()

	s.logger.Info(ctx, "mock PLC listening on %s", addr)

	if s.chaos != nil {
		s.chaos.Start(ctx, s.store)
	}

	go s.acceptLoop(ctx)

	return nil
}

// Stop closes the listener, disconnects all clients, and stops the chaos
// generator if one is attached.
func (s *Server) Stop(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return nil
	}

	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}

	s.clientsMutex.Lock()
	for _, conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[string]net.Conn)
	s.clientsMutex.Unlock()

	if s.chaos != nil {
		s.chaos.Stop()
	}

	s.running = false
	s.logger.Info(ctx, "mock PLC stopped")
	return nil
}

// IsRunning reports whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// Addr returns the listener's bound address. Only valid after Start.
func (s *Server) Addr() net.Addr {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		if tcpListener, ok := s.listener.(*net.TCPListener); ok {
			tcpListener.SetDeadline(time.Now().Add(time.Second))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
				continue
			}
			select {
			case <-s.stopChan:
				return
			default:
				s.logger.Error(ctx, "accept error: %v", err)
				continue
			}
		}

		s.clientsMutex.Lock()
		s.clients[conn.RemoteAddr().String()] = conn
		s.clientsMutex.Unlock()

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	ctx := context.Background()
	remoteAddr := conn.RemoteAddr().String()
	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, remoteAddr)
		s.clientsMutex.Unlock()
		conn.Close()
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		header := make([]byte, common.TCPHeaderLength)
		if _, err := io.ReadFull(conn, header); err != nil {
			if err == io.EOF || strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			s.logger.Error(ctx, "error reading header from %s: %v", remoteAddr, err)
			return
		}

		transactionID := common.TransactionID(binary.BigEndian.Uint16(header[0:2]))
		protocolID := common.ProtocolID(binary.BigEndian.Uint16(header[2:4]))
		length := binary.BigEndian.Uint16(header[4:6])
		unitID := common.UnitID(header[6])

		if protocolID != common.TCPProtocolIdentifier {
			s.logger.Error(ctx, "invalid protocol id from %s: %d", remoteAddr, protocolID)
			continue
		}

		dataLength := int(length) - 1
		if dataLength <= 0 {
			s.logger.Error(ctx, "invalid data length from %s: %d", remoteAddr, length)
			continue
		}

		data := make([]byte, dataLength)
		if _, err := io.ReadFull(conn, data); err != nil {
			s.logger.Error(ctx, "error reading data from %s: %v", remoteAddr, err)
			return
		}

		functionCode := common.FunctionCode(data[0])
		pduData := data[1:]

		request := transport.NewRequest(unitID, functionCode, pduData)
		request.SetTransactionID(transactionID)

		response, err := s.dispatch(ctx, request)
		if err != nil {
			if modbusErr, ok := err.(*common.ModbusError); ok {
				exceptionResponse := transport.NewResponse(
					transactionID,
					unitID,
					functionCode|common.ExceptionBit,
					[]byte{byte(modbusErr.ExceptionCode)},
				)
				s.sendResponse(conn, exceptionResponse)
				continue
			}
			s.logger.Error(ctx, "error processing request from %s: %v", remoteAddr, err)
			return
		}

		s.sendResponse(conn, response)
	}
}

// storeErrorExceptionCode maps a RegisterStore error to the Modbus
// exception code a real PLC would raise for it: an address or quantity
// outside the store's configured register is IllegalDataAddress, anything
// else is treated as a device failure.
func storeErrorExceptionCode(err error) common.ExceptionCode {
	if errors.Is(err, common.ErrInvalidAddress) || errors.Is(err, common.ErrInvalidQuantity) {
		return common.ExceptionDataAddressNotAvailable
	}
	return common.ExceptionServerDeviceFailure
}

func (s *Server) dispatch(ctx context.Context, request common.Request) (common.Response, error) {
	switch request.GetPDU().FunctionCode {
	case common.FuncReadHoldingRegisters:
		return s.handleReadHoldingRegisters(ctx, request)
	case common.FuncWriteSingleRegister:
		return s.handleWriteSingleRegister(ctx, request)
	default:
		return nil, common.NewModbusError(request.GetPDU().FunctionCode, common.ExceptionFunctionCodeNotSupported)
	}
}

func (s *Server) handleReadHoldingRegisters(ctx context.Context, req common.Request) (common.Response, error) {
	if len(req.GetPDU().Data) != 4 {
		return nil, common.NewModbusError(req.GetPDU().FunctionCode, common.ExceptionDataAddressNotAvailable)
	}

	address := common.Address(binary.BigEndian.Uint16(req.GetPDU().Data[0:2]))
	quantity := common.Quantity(binary.BigEndian.Uint16(req.GetPDU().Data[2:4]))

	if quantity == 0 || quantity > common.MaxRegisterCount {
		return nil, common.NewModbusError(req.GetPDU().FunctionCode, common.ExceptionDataAddressNotAvailable)
	}

	values, err := s.store.ReadHoldingRegisters(ctx, address, quantity)
	if err != nil {
		return nil, common.NewModbusError(req.GetPDU().FunctionCode, storeErrorExceptionCode(err))
	}

	responseData := make([]byte, 1+len(values)*2)
	responseData[0] = byte(len(values) * 2)
	for i, value := range values {
		binary.BigEndian.PutUint16(responseData[1+i*2:1+i*2+2], value)
	}

	return transport.NewResponse(req.GetTransactionID(), req.GetUnitID(), req.GetPDU().FunctionCode, responseData), nil
}

func (s *Server) handleWriteSingleRegister(ctx context.Context, req common.Request) (common.Response, error) {
	if len(req.GetPDU().Data) != 4 {
		return nil, common.NewModbusError(req.GetPDU().FunctionCode, common.ExceptionDataAddressNotAvailable)
	}

	address := common.Address(binary.BigEndian.Uint16(req.GetPDU().Data[0:2]))
	value := common.RegisterValue(binary.BigEndian.Uint16(req.GetPDU().Data[2:4]))

	if err := s.store.WriteSingleRegister(ctx, address, value); err != nil {
		return nil, common.NewModbusError(req.GetPDU().FunctionCode, storeErrorExceptionCode(err))
	}

	// Normal response echoes the request, per the write-single-register spec.
	return transport.NewResponse(req.GetTransactionID(), req.GetUnitID(), req.GetPDU().FunctionCode, req.GetPDU().Data), nil
}

func (s *Server) sendResponse(conn net.Conn, response common.Response) {
	ctx := context.Background()
	data, err := response.Encode()
	if err != nil {
		s.logger.Error(ctx, "error encoding response: %v", err)
		return
	}
	if _, err := conn.Write(data); err != nil {
		s.logger.Error(ctx, "error sending response: %v", err)
	}
}
