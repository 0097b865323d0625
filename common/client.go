package common

// Protocol defines the interface for a Modbus protocol handler.
//
// Only the two single-register operations this system's Non-goals permit
// are defined here.
type Protocol interface {
	// GenerateReadHoldingRegistersRequest generates a request PDU data to read holding registers.
	// The returned byte slice contains only the PDU data (excluding function code).
	// This is used to construct the full Modbus request.
	GenerateReadHoldingRegistersRequest(address Address, quantity Quantity) ([]byte, error)

	// ParseReadHoldingRegistersResponse parses a response PDU data from a read holding registers request.
	// The data parameter contains the PDU data (excluding function code).
	// Returns the register values as a slice of uint16.
	ParseReadHoldingRegistersResponse(data []byte, quantity Quantity) ([]RegisterValue, error)

	// GenerateWriteSingleRegisterRequest generates a request PDU data to write a single register.
	// The returned byte slice contains only the PDU data (excluding function code).
	// This is used to construct the full Modbus request.
	GenerateWriteSingleRegisterRequest(address Address, value RegisterValue) ([]byte, error)

	// ParseWriteSingleRegisterResponse parses a response PDU data from a write single register request.
	// The data parameter contains the PDU data (excluding function code).
	// Returns the register address, value, and any error.
	ParseWriteSingleRegisterResponse(data []byte) (Address, RegisterValue, error)

	// WithLogger sets the logger for the protocol and returns a new Protocol instance.
	WithLogger(logger LoggerInterface) Protocol
}