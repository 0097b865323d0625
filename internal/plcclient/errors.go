// Package plcclient implements a stateless, connection-per-operation
// Modbus/TCP client against a single holding register.
package plcclient

import "fmt"

// ConnectError is returned when the TCP connect to the PLC fails.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("connect: %v", e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError is returned when the peer replies with a Modbus exception
// or a malformed/truncated frame.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol: %v", e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// EmptyResponseError is returned when a read succeeds at the transport level
// but the response payload contains zero register words.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string { return "empty response payload" }

// TimeoutError is returned when an operation exceeds its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("timeout: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }
