package common

import (
	"context"
)

// DataStore represents a Modbus data store with read/write capabilities.
// Only the single-holding-register operations this system's Non-goals permit
// are defined here. internal/mockplc.RegisterStore implements this.
type DataStore interface {
	// ReadHoldingRegisters reads holding register values from the data store
	ReadHoldingRegisters(ctx context.Context, address Address, quantity Quantity) ([]RegisterValue, error)

	// WriteSingleRegister writes a single register value to the data store
	WriteSingleRegister(ctx context.Context, address Address, value RegisterValue) error
}
