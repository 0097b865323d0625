package mockplc

import (
	"context"
	"sync"

	"github.com/fabgitops/operator/common"
)

// RegisterStore backs a single holding register behind a mutex. It
// implements common.DataStore, trimmed to the two operations this system
// ever issues against a PLC.
type RegisterStore struct {
	mutex    sync.RWMutex
	value    common.RegisterValue
	register common.Address
}

var _ common.DataStore = (*RegisterStore)(nil)

// NewRegisterStore creates a store seeded with the given initial value,
// exposed only at register (any other address draws IllegalDataAddress).
func NewRegisterStore(initial common.RegisterValue, register common.Address) *RegisterStore {
	return &RegisterStore{value: initial, register: register}
}

// ReadHoldingRegisters implements common.DataStore. Only a request for
// exactly this store's configured register, with quantity 1, is satisfied.
// A quantity of 0 or above common.MaxRegisterCount returns
// common.ErrInvalidQuantity; any other address or quantity returns
// common.ErrInvalidAddress. The server surfaces both as an
// IllegalDataAddress exception, matching a real single-register PLC's
// response to an out-of-range request.
func (s *RegisterStore) ReadHoldingRegisters(ctx context.Context, address common.Address, quantity common.Quantity) ([]common.RegisterValue, error) {
	if quantity == 0 || quantity > common.MaxRegisterCount {
		return nil, common.ErrInvalidQuantity
	}
	if address != s.register || quantity != 1 {
		return nil, common.ErrInvalidAddress
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return []common.RegisterValue{s.value}, nil
}

// WriteSingleRegister implements common.DataStore. Only a write targeting
// this store's configured register is accepted; any other address returns
// common.ErrInvalidAddress.
func (s *RegisterStore) WriteSingleRegister(ctx context.Context, address common.Address, value common.RegisterValue) error {
	if address != s.register {
		return common.ErrInvalidAddress
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.value = value
	return nil
}

// Get returns the current register value without going through the
// Modbus request/response path. Used by the chaos generator and by tests
// asserting on server-side state directly.
func (s *RegisterStore) Get() common.RegisterValue {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.value
}

// Set overwrites the current register value directly.
func (s *RegisterStore) Set(value common.RegisterValue) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.value = value
}

// SetRegister reconfigures the address this store answers to.
func (s *RegisterStore) SetRegister(register common.Address) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.register = register
}

// Add applies delta to the current value, clamping to [0, 32767] the same
// way the reference chaos generator does, and returns the resulting value.
func (s *RegisterStore) Add(delta int32) common.RegisterValue {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	next := int32(s.value) + delta
	if next < 0 {
		next = 0
	}
	if next > 32767 {
		next = 32767
	}
	s.value = common.RegisterValue(next)
	return s.value
}
