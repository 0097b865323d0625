package mockplc

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/internal/plcclient"
	"github.com/fabgitops/operator/transport"
)

func TestRegisterStoreClamps(t *testing.T) {
	store := NewRegisterStore(10, 0)

	if got := store.Add(-100); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}

	store.Set(32760)
	if got := store.Add(100); got != 32767 {
		t.Fatalf("expected clamp to 32767, got %d", got)
	}
}

func TestRegisterStoreReadsConfiguredRegister(t *testing.T) {
	store := NewRegisterStore(42, 0)

	values, err := store.ReadHoldingRegisters(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != 42 {
		t.Fatalf("expected [42], got %v", values)
	}
}

func TestRegisterStoreRejectsInvalidQuantity(t *testing.T) {
	store := NewRegisterStore(0, 0)

	if _, err := store.ReadHoldingRegisters(context.Background(), 0, 0); err != common.ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := store.ReadHoldingRegisters(context.Background(), 0, common.MaxRegisterCount+1); err != common.ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := store.ReadHoldingRegisters(context.Background(), 0, 2); err != common.ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress for quantity != 1, got %v", err)
	}
}

func TestRegisterStoreRejectsWrongAddress(t *testing.T) {
	store := NewRegisterStore(42, 4001)

	if _, err := store.ReadHoldingRegisters(context.Background(), 0, 1); err != common.ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress reading the wrong address, got %v", err)
	}
	values, err := store.ReadHoldingRegisters(context.Background(), 4001, 1)
	if err != nil {
		t.Fatalf("unexpected error reading the configured address: %v", err)
	}
	if len(values) != 1 || values[0] != 42 {
		t.Fatalf("expected [42], got %v", values)
	}

	if err := store.WriteSingleRegister(context.Background(), 0, 99); err != common.ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress writing the wrong address, got %v", err)
	}
	if err := store.WriteSingleRegister(context.Background(), 4001, 99); err != nil {
		t.Fatalf("unexpected error writing the configured address: %v", err)
	}
	if got := store.Get(); got != 99 {
		t.Fatalf("expected register to be updated to 99, got %d", got)
	}
}

func TestChaosGeneratorDriftsRegisterWithSeed(t *testing.T) {
	store := NewRegisterStore(1000, 0)
	chaos := NewChaosGenerator(10*time.Millisecond, 50, WithChaosSeed(1))

	chaos.Start(context.Background(), store)
	time.Sleep(35 * time.Millisecond)
	chaos.Stop()

	if got := store.Get(); got == 1000 {
		t.Fatalf("expected register to have drifted away from seed value, got %d", got)
	}
}

func TestServerStartStopLifecycle(t *testing.T) {
	srv := NewServer("127.0.0.1", WithPort(0))

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !srv.IsRunning() {
		t.Fatalf("expected server to report running")
	}

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if srv.IsRunning() {
		t.Fatalf("expected server to report stopped")
	}
}

func TestDispatchReturnsIllegalDataAddressForWrongRegister(t *testing.T) {
	srv := NewServer("127.0.0.1", WithPort(0), WithInitialValue(7), WithRegister(4001))

	readData := make([]byte, 4)
	binary.BigEndian.PutUint16(readData[0:2], 0) // wrong address
	binary.BigEndian.PutUint16(readData[2:4], 1)
	readReq := transport.NewRequest(1, common.FuncReadHoldingRegisters, readData)

	_, err := srv.dispatch(context.Background(), readReq)
	modbusErr, ok := err.(*common.ModbusError)
	if !ok {
		t.Fatalf("expected *common.ModbusError, got %v (%T)", err, err)
	}
	if modbusErr.ExceptionCode != common.ExceptionDataAddressNotAvailable {
		t.Fatalf("expected IllegalDataAddress, got %v", modbusErr.ExceptionCode)
	}

	writeData := make([]byte, 4)
	binary.BigEndian.PutUint16(writeData[0:2], 0) // wrong address
	binary.BigEndian.PutUint16(writeData[2:4], 99)
	writeReq := transport.NewRequest(1, common.FuncWriteSingleRegister, writeData)

	_, err = srv.dispatch(context.Background(), writeReq)
	modbusErr, ok = err.(*common.ModbusError)
	if !ok {
		t.Fatalf("expected *common.ModbusError, got %v (%T)", err, err)
	}
	if modbusErr.ExceptionCode != common.ExceptionDataAddressNotAvailable {
		t.Fatalf("expected IllegalDataAddress, got %v", modbusErr.ExceptionCode)
	}
}

func TestServerRejectsWrongAddressOverTheWire(t *testing.T) {
	srv := NewServer("127.0.0.1", WithPort(0), WithInitialValue(7), WithRegister(4001))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop(context.Background())

	host, portStr, err := net.SplitHostPort(srv.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	client := plcclient.New(host, plcclient.WithPort(port), plcclient.WithTimeout(time.Second))

	if _, err := client.ReadHolding(context.Background(), 0); err == nil {
		t.Fatalf("expected an error reading an unconfigured address")
	}

	value, err := client.ReadHolding(context.Background(), 4001)
	if err != nil {
		t.Fatalf("ReadHolding at the configured address: %v", err)
	}
	if value != 7 {
		t.Fatalf("expected 7, got %d", value)
	}
}
