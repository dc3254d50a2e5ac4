package game

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

var errSocketClosed = errors.New("socket closed")

// fakeSocket is a channel-backed stand-in for a websocket. Read blocks until
// the socket is closed so ReadPump stays parked; everything the server sends
// lands on writes for the test to inspect.
type fakeSocket struct {
	writes chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		writes: make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (s *fakeSocket) Write(data []byte) error {
	select {
	case <-s.closed:
		return errSocketClosed
	case s.writes <- data:
		return nil
	}
}

func (s *fakeSocket) Read() ([]byte, error) {
	<-s.closed
	return nil, errSocketClosed
}

func (s *fakeSocket) Ping() error {
	return nil
}

func (s *fakeSocket) Close(errCode string) {
	s.once.Do(func() { close(s.closed) })
}

// nextPacket pops the next outbound packet or fails the test.
func nextPacket(t *testing.T, s *fakeSocket) ServerPacket {
	t.Helper()
	select {
	case data := <-s.writes:
		packet := ServerPacket{}
		if err := json.Unmarshal(data, &packet); err != nil {
			t.Fatalf("unmarshaling server packet: %v", err)
		}
		return packet
	case <-time.After(time.Second * 2):
		t.Fatal("timed out waiting for a server packet")
		return ServerPacket{}
	}
}

// expectEvent skims packets until one with the wanted event arrives.
func expectEvent(t *testing.T, s *fakeSocket, event string) ServerPacket {
	t.Helper()
	deadline := time.After(time.Second * 2)
	for {
		select {
		case data := <-s.writes:
			packet := ServerPacket{}
			if err := json.Unmarshal(data, &packet); err != nil {
				t.Fatalf("unmarshaling server packet: %v", err)
			}
			if packet.Event == event {
				return packet
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
			return ServerPacket{}
		}
	}
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestUpdateDescription(desc RoomSummary) {
	m.Called(desc)
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Reserve(id string) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) (<-chan time.Time, func()) {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time), func() {}
}

// --- SessionSigner ---

type MockSessionSigner struct {
	mock.Mock
}

func (m *MockSessionSigner) Generate(playerId, roomId string, now time.Time) (string, error) {
	args := m.Called(playerId, roomId, now)
	return args.String(0), args.Error(1)
}
