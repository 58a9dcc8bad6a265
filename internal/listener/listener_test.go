package listener

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/sleeponlan/internal/domain"
	"github.com/bft-labs/sleeponlan/internal/ports"
)

const testPoll = 50 * time.Millisecond

// fakeAction counts PowerOff calls.
type fakeAction struct {
	calls atomic.Int32
	err   error
}

func (f *fakeAction) PowerOff() error {
	f.calls.Add(1)
	return f.err
}

// testLogger captures messages and error fields for assertions.
type testLogger struct {
	mu   sync.Mutex
	msgs []string
	errs []error
}

func (l *testLogger) log(msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			l.errs = append(l.errs, err)
		}
	}
}

func (l *testLogger) Debug(msg string, fields ...ports.Field) { l.log(msg, fields) }
func (l *testLogger) Info(msg string, fields ...ports.Field)  { l.log(msg, fields) }
func (l *testLogger) Warn(msg string, fields ...ports.Field)  { l.log(msg, fields) }
func (l *testLogger) Error(msg string, fields ...ports.Field) { l.log(msg, fields) }

func (l *testLogger) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

func (l *testLogger) Has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if m == msg {
			return true
		}
	}
	return false
}

// freePort finds a UDP port that is currently unbound.
func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func startListener(t *testing.T, action ports.HostAction, logger ports.Logger) *Listener {
	t.Helper()
	l, err := Start(Config{Port: freePort(t), PollInterval: testPoll}, action, logger)
	require.NoError(t, err)
	t.Cleanup(l.Stop)
	return l
}

func send(t *testing.T, port int, payload []byte) {
	t.Helper()
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(payload)
	require.NoError(t, err)
}

func isDone(l *Listener) bool {
	select {
	case <-l.Done():
		return true
	default:
		return false
	}
}

func TestStart_InvalidPort(t *testing.T) {
	for _, port := range []int{-1, 0, 65536} {
		l, err := Start(Config{Port: port}, &fakeAction{}, &testLogger{})
		assert.Nil(t, l)
		require.ErrorIs(t, err, domain.ErrBind, "port %d", port)

		var bindErr *domain.BindError
		require.ErrorAs(t, err, &bindErr)
		assert.Equal(t, port, bindErr.Port)
		assert.False(t, bindErr.InUse)
	}
}

func TestStart_PortAlreadyBound(t *testing.T) {
	first := startListener(t, &fakeAction{}, &testLogger{})

	second, err := Start(Config{Port: first.Port(), PollInterval: testPoll}, &fakeAction{}, &testLogger{})
	assert.Nil(t, second)
	require.ErrorIs(t, err, domain.ErrBind)

	var bindErr *domain.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.True(t, bindErr.InUse)
	assert.Equal(t, first.Port(), bindErr.Port)
}

func TestStart_DefaultsPollInterval(t *testing.T) {
	l, err := Start(Config{Port: freePort(t)}, &fakeAction{}, &testLogger{})
	require.NoError(t, err)
	defer l.Stop()
	assert.Equal(t, DefaultPollInterval, l.cfg.PollInterval)
}

func TestStop_ExitsPromptlyAndReleasesPort(t *testing.T) {
	l := startListener(t, &fakeAction{}, &testLogger{})
	port := l.Port()

	// Let the loop settle into a blocking receive.
	time.Sleep(2 * testPoll)

	start := time.Now()
	l.Stop()
	elapsed := time.Since(start)

	assert.True(t, isDone(l))
	assert.Less(t, elapsed, 10*testPoll, "stop took %v", elapsed)

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	require.NoError(t, err, "port not released after Stop")
	require.NoError(t, conn.Close())
}

func TestStop_Idempotent(t *testing.T) {
	l := startListener(t, &fakeAction{}, &testLogger{})

	l.Stop()
	done := make(chan struct{})
	go func() {
		l.Stop()
		l.RequestStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Stop blocked")
	}
}

func TestTrigger_EndToEnd(t *testing.T) {
	action := &fakeAction{}
	logger := &testLogger{}
	l := startListener(t, action, logger)

	send(t, l.Port(), []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0x01})

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not self-terminate after trigger")
	}

	assert.EqualValues(t, 1, action.calls.Load())
	assert.True(t, l.Triggered())
	assert.True(t, logger.Has("magic packet accepted, powering off host"))

	// The socket is gone: the same port can be bound again.
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: l.Port()})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestTrigger_BurstInvokesActionOnce(t *testing.T) {
	action := &fakeAction{}
	l := startListener(t, action, &testLogger{})

	for i := 0; i < 5; i++ {
		send(t, l.Port(), domain.MinimalTrigger())
	}

	require.Eventually(t, func() bool { return isDone(l) }, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, action.calls.Load())
}

func TestNonQualifyingDatagramsIgnored(t *testing.T) {
	action := &fakeAction{}
	logger := &testLogger{}
	l := startListener(t, action, logger)

	send(t, l.Port(), []byte("stop"))
	send(t, l.Port(), []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	send(t, l.Port(), []byte{0xFF, 1, 2, 3, 4, 0})
	send(t, l.Port(), []byte{0x00, 1, 2, 3, 4, 5})

	require.Eventually(t, func() bool { return logger.Has("datagram ignored") }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * testPoll)

	assert.False(t, isDone(l), "listener exited on a non-qualifying datagram")
	assert.Zero(t, action.calls.Load())
	assert.False(t, l.Triggered())
}

func TestTrigger_ShutdownFailureStillTerminates(t *testing.T) {
	action := &fakeAction{err: errors.New("permission denied")}
	logger := &testLogger{}
	l := startListener(t, action, logger)

	send(t, l.Port(), domain.MinimalTrigger())

	require.Eventually(t, func() bool { return isDone(l) }, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, action.calls.Load())
	assert.True(t, logger.Has("host shutdown failed"))
}

func TestDumpLogsDatagrams(t *testing.T) {
	logger := &testLogger{}
	l, err := Start(Config{Port: freePort(t), PollInterval: testPoll, Dump: true}, &fakeAction{}, logger)
	require.NoError(t, err)
	defer l.Stop()

	send(t, l.Port(), []byte("hello"))

	require.Eventually(t, func() bool { return logger.Has("datagram received") }, 2*time.Second, 10*time.Millisecond)
}

// flakyConn fails the next n reads before handing over to the real socket.
type flakyConn struct {
	*net.UDPConn
	failures atomic.Int32
	reads    atomic.Int32
}

var errConnReset = errors.New("connection reset by peer")

func (c *flakyConn) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	c.reads.Add(1)
	if c.failures.Add(-1) >= 0 {
		return 0, nil, errConnReset
	}
	return c.UDPConn.ReadFromUDP(b)
}

func serveFlaky(t *testing.T, failures int32, poll time.Duration, action ports.HostAction, logger ports.Logger) (*Listener, *flakyConn) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	require.NoError(t, err)
	fc := &flakyConn{UDPConn: conn}
	fc.failures.Store(failures)

	port := conn.LocalAddr().(*net.UDPAddr).Port
	l := serve(Config{Port: port, PollInterval: poll}, fc, action, logger)
	t.Cleanup(l.Stop)
	return l, fc
}

func TestReceiveError_LoggedAndLoopSurvives(t *testing.T) {
	action := &fakeAction{}
	logger := &testLogger{}
	l, fc := serveFlaky(t, 3, testPoll, action, logger)

	require.Eventually(t, func() bool { return fc.reads.Load() > 3 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, isDone(l), "receive error ended the loop")
	assert.True(t, logger.Has("receive failed, continuing"))

	errs := logger.Errors()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], domain.ErrTransientReceive)
	assert.ErrorIs(t, errs[0], errConnReset)

	send(t, l.Port(), domain.MinimalTrigger())

	require.Eventually(t, func() bool { return isDone(l) }, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, action.calls.Load())
}

func TestReceiveError_PausesBetweenFailures(t *testing.T) {
	_, fc := serveFlaky(t, 1<<30, testPoll, &fakeAction{}, &testLogger{})

	time.Sleep(5 * testPoll)

	// One failed read per interval, not a busy loop.
	assert.LessOrEqual(t, fc.reads.Load(), int32(7))
}

func TestStop_DuringReceiveErrorPause(t *testing.T) {
	logger := &testLogger{}
	l, _ := serveFlaky(t, 1<<30, 5*time.Second, &fakeAction{}, logger)

	require.Eventually(t, func() bool { return logger.Has("receive failed, continuing") }, 2*time.Second, 5*time.Millisecond)

	start := time.Now()
	l.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, isDone(l))
}
