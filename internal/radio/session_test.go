package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/pet_tracker/internal/gnss"
)

// mockDriver implements Driver for testing. The test fires the registered
// callbacks directly to stand in for the hardware interrupt.
type mockDriver struct {
	sendStatus   Status
	listenStatus Status
	readStatus   Status

	sent        [][]byte
	finishCalls int
	listenCalls int
	readCalls   int

	rxFrame []byte
	rxLen   int
	rssi    float64
	snr     float64

	sendDone   func()
	frameReady func()
}

func newMockDriver() *mockDriver {
	return &mockDriver{}
}

func (d *mockDriver) BeginSend(payload []byte) Status {
	if d.sendStatus != StatusOK {
		return d.sendStatus
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	d.sent = append(d.sent, cp)
	return StatusOK
}

func (d *mockDriver) FinishSend() { d.finishCalls++ }

func (d *mockDriver) BeginListen() Status {
	d.listenCalls++
	return d.listenStatus
}

func (d *mockDriver) ReceivedLength() int { return d.rxLen }

func (d *mockDriver) ReadReceived(buf []byte) Status {
	d.readCalls++
	if d.readStatus != StatusOK {
		return d.readStatus
	}
	copy(buf, d.rxFrame)
	return StatusOK
}

func (d *mockDriver) SignalStrength() float64 { return d.rssi }
func (d *mockDriver) SignalToNoise() float64  { return d.snr }
func (d *mockDriver) OnSendDone(fn func())    { d.sendDone = fn }
func (d *mockDriver) OnFrameReady(fn func())  { d.frameReady = fn }

// deliver simulates a received frame followed by the hardware interrupt.
func (d *mockDriver) deliver(frame []byte, rssi, snr float64) {
	d.rxFrame = frame
	d.rxLen = len(frame)
	d.rssi = rssi
	d.snr = snr
	d.frameReady()
}

func validFrame(t *testing.T, hhmmss uint32) []byte {
	t.Helper()
	var buf [gnss.PayloadLen]byte
	_, err := gnss.EncodePayload(gnss.Sample{Lat: 40.4168, Lon: -3.7038, HHMMSS: hhmmss, Valid: true}, buf[:])
	require.NoError(t, err)
	return buf[:]
}

func TestTxSessionStartAndComplete(t *testing.T) {
	drv := newMockDriver()
	tx := NewTxSession(drv)

	require.True(t, tx.Start([]byte{1, 2, 3}))
	assert.True(t, tx.InFlight())
	assert.Equal(t, StatusOK, tx.LastStatus())
	assert.False(t, tx.Done())

	drv.sendDone() // completion interrupt
	assert.True(t, tx.Done())

	tx.Finish()
	assert.False(t, tx.InFlight())
	assert.Equal(t, 1, drv.finishCalls)
	require.Len(t, drv.sent, 1)
	assert.Equal(t, []byte{1, 2, 3}, drv.sent[0])
}

func TestTxSessionRejectsBadLength(t *testing.T) {
	drv := newMockDriver()
	tx := NewTxSession(drv)

	assert.False(t, tx.Start(nil))
	assert.Equal(t, StatusInvalidLength, tx.LastStatus())

	assert.False(t, tx.Start(make([]byte, MaxPayload+1)))
	assert.Equal(t, StatusInvalidLength, tx.LastStatus())

	assert.False(t, tx.InFlight())
	assert.Empty(t, drv.sent)
}

func TestTxSessionAtMostOneInFlight(t *testing.T) {
	drv := newMockDriver()
	tx := NewTxSession(drv)

	require.True(t, tx.Start([]byte{1}))
	assert.False(t, tx.Start([]byte{2}))
	assert.Equal(t, StatusBusy, tx.LastStatus())

	// the rejection must not disturb the in-flight transmission
	assert.True(t, tx.InFlight())
	require.Len(t, drv.sent, 1)
	assert.Equal(t, []byte{1}, drv.sent[0])

	drv.sendDone()
	tx.Finish()
	assert.True(t, tx.Start([]byte{2}))
}

func TestTxSessionDriverRejection(t *testing.T) {
	drv := newMockDriver()
	drv.sendStatus = StatusFault
	tx := NewTxSession(drv)

	assert.False(t, tx.Start([]byte{1}))
	assert.Equal(t, StatusFault, tx.LastStatus())
	assert.False(t, tx.InFlight())
}

func TestRxSessionFastPath(t *testing.T) {
	drv := newMockDriver()
	cache := &Cache{}
	rx := NewRxSession(drv, cache)
	require.NoError(t, rx.Begin())
	armed := drv.listenCalls

	// no frame pending: no driver reads, no re-arm, cache untouched
	rx.Tick()
	rx.Tick()
	assert.Equal(t, 0, drv.readCalls)
	assert.Equal(t, armed, drv.listenCalls)
	_, _, _, ok := cache.Latest()
	assert.False(t, ok)
}

func TestRxSessionBeginFailure(t *testing.T) {
	drv := newMockDriver()
	drv.listenStatus = StatusFault
	rx := NewRxSession(drv, &Cache{})
	assert.Error(t, rx.Begin())
}

func TestRxSessionDecodesValidFrame(t *testing.T) {
	drv := newMockDriver()
	cache := &Cache{}
	rx := NewRxSession(drv, cache)
	require.NoError(t, rx.Begin())

	drv.deliver(validFrame(t, 211507), -87.5, 9.25)
	rx.Tick()

	sample, rssi, snr, ok := cache.Latest()
	require.True(t, ok)
	assert.Equal(t, uint32(211507), sample.HHMMSS)
	assert.InDelta(t, 40.4168, sample.Lat, 1e-5)
	assert.InDelta(t, -3.7038, sample.Lon, 1e-5)
	assert.Equal(t, -87.5, rssi)
	assert.Equal(t, 9.25, snr)

	// listening re-armed after the drain
	assert.Equal(t, 2, drv.listenCalls)
}

func TestRxSessionKeepsCacheOnGarbage(t *testing.T) {
	drv := newMockDriver()
	cache := &Cache{}
	rx := NewRxSession(drv, cache)
	require.NoError(t, rx.Begin())

	drv.deliver(validFrame(t, 211507), -87, 9)
	rx.Tick()

	garbled := []struct {
		name  string
		frame []byte
	}{
		{"wrong length", []byte{1, 2, 3}},
		{"bad marker", append([]byte{0xFF}, validFrame(t, 211530)[1:]...)},
		{"oversized", make([]byte, 48)},
	}

	for _, g := range garbled {
		t.Run(g.name, func(t *testing.T) {
			drv.deliver(g.frame, -120, -3)
			rx.Tick()

			sample, rssi, snr, ok := cache.Latest()
			require.True(t, ok)
			assert.Equal(t, uint32(211507), sample.HHMMSS)
			assert.Equal(t, -87.0, rssi)
			assert.Equal(t, 9.0, snr)

			// metrics of the garbled frame are still recorded for diagnostics
			gotRSSI, gotSNR := rx.Metrics()
			assert.Equal(t, -120.0, gotRSSI)
			assert.Equal(t, -3.0, gotSNR)
		})
	}
}

func TestRxSessionReadErrorLeavesCache(t *testing.T) {
	drv := newMockDriver()
	cache := &Cache{}
	rx := NewRxSession(drv, cache)
	require.NoError(t, rx.Begin())

	drv.deliver(validFrame(t, 211507), -87, 9)
	rx.Tick()
	armed := drv.listenCalls

	drv.readStatus = StatusFault
	drv.deliver(validFrame(t, 211530), -90, 5)
	rx.Tick()

	sample, _, _, ok := cache.Latest()
	require.True(t, ok)
	assert.Equal(t, uint32(211507), sample.HHMMSS)

	// a failed read still re-arms listening
	assert.Equal(t, armed+1, drv.listenCalls)
}

func TestRxSessionClampsReportedLength(t *testing.T) {
	drv := newMockDriver()
	cache := &Cache{}
	rx := NewRxSession(drv, cache)
	require.NoError(t, rx.Begin())

	// driver cannot report a length: session falls back to the bounded default
	drv.rxFrame = validFrame(t, 211507)
	drv.rxLen = 0
	drv.frameReady()
	rx.Tick()
	assert.Equal(t, 1, drv.readCalls)

	// absurd length is clamped to the receive buffer
	drv.rxLen = 4096
	drv.frameReady()
	rx.Tick()
	assert.Equal(t, 2, drv.readCalls)

	// neither read produced a 13-byte frame, so the cache stays empty
	_, _, _, ok := cache.Latest()
	assert.False(t, ok)
}
