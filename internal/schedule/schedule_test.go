package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/pet_tracker/internal/gnss"
)

func fix(hhmmss uint32) gnss.Sample {
	return gnss.Sample{Lat: 40.4168, Lon: -3.7038, HHMMSS: hhmmss, Valid: true}
}

func TestSenderPeriodTenSeconds(t *testing.T) {
	s := NewSender(10)

	// seconds {00, 05, 10, 07} within the minute
	tests := []struct {
		hhmmss uint32
		want   bool
	}{
		{211500, true},
		{211505, false},
		{211510, true},
		{211507, false},
	}

	for _, tt := range tests {
		got := s.Due(fix(tt.hhmmss))
		assert.Equal(t, tt.want, got, "hhmmss=%06d", tt.hhmmss)
		if got {
			s.MarkStarted(tt.hhmmss)
		}
	}
}

func TestSenderDedupesSameSecond(t *testing.T) {
	s := NewSender(10)
	sample := fix(211510)

	assert.True(t, s.Due(sample))
	s.MarkStarted(sample.HHMMSS)

	// the same fix keeps arriving across idle loop ticks
	assert.False(t, s.Due(sample))
	assert.False(t, s.Due(sample))

	// next eligible second fires again
	assert.True(t, s.Due(fix(211520)))
}

func TestSenderRetriesWhenStartRejected(t *testing.T) {
	s := NewSender(10)
	sample := fix(211510)

	// Due but the driver rejected the send: MarkStarted was not called,
	// so the same fix stays eligible on the next tick.
	assert.True(t, s.Due(sample))
	assert.True(t, s.Due(sample))
}

func TestSenderIgnoresInvalidSample(t *testing.T) {
	s := NewSender(10)
	assert.False(t, s.Due(gnss.Sample{HHMMSS: 211510, Valid: false}))
}

func TestSenderPeriodOneFiresEverySecond(t *testing.T) {
	s := NewSender(1)
	for _, hhmmss := range []uint32{211501, 211502, 211503} {
		assert.True(t, s.Due(fix(hhmmss)))
		s.MarkStarted(hhmmss)
	}
}
