// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gnss

import (
	"bufio"
	"io"
	"log"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// FixSource provides the most recent GNSS fix to the control loop. Consumers
// read it once per tick and never retain the sample beyond that tick.
type FixSource interface {
	HasFix() bool
	Sample() Sample
}

// SerialSource reads NMEA sentences from a GNSS receiver on a serial port and
// keeps the latest RMC-derived sample. The reader goroutine is the only
// writer; the control loop reads under the mutex.
type SerialSource struct {
	mu      sync.RWMutex
	current Sample
	port    io.ReadWriteCloser
}

// OpenSerialSource opens the GNSS serial port and starts the reader goroutine.
func OpenSerialSource(portName string, baudRate uint) (*SerialSource, error) {
	serialOpts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, err
	}
	log.Printf("gnss: serial port opened on %s at %d baud", portName, baudRate)

	s := &SerialSource{port: port}
	go s.run(port)
	return s, nil
}

func (s *SerialSource) run(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("gnss: read error: %v", err)
			return
		}
		s.handleLine(strings.TrimSpace(line))
	}
}

// handleLine feeds one raw NMEA sentence to the parser. Partial or garbled
// sentences from a noisy receiver are dropped without touching the current
// sample; an RMC sentence always replaces it, valid or not.
func (s *SerialSource) handleLine(line string) {
	if line == "" || !strings.HasPrefix(line, "$") {
		return
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences; log at debug if too chatty
		return
	}

	if sentence.DataType() != nmea.TypeRMC {
		// ignore other sentence types (GGA, GSA, etc.)
		return
	}
	m := sentence.(nmea.RMC)

	sample := Sample{
		Lat:    m.Latitude,
		Lon:    m.Longitude,
		HHMMSS: uint32(m.Time.Hour)*10000 + uint32(m.Time.Minute)*100 + uint32(m.Time.Second),
		Valid:  m.Validity == nmea.ValidRMC && m.Time.Valid,
	}

	s.mu.Lock()
	s.current = sample
	s.mu.Unlock()
}

// HasFix reports whether the receiver currently has a usable position and time.
func (s *SerialSource) HasFix() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Valid
}

// Sample returns the most recent fix. Check Valid (or HasFix) before use.
func (s *SerialSource) Sample() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Close stops the reader by closing the underlying port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
