// rtl-433-sub004 - Bit-level decoding of sub-GHz sensor transmissions.
// Copyright (C) 2015 Douglas Hall
// Copyright (C) 2026 The rtl-433-sub004 Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package protocol

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
)

// Dispatcher runs a set of decoders over each buffer.
type Dispatcher struct {
	decoders []Decoder
	names    []string
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register decoders to hand buffers off to. Results keep registration
// order.
func (d *Dispatcher) RegisterProtocol(dec Decoder) {
	d.decoders = append(d.decoders, dec)
	d.names = append(d.names, dec.Name())
}

// NewDispatcherFor builds a dispatcher from registered decoder names. The
// name "all" selects every registered decoder.
func NewDispatcherFor(names ...string) (*Dispatcher, error) {
	for _, name := range names {
		if name == "all" {
			names = Names()
			break
		}
	}

	d := NewDispatcher()
	for _, name := range names {
		dec, err := New(name)
		if err != nil {
			return nil, err
		}
		d.RegisterProtocol(dec)
	}

	return d, nil
}

func (d Dispatcher) Log() {
	log.WithField("protocols", strings.Join(d.names, ",")).Info("registered decoders")
}

func (d Dispatcher) Protocols() []string {
	return append([]string(nil), d.names...)
}

// Decode runs every decoder concurrently, each on its own copy of bb, and
// returns the accepted messages in registration order.
func (d Dispatcher) Decode(bb *bitbuffer.BitBuffer) []Message {
	results := make([][]Message, len(d.decoders))

	var wg sync.WaitGroup
	wg.Add(len(d.decoders))

	for idx, dec := range d.decoders {
		go func(idx int, dec Decoder, bb *bitbuffer.BitBuffer) {
			defer wg.Done()

			msgs, err := dec.Decode(bb)
			if err != nil {
				log.WithFields(log.Fields{
					"decoder": dec.Name(),
					"rows":    bb.NumRows(),
				}).WithError(err).Debug("rejected")
				return
			}

			for _, msg := range msgs {
				log.WithFields(log.Fields{
					"decoder": dec.Name(),
					"id":      msg.MeterID(),
				}).Trace("accepted")
			}
			results[idx] = msgs
		}(idx, dec, bb.Clone())
	}

	wg.Wait()

	var msgs []Message
	for _, r := range results {
		msgs = append(msgs, r...)
	}
	return msgs
}
