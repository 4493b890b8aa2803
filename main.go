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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"

	_ "github.com/merbanan/rtl-433-sub004/ambientweather"
	_ "github.com/merbanan/rtl-433-sub004/arexx"
	_ "github.com/merbanan/rtl-433-sub004/bresser"
	_ "github.com/merbanan/rtl-433-sub004/burnhard"
	_ "github.com/merbanan/rtl-433-sub004/idm"
	_ "github.com/merbanan/rtl-433-sub004/lacrosse"
	_ "github.com/merbanan/rtl-433-sub004/orion"
	_ "github.com/merbanan/rtl-433-sub004/scm"
	_ "github.com/merbanan/rtl-433-sub004/scmplus"
	_ "github.com/merbanan/rtl-433-sub004/somfy"
	_ "github.com/merbanan/rtl-433-sub004/thermopro"
)

// Longest line the reader accepts, every row of a full buffer in hex plus
// the length prefixes.
const maxLineLength = bitbuffer.MaxRows * (bitbuffer.MaxRowBits/4 + 8)

// errDone stops the receiver once single-shot output is complete.
var errDone = errors.New("done")

type Receiver struct {
	d   *protocol.Dispatcher
	fc  protocol.FilterChain
	enc Encoder
	out io.Writer

	checksum *crc.Spec
	single   bool
	pending  UintMap

	now func() time.Time
}

// NewReceiver builds a receiver from a validated config.
func NewReceiver(cfg Config, out io.Writer, withLine bool) (*Receiver, error) {
	rcvr := &Receiver{
		out:    out,
		single: cfg.Single,
		now:    time.Now,
	}

	if cfg.Checksum != "" {
		s, ok := crc.Lookup(cfg.Checksum)
		if !ok {
			return nil, errors.Errorf("unknown checksum: %q", cfg.Checksum)
		}
		rcvr.checksum = &s
		return rcvr, nil
	}

	var err error
	rcvr.d, err = protocol.NewDispatcherFor(cfg.MsgTypes...)
	if err != nil {
		return nil, err
	}

	rcvr.enc, err = NewEncoder(cfg.Format, out, withLine)
	if err != nil {
		return nil, err
	}

	if cfg.Unique {
		rcvr.fc.Add(NewUniqueFilter())
	}
	if len(cfg.FilterID) > 0 {
		rcvr.fc.Add(MeterIDFilter{cfg.FilterID})
	}
	if len(cfg.FilterType) > 0 {
		rcvr.fc.Add(MeterTypeFilter{cfg.FilterType})
	}

	// Single shot waits for one message from each filtered id.
	rcvr.pending = make(UintMap)
	for id := range cfg.FilterID {
		rcvr.pending[id] = true
	}

	rcvr.d.Log()

	return rcvr, nil
}

// Run reads codes from r until EOF, cancellation, or single-shot completion.
// Lines that don't parse are logged and skipped.
func (rcvr *Receiver) Run(ctx context.Context, name string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineLength)

	line := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line++
		code := scanner.Text()
		if idx := strings.IndexByte(code, '#'); idx >= 0 {
			code = code[:idx]
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}

		bb, err := bitbuffer.Parse(code)
		if err != nil {
			log.WithFields(log.Fields{"input": name, "line": line}).WithError(err).Warn("skipping code")
			continue
		}

		if rcvr.checksum != nil {
			if err := rcvr.printChecksums(line, bb); err != nil {
				return err
			}
			continue
		}

		if err := rcvr.decode(line, bb); err != nil {
			return err
		}
	}

	return errors.Wrap(scanner.Err(), name)
}

func (rcvr *Receiver) decode(line int, bb *bitbuffer.BitBuffer) error {
	for _, msg := range rcvr.d.Decode(bb) {
		// If the filterchain rejects the message, skip it.
		if !rcvr.fc.Match(msg) {
			continue
		}

		logMsg := protocol.LogMessage{
			Time:    rcvr.now(),
			Line:    line,
			Type:    msg.MsgType(),
			Message: msg,
		}

		if err := rcvr.enc.Encode(logMsg); err != nil {
			return errors.Wrap(err, "encoding message")
		}

		if rcvr.single {
			if len(rcvr.pending) == 0 {
				return errDone
			}
			delete(rcvr.pending, uint(msg.MeterID()))
			if len(rcvr.pending) == 0 {
				return errDone
			}
		}
	}

	return nil
}

func (rcvr *Receiver) printChecksums(line int, bb *bitbuffer.BitBuffer) error {
	digits := (rcvr.checksum.Width + 3) / 4

	for idx, row := range bb.Rows() {
		_, err := fmt.Fprintf(rcvr.out, "%d/%d {%d}%x %s:0x%0*X\n",
			line, idx, row.Len(), row.Bytes(), rcvr.checksum.Name,
			digits, rcvr.checksum.Checksum(row.Bytes()),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(cfg Config, w io.Writer) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	log.SetOutput(w)
	log.SetLevel(level)
	log.SetReportCaller(level >= log.DebugLevel)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: protocol.TimeFormat})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: protocol.TimeFormat})
	}

	return nil
}

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func main() {
	cfg := DefaultConfig()

	fs := pflag.CommandLine
	RegisterFlags(fs, &cfg)
	EnvOverride(fs)
	pflag.Parse()

	if version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	if configFile != "" {
		file, err := LoadConfigFile(configFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Overlay(file, fs)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := SetupLogging(cfg, os.Stderr); err != nil {
		log.Fatal(err)
	}

	inputs := pflag.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	rcvr, err := NewReceiver(cfg, os.Stdout, len(inputs) > 1)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, input := range inputs {
		err := runInput(ctx, rcvr, input)
		if errors.Is(err, errDone) || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			log.Fatal(err)
		}
	}
}

func runInput(ctx context.Context, rcvr *Receiver, input string) error {
	if input == "-" {
		return rcvr.Run(ctx, "stdin", os.Stdin)
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	return rcvr.Run(ctx, input, f)
}
