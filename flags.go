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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/merbanan/rtl-433-sub004/csv"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

const envPrefix = "RTL433_"

var (
	configFile string
	version    bool
)

// RegisterFlags binds the receiver's flags to cfg, whose current values
// become the defaults.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&configFile, "config", "", "yaml config file, flags and environment override its values")

	fs.StringVar(&cfg.Format, "format", cfg.Format, "decoded message output format: plain, csv or json")
	fs.StringSliceVar(&cfg.MsgTypes, "msgtype", cfg.MsgTypes, "comma-separated list of decoders to run, all for every registered decoder")
	fs.Var(cfg.FilterID, "filterid", "display only messages matching an id in a comma-separated list of ids.")
	fs.Var(cfg.FilterType, "filtertype", "display only messages matching a type in a comma-separated list of types.")
	fs.BoolVar(&cfg.Unique, "unique", cfg.Unique, "suppress duplicate messages from each meter")
	fs.BoolVar(&cfg.Single, "single", cfg.Single, "one shot execution, if used with -filterid, will wait for exactly one message from each meter id")
	fs.StringVar(&cfg.Checksum, "checksum", cfg.Checksum, "print the named catalog checksum of every row instead of decoding")

	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log level: panic, fatal, error, warn, info, debug or trace")
	fs.StringVar(&cfg.LogFormat, "logformat", cfg.LogFormat, "log format: text or json")

	fs.BoolVar(&version, "version", false, "display build date and commit hash")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: [flags] [file ...]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Reads rtl_433 codes, one buffer per line, from each file or stdin.")
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "decoders:", strings.Join(protocol.Names(), ", "))
	}
}

// EnvOverride sets each flag from RTL433_<NAME> when that variable is
// present. Flags given on the command line still win when parsed after.
func EnvOverride(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		envName := envPrefix + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue == "" {
			return
		}

		fields := log.Fields{"env": envName, "flag": f.Name, "value": flagValue}
		if err := fs.Set(f.Name, flagValue); err != nil {
			log.WithFields(fields).WithError(err).Warn("environment variable failed to override flag")
			return
		}
		log.WithFields(fields).Info("environment variable overrides flag")
	})
}

// NewEncoder returns the message encoder for format, writing to w.
func NewEncoder(format string, w io.Writer, withLine bool) (Encoder, error) {
	switch strings.ToLower(format) {
	case "plain":
		return PlainEncoder{w, withLine}, nil
	case "csv":
		return csv.NewEncoder(w), nil
	case "json":
		return json.NewEncoder(w), nil
	}
	return nil, errors.Errorf("invalid format: %q", format)
}

// JSON and CSV both implement this interface so we can simplify log
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

type UintMap map[uint]bool

func (m UintMap) String() string {
	values := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		values = append(values, strconv.FormatUint(uint64(k), 10))
	}
	return strings.Join(values, ",")
}

func (m UintMap) Set(value string) error {
	values := strings.Split(value, ",")

	for _, v := range values {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 32)
		if err != nil {
			return err
		}

		m[uint(n)] = true
	}

	return nil
}

func (m UintMap) Type() string {
	return "uints"
}

func (m UintMap) Keys() []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// UnmarshalYAML accepts a sequence of ids.
func (m *UintMap) UnmarshalYAML(value *yaml.Node) error {
	var ids []uint
	if err := value.Decode(&ids); err != nil {
		return err
	}

	if *m == nil {
		*m = make(UintMap)
	}
	for _, id := range ids {
		(*m)[id] = true
	}

	return nil
}

type MeterIDFilter struct {
	UintMap
}

func (m MeterIDFilter) Filter(msg protocol.Message) bool {
	return m.UintMap[uint(msg.MeterID())]
}

type MeterTypeFilter struct {
	UintMap
}

func (m MeterTypeFilter) Filter(msg protocol.Message) bool {
	return m.UintMap[uint(msg.MeterType())]
}

type meterKey struct {
	msgType string
	id      uint32
}

// UniqueFilter passes a message only when its checksum differs from the
// last one seen from the same meter.
type UniqueFilter map[meterKey][]byte

func NewUniqueFilter() UniqueFilter {
	return make(UniqueFilter)
}

func (uf UniqueFilter) Filter(msg protocol.Message) bool {
	checksum := msg.Checksum()
	key := meterKey{msg.MsgType(), msg.MeterID()}

	if val, ok := uf[key]; ok && bytes.Equal(val, checksum) {
		return false
	}

	uf[key] = append([]byte(nil), checksum...)
	return true
}

type PlainEncoder struct {
	w        io.Writer
	withLine bool
}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	if m, ok := msg.(protocol.LogMessage); ok && !pe.withLine {
		_, err = fmt.Fprintln(pe.w, m.StringNoLine())
	} else {
		_, err = fmt.Fprintln(pe.w, msg)
	}
	return
}
