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
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/merbanan/rtl-433-sub004/crc"
	"github.com/merbanan/rtl-433-sub004/protocol"
)

// Config holds every setting the receiver needs. Values come from the
// defaults, an optional YAML file, the environment and flags, later sources
// overriding earlier ones.
type Config struct {
	LogLevel  string `yaml:"loglevel"`
	LogFormat string `yaml:"logformat"`

	Format     string   `yaml:"format"`
	MsgTypes   []string `yaml:"msgtype"`
	FilterID   UintMap  `yaml:"filterid"`
	FilterType UintMap  `yaml:"filtertype"`
	Unique     bool     `yaml:"unique"`
	Single     bool     `yaml:"single"`

	// Name of a catalog checksum to print for every row instead of
	// decoding.
	Checksum string `yaml:"checksum"`

	// Extra checksum specs added to the catalog.
	CRCs []crc.Spec `yaml:"crcs"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		LogFormat:  "text",
		Format:     "plain",
		MsgTypes:   []string{"all"},
		FilterID:   make(UintMap),
		FilterType: make(UintMap),
	}
}

// LoadConfig reads a YAML config. Unknown keys are an error.
func LoadConfig(r io.Reader) (cfg Config, err error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err = dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrap(err, "config")
	}

	return cfg, nil
}

func LoadConfigFile(filename string) (Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Config{}, errors.Wrap(err, "config")
	}
	defer f.Close()

	return LoadConfig(f)
}

// Overlay copies the settings given in file into c unless the matching flag
// was set on the command line or from the environment.
func (c *Config) Overlay(file Config, fs *pflag.FlagSet) {
	set := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})

	if !set["loglevel"] && file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if !set["logformat"] && file.LogFormat != "" {
		c.LogFormat = file.LogFormat
	}
	if !set["format"] && file.Format != "" {
		c.Format = file.Format
	}
	if !set["msgtype"] && len(file.MsgTypes) > 0 {
		c.MsgTypes = file.MsgTypes
	}
	if !set["filterid"] && len(file.FilterID) > 0 {
		c.FilterID = file.FilterID
	}
	if !set["filtertype"] && len(file.FilterType) > 0 {
		c.FilterType = file.FilterType
	}
	if !set["unique"] && file.Unique {
		c.Unique = true
	}
	if !set["single"] && file.Single {
		c.Single = true
	}
	if !set["checksum"] && file.Checksum != "" {
		c.Checksum = file.Checksum
	}

	c.CRCs = append(c.CRCs, file.CRCs...)
}

// Validate normalizes names and rejects settings the receiver can't honor.
// Custom checksum specs are registered into the crc catalog.
func (c *Config) Validate() error {
	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case "plain", "csv", "json":
	default:
		return errors.Errorf("invalid format: %q", c.Format)
	}

	c.LogFormat = strings.ToLower(c.LogFormat)
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("invalid log format: %q", c.LogFormat)
	}

	for idx, name := range c.MsgTypes {
		c.MsgTypes[idx] = strings.ToLower(strings.TrimSpace(name))
	}
	for _, name := range c.MsgTypes {
		if name == "all" {
			continue
		}
		if _, err := protocol.New(name); err != nil {
			return err
		}
	}

	for _, s := range c.CRCs {
		if err := crc.Register(s); err != nil {
			return errors.Wrap(err, "config")
		}
	}

	if c.Checksum != "" {
		if _, ok := crc.Lookup(c.Checksum); !ok {
			return errors.Errorf("unknown checksum: %q, have %s", c.Checksum, strings.Join(crc.Names(), ", "))
		}
	}

	return nil
}
