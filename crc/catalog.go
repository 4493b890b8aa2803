package crc

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrSpec is returned for parameter sets the primitives cannot compute.
var ErrSpec = errors.New("crc: invalid spec")

// A Spec names one CRC variant. Poly and Init are always given in normal
// (MSB-first) form, also for reflected variants. XorOut is applied to the
// final register.
type Spec struct {
	Name    string `yaml:"name"`
	Width   int    `yaml:"width"`
	Poly    uint16 `yaml:"poly"`
	Init    uint16 `yaml:"init"`
	Reflect bool   `yaml:"reflect"`
	XorOut  uint16 `yaml:"xorout"`
}

func (s Spec) String() string {
	return fmt.Sprintf("{Name:%s Width:%d Poly:0x%X Init:0x%X Reflect:%t XorOut:0x%X}",
		s.Name, s.Width, s.Poly, s.Init, s.Reflect, s.XorOut,
	)
}

// Validate checks that the width is supported and every parameter fits it.
func (s Spec) Validate() error {
	switch s.Width {
	case 4, 7:
		if s.Reflect {
			return errors.Wrapf(ErrSpec, "%s: no reflected CRC-%d", s.Name, s.Width)
		}
	case 8, 16:
	default:
		return errors.Wrapf(ErrSpec, "%s: unsupported width %d", s.Name, s.Width)
	}

	limit := uint16(1)<<uint(s.Width) - 1
	if s.Poly > limit || s.Init > limit || s.XorOut > limit {
		return errors.Wrapf(ErrSpec, "%s: parameters exceed %d bits", s.Name, s.Width)
	}
	if s.Poly == 0 {
		return errors.Wrapf(ErrSpec, "%s: zero polynomial", s.Name)
	}

	return nil
}

// Checksum dispatches to the primitive matching the spec. The spec must be
// valid.
func (s Spec) Checksum(data []byte) uint16 {
	var rem uint16
	switch {
	case s.Width == 4:
		rem = uint16(CRC4(data, uint8(s.Poly), uint8(s.Init)))
	case s.Width == 7:
		rem = uint16(CRC7(data, uint8(s.Poly), uint8(s.Init)))
	case s.Width == 8 && s.Reflect:
		rem = uint16(CRC8LE(data, uint8(s.Poly), uint8(s.Init)))
	case s.Width == 8:
		rem = uint16(CRC8(data, uint8(s.Poly), uint8(s.Init)))
	case s.Width == 16 && s.Reflect:
		rem = CRC16LSB(data, bits.Reverse16(s.Poly), bits.Reverse16(s.Init))
	default:
		rem = CRC16(data, s.Poly, s.Init)
	}
	return rem ^ s.XorOut
}

var (
	catalogMutex sync.Mutex
	catalog      = make(map[string]Spec)
)

// Register adds a named spec to the catalog. Names are case-insensitive.
func Register(s Spec) error {
	if err := s.Validate(); err != nil {
		return err
	}

	catalogMutex.Lock()
	defer catalogMutex.Unlock()

	key := strings.ToUpper(s.Name)
	if _, dup := catalog[key]; dup {
		return errors.Wrapf(ErrSpec, "%s: already registered", s.Name)
	}
	catalog[key] = s

	return nil
}

// Lookup returns the spec registered under name.
func Lookup(name string) (Spec, bool) {
	catalogMutex.Lock()
	defer catalogMutex.Unlock()

	s, ok := catalog[strings.ToUpper(name)]
	return s, ok
}

// Names lists the registered specs in sorted order.
func Names() []string {
	catalogMutex.Lock()
	defer catalogMutex.Unlock()

	names := make([]string, 0, len(catalog))
	for _, s := range catalog {
		names = append(names, s.Name)
	}
	sort.Strings(names)

	return names
}

func init() {
	for _, s := range []Spec{
		{Name: "CRC-4/INTERLAKEN", Width: 4, Poly: 0x3, Init: 0xF, XorOut: 0xF},
		{Name: "CRC-7/MMC", Width: 7, Poly: 0x09},
		{Name: "CRC-8/SMBUS", Width: 8, Poly: 0x07},
		{Name: "CRC-8/NRSC-5", Width: 8, Poly: 0x31, Init: 0xFF},
		{Name: "CRC-8/MAXIM-DOW", Width: 8, Poly: 0x31, Reflect: true},
		{Name: "CRC-8/FINEOFFSET", Width: 8, Poly: 0x31},
		{Name: "CRC-16/XMODEM", Width: 16, Poly: 0x1021},
		{Name: "CRC-16/KERMIT", Width: 16, Poly: 0x1021, Reflect: true},
		{Name: "CRC-16/IBM-3740", Width: 16, Poly: 0x1021, Init: 0xFFFF},
		{Name: "CRC-16/GENIBUS", Width: 16, Poly: 0x1021, Init: 0xFFFF, XorOut: 0xFFFF},
		{Name: "CRC-16/CMS", Width: 16, Poly: 0x8005, Init: 0xFFFF},
		{Name: "CRC-16/UMTS", Width: 16, Poly: 0x8005},
		{Name: "CRC-16/ERT-SCM", Width: 16, Poly: 0x6F63},
	} {
		if err := Register(s); err != nil {
			panic(err)
		}
	}
}
