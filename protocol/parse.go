package protocol

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/merbanan/rtl-433-sub004/bitbuffer"
	"github.com/merbanan/rtl-433-sub004/csv"
)

const (
	TimeFormat = "2006-01-02T15:04:05.000"
)

// Reasons a decoder rejects a buffer. Decoders wrap these with detail.
var (
	// No preamble or sync word found, or rows of the wrong size.
	ErrAbortEarly = errors.New("abort early")

	// A message was found but is too short.
	ErrAbortLength = errors.New("abort length")

	// The integrity check failed.
	ErrFailMIC = errors.New("integrity check failed")

	// The integrity check passed but the content makes no sense.
	ErrFailSanity = errors.New("sanity check failed")
)

var (
	decoderMutex sync.Mutex
	decoders     = make(map[string]NewDecoderFunc)
)

type NewDecoderFunc func() Decoder

// Given a name and a decoder, register a decoder for use.
// Later used by underscore importing each decoder package:
//
//	import _ "github.com/merbanan/rtl-433-sub004/scm"
func Register(name string, decoderFn NewDecoderFunc) {
	decoderMutex.Lock()
	defer decoderMutex.Unlock()

	if decoderFn == nil {
		panic("protocol: new decoder func is nil")
	}
	if _, dup := decoders[name]; dup {
		panic(fmt.Sprintf("protocol: decoder already registered (%s)", name))
	}
	decoders[name] = decoderFn
}

// Given a name, lookup the decoder and make a new one.
func New(name string) (Decoder, error) {
	decoderMutex.Lock()
	defer decoderMutex.Unlock()

	if decoderFn, exists := decoders[name]; exists {
		return decoderFn(), nil
	}
	return nil, errors.Errorf("invalid message type: %q", name)
}

// Names lists registered decoders in sorted order.
func Names() (names []string) {
	decoderMutex.Lock()
	defer decoderMutex.Unlock()

	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)

	return
}

// A Decoder turns a buffer of demodulated rows into messages. It must not
// retain or modify the buffer.
type Decoder interface {
	Name() string
	Decode(*bitbuffer.BitBuffer) ([]Message, error)
}

type Message interface {
	csv.Recorder
	MsgType() string
	MeterID() uint32
	MeterType() uint8
	Checksum() []byte
}

// DecodeRows applies fn to every row of bb. Duplicate messages from
// repeated rows are dropped. If no row yields a message the first error is
// returned.
func DecodeRows(bb *bitbuffer.BitBuffer, fn func(row int, r bitbuffer.Row) (Message, error)) (msgs []Message, err error) {
	seen := make(map[Digest]bool)

	for row := 0; row < bb.NumRows(); row++ {
		msg, rowErr := fn(row, bb.Row(row))
		if rowErr != nil {
			if err == nil {
				err = errors.WithMessagef(rowErr, "row %d", row)
			}
			continue
		}

		digest := NewDigest(msg)
		if seen[digest] {
			continue
		}
		seen[digest] = true

		msgs = append(msgs, msg)
	}

	if len(msgs) > 0 {
		return msgs, nil
	}
	if err == nil {
		err = errors.Wrap(ErrAbortEarly, "no rows")
	}
	return nil, err
}

// Uniquely identifies a message, repeats of a transmission share a digest.
type Digest struct {
	MsgType   string
	MeterType uint8
	MeterID   uint32
	Checksum  string
}

func NewDigest(msg Message) Digest {
	return Digest{
		msg.MsgType(),
		msg.MeterType(),
		msg.MeterID(),
		string(msg.Checksum()),
	}
}

// A LogMessage associates a message with a point in time and the input
// line it was decoded from.
type LogMessage struct {
	Time time.Time
	Line int
	Type string
	Message
}

func (msg LogMessage) String() string {
	return fmt.Sprintf("{Time:%s Line:%d %s:%s}",
		msg.Time.Format(TimeFormat), msg.Line, msg.MsgType(), msg.Message,
	)
}

func (msg LogMessage) StringNoLine() string {
	return fmt.Sprintf("{Time:%s %s:%s}", msg.Time.Format(TimeFormat), msg.MsgType(), msg.Message)
}

func (msg LogMessage) Record() (r []string) {
	r = append(r, msg.Time.Format(time.RFC3339Nano))
	r = append(r, strconv.Itoa(msg.Line))
	r = append(r, msg.MsgType())
	r = append(r, msg.Message.Record()...)
	return r
}

// HexChecksum formats a checksum for String and Record methods.
func HexChecksum(checksum []byte) string {
	return "0x" + hex.EncodeToString(checksum)
}

// A FilterChain takes a list of filters and applies them iteratively to
// messages sent through the chain.
type FilterChain []MessageFilter

func (fc *FilterChain) Add(filter MessageFilter) {
	*fc = append(*fc, filter)
}

func (fc FilterChain) Match(msg Message) bool {
	if len(fc) == 0 {
		return true
	}

	for _, filter := range fc {
		if !filter.Filter(msg) {
			return false
		}
	}

	return true
}

type MessageFilter interface {
	Filter(Message) bool
}
