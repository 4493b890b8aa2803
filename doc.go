/*
rtl-433-sub004 decodes demodulated sub-GHz sensor transmissions given as
rtl_433 codes.

Input is read from each file named on the command line, or stdin when none
are given. Every line holds one buffer in rtl_433 code notation, rows
separated by slashes with an optional bit length prefix:

	{25}abcdef8/{8}ff
	aaaaaaaa2dd45eaa188002c318fa8ffb2768118481fff07200

Text after a # is ignored, as are blank lines. Lines that fail to parse are
logged and skipped.

Command-line Flags:

	--config=""

Reads settings from a yaml file. Keys match the flag names, custom checksums
are listed under crcs:

	loglevel: debug
	format: json
	msgtype: [wh31e, bresser6in1]
	filterid: [195]
	crcs:
	  - {name: CRC-8/CUSTOM, width: 8, poly: 0x31, init: 0xc0}

Flags and RTL433_ environment variables override the file.

	--format="plain"

Sets the output format: plain, csv or json. Plain text is formatted as:

	{Time:%s Line:%d %s:%s}

The line number is omitted when reading a single input. Csv records start
with the time, line number and message type followed by the decoder's fields.

	--msgtype=all

Comma-separated list of decoders to run. Defaults to every registered
decoder: scm, scm+, idm, wh31e, bresser6in1, tx7b, tp829b, burnhard, orion,
arexx, ws7000 and iohc.

	--filterid=

Display only messages matching an id in a comma-separated list of ids.

	--filtertype=

Display only messages matching a type in a comma-separated list of types.

	--unique=false

Suppress repeated messages from a meter until its checksum changes.

	--single=false

Exit after the first message. With --filterid, exit once a message from each
listed id was seen.

	--checksum=""

Instead of decoding, print the named catalog checksum of every row, for
example CRC-16/KERMIT or CRC-8/MAXIM-DOW.

	--loglevel=info
	--logformat=text

Diagnostics go to stderr. At debug every decoder rejection is logged with
its reason.

	--version=false

Display build tag, date and commit hash.
*/
package main
