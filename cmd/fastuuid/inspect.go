package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/Lzww0608/fastuuid"
)

// InspectCmd prints every representation of the given UUIDs.
type InspectCmd struct {
	UUIDs []string `arg:"" name:"uuid" help:"UUIDs in any string form: hyphenated, hex, braced or urn."`
}

// Run implements the inspect command.
func (c *InspectCmd) Run(e *runEnv) error {
	for i, s := range c.UUIDs {
		id, err := fastuuid.Parse(s)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(e.out)
		}
		if err := describe(e.out, id); err != nil {
			return errors.Wrap(err, "write output")
		}
	}
	return nil
}

func describe(w io.Writer, id fastuuid.UUID) error {
	f := id.Fields()
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	row := func(k, format string, args ...interface{}) {
		fmt.Fprintf(tw, "%s:\t"+format+"\n", append([]interface{}{k}, args...)...)
	}

	row("uuid", "%s", id)
	row("hex", "%s", id.Hex())
	row("urn", "%s", id.URN())
	row("int", "%s", id.Int())
	row("bytes", "%s", hex.EncodeToString(id.Bytes()))
	row("bytes_le", "%s", hex.EncodeToString(id.BytesLE()))
	row("version", "%d", id.Version())
	row("variant", "%s", id.Variant())
	row("time_low", "0x%08x", f.TimeLow)
	row("time_mid", "0x%04x", f.TimeMid)
	row("time_hi_version", "0x%04x", f.TimeHiVersion)
	row("clock_seq_hi_variant", "0x%02x", f.ClockSeqHiVariant)
	row("clock_seq_low", "0x%02x", f.ClockSeqLow)
	row("node", "0x%012x", f.Node)
	row("clock_seq", "%d", id.ClockSeq())
	row("time", "%d", id.RawTime())
	if t := id.Time(); !t.IsZero() {
		row("timestamp", "%s", t.UTC().Format(time.RFC3339Nano))
	}
	return tw.Flush()
}
