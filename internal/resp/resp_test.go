package resp

import (
	"bytes"
	"strings"
	"testing"
)

func TestReaderReadCommand(t *testing.T) {
	raw := "*2\r\n$4\r\nPING\r\n$5\r\nhello\r\n"
	r := NewReader(strings.NewReader(raw))

	cmd, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if cmd.Name != "PING" {
		t.Errorf("expected PING, got %s", cmd.Name)
	}
	if len(cmd.Args) != 1 || cmd.Args[0] != "hello" {
		t.Errorf("unexpected args: %v", cmd.Args)
	}
}

func TestReaderInlineCommand(t *testing.T) {
	r := NewReader(strings.NewReader("PING\r\n"))
	cmd, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand failed: %v", err)
	}
	if cmd.Name != "PING" || len(cmd.Args) != 0 {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteValueFlush(Arr(Str("zero"), Int(0), Str("one"), Int(1))); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "*4\r\n$4\r\nzero\r\n:0\r\n$3\r\none\r\n:1\r\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriterNullBulkAndArray(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteValueFlush(NullBulk())
	if buf.String() != "$-1\r\n" {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	w.WriteValueFlush(NullArray())
	if buf.String() != "*-1\r\n" {
		t.Errorf("got %q", buf.String())
	}
}
