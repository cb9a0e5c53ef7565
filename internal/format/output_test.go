package format

import (
	"bytes"
	"strings"
	"testing"
)

type rows struct{}

func (rows) TableHeaders() []string { return []string{"ID", "TRACK"} }
func (rows) TableRows() [][]string {
	return [][]string{{"a::clip::0", "Audio S1"}, {"v::clip::0", "Video 1"}}
}

type note string

func (n note) Text() string { return string(n) + "\n\n" }

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": []int{1, 2}}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "{\"data\":[1,2]}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWrite_TextTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": rows{}}, "text", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "TRACK", "a::clip::0", "Video 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWrite_TextFallbacks(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, note("undone"), "text", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "undone\n" {
		t.Fatalf("got %q", buf.String())
	}
	buf.Reset()
	if err := Write(&buf, map[string]any{"data": map[string]int{"count": 2}}, "text", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\"count\": 2") {
		t.Fatalf("expected indented JSON fallback; got %q", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected error")
	}
}
