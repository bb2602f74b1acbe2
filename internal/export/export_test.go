package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blockgraph/internal/graph"
	"blockgraph/internal/normalize"
)

func record(t *testing.T, name string) *graph.FunctionRecord {
	t.Helper()
	rec, err := graph.Build(graph.RawFunction{
		Name: name,
		Blocks: []graph.RawBlock{
			{
				Label:        name,
				Instructions: []normalize.RawInstruction{normalize.ParseInstruction("CALL 0x4010", normalize.Call)},
				Destinations: []string{"B1"},
			},
			{
				Label:        "B1",
				Instructions: []normalize.RawInstruction{normalize.ParseInstruction("RET", normalize.Terminal)},
				Sources:      []string{name},
			},
		},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("empty document = %q", buf.String())
	}
	if err := w.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
	if err := w.WriteFunction(record(t, "f")); !errors.Is(err, ErrClosed) {
		t.Errorf("write after Close = %v, want ErrClosed", err)
	}
}

func TestWriterCompact(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	for _, name := range []string{"f", "g"} {
		if err := w.WriteFunction(record(t, name)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.Count() != 2 {
		t.Errorf("Count = %d", w.Count())
	}

	want := `[{"name":"f","blocks":[{"label":"f","normalizedInst":["CALL ADDRESS"],"sourceBlock":[],"destinationBlock":["B1"]},` +
		`{"label":"B1","normalizedInst":["RET"],"sourceBlock":["f"],"destinationBlock":[]}]},` +
		`{"name":"g","blocks":[{"label":"g","normalizedInst":["CALL ADDRESS"],"sourceBlock":[],"destinationBlock":["B1"]},` +
		`{"label":"B1","normalizedInst":["RET"],"sourceBlock":["g"],"destinationBlock":[]}]}]` + "\n"
	if buf.String() != want {
		t.Errorf("document =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriterIndentIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	w.WriteFunction(record(t, "f"))
	w.WriteFunction(record(t, "g"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Fatalf("indented output is not valid JSON:\n%s", buf.String())
	}
	recs, err := ReadDocument(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].Name != "g" {
		t.Errorf("ReadDocument = %d records", len(recs))
	}
	if got := recs[0].Labels(recs[0].Blocks[1].Sources); len(got) != 1 || got[0] != "f" {
		t.Errorf("relinked sources = %q", got)
	}
}

func TestFileCommit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	f, err := Create(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.WriteFunction(record(t, "f")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("destination exists before Commit: %v", err)
	}
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := f.Commit(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Commit = %v", err)
	}
	if err := f.Discard(); err != nil {
		t.Errorf("Discard after Commit = %v", err)
	}

	recs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "f" {
		t.Errorf("committed document has %d records", len(recs))
	}
	assertOnlyFile(t, dir, "out.json")
}

func TestFileDiscard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	f, err := Create(path, false)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteFunction(record(t, "f"))
	if err := f.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("destination written after Discard: %v", err)
	}
	if err := f.WriteFunction(record(t, "g")); !errors.Is(err, ErrClosed) {
		t.Errorf("write after Discard = %v", err)
	}
	assertOnlyFile(t, dir, "")
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := 0
	if name != "" {
		want = 1
	}
	if len(names) != want || (want == 1 && names[0] != name) {
		t.Errorf("directory contains %q, want only %q", names, name)
	}
}

func TestReadDocumentDangling(t *testing.T) {
	doc := `[{"name":"f","blocks":[{"label":"A","normalizedInst":[],"sourceBlock":[],"destinationBlock":["Z"]}]}]`
	var ere *graph.EdgeResolutionError
	if _, err := ReadDocument(strings.NewReader(doc)); !errors.As(err, &ere) {
		t.Errorf("ReadDocument = %v, want EdgeResolutionError", err)
	}
}

func TestOutputSchema(t *testing.T) {
	bts, err := OutputSchema()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"normalizedInst", "sourceBlock", "destinationBlock"} {
		if !bytes.Contains(bts, []byte(key)) {
			t.Errorf("schema lacks %q", key)
		}
	}
}
