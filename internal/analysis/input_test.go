package analysis

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"blockgraph/internal/graph"
)

const sampleAnalysis = `{
  "functions": [
    {
      "name": "main",
      "blocks": [
        {
          "label": "main",
          "instructions": [
            {"text": "PUSH RBP"},
            {"text": "CALL 0x00401040", "flow": "CALL"},
            {"text": "TEST EAX,EAX"},
            {"text": "JZ LAB_00401020", "flow": "JUMP"}
          ],
          "destinations": ["LAB_00401020", "LAB_00401018"]
        },
        {
          "label": "LAB_00401018",
          "instructions": [{"text": "MOV EAX,0x1"}],
          "sources": ["main"],
          "destinations": ["LAB_00401020"]
        },
        {
          "label": "LAB_00401020",
          "instructions": [{"text": "POP RBP"}, {"text": "RET", "flow": "terminal"}],
          "sources": ["main", "LAB_00401018"]
        }
      ]
    }
  ],
  "functionEntries": ["0x00401040", "401000"]
}`

func TestLoad(t *testing.T) {
	doc, err := Load(strings.NewReader(sampleAnalysis))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Len() != 1 {
		t.Fatalf("Len = %d, want 1", doc.Len())
	}

	fn, err := doc.Function(0)
	if err != nil {
		t.Fatalf("Function(0): %v", err)
	}
	rec, err := graph.Build(fn, doc.IsFunctionEntry)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"PUSH REG", "CALL ADDRESS", "TEST REG, REG", "JZ ADDRESS"}
	if got := rec.Blocks[0].NormalizedInstructions; !reflect.DeepEqual(got, want) {
		t.Errorf("main instructions = %q, want %q", got, want)
	}
	if got := rec.Blocks[2].NormalizedInstructions; !reflect.DeepEqual(got, []string{"POP REG", "RET"}) {
		t.Errorf("exit instructions = %q", got)
	}

	if !doc.IsFunctionEntry("0x401040") || !doc.IsFunctionEntry("0x401000") {
		t.Error("declared entries not recognised")
	}
	if doc.IsFunctionEntry("0x401018") || doc.IsFunctionEntry("junk") {
		t.Error("undeclared address recognised")
	}
	if err := doc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLoadBadFlow(t *testing.T) {
	bad := `{"functions":[{"name":"f","blocks":[{"label":"b0","instructions":[{"text":"NOP","flow":"SIDEWAYS"}]}]}]}`
	doc, err := Load(strings.NewReader(bad))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = doc.Function(0)
	if err == nil || !strings.Contains(err.Error(), `"f"`) || !strings.Contains(err.Error(), `"b0"`) {
		t.Errorf("Function(0) err = %v, want error naming function and block", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	if err := os.WriteFile(path, []byte(sampleAnalysis), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if doc.Len() != 1 {
		t.Errorf("Len = %d", doc.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFile(missing) should fail")
	}
	if _, err := Load(strings.NewReader("{")); err == nil {
		t.Error("Load(truncated) should fail")
	}
}
