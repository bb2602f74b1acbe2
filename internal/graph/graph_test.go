package graph

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/kr/pretty"

	"blockgraph/internal/normalize"
)

func op(text string) normalize.RawInstruction {
	return normalize.ParseInstruction(text, normalize.Operation)
}

func call(text string) normalize.RawInstruction {
	return normalize.ParseInstruction(text, normalize.Call)
}

func jump(text string) normalize.RawInstruction {
	return normalize.ParseInstruction(text, normalize.Jump)
}

func ret() normalize.RawInstruction {
	return normalize.ParseInstruction("RET", normalize.Terminal)
}

// diamond: entry -> (then, else) -> exit
func diamond() RawFunction {
	return RawFunction{
		Name: "diamond",
		Blocks: []RawBlock{
			{
				Label:        "entry",
				Instructions: []normalize.RawInstruction{op("CMP EDI,0x0"), jump("JZ else")},
				Destinations: []string{"then", "else"},
			},
			{
				Label:        "then",
				Instructions: []normalize.RawInstruction{op("MOV EAX,0x1"), jump("JMP exit")},
				Sources:      []string{"entry"},
				Destinations: []string{"exit"},
			},
			{
				Label:        "else",
				Instructions: []normalize.RawInstruction{op("MOV EAX,0x2")},
				Sources:      []string{"entry"},
				Destinations: []string{"exit"},
			},
			{
				Label:        "exit",
				Instructions: []normalize.RawInstruction{call("CALL 0x4010"), ret()},
				Sources:      []string{"then", "else"},
			},
		},
	}
}

func TestBuildTwoBlocks(t *testing.T) {
	fn := RawFunction{
		Name: "f",
		Blocks: []RawBlock{
			{Label: "A", Instructions: []normalize.RawInstruction{op("NOP")}, Destinations: []string{"B"}},
			{Label: "B", Instructions: []normalize.RawInstruction{ret()}, Sources: []string{"A"}},
		},
	}
	rec, err := Build(fn, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, b := rec.Block(0), rec.Block(1)
	if got := rec.Labels(a.Destinations); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("A.destinations = %q, want [B]", got)
	}
	if got := rec.Labels(b.Sources); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("B.sources = %q, want [A]", got)
	}
	if len(a.Sources) != 0 || len(b.Destinations) != 0 {
		t.Errorf("unexpected edges: A.sources=%v B.destinations=%v", a.Sources, b.Destinations)
	}
}

func TestBuildDiamond(t *testing.T) {
	rec, err := Build(diamond(), normalize.NoAddresses)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []BlockNode{
		{Label: "entry", NormalizedInstructions: []string{"CMP REG, 0x0", "JZ ADDRESS"}, Sources: []BlockID{}, Destinations: []BlockID{1, 2}},
		{Label: "then", NormalizedInstructions: []string{"MOV REG, 0x1", "JMP ADDRESS"}, Sources: []BlockID{0}, Destinations: []BlockID{3}},
		{Label: "else", NormalizedInstructions: []string{"MOV REG, 0x2"}, Sources: []BlockID{0}, Destinations: []BlockID{3}},
		{Label: "exit", NormalizedInstructions: []string{"CALL ADDRESS", "RET"}, Sources: []BlockID{1, 2}, Destinations: []BlockID{}},
	}
	if diff := pretty.Diff(rec.Blocks, want); len(diff) > 0 {
		t.Errorf("blocks differ:\n%s", diff)
	}
	if rec.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", rec.EdgeCount())
	}
	if rec.InstructionCount() != 7 {
		t.Errorf("InstructionCount = %d, want 7", rec.InstructionCount())
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestBuildKeepsDuplicatesAndLoops(t *testing.T) {
	fn := RawFunction{
		Name: "loop",
		Blocks: []RawBlock{
			{Label: "head", Sources: []string{"head", "head"}, Destinations: []string{"head", "head", "tail"}},
			{Label: "tail", Sources: []string{"head"}},
		},
	}
	rec, err := Build(fn, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	head := rec.Block(0)
	if got := rec.Labels(head.Destinations); !reflect.DeepEqual(got, []string{"head", "head", "tail"}) {
		t.Errorf("head.destinations = %q", got)
	}
	if got := rec.Labels(head.Sources); !reflect.DeepEqual(got, []string{"head", "head"}) {
		t.Errorf("head.sources = %q", got)
	}
}

func TestBuildEdgeResolutionFailure(t *testing.T) {
	tests := []struct {
		name string
		fn   RawFunction
		want EdgeResolutionError
	}{
		{
			name: "missing destination",
			fn: RawFunction{Name: "f", Blocks: []RawBlock{
				{Label: "A", Destinations: []string{"B", "Z"}},
				{Label: "B"},
			}},
			want: EdgeResolutionError{Function: "f", Block: "A", Label: "Z", Direction: Destination},
		},
		{
			name: "missing source",
			fn: RawFunction{Name: "g", Blocks: []RawBlock{
				{Label: "A"},
				{Label: "B", Sources: []string{"X"}},
			}},
			want: EdgeResolutionError{Function: "g", Block: "B", Label: "X", Direction: Source},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Build(tt.fn, nil)
			if rec != nil {
				t.Errorf("Build returned a record on failure")
			}
			var ere *EdgeResolutionError
			if !errors.As(err, &ere) {
				t.Fatalf("err = %v, want *EdgeResolutionError", err)
			}
			if *ere != tt.want {
				t.Errorf("err = %+v, want %+v", *ere, tt.want)
			}
		})
	}
}

func TestBuildDuplicateLabel(t *testing.T) {
	fn := RawFunction{Name: "f", Blocks: []RawBlock{{Label: "A"}, {Label: "A"}}}
	if _, err := Build(fn, nil); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("err = %v, want ErrDuplicateLabel", err)
	}
}

func TestBuildResult(t *testing.T) {
	ok := BuildResult(diamond(), nil)
	if !ok.Extracted() || ok.Name != "diamond" {
		t.Errorf("BuildResult(diamond) = %+v", ok)
	}
	bad := BuildResult(RawFunction{Name: "bad", Blocks: []RawBlock{{Label: "A", Sources: []string{"nope"}}}}, nil)
	if bad.Extracted() || bad.Err == nil || bad.Name != "bad" {
		t.Errorf("BuildResult(bad) = %+v", bad)
	}
}

func TestValidateDetectsDangling(t *testing.T) {
	rec := &FunctionRecord{Name: "f", Blocks: []BlockNode{{Label: "A", Destinations: []BlockID{3}}}}
	var ere *EdgeResolutionError
	if err := rec.Validate(); !errors.As(err, &ere) || ere.Direction != Destination {
		t.Errorf("Validate = %v, want destination EdgeResolutionError", err)
	}
}

func TestLookup(t *testing.T) {
	rec, err := Build(diamond(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if id, ok := rec.Lookup("exit"); !ok || id != 3 {
		t.Errorf("Lookup(exit) = %d, %v", id, ok)
	}
	if _, ok := rec.Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}

	// Records built by hand get an index on first use.
	manual := &FunctionRecord{Blocks: []BlockNode{{Label: "x"}, {Label: "y"}}}
	if id, ok := manual.Lookup("y"); !ok || id != 1 {
		t.Errorf("manual Lookup(y) = %d, %v", id, ok)
	}
}

func TestMarshalJSON(t *testing.T) {
	fn := RawFunction{
		Name: `we"ird\name`,
		Blocks: []RawBlock{
			{Label: "A", Instructions: []normalize.RawInstruction{op(`MOV EAX,"q"`)}, Destinations: []string{"B"}},
			{Label: "B", Sources: []string{"A"}},
		},
	}
	rec, err := Build(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"name":"we\"ird\\name","blocks":[` +
		`{"label":"A","normalizedInst":["MOV REG, \"q\""],"sourceBlock":[],"destinationBlock":["B"]},` +
		`{"label":"B","normalizedInst":[],"sourceBlock":["A"],"destinationBlock":[]}]}`
	if string(got) != want {
		t.Errorf("json =\n%s\nwant\n%s", got, want)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	orig, err := Build(diamond(), nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}

	var back FunctionRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := pretty.Diff(back.Wire(), orig.Wire()); len(diff) > 0 {
		t.Errorf("decoded record differs:\n%s", diff)
	}

	dangling := `{"name":"f","blocks":[{"label":"A","normalizedInst":[],"sourceBlock":["Q"],"destinationBlock":[]}]}`
	var ere *EdgeResolutionError
	if err := json.Unmarshal([]byte(dangling), &back); !errors.As(err, &ere) {
		t.Errorf("Unmarshal dangling = %v, want EdgeResolutionError", err)
	}
}
