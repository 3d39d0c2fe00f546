package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter_TextMode(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   1,
		UnitID: "unit-a",
		Msg:    MsgUnitInvoke,
	})

	out := buf.String()
	if !strings.HasPrefix(out, "["+MsgUnitInvoke+"]") {
		t.Errorf("output = %q, want [%s] prefix", out, MsgUnitInvoke)
	}
	for _, want := range []string{"runID=run-001", "step=1", "unitID=unit-a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogEmitter_TextModeWithMeta(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, false)

	emitter.Emit(Event{
		RunID: "run-001",
		Step:  2,
		Msg:   MsgStepEnd,
		Meta:  map[string]interface{}{"rows": 4},
	})

	out := buf.String()
	if !strings.Contains(out, `meta={"rows":4}`) {
		t.Errorf("output %q missing meta", out)
	}
}

func TestLogEmitter_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   3,
		UnitID: "unit-b",
		Msg:    MsgLeafStash,
	})

	var decoded struct {
		RunID  string `json:"runID"`
		Step   int    `json:"step"`
		UnitID string `json:"unitID"`
		Msg    string `json:"msg"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-001" || decoded.Step != 3 || decoded.UnitID != "unit-b" || decoded.Msg != MsgLeafStash {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestLogEmitter_EmitBatch(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(&buf, true)

	events := []Event{
		{RunID: "r", Step: 1, Msg: MsgStepStart},
		{RunID: "r", Step: 1, Msg: MsgStepEnd},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("batch wrote %d lines, want 2", len(lines))
	}
}

func TestLogEmitter_NilWriterDefaultsToStdout(t *testing.T) {
	emitter := NewLogEmitter(nil, false)
	if emitter.writer == nil {
		t.Errorf("nil writer should default to stdout")
	}
}

func TestLogEmitter_Flush(t *testing.T) {
	emitter := NewLogEmitter(&bytes.Buffer{}, false)
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush error: %v", err)
	}
}

func TestNullEmitter(t *testing.T) {
	emitter := NewNullEmitter()
	emitter.Emit(Event{RunID: "r", Msg: MsgStepStart})
	if err := emitter.EmitBatch(context.Background(), []Event{{RunID: "r"}}); err != nil {
		t.Errorf("EmitBatch error: %v", err)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush error: %v", err)
	}
}
