package judge

import (
	"testing"

	"github.com/deepscout/deepscout/internal/errors"
	"github.com/google/go-cmp/cmp"
)

func TestExtractDirectJSON(t *testing.T) {
	got, err := Extract(`{"confidence": 0.8, "passed": true}`)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if Float(got, "confidence", 0) != 0.8 {
		t.Errorf("confidence = %v, want 0.8", got["confidence"])
	}
	if !Bool(got, "passed", false) {
		t.Error("passed = false, want true")
	}
}

func TestExtractFencedBlock(t *testing.T) {
	raw := "Here is my assessment:\n```json\n{\"level\": \"high\"}\n```\nDone."
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if String(got, "level", "") != "high" {
		t.Errorf("level = %v, want high", got["level"])
	}
}

func TestExtractEmbeddedObject(t *testing.T) {
	raw := `The result is {"sources": ["a", "b"], "note": "brace } in { string"} as requested.`
	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, Strings(got, "sources")); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFailureIsTyped(t *testing.T) {
	_, err := Extract("no structure here at all")
	if err == nil {
		t.Fatal("Extract() should fail on unstructured text")
	}
	var extractErr *errors.ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("error is %T, want *errors.ExtractionError", err)
	}
	if extractErr.Raw != "no structure here at all" {
		t.Errorf("Raw = %q, raw response not retained", extractErr.Raw)
	}
}

func TestFieldAccessorsDefaults(t *testing.T) {
	m := map[string]any{}
	if got := String(m, "missing", "fallback"); got != "fallback" {
		t.Errorf("String default = %q", got)
	}
	if got := Float(m, "missing", 0.3); got != 0.3 {
		t.Errorf("Float default = %v", got)
	}
	if got := Bool(m, "missing", true); got != true {
		t.Errorf("Bool default = %v", got)
	}
	if got := Strings(m, "missing"); len(got) != 0 {
		t.Errorf("Strings default = %v, want empty", got)
	}
}

func TestObjects(t *testing.T) {
	got, err := Extract(`{"key_findings": [{"finding": "f1", "source": "s1"}, {"finding": "f2"}]}`)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	objs := Objects(got, "key_findings")
	if len(objs) != 2 {
		t.Fatalf("Objects() returned %d entries, want 2", len(objs))
	}
	if String(objs[0], "finding", "") != "f1" || String(objs[0], "source", "") != "s1" {
		t.Errorf("first object = %v", objs[0])
	}
}
