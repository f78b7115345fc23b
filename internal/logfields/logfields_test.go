package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"URI", KeyURI, "file:///a.md", URI("file:///a.md")},
		{"Href", KeyHref, "./b.md#x", Href("./b.md#x")},
		{"Method", KeyMethod, "textDocument/rename", Method("textDocument/rename")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Cache", KeyCache, "links", Cache("links")},
		{"Position", KeyPosition, "3:7", Position(3, 7)},
		{"Result", KeyResult, "canceled", Result("canceled")},
		{"Service", KeyService, "watcher", Service("watcher")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Version(4); v.Key != KeyVersion || v.Value.Int64() != 4 {
		t.Fatalf("Version mismatch: %v", v)
	}
	if v := LinkCount(12); v.Key != KeyLinkCount {
		t.Fatalf("LinkCount key mismatch: %s", v.Key)
	}
	if v := Count(2); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
