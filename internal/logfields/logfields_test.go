package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"PageID", KeyPageID, "abc", PageID("abc")},
		{"Title", KeyTitle, "Home", Title("Home")},
		{"State", KeyState, "ready", State("ready")},
		{"Reason", KeyReason, "missing", Reason("missing")},
		{"URL", KeyURL, "https://example.com", URL("https://example.com")},
		{"Path", KeyPath, "/x", Path("/x")},
		{"Cache", KeyCache, "hit", Cache("hit")},
		{"TweetID", KeyTweetID, "123", TweetID("123")},
		{"Addr", KeyAddr, ":3000", Addr(":3000")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if got := Count(3).Value.Int64(); got != 3 {
		t.Fatalf("Count: got %d", got)
	}
	if got := DurationMS(1.5).Value.Float64(); got != 1.5 {
		t.Fatalf("DurationMS: got %v", got)
	}
}
