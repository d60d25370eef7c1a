package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", CompFlow)
	LogEvent(ctx, log, slog.LevelInfo, "flow.step",
		slog.String("status", "ok"),
		slog.String("state", "trip.start_odometer"),
	)

	line := drain(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=fuel.flow", "event=flow.step", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "state=trip.start_odometer"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(handler).With("component", CompStore)
	LogEvent(ctx, log, slog.LevelError, "trip.append",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := drain(t, aw, buf)
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"fuel.store"`, `"event":"trip.append"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	cases := []struct {
		name    string
		format  logFormat
		rid     string
		want    string
		wantAll bool
	}{
		{name: "kv", format: formatKV, rid: "123:456:789", want: "rid=" + CompactRID("123:456:789")},
		{name: "json", format: formatJSON, rid: "12:34:56", want: `"rid":"` + CompactRID("12:34:56") + `"`, wantAll: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler, aw := newTestHandler(buf, tc.format)
			ctx := WithRID(Background(), tc.rid)
			LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test", slog.String("status", "ok"))

			line := drain(t, aw, buf)
			if !strings.Contains(line, tc.want) {
				t.Fatalf("expected %s in %s", tc.want, line)
			}
			hasFull := strings.Contains(line, "rid_full")
			if hasFull != tc.wantAll {
				t.Fatalf("rid_full present=%v, want %v: %s", hasFull, tc.wantAll, line)
			}
		})
	}
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	slog.New(handler).Info("menu.list", "outcome", "weird", "trips", 3)

	line := drain(t, aw, buf)
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unexpected outcome in %s", line)
	}
	if !strings.Contains(line, "event=menu.list") || !strings.Contains(line, "trips=3") {
		t.Fatalf("unexpected line %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("35:36:37"); got != "z.10.11" {
		t.Fatalf("CompactRID = %s", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID changed malformed rid: %s", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var passed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Fatalf("passed = %d, want 3", passed)
	}
	if num, den := parseRatio("10"); num != 1 || den != 10 {
		t.Fatalf("parseRatio(10) = %d/%d", num, den)
	}
	if num, den := parseRatio("2/5"); num != 2 || den != 5 {
		t.Fatalf("parseRatio(2/5) = %d/%d", num, den)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("ab\x00cdef", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
