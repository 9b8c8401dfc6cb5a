package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsDropsBlankEntries(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  " + FieldRequirementID + " ", Value: " req-1 "},
		StringField{Key: FieldSessionID, Value: "   "},
		StringField{Key: "   ", Value: "orphan"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != FieldRequirementID || fields[0].String != "req-1" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
	if len(StringFields()) != 0 {
		t.Fatal("expected no fields")
	}
}

func TestFieldHelpers(t *testing.T) {
	cases := []struct {
		name   string
		fields []zap.Field
		want   map[string]string
	}{
		{
			name:   "judge",
			fields: CommonFields("  gemini  ", "gemini-2.5-pro"),
			want:   map[string]string{FieldProvider: "gemini", FieldModel: "gemini-2.5-pro"},
		},
		{
			name:   "candidate",
			fields: CandidateFields("c-1", "  Ada Lovelace "),
			want:   map[string]string{FieldCandidateID: "c-1", FieldCandidateName: "Ada Lovelace"},
		},
		{
			name:   "unnamed candidate",
			fields: CandidateFields("c-2", ""),
			want:   map[string]string{FieldCandidateID: "c-2"},
		},
		{
			name:   "empty judge",
			fields: CommonFields("", ""),
			want:   map[string]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if len(tc.fields) != len(tc.want) {
				t.Fatalf("expected %d fields, got %d", len(tc.want), len(tc.fields))
			}
			for _, f := range tc.fields {
				if tc.want[f.Key] != f.String {
					t.Fatalf("field %s = %q, want %q", f.Key, f.String, tc.want[f.Key])
				}
			}
		})
	}
}

func TestLoggerEnrichment(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithCommonFields(base, "gemini", "model-x").Info("judge call")
	WithCandidate(base, "c-9", "Grace").Info("candidate assessed")
	WithFields(base, zap.String(FieldSessionID, "s-1")).Info("session saved")

	entries := observed.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx[FieldProvider] != "gemini" || ctx[FieldModel] != "model-x" {
		t.Fatalf("unexpected judge fields: %+v", ctx)
	}
	if ctx := entries[1].ContextMap(); ctx[FieldCandidateID] != "c-9" || ctx[FieldCandidateName] != "Grace" {
		t.Fatalf("unexpected candidate fields: %+v", ctx)
	}
	if ctx := entries[2].ContextMap(); ctx[FieldSessionID] != "s-1" {
		t.Fatalf("unexpected session fields: %+v", ctx)
	}
}

func TestNilLoggerFallback(t *testing.T) {
	for name, l := range map[string]*zap.Logger{
		"fields":    WithFields(nil, zap.String("k", "v")),
		"common":    WithCommonFields(nil, "gemini", "m"),
		"candidate": WithCandidate(nil, "c-1", "Ada"),
	} {
		if l == nil {
			t.Fatalf("%s: expected a fallback logger", name)
		}
		l.Info("does not panic")
	}
}

func TestNew(t *testing.T) {
	for _, json := range []bool{false, true} {
		l, err := New(Options{JSON: json, Debug: true, Version: "1.2.3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatal("expected debug level to be enabled")
		}
	}

	l, err := New(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be disabled")
	}
}
