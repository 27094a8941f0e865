package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSensitiveValuesAreRedacted(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login attempt", "email", "ana@example.com", "password", "S3cret!!", "Token", "abc")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["email"] != "ana@example.com" {
		t.Errorf("email = %v", fields["email"])
	}
	if fields["password"] != "[REDACTED]" {
		t.Errorf("password = %v, want redacted", fields["password"])
	}
	if fields["Token"] != "[REDACTED]" {
		t.Errorf("Token = %v, want redacted", fields["Token"])
	}
}

func TestWithKeepsContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "api")

	log.Warn("request failed", "status", 500)

	fields := logs.All()[0].ContextMap()
	if fields["component"] != "api" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["status"] != int64(500) {
		t.Errorf("status = %v (%T)", fields["status"], fields["status"])
	}
}

func TestOddKeyValueCountIsKept(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
}
