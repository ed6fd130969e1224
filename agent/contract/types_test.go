package contract

import (
	"testing"
	"time"
)

func TestVehicleTag(t *testing.T) {
	t.Parallel()

	bundle := ContextBundle{Profile: VehicleProfile{Make: "Honda", Model: "Civic", Year: 2019}}
	if got := bundle.VehicleTag(); got != "honda civic" {
		t.Fatalf("VehicleTag() = %q, want %q", got, "honda civic")
	}

	unknown := ContextBundle{Profile: UnknownVehicleProfile()}
	if got := unknown.VehicleTag(); got != "" {
		t.Fatalf("VehicleTag() for unknown profile = %q, want empty", got)
	}
}

func TestUnknownVehicleProfileSentinel(t *testing.T) {
	t.Parallel()

	if !UnknownVehicleProfile().IsUnknown() {
		t.Fatal("sentinel profile should report unknown")
	}
	known := VehicleProfile{Make: "Honda", Model: "Civic"}
	if known.IsUnknown() {
		t.Fatal("populated profile should not report unknown")
	}
	if got := UnknownVehicleProfile().Describe(); got != "unknown vehicle" {
		t.Fatalf("Describe() = %q", got)
	}
}

func TestCompletionWantsTool(t *testing.T) {
	t.Parallel()

	if (Completion{Answer: "done"}).WantsTool() {
		t.Fatal("direct answer should not want the tool")
	}
	if !(Completion{ToolQuery: "labor rate"}).WantsTool() {
		t.Fatal("tool query should want the tool")
	}
	if (Completion{ToolQuery: "   "}).WantsTool() {
		t.Fatal("blank tool query should not want the tool")
	}
}

func TestNewMessageTrimsAndStamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	msg := NewMessage("conv-1", RoleUser, "  hello  ", now)
	if msg.Text != "hello" {
		t.Fatalf("text = %q", msg.Text)
	}
	if msg.ID == "" {
		t.Fatal("id is empty")
	}
	if msg.CreatedAt.Location() != time.UTC {
		t.Fatalf("timestamp not UTC: %v", msg.CreatedAt)
	}
}

func TestToolResultIsFallback(t *testing.T) {
	t.Parallel()

	if !(ToolResult{Source: ToolSourceFallback}).IsFallback() {
		t.Fatal("fallback result should report fallback")
	}
	if (ToolResult{Source: ToolSourceLive}).IsFallback() {
		t.Fatal("live result should not report fallback")
	}
}
