package service

import (
	"testing"

	"trackmate/internal/cache"
	"trackmate/internal/core/model"
	"trackmate/internal/protocol/locator"
)

func newCommandFixture() (*pollingFixture, CommandService) {
	f := newPollingFixture()
	fixes := NewFixService(f.fixes, cache.New(""))
	return f, NewCommandService(f.svc, f.sender, fixes, "user-1")
}

func TestSendLocateStartsPolling(t *testing.T) {
	f, cmd := newCommandFixture()

	if err := cmd.Send(testNumber, "locate"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if f.sender.count() != 1 || f.sender.sent[0].body != locator.CmdRequestLocation {
		t.Fatalf("expected a location request, got %+v", f.sender.sent)
	}
	if session := f.session(t); session.State != model.SessionAwaitingResponse {
		t.Errorf("state = %s, want %s", session.State, model.SessionAwaitingResponse)
	}
}

func TestSendFireAndForgetCommands(t *testing.T) {
	f, cmd := newCommandFixture()

	for action, text := range map[string]string{
		"call":    locator.CmdCallBack,
		"restart": locator.CmdRestart,
		"bind":    locator.CmdBind,
	} {
		if err := cmd.Send(testNumber, action); err != nil {
			t.Fatalf("Send(%s): %v", action, err)
		}
		last := f.sender.sent[len(f.sender.sent)-1]
		if last.body != text {
			t.Errorf("Send(%s) sent %q, want %q", action, last.body, text)
		}
	}

	// None of these should have started a polling session.
	session, err := f.svc.Session(testNumber)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	if session != nil && session.State == model.SessionAwaitingResponse {
		t.Error("fire-and-forget command started a polling session")
	}
}

func TestSendClearMemoryPurgesHistory(t *testing.T) {
	f, cmd := newCommandFixture()
	if err := f.fixes.Create(model.NewFix("user-1", 41.99, 21.42, 50)); err != nil {
		t.Fatalf("seed fix: %v", err)
	}

	if err := cmd.Send(testNumber, "clear-memory"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if f.sender.sent[0].body != locator.CmdClearMemory {
		t.Errorf("sent %q, want %q", f.sender.sent[0].body, locator.CmdClearMemory)
	}
	fix, _ := f.fixes.FindLatestByUserID("user-1")
	if fix != nil {
		t.Errorf("history not purged, latest fix %+v", fix)
	}
}

func TestSendRejectsUnknownAction(t *testing.T) {
	_, cmd := newCommandFixture()
	if err := cmd.Send(testNumber, "self-destruct"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestSendRejectsEmptyNumber(t *testing.T) {
	_, cmd := newCommandFixture()
	if err := cmd.Send("", "call"); err == nil {
		t.Fatal("expected error for empty locator number")
	}
}
