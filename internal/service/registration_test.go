package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"group-order-bot/internal/domain"
	"group-order-bot/internal/logger"
	"group-order-bot/internal/session"
)

func newRegistration(p *fakeParticipants, sender *fakeSender) (*Registration, session.Store) {
	lg := logger.New("test")
	sessions := session.NewMemory(0)
	reg := NewRegistration(p, sessions, NewDispatcher(sender, lg), lg)
	reg.newUUID = func() string { return "uuid-fixed" }
	return reg, sessions
}

func TestAdminRegistrationWalk(t *testing.T) {
	ctx := context.Background()
	participants := &fakeParticipants{}
	sender := &fakeSender{}
	reg, sessions := newRegistration(participants, sender)

	const chat = int64(100)

	if err := reg.Start(ctx, chat); err != nil {
		t.Fatalf("start: %v", err)
	}
	if kb := sender.sent[0].kb; kb == nil || len(kb.Inline) != 2 {
		t.Fatalf("expected role choice keyboard, got %+v", sender.sent[0].kb)
	}

	if err := reg.ChooseRole(ctx, chat, "admin"); err != nil {
		t.Fatalf("choose role: %v", err)
	}
	if err := reg.HandleText(ctx, chat, chat, "Alice Admin"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := reg.HandleText(ctx, chat, chat, "+1234567890"); err != nil {
		t.Fatalf("phone: %v", err)
	}
	if got := sender.lastTo(chat); !strings.Contains(got, "company name") {
		t.Fatalf("expected company prompt, got %q", got)
	}
	if err := reg.HandleText(ctx, chat, chat, "Acme Inc"); err != nil {
		t.Fatalf("company: %v", err)
	}

	if len(participants.createdAdmins) != 1 {
		t.Fatalf("expected 1 admin created, got %d", len(participants.createdAdmins))
	}
	admin := participants.createdAdmins[0]
	if admin.Role != domain.RoleAdmin || admin.Name != "Alice Admin" || admin.Phone != "+1234567890" || admin.UUID != "uuid-fixed" {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if _, ok := sessions.Get(chat); ok {
		t.Fatal("session should be cleared after registration")
	}
	final := sender.lastTo(chat)
	if !strings.Contains(final, "uuid-fixed") || !strings.Contains(final, "Acme Inc") {
		t.Fatalf("unexpected final message %q", final)
	}
	last := sender.sent[len(sender.sent)-1]
	if last.kb == nil || len(last.kb.Reply) == 0 {
		t.Fatal("expected the admin menu keyboard with the success message")
	}
}

func TestWorkerRegistrationWithCompanyChoice(t *testing.T) {
	ctx := context.Background()
	participants := &fakeParticipants{
		companies: []domain.Company{{ID: 7, Name: "Acme Inc", AdminID: 1}},
	}
	sender := &fakeSender{}
	reg, sessions := newRegistration(participants, sender)

	const chat = int64(200)

	if err := reg.Start(ctx, chat); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := reg.ChooseRole(ctx, chat, "worker"); err != nil {
		t.Fatalf("choose role: %v", err)
	}
	if got := sender.lastTo(chat); !strings.Contains(got, "Select your company") {
		t.Fatalf("expected company selection, got %q", got)
	}
	if err := reg.ChooseCompany(ctx, chat, "7"); err != nil {
		t.Fatalf("choose company: %v", err)
	}
	if err := reg.HandleText(ctx, chat, chat, "Bob Worker"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := reg.HandleText(ctx, chat, chat, "+49123456"); err != nil {
		t.Fatalf("phone: %v", err)
	}

	if len(participants.createdWorkers) != 1 {
		t.Fatalf("expected 1 worker, got %d", len(participants.createdWorkers))
	}
	w := participants.createdWorkers[0]
	if w.Role != domain.RoleWorker || w.CompanyID == nil || *w.CompanyID != 7 {
		t.Fatalf("unexpected worker %+v", w)
	}
	if _, ok := sessions.Get(chat); ok {
		t.Fatal("session should be cleared")
	}
}

func TestRegistrationEmptyNameReprompts(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	reg, sessions := newRegistration(&fakeParticipants{}, sender)

	const chat = int64(300)
	_ = reg.Start(ctx, chat)
	_ = reg.ChooseRole(ctx, chat, "worker")

	_ = reg.HandleText(ctx, chat, chat, "   ")
	st, _ := sessions.Get(chat)
	if st.Step != session.StepName {
		t.Fatalf("expected to stay on NAME, got %s", st.Step)
	}
	if got := sender.lastTo(chat); !strings.Contains(got, "cannot be empty") {
		t.Fatalf("expected re-prompt, got %q", got)
	}
}

func TestRegistrationPhoneValidation(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	participants := &fakeParticipants{}
	reg, sessions := newRegistration(participants, sender)

	const chat = int64(400)
	_ = reg.Start(ctx, chat)
	_ = reg.ChooseRole(ctx, chat, "worker")
	_ = reg.HandleText(ctx, chat, chat, "Bob")

	for _, bad := range []string{"1234567890", "+", "+12a34", "+12345678901234567890"} {
		_ = reg.HandleText(ctx, chat, chat, bad)
		st, _ := sessions.Get(chat)
		if st.Step != session.StepPhone {
			t.Fatalf("phone %q: expected to stay on PHONE, got %s", bad, st.Step)
		}
	}
	if len(participants.createdWorkers) != 0 {
		t.Fatal("no worker should be created from invalid phones")
	}

	_ = reg.HandleText(ctx, chat, chat, "+123456")
	if len(participants.createdWorkers) != 1 {
		t.Fatal("valid phone should complete registration")
	}
}

func TestRegistrationStoreFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	participants := &fakeParticipants{failWith: errors.New("db down")}
	reg, sessions := newRegistration(participants, sender)

	const chat = int64(500)
	_ = reg.Start(ctx, chat)
	_ = reg.ChooseRole(ctx, chat, "worker")
	_ = reg.HandleText(ctx, chat, chat, "Bob")
	_ = reg.HandleText(ctx, chat, chat, "+123456")

	if got := sender.lastTo(chat); !strings.Contains(got, "try again") {
		t.Fatalf("expected generic failure, got %q", got)
	}
	st, ok := sessions.Get(chat)
	if !ok || st.Step != session.StepPhone || st.Name != "Bob" {
		t.Fatalf("session should be preserved for retry, got %+v ok=%v", st, ok)
	}

	// the same step succeeds once the store recovers
	participants.failWith = nil
	_ = reg.HandleText(ctx, chat, chat, "+123456")
	if len(participants.createdWorkers) != 1 {
		t.Fatal("retry should create the worker")
	}
	if _, ok := sessions.Get(chat); ok {
		t.Fatal("session should be cleared after the successful retry")
	}
}
