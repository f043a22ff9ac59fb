package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
)

// ════════════════════════════════════════════════════════════
// Dispatch
// ════════════════════════════════════════════════════════════

func TestDispatch_StoresAndPushes(t *testing.T) {
	env := newTestEnv()
	env.repos.user.add("A", "Ann", model.RoleEmployee, "s1", "tok-a")

	res, err := env.notification().Dispatch(context.Background(), &DispatchInput{
		UserID: "A", Title: "Hello", Body: "World", ActionLink: "/x", StoreID: "s1",
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !res.Success || res.NotificationID == "" {
		t.Errorf("result = %+v", res)
	}

	stored := env.repos.notification.forUser("A")
	if len(stored) != 1 {
		t.Fatalf("want 1 stored, got %d", len(stored))
	}
	n := stored[0]
	if n.Type != model.NotificationTypeSystem || n.IsRead {
		t.Errorf("defaults wrong: type=%s read=%v", n.Type, n.IsRead)
	}
	if n.ActionLink == nil || *n.ActionLink != "/x" {
		t.Errorf("ActionLink = %v", n.ActionLink)
	}

	if len(env.sender.one) != 1 {
		t.Fatalf("want 1 push, got %d", len(env.sender.one))
	}
	msg := env.sender.one[0]
	if msg.Token != "tok-a" || msg.Link != "/x" || msg.Data["notificationId"] != res.NotificationID {
		t.Errorf("push message = %+v", msg)
	}
}

func TestDispatch_PushFailureStillSucceeds(t *testing.T) {
	env := newTestEnv()
	env.repos.user.add("A", "Ann", model.RoleEmployee, "s1", "tok-a")
	env.sender.oneErr = errors.New("transport down")

	res, err := env.notification().Dispatch(context.Background(), &DispatchInput{UserID: "A", Title: "Hello"})
	if err != nil || !res.Success {
		t.Fatalf("push failure must not fail Dispatch: res=%+v err=%v", res, err)
	}
	if len(env.repos.notification.forUser("A")) != 1 {
		t.Error("notification should be stored")
	}
}

func TestDispatch_ExpiredTokenCleared(t *testing.T) {
	env := newTestEnv()
	env.repos.user.add("A", "Ann", model.RoleEmployee, "s1", "tok-a")
	env.sender.expired["tok-a"] = true

	if _, err := env.notification().Dispatch(context.Background(), &DispatchInput{UserID: "A", Title: "Hello"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if env.repos.user.users["A"].PushToken != nil {
		t.Error("expired token should be cleared")
	}
}

func TestDispatch_NoTokenNoPush(t *testing.T) {
	env := newTestEnv()
	env.repos.user.add("A", "Ann", model.RoleEmployee, "s1", "")

	if _, err := env.notification().Dispatch(context.Background(), &DispatchInput{UserID: "A", Title: "Hello"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(env.sender.one) != 0 {
		t.Error("no push without a token")
	}
}

func TestDispatch_StorageFailure(t *testing.T) {
	env := newTestEnv()
	env.repos.notification.createErr = gorm.ErrInvalidDB

	res, err := env.notification().Dispatch(context.Background(), &DispatchInput{UserID: "A", Title: "Hello"})
	if !errors.Is(err, ErrNotificationPersist) {
		t.Fatalf("want ErrNotificationPersist, got %v", err)
	}
	if res.Success {
		t.Error("Success must mirror persistence")
	}
	if len(env.sender.one) != 0 {
		t.Error("nothing stored, nothing pushed")
	}
}

func TestDispatch_InvalidInput(t *testing.T) {
	env := newTestEnv()
	svc := env.notification()

	for _, in := range []*DispatchInput{
		{Title: "no user"},
		{UserID: "A"},
		{UserID: "A", Title: "t", Type: "BOGUS"},
	} {
		if _, err := svc.Dispatch(context.Background(), in); !errors.Is(err, ErrInvalidNotification) {
			t.Errorf("%+v: want ErrInvalidNotification, got %v", in, err)
		}
	}
}

// ════════════════════════════════════════════════════════════
// Inbox
// ════════════════════════════════════════════════════════════

func TestInbox_MarkReadScopedToOwner(t *testing.T) {
	env := newTestEnv()
	svc := env.notification()
	ctx := context.Background()

	res, _ := svc.Dispatch(ctx, &DispatchInput{UserID: "A", Title: "one"})
	svc.Dispatch(ctx, &DispatchInput{UserID: "A", Title: "two"})

	if err := svc.MarkRead(ctx, "B", res.NotificationID); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("another user's notification: want NotFound, got %v", err)
	}
	if err := svc.MarkRead(ctx, "A", "not-a-uuid"); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("malformed id: want NotFound, got %v", err)
	}
	if err := svc.MarkRead(ctx, "A", res.NotificationID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	unread, _ := svc.UnreadCount(ctx, "A")
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	list, total, err := svc.ListMine(ctx, "A", &dto.NotificationListRequest{UnreadOnly: true})
	if err != nil || total != 1 || len(list) != 1 || list[0].Title != "two" {
		t.Errorf("unread list = %+v total=%d err=%v", list, total, err)
	}

	n, _ := svc.MarkAllRead(ctx, "A")
	if n != 1 {
		t.Errorf("MarkAllRead = %d, want 1", n)
	}
}

// ════════════════════════════════════════════════════════════
// Event resolver
// ════════════════════════════════════════════════════════════

func TestTrigger_Unmapped(t *testing.T) {
	env := newTestEnv()
	r := env.resolver()

	snap, err := r.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	res, err := r.Trigger(context.Background(), snap, &TriggerInput{EventName: "nobody_mapped_this", UserID: "A"})
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if res.Outcome != OutcomeUnmapped {
		t.Errorf("outcome = %s", res.Outcome)
	}
	if len(env.repos.notification.items) != 0 {
		t.Error("unmapped event stores nothing")
	}
}

func TestTrigger_TemplateMissing(t *testing.T) {
	env := newTestEnv()
	env.repos.mapEvent("evt", "deleted-template")
	r := env.resolver()

	snap, _ := r.LoadSnapshot(context.Background())
	res, err := r.Trigger(context.Background(), snap, &TriggerInput{EventName: "evt", UserID: "A"})
	if err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if res.Outcome != OutcomeTemplateMissing {
		t.Errorf("outcome = %s", res.Outcome)
	}
}

func TestTrigger_SuccessRendersAndMemoizes(t *testing.T) {
	env := newTestEnv()
	env.repos.template.add("tpl", "Hi {name}", "Shift {shiftId} on {date}; {unknown}")
	env.repos.mapEvent("evt", "tpl")
	r := env.resolver()

	snap, _ := r.LoadSnapshot(context.Background())
	for _, uid := range []string{"A", "B"} {
		res, err := r.Trigger(context.Background(), snap, &TriggerInput{
			EventName: "evt",
			UserID:    uid,
			Data:      map[string]any{"name": uid, "shiftId": "am", "date": "2026-10-20"},
		})
		if err != nil || res.Outcome != OutcomeSuccess || res.NotificationID == "" {
			t.Fatalf("Trigger(%s) = %+v, %v", uid, res, err)
		}
	}

	n := env.repos.notification.forUser("B")
	if len(n) != 1 || n[0].Title != "Hi B" || n[0].Body != "Shift am on 2026-10-20; " {
		t.Errorf("rendered = %+v", n)
	}
	if env.repos.template.gets != 1 {
		t.Errorf("template read %d times in one snapshot, want 1", env.repos.template.gets)
	}
}

func TestTrigger_DeliveryError(t *testing.T) {
	env := newTestEnv()
	env.repos.template.add("tpl", "Hi", "Body")
	env.repos.mapEvent("evt", "tpl")
	env.repos.notification.createErr = gorm.ErrInvalidDB
	r := env.resolver()

	snap, _ := r.LoadSnapshot(context.Background())
	res, err := r.Trigger(context.Background(), snap, &TriggerInput{EventName: "evt", UserID: "A"})
	if err != nil {
		t.Fatalf("Trigger should report the outcome, not an error: %v", err)
	}
	if res.Outcome != OutcomeDeliveryError {
		t.Errorf("outcome = %s", res.Outcome)
	}
}

func TestNotifyUser_FallbackOnMissingTemplate(t *testing.T) {
	env := newTestEnv()
	env.repos.mapEvent("evt", "gone")
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	r := NewEventResolver(env.repos.toRepository(), env.notification(), logger)
	snap, _ := r.LoadSnapshot(context.Background())
	notifyUser(context.Background(), r, env.notification(), snap,
		&TriggerInput{EventName: "evt", UserID: "A"},
		&DispatchInput{UserID: "A", Title: "Fallback"},
		logger,
	)

	if got := titles(env.repos.notification.forUser("A")); len(got) != 1 || got[0] != "Fallback" {
		t.Errorf("want the fallback message, got %v", got)
	}
	if logs.FilterMessage("event template missing, using fallback message").Len() != 1 {
		t.Error("missing template should be logged as a warning")
	}
}
