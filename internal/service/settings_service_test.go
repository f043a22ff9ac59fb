package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/regwindow"
	apperrors "shiftboard/pkg/errors"
)

// Monday 08:00 → Wednesday 20:00, UTC+7
var weekdayWindow = regwindow.Schedule{
	Enabled: true,
	OpenDay: 1, OpenHour: 8,
	CloseDay: 3, CloseHour: 20,
}

// Tuesday 2026-10-20 10:00 UTC+7
var tuesdayMorning = time.Date(2026, 10, 20, 10, 0, 0, 0, regwindow.Zone)

func (e *testEnv) settingsAt(now time.Time) SettingsService {
	svc := NewSettingsService(e.repos.toRepository(), e.runner, e.logger)
	svc.(*settingsService).now = func() time.Time { return now }
	return svc
}

func seedGlobal(repos *testRepos, open bool, w regwindow.Schedule) {
	row := &model.Settings{
		ScopeID:          model.GlobalScope,
		RegistrationOpen: open,
		EventMappings:    datatypes.NewJSONType(map[string]string{}),
	}
	row.SetWindow(w)
	repos.settings.rows[model.GlobalScope] = row
}

func TestSettingsGet_ReconcilesStaleFlag(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, false, weekdayWindow)

	resp, err := env.settingsAt(tuesdayMorning).Get(context.Background(), "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !resp.RegistrationOpen {
		t.Error("window is open on Tuesday morning")
	}
	if resp.NextTransition == nil {
		t.Error("an enabled window reports its next transition")
	}
	if len(env.repos.settings.flagWrites) != 1 || !env.repos.settings.flagWrites[0] {
		t.Errorf("stale flag should be corrected, writes = %v", env.repos.settings.flagWrites)
	}
	if len(env.runner.names) != 1 || env.runner.names[0] != "settings.reconcile" {
		t.Errorf("correction should run in the background, runner saw %v", env.runner.names)
	}
}

func TestSettingsGet_FreshFlagNotRewritten(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, true, weekdayWindow)

	if _, err := env.settingsAt(tuesdayMorning).Get(context.Background(), ""); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(env.repos.settings.flagWrites) != 0 {
		t.Error("no write when the stored flag already matches")
	}
}

func TestSettingsGet_ClosedOutsideWindow(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, true, weekdayWindow)
	friday := time.Date(2026, 10, 23, 10, 0, 0, 0, regwindow.Zone)

	open, err := env.settingsAt(friday).RegistrationOpen(context.Background(), "s1")
	if err != nil {
		t.Fatalf("RegistrationOpen failed: %v", err)
	}
	if open {
		t.Error("window is closed on Friday")
	}
}

func TestSettingsGet_DisabledWindowUsesManualFlag(t *testing.T) {
	env := newTestEnv()
	disabled := weekdayWindow
	disabled.Enabled = false
	seedGlobal(env.repos, false, disabled)

	resp, _ := env.settingsAt(tuesdayMorning).Get(context.Background(), "")
	if resp.RegistrationOpen {
		t.Error("a disabled window leaves the manual flag in charge")
	}
	if resp.NextTransition != nil {
		t.Error("no transition without an enabled window")
	}
	if len(env.runner.names) != 0 {
		t.Error("nothing to reconcile")
	}
}

func TestSettingsGet_StoreInheritsGlobal(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, true, regwindow.Schedule{})

	resp, err := env.settingsAt(tuesdayMorning).Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.ScopeID != model.GlobalScope || !resp.RegistrationOpen {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSettingsGet_NoRows(t *testing.T) {
	env := newTestEnv()
	if _, err := env.settingsAt(tuesdayMorning).Get(context.Background(), ""); !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("want ErrSettingsNotFound, got %v", err)
	}
}

func TestSettingsUpdate_StoreOverrideStartsFromGlobal(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, false, weekdayWindow)
	open := true

	resp, err := env.settingsAt(tuesdayMorning).Update(context.Background(), "s1",
		&dto.UpdateSettingsRequest{RegistrationOpen: &open}, storeManager)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.ScopeID != "s1" || !resp.Window.Enabled {
		t.Errorf("store row should copy the global window, got %+v", resp)
	}
	row := env.repos.settings.rows["s1"]
	if row == nil || row.UpdatedBy == nil || *row.UpdatedBy != "mgr-1" {
		t.Fatalf("stored row = %+v", row)
	}
	if !row.RegistrationOpen {
		t.Error("an enabled window sets the flag from the clock")
	}
}

func TestSettingsUpdate_Authorization(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, false, regwindow.Schedule{})
	svc := env.settingsAt(tuesdayMorning)

	if _, err := svc.Update(context.Background(), "", &dto.UpdateSettingsRequest{}, storeManager); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("a store manager cannot edit global settings, got %v", err)
	}
	if _, err := svc.Update(context.Background(), "s2", &dto.UpdateSettingsRequest{}, storeManager); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("a store manager cannot edit another store, got %v", err)
	}
}

func TestSettingsUpdate_InvalidWindow(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, false, regwindow.Schedule{})
	bad := regwindow.Schedule{Enabled: true, OpenDay: 7}

	_, err := env.settingsAt(tuesdayMorning).Update(context.Background(), "",
		&dto.UpdateSettingsRequest{Window: &bad}, Caller{UserID: "root", Role: model.RoleAdmin})
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("want ErrInvalidWindow, got %v", err)
	}
}

func TestUpdateEventMappings(t *testing.T) {
	env := newTestEnv()
	seedGlobal(env.repos, false, regwindow.Schedule{})
	env.repos.template.add("tpl", "Hi", "Body")
	admin := Caller{UserID: "root", Role: model.RoleAdmin}
	svc := env.settingsAt(tuesdayMorning)

	_, err := svc.UpdateEventMappings(context.Background(),
		&dto.UpdateEventMappingsRequest{Mappings: map[string]string{EventSchedulePublished: "missing"}}, admin)
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("want ErrUnknownTemplate, got %v", err)
	}

	got, err := svc.UpdateEventMappings(context.Background(),
		&dto.UpdateEventMappingsRequest{Mappings: map[string]string{EventSchedulePublished: "tpl"}}, admin)
	if err != nil {
		t.Fatalf("UpdateEventMappings failed: %v", err)
	}
	if got[EventSchedulePublished] != "tpl" {
		t.Errorf("mappings = %v", got)
	}

	if _, err := svc.UpdateEventMappings(context.Background(), &dto.UpdateEventMappingsRequest{}, storeManager); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("want ErrForbidden, got %v", err)
	}
}
