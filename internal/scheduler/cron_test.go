package scheduler

import (
	"testing"
	"time"

	"github.com/shaiso/Tabula/internal/domain"
)

func TestCalculateNextDue_Cron(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 9 * * *", // ежедневно в 09:00
		Timezone: "UTC",
	}
	from := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_CronRespectsTimezone(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 9 * * *",
		Timezone: "Europe/Moscow", // UTC+3
	}
	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 09:00 по Москве = 06:00 UTC
	want := time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_Interval(t *testing.T) {
	sched := &domain.Schedule{
		IntervalSec: 300,
		Timezone:    "UTC",
	}
	from := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.Equal(from.Add(5 * time.Minute)) {
		t.Errorf("next = %v, want from+5m", next)
	}
}

func TestCalculateNextDue_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	sched := &domain.Schedule{
		CronExpr: "0 9 * * *",
		Timezone: "Mars/Olympus",
	}
	from := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_NeitherCronNorInterval(t *testing.T) {
	if _, err := CalculateNextDue(&domain.Schedule{Timezone: "UTC"}, time.Now()); err == nil {
		t.Error("expected error for schedule without timing")
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("*/5 * * * *"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateCronExpr("not a cron"); err == nil {
		t.Error("expected error for invalid expression")
	}
}
