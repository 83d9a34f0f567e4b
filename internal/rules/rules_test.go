// ABOUTME: Tests for progression tables and weekday lookups.
// ABOUTME: Verifies schemes, deload adjustments and lift code mapping.
package rules

import "testing"

func TestWeekScheme(t *testing.T) {
	tests := []struct {
		week  int
		sets  int
		reps  int
		pct   float64
		amrap bool
	}{
		{1, 4, 8, 70.0, true},
		{2, 5, 5, 77.5, true},
		{3, 5, 3, 85.0, true},
		{4, 3, 5, 60.0, false},
		{9, 3, 5, 60.0, false},
	}

	for _, tt := range tests {
		s := WeekScheme(tt.week)
		if s.Sets != tt.sets || s.Reps != tt.reps || s.Percent1RM != tt.pct || s.AMRAP != tt.amrap {
			t.Errorf("WeekScheme(%d) = %+v", tt.week, s)
		}
	}
}

func TestAccessorySchemeDeload(t *testing.T) {
	for week := 1; week <= 3; week++ {
		if got := Assistance1.SetsFor(week); got != 3 {
			t.Errorf("Assistance1.SetsFor(%d) = %d, want 3", week, got)
		}
	}
	if got := Assistance1.SetsFor(4); got != 2 {
		t.Errorf("Assistance1.SetsFor(4) = %d, want 2", got)
	}
	if got := Core.SetsFor(4); got != 2 {
		t.Errorf("Core.SetsFor(4) = %d, want 2", got)
	}
}

func TestAccessorySchemeReps(t *testing.T) {
	if got := Assistance1.Reps(1); got != 12 {
		t.Errorf("Assistance1.Reps(1) = %d, want 12", got)
	}
	if got := Assistance1.Reps(2); got != 10 {
		t.Errorf("Assistance1.Reps(2) = %d, want 10", got)
	}
}

func TestMainLiftForDay(t *testing.T) {
	want := map[int]int{1: BenchID, 2: SquatID, 4: OHPID, 5: DeadliftID}
	for dow := 1; dow <= 7; dow++ {
		id, ok := MainLiftForDay(dow)
		w, expected := want[dow]
		if ok != expected || id != w {
			t.Errorf("MainLiftForDay(%d) = %d, %v", dow, id, ok)
		}
	}
}

func TestLiftCodeRoundTrip(t *testing.T) {
	for _, id := range MainLiftIDs() {
		code, ok := LiftCode(id)
		if !ok {
			t.Fatalf("LiftCode(%d) missing", id)
		}
		back, ok := LiftID(code)
		if !ok || back != id {
			t.Errorf("LiftID(%q) = %d, want %d", code, back, id)
		}
	}
	if _, ok := LiftCode(CardioID); ok {
		t.Error("cardio should not have a lift code")
	}
}

func TestSlots(t *testing.T) {
	for _, dow := range LiftingDays {
		if _, ok := WeightSlot(dow); !ok {
			t.Errorf("WeightSlot(%d) missing", dow)
		}
	}
	if _, ok := WeightSlot(3); ok {
		t.Error("Wednesday should have no weights slot")
	}
	if _, ok := CardioTime(6); ok {
		t.Error("Saturday should have no cardio")
	}
}

func TestDefaultPoolsAreCopies(t *testing.T) {
	a := DefaultPools()
	a.Assistance[BenchID][0] = -1
	b := DefaultPools()
	if b.Assistance[BenchID][0] == -1 {
		t.Error("DefaultPools should return a fresh copy")
	}
	for _, id := range MainLiftIDs() {
		if len(b.AssistanceFor(id)) < 2 {
			t.Errorf("pool for %d has fewer than 2 members", id)
		}
	}
}
