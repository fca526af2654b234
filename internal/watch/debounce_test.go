package watch

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDebouncer_CoalescesChanges(t *testing.T) {
	got := make(chan Batch, 4)
	d := NewDebouncer(30*time.Millisecond, func(b Batch) { got <- b })
	defer d.Stop()

	d.AddProject("/lib/2024-03/PRJ-202403-002_b_y")
	d.AddProject("/lib/2024-03/PRJ-202403-001_a_x")
	d.AddProject("/lib/2024-03/PRJ-202403-002_b_y")

	select {
	case b := <-got:
		want := Batch{Projects: []string{"/lib/2024-03/PRJ-202403-001_a_x", "/lib/2024-03/PRJ-202403-002_b_y"}}
		if diff := cmp.Diff(want, b); diff != "" {
			t.Errorf("batch mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}

	select {
	case b := <-got:
		t.Errorf("unexpected second batch %+v", b)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_Full(t *testing.T) {
	got := make(chan Batch, 1)
	d := NewDebouncer(10*time.Millisecond, func(b Batch) { got <- b })
	defer d.Stop()

	d.AddFull()
	select {
	case b := <-got:
		if !b.Full || len(b.Projects) != 0 {
			t.Errorf("batch = %+v, want full only", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	got := make(chan Batch, 1)
	d := NewDebouncer(20*time.Millisecond, func(b Batch) { got <- b })

	d.AddProject("/lib/x")
	d.Stop()
	d.AddProject("/lib/y")

	select {
	case b := <-got:
		t.Errorf("batch delivered after Stop: %+v", b)
	case <-time.After(100 * time.Millisecond):
	}
}
