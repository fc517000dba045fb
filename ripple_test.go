package ripple

import (
	"testing"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// =============================================================================
// Re-export identity
// =============================================================================

func TestContainerTypesAreReactiveTypes(t *testing.T) {
	// These assignments only compile if the aliases point at the real
	// types.
	var obj *Object = reactive.NewObject(map[string]any{"n": 1})
	var list *List = reactive.NewList([]any{1, 2})
	var w *Watcher

	_ = obj
	_ = list
	_ = w

	if Observe(obj) == nil {
		t.Error("expected Observe to see a reactive object")
	}
	if Observe(list) == nil {
		t.Error("expected Observe to see a reactive list")
	}
}

// =============================================================================
// End-to-end through the facade
// =============================================================================

func TestFacadeWatchCycle(t *testing.T) {
	state := NewObject(map[string]any{
		"count": 0,
		"items": []any{1, 2},
	})

	var got []any
	w := NewWatcher(func() any {
		return state.Get("count")
	}, func(newVal, _ any) {
		got = append(got, newVal)
	})
	defer w.Teardown()

	state.Set("count", 1)
	state.Set("count", 2)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("callback values = %v, want [1 2]", got)
	}

	// Nested slices come back as reactive lists.
	items, ok := state.Get("items").(*List)
	if !ok {
		t.Fatalf("items is %T, want *List", state.Get("items"))
	}
	if items.Len() != 2 {
		t.Errorf("items.Len()=%d, want 2", items.Len())
	}
}

func TestFacadeDeepWatchAndSetProperty(t *testing.T) {
	state := NewObject(map[string]any{
		"user": map[string]any{"name": "ada"},
	})

	runs := 0
	w := NewWatcher(func() any {
		return state.Get("user")
	}, func(_, _ any) {
		runs++
	}, Deep())
	defer w.Teardown()

	user := state.Get("user").(*Object)
	SetProperty(user, "name", "grace")

	if runs != 1 {
		t.Errorf("deep watcher ran %d times, want 1", runs)
	}

	DeleteProperty(user, "name")
	if runs != 2 {
		t.Errorf("deep watcher ran %d times after delete, want 2", runs)
	}
}

func TestFacadeUntracked(t *testing.T) {
	state := NewObject(map[string]any{"a": 1, "b": 2})

	runs := 0
	w := NewWatcher(func() any {
		var b any
		Untracked(func() {
			b = state.Get("b")
		})
		return []any{state.Get("a"), b}
	}, func(_, _ any) {
		runs++
	})
	defer w.Teardown()

	state.Set("b", 3)
	if runs != 0 {
		t.Error("untracked read must not subscribe")
	}
	state.Set("a", 2)
	if runs != 1 {
		t.Errorf("tracked read should fire, runs=%d", runs)
	}
}
