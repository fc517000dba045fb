package reactive

import (
	"errors"
	"math"
	"testing"
)

func TestObserveIdempotent(t *testing.T) {
	obj := NewObject(map[string]any{"a": 1})

	first := Observe(obj)
	second := Observe(obj)

	if first == nil || first != second {
		t.Errorf("Observe must return the same wrapper: %p vs %p", first, second)
	}
}

func TestObserveNonContainer(t *testing.T) {
	if Observe(42) != nil {
		t.Error("Observe(int) should be nil")
	}
	if Observe("s") != nil {
		t.Error("Observe(string) should be nil")
	}
	if Observe(nil) != nil {
		t.Error("Observe(nil) should be nil")
	}
}

type opaque struct{}

func (opaque) NonReactive() {}

func TestWrapConversion(t *testing.T) {
	v := Wrap(map[string]any{
		"name":  "x",
		"inner": map[string]any{"n": 1},
		"items": []any{1, 2},
	})

	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", v)
	}
	if _, ok := obj.Get("inner").(*Object); !ok {
		t.Error("nested map not wrapped")
	}
	if _, ok := obj.Get("items").(*List); !ok {
		t.Error("nested slice not wrapped")
	}
	if obj.Get("name") != "x" {
		t.Error("primitive values must pass through unchanged")
	}

	// Excluded and non-container values come back as-is.
	ex := opaque{}
	if Wrap(ex) != ex {
		t.Error("NonReactive value was wrapped")
	}
	if Wrap(7) != 7 {
		t.Error("primitive was wrapped")
	}
}

func TestToggleObserving(t *testing.T) {
	ToggleObserving(false)
	defer ToggleObserving(true)

	if _, ok := Wrap(map[string]any{}).(*Object); ok {
		t.Error("Wrap should be inert while observation is disabled")
	}

	obj := NewObject(nil)
	obj.Set("raw", map[string]any{"n": 1})
	if _, ok := obj.props["raw"].value.(map[string]any); !ok {
		t.Error("value should be stored raw while observation is disabled")
	}
}

func TestSetEqualValueDoesNotNotify(t *testing.T) {
	tick := useManualTick(t)
	obj := NewObject(map[string]any{"n": 1})

	fired := 0
	NewWatcher(func() any { return obj.Get("n") },
		func(_, _ any) { fired++ })

	obj.Set("n", 1)
	tick.tick()

	if fired != 0 {
		t.Errorf("equal write should not notify, fired=%d", fired)
	}
}

func TestNaNOverNaNDoesNotNotify(t *testing.T) {
	tick := useManualTick(t)
	obj := NewObject(map[string]any{"n": math.NaN()})

	fired := 0
	NewWatcher(func() any { return obj.Get("n") },
		func(_, _ any) { fired++ })

	obj.Set("n", math.NaN())
	tick.tick()

	if fired != 0 {
		t.Errorf("NaN over NaN should not notify, fired=%d", fired)
	}

	obj.Set("n", 1.0)
	tick.tick()
	if fired != 1 {
		t.Errorf("NaN to 1.0 should notify, fired=%d", fired)
	}
}

func TestDynamicAddNotifiesContainerLevel(t *testing.T) {
	tick := useManualTick(t)
	obj := NewObject(map[string]any{"a": 1})

	fired := 0
	NewWatcher(func() any { return obj.Len() },
		func(_, _ any) { fired++ })

	SetProperty(obj, "b", 2)
	tick.tick()

	if fired != 1 {
		t.Errorf("dynamic add should notify container-level watchers, fired=%d", fired)
	}
	if obj.Get("b") != 2 {
		t.Errorf("expected b=2, got %v", obj.Get("b"))
	}

	// The fresh property has its own dep now.
	obj.Set("b", 3)
	if obj.Get("b") != 3 {
		t.Errorf("expected b=3, got %v", obj.Get("b"))
	}
}

func TestDeleteNotifiesContainerLevel(t *testing.T) {
	tick := useManualTick(t)
	obj := NewObject(map[string]any{"a": 1, "b": 2})

	fired := 0
	NewWatcher(func() any { return obj.Len() },
		func(_, _ any) { fired++ })

	DeleteProperty(obj, "b")
	tick.tick()

	if fired != 1 {
		t.Errorf("delete should notify container-level watchers, fired=%d", fired)
	}
	if obj.Has("b") {
		t.Error("key b should be gone")
	}

	// Deleting a missing key is silent.
	DeleteProperty(obj, "zzz")
	tick.tick()
	if fired != 1 {
		t.Errorf("missing-key delete should not notify, fired=%d", fired)
	}
}

func TestSetPropertyInvalidTarget(t *testing.T) {
	errs := captureErrors(t)

	SetProperty(42, "k", 1)
	SetProperty(nil, "k", 1)
	DeleteProperty("str", "k")

	if len(*errs) != 3 {
		t.Fatalf("expected 3 usage warnings, got %d", len(*errs))
	}
	for _, err := range *errs {
		if !errors.Is(err, ErrNotContainer) {
			t.Errorf("expected ErrNotContainer, got %v", err)
		}
	}
}

func TestSetPropertyPlainMapFallback(t *testing.T) {
	// Unwrapped containers get plain assignment, no reactivity.
	m := map[string]any{}
	SetProperty(m, "k", 1)
	if m["k"] != 1 {
		t.Error("plain map assignment failed")
	}
	DeleteProperty(m, "k")
	if _, ok := m["k"]; ok {
		t.Error("plain map delete failed")
	}
}

func TestRootBoundObjectRefusesDynamicAdd(t *testing.T) {
	errs := captureErrors(t)
	obj := NewObject(map[string]any{"a": 1})
	obj.observerRef().BindRoot()

	SetProperty(obj, "b", 2)

	if len(*errs) != 1 || !errors.Is((*errs)[0], ErrRootAdd) {
		t.Fatalf("expected ErrRootAdd warning, got %v", *errs)
	}
	if obj.Has("b") {
		t.Error("key must not be added to a root-bound object")
	}

	// Existing keys still write normally.
	obj.Set("a", 5)
	if obj.Get("a") != 5 {
		t.Error("existing-key write on root object failed")
	}

	obj.observerRef().UnbindRoot()
	SetProperty(obj, "b", 2)
	if !obj.Has("b") {
		t.Error("unbound object should accept dynamic adds again")
	}
}

func TestDefineAccessorPair(t *testing.T) {
	tick := useManualTick(t)
	obj := NewObject(nil)

	backing := 1
	obj.DefineAccessor("n",
		func() any { return backing },
		func(v any) { backing = v.(int) })

	fired := 0
	NewWatcher(func() any { return obj.Get("n") },
		func(_, _ any) { fired++ })

	obj.Set("n", 2)
	tick.tick()

	if backing != 2 {
		t.Errorf("setter not delegated, backing=%d", backing)
	}
	if fired != 1 {
		t.Errorf("accessor write should notify, fired=%d", fired)
	}
}

func TestDefineAccessorWrapsContainerWrites(t *testing.T) {
	// Container values written through an accessor key are converted
	// like stored-value writes, so nested mutations stay observable.
	tick := useManualTick(t)
	obj := NewObject(nil)

	var backing any
	obj.DefineAccessor("cfg",
		func() any { return backing },
		func(v any) { backing = v })

	obj.Set("cfg", map[string]any{"n": 1})

	cfg, ok := backing.(*Object)
	if !ok {
		t.Fatalf("container written through accessor was not wrapped: %T", backing)
	}
	if got, ok := obj.Get("cfg").(*Object); !ok || got != cfg {
		t.Fatalf("Get returned %T, want the wrapped object", obj.Get("cfg"))
	}

	fired := 0
	NewWatcher(func() any { return obj.Get("cfg") },
		func(_, _ any) { fired++ }, Deep())

	cfg.Set("n", 2)
	tick.tick()

	if fired != 1 {
		t.Errorf("nested mutation behind accessor not observed, fired=%d", fired)
	}
}

func TestGetterWithoutSetterIsWriteUnobserved(t *testing.T) {
	// A captured getter with no matching setter leaves the key
	// unobserved on writes: Set is dropped without storing or notifying.
	// Documented degraded behavior, kept as-is.
	tick := useManualTick(t)
	obj := NewObject(nil)

	obj.DefineAccessor("n", func() any { return 1 }, nil)

	fired := 0
	NewWatcher(func() any { return obj.Get("n") },
		func(_, _ any) { fired++ })

	obj.Set("n", 99)
	tick.tick()

	if fired != 0 {
		t.Errorf("write to getter-only key should not notify, fired=%d", fired)
	}
	if obj.Get("n") != 1 {
		t.Errorf("getter-only key should keep yielding the getter value, got %v", obj.Get("n"))
	}
}

func TestReplacingNestedContainerContents(t *testing.T) {
	// A watcher reading the outer property observes mutations routed
	// through the nested container's own dep even though the outer
	// reference never changed.
	tick := useManualTick(t)
	obj := NewObject(map[string]any{
		"inner": map[string]any{"n": 1},
	})

	fired := 0
	NewWatcher(func() any { return obj.Get("inner") },
		func(_, _ any) { fired++ })

	inner := obj.Get("inner").(*Object)
	SetProperty(inner, "added", true)
	tick.tick()

	if fired != 1 {
		t.Errorf("nested container-level change should notify outer readers, fired=%d", fired)
	}
}
