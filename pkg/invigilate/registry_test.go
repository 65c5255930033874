package invigilate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nimburion/invigilate/pkg/loggers"
	"github.com/nimburion/invigilate/pkg/observability/logger"
)

// chain builds n unit ids where every unit is the parent of the next one.
func chain(prefix string, n int) ([]ID, ParentFunc) {
	ids := make([]ID, n)
	parents := ParentMap{}
	for i := range ids {
		ids[i] = ID(fmt.Sprintf("%s%d", prefix, i))
		if i > 0 {
			parents[ids[i]] = ids[i-1]
		}
	}
	return ids, parents.Parent
}

func mustRegister(t *testing.T, r *Registry, id ID, parents ParentFunc) *Context {
	t.Helper()
	c, err := r.Register(id, parents)
	if err != nil {
		t.Fatalf("Register(%q) error = %v", id, err)
	}
	return c
}

func TestNew(t *testing.T) {
	r := New()

	if r.MaxDepth() != DefaultMaxDepth {
		t.Errorf("MaxDepth() = %d, want %d", r.MaxDepth(), DefaultMaxDepth)
	}
	if r.Len() != 0 || len(r.Keys()) != 0 {
		t.Error("new registry should be empty")
	}
	if r.Loggers() == nil || r.Loggers().Default() != r.Loggers().Silent() {
		t.Error("new registry should start with the silent logger as default")
	}
}

func TestRegistry_RegisterRoot(t *testing.T) {
	r := New()
	c := mustRegister(t, r, "root", nil)

	if c.ID() != "root" {
		t.Errorf("ID() = %q", c.ID())
	}
	if _, ok := c.Parent(); ok {
		t.Error("root should not have a parent")
	}
	if len(c.Children()) != 0 {
		t.Error("root should have no children")
	}
	if c.Logger() != r.Loggers().Default() {
		t.Error("root should initially use the default logger")
	}
	if _, ok := c.Override(); ok {
		t.Error("root should not hold an override")
	}
}

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	r := New()
	parents := ParentMap{"child": "root"}.Parent

	root := mustRegister(t, r, "root", nil)
	first := mustRegister(t, r, "child", parents)
	second := mustRegister(t, r, "child", parents)

	if first != second {
		t.Fatal("registering the same id twice should return the same context")
	}
	if first.Proxy() != second.Proxy() {
		t.Fatal("the proxy should be the same as well")
	}
	if got := root.Children(); len(got) != 1 || got[0] != "child" {
		t.Fatalf("root children = %v, want [child]", got)
	}
}

func TestRegistry_RegisterExistingHasNoSideEffects(t *testing.T) {
	r := New()
	l := loggers.New("custom", nil)

	root := mustRegister(t, r, "root", nil)
	child := mustRegister(t, r, "child", ParentMap{"child": "root"}.Parent)
	child.SetLogger(l)

	again := mustRegister(t, r, "child", ParentMap{"child": "other"}.Parent)
	if again.Logger() != l {
		t.Error("re-registration must not touch the logger")
	}
	if parent, _ := again.Parent(); parent != root.ID() {
		t.Errorf("re-registration must not re-link, parent = %q", parent)
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	r := New()

	c, err := r.Register("", nil)
	if !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("Register(\"\") error = %v, want ErrInvalidUnit", err)
	}
	if c != nil || r.Len() != 0 {
		t.Fatal("no context should be created for an invalid unit")
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustRegister(\"\") should panic")
		}
	}()
	New().MustRegister("", nil)
}

func TestRegistry_BoundedLookup(t *testing.T) {
	t.Run("descendant within max depth links to root", func(t *testing.T) {
		r := New(WithMaxDepth(20))
		ids, parents := chain("mods", 21)

		root := mustRegister(t, r, ids[0], parents)
		child := mustRegister(t, r, ids[19], parents)

		if parent, ok := child.Parent(); !ok || parent != root.ID() {
			t.Fatalf("unit[19] parent = %q, %v; want %q", parent, ok, root.ID())
		}
		if got := root.Children(); len(got) != 1 || got[0] != ids[19] {
			t.Fatalf("root children = %v", got)
		}
	})

	t.Run("descendant beyond max depth becomes a root", func(t *testing.T) {
		r := New(WithMaxDepth(20))
		ids, parents := chain("deep", 21)

		root := mustRegister(t, r, ids[0], parents)
		root.SetLogger(loggers.New("console", nil))
		child := mustRegister(t, r, ids[20], parents)

		if _, ok := child.Parent(); ok {
			t.Fatal("unit[20] should not be linked")
		}
		if len(root.Children()) != 0 {
			t.Fatal("root should have no children")
		}
		if child.Logger() == root.Logger() {
			t.Fatal("an unlinked unit must not start with the root's logger")
		}

		root.SetLogger(loggers.New("other", nil))
		if child.Logger() == root.Logger() {
			t.Fatal("an unlinked unit must not follow the root's logger")
		}
	})

	t.Run("grandchild links to nearest registered ancestor", func(t *testing.T) {
		r := New(WithMaxDepth(20))
		ids, parents := chain("veryDeep", 39)

		mustRegister(t, r, ids[0], parents)
		child := mustRegister(t, r, ids[19], parents)
		grandchild := mustRegister(t, r, ids[38], parents)

		if parent, ok := grandchild.Parent(); !ok || parent != child.ID() {
			t.Fatalf("grandchild parent = %q, %v; want %q", parent, ok, child.ID())
		}
	})
}

func TestRegistry_Lookup(t *testing.T) {
	r := New()
	ids, parents := chain("unit", 5)

	for _, id := range ids {
		if _, ok := r.Lookup(id, parents); ok {
			t.Fatalf("%q should not be found before registration", id)
		}
	}

	root := mustRegister(t, r, ids[0], parents)
	if c, ok := r.Lookup(ids[4], parents); !ok || c != root {
		t.Fatal("Lookup should find the registered ancestor")
	}

	r.SetMaxDepth(0)
	if c, ok := r.Lookup(ids[0], parents); !ok || c != root {
		t.Fatal("a registered unit should always find itself")
	}
	if _, ok := r.Lookup(ids[1], parents); ok {
		t.Fatal("max depth 0 should stop at the unit itself")
	}
}

func TestRegistry_LookupStopsOnCycles(t *testing.T) {
	r := New(WithMaxDepth(50))
	calls := 0
	parents := func(id ID) (ID, bool) {
		calls++
		if id == "a" {
			return "b", true
		}
		return "a", true
	}

	c := mustRegister(t, r, "a", parents)
	if _, ok := c.Parent(); ok {
		t.Fatal("a unit in an unregistered cycle should become a root")
	}
	if calls != 49 {
		t.Fatalf("parent accessor called %d times, want 49", calls)
	}
}

func TestRegistry_MaxDepth(t *testing.T) {
	tests := []struct {
		name  string
		apply func(r *Registry)
		want  int
	}{
		{"set positive", func(r *Registry) { r.SetMaxDepth(30) }, 30},
		{"negative clamps to zero", func(r *Registry) { r.SetMaxDepth(-1) }, 0},
		{"numeric string", func(r *Registry) { r.SetMaxDepthValue("30") }, 30},
		{"float", func(r *Registry) { r.SetMaxDepthValue(7.0) }, 7},
		{"non-numeric ignored", func(r *Registry) { r.SetMaxDepthValue("not a number") }, DefaultMaxDepth},
		{"nil ignored", func(r *Registry) { r.SetMaxDepthValue(nil) }, DefaultMaxDepth},
		{"negative value clamps to zero", func(r *Registry) { r.SetMaxDepthValue(-4) }, 0},
		{"zero is kept, not replaced by the default", func(r *Registry) { r.SetMaxDepthValue(0) }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			tt.apply(r)
			if got := r.MaxDepth(); got != tt.want {
				t.Errorf("MaxDepth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRegistry_ZeroMaxDepthDisablesLinking(t *testing.T) {
	r := New(WithMaxDepth(0))
	mustRegister(t, r, "root", nil)
	child := mustRegister(t, r, "child", ParentMap{"child": "root"}.Parent)

	if _, ok := child.Parent(); ok {
		t.Fatal("with MaxDepth 0 a unit must not link to its parent")
	}
	if c, ok := r.Lookup("child", nil); !ok || c != child {
		t.Fatal("with MaxDepth 0 the unit itself is still inspected")
	}
}

func TestRegistry_KeysIsASnapshot(t *testing.T) {
	r := New()
	mustRegister(t, r, "b", nil)
	mustRegister(t, r, "a", nil)

	keys := r.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys() = %v, want [a b]", keys)
	}

	keys[0] = "mutated"
	mustRegister(t, r, "c", nil)
	if len(keys) != 2 {
		t.Fatal("the returned slice must not grow with the registry")
	}
	if got := r.Keys(); got[0] != "a" || len(got) != 3 {
		t.Fatalf("Keys() = %v after mutation of a previous snapshot", got)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := New()
	c := mustRegister(t, r, "unit", nil)

	if got, ok := r.Get("unit"); !ok || got != c {
		t.Fatal("Get should return the registered context")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get should not find unregistered units")
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := New()
	parents := ParentMap{"app/db": "app", "app/http": "app"}.Parent
	custom := loggers.New("custom", nil)

	mustRegister(t, r, "app", parents)
	mustRegister(t, r, "app/db", parents)
	httpCtx := mustRegister(t, r, "app/http", parents)
	httpCtx.SetLogger(custom)

	nodes := r.Snapshot()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[0].ID != "app" || len(nodes[0].Children) != 2 || nodes[0].Logger != "silent" {
		t.Errorf("unexpected root node: %+v", nodes[0])
	}
	if nodes[1].ID != "app/db" || nodes[1].Parent != "app" || !nodes[1].Overridden || nodes[1].Logger != "silent" {
		t.Errorf("unexpected db node: %+v", nodes[1])
	}
	if nodes[2].ID != "app/http" || !nodes[2].Overridden || nodes[2].Logger != "custom" {
		t.Errorf("unexpected http node: %+v", nodes[2])
	}
}

func TestRegistry_Walk(t *testing.T) {
	r := New()
	parents := ParentMap{"app/db": "app", "app/db/pool": "app/db", "app/http": "app"}.Parent
	for _, id := range []ID{"app", "app/http", "app/db", "app/db/pool", "worker"} {
		mustRegister(t, r, id, parents)
	}

	var got []string
	ok := r.Walk("app", func(n Node, depth int) {
		got = append(got, fmt.Sprintf("%d:%s", depth, n.ID))
		// fn runs unlocked and may use the registry
		_ = r.Keys()
	})
	if !ok {
		t.Fatal("Walk() should find a registered unit")
	}
	want := []string{"0:app", "1:app/http", "1:app/db", "2:app/db/pool"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}

	if r.Walk("missing", func(Node, int) { t.Fatal("fn called for an unknown unit") }) {
		t.Fatal("Walk() should report unknown units")
	}
}

func TestRegistry_LinkUsesDefaultInForceUnderLock(t *testing.T) {
	r := New()
	mustRegister(t, r, "root", nil)
	replacement := loggers.New("replacement", nil)

	// The default changes while the ancestor walk is in progress.
	parents := func(id ID) (ID, bool) {
		r.Loggers().SetDefault(replacement)
		return "root", id != "root"
	}
	child := mustRegister(t, r, "child", parents)

	if got, ok := child.Override(); !ok || got != replacement {
		t.Fatalf("Override() = %q, %v, want replacement", got.Name(), ok)
	}
}

func TestRegistry_DiagnosticsTaggedWithUnit(t *testing.T) {
	var buf bytes.Buffer
	diag, err := logger.NewZapLogger(logger.Config{Level: logger.DebugLevel, Format: logger.JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	r := New(WithDiagnostics(diag))

	mustRegister(t, r, "app", nil).SetLogger(loggers.New("custom", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %q", buf.String())
	}
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse JSON: %v", err)
		}
		if entry["unit"] != "app" {
			t.Errorf("entry %q has unit %v, want app", entry["message"], entry["unit"])
		}
	}
}

func TestDefault(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() should always return the same registry")
	}

	c := MustRegister("invigilate-test/default", nil)
	if got, ok := Default().Get("invigilate-test/default"); !ok || got != c {
		t.Fatal("MustRegister should use the default registry")
	}
	again, err := Register("invigilate-test/default", nil)
	if err != nil || again != c {
		t.Fatalf("Register() = %v, %v", again, err)
	}
}

type recordingDiagnostics struct {
	mu   sync.Mutex
	msgs []string
}

func (d *recordingDiagnostics) Debug(msg string, args ...any) {
	d.mu.Lock()
	d.msgs = append(d.msgs, msg)
	d.mu.Unlock()
}
func (d *recordingDiagnostics) Info(string, ...any)                       {}
func (d *recordingDiagnostics) Warn(string, ...any)                       {}
func (d *recordingDiagnostics) Error(string, ...any)                      {}
func (d *recordingDiagnostics) With(...any) logger.Logger                 { return d }
func (d *recordingDiagnostics) WithContext(context.Context) logger.Logger { return d }

func TestRegistry_Diagnostics(t *testing.T) {
	diag := &recordingDiagnostics{}
	r := New(WithDiagnostics(diag))

	c := mustRegister(t, r, "unit", nil)
	c.SetLogger(loggers.New("custom", nil))
	r.SetMaxDepthValue("nope")

	want := []string{"registered unit", "assigned logger", "ignoring invalid max depth"}
	if len(diag.msgs) != len(want) {
		t.Fatalf("diagnostics = %v, want %v", diag.msgs, want)
	}
	for i := range want {
		if diag.msgs[i] != want[i] {
			t.Fatalf("diagnostics = %v, want %v", diag.msgs, want)
		}
	}
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := New()
	root := mustRegister(t, r, "root", nil)
	parents := func(id ID) (ID, bool) { return "root", id != "root" }

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c := r.MustRegister(ID(fmt.Sprintf("unit-%d-%d", i, j)), parents)
				_ = c.Proxy().Info("hello")
				if j%10 == 0 {
					root.SetLogger(loggers.New(fmt.Sprintf("l-%d-%d", i, j), nil))
				}
				_ = r.Keys()
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 16*50+1 {
		t.Fatalf("Len() = %d, want %d", r.Len(), 16*50+1)
	}
	if got := len(root.Children()); got != 16*50 {
		t.Fatalf("root has %d children, want %d", got, 16*50)
	}
	final := loggers.New("final", nil)
	root.SetLogger(final)
	for _, id := range root.Children() {
		c, _ := r.Get(id)
		if c.Logger() != final {
			t.Fatalf("%q did not follow the root logger", id)
		}
	}
}

func TestRegistry_ConcurrentDefaultChanges(t *testing.T) {
	r := New()
	root, child, grandchild := family(t, r)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			r.Loggers().SetDefault(loggers.New(fmt.Sprintf("default-%d", i), nil))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			root.SetLogger(loggers.New(fmt.Sprintf("root-%d", i), nil))
			_ = grandchild.Logger()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			child.Reset()
			_ = r.Snapshot()
		}
	}()
	wg.Wait()

	// child was reset under root, so the chain follows root again
	final := loggers.New("final", nil)
	child.Reset()
	root.SetLogger(final)
	if child.Logger() != final || grandchild.Logger() != final {
		t.Fatalf("child = %q, grandchild = %q, want final", child.Logger().Name(), grandchild.Logger().Name())
	}
}
