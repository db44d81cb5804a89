package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-container/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type greeter struct{ greeting string }

func (g *greeter) Greet(name string) string { return g.greeting + ", " + name }

type counter struct{ n int }

func smtpClass() *container.Class {
	return &container.Class{
		Name: `App\Mail\SmtpMailer`,
		New:  func([]any) (any, error) { return &greeter{greeting: "smtp"}, nil },
	}
}

// ── Bind / Singleton / Instance ───────────────────────────────────────────────

func TestBind_TransientReturnsNewInstances(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Bind("counter", func(*container.Container) any { return &counter{} }, false))

	a, err := c.Make("counter")
	require.NoError(t, err)
	b, err := c.Make("counter")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.False(t, c.Resolved("counter"))
}

func TestSingleton_ReturnsSameInstance(t *testing.T) {
	c := container.New()
	calls := 0
	require.NoError(t, c.Singleton("counter", func(*container.Container) any {
		calls++
		return &counter{}
	}))

	a := c.MustMake("counter")
	b := c.MustMake("counter")

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
	assert.True(t, c.Resolved("counter"))
}

func TestBind_RejectsUnsupportedConcrete(t *testing.T) {
	c := container.New()
	err := c.Bind("x", 42, false)
	assert.ErrorIs(t, err, container.ErrInvalidConcrete)
	assert.False(t, c.Bound("x"))
}

func TestBind_ReplacesCachedInstance(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("v", func(*container.Container) any { return "old" }))
	_, err := c.Make("v")
	require.NoError(t, err)

	require.NoError(t, c.Singleton("v", func(*container.Container) any { return "new" }))
	got, err := c.Make("v")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestInstance_IsReturnedAsIs(t *testing.T) {
	c := container.New()
	g := &greeter{greeting: "hi"}
	require.NoError(t, c.Instance("greeter", g))

	got, err := container.Resolve[*greeter](c, "greeter")
	require.NoError(t, err)
	assert.Same(t, g, got)
	assert.True(t, c.Bound("greeter"))
	assert.True(t, c.Resolved("greeter"))
}

func TestInstance_AutoAliasesByType(t *testing.T) {
	c := container.New()
	g := &greeter{greeting: "hi"}
	require.NoError(t, c.Instance("greeter", g))

	alias := container.DeriveAlias(container.TypeKey(g), "")
	assert.True(t, c.IsAlias(alias))
	assert.Equal(t, "greeter", c.Canonical(alias))
	assert.Same(t, g, c.MustMake(alias))
}

func TestInstance_ScalarIsNotAliased(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Instance("answer", 42))
	assert.Equal(t, 42, c.MustMake("answer"))
	assert.Equal(t, []string{"answer", "container"}, c.Bindings())
}

func TestInstance_NilBuildsRegisteredClass(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterClass(smtpClass()))

	require.NoError(t, c.Instance(`App\Mail\SmtpMailer`, nil))
	assert.True(t, c.Resolved(`App\Mail\SmtpMailer`))

	err := c.Instance("Unknown", nil)
	assert.ErrorIs(t, err, container.ErrAutoInstantiation)
}

func TestInstances_SkipsNonObjects(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Instances(map[string]any{
		"a":    &greeter{greeting: "a"},
		"b":    counter{n: 2},
		"name": "not an object",
	}))

	assert.True(t, c.Bound("a"))
	assert.True(t, c.Bound("b"))
	assert.False(t, c.Bound("name"))
}

// ── Aliases ───────────────────────────────────────────────────────────────────

func TestAlias_ResolvesToAbstract(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("cache.manager", func(*container.Container) any { return &counter{} }))
	require.NoError(t, c.Alias("cache.manager", "cache"))

	assert.Same(t, c.MustMake("cache.manager"), c.MustMake("cache"))
	assert.True(t, c.IsAlias("cache"))
	assert.True(t, c.Bound("cache"))
}

func TestAlias_Conflict(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Alias("redis", "cache"))

	err := c.Alias("memcached", "cache")
	var ce *container.AliasConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "redis", ce.Existing)
}

func TestBind_AutoAliasesClass(t *testing.T) {
	c := container.New(container.WithContext(`App\`))
	require.NoError(t, c.Bind("mailer", smtpClass(), true))

	assert.Equal(t, "mailer", c.Canonical("mail.smtpmailer"))
	assert.Same(t, c.MustMake("mailer"), c.MustMake("mail.smtpmailer"))
	assert.True(t, c.HasClass(`App\Mail\SmtpMailer`))
}

func TestBind_AutoAliasConflict(t *testing.T) {
	c := container.New(container.WithContext(`App\`))
	require.NoError(t, c.Bind("mailer", smtpClass(), false))

	err := c.Bind("backup-mailer", smtpClass(), false)
	assert.ErrorIs(t, err, container.ErrAliasConflict)
	assert.False(t, c.Bound("backup-mailer"))
}

func TestBind_AutoAliasConflictLeavesClassUnregistered(t *testing.T) {
	c := container.New(container.WithContext(`App\`))
	require.NoError(t, c.Bind("mailer", func(*container.Container) any { return "smtp" }, false))
	require.NoError(t, c.Alias("mailer", "mail.backup"))

	backup := &container.Class{
		Name: `App\Mail\Backup`,
		New:  func([]any) (any, error) { return "backup", nil },
	}
	err := c.Bind("other", backup, false)
	assert.ErrorIs(t, err, container.ErrAliasConflict)
	assert.False(t, c.Bound("other"))
	assert.False(t, c.HasClass(backup.Name))
	assert.Equal(t, "mailer", c.Canonical("mail.backup"))
}

// ── Tags ──────────────────────────────────────────────────────────────────────

func TestTagged_PreservesInsertionOrder(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Bind("cpu", func(*container.Container) any { return "cpu" }, false))
	require.NoError(t, c.Bind("mem", func(*container.Container) any { return "mem" }, false))
	c.Tag("reports", "mem", "cpu")
	c.Tag("reports", "mem")

	got, err := c.Tagged("reports")
	require.NoError(t, err)
	assert.Equal(t, []any{"mem", "cpu", "mem"}, got)
}

func TestTagged_UnknownTagIsEmpty(t *testing.T) {
	got, err := container.New().Tagged("nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTagged_ResolvesConfigAndClasses(t *testing.T) {
	c := container.New(container.WithConfig(map[string]any{"app": map[string]any{"name": "demo"}}))
	require.NoError(t, c.RegisterClass(smtpClass()))
	c.Tag("mixed", "app.name", `App\Mail\SmtpMailer`, "missing")

	got, err := c.Tagged("mixed")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "demo", got[0])
	assert.IsType(t, &greeter{}, got[1])
	assert.Nil(t, got[2])
}

// ── Array-style access ────────────────────────────────────────────────────────

func TestSet_RoutesByKind(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterClass(smtpClass()))

	_, err := c.Set("app.name", "demo")
	require.NoError(t, err)
	_, err = c.Set("greeter", &greeter{greeting: "yo"})
	require.NoError(t, err)
	_, err = c.Set("clock", func(*container.Container) any { return "tick" })
	require.NoError(t, err)
	_, err = c.Set("mailer", `App\Mail\SmtpMailer`)
	require.NoError(t, err)

	assert.Equal(t, "demo", c.GetConfig("app.name", nil))
	assert.True(t, c.Resolved("greeter"))
	assert.Equal(t, "tick", c.MustMake("clock"))
	assert.IsType(t, &greeter{}, c.MustMake("mailer"))
	assert.False(t, c.HasConfig("greeter"))
}

func TestGet_PrefersConfigThenServicesThenFallback(t *testing.T) {
	c := container.New(container.WithConfig(map[string]any{
		"db": map[string]any{"host": "localhost"},
	}))
	require.NoError(t, c.Bind("svc", func(*container.Container) any { return "service" }, false))

	v, err := c.Get("db.host", "x")
	require.NoError(t, err)
	assert.Equal(t, "localhost", v)

	v, err = c.Get("svc", "x")
	require.NoError(t, err)
	assert.Equal(t, "service", v)

	v, err = c.Get("db.port", 5432)
	require.NoError(t, err)
	assert.Equal(t, 5432, v)
}

func TestHasAndUnset(t *testing.T) {
	c := container.New()
	_, err := c.Set("app.debug", true)
	require.NoError(t, err)
	require.NoError(t, c.Bind("svc", func(*container.Container) any { return 1 }, false))

	assert.True(t, c.Has("app.debug"))
	assert.True(t, c.Has("svc"))
	assert.False(t, c.Has("nope"))

	c.Unset("app.debug")
	c.Unset("svc")
	assert.False(t, c.Has("app.debug"))
	assert.False(t, c.Has("svc"))
	assert.True(t, c.HasConfig("app"), "unset leaves the parent mapping")
}

func TestConfig_ReturnsSnapshot(t *testing.T) {
	c := container.New(container.WithConfig(map[string]any{"a": 1}))
	snap := c.Config()
	snap.Set("a", 2)
	assert.Equal(t, 1, c.GetConfig("a", nil))
}

func TestGetConfig_ReturnsDetachedMappings(t *testing.T) {
	c := container.New()
	c.SetConfig("a.b", 1)

	m := c.GetConfig("a", nil).(map[string]any)
	m["b"] = 99
	assert.Equal(t, 1, c.GetConfig("a.b", nil))

	v, err := c.Get("a", nil)
	require.NoError(t, err)
	v.(map[string]any)["b"] = 98
	assert.Equal(t, 1, c.GetConfig("a.b", nil))

	// Reading a returned mapping while the store changes must not race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 100 {
			c.SetConfig("a.c", i)
		}
	}()
	for range 100 {
		for k, val := range c.GetConfig("a", nil).(map[string]any) {
			_, _ = k, val
		}
	}
	<-done
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func TestForgetInstance_RebuildsSingleton(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("counter", func(*container.Container) any { return &counter{} }))

	first := c.MustMake("counter")
	c.ForgetInstance("counter")
	assert.NotSame(t, first, c.MustMake("counter"))
	assert.True(t, c.Bound("counter"))

	c.Forget("counter")
	assert.False(t, c.Bound("counter"))
}

func TestFlush_ResetsEverythingButClasses(t *testing.T) {
	c := container.New(container.WithConfig(map[string]any{"a": 1}))
	require.NoError(t, c.RegisterClass(smtpClass()))
	require.NoError(t, c.Singleton("s", func(*container.Container) any { return 1 }))
	require.NoError(t, c.Alias("s", "alias"))
	c.Tag("t", "s")

	c.Flush()

	assert.Empty(t, c.Bindings())
	assert.False(t, c.IsAlias("alias"))
	assert.False(t, c.HasConfig("a"))
	tagged, err := c.Tagged("t")
	require.NoError(t, err)
	assert.Empty(t, tagged)
	assert.True(t, c.Instantiable(`App\Mail\SmtpMailer`))
}

func TestNew_BindsItself(t *testing.T) {
	c := container.New()
	got, err := container.Resolve[*container.Container](c, "container")
	require.NoError(t, err)
	assert.Same(t, c, got)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

func TestRebinding_FiresWhenResolvedAbstractIsRebound(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("v", func(*container.Container) any { return "one" }))

	var seen []any
	c.Rebinding("v", func(instance any) { seen = append(seen, instance) })

	require.NoError(t, c.Singleton("v", func(*container.Container) any { return "two" }))
	assert.Empty(t, seen, "not fired before the first resolution")

	c.MustMake("v")
	require.NoError(t, c.Singleton("v", func(*container.Container) any { return "three" }))
	require.NoError(t, c.Instance("v", &greeter{greeting: "four"}))

	require.Len(t, seen, 2)
	assert.Equal(t, "three", seen[0])
	assert.IsType(t, &greeter{}, seen[1])
}

func TestExtend_DecoratesNewAndCachedInstances(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("greeter", func(*container.Container) any { return &greeter{greeting: "hi"} }))
	c.MustMake("greeter")

	c.Extend("greeter", func(instance any, _ *container.Container) any {
		g := instance.(*greeter)
		return &greeter{greeting: g.greeting + "!"}
	})
	assert.Equal(t, "hi!", c.MustMake("greeter").(*greeter).greeting)

	require.NoError(t, c.Bind("plain", func(*container.Container) any { return 1 }, false))
	c.Extend("plain", func(instance any, _ *container.Container) any { return instance.(int) + 1 })
	c.Extend("plain", func(instance any, _ *container.Container) any { return instance.(int) * 10 })
	assert.Equal(t, 20, c.MustMake("plain"))
}

func TestAfterResolving_SeesEveryBuild(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("s", func(*container.Container) any { return 1 }))

	var got []string
	c.AfterResolving(func(abstract string, _ any) { got = append(got, abstract) })

	c.MustMake("s")
	c.MustMake("s") // cached: no build
	assert.Equal(t, []string{"s"}, got)
}

// ── Logging ───────────────────────────────────────────────────────────────────

func TestLogger_RecordsRegistrationAndResolution(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := container.New(container.WithLogger(zap.New(core)))

	require.NoError(t, c.Singleton("s", func(*container.Container) any { return 1 }))
	c.MustMake("s")

	bound := logs.FilterMessage("container: bound").All()
	require.Len(t, bound, 1)
	assert.Equal(t, "s", bound[0].ContextMap()["abstract"])
	assert.Equal(t, true, bound[0].ContextMap()["shared"])
	assert.Equal(t, 1, logs.FilterMessage("container: resolved").Len())
}

func TestLogger_DefaultsToNop(t *testing.T) {
	c := container.New(container.WithLogger(nil))
	assert.NotNil(t, c.Logger())
}
