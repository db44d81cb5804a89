package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/app"
	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
)

// ── Demo services ────────────────────────────────────────────────────────────

type Mailer interface {
	Send(to, body string) error
}

type LogMailer struct {
	log  *zap.Logger
	from string
}

func NewLogMailer(log *zap.Logger, from string) *LogMailer {
	return &LogMailer{log: log, from: from}
}

func (m *LogMailer) Send(to, body string) error {
	m.log.Info("mail sent", zap.String("from", m.from), zap.String("to", to), zap.String("body", body))
	return nil
}

type Notifier struct {
	mailer Mailer
}

func NewNotifier(m Mailer) *Notifier { return &Notifier{mailer: m} }

func (n *Notifier) Notify(to string) error { return n.mailer.Send(to, "hello from the container") }

// ── Provider ─────────────────────────────────────────────────────────────────

// MailServiceProvider wires the mailer: Mailer → LogMailer, with the sender
// address taken from mail.from.
type MailServiceProvider struct {
	container.BaseProvider
}

func (p *MailServiceProvider) Register(a *container.Container) error {
	mailer, err := container.Constructor(NewLogMailer,
		container.Arg("log").As("log"),
		container.Arg("from").WithDefault("noreply@example.com"),
	)
	if err != nil {
		return err
	}
	if err := a.Singleton(container.TypeKey((*Mailer)(nil)), mailer); err != nil {
		return err
	}
	if err := a.RegisterClass(container.MustConstructor(NewNotifier, container.Arg("mailer"))); err != nil {
		return err
	}
	a.Tag("notifications", container.TypeKey(&Notifier{}))
	return nil
}

func (p *MailServiceProvider) Boot(a *container.Container) error {
	a.When(container.TypeKey(&LogMailer{})).Needs("$from").GiveValue(a.GetConfig("mail.from", "noreply@example.com"))
	return nil
}

func main() {
	a, err := app.Create(map[string]any{
		"app":  map[string]any{"name": "go-container", "env": config.Env("APP_ENV", "local")},
		"mail": map[string]any{"from": "ops@example.com"},
	}, "main.")
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	if err := a.Register(&MailServiceProvider{}); err != nil {
		log.Fatalf("register: %v", err)
	}
	if err := a.Boot(); err != nil {
		log.Fatalf("boot: %v", err)
	}

	notifier, err := container.Resolve[*Notifier](a.Container, container.TypeKey(&Notifier{}))
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}
	if err := notifier.Notify("team@example.com"); err != nil {
		log.Fatalf("notify: %v", err)
	}

	addr := ":" + config.Env("APP_PORT", "8080")
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	if err := a.Serve(addr); err != nil {
		a.Logger().Fatal("server error", zap.Error(err))
	}
}
