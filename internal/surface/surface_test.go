package surface

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"unicode/utf8"

	"healthkit-bridge/internal/common/errors"
	"healthkit-bridge/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingNotifier struct {
	got []Notification
	err error
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func observed() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewZapAdapter(zap.New(core)), logs
}

func TestSurface_Success(t *testing.T) {
	log, logs := observed()
	n := &recordingNotifier{}
	s := New(log, WithNotifier(n))

	s.Surface(context.Background(), Report{Operation: "insert", Response: []byte(`{"success":true}`)})

	entries := logs.FilterMessage("operation succeeded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "insert", entries[0].ContextMap()["operation"])
	assert.Equal(t, `{"success":true}`, entries[0].ContextMap()["response"])

	require.Len(t, n.got, 1)
	assert.Equal(t, "insert", n.got[0].Title)
	assert.Equal(t, `{"success":true}`, n.got[0].Body)
	assert.False(t, n.got[0].Failure)
}

func TestSurface_FailureLoggedNotNotifiedByDefault(t *testing.T) {
	log, logs := observed()
	n := &recordingNotifier{}
	s := New(log, WithNotifier(n))

	failure := errors.NewInvocationFailedError("read", stderrors.New("PERMISSION_DENIED"))
	s.Surface(context.Background(), Report{Operation: "read", Failure: failure})

	entries := logs.FilterMessage("operation failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "read", fields["operation"])
	assert.Equal(t, "INVOCATION_FAILED", fields["errorCode"])
	assert.Equal(t, "COLLABORATOR", fields["errorCategory"])
	assert.Empty(t, n.got)
}

func TestSurface_FailureNotificationsWhenEnabled(t *testing.T) {
	log, _ := observed()
	n := &recordingNotifier{}
	s := New(log, WithNotifier(n), WithFailureNotifications(true))

	s.Surface(context.Background(), Report{
		Operation: "syncAll",
		Failure:   errors.NewCollaboratorPanicError("syncAll", "boom"),
	})

	require.Len(t, n.got, 1)
	assert.True(t, n.got[0].Failure)
	assert.Equal(t, "syncAll failed", n.got[0].Title)
	assert.Contains(t, n.got[0].Body, "COLLABORATOR_PANIC")
}

func TestSurface_NotifierErrorIsContained(t *testing.T) {
	log, logs := observed()
	broken := &recordingNotifier{err: stderrors.New("toast service down")}
	healthy := &recordingNotifier{}
	s := New(log, WithNotifier(broken), WithNotifier(healthy))

	assert.NotPanics(t, func() {
		s.Surface(context.Background(), Report{Operation: "signIn", Response: []byte(`{}`)})
	})
	assert.Len(t, healthy.got, 1)
	assert.Equal(t, 1, logs.FilterMessage("notification failed").Len())
}

type panickingNotifier struct{}

func (panickingNotifier) Name() string { return "panicking" }

func (panickingNotifier) Notify(context.Context, Notification) error {
	panic("toast failed")
}

func TestSurface_NotifierPanicIsContained(t *testing.T) {
	log, logs := observed()
	healthy := &recordingNotifier{}
	s := New(log, WithNotifier(panickingNotifier{}), WithNotifier(healthy), WithFailureNotifications(true))

	assert.NotPanics(t, func() {
		s.Surface(context.Background(), Report{Operation: "syncAll", Response: []byte(`{"success":true}`)})
		s.Surface(context.Background(), Report{
			Operation: "read",
			Failure:   errors.NewInvocationFailedError("read", stderrors.New("PERMISSION_DENIED")),
		})
	})
	assert.Len(t, healthy.got, 2)

	entries := logs.FilterMessage("notification failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "panicking", entries[0].ContextMap()["notifier"])
	assert.Contains(t, entries[0].ContextMap()["error"], "toast failed")
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifier(&buf)

	require.NoError(t, c.Notify(context.Background(), Notification{Title: "insert", Body: `{"success":true}`}))
	require.NoError(t, c.Notify(context.Background(), Notification{Title: "read failed", Body: "denied", Failure: true}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{`[ok] insert: {"success":true}`, `[!!] read failed: denied`}, lines)
}

type fakePublisher struct {
	subject, message string
	err              error
}

func (f *fakePublisher) PublishMessage(_ context.Context, subject, message string) (string, error) {
	f.subject, f.message = subject, message
	return "msg-1", f.err
}

func TestSNSNotifier(t *testing.T) {
	p := &fakePublisher{}
	n := NewSNSNotifier(p, "[healthkit]")

	require.NoError(t, n.Notify(context.Background(), Notification{Title: "insert", Body: "{}"}))
	assert.Equal(t, "[healthkit] insert", p.subject)
	assert.Equal(t, "{}", p.message)

	require.NoError(t, n.Notify(context.Background(), Notification{Title: strings.Repeat("x", 150)}))
	assert.Len(t, p.subject, maxSubjectLen)

	require.NoError(t, n.Notify(context.Background(), Notification{Title: strings.Repeat("é", 150)}))
	assert.True(t, utf8.ValidString(p.subject))
	assert.Equal(t, maxSubjectLen, utf8.RuneCountInString(p.subject))
	assert.True(t, strings.HasPrefix(p.subject, "[healthkit] é"))

	p.err = stderrors.New("throttled")
	assert.Error(t, n.Notify(context.Background(), Notification{Title: "x"}))
}
