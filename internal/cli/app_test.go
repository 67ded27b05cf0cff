package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/platform"
	"github.com/mkrupp/chatapp/internal/repo/blob"
	"github.com/mkrupp/chatapp/internal/shell"
	"github.com/mkrupp/chatapp/internal/svc/chatsvc"
)

type fakeSession struct {
	session   domain.Session
	stored    string
	observers []func(domain.Session)

	signIns []domain.Credentials
	signUps []domain.Registration
}

func (f *fakeSession) set(s domain.Session) {
	f.session = s
	for _, fn := range f.observers {
		fn(s)
	}
}

func (f *fakeSession) Session() domain.Session { return f.session }

func (f *fakeSession) Subscribe(fn func(domain.Session)) func() {
	f.observers = append(f.observers, fn)

	return func() { f.observers = nil }
}

func (f *fakeSession) Initialize(context.Context) {
	f.set(domain.Session{Busy: true})
	f.set(domain.Session{Token: f.stored})
}

func (f *fakeSession) SignIn(_ context.Context, creds domain.Credentials) error {
	f.signIns = append(f.signIns, creds)
	f.set(domain.Session{Busy: true})
	f.set(domain.Session{Token: "token-1-" + creds.Email})

	return nil
}

func (f *fakeSession) SignUp(_ context.Context, reg domain.Registration) error {
	f.signUps = append(f.signUps, reg)
	f.set(domain.Session{Busy: true})
	f.set(domain.Session{Token: "token-2-" + reg.Email})

	return nil
}

func (f *fakeSession) SignOut(context.Context) {
	f.set(domain.Session{Token: f.session.Token, Busy: true})
	f.set(domain.Session{})
}

type stubImages struct {
	blob *domain.Blob
	ref  domain.ImageRef
	err  error

	fetched []domain.BlobID
}

func (s *stubImages) Store(context.Context, domain.Capture) (domain.ImageRef, error) {
	return s.ref, s.err
}

func (s *stubImages) Fetch(_ context.Context, id domain.BlobID, _ int) (*domain.Blob, domain.ImageRef, error) {
	s.fetched = append(s.fetched, id)

	return s.blob, s.ref, s.err
}

func (s *stubImages) Delete(context.Context, domain.BlobID) error { return s.err }
func (s *stubImages) MaxSize() int64                              { return 1 << 20 }

type appFixture struct {
	app     *App
	session *fakeSession
	images  *stubImages
	out     *bytes.Buffer
	printed fmt.Stringer
	chats   int
}

func newAppFixture(t *testing.T, input string, stored string) *appFixture {
	t.Helper()

	stubTerminal(t, false, nil)

	f := &appFixture{
		session: &fakeSession{stored: stored},
		images:  &stubImages{},
		out:     &bytes.Buffer{},
		printed: capturePrint(t),
	}

	reader := rdr(input)
	prompter := NewPrompter(reader, f.out)
	alerter := NewAlerter(f.out)

	newChat := func() *chatsvc.Chat {
		f.chats++

		return chatsvc.NewChat(
			f.images,
			platform.NewFileCamera(prompter, platform.CameraConfig{MaxSize: 1 << 20}),
			platform.NewFixedLocator(platform.LocatorConfig{Latitude: 52.52, Longitude: 13.4, Enabled: true}),
			platform.NewPromptPermissions(prompter, platform.PermissionsConfig{}),
			alerter,
		)
	}

	f.app = NewApp(AppConfig{ExportDir: t.TempDir()}, f.session, f.images, newChat, reader, f.out)

	return f
}

func TestApp_LoginChatLogout(t *testing.T) {
	f := newAppFixture(t, "login\na@b.com\nsecret1\nhello\n/location\n/photo\n\n/logout\nexit\n", "")

	require.NoError(t, f.app.Run(context.Background()))

	assert.Equal(t, []domain.Credentials{{Email: "a@b.com", Password: "secret1"}}, f.session.signIns)
	assert.Equal(t, 1, f.chats)
	assert.Equal(t, shell.ScreenLogin, f.app.Screen())

	printed := f.printed.String()
	assert.Contains(t, printed, "== Chat ==")
	assert.Contains(t, printed, "[system] "+chatsvc.WelcomeText)
	assert.Contains(t, printed, "[you] hello")
	assert.Contains(t, printed, "[you] location https://www.google.com/maps?q=52.52,13.4")
	assert.Contains(t, printed, "Canceled")

	_, err := f.app.currentChat()
	require.ErrorIs(t, err, ErrNotSignedIn)
	require.ErrorIs(t, f.app.History(), ErrNotSignedIn)
}

func TestApp_RestoredSessionStartsOnHome(t *testing.T) {
	f := newAppFixture(t, "/history\n/exit\n", "token-7-z@z.io")

	require.NoError(t, f.app.Run(context.Background()))

	assert.Empty(t, f.session.signIns)
	assert.Equal(t, 1, f.chats)
	assert.Equal(t, shell.ScreenHome, f.app.Screen())
	assert.Contains(t, f.printed.String(), "[system] "+chatsvc.HintText)
}

func TestApp_ValidationBlocksSubmit(t *testing.T) {
	f := newAppFixture(t, "login\nnot-an-email\n123\nregister\nregister\n\nx@y.z\nsecret1\nexit\n", "")

	require.NoError(t, f.app.Run(context.Background()))

	assert.Empty(t, f.session.signIns)
	assert.Empty(t, f.session.signUps)

	printed := f.printed.String()
	assert.Contains(t, printed, "email: Please enter a valid email")
	assert.Contains(t, printed, "password: Password must be at least 6 characters")
	assert.Contains(t, printed, "name: Name is required")
	assert.Equal(t, 0, f.chats)
}

func TestApp_Register(t *testing.T) {
	f := newAppFixture(t, "register\nregister\nAda\nada@x.io\nsecret1\nexit\n", "")

	require.NoError(t, f.app.Run(context.Background()))

	assert.Equal(t, []domain.Registration{{Name: "Ada", Email: "ada@x.io", Password: "secret1"}}, f.session.signUps)
	assert.Equal(t, shell.ScreenHome, f.app.Screen())
}

func TestApp_ChatDroppedOnSignOut(t *testing.T) {
	f := newAppFixture(t, "login\na@b.com\nsecret1\nfirst session\n/logout\nlogin\na@b.com\nsecret1\n/exit\n", "")

	require.NoError(t, f.app.Run(context.Background()))

	assert.Equal(t, 2, f.chats)

	chat, err := f.app.currentChat()
	require.NoError(t, err)

	for _, msg := range chat.Messages() {
		assert.NotEqual(t, "first session", msg.Text)
	}
}

func TestApp_Image(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newAppFixture(t, "", "")
		f.images.err = blob.ErrBlobNotFound

		err := f.app.Image(context.Background(), "K3V9 X2MQ", 0)
		require.ErrorIs(t, err, blob.ErrBlobNotFound)

		assert.Equal(t, []domain.BlobID{"k3v9x2mq"}, f.images.fetched)
		assert.Contains(t, f.printed.String(), "No such image: k3v9x2mq")
	})

	t.Run("invalid id", func(t *testing.T) {
		f := newAppFixture(t, "", "")

		require.Error(t, f.app.Image(context.Background(), "not!valid", 0))
		assert.Empty(t, f.images.fetched)
		assert.Contains(t, f.printed.String(), "Invalid image id: not!valid")
	})

	t.Run("scaled copy is exported", func(t *testing.T) {
		f := newAppFixture(t, "", "")
		f.images.blob = domain.NewBlob("k3v9_64", []byte("scaled"))
		f.images.ref = domain.ImageRef{ID: "k3v9", MIMEType: "image/png", Size: 100, URI: "file:///o", ThumbnailURI: "file:///t"}

		require.NoError(t, f.app.Image(context.Background(), "k3v9", 64))

		data, err := os.ReadFile(filepath.Join(f.app.cfg.ExportDir, "k3v9_64.png"))
		require.NoError(t, err)
		assert.Equal(t, "scaled", string(data))
		assert.Contains(t, f.printed.String(), "k3v9 image/png, 100 bytes")
	})
}
