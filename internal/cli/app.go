package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/platform"
	"github.com/mkrupp/chatapp/internal/repo/blob"
	"github.com/mkrupp/chatapp/internal/shell"
	"github.com/mkrupp/chatapp/internal/svc/chatsvc"
	"github.com/mkrupp/chatapp/internal/svc/imagesvc"
	"github.com/mkrupp/chatapp/internal/svc/sessionsvc"
	"github.com/mkrupp/chatapp/internal/util/encoding"
)

// ErrNotSignedIn is returned by chat commands while no session is active.
var ErrNotSignedIn = errors.New("not signed in")

// AppConfig contains settings of the terminal client itself.
type AppConfig struct {
	// ExportDir receives scaled image copies written by /image.
	ExportDir string `env:"EXPORT_DIR" default:"var/export"`
}

// Session is the part of *sessionsvc.Manager the client uses.
type Session interface {
	Session() domain.Session
	Subscribe(fn func(domain.Session)) (cancel func())
	Initialize(ctx context.Context)
	SignIn(ctx context.Context, creds domain.Credentials) error
	SignUp(ctx context.Context, reg domain.Registration) error
	SignOut(ctx context.Context)
}

// ChatFactory creates the chat model for a freshly signed-in session.
type ChatFactory func() *chatsvc.Chat

var extByMIME = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/tiff": "tif",
}

// App is the terminal client. It follows the session with a shell.Navigator
// and owns the chat of the current session.
type App struct {
	cfg     AppConfig
	session Session
	images  imagesvc.ImageService
	newChat ChatFactory
	reader  *bufio.Reader
	out     io.Writer
	log     logging.Logger

	mu   sync.Mutex
	nav  *shell.Navigator
	chat *chatsvc.Chat
}

var _ execIface = (*App)(nil)

// NewApp creates the client. Input is read from reader, output goes to out.
func NewApp(
	cfg AppConfig,
	session Session,
	images imagesvc.ImageService,
	newChat ChatFactory,
	reader *bufio.Reader,
	out io.Writer,
) *App {
	return &App{
		cfg:     cfg,
		session: session,
		images:  images,
		newChat: newChat,
		reader:  reader,
		out:     out,
		log:     logging.GetLogger("cli.app"),
		nav:     shell.NewNavigator(session.Session()),
	}
}

// NewAlerter returns an alerter that prints "title: message" lines to w.
func NewAlerter(w io.Writer) platform.AlertFunc {
	return func(_ context.Context, title, message string) {
		_, _ = fmt.Fprintf(w, "! %s: %s\n", title, message)
	}
}

// NewPrompter returns a prompter reading answers from reader.
func NewPrompter(reader *bufio.Reader, w io.Writer) platform.PromptFunc {
	return func(_ context.Context, label string) (string, error) {
		return GetSimpleText(reader, label, w)
	}
}

// Run restores the persisted session and serves commands until the input
// ends or the user exits.
func (a *App) Run(ctx context.Context) error {
	cancel := a.session.Subscribe(a.follow)
	defer cancel()

	a.session.Initialize(ctx)
	a.log.DebugContext(ctx, "client started", "screen", a.Screen())

	return runREPL(ctx, a, a.reader)
}

// Screen implements execIface.
func (a *App) Screen() shell.Screen {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.nav.Current()
}

// Show switches between the screens of the current group.
func (a *App) Show(screen shell.Screen) error {
	a.mu.Lock()
	ok := a.nav.Go(screen)
	a.mu.Unlock()

	if !ok {
		return fmt.Errorf("show %s: not reachable", screen)
	}

	a.banner()

	return nil
}

// Login reads the sign-in form and submits it.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}

	password, err := GetPassword(a.reader, "Password", a.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	creds := domain.Credentials{Email: email, Password: password}
	if err := sessionsvc.ValidateCredentials(creds); err != nil {
		a.printValidation(err)

		return err //nolint:wrapcheck
	}

	return a.session.SignIn(ctx, creds) //nolint:wrapcheck
}

// Register reads the sign-up form and submits it.
func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return fmt.Errorf("read name: %w", err)
	}

	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}

	password, err := GetPassword(a.reader, "Password", a.out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	reg := domain.Registration{Name: name, Email: email, Password: password}
	if err := sessionsvc.ValidateRegistration(reg); err != nil {
		a.printValidation(err)

		return err //nolint:wrapcheck
	}

	return a.session.SignUp(ctx, reg) //nolint:wrapcheck
}

// Logout signs out. The chat of the session is discarded.
func (a *App) Logout(ctx context.Context) error {
	a.session.SignOut(ctx)

	return nil
}

// Say sends a text message.
func (a *App) Say(ctx context.Context, text string) error {
	chat, err := a.currentChat()
	if err != nil {
		return err
	}

	msg, err := chat.SendText(ctx, text)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}

	a.printMessage(msg)

	return nil
}

// Photo takes a photo and sends it.
func (a *App) Photo(ctx context.Context) error {
	chat, err := a.currentChat()
	if err != nil {
		return err
	}

	msg, err := chat.CaptureImage(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCaptureCanceled) {
			printlnFn("Canceled")
		}

		return fmt.Errorf("capture image: %w", err)
	}

	a.printMessage(msg)

	return nil
}

// Location shares the current position.
func (a *App) Location(ctx context.Context) error {
	chat, err := a.currentChat()
	if err != nil {
		return err
	}

	printlnFn("Locating...")

	msg, err := chat.ShareLocation(ctx)
	if err != nil {
		return fmt.Errorf("share location: %w", err)
	}

	a.printMessage(msg)

	return nil
}

// Image prints where a sent photo is stored. With a width, a scaled copy is
// written to the export directory.
func (a *App) Image(ctx context.Context, id string, width int) (err error) {
	blobID := domain.BlobID(encoding.NormalizeCrockfordB32LC(id))

	if _, err := encoding.DecodeCrockfordB32LC(blobID.String()); err != nil {
		printlnFn("Invalid image id:", id)

		return fmt.Errorf("parse image id: %w", err)
	}

	img, ref, err := a.images.Fetch(ctx, blobID, width)
	if err != nil {
		if errors.Is(err, blob.ErrBlobNotFound) {
			printlnFn("No such image:", blobID)
		} else {
			printlnFn("Image error:", err)
		}

		return fmt.Errorf("fetch image: %w", err)
	}

	printlnFn(fmt.Sprintf("%s %s, %d bytes", ref.ID, ref.MIMEType, ref.Size))
	printlnFn("  original: ", ref.URI)
	printlnFn("  thumbnail:", ref.ThumbnailURI)

	if width == 0 {
		return nil
	}

	path := filepath.Join(a.cfg.ExportDir, fmt.Sprintf("%s_%d.%s", ref.ID, width, extByMIME[ref.MIMEType]))

	if err := os.MkdirAll(a.cfg.ExportDir, 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close export file: %w", closeErr)
		}
	}()

	if _, err := img.WriteTo(file); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	printlnFn("  scaled:   ", path)

	return nil
}

// History prints every message of the current chat.
func (a *App) History() error {
	chat, err := a.currentChat()
	if err != nil {
		return err
	}

	for _, msg := range chat.Messages() {
		a.printMessage(msg)
	}

	return nil
}

// follow is the session observer. Entering Home starts a new chat; reaching
// the Login group drops it.
func (a *App) follow(session domain.Session) {
	a.mu.Lock()

	if !a.nav.Update(session) {
		a.mu.Unlock()

		return
	}

	screen := a.nav.Current()

	var started *chatsvc.Chat

	switch screen {
	case shell.ScreenHome:
		if a.chat == nil {
			a.chat = a.newChat()
			started = a.chat
		}
	case shell.ScreenLogin, shell.ScreenRegister:
		a.chat = nil
	case shell.ScreenLoading:
	}
	a.mu.Unlock()

	if screen == shell.ScreenLoading {
		printlnFn("Loading...")

		return
	}

	a.banner()

	if started != nil {
		for _, msg := range started.Messages() {
			a.printMessage(msg)
		}
	}
}

func (a *App) currentChat() (*chatsvc.Chat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chat == nil {
		return nil, ErrNotSignedIn
	}

	return a.chat, nil
}

func (a *App) banner() {
	switch a.Screen() {
	case shell.ScreenLogin:
		printlnFn("== Login == (commands: login, register, help, exit)")
	case shell.ScreenRegister:
		printlnFn("== Register == (commands: register, login, help, exit)")
	case shell.ScreenHome:
		printlnFn("== Chat == (type a message or /help)")
	case shell.ScreenLoading:
		printlnFn("Loading...")
	}
}

func (a *App) printValidation(err error) {
	var verrs sessionsvc.ValidationErrors
	if !errors.As(err, &verrs) {
		printlnFn(err)

		return
	}

	for _, fe := range verrs {
		printlnFn(fmt.Sprintf("  %s: %s", fe.Field, fe.Message))
	}
}

func (a *App) printMessage(msg domain.Message) {
	who := "you"
	if msg.Sender == domain.SenderSystem {
		who = "system"
	}

	switch msg.Type {
	case domain.MessageText:
		printlnFn(fmt.Sprintf("[%s] %s", who, msg.Text))
	case domain.MessageImage:
		printlnFn(fmt.Sprintf("[%s] photo %s (%s)", who, msg.Image.ID, msg.Image.ThumbnailURI))
	case domain.MessageLocation:
		printlnFn(fmt.Sprintf("[%s] location %s", who, msg.Location.MapURL()))
	}
}
