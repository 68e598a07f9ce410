package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/activity"
	"github.com/dmitrijs2005/gophboard/internal/client/client"
	"github.com/dmitrijs2005/gophboard/internal/client/config"
	"github.com/dmitrijs2005/gophboard/internal/client/debounce"
	"github.com/dmitrijs2005/gophboard/internal/client/detail"
	"github.com/dmitrijs2005/gophboard/internal/client/drafts"
	"github.com/dmitrijs2005/gophboard/internal/client/likes"
	"github.com/dmitrijs2005/gophboard/internal/client/posts"
	"github.com/dmitrijs2005/gophboard/internal/client/prefs"
	"github.com/dmitrijs2005/gophboard/internal/client/profile"
	"github.com/dmitrijs2005/gophboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophboard/internal/client/services"
	"github.com/dmitrijs2005/gophboard/internal/client/session"
	"github.com/dmitrijs2005/gophboard/internal/client/ui"
	"github.com/dmitrijs2005/gophboard/internal/common"
	"github.com/dmitrijs2005/gophboard/internal/filex"
	"github.com/dmitrijs2005/gophboard/internal/logging"
	"github.com/jonboulle/clockwork"
	"golang.org/x/term"

	_ "modernc.org/sqlite"
)

// DatabaseFile is the local database inside the data directory.
const DatabaseFile = "gophboard.db"

type App struct {
	config *config.Config
	log    logging.Logger
	in     *bufio.Reader
	out    io.Writer

	// password reads a secret after printing prompt.
	password func(prompt string) ([]byte, error)

	db       *sql.DB
	api      *client.RESTClient
	sessions *session.Store
	likes    *likes.Cache
	auth     services.AuthService
	posts    *posts.CollectionView
	detail   *detail.View
	drafts   *drafts.Composer
	profile  *profile.Controller
	activity *activity.View
	prefs    *prefs.Store

	route ui.Route
}

// NewApp opens the local database in cfg.DataDir and wires every component
// to the API at cfg.APIBaseURL. Logs go to logw.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logw io.Writer) (*App, error) {
	log := logging.New(logw, c.LogLevel)

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, filepath.Join(dir, DatabaseFile))
	if err != nil {
		log.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}
	kv := metadata.NewStore(db)

	a := &App{config: c, log: log, in: bufio.NewReader(in), out: out, db: db, route: ui.RoutePosts}
	a.password = a.linePassword
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		a.password = func(prompt string) ([]byte, error) { return GetPassword(prompt, a.out) }
	}

	a.sessions = session.NewStore(kv, log.With("component", "session"))
	a.api = client.NewRESTClient(c.APIBaseURL, c.RequestTimeout, a.sessions)
	a.likes = likes.NewCache(a.api, a.sessions, log.With("component", "likes"))
	a.auth = services.NewAuthService(a.api, a.sessions, a.likes, log.With("component", "auth"))
	a.posts = posts.NewCollectionView(a.api, a.likes, log.With("component", "posts"))
	a.detail = detail.NewView(a.api, a.likes, a.sessions, a, log.With("component", "detail"))
	deb := debounce.New(clockwork.NewRealClock(), c.AutosaveDelay)
	a.drafts = drafts.NewComposer(kv, a.api, a, log.With("component", "drafts"), deb)
	a.profile = profile.NewController(a.api, a.sessions, a.likes, a.drafts, a, log.With("component", "profile"))
	a.activity = activity.NewView(a.api, a.likes, a.sessions, log.With("component", "activity"))
	a.prefs = prefs.NewStore(kv, log.With("component", "prefs"))
	return a, nil
}

// Run restores the previous session and draft, shows the first page of
// posts and then serves commands until the input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to gophboard (type 'help' for commands)")
	if sess, ok := a.auth.Restore(ctx); ok {
		fmt.Fprintf(a.out, "Signed in as %s\n", sess.DisplayName)
	}
	if d := a.drafts.Restore(ctx); !d.IsZero() {
		fmt.Fprintf(a.out, "You have an unfinished draft %q (type 'write' to see it)\n", d.Title)
	}
	if err := a.listPosts(ctx, func(ctx context.Context) error {
		_, err := a.posts.Fetch(ctx, 1, "")
		return err
	}); err != nil {
		a.report(ctx, err)
	}

	runREPL(ctx, repl{
		in:       a.in,
		out:      a.out,
		signedIn: a.isLoggedIn,
		status:   a.getStatus,
		report:   a.report,
	}, a.commands())
	return nil
}

// Close flushes the pending draft autosave and releases the client and database.
func (a *App) Close() {
	a.drafts.Close()
	if err := a.auth.Close(); err != nil {
		a.log.Warn(context.Background(), "client close", "err", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "database close", "err", err)
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.sessions.Current()
	return ok
}

func (a *App) getStatus() string {
	s := string(a.route)
	if sess, ok := a.sessions.Current(); ok {
		s = sess.DisplayName + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// Navigate implements ui.Navigator.
func (a *App) Navigate(_ context.Context, to ui.Route) {
	a.route = to
}

// Confirm implements ui.Confirmer by asking a yes/no question.
func (a *App) Confirm(_ context.Context, prompt string) (bool, error) {
	answer, err := GetSimpleText(a.in, prompt+" [y/N]", a.out)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *App) linePassword(prompt string) ([]byte, error) {
	s, err := GetSimpleText(a.in, strings.TrimSuffix(strings.TrimSpace(prompt), ":"), a.out)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// report prints err in terms of what the user can do about it.
func (a *App) report(ctx context.Context, err error) {
	switch common.KindOf(err) {
	case common.KindNone:
		return
	case common.KindCancelled:
		switch {
		case errors.Is(err, common.ErrNotConfirmed):
			fmt.Fprintln(a.out, "Cancelled.")
		case errors.Is(err, common.ErrPending):
			fmt.Fprintln(a.out, "Still working on the previous request.")
		}
		return
	case common.KindValidation:
		if errors.Is(err, common.ErrNoChange) {
			fmt.Fprintln(a.out, "Nothing changed.")
			return
		}
		var ve *common.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintln(a.out, "Invalid input:", ve.Message)
			return
		}
		fmt.Fprintln(a.out, "Invalid input:", err)
	case common.KindUnauthenticated:
		fmt.Fprintln(a.out, "You are not logged in (or your session expired). Use 'login'.")
	case common.KindAuthorization:
		fmt.Fprintln(a.out, "You are not allowed to do that.")
	case common.KindNotFound:
		fmt.Fprintln(a.out, "Not found. It may have been deleted.")
	default:
		fmt.Fprintln(a.out, "Request failed, please try again:", err)
	}
	a.log.Debug(ctx, "command failed", "err", err)
}
