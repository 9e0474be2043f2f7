package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/HammerMeetNail/fanbase/internal/app"
	"github.com/HammerMeetNail/fanbase/internal/config"
	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/services"
)

// Command annotations controlling setup.
const (
	annotationSetup = "fanbase/setup"
	setupNone       = "none"    // no config, no app
	setupNoRestore  = "restore" // app built, stored session not restored
)

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	profile string
	apiURL  string
	debug   bool

	app   *app.App
	lines *bufio.Reader

	// isTerminal and readSecret are replaced in tests.
	isTerminal func() bool
	readSecret func() ([]byte, error)
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	c := &cli{in: in, out: out, errOut: errOut, lines: bufio.NewReader(in)}
	c.isTerminal = func() bool {
		f, ok := in.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
	c.readSecret = func() ([]byte, error) {
		return term.ReadPassword(int(in.(*os.File).Fd()))
	}
	return c
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fanbase",
		Short: "Command-line client for the fanbase music community",
		Long: `fanbase signs you in to a fanbase server, manages friends and
friend requests, follows notifications, and talks to your linked Spotify account.

Configuration comes from FANBASE_* environment variables, optionally
overlaid on a YAML file named by FANBASE_CONFIG.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.profile, "profile", "", "session profile (overrides FANBASE_PROFILE)")
	pf.StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides FANBASE_API_URL)")
	pf.BoolVar(&c.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.userCmd(),
		c.favoriteCmd(),
		c.photoCmd(),
		c.friendsCmd(),
		c.requestsCmd(),
		c.sendCmd(),
		c.acceptCmd(),
		c.declineCmd(),
		c.unfriendCmd(),
		c.statusCmd(),
		c.searchCmd(),
		c.notificationsCmd(),
		c.spotifyCmd(),
		c.postsCmd(),
		c.doctorCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	mode := cmd.Annotations[annotationSetup]
	if mode == setupNone || cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
		return nil
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New().SetOutput(c.errOut).SetLevel(logging.LevelWarn)
	if cfg.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	a.OnSignInRequired(func(reason string) {
		fmt.Fprintln(c.errOut, "Your session has expired. Run 'fanbase login' to sign in again.")
	})

	if mode == setupNoRestore {
		return nil
	}
	if err := a.Start(cmd.Context()); err != nil && !errors.Is(err, services.ErrNotLoggedIn) {
		return err
	}
	return nil
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.apiURL != "" {
		cfg.API.BaseURL = c.apiURL
	}
	if c.profile != "" && c.profile != cfg.Session.Profile {
		cfg.Session.Profile = c.profile
		if os.Getenv("FANBASE_TOKEN_FILE") == "" && cfg.Session.Store == config.StoreFile {
			cfg.Session.TokenFile = config.DefaultTokenFile(c.profile)
		}
	}
	if c.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) close() {
	if c.app != nil {
		_ = c.app.Close()
	}
}

// session returns the app after checking a session is live.
func (c *cli) session() (*app.App, error) {
	if err := c.app.RequireSession(); err != nil {
		return nil, errNotSignedIn
	}
	return c.app, nil
}

var errNotSignedIn = errors.New("not signed in, run 'fanbase login' first")

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.errOut, label)
	line, err := c.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) promptPassword() (string, error) {
	if !c.isTerminal() {
		line, err := c.lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(c.errOut, "Password: ")
	secret, err := c.readSecret()
	fmt.Fprintln(c.errOut)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(secret), nil
}

// errorMessage is what the user sees for err.
func errorMessage(err error) string {
	if msg := services.UserMessage(err); msg != services.GenericFailure {
		return msg
	}
	return err.Error()
}
