package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/credential"
	"github.com/trezcool/masomo-console/core/document"
	"github.com/trezcool/masomo-console/core/guard"
	"github.com/trezcool/masomo-console/core/session"
	"github.com/trezcool/masomo-console/core/student"
	gatewaysvc "github.com/trezcool/masomo-console/services/gateway"
	remotesvc "github.com/trezcool/masomo-console/services/remote"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	readLineFunc     = readLine          // mockable

	errHelp          = errors.New("help provided")
	errFailed        = errors.New("command failed") // the reason was already notified
	errLoginRequired = errors.New("login required: run `console login -email EMAIL` first")
	errUploadBusy    = errors.New("another upload is still being processed")
)

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type deps struct {
	gateway  *gatewaysvc.Gateway
	store    credential.Store
	notifier core.Notifier
	logger   core.Logger
	previews document.PreviewPool
	out      io.Writer
}

type commandLine struct {
	out        io.Writer
	title      lipgloss.Style
	warn       lipgloss.Style
	logger     core.Logger
	session    *session.Controller
	nav        *guard.Navigator
	students   *student.Workflow
	extraction *document.Workflow[document.ExtractedFields]
	background *document.Workflow[document.Image]
}

func newCommandLine(d deps) (*commandLine, error) {
	ctrl, err := session.NewController(d.store, remotesvc.NewAuthClient(d.gateway), d.notifier, d.logger)
	if err != nil {
		return nil, err
	}
	students, err := student.NewWorkflow(remotesvc.NewStudentClient(d.gateway), d.notifier, d.logger)
	if err != nil {
		return nil, err
	}
	extraction, err := document.NewExtractionWorkflow(remotesvc.NewOCRClient(d.gateway), d.previews, d.notifier, d.logger)
	if err != nil {
		return nil, err
	}
	background, err := document.NewBackgroundWorkflow(remotesvc.NewBackgroundClient(d.gateway), d.previews, d.notifier, d.logger)
	if err != nil {
		return nil, err
	}

	r := lipgloss.NewRenderer(d.out)
	return &commandLine{
		out:        d.out,
		title:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		warn:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD600")),
		logger:     d.logger,
		session:    ctrl,
		nav:        guard.NewNavigator(ctrl),
		students:   students,
		extraction: extraction,
		background: background,
	}, nil
}

func (cli *commandLine) close() {
	cli.extraction.Close()
	cli.background.Close()
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                                   - sign in (the password is prompted next)")
	fmt.Fprintln(cli.out, "  register -email EMAIL                                - create an administrator account")
	fmt.Fprintln(cli.out, "  logout                                               - forget the stored credential")
	fmt.Fprintln(cli.out, "  whoami                                               - show the signed-in administrator")
	fmt.Fprintln(cli.out, "  students list                                        - list student records")
	fmt.Fprintln(cli.out, "  students add -name NAME -age AGE -course COURSE      - create a student record")
	fmt.Fprintln(cli.out, "  students edit -id ID [-name] [-age] [-course]        - update a student record")
	fmt.Fprintln(cli.out, "  students delete -id ID [-yes]                        - delete a student record")
	fmt.Fprintln(cli.out, "  ocr -file PATH                                       - extract Aadhaar card details")
	fmt.Fprintln(cli.out, "  removebg -file PATH [-out DIR]                       - remove an image background")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	cli.session.Start(ctx)

	switch args[1] {
	case "login":
		return cli.runLogin(ctx, args[2:])
	case "register":
		return cli.runRegister(ctx, args[2:])
	case "logout":
		return cli.runLogout(ctx)
	case "whoami":
		return cli.runWhoami()
	case "students":
		return cli.runStudents(ctx, args[2:])
	case "ocr":
		return cli.runOCR(ctx, args[2:])
	case "removebg":
		return cli.runRemoveBackground(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// open navigates to path and fails unless the view renders.
func (cli *commandLine) open(path string) error {
	out := cli.nav.Navigate(path)
	switch {
	case out.Action == guard.Render && out.Path == guard.Clean(path):
		return nil
	case out.Action == guard.Render && out.Path == guard.PathLogin:
		return errLoginRequired
	default:
		return fmt.Errorf("cannot open %s (%s %s)", path, out.Action, out.Path)
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) confirm(prompt string) bool {
	fmt.Fprintf(cli.out, "%s [y/N]: ", prompt)
	answer, err := readLineFunc()
	if err != nil {
		cli.logger.Error("reading confirmation", err)
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
