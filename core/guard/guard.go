// Package guard decides which console views are reachable for a given session state.
package guard

import (
	"strings"
	"sync"

	"github.com/trezcool/masomo-console/core/session"
)

// Views
const (
	PathLogin      = "/login"
	PathRegister   = "/register"
	PathHome       = "/"
	PathStudents   = "/students"
	PathAadhaar    = "/aadhaar"
	PathBackground = "/bg-removal"
)

var (
	publicPaths  = map[string]bool{PathLogin: true, PathRegister: true}
	guardedPaths = map[string]bool{PathHome: true, PathStudents: true, PathAadhaar: true, PathBackground: true}
)

type Action int

const (
	// Suspend: nothing may render until the startup check resolves.
	Suspend Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "suspend"
	}
}

// Outcome is the decision for one navigation request.
// For Render, Path is the view to render; for Redirect, the target.
type Outcome struct {
	Action  Action
	Path    string
	Replace bool
}

// Clean normalizes a requested path: leading slash, no trailing slash, lower case.
func Clean(path string) string {
	path = strings.ToLower(strings.TrimSpace(path))
	path = "/" + strings.Trim(path, "/")
	return path
}

func IsPublic(path string) bool  { return publicPaths[Clean(path)] }
func IsGuarded(path string) bool { return guardedPaths[Clean(path)] }

// Decide is a pure function of the session state and the requested path.
// Authenticated sessions are not redirected away from the public views.
func Decide(st session.State, path string) Outcome {
	if st.Loading {
		return Outcome{Action: Suspend}
	}
	path = Clean(path)
	switch {
	case publicPaths[path]:
		return Outcome{Action: Render, Path: path}
	case !guardedPaths[path]:
		return Outcome{Action: Redirect, Path: PathHome, Replace: true}
	case !st.IsAuthenticated:
		return Outcome{Action: Redirect, Path: PathLogin, Replace: true}
	default:
		return Outcome{Action: Render, Path: path}
	}
}

// StateSource publishes the current session state.
type StateSource interface {
	State() session.State
}

// maxRedirects bounds redirect chains such as unknown -> / -> /login.
const maxRedirects = 4

// Navigator keeps a navigation history and applies Decide to every move.
// A redirect with Replace overwrites the entry of the rejected view, so Back never returns to it.
type Navigator struct {
	source StateSource

	mu      sync.Mutex
	history []string
}

func NewNavigator(source StateSource) *Navigator {
	return &Navigator{source: source}
}

// Navigate resolves path to the view that renders, following redirects.
// While the session is loading nothing is recorded and Suspend is returned.
func (n *Navigator) Navigate(path string) Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.history = append(n.history, Clean(path))
	return n.resolve()
}

// Back moves to the previous entry and resolves it again.
// With no previous entry the current view is resolved in place.
func (n *Navigator) Back() Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.history) > 1 {
		n.history = n.history[:len(n.history)-1]
	}
	if len(n.history) == 0 {
		return n.decideEmpty()
	}
	return n.resolve()
}

func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) == 0 {
		return ""
	}
	return n.history[len(n.history)-1]
}

func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}

func (n *Navigator) decideEmpty() Outcome {
	n.history = append(n.history, PathHome)
	return n.resolve()
}

// resolve decides the top entry until it renders. n.mu must be held.
func (n *Navigator) resolve() Outcome {
	st := n.source.State()
	for hop := 0; hop <= maxRedirects; hop++ {
		top := len(n.history) - 1
		out := Decide(st, n.history[top])
		switch out.Action {
		case Suspend:
			n.history = n.history[:top]
			return out
		case Render:
			return out
		}
		if out.Replace {
			n.history[top] = out.Path
		} else {
			n.history = append(n.history, out.Path)
		}
	}
	return Outcome{Action: Redirect, Path: n.history[len(n.history)-1], Replace: true}
}
