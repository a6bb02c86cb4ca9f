package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-console/core/session"
)

type staticSource struct {
	st session.State
}

func (s *staticSource) State() session.State { return s.st }

var allPaths = []string{PathLogin, PathRegister, PathHome, PathStudents, PathAadhaar, PathBackground, "/nowhere"}

func TestClean(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "", want: "/"},
		{path: "/", want: "/"},
		{path: "students", want: "/students"},
		{path: "/Students/", want: "/students"},
		{path: " /bg-removal ", want: "/bg-removal"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.path))
		})
	}
}

func TestDecide_Loading(t *testing.T) {
	for _, st := range []session.State{
		{Loading: true},
		{Loading: true, IsAuthenticated: true, Identity: "a@b.com"},
	} {
		for _, path := range allPaths {
			assert.Equal(t, Outcome{Action: Suspend}, Decide(st, path), "%+v %s", st, path)
		}
	}
}

func TestDecide(t *testing.T) {
	anon := session.State{}
	authed := session.State{IsAuthenticated: true, Identity: "a@b.com"}

	tests := []struct {
		name string
		st   session.State
		path string
		want Outcome
	}{
		{name: "anonymous login", st: anon, path: PathLogin, want: Outcome{Action: Render, Path: PathLogin}},
		{name: "anonymous register", st: anon, path: PathRegister, want: Outcome{Action: Render, Path: PathRegister}},
		{name: "anonymous home", st: anon, path: PathHome, want: Outcome{Action: Redirect, Path: PathLogin, Replace: true}},
		{name: "anonymous students", st: anon, path: PathStudents, want: Outcome{Action: Redirect, Path: PathLogin, Replace: true}},
		{name: "anonymous aadhaar", st: anon, path: PathAadhaar, want: Outcome{Action: Redirect, Path: PathLogin, Replace: true}},
		{name: "anonymous background", st: anon, path: PathBackground, want: Outcome{Action: Redirect, Path: PathLogin, Replace: true}},
		{name: "authenticated students", st: authed, path: "/students/", want: Outcome{Action: Render, Path: PathStudents}},
		{name: "authenticated background", st: authed, path: PathBackground, want: Outcome{Action: Render, Path: PathBackground}},
		// not redirected away from the public views
		{name: "authenticated login", st: authed, path: PathLogin, want: Outcome{Action: Render, Path: PathLogin}},
		{name: "authenticated register", st: authed, path: PathRegister, want: Outcome{Action: Render, Path: PathRegister}},
		{name: "unknown path", st: authed, path: "/reports", want: Outcome{Action: Redirect, Path: PathHome, Replace: true}},
		{name: "unknown path anonymous", st: anon, path: "/reports", want: Outcome{Action: Redirect, Path: PathHome, Replace: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.st, tt.path))
		})
	}
}

func TestDecide_GuardedViews(t *testing.T) {
	for path := range guardedPaths {
		assert.Equal(t, Redirect, Decide(session.State{}, path).Action, path)
		assert.Equal(t, PathLogin, Decide(session.State{}, path).Path, path)
		assert.Equal(t, Render, Decide(session.State{IsAuthenticated: true}, path).Action, path)
		assert.True(t, IsGuarded(path))
		assert.False(t, IsPublic(path))
	}
}

func TestNavigator_RedirectReplacesHistory(t *testing.T) {
	src := &staticSource{st: session.State{}}
	nav := NewNavigator(src)

	assert.Equal(t, Outcome{Action: Render, Path: PathRegister}, nav.Navigate(PathRegister))
	assert.Equal(t, Outcome{Action: Render, Path: PathLogin}, nav.Navigate(PathStudents))
	assert.Equal(t, []string{PathRegister, PathLogin}, nav.History())

	// back does not loop into the guarded view
	assert.Equal(t, Outcome{Action: Render, Path: PathRegister}, nav.Back())
	assert.Equal(t, PathRegister, nav.Current())
}

func TestNavigator_UnknownPath(t *testing.T) {
	src := &staticSource{st: session.State{}}
	nav := NewNavigator(src)

	// unknown -> / -> /login
	assert.Equal(t, Outcome{Action: Render, Path: PathLogin}, nav.Navigate("/reports"))
	assert.Equal(t, []string{PathLogin}, nav.History())

	src.st = session.State{IsAuthenticated: true}
	assert.Equal(t, Outcome{Action: Render, Path: PathHome}, nav.Navigate("/reports"))
	assert.Equal(t, []string{PathLogin, PathHome}, nav.History())
}

func TestNavigator_Loading(t *testing.T) {
	src := &staticSource{st: session.State{Loading: true}}
	nav := NewNavigator(src)

	assert.Equal(t, Outcome{Action: Suspend}, nav.Navigate(PathStudents))
	assert.Empty(t, nav.History())
	assert.Equal(t, "", nav.Current())

	src.st = session.State{IsAuthenticated: true}
	assert.Equal(t, Outcome{Action: Render, Path: PathStudents}, nav.Navigate(PathStudents))
}

func TestNavigator_Back(t *testing.T) {
	src := &staticSource{st: session.State{IsAuthenticated: true}}
	nav := NewNavigator(src)

	// nothing to go back to
	assert.Equal(t, Outcome{Action: Render, Path: PathHome}, nav.Back())

	nav.Navigate(PathStudents)
	nav.Navigate(PathAadhaar)
	assert.Equal(t, Outcome{Action: Render, Path: PathStudents}, nav.Back())

	// the previous entry is guarded again after logout
	nav.Navigate(PathBackground)
	src.st = session.State{}
	assert.Equal(t, Outcome{Action: Render, Path: PathLogin}, nav.Back())
	assert.Equal(t, []string{PathHome, PathLogin}, nav.History())
}
