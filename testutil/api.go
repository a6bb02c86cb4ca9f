// Package testutil holds shared test helpers: an in-process fake of the remote API,
// a recording logger and the credential store contract checks.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
)

// PNGHeader prefixes every image returned by the fake background removal endpoint.
var PNGHeader = []byte("\x89PNG\r\n\x1a\n")

// Student mirrors the remote student record.
type Student struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Course string `json:"course"`
}

type studentPayload struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Course *string `json:"course"`
}

// Upload describes the last file received by an upload endpoint.
type Upload struct {
	Field    string
	Filename string
	Content  []byte
}

type failure struct {
	status int
	body   interface{}
}

// Claims are the claims of the tokens minted by the fake API.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

// API is an in-process fake of the remote API the console talks to.
type API struct {
	srv        *httptest.Server
	app        *echo.Echo
	signingKey []byte
	tokenTTL   time.Duration

	mu        sync.Mutex
	accounts  map[string][]byte // email -> bcrypt hash
	students  []Student
	calls     map[string]int
	failures  map[string]failure
	delays    map[string]time.Duration
	lastAuth  string
	uploads   map[string]Upload
	ocrResult map[string]interface{}
	bgResult  []byte
}

// NewAPI starts a fake remote API; it is closed when the test ends.
func NewAPI(t *testing.T) *API {
	t.Helper()
	api := &API{
		app:        echo.New(),
		signingKey: []byte("masomo-test-secret"),
		tokenTTL:   time.Hour,
		accounts:   make(map[string][]byte),
		students:   make([]Student, 0),
		calls:      make(map[string]int),
		failures:   make(map[string]failure),
		delays:     make(map[string]time.Duration),
		uploads:    make(map[string]Upload),
		ocrResult: map[string]interface{}{
			"name":           "J Doe",
			"dob":            "01/01/1990",
			"aadhaar_number": "1234 5678 9012",
		},
	}
	api.setup()
	api.srv = httptest.NewServer(api.app)
	t.Cleanup(api.srv.Close)
	return api
}

func (api *API) setup() {
	app := api.app
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = detailErrorHandler
	app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	app.Use(api.recordCall)

	jwtMw := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    api.signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		Claims:        new(Claims),
		ErrorHandler: func(error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		},
	})

	auth := app.Group("/auth")
	auth.POST("/login", api.login)
	auth.POST("/register", api.register)

	app.GET("/students/", api.listStudents, jwtMw)
	app.POST("/students/", api.createStudent, jwtMw)
	app.PUT("/students/:id", api.updateStudent, jwtMw)
	app.DELETE("/students/:id", api.deleteStudent, jwtMw)

	utils := app.Group("/utils", jwtMw)
	utils.POST("/ocr", api.ocr)
	utils.POST("/remove-bg", api.removeBackground)
}

// URL is the base endpoint of the fake API.
func (api *API) URL() string { return api.srv.URL }

// Close stops the server; later calls fail at the transport level.
func (api *API) Close() { api.srv.Close() }

// AddAccount registers an account that can log in.
func (api *API) AddAccount(t *testing.T, email, pwd string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("AddAccount(): %v", err)
	}
	api.mu.Lock()
	api.accounts[strings.ToLower(email)] = hash
	api.mu.Unlock()
}

func (api *API) HasAccount(email string) bool {
	api.mu.Lock()
	defer api.mu.Unlock()
	_, ok := api.accounts[strings.ToLower(email)]
	return ok
}

// Token mints a valid token for email.
func (api *API) Token(t *testing.T, email string) string {
	t.Helper()
	token, err := api.mintToken(email, time.Now().Add(api.tokenTTL))
	if err != nil {
		t.Fatalf("Token(): %v", err)
	}
	return token
}

// ExpiredToken mints a correctly signed token that expired an hour ago.
func (api *API) ExpiredToken(t *testing.T, email string) string {
	t.Helper()
	token, err := api.mintToken(email, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ExpiredToken(): %v", err)
	}
	return token
}

func (api *API) mintToken(email string, exp time.Time) (string, error) {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   email,
			ExpiresAt: exp.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(api.signingKey)
}

// SeedStudents replaces the remote student list; missing ids are generated.
func (api *API) SeedStudents(students ...Student) []Student {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.students = make([]Student, 0, len(students))
	for _, s := range students {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		api.students = append(api.students, s)
	}
	return append([]Student(nil), api.students...)
}

func (api *API) Students() []Student {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]Student(nil), api.students...)
}

// Fail makes route ("METHOD /path" as registered, e.g. "PUT /students/:id") answer
// with status and body until Recover is called.
func (api *API) Fail(route string, status int, body interface{}) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.failures[route] = failure{status: status, body: body}
}

func (api *API) Recover(route string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	delete(api.failures, route)
}

// Delay holds every request to route for d before handling it.
func (api *API) Delay(route string, d time.Duration) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.delays[route] = d
}

// Calls returns how many times route was hit.
func (api *API) Calls(route string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.calls[route]
}

// TotalCalls returns how many requests were received on any route.
func (api *API) TotalCalls() int {
	api.mu.Lock()
	defer api.mu.Unlock()
	var n int
	for _, c := range api.calls {
		n += c
	}
	return n
}

func (api *API) ResetCalls() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.calls = make(map[string]int)
}

// LastAuthorization returns the Authorization header of the last request.
func (api *API) LastAuthorization() string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.lastAuth
}

// LastUpload returns the last file received on route.
func (api *API) LastUpload(route string) (Upload, bool) {
	api.mu.Lock()
	defer api.mu.Unlock()
	up, ok := api.uploads[route]
	return up, ok
}

// SetOCRResult sets the JSON object returned by the OCR endpoint.
func (api *API) SetOCRResult(fields map[string]interface{}) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.ocrResult = fields
}

// SetBackgroundResult sets the image returned by the background removal endpoint.
// By default it echoes PNGHeader followed by the uploaded content.
func (api *API) SetBackgroundResult(img []byte) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.bgResult = img
}

func (api *API) recordCall(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		route := ctx.Request().Method + " " + ctx.Path()

		api.mu.Lock()
		api.calls[route]++
		api.lastAuth = ctx.Request().Header.Get(echo.HeaderAuthorization)
		fail, failing := api.failures[route]
		delay := api.delays[route]
		api.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if failing {
			if fail.body == nil {
				return ctx.NoContent(fail.status)
			}
			return ctx.JSON(fail.status, fail.body)
		}
		return next(ctx)
	}
}

// detailErrorHandler renders errors as {"detail": ...} bodies.
func detailErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var detail interface{} = http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		detail = he.Message
	}
	if err := ctx.JSON(code, echo.Map{"detail": detail}); err != nil {
		ctx.Logger().Error(err)
	}
}

// missingField returns a validation error list for the given body fields.
func missingField(fields ...string) *echo.HTTPError {
	items := make([]echo.Map, 0, len(fields))
	for _, f := range fields {
		items = append(items, echo.Map{"loc": []string{"body", f}, "msg": "field required", "type": "value_error.missing"})
	}
	return echo.NewHTTPError(http.StatusUnprocessableEntity, items)
}

func (api *API) login(ctx echo.Context) error {
	uname := ctx.FormValue("username")
	pwd := ctx.FormValue("password")
	switch {
	case uname == "" && pwd == "":
		return missingField("username", "password")
	case uname == "":
		return missingField("username")
	case pwd == "":
		return missingField("password")
	}

	api.mu.Lock()
	hash, ok := api.accounts[strings.ToLower(uname)]
	api.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(pwd)) != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Incorrect email or password")
	}

	token, err := api.mintToken(uname, time.Now().Add(api.tokenTTL))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"access_token": token, "token_type": "bearer"})
}

func (api *API) register(ctx echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return missingField("email", "password")
	}
	if err := ctx.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid JSON body")
	}
	if body.Email == "" {
		return missingField("email")
	}
	if len(body.Password) < 6 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, []echo.Map{
			{"loc": []string{"body", "password"}, "msg": "ensure this value has at least 6 characters"},
		})
	}

	email := strings.ToLower(body.Email)
	api.mu.Lock()
	defer api.mu.Unlock()
	if _, exists := api.accounts[email]; exists {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	api.accounts[email] = hash
	return ctx.JSON(http.StatusCreated, echo.Map{"email": email})
}

func (api *API) listStudents(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.Students())
}

func bindStudent(ctx echo.Context, partial bool) (studentPayload, error) {
	var p studentPayload
	if err := ctx.Bind(&p); err != nil {
		return p, echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid JSON body")
	}
	if partial {
		return p, nil
	}
	missing := make([]string, 0)
	if p.Name == nil || *p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Age == nil {
		missing = append(missing, "age")
	}
	if p.Course == nil || *p.Course == "" {
		missing = append(missing, "course")
	}
	if len(missing) > 0 {
		return p, missingField(missing...)
	}
	return p, nil
}

func (api *API) createStudent(ctx echo.Context) error {
	p, err := bindStudent(ctx, false)
	if err != nil {
		return err
	}
	if *p.Age <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Age must be positive")
	}
	s := Student{ID: uuid.NewString(), Name: *p.Name, Age: *p.Age, Course: *p.Course}

	api.mu.Lock()
	api.students = append(api.students, s)
	api.mu.Unlock()
	return ctx.JSON(http.StatusCreated, s)
}

func (api *API) updateStudent(ctx echo.Context) error {
	p, err := bindStudent(ctx, true)
	if err != nil {
		return err
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	for i, s := range api.students {
		if s.ID != ctx.Param("id") {
			continue
		}
		if p.Name != nil {
			s.Name = *p.Name
		}
		if p.Age != nil {
			s.Age = *p.Age
		}
		if p.Course != nil {
			s.Course = *p.Course
		}
		api.students[i] = s
		return ctx.JSON(http.StatusOK, s)
	}
	return echo.NewHTTPError(http.StatusNotFound, "Student not found")
}

func (api *API) deleteStudent(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	for i, s := range api.students {
		if s.ID == ctx.Param("id") {
			api.students = append(api.students[:i], api.students[i+1:]...)
			return ctx.JSON(http.StatusOK, echo.Map{"message": "Student deleted"})
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Student not found")
}

func (api *API) receiveFile(ctx echo.Context) (Upload, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return Upload{}, missingField("file")
	}
	f, err := fh.Open()
	if err != nil {
		return Upload{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, err
	}
	up := Upload{Field: "file", Filename: fh.Filename, Content: content}

	api.mu.Lock()
	api.uploads[ctx.Request().Method+" "+ctx.Path()] = up
	api.mu.Unlock()
	return up, nil
}

func (api *API) ocr(ctx echo.Context) error {
	if _, err := api.receiveFile(ctx); err != nil {
		return err
	}
	api.mu.Lock()
	result := api.ocrResult
	api.mu.Unlock()
	return ctx.JSON(http.StatusOK, result)
}

func (api *API) removeBackground(ctx echo.Context) error {
	up, err := api.receiveFile(ctx)
	if err != nil {
		return err
	}
	api.mu.Lock()
	img := api.bgResult
	api.mu.Unlock()
	if img == nil {
		img = append(append([]byte(nil), PNGHeader...), up.Content...)
	}
	return ctx.Stream(http.StatusOK, "image/png", bytes.NewReader(img))
}

// Route formats a route key as used by Fail, Calls and LastUpload.
func Route(method, path string) string {
	return fmt.Sprintf("%s %s", method, path)
}
