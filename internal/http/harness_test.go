package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"shopadmin/internal/backend"
	"shopadmin/internal/config"
	"shopadmin/internal/csvpreview"
	"shopadmin/internal/domain"
	"shopadmin/internal/gate"
	"shopadmin/internal/http/handlers"
	applog "shopadmin/internal/log"
	"shopadmin/internal/productform"
	"shopadmin/internal/services"
	"shopadmin/internal/session"
)

const (
	goodPassword = "Passw0rd!"
	backendToken = "tok-123"
	maxUpload    = 1 << 20
)

// pngBytes is a PNG signature plus an IHDR chunk header, enough for sniffing.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0}

type filePart struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

type recorded struct {
	Method string
	Path   string
	Token  string
	Fields map[string]string
	Files  map[string]filePart
}

// fakeBackend stands in for the catalog REST service.
type fakeBackend struct {
	mu       sync.Mutex
	order    []string
	products map[string]domain.Product
	requests []recorded

	// createMessage is returned by create-product; empty means no message.
	createMessage string
	// rawList, when set, is sent as is for the product list.
	rawList string
	// When hold is set, update-product signals held and waits for hold to close.
	hold chan struct{}
	held chan struct{}
}

func newFakeBackend(t *testing.T, seed ...domain.Product) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{products: map[string]domain.Product{}}
	for _, p := range seed {
		fb.order = append(fb.order, p.ID)
		fb.products[p.ID] = p
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", fb.login)
	mux.HandleFunc("GET /api/product/get", fb.authed(fb.get))
	mux.HandleFunc("POST /api/product/create-product", fb.authed(fb.create))
	mux.HandleFunc("PUT /api/product/update-product/{id}", fb.authed(fb.update))
	mux.HandleFunc("DELETE /api/product/delete-product/{id}", fb.authed(fb.remove))
	mux.HandleFunc("POST /api/product/create-product-by-csv", fb.authed(fb.csv))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fb *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Password != goodPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": backendToken,
		"user": domain.User{
			ID:      "u-" + strings.SplitN(body.Email, "@", 2)[0],
			Email:   body.Email,
			IsAdmin: strings.HasPrefix(body.Email, "admin"),
		},
	})
}

func (fb *fakeBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("access_token") != backendToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (fb *fakeBackend) record(r *http.Request) recorded {
	rec := recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Token:  r.Header.Get("access_token"),
		Fields: map[string]string{},
		Files:  map[string]filePart{},
	}
	if err := r.ParseMultipartForm(10 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			rec.Fields[k] = v[0]
		}
		for k, fhs := range r.MultipartForm.File {
			f, err := fhs[0].Open()
			if err != nil {
				continue
			}
			data, _ := io.ReadAll(f)
			f.Close()
			rec.Files[k] = filePart{Field: k, Name: fhs[0].Filename, ContentType: fhs[0].Header.Get("Content-Type"), Data: data}
		}
	}
	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	fb.mu.Unlock()
	return rec
}

func (fb *fakeBackend) last() (recorded, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) == 0 {
		return recorded{}, false
	}
	return fb.requests[len(fb.requests)-1], true
}

func (fb *fakeBackend) get(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if id := r.URL.Query().Get("productId"); id != "" {
		p, ok := fb.products[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": p})
		return
	}
	if fb.rawList != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, fb.rawList)
		return
	}
	list := make([]domain.Product, 0, len(fb.order))
	for _, id := range fb.order {
		list = append(list, fb.products[id])
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": list})
}

func (fb *fakeBackend) create(w http.ResponseWriter, r *http.Request) {
	fb.record(r)
	fb.mu.Lock()
	msg := fb.createMessage
	fb.mu.Unlock()
	if msg == "" {
		writeJSON(w, http.StatusCreated, map[string]any{})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

func (fb *fakeBackend) update(w http.ResponseWriter, r *http.Request) {
	fb.record(r)
	fb.mu.Lock()
	hold, held := fb.hold, fb.held
	fb.mu.Unlock()
	if hold != nil {
		held <- struct{}{}
		<-hold
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product " + r.PathValue("id") + " updated"})
}

func (fb *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, ok := fb.products[id]; !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Product not found"})
		return
	}
	delete(fb.products, id)
	for i, o := range fb.order {
		if o == id {
			fb.order = append(fb.order[:i], fb.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Product deleted successfully"})
}

func (fb *fakeBackend) csv(w http.ResponseWriter, r *http.Request) {
	fb.record(r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Products imported"})
}

type harnessOpts struct {
	loginMax        int
	importAdminOnly bool
}

// harness is a fully wired dashboard plus a tiny browser with a cookie jar.
type harness struct {
	t       *testing.T
	app     *fiber.App
	backend *fakeBackend
	store   *session.MemoryStore
	logs    *lockedBuffer
	jar     map[string]string
}

func newHarness(t *testing.T, seed ...domain.Product) *harness {
	return newHarnessWith(t, harnessOpts{loginMax: 100, importAdminOnly: true}, seed...)
}

func newHarnessWith(t *testing.T, opts harnessOpts, seed ...domain.Product) *harness {
	t.Helper()
	fb, srv := newFakeBackend(t, seed...)

	logs := &lockedBuffer{}
	applog.SetOutput(logs)
	t.Cleanup(func() { applog.SetOutput(os.Stdout) })

	api := backend.New(srv.URL+"/api", 5*time.Second)
	store := session.NewMemoryStore()
	catalog := services.NewCatalogService(api)
	tracker := csvpreview.NewTracker()
	imports := services.NewImportService(api, tracker)
	var auth *services.AuthService
	forms := productform.NewRegistry(func(clientID string, mode productform.Mode) *productform.Form {
		fbk := services.FormBackend{
			Catalog: catalog,
			Token:   func(ctx context.Context) (string, error) { return auth.Token(ctx, clientID) },
		}
		return productform.New(mode, fbk, fbk, time.UTC)
	})
	auth = services.NewAuthService(api, store, forms, tracker)

	g, err := gate.New(gate.DefaultPublicPaths, config.DefaultGateRoutes)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	ck := handlers.DefaultCookies
	deps := handlers.NewDeps(auth, catalog, forms, imports, ck, maxUpload)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		Immutable:    true,
		BodyLimit:    4 * maxUpload,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(requestid.New())
	app.Use(handlers.ClientID(ck))
	app.Use(handlers.RouteGate(g, ck))
	app.Use(handlers.LoadUser(auth))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))

	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{Max: opts.loginMax, Expiration: time.Minute}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/profile", handlers.Placeholder("Profile"))
	app.Get("/", deps.DashboardHandler.Home)
	app.Get("/get-products", deps.ProductHandler.List)
	app.Post("/delete-product/:productId", deps.ProductHandler.Delete)
	app.Get("/add-to-product", deps.ProductHandler.NewForm)
	app.Post("/add-to-product", deps.ProductHandler.Create)
	app.Get("/update-product/:productId", deps.ProductHandler.EditForm)
	app.Post("/update-product/:productId", deps.ProductHandler.Update)
	guard := func(c *fiber.Ctx) error { return c.Next() }
	if opts.importAdminOnly {
		guard = handlers.RequireAdmin(auth)
	}
	app.Get("/upload-product-by-csv", guard, deps.ImportHandler.Page)
	app.Post("/upload-product-by-csv", guard, deps.ImportHandler.Submit)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	return &harness{t: t, app: app, backend: fb, store: store, logs: logs, jar: map[string]string{}}
}

func (h *harness) do(req *http.Request) *http.Response {
	h.t.Helper()
	for name, v := range h.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := h.app.Test(req, -1)
	if err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) || c.MaxAge < 0 {
			delete(h.jar, c.Name)
			continue
		}
		h.jar[c.Name] = c.Value
	}
	return resp
}

func (h *harness) get(path string) *http.Response {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrfToken makes sure the jar holds a csrf cookie and returns it.
func (h *harness) csrfToken() string {
	h.t.Helper()
	if tok := h.jar["csrf_"]; tok != "" {
		return tok
	}
	h.get("/healthz")
	if h.jar["csrf_"] == "" {
		h.t.Fatal("csrf token missing")
	}
	return h.jar["csrf_"]
}

func (h *harness) postForm(path string, form url.Values) *http.Response {
	h.t.Helper()
	form.Set("csrf", h.csrfToken())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) postMultipart(path string, fields map[string]string, files ...filePart) *http.Response {
	h.t.Helper()
	return h.do(h.multipartRequest(path, fields, files...))
}

// multipartRequest builds a form post carrying the csrf field. Cookies are added by do.
func (h *harness) multipartRequest(path string, fields map[string]string, files ...filePart) *http.Request {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("csrf", h.csrfToken())
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.Field, f.Name))
		hdr.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			h.t.Fatal(err)
		}
		_, _ = part.Write(f.Data)
	}
	if err := w.Close(); err != nil {
		h.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (h *harness) login(email string) {
	h.t.Helper()
	h.get("/login")
	resp := h.postForm("/login", url.Values{"email": {email}, "password": {goodPassword}})
	if resp.StatusCode != http.StatusFound {
		h.t.Fatalf("login: expected 302, got %d", resp.StatusCode)
	}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Path   string         `json:"path"`
	Fields map[string]any `json:"fields"`
}

func (h *harness) entries() []logEntry {
	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(h.logs.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			out = append(out, e)
		}
	}
	return out
}

func (h *harness) find(action string) (logEntry, bool) {
	for _, e := range h.entries() {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
