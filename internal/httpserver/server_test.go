package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/service"
	redisstore "github.com/MrSnakeDoc/bookmarkhub/internal/store/redis"
)

type testServer struct {
	*httptest.Server
	deps deps.Deps
}

func newTestServer(t *testing.T, tweak func(*deps.Deps)) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := redisstore.NewStore(client)
	ws := index.NewWorkspace()
	log := logger.NewNop()

	d := deps.Deps{
		Logger:             log,
		StartTime:          time.Now(),
		Version:            "test",
		RedisClient:        client,
		Service:            service.New(st, ws, log),
		Auth:               auth.NewService(st, time.Hour, bcrypt.MinCost),
		Workspace:          ws,
		SessionCookie:      "bookmarkhub_session",
		ImportMaxBytes:     1 << 20,
		SignInBurst:        100,
		SignInRefillPerMin: 100,
	}
	if tweak != nil {
		tweak(&d)
	}

	srv := httptest.NewServer(NewRouter(5*time.Second, log, d))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, deps: d}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/auth/signup", "", `{"email":"`+email+`","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[auth.Session](t, resp).Token
}

type listBody struct {
	Pinned   []struct{ ID, Title string } `json:"pinned"`
	Unpinned []struct{ ID, Title string } `json:"unpinned"`
	SortKey  string                       `json:"sortKey"`
	Ordering bool                         `json:"ordering"`
	Total    int                          `json:"total"`
}

func titles(items []struct{ ID, Title string }) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func (s *testServer) create(t *testing.T, token, title, url string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/bookmarks", token, `{"title":"`+title+`","url":"`+url+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[struct{ ID string }](t, resp).ID
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[healthzBody](t, resp)
	if body.Status != "ok" || body.Version != "test" {
		t.Errorf("healthz = %+v, want status ok and version test", body)
	}
}

type healthzBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decode[struct{ Ready bool }](t, resp).Ready)
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/bookmarks", "/api/tags", "/api/settings", "/api/auth/session"} {
		resp := s.do(t, http.MethodGet, path, "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, resp.StatusCode)
			continue
		}
		body := decode[struct{ Hint string }](t, resp)
		if body.Hint != "sign_in" {
			t.Errorf("GET %s hint = %q, want sign_in", path, body.Hint)
		}
	}

	resp := s.do(t, http.MethodGet, "/api/bookmarks", "not-a-token", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "ann@example.com")

	resp := s.do(t, http.MethodPost, "/api/auth/signup", "", `{"email":"ANN@example.com","password":"another one"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/signup", "", `{"email":"nope","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/signin", "", `{"email":"ann@example.com","password":"wrong password"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/auth/signin", "", `{"email":"ann@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "bookmarkhub_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	// The cookie alone authenticates.
	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/auth/session", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	cresp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer cresp.Body.Close()
	require.Equal(t, http.StatusOK, cresp.StatusCode)
	require.Equal(t, "ann@example.com", decode[auth.Session](t, cresp).Email)

	resp = s.do(t, http.MethodPost, "/api/auth/signout", token, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/auth/session", token, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignInRateLimit(t *testing.T) {
	s := newTestServer(t, func(d *deps.Deps) {
		d.SignInBurst = 2
		d.SignInRefillPerMin = 1
	})

	body := `{"email":"ghost@example.com","password":"whatever1"}`
	for i := 0; i < 2; i++ {
		resp := s.do(t, http.MethodPost, "/api/auth/signin", "", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := s.do(t, http.MethodPost, "/api/auth/signin", "", body)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestBookmarkLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "ann@example.com")

	goID := s.create(t, token, "Go", "https://go.dev")
	s.create(t, token, "Rust", "https://rust-lang.org")

	resp := s.do(t, http.MethodPost, "/api/bookmarks", token, `{"title":"Broken","url":"not a url"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/bookmarks/"+goID+"/pin", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decode[struct {
		Pinned bool `json:"isPinned"`
	}](t, resp).Pinned)

	resp = s.do(t, http.MethodPost, "/api/bookmarks/"+goID+"/access", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, decode[struct {
		AccessCount int `json:"accessCount"`
	}](t, resp).AccessCount)

	resp = s.do(t, http.MethodGet, "/api/bookmarks?sort=title&order=asc", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[listBody](t, resp)
	require.Equal(t, 2, list.Total)
	require.Equal(t, []string{"Go"}, titles(list.Pinned))
	require.Equal(t, []string{"Rust"}, titles(list.Unpinned))

	resp = s.do(t, http.MethodGet, "/api/bookmarks?q=rus", token, "")
	require.Equal(t, 1, decode[listBody](t, resp).Total)

	resp = s.do(t, http.MethodGet, "/api/bookmarks?sort=bogus", token, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/bookmarks/"+goID, token, `{"title":"Golang","url":"https://go.dev","tags":["lang"],"isPinned":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[struct {
		Title string
		Tags  []string
	}](t, resp)
	require.Equal(t, "Golang", edited.Title)
	require.Equal(t, []string{"lang"}, edited.Tags)

	resp = s.do(t, http.MethodGet, "/api/bookmarks?tags=lang", token, "")
	require.Equal(t, []string{"Golang"}, titles(decode[listBody](t, resp).Pinned))

	resp = s.do(t, http.MethodDelete, "/api/bookmarks/"+goID, token, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/bookmarks/"+goID, token, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/bookmarks", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, decode[struct{ Deleted int }](t, resp).Deleted)
}

func TestBookmarksAreScopedPerUser(t *testing.T) {
	s := newTestServer(t, nil)
	ann := s.signUp(t, "ann@example.com")
	bob := s.signUp(t, "bob@example.com")

	id := s.create(t, ann, "Go", "https://go.dev")

	resp := s.do(t, http.MethodGet, "/api/bookmarks", bob, "")
	require.Equal(t, 0, decode[listBody](t, resp).Total)
	resp = s.do(t, http.MethodDelete, "/api/bookmarks/"+id, bob, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTagsAndRules(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "ann@example.com")
	s.create(t, token, "Go", "https://go.dev")
	s.create(t, token, "Rust", "https://rust-lang.org")

	resp := s.do(t, http.MethodPost, "/api/tags", token, `{"name":"golang"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tagID := decode[struct{ ID string }](t, resp).ID

	resp = s.do(t, http.MethodPost, "/api/tags", token, `{"name":"GoLang"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/rules", token,
		`{"targetField":"url","matchType":"contains","pattern":"go.dev","tagId":"`+tagID+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[struct {
		Rule    struct{ ID string }
		Matched int
	}](t, resp)
	require.Equal(t, 1, created.Matched)

	resp = s.do(t, http.MethodPost, "/api/rules", token,
		`{"targetField":"body","matchType":"contains","pattern":"x","tagId":"`+tagID+`"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/bookmarks?tags=golang", token, "")
	require.Equal(t, []string{"Go"}, titles(decode[listBody](t, resp).Unpinned))

	resp = s.do(t, http.MethodDelete, "/api/rules/"+created.Rule.ID+"?remove_tags=maybe", token, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.do(t, http.MethodDelete, "/api/rules/"+created.Rule.ID+"?remove_tags=true", token, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/bookmarks?tags=golang", token, "")
	require.Equal(t, 0, decode[listBody](t, resp).Total)

	resp = s.do(t, http.MethodPatch, "/api/tags/"+tagID, token, `{"name":"go"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/tags", token, `{"names":["web","dev"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tags := decode[[]struct{ Name string }](t, resp)
	names := make([]string, len(tags))
	for i, tg := range tags {
		names[i] = tg.Name
	}
	require.ElementsMatch(t, []string{"web", "dev"}, names)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "ann@example.com")

	resp := s.do(t, http.MethodGet, "/api/settings", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	require.Equal(t, "grid", got["viewMode"])
	require.Equal(t, "accessCount", got["sortKey"])

	resp = s.do(t, http.MethodPut, "/api/settings", token, `{"viewMode":"list","listColumns":2,"sortKey":"title","sortOrder":"asc"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/settings", token, `{"viewMode":"list","listColumns":9,"sortKey":"title","sortOrder":"asc"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The list falls back to the stored sort.
	resp = s.do(t, http.MethodGet, "/api/bookmarks", token, "")
	list := decode[listBody](t, resp)
	require.Equal(t, "title", list.SortKey)
}

func TestOrderingFlow(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "ann@example.com")
	s.create(t, token, "A", "https://a.example")
	s.create(t, token, "B", "https://b.example")
	s.create(t, token, "C", "https://c.example")

	resp := s.do(t, http.MethodPost, "/api/ordering/move", token, `{"oldIndex":0,"newIndex":1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/ordering", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[listBody](t, resp)
	require.True(t, list.Ordering)
	require.Equal(t, []string{"A", "B", "C"}, titles(list.Unpinned))

	resp = s.do(t, http.MethodPost, "/api/ordering/move", token, `{"oldIndex":0,"newIndex":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decode[listBody](t, resp)
	require.Equal(t, []string{"B", "C", "A"}, titles(moved.Unpinned))
	require.Equal(t, "custom", moved.SortKey)

	resp = s.do(t, http.MethodPost, "/api/ordering/move", token, `{"oldIndex":0,"newIndex":7}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// While ordering, the list shows the working order.
	resp = s.do(t, http.MethodGet, "/api/bookmarks", token, "")
	require.Equal(t, []string{"B", "C", "A"}, titles(decode[listBody](t, resp).Unpinned))

	resp = s.do(t, http.MethodPost, "/api/ordering/end", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ended := decode[listBody](t, resp)
	require.False(t, ended.Ordering)
	require.Equal(t, "custom", ended.SortKey)
	require.Equal(t, []string{"B", "C", "A"}, titles(ended.Unpinned))

	resp = s.do(t, http.MethodGet, "/api/bookmarks?sort=custom", token, "")
	require.Equal(t, []string{"B", "C", "A"}, titles(decode[listBody](t, resp).Unpinned))

	resp = s.do(t, http.MethodDelete, "/api/ordering", token, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportExport(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "ann@example.com")
	s.create(t, token, "Go", "https://go.dev")

	file := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
<DT><A HREF="https://go.dev" ADD_DATE="1700000000">Go again</A>
<DT><A HREF="https://rust-lang.org" ADD_DATE="1700000000">Rust</A>
<DT><A HREF="https://rust-lang.org">Rust twice</A>
<DT><A HREF="javascript:alert(1)">Bookmarklet</A>
</DL><p>`

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/bookmarks/import", strings.NewReader(file))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/html")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decode[struct{ Imported, Duplicates, Skipped int }](t, resp)
	if report.Imported != 1 || report.Duplicates != 2 || report.Skipped != 1 {
		t.Errorf("import report = %+v, want imported 1, duplicates 2, skipped 1", report)
	}

	exp := s.do(t, http.MethodGet, "/api/bookmarks/export", token, "")
	require.Equal(t, http.StatusOK, exp.StatusCode)
	require.Contains(t, exp.Header.Get("Content-Disposition"), "bookmarks_")
	raw, err := io.ReadAll(exp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), `HREF="https://rust-lang.org"`)
	require.Contains(t, string(raw), `HREF="https://go.dev"`)
}

func TestImportTooLarge(t *testing.T) {
	s := newTestServer(t, func(d *deps.Deps) { d.ImportMaxBytes = 16 })
	token := s.signUp(t, "ann@example.com")

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/bookmarks/import",
		strings.NewReader(`<A HREF="https://go.dev">Go</A><A HREF="https://rust-lang.org">Rust</A>`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReload(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/reload", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	trigger := make(chan struct{}, 1)
	s = newTestServer(t, func(d *deps.Deps) { d.SyncTrigger = trigger })

	resp = s.do(t, http.MethodPost, "/reload", "", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp = s.do(t, http.MethodPost, "/reload", "", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestOpsEndpointsHonourCIDRs(t *testing.T) {
	s := newTestServer(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	resp := s.do(t, http.MethodGet, "/infra", "", "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
