package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pet-vaccine-tracker/internal/adapters/auth/jwtauth"
	"pet-vaccine-tracker/internal/cli"
	"pet-vaccine-tracker/internal/router"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	api        *httptest.Server
	sessionDir string
}

// serverConfig es cómo corre el API: con clave JWT (login emite token) o con
// la config por defecto sin clave (solo X-Debug-User-ID).
type serverConfig struct {
	name string
	key  string
}

var serverConfigs = []serverConfig{
	{name: "jwt", key: "cli-test-key"},
	{name: "default_no_key", key: ""},
}

func (sc serverConfig) issuesTokens() bool { return sc.key != "" }

// forEachServer corre fn contra cada configuración del API.
func forEachServer(t *testing.T, fn func(t *testing.T, sc serverConfig, e env)) {
	for _, sc := range serverConfigs {
		t.Run(sc.name, func(t *testing.T) {
			fn(t, sc, setup(t, sc))
		})
	}
}

func setup(t *testing.T, sc serverConfig) env {
	t.Helper()
	// Igual que LoadAPI: sin clave, el modo debug queda prendido.
	api := httptest.NewServer(router.NewRouter(router.Options{
		JWT:        jwtauth.New(jwtauth.Config{SigningKey: sc.key}),
		DebugUsers: true,
		BcryptCost: bcrypt.MinCost,
	}))
	t.Cleanup(api.Close)

	dir := t.TempDir()
	t.Setenv("PETCTL_API_URL", api.URL)
	t.Setenv("PETCTL_SESSION_DIR", dir)
	t.Setenv("PETCTL_REDIS_URL", "")
	t.Setenv("PETCTL_TIMEOUT", "5s")
	return env{api: api, sessionDir: dir}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "petctl %s", strings.Join(args, " "))
	return out
}

func registerAna(t *testing.T) string {
	t.Helper()
	out := mustRun(t, "register", "--name", "Ana", "--email", "ana@example.com", "--password", "secreto")
	_, after, ok := strings.Cut(out, "(id ")
	require.True(t, ok, out)
	return strings.TrimSuffix(strings.TrimSpace(after), ")")
}

func TestCLI_SessionLifecycle(t *testing.T) {
	forEachServer(t, testSessionLifecycle)
}

func testSessionLifecycle(t *testing.T, sc serverConfig, e env) {
	registerAna(t)

	_, err := run(t, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hay sesión activa")

	_, err = run(t, "login", "--email", "ana@example.com", "--password", "otra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email o clave incorrectos")

	_, err = run(t, "login", "--email", "ghost@example.com", "--password", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "la cuenta no existe")

	out := mustRun(t, "login", "--email", "ANA@example.com", "--password", "secreto")
	assert.Contains(t, out, "Ana <ana@example.com>")
	raw, err := os.ReadFile(filepath.Join(e.sessionDir, "session.json"))
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(raw, &saved))
	_, hasToken := saved["session:token"]
	assert.Equal(t, sc.issuesTokens(), hasToken)

	// Otro proceso (nuevo root) recarga la sesión del disco.
	out = mustRun(t, "whoami")
	assert.Contains(t, out, "ana@example.com")

	out = mustRun(t, "profile", "--phone", "+55 11 99999-0000")
	assert.Contains(t, out, "+55 11 99999-0000")
	out = mustRun(t, "whoami")
	assert.Contains(t, out, "+55 11 99999-0000")

	_, err = run(t, "profile")
	require.Error(t, err)

	mustRun(t, "logout")
	mustRun(t, "logout")
	assert.NoFileExists(t, filepath.Join(e.sessionDir, "session.json"))
	_, err = run(t, "whoami")
	require.Error(t, err)
}

func TestCLI_DeletedAccountClearsSavedSession(t *testing.T) {
	forEachServer(t, testDeletedAccount)
}

func testDeletedAccount(t *testing.T, _ serverConfig, e env) {
	id := registerAna(t)
	mustRun(t, "login", "--email", "ana@example.com", "--password", "secreto")

	st, _ := apiReq(t, e.api.URL, http.MethodDelete, "/users/"+id, id, nil)
	require.Equal(t, http.StatusNoContent, st)

	_, err := run(t, "whoami")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(e.sessionDir, "session.json"))
}

func TestCLI_Dashboard(t *testing.T) {
	forEachServer(t, testDashboard)
}

func testDashboard(t *testing.T, _ serverConfig, e env) {
	id := registerAna(t)
	mustRun(t, "login", "--email", "ana@example.com", "--password", "secreto")

	st, body := apiReq(t, e.api.URL, http.MethodPost, "/pets", id, map[string]any{
		"name": "Milo", "species": "dog", "weight": "4,5",
	})
	require.Equal(t, http.StatusCreated, st, string(body))
	var pet struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &pet))

	day := func(n int) string { return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02") }
	for name, next := range map[string]string{"Rabia": day(-5), "V10": day(10), "Giardia": day(45)} {
		st, body := apiReq(t, e.api.URL, http.MethodPost, "/pets/"+pet.ID+"/vaccines", id, map[string]any{
			"name": name, "next_dose_on": next,
		})
		require.Equal(t, http.StatusCreated, st, string(body))
	}

	out := mustRun(t, "dashboard", "--json")
	var view struct {
		Stats struct {
			TotalPets        int `json:"totalPets"`
			TotalVaccines    int `json:"totalVaccines"`
			UpcomingVaccines int `json:"upcomingVaccines"`
			OverdueVaccines  int `json:"overdueVaccines"`
		} `json:"stats"`
		RecentPets []struct {
			Name   string `json:"name"`
			Weight string `json:"weight"`
		} `json:"recent_pets"`
		DueVaccines []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"due_vaccines"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view), out)
	assert.Equal(t, 1, view.Stats.TotalPets)
	assert.Equal(t, 3, view.Stats.TotalVaccines)
	assert.Equal(t, 1, view.Stats.UpcomingVaccines)
	assert.Equal(t, 1, view.Stats.OverdueVaccines)
	require.Len(t, view.RecentPets, 1)
	assert.Equal(t, "4.5 kg", view.RecentPets[0].Weight)
	require.Len(t, view.DueVaccines, 2)
	assert.Equal(t, "Rabia", view.DueVaccines[0].Name)
	assert.Equal(t, "overdue", view.DueVaccines[0].Status)
	assert.Equal(t, "V10", view.DueVaccines[1].Name)

	out = mustRun(t, "dashboard")
	assert.Contains(t, out, "Hola, Ana")
	assert.Contains(t, out, "Milo")
	assert.Contains(t, out, "Rabia")
	assert.NotContains(t, out, "Giardia")
}

func TestCLI_RedisSessionStorage(t *testing.T) {
	forEachServer(t, testRedisSessionStorage)
}

func testRedisSessionStorage(t *testing.T, sc serverConfig, e env) {
	mr := miniredis.RunT(t)
	t.Setenv("PETCTL_REDIS_URL", "redis://"+mr.Addr())

	registerAna(t)
	mustRun(t, "login", "--email", "ana@example.com", "--password", "secreto")

	assert.True(t, mr.Exists("petctl:session:user"))
	assert.Equal(t, sc.issuesTokens(), mr.Exists("petctl:session:token"))
	_, err := os.Stat(filepath.Join(e.sessionDir, "session.json"))
	assert.True(t, os.IsNotExist(err))

	out := mustRun(t, "whoami")
	assert.Contains(t, out, "ana@example.com")

	mustRun(t, "logout")
	assert.False(t, mr.Exists("petctl:session:user"))
}

func TestCLI_UnreachableAPI(t *testing.T) {
	setup(t, serverConfigs[0])
	t.Setenv("PETCTL_TIMEOUT", "1s")

	_, err := run(t, "--api-url", "http://127.0.0.1:1", "login", "--email", "ana@example.com", "--password", "secreto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no se pudo contactar el API")
}

func TestCLI_RegisterRequiresFlags(t *testing.T) {
	setup(t, serverConfigs[0])
	_, err := run(t, "register", "--email", "ana@example.com")
	require.Error(t, err)
}

func apiReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, baseURL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Debug-User-ID", debugUserID)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}
