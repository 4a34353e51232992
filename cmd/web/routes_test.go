package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/config"
	"github.com/AdamBeresnev/esports-bracket/internal/db"
	"github.com/AdamBeresnev/esports-bracket/internal/live"
	"github.com/AdamBeresnev/esports-bracket/internal/service"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	database, err := db.InitMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{RoundSpacing: time.Hour, CORSOrigins: []string{"https://overlay.test"}}
	app := newApplication(cfg, database, scs.New(), live.NewHub(), nil)

	srv := httptest.NewServer(newRouter(app))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, client *http.Client, target string) *http.Response {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutes_AnonymousPages(t *testing.T) {
	srv, client := newTestServer(t)

	for _, path := range []string{"/", "/games", "/teams", "/leaderboard", "/login"} {
		resp := get(t, client, srv.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp := get(t, client, srv.URL+"/tournaments/create")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = get(t, client, srv.URL+"/matches/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, client, srv.URL+"/tournaments/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_CreateAndStartTournament(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postForm(t, client, srv.URL+"/auth/guest", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = get(t, client, srv.URL+"/tournaments/create")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	form := url.Values{
		"name":        {"Spring Cup"},
		"game":        {"Valorant"},
		"max_players": {"8"},
		"starts_at":   {"2026-05-01T18:00"},
		"team_name_0": {"Alpha"},
		"team_name_2": {"Gamma"},
		"team_name_1": {"Beta"},
		"team_name_3": {""},
	}
	resp = postForm(t, client, srv.URL+"/tournaments", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/tournaments/"))
	id := strings.TrimPrefix(location, "/tournaments/")

	resp = get(t, client, srv.URL+location)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postForm(t, client, srv.URL+location+"/start", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = get(t, client, srv.URL+"/api/tournaments/"+id+"/bracket")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var bracketResp struct {
		Rounds []struct {
			Name string `json:"name"`
		} `json:"rounds"`
		Registered  []json.RawMessage `json:"registered"`
		ActiveRound int               `json:"activeRound"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bracketResp))
	assert.Len(t, bracketResp.Rounds, 2)
	assert.Len(t, bracketResp.Registered, 3)
	assert.Equal(t, 1, bracketResp.ActiveRound)

	// Starting twice is a conflict, not a server error
	resp = postForm(t, client, srv.URL+location+"/start", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRoutes_CreateTournamentValidation(t *testing.T) {
	srv, client := newTestServer(t)
	postForm(t, client, srv.URL+"/auth/guest", nil)

	resp := postForm(t, client, srv.URL+"/tournaments", url.Values{"name": {" "}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postForm(t, client, srv.URL+"/tournaments", url.Values{"name": {strings.Repeat("x", maxTournamentName+1)}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postForm(t, client, srv.URL+"/tournaments", url.Values{"name": {"Cup"}, "starts_at": {"tomorrow"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_API(t *testing.T) {
	srv, client := newTestServer(t)

	resp := get(t, client, srv.URL+"/api/teams")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var teams []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&teams))
	assert.Empty(t, teams)

	resp = get(t, client, srv.URL+"/api/tournaments/"+uuid.NewString()+"/standings")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, service.ErrTournamentNotFound.Error(), body["error"])

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/teams", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://overlay.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	preflight, err := client.Do(req)
	require.NoError(t, err)
	defer preflight.Body.Close()
	assert.Equal(t, "https://overlay.test", preflight.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoutes_TeamRow(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postForm(t, client, srv.URL+"/tournaments/teams", url.Values{
		"team_name_0": {"a"},
		"team_name_4": {"b"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `name="team_name_5"`)
}

func TestTeamIndices(t *testing.T) {
	form := url.Values{
		"team_name_10": {"x"},
		"team_name_2":  {"y"},
		"team_name_x":  {"z"},
		"name":         {"Cup"},
	}
	assert.Equal(t, []int{2, 10}, teamIndices(form))
	assert.Empty(t, teamIndices(url.Values{}))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrTournamentNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", service.ErrMatchNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidTransition, http.StatusConflict},
		{service.ErrWinnerNotInMatch, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}
