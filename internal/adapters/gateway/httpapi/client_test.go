package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-vaccine-tracker/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(ts.URL, time.Second)
	require.NoError(t, err)
	return c
}

func TestLogin_StatusMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch in["email"] {
		case "ana@example.com":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":"u-1","name":"Ana","email":"ana@example.com"},"token":"tok-1"}`))
		case "wrong@example.com":
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		case "ghost@example.com":
			http.Error(w, "user not found", http.StatusNotFound)
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	})
	ctx := context.Background()

	id, tok, err := c.Login(ctx, "ana@example.com", "x")
	require.NoError(t, err)
	assert.Equal(t, session.Identity{ID: "u-1", Name: "Ana", Email: "ana@example.com"}, id)
	assert.Equal(t, "tok-1", tok)

	_, _, err = c.Login(ctx, "wrong@example.com", "x")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)

	_, _, err = c.Login(ctx, "ghost@example.com", "x")
	assert.ErrorIs(t, err, session.ErrUnknownAccount)

	_, _, err = c.Login(ctx, "other@example.com", "x")
	assert.ErrorIs(t, err, session.ErrNetworkFailure)
}

func TestLookupIdentity_SendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/users/u-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"u-1","name":"Ana","email":"ana@example.com"}`))
	})

	id, err := c.LookupIdentity(context.Background(), "u-1", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", id.Name)

	_, err = c.LookupIdentity(context.Background(), "u-1", "expired")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
}

func TestWithoutToken_SendsDebugUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		if r.Header.Get(DebugUserHeader) != "u-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/users/u-1":
			_, _ = w.Write([]byte(`{"id":"u-1","name":"Ana","email":"ana@example.com","phone":"555"}`))
		case "/users/u-1/pets", "/users/u-1/vaccines":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	id, err := c.LookupIdentity(ctx, "u-1", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana", id.Name)

	phone := "555"
	id, err = c.UpdateProfile(ctx, "u-1", "", session.ProfilePatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555", id.Phone)

	_, err = c.ListPets(ctx, "u-1", "")
	require.NoError(t, err)
	_, err = c.ListVaccines(ctx, "u-1", "")
	require.NoError(t, err)
}

func TestWithToken_NoDebugUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(DebugUserHeader))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u-1","name":"Ana","email":"ana@example.com"}`))
	})

	_, err := c.LookupIdentity(context.Background(), "u-1", "tok-1")
	require.NoError(t, err)
}

func TestTransportFailureIsNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url, 200*time.Millisecond)
	require.NoError(t, err)

	_, err = c.LookupIdentity(context.Background(), "u-1", "tok")
	assert.ErrorIs(t, err, session.ErrNetworkFailure)
}

func TestListings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/u-1/pets":
			_, _ = w.Write([]byte(`[{"id":"p-1","owner_user_id":"u-1","name":"Milo","species":"Cachorro","weight":4.5,"created_at":"2026-03-01T10:00:00Z"}]`))
		case "/users/u-1/vaccines":
			_, _ = w.Write([]byte(`[
				{"id":"v-1","pet_id":"p-1","pet_name":"Milo","name":"Rabia","applied_on":"2026-03-01","next_dose_on":null},
				{"id":"v-2","pet_id":"p-1","pet_name":"Milo","name":"V10","applied_on":null,"next_dose_on":"2026-04-01T00:00:00Z"}
			]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	ps, err := c.ListPets(ctx, "u-1", "tok")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Cachorro", ps[0].Species)
	require.NotNil(t, ps[0].Weight)

	vs, err := c.ListVaccines(ctx, "u-1", "tok")
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.True(t, vs[0].AppliedOn.IsSet())
	assert.False(t, vs[0].NextDoseOn.IsSet())
	assert.False(t, vs[1].AppliedOn.IsSet())
	assert.Equal(t, "Milo", vs[1].PetName)

	_, err = c.ListPets(ctx, "u-2", "tok")
	assert.ErrorIs(t, err, session.ErrUnknownAccount)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("", time.Second)
	assert.Error(t, err)
}
