package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Doubles
// -------------------------

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Login(ctx context.Context, email, password string) (Identity, string, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(Identity), args.String(1), args.Error(2)
}

func (m *mockGateway) LookupIdentity(ctx context.Context, id, token string) (Identity, error) {
	args := m.Called(ctx, id, token)
	return args.Get(0).(Identity), args.Error(1)
}

func (m *mockGateway) UpdateProfile(ctx context.Context, id, token string, patch ProfilePatch) (Identity, error) {
	args := m.Called(ctx, id, token, patch)
	return args.Get(0).(Identity), args.Error(1)
}

type fakeStore struct {
	mu      sync.Mutex
	rec     *Record
	loadErr error
	saveErr error
	clears  int
}

func (f *fakeStore) Load(ctx context.Context) (Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return Record{}, false, f.loadErr
	}
	if f.rec == nil {
		return Record{}, false, nil
	}
	return *f.rec, true, nil
}

func (f *fakeStore) Save(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rec = &rec
	return nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.rec = nil
	return nil
}

func (f *fakeStore) stored() *Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return nil
	}
	r := *f.rec
	return &r
}

var ana = Identity{ID: "u-1", Name: "Ana", Email: "ana@example.com"}

func newCache(gw Gateway, store Storage) *Cache {
	return New(gw, store, Options{Timeout: time.Second})
}

// -------------------------
// SignIn / LoadPersisted
// -------------------------

func TestSignIn_ThenLoadPersisted_RoundTrip(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	gw.On("Login", mock.Anything, "ana@example.com", "secreto").Return(ana, "tok-1", nil).Once()
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").Return(ana, nil).Once()

	c := newCache(gw, store)
	assert.Equal(t, StateUninitialized, c.Get().State)

	snap, err := c.SignIn(context.Background(), " Ana@Example.com ", "secreto")
	require.NoError(t, err)
	assert.True(t, snap.Authenticated())
	assert.Equal(t, ana, snap.User)
	require.NotNil(t, store.stored())
	assert.Equal(t, "tok-1", store.stored().Token)

	// Reinicio: un Cache nuevo sobre el mismo almacenamiento.
	restarted := newCache(gw, store)
	loaded := restarted.LoadPersisted(context.Background())
	assert.Equal(t, StateAuthenticated, loaded.State)
	assert.Equal(t, snap.User, loaded.User)
	assert.Equal(t, "tok-1", loaded.Token)

	gw.AssertExpectations(t)
}

func TestSignIn_FailureKinds(t *testing.T) {
	cases := []struct {
		name    string
		gwErr   error
		wantErr error
	}{
		{name: "clave incorrecta", gwErr: &AuthError{Kind: KindInvalidCredentials}, wantErr: ErrInvalidCredentials},
		{name: "cuenta inexistente", gwErr: &AuthError{Kind: KindUnknownAccount}, wantErr: ErrUnknownAccount},
		{name: "transporte", gwErr: errors.New("connection refused"), wantErr: ErrNetworkFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &mockGateway{}
			store := &fakeStore{}
			gw.On("Login", mock.Anything, "ana@example.com", "x").Return(Identity{}, "", tc.gwErr).Once()

			c := newCache(gw, store)
			snap, err := c.SignIn(context.Background(), "ana@example.com", "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, StateUnauthenticated, snap.State)
			assert.Nil(t, store.stored())
			gw.AssertNumberOfCalls(t, "Login", 1)
		})
	}
}

func TestSignIn_EmptyCredentialsSkipGateway(t *testing.T) {
	gw := &mockGateway{}
	c := newCache(gw, &fakeStore{})

	_, err := c.SignIn(context.Background(), "  ", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	gw.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignIn_FailureKeepsPreviousSession(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "tok-1", nil).Once()
	gw.On("Login", mock.Anything, "beto@example.com", "bad").
		Return(Identity{}, "", &AuthError{Kind: KindInvalidCredentials}).Once()

	c := newCache(gw, store)
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")
	require.NoError(t, err)

	snap, err := c.SignIn(context.Background(), "beto@example.com", "bad")
	require.Error(t, err)
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, ana, snap.User)
	assert.Equal(t, ana, store.stored().User)
}

func TestSignIn_StorageFailureRollsBack(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{saveErr: errors.New("disk full")}
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "tok-1", nil).Once()

	c := newCache(gw, store)
	snap, err := c.SignIn(context.Background(), "ana@example.com", "ok")

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Equal(t, 1, store.clears)
}

func TestSignIn_TimeoutIsNetworkFailure(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Login", mock.Anything, "ana@example.com", "ok").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(Identity{}, "", context.DeadlineExceeded).Once()

	c := New(gw, &fakeStore{}, Options{Timeout: 20 * time.Millisecond})
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")

	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateUnauthenticated, c.Get().State)
}

func TestLoadPersisted_NothingStored(t *testing.T) {
	gw := &mockGateway{}
	c := newCache(gw, &fakeStore{})

	snap := c.LoadPersisted(context.Background())
	assert.Equal(t, StateUnauthenticated, snap.State)
	gw.AssertNotCalled(t, "LookupIdentity", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadPersisted_UnknownAccountClearsStorage(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{rec: &Record{User: ana, Token: "tok-1"}}
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").
		Return(Identity{}, &AuthError{Kind: KindUnknownAccount}).Once()

	c := newCache(gw, store)
	snap := c.LoadPersisted(context.Background())

	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Equal(t, Identity{}, snap.User)
	assert.Nil(t, store.stored())
}

func TestLoadPersisted_NetworkFailureFailsSafe(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{rec: &Record{User: ana, Token: "tok-1"}}
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").Return(Identity{}, errors.New("503")).Once()

	c := newCache(gw, store)
	assert.Equal(t, StateUnauthenticated, c.LoadPersisted(context.Background()).State)
	assert.Nil(t, store.stored())
}

func TestLoadPersisted_StorageErrorIsNoSession(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{loadErr: errors.New("permission denied")}

	c := newCache(gw, store)
	snap := c.LoadPersisted(context.Background())
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Equal(t, 1, store.clears)
}

func TestLoadPersisted_RefreshesChangedIdentity(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{rec: &Record{User: ana, Token: "tok-1"}}
	renamed := ana
	renamed.Name = "Ana María"
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").Return(renamed, nil).Once()

	c := newCache(gw, store)
	snap := c.LoadPersisted(context.Background())
	assert.Equal(t, renamed, snap.User)
	assert.Equal(t, renamed, store.stored().User)
}

func TestLoadPersisted_MismatchedIdentity(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{rec: &Record{User: ana, Token: "tok-1"}}
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").Return(Identity{ID: "u-2"}, nil).Once()

	c := newCache(gw, store)
	assert.Equal(t, StateUnauthenticated, c.LoadPersisted(context.Background()).State)
	assert.Nil(t, store.stored())
}

func TestLoadPersisted_RefreshSaveFailureKeepsPersistedIdentity(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{rec: &Record{User: ana, Token: "tok-1"}, saveErr: errors.New("disk full")}
	renamed := ana
	renamed.Name = "Ana María"
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").Return(renamed, nil).Once()

	c := newCache(gw, store)
	snap := c.LoadPersisted(context.Background())

	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, ana, snap.User)
	assert.Equal(t, store.stored().User, c.Get().User)
}

func TestLoadPersisted_CancelledDuringLookupLeavesStorage(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{rec: &Record{User: ana, Token: "tok-1"}}
	ctx, cancel := context.WithCancel(context.Background())
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").
		Run(func(mock.Arguments) { cancel() }).
		Return(Identity{}, context.Canceled).Once()

	c := newCache(gw, store)
	snap := c.LoadPersisted(ctx)

	assert.Equal(t, StateUnauthenticated, snap.State)
	require.NotNil(t, store.stored())
	assert.Equal(t, ana, store.stored().User)
	assert.Equal(t, 0, store.clears)

	// El siguiente arranque revalida y recupera la sesión.
	gw.On("LookupIdentity", mock.Anything, "u-1", "tok-1").Return(ana, nil).Once()
	assert.True(t, newCache(gw, store).LoadPersisted(context.Background()).Authenticated())
}

// -------------------------
// SignOut
// -------------------------

func TestSignOut_Idempotent(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "tok-1", nil).Once()

	c := newCache(gw, store)
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(context.Background()))
	once := c.Get()
	require.NoError(t, c.SignOut(context.Background()))
	twice := c.Get()

	assert.Equal(t, once, twice)
	assert.Equal(t, StateUnauthenticated, twice.State)
	assert.Nil(t, store.stored())
}

// -------------------------
// Concurrencia
// -------------------------

func TestSignIn_ConcurrentNeverTorn(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	beto := Identity{ID: "u-2", Name: "Beto", Email: "beto@example.com"}
	gw.On("Login", mock.Anything, "ana@example.com", "a").Return(ana, "tok-a", nil).After(5 * time.Millisecond)
	gw.On("Login", mock.Anything, "beto@example.com", "b").Return(beto, "tok-b", nil).After(5 * time.Millisecond)

	c := newCache(gw, store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.SignIn(context.Background(), "ana@example.com", "a")
		}()
		go func() {
			defer wg.Done()
			_, _ = c.SignIn(context.Background(), "beto@example.com", "b")
		}()
	}
	wg.Wait()

	final := c.Get()
	require.Equal(t, StateAuthenticated, final.State)
	rec := store.stored()
	require.NotNil(t, rec)

	// Memoria y almacenamiento coinciden, y el token es del mismo usuario.
	assert.Equal(t, final.User, rec.User)
	assert.Equal(t, final.Token, rec.Token)
	wantToken := map[string]string{"u-1": "tok-a", "u-2": "tok-b"}
	assert.Equal(t, wantToken[final.User.ID], final.Token)
}

func TestSignIn_IdenticalCallsShareFlight(t *testing.T) {
	gw := &mockGateway{}
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	gw.On("Login", mock.Anything, "ana@example.com", "ok").
		Run(func(mock.Arguments) {
			entered <- struct{}{}
			<-release
		}).
		Return(ana, "tok-1", nil)

	c := newCache(gw, &fakeStore{})

	results := make(chan Snapshot, 2)
	go func() {
		s, _ := c.SignIn(context.Background(), "ana@example.com", "ok")
		results <- s
	}()
	<-entered

	go func() {
		s, _ := c.SignIn(context.Background(), "ana@example.com", "ok")
		results <- s
	}()
	// Le damos tiempo al segundo llamador a sumarse al vuelo en curso.
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		s := <-results
		assert.Equal(t, ana, s.User)
	}
	calls := 0
	for _, call := range gw.Calls {
		if call.Method == "Login" {
			calls++
		}
	}
	assert.LessOrEqual(t, calls, 2)
	assert.GreaterOrEqual(t, calls, 1)
}

func TestSignIn_CancelledCallerDoesNotFailSharedFlight(t *testing.T) {
	gw := &mockGateway{}
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	flightErr := make(chan error, 2)
	gw.On("Login", mock.Anything, "ana@example.com", "ok").
		Run(func(args mock.Arguments) {
			entered <- struct{}{}
			<-release
			flightErr <- args.Get(0).(context.Context).Err()
		}).
		Return(ana, "tok-1", nil)

	store := &fakeStore{}
	c := newCache(gw, store)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.SignIn(firstCtx, "ana@example.com", "ok")
		firstErr <- err
	}()
	<-entered

	second := make(chan Snapshot, 1)
	go func() {
		s, _ := c.SignIn(context.Background(), "ana@example.com", "ok")
		second <- s
	}()
	time.Sleep(20 * time.Millisecond)

	// El primero se va sin esperar al gateway.
	cancelFirst()
	err := <-firstErr
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	s := <-second
	assert.True(t, s.Authenticated())
	assert.Equal(t, ana, s.User)
	assert.NoError(t, <-flightErr)
	assert.Equal(t, ana, store.stored().User)
}

// -------------------------
// UpdateProfile
// -------------------------

func TestUpdateProfile_RequiresAuthenticated(t *testing.T) {
	c := newCache(&mockGateway{}, &fakeStore{})
	name := "X"
	_, err := c.UpdateProfile(context.Background(), ProfilePatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpdateProfile_GoesThroughGatewayAndPersists(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	phone := "555-1234"
	patch := ProfilePatch{Phone: &phone}
	updated := ana
	updated.Phone = phone
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "tok-1", nil).Once()
	gw.On("UpdateProfile", mock.Anything, "u-1", "tok-1", patch).Return(updated, nil).Once()

	c := newCache(gw, store)
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")
	require.NoError(t, err)

	snap, err := c.UpdateProfile(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, updated, snap.User)
	assert.Equal(t, updated, store.stored().User)
	assert.Equal(t, "tok-1", store.stored().Token)
	gw.AssertExpectations(t)
}

func TestUpdateProfile_WithoutTokenStillUsesGateway(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	name := "Ana María"
	patch := ProfilePatch{Name: &name}
	updated := ana
	updated.Name = name
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "", nil).Once()
	gw.On("UpdateProfile", mock.Anything, "u-1", "", patch).Return(updated, nil).Once()

	c := newCache(gw, store)
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")
	require.NoError(t, err)

	snap, err := c.UpdateProfile(context.Background(), patch)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", snap.User.Name)
	assert.Equal(t, "Ana María", store.stored().User.Name)
	assert.Empty(t, store.stored().Token)
	gw.AssertExpectations(t)
}

func TestUpdateProfile_GatewayErrorKeepsSession(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	name := "Otra"
	patch := ProfilePatch{Name: &name}
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "tok-1", nil).Once()
	gw.On("UpdateProfile", mock.Anything, "u-1", "tok-1", patch).Return(Identity{}, errors.New("502")).Once()

	c := newCache(gw, store)
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")
	require.NoError(t, err)

	snap, err := c.UpdateProfile(context.Background(), patch)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Equal(t, ana, snap.User)
	assert.Equal(t, ana, store.stored().User)
}

func TestUpdateProfile_StorageFailureKeepsMemory(t *testing.T) {
	gw := &mockGateway{}
	store := &fakeStore{}
	other := ana
	other.Name = "Otra"
	gw.On("Login", mock.Anything, "ana@example.com", "ok").Return(ana, "", nil).Once()
	gw.On("UpdateProfile", mock.Anything, "u-1", "", mock.Anything).Return(other, nil).Once()

	c := newCache(gw, store)
	_, err := c.SignIn(context.Background(), "ana@example.com", "ok")
	require.NoError(t, err)

	store.mu.Lock()
	store.saveErr = fmt.Errorf("read-only fs")
	store.mu.Unlock()

	name := "Otra"
	snap, err := c.UpdateProfile(context.Background(), ProfilePatch{Name: &name})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ana, snap.User)
	assert.Equal(t, ana, c.Get().User)
}
