// Package session mantiene la identidad del usuario autenticado: la persiste,
// la recarga al arrancar y la revalida contra el backend. Ante cualquier duda
// termina en Unauthenticated; nunca sirve una identidad sin confirmar.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"pet-vaccine-tracker/internal/platform/logger"
	"pet-vaccine-tracker/internal/platform/metrics"

	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateUninitialized   State = "uninitialized"
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

const DefaultTimeout = 10 * time.Second

// Snapshot es una copia del estado; modificarla no afecta al Cache.
type Snapshot struct {
	State State
	User  Identity
	Token string
}

func (s Snapshot) Loading() bool       { return s.State == StateLoading }
func (s Snapshot) Authenticated() bool { return s.State == StateAuthenticated }

type Options struct {
	// Timeout por llamada al gateway. Vencido = NetworkFailure.
	Timeout time.Duration
	Logger  logger.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type Cache struct {
	gw    Gateway
	store Storage

	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// opMu serializa las operaciones que mutan; sf comparte una misma
	// operación idéntica que ya está en vuelo.
	opMu sync.Mutex
	sf   singleflight.Group

	mu    sync.RWMutex
	state Snapshot
}

var _ Manager = (*Cache)(nil)

func New(gw Gateway, store Storage, opts Options) *Cache {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		gw:      gw,
		store:   store,
		timeout: opts.Timeout,
		log:     opts.Logger.With(map[string]any{"module": "session"}),
		metrics: opts.Metrics,
		now:     opts.Now,
		state:   Snapshot{State: StateUninitialized},
	}
}

func (c *Cache) Get() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Cache) set(s Snapshot) {
	c.mu.Lock()
	prev := c.state.State
	c.state = s
	c.mu.Unlock()

	if prev != s.State {
		c.metrics.SessionTransition(string(s.State))
		c.log.Debug("session transition", map[string]any{"from": string(prev), "to": string(s.State)})
	}
}

// SignIn no reintenta. Si falla, una sesión previa válida se conserva; en
// cualquier otro caso queda Unauthenticated.
//
// Las llamadas idénticas comparten un vuelo que corre desacoplado de la
// cancelación de quien lo inició (lo acota Timeout); cada llamador espera
// solo mientras su propio ctx siga vivo.
func (c *Cache) SignIn(ctx context.Context, email, password string) (Snapshot, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return c.Get(), &AuthError{Kind: KindInvalidCredentials, Err: errors.New("email and password are required")}
	}

	flight := context.WithoutCancel(ctx)
	ch := c.sf.DoChan("signin:"+credentialKey(email, password), func() (any, error) {
		c.opMu.Lock()
		defer c.opMu.Unlock()
		return c.signIn(flight, email, password)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return c.Get(), res.Err
		}
		return res.Val.(Snapshot), nil
	case <-ctx.Done():
		return c.Get(), &AuthError{Kind: KindNetworkFailure, Err: ctx.Err()}
	}
}

func (c *Cache) signIn(ctx context.Context, email, password string) (Snapshot, error) {
	prev := c.Get()
	if prev.State != StateAuthenticated {
		prev = Snapshot{State: StateUnauthenticated}
	}
	c.set(Snapshot{State: StateLoading})

	gctx, cancel := context.WithTimeout(ctx, c.timeout)
	id, token, err := c.gw.Login(gctx, email, password)
	cancel()
	if err != nil {
		c.set(prev)
		ae := asAuthError(err)
		c.log.Warn("sign in failed", map[string]any{"kind": string(ae.Kind)})
		return Snapshot{}, ae
	}

	rec := Record{User: id, Token: token, SavedAt: c.now()}
	if err := c.store.Save(ctx, rec); err != nil {
		// Sin persistencia completa no hay sesión: limpiamos lo que haya quedado.
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.Warn("session clear after failed save", map[string]any{"error": cerr})
		}
		c.set(Snapshot{State: StateUnauthenticated})
		return Snapshot{}, &StorageError{Op: "save", Err: err}
	}

	next := Snapshot{State: StateAuthenticated, User: id, Token: token}
	c.set(next)
	c.log.Info("signed in", map[string]any{"user_id": id.ID})
	return next, nil
}

// SignOut es idempotente. La memoria se limpia siempre; el error solo
// informa que el almacenamiento no pudo borrarse.
func (c *Cache) SignOut(ctx context.Context) error {
	_, err, _ := c.sf.Do("signout", func() (any, error) {
		c.opMu.Lock()
		defer c.opMu.Unlock()
		return nil, c.signOut(ctx)
	})
	return err
}

func (c *Cache) signOut(ctx context.Context) error {
	c.set(Snapshot{State: StateUnauthenticated})
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("session clear failed", map[string]any{"error": err})
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// LoadPersisted se llama una vez al arrancar. No devuelve error: cualquier
// falla (storage, red, cuenta inexistente) termina en Unauthenticated con el
// almacenamiento limpio.
func (c *Cache) LoadPersisted(ctx context.Context) Snapshot {
	v, _, _ := c.sf.Do("load", func() (any, error) {
		c.opMu.Lock()
		defer c.opMu.Unlock()
		return c.loadPersisted(ctx), nil
	})
	return v.(Snapshot)
}

func (c *Cache) loadPersisted(ctx context.Context) Snapshot {
	c.set(Snapshot{State: StateLoading})

	rec, ok, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("session load failed", map[string]any{"error": err})
		return c.forceSignOut(ctx, "storage")
	}
	if !ok {
		next := Snapshot{State: StateUnauthenticated}
		c.set(next)
		return next
	}
	if strings.TrimSpace(rec.User.ID) == "" {
		return c.forceSignOut(ctx, "corrupt_record")
	}

	gctx, cancel := context.WithTimeout(ctx, c.timeout)
	fresh, err := c.gw.LookupIdentity(gctx, rec.User.ID, rec.Token)
	cancel()
	if err != nil {
		ae := asAuthError(err)
		c.log.Warn("session revalidation failed", map[string]any{"user_id": rec.User.ID, "kind": string(ae.Kind)})
		return c.forceSignOut(ctx, string(ae.Kind))
	}
	if fresh.ID != rec.User.ID {
		return c.forceSignOut(ctx, "identity_mismatch")
	}

	// El backend manda: si la identidad cambió, se re-persiste. Si no se
	// puede guardar, en memoria queda lo persistido (mismo ID, ya confirmado)
	// y el próximo arranque vuelve a intentar.
	user := rec.User
	if fresh != rec.User {
		if err := c.store.Save(ctx, Record{User: fresh, Token: rec.Token, SavedAt: c.now()}); err != nil {
			c.log.Warn("session refresh save failed", map[string]any{"user_id": rec.User.ID, "error": err})
		} else {
			user = fresh
		}
	}

	next := Snapshot{State: StateAuthenticated, User: user, Token: rec.Token}
	c.set(next)
	return next
}

func (c *Cache) forceSignOut(ctx context.Context, reason string) Snapshot {
	// ctx cancelado = el proceso se está cerrando: no se toca el almacenamiento
	// y el próximo arranque revalida lo que haya.
	if err := ctx.Err(); err != nil {
		c.log.Info("session load aborted", map[string]any{"reason": reason, "error": err})
		next := Snapshot{State: StateUnauthenticated}
		c.set(next)
		return next
	}
	c.log.Info("forced sign out", map[string]any{"reason": reason})
	_ = c.signOut(ctx)
	return Snapshot{State: StateUnauthenticated}
}

// UpdateProfile exige Authenticated. El cambio pasa primero por el gateway
// (con o sin token) y se guarda lo que devuelve. Si no se puede persistir, la
// memoria queda como estaba.
func (c *Cache) UpdateProfile(ctx context.Context, patch ProfilePatch) (Snapshot, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	cur := c.Get()
	if cur.State != StateAuthenticated {
		return cur, ErrNotAuthenticated
	}
	if patch.IsEmpty() {
		return cur, nil
	}

	gctx, cancel := context.WithTimeout(ctx, c.timeout)
	updated, err := c.gw.UpdateProfile(gctx, cur.User.ID, cur.Token, patch)
	cancel()
	if err != nil {
		return cur, asAuthError(err)
	}
	if updated.ID != cur.User.ID {
		return cur, &AuthError{Kind: KindInvalidCredentials, Err: errors.New("profile update returned another identity")}
	}

	if err := c.store.Save(ctx, Record{User: updated, Token: cur.Token, SavedAt: c.now()}); err != nil {
		return cur, &StorageError{Op: "save", Err: err}
	}

	next := Snapshot{State: StateAuthenticated, User: updated, Token: cur.Token}
	c.set(next)
	return next, nil
}

// credentialKey evita dejar la clave en texto plano como key del singleflight.
func credentialKey(email, password string) string {
	sum := sha256.Sum256([]byte(email + "\x00" + password))
	return hex.EncodeToString(sum[:])
}
