package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fluxgate/fluxgate/internal/catalog"
)

type Authenticator struct {
	Store *catalog.Store
}

func NewAuthenticator(store *catalog.Store) *Authenticator {
	return &Authenticator{Store: store}
}

// GenerateKey creates a new API key, stores its hash and returns the
// plaintext once. The plaintext is never persisted.
func (a *Authenticator) GenerateKey(ctx context.Context, name string) (string, catalog.APIKeyRecord, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", catalog.APIKeyRecord{}, err
	}
	key := "fg-" + hex.EncodeToString(raw)

	id := hex.EncodeToString(raw[:8])
	prefix := key[:7]

	hash := sha256.Sum256([]byte(key))

	record := catalog.APIKeyRecord{
		ID:        id,
		Name:      name,
		Prefix:    prefix,
		HashedKey: hex.EncodeToString(hash[:]),
		CreatedAt: time.Now(),
	}

	if err := a.Store.CreateAPIKey(ctx, record); err != nil {
		return "", catalog.APIKeyRecord{}, err
	}

	return key, record, nil
}

// Middleware checks the Authorization bearer header against stored key
// hashes.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		hash := sha256.Sum256([]byte(parts[1]))
		hashedKey := hex.EncodeToString(hash[:])

		keys, err := a.Store.ListAPIKeys(r.Context())
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var found *catalog.APIKeyRecord
		for i := range keys {
			if keys[i].HashedKey == hashedKey {
				found = &keys[i]
				break
			}
		}

		if found == nil {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		// Last-used bookkeeping off the hot path.
		go func(id string) {
			_ = a.Store.UpdateAPIKeyLastUsed(context.Background(), id)
		}(found.ID)

		next.ServeHTTP(w, r)
	})
}

// EnsureUser creates username with a bcrypt hash of password unless it
// already exists. Used to bootstrap the admin account from config.
func (a *Authenticator) EnsureUser(ctx context.Context, username, password string) error {
	_, exists, err := a.Store.GetUser(ctx, username)
	if err != nil || exists {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.Store.CreateUser(ctx, catalog.UserRecord{Username: username, PasswordHash: string(hash)})
}

// AuthenticateUser verifies a username/password pair against the stored
// bcrypt hash.
func (a *Authenticator) AuthenticateUser(ctx context.Context, username, password string) (catalog.UserRecord, error) {
	u, exists, err := a.Store.GetUser(ctx, username)
	if err != nil {
		return catalog.UserRecord{}, err
	}
	if !exists {
		// Burn a comparison anyway so missing users cost the same as wrong
		// passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000"), []byte(password))
		return catalog.UserRecord{}, bcrypt.ErrMismatchedHashAndPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return catalog.UserRecord{}, err
	}
	return u, nil
}

// BasicMiddleware guards admin routes with HTTP basic auth against the users
// table.
func (a *Authenticator) BasicMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="fluxgate admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := a.AuthenticateUser(r.Context(), username, password); err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="fluxgate admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
