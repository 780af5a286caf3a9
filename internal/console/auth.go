package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// trader is an in-memory account: a name (the same value lock_buy and
// lock_sell thread through to txservice's registry) and
// a bcrypt hash. The console's auth layer is itself ambient — the
// engine it fronts has no concept of accounts, only trader-name
// strings — so there is no persistence requirement beyond the
// process's own lifetime here either.
type trader struct {
	name string
	hash []byte
}

type traderStore struct {
	mu      sync.RWMutex
	traders map[string]*trader
}

func newTraderStore() *traderStore {
	return &traderStore{traders: make(map[string]*trader)}
}

func (s *traderStore) register(name, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.traders[name]; exists {
		return fmt.Errorf("trader %q already registered", name)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.traders[name] = &trader{name: name, hash: hash}
	return nil
}

func (s *traderStore) authenticate(name, password string) bool {
	s.mu.RLock()
	t, ok := s.traders[name]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(t.hash, []byte(password)) == nil
}

type ctxKey string

const ctxTrader ctxKey = "trader"

// tokenIssuer mints and verifies JWTs carrying a trader's name as an
// HS256 claims map.
type tokenIssuer struct {
	secret []byte
}

func (i tokenIssuer) issue(name string) (string, error) {
	claims := jwt.MapClaims{
		"sub": name,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i tokenIssuer) verify(tokenStr string) (string, error) {
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	name, _ := claims["sub"].(string)
	if name == "" {
		return "", fmt.Errorf("invalid claims")
	}
	return name, nil
}

func traderFromContext(ctx context.Context) string {
	name, _ := ctx.Value(ctxTrader).(string)
	return name
}

func contextWithTrader(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxTrader, name)
}
