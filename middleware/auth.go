package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"adaptlyAPI/internal/identity"
)

type contextKey string

const IdentityKey contextKey = "identity"
const ClerkIDKey contextKey = "clerkID"

// TokenVerifier turns a bearer token into the account id it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// ClerkVerifier verifies Clerk session JWTs. clerk.SetKey must be called
// before use.
type ClerkVerifier struct{}

func (ClerkVerifier) Verify(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
	})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header required")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return "", errors.New("Invalid authorization format. Use 'Bearer <token>'")
	}
	return token, nil
}

// ClerkAuthMiddleware validates Clerk JWT tokens and stores the subject in
// the request context.
func ClerkAuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				respondWithError(w, http.StatusUnauthorized, "Account sign-in is not configured")
				return
			}
			token, err := bearerToken(r)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			subject, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Printf("Token verification failed: %v", err)
				respondWithError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
				return
			}

			ctx := context.WithValue(r.Context(), ClerkIDKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionMiddleware resolves the device's active identity for the request.
// Guest sessions need no token; account sessions must present a token for
// the signed-in account.
func SessionMiddleware(provider identity.Provider, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := provider.CurrentIdentity()
			if current.IsAnonymous() {
				respondWithError(w, http.StatusUnauthorized, "No active session. Start a guest session or sign in")
				return
			}

			if current.IsAccount() {
				if verifier == nil {
					respondWithError(w, http.StatusUnauthorized, "Account sign-in is not configured")
					return
				}
				token, err := bearerToken(r)
				if err != nil {
					respondWithError(w, http.StatusUnauthorized, err.Error())
					return
				}
				subject, err := verifier.Verify(r.Context(), token)
				if err != nil {
					log.Printf("Token verification failed: %v", err)
					respondWithError(w, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
					return
				}
				if subject != current.ID {
					respondWithError(w, http.StatusForbidden, "Token does not belong to the signed-in account")
					return
				}
			}

			ctx := context.WithValue(r.Context(), IdentityKey, current)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClerkID extracts Clerk user ID from context
func GetClerkID(ctx context.Context) (string, bool) {
	clerkID, ok := ctx.Value(ClerkIDKey).(string)
	return clerkID, ok
}

// GetIdentity extracts the session identity from context
func GetIdentity(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(identity.Identity)
	return id, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": %q}`, message)))
}
