package auth

import (
	"errors"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"

	"github.com/ypereira/messenger/session"
)

var errMissingEmailClaim = errors.New("token has no email claim")

// Authenticate verifies the request's Firebase ID token and returns it.
func Authenticate(r *http.Request) (*auth.Token, error) {
	ctx := r.Context()
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		return nil, err
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	jwtToken, err := BearerTokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	return client.VerifyIDToken(ctx, jwtToken)
}

// SessionFromToken builds the per-request session from the verified token's
// profile claims. A token without an email claim cannot act as a sender.
func SessionFromToken(token *auth.Token) (session.Session, error) {
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return session.Session{}, errMissingEmailClaim
	}
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = email
	}
	return session.Session{Email: email, DisplayName: name}, nil
}
