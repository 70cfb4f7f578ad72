package oauth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Identity 外部身份提供方核验后的可信身份
type Identity struct {
	Email   string
	Name    string
	Picture string
}

type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

// GoogleVerifier 校验 Google 签发的 id token（签名/有效期/audience）
type GoogleVerifier struct {
	ClientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{ClientID: clientID}
}

func (g *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, g.ClientID)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("id token has no email claim")
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	return &Identity{Email: email, Name: name, Picture: picture}, nil
}
