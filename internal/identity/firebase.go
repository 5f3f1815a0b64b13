package identity

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/tyleshq/tyles/internal/common"
)

// FirebaseConfig holds Firebase Admin credentials. Exactly one of
// CredentialsFile or CredentialsJSONBase64 must be set.
type FirebaseConfig struct {
	ProjectID             string
	CredentialsFile       string
	CredentialsJSONBase64 string
}

// Validate ensures the config can initialize an app.
func (c *FirebaseConfig) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("%w: firebase project ID is required", common.ErrMissingConfig)
	}
	if c.CredentialsFile == "" && c.CredentialsJSONBase64 == "" {
		return fmt.Errorf("%w: firebase credentials file or base64 JSON is required", common.ErrMissingConfig)
	}
	return nil
}

// FirebaseVerifier verifies ID tokens against Firebase Auth.
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier initializes the Firebase Admin SDK and its auth
// client.
func NewFirebaseVerifier(ctx context.Context, config FirebaseConfig) (*FirebaseVerifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opt option.ClientOption
	switch {
	case config.CredentialsFile != "":
		opt = option.WithCredentialsFile(config.CredentialsFile)
	default:
		jsonKey, err := base64.StdEncoding.DecodeString(config.CredentialsJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: firebase credentials are not valid base64", common.ErrInvalidConfig)
		}
		opt = option.WithCredentialsJSON(jsonKey)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: config.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

// Verify checks an ID token and maps its claims to an Identity.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("invalid ID token: %w", err)
	}

	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	if photo, ok := token.Claims["picture"].(string); ok {
		id.PhotoURL = photo
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	return id, nil
}

// Ensure FirebaseVerifier implements the Verifier interface.
var _ Verifier = (*FirebaseVerifier)(nil)
