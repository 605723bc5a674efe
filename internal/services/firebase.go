package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"isilan_app_echo/internal/config"
)

// FirebaseClients bundles the Admin SDK clients the app uses: Auth for
// verifying user tokens and the Realtime Database for listings and
// pending payments.
type FirebaseClients struct {
	Auth *auth.Client
	DB   *db.Client
}

// InitFirebase initializes the Firebase Admin SDK from the service
// account credentials and database URL in the config.
func InitFirebase(ctx context.Context, cfg *config.Config) (*FirebaseClients, error) {
	opt := option.WithCredentialsFile(cfg.FirebaseCredentialsPath)
	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL: cfg.FirebaseDatabaseURL,
	}, opt)
	if err != nil {
		return nil, err
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, err
	}

	return &FirebaseClients{Auth: authClient, DB: dbClient}, nil
}
