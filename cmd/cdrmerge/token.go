package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cdr-reconciler/internal/auth"
	"cdr-reconciler/internal/config"
)

// tokenCmd mints API tokens with the API's JWT settings. There is no credential
// store, so this is how operators are provisioned.
func (a *app) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access/refresh token pair for the HTTP API",
		Example: `  JWT_SECRET=... cdrmerge token --user ops-1 --client acme --role operator`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			// shares the API's environment names so one .env serves both
			for key, env := range map[string]string{
				"jwt-secret":   "JWT_SECRET",
				"jwt-issuer":   "JWT_ISSUER",
				"jwt-audience": "JWT_AUDIENCE",
			} {
				if err := a.v.BindEnv(key, env); err != nil {
					return err
				}
			}
			return a.bind(cmd, "user", "client", "role", "ttl")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, client, role := a.v.GetString("user"), a.v.GetString("client"), a.v.GetString("role")
			if user == "" || client == "" || role == "" {
				return errors.New("--user, --client and --role are required")
			}
			ttl := a.v.GetDuration("ttl")
			m, err := auth.NewManager(config.AuthConfig{
				JWTSecret:       a.v.GetString("jwt-secret"),
				JWTIssuer:       a.v.GetString("jwt-issuer"),
				JWTAudience:     a.v.GetString("jwt-audience"),
				AccessTokenTTL:  ttl,
				RefreshTokenTTL: 7 * 24 * time.Hour,
			})
			if err != nil {
				return err
			}
			pair, err := m.IssuePair(time.Now(), user, client, role)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "access_token=%s\n", pair.AccessToken)
			fmt.Fprintf(w, "refresh_token=%s\n", pair.RefreshToken)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("user", "", "user id")
	f.String("client", "", "client the token is scoped to")
	f.String("role", "", "operator, analyst or admin")
	f.Duration("ttl", 15*time.Minute, "access token lifetime")
	return cmd
}
