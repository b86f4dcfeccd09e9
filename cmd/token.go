package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenEmail string
	tokenRoles []string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	Long:  `Sign an access token with the configured JWT secret so the API can be exercised without an identity provider.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		ttl := cfg.Security.AccessTokenDuration
		if tokenTTL > 0 {
			ttl = tokenTTL
		}

		manager := auth.NewJWTTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, ttl)
		token, err := manager.GenerateAccessToken(tokenUser, tokenEmail, tokenRoles)
		if err != nil {
			log.Fatalf("failed to mint token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "user id the token is issued for")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "optional e-mail claim")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", nil, "role to grant, repeatable (e.g. --role manager)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "override the configured token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
