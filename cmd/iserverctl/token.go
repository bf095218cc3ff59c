package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supermap/iclient-go/auth"
)

type AppToken struct {
	*App
	iserver    string
	user       string
	password   string
	clientType string
	ip         string
	referer    string
	expiration int
}

func (a *App) AppToken() Cmder {
	return &AppToken{App: a}
}

func (a *AppToken) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Issue a security token for the iServer behind --url",
		Args:         cobra.NoArgs,
		RunE:         a.RunE,
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&a.iserver, "iserver", "", "iServer application root; derived from --url when empty")
	cmd.Flags().StringVar(&a.user, "user", "", "user name")
	cmd.Flags().StringVar(&a.password, "password", "", "password")
	cmd.Flags().StringVar(&a.clientType, "client-type", string(auth.ClientTypeRequestIP), "IP, Referer, RequestIP or NONE")
	cmd.Flags().StringVar(&a.ip, "ip", "", "client IP for the IP client type")
	cmd.Flags().StringVar(&a.referer, "referer", "", "referer for the Referer client type")
	cmd.Flags().IntVar(&a.expiration, "expiration", 60, "token lifetime in minutes")
	return cmd
}

func (a *AppToken) RunE(cmd *cobra.Command, args []string) error {
	root := firstNonEmpty(a.iserver, iserverRoot(a.URL))
	client, err := auth.NewClient(auth.Config{BaseURL: root, HTTPClient: http.DefaultClient})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	token, err := client.IssueToken(ctx, auth.TokenRequest{
		UserName:   a.user,
		Password:   a.password,
		ClientType: auth.ClientType(a.clientType),
		IP:         a.ip,
		Referer:    a.referer,
		Expiration: a.expiration,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// iserverRoot strips the service part from a service URL: .../iserver/services/x/rest/data -> .../iserver.
func iserverRoot(serviceURL string) string {
	if idx := strings.Index(serviceURL, "/services/"); idx >= 0 {
		return serviceURL[:idx]
	}
	return strings.TrimSuffix(serviceURL, "/")
}
