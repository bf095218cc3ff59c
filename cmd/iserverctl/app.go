package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	iclient "github.com/supermap/iclient-go"
)

// Cmder is implemented by every subcommand.
type Cmder interface {
	Cmd() *cobra.Command
}

// App holds the persistent flags shared by every subcommand.
type App struct {
	URL             string
	Token           string
	Proxy           string
	WithCredentials bool
	Headers         map[string]string
	LogFile         string
	LogLevel        string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	app := &App{}
	root := app.Cmd()
	for _, c := range []Cmder{
		app.AppList(),
		app.AppGet(),
		app.AppSet(),
		app.AppDescribe(),
		app.AppToken(),
	} {
		root.AddCommand(c.Cmd())
	}
	return root
}

func (a *App) Cmd() *cobra.Command {
	c := &cobra.Command{
		Use:                "iserverctl",
		Short:              "CLI for SuperMap iServer datasources",
		PersistentPreRunE:  a.PersistentPreRunE,
		PersistentPostRunE: a.PersistentPostRunE,
		SilenceUsage:       true,
	}
	c.PersistentFlags().StringVarP(&a.URL, "url", "u", "", "data service URL (env ISERVER_URL)")
	c.PersistentFlags().StringVarP(&a.Token, "token", "t", "", "security token (env ISERVER_TOKEN)")
	c.PersistentFlags().StringVar(&a.Proxy, "proxy", "", "proxy prefix the encoded request URL is appended to (env ISERVER_PROXY)")
	c.PersistentFlags().BoolVar(&a.WithCredentials, "with-credentials", false, "keep session cookies between requests")
	c.PersistentFlags().StringToStringVarP(&a.Headers, "header", "H", nil, "extra request header, key=value")
	c.PersistentFlags().StringVar(&a.LogFile, "log-file", "", "write client logs to this file")
	c.PersistentFlags().StringVar(&a.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	return c
}

func (a *App) PersistentPreRunE(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")

	a.URL = firstNonEmpty(a.URL, os.Getenv("ISERVER_URL"))
	a.Token = firstNonEmpty(a.Token, os.Getenv("ISERVER_TOKEN"))
	a.Proxy = firstNonEmpty(a.Proxy, os.Getenv("ISERVER_PROXY"))

	if strings.EqualFold(a.URL, "") {
		return fmt.Errorf("flag parameter [url] is requirement, can not null")
	}
	a.logger = newLogger(&LogConfig{LogFile: a.LogFile, LogLevel: a.LogLevel})
	return nil
}

func (a *App) PersistentPostRunE(cmd *cobra.Command, args []string) error {
	if a.logger == nil || a.LogFile == "" {
		return nil
	}
	return a.logger.Sync()
}

func (a *App) service() (*iclient.DatasourceService, error) {
	logger := a.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return iclient.NewDatasourceService(a.URL, iclient.ServiceOptions{
		Proxy:           a.Proxy,
		WithCredentials: a.WithCredentials,
		Headers:         a.Headers,
		Token:           a.Token,
		Telemetry:       iclient.ZapTelemetry(logger),
	})
}

// await issues one request and blocks until its callback delivers the outcome.
func await(ctx context.Context, issue func(iclient.RequestCallback) error) (any, error) {
	done := make(chan iclient.ServiceResult, 1)
	if err := issue(func(r iclient.ServiceResult) { done <- r }); err != nil {
		return nil, err
	}
	select {
	case r := <-done:
		if r.Failed() {
			return nil, r.Err
		}
		return r.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
