package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	iclient "github.com/supermap/iclient-go"
)

const requestTimeout = 30 * time.Second

type AppList struct {
	*App
}

func (a *App) AppList() Cmder {
	return &AppList{App: a}
}

func (a *AppList) Cmd() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List the datasources of the data service",
		Args:         cobra.NoArgs,
		RunE:         a.RunE,
		SilenceUsage: true,
	}
}

func (a *AppList) RunE(cmd *cobra.Command, args []string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	res, err := await(ctx, func(cb iclient.RequestCallback) error { return svc.GetDatasources(ctx, cb) })
	if err != nil {
		return err
	}
	renderList(cmd.OutOrStdout(), res.(*iclient.DatasourceList))
	return nil
}

type AppGet struct {
	*App
}

func (a *App) AppGet() Cmder {
	return &AppGet{App: a}
}

func (a *AppGet) Cmd() *cobra.Command {
	return &cobra.Command{
		Use:          "get <datasource-name>",
		Short:        "Show the metadata of one datasource",
		Args:         cobra.ExactArgs(1),
		RunE:         a.RunE,
		SilenceUsage: true,
	}
}

func (a *AppGet) RunE(cmd *cobra.Command, args []string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	res, err := await(ctx, func(cb iclient.RequestCallback) error { return svc.GetDatasource(ctx, args[0], cb) })
	if err != nil {
		return err
	}
	renderInfos(cmd.OutOrStdout(), []iclient.DatasourceInfo{res.(*iclient.DatasourceResponse).DatasourceInfo})
	return nil
}

type AppSet struct {
	*App
	config       string
	name         string
	description  string
	coordUnit    string
	distanceUnit string
}

func (a *App) AppSet() Cmder {
	return &AppSet{App: a}
}

func (a *AppSet) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "set",
		Short:        "Update the description and units of a datasource",
		Args:         cobra.NoArgs,
		RunE:         a.RunE,
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&a.config, "config", "c", "", "toml file with datasource-name, description, coord-unit, distance-unit")
	cmd.Flags().StringVarP(&a.name, "name", "n", "", "datasource name")
	cmd.Flags().StringVar(&a.description, "description", "", "datasource description")
	cmd.Flags().StringVar(&a.coordUnit, "coord-unit", "", "coordinate unit, e.g. METER or DEGREE")
	cmd.Flags().StringVar(&a.distanceUnit, "distance-unit", "", "distance unit, e.g. METER or KILOMETER")
	return cmd
}

// parameters merges the config file with flags; flags win.
func (a *AppSet) parameters(cmd *cobra.Command) (*iclient.SetDatasourceParameters, error) {
	params := &iclient.SetDatasourceParameters{}
	if !strings.EqualFold(a.config, "") {
		if _, err := toml.DecodeFile(a.config, params); err != nil {
			return nil, fmt.Errorf("failed decode toml config file %s: %v", a.config, err)
		}
	}
	if cmd.Flags().Changed("name") {
		params.DatasourceName = a.name
	}
	if cmd.Flags().Changed("description") {
		params.Description = a.description
	}
	if cmd.Flags().Changed("coord-unit") {
		params.CoordUnit = iclient.ParseUnit(a.coordUnit)
	}
	if cmd.Flags().Changed("distance-unit") {
		params.DistanceUnit = iclient.ParseUnit(a.distanceUnit)
	}
	return params, nil
}

func (a *AppSet) RunE(cmd *cobra.Command, args []string) error {
	params, err := a.parameters(cmd)
	if err != nil {
		return err
	}
	svc, err := a.service()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	if _, err := await(ctx, func(cb iclient.RequestCallback) error { return svc.SetDatasource(ctx, params, cb) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Success Update Datasource %s\n", params.DatasourceName)
	return nil
}

type AppDescribe struct {
	*App
	concurrency int
}

func (a *App) AppDescribe() Cmder {
	return &AppDescribe{App: a}
}

func (a *AppDescribe) Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "describe",
		Short:        "Show the metadata of every datasource",
		Args:         cobra.NoArgs,
		RunE:         a.RunE,
		SilenceUsage: true,
	}
	cmd.Flags().IntVar(&a.concurrency, "concurrency", 4, "maximum requests in flight")
	return cmd
}

func (a *AppDescribe) RunE(cmd *cobra.Command, args []string) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	res, err := await(ctx, func(cb iclient.RequestCallback) error { return svc.GetDatasources(ctx, cb) })
	if err != nil {
		return err
	}
	names := res.(*iclient.DatasourceList).DatasourceNames

	infos := make([]iclient.DatasourceInfo, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			res, err := await(gCtx, func(cb iclient.RequestCallback) error { return svc.GetDatasource(gCtx, name, cb) })
			if err != nil {
				return fmt.Errorf("datasource %s: %w", name, err)
			}
			infos[i] = res.(*iclient.DatasourceResponse).DatasourceInfo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	svc.Wait()
	renderInfos(cmd.OutOrStdout(), infos)
	return nil
}
