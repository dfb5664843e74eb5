// Package cli implements the relations CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/config"
	"github.com/royalrew/sintari-relations-sub003/internal/cooldown"
	"github.com/royalrew/sintari-relations-sub003/internal/errors"
	"github.com/royalrew/sintari-relations-sub003/internal/intent"
	"github.com/royalrew/sintari-relations-sub003/internal/logger"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
	"github.com/royalrew/sintari-relations-sub003/internal/store"
)

var (
	v   = config.New()
	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "relations",
	Short: "Track who a conversation is about",
	Long: "Resolve names and aliases to tracked subjects, keep the active subject " +
		"across turns and provision unknown people on the fly. SQLite-backed, single binary.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	f := RootCmd.PersistentFlags()
	f.StringP("db", "d", "", "Database path (default: $RELATIONS_DB or ~/.relations/subjects.db)")
	f.Bool("memory", false, "Use a throwaway in-memory store")
	f.String("log-level", "", "Log level: debug, info, warn, error")
	f.Bool("log-json", false, "Log as JSON")
	f.StringP("user", "u", "", "User key used in cooldown keys")

	bindFlag(config.KeyDB, "db")
	bindFlag(config.KeyMemory, "memory")
	bindFlag(config.KeyLogLevel, "log-level")
	bindFlag(config.KeyLogJSON, "log-json")
	bindFlag(config.KeyUser, "user")
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, RootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = c
	return logger.Initialize(cfg.LogLevel, cfg.LogJSON)
}

// engine bundles the store, resolver and hook one command works with.
type engine struct {
	backend  store.Backend
	store    *store.Invalidating
	resolver *resolver.Service
	hook     *intent.Hook
	cooldown *cooldown.Registry
}

func openEngine() (*engine, error) {
	var backend store.Backend
	if cfg.Memory {
		backend = store.NewMemoryStore()
	} else {
		s, err := store.NewSQLiteStore(cfg.DB)
		if err != nil {
			return nil, errors.Wrap(err, "open store")
		}
		backend = s
	}

	svc := resolver.NewService(backend)
	return &engine{
		backend:  backend,
		store:    store.NewInvalidating(backend, svc),
		resolver: svc,
		hook:     intent.NewHook(backend, svc),
		cooldown: cooldown.New(cfg.CooldownTTL),
	}, nil
}

func (e *engine) Close() error {
	return e.backend.Close()
}

// withEngine opens the engine, runs fn and closes the engine.
func withEngine(fn func(cmd *cobra.Command, args []string, e *engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd, args, e)
	}
}

func printJSON(w io.Writer, value interface{}) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
