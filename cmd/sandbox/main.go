// Command sandbox wires a small container with the registry extensions and
// prints what it resolves.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/medion-go/di"
	"github.com/medion-go/di/callscope"
	"github.com/medion-go/di/dynamic"
	"github.com/medion-go/di/namedscope"
	"github.com/medion-go/di/upsert"
)

type Service interface {
	Name() string
}

type service struct{ name string }

func (s *service) Name() string { return s.name }

func newService(name string) Service { return &service{name: name} }

type Greeting struct{ Text string }

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MEDION")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "sandbox",
		Short:         "Resolve services through the registry extensions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("validate-scopes", false, "reject scoped services resolved from the root container")
	_ = v.BindPFlags(root.PersistentFlags())

	concurrent := &cobra.Command{
		Use:   "concurrent",
		Short: "Resolve with call-scoped arguments from concurrent calls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBuilder(v, func(b di.ContainerBuilder) error {
				return runConcurrent(cmd, b, v.GetInt("calls"))
			})
		},
	}
	concurrent.Flags().Int("calls", 8, "number of concurrent calls")
	_ = v.BindPFlag("calls", concurrent.Flags().Lookup("calls"))

	root.AddCommand(
		&cobra.Command{
			Use:   "args [name]",
			Short: "Resolve a service with a call-scoped argument",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := "hello"
				if len(args) > 0 {
					name = args[0]
				}
				return withBuilder(v, func(b di.ContainerBuilder) error {
					return runArgs(cmd, b, name)
				})
			},
		},
		&cobra.Command{
			Use:   "named",
			Short: "Resolve a service from named and unnamed scopes",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withBuilder(v, func(b di.ContainerBuilder) error {
					return runNamed(cmd, b)
				})
			},
		},
		concurrent,
	)

	return root
}

func withBuilder(v *viper.Viper, run func(di.ContainerBuilder) error) error {
	logger, err := newLogger(v.GetString("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	b := di.Builder()
	b.ConfigureOptions(func(o *di.Options) {
		o.ValidateScopes = v.GetBool("validate-scopes")
		o.Logger = logger
	})
	return run(b)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

func runArgs(cmd *cobra.Command, b di.ContainerBuilder, name string) error {
	if _, err := upsert.UpsertTransient[Service](b, callscope.Ctor(newService, 0)); err != nil {
		return err
	}
	if err := callscope.RegisterAll(b); err != nil {
		return err
	}

	s, err := callscope.ResolveWithArg[Service](dynamic.New(b), name)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.Name())
	return nil
}

func runNamed(cmd *cobra.Command, b di.ContainerBuilder) error {
	greeting := func(text string) func() *Greeting {
		return func() *Greeting { return &Greeting{Text: text} }
	}

	di.AddScoped[*Greeting](b, greeting("hello"))
	for _, name := range []string{"en", "de"} {
		text := map[string]string{"en": "hello from en", "de": "hallo aus de"}[name]
		if _, err := namedscope.WithinNamedScope(b, name, func(sub di.ContainerBuilder) {
			di.AddScoped[*Greeting](sub, greeting(text))
		}); err != nil {
			return err
		}
	}

	c := dynamic.New(b)
	defer c.Dispose()

	unnamed := c.CreateScope()
	defer unnamed.Dispose()
	fmt.Fprintf(cmd.OutOrStdout(), "unnamed: %s\n", di.Get[*Greeting](unnamed.Container()).Text)

	for _, name := range []string{"en", "de", "fr"} {
		scope, err := namedscope.CreateNamedScope(c, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, di.Get[*Greeting](scope.Container()).Text)
		scope.Dispose()
	}
	return nil
}

func runConcurrent(cmd *cobra.Command, b di.ContainerBuilder, calls int) error {
	di.AddTransient[Service](b, callscope.Ctor(newService, 0))
	if err := callscope.RegisterAll(b); err != nil {
		return err
	}
	c := b.Build()

	names := make([]string, calls)
	var g errgroup.Group
	for i := range names {
		g.Go(func() error {
			s, err := callscope.ResolveWithArgs[Service](c, fmt.Sprintf("call-%d", i))
			if err != nil {
				return err
			}
			names[i] = s.Name()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}
