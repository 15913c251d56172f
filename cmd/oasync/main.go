package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/chr1sbest/oasync/internal/definition"
	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

type options struct {
	configFile string
	logLevel   string
	cfg        definition.Config
}

func main() {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "oasync",
		Short:         "Reconcile OpenAPI 3 definitions with an API resource model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	opts.registerFlags(root.PersistentFlags())

	root.AddCommand(
		newValidateCmd(opts),
		newScopesCmd(opts),
		newTemplatesCmd(opts),
		newGenerateCmd(opts),
	)
	return root
}

// registerFlags registers the engine flags, declared on a standard library
// flag set, and the CLI flags on fs.
func (o *options) registerFlags(fs *pflag.FlagSet) {
	engineFlags := flag.NewFlagSet("oasync", flag.ContinueOnError)
	o.cfg.RegisterFlags(engineFlags)
	fs.AddGoFlagSet(engineFlags)

	fs.StringVar(&o.configFile, "config", "", "YAML file with the definition engine configuration. Its values take precedence over flags.")
	fs.StringVar(&o.logLevel, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
}

// engine builds the definition engine from the parsed flags and config file,
// rendering definitions with s.
func (o *options) engine(s oas.Serializer) (*definition.OAS3, error) {
	if o.configFile != "" {
		data, err := os.ReadFile(o.configFile)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &o.cfg); err != nil {
			return nil, errors.Wrap(err, "unmarshal config")
		}
	}

	logger, err := newLogger(o.logLevel)
	if err != nil {
		return nil, err
	}
	o.cfg.Logger = logger

	return definition.NewOAS3WithCodec(o.cfg, oas.KinParser{Strict: o.cfg.StrictValidation}, s)
}

func newLogger(lvl string) (log.Logger, error) {
	var filter level.Option
	switch lvl {
	case "debug":
		filter = level.AllowDebug()
	case "info":
		filter = level.AllowInfo()
	case "warn":
		filter = level.AllowWarn()
	case "error":
		filter = level.AllowError()
	default:
		return nil, errors.Errorf("unrecognized log level %q", lvl)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, filter)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller), nil
}

func newValidateCmd(opts *options) *cobra.Command {
	var content bool

	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Validate an OpenAPI 3 definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, data, err := prepare(opts, args[0])
			if err != nil {
				return err
			}

			result, err := engine.Validate(cmd.Context(), data, content)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Valid {
				return errors.New("definition is invalid")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&content, "content", false, "Include the canonical JSON rendering of the definition in the result.")
	return cmd
}

func newScopesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scopes <definition>",
		Short: "List the OAuth2 scopes declared by a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, data, err := prepare(opts, args[0])
			if err != nil {
				return err
			}

			scopes, err := engine.Scopes(cmd.Context(), data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), scopes)
		},
	}
}

func newTemplatesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "templates <definition>",
		Short: "List the URI templates of a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, data, err := prepare(opts, args[0])
			if err != nil {
				return err
			}

			templates, err := engine.URITemplates(cmd.Context(), data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), templates)
		},
	}
}

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		apiFile      string
		existingFile string
		sync         bool
		format       string
		outFile      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a definition from a resource model, or merge the model into an existing definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serializer, err := oas.SerializerFor(format)
			if err != nil {
				return err
			}

			api, err := readAPIData(apiFile)
			if err != nil {
				return err
			}

			engine, err := opts.engine(serializer)
			if err != nil {
				return err
			}

			out, err := generate(cmd.Context(), engine, api, existingFile, sync)
			if err != nil {
				return err
			}

			if outFile == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(outFile, out, 0o644)
		},
	}
	cmd.Flags().StringVar(&apiFile, "api", "", "YAML file describing the API resource model.")
	cmd.Flags().StringVar(&existingFile, "existing", "", "Existing definition to merge the resource model into.")
	cmd.Flags().BoolVar(&sync, "sync", false, "Remove operations of the existing definition that have no matching resource.")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml.")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the definition to this file instead of stdout.")
	_ = cmd.MarkFlagRequired("api")
	return cmd
}

func generate(ctx context.Context, engine definition.APIDefinition, api *model.APIData, existingFile string, sync bool) ([]byte, error) {
	if existingFile == "" {
		return engine.Generate(ctx, api)
	}
	existing, err := os.ReadFile(existingFile)
	if err != nil {
		return nil, errors.Wrap(err, "read existing definition")
	}
	return engine.Merge(ctx, api, existing, sync)
}

func prepare(opts *options, path string) (*definition.OAS3, []byte, error) {
	engine, err := opts.engine(oas.JSONSerializer{})
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read definition")
	}
	return engine, data, nil
}

func readAPIData(path string) (*model.APIData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read api")
	}
	var api model.APIData
	if err := yaml.Unmarshal(data, &api); err != nil {
		return nil, errors.Wrap(err, "unmarshal api")
	}
	return &api, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
