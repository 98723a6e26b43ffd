package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GRAPHBIND"

// LoadOptions controls where Load reads configuration from.
type LoadOptions struct {
	// ConfigFile is an optional path to a config file (yaml, toml, or json,
	// decided by extension). Missing file is an error; empty path skips the
	// file layer.
	ConfigFile string
	// Flags is an optional flag set whose explicitly-set flags override file
	// and environment values. Flag names use the canonical dotted keys, e.g.
	// "pagination.default_count". DefineFlags registers them.
	Flags *pflag.FlagSet
}

// DefineFlags registers the library's flags on fs using canonical
// snake_case keys.
func DefineFlags(fs *pflag.FlagSet) {
	fs.Int("pagination.default_count", 0, "Default page size when the client omits a count")
	fs.Int("pagination.max_count", 0, "Upper clamp on requested page sizes (0 = unbounded)")
	fs.Int("pagination.hard_ceiling", 0, "Reject counts above this outright (0 = disabled)")

	fs.String("logging.level", "info", "Log level (debug, info, warn, error)")
	fs.String("logging.format", "text", "Log format (json, text)")

	fs.String("database.dsn", "", "Complete MySQL DSN (user:pass@tcp(host:port)/db)")
	fs.Int("database.max_open_conns", 0, "Maximum open database connections")
	fs.Int("database.max_idle_conns", 0, "Maximum idle database connections")
	fs.Duration("database.conn_max_lifetime", 0, "Maximum lifetime of a database connection")
	fs.Bool("database.instrument", false, "Instrument the database driver with OpenTelemetry")
	fs.Bool("database.sqlcommenter", false, "Inject trace context comments into outgoing SQL")

	fs.Bool("observability.enabled", false, "Enable OpenTelemetry providers")
	fs.String("observability.service_name", "graphbind", "Service name reported on telemetry")
	fs.String("observability.service_version", "", "Service version reported on telemetry")
	fs.String("observability.environment", "", "Deployment environment reported on telemetry")
	fs.Float64("observability.trace_sample_ratio", 1.0, "Trace sampling ratio in [0, 1]")
	fs.Bool("observability.prometheus_enabled", false, "Expose metrics through a Prometheus registry")
	fs.String("observability.otlp.endpoint", "", "OTLP exporter endpoint")
	fs.String("observability.otlp.protocol", "grpc", "OTLP protocol (grpc, http/protobuf)")
	fs.Bool("observability.otlp.insecure", false, "Disable TLS for the OTLP exporter")
}

// Load assembles the configuration: defaults, then the optional config
// file, then GRAPHBIND_* environment variables, then explicitly-set flags.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		bindChangedFlagsToViper(v, opts.Flags)
	}

	var cfg Config
	if err := v.UnmarshalExact(
		&cfg,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		),
	); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pagination.default_count", 0)
	v.SetDefault("pagination.max_count", 0)
	v.SetDefault("pagination.hard_ceiling", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_lifetime", "0s")
	v.SetDefault("database.instrument", false)
	v.SetDefault("database.sqlcommenter", false)

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.service_name", "graphbind")
	v.SetDefault("observability.service_version", "")
	v.SetDefault("observability.environment", "")
	v.SetDefault("observability.trace_sample_ratio", 1.0)
	v.SetDefault("observability.prometheus_enabled", false)
	v.SetDefault("observability.otlp.endpoint", "")
	v.SetDefault("observability.otlp.protocol", "grpc")
	v.SetDefault("observability.otlp.insecure", false)
	v.SetDefault("observability.otlp.tls_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_key_file", "")
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.otlp.timeout", "10s")
	v.SetDefault("observability.otlp.compression", "")
	v.SetDefault("observability.otlp.retry_enabled", false)
	v.SetDefault("observability.otlp.retry_max_attempts", 0)
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults.
func bindChangedFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "string":
			val, _ := fs.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := fs.GetFloat64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := fs.GetDuration(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}
