package config

import (
	"github.com/spf13/cobra"
)

// flags mirrors Config with the CLI-specific defaults and wiring cobra
// needs; it is kept separate from Config so YAML unmarshalling never has to
// reason about pflag types.
type flags struct {
	interfaceName   string
	port            uint16
	dbPath          string
	configPath      string
	connectionTimeo uint64
	quiet           bool
	dataRetention   uint64
	hasRetention    bool
	aggregation     uint64
	resolveDNS      bool
	allowedIPs      []string
}

// BuildCommand constructs the root cobra command. run receives the fully
// resolved Config (defaults -> file -> CLI, CLI wins) once flags are parsed.
func BuildCommand(run func(Config) error) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:     "ayaflowd",
		Short:   "ayaflow: eBPF-based host-local network traffic observer",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := Default()
			if f.configPath != "" {
				fileCfg, err := LoadFile(f.configPath)
				if err != nil {
					return err
				}
				cfg = fileCfg
			}
			applyFlagOverrides(cmd, f, &cfg)
			return run(cfg)
		},
	}

	pf := cmd.Flags()
	pf.StringVarP(&f.interfaceName, "interface", "i", "", "network interface to attach the classifier to")
	pf.Uint16VarP(&f.port, "port", "p", 3000, "API server port")
	pf.StringVar(&f.dbPath, "db-path", "traffic.db", "SQLite database path")
	pf.StringVarP(&f.configPath, "config", "c", "", "path to YAML config file")
	pf.Uint64Var(&f.connectionTimeo, "connection-timeout", 60, "stale-flow eviction timeout, seconds")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "suppress non-error logs")
	pf.Uint64Var(&f.dataRetention, "data-retention", 0, "delete persisted packets older than this many seconds (unset = keep forever; 0 prunes every row)")
	pf.Uint64Var(&f.aggregation, "aggregation-window", 0, "aggregation window in seconds (0 = raw per-packet rows)")
	pf.BoolVar(&f.resolveDNS, "resolve-dns", false, "enable reverse DNS hostname enrichment")
	pf.StringSliceVar(&f.allowedIPs, "allowed-ips", nil, "CIDR ranges allowed to reach the API (repeatable; empty = allow all)")

	return cmd
}

// applyFlagOverrides copies only explicitly-set flags onto cfg, so a file
// value survives when the corresponding flag was not given on the command
// line.
func applyFlagOverrides(cmd *cobra.Command, f *flags, cfg *Config) {
	changed := cmd.Flags().Changed

	if changed("interface") {
		cfg.Interface = f.interfaceName
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("db-path") {
		cfg.DBPath = f.dbPath
	}
	if changed("connection-timeout") {
		cfg.ConnectionTimeoutSeconds = f.connectionTimeo
	}
	if changed("quiet") {
		cfg.Quiet = f.quiet
	}
	if changed("data-retention") {
		v := f.dataRetention
		cfg.DataRetentionSeconds = &v
	}
	if changed("aggregation-window") {
		cfg.AggregationWindowSeconds = f.aggregation
	}
	if changed("resolve-dns") {
		cfg.ResolveDNS = f.resolveDNS
	}
	if changed("allowed-ips") {
		cfg.AllowedIPs = f.allowedIPs
	}
}
