package main

import (
    "time"

    "github.com/spf13/cobra"
    "github.com/spf13/viper"
)

// Options holds CLI options that are not part of the config file.
type Options struct {
    ConfigPath string
    Loopback   bool
    Linger     time.Duration
}

func newRootCmd() *cobra.Command {
    var opts Options
    v := viper.New()

    cmd := &cobra.Command{
        Use:           "wtclient [url]",
        Short:         "Interactive client for datagrams and streams over QUIC or WebTransport",
        Args:          cobra.MaximumNArgs(1),
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE: func(cmd *cobra.Command, args []string) error {
            if len(args) == 1 { v.Set("url", args[0]) }
            return run(cmd.Context(), v, opts, cmd.InOrStdin(), cmd.OutOrStdout())
        },
    }

    f := cmd.Flags()
    f.StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
    f.BoolVar(&opts.Loopback, "loopback", false, "serve mem://echo in-process and connect to it")
    f.DurationVar(&opts.Linger, "linger", 0, "wait this long for replies after stdin ends")
    f.String("url", "", "endpoint to connect to (quic://, https://, mem://)")
    f.String("log-level", "", "log level: debug, info, warn, error")
    f.Bool("insecure", false, "skip TLS certificate verification")
    f.String("ca-file", "", "PEM bundle of trusted roots")
    f.Int("max-stream-bytes", 0, "cap on bytes buffered per inbound stream (0 = unbounded)")
    f.String("export", "", "write the event log to this file on exit")
    f.String("export-format", "", "event log export format: json, cbor or proto")

    for key, flag := range map[string]string{
        "url":                            "url",
        "log.level":                      "log-level",
        "transport.insecure_skip_verify": "insecure",
        "transport.ca_file":              "ca-file",
        "session.max_stream_bytes":       "max-stream-bytes",
        "eventlog.export_path":           "export",
        "eventlog.export_format":         "export-format",
    } {
        _ = v.BindPFlag(key, f.Lookup(flag))
    }
    return cmd
}
