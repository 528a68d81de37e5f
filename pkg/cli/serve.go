package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neakor/hemera/pkg/args"
	"github.com/neakor/hemera/pkg/config"
	"github.com/neakor/hemera/pkg/logging"
	"github.com/neakor/hemera/pkg/metrics"
	"github.com/neakor/hemera/pkg/rest"
	"github.com/neakor/hemera/pkg/runtime"
	"github.com/neakor/hemera/pkg/tlsutil"
)

// serveFlags holds the values bound to the serve command's flags.
type serveFlags struct {
	configFile  string
	port        int
	readTimeout int
	bufferSize  int
	tlsCert     string
	tlsKey      string
	tlsAuto     bool
	logLevel    string
	logFormat   string
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server runtime (foreground)",
	Long: `Start the server runtime in the foreground. Without a configuration
file the server uses built-in defaults and exposes a status service at
/services/status. The process runs until interrupted.`,
	Example: `  # Start with defaults on port 8080
  hemera serve

  # Start with a config file on a custom port
  hemera serve --config hemera.yaml --port 3000

  # Start with TLS using certificate files
  hemera serve --tls-cert server.crt --tls-key server.key

  # Start with an auto-generated self-signed certificate
  hemera serve --tls-auto`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

func initServeCmd() {
	rootCmd.AddCommand(serveCmd)

	f := &serveFlagVals
	serveCmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 0, "Server port (overrides config file)")
	serveCmd.Flags().IntVar(&f.readTimeout, "read-timeout", 0, "Idle connection read timeout in seconds")
	serveCmd.Flags().IntVar(&f.bufferSize, "buffer-size", 0, "Socket buffer size in bytes")
	serveCmd.Flags().StringVar(&f.tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serveCmd.Flags().StringVar(&f.tlsKey, "tls-key", "", "Path to TLS private key file")
	serveCmd.Flags().BoolVar(&f.tlsAuto, "tls-auto", false, "Auto-generate a self-signed certificate")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := loadServeConfig(cmd, f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.Config{}
	if cfg.Log != nil {
		logCfg.Level = logging.ParseLevel(cfg.Log.Level)
		logCfg.Format = logging.ParseFormat(cfg.Log.Format)
	}
	log := logging.New(logCfg)

	registry := rest.NewPathRegistry()
	if err := registry.Add("services/status", newStatusResource()); err != nil {
		return err
	}

	rt := runtime.New(cfg, registry,
		runtime.WithLogger(log),
		runtime.WithMetrics(metrics.NewRegistry()),
	)
	if err := rt.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	log.Info("shutdown signal received", "signal", sig.String())
	return rt.Stop()
}

func loadServeConfig(cmd *cobra.Command, f *serveFlags) (*config.Configuration, error) {
	cfg := config.DefaultConfiguration()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = f.readTimeout
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = f.bufferSize
	}
	if flags.Changed("log-level") || flags.Changed("log-format") {
		if cfg.Log == nil {
			cfg.Log = &config.LogConfig{}
		}
		if flags.Changed("log-level") {
			cfg.Log.Level = f.logLevel
		}
		if flags.Changed("log-format") {
			cfg.Log.Format = f.logFormat
		}
	}

	switch {
	case f.tlsAuto:
		certFile, keyFile, err := generateCertFiles()
		if err != nil {
			return nil, err
		}
		cfg.TLS = &config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile}
	case f.tlsCert != "" || f.tlsKey != "":
		if f.tlsCert == "" || f.tlsKey == "" {
			return nil, fmt.Errorf("both --tls-cert and --tls-key are required")
		}
		cfg.TLS = &config.TLSConfig{Enabled: true, CertFile: f.tlsCert, KeyFile: f.tlsKey}
	}
	return cfg, nil
}

// generateCertFiles writes a freshly generated self-signed certificate
// pair into a temporary directory and returns the file paths.
func generateCertFiles() (string, string, error) {
	cert, err := tlsutil.GenerateSelfSigned(tlsutil.DefaultCertificateConfig())
	if err != nil {
		return "", "", err
	}
	dir, err := os.MkdirTemp("", "hemera-tls")
	if err != nil {
		return "", "", err
	}
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certFile, cert.CertPEM, 0o600); err != nil {
		return "", "", err
	}
	if err := os.WriteFile(keyFile, cert.KeyPEM, 0o600); err != nil {
		return "", "", err
	}
	return certFile, keyFile, nil
}

// statusRequest carries no client input.
type statusRequest struct{}

func (*statusRequest) Parse([]string, args.Arguments) error { return nil }

type statusResponse struct {
	State  string `json:"status"`
	Uptime string `json:"uptime"`
}

func (r *statusResponse) Status() rest.Status { return rest.StatusOK }

func (r *statusResponse) JSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"status":%q,"uptime":%q}`, r.State, r.Uptime)), nil
}

// statusProcessor answers the built-in /services/status resource.
type statusProcessor struct {
	started time.Time
}

func (p *statusProcessor) NewRequest() rest.Request { return &statusRequest{} }

func (p *statusProcessor) Redirect(rest.Request) rest.RedirectBehavior { return rest.Invoke }

func (p *statusProcessor) RedirectURI(rest.Request, rest.Response) string { return "" }

func (p *statusProcessor) Process(rest.Request) (rest.Response, error) {
	return &statusResponse{
		State:  "ok",
		Uptime: time.Since(p.started).Round(time.Second).String(),
	}, nil
}

type statusResource struct {
	processor *statusProcessor
}

func newStatusResource() *statusResource {
	return &statusResource{processor: &statusProcessor{started: time.Now()}}
}

func (r *statusResource) Processor(_ []string, method rest.Method) rest.Processor {
	if method != rest.GET {
		return nil
	}
	return r.processor
}
