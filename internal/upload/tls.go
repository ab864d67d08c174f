package upload

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/cockroachdb/errors"
)

// TLSConfig configures HTTPS connections to the Nexus server.
type TLSConfig struct {
	MinVersion         string   `toml:"min_version" env:"NEXUS_TLS_MIN_VERSION"`
	MaxVersion         string   `toml:"max_version" env:"NEXUS_TLS_MAX_VERSION"`
	InsecureSkipVerify bool     `toml:"insecure_skip_verify" env:"NEXUS_TLS_INSECURE_SKIP_VERIFY"`
	CACertFile         string   `toml:"ca_cert_file" env:"NEXUS_TLS_CA_CERT_FILE"`
	ClientCertFile     string   `toml:"client_cert_file" env:"NEXUS_TLS_CLIENT_CERT_FILE"`
	ClientKeyFile      string   `toml:"client_key_file" env:"NEXUS_TLS_CLIENT_KEY_FILE"`
	ServerName         string   `toml:"server_name" env:"NEXUS_TLS_SERVER_NAME"`
	CipherSuites       []string `toml:"cipher_suites" env:"NEXUS_TLS_CIPHER_SUITES"`
}

func parseTLSVersion(v string) (uint16, error) {
	switch v {
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	}
	return 0, errors.New("unsupported TLS version: " + v + " (use 1.2 or 1.3)")
}

func cipherSuiteByName(name string) (uint16, bool) {
	for _, cs := range tls.CipherSuites() {
		if cs.Name == name {
			return cs.ID, true
		}
	}
	return 0, false
}

// Validate checks the configuration without touching the filesystem.
func (tc *TLSConfig) Validate() error {
	var minVersion, maxVersion uint16
	var err error
	if tc.MinVersion != "" {
		if minVersion, err = parseTLSVersion(tc.MinVersion); err != nil {
			return errors.Wrap(err, "min_version")
		}
	}
	if tc.MaxVersion != "" {
		if maxVersion, err = parseTLSVersion(tc.MaxVersion); err != nil {
			return errors.Wrap(err, "max_version")
		}
	}
	if minVersion != 0 && maxVersion != 0 && minVersion > maxVersion {
		return errors.New("min_version cannot be greater than max_version")
	}
	if (tc.ClientCertFile == "") != (tc.ClientKeyFile == "") {
		return errors.New("both client_cert_file and client_key_file must be specified")
	}
	for _, name := range tc.CipherSuites {
		if _, ok := cipherSuiteByName(name); !ok {
			return errors.New("unknown cipher suite: " + name)
		}
	}
	return nil
}

// BuildTLSConfig creates a *tls.Config. TLS 1.2 is the minimum unless
// configured otherwise.
func (tc *TLSConfig) BuildTLSConfig() (*tls.Config, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: tc.InsecureSkipVerify, // #nosec G402 - opt-in for self-signed Nexus instances
		ServerName:         tc.ServerName,
	}
	if tc.MinVersion != "" {
		cfg.MinVersion, _ = parseTLSVersion(tc.MinVersion)
	}
	if tc.MaxVersion != "" {
		cfg.MaxVersion, _ = parseTLSVersion(tc.MaxVersion)
	}

	for _, name := range tc.CipherSuites {
		id, _ := cipherSuiteByName(name)
		cfg.CipherSuites = append(cfg.CipherSuites, id)
	}

	if tc.CACertFile != "" {
		pem, err := os.ReadFile(tc.CACertFile)
		if err != nil {
			return nil, errors.Wrap(err, "ca_cert_file")
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("no certificates found in ca_cert_file: " + tc.CACertFile)
		}
		cfg.RootCAs = pool
	}

	if tc.ClientCertFile != "" {
		cert, err := tls.LoadX509KeyPair(tc.ClientCertFile, tc.ClientKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "client certificate")
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
