package api

import "errors"

type CORSConfig struct {
	TrustedOrigins []string `yaml:"trusted_origins"`
}

// AuthConfig verifies the bearer tokens issued by the identity provider.
type AuthConfig struct {
	// Secret is the HMAC key tokens are signed with.
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`

	// TenantClaim names the claim holding the tenant id. It is looked up at
	// the top level first, then inside user_metadata.
	TenantClaim string `yaml:"tenant_claim"`
}

type Config struct {
	Addr     string     `yaml:"addr"`
	CertFile string     `yaml:"cert_file"`
	KeyFile  string     `yaml:"key_file"`
	CORS     CORSConfig `yaml:"cors"`
	Auth     AuthConfig `yaml:"auth"`
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("api server address is required")
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("both cert file and key file are required for TLS")
	}

	if c.Auth.Secret == "" {
		return errors.New("api auth secret is required")
	}

	return nil
}

func (c AuthConfig) tenantClaim() string {
	if c.TenantClaim == "" {
		return "tenant_id"
	}
	return c.TenantClaim
}
