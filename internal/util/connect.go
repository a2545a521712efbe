package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skeema/dbnav/internal/exasolmeta"
	"github.com/skeema/dbnav/internal/mysqlmeta"
	"github.com/skeema/mybase"
)

// MySQLDSN returns a go-sql-driver/mysql DSN built from cfg's host, port,
// socket, user, password, schema and connect-options. As with the mysql
// client, host localhost means the Unix socket, unless a port was supplied
// without a socket.
func MySQLDSN(cfg *mybase.Config) (string, error) {
	params, err := MySQLParams(cfg.Get("connect-options"))
	if err != nil {
		return "", fmt.Errorf("Invalid connection options: %w", err)
	}
	userAndPass := cfg.Get("user")
	if password := cfg.Get("password"); password != "" {
		userAndPass += ":" + password
	}
	port, portWasSupplied, err := portOption(cfg)
	if err != nil {
		return "", err
	}
	if port == 0 {
		port = 3306
	}

	var net, addr string
	host := cfg.Get("host")
	if host == "localhost" && (cfg.Supplied("socket") || !portWasSupplied) {
		net, addr = "unix", cfg.Get("socket")
	} else {
		splitHost, splitPort, err := mysqlmeta.SplitHostOptionalPort(host)
		if err != nil {
			return "", err
		}
		if splitPort > 0 {
			if splitPort != port && portWasSupplied {
				return "", fmt.Errorf("Port was supplied as %d inside hostname %s but as %d in option", splitPort, host, port)
			}
			host, port = splitHost, splitPort
		}
		net, addr = "tcp", fmt.Sprintf("%s:%d", host, port)
	}
	return fmt.Sprintf("%s@%s(%s)/%s?%s", userAndPass, net, addr, cfg.Get("schema"), params), nil
}

// MySQLParams converts connect-options into a DSN parameter string, adding
// default timeouts. Driver params which would interfere with metadata queries
// are not permitted.
func MySQLParams(connectOpts string) (string, error) {
	banned := map[string]bool{
		"allowallfiles":     true,
		"checkconnliveness": true,
		"clientfoundrows":   true,
		"columnswithalias":  true,
		"interpolateparams": true, // always enabled explicitly below
		"loc":               true,
		"multistatements":   true,
		"parsetime":         true,
		"serverpubkey":      true,
	}
	options, err := SplitConnectOptions(connectOpts)
	if err != nil {
		return "", err
	}

	v := url.Values{}
	v.Set("timeout", "5s")
	v.Set("readTimeout", "20s")
	v.Set("writeTimeout", "5s")
	v.Set("tls", "preferred")
	for name, value := range options {
		if banned[strings.ToLower(name)] {
			return "", fmt.Errorf("connect-options is not allowed to contain %s", name)
		}
		v.Set(name, value)
	}
	v.Set("interpolateParams", "true")
	return v.Encode(), nil
}

// ExasolConfig returns the Exasol connection configuration described by cfg.
func ExasolConfig(cfg *mybase.Config) (exasolmeta.Config, error) {
	if cfg.Get("connect-options") != "" {
		return exasolmeta.Config{}, errors.New("Option connect-options is only supported by the mysql driver")
	}
	port, portWasSupplied, err := portOption(cfg)
	if err != nil {
		return exasolmeta.Config{}, err
	}
	host, splitPort, err := mysqlmeta.SplitHostOptionalPort(cfg.Get("host"))
	if err != nil {
		return exasolmeta.Config{}, err
	}
	if splitPort > 0 {
		if splitPort != port && portWasSupplied {
			return exasolmeta.Config{}, fmt.Errorf("Port was supplied as %d inside hostname %s but as %d in option", splitPort, cfg.Get("host"), port)
		}
		port = splitPort
	}
	return exasolmeta.Config{
		Host:                      host,
		Port:                      port,
		User:                      cfg.Get("user"),
		Password:                  cfg.Get("password"),
		Schema:                    cfg.Get("schema"),
		ValidateServerCertificate: cfg.GetBool("validate-server-certificate"),
		DisableExtraMetadataReads: !cfg.GetBool("metadata-reads"),
	}, nil
}

// portOption returns the value of the port option, or 0 if it is blank, along
// with whether it was supplied at all.
func portOption(cfg *mybase.Config) (int, bool, error) {
	if cfg.Get("port") == "" {
		return 0, false, nil
	}
	port, err := cfg.GetInt("port")
	if err != nil {
		return 0, false, err
	}
	if port < 1 || port > 65535 {
		return 0, false, fmt.Errorf("Option port must be between 1 and 65535, instead found %d", port)
	}
	return port, cfg.Supplied("port"), nil
}
