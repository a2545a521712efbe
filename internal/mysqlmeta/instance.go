package mysqlmeta

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Instance represents a single database server running on a specific host or address.
type Instance struct {
	BaseDSN         string // DSN ending in trailing slash; i.e. no schema name or params
	Driver          string
	User            string
	Password        string
	Host            string
	Port            int
	SocketPath      string
	defaultDatabase string              // database name from the DSN, if any
	defaultParams   map[string]string   // params from the DSN
	connectionPool  map[string]*sqlx.DB // key is in format "schema?params"
	m               *sync.Mutex         // protects unexported fields for concurrent operations
	version         string
	waitTimeout     int
	maxUserConns    int
	lowerCaseNames  int
	valid           bool // true if any conn has ever successfully been made yet
}

// NewInstance returns a pointer to a new Instance corresponding to the
// supplied driver and dsn. Currently only "mysql" driver is supported.
// dsn should be formatted according to driver specifications. If it contains
// a database name, it is used as the session's default database. If it
// contains any params, they will be applied as default params to all
// connections (in addition to whatever is supplied in ConnectionPool).
func NewInstance(driver, dsn string) (*Instance, error) {
	if driver != "mysql" {
		return nil, fmt.Errorf("Unsupported driver \"%s\"", driver)
	}

	parsedConfig, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	instance := &Instance{
		BaseDSN:         baseDSN(dsn),
		Driver:          driver,
		User:            parsedConfig.User,
		Password:        parsedConfig.Passwd,
		defaultDatabase: parsedConfig.DBName,
		defaultParams:   paramMap(dsn),
		connectionPool:  make(map[string]*sqlx.DB),
		m:               new(sync.Mutex),
	}

	switch parsedConfig.Net {
	case "unix":
		instance.Host = "localhost"
		instance.SocketPath = parsedConfig.Addr
	default:
		instance.Host, instance.Port, err = SplitHostOptionalPort(parsedConfig.Addr)
		if err != nil {
			return nil, err
		}
	}

	return instance, nil
}

// String for an instance returns a "host:port" string (or "localhost:/path/to/socket"
// if using UNIX domain socket)
func (instance *Instance) String() string {
	if instance.SocketPath != "" {
		return instance.Host + ":" + instance.SocketPath
	} else if instance.Port == 0 {
		return instance.Host
	} else {
		return instance.Host + ":" + strconv.Itoa(instance.Port)
	}
}

// DefaultDatabase returns the database name supplied in the instance's DSN, or
// a blank string if none was supplied.
func (instance *Instance) DefaultDatabase() string {
	return instance.defaultDatabase
}

// BuildParamString returns a DB connection parameter string, which first takes
// the instance's default params and then applies overrides on top.
// The arg should be a URL query string formatted value, for example
// "foo=bar&fizz=buzz" to apply foo=bar and fizz=buzz on top of any instance
// default parameters.
func (instance *Instance) BuildParamString(params string) string {
	v := url.Values{}
	for defName, defValue := range instance.defaultParams {
		v.Set(defName, defValue)
	}
	overrides, _ := url.ParseQuery(params)
	for name := range overrides {
		v.Set(name, overrides.Get(name))
	}
	return v.Encode()
}

// ConnectionPool returns a new sqlx.DB for this instance's host/port/user/pass
// with the supplied default database and params string. A connection attempt
// is made, and an error will be returned if connection fails.
// defaultDatabase may be "" if it is not relevant.
func (instance *Instance) ConnectionPool(defaultDatabase, params string) (*sqlx.DB, error) {
	fullParams := instance.BuildParamString(params)
	return instance.rawConnectionPool(defaultDatabase, fullParams, false)
}

// CachedConnectionPool operates like ConnectionPool, except it caches
// connection pools for reuse. When multiple requests are made for the same
// combination of defaultDatabase and params, a pre-existing connection pool
// will be returned.
func (instance *Instance) CachedConnectionPool(defaultDatabase, params string) (*sqlx.DB, error) {
	fullParams := instance.BuildParamString(params)
	key := defaultDatabase + "?" + fullParams

	instance.m.Lock()
	defer instance.m.Unlock()
	if pool, ok := instance.connectionPool[key]; ok {
		return pool, nil
	}
	db, err := instance.rawConnectionPool(defaultDatabase, fullParams, true)
	if err == nil {
		instance.connectionPool[key] = db
	}
	return db, err
}

func (instance *Instance) maxConnsPerPool() int {
	return max(2, instance.maxUserConns-10)
}

func (instance *Instance) rawConnectionPool(defaultDatabase, fullParams string, alreadyLocked bool) (*sqlx.DB, error) {
	fullDSN := instance.BaseDSN + defaultDatabase + "?" + fullParams
	db, err := sqlx.Connect(instance.Driver, fullDSN)
	if err != nil {
		return nil, err
	}
	if !instance.valid {
		err = instance.hydrateVars(db, !alreadyLocked)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	// Keep concurrent connections below any server-side limit, and keep idle
	// connections from outliving the session wait_timeout
	db.SetMaxOpenConns(instance.maxConnsPerPool())
	db.SetConnMaxLifetime(time.Minute)
	if instance.waitTimeout <= 10 {
		db.SetConnMaxIdleTime((time.Duration(instance.waitTimeout) * time.Second) - (250 * time.Millisecond))
	} else {
		db.SetConnMaxIdleTime(10 * time.Second)
	}
	return db, nil
}

// Valid returns true if a successful connection can be made to the Instance,
// or if a successful connection has already been made previously. This method
// only returns false if no previous successful connection was ever made, and a
// new attempt to establish one fails.
func (instance *Instance) Valid() (bool, error) {
	if instance == nil {
		return false, nil
	} else if instance.valid {
		return true, nil
	}
	// CachedConnectionPool establishes one conn in the pool; if
	// successful, this also calls hydrateVars which then sets valid to true
	_, err := instance.CachedConnectionPool("", "")
	return err == nil, err
}

// CloseAll closes all of instance's cached connection pools. This can be
// useful for graceful shutdown, to avoid aborted-connection counters/logging
// in some versions of MySQL.
func (instance *Instance) CloseAll() {
	instance.m.Lock()
	for key, db := range instance.connectionPool {
		db.Close()
		delete(instance.connectionPool, key)
	}
	instance.valid = false // force future conns to re-hydrate vars
	instance.m.Unlock()
}

// NameCaseMode represents different values of the lower_case_table_names
// read-only global server variable.
type NameCaseMode int

// Constants representing valid NameCaseMode values
const (
	NameCaseUnknown     NameCaseMode = -1
	NameCaseAsIs        NameCaseMode = 0
	NameCaseLower       NameCaseMode = 1
	NameCaseInsensitive NameCaseMode = 2
)

// NameCaseMode returns a value reflecting this instance's lower_case_table_names,
// normally a value between 0 and 2 if successfully queryable.
func (instance *Instance) NameCaseMode() NameCaseMode {
	if ok, _ := instance.Valid(); !ok {
		return NameCaseUnknown
	}
	return NameCaseMode(instance.lowerCaseNames)
}

// Version returns the server's version string, or a blank string if it could
// not be queried.
func (instance *Instance) Version() string {
	if ok, _ := instance.Valid(); !ok {
		return ""
	}
	return instance.version
}

// hydrateVars populates several non-exported Instance fields by querying
// various global and session variables.
func (instance *Instance) hydrateVars(db *sqlx.DB, lock bool) error {
	if lock {
		instance.m.Lock()
		defer instance.m.Unlock()
		if instance.valid {
			return nil
		}
	}

	query := `SELECT @@global.version, @@session.wait_timeout,
		@@session.max_user_connections, @@global.max_connections,
		@@global.lower_case_table_names`
	var maxUserConns, maxConns int
	err := db.QueryRowContext(context.Background(), query).Scan(&instance.version,
		&instance.waitTimeout, &maxUserConns, &maxConns, &instance.lowerCaseNames)
	if err != nil {
		return err
	}
	instance.valid = true
	if maxUserConns > 0 {
		instance.maxUserConns = maxUserConns
	} else {
		instance.maxUserConns = maxConns
	}
	return nil
}

// DatabaseNames returns the names of all databases on the instance, in
// alphabetical order.
func (instance *Instance) DatabaseNames(ctx context.Context) ([]string, error) {
	db, err := instance.CachedConnectionPool("", "")
	if err != nil {
		return nil, err
	}
	var names []string
	query := `
		SELECT   schema_name
		FROM     information_schema.schemata
		ORDER BY schema_name`
	if err := db.SelectContext(ctx, &names, query); err != nil {
		return nil, err
	}
	return names, nil
}

// SplitHostOptionalPort takes an address string containing a hostname, ipv4
// addr, or ipv6 addr; *optionally* followed by a colon and port number. It
// splits the hostname portion from the port portion and returns them
// separately. If no port was present, 0 will be returned for that portion.
// If hostaddr contains an ipv6 address, the IP address portion must be
// wrapped in brackets on input, and the brackets will still be present on
// output.
func SplitHostOptionalPort(hostaddr string) (string, int, error) {
	if len(hostaddr) == 0 {
		return "", 0, errors.New("Cannot parse blank host address")
	}

	// ipv6 without port, or ipv4 or hostname without port
	if (hostaddr[0] == '[' && hostaddr[len(hostaddr)-1] == ']') || !strings.Contains(hostaddr, ":") {
		return hostaddr, 0, nil
	}

	host, portString, err := net.SplitHostPort(hostaddr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portString)
	if err != nil {
		return "", 0, err
	} else if port < 1 {
		return "", 0, fmt.Errorf("invalid port %d supplied", port)
	}

	// ipv6 with port: add the brackets back in, since net.SplitHostPort removes
	// them but a valid DSN needs them
	if hostaddr[0] == '[' && host[0] != '[' {
		host = fmt.Sprintf("[%s]", host)
	}

	return host, port, nil
}

// baseDSN returns a DSN with the database name and params stripped.
func baseDSN(dsn string) string {
	tokens := strings.SplitAfter(dsn, "/")
	return strings.Join(tokens[0:len(tokens)-1], "")
}

// paramMap builds a map representing all params in the DSN.
// This does not rely on mysql.ParseDSN because that handles some vars
// separately; i.e. mysql.Config's params field does NOT include all
// params that are passed in!
func paramMap(dsn string) map[string]string {
	parts := strings.Split(dsn, "?")
	if len(parts) == 1 {
		return make(map[string]string)
	}
	values, _ := url.ParseQuery(parts[len(parts)-1])

	// If a param is present multiple times, only keep the first value
	result := make(map[string]string, len(values))
	for key := range values {
		result[key] = values.Get(key)
	}
	return result
}
