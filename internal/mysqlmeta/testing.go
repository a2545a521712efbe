package mysqlmeta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime/debug"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

// This file contains public functions and structs designed to make integration
// testing easier. They are used by this package's own tests, and by other
// dbnav packages that need a live server.

// IntegrationTestSuite is the interface for a suite of test methods. In
// addition to implementing the 3 methods of the interface, an integration test
// suite struct should have any number of test methods of form
// TestFoo(t *testing.T), which will be executed automatically by RunSuite.
type IntegrationTestSuite interface {
	Setup(t *testing.T, backend string)
	Teardown(t *testing.T)
	BeforeTest(t *testing.T)
}

// RunSuite runs all test methods in the supplied suite once per backend. It
// calls suite.Setup(t, backend) once per backend, then iterates through all
// Test methods in suite. For each test method, suite.BeforeTest will be run,
// followed by the test itself. Finally, suite.Teardown(t) will be run.
// Backends are just strings, typically DSNs of test servers.
func RunSuite(suite IntegrationTestSuite, t *testing.T, backends []string) {
	var suiteName string
	suiteType := reflect.TypeOf(suite)
	suiteVal := reflect.ValueOf(suite)
	if suiteVal.Kind() == reflect.Ptr {
		suiteName = suiteVal.Elem().Type().Name()
	} else {
		suiteName = suiteType.Name()
	}

	if len(backends) == 0 {
		t.Skipf("Skipping integration test suite %s: No backends supplied", suiteName)
	}

	for n, backend := range backends {
		suite.Setup(t, backend)

		// Run test methods
		for i := 0; i < suiteType.NumMethod(); i++ {
			method := suiteType.Method(i)
			if strings.HasPrefix(method.Name, "Test") {
				subtestName := fmt.Sprintf("%s.%s:%d", suiteName, method.Name, n)
				subtest := func(subt *testing.T) {
					suite.BeforeTest(subt)

					// Capture output and only display if test fails or is skipped. Note that
					// this approach does not permit concurrent subtest execution.
					realOut, realErr := os.Stdout, os.Stderr
					realLogOutput := log.StandardLogger().Out
					if r, w, err := os.Pipe(); err == nil {
						os.Stdout = w
						os.Stderr = w
						log.SetOutput(w)
						outChan := make(chan []byte)
						defer func() {
							iface := recover()
							w.Close()
							os.Stdout = realOut
							os.Stderr = realErr
							log.SetOutput(realLogOutput)
							testOutput := <-outChan
							if subt.Failed() || subt.Skipped() || iface != nil {
								os.Stderr.Write(testOutput)
							}
							if iface != nil {
								os.Stderr.WriteString(fmt.Sprintf("panic: %v [recovered]\n\n", iface))
								os.Stderr.Write(debug.Stack())
								subt.Fail()
							}
						}()
						go func() {
							var b bytes.Buffer
							_, err := io.Copy(&b, r) // prevent pipe from filling up
							if err == nil {
								outChan <- b.Bytes()
							} else {
								outChan <- fmt.Appendf(nil, "Unable to buffer test output: %v", err)
							}
							close(outChan)
						}()
					}
					method.Func.Call([]reflect.Value{reflect.ValueOf(suite), reflect.ValueOf(subt)})
				}
				t.Run(subtestName, subtest)
			}
		}

		suite.Teardown(t)
	}
}

// TestBackends examines the DBNAV_TEST_MYSQL_DSN env variable, which should be
// set to a semicolon-separated list of DSNs of disposable test servers. If no
// DSNs are configured, the test is marked as skipped.
func TestBackends(t *testing.T) []string {
	t.Helper()
	envString := strings.TrimSpace(os.Getenv("DBNAV_TEST_MYSQL_DSN"))
	if envString == "" {
		fmt.Println("DBNAV_TEST_MYSQL_DSN env var is not set, so integration tests will be skipped.")
		fmt.Println("To run integration tests, set DBNAV_TEST_MYSQL_DSN to a semicolon-separated")
		fmt.Println("list of DSNs of disposable servers. For example:")
		fmt.Println(`$ DBNAV_TEST_MYSQL_DSN="root:fakepw@tcp(127.0.0.1:3306)/" go test ./...`)
		t.SkipNow()
	}
	var backends []string
	for _, dsn := range strings.Split(envString, ";") {
		if dsn = strings.TrimSpace(dsn); dsn != "" {
			backends = append(backends, dsn)
		}
	}
	return backends
}

// ExecSQL executes the SQL statements in the supplied string on instance. The
// string may contain several semicolon-terminated statements, which are sent
// together in one session with foreign_key_checks disabled. Any error is fatal
// to the test.
func ExecSQL(t *testing.T, instance *Instance, input string) {
	t.Helper()
	// Odd capitalization of foreign_key_checks keeps this pool from being reused
	// by other code paths, since pools are cached by params
	db, err := instance.CachedConnectionPool("", "multiStatements=true&foreign_key_checks=OfF")
	if err != nil {
		t.Fatalf("ExecSQL on %s: %v", instance, err)
	}
	if _, err := db.ExecContext(context.Background(), input); err != nil {
		t.Fatalf("ExecSQL on %s: %v", instance, err)
	}
}

// NukeData drops the supplied databases if they exist. This should never be
// used on a "real" production database!
func NukeData(t *testing.T, instance *Instance, databases ...string) {
	t.Helper()
	var b strings.Builder
	for _, name := range databases {
		fmt.Fprintf(&b, "DROP DATABASE IF EXISTS %s;\n", EscapeIdentifier(name))
	}
	if b.Len() > 0 {
		ExecSQL(t, instance, b.String())
	}
}

// EscapeIdentifier is for use in safely escaping MySQL identifiers (table
// names, column names, etc). It doubles any backticks already present in the
// input string, and then returns the string wrapped in outer backticks.
func EscapeIdentifier(input string) string {
	escaped := strings.ReplaceAll(input, "`", "``")
	return "`" + escaped + "`"
}
