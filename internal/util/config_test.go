package util

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/skeema/mybase"
)

func newTestSuite() *mybase.Command {
	cmdSuite := mybase.NewCommandSuite("dbnavtest", "", "")
	AddGlobalOptions(cmdSuite)
	cmdSuite.AddSubCommand(mybase.NewCommand("resolve", "", "", nil))
	return cmdSuite
}

func TestAddGlobalConfigFiles(t *testing.T) {
	cmdSuite := newTestSuite()

	// Expectation: global config files not existing isn't fatal
	cfg := mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve")
	AddGlobalConfigFiles(cfg)
	if actualPassword := cfg.Get("password"); actualPassword != "" {
		t.Errorf("Expected password to be unchanged from default; instead found %s", actualPassword)
	}

	os.MkdirAll("fake-etc", 0777)
	os.MkdirAll("fake-home", 0777)
	os.WriteFile("fake-etc/dbnav", []byte("user=one\npassword=foo\n[exasol]\nuser=sys\n"), 0777)
	os.WriteFile("fake-home/.my.cnf", []byte("doesnt-exist\nuser=two\n"), 0777)
	defer func() {
		os.RemoveAll("fake-etc")
		os.RemoveAll("fake-home")
	}()

	// Expectation: both global option files get applied; the one in home
	// overrides the one in etc; undefined options don't cause problems for
	// a file ending in .my.cnf
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve")
	AddGlobalConfigFiles(cfg)
	if actualUser := cfg.Get("user"); actualUser != "two" {
		t.Errorf("Expected user in fake-home/.my.cnf to take precedence; instead found %s", actualUser)
	}
	if actualPassword := cfg.Get("password"); actualPassword != "foo" {
		t.Errorf("Expected password to come from fake-etc/dbnav; instead found %s", actualPassword)
	}

	// Expectation: with the exasol driver, .my.cnf is skipped, and the exasol
	// section of the dbnav file is used
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve --driver=exasol")
	AddGlobalConfigFiles(cfg)
	if actualUser := cfg.Get("user"); actualUser != "sys" {
		t.Errorf("Expected user in exasol section of fake-etc/dbnav to be used; instead found %s", actualUser)
	}

	// Expectation: --skip-my-cnf prevents .my.cnf from being used
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve --skip-my-cnf")
	AddGlobalConfigFiles(cfg)
	if actualUser := cfg.Get("user"); actualUser != "one" {
		t.Errorf("Expected user in fake-etc/dbnav to be used; instead found %s", actualUser)
	}

	// Introduce an invalid option into fake-etc/dbnav. Expectation: the file
	// is no longer used as a source, even for options declared above the invalid
	// one.
	os.WriteFile("fake-etc/dbnav", []byte("user=one\npassword=foo\nthis will not parse"), 0777)
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve")
	AddGlobalConfigFiles(cfg)
	if actualUser := cfg.Get("user"); actualUser != "two" {
		t.Errorf("Expected user in fake-home/.my.cnf to take precedence; instead found %s", actualUser)
	}
	if actualPassword := cfg.Get("password"); actualPassword != "" {
		t.Errorf("Expected password to be unchanged from default; instead found %s", actualPassword)
	}
}

func TestPasswordOption(t *testing.T) {
	cmdSuite := newTestSuite()

	// No env vars, no password option set on CLI: should stay default
	t.Setenv("MYSQL_PWD", "")
	t.Setenv("DBNAV_PWD", "")
	cfg := mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve")
	if err := ProcessSpecialGlobalOptions(cfg); err != nil {
		t.Errorf("Unexpected error from ProcessSpecialGlobalOptions: %s", err)
	}
	if cfg.Changed("password") {
		t.Errorf("Expected password to remain default, instead it is set to %s", cfg.Get("password"))
	}

	// MYSQL_PWD set: only used by the mysql driver
	t.Setenv("MYSQL_PWD", "helloworld")
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve")
	if err := ProcessSpecialGlobalOptions(cfg); err != nil {
		t.Errorf("Unexpected error from ProcessSpecialGlobalOptions: %s", err)
	}
	if cfg.Get("password") != "helloworld" {
		t.Errorf("Expected password to be helloworld, instead found %s", cfg.Get("password"))
	}
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve --driver=exasol")
	if err := ProcessSpecialGlobalOptions(cfg); err != nil {
		t.Errorf("Unexpected error from ProcessSpecialGlobalOptions: %s", err)
	}
	if cfg.Changed("password") {
		t.Errorf("Expected password to remain default, instead it is set to %s", cfg.Get("password"))
	}

	// DBNAV_PWD takes precedence over MYSQL_PWD
	t.Setenv("DBNAV_PWD", "hellodbnav")
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve")
	if err := ProcessSpecialGlobalOptions(cfg); err != nil {
		t.Errorf("Unexpected error from ProcessSpecialGlobalOptions: %s", err)
	}
	if cfg.Get("password") != "hellodbnav" {
		t.Errorf("Expected password to be hellodbnav, instead found %s", cfg.Get("password"))
	}

	// Password set on CLI and in env: CLI should win out
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve --password=heyearth")
	if err := ProcessSpecialGlobalOptions(cfg); err != nil {
		t.Errorf("Unexpected error from ProcessSpecialGlobalOptions: %s", err)
	}
	if cfg.Get("password") != "heyearth" {
		t.Errorf("Expected password to be heyearth, instead found %s", cfg.Get("password"))
	}

	// Password set in file and env: file should win out
	fakeFileSource := mybase.SimpleSource(map[string]string{
		"password": "howdyplanet",
	})
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve", fakeFileSource)
	if err := ProcessSpecialGlobalOptions(cfg); err != nil {
		t.Errorf("Unexpected error from ProcessSpecialGlobalOptions: %s", err)
	}
	if cfg.Get("password") != "howdyplanet" {
		t.Errorf("Expected password to be howdyplanet, instead found %s", cfg.Get("password"))
	}

	// ProcessSpecialGlobalOptions should error if STDIN isn't TTY
	oldStdin := os.Stdin
	defer func() {
		os.Stdin = oldStdin
	}()
	var err error
	if os.Stdin, err = os.Open("config_test.go"); err != nil {
		t.Fatalf("Unable to open config_test.go: %s", err)
	}
	cfg = mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve --password")
	if err := ProcessSpecialGlobalOptions(cfg); err == nil {
		t.Error("Expected ProcessSpecialGlobalOptions to return an error for non-TTY STDIN, but it did not")
	}
}

func TestProcessSpecialGlobalOptionsDriver(t *testing.T) {
	cmdSuite := newTestSuite()
	cfg := mybase.ParseFakeCLI(t, cmdSuite, "dbnav resolve --driver=postgres")
	if err := ProcessSpecialGlobalOptions(cfg); err == nil {
		t.Error("Expected ProcessSpecialGlobalOptions to return an error for an unsupported driver, but it did not")
	}
}

func TestSplitConnectOptions(t *testing.T) {
	assertConnectOpts := func(connectOptions string, expectedPair ...string) {
		result, err := SplitConnectOptions(connectOptions)
		if err != nil {
			t.Errorf("Unexpected error from SplitConnectOptions(\"%s\"): %s", connectOptions, err)
		}
		expected := make(map[string]string, len(expectedPair))
		for _, pair := range expectedPair {
			tokens := strings.SplitN(pair, "=", 2)
			expected[tokens[0]] = tokens[1]
		}
		if !reflect.DeepEqual(expected, result) {
			t.Errorf("Expected SplitConnectOptions(\"%s\") to return %v, instead received %v", connectOptions, expected, result)
		}
	}
	assertConnectOpts("")
	assertConnectOpts("foo='bar'", "foo='bar'")
	assertConnectOpts("bool=true,quotes='yes,no'", "bool=true", "quotes='yes,no'")
	assertConnectOpts(`escaped=we\'re ok`, `escaped=we\'re ok`)
	assertConnectOpts(`escquotes='we\'re still quoted',this=that`, `escquotes='we\'re still quoted'`, "this=that")

	expectError := []string{
		"foo=bar,'bip'=bap",
		"flip=flap=flarb",
		"foo=,yes=no",
		"too_many_commas=1,,between_these='yeah'",
		"one=true,two=false,",
		",bad=true",
		",",
		"unterminated='yep",
		"trailingBackSlash=true\\",
		"bareword",
		"twice=true,bool=true,twice=true",
		"start=1,bareword",
	}
	for _, connOpts := range expectError {
		if _, err := SplitConnectOptions(connOpts); err == nil {
			t.Errorf("Did not get expected error from SplitConnectOptions(\"%s\")", connOpts)
		}
	}
}
