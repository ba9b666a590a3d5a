//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	jetStoreOutput       = "internal/kv/sqlite/gen"
	sqliteStoreFile      = "alumni.sqlite"
	serverBin            = "./bin/server"
	certgenBin           = "./bin/certgen"
	serverConfigPath     = "configs/server.toml"
	jetStoreSchemaSource = "migrations/1_collections.up.sql"
)

const (
	toolsDir     = "tools/"
	toolsModfile = toolsDir + "go.mod"
	toolsBinDir  = toolsDir + "bin/"
	lintTool     = toolsBinDir + "golangci-lint"
	jetTool      = toolsBinDir + "jet"
)

func goModDownload() error {
	return sh.Run("go", "mod", "download")
}

// Build builds server and certgen binaries
func Build() error {
	mg.Deps(goModDownload)
	if err := sh.Run("go", "build", "-o", serverBin, "./cmd"); err != nil {
		return err
	}
	return sh.Run("go", "build", "-o", certgenBin, "./cmd/certgen")
}

// Run starts server with the default config
func Run() error {
	mg.Deps(Build)
	return sh.Run(serverBin, "-config", serverConfigPath)
}

// Cert writes a self-signed TLS pair into the working directory
func Cert() error {
	mg.Deps(Build)
	return sh.Run(certgenBin)
}

// GenJet regenerates the jet model for the sqlite local store
func GenJet() error {
	mg.Deps(buildJetTool)
	tmp, err := os.MkdirTemp("", "alumni-jet")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	dsn := tmp + "/" + sqliteStoreFile
	schema, err := os.ReadFile(jetStoreSchemaSource)
	if err != nil {
		return err
	}
	if err := sh.Run("sqlite3", dsn, string(schema)); err != nil {
		return err
	}
	return sh.Run(jetTool, "-source", "sqlite", "-dsn", dsn, "-path", jetStoreOutput)
}

func buildJetTool() error {
	return sh.RunWith(map[string]string{
		"CGO_ENABLED": "1",
	}, "go", "build", "-modfile", toolsModfile, "-o", jetTool, "github.com/go-jet/jet/v2/cmd/jet")
}

func Lint() error {
	mg.Deps(buildLintTool)
	return sh.Run(lintTool, "run", "./...")
}

func buildLintTool() error {
	return sh.Run(
		"go", "build",
		"-modfile", toolsModfile,
		"-o", lintTool,
		"github.com/golangci/golangci-lint/cmd/golangci-lint",
	)
}

// Test runs unit tests, including the miniredis and sqlite backed stores
func Test() error {
	return sh.RunWith(map[string]string{
		"CGO_ENABLED": "1",
	}, "go", "test", "-race", "./...")
}
