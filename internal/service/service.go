// Package service installs the worker as a systemd user service.
package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/joho/godotenv"

	"github.com/chris/zeroism/config"
)

const unitName = "zeroism.service"

func binDest() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "bin", "zeroism")
}

func unitDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "systemd", "user")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "systemd", "user")
}

func unitPath() string {
	return filepath.Join(unitDir(), unitName)
}

// Install copies the binary to ~/.local/bin, seeds ~/.zeroism/config from
// .env if needed, writes the user unit, and enables it.
func Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}

	input, err := os.ReadFile(exe)
	if err != nil {
		return fmt.Errorf("reading binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(binDest()), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(binDest()), err)
	}
	if err := os.WriteFile(binDest(), input, 0o755); err != nil {
		return fmt.Errorf("copying binary to %s: %w", binDest(), err)
	}
	fmt.Printf("installed binary to %s\n", binDest())

	if err := seedConfig(); err != nil {
		return err
	}

	unit, err := Unit()
	if err != nil {
		return fmt.Errorf("generating unit: %w", err)
	}
	if err := os.MkdirAll(unitDir(), 0o755); err != nil {
		return fmt.Errorf("creating unit dir: %w", err)
	}
	if err := os.WriteFile(unitPath(), []byte(unit), 0o644); err != nil {
		return fmt.Errorf("writing unit: %w", err)
	}
	fmt.Printf("wrote unit to %s\n", unitPath())

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := systemctl("enable", "--now", unitName); err != nil {
		return err
	}
	fmt.Println("service enabled and started")
	return nil
}

// seedConfig copies .env to the service config file unless one exists.
func seedConfig() error {
	configFile := config.ConfigFile()
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		fmt.Printf("config already exists at %s\n", configFile)
		return nil
	}
	envData, err := os.ReadFile(".env")
	if err != nil {
		return nil
	}
	if err := os.MkdirAll(config.ConfigDir(), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(configFile, envData, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("seeded config from .env -> %s\n", configFile)
	return nil
}

// resolveWorkDir picks the service's working directory. A relative
// DATABASE_PATH in the installed config means the current directory
// matters; otherwise ~/.zeroism is used.
func resolveWorkDir() string {
	envVars, _ := godotenv.Read(config.ConfigFile())
	if dbPath, ok := envVars["DATABASE_PATH"]; ok && !filepath.IsAbs(dbPath) {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return config.ConfigDir()
}

// Uninstall stops and disables the unit, then removes it and the binary.
func Uninstall() error {
	if _, err := os.Stat(unitPath()); err == nil {
		if err := systemctl("disable", "--now", unitName); err != nil {
			fmt.Fprintf(os.Stderr, "warning: disable failed: %v\n", err)
		}
		if err := os.Remove(unitPath()); err != nil {
			return fmt.Errorf("removing unit: %w", err)
		}
		_ = systemctl("daemon-reload")
		fmt.Printf("removed %s\n", unitPath())
	} else {
		fmt.Println("unit not found, skipping")
	}

	if _, err := os.Stat(binDest()); err == nil {
		if err := os.Remove(binDest()); err != nil {
			return fmt.Errorf("removing binary: %w", err)
		}
		fmt.Printf("removed %s\n", binDest())
	} else {
		fmt.Println("binary not found, skipping")
	}

	fmt.Println("uninstalled")
	return nil
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Zeroism health check-in bot
After=network-online.target
Wants=network-online.target

[Service]
ExecStart={{.BinPath}} run
WorkingDirectory={{.WorkDir}}
EnvironmentFile=-{{.ConfigFile}}
Restart=on-failure
RestartSec=10

[Install]
WantedBy=default.target
`))

type unitData struct {
	BinPath    string
	WorkDir    string
	ConfigFile string
}

// Unit renders the systemd unit file.
func Unit() (string, error) {
	return renderUnit(unitData{BinPath: binDest(), WorkDir: resolveWorkDir(), ConfigFile: config.ConfigFile()})
}

func renderUnit(d unitData) (string, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
