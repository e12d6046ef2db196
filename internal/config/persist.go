package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// appName is the directory name used under the user config dir
const appName = "sbatcher"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (SBATCHER_*)
// 3. User config file (~/.config/sbatcher/config.yaml)
// 4. System config file (/etc/sbatcher/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// Set config search paths (order matters)
	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, appName))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, "."+appName))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/" + appName)

	// Current directory (for development)
	viper.AddConfigPath(".")

	// Environment variables
	viper.SetEnvPrefix("SBATCHER")
	viper.AutomaticEnv()

	// Set defaults (lowest priority)
	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; will use defaults and auto-detect
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("scheduler_bin", "")
	viper.SetDefault("submit_job", true)

	// Site job defaults
	viper.SetDefault("defaults.account", "")
	viper.SetDefault("defaults.mail_user", "")
	viper.SetDefault("defaults.nodes", 1)
	viper.SetDefault("defaults.ntasks_per_node", 1)
	viper.SetDefault("defaults.cpus_per_task", 1)
	viper.SetDefault("defaults.time", "24:00:00")
	viper.SetDefault("defaults.mem_per_cpu", 0)
	viper.SetDefault("defaults.output", "out.%j")
	viper.SetDefault("defaults.error", "err.%j")
	viper.SetDefault("defaults.exclusive", false)
	viper.SetDefault("defaults.launcher", "srun")
	viper.SetDefault("defaults.executable", "")
	viper.SetDefault("defaults.automation_cmd", "")
	viper.SetDefault("defaults.report_file", "convergence.txt")
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appName, ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, appName, ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateBinary checks if a binary exists and is executable
func ValidateBinary(binPath string) bool {
	if binPath == "" {
		return false
	}

	// If it's a full path, check directly
	if filepath.IsAbs(binPath) {
		info, err := os.Stat(binPath)
		if err != nil {
			return false
		}
		// Check if it's executable (unix-style check)
		return info.Mode()&0111 != 0
	}

	// Otherwise, try to find it in PATH
	_, err := exec.LookPath(binPath)
	return err == nil
}

// DetectSchedulerBin attempts to find the sbatch binary.
// Returns the full absolute path if found, empty string otherwise.
func DetectSchedulerBin() string {
	if path, err := exec.LookPath("sbatch"); err == nil {
		return path
	}
	return ""
}

// AutoDetectAndSave auto-detects the scheduler binary and saves to config if needed
// Returns true if config was updated
func AutoDetectAndSave() (bool, error) {
	schedulerBin := viper.GetString("scheduler_bin")
	if ValidateBinary(schedulerBin) {
		return false, nil
	}

	detected := DetectSchedulerBin()
	if detected == "" {
		return false, nil
	}

	viper.Set("scheduler_bin", detected)
	if err := SaveConfig(); err != nil {
		return false, err
	}
	return true, nil
}
