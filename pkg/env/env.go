package env

import (
	"os"

	"github.com/joho/godotenv"
)

const hardwarePrefix = "SERVER_HW_"

// hardwareKeys maps report keys to their variable suffix.
var hardwareKeys = [][2]string{
	{"CPU", "CPU"},
	{"CPU_Cores", "CPU_CORES"},
	{"Memory", "MEMORY"},
	{"Disk", "DISK"},
	{"OS", "OS"},
	{"Kernel", "KERNEL"},
	{"Docker", "DOCKER"},
}

// LoadEnv loads .env into the process environment. It runs before the logger
// is configured, so a missing file is returned for the caller to report.
func LoadEnv() error {
	return godotenv.Load()
}

func GetEnv(key string, fallback string) string {
	if value, exist := os.LookupEnv(key); exist {
		return value
	}
	return fallback
}

// HardwareInfo collects the SERVER_HW_* variables describing the machine the
// server runs on. Missing keys are reported as "Unknown"; when none is set the
// map only carries an "Error" entry.
func HardwareInfo() map[string]string {
	info := make(map[string]string, len(hardwareKeys))
	known := false
	for _, key := range hardwareKeys {
		value := GetEnv(hardwarePrefix+key[1], "Unknown")
		if value != "Unknown" {
			known = true
		}
		info[key[0]] = value
	}

	if !known {
		return map[string]string{"Error": "Hardware info not available"}
	}
	return info
}
