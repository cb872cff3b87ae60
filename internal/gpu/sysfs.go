package gpu

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const defaultSysfsRoot = "/sys"

// cardPattern matches primary DRM card nodes (card0, card1), not their
// connector children (card0-DP-1).
var cardPattern = regexp.MustCompile(`^card\d+$`)

// findCards returns the DRM card directories under root whose PCI vendor ID
// matches, sorted by card name for a stable device order.
func findCards(root, vendorID string) []string {
	entries, err := os.ReadDir(filepath.Join(root, "class", "drm"))
	if err != nil {
		return nil
	}
	var cards []string
	for _, e := range entries {
		if !cardPattern.MatchString(e.Name()) {
			continue
		}
		dir := filepath.Join(root, "class", "drm", e.Name())
		vendor, err := os.ReadFile(filepath.Join(dir, "device", "vendor"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(vendor)) == vendorID {
			cards = append(cards, dir)
		}
	}
	sort.Strings(cards)
	return cards
}

// readSysfsUint reads a sysfs attribute holding a single unsigned integer.
func readSysfsUint(path string) (uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed sysfs value in %s: %w", path, err)
	}
	return v, nil
}

// readHwmonTemp returns the first hwmon temperature under the card's device
// directory in degrees Celsius, or 0 when none is exposed.
func readHwmonTemp(cardDir string) float64 {
	matches, err := filepath.Glob(filepath.Join(cardDir, "device", "hwmon", "hwmon*", "temp1_input"))
	if err != nil || len(matches) == 0 {
		return 0
	}
	sort.Strings(matches)
	milli, err := readSysfsUint(matches[0])
	if err != nil {
		return 0
	}
	return float64(milli) / 1000
}
