package cups

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Label printer PPDs encode PageSize choices as "wNNhNN" (points) or as
// "Custom.WxH" with an optional in/mm/cm unit suffix.
var (
	pointsSizeRe = regexp.MustCompile(`^w(\d+)h(\d+)$`)
	customSizeRe = regexp.MustCompile(`^Custom\.(\d+\.?\d*)x(\d+\.?\d*)(in|mm|cm)?$`)
)

func defaultPageSize(ppdPath string) (string, error) {
	f, err := os.Open(ppdPath)
	if err != nil {
		return "", fmt.Errorf("cannot open PPD: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "*DefaultPageSize:") {
			continue
		}
		choice := strings.TrimSpace(strings.TrimPrefix(line, "*DefaultPageSize:"))
		if choice == "" {
			break
		}
		return choice, nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("cannot read PPD: %w", err)
	}

	return "", fmt.Errorf("no DefaultPageSize in %s", ppdPath)
}

// ParsePageSize converts a PPD PageSize choice to width and height in points.
func ParsePageSize(choice string) (float64, float64, error) {
	if m := pointsSizeRe.FindStringSubmatch(choice); m != nil {
		w, _ := strconv.ParseFloat(m[1], 64)
		h, _ := strconv.ParseFloat(m[2], 64)
		return w, h, nil
	}

	m := customSizeRe.FindStringSubmatch(choice)
	if m == nil {
		return 0, 0, fmt.Errorf("cannot parse PageSize choice: %q", choice)
	}

	w, _ := strconv.ParseFloat(m[1], 64)
	h, _ := strconv.ParseFloat(m[2], 64)

	switch m[3] {
	case "in":
		return w * 72, h * 72, nil
	case "mm":
		return w * 72 / 25.4, h * 72 / 25.4, nil
	case "cm":
		return w * 72 / 2.54, h * 72 / 2.54, nil
	default:
		// Bare Custom.WxH is already in points.
		return w, h, nil
	}
}
