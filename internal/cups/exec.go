package cups

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var ErrSubsystemUnavailable = errors.New("printing subsystem unavailable")

// ExecClient drives CUPS through its command line tools. It is the only
// piece of the system that assumes a real CUPS installation.
type ExecClient struct {
	// PPDDir is where CUPS keeps compiled PPDs, normally /etc/cups/ppd.
	PPDDir string
}

func NewExecClient() *ExecClient {
	return &ExecClient{PPDDir: "/etc/cups/ppd"}
}

// lpstat -v prints one line per destination:
//
//	device for iDPRT_SP310_0a5f:0001: usb://iDPRT/SP310?serial=X123
var deviceLineRe = regexp.MustCompile(`^device for ([^:]+): (.+)$`)

func (c *ExecClient) Printers(ctx context.Context) ([]Printer, error) {
	out, err := exec.CommandContext(ctx, "lpstat", "-v").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: lpstat -v: %v", ErrSubsystemUnavailable, err)
	}

	var printers []Printer
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		m := deviceLineRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		printers = append(printers, Printer{Name: m[1], DeviceURI: m[2]})
	}

	return printers, nil
}

// lp reports "request id is Printer-42 (1 file(s))" on success.
var requestIDRe = regexp.MustCompile(`request id is \S+-(\d+)`)

func (c *ExecClient) Submit(ctx context.Context, printer, path, title string) (int, error) {
	out, err := exec.CommandContext(ctx, "lp", "-d", printer, "-t", title, path).Output()
	if err != nil {
		return 0, fmt.Errorf("lp -d %s: %w", printer, err)
	}

	m := requestIDRe.FindStringSubmatch(string(out))
	if m == nil {
		return 0, fmt.Errorf("cannot parse lp output: %q", strings.TrimSpace(string(out)))
	}

	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("cannot parse job id: %w", err)
	}

	return id, nil
}

// State maps lpstat queue membership onto job states: a job still in the
// active queue is pending, a job in the completed list is completed, and
// anything else is unknown. lpstat does not expose held/stopped/aborted,
// so those surface as unknown and resolve through the poll timeout.
func (c *ExecClient) State(ctx context.Context, jobID int) (JobState, error) {
	active, err := c.listJobs(ctx, "not-completed")
	if err != nil {
		return StateUnknown, err
	}
	if active[jobID] {
		return StatePending, nil
	}

	completed, err := c.listJobs(ctx, "completed")
	if err != nil {
		return StateUnknown, err
	}
	if completed[jobID] {
		return StateCompleted, nil
	}

	return StateUnknown, nil
}

func (c *ExecClient) listJobs(ctx context.Context, which string) (map[int]bool, error) {
	out, err := exec.CommandContext(ctx, "lpstat", "-W", which, "-o").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: lpstat -W %s: %v", ErrSubsystemUnavailable, which, err)
	}

	jobs := make(map[int]bool)
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		// First field is "Printer-42".
		idx := strings.LastIndex(fields[0], "-")
		if idx < 0 {
			continue
		}
		id, err := strconv.Atoi(fields[0][idx+1:])
		if err != nil {
			continue
		}
		jobs[id] = true
	}

	return jobs, nil
}

func (c *ExecClient) MediaSize(ctx context.Context, printer string, dpi int) (int, int, error) {
	ppdPath := filepath.Join(c.PPDDir, printer+".ppd")
	choice, err := defaultPageSize(ppdPath)
	if err != nil {
		return 0, 0, err
	}

	wPt, hPt, err := ParsePageSize(choice)
	if err != nil {
		return 0, 0, err
	}

	w := int(wPt / 72 * float64(dpi))
	h := int(hPt / 72 * float64(dpi))
	return w, h, nil
}
