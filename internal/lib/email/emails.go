package email

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// TreeIntegrityReport is the data rendered by the tree_integrity template.
type TreeIntegrityReport struct {
	Environment   string
	CheckedAt     time.Time
	Workstations  int
	Reason        string
	WorkstationID string
	// Cycles lists each loop as workstation ids joined with " -> ".
	Cycles []string
}

// FormatCycle renders one loop of ids, closing it on its first node.
func FormatCycle(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	closed := append(slices.Clone(ids), ids[0])
	return strings.Join(closed, " -> ")
}

// SendTreeIntegrityAlert reports parent loops found by a tree audit.
func (c *Client) SendTreeIntegrityAlert(to string, report TreeIntegrityReport) error {
	subject := fmt.Sprintf("[%s] Workstation tree has %d cycle(s)", report.Environment, len(report.Cycles))
	return c.SendEmail([]string{to}, subject, TemplateTreeIntegrity, report)
}
