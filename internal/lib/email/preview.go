package email

import "time"

// PreviewData holds sample data for rendering each template locally.
var PreviewData = map[Template]any{
	TemplateTreeIntegrity: TreeIntegrityReport{
		Environment:   "local",
		CheckedAt:     time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		Workstations:  42,
		Reason:        "update",
		WorkstationID: "0b7a3c1e-59f4-4f4e-9d67-3a5f2f9d1c10",
		Cycles: []string{
			FormatCycle([]string{"0b7a3c1e-59f4-4f4e-9d67-3a5f2f9d1c10", "7c2d41f0-2b61-4a54-8a4e-5d0e4f3f2a77"}),
		},
	},
}
