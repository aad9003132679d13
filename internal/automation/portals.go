package automation

import (
	"context"
	"fmt"
)

// Portal targets.
const (
	TargetTaxPortal = "sunat"
	TargetERPPortal = "sap"
)

// Tax portal step names, in execution order.
const (
	StepLogin              = "login"
	StepDismissModals      = "dismiss_modals"
	StepOpenValidationMenu = "open_validation_menu"
	StepSelectPeriods      = "select_periods"
	StepFetchSummary       = "fetch_pending_summary"
	StepExportPending      = "export_pending"
)

// ERP portal step names, in execution order.
const (
	StepOpenAccountingReport = "open_accounting_report"
	StepApplyFilters         = "apply_filters"
	StepValidateFilters      = "validate_filters"
	StepExportReport         = "export_report"
	StepDownloadAttachments  = "download_attachments"
)

var portalSequences = map[string][]string{
	TargetTaxPortal: {
		StepLogin,
		StepDismissModals,
		StepOpenValidationMenu,
		StepSelectPeriods,
		StepFetchSummary,
		StepExportPending,
	},
	TargetERPPortal: {
		StepLogin,
		StepOpenAccountingReport,
		StepApplyFilters,
		StepValidateFilters,
		StepExportReport,
		StepDownloadAttachments,
	},
}

// PortalTargets lists the portals a run can be built for.
func PortalTargets() []string {
	return []string{TargetTaxPortal, TargetERPPortal}
}

// NewPortalMachine builds the retrying machine for one portal, delegating
// every step to the driver and using the driver for session teardown.
func NewPortalMachine(target string, driver Driver, opts ...MachineOption) (*Machine, error) {
	names, ok := portalSequences[target]
	if !ok {
		return nil, fmt.Errorf("unknown portal target %q", target)
	}

	steps := make([]Step, 0, len(names))
	for _, name := range names {
		name := name
		steps = append(steps, Step{
			Name: name,
			Run: func(ctx context.Context, rc *RunContext) StepResult {
				return driver.Step(ctx, name, rc)
			},
		})
	}

	opts = append([]MachineOption{WithTeardown(driver.Teardown)}, opts...)
	return NewMachine(target, steps, opts...), nil
}
