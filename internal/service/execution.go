// Package service holds the control plane's business operations, connecting
// the HTTP surface and the schedule engine to the store and the exchange
// bridges.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/automation"
	"github.com/sertech/docflow/internal/bridge"
	"github.com/sertech/docflow/internal/exchange"
	"github.com/sertech/docflow/internal/scheduler"
	"github.com/sertech/docflow/internal/store"
	"github.com/sertech/docflow/internal/store/model"
)

// Submitter is the slice of the bridge the service needs; the full bridge
// satisfies it.
type Submitter interface {
	SubmitAndWait(ctx context.Context, sub bridge.Submission) (*exchange.Result, error)
}

// RunRequest is a manual portal run trigger.
type RunRequest struct {
	Portal      string
	TaxIDs      []string
	Periods     []string
	TriggeredBy string
}

// RunOutcome reports one society's run.
type RunOutcome struct {
	TaxID       string `json:"ruc"`
	SocietyCode string `json:"society_code"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	ExecutionID uint   `json:"execution_id"`
}

type ExecutionService struct {
	store  store.Store
	portal Submitter
	clock  func() time.Time
	logger *zap.SugaredLogger
}

func NewExecutionService(st store.Store, portal Submitter) *ExecutionService {
	return &ExecutionService{
		store:  st,
		portal: portal,
		clock:  time.Now,
		logger: zap.S().Named("execution"),
	}
}

// Make sure we can serve the schedule engine
var _ scheduler.Dispatcher = (*ExecutionService)(nil)

// Run executes the portal sequence for every requested society, one after
// the other: portal runs hold a browser session on the worker and are
// serialized by design of the execution plane.
func (s *ExecutionService) Run(ctx context.Context, req RunRequest, trigger string) ([]RunOutcome, error) {
	societies, err := s.resolveSocieties(ctx, req.TaxIDs)
	if err != nil {
		return nil, err
	}
	if len(societies) == 0 {
		return nil, fmt.Errorf("no active societies matched the request")
	}

	var erpAccount *model.SapAccount
	if req.Portal == automation.TargetERPPortal {
		erpAccount, err = s.store.SapAccount().GetActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("no active ERP account configured: %w", err)
		}
	}

	outcomes := make([]RunOutcome, 0, len(societies))
	for _, society := range societies {
		outcomes = append(outcomes, s.runSociety(ctx, req, trigger, society, erpAccount))
	}
	return outcomes, nil
}

func (s *ExecutionService) runSociety(ctx context.Context, req RunRequest, trigger string, society model.Society, erpAccount *model.SapAccount) RunOutcome {
	record, err := s.store.Execution().Create(ctx, model.ExecutionRecord{
		Type:        trigger,
		TaxID:       society.TaxID,
		SocietyCode: society.Code,
		Portal:      req.Portal,
		TriggeredBy: req.TriggeredBy,
		Status:      model.ExecutionRunning,
	})
	if err != nil {
		return RunOutcome{TaxID: society.TaxID, SocietyCode: society.Code, Status: model.ExecutionFailed, Detail: err.Error()}
	}

	payload := exchange.PortalRunRequest{
		Target:         req.Portal,
		TaxID:          society.TaxID,
		User:           society.User,
		Password:       society.Password,
		Periods:        req.Periods,
		DownloadFolder: s.downloadFolder(society),
	}
	if erpAccount != nil {
		payload.User = erpAccount.User
		payload.Password = erpAccount.Password
	}

	outcome := RunOutcome{TaxID: society.TaxID, SocietyCode: society.Code, ExecutionID: record.ID}

	result, err := s.portal.SubmitAndWait(ctx, bridge.Submission{
		Action:  exchange.ActionPortalRun,
		Payload: payload,
	})
	switch {
	case err != nil:
		outcome.Status = model.ExecutionFailed
		outcome.Detail = err.Error()
	case !result.Completed():
		outcome.Status = model.ExecutionFailed
		outcome.Detail = result.Error
	default:
		outcome.Status = model.ExecutionCompleted
		outcome.Detail = fmt.Sprintf("%s run completed", req.Portal)
	}

	if err := s.store.Execution().UpdateStatus(ctx, record.ID, outcome.Status, outcome.Detail); err != nil {
		s.logger.Errorf("failed to record outcome of execution %d: %v", record.ID, err)
	}
	return outcome
}

// downloadFolder names the per-run download directory: society code plus the
// run date as ddmmyy, e.g. E044_150724.
func (s *ExecutionService) downloadFolder(society model.Society) string {
	return fmt.Sprintf("%s_%s", society.Code, s.clock().Format("020106"))
}

func (s *ExecutionService) resolveSocieties(ctx context.Context, taxIDs []string) ([]model.Society, error) {
	if len(taxIDs) == 0 {
		return s.store.Society().ListActive(ctx)
	}

	societies := make([]model.Society, 0, len(taxIDs))
	for _, taxID := range taxIDs {
		society, err := s.store.Society().GetByTaxID(ctx, taxID)
		if err != nil {
			return nil, fmt.Errorf("society %s: %w", taxID, err)
		}
		societies = append(societies, *society)
	}
	return societies, nil
}

// Dispatch serves the schedule engine: a due rule becomes one automatic run
// per portal against the rule's societies, the ERP report leg first and the
// tax portal after it. A failing leg does not stop the other.
func (s *ExecutionService) Dispatch(ctx context.Context, rule scheduler.Rule) error {
	s.logger.Infof("schedule rule %s fired", rule.Name)

	storeRule, err := s.ruleByID(ctx, rule.ID)
	if err != nil {
		return err
	}

	var outcomes []RunOutcome
	var legErrs []string
	for _, portal := range []string{automation.TargetERPPortal, automation.TargetTaxPortal} {
		legOutcomes, err := s.Run(ctx, RunRequest{
			Portal:      portal,
			TaxIDs:      storeRule.SocietyList(),
			TriggeredBy: "scheduler",
		}, model.ExecutionAutomatic)
		if err != nil {
			s.logger.Errorf("rule %s: %s leg failed: %v", rule.Name, portal, err)
			legErrs = append(legErrs, fmt.Sprintf("%s: %v", portal, err))
			continue
		}
		outcomes = append(outcomes, legOutcomes...)
	}

	failed := 0
	for _, o := range outcomes {
		if o.Status != model.ExecutionCompleted {
			failed++
		}
	}
	if len(legErrs) > 0 {
		return fmt.Errorf("rule %s: %s", rule.Name, strings.Join(legErrs, "; "))
	}
	if failed > 0 {
		return fmt.Errorf("rule %s: %d of %d runs failed", rule.Name, failed, len(outcomes))
	}
	return nil
}

func (s *ExecutionService) ruleByID(ctx context.Context, id string) (*model.ScheduleRule, error) {
	var ruleID uint
	if _, err := fmt.Sscanf(id, "%d", &ruleID); err != nil {
		return nil, fmt.Errorf("malformed rule id %q: %w", id, err)
	}
	return s.store.Schedule().Get(ctx, ruleID)
}

// ActiveRules adapts the stored schedule to the engine's rule shape; the
// service is both the engine's source and its dispatcher.
func (s *ExecutionService) ActiveRules(ctx context.Context) ([]scheduler.Rule, error) {
	stored, err := s.store.Schedule().ListActive(ctx)
	if err != nil {
		return nil, err
	}

	rules := make([]scheduler.Rule, 0, len(stored))
	for _, r := range stored {
		rules = append(rules, scheduler.Rule{
			ID:   fmt.Sprintf("%d", r.ID),
			Name: r.Name,
			Time: r.Time,
			Days: r.DayList(),
		})
	}
	return rules, nil
}

// Make sure we can feed the schedule engine
var _ scheduler.RuleSource = (*ExecutionService)(nil)
