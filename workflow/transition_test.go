package workflow

import (
	"strings"
	"testing"

	"github.com/edunexus/nexus_backend/models"
	"github.com/edunexus/nexus_backend/utils"
)

// DB-free tests over the pure pieces of the transition engine: legality,
// payload validation, the descriptor tables and the notification builder.
// Full transaction behavior (optimistic guard, rollback on side-effect
// failure) needs MySQL and lives behind INTEGRATION_TESTS.

func TestValidateTransitionTokenMismatchIsConflict(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeJob)
	_, err := validateTransition(desc, models.ApprovalStatusUnderReview, TransitionInput{
		Action:         models.ApprovalActionApprove,
		ExpectedStatus: models.ApprovalStatusPending,
	})
	if err != utils.ErrConflict {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestValidateTransitionTerminalStateIsInvalid(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeJob)
	for _, status := range []models.ApprovalStatus{models.ApprovalStatusApproved, models.ApprovalStatusRejected} {
		for _, action := range []models.ApprovalAction{
			models.ApprovalActionApprove, models.ApprovalActionReject,
			models.ApprovalActionStartReview, models.ApprovalActionRequestChanges,
			models.ApprovalActionResubmit,
		} {
			_, err := validateTransition(desc, status, TransitionInput{
				Action:         action,
				ExpectedStatus: status,
			})
			if err != utils.ErrInvalidTransition {
				t.Errorf("%s from %s: got %v, want ErrInvalidTransition", action, status, err)
			}
		}
	}
}

func TestValidateTransitionLegalEdges(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeProject)
	cases := []struct {
		current models.ApprovalStatus
		action  models.ApprovalAction
		target  models.ApprovalStatus
	}{
		{models.ApprovalStatusPending, models.ApprovalActionStartReview, models.ApprovalStatusUnderReview},
		{models.ApprovalStatusPending, models.ApprovalActionApprove, models.ApprovalStatusApproved},
		{models.ApprovalStatusPending, models.ApprovalActionReject, models.ApprovalStatusRejected},
		{models.ApprovalStatusPending, models.ApprovalActionRequestChanges, models.ApprovalStatusRequireChanges},
		{models.ApprovalStatusUnderReview, models.ApprovalActionApprove, models.ApprovalStatusApproved},
		{models.ApprovalStatusUnderReview, models.ApprovalActionReject, models.ApprovalStatusRejected},
		{models.ApprovalStatusUnderReview, models.ApprovalActionRequestChanges, models.ApprovalStatusRequireChanges},
		{models.ApprovalStatusRequireChanges, models.ApprovalActionResubmit, models.ApprovalStatusPending},
	}
	for _, tc := range cases {
		target, err := validateTransition(desc, tc.current, TransitionInput{
			Action:         tc.action,
			ExpectedStatus: tc.current,
		})
		if err != nil {
			t.Errorf("%s from %s: unexpected error %v", tc.action, tc.current, err)
			continue
		}
		if target != tc.target {
			t.Errorf("%s from %s: got target %s, want %s", tc.action, tc.current, target, tc.target)
		}
	}
}

func TestValidateTransitionIllegalEdges(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeUniversity)
	cases := []struct {
		current models.ApprovalStatus
		action  models.ApprovalAction
	}{
		{models.ApprovalStatusUnderReview, models.ApprovalActionStartReview},
		{models.ApprovalStatusPending, models.ApprovalActionResubmit},
		{models.ApprovalStatusRequireChanges, models.ApprovalActionApprove},
		{models.ApprovalStatusRequireChanges, models.ApprovalActionReject},
	}
	for _, tc := range cases {
		_, err := validateTransition(desc, tc.current, TransitionInput{
			Action:         tc.action,
			ExpectedStatus: tc.current,
		})
		if err != utils.ErrInvalidTransition {
			t.Errorf("%s from %s: got %v, want ErrInvalidTransition", tc.action, tc.current, err)
		}
	}
}

func TestValidatePayloadRejectRequiresReason(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeJob)

	err := validatePayload(desc, TransitionInput{Action: models.ApprovalActionReject, Reason: "   "})
	if !utils.IsValidationError(err) {
		t.Fatalf("whitespace reason: got %v, want ValidationError", err)
	}
	if err := validatePayload(desc, TransitionInput{Action: models.ApprovalActionReject, Reason: "salary range missing"}); err != nil {
		t.Fatalf("non-empty reason: unexpected error %v", err)
	}
}

func TestValidatePayloadRequestChangesRequiresComments(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeVerificationRequest)

	err := validatePayload(desc, TransitionInput{Action: models.ApprovalActionRequestChanges})
	if !utils.IsValidationError(err) {
		t.Fatalf("missing comments: got %v, want ValidationError", err)
	}
	if err := validatePayload(desc, TransitionInput{Action: models.ApprovalActionRequestChanges, Comments: "attach transcripts"}); err != nil {
		t.Fatalf("non-empty comments: unexpected error %v", err)
	}
	// Approve has no required fields.
	if err := validatePayload(desc, TransitionInput{Action: models.ApprovalActionApprove}); err != nil {
		t.Fatalf("approve: unexpected error %v", err)
	}
}

func TestEveryDescriptorDeclaresAllActions(t *testing.T) {
	kinds := []models.EntityType{
		models.EntityTypeJob, models.EntityTypeProject, models.EntityTypeUniversity,
		models.EntityTypeVerificationRequest, models.EntityTypeGovernanceProposal,
	}
	actions := []models.ApprovalAction{
		models.ApprovalActionStartReview, models.ApprovalActionApprove,
		models.ApprovalActionReject, models.ApprovalActionRequestChanges,
		models.ApprovalActionResubmit,
	}
	for _, kind := range kinds {
		desc, ok := DescriptorFor(kind)
		if !ok {
			t.Fatalf("no descriptor for %s", kind)
		}
		if desc.Type != kind || desc.Table == "" || desc.Load == nil {
			t.Errorf("%s: descriptor incomplete", kind)
		}
		for _, action := range actions {
			if _, ok := desc.Capabilities[action]; !ok {
				t.Errorf("%s: no capability declared for %s", kind, action)
			}
		}
	}
}

func TestDescriptorForUnknownKind(t *testing.T) {
	if _, ok := DescriptorFor(models.EntityType("Spaceship")); ok {
		t.Fatal("unknown entity kind must have no descriptor")
	}
}

func TestJobApproveCascadeActivates(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeJob)
	job := models.Job{ID: 7, ApprovalStatus: models.ApprovalStatusPending}

	cascade := desc.cascadeFor(job, models.ApprovalActionApprove)
	if cascade["status"] != models.JobStatusActive {
		t.Errorf("approve cascade: got %v, want %s", cascade["status"], models.JobStatusActive)
	}
	cascade = desc.cascadeFor(job, models.ApprovalActionReject)
	if cascade["status"] != models.JobStatusClosed {
		t.Errorf("reject cascade: got %v, want %s", cascade["status"], models.JobStatusClosed)
	}
	if cascade := desc.cascadeFor(job, models.ApprovalActionStartReview); cascade != nil {
		t.Errorf("start-review cascade: got %v, want none", cascade)
	}
}

func TestProjectApproveCascadeDependsOnFunding(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeProject)

	plain := models.Project{ID: 1}
	if cascade := desc.cascadeFor(plain, models.ApprovalActionApprove); cascade["status"] != models.ProjectStatusActive {
		t.Errorf("plain project: got %v, want %s", cascade["status"], models.ProjectStatusActive)
	}

	funded := models.Project{ID: 2, SeekingFunding: true}
	if cascade := desc.cascadeFor(funded, models.ApprovalActionApprove); cascade["status"] != models.ProjectStatusFunding {
		t.Errorf("funding project: got %v, want %s", cascade["status"], models.ProjectStatusFunding)
	}

	if cascade := desc.cascadeFor(plain, models.ApprovalActionRequestChanges); cascade["status"] != models.ProjectStatusOnHold {
		t.Errorf("request-changes: got %v, want %s", cascade["status"], models.ProjectStatusOnHold)
	}
}

func TestBuildNotificationIsDeterministic(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeJob)
	job := models.Job{ID: 42, Title: "Backend Engineer", PostedById: 9}
	input := TransitionInput{Action: models.ApprovalActionReject, Reason: "duplicate posting"}

	first := buildNotification(desc, job, input, "cid-1")
	second := buildNotification(desc, job, input, "cid-1")
	if first != second {
		t.Fatal("same input must build the same event")
	}
	if first.TargetPrincipalId != 9 {
		t.Errorf("target: got %d, want the stakeholder", first.TargetPrincipalId)
	}
	if first.Type != models.NotificationTypeEntityRejected {
		t.Errorf("type: got %s", first.Type)
	}
	if !strings.Contains(first.Message, "duplicate posting") {
		t.Errorf("rejection reason must surface verbatim, got %q", first.Message)
	}
	if first.Link != "/jobs/42" {
		t.Errorf("link: got %q", first.Link)
	}
	if first.PublishStatus != models.OutboxPublishStatusPending {
		t.Errorf("publish status: got %s, want PENDING", first.PublishStatus)
	}
}

func TestBuildNotificationAppendsComments(t *testing.T) {
	desc, _ := DescriptorFor(models.EntityTypeProject)
	project := models.Project{ID: 3, Name: "Solar Kiln", OwnerId: 4}

	event := buildNotification(desc, project, TransitionInput{
		Action:   models.ApprovalActionRequestChanges,
		Comments: "budget section is empty",
	}, "cid-2")
	if event.Type != models.NotificationTypeEntityNeedsChanges {
		t.Errorf("type: got %s", event.Type)
	}
	if !strings.Contains(event.Message, "budget section is empty") {
		t.Errorf("comments must be appended, got %q", event.Message)
	}
}
