package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/models"
	"github.com/edunexus/nexus_backend/utils"
	"github.com/edunexus/nexus_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end transition behavior against real MySQL + Redis: the optimistic
// guard, the audit trail, the outbox rows and the score ledger. Everything
// DB-free lives in transition_test.go.
func TestApprovalLifecycle_EndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "nexus_test")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()
	db := config.GetDB()

	active := true
	newUser := func(username string, role models.GlobalRole) *models.User {
		u := &models.User{
			Username:   username,
			Name:       username,
			Password:   "x",
			GlobalRole: role,
			IsActive:   &active,
		}
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user %s: %v", username, err)
		}
		return u
	}

	owner := newUser("org-owner", models.GlobalRoleUser)
	recruiter := newUser("recruiter", models.GlobalRoleUser)
	moderator := newUser("moderator", models.GlobalRoleUser)
	viewer := newUser("viewer", models.GlobalRoleUser)
	outsider := newUser("outsider", models.GlobalRoleUser)
	admin := newUser("platform-admin", models.GlobalRolePlatformAdmin)

	ownerCtx := utils.SetUserIdInContext(ctx, owner.ID)
	org, err := models.CreateOrganization(ownerCtx, &models.NewOrganization{
		Name:    "Acme Labs",
		Kind:    models.OrganizationKindEmployer,
		OwnerId: owner.ID,
	})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	// Owner seats the staff; owner-of-scope needs no membership row.
	for _, m := range []models.NewMembership{
		{PrincipalId: recruiter.ID, ScopeId: org.ID, ScopeKind: models.ScopeKindOrganization, Role: models.RoleRecruiter},
		{PrincipalId: moderator.ID, ScopeId: org.ID, ScopeKind: models.ScopeKindOrganization, Role: models.RoleModerator},
		{PrincipalId: viewer.ID, ScopeId: org.ID, ScopeKind: models.ScopeKindOrganization, Role: models.RoleViewer},
	} {
		if _, err := models.AssignMembership(ownerCtx, owner.ID, &m); err != nil {
			t.Fatalf("AssignMembership(%d): %v", m.PrincipalId, err)
		}
	}

	recruiterCtx := utils.SetUserIdInContext(ctx, recruiter.ID)
	job, err := models.CreateJob(recruiterCtx, &models.NewJob{
		OrganizationId: org.ID,
		Title:          "Backend Engineer",
		Description:    "Go, MySQL",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ApprovalStatus != models.ApprovalStatusPending {
		t.Fatalf("new job status = %s, want PENDING", job.ApprovalStatus)
	}

	// Viewer may not claim the review.
	_, err = workflow.StartReview(ctx, models.EntityTypeJob, job.ID, viewer.ID, models.ApprovalStatusPending)
	if err != utils.ErrForbidden {
		t.Fatalf("viewer start-review: got %v, want ErrForbidden", err)
	}
	// Neither may a non-member.
	_, err = workflow.StartReview(ctx, models.EntityTypeJob, job.ID, outsider.ID, models.ApprovalStatusPending)
	if err != utils.ErrForbidden {
		t.Fatalf("outsider start-review: got %v, want ErrForbidden", err)
	}

	// Moderator claims it.
	if _, err := workflow.StartReview(ctx, models.EntityTypeJob, job.ID, moderator.ID, models.ApprovalStatusPending); err != nil {
		t.Fatalf("moderator start-review: %v", err)
	}

	// A second claim against the stale token loses.
	_, err = workflow.StartReview(ctx, models.EntityTypeJob, job.ID, owner.ID, models.ApprovalStatusPending)
	if err != utils.ErrConflict {
		t.Fatalf("stale start-review: got %v, want ErrConflict", err)
	}

	// Reject without a reason is refused before any write.
	_, err = workflow.Reject(ctx, models.EntityTypeJob, job.ID, owner.ID, models.ApprovalStatusUnderReview, "   ", "")
	if !utils.IsValidationError(err) {
		t.Fatalf("empty-reason reject: got %v, want ValidationError", err)
	}

	// Owner requests changes, recruiter resubmits, owner approves.
	if _, err := workflow.RequestChanges(ctx, models.EntityTypeJob, job.ID, owner.ID, models.ApprovalStatusUnderReview, "salary band missing"); err != nil {
		t.Fatalf("request-changes: %v", err)
	}
	if _, err := workflow.Resubmit(ctx, models.EntityTypeJob, job.ID, recruiter.ID, models.ApprovalStatusRequireChanges, "added salary band"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	record, err := workflow.Approve(ctx, models.EntityTypeJob, job.ID, owner.ID, models.ApprovalStatusPending, "looks good", false)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if record.ResultingStatus != models.ApprovalStatusApproved {
		t.Fatalf("record status = %s, want APPROVED", record.ResultingStatus)
	}

	approved, err := models.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if approved.ApprovalStatus != models.ApprovalStatusApproved {
		t.Errorf("job approval status = %s, want APPROVED", approved.ApprovalStatus)
	}
	if approved.Status != models.JobStatusActive {
		t.Errorf("job operational status = %s, want Active (approve cascade)", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != owner.ID {
		t.Errorf("approved_by not recorded")
	}

	// Terminal states accept nothing further.
	_, err = workflow.Reject(ctx, models.EntityTypeJob, job.ID, owner.ID, models.ApprovalStatusApproved, "changed my mind", "")
	if err != utils.ErrInvalidTransition {
		t.Fatalf("reject after approve: got %v, want ErrInvalidTransition", err)
	}

	// Audit trail: four transitions, oldest first, append-only.
	records, err := models.ListApprovalRecords(utils.SetUserIdInContext(ctx, viewer.ID), viewer.ID, approved)
	if err != nil {
		t.Fatalf("ListApprovalRecords: %v", err)
	}
	wantActions := []models.ApprovalAction{
		models.ApprovalActionStartReview, models.ApprovalActionRequestChanges,
		models.ApprovalActionResubmit, models.ApprovalActionApprove,
	}
	if len(records) != len(wantActions) {
		t.Fatalf("history length = %d, want %d", len(records), len(wantActions))
	}
	for i, want := range wantActions {
		if records[i].Action != want {
			t.Errorf("history[%d] = %s, want %s", i, records[i].Action, want)
		}
	}
	// A non-member gets no history.
	if _, err := models.ListApprovalRecords(ctx, outsider.ID, approved); err != utils.ErrForbidden {
		t.Fatalf("outsider history: got %v, want ErrForbidden", err)
	}

	// Each transition queued exactly one outbox row for the stakeholder
	// (the recruiter also has a MEMBERSHIP_ASSIGNED row from setup).
	var eventCount int64
	if err := db.Model(&models.NotificationEvent{}).
		Where("target_principal_id = ? AND publish_status = ? AND type <> ?",
			recruiter.ID, models.OutboxPublishStatusPending, models.NotificationTypeMembershipAssigned).
		Count(&eventCount).Error; err != nil {
		t.Fatalf("count notification events: %v", err)
	}
	if eventCount != int64(len(wantActions)) {
		t.Errorf("notification events = %d, want %d", eventCount, len(wantActions))
	}

	// Project approval: platform admin bypass, funding cascade, score awards.
	founder := newUser("founder", models.GlobalRoleUser)
	founderCtx := utils.SetUserIdInContext(ctx, founder.ID)
	project, err := models.CreateProject(founderCtx, &models.NewProject{
		Name:           "Solar Kiln",
		Summary:        "community kiln",
		SeekingFunding: true,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := workflow.Approve(ctx, models.EntityTypeProject, project.ID, admin.ID, models.ApprovalStatusPending, "", true); err != nil {
		t.Fatalf("admin approve project: %v", err)
	}
	approvedProject, err := models.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if approvedProject.Status != models.ProjectStatusFunding {
		t.Errorf("funding project status = %s, want Funding", approvedProject.Status)
	}
	if !approvedProject.Published {
		t.Errorf("publish_immediately approve must set published")
	}

	summaries, err := models.GetScoreSummary(ctx, founder.ID)
	if err != nil {
		t.Fatalf("GetScoreSummary: %v", err)
	}
	byDim := map[models.ScoreDimension]decimal.Decimal{}
	for _, s := range summaries {
		byDim[s.Dimension] = s.Total
	}
	if !byDim[models.ScoreDimensionTotal].Equal(decimal.NewFromInt(100)) {
		t.Errorf("total score = %s, want 100", byDim[models.ScoreDimensionTotal])
	}
	if !byDim[models.ScoreDimensionInnovation].Equal(decimal.NewFromInt(10)) {
		t.Errorf("innovation score = %s, want 10", byDim[models.ScoreDimensionInnovation])
	}

	// Two racing decisions with the same token: exactly one wins, the loser
	// gets Conflict, exactly one record lands.
	job2, err := models.CreateJob(recruiterCtx, &models.NewJob{
		OrganizationId: org.ID,
		Title:          "Data Engineer",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	errs := make(chan error, 2)
	go func() {
		_, err := workflow.Approve(ctx, models.EntityTypeJob, job2.ID, owner.ID, models.ApprovalStatusPending, "", false)
		errs <- err
	}()
	go func() {
		_, err := workflow.Reject(ctx, models.EntityTypeJob, job2.ID, admin.ID, models.ApprovalStatusPending, "duplicate", "")
		errs <- err
	}()
	var wins, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-errs; err {
		case nil:
			wins++
		case utils.ErrConflict:
			conflicts++
		default:
			t.Fatalf("racing decision: unexpected error %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("racing decisions: %d wins, %d conflicts; want exactly one of each", wins, conflicts)
	}
	var recordCount int64
	if err := db.Model(&models.ApprovalRecord{}).
		Where("entity_type = ? AND entity_id = ?", models.EntityTypeJob, job2.ID).
		Count(&recordCount).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if recordCount != 1 {
		t.Fatalf("racing decisions appended %d records, want 1", recordCount)
	}

	// Project rejection: REJECTED + Cancelled cascade, the reason stored
	// verbatim, one notification, no ledger entries.
	maker := newUser("maker", models.GlobalRoleUser)
	makerCtx := utils.SetUserIdInContext(ctx, maker.ID)
	rejectedProject, err := models.CreateProject(makerCtx, &models.NewProject{
		Name: "Perpetual Motion",
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := workflow.Reject(ctx, models.EntityTypeProject, rejectedProject.ID, admin.ID, models.ApprovalStatusPending, "policy violation", ""); err != nil {
		t.Fatalf("reject project: %v", err)
	}
	gotRejected, err := models.GetProject(ctx, rejectedProject.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if gotRejected.ApprovalStatus != models.ApprovalStatusRejected {
		t.Errorf("rejected project approval status = %s, want REJECTED", gotRejected.ApprovalStatus)
	}
	if gotRejected.Status != models.ProjectStatusCancelled {
		t.Errorf("rejected project status = %s, want Cancelled (reject cascade)", gotRejected.Status)
	}
	if gotRejected.RejectionReason != "policy violation" {
		t.Errorf("rejection_reason = %q, want it stored verbatim", gotRejected.RejectionReason)
	}
	var rejectEvents int64
	if err := db.Model(&models.NotificationEvent{}).
		Where("target_principal_id = ? AND type = ?", maker.ID, models.NotificationTypeEntityRejected).
		Count(&rejectEvents).Error; err != nil {
		t.Fatalf("count reject notifications: %v", err)
	}
	if rejectEvents != 1 {
		t.Errorf("reject notifications = %d, want 1", rejectEvents)
	}
	var ledgerRows int64
	if err := db.Model(&models.ScoreLedgerEntry{}).
		Where("principal_id = ?", maker.ID).
		Count(&ledgerRows).Error; err != nil {
		t.Fatalf("count ledger entries: %v", err)
	}
	if ledgerRows != 0 {
		t.Errorf("reject wrote %d ledger entries, want 0", ledgerRows)
	}

	// A failing side-effect write rolls back the whole transition: the
	// approval status never changes without its effects and no record lands.
	job3, err := models.CreateJob(recruiterCtx, &models.NewJob{
		OrganizationId: org.ID,
		Title:          "Platform Engineer",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := db.Exec("RENAME TABLE notification_events TO notification_events_hidden").Error; err != nil {
		t.Fatalf("hide notification table: %v", err)
	}
	_, err = workflow.Approve(ctx, models.EntityTypeJob, job3.ID, owner.ID, models.ApprovalStatusPending, "", false)
	if err == nil {
		t.Fatal("approve with a broken notification write must fail")
	}
	var sideEffectErr *utils.SideEffectError
	if !errors.As(err, &sideEffectErr) || sideEffectErr.Op != "notification" {
		t.Fatalf("got %v, want a notification side-effect failure", err)
	}
	if err := db.Exec("RENAME TABLE notification_events_hidden TO notification_events").Error; err != nil {
		t.Fatalf("restore notification table: %v", err)
	}
	untouched, err := models.GetJob(ctx, job3.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if untouched.ApprovalStatus != models.ApprovalStatusPending {
		t.Errorf("after rolled-back approve: approval status = %s, want PENDING", untouched.ApprovalStatus)
	}
	if untouched.Status != models.JobStatusDraft {
		t.Errorf("after rolled-back approve: operational status = %s, want Draft", untouched.Status)
	}
	var job3Records int64
	if err := db.Model(&models.ApprovalRecord{}).
		Where("entity_type = ? AND entity_id = ?", models.EntityTypeJob, job3.ID).
		Count(&job3Records).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if job3Records != 0 {
		t.Errorf("rolled-back approve appended %d records, want 0", job3Records)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("nexus-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("nexus-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=nexus_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
