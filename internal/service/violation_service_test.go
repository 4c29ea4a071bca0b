package service

import (
	"context"
	"errors"
	"testing"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
)

func TestViolationService_Create_UsesRulePenalty(t *testing.T) {
	env := newTestEnv()
	rule := env.addRule("absence", 20, true, false)

	resp, err := env.violationService().Create(context.Background(), testCompanyID, &dto.CreateViolationRequest{
		EmployeeID: testEmployeeID,
		RuleID:     rule.RuleID,
		Reason:     strPtr("未请假缺勤"),
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Source != model.ViolationSourceManual {
		t.Errorf("期望 source=manual，实际=%s", resp.Source)
	}
	if resp.Penalty.String() != "20" {
		t.Errorf("期望扣分 20，实际=%s", resp.Penalty)
	}
	if got := env.currentRating(); got != "80" {
		t.Errorf("期望评分 80，实际=%s", got)
	}
}

func TestViolationService_Create_PenaltyOverride(t *testing.T) {
	env := newTestEnv()
	rule := env.addRule("absence", 20, true, false)

	resp, err := env.violationService().Create(context.Background(), testCompanyID, &dto.CreateViolationRequest{
		EmployeeID: testEmployeeID, RuleID: rule.RuleID, Penalty: decPtr(7),
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Penalty.String() != "7" {
		t.Errorf("期望扣分 7，实际=%s", resp.Penalty)
	}

	_, err = env.violationService().Create(context.Background(), testCompanyID, &dto.CreateViolationRequest{
		EmployeeID: testEmployeeID, RuleID: rule.RuleID, Penalty: decPtr(101),
	}, "admin-1")
	if !errors.Is(err, ErrViolationInvalidPenalty) {
		t.Errorf("期望 ErrViolationInvalidPenalty，实际=%v", err)
	}
}

func TestViolationService_Create_Rejections(t *testing.T) {
	env := newTestEnv()
	inactive := env.addRule("off", 5, false, false)
	active := env.addRule("late", 5, true, true)
	env.addEmployee("outsider", "company-2")
	svc := env.violationService()

	cases := []struct {
		name string
		req  dto.CreateViolationRequest
		want error
	}{
		{"规则已停用", dto.CreateViolationRequest{EmployeeID: testEmployeeID, RuleID: inactive.RuleID}, ErrViolationRuleInactive},
		{"规则不存在", dto.CreateViolationRequest{EmployeeID: testEmployeeID, RuleID: "missing"}, ErrViolationRuleNotFound},
		{"员工不存在", dto.CreateViolationRequest{EmployeeID: "ghost", RuleID: active.RuleID}, ErrEmployeeNotFound},
		{"跨公司员工", dto.CreateViolationRequest{EmployeeID: "outsider", RuleID: active.RuleID}, ErrEmployeeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			if _, err := svc.Create(context.Background(), testCompanyID, &req, "admin-1"); !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际=%v", tc.want, err)
			}
		})
	}
	if len(env.violations.violations) != 0 {
		t.Error("被拒绝的请求不应写入违规")
	}
}

func TestViolationService_UpdateAndDeleteRecalculate(t *testing.T) {
	env := newTestEnv()
	rule := env.addRule("late", 10, true, true)
	v := env.addViolation(testEmployeeID, rule.RuleID, 10, clockAt(10, 0))
	svc := env.violationService()

	if _, err := svc.Update(context.Background(), testCompanyID, v.ViolationID,
		&dto.UpdateViolationRequest{Penalty: decPtr(40)}, "admin-1"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if got := env.currentRating(); got != "60" {
		t.Errorf("修改扣分后期望评分 60，实际=%s", got)
	}

	if err := svc.Delete(context.Background(), testCompanyID, v.ViolationID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if got := env.currentRating(); got != "100" {
		t.Errorf("删除后期望评分 100，实际=%s", got)
	}

	if err := svc.Delete(context.Background(), testCompanyID, v.ViolationID); !errors.Is(err, ErrViolationNotFound) {
		t.Errorf("重复删除期望 ErrViolationNotFound，实际=%v", err)
	}
}

func TestViolationService_RecalculationFailureDoesNotFailCreate(t *testing.T) {
	env := newTestEnv()
	rule := env.addRule("late", 10, true, true)
	env.ratings.upsertErr = errors.New("db down")

	if _, err := env.violationService().Create(context.Background(), testCompanyID, &dto.CreateViolationRequest{
		EmployeeID: testEmployeeID, RuleID: rule.RuleID,
	}, "admin-1"); err != nil {
		t.Fatalf("评分失败不应影响违规落库: %v", err)
	}
	if n := env.violations.countFor(testEmployeeID); n != 1 {
		t.Errorf("期望 1 条违规，实际=%d", n)
	}
}

func TestViolationService_GetAndList(t *testing.T) {
	env := newTestEnv()
	rule := env.addRule("late", 10, true, true)
	v := env.addViolation(testEmployeeID, rule.RuleID, 10, clockAt(10, 0))
	svc := env.violationService()

	if _, err := svc.GetByID(context.Background(), "company-2", v.ViolationID); !errors.Is(err, ErrViolationNotFound) {
		t.Errorf("跨公司访问应视为不存在，实际=%v", err)
	}

	list, total, err := svc.List(context.Background(), testCompanyID, &dto.ViolationListRequest{Source: model.ViolationSourceManual})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("期望 1 条，实际 total=%d len=%d", total, len(list))
	}

	_, _, err = svc.List(context.Background(), testCompanyID, &dto.ViolationListRequest{
		DateRangeRequest: dto.DateRangeRequest{From: "2024-03-10", To: "2024-03-01"},
	})
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("期望 ErrInvalidPeriod，实际=%v", err)
	}
}
