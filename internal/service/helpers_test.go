package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ── 测试辅助 ──

const (
	testCompanyID  = "company-1"
	testEmployeeID = "employee-1"
	testTelegramID = int64(1001)
)

// testEnv 组装全部 mock 仓储，并提供可控时钟
type testEnv struct {
	repo          *repository.Repository
	companies     *mockCompanyRepo
	employees     *mockEmployeeRepo
	shifts        *mockShiftRepo
	rules         *mockViolationRuleRepo
	violations    *mockViolationRepo
	ratings       *mockRatingRepo
	exceptions    *mockExceptionRepo
	notifications *mockNotificationRepo
	sender        *mockSender
	now           time.Time
}

func newTestEnv() *testEnv {
	employees := newMockEmployeeRepo()
	env := &testEnv{
		companies:     newMockCompanyRepo(),
		employees:     employees,
		shifts:        newMockShiftRepo(employees),
		rules:         newMockViolationRuleRepo(),
		violations:    newMockViolationRepo(),
		ratings:       newMockRatingRepo(),
		exceptions:    newMockExceptionRepo(employees),
		notifications: newMockNotificationRepo(),
		sender:        &mockSender{},
		now:           time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	}
	env.repo = &repository.Repository{
		Company:       env.companies,
		Employee:      env.employees,
		Shift:         env.shifts,
		ViolationRule: env.rules,
		Violation:     env.violations,
		Rating:        env.ratings,
		Exception:     env.exceptions,
		Notification:  env.notifications,
	}

	env.companies.companies[testCompanyID] = &model.Company{CompanyID: testCompanyID, Name: "测试公司"}
	tg := testTelegramID
	env.employees.employees[testEmployeeID] = &model.Employee{
		EmployeeID: testEmployeeID, CompanyID: testCompanyID, FullName: "张三",
		TelegramID: &tg, Status: model.EmployeeStatusActive,
	}
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) notifier() *notificationService {
	return &notificationService{repo: e.repo, sender: e.sender, now: e.clock, logger: zap.NewNop()}
}

func (e *testEnv) ratingService() *ratingService {
	s := newRatingService(e.repo, e.notifier(), time.UTC, zap.NewNop())
	s.now = e.clock
	return s
}

func (e *testEnv) recorder() *violationRecorder {
	return &violationRecorder{repo: e.repo, rating: e.ratingService(), notifier: e.notifier(), now: e.clock, logger: zap.NewNop()}
}

func (e *testEnv) detector() *violationDetector {
	return &violationDetector{repo: e.repo, loc: time.UTC, lookback: 24 * time.Hour, now: e.clock, logger: zap.NewNop()}
}

func (e *testEnv) monitor() MonitorService {
	return NewMonitorService(e.repo, e.detector(), e.recorder(), NewLocalLocker(), MonitorOptions{
		CompanyTimeout: 5 * time.Second,
		LockTTL:        time.Minute,
	}, zap.NewNop())
}

func (e *testEnv) shiftService() *shiftService {
	s := NewShiftService(e.repo, time.UTC, 8*time.Hour, zap.NewNop()).(*shiftService)
	s.now = e.clock
	return s
}

func (e *testEnv) addEmployee(id, companyID string) *model.Employee {
	emp := &model.Employee{EmployeeID: id, CompanyID: companyID, FullName: id, Status: model.EmployeeStatusActive}
	e.employees.employees[id] = emp
	return emp
}

func (e *testEnv) addRule(code string, penalty int64, active, auto bool) *model.ViolationRule {
	rule := &model.ViolationRule{
		RuleID:         "rule-" + code,
		CompanyID:      testCompanyID,
		Code:           code,
		Name:           code,
		PenaltyPercent: decimal.NewFromInt(penalty),
		AutoDetectable: auto,
		IsActive:       active,
	}
	e.rules.rules[rule.RuleID] = rule
	return rule
}

func (e *testEnv) addViolation(employeeID, ruleID string, penalty int64, at time.Time) *model.Violation {
	v := &model.Violation{
		EmployeeID: employeeID,
		CompanyID:  testCompanyID,
		RuleID:     ruleID,
		Source:     model.ViolationSourceManual,
		Penalty:    decimal.NewFromInt(penalty),
	}
	v.CreatedAt = at
	e.violations.seq++
	v.ViolationID = fmt.Sprintf("seed-violation-%d", e.violations.seq)
	e.violations.violations[v.ViolationID] = v
	return v
}

// addActiveShift 计划 09:00–17:00（当天），workStart 为实际开始
func (e *testEnv) addActiveShift(id string, workStart time.Time) *model.Shift {
	day := time.Date(e.now.Year(), e.now.Month(), e.now.Day(), 0, 0, 0, 0, time.UTC)
	shift := &model.Shift{
		ShiftID:      id,
		EmployeeID:   testEmployeeID,
		PlannedStart: day.Add(9 * time.Hour),
		PlannedEnd:   day.Add(17 * time.Hour),
		ActualStart:  &workStart,
		Status:       model.ShiftStatusActive,
		WorkIntervals: []model.WorkInterval{
			{IntervalID: id + "-w1", ShiftID: id, StartAt: workStart, Source: model.IntervalSourceBot},
		},
	}
	shift.Version = 2
	e.shifts.shifts[id] = shift
	return shift
}

func clockAt(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func (e *testEnv) ruleService() *violationRuleService {
	s := NewViolationRuleService(e.repo, e.ratingService(), zap.NewNop()).(*violationRuleService)
	s.now = e.clock
	return s
}

func (e *testEnv) violationService() *violationService {
	s := NewViolationService(e.repo, e.ratingService(), time.UTC, zap.NewNop()).(*violationService)
	s.now = e.clock
	return s
}

func (e *testEnv) exceptionService() *exceptionService {
	s := NewExceptionService(e.repo, zap.NewNop()).(*exceptionService)
	s.now = e.clock
	return s
}

// currentRating 读取 now 所在自然月的评分，不存在时返回空字符串
func (e *testEnv) currentRating() string {
	p := MonthPeriod(e.now, time.UTC)
	r, ok := e.ratings.ratings[ratingKey(testEmployeeID, p.Start, p.End)]
	if !ok {
		return ""
	}
	return r.Rating.String()
}
