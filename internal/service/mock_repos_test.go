package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
	pkgerrors "github.com/muhamed1222/timeout-sub002/pkg/errors"
)

// ── Mock CompanyRepository ──

type mockCompanyRepo struct {
	companies map[string]*model.Company
	listErr   error
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{companies: make(map[string]*model.Company)}
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (*model.Company, error) {
	if c, ok := m.companies[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompanyRepo) List(_ context.Context) ([]model.Company, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.Company
	for _, c := range m.companies {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CompanyID < result[j].CompanyID })
	return result, nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
	getErr    error
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.TelegramID != nil && *e.TelegramID == telegramID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListByCompany(_ context.Context, companyID string) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (m *mockEmployeeRepo) UpdateStatus(_ context.Context, id, status string) error {
	e, ok := m.employees[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Status = status
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts    map[string]*model.Shift
	employees *mockEmployeeRepo
	listErr   map[string]error // 按公司注入 ListForMonitoring 错误
	seq       int
}

func newMockShiftRepo(employees *mockEmployeeRepo) *mockShiftRepo {
	return &mockShiftRepo{
		shifts:    make(map[string]*model.Shift),
		employees: employees,
		listErr:   make(map[string]error),
	}
}

func (m *mockShiftRepo) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func cloneShift(s *model.Shift) *model.Shift {
	cp := *s
	cp.WorkIntervals = append([]model.WorkInterval(nil), s.WorkIntervals...)
	cp.BreakIntervals = append([]model.BreakInterval(nil), s.BreakIntervals...)
	return &cp
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = m.nextID("shift")
	}
	m.shifts[shift.ShiftID] = cloneShift(shift)
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		return cloneShift(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) Delete(_ context.Context, id string) error {
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) GetActiveByEmployee(_ context.Context, employeeID string) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.EmployeeID == employeeID && s.Status == model.ShiftStatusActive {
			return cloneShift(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetPlannedByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.EmployeeID == employeeID && s.Status == model.ShiftStatusPlanned &&
			!s.PlannedStart.Before(from) && s.PlannedStart.Before(to) {
			return cloneShift(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.EmployeeID == employeeID && !s.PlannedStart.Before(from) && s.PlannedStart.Before(to) {
			result = append(result, *cloneShift(s))
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListForMonitoring(_ context.Context, companyID string, completedSince time.Time) ([]model.Shift, error) {
	if err := m.listErr[companyID]; err != nil {
		return nil, err
	}
	var result []model.Shift
	for _, s := range m.shifts {
		e, ok := m.employees.employees[s.EmployeeID]
		if !ok || e.CompanyID != companyID {
			continue
		}
		switch s.Status {
		case model.ShiftStatusPlanned, model.ShiftStatusActive:
			result = append(result, *cloneShift(s))
		case model.ShiftStatusCompleted:
			if s.ActualEnd != nil && !s.ActualEnd.Before(completedSince) {
				result = append(result, *cloneShift(s))
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ShiftID < result[j].ShiftID })
	return result, nil
}

func (m *mockShiftRepo) guard(shift *model.Shift) (*model.Shift, error) {
	stored, ok := m.shifts[shift.ShiftID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if stored.Version != shift.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	stored.Version++
	shift.Version++
	return stored, nil
}

func closeWork(s *model.Shift, at time.Time) {
	for i := range s.WorkIntervals {
		if s.WorkIntervals[i].EndAt == nil {
			s.WorkIntervals[i].EndAt = &at
		}
	}
}

func closeBreak(s *model.Shift, at time.Time) {
	for i := range s.BreakIntervals {
		if s.BreakIntervals[i].EndAt == nil {
			s.BreakIntervals[i].EndAt = &at
		}
	}
}

func (m *mockShiftRepo) Start(_ context.Context, shift *model.Shift, at time.Time, source string) error {
	stored, err := m.guard(shift)
	if err != nil {
		return err
	}
	stored.Status = model.ShiftStatusActive
	stored.ActualStart = &at
	stored.WorkIntervals = append(stored.WorkIntervals, model.WorkInterval{
		IntervalID: m.nextID("work"), ShiftID: shift.ShiftID, StartAt: at, Source: source,
	})
	shift.Status = model.ShiftStatusActive
	shift.ActualStart = &at
	return nil
}

func (m *mockShiftRepo) Finish(_ context.Context, shift *model.Shift, status string, at time.Time) error {
	stored, err := m.guard(shift)
	if err != nil {
		return err
	}
	stored.Status = status
	if status == model.ShiftStatusCompleted {
		stored.ActualEnd = &at
		shift.ActualEnd = &at
	}
	closeBreak(stored, at)
	closeWork(stored, at)
	shift.Status = status
	return nil
}

func (m *mockShiftRepo) StartBreak(_ context.Context, shift *model.Shift, at time.Time, source string) (*model.BreakInterval, error) {
	stored, err := m.guard(shift)
	if err != nil {
		return nil, err
	}
	closeWork(stored, at)
	brk := model.BreakInterval{IntervalID: m.nextID("break"), ShiftID: shift.ShiftID, StartAt: at, Source: source}
	stored.BreakIntervals = append(stored.BreakIntervals, brk)
	return &brk, nil
}

func (m *mockShiftRepo) EndBreak(_ context.Context, shift *model.Shift, at time.Time, source string) (*model.BreakInterval, error) {
	stored, err := m.guard(shift)
	if err != nil {
		return nil, err
	}
	for i := range stored.BreakIntervals {
		if stored.BreakIntervals[i].EndAt == nil {
			stored.BreakIntervals[i].EndAt = &at
			stored.WorkIntervals = append(stored.WorkIntervals, model.WorkInterval{
				IntervalID: m.nextID("work"), ShiftID: shift.ShiftID, StartAt: at, Source: source,
			})
			brk := stored.BreakIntervals[i]
			return &brk, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ViolationRuleRepository ──

type mockViolationRuleRepo struct {
	rules     map[string]*model.ViolationRule
	deleteErr error
	seq       int
}

func newMockViolationRuleRepo() *mockViolationRuleRepo {
	return &mockViolationRuleRepo{rules: make(map[string]*model.ViolationRule)}
}

func (m *mockViolationRuleRepo) Create(_ context.Context, rule *model.ViolationRule) error {
	for _, r := range m.rules {
		if r.CompanyID == rule.CompanyID && strings.EqualFold(r.Code, rule.Code) {
			return gorm.ErrDuplicatedKey
		}
	}
	if rule.RuleID == "" {
		m.seq++
		rule.RuleID = fmt.Sprintf("rule-%d", m.seq)
	}
	cp := *rule
	m.rules[rule.RuleID] = &cp
	return nil
}

func (m *mockViolationRuleRepo) GetByID(_ context.Context, id string) (*model.ViolationRule, error) {
	if r, ok := m.rules[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockViolationRuleRepo) GetByCode(_ context.Context, companyID, code string) (*model.ViolationRule, error) {
	for _, r := range m.rules {
		if r.CompanyID == companyID && r.Code == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockViolationRuleRepo) ListByCompany(_ context.Context, companyID string) ([]model.ViolationRule, error) {
	var result []model.ViolationRule
	for _, r := range m.rules {
		if r.CompanyID == companyID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockViolationRuleRepo) ListByIDs(_ context.Context, ids []string) ([]model.ViolationRule, error) {
	var result []model.ViolationRule
	for _, id := range ids {
		if r, ok := m.rules[id]; ok {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockViolationRuleRepo) Update(_ context.Context, rule *model.ViolationRule) error {
	cp := *rule
	m.rules[rule.RuleID] = &cp
	return nil
}

func (m *mockViolationRuleRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rules, id)
	return nil
}

// ── Mock ViolationRepository ──

type mockViolationRepo struct {
	violations map[string]*model.Violation
	createErr  error
	seq        int
}

func newMockViolationRepo() *mockViolationRepo {
	return &mockViolationRepo{violations: make(map[string]*model.Violation)}
}

func (m *mockViolationRepo) Create(_ context.Context, violation *model.Violation) error {
	if m.createErr != nil {
		return m.createErr
	}
	if violation.ViolationID == "" {
		m.seq++
		violation.ViolationID = fmt.Sprintf("violation-%d", m.seq)
	}
	cp := *violation
	m.violations[violation.ViolationID] = &cp
	return nil
}

func (m *mockViolationRepo) GetByID(_ context.Context, id string) (*model.Violation, error) {
	if v, ok := m.violations[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockViolationRepo) Update(_ context.Context, violation *model.Violation) error {
	cp := *violation
	m.violations[violation.ViolationID] = &cp
	return nil
}

func (m *mockViolationRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.violations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.violations, id)
	return nil
}

func (m *mockViolationRepo) ListByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) ([]model.Violation, error) {
	var result []model.Violation
	for _, v := range m.violations {
		if v.EmployeeID == employeeID && !v.CreatedAt.Before(from) && v.CreatedAt.Before(to) {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *mockViolationRepo) List(_ context.Context, filter repository.ViolationFilter, offset, limit int) ([]model.Violation, int64, error) {
	var result []model.Violation
	for _, v := range m.violations {
		if filter.CompanyID != "" && v.CompanyID != filter.CompanyID {
			continue
		}
		if filter.EmployeeID != "" && v.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Source != "" && v.Source != filter.Source {
			continue
		}
		result = append(result, *v)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockViolationRepo) countFor(employeeID string) int {
	n := 0
	for _, v := range m.violations {
		if v.EmployeeID == employeeID {
			n++
		}
	}
	return n
}

// ── Mock RatingRepository ──

type mockRatingRepo struct {
	ratings   map[string]*model.EmployeeRating
	upsertErr error
	upserts   int
	seq       int
}

func newMockRatingRepo() *mockRatingRepo {
	return &mockRatingRepo{ratings: make(map[string]*model.EmployeeRating)}
}

func ratingKey(employeeID string, start, end time.Time) string {
	return employeeID + "|" + start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}

func (m *mockRatingRepo) Upsert(_ context.Context, rating *model.EmployeeRating) (*model.EmployeeRating, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upserts++
	key := ratingKey(rating.EmployeeID, rating.PeriodStart, rating.PeriodEnd)
	cp := *rating
	if existing, ok := m.ratings[key]; ok {
		cp.RatingID = existing.RatingID
	} else {
		m.seq++
		cp.RatingID = fmt.Sprintf("rating-%d", m.seq)
	}
	m.ratings[key] = &cp
	out := cp
	return &out, nil
}

func (m *mockRatingRepo) GetByEmployeePeriod(_ context.Context, employeeID string, start, end time.Time) (*model.EmployeeRating, error) {
	if r, ok := m.ratings[ratingKey(employeeID, start, end)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRatingRepo) ListByCompanyPeriod(_ context.Context, companyID string, start, end time.Time) ([]model.EmployeeRating, error) {
	var result []model.EmployeeRating
	for _, r := range m.ratings {
		if r.CompanyID == companyID && r.PeriodStart.Equal(start) && r.PeriodEnd.Equal(end) {
			result = append(result, *r)
		}
	}
	return result, nil
}

// ── Mock ExceptionRepository ──

type mockExceptionRepo struct {
	exceptions map[string]*model.Exception
	employees  *mockEmployeeRepo
	createErr  error
	countErr   error
	seq        int
}

func newMockExceptionRepo(employees *mockEmployeeRepo) *mockExceptionRepo {
	return &mockExceptionRepo{exceptions: make(map[string]*model.Exception), employees: employees}
}

func (m *mockExceptionRepo) CreateIfAbsent(_ context.Context, exception *model.Exception) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	for _, e := range m.exceptions {
		if e.ResolvedAt == nil && e.EmployeeID == exception.EmployeeID &&
			e.Date.Equal(exception.Date) && e.Kind == exception.Kind {
			return false, nil
		}
	}
	m.seq++
	exception.ExceptionID = fmt.Sprintf("exception-%d", m.seq)
	cp := *exception
	m.exceptions[exception.ExceptionID] = &cp
	return true, nil
}

func (m *mockExceptionRepo) FindOpen(_ context.Context, employeeID string, date time.Time, kind string) (*model.Exception, error) {
	for _, e := range m.exceptions {
		if e.ResolvedAt == nil && e.EmployeeID == employeeID && e.Date.Equal(date) && e.Kind == kind {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExceptionRepo) HasResolvedForShift(_ context.Context, shiftID, kind string) (bool, error) {
	for _, e := range m.exceptions {
		if e.ResolvedAt != nil && e.ShiftID != nil && *e.ShiftID == shiftID && e.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockExceptionRepo) GetByID(_ context.Context, id string) (*model.Exception, error) {
	if e, ok := m.exceptions[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExceptionRepo) inCompany(e *model.Exception, companyID string) bool {
	emp, ok := m.employees.employees[e.EmployeeID]
	return ok && emp.CompanyID == companyID
}

func (m *mockExceptionRepo) List(_ context.Context, filter repository.ExceptionFilter, offset, limit int) ([]model.Exception, int64, error) {
	var result []model.Exception
	for _, e := range m.exceptions {
		if filter.CompanyID != "" && !m.inCompany(e, filter.CompanyID) {
			continue
		}
		if filter.Resolved != nil && e.IsResolved() != *filter.Resolved {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		result = append(result, *e)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockExceptionRepo) CountByCompany(_ context.Context, companyID string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	var n int64
	for _, e := range m.exceptions {
		if m.inCompany(e, companyID) {
			n++
		}
	}
	return n, nil
}

func (m *mockExceptionRepo) Resolve(_ context.Context, id, resolvedBy string, at time.Time) error {
	e, ok := m.exceptions[id]
	if !ok || e.ResolvedAt != nil {
		return gorm.ErrRecordNotFound
	}
	e.ResolvedAt = &at
	e.ResolvedBy = &resolvedBy
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *mockNotificationRepo) ListByEmployee(_ context.Context, employeeID string, limit int) ([]model.Notification, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.EmployeeID == employeeID {
			result = append(result, n)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockNotificationRepo) countType(kind string) int {
	n := 0
	for _, item := range m.notifications {
		if item.Type == kind {
			n++
		}
	}
	return n
}

// ── Mock MessageSender ──

type mockSender struct {
	sent []string
	err  error
}

func (m *mockSender) Send(_ context.Context, chatID int64, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, fmt.Sprintf("%d:%s", chatID, text))
	return nil
}
