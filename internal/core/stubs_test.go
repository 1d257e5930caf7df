package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hr.backoffice/internal/core/model"
	"hr.backoffice/internal/ports/messaging"
	"hr.backoffice/internal/ports/repository"
)

type stubSessions struct {
	mu       sync.Mutex
	byCode   map[string]*model.AttendanceSession
	inUse    map[string]bool
	sequence int
}

func newStubSessions() *stubSessions {
	return &stubSessions{byCode: map[string]*model.AttendanceSession{}, inUse: map[string]bool{}}
}

func (s *stubSessions) dateTaken(date model.Date, except string) bool {
	for code, existing := range s.byCode {
		if code != except && existing.Date == date {
			return true
		}
	}
	return false
}

func (s *stubSessions) CreateSession(_ context.Context, in model.AttendanceSession) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dateTaken(in.Date, "") {
		return nil, model.ErrDuplicateSession
	}
	s.sequence++
	in.ID = int64(s.sequence)
	in.Code = fmt.Sprintf("SSA%07d", s.sequence)
	in.Status = model.SessionOpen
	stored := in
	s.byCode[in.Code] = &stored
	out := stored
	return &out, nil
}

func (s *stubSessions) GetSessionByID(_ context.Context, id int64) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byCode {
		if existing.ID == id {
			out := *existing
			return &out, nil
		}
	}
	return nil, model.NotFoundf("attendance session %d", id)
}

func (s *stubSessions) GetSessionByCode(_ context.Context, code string) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byCode[code]
	if !ok {
		return nil, model.NotFoundf("attendance session %s", code)
	}
	out := *existing
	return &out, nil
}

func (s *stubSessions) GetSessionByDate(_ context.Context, date model.Date) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byCode {
		if existing.Date == date {
			out := *existing
			return &out, nil
		}
	}
	return nil, model.NotFoundf("attendance session on %s", date)
}

func (s *stubSessions) ListSessions(context.Context) ([]model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AttendanceSession
	for _, existing := range s.byCode {
		out = append(out, *existing)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out, nil
}

func (s *stubSessions) UpdateOpenSession(_ context.Context, in model.AttendanceSession) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byCode[in.Code]
	if !ok {
		return nil, model.NotFoundf("attendance session %s", in.Code)
	}
	if existing.Status != model.SessionOpen {
		return nil, model.ErrSessionClosed
	}
	if s.dateTaken(in.Date, in.Code) {
		return nil, model.ErrDuplicateSession
	}
	existing.Date, existing.OpenTime, existing.CutoffTime, existing.CloseTime = in.Date, in.OpenTime, in.CutoffTime, in.CloseTime
	out := *existing
	return &out, nil
}

func (s *stubSessions) CloseSession(_ context.Context, code string) (*model.AttendanceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byCode[code]
	if !ok {
		return nil, model.NotFoundf("attendance session %s", code)
	}
	existing.Status = model.SessionClosed
	out := *existing
	return &out, nil
}

func (s *stubSessions) DeleteSession(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[code]; !ok {
		return model.NotFoundf("attendance session %s", code)
	}
	if s.inUse[code] {
		return model.ErrSessionInUse
	}
	delete(s.byCode, code)
	return nil
}

type attendanceKey struct{ employee, session string }

type stubAttendances struct {
	mu       sync.Mutex
	rows     map[attendanceKey]*model.Attendance
	sessions *stubSessions
}

func newStubAttendances(sessions *stubSessions) *stubAttendances {
	return &stubAttendances{rows: map[attendanceKey]*model.Attendance{}, sessions: sessions}
}

func (a *stubAttendances) CreateCheckIn(_ context.Context, in model.Attendance) (*model.Attendance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := attendanceKey{in.EmployeeCode, in.SessionCode}
	if _, ok := a.rows[key]; ok {
		return nil, model.ErrDuplicateCheckIn
	}
	in.ID = int64(len(a.rows) + 1)
	in.Code = fmt.Sprintf("ATT%07d", in.ID)
	stored := in
	a.rows[key] = &stored
	if a.sessions != nil {
		a.sessions.mu.Lock()
		a.sessions.inUse[in.SessionCode] = true
		a.sessions.mu.Unlock()
	}
	out := stored
	return &out, nil
}

func (a *stubAttendances) UpdateCheckOut(_ context.Context, employeeCode, sessionCode string, at time.Time, status model.CheckOutStatus) (*model.Attendance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	row, ok := a.rows[attendanceKey{employeeCode, sessionCode}]
	if !ok || row.CheckOutTime != nil {
		return nil, model.ErrNotCheckedIn
	}
	row.CheckOutTime = &at
	row.CheckOutStatus = &status
	out := *row
	return &out, nil
}

func (a *stubAttendances) ListAttendances(_ context.Context, filter repository.AttendanceFilter) ([]model.Attendance, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.Attendance
	for _, row := range a.rows {
		if filter.SessionCode != "" && row.SessionCode != filter.SessionCode {
			continue
		}
		if filter.EmployeeCode != "" && row.EmployeeCode != filter.EmployeeCode {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func inRange(d, from, to model.Date) bool {
	return !d.Before(from) && !d.After(to)
}

func (a *stubAttendances) CountMonthlyAttendance(_ context.Context, employeeCode string, from, to model.Date) (int, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions.mu.Lock()
	defer a.sessions.mu.Unlock()
	closed, present := 0, 0
	for code, session := range a.sessions.byCode {
		if session.Status != model.SessionClosed || !inRange(session.Date, from, to) {
			continue
		}
		closed++
		row, ok := a.rows[attendanceKey{employeeCode, code}]
		if ok && (row.CheckInStatus == model.CheckInInTime || row.CheckInStatus == model.CheckInLate) {
			present++
		}
	}
	return closed, present, nil
}

func (a *stubAttendances) CountSessionAttendances(_ context.Context, sessionCode string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for key := range a.rows {
		if key.session == sessionCode {
			total++
		}
	}
	return total, nil
}

type stubDirectory struct {
	employees  map[string]model.Employee
	leaveTypes map[string]model.LeaveType
}

func newStubDirectory(employees ...model.Employee) *stubDirectory {
	d := &stubDirectory{employees: map[string]model.Employee{}, leaveTypes: map[string]model.LeaveType{}}
	for _, e := range employees {
		d.employees[e.Code] = e
	}
	return d
}

func (d *stubDirectory) GetEmployee(_ context.Context, code string) (*model.Employee, error) {
	e, ok := d.employees[code]
	if !ok {
		return nil, model.NotFoundf("employee %s", code)
	}
	return &e, nil
}

func (d *stubDirectory) GetLeaveType(_ context.Context, code string) (*model.LeaveType, error) {
	lt, ok := d.leaveTypes[code]
	if !ok {
		return nil, model.NotFoundf("leave type %s", code)
	}
	return &lt, nil
}

func (d *stubDirectory) CountActiveEmployees(context.Context) (int, error) {
	total := 0
	for _, e := range d.employees {
		if e.IsActive {
			total++
		}
	}
	return total, nil
}

// stubLeaves keeps balances in a map. Bulk grants write to a copy that
// replaces the map only when every employee succeeded.
type stubLeaves struct {
	mu        sync.Mutex
	directory *stubDirectory
	balances  map[repository.BalanceKey]int
	requests  map[string]*model.LeaveRequest
	failFor   string
}

func newStubLeaves(directory *stubDirectory) *stubLeaves {
	return &stubLeaves{
		directory: directory,
		balances:  map[repository.BalanceKey]int{},
		requests:  map[string]*model.LeaveRequest{},
	}
}

func (l *stubLeaves) balance(key repository.BalanceKey) *model.LeaveBalance {
	return &model.LeaveBalance{EmployeeCode: key.EmployeeCode, TypeCode: key.TypeCode, Year: key.Year, Balance: l.balances[key]}
}

func (l *stubLeaves) GrantBalance(_ context.Context, key repository.BalanceKey, amount int) (*model.LeaveBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[key] += amount
	return l.balance(key), nil
}

func (l *stubLeaves) SetBalance(_ context.Context, key repository.BalanceKey, amount int) (*model.LeaveBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[key] = amount
	return l.balance(key), nil
}

func (l *stubLeaves) deduct(key repository.BalanceKey, days int) error {
	current, ok := l.balances[key]
	if !ok || current < days {
		return model.ErrInsufficientBalance
	}
	l.balances[key] = current - days
	return nil
}

func (l *stubLeaves) DeductBalance(_ context.Context, key repository.BalanceKey, days int) (*model.LeaveBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.deduct(key, days); err != nil {
		return nil, err
	}
	return l.balance(key), nil
}

func (l *stubLeaves) BulkGrantBalances(_ context.Context, typeCode string, year, amount int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	staged := make(map[repository.BalanceKey]int, len(l.balances))
	for k, v := range l.balances {
		staged[k] = v
	}
	var affected int64
	codes := make([]string, 0, len(l.directory.employees))
	for code := range l.directory.employees {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if !l.directory.employees[code].IsActive {
			continue
		}
		if code == l.failFor {
			return 0, errors.New("connection reset")
		}
		staged[repository.BalanceKey{EmployeeCode: code, TypeCode: typeCode, Year: year}] += amount
		affected++
	}
	l.balances = staged
	return affected, nil
}

func (l *stubLeaves) BulkDeleteBalances(_ context.Context, typeCode string, year int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var deleted int64
	for k := range l.balances {
		if k.TypeCode == typeCode && k.Year == year {
			delete(l.balances, k)
			deleted++
		}
	}
	return deleted, nil
}

func (l *stubLeaves) GetBalance(_ context.Context, key repository.BalanceKey) (*model.LeaveBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[key]; !ok {
		return nil, model.NotFoundf("leave balance")
	}
	return l.balance(key), nil
}

func (l *stubLeaves) ListBalances(_ context.Context, employeeCode string, year int) ([]model.LeaveBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.LeaveBalance
	for k := range l.balances {
		if k.EmployeeCode == employeeCode && (year == 0 || k.Year == year) {
			out = append(out, *l.balance(k))
		}
	}
	return out, nil
}

func (l *stubLeaves) CreateLeaveRequest(_ context.Context, in model.LeaveRequest) (*model.LeaveRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	in.ID = int64(len(l.requests) + 1)
	in.Code = fmt.Sprintf("PCT%07d", in.ID)
	stored := in
	l.requests[in.Code] = &stored
	out := stored
	return &out, nil
}

func (l *stubLeaves) GetLeaveRequest(_ context.Context, code string) (*model.LeaveRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.requests[code]
	if !ok {
		return nil, model.NotFoundf("leave request %s", code)
	}
	out := *r
	return &out, nil
}

func (l *stubLeaves) ListLeaveRequests(_ context.Context, filter repository.LeaveRequestFilter) ([]model.LeaveRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.LeaveRequest
	for _, r := range l.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.EmployeeCode != "" && r.EmployeeCode != filter.EmployeeCode {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (l *stubLeaves) DecideLeaveRequest(_ context.Context, d repository.Decision) (*model.LeaveRequest, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.requests[d.Code]
	if !ok {
		return nil, model.NotFoundf("leave request %s", d.Code)
	}
	if r.Status != model.LeavePending {
		return nil, model.ErrRequestDecided
	}
	if d.Status == model.LeaveApproved {
		key := repository.BalanceKey{EmployeeCode: r.EmployeeCode, TypeCode: r.TypeCode, Year: r.StartDate.Year}
		if err := l.deduct(key, r.TotalDays); err != nil {
			return nil, err
		}
	}
	r.Status = d.Status
	approver, at := d.ApprovedBy, d.At
	r.ApprovedBy, r.ApprovalDate = &approver, &at
	out := *r
	return &out, nil
}

func (l *stubLeaves) CountPendingRequests(_ context.Context, from, to model.Date) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, r := range l.requests {
		if r.Status == model.LeavePending && inRange(model.DateOf(r.CreatedAt), from, to) {
			total++
		}
	}
	return total, nil
}

// stubPayrolls serves payroll inputs from a fixture instead of aggregating.
type stubPayrolls struct {
	mu       sync.Mutex
	periods  map[int64]*model.PayrollPeriod
	payrolls map[int64]*model.Payroll
	inputs   map[int64][]model.PayrollInput
	inUse    map[int64]bool
	nextID   int64
}

func newStubPayrolls() *stubPayrolls {
	return &stubPayrolls{
		periods:  map[int64]*model.PayrollPeriod{},
		payrolls: map[int64]*model.Payroll{},
		inputs:   map[int64][]model.PayrollInput{},
		inUse:    map[int64]bool{},
	}
}

func (p *stubPayrolls) CreatePeriod(_ context.Context, in model.PayrollPeriod) (*model.PayrollPeriod, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	in.ID = p.nextID
	stored := in
	p.periods[in.ID] = &stored
	out := stored
	return &out, nil
}

func (p *stubPayrolls) GetPeriod(_ context.Context, id int64) (*model.PayrollPeriod, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	period, ok := p.periods[id]
	if !ok {
		return nil, model.NotFoundf("payroll period %d", id)
	}
	out := *period
	return &out, nil
}

func (p *stubPayrolls) ListPeriods(context.Context) ([]model.PayrollPeriod, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.PayrollPeriod
	for _, period := range p.periods {
		out = append(out, *period)
	}
	return out, nil
}

func (p *stubPayrolls) UpdatePeriodStatus(_ context.Context, id int64, status model.PeriodStatus) (*model.PayrollPeriod, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	period, ok := p.periods[id]
	if !ok {
		return nil, model.NotFoundf("payroll period %d", id)
	}
	period.Status = status
	out := *period
	return &out, nil
}

func (p *stubPayrolls) DeletePeriod(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.periods[id]; !ok {
		return model.NotFoundf("payroll period %d", id)
	}
	for _, row := range p.payrolls {
		if row.PeriodID == id {
			return model.ErrPeriodInUse
		}
	}
	delete(p.periods, id)
	return nil
}

func (p *stubPayrolls) GeneratePayrolls(_ context.Context, periodID int64, compute repository.PayrollComputeFunc) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	period, ok := p.periods[periodID]
	if !ok {
		return 0, model.NotFoundf("payroll period %d", periodID)
	}
	var processed int64
	for _, row := range compute(*period, p.inputs[periodID]) {
		var existing *model.Payroll
		for _, stored := range p.payrolls {
			if stored.PeriodID == periodID && stored.EmployeeCode == row.EmployeeCode {
				existing = stored
			}
		}
		switch {
		case existing == nil:
			p.nextID++
			row.ID = p.nextID
			row.ExportStatus, row.EmailStatus = model.DeliveryNone, model.DeliveryNone
			stored := row
			p.payrolls[row.ID] = &stored
		case existing.Status == model.PayrollDraft:
			existing.BaseSalary, existing.TotalWorkDays, existing.TotalLeaveDays = row.BaseSalary, row.TotalWorkDays, row.TotalLeaveDays
			existing.TotalDeductions, existing.NetSalary = row.TotalDeductions, row.NetSalary
		default:
			continue
		}
		processed++
	}
	return processed, nil
}

func (p *stubPayrolls) GetPayroll(_ context.Context, id int64) (*model.Payroll, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.payrolls[id]
	if !ok {
		return nil, model.NotFoundf("payroll %d", id)
	}
	out := *row
	return &out, nil
}

func (p *stubPayrolls) ListPayrolls(_ context.Context, periodID int64) ([]model.Payroll, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.Payroll
	for _, row := range p.payrolls {
		if row.PeriodID == periodID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (p *stubPayrolls) UpdateDraftPayroll(ctx context.Context, id int64, mutate repository.PayrollMutateFunc, beforeCommit repository.PayrollHookFunc) (*model.Payroll, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.payrolls[id]
	if !ok {
		return nil, model.NotFoundf("payroll %d", id)
	}
	if row.Status != model.PayrollDraft {
		return nil, model.ErrPayrollNotDraft
	}
	working := *row
	if err := mutate(&working); err != nil {
		return nil, err
	}
	if beforeCommit != nil {
		if err := beforeCommit(ctx, working); err != nil {
			return nil, err
		}
	}
	*row = working
	out := working
	return &out, nil
}

func (p *stubPayrolls) DeleteDraftPayroll(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.payrolls[id]
	if !ok {
		return model.NotFoundf("payroll %d", id)
	}
	if row.Status != model.PayrollDraft {
		return model.ErrPayrollNotDraft
	}
	delete(p.payrolls, id)
	return nil
}

func (p *stubPayrolls) UpdateExportStatus(_ context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.payrolls[id]
	if !ok {
		return model.NotFoundf("payroll %d", id)
	}
	row.ExportStatus, row.ExportRetryCount = status, retryCount
	return nil
}

func (p *stubPayrolls) UpdateEmailStatus(_ context.Context, id int64, status model.DeliveryStatus, retryCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.payrolls[id]
	if !ok {
		return model.NotFoundf("payroll %d", id)
	}
	row.EmailStatus, row.EmailRetryCount = status, retryCount
	return nil
}

type stubProducer struct {
	events []messaging.PayrollFinalizedEvent
	err    error
}

func (s *stubProducer) PublishPayrollFinalized(_ context.Context, event messaging.PayrollFinalizedEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func rupiah(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
