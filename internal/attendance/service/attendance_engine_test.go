package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptosign "crypto"

	"github.com/attendsure/attendance-authority/internal/attendance/clock"
	"github.com/attendsure/attendance-authority/internal/attendance/domain"
	"github.com/attendsure/attendance-authority/internal/attendance/events"
	"github.com/attendsure/attendance-authority/pkg/errors"
	"github.com/attendsure/attendance-authority/pkg/logger"
)

// --- in-memory fakes -------------------------------------------------

type fakeEmployeeStore struct {
	byEmail   map[string]*domain.Employee
	byID      map[string]*domain.Employee
	createErr error
}

func newFakeEmployeeStore(employees ...*domain.Employee) *fakeEmployeeStore {
	s := &fakeEmployeeStore{byEmail: map[string]*domain.Employee{}, byID: map[string]*domain.Employee{}}
	for _, e := range employees {
		s.byEmail[e.Email] = e
		s.byID[e.ID] = e
	}
	return s
}

func (s *fakeEmployeeStore) Create(ctx context.Context, emp *domain.Employee) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.byEmail[emp.Email] = emp
	s.byID[emp.ID] = emp
	return nil
}
func (s *fakeEmployeeStore) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	e, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFound("employee")
	}
	return e, nil
}
func (s *fakeEmployeeStore) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	e, ok := s.byEmail[email]
	if !ok {
		return nil, errors.NotFound("employee")
	}
	return e, nil
}
func (s *fakeEmployeeStore) List(ctx context.Context, limit int) ([]*domain.Employee, error) {
	out := make([]*domain.Employee, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	return out, nil
}
func (s *fakeEmployeeStore) HasAttendanceInMonth(ctx context.Context, employeeID, month string) (bool, error) {
	return false, nil
}
func (s *fakeEmployeeStore) RegisterDevice(ctx context.Context, employeeID, publicKeyPEM string, fingerprint *string, at time.Time) error {
	e := s.byID[employeeID]
	e.DevicePublicKey = &publicKeyPEM
	e.DeviceFingerprint = fingerprint
	e.DeviceRegisteredAt = &at
	return nil
}
func (s *fakeEmployeeStore) ResetDevice(ctx context.Context, employeeID string) error {
	e := s.byID[employeeID]
	e.DevicePublicKey = nil
	e.DeviceFingerprint = nil
	e.DeviceRegisteredAt = nil
	return nil
}
func (s *fakeEmployeeStore) Delete(ctx context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

type fakeAttendanceStore struct {
	byKey map[string]*domain.Attendance // employeeID|date
	byID  map[string]*domain.Attendance
	mods  []*domain.AttendanceModification
	seq   int
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{byKey: map[string]*domain.Attendance{}, byID: map[string]*domain.Attendance{}}
}

func key(employeeID, date string) string { return employeeID + "|" + date }

func (s *fakeAttendanceStore) GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*domain.Attendance, error) {
	a, ok := s.byKey[key(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return a, nil
}
func (s *fakeAttendanceStore) GetByID(ctx context.Context, id string) (*domain.Attendance, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFound("attendance")
	}
	return a, nil
}
func (s *fakeAttendanceStore) ListByEmployeeAndMonth(ctx context.Context, employeeID, month string) (map[string]*domain.Attendance, error) {
	out := map[string]*domain.Attendance{}
	for _, a := range s.byID {
		if a.EmployeeID == employeeID && strings.HasPrefix(a.Date, month+"-") {
			out[a.Date] = a
		}
	}
	return out, nil
}
func (s *fakeAttendanceStore) CreateCheckIn(ctx context.Context, a *domain.Attendance) error {
	s.seq++
	a.ID = "att-" + strconv.Itoa(s.seq)
	s.byKey[key(a.EmployeeID, a.Date)] = a
	s.byID[a.ID] = a
	return nil
}
func (s *fakeAttendanceStore) CreateBackfill(ctx context.Context, a *domain.Attendance) error {
	return s.CreateCheckIn(ctx, a)
}
func (s *fakeAttendanceStore) CheckOut(ctx context.Context, a *domain.Attendance) error {
	s.byKey[key(a.EmployeeID, a.Date)] = a
	s.byID[a.ID] = a
	return nil
}
func (s *fakeAttendanceStore) ApplyModification(ctx context.Context, a *domain.Attendance) error {
	if a.IsLocked {
		return errors.AttendanceLocked()
	}
	s.byKey[key(a.EmployeeID, a.Date)] = a
	s.byID[a.ID] = a
	return nil
}
func (s *fakeAttendanceStore) SetLockedForEmployeeMonth(ctx context.Context, employeeID, month string, locked bool) error {
	return nil
}
func (s *fakeAttendanceStore) DeleteAutoCalculatedForEmployeeMonth(ctx context.Context, employeeID, month string) (int64, error) {
	return 0, nil
}
func (s *fakeAttendanceStore) CreateModification(ctx context.Context, m *domain.AttendanceModification) error {
	s.mods = append(s.mods, m)
	return nil
}

type fakePayrollStore struct {
	byKey map[string]*domain.Payroll
}

func newFakePayrollStore() *fakePayrollStore { return &fakePayrollStore{byKey: map[string]*domain.Payroll{}} }

func (s *fakePayrollStore) ExistsForMonth(ctx context.Context, month string) (bool, error) {
	for _, p := range s.byKey {
		if p.Month == month {
			return true, nil
		}
	}
	return false, nil
}
func (s *fakePayrollStore) GetByEmployeeAndMonth(ctx context.Context, employeeID, month string) (*domain.Payroll, error) {
	p, ok := s.byKey[key(employeeID, month)]
	if !ok {
		return nil, nil
	}
	return p, nil
}
func (s *fakePayrollStore) ListByMonth(ctx context.Context, month string) ([]*domain.Payroll, error) {
	out := make([]*domain.Payroll, 0)
	for _, p := range s.byKey {
		if p.Month == month {
			out = append(out, p)
		}
	}
	return out, nil
}
func (s *fakePayrollStore) Create(ctx context.Context, p *domain.Payroll) error {
	s.byKey[key(p.EmployeeID, p.Month)] = p
	return nil
}
func (s *fakePayrollStore) UpdateCounters(ctx context.Context, p *domain.Payroll) error {
	s.byKey[key(p.EmployeeID, p.Month)] = p
	return nil
}
func (s *fakePayrollStore) Unlock(ctx context.Context, p *domain.Payroll) error { return nil }
func (s *fakePayrollStore) Delete(ctx context.Context, id string) error        { return nil }
func (s *fakePayrollStore) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeOfficeStore struct {
	offices []*domain.OfficeLocation
}

func (s *fakeOfficeStore) ListActive(ctx context.Context) ([]*domain.OfficeLocation, error) {
	return s.offices, nil
}

func (s *fakeOfficeStore) Create(ctx context.Context, o *domain.OfficeLocation) error {
	s.offices = append(s.offices, o)
	return nil
}

type fakeAuditRecorder struct {
	calls []string
}

func (f *fakeAuditRecorder) Record(ctx context.Context, actorID, action, targetID, targetType string, payload interface{}) {
	f.calls = append(f.calls, action)
}

// --- signing helpers ---------------------------------------------------

func genKeyPair(t *testing.T) (pemPub string, priv *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), key
}

func signData(t *testing.T, priv *rsa.PrivateKey, data string) string {
	t.Helper()
	digest := sha256.Sum256([]byte(data))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, cryptosign.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

// --- test setup ----------------------------------------------------------

func newTestEngine(t *testing.T, clk clock.Oracle, emp *fakeEmployeeStore, att *fakeAttendanceStore, pay *fakePayrollStore, off *fakeOfficeStore, audit *fakeAuditRecorder) *AttendanceEngine {
	t.Helper()
	log := logger.New("attendance-service-test", "test")
	pub := events.NewNoop(log)
	return NewAttendanceEngine(clk, att, emp, pay, off, audit, pub, log)
}

func inWindow() clock.Oracle {
	return clock.NewFake(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
}

func afterCutoff() clock.Oracle {
	return clock.NewFake(time.Date(2026, 3, 15, 9, 10, 0, 0, time.UTC))
}

// --- tests ---------------------------------------------------------------

func TestAttendanceEngine_CheckIn_HappyPath(t *testing.T) {
	pub, priv := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	payload := "check-in:e1:2026-03-15"
	sig := signData(t, priv, payload)

	clk := inWindow()
	empStore := newFakeEmployeeStore(emp)
	attStore := newFakeAttendanceStore()
	audit := &fakeAuditRecorder{}
	engine := newTestEngine(t, clk, empStore, attStore, newFakePayrollStore(), &fakeOfficeStore{}, audit)

	a, err := engine.CheckIn(context.Background(), emp.Email, sig, payload, nil)
	require.NoError(t, err)
	assert.NotNil(t, a.CheckInTime)
	assert.Equal(t, "2026-03-15", a.Date)
	assert.Contains(t, audit.calls, "check-in")
}

func TestAttendanceEngine_CheckIn_AfterCutoffFails(t *testing.T) {
	pub, priv := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	payload := "check-in:e1:2026-03-15"
	sig := signData(t, priv, payload)

	engine := newTestEngine(t, afterCutoff(), newFakeEmployeeStore(emp), newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.CheckIn(context.Background(), emp.Email, sig, payload, nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LATE_CHECK_IN", appErr.Code)
}

func TestAttendanceEngine_CheckIn_DuplicateFails(t *testing.T) {
	pub, priv := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	payload := "check-in:e1:2026-03-15"
	sig := signData(t, priv, payload)

	clk := inWindow()
	empStore := newFakeEmployeeStore(emp)
	attStore := newFakeAttendanceStore()
	engine := newTestEngine(t, clk, empStore, attStore, newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.CheckIn(context.Background(), emp.Email, sig, payload, nil)
	require.NoError(t, err)

	_, err = engine.CheckIn(context.Background(), emp.Email, sig, payload, nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DUPLICATE_CHECK_IN", appErr.Code)
}

func TestAttendanceEngine_CheckIn_NoDeviceFails(t *testing.T) {
	emp := &domain.Employee{ID: "e1", Email: "a@x.com"}
	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(emp), newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.CheckIn(context.Background(), emp.Email, "sig", "data", nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DEVICE_NOT_REGISTERED", appErr.Code)
}

func TestAttendanceEngine_CheckIn_InvalidSignatureFails(t *testing.T) {
	pub, _ := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(emp), newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.CheckIn(context.Background(), emp.Email, "bm90LWEtc2ln", "data", nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_SIGNATURE", appErr.Code)
}

func TestAttendanceEngine_CheckOut_WithinBlockedWindowFails(t *testing.T) {
	pub, priv := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	payload := "check-out:e1:2026-03-15"
	sig := signData(t, priv, payload)

	blocked := clock.NewFake(time.Date(2026, 3, 15, 16, 30, 0, 0, time.UTC))
	engine := newTestEngine(t, blocked, newFakeEmployeeStore(emp), newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.CheckOut(context.Background(), emp.Email, sig, payload, nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CHECKOUT_WINDOW_BLOCKED", appErr.Code)
}

func TestAttendanceEngine_CheckOut_HalfDayBand(t *testing.T) {
	pub, priv := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}

	checkInAt := clock.NewFake(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	empStore := newFakeEmployeeStore(emp)
	attStore := newFakeAttendanceStore()
	audit := &fakeAuditRecorder{}
	engine := newTestEngine(t, checkInAt, empStore, attStore, newFakePayrollStore(), &fakeOfficeStore{}, audit)

	checkInPayload := "check-in:e1:2026-03-15"
	_, err := engine.CheckIn(context.Background(), emp.Email, signData(t, priv, checkInPayload), checkInPayload, nil)
	require.NoError(t, err)

	checkOutAt := clock.NewFake(time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)) // 5 hours later
	engine.clock = checkOutAt

	checkOutPayload := "check-out:e1:2026-03-15"
	a, err := engine.CheckOut(context.Background(), emp.Email, signData(t, priv, checkOutPayload), checkOutPayload, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHalfDay, a.Status)
}

func TestAttendanceEngine_CheckOut_WithoutCheckInFails(t *testing.T) {
	pub, priv := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	payload := "check-out:e1:2026-03-15"
	sig := signData(t, priv, payload)

	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(emp), newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.CheckOut(context.Background(), emp.Email, sig, payload, nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "MISSING_CHECK_IN", appErr.Code)
}

func TestAttendanceEngine_RegisterDevice_RebindingRejected(t *testing.T) {
	pub, _ := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(emp), newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	newPub, _ := genKeyPair(t)
	err := engine.RegisterDevice(context.Background(), emp.Email, newPub, nil)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ALREADY_EXISTS", appErr.Code)
}

func TestAttendanceEngine_ResetDevice_ClearsBinding(t *testing.T) {
	pub, _ := genKeyPair(t)
	emp := &domain.Employee{ID: "e1", Email: "a@x.com", DevicePublicKey: &pub}
	empStore := newFakeEmployeeStore(emp)
	audit := &fakeAuditRecorder{}
	engine := newTestEngine(t, inWindow(), empStore, newFakeAttendanceStore(), newFakePayrollStore(), &fakeOfficeStore{}, audit)

	err := engine.ResetDevice(context.Background(), emp.ID, "admin-1", "device lost by employee")
	require.NoError(t, err)
	assert.False(t, emp.HasDevice())
	assert.Contains(t, audit.calls, "device-reset")

	newPub, newPriv := genKeyPair(t)
	err = engine.RegisterDevice(context.Background(), emp.Email, newPub, nil)
	require.NoError(t, err)
	assert.True(t, emp.HasDevice())
	_ = newPriv
}

func TestAttendanceEngine_ModifyAttendance_LockedFails(t *testing.T) {
	attStore := newFakeAttendanceStore()
	a := &domain.Attendance{ID: "att-1", EmployeeID: "e1", Date: "2026-03-15", IsLocked: true}
	attStore.byID["att-1"] = a

	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(), attStore, newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.ModifyAttendance(context.Background(), "att-1", "admin-1", "correcting a bad clock-in time", ModificationInput{})
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ATTENDANCE_LOCKED", appErr.Code)
}

func TestAttendanceEngine_ModifyAttendance_ShortReasonFails(t *testing.T) {
	attStore := newFakeAttendanceStore()
	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(), attStore, newFakePayrollStore(), &fakeOfficeStore{}, &fakeAuditRecorder{})

	_, err := engine.ModifyAttendance(context.Background(), "att-1", "admin-1", "typo", ModificationInput{})
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "MISSING_REASON", appErr.Code)
}

func TestAttendanceEngine_ModifyAttendance_AdjustsPayrollCounters(t *testing.T) {
	attStore := newFakeAttendanceStore()
	a := &domain.Attendance{ID: "att-1", EmployeeID: "e1", Date: "2026-02-12", Status: domain.StatusAbsent}
	attStore.byID["att-1"] = a
	attStore.byKey[key("e1", "2026-02-12")] = a

	payStore := newFakePayrollStore()
	p := &domain.Payroll{
		ID: "p1", EmployeeID: "e1", Month: "2026-02",
		DailyRate: 1000, PresentDays: 20, HalfDays: 1, AbsentDays: 3, SundayDays: 4,
	}
	p.NetSalary = p.DailyRate * p.PaidDays()
	payStore.byKey[key("e1", "2026-02")] = p

	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(), attStore, payStore, &fakeOfficeStore{}, &fakeAuditRecorder{})

	status := domain.StatusPresent
	_, err := engine.ModifyAttendance(context.Background(), "att-1", "admin-1", "forgot to check out, confirmed by manager", ModificationInput{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, 21, p.PresentDays)
	assert.Equal(t, 2, p.AbsentDays)
	assert.Equal(t, p.DailyRate*p.PaidDays(), p.NetSalary)
}

func TestAttendanceEngine_ModifyAttendance_UpdatesStatusAndAudits(t *testing.T) {
	attStore := newFakeAttendanceStore()
	checkIn := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	a := &domain.Attendance{ID: "att-1", EmployeeID: "e1", Date: "2026-03-15", Status: domain.StatusAbsent, CheckInTime: &checkIn}
	attStore.byID["att-1"] = a
	attStore.byKey[key("e1", "2026-03-15")] = a

	audit := &fakeAuditRecorder{}
	engine := newTestEngine(t, inWindow(), newFakeEmployeeStore(), attStore, newFakePayrollStore(), &fakeOfficeStore{}, audit)

	checkOut := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	updated, err := engine.ModifyAttendance(context.Background(), "att-1", "admin-1", "employee forgot to check out", ModificationInput{CheckOutTime: &checkOut})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresent, updated.Status)
	assert.False(t, updated.IsAutoCalculated)
	assert.Contains(t, audit.calls, "attendance-modified")
	assert.Len(t, attStore.mods, 1)
}
