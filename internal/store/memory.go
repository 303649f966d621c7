package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory Store used by the engine tests. Seeding goes
// through the Add* helpers; reads and writes behave like the gorm
// implementation, including the survivor rule for duplicates and the
// (nil, nil) contract for a missing weekly bonus.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64

	employees        []memEmployee
	dailies          []memDaily
	employeeRevenues []EmployeeRevenueRow
	weeklyBonuses    []WeeklyBonusRow
	bonusDetails     []BonusDetailRow
}

type memEmployee struct {
	EmployeeRow
	BranchID int64
}

type memDaily struct {
	DailyRevenueRow
	BranchID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// --- Seeding helpers ---

func (m *MemoryStore) AddEmployee(branchID int64, name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.employees = append(m.employees, memEmployee{
		EmployeeRow: EmployeeRow{ID: id, EmployeeName: name},
		BranchID:    branchID,
	})
	return id
}

func (m *MemoryStore) AddDailyRevenue(branchID int64, date time.Time, cash, network, total decimal.Decimal) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.dailies = append(m.dailies, memDaily{
		DailyRevenueRow: DailyRevenueRow{ID: id, Date: date, Cash: cash, Network: network, Total: total},
		BranchID:        branchID,
	})
	return id
}

func (m *MemoryStore) AddEmployeeRevenue(employeeID, dailyRevenueID int64, total decimal.Decimal) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.employeeRevenues = append(m.employeeRevenues, EmployeeRevenueRow{
		ID:             id,
		EmployeeID:     employeeID,
		DailyRevenueID: dailyRevenueID,
		Total:          total,
	})
	return id
}

func (m *MemoryStore) AddWeeklyBonus(row WeeklyBonusRow) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = m.id()
	m.weeklyBonuses = append(m.weeklyBonuses, row)
	return row.ID
}

func (m *MemoryStore) AddBonusDetail(row BonusDetailRow) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = m.id()
	m.bonusDetails = append(m.bonusDetails, row)
	return row.ID
}

// --- Reads ---

func (m *MemoryStore) DailyRevenues(_ context.Context, branchID int64, start, end time.Time) ([]DailyRevenueRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []DailyRevenueRow
	for _, d := range m.dailies {
		if d.BranchID == branchID && inRange(d.Date, start, end) {
			rows = append(rows, d.DailyRevenueRow)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func (m *MemoryStore) EmployeeSumsByDaily(_ context.Context, branchID int64, start, end time.Time) ([]EmployeeDaySum, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sums := map[int64]decimal.Decimal{}
	var order []int64
	for _, er := range m.employeeRevenues {
		d, ok := m.dailyByID(er.DailyRevenueID)
		if !ok || d.BranchID != branchID || !inRange(d.Date, start, end) {
			continue
		}
		if _, seen := sums[er.DailyRevenueID]; !seen {
			order = append(order, er.DailyRevenueID)
		}
		sums[er.DailyRevenueID] = sums[er.DailyRevenueID].Add(er.Total)
	}
	rows := make([]EmployeeDaySum, 0, len(order))
	for _, id := range order {
		rows = append(rows, EmployeeDaySum{DailyRevenueID: id, Sum: sums[id]})
	}
	return rows, nil
}

func (m *MemoryStore) EmployeeDayTotals(_ context.Context, branchID int64, start, end time.Time) ([]EmployeeDayTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []EmployeeDayTotal
	for _, er := range m.employeeRevenues {
		d, ok := m.dailyByID(er.DailyRevenueID)
		if !ok || d.BranchID != branchID || !inRange(d.Date, start, end) {
			continue
		}
		rows = append(rows, EmployeeDayTotal{EmployeeID: er.EmployeeID, Date: d.Date, Total: er.Total})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func (m *MemoryStore) WeeklyBonus(_ context.Context, branchID int64, week, month, year int) (*WeeklyBonusRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.weeklyBonuses {
		if b.BranchID == branchID && b.WeekNumber == week && b.Month == month && b.Year == year {
			row := b
			return &row, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) WeeklyBonusesForMonth(_ context.Context, branchID int64, month, year int) ([]WeeklyBonusRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []WeeklyBonusRow
	for _, b := range m.weeklyBonuses {
		if b.BranchID == branchID && b.Month == month && b.Year == year {
			rows = append(rows, b)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].WeekNumber < rows[j].WeekNumber })
	return rows, nil
}

func (m *MemoryStore) BonusDetails(_ context.Context, weeklyBonusID int64) ([]BonusDetailRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []BonusDetailRow
	for _, d := range m.bonusDetails {
		if d.WeeklyBonusID == weeklyBonusID {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

func (m *MemoryStore) EmployeeBonusDetails(_ context.Context, employeeID int64, start, end time.Time) ([]BonusDetailRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []BonusDetailRow
	for _, d := range m.bonusDetails {
		if d.EmployeeID != employeeID {
			continue
		}
		b, ok := m.weeklyBonusByID(d.WeeklyBonusID)
		if !ok || !inRange(b.WeekStart, start, end) {
			continue
		}
		rows = append(rows, d)
	}
	return rows, nil
}

func (m *MemoryStore) ActiveEmployees(_ context.Context, branchID int64) ([]EmployeeRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []EmployeeRow
	for _, e := range m.employees {
		if e.BranchID == branchID {
			rows = append(rows, e.EmployeeRow)
		}
	}
	return rows, nil
}

func (m *MemoryStore) DailyEntryCount(_ context.Context, branchID int64, month, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.dailies {
		if d.BranchID == branchID && int(d.Date.Month()) == month && d.Date.Year() == year {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) NegativeEmployeeRevenues(_ context.Context, branchID int64) ([]EmployeeRevenueRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []EmployeeRevenueRow
	for _, er := range m.employeeRevenues {
		d, ok := m.dailyByID(er.DailyRevenueID)
		if ok && d.BranchID == branchID && er.Total.IsNegative() {
			rows = append(rows, er)
		}
	}
	return rows, nil
}

func (m *MemoryStore) DuplicateEmployeeRevenues(_ context.Context, branchID int64) ([]EmployeeRevenueRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type pair struct{ employeeID, dailyID int64 }
	lowest := map[pair]int64{}
	for _, er := range m.employeeRevenues {
		p := pair{er.EmployeeID, er.DailyRevenueID}
		if min, ok := lowest[p]; !ok || er.ID < min {
			lowest[p] = er.ID
		}
	}
	var rows []EmployeeRevenueRow
	for _, er := range m.employeeRevenues {
		d, ok := m.dailyByID(er.DailyRevenueID)
		if !ok || d.BranchID != branchID {
			continue
		}
		if lowest[pair{er.EmployeeID, er.DailyRevenueID}] < er.ID {
			rows = append(rows, er)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (m *MemoryStore) OrphanBonusDetails(_ context.Context) ([]BonusDetailRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []BonusDetailRow
	for _, d := range m.bonusDetails {
		if _, ok := m.weeklyBonusByID(d.WeeklyBonusID); !ok {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

// --- Writes ---

func (m *MemoryStore) UpdateWeeklyBonusTotal(_ context.Context, weeklyBonusID int64, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.weeklyBonuses {
		if m.weeklyBonuses[i].ID == weeklyBonusID {
			m.weeklyBonuses[i].TotalAmount = total
		}
	}
	return nil
}

func (m *MemoryStore) ZeroEmployeeRevenue(_ context.Context, employeeRevenueID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.employeeRevenues {
		if m.employeeRevenues[i].ID == employeeRevenueID {
			m.employeeRevenues[i].Total = decimal.Zero
		}
	}
	return nil
}

func (m *MemoryStore) DeleteEmployeeRevenue(_ context.Context, employeeRevenueID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.employeeRevenues[:0]
	for _, er := range m.employeeRevenues {
		if er.ID != employeeRevenueID {
			kept = append(kept, er)
		}
	}
	m.employeeRevenues = kept
	return nil
}

func (m *MemoryStore) DeleteBonusDetail(_ context.Context, bonusDetailID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.bonusDetails[:0]
	for _, d := range m.bonusDetails {
		if d.ID != bonusDetailID {
			kept = append(kept, d)
		}
	}
	m.bonusDetails = kept
	return nil
}

// DeleteWeeklyBonus removes the parent row only, leaving details behind; tests
// use it to manufacture orphans.
func (m *MemoryStore) DeleteWeeklyBonus(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.weeklyBonuses[:0]
	for _, b := range m.weeklyBonuses {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	m.weeklyBonuses = kept
}

// --- Internal lookups (callers hold the lock) ---

func (m *MemoryStore) dailyByID(id int64) (memDaily, bool) {
	for _, d := range m.dailies {
		if d.ID == id {
			return d, true
		}
	}
	return memDaily{}, false
}

func (m *MemoryStore) weeklyBonusByID(id int64) (WeeklyBonusRow, bool) {
	for _, b := range m.weeklyBonuses {
		if b.ID == id {
			return b, true
		}
	}
	return WeeklyBonusRow{}, false
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
