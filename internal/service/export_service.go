package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shiftboard/internal/dto"
	"shiftboard/internal/model"
	"shiftboard/internal/regwindow"
	"shiftboard/internal/repository"
	apperrors "shiftboard/pkg/errors"
)

// myShiftsDefaultDays range used when the calendar request names no bounds
const myShiftsDefaultDays = 35

// ExportService roster spreadsheets and personal shift calendars
type ExportService interface {
	// ExportRoster renders one store-week of published units as an .xlsx workbook
	ExportRoster(ctx context.Context, req *dto.ExportRosterRequest, caller Caller) (*bytes.Buffer, string, error)
	// ExportMyShifts renders the caller's published shifts as an iCalendar feed
	ExportMyShifts(ctx context.Context, userID string, req *dto.MyShiftsRequest) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// ExportRoster
// ════════════════════════════════════════════════════════════
//
// One sheet per week:
//   - rows: shift × counter, sorted
//   - columns: Monday .. Sunday
//   - cells: employee names, "*" marks a manager-forced assignment

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (s *exportService) ExportRoster(ctx context.Context, req *dto.ExportRosterRequest, caller Caller) (*bytes.Buffer, string, error) {
	if !caller.IsAdmin() && caller.StoreID != req.StoreID {
		return nil, "", apperrors.ErrForbidden
	}
	start, err := time.Parse(model.DateLayout, req.WeekStart)
	if err != nil || start.Weekday() != time.Monday {
		return nil, "", ErrInvalidWeek
	}
	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(model.DateLayout)
	}

	units, err := s.repo.AssignmentUnit.ListByStoreDates(ctx, req.StoreID, days[0], days[6])
	if err != nil {
		s.logger.Error("list units for export failed", zap.String("store_id", req.StoreID), zap.Error(err))
		return nil, "", err
	}
	if len(units) == 0 {
		return nil, "", ErrExportNoUnits
	}

	var ids []string
	for i := range units {
		ids = append(ids, units[i].EmployeeIDs...)
	}
	names := s.userNames(ctx, uniqueStrings(ids))

	type rowKey struct{ shift, counter string }
	cells := make(map[rowKey]map[string]string)
	for i := range units {
		u := &units[i]
		k := rowKey{u.ShiftID, u.CounterID}
		if cells[k] == nil {
			cells[k] = make(map[string]string)
		}
		labels := make([]string, 0, len(u.EmployeeIDs))
		for _, id := range u.EmployeeIDs {
			label := id
			if n, ok := names[id]; ok && n != "" {
				label = n
			}
			if slices.Contains(u.AssignedByManagerUIDs, id) {
				label += "*"
			}
			labels = append(labels, label)
		}
		cells[k][u.Date] = strings.Join(labels, ", ")
	}
	rows := make([]rowKey, 0, len(cells))
	for k := range cells {
		rows = append(rows, k)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].shift != rows[j].shift {
			return rows[i].shift < rows[j].shift
		}
		return rows[i].counter < rows[j].counter
	})

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Week " + req.WeekStart
	idx, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error("create sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerate
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "B", 14)
	f.SetColWidth(sheet, "C", "I", 24)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s roster, week of %s", req.StoreID, req.WeekStart))
	f.MergeCell(sheet, "A1", "I1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	f.SetCellValue(sheet, "A2", "Shift")
	f.SetCellValue(sheet, "B2", "Counter")
	for i, d := range days {
		f.SetCellValue(sheet, cell(colName(2+i), 2), fmt.Sprintf("%s %s", weekdayNames[i], d))
	}
	f.SetCellStyle(sheet, "A2", "I2", headerStyle)

	for r, k := range rows {
		row := 3 + r
		f.SetCellValue(sheet, cell("A", row), k.shift)
		f.SetCellValue(sheet, cell("B", row), k.counter)
		for i, d := range days {
			text := "-"
			if v, ok := cells[k][d]; ok && v != "" {
				text = v
			}
			f.SetCellValue(sheet, cell(colName(2+i), row), text)
		}
	}
	if len(rows) > 0 {
		f.SetCellStyle(sheet, "C3", cell("I", 2+len(rows)), wrapStyle)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerate
	}

	return buf, fmt.Sprintf("roster_%s_%s.xlsx", req.StoreID, req.WeekStart), nil
}

// ════════════════════════════════════════════════════════════
// ExportMyShifts
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportMyShifts(ctx context.Context, userID string, req *dto.MyShiftsRequest) ([]byte, string, error) {
	from, to, err := s.calendarRange(req)
	if err != nil {
		return nil, "", err
	}

	units, err := s.repo.AssignmentUnit.ListByEmployee(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("list shifts for calendar failed", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//shiftboard//my shifts//EN")

	stamp := s.now().UTC()
	for i := range units {
		u := &units[i]
		day, err := time.ParseInLocation(model.DateLayout, u.Date, regwindow.Zone)
		if err != nil {
			s.logger.Warn("skip unit with bad date", zap.String("unit_id", u.UnitID), zap.String("date", u.Date))
			continue
		}
		evt := cal.AddEvent(fmt.Sprintf("%s-%s@shiftboard", u.UnitID, userID))
		evt.SetDtStampTime(stamp)
		evt.SetAllDayStartAt(day)
		evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
		evt.SetSummary(fmt.Sprintf("Shift %s", u.ShiftID))
		evt.SetLocation(fmt.Sprintf("%s / %s", u.StoreID, u.CounterID))
		if slices.Contains(u.AssignedByManagerUIDs, userID) {
			evt.SetDescription("Assigned by manager")
		}
	}

	return []byte(cal.Serialize()), fmt.Sprintf("shifts_%s_%s.ics", from, to), nil
}

func (s *exportService) calendarRange(req *dto.MyShiftsRequest) (string, string, error) {
	today := s.now().In(regwindow.Zone)
	from, to := req.From, req.To
	if from == "" {
		from = today.Format(model.DateLayout)
	}
	if to == "" {
		f, err := time.Parse(model.DateLayout, from)
		if err != nil {
			return "", "", ErrInvalidDateRange
		}
		to = f.AddDate(0, 0, myShiftsDefaultDays).Format(model.DateLayout)
	}
	f, err1 := time.Parse(model.DateLayout, from)
	t, err2 := time.Parse(model.DateLayout, to)
	if err1 != nil || err2 != nil || t.Before(f) || t.Sub(f) > maxUnitRangeDays*24*time.Hour {
		return "", "", ErrInvalidDateRange
	}
	return from, to, nil
}

func (s *exportService) userNames(ctx context.Context, ids []string) map[string]string {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	users, err := s.repo.User.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("load user names failed", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.UserID] = u.Name
	}
	return names
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
