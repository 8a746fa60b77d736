package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"childcare/constants"
	apperrors "childcare/errors"
	"childcare/models"
	"childcare/services/logger"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

// Thứ tự cột chuẩn trên worksheet AttendanceLog. Cột "Sync UUID" là identity
// chống ghi trùng khi replay hàng đợi.
var attendanceHeaders = []string{
	"Date",
	"Child Name",
	"Event Name",
	"Event ID",
	"Session Label",
	"Session Period",
	"Session ID",
	"State",
	"Church Location",
	"Camp Group",
	"Service",
	"Day Tag",
	"Check-in Time",
	"Check-out Time",
	"Status",
	"Instructor",
	"Notes",
	"Sync UUID",
}

type SheetsConfig struct {
	SpreadsheetID    string
	AttendanceSheet  string
	ChildrenSheet    string
	InstructorsSheet string
	Timeout          time.Duration
}

// SheetsStore là backend Google Sheets: mỗi worksheet là một bảng, mỗi dòng là
// một bản ghi. Không có transaction, nên mọi guarantee exactly-once nằm ở
// Sync UUID và thứ tự replay của Sync Engine, không nằm ở đây.
type SheetsStore struct {
	srv *sheets.Service
	cfg SheetsConfig
	log logger.Logger
}

func NewSheetsStore(srv *sheets.Service, cfg SheetsConfig, log logger.Logger) *SheetsStore {
	if cfg.AttendanceSheet == "" {
		cfg.AttendanceSheet = "AttendanceLog"
	}
	if cfg.ChildrenSheet == "" {
		cfg.ChildrenSheet = "Form responses 1"
	}
	if cfg.InstructorsSheet == "" {
		cfg.InstructorsSheet = "Instructors"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel)
	}
	return &SheetsStore{srv: srv, cfg: cfg, log: log}
}

// classifyRemoteError tách lỗi remote thành hai loại theo hợp đồng:
// RemoteRejected (4xx, không retry) và RemoteUnreachable (mọi thứ còn lại,
// sẽ được queue lại). 408 và 429 tính là unreachable vì retry được.
func classifyRemoteError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if stderrors.As(err, &gerr) {
		if gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != 408 && gerr.Code != 429 {
			return apperrors.NewAppError(apperrors.ErrCodeRemoteRejected,
				fmt.Sprintf("Google Sheets từ chối request (HTTP %d): %s", gerr.Code, gerr.Message),
				apperrors.ErrRemoteRejected)
		}
	}
	return apperrors.NewAppError(apperrors.ErrCodeRemoteUnreachable,
		"Không kết nối được Google Sheets: "+err.Error(),
		apperrors.ErrRemoteUnreachable)
}

func (s *SheetsStore) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// --- AttendanceStore ---

func (s *SheetsStore) CreateCheckIn(ctx context.Context, in CheckInInput) (*models.AttendanceRecord, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	header, err := s.ensureHeaders(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.readAttendance(ctx, header)
	if err != nil {
		return nil, err
	}

	// check-before-replay: dòng với Sync UUID này đã lên sheet rồi thì không
	// append lần hai (timeout sau khi ghi thành công)
	if in.SyncUUID != "" {
		for i := range records {
			if records[i].SyncUUID == in.SyncUUID {
				return &records[i], nil
			}
		}
	}

	for i := range records {
		rec := &records[i]
		if !rec.Open() || rec.Date != in.Date {
			continue
		}
		if in.SessionID != "" && rec.SessionID != "" && rec.SessionID != in.SessionID {
			continue
		}
		if rec.ChildName == in.ChildName {
			return nil, apperrors.NewAppError(apperrors.ErrCodeChildAlreadyIn,
				in.ChildName+" đang được check-in, phải check-out trước", apperrors.ErrChildAlreadyIn)
		}
		if rec.DayTag == in.DayTag {
			return nil, apperrors.NewAppError(apperrors.ErrCodeTagInUse,
				"Tag "+in.DayTag+" đang được "+rec.ChildName+" giữ", apperrors.ErrTagInUse)
		}
	}

	rec := in.Record()
	row := s.rowFor(header, &rec)
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = s.srv.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.AttendanceSheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return nil, classifyRemoteError(err)
	}
	rec.RemoteRow = len(records) + 2
	rec.SyncStatus = constants.SyncStatusSynced
	return &rec, nil
}

func (s *SheetsStore) CheckOut(ctx context.Context, in CheckOutInput) (*models.AttendanceRecord, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	header, err := s.ensureHeaders(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.readAttendance(ctx, header)
	if err != nil {
		return nil, err
	}

	var targets []models.AttendanceRecord
	for _, rec := range records {
		if !rec.Open() || rec.Date != in.Date || rec.DayTag != in.DayTag {
			continue
		}
		if in.SessionID != "" && rec.SessionID != "" && rec.SessionID != in.SessionID {
			continue
		}
		targets = append(targets, rec)
	}
	if len(targets) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNoActiveRecord,
			"Không có bản ghi mở cho tag "+in.DayTag, apperrors.ErrNoActiveRecord)
	}

	checkoutCol := headerIndex(header, "Check-out Time")
	statusCol := headerIndex(header, "Status")
	if checkoutCol < 0 || statusCol < 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeRemoteRejected,
			"Sheet thiếu cột Check-out Time hoặc Status", apperrors.ErrRemoteRejected)
	}

	var data []*sheets.ValueRange
	for _, rec := range targets {
		data = append(data,
			&sheets.ValueRange{
				Range:  fmt.Sprintf("%s!%s%d", s.cfg.AttendanceSheet, columnLetter(checkoutCol), rec.RemoteRow),
				Values: [][]interface{}{{in.CheckOutTime}},
			},
			&sheets.ValueRange{
				Range:  fmt.Sprintf("%s!%s%d", s.cfg.AttendanceSheet, columnLetter(statusCol), rec.RemoteRow),
				Values: [][]interface{}{{constants.StatusCheckedOut}},
			})
	}
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	if _, err := s.srv.Spreadsheets.Values.BatchUpdate(s.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return nil, classifyRemoteError(err)
	}

	closed := targets[0]
	closed.CheckOutTime = in.CheckOutTime
	closed.Status = constants.StatusCheckedOut
	return &closed, nil
}

func (s *SheetsStore) ActiveTagHolders(ctx context.Context, sessionID, date string) (map[string]models.AttendanceRecord, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	header, err := s.ensureHeaders(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.readAttendance(ctx, header)
	if err != nil {
		return nil, err
	}
	holders := make(map[string]models.AttendanceRecord)
	for _, rec := range records {
		if !rec.Open() || rec.Date != date {
			continue
		}
		if sessionID != "" && rec.SessionID != "" && rec.SessionID != sessionID {
			continue
		}
		holders[rec.DayTag] = rec
	}
	return holders, nil
}

func (s *SheetsStore) QueryRecords(ctx context.Context, f RecordFilter) ([]models.AttendanceRecord, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	header, err := s.ensureHeaders(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.readAttendance(ctx, header)
	if err != nil {
		return nil, err
	}
	var out []models.AttendanceRecord
	for i := range records {
		if f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	SortRecords(out)
	return out, nil
}

func (s *SheetsStore) DeleteRecord(ctx context.Context, rowNumber uint) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	if rowNumber < 2 {
		return apperrors.NewAppError(apperrors.ErrCodeRecordNotFound, "Số dòng không hợp lệ", apperrors.ErrRecordNotFound)
	}
	sheetID, err := s.sheetID(ctx, s.cfg.AttendanceSheet)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowNumber - 1),
					EndIndex:   int64(rowNumber),
				},
			},
		}},
	}
	if _, err := s.srv.Spreadsheets.BatchUpdate(s.cfg.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return classifyRemoteError(err)
	}
	return nil
}

func (s *SheetsStore) FindChild(ctx context.Context, fullName string) (*models.Child, error) {
	children, err := s.ListChildren(ctx)
	if err != nil {
		return nil, err
	}
	for i := range children {
		if children[i].FullName == fullName {
			return &children[i], nil
		}
	}
	return nil, apperrors.NewAppError(apperrors.ErrCodeChildNotFound, "Không tìm thấy bé "+fullName, apperrors.ErrChildNotFound)
}

func (s *SheetsStore) ListChildren(ctx context.Context) ([]models.Child, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.srv.Spreadsheets.Values.
		Get(s.cfg.SpreadsheetID, s.cfg.ChildrenSheet).
		Context(ctx).Do()
	if err != nil {
		return nil, classifyRemoteError(err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}
	header := toStrings(resp.Values[0])
	var children []models.Child
	for _, raw := range resp.Values[1:] {
		row := toStrings(raw)
		child := models.Child{
			FullName:       cell(row, header, "Child Full Name"),
			GuardianName:   cell(row, header, "Guardian Name"),
			GuardianPhone:  cell(row, header, "Guardian Phone"),
			ClassType:      cell(row, header, "Class Type"),
			State:          cell(row, header, "State"),
			ChurchLocation: cell(row, header, "Church Location"),
			CampGroup:      cell(row, header, "Camp Group"),
			PhotoURL:       cell(row, header, "Photo"),
			Notes:          cell(row, header, "Notes"),
		}
		if child.FullName == "" {
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

// AppendChild thêm một bé vào sheet đăng ký
func (s *SheetsStore) AppendChild(ctx context.Context, child *models.Child) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	row := []interface{}{
		child.FullName,
		child.GuardianName,
		child.GuardianPhone,
		child.ClassType,
		child.State,
		child.ChurchLocation,
		child.CampGroup,
		child.PhotoURL,
		child.Notes,
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := s.srv.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.ChildrenSheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return classifyRemoteError(err)
}

// Instructors đọc danh sách giáo viên từ sheet (dùng cho đăng nhập ở chế độ
// production)
func (s *SheetsStore) Instructors(ctx context.Context) ([]models.Instructor, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	resp, err := s.srv.Spreadsheets.Values.
		Get(s.cfg.SpreadsheetID, s.cfg.InstructorsSheet).
		Context(ctx).Do()
	if err != nil {
		return nil, classifyRemoteError(err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}
	header := toStrings(resp.Values[0])
	var instructors []models.Instructor
	for _, raw := range resp.Values[1:] {
		row := toStrings(raw)
		ins := models.Instructor{
			Username:     cell(row, header, "Username"),
			Password:     cell(row, header, "Password"),
			FullName:     cell(row, header, "FullName"),
			PhoneNumber:  cell(row, header, "PhoneNumber"),
			ChurchBranch: cell(row, header, "ChurchBranch"),
		}
		if ins.Username == "" {
			continue
		}
		instructors = append(instructors, ins)
	}
	return instructors, nil
}

// --- helpers ---

// ensureHeaders bảo đảm dòng tiêu đề có đủ các cột chuẩn, thêm cột thiếu vào
// cuối (sheet cũ thiếu Sync UUID vẫn dùng tiếp được)
func (s *SheetsStore) ensureHeaders(ctx context.Context) ([]string, error) {
	resp, err := s.srv.Spreadsheets.Values.
		Get(s.cfg.SpreadsheetID, s.cfg.AttendanceSheet+"!1:1").
		Context(ctx).Do()
	if err != nil {
		return nil, classifyRemoteError(err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		header := append([]string{}, attendanceHeaders...)
		if err := s.writeHeader(ctx, header); err != nil {
			return nil, err
		}
		return header, nil
	}

	header := toStrings(resp.Values[0])
	changed := false
	for _, expected := range attendanceHeaders {
		if headerIndex(header, expected) < 0 {
			header = append(header, expected)
			changed = true
		}
	}
	if changed {
		if err := s.writeHeader(ctx, header); err != nil {
			return nil, err
		}
	}
	return header, nil
}

func (s *SheetsStore) writeHeader(ctx context.Context, header []string) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := s.srv.Spreadsheets.Values.
		Update(s.cfg.SpreadsheetID, s.cfg.AttendanceSheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return classifyRemoteError(err)
}

func (s *SheetsStore) readAttendance(ctx context.Context, header []string) ([]models.AttendanceRecord, error) {
	resp, err := s.srv.Spreadsheets.Values.
		Get(s.cfg.SpreadsheetID, s.cfg.AttendanceSheet).
		Context(ctx).Do()
	if err != nil {
		return nil, classifyRemoteError(err)
	}
	if len(resp.Values) < 2 {
		return nil, nil
	}
	records := make([]models.AttendanceRecord, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		row := toStrings(raw)
		rec := models.AttendanceRecord{
			Date:           cell(row, header, "Date"),
			ChildName:      cell(row, header, "Child Name"),
			EventName:      cell(row, header, "Event Name"),
			EventID:        cell(row, header, "Event ID"),
			SessionLabel:   cell(row, header, "Session Label"),
			SessionPeriod:  cell(row, header, "Session Period"),
			SessionID:      cell(row, header, "Session ID"),
			State:          cell(row, header, "State"),
			ChurchLocation: cell(row, header, "Church Location"),
			CampGroup:      cell(row, header, "Camp Group"),
			Service:        cell(row, header, "Service"),
			DayTag:         cell(row, header, "Day Tag"),
			CheckInTime:    cell(row, header, "Check-in Time"),
			CheckOutTime:   cell(row, header, "Check-out Time"),
			Status:         cell(row, header, "Status"),
			Instructor:     cell(row, header, "Instructor"),
			Notes:          cell(row, header, "Notes"),
			SyncUUID:       cell(row, header, "Sync UUID"),
			SyncStatus:     constants.SyncStatusSynced,
			RemoteRow:      i + 2,
		}
		if rec.ChildName == "" && rec.Date == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SheetsStore) rowFor(header []string, rec *models.AttendanceRecord) []interface{} {
	values := map[string]string{
		"Date":            rec.Date,
		"Child Name":      rec.ChildName,
		"Event Name":      rec.EventName,
		"Event ID":        rec.EventID,
		"Session Label":   rec.SessionLabel,
		"Session Period":  rec.SessionPeriod,
		"Session ID":      rec.SessionID,
		"State":           rec.State,
		"Church Location": rec.ChurchLocation,
		"Camp Group":      rec.CampGroup,
		"Service":         rec.Service,
		"Day Tag":         rec.DayTag,
		"Check-in Time":   rec.CheckInTime,
		"Check-out Time":  rec.CheckOutTime,
		"Status":          rec.Status,
		"Instructor":      rec.Instructor,
		"Notes":           rec.Notes,
		"Sync UUID":       rec.SyncUUID,
	}
	row := make([]interface{}, len(header))
	for i, col := range header {
		row[i] = values[strings.TrimSpace(col)]
	}
	return row
}

func (s *SheetsStore) sheetID(ctx context.Context, title string) (int64, error) {
	resp, err := s.srv.Spreadsheets.Get(s.cfg.SpreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return 0, classifyRemoteError(err)
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, apperrors.NewAppError(apperrors.ErrCodeRemoteRejected,
		"Không tìm thấy worksheet "+title, apperrors.ErrRemoteRejected)
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row, header []string, name string) string {
	idx := headerIndex(header, name)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func toStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// columnLetter đổi chỉ số cột 0-based sang ký hiệu cột A1 (0 -> A, 26 -> AA)
func columnLetter(idx int) string {
	letter := ""
	idx++
	for idx > 0 {
		idx--
		letter = string(rune('A'+idx%26)) + letter
		idx /= 26
	}
	return letter
}
