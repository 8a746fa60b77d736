package services

import (
	"context"
	stderrors "errors"
	"sort"
	"time"
	_ "time/tzdata"

	"childcare/config"
	"childcare/constants"
	"childcare/dto"
	"childcare/errors"
	"childcare/models"
	"childcare/store"

	"github.com/olahol/melody"
)

// Attendance là Sync Engine dùng chung cho toàn app, gán lúc khởi động
var Attendance *store.Engine

func SetEngine(e *store.Engine) {
	Attendance = e
}

func campLocation() *time.Location {
	loc, err := time.LoadLocation(constants.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CurrentDate trả về ngày hôm nay theo múi giờ camp
func CurrentDate() string {
	return time.Now().In(campLocation()).Format(constants.DateLayout)
}

// CurrentTime trả về giờ hiện tại theo múi giờ camp
func CurrentTime() string {
	return time.Now().In(campLocation()).Format(constants.TimeLayout)
}

// ResolveSession tìm session cho một lượt điểm danh: session được chỉ định
// phải tồn tại trong event; không chỉ định thì lấy session đang diễn ra theo
// giờ hiện tại, rồi đến session đầu tiên của ngày.
func ResolveSession(event *models.Event, sessionID, date, timeOfDay string) (*models.Session, error) {
	if event == nil {
		return nil, nil
	}
	if sessionID != "" {
		session := event.FindSession(sessionID)
		if session == nil {
			return nil, errors.NewAppError(errors.ErrCodeSessionNotFound,
				"Không tìm thấy session "+sessionID+" trong event "+event.ID, nil)
		}
		return session, nil
	}
	sessions := event.SessionsForDate(date)
	if len(sessions) == 0 {
		return nil, nil
	}
	for i := range sessions {
		s := &sessions[i]
		if s.StartTime != "" && s.EndTime != "" && s.StartTime <= timeOfDay && timeOfDay <= s.EndTime {
			return s, nil
		}
	}
	return &sessions[0], nil
}

// BuildCheckInInput dựng input check-in đầy đủ từ request: điền ngày giờ mặc
// định, tra event/session từ catalog và lấy thông tin phân lớp từ roster
func BuildCheckInInput(ctx context.Context, req *dto.CheckInRequest) (store.CheckInInput, error) {
	in := store.CheckInInput{
		SyncUUID:    req.SyncUUID,
		Date:        req.Date,
		ChildName:   req.ChildName,
		EventID:     req.EventID,
		Service:     req.Service,
		DayTag:      req.DayTag,
		CheckInTime: req.CheckInTime,
		Instructor:  req.Instructor,
		Notes:       req.Notes,
	}
	if in.Date == "" {
		in.Date = CurrentDate()
	}
	if in.CheckInTime == "" {
		in.CheckInTime = CurrentTime()
	}

	event := config.FindEvent(req.EventID)
	if req.EventID != "" && event == nil {
		return in, errors.NewAppError(errors.ErrCodeEventNotFound, "Không tìm thấy event "+req.EventID, nil)
	}
	if event != nil {
		in.EventID = event.ID
		in.EventName = event.Name
		session, err := ResolveSession(event, req.SessionID, in.Date, in.CheckInTime)
		if err != nil {
			return in, err
		}
		if session != nil {
			in.SessionID = session.ID
			in.SessionLabel = session.Label
			in.SessionPeriod = session.Period
		}
	}

	child, err := Attendance.FindChild(ctx, req.ChildName)
	if err != nil {
		if stderrors.Is(err, errors.ErrChildNotFound) {
			return in, err
		}
		// roster không đọc được không chặn check-in, chỉ thiếu thông tin
		// phân lớp
		child = nil
	}
	if child != nil {
		in.State = child.State
		in.ChurchLocation = child.ChurchLocation
		in.CampGroup = child.CampGroup
	}
	return in, nil
}

// CheckIn xử lý một lượt check-in từ đầu đến cuối và báo các màn hình khác
func CheckIn(ctx context.Context, req *dto.CheckInRequest, m *melody.Melody) (*store.WriteResult, error) {
	in, err := BuildCheckInInput(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := Attendance.CheckIn(ctx, in)
	if err != nil {
		return nil, err
	}
	BroadcastCheckIn(m, result.Record, result.SyncResult)
	return result, nil
}

// CheckOut đóng bản ghi mở của một tag và báo các màn hình khác
func CheckOut(ctx context.Context, req *dto.CheckOutRequest, m *melody.Melody) (*store.WriteResult, error) {
	in := store.CheckOutInput{
		Date:         req.Date,
		SessionID:    req.SessionID,
		DayTag:       req.DayTag,
		CheckOutTime: req.CheckOutTime,
	}
	if in.Date == "" {
		in.Date = CurrentDate()
	}
	if in.CheckOutTime == "" {
		in.CheckOutTime = CurrentTime()
	}
	result, err := Attendance.CheckOut(ctx, in)
	if err != nil {
		return nil, err
	}
	BroadcastCheckOut(m, result.Record, result.SyncResult)
	return result, nil
}

// ActiveTags trả về danh sách tag đang được giữ, sắp theo giờ check-in
func ActiveTags(ctx context.Context, sessionID, date string) ([]dto.ActiveTagResponse, error) {
	if date == "" {
		date = CurrentDate()
	}
	// màn check-in mở ra thì tranh thủ đẩy hàng đợi trước, danh sách tag
	// hiển thị mới khớp với sheet
	if Attendance.RemoteMode() {
		if n, err := Attendance.PendingCount(ctx); err == nil && n > 0 {
			// mất mạng thì thôi, vẫn trả danh sách từ dữ liệu local
			_, _ = Attendance.Flush(ctx)
		}
	}
	holders, err := Attendance.ActiveTagHolders(ctx, sessionID, date)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActiveTagResponse, 0, len(holders))
	for tag, rec := range holders {
		out = append(out, dto.ActiveTagResponse{
			DayTag:      tag,
			ChildName:   rec.ChildName,
			CheckInTime: rec.CheckInTime,
			SessionID:   rec.SessionID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckInTime < out[j].CheckInTime
	})
	return out, nil
}
