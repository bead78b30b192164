package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := timezone.ParseDate(raw)
	require.NoError(t, err)
	return d
}

type searchServiceMock struct {
	result  *models.SlotSearchResult
	err     error
	lastReq models.SlotSearchRequest
}

func (m *searchServiceMock) SearchAvailableSlots(ctx context.Context, req models.SlotSearchRequest) (*models.SlotSearchResult, error) {
	m.lastReq = req
	return m.result, m.err
}

type exportServiceMock struct {
	file       *service.ExportFile
	err        error
	lastFormat string
}

func (m *exportServiceMock) ExportSlots(ctx context.Context, req models.SlotSearchRequest, format string) (*service.ExportFile, error) {
	m.lastFormat = format
	return m.file, m.err
}

type bookingServiceMock struct {
	result    *models.ReservationResult
	err       error
	lastActor models.Actor
	lastReq   dto.ReserveSlotRequest
	called    bool
}

func (m *bookingServiceMock) ReserveSlot(ctx context.Context, actor models.Actor, req dto.ReserveSlotRequest) (*models.ReservationResult, error) {
	m.called = true
	m.lastActor = actor
	m.lastReq = req
	return m.result, m.err
}

type teacherAvailabilityMock struct {
	slots      []models.TeacherSlot
	err        error
	lastID     string
	lastFrom   string
	lastTo     string
	lastUpdate models.UpdateAvailabilityRequest
	opened     bool
	closed     bool
}

func (m *teacherAvailabilityMock) ListSlots(ctx context.Context, actor models.Actor, teacherID, from, to string) ([]models.TeacherSlot, error) {
	m.lastID, m.lastFrom, m.lastTo = teacherID, from, to
	return m.slots, m.err
}

func (m *teacherAvailabilityMock) OpenSlots(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest) error {
	m.opened = true
	m.lastID = teacherID
	m.lastUpdate = req
	return m.err
}

func (m *teacherAvailabilityMock) CloseSlots(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest) error {
	m.closed = true
	m.lastID = teacherID
	m.lastUpdate = req
	return m.err
}

func newTestContext(method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAvailabilityHandlerSearch(t *testing.T) {
	svc := &searchServiceMock{result: &models.SlotSearchResult{
		ClientTimezone: "saudi",
		LocalDate:      "2025-06-24",
		LocalTime:      "19:00",
		UTCDate:        "2025-06-24",
		Query:          service.BuildAvailabilityQuery(mustDate(t, "2025-06-24"), 16, models.TeacherTypeKids),
		Slots:          []models.AggregatedTimeSlot{{UTCStartTime: "16:00"}, {UTCStartTime: "16:30"}},
	}}
	h := NewAvailabilityHandler(svc, &exportServiceMock{})

	c, w := newTestContext(http.MethodGet, "/availability/slots?date=2025-06-24&timezone=saudi&time=19:00&teacher_type=kids", "", nil)
	h.Search(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SlotSearchRequest{Date: "2025-06-24", Timezone: "saudi", Time: "19:00", TeacherType: "kids"}, svc.lastReq)
	body := decodeEnvelope(t, w)
	meta := body["meta"].(map[string]interface{})
	assert.EqualValues(t, 2, meta["count"])
	assert.Equal(t, "saudi", meta["client_timezone"])
	assert.Equal(t, []interface{}{"2025-06-24 15:00", "2025-06-24 18:00"}, meta["window"])
	assert.Len(t, body["data"], 2)
}

func TestAvailabilityHandlerSearchError(t *testing.T) {
	svc := &searchServiceMock{err: appErrors.Clone(appErrors.ErrInvalidTimezone, "unknown timezone \"mars\"")}
	h := NewAvailabilityHandler(svc, &exportServiceMock{})

	c, w := newTestContext(http.MethodGet, "/availability/slots?date=2025-06-24&timezone=mars&time=19", "", nil)
	h.Search(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "INVALID_TIMEZONE", body["error"].(map[string]interface{})["code"])
}

func TestAvailabilityHandlerExport(t *testing.T) {
	exporter := &exportServiceMock{file: &service.ExportFile{
		Filename:    "availability_saudi_2025-06-24_1900.csv",
		ContentType: "text/csv",
		Data:        []byte("a,b\n"),
	}}
	h := NewAvailabilityHandler(&searchServiceMock{}, exporter)

	c, w := newTestContext(http.MethodGet, "/availability/slots/export?date=2025-06-24&timezone=saudi&time=19:00&format=csv", "", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "availability_saudi_2025-06-24_1900.csv")
	assert.Equal(t, "a,b\n", w.Body.String())
}

func TestBookingHandlerReserveTrial(t *testing.T) {
	svc := &bookingServiceMock{result: &models.ReservationResult{Success: true, SessionID: "session-1", TeacherID: "t1"}}
	h := NewBookingHandler(svc)

	payload := `{"date":"2025-06-24","time_slot":"16:00","teacher_id":"any","teacher_ids":["t1","t2"],"subject":{"student_name":"Omar","contact_phone":"+966500000000"}}`
	c, w := newTestContext(http.MethodPost, "/bookings/trial", payload, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSales})
	h.ReserveTrial(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.Actor{UserID: "sales-1", Role: models.RoleSales}, svc.lastActor)
	assert.Equal(t, []string{"t1", "t2"}, svc.lastReq.TeacherIDs)
	assert.Equal(t, "Omar", svc.lastReq.Subject.StudentName)
}

func TestBookingHandlerInvalidBody(t *testing.T) {
	svc := &bookingServiceMock{}
	h := NewBookingHandler(svc)

	c, w := newTestContext(http.MethodPost, "/bookings/trial", `{"date":`, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSales})
	h.ReserveTrial(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.called)
}

func TestBookingHandlerMapsTypedErrors(t *testing.T) {
	cases := []struct {
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{appErrors.Clone(appErrors.ErrSlotAlreadyTaken, ""), http.StatusConflict, "SLOT_ALREADY_TAKEN", ""},
		{appErrors.Clone(appErrors.ErrTodayLocked, ""), http.StatusLocked, "TODAY_LOCKED", ""},
		{appErrors.WrapAs(errors.New("conn reset"), appErrors.ErrDatastoreUnavailable, ""), http.StatusServiceUnavailable, "DATASTORE_UNAVAILABLE", "5"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			h := NewBookingHandler(&bookingServiceMock{err: tc.err})
			payload := `{"date":"2025-06-24","time_slot":"16:00","teacher_id":"t1","subject":{"student_name":"Omar","contact_phone":"1"}}`
			c, w := newTestContext(http.MethodPost, "/bookings/trial", payload, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSales})
			h.ReserveTrial(c)

			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.retryAfter, w.Header().Get("Retry-After"))
			body := decodeEnvelope(t, w)
			assert.Equal(t, tc.code, body["error"].(map[string]interface{})["code"])
		})
	}
}

func TestTeacherAvailabilityHandlerList(t *testing.T) {
	svc := &teacherAvailabilityMock{slots: []models.TeacherSlot{{LocalDate: "2025-06-24", LocalTime: "19:00"}}}
	h := NewTeacherAvailabilityHandler(svc)

	c, w := newTestContext(http.MethodGet, "/teachers/t1/availability?from=2025-06-24&to=2025-06-30", "", &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", svc.lastID)
	assert.Equal(t, "2025-06-24", svc.lastFrom)
	assert.Equal(t, "2025-06-30", svc.lastTo)
}

func TestTeacherAvailabilityHandlerOpenAndClose(t *testing.T) {
	svc := &teacherAvailabilityMock{}
	h := NewTeacherAvailabilityHandler(svc)
	claims := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}

	c, w := newTestContext(http.MethodPut, "/teachers/t1/availability", `{"date":"2025-06-24","slots":["19:00","19:30"]}`, claims)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	h.Open(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.opened)
	assert.Equal(t, []string{"19:00", "19:30"}, svc.lastUpdate.Slots)

	svc.err = appErrors.Clone(appErrors.ErrSlotBooked, "")
	c, w = newTestContext(http.MethodDelete, "/teachers/t1/availability", `{"date":"2025-06-24","slots":["19:00"]}`, claims)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	h.Close(c)
	assert.True(t, svc.closed)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimezoneHandlerList(t *testing.T) {
	h := NewTimezoneHandler(timezone.MustDefaultRegistry())

	c, w := newTestContext(http.MethodGet, "/timezones", "", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []dto.TimezoneItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data)
	operations := 0
	for _, item := range body.Data {
		if item.Operations {
			operations++
		}
	}
	assert.Equal(t, 1, operations)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return nil }),
	})
	c, w := newTestContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    PingFunc(func(ctx context.Context) error { return errors.New("dial tcp: refused") }),
	})
	c, w = newTestContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeEnvelope(t, w)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "dial tcp: refused", checks["redis"])
}
