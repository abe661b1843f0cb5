package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
	"github.com/Domenick1991/skypass/internal/service/flights"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) ListAll(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Create(ctx context.Context, input flights.CreateFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) UpdateFare(ctx context.Context, id int64, fareCents int64) error {
	return m.Called(ctx, id, fareCents).Error(0)
}

func (m *MockFlightUseCase) SetAvailability(ctx context.Context, id int64, available bool) error {
	return m.Called(ctx, id, available).Error(0)
}

func (m *MockFlightUseCase) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFlightUseCase) SeatMap(ctx context.Context, id int64) (seating.Map, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(seating.Map), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, origin, destination string, date time.Time) ([]domain.Offer, error) {
	args := m.Called(ctx, origin, destination, date)
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	c, w := newTestContext("GET", "/flights", nil)

	list := []domain.Flight{
		{ID: 1, FlightNumber: "6E-2021", OriginCode: "HYD", DestinationCode: "DEL", Capacity: 180, AvailableSeats: 178, FareCents: 450000},
	}
	mockService.On("List", c.Request.Context()).Return(list, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []domain.Flight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "6E-2021", got[0].FlightNumber)
	assert.Equal(t, 178, got[0].AvailableSeats)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	c, w := newTestContext("GET", "/flights/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	mockService.On("GetByID", c.Request.Context(), int64(1)).Return(&domain.Flight{ID: 1, FlightNumber: "6E-2021"}, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_invalidID(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	c, w := newTestContext("GET", "/flights/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestFlightHandler_get_notFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	c, w := newTestContext("GET", "/flights/999", nil)
	c.Params = gin.Params{{Key: "id", Value: "999"}}

	mockService.On("GetByID", c.Request.Context(), int64(999)).Return(nil, domain.ErrFlightNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_seatMap(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	c, w := newTestContext("GET", "/flights/1/seatmap", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	m := seating.Render(4, seating.NewSet(seating.MustParseSeat("1B")))
	mockService.On("SeatMap", c.Request.Context(), int64(1)).Return(m, nil)

	handler.seatMap(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp seatMapResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Free)
	assert.Equal(t, []string{"1A", "XX", "1C", "", "1D", "--", "--"}, resp.Rows[0])
	assert.Contains(t, resp.Text, "[XX]")
}

func TestFlightHandler_search(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	c, w := newTestContext("GET", "/offers?origin=HYD&destination=DEL&date=2025-03-01", nil)

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mockService.On("Search", c.Request.Context(), "HYD", "DEL", date).Return([]domain.Offer{{FlightNumber: "6E-2021"}}, nil)

	handler.search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "6E-2021")

	c, w = newTestContext("GET", "/offers?origin=HYD&destination=DEL&date=tomorrow", nil)
	handler.search(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	body := []byte(`{"flight_number":"6E-2021","airline_code":"6E","origin_code":"HYD","destination_code":"DEL",
		"departure_date":"2025-03-01","departure_time":"06:10","arrival_time":"08:25","capacity":180,"fare_cents":450000}`)
	c, w := newTestContext("POST", "/admin/flights", body)

	input := flights.CreateFlightInput{
		FlightNumber:    "6E-2021",
		AirlineCode:     "6E",
		OriginCode:      "HYD",
		DestinationCode: "DEL",
		DepartureDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DepartureTime:   "06:10",
		ArrivalTime:     "08:25",
		Capacity:        180,
		FareCents:       450000,
	}
	mockService.On("Create", c.Request.Context(), input).Return(&domain.Flight{ID: 9, FlightNumber: "6E-2021"}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_create_errors(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("POST", "/admin/flights", []byte(`{"flight_number":"6E-2021"}`))
	handler.create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := []byte(`{"flight_number":"6E-2021","airline_code":"ZZ","origin_code":"HYD","destination_code":"DEL",
		"departure_date":"2025-03-01","departure_time":"06:10","arrival_time":"08:25","capacity":180}`)
	c, w = newTestContext("POST", "/admin/flights", body)
	mockService.On("Create", c.Request.Context(), mock.Anything).Return(nil, domain.ErrNotFound)
	handler.create(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_updates(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	c, w := newTestContext("PATCH", "/admin/flights/3/fare", []byte(`{"fare_cents":0}`))
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	mockService.On("UpdateFare", c.Request.Context(), int64(3), int64(0)).Return(nil).Once()
	handler.updateFare(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())

	c, w = newTestContext("PATCH", "/admin/flights/3/availability", []byte(`{"available":false}`))
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	mockService.On("SetAvailability", c.Request.Context(), int64(3), false).Return(nil).Once()
	handler.setAvailability(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())

	c, w = newTestContext("PATCH", "/admin/flights/3/availability", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	handler.setAvailability(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext("DELETE", "/admin/flights/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	mockService.On("Delete", c.Request.Context(), int64(3)).Return(nil).Once()
	handler.delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())

	mockService.AssertExpectations(t)
}
