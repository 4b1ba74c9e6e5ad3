package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository/mocks"
	"fuel-procurement-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
	Error   models.Error    `json:"error"`
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// setupTestRouter wires every API handler over services backed by the mock repository
func setupTestRouter(repo *mocks.MockFuelRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	logger := quietLogger()
	procurement := NewProcurementHandler(services.NewProcurementService(repo, logger), 7)
	crisis := NewCrisisHandler(services.NewCrisisService(repo, logger))
	alerts := NewAlertHandler(services.NewAlertService(repo, logger))
	stock := NewStockHandler(services.NewStockService(repo, nil, logger))
	imports := NewImportHandler(services.NewPolicyService(repo, logger))

	api := r.Group("/api/v1")
	api.GET("/shortages", procurement.GetShortages)
	api.GET("/procurement/summary", procurement.GetSummary)
	api.GET("/suppliers/recommendations", procurement.GetSupplierRecommendations)
	api.GET("/forecast", procurement.GetForecast)

	api.GET("/crisis/options", crisis.GetOptions)
	api.POST("/crisis/split-delivery", crisis.AcceptSplitDelivery)
	api.POST("/crisis/transfer", crisis.AcceptTransfer)
	api.GET("/crisis/cases", crisis.ListCases)
	api.GET("/crisis/cases/:id", crisis.GetCase)
	api.POST("/crisis/cases/:id/compensating-po", crisis.LinkCompensatingPO)
	api.POST("/crisis/cases/:id/resolve", crisis.ResolveCase)

	api.GET("/alerts", alerts.ListAlerts)
	api.GET("/alerts/summary", alerts.GetAlertSummary)
	api.GET("/alerts/depots/:id", alerts.GetDepotAlerts)

	api.PUT("/tanks/:id/stock", stock.UpdateTankStock)
	api.GET("/tanks/:id/history", stock.GetTankHistory)

	api.GET("/stock-policies/import/template", imports.GetStockPolicyImportTemplate)
	api.POST("/stock-policies/import", imports.ImportStockPolicies)
	return r
}

func perform(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// expectEmptyFleet registers snapshot reads that return nothing
func expectEmptyFleet(repo *mocks.MockFuelRepository) {
	repo.On("LoadParameters", mock.Anything).Return(map[string]string{}, nil)
	repo.On("ListDepots", mock.Anything).Return([]models.Depot{}, nil)
	repo.On("ListFuelTypes", mock.Anything).Return([]models.FuelType{}, nil)
	repo.On("ListTanks", mock.Anything, mock.Anything).Return([]models.Tank{}, nil)
	repo.On("ListConsumptionRates", mock.Anything, mock.Anything, mock.Anything).Return([]models.ConsumptionRate{}, nil)
	repo.On("ListStockPolicies", mock.Anything, mock.Anything).Return([]models.StockPolicy{}, nil)
	repo.On("ListSupplierOffers", mock.Anything, mock.Anything).Return([]models.SupplierOffer{}, nil)
	repo.On("ListActiveOrders", mock.Anything, mock.Anything).Return([]models.Order{}, nil)
}
