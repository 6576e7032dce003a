package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/payables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recurrenceBody struct {
	Period      string          `json:"period" binding:"required,recurrence_period"`
	WeekendRule string          `json:"weekend_rule" binding:"omitempty,weekend_rule"`
	Mode        string          `json:"mode" binding:"omitempty,launch_mode"`
	Status      string          `json:"status" binding:"omitempty,payable_status"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Count       int             `json:"count" binding:"gte=0,lte=999"`
}

func bindBody(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	SetupValidator()

	engine := gin.New()
	engine.POST("/bind", func(c *gin.Context) {
		var req recurrenceBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := serve(engine, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))
	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func detailsByField(resp dto.Response) map[string]string {
	out := make(map[string]string)
	if resp.Error == nil {
		return out
	}
	for _, d := range resp.Error.Details {
		out[d.Field] = d.Message
	}
	return out
}

func TestValidation_Accepts(t *testing.T) {
	w, _ := bindBody(t, `{"period":"MONTHLY","weekend_rule":"POSTPONE","mode":"PERCENTAGE","status":"overdue","amount":"12.50","count":12}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestValidation_CustomTags(t *testing.T) {
	w, resp := bindBody(t, `{"period":"DAILY","weekend_rule":"SKIP","mode":"RATIO","status":"LATE","amount":"5"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	fields := detailsByField(resp)
	assert.Equal(t, "Must be one of: WEEKLY MONTHLY SEMIANNUAL ANNUAL", fields["period"])
	assert.Equal(t, "Must be one of: KEEP ANTICIPATE POSTPONE", fields["weekend_rule"])
	assert.Equal(t, "Must be one of: FIXED PERCENTAGE", fields["mode"])
	assert.Equal(t, "Must be one of: PENDING OVERDUE PAID CANCELLED", fields["status"])
}

func TestValidation_DecimalAndRange(t *testing.T) {
	w, resp := bindBody(t, `{"period":"WEEKLY","amount":"-3","count":1000}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := detailsByField(resp)
	assert.Equal(t, "Must be greater than 0", fields["amount"])
	assert.Equal(t, "Must be less than or equal to 999", fields["count"])
}

func TestValidation_MissingRequired(t *testing.T) {
	_, resp := bindBody(t, `{}`)

	fields := detailsByField(resp)
	assert.Equal(t, "This field is required", fields["period"])
	assert.Equal(t, "This field is required", fields["amount"])
}

func TestValidation_MalformedJSON(t *testing.T) {
	w, resp := bindBody(t, `{"period":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
