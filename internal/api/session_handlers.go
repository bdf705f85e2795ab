package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/models"
	"github.com/dalfonso89/currency-converter/internal/session"
)

// GetSession returns the shared converter state
func (handlers *Handlers) GetSession(context *gin.Context) {
	context.JSON(http.StatusOK, sessionView(handlers.session.State()))
}

// SelectSessionDate switches the shared converter to another rate date.
// A value that is not a date yet leaves the state untouched.
func (handlers *Handlers) SelectSessionDate(context *gin.Context) {
	var request models.DateRequest
	if err := context.ShouldBindJSON(&request); err != nil {
		handlers.writeError(context, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	if err := handlers.session.SelectDate(context.Request.Context(), request.Date); err != nil {
		handlers.writeError(context, err)
		return
	}
	context.JSON(http.StatusOK, sessionView(handlers.session.State()))
}

// AddSessionRow appends a conversion row
func (handlers *Handlers) AddSessionRow(context *gin.Context) {
	var request models.RowRequest
	if err := context.ShouldBindJSON(&request); err != nil {
		handlers.writeError(context, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	state := handlers.session.AppendRow(session.Row{
		Source:       request.Source,
		Target:       request.Target,
		SourceAmount: request.SourceAmount,
		TargetAmount: request.TargetAmount,
	})
	context.JSON(http.StatusCreated, sessionView(state))
}

// UpdateSessionRow replaces the row at :index
func (handlers *Handlers) UpdateSessionRow(context *gin.Context) {
	index, ok := handlers.rowIndex(context)
	if !ok {
		return
	}
	var request models.RowRequest
	if err := context.ShouldBindJSON(&request); err != nil {
		handlers.writeError(context, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	state, err := handlers.session.UpdateRow(index, session.Row{
		Source:       request.Source,
		Target:       request.Target,
		SourceAmount: request.SourceAmount,
		TargetAmount: request.TargetAmount,
	})
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	context.JSON(http.StatusOK, sessionView(state))
}

// RemoveSessionRow deletes the row at :index
func (handlers *Handlers) RemoveSessionRow(context *gin.Context) {
	index, ok := handlers.rowIndex(context)
	if !ok {
		return
	}

	state, err := handlers.session.RemoveRow(index)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	context.JSON(http.StatusOK, sessionView(state))
}

// ConvertSessionRow converts the row at :index; ?direction=reverse converts back
func (handlers *Handlers) ConvertSessionRow(context *gin.Context) {
	index, ok := handlers.rowIndex(context)
	if !ok {
		return
	}
	direction, err := convert.ParseDirection(context.Query("direction"))
	if err != nil {
		handlers.writeError(context, err)
		return
	}

	state, err := handlers.session.Convert(index, direction)
	if err != nil {
		handlers.writeError(context, err)
		return
	}
	context.JSON(http.StatusOK, sessionView(state))
}

func (handlers *Handlers) rowIndex(context *gin.Context) (int, bool) {
	index, err := strconv.Atoi(context.Param("index"))
	if err != nil {
		handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid request", "row index must be a number")
		return 0, false
	}
	return index, true
}

func sessionView(state session.State) models.SessionResponse {
	rows := make([]models.RowView, len(state.Rows))
	for i, row := range state.Rows {
		rows[i] = models.RowView{
			Source:       row.Source,
			Target:       row.Target,
			SourceAmount: row.SourceAmount,
			TargetAmount: row.TargetAmount,
		}
	}
	return models.SessionResponse{
		Date:       state.Date.String(),
		RatesDate:  state.RatesDate,
		Pending:    state.Pending,
		Ready:      state.Ready(),
		Currencies: state.Currencies(),
		Rows:       rows,
	}
}
